// Package report renders an extracted record as a PDF document.
//
// Labels are available in English, German, Spanish, French and Hindi.
// The built-in PDF fonts only cover Western European scripts, so Hindi
// labels need a UTF-8 TrueType font (for example Noto Sans Devanagari)
// configured with REPORT_FONT_PATH; without one the report falls back to
// English labels.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"
	"github.com/rs/zerolog"

	"taxdoc/internal/invoice"
	"taxdoc/internal/logger"
	"taxdoc/pkg/models"
)

var (
	// ErrInvalidInput is returned for a nil record.
	ErrInvalidInput = errors.New("record is required")

	// ErrRenderFailed is returned when the PDF cannot be produced.
	ErrRenderFailed = errors.New("failed to build PDF report")
)

// Missing is printed for absent values.
const Missing = "N/A"

const (
	coreFont    = "Helvetica"
	unicodeFont = "ReportUnicode"
	monoFont    = "Courier"

	maxCellRunes = 55
)

// Renderer turns a record into a document.
type Renderer interface {
	Render(record *models.ExtractedRecord, language string) ([]byte, error)
}

// PDFRenderer renders A4 reports with fpdf.
type PDFRenderer struct {
	fontPath string
	log      zerolog.Logger
}

// NewPDFRenderer creates a renderer. fontPath is an optional UTF-8 TrueType
// font used for all text.
func NewPDFRenderer(fontPath string) *PDFRenderer {
	return &PDFRenderer{
		fontPath: fontPath,
		log:      logger.WithComponent("report"),
	}
}

// page wraps fpdf with the font and text conversion chosen for one report.
type page struct {
	pdf     *fpdf.Fpdf
	font    string
	mono    string
	text    func(string) string
	labels  Labels
	unicode bool
}

// Render implements Renderer.
func (r *PDFRenderer) Render(record *models.ExtractedRecord, language string) ([]byte, error) {
	if record == nil {
		return nil, ErrInvalidInput
	}
	language = strings.ToLower(strings.TrimSpace(language))
	if language == "" {
		language = "en"
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)

	p := &page{pdf: pdf, font: coreFont, mono: monoFont}
	if r.fontPath != "" {
		if _, err := os.Stat(r.fontPath); err != nil {
			return nil, fmt.Errorf("%w: font %s: %v", ErrRenderFailed, r.fontPath, err)
		}
		pdf.AddUTF8Font(unicodeFont, "", r.fontPath)
		pdf.AddUTF8Font(unicodeFont, "B", r.fontPath)
		p.font, p.mono, p.unicode = unicodeFont, unicodeFont, true
		p.text = func(s string) string { return s }
	} else {
		p.text = pdf.UnicodeTranslatorFromDescriptor("")
	}

	labelLanguage := language
	if unicodeOnly[language] && !p.unicode {
		r.log.Warn().Str("language", language).Msg("No UTF-8 font configured, using English labels")
		labelLanguage = "en"
	}
	p.labels = LabelsFor(labelLanguage)

	pdf.SetTitle(p.labels.Title, true)
	pdf.SetCreator("taxdoc", true)
	pdf.AddPage()

	p.title(fmt.Sprintf("%s (%s)", p.labels.Title, strings.ToUpper(language)))
	p.basicInfo(record)
	p.parties(record)
	p.lineItems(record.LineItems)
	p.summary(record)
	p.messages(p.labels.ValidationErrors, record.ValidationErrors, 200, 0, 0)
	p.messages(p.labels.Warnings, record.Warnings, 200, 120, 0)
	p.snippet(record.RawOCRTextReference)

	if pdf.Err() {
		r.log.Error().Err(pdf.Error()).Msg("Failed to build PDF report")
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, pdf.Error())
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		r.log.Error().Err(err).Msg("Failed to write PDF report")
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}

	r.log.Debug().
		Str("language", language).
		Int("pdf_size", buf.Len()).
		Msg("PDF report generated")
	return buf.Bytes(), nil
}

func (p *page) title(s string) {
	p.pdf.SetFont(p.font, "B", 16)
	p.pdf.CellFormat(0, 10, p.text(s), "", 1, "C", false, 0, "")
	p.pdf.Ln(4)
}

func (p *page) heading(s string) {
	p.pdf.Ln(2)
	p.pdf.SetFont(p.font, "B", 12)
	p.pdf.CellFormat(0, 8, p.text(s), "", 1, "L", false, 0, "")
	p.pdf.SetFont(p.font, "", 10)
}

// field writes a bold label followed by its value.
func (p *page) field(label, value string) {
	p.pdf.SetFont(p.font, "B", 10)
	p.pdf.CellFormat(50, 6, p.text(label), "", 0, "L", false, 0, "")
	p.pdf.SetFont(p.font, "", 10)
	p.pdf.MultiCell(0, 6, p.text(value), "", "L", false)
}

func (p *page) basicInfo(r *models.ExtractedRecord) {
	p.heading(p.labels.BasicInfo)
	p.field(p.labels.DocumentType, models.StringOr(r.DocumentType, Missing))
	p.field(p.labels.InvoiceNumber, models.StringOr(r.InvoiceNumber, Missing))
	p.field(p.labels.Date, models.StringOr(r.Date, Missing))
	p.field(p.labels.DueDate, models.StringOr(r.DueDate, Missing))
}

func (p *page) parties(r *models.ExtractedRecord) {
	p.heading(p.labels.Parties)
	rows := [][4]string{
		{p.labels.VendorName, models.StringOr(r.VendorName, Missing), p.labels.CustomerName, models.StringOr(r.CustomerName, Missing)},
		{p.labels.VendorAddress, models.StringOr(r.VendorAddress, Missing), p.labels.CustomerAddress, models.StringOr(r.CustomerAddress, Missing)},
		{p.labels.VendorTaxID, models.StringOr(r.VendorTaxID, Missing), p.labels.CustomerTaxID, models.StringOr(r.CustomerTaxID, Missing)},
	}
	widths := [4]float64{35, 60, 35, 60}
	for _, row := range rows {
		for i, cell := range row {
			style := ""
			if i%2 == 0 {
				style = "B"
			}
			p.pdf.SetFont(p.font, style, 9)
			p.pdf.CellFormat(widths[i], 7, p.text(clip(cell)), "1", 0, "L", false, 0, "")
		}
		p.pdf.Ln(-1)
	}
}

func (p *page) lineItems(items []models.LineItem) {
	if len(items) == 0 {
		return
	}
	p.heading(p.labels.LineItems)

	widths := []float64{100, 25, 32, 33}
	headers := []string{p.labels.Description, p.labels.Quantity, p.labels.UnitPrice, p.labels.TotalPrice}

	p.pdf.SetFont(p.font, "B", 9)
	p.pdf.SetFillColor(224, 242, 247)
	for i, h := range headers {
		p.pdf.CellFormat(widths[i], 7, p.text(h), "1", 0, "C", true, 0, "")
	}
	p.pdf.Ln(-1)

	p.pdf.SetFont(p.font, "", 9)
	for _, item := range items {
		desc := item.Description
		if desc == "" {
			desc = Missing
		}
		p.pdf.CellFormat(widths[0], 7, p.text(clip(desc)), "1", 0, "L", false, 0, "")
		p.pdf.CellFormat(widths[1], 7, p.text(valueText(item.Quantity)), "1", 0, "R", false, 0, "")
		p.pdf.CellFormat(widths[2], 7, p.text(valueText(item.UnitPrice)), "1", 0, "R", false, 0, "")
		p.pdf.CellFormat(widths[3], 7, p.text(valueText(item.TotalPrice)), "1", 0, "R", false, 0, "")
		p.pdf.Ln(-1)
	}
}

func (p *page) summary(r *models.ExtractedRecord) {
	p.heading(p.labels.Summary)

	currency := models.StringOr(r.Currency, Missing)
	rows := [][2]string{
		{p.labels.SubtotalAmount, currency + " " + invoice.FormatAmount(r.SubtotalAmount, Missing)},
		{p.labels.TaxAmount, currency + " " + invoice.FormatAmount(r.TaxAmount, Missing)},
		{p.labels.TotalAmount, currency + " " + invoice.FormatAmount(r.TotalAmount, Missing)},
		{p.labels.TaxID, models.StringOr(r.VendorTaxID, Missing)},
		{p.labels.PaymentTerms, models.StringOr(r.PaymentTerms, Missing)},
		{p.labels.Notes, models.StringOr(r.Notes, Missing)},
	}
	for _, row := range rows {
		p.pdf.SetFont(p.font, "B", 9)
		p.pdf.CellFormat(60, 7, p.text(row[0]), "1", 0, "L", false, 0, "")
		p.pdf.SetFont(p.font, "", 9)
		p.pdf.CellFormat(130, 7, p.text(clip(row[1])), "1", 1, "R", false, 0, "")
	}
}

// messages lists key/message pairs in the given text color, sorted by key.
func (p *page) messages(heading string, m map[string]string, red, green, blue int) {
	if len(m) == 0 {
		return
	}
	p.heading(heading)

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		p.pdf.SetFont(p.font, "B", 9)
		p.pdf.SetTextColor(0, 0, 0)
		p.pdf.CellFormat(60, 6, p.text(k+":"), "", 0, "L", false, 0, "")
		p.pdf.SetFont(p.font, "", 9)
		p.pdf.SetTextColor(red, green, blue)
		p.pdf.MultiCell(0, 6, p.text(m[k]), "", "L", false)
	}
	p.pdf.SetTextColor(0, 0, 0)
}

func (p *page) snippet(text string) {
	if text == "" {
		return
	}
	p.heading(p.labels.RawSnippet)
	p.pdf.SetFont(p.mono, "", 8)
	p.pdf.MultiCell(0, 4, p.text(text), "1", "L", false)
}

func valueText(v *models.Value) string {
	if v == nil {
		return Missing
	}
	return v.String()
}

// clip shortens s to fit a single table cell.
func clip(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= maxCellRunes {
		return s
	}
	return string([]rune(s)[:maxCellRunes-3]) + "..."
}
