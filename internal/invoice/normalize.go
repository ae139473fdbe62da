// Package invoice turns a model's candidate extraction and the OCR text of a
// document into a validated models.ExtractedRecord.
//
// Normalization never fails on bad data. Amounts that do not parse become
// null, dates that match no known layout are kept as written, tax IDs that
// fail their country pattern are kept and reported in validation_errors,
// and arithmetic inconsistencies are reported in warnings.
//
// Line items are accepted as a list of objects, a block of text, or a list
// of text rows; text rows go through ParseLineItems.
package invoice

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"taxdoc/internal/logger"
	"taxdoc/pkg/models"
)

const (
	// RawTextSnippetRunes bounds raw_ocr_text_reference.
	RawTextSnippetRunes = 1000

	// DefaultPreferredLanguage is used for extracted_language when the model gives none.
	DefaultPreferredLanguage = "en"
)

// EngineConfig configures an Engine.
type EngineConfig struct {
	// TaxCountry selects the tax ID rule (default "IN").
	TaxCountry string

	// PreferredLanguage fills extracted_language when absent (default "en").
	PreferredLanguage string

	// TaxIDs overrides the built-in tax ID rules.
	TaxIDs *TaxIDValidator
}

// Engine normalizes and validates candidate extractions.
type Engine struct {
	config  EngineConfig
	amounts *AmountValidation
	log     zerolog.Logger
}

// NewEngine creates a normalization engine.
func NewEngine(config EngineConfig) *Engine {
	if config.TaxCountry == "" {
		config.TaxCountry = DefaultTaxCountry
	}
	config.TaxCountry = strings.ToUpper(config.TaxCountry)
	if config.PreferredLanguage == "" {
		config.PreferredLanguage = DefaultPreferredLanguage
	}
	if config.TaxIDs == nil {
		config.TaxIDs = DefaultTaxIDValidator()
	}
	return &Engine{
		config:  config,
		amounts: NewAmountValidation(),
		log:     logger.WithComponent("normalize"),
	}
}

// WithPreferredLanguage returns a copy of the engine using lang as the
// extracted_language fallback.
func (e *Engine) WithPreferredLanguage(lang string) *Engine {
	if lang == "" || lang == e.config.PreferredLanguage {
		return e
	}
	clone := *e
	clone.config.PreferredLanguage = lang
	return &clone
}

// Normalize builds the validated record. It fails only when candidate is nil
// or rawText is not valid UTF-8.
func (e *Engine) Normalize(rawText string, candidate *models.Candidate) (*models.ExtractedRecord, error) {
	const op = "Normalize"

	if candidate == nil {
		return nil, WrapNormalizationError(op, ErrInvalidInput, "candidate is nil")
	}
	if !utf8.ValidString(rawText) {
		return nil, WrapNormalizationError(op, ErrInvalidInput, "raw text is not valid UTF-8")
	}

	fields := candidate.Fields
	if candidate.Kind == models.CandidateRawText {
		fields = nil
	}

	record := models.NewExtractedRecord()

	record.DocumentType = stringField(fields["document_type"])
	record.InvoiceNumber = stringField(fields["invoice_number"])
	record.Date = NormalizeDate(fields["date"])
	record.DueDate = NormalizeDate(fields["due_date"])

	record.VendorName = stringField(fields["vendor_name"])
	record.VendorAddress = stringField(fields["vendor_address"])
	record.VendorTaxID = stringField(fields["vendor_tax_id"])
	record.CustomerName = stringField(fields["customer_name"])
	record.CustomerAddress = stringField(fields["customer_address"])
	record.CustomerTaxID = stringField(fields["customer_tax_id"])

	record.SubtotalAmount = numericPtr(fields["subtotal_amount"])
	record.TaxAmount = numericPtr(fields["tax_amount"])
	record.TotalAmount = numericPtr(fields["total_amount"])
	record.Currency = stringField(fields["currency"])

	record.PaymentTerms = stringField(fields["payment_terms"])
	record.Notes = stringField(fields["notes"])
	record.ErrorNotes = stringField(fields["error_notes"])
	record.AccuracyConfidence = stringField(fields["accuracy_confidence"])

	record.ExtractedLanguage = stringField(fields["extracted_language"])
	if record.ExtractedLanguage == nil || *record.ExtractedLanguage == "" {
		lang := e.config.PreferredLanguage
		record.ExtractedLanguage = &lang
	}

	record.RawOCRTextReference = snippet(rawText, RawTextSnippetRunes)

	if candidate.Kind == models.CandidateRawText {
		extractionErr, raw := candidate.Error, candidate.Raw
		record.ExtractionError = &extractionErr
		record.RawModelResponse = &raw
	}

	e.validateTaxID(record, "vendor_tax_id", record.VendorTaxID)
	e.validateTaxID(record, "customer_tax_id", record.CustomerTaxID)

	record.LineItems = e.lineItems(fields["line_items"])

	e.amounts.CrossValidate(record)

	e.log.Debug().
		Bool("raw_text_candidate", candidate.Kind == models.CandidateRawText).
		Int("line_items", len(record.LineItems)).
		Int("validation_errors", len(record.ValidationErrors)).
		Int("warnings", len(record.Warnings)).
		Msg("Candidate normalized")

	return record, nil
}

func (e *Engine) validateTaxID(record *models.ExtractedRecord, field string, id *string) {
	if id == nil || *id == "" {
		return
	}
	if ok, msg := e.config.TaxIDs.Validate(*id, e.config.TaxCountry); !ok {
		record.ValidationErrors[field] = msg
	}
}

// lineItems accepts a list of objects, a text block or a list of text rows.
func (e *Engine) lineItems(v any) []models.LineItem {
	switch items := v.(type) {
	case nil:
		return []models.LineItem{}
	case string:
		return ParseLineItems(strings.Split(items, "\n"))
	case []string:
		return ParseLineItems(items)
	case []map[string]any:
		out := make([]models.LineItem, 0, len(items))
		for _, item := range items {
			out = append(out, coerceLineItem(item))
		}
		return out
	case []any:
		out := make([]models.LineItem, 0, len(items))
		for _, item := range items {
			if m, ok := item.(map[string]any); ok {
				out = append(out, coerceLineItem(m))
				continue
			}
			// Non-object rows are parsed as text; blank rows yield nothing.
			out = append(out, ParseLineItems([]string{rowText(item)})...)
		}
		return out
	}

	e.log.Warn().
		Str("type", fmt.Sprintf("%T", v)).
		Msg("Unexpected line_items format, ignoring")
	return []models.LineItem{}
}

// coerceLineItem converts a structured line item. Quantities become integers
// when they are all-digit strings; prices become floats when numeric.
func coerceLineItem(item map[string]any) models.LineItem {
	var description string
	if s, ok := formatScalar(item["description"]); ok {
		description = s
	}
	return models.LineItem{
		Description: description,
		Quantity:    coerceQuantity(item["quantity"]),
		UnitPrice:   coercePrice(item["unit_price"]),
		TotalPrice:  coercePrice(item["total_price"]),
	}
}

func coerceQuantity(v any) *models.Value {
	switch q := v.(type) {
	case nil:
		return nil
	case string:
		return quantityValue(q)
	case json.Number:
		if i, err := q.Int64(); err == nil {
			return models.IntValue(i)
		}
	}
	if f, ok := ParseNumeric(v); ok {
		if f == float64(int64(f)) && !isJSONFloat(v) {
			return models.IntValue(int64(f))
		}
		return models.FloatValue(f)
	}
	return models.TextValue(rowText(v))
}

func coercePrice(v any) *models.Value {
	if v == nil {
		return nil
	}
	if f, ok := ParseNumeric(v); ok {
		return models.FloatValue(f)
	}
	return models.TextValue(rowText(v))
}

// isJSONFloat reports whether v was written with a fraction or exponent.
func isJSONFloat(v any) bool {
	switch n := v.(type) {
	case json.Number:
		return strings.ContainsAny(n.String(), ".eE")
	case float64, float32:
		return true
	}
	return false
}

// rowText renders any candidate value as a single text row.
func rowText(v any) string {
	if s, ok := formatScalar(v); ok {
		return s
	}
	if v == nil {
		return ""
	}
	if b, err := json.Marshal(v); err == nil {
		return string(b)
	}
	return fmt.Sprint(v)
}

// stringField copies strings and formats numbers; other types become nil.
func stringField(v any) *string {
	s, ok := formatScalar(v)
	if !ok {
		return nil
	}
	return &s
}

// snippet returns the first n runes of s, with "..." appended when cut.
func snippet(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}

// FormatAmount renders an optional amount with two decimals, or fallback.
func FormatAmount(f *float64, fallback string) string {
	if f == nil {
		return fallback
	}
	return strconv.FormatFloat(*f, 'f', 2, 64)
}
