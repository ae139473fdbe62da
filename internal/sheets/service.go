package sheets

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"taxdoc/internal/invoice"
	"taxdoc/internal/logger"
	"taxdoc/pkg/models"
)

// Row statuses.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusFailed   = "failed"
)

// Headers are written to the first row of a new worksheet.
var Headers = []interface{}{
	"File", "Run ID", "Document Type", "Invoice Number", "Date", "Due Date",
	"Vendor", "Vendor Tax ID", "Customer", "Customer Tax ID",
	"Subtotal", "Tax", "Total", "Currency", "Line Items",
	"Validation Errors", "Warnings", "Status", "Processed At",
}

// lastColumn is the column letter of the final header.
const lastColumn = "S"

var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// Exporter appends extracted records to a Google Sheet
type Exporter struct {
	sheetsService *sheets.Service
	spreadsheetID string
	now           func() time.Time
	log           zerolog.Logger
}

// ExportResult is one processed file to be written as a row
type ExportResult struct {
	Filename string
	RunID    string
	Record   *models.ExtractedRecord
	Error    error
}

// RecordRow is the sheet representation of one ExportResult
type RecordRow struct {
	Filename         string
	RunID            string
	DocumentType     string
	InvoiceNumber    string
	Date             string
	DueDate          string
	Vendor           string
	VendorTaxID      string
	Customer         string
	CustomerTaxID    string
	Subtotal         interface{}
	Tax              interface{}
	Total            interface{}
	Currency         string
	LineItems        int
	ValidationErrors string
	Warnings         string
	Status           string
	ProcessedAt      string
}

// NewExporter creates an exporter authenticated with a service account.
// Credentials come from the file in GOOGLE_APPLICATION_CREDENTIALS or the
// JSON in GOOGLE_CREDENTIALS.
func NewExporter(ctx context.Context, sheetURL string) (*Exporter, error) {
	const op = "NewExporter"

	spreadsheetID, err := ExtractSpreadsheetID(sheetURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to extract spreadsheet ID: %w", op, err)
	}

	var creds []byte
	if credsFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credsFile != "" {
		creds, err = os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read credentials file: %w", op, err)
		}
	} else if credsJSON := os.Getenv("GOOGLE_CREDENTIALS"); credsJSON != "" {
		creds = []byte(credsJSON)
	} else {
		return nil, fmt.Errorf("%s: neither GOOGLE_APPLICATION_CREDENTIALS nor GOOGLE_CREDENTIALS is set", op)
	}

	config, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse credentials: %w", op, err)
	}

	sheetsService, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create sheets service: %w", op, err)
	}

	return NewExporterWithService(sheetsService, spreadsheetID), nil
}

// NewExporterWithService creates an exporter around an existing client (for testing).
func NewExporterWithService(svc *sheets.Service, spreadsheetID string) *Exporter {
	log := logger.WithComponent("sheets")
	log.Debug().Str("spreadsheet_id", spreadsheetID).Msg("Sheets exporter ready")

	return &Exporter{
		sheetsService: svc,
		spreadsheetID: spreadsheetID,
		now:           time.Now,
		log:           log,
	}
}

// ExtractSpreadsheetID extracts the spreadsheet ID from a Google Sheets URL
func ExtractSpreadsheetID(url string) (string, error) {
	matches := spreadsheetIDPattern.FindStringSubmatch(url)
	if len(matches) < 2 {
		return "", fmt.Errorf("invalid Google Sheets URL format")
	}
	return matches[1], nil
}

// WriteResults appends one row per result to the worksheet, creating the
// worksheet and its header row when missing.
func (e *Exporter) WriteResults(ctx context.Context, results []ExportResult, sheetName string) error {
	const op = "WriteResults"

	e.log.Info().
		Str("sheet", sheetName).
		Int("rows", len(results)).
		Msg("Writing results to Google Sheet")

	if err := e.ensureSheetWithHeaders(ctx, sheetName); err != nil {
		return fmt.Errorf("%s: failed to ensure sheet exists: %w", op, err)
	}

	processedAt := e.now().Format("2006-01-02 15:04:05")
	values := make([][]interface{}, 0, len(results))
	for _, result := range results {
		values = append(values, ToRow(result, processedAt).Values())
	}

	_, err := e.sheetsService.Spreadsheets.Values.Append(
		e.spreadsheetID,
		sheetName+"!A:"+lastColumn,
		&sheets.ValueRange{Values: values},
	).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to append values to sheet: %w", op, err)
	}

	e.log.Info().
		Int("rows_written", len(values)).
		Msg("Successfully wrote results to Google Sheet")

	return nil
}

// ToRow converts a result into a sheet row. Failed results carry the error
// in the Warnings column.
func ToRow(result ExportResult, processedAt string) RecordRow {
	row := RecordRow{
		Filename:    result.Filename,
		RunID:       result.RunID,
		Subtotal:    "",
		Tax:         "",
		Total:       "",
		Status:      StatusOK,
		ProcessedAt: processedAt,
	}

	if result.Error != nil || result.Record == nil {
		row.Status = StatusFailed
		if result.Error != nil {
			row.Warnings = "error: " + result.Error.Error()
		}
		return row
	}

	r := result.Record
	row.DocumentType = models.StringOr(r.DocumentType, "")
	row.InvoiceNumber = models.StringOr(r.InvoiceNumber, "")
	row.Date = models.StringOr(r.Date, "")
	row.DueDate = models.StringOr(r.DueDate, "")
	row.Vendor = models.StringOr(r.VendorName, "")
	row.VendorTaxID = models.StringOr(r.VendorTaxID, "")
	row.Customer = models.StringOr(r.CustomerName, "")
	row.CustomerTaxID = models.StringOr(r.CustomerTaxID, "")
	row.Subtotal = amountCell(r.SubtotalAmount)
	row.Tax = amountCell(r.TaxAmount)
	row.Total = amountCell(r.TotalAmount)
	row.Currency = NormalizeCurrency(models.StringOr(r.Currency, ""))
	row.LineItems = len(r.LineItems)
	row.ValidationErrors = joinMessages(r.ValidationErrors)
	row.Warnings = joinMessages(r.Warnings)

	if r.ExtractionError != nil {
		row.Status = StatusDegraded
	}
	return row
}

// Values converts the row to cell values, in Headers order
func (r RecordRow) Values() []interface{} {
	return []interface{}{
		r.Filename,         // A
		r.RunID,            // B
		r.DocumentType,     // C
		r.InvoiceNumber,    // D
		r.Date,             // E
		r.DueDate,          // F
		r.Vendor,           // G
		r.VendorTaxID,      // H
		r.Customer,         // I
		r.CustomerTaxID,    // J
		r.Subtotal,         // K
		r.Tax,              // L
		r.Total,            // M
		r.Currency,         // N
		r.LineItems,        // O
		r.ValidationErrors, // P
		r.Warnings,         // Q
		r.Status,           // R
		r.ProcessedAt,      // S
	}
}

func amountCell(f *float64) interface{} {
	if f == nil {
		return ""
	}
	return invoice.FormatAmount(f, "")
}

// joinMessages renders a key/message map as "key: message; ..." sorted by key.
func joinMessages(m map[string]string) string {
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+m[k])
	}
	return strings.Join(parts, "; ")
}

// ensureSheetWithHeaders ensures the sheet exists and has proper headers
func (e *Exporter) ensureSheetWithHeaders(ctx context.Context, sheetName string) error {
	const op = "ensureSheetWithHeaders"

	spreadsheet, err := e.sheetsService.Spreadsheets.Get(e.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to get spreadsheet: %w", op, err)
	}

	var sheetExists bool
	var sheetID int64
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == sheetName {
			sheetExists = true
			sheetID = sheet.Properties.SheetId
			break
		}
	}

	if !sheetExists {
		e.log.Info().Str("sheet", sheetName).Msg("Creating new sheet")

		batchUpdateReq := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{
				{AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: sheetName},
				}},
			},
		}

		resp, err := e.sheetsService.Spreadsheets.BatchUpdate(e.spreadsheetID, batchUpdateReq).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("%s: failed to create sheet: %w", op, err)
		}
		if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil {
			sheetID = resp.Replies[0].AddSheet.Properties.SheetId
		}
	}

	headerRange := fmt.Sprintf("%s!A1:%s1", sheetName, lastColumn)
	resp, err := e.sheetsService.Spreadsheets.Values.Get(e.spreadsheetID, headerRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to get headers: %w", op, err)
	}

	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		e.log.Info().Str("sheet", sheetName).Msg("Adding headers to sheet")

		_, err = e.sheetsService.Spreadsheets.Values.Update(
			e.spreadsheetID,
			headerRange,
			&sheets.ValueRange{Values: [][]interface{}{Headers}},
		).ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("%s: failed to add headers: %w", op, err)
		}

		if err := e.formatHeaders(ctx, sheetID); err != nil {
			e.log.Warn().Err(err).Msg("Failed to format headers, continuing anyway")
		}
	}

	return nil
}

// formatHeaders makes the header row bold and applies basic formatting
func (e *Exporter) formatHeaders(ctx context.Context, sheetID int64) error {
	const op = "formatHeaders"

	columns := int64(len(Headers))
	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   columns,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat:      &sheets.TextFormat{Bold: true},
						BackgroundColor: &sheets.Color{Red: 0.9, Green: 0.9, Blue: 0.9},
					},
				},
				Fields: "userEnteredFormat(textFormat,backgroundColor)",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   columns,
				},
			},
		},
	}

	_, err := e.sheetsService.Spreadsheets.BatchUpdate(e.spreadsheetID,
		&sheets.BatchUpdateSpreadsheetRequest{Requests: requests}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to format headers: %w", op, err)
	}
	return nil
}

// NormalizeCurrency maps common symbols and names to ISO 4217 codes.
// Unknown values are upper-cased and returned as they are.
func NormalizeCurrency(currency string) string {
	normalized := strings.ToUpper(strings.TrimSpace(currency))

	switch normalized {
	case "€", "EURO", "EUROS":
		return "EUR"
	case "$", "DOLLAR", "DOLLARS", "US$":
		return "USD"
	case "£", "POUND", "POUNDS":
		return "GBP"
	case "¥", "YEN":
		return "JPY"
	case "₹", "RS", "RS.", "RUPEE", "RUPEES":
		return "INR"
	case "FRANKEN", "SWISS FRANC":
		return "CHF"
	}
	return normalized
}
