package invoice

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxdoc/pkg/models"
)

func decodeCandidate(t *testing.T, body string) *models.Candidate {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	var fields map[string]any
	require.NoError(t, dec.Decode(&fields))
	return models.NewJSONCandidate(fields, body)
}

func TestNormalizeAmountsAndWarnings(t *testing.T) {
	engine := NewEngine(EngineConfig{})

	tests := []struct {
		name        string
		body        string
		wantWarning string
	}{
		{
			name:        "total off by one",
			body:        `{"subtotal_amount": "80.00", "tax_amount": 20, "total_amount": "101.00"}`,
			wantWarning: WarningTotalMismatch,
		},
		{
			name: "consistent totals",
			body: `{"subtotal_amount": "80.00", "tax_amount": 20, "total_amount": "100.00"}`,
		},
		{
			name: "within tolerance",
			body: `{"subtotal_amount": 80.004, "tax_amount": 20, "total_amount": 100}`,
		},
		{
			name:        "line items disagree with total",
			body:        `{"tax_amount": 10, "total_amount": 200, "line_items": [{"description": "A", "quantity": "1", "unit_price": 100, "total_price": 100}]}`,
			wantWarning: WarningLineItemTotalMismatch,
		},
		{
			name: "line items agree with total",
			body: `{"tax_amount": 10, "total_amount": 110, "line_items": [{"description": "A", "total_price": "100.00"}]}`,
		},
		{
			name: "line items without tax are not checked",
			body: `{"total_amount": 500, "line_items": [{"description": "A", "total_price": 100}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := engine.Normalize("", decodeCandidate(t, tt.body))
			require.NoError(t, err)

			if tt.wantWarning == "" {
				assert.Empty(t, record.Warnings)
				return
			}
			assert.Len(t, record.Warnings, 1)
			assert.Contains(t, record.Warnings, tt.wantWarning)
		})
	}
}

func TestNormalizeTotalMismatchMessage(t *testing.T) {
	record, err := NewEngine(EngineConfig{}).Normalize("", decodeCandidate(t,
		`{"subtotal_amount": "80.00", "tax_amount": "20.00", "total_amount": "101.00"}`))
	require.NoError(t, err)

	require.NotNil(t, record.TotalAmount)
	assert.Equal(t, 101.0, *record.TotalAmount)
	assert.Equal(t,
		"Calculated total (subtotal + tax) does not match extracted total amount.",
		record.Warnings["total_mismatch"])
}

func TestNormalizeFields(t *testing.T) {
	candidate := decodeCandidate(t, `{
		"document_type": "invoice",
		"invoice_number": 1042,
		"date": "12/03/2024",
		"due_date": "next Tuesday",
		"vendor_name": "Acme Traders",
		"vendor_tax_id": "INVALIDGST123",
		"customer_tax_id": "22AAAAA0000A1Z5",
		"subtotal_amount": "1,234.50",
		"tax_amount": "N/A",
		"total_amount": true,
		"currency": "INR",
		"notes": {"free": "form"},
		"warnings": {"injected": "ignored"},
		"validation_errors": {"injected": "ignored"}
	}`)

	record, err := NewEngine(EngineConfig{}).Normalize("Invoice text", candidate)
	require.NoError(t, err)

	assert.Equal(t, "invoice", models.StringOr(record.DocumentType, ""))
	assert.Equal(t, "1042", models.StringOr(record.InvoiceNumber, ""))
	assert.Equal(t, "2024-03-12", models.StringOr(record.Date, ""))
	assert.Equal(t, "next Tuesday", models.StringOr(record.DueDate, ""))
	assert.Equal(t, "INVALIDGST123", models.StringOr(record.VendorTaxID, ""))

	require.NotNil(t, record.SubtotalAmount)
	assert.Equal(t, 1234.5, *record.SubtotalAmount)
	assert.Nil(t, record.TaxAmount)
	assert.Nil(t, record.TotalAmount)
	assert.Nil(t, record.Notes)
	assert.Nil(t, record.CustomerName)

	assert.Equal(t, map[string]string{"vendor_tax_id": "Invalid Indian GSTIN format."}, record.ValidationErrors)
	assert.Empty(t, record.Warnings)
	assert.Equal(t, "en", models.StringOr(record.ExtractedLanguage, ""))
	assert.Equal(t, "Invoice text", record.RawOCRTextReference)
	assert.Nil(t, record.ExtractionError)
	assert.NotNil(t, record.LineItems)
}

func TestNormalizeTaxCountry(t *testing.T) {
	candidate := decodeCandidate(t, `{"vendor_tax_id": "12-3456789", "customer_tax_id": "22AAAAA0000A1Z5"}`)

	record, err := NewEngine(EngineConfig{TaxCountry: "us"}).Normalize("", candidate)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"customer_tax_id": "Invalid US EIN format."}, record.ValidationErrors)
}

func TestNormalizeRawTextCandidate(t *testing.T) {
	candidate := models.NewRawTextCandidate("Total: 150.00 USD", "model response is not valid JSON")

	record, err := NewEngine(EngineConfig{PreferredLanguage: "hi"}).Normalize("Total: 150.00 USD", candidate)
	require.NoError(t, err)

	assert.Equal(t, "model response is not valid JSON", models.StringOr(record.ExtractionError, ""))
	assert.Equal(t, "Total: 150.00 USD", models.StringOr(record.RawModelResponse, ""))
	assert.Nil(t, record.TotalAmount)
	assert.Nil(t, record.InvoiceNumber)
	assert.Empty(t, record.LineItems)
	assert.NotNil(t, record.LineItems)
	assert.Empty(t, record.ValidationErrors)
	assert.Empty(t, record.Warnings)
	assert.Equal(t, "hi", models.StringOr(record.ExtractedLanguage, ""))
}

func TestNormalizeInvalidInput(t *testing.T) {
	engine := NewEngine(EngineConfig{})

	_, err := engine.Normalize("text", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = engine.Normalize("bad \xff byte", models.NewJSONCandidate(nil, "{}"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	var normErr *NormalizationError
	assert.ErrorAs(t, err, &normErr)
	assert.Equal(t, "Normalize", normErr.Op)
}

func TestNormalizeRawTextSnippet(t *testing.T) {
	engine := NewEngine(EngineConfig{})

	long := strings.Repeat("ä", 1500)
	record, err := engine.Normalize(long, models.NewJSONCandidate(nil, "{}"))
	require.NoError(t, err)
	assert.Equal(t, 1003, utf8.RuneCountInString(record.RawOCRTextReference))
	assert.True(t, strings.HasSuffix(record.RawOCRTextReference, "..."))

	exact := strings.Repeat("a", 1000)
	record, err = engine.Normalize(exact, models.NewJSONCandidate(nil, "{}"))
	require.NoError(t, err)
	assert.Equal(t, exact, record.RawOCRTextReference)
}

func TestNormalizeLineItemShapes(t *testing.T) {
	engine := NewEngine(EngineConfig{})

	tests := []struct {
		name      string
		body      string
		wantDescs []string
	}{
		{
			name:      "objects",
			body:      `{"line_items": [{"description": "Widget", "quantity": "2", "unit_price": "40.00", "total_price": 80}]}`,
			wantDescs: []string{"Widget"},
		},
		{
			name:      "text block",
			body:      `{"line_items": "Widget 2 40.00 80.00\n\nService fee 20.00"}`,
			wantDescs: []string{"Widget", "Service fee"},
		},
		{
			name:      "list of rows",
			body:      `{"line_items": ["Widget 2 40.00 80.00", "Consulting hours"]}`,
			wantDescs: []string{"Widget", "Consulting hours"},
		},
		{
			name:      "mixed list",
			body:      `{"line_items": [{"description": "Widget", "total_price": 80}, "Service fee 20.00", ""]}`,
			wantDescs: []string{"Widget", "Service fee"},
		},
		{
			name:      "unexpected shape",
			body:      `{"line_items": {"description": "Widget"}}`,
			wantDescs: []string{},
		},
		{
			name:      "number",
			body:      `{"line_items": 42}`,
			wantDescs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := engine.Normalize("", decodeCandidate(t, tt.body))
			require.NoError(t, err)

			descs := make([]string, 0, len(record.LineItems))
			for _, item := range record.LineItems {
				descs = append(descs, item.Description)
			}
			assert.Equal(t, tt.wantDescs, descs)
		})
	}
}

func TestNormalizeLineItemCoercion(t *testing.T) {
	record, err := NewEngine(EngineConfig{}).Normalize("", decodeCandidate(t, `{"line_items": [
		{"description": "A", "quantity": "3", "unit_price": "1,200.00", "total_price": "3,600.00"},
		{"description": "B", "quantity": 2.5, "unit_price": "ask", "total_price": null},
		{"description": "C", "quantity": "two", "unit_price": 5}
	]}`))
	require.NoError(t, err)
	require.Len(t, record.LineItems, 3)

	a := record.LineItems[0]
	assert.True(t, a.Quantity.IsInt())
	assert.Equal(t, "3", a.Quantity.String())
	price, ok := a.UnitPrice.Float()
	assert.True(t, ok)
	assert.Equal(t, 1200.0, price)

	b := record.LineItems[1]
	assert.True(t, b.Quantity.IsNumber())
	assert.False(t, b.Quantity.IsInt())
	assert.False(t, b.UnitPrice.IsNumber())
	assert.Equal(t, "ask", b.UnitPrice.String())
	assert.Nil(t, b.TotalPrice)

	c := record.LineItems[2]
	assert.False(t, c.Quantity.IsNumber())
	assert.Equal(t, "two", c.Quantity.String())
}

func TestWithPreferredLanguage(t *testing.T) {
	base := NewEngine(EngineConfig{})
	german := base.WithPreferredLanguage("de")

	record, err := german.Normalize("", models.NewJSONCandidate(map[string]any{"extracted_language": ""}, "{}"))
	require.NoError(t, err)
	assert.Equal(t, "de", models.StringOr(record.ExtractedLanguage, ""))

	record, err = base.Normalize("", models.NewJSONCandidate(nil, "{}"))
	require.NoError(t, err)
	assert.Equal(t, "en", models.StringOr(record.ExtractedLanguage, ""))

	assert.Same(t, base, base.WithPreferredLanguage(""))
}

func TestFormatAmount(t *testing.T) {
	f := 1234.5
	assert.Equal(t, "1234.50", FormatAmount(&f, "N/A"))
	assert.Equal(t, "N/A", FormatAmount(nil, "N/A"))
}
