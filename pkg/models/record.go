package models

// ExtractedRecord is the validated result of one processed document.
// Every field is serialized, unknown values as null, so consumers can read
// the record without checking for missing keys.
type ExtractedRecord struct {
	// Document identification
	DocumentType  *string `json:"document_type"`
	InvoiceNumber *string `json:"invoice_number"`
	Date          *string `json:"date"`     // YYYY-MM-DD when it could be normalized, otherwise as extracted
	DueDate       *string `json:"due_date"` // same policy as Date

	// Parties
	VendorName      *string `json:"vendor_name"`
	VendorAddress   *string `json:"vendor_address"`
	VendorTaxID     *string `json:"vendor_tax_id"`
	CustomerName    *string `json:"customer_name"`
	CustomerAddress *string `json:"customer_address"`
	CustomerTaxID   *string `json:"customer_tax_id"`

	// Amounts are finite floats or nil, never text
	SubtotalAmount *float64 `json:"subtotal_amount"`
	TaxAmount      *float64 `json:"tax_amount"`
	TotalAmount    *float64 `json:"total_amount"`
	Currency       *string  `json:"currency"`

	PaymentTerms       *string `json:"payment_terms"`
	Notes              *string `json:"notes"`
	ErrorNotes         *string `json:"error_notes"`
	ExtractedLanguage  *string `json:"extracted_language"`
	AccuracyConfidence *string `json:"accuracy_confidence"`

	LineItems           []LineItem `json:"line_items"`
	RawOCRTextReference string     `json:"raw_ocr_text_reference"`

	// Set when the model answer could not be parsed as JSON
	ExtractionError  *string `json:"extraction_error"`
	RawModelResponse *string `json:"raw_model_response"`

	// ValidationErrors maps a field name to why its value failed validation.
	ValidationErrors map[string]string `json:"validation_errors"`

	// Warnings maps an issue key (e.g. "total_mismatch") to a message.
	Warnings map[string]string `json:"warnings"`
}

// NewExtractedRecord returns a record with empty, non-nil collections.
func NewExtractedRecord() *ExtractedRecord {
	return &ExtractedRecord{
		LineItems:        []LineItem{},
		ValidationErrors: map[string]string{},
		Warnings:         map[string]string{},
	}
}

// LineItem is one purchased good or service.
type LineItem struct {
	Description string `json:"description"`
	Quantity    *Value `json:"quantity"`
	UnitPrice   *Value `json:"unit_price"`
	TotalPrice  *Value `json:"total_price"`

	// ParseFailed is set when a text line could not be split into fields;
	// Description then holds the whole line.
	ParseFailed bool `json:"parse_failed"`
}

// StringOr dereferences s, returning fallback for nil.
func StringOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
