package llm

import (
	"fmt"
	"strings"
)

// CandidateFields lists the keys the model is asked to produce, in prompt order.
var CandidateFields = []string{
	"document_type",
	"invoice_number",
	"date",
	"due_date",
	"vendor_name",
	"vendor_address",
	"vendor_tax_id",
	"customer_name",
	"customer_address",
	"customer_tax_id",
	"subtotal_amount",
	"tax_amount",
	"total_amount",
	"currency",
	"payment_terms",
	"line_items",
	"notes",
	"extracted_language",
	"accuracy_confidence",
	"error_notes",
}

var fieldHints = map[string]string{
	"document_type":       "string (e.g., 'invoice', 'receipt', 'bill', 'statement', 'tax_form', 'other')",
	"invoice_number":      "string",
	"date":                "string (YYYY-MM-DD format if possible, or original format)",
	"due_date":            "string (YYYY-MM-DD format if present)",
	"vendor_name":         "string (name of the company issuing the document)",
	"vendor_address":      "string",
	"vendor_tax_id":       "string (e.g., GSTIN, VAT ID, EIN, or null if not found)",
	"customer_name":       "string (name of the recipient/customer)",
	"customer_address":    "string",
	"customer_tax_id":     "string (e.g., GSTIN, VAT ID, EIN, or null if not found)",
	"subtotal_amount":     "string (numeric value, excluding tax)",
	"tax_amount":          "string (numeric value of tax, e.g., GST/VAT)",
	"total_amount":        "string (numeric value of total, including tax)",
	"currency":            "string (e.g., 'USD', 'INR', 'EUR')",
	"payment_terms":       "string (e.g., 'Net 30', 'Due on receipt')",
	"notes":               "string (any important notes or comments from the document)",
	"extracted_language":  "string (ISO 639-1 code, e.g., 'en', 'hi', 'fr')",
	"accuracy_confidence": "string ('high', 'medium' or 'low', your own assessment, or null)",
	"error_notes":         "string (any issues you had while extracting)",
}

const lineItemHint = `[
    {
      "description": "string",
      "quantity": "integer or string (if non-numeric)",
      "unit_price": "string (numeric value)",
      "total_price": "string (numeric value)"
    }
  ]`

// BuildExtractionPrompt returns the fixed extraction instruction. language
// is the document language the caller expects; an empty value omits the hint.
func BuildExtractionPrompt(language string) string {
	var b strings.Builder

	b.WriteString("Analyze this document (invoice, receipt, or other financial/tax document).\n")
	b.WriteString("Extract the following information. If a field is not present or cannot be determined, return null for that field.\n")
	b.WriteString("Return the information as a concise JSON object. Do not include any other text or markdown outside the JSON.\n")
	if language != "" {
		fmt.Fprintf(&b, "The document is expected to be in language %q.\n", language)
	}
	b.WriteString("\n{\n")

	for i, field := range CandidateFields {
		hint := fieldHints[field]
		if field == "line_items" {
			fmt.Fprintf(&b, "  %q: %s", field, lineItemHint)
		} else {
			fmt.Fprintf(&b, "  %q: %q", field, hint)
		}
		if i < len(CandidateFields)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("}\n")

	return b.String()
}
