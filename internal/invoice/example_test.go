package invoice_test

import (
	"fmt"

	"taxdoc/internal/invoice"
	"taxdoc/pkg/models"
)

func Example() {
	engine := invoice.NewEngine(invoice.EngineConfig{TaxCountry: "IN"})

	candidate := models.NewJSONCandidate(map[string]any{
		"invoice_number":  "INV-001",
		"date":            "12/03/2024",
		"vendor_tax_id":   "22AAAAA0000A1Z5",
		"subtotal_amount": "80.00",
		"tax_amount":      "20.00",
		"total_amount":    "101.00",
		"line_items":      "Widget 2 40.00 80.00",
	}, "")

	record, err := engine.Normalize("INVOICE INV-001 ...", candidate)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Println(*record.Date)
	fmt.Println(invoice.FormatAmount(record.TotalAmount, "N/A"))
	fmt.Println(len(record.LineItems), record.LineItems[0].Description)
	fmt.Println(record.Warnings["total_mismatch"])
	// Output:
	// 2024-03-12
	// 101.00
	// 1 Widget
	// Calculated total (subtotal + tax) does not match extracted total amount.
}

func ExampleParseLineItems() {
	items := invoice.ParseLineItems([]string{
		"Widget 2 40.00 80.00",
		"Service fee 20.00",
		"Thank you for your business",
	})
	for _, item := range items {
		fmt.Printf("%q qty=%s total=%s failed=%v\n",
			item.Description, item.Quantity, item.TotalPrice, item.ParseFailed)
	}
	// Output:
	// "Widget" qty=2 total=80 failed=false
	// "Service fee" qty= total=20 failed=false
	// "Thank you for your business" qty= total= failed=true
}

func ExampleTaxIDValidator_Validate() {
	v := invoice.DefaultTaxIDValidator()
	fmt.Println(v.Validate("22AAAAA0000A1Z5", "IN"))
	fmt.Println(v.Validate("INVALIDGST123", "IN"))
	// Output:
	// true Valid Indian GSTIN format.
	// false Invalid Indian GSTIN format.
}
