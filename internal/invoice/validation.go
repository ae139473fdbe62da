package invoice

import (
	"math"

	"github.com/rs/zerolog"

	"taxdoc/internal/logger"
	"taxdoc/pkg/models"
)

// AmountTolerance is the largest difference treated as rounding noise.
const AmountTolerance = 0.01

// Warning keys and messages written by cross-validation.
const (
	WarningTotalMismatch         = "total_mismatch"
	WarningLineItemTotalMismatch = "calculated_line_item_total_mismatch"

	totalMismatchMessage         = "Calculated total (subtotal + tax) does not match extracted total amount."
	lineItemTotalMismatchMessage = "Calculated total from line items + tax does not match extracted total amount."
)

// AmountValidation cross-checks the amounts of a record.
type AmountValidation struct {
	log zerolog.Logger
}

// NewAmountValidation creates a new amount validation service
func NewAmountValidation() *AmountValidation {
	return &AmountValidation{
		log: logger.WithComponent("amount-validation"),
	}
}

// CrossValidate records a warning when subtotal + tax differs from the total
// by AmountTolerance or more. Without a subtotal, the numeric line item
// totals stand in for it, provided tax and total are present and the sum is
// positive. Amounts are never changed.
func (av *AmountValidation) CrossValidate(record *models.ExtractedRecord) {
	total, subtotal, tax := record.TotalAmount, record.SubtotalAmount, record.TaxAmount

	switch {
	case total != nil && subtotal != nil && tax != nil:
		calculated := *subtotal + *tax
		if mismatch(*total, calculated) {
			record.Warnings[WarningTotalMismatch] = totalMismatchMessage
			av.log.Warn().
				Float64("extracted_total", *total).
				Float64("calculated_total", calculated).
				Msg("Total amount mismatch")
		}

	case total != nil && subtotal == nil && tax != nil:
		lineSum := LineItemTotal(record.LineItems)
		if lineSum <= 0 {
			return
		}
		calculated := lineSum + *tax
		if mismatch(*total, calculated) {
			record.Warnings[WarningLineItemTotalMismatch] = lineItemTotalMismatchMessage
			av.log.Warn().
				Float64("extracted_total", *total).
				Float64("line_item_sum", lineSum).
				Float64("calculated_total", calculated).
				Msg("Calculated line item total mismatch")
		}
	}
}

// LineItemTotal sums the numeric total prices of items.
func LineItemTotal(items []models.LineItem) float64 {
	var sum float64
	for _, item := range items {
		if f, ok := item.TotalPrice.Float(); ok {
			sum += f
		}
	}
	return sum
}

func mismatch(extracted, calculated float64) bool {
	return math.Abs(extracted-calculated) >= AmountTolerance
}
