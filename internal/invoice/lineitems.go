package invoice

import (
	"regexp"
	"strings"

	"taxdoc/pkg/models"
)

var (
	// description, quantity, unit price, total price
	lineItemFull = regexp.MustCompile(`^(.+?)\s+(\d+)\s+([\d.,]+)\s+([\d.,]+)$`)

	// description, total price
	lineItemTotalOnly = regexp.MustCompile(`^(.+?)\s+([\d.,]+)$`)
)

// ParseLineItems splits free-text line item rows into structured items.
// Blank lines are skipped; every other line yields exactly one item. Lines
// that match neither pattern keep the whole text as description and are
// flagged with ParseFailed.
func ParseLineItems(lines []string) []models.LineItem {
	items := make([]models.LineItem, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		items = append(items, parseLineItem(line))
	}
	return items
}

func parseLineItem(line string) models.LineItem {
	if m := lineItemFull.FindStringSubmatch(line); m != nil {
		return models.LineItem{
			Description: strings.TrimSpace(m[1]),
			Quantity:    quantityValue(m[2]),
			UnitPrice:   priceValue(m[3]),
			TotalPrice:  priceValue(m[4]),
		}
	}

	if m := lineItemTotalOnly.FindStringSubmatch(line); m != nil {
		return models.LineItem{
			Description: strings.TrimSpace(m[1]),
			TotalPrice:  priceValue(m[2]),
		}
	}

	return models.LineItem{Description: line, ParseFailed: true}
}
