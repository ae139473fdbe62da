package invoice

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLineItems(t *testing.T) {
	items := ParseLineItems([]string{
		"Widget 2 40.00 80.00",
		"",
		"   ",
		"Pack of 6 Bottles 3 1,200.00 3,600.00",
		"Service fee 20.00",
		"Consulting hours",
		"Odd total 1.2.3",
	})
	require.Len(t, items, 5)

	widget := items[0]
	assert.Equal(t, "Widget", widget.Description)
	assert.True(t, widget.Quantity.IsInt())
	assert.Equal(t, "2", widget.Quantity.String())
	price, ok := widget.UnitPrice.Float()
	assert.True(t, ok)
	assert.Equal(t, 40.0, price)
	total, ok := widget.TotalPrice.Float()
	assert.True(t, ok)
	assert.Equal(t, 80.0, total)
	assert.False(t, widget.ParseFailed)

	bottles := items[1]
	assert.Equal(t, "Pack of 6 Bottles", bottles.Description)
	total, _ = bottles.TotalPrice.Float()
	assert.Equal(t, 3600.0, total)

	fee := items[2]
	assert.Equal(t, "Service fee", fee.Description)
	assert.Nil(t, fee.Quantity)
	assert.Nil(t, fee.UnitPrice)
	total, _ = fee.TotalPrice.Float()
	assert.Equal(t, 20.0, total)

	assert.Equal(t, "Consulting hours", items[3].Description)
	assert.True(t, items[3].ParseFailed)
	assert.Nil(t, items[3].TotalPrice)

	odd := items[4]
	assert.Equal(t, "Odd total", odd.Description)
	assert.False(t, odd.TotalPrice.IsNumber())
	assert.Equal(t, "1.2.3", odd.TotalPrice.String())
}

func TestParseLineItemsNeverDropsLines(t *testing.T) {
	lines := []string{"a", "b 1", "c 1 2 3", "  d  ", "???", "1 2 3 4 5", "Ünïcödé 10"}
	items := ParseLineItems(lines)
	require.Len(t, items, len(lines))

	for i, item := range items {
		if item.ParseFailed {
			assert.Equal(t, strings.TrimSpace(lines[i]), item.Description)
		}
	}
}
