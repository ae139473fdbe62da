package invoice

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"taxdoc/pkg/models"
)

// ParseNumeric converts a loosely typed candidate value into a finite float.
// Strings are trimmed and thousands separators (commas) removed first.
// Booleans, maps, lists, NaN and infinities are rejected.
func ParseNumeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return finite(n)
	case float32:
		return finite(float64(n))
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		return parseNumericString(string(n))
	case string:
		return parseNumericString(n)
	}
	return 0, false
}

func parseNumericString(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || strings.ContainsAny(s, "xX") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return finite(f)
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// numericPtr returns a pointer to the parsed amount, or nil.
func numericPtr(v any) *float64 {
	f, ok := ParseNumeric(v)
	if !ok {
		return nil
	}
	return &f
}

// isAllDigits reports whether s is a non-empty run of ASCII digits.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// priceValue keeps a numeric token as a float and anything else as text.
func priceValue(token string) *models.Value {
	if f, ok := parseNumericString(token); ok {
		return models.FloatValue(f)
	}
	return models.TextValue(token)
}

// quantityValue keeps an all-digit token as an integer when it fits.
func quantityValue(token string) *models.Value {
	if isAllDigits(token) {
		if i, err := strconv.ParseInt(token, 10, 64); err == nil {
			return models.IntValue(i)
		}
	}
	return models.TextValue(token)
}

// formatScalar renders a string or number candidate value as text.
// Other types yield ok == false.
func formatScalar(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case json.Number:
		return s.String(), true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32), true
	case int:
		return strconv.Itoa(s), true
	case int64:
		return strconv.FormatInt(s, 10), true
	case int32:
		return strconv.FormatInt(int64(s), 10), true
	}
	return "", false
}
