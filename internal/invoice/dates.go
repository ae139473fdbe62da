package invoice

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order after "/" and "." have been replaced by "-".
// Single-digit day and month layouts also accept two digits.
var dateLayouts = []string{
	"2006-1-2",
	"2-1-2006",
	"1-2-2006",
	"Jan 2, 2006",
	"2 Jan, 2006",
	"January 2, 2006",
	"2 January, 2006",
	"06-1-2",
	"2-1-06",
	"20060102",
}

// CanonicalDateLayout is the output format of NormalizeDate.
const CanonicalDateLayout = "2006-01-02"

// NormalizeDate converts a candidate date to YYYY-MM-DD. The first layout
// that parses wins. Values no layout accepts are returned unchanged; empty
// and non-scalar values return nil.
func NormalizeDate(v any) *string {
	original, ok := dateText(v)
	if !ok {
		return nil
	}

	cleaned := strings.NewReplacer("/", "-", ".", "-").Replace(original)
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			out := t.Format(CanonicalDateLayout)
			return &out
		}
	}
	return &original
}

// dateText renders numbers as integers so that 20240312 reads as a compact date.
func dateText(v any) (string, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return "", false
		}
		return strconv.FormatFloat(math.Trunc(n), 'f', 0, 64), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10), true
		}
		if f, err := n.Float64(); err == nil {
			return dateText(f)
		}
		return n.String(), true
	}
	return formatScalar(v)
}
