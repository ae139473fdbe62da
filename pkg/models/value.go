package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type valueKind int

const (
	kindText valueKind = iota
	kindFloat
	kindInt
)

// Value holds a loosely typed line item field: a number when the source
// was numeric, otherwise the original text.
type Value struct {
	kind valueKind
	f    float64
	i    int64
	s    string
}

// FloatValue wraps a float.
func FloatValue(f float64) *Value { return &Value{kind: kindFloat, f: f} }

// IntValue wraps an integer.
func IntValue(i int64) *Value { return &Value{kind: kindInt, i: i} }

// TextValue wraps a string that did not parse as a number.
func TextValue(s string) *Value { return &Value{kind: kindText, s: s} }

// IsNumber reports whether the value is an int or a float.
func (v *Value) IsNumber() bool {
	return v != nil && v.kind != kindText
}

// IsInt reports whether the value is an integer.
func (v *Value) IsInt() bool {
	return v != nil && v.kind == kindInt
}

// Float returns the numeric value. ok is false for text and nil values.
func (v *Value) Float() (f float64, ok bool) {
	if v == nil {
		return 0, false
	}
	switch v.kind {
	case kindFloat:
		return v.f, true
	case kindInt:
		return float64(v.i), true
	}
	return 0, false
}

// String formats the value for display.
func (v *Value) String() string {
	if v == nil {
		return ""
	}
	switch v.kind {
	case kindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case kindInt:
		return strconv.FormatInt(v.i, 10)
	}
	return v.s
}

// MarshalJSON writes numbers as JSON numbers and text as a JSON string.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindFloat:
		return json.Marshal(v.f)
	case kindInt:
		return []byte(strconv.FormatInt(v.i, 10)), nil
	}
	return json.Marshal(v.s)
}

// UnmarshalJSON accepts a JSON number or string.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Value{kind: kindText, s: s}
		return nil
	}

	raw := string(data)
	if !strings.ContainsAny(raw, ".eE") {
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			*v = Value{kind: kindInt, i: i}
			return nil
		}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("line item value must be a number or string: %s", raw)
	}
	*v = Value{kind: kindFloat, f: f}
	return nil
}
