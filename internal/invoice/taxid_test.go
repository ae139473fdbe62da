package invoice

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaxIDValidatorBuiltins(t *testing.T) {
	v := DefaultTaxIDValidator()

	tests := []struct {
		name      string
		id        string
		country   string
		wantValid bool
		wantMsg   string
	}{
		{"valid GSTIN", "22AAAAA0000A1Z5", "IN", true, "Valid Indian GSTIN format."},
		{"GSTIN with spaces and lower case", "22 aaaaa0000a1z5", "IN", true, "Valid Indian GSTIN format."},
		{"invalid GSTIN", "INVALIDGST123", "IN", false, "Invalid Indian GSTIN format."},
		{"GSTIN entity code zero", "22AAAAA0000A0Z5", "IN", false, "Invalid Indian GSTIN format."},
		{"valid EIN", "12-3456789", "US", true, "Valid US EIN format."},
		{"EIN without dash", "123456789", "US", false, "Invalid US EIN format."},
		{"lower-case country", "12-3456789", "us", true, "Valid US EIN format."},
		{"empty ID", "", "IN", true, "Tax ID is empty (considered valid if not provided)."},
		{"unknown country", "anything", "ZZ", true, "No specific validation pattern for this country."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, msg := v.Validate(tt.id, tt.country)
			assert.Equal(t, tt.wantValid, valid)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

func TestLoadTaxIDRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rules:
  - country: gb
    name: UK VAT number
    pattern: '^GB[0-9]{9}$'
  - country: US
    name: US TIN
    pattern: '^[0-9]{9}$'
`), 0o644))

	v, err := LoadTaxIDRules(path)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"IN", "US", "GB"}, v.Countries())

	valid, msg := v.Validate("GB 123456789", "GB")
	assert.True(t, valid)
	assert.Equal(t, "Valid UK VAT number format.", msg)

	// File rules replace built-in rules for the same country.
	valid, _ = v.Validate("123456789", "US")
	assert.True(t, valid)

	valid, _ = v.Validate("22AAAAA0000A1Z5", "IN")
	assert.True(t, valid)
}

func TestLoadTaxIDRulesErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadTaxIDRules(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	badPattern := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badPattern, []byte("rules:\n  - country: DE\n    pattern: '^(DE'\n"), 0o644))
	_, err = LoadTaxIDRules(badPattern)
	assert.ErrorIs(t, err, ErrInvalidRules)

	notYAML := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(notYAML, []byte("rules: [unclosed"), 0o644))
	_, err = LoadTaxIDRules(notYAML)
	assert.ErrorIs(t, err, ErrInvalidRules)
}
