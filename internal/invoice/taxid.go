package invoice

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultTaxCountry is used when no country is configured.
const DefaultTaxCountry = "IN"

// TaxIDRule is the expected format of tax IDs in one country.
type TaxIDRule struct {
	Country string `yaml:"country"`
	Name    string `yaml:"name"` // e.g. "Indian GSTIN", used in messages
	Pattern string `yaml:"pattern"`

	re *regexp.Regexp
}

// taxIDRulesFile is the YAML layout of a rules file.
type taxIDRulesFile struct {
	Rules []TaxIDRule `yaml:"rules"`
}

// builtinTaxIDRules are always available and may be overridden per country.
var builtinTaxIDRules = []TaxIDRule{
	{
		// 2-digit state code, 10-char PAN, entity code, literal Z, check char
		Country: "IN",
		Name:    "Indian GSTIN",
		Pattern: `^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z]{1}[1-9A-Z]{1}Z[0-9A-Z]{1}$`,
	},
	{
		Country: "US",
		Name:    "US EIN",
		Pattern: `^\d{2}-\d{7}$`,
	},
}

// TaxIDValidator checks tax IDs against per-country patterns.
type TaxIDValidator struct {
	rules map[string]TaxIDRule
}

// NewTaxIDValidator creates a validator with the built-in rules plus extra.
// Extra rules replace built-in rules for the same country.
func NewTaxIDValidator(extra ...TaxIDRule) (*TaxIDValidator, error) {
	v := &TaxIDValidator{rules: make(map[string]TaxIDRule)}
	for _, rule := range append(append([]TaxIDRule{}, builtinTaxIDRules...), extra...) {
		if err := v.add(rule); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// DefaultTaxIDValidator returns a validator with only the built-in rules.
func DefaultTaxIDValidator() *TaxIDValidator {
	v, err := NewTaxIDValidator()
	if err != nil {
		panic(err) // built-in patterns are constant
	}
	return v
}

// LoadTaxIDRules reads extra rules from a YAML file:
//
//	rules:
//	  - country: GB
//	    name: UK VAT number
//	    pattern: '^GB[0-9]{9}$'
func LoadTaxIDRules(path string) (*TaxIDValidator, error) {
	const op = "LoadTaxIDRules"

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapNormalizationError(op, err, "failed to read rules file")
	}

	var file taxIDRulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, WrapNormalizationError(op, fmt.Errorf("%w: %v", ErrInvalidRules, err), path)
	}

	v, err := NewTaxIDValidator(file.Rules...)
	if err != nil {
		return nil, WrapNormalizationError(op, err, path)
	}
	return v, nil
}

func (v *TaxIDValidator) add(rule TaxIDRule) error {
	country := strings.ToUpper(strings.TrimSpace(rule.Country))
	if country == "" || rule.Pattern == "" {
		return fmt.Errorf("%w: rule needs a country and a pattern", ErrInvalidRules)
	}
	re, err := regexp.Compile(rule.Pattern)
	if err != nil {
		return fmt.Errorf("%w: country %s: %v", ErrInvalidRules, country, err)
	}
	if rule.Name == "" {
		rule.Name = country + " tax ID"
	}
	rule.Country = country
	rule.re = re
	v.rules[country] = rule
	return nil
}

// Countries lists the countries that have a rule.
func (v *TaxIDValidator) Countries() []string {
	out := make([]string, 0, len(v.rules))
	for country := range v.rules {
		out = append(out, country)
	}
	return out
}

// Validate strips spaces, upper-cases id and matches it against the rule for
// country. Empty IDs and countries without a rule are valid.
func (v *TaxIDValidator) Validate(id, country string) (bool, string) {
	if id == "" {
		return true, "Tax ID is empty (considered valid if not provided)."
	}

	cleaned := strings.ToUpper(strings.ReplaceAll(id, " ", ""))
	rule, ok := v.rules[strings.ToUpper(country)]
	if !ok {
		return true, "No specific validation pattern for this country."
	}

	if rule.re.MatchString(cleaned) {
		return true, fmt.Sprintf("Valid %s format.", rule.Name)
	}
	return false, fmt.Sprintf("Invalid %s format.", rule.Name)
}
