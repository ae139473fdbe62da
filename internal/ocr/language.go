package ocr

import (
	"strings"

	"golang.org/x/text/language"
)

// DefaultLanguage is used when no language hint is given.
const DefaultLanguage = "en"

// tesseract names a few scripts differently from ISO 639-2.
var tesseractOverrides = map[string]string{
	"zh":      "chi_sim",
	"zh-Hans": "chi_sim",
	"zh-Hant": "chi_tra",
}

// TesseractLanguage converts a language hint to tesseract's -l argument.
// Hints may combine languages with "+" ("en+hi" becomes "eng+hin").
// Unparseable parts are passed through unchanged.
func TesseractLanguage(hint string) string {
	parts := strings.Split(strings.TrimSpace(hint), "+")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		tag, err := language.Parse(part)
		if err != nil {
			out = append(out, part)
			continue
		}
		if code, ok := tesseractOverrides[tag.String()]; ok {
			out = append(out, code)
			continue
		}
		base, _ := tag.Base()
		out = append(out, base.ISO3())
	}
	if len(out) == 0 {
		return TesseractLanguage(DefaultLanguage)
	}
	return strings.Join(out, "+")
}

// BaseLanguages converts a language hint to the base ISO 639-1 codes the
// Vision API accepts as language hints.
func BaseLanguages(hint string) []string {
	var out []string
	for _, part := range strings.Split(hint, "+") {
		tag, err := language.Parse(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		base, _ := tag.Base()
		out = append(out, base.String())
	}
	return out
}
