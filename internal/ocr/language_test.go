package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTesseractLanguage(t *testing.T) {
	tests := []struct {
		hint string
		want string
	}{
		{"en", "eng"},
		{"eng", "eng"},
		{"en-US", "eng"},
		{"hi", "hin"},
		{"de", "deu"},
		{"en+hi", "eng+hin"},
		{"zh-Hant", "chi_tra"},
		{"", "eng"},
	}

	for _, tt := range tests {
		t.Run(tt.hint, func(t *testing.T) {
			assert.Equal(t, tt.want, TesseractLanguage(tt.hint))
		})
	}
}

func TestBaseLanguages(t *testing.T) {
	assert.Equal(t, []string{"en"}, BaseLanguages("en-GB"))
	assert.Equal(t, []string{"en", "hi"}, BaseLanguages("eng+hin"))
	assert.Empty(t, BaseLanguages(""))
}
