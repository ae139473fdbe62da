// Package speech reads an extracted record aloud.
package speech

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"google.golang.org/api/texttospeech/v1"

	"taxdoc/internal/invoice"
	"taxdoc/internal/logger"
	"taxdoc/pkg/models"
)

var (
	// ErrEmptyText is returned when there is nothing to synthesize.
	ErrEmptyText = errors.New("text to speak cannot be empty")

	// ErrSynthesisFailed is returned when the speech backend fails.
	ErrSynthesisFailed = errors.New("speech synthesis failed")
)

// DefaultLanguage is used for language codes without a voice.
const DefaultLanguage = "en"

// summaryLineItems bounds how many line items Summary reads out.
const summaryLineItems = 3

// voiceLanguages maps accepted language codes to voice language codes.
// OCR style three-letter codes are folded onto their two-letter voice.
var voiceLanguages = map[string]string{
	"en": "en", "hi": "hi", "fr": "fr", "es": "es", "de": "de", "it": "it",
	"pt": "pt", "ar": "ar", "zh-cn": "zh-cn", "ja": "ja", "ko": "ko",
	"bn": "bn", "gu": "gu", "kn": "kn", "ml": "ml", "mr": "mr", "pa": "pa",
	"ta": "ta", "te": "te",
	"hin": "hi", "eng": "en", "deu": "de", "fra": "fr", "spa": "es",
}

// VoiceLanguage returns the voice language for code, or DefaultLanguage.
func VoiceLanguage(code string) string {
	if lang, ok := voiceLanguages[strings.ToLower(strings.TrimSpace(code))]; ok {
		return lang
	}
	return DefaultLanguage
}

// Synthesizer turns text into MP3 audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, language string) ([]byte, error)
}

// GoogleSynthesizer uses the Cloud Text-to-Speech v1 REST API.
type GoogleSynthesizer struct {
	svc *texttospeech.Service
	log zerolog.Logger
}

// NewGoogleSynthesizer creates a synthesizer. Without options the client
// uses application default credentials.
func NewGoogleSynthesizer(ctx context.Context, opts ...option.ClientOption) (*GoogleSynthesizer, error) {
	svc, err := texttospeech.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create text-to-speech client: %w", err)
	}
	return &GoogleSynthesizer{
		svc: svc,
		log: logger.WithComponent("speech"),
	}, nil
}

// Synthesize implements Synthesizer with a neutral voice and MP3 output.
func (g *GoogleSynthesizer) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	lang := VoiceLanguage(language)

	g.log.Info().
		Str("language", lang).
		Int("text_length", len(text)).
		Msg("Synthesizing speech")

	resp, err := g.svc.Text.Synthesize(&texttospeech.SynthesizeSpeechRequest{
		Input: &texttospeech.SynthesisInput{Text: text},
		Voice: &texttospeech.VoiceSelectionParams{
			LanguageCode: lang,
			SsmlGender:   "NEUTRAL",
		},
		AudioConfig: &texttospeech.AudioConfig{AudioEncoding: "MP3"},
	}).Context(ctx).Do()
	if err != nil {
		g.log.Error().Err(err).Str("language", lang).Msg("Speech synthesis failed")
		return nil, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}

	audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid audio content: %v", ErrSynthesisFailed, err)
	}
	return audio, nil
}

// Summary builds the spoken summary of a record: identification, vendor,
// total, tax ID, tax and the first few line items.
func Summary(record *models.ExtractedRecord) string {
	if record == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Document type: %s. ", models.StringOr(record.DocumentType, "N/A"))
	fmt.Fprintf(&b, "Invoice number: %s. ", models.StringOr(record.InvoiceNumber, "N/A"))
	fmt.Fprintf(&b, "Date: %s. ", models.StringOr(record.Date, "N/A"))
	fmt.Fprintf(&b, "Vendor: %s. ", models.StringOr(record.VendorName, "N/A"))

	currency := models.StringOr(record.Currency, "")
	if record.TotalAmount != nil {
		fmt.Fprintf(&b, "Total amount: %s %s. ", invoice.FormatAmount(record.TotalAmount, ""), currency)
	}
	if id := models.StringOr(record.VendorTaxID, ""); id != "" {
		fmt.Fprintf(&b, "GST number: %s. ", id)
	}
	if record.TaxAmount != nil && *record.TaxAmount > 0 {
		fmt.Fprintf(&b, "Tax amount: %s. ", invoice.FormatAmount(record.TaxAmount, ""))
	}

	if len(record.LineItems) > 0 {
		b.WriteString("Line items include: ")
		for i, item := range record.LineItems {
			if i == summaryLineItems {
				break
			}
			desc := item.Description
			if desc == "" {
				desc = "an item"
			}
			fmt.Fprintf(&b, "%s of %s for %s %s. ",
				valueOr(item.Quantity, "N/A"), desc, valueOr(item.TotalPrice, "N/A"), currency)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

func valueOr(v *models.Value, fallback string) string {
	if v == nil {
		return fallback
	}
	return v.String()
}
