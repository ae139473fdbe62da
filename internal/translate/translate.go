// Package translate translates the user-facing text of an extracted record.
//
// Two translators are provided: GoogleTranslator calls the Cloud
// Translation v2 API, PrefixTranslator marks text without changing it and is
// meant for local runs and tests.
package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	translatev2 "google.golang.org/api/translate/v2"

	"taxdoc/internal/logger"
	"taxdoc/pkg/models"
)

var (
	// ErrTranslationFailed is returned when the translation backend fails.
	ErrTranslationFailed = errors.New("translation failed")

	// ErrInvalidTarget is returned for an empty target language.
	ErrInvalidTarget = errors.New("target language is required")
)

// Translator translates one piece of text into target.
type Translator interface {
	Translate(ctx context.Context, text, target string) (string, error)
}

// PrefixTranslator returns "Translated_to_<target>: <text>".
type PrefixTranslator struct{}

// Translate implements Translator.
func (PrefixTranslator) Translate(_ context.Context, text, target string) (string, error) {
	if target == "" {
		return "", ErrInvalidTarget
	}
	return fmt.Sprintf("Translated_to_%s: %s", target, text), nil
}

// GoogleTranslator uses the Cloud Translation v2 REST API.
type GoogleTranslator struct {
	svc *translatev2.Service
	log zerolog.Logger
}

// NewGoogleTranslator creates a translator. Without options the client uses
// application default credentials.
func NewGoogleTranslator(ctx context.Context, opts ...option.ClientOption) (*GoogleTranslator, error) {
	svc, err := translatev2.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create translation client: %w", err)
	}
	return &GoogleTranslator{
		svc: svc,
		log: logger.WithComponent("translate"),
	}, nil
}

// Translate implements Translator.
func (g *GoogleTranslator) Translate(ctx context.Context, text, target string) (string, error) {
	if target == "" {
		return "", ErrInvalidTarget
	}

	resp, err := g.svc.Translations.List([]string{text}, target).
		Format("text").
		Context(ctx).
		Do()
	if err != nil {
		g.log.Error().Err(err).Str("target", target).Msg("Translation request failed")
		return "", fmt.Errorf("%w: %v", ErrTranslationFailed, err)
	}
	if len(resp.Translations) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrTranslationFailed)
	}
	return resp.Translations[0].TranslatedText, nil
}

// Record returns a copy of record with its user-facing text translated:
// document type, party names and addresses, payment terms, notes and line
// item descriptions. Nil and empty values are left alone; amounts, IDs and
// dates are never touched.
func Record(ctx context.Context, tr Translator, record *models.ExtractedRecord, target string) (*models.ExtractedRecord, error) {
	if record == nil {
		return nil, nil
	}
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, ErrInvalidTarget
	}

	out := *record
	fields := []**string{
		&out.DocumentType,
		&out.VendorName,
		&out.VendorAddress,
		&out.CustomerName,
		&out.CustomerAddress,
		&out.PaymentTerms,
		&out.Notes,
	}
	for _, field := range fields {
		translated, err := translatePtr(ctx, tr, *field, target)
		if err != nil {
			return nil, err
		}
		*field = translated
	}

	out.LineItems = make([]models.LineItem, len(record.LineItems))
	for i, item := range record.LineItems {
		if item.Description != "" {
			desc, err := tr.Translate(ctx, item.Description, target)
			if err != nil {
				return nil, err
			}
			item.Description = desc
		}
		out.LineItems[i] = item
	}

	return &out, nil
}

func translatePtr(ctx context.Context, tr Translator, s *string, target string) (*string, error) {
	if s == nil || *s == "" {
		return s, nil
	}
	translated, err := tr.Translate(ctx, *s, target)
	if err != nil {
		return nil, err
	}
	return &translated, nil
}
