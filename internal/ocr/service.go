// Package ocr runs text recognition over prepared page images.
//
// Two engines are available:
//   - TesseractEngine: the local tesseract binary, fed PNG bytes on stdin
//   - GoogleVisionEngine: Google Cloud Vision DOCUMENT_TEXT_DETECTION
//
// Service drives an Engine page by page with full automatic page
// segmentation and joins the page texts with newlines. Engine failures are
// reported as ErrRecognitionFailed and never retried.
//
// Environment variables used by the Vision engine:
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file, OR
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string
package ocr

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"taxdoc/internal/logger"
	"taxdoc/pkg/models"
)

// PageSegMode is a tesseract page segmentation mode.
type PageSegMode int

// PageSegAuto is fully automatic page segmentation without orientation detection.
const PageSegAuto PageSegMode = 3

// Engine recognizes the text of a single PNG-encoded page.
type Engine interface {
	// RecognizeImage returns the text found on the page. language is an
	// ISO 639-1, ISO 639-2 or BCP 47 code.
	RecognizeImage(ctx context.Context, png []byte, language string, mode PageSegMode) (string, error)
}

// Service recognizes whole documents with an Engine.
type Service struct {
	engine Engine
	log    zerolog.Logger
}

// NewService creates a recognition service on top of engine.
func NewService(engine Engine) *Service {
	return &Service{
		engine: engine,
		log:    logger.WithComponent("ocr"),
	}
}

// Recognize runs the engine once per page, in order, and concatenates the
// page texts with "\n". An empty languageHint means DefaultLanguage.
func (s *Service) Recognize(ctx context.Context, pages []models.PageImage, languageHint string) (*models.Recognition, error) {
	const op = "Recognize"
	startTime := time.Now()

	if len(pages) == 0 {
		return nil, WrapOCRError(op, ErrInvalidInput, "no pages to recognize")
	}
	if strings.TrimSpace(languageHint) == "" {
		languageHint = DefaultLanguage
	}

	texts := make([]string, 0, len(pages))
	for i, page := range pages {
		if len(page.PNG) == 0 {
			return nil, WrapOCRError(op, ErrInvalidInput, fmt.Sprintf("page %d has no image data", i+1))
		}

		text, err := s.engine.RecognizeImage(ctx, page.PNG, languageHint, PageSegAuto)
		if err != nil {
			s.log.Error().
				Err(err).
				Int("page", i+1).
				Str("language", languageHint).
				Msg("Page recognition failed")
			return nil, NewOCRError(op, fmt.Errorf("%w: %v", ErrRecognitionFailed, err), fmt.Sprintf("page %d", i+1))
		}
		texts = append(texts, text)
	}

	result := &models.Recognition{
		FullText:    strings.Join(texts, "\n"),
		Pages:       texts,
		Language:    languageHint,
		ProcessedAt: time.Now(),
	}
	result.ProcessingDuration = result.ProcessedAt.Sub(startTime)

	s.log.Info().
		Int("pages", len(pages)).
		Int("characters", len(result.FullText)).
		Dur("duration", result.ProcessingDuration).
		Msg("Recognition completed")

	return result, nil
}
