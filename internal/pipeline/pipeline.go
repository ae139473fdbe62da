// Package pipeline runs one document through preparation, recognition,
// extraction and normalization.
//
// Basic usage:
//
//	p := pipeline.New(preparer, ocr.NewService(engine), extractor, invoice.NewEngine(invoice.EngineConfig{}))
//	result, err := p.Process(ctx, "scan.pdf", pipeline.Options{Model: "llava"})
//
// Recognition and extraction both work on the pages produced by a single
// Prepare call. The stages run one after another; callers that need
// throughput run several Process calls in parallel.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"taxdoc/internal/invoice"
	"taxdoc/internal/llm"
	"taxdoc/internal/logger"
	"taxdoc/pkg/models"
)

// DefaultModel is sent to the extractor when Options.Model is empty.
const DefaultModel = "llava"

// Preparer loads a file into PNG pages.
type Preparer interface {
	Prepare(ctx context.Context, path string) (*models.Document, error)
}

// Recognizer extracts text from prepared pages.
type Recognizer interface {
	Recognize(ctx context.Context, pages []models.PageImage, languageHint string) (*models.Recognition, error)
}

// Options control a single run.
type Options struct {
	// OCRLanguage is the recognition language hint (default "en").
	OCRLanguage string

	// PreferredLanguage is requested in the prompt and used as the
	// extracted_language fallback.
	PreferredLanguage string

	// Model names the vision model (default DefaultModel).
	Model string

	// Prompt overrides the generated extraction prompt.
	Prompt string

	// DegradeOnInferenceError turns extraction failures into a raw text
	// candidate carrying the error, so a record is still produced.
	DegradeOnInferenceError bool
}

// Result is the outcome of a run.
type Result struct {
	RunID       string
	Record      *models.ExtractedRecord
	RawText     string
	Recognition *models.Recognition
	Candidate   *models.Candidate
	Pages       int
	Duration    time.Duration
}

// Pipeline wires the processing stages together.
type Pipeline struct {
	preparer   Preparer
	recognizer Recognizer
	extractor  llm.Extractor
	engine     *invoice.Engine
}

// New creates a pipeline from its stages.
func New(preparer Preparer, recognizer Recognizer, extractor llm.Extractor, engine *invoice.Engine) *Pipeline {
	return &Pipeline{
		preparer:   preparer,
		recognizer: recognizer,
		extractor:  extractor,
		engine:     engine,
	}
}

// Process runs path through every stage and returns the validated record.
// Stage errors are returned as *PipelineError wrapping the stage's sentinel.
func (p *Pipeline) Process(ctx context.Context, path string, opts Options) (*Result, error) {
	const op = "Process"

	runID := uuid.NewString()
	log := logger.WithRequestID("pipeline", runID)
	start := time.Now()

	if path == "" {
		return nil, newPipelineError(op, "", runID, ErrInvalidInput)
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}

	log.Info().Str("path", path).Str("model", opts.Model).Msg("Processing document")

	doc, err := p.preparer.Prepare(ctx, path)
	if err != nil {
		log.Error().Err(err).Msg("Preparation failed")
		return nil, newPipelineError(op, StagePrepare, runID, err)
	}

	recognition, err := p.recognizer.Recognize(ctx, doc.Pages, opts.OCRLanguage)
	if err != nil {
		log.Error().Err(err).Msg("Recognition failed")
		return nil, newPipelineError(op, StageRecognize, runID, err)
	}
	log.Debug().
		Int("pages", len(doc.Pages)).
		Int("text_length", len(recognition.FullText)).
		Dur("duration", recognition.ProcessingDuration).
		Msg("Text recognized")

	prompt := opts.Prompt
	if prompt == "" {
		prompt = llm.BuildExtractionPrompt(opts.PreferredLanguage)
	}

	candidate, err := p.extractor.Extract(ctx, doc.FirstPagePayload(), prompt, opts.Model)
	if err != nil {
		if !opts.DegradeOnInferenceError || errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("Extraction failed")
			return nil, newPipelineError(op, StageExtract, runID, err)
		}
		log.Warn().Err(err).Msg("Extraction failed, continuing with OCR text only")
		candidate = models.NewRawTextCandidate("", fmt.Sprintf("inference failed: %v", err))
	}

	engine := p.engine.WithPreferredLanguage(opts.PreferredLanguage)
	record, err := engine.Normalize(recognition.FullText, candidate)
	if err != nil {
		return nil, newPipelineError(op, StageNormalize, runID, err)
	}

	result := &Result{
		RunID:       runID,
		Record:      record,
		RawText:     recognition.FullText,
		Recognition: recognition,
		Candidate:   candidate,
		Pages:       len(doc.Pages),
		Duration:    time.Since(start),
	}

	log.Info().
		Int("pages", result.Pages).
		Int("line_items", len(record.LineItems)).
		Int("validation_errors", len(record.ValidationErrors)).
		Int("warnings", len(record.Warnings)).
		Dur("duration", result.Duration).
		Msg("Document processed")

	return result, nil
}
