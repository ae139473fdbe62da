package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"taxdoc/internal/config"
	"taxdoc/internal/invoice"
	"taxdoc/internal/llm"
	"taxdoc/internal/ocr"
	"taxdoc/internal/prepare"
	"taxdoc/internal/speech"
	"taxdoc/internal/translate"
)

// loadConfig loads and validates the environment configuration
func loadConfig(log zerolog.Logger) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return nil, fmt.Errorf("invalid configuration, please check your .env file: %w", err)
	}
	return cfg, nil
}

// createContextWithTimeout creates a context with timeout and signal handling
func createContextWithTimeout(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling processing")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

func newPreparer(cfg *config.Config) *prepare.Preparer {
	return prepare.NewPreparer(prepare.Options{
		AllowedExtensions: cfg.AllowedExtensions,
		RenderScale:       cfg.RenderScale,
		PdftoppmPath:      cfg.PdftoppmPath,
		MaxFileSizeBytes:  cfg.MaxFileSizeBytes(),
	})
}

// newOCRService creates the recognition service for engine ("tesseract" or
// "google"). The returned close function releases engine resources.
func newOCRService(ctx context.Context, cfg *config.Config, engine string, log zerolog.Logger) (*ocr.Service, func(), error) {
	switch strings.ToLower(engine) {
	case "", "tesseract":
		log.Debug().Str("path", cfg.TesseractPath).Msg("Using tesseract OCR engine")
		return ocr.NewService(ocr.NewTesseractEngine(cfg.TesseractPath)), func() {}, nil

	case "google":
		vision, err := ocr.NewGoogleVisionEngine(ctx)
		if err != nil {
			if errors.Is(err, ocr.ErrMissingCredentials) {
				log.Error().Err(err).Msg("Google Cloud credentials not configured")
				return nil, nil, fmt.Errorf("Google Cloud credentials not configured. Please set one of:\n" +
					"  GOOGLE_APPLICATION_CREDENTIALS=/path/to/service-account-key.json\n" +
					"  GOOGLE_CREDENTIALS='<json-credentials>'\n" +
					"Original error: %w", err)
			}
			return nil, nil, fmt.Errorf("failed to create Vision OCR engine: %w", err)
		}
		closeFn := func() {
			if err := vision.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close Vision client")
			}
		}
		return ocr.NewService(vision), closeFn, nil
	}
	return nil, nil, fmt.Errorf("unknown OCR engine %q (use tesseract or google)", engine)
}

// newExtractor creates the extraction provider ("ollama", "openai" or "documentai").
func newExtractor(ctx context.Context, cfg *config.Config, provider string, log zerolog.Logger) (llm.Extractor, func(), error) {
	noop := func() {}

	switch strings.ToLower(provider) {
	case "", "ollama":
		log.Debug().Str("base_url", cfg.OllamaBaseURL).Msg("Using Ollama extraction provider")
		return llm.NewOllamaExtractor(llm.OllamaConfig{
			BaseURL:     cfg.OllamaBaseURL,
			Timeout:     cfg.InferenceTimeout(),
			Temperature: cfg.InferenceTemperature,
		}), noop, nil

	case "openai":
		extractor, err := llm.NewOpenAIExtractor(llm.OpenAIConfig{
			APIKey:      cfg.OpenAIAPIKey,
			BaseURL:     cfg.OpenAIBaseURL,
			Model:       cfg.OpenAIModel,
			Timeout:     cfg.InferenceTimeout(),
			Temperature: float32(cfg.InferenceTemperature),
		})
		if err != nil {
			log.Error().Err(err).Msg("OpenAI provider not configured")
			return nil, nil, fmt.Errorf("OpenAI provider requires OPENAI_API_KEY: %w", err)
		}
		return extractor, noop, nil

	case "documentai":
		extractor, err := llm.NewDocumentAIExtractor(ctx, llm.DocumentAIConfig{
			ProjectID:   cfg.GoogleCloudProject,
			Location:    cfg.GoogleCloudLocation,
			ProcessorID: cfg.DocumentAIProcessorID,
			Timeout:     cfg.InferenceTimeout(),
		})
		if err != nil {
			if errors.Is(err, llm.ErrInvalidConfiguration) {
				return nil, nil, fmt.Errorf("invalid Document AI configuration. Please check your .env file:\n" +
					"  GOOGLE_CLOUD_PROJECT - your Google Cloud project ID\n" +
					"  GOOGLE_CLOUD_LOCATION - processing location (us, eu, etc.)\n" +
					"  DOCUMENT_AI_PROCESSOR_ID - your Document AI processor ID\n" +
					"Original error: %w", err)
			}
			return nil, nil, fmt.Errorf("failed to create Document AI extractor: %w", err)
		}
		closeFn := func() {
			if err := extractor.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close Document AI client")
			}
		}
		return extractor, closeFn, nil
	}
	return nil, nil, fmt.Errorf("unknown extraction provider %q (use ollama, openai or documentai)", provider)
}

// defaultModel returns the configured model name for provider
func defaultModel(cfg *config.Config, provider string) string {
	switch strings.ToLower(provider) {
	case "openai":
		return cfg.OpenAIModel
	case "documentai":
		return "documentai"
	}
	return cfg.OllamaModel
}

// newEngine creates the normalization engine, loading extra tax ID rules when configured
func newEngine(cfg *config.Config) (*invoice.Engine, error) {
	engineConfig := invoice.EngineConfig{
		TaxCountry:        cfg.TaxCountry,
		PreferredLanguage: cfg.PreferredLanguage,
	}
	if cfg.TaxIDRulesFile != "" {
		rules, err := invoice.LoadTaxIDRules(cfg.TaxIDRulesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load tax ID rules: %w", err)
		}
		engineConfig.TaxIDs = rules
	}
	return invoice.NewEngine(engineConfig), nil
}

// newTranslator returns nil when translation is disabled
func newTranslator(ctx context.Context, provider string) (translate.Translator, error) {
	switch strings.ToLower(provider) {
	case "", "none":
		return nil, nil
	case "prefix":
		return translate.PrefixTranslator{}, nil
	case "google":
		tr, err := translate.NewGoogleTranslator(ctx)
		if err != nil {
			return nil, err
		}
		return tr, nil
	}
	return nil, fmt.Errorf("unknown translation provider %q (use none, prefix or google)", provider)
}

// newSynthesizer returns nil when speech is disabled
func newSynthesizer(ctx context.Context, provider string) (speech.Synthesizer, error) {
	switch strings.ToLower(provider) {
	case "", "none":
		return nil, nil
	case "google":
		synth, err := speech.NewGoogleSynthesizer(ctx)
		if err != nil {
			return nil, err
		}
		return synth, nil
	}
	return nil, fmt.Errorf("unknown speech provider %q (use none or google)", provider)
}

// writeOutput writes data to path, or to stdout when path is empty
func writeOutput(data []byte, path string, log zerolog.Logger) error {
	if path != "" {
		if err := os.WriteFile(path, data, 0644); err != nil {
			log.Error().
				Err(err).
				Str("output_file", path).
				Msg("Failed to write output file")
			return fmt.Errorf("failed to write output file: %w", err)
		}
		log.Info().
			Str("output_file", path).
			Int("bytes", len(data)).
			Msg("Output written to file")
		return nil
	}

	if _, err := os.Stdout.Write(data); err != nil {
		log.Error().Err(err).Msg("Failed to write to stdout")
		return fmt.Errorf("failed to write output: %w", err)
	}
	_, _ = io.WriteString(os.Stdout, "\n")
	return nil
}

// handleProcessingError provides user-friendly error messages for pipeline failures
func handleProcessingError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Document processing failed")

	var statusErr *llm.RequestFailedError

	switch {
	case errors.Is(err, prepare.ErrUnsupportedFormat):
		return fmt.Errorf("unsupported file type. Allowed types are set by ALLOWED_EXTENSIONS: %w", err)
	case errors.Is(err, prepare.ErrFileTooLarge):
		return fmt.Errorf("file is too large. Raise MAX_FILE_SIZE_MB or shrink the file: %w", err)
	case errors.Is(err, prepare.ErrEmptyDocument):
		return fmt.Errorf("the document is empty or has no pages")
	case errors.Is(err, prepare.ErrInvalidInput):
		return fmt.Errorf("cannot read the input file: %w", err)
	case errors.Is(err, prepare.ErrInvalidDocument):
		return fmt.Errorf("invalid or corrupted document. Please check the file integrity: %w", err)
	case errors.Is(err, ocr.ErrRecognitionFailed):
		return fmt.Errorf("text recognition failed. Check that tesseract and its language data are installed: %w", err)
	case errors.Is(err, llm.ErrInferenceTimeout), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("the vision model did not answer in time. Try increasing --timeout or INFERENCE_TIMEOUT_SECONDS")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("processing was canceled")
	case errors.Is(err, llm.ErrInferenceUnreachable):
		return fmt.Errorf("cannot reach the inference endpoint. Is Ollama running at OLLAMA_API_BASE_URL? %w", err)
	case errors.As(err, &statusErr):
		return fmt.Errorf("the inference endpoint returned HTTP %d. Check that the model is pulled and the request is valid: %s",
			statusErr.StatusCode, statusErr.Body)
	case errors.Is(err, llm.ErrInvalidResponse):
		return fmt.Errorf("the inference endpoint returned an unexpected response: %w", err)
	case errors.Is(err, invoice.ErrInvalidInput):
		return fmt.Errorf("recognized text could not be normalized: %w", err)
	default:
		return fmt.Errorf("document processing failed: %w", err)
	}
}
