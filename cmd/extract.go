package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"taxdoc/internal/config"
	"taxdoc/internal/logger"
	"taxdoc/internal/pipeline"
	"taxdoc/internal/report"
	"taxdoc/internal/speech"
	"taxdoc/internal/translate"
	"taxdoc/pkg/models"
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract a validated record from a tax document",
	Long: `Run the full pipeline on one document: prepare the pages, recognize the
text, ask the vision model for a structured description of the first page and
normalize the answer into a validated record.

The record is printed as JSON. Dates are normalized to YYYY-MM-DD, amounts are
cross-checked (subtotal + tax = total, line items sum to the subtotal) and tax
IDs are validated for the configured TAX_COUNTRY. Problems are reported in the
record's warnings and validation_errors rather than failing the command.

Optional outputs:
  --translate-to  translate the record's free text fields first
  --report        render a PDF report
  --speech        synthesize a spoken summary (MP3)`,
	Example: `  # Extract an invoice to stdout
  taxdoc extract invoice.jpg

  # Hindi invoice, record and PDF report in Hindi
  taxdoc extract bill.pdf --lang hi --ocr-lang hin --report bill.pdf.report.pdf

  # Use an OpenAI-compatible endpoint and keep going when inference fails
  taxdoc extract receipt.png --provider openai --degrade -o receipt.json

  # Translated record plus an English audio summary
  taxdoc extract rechnung.pdf --translate-to en --speech rechnung.mp3`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

// ExtractOutput represents the JSON output structure for document extraction
type ExtractOutput struct {
	Record   *models.ExtractedRecord `json:"record"`
	Metadata ExtractMetadata         `json:"metadata"`
}

// ExtractMetadata contains information about the processing run
type ExtractMetadata struct {
	RunID              string    `json:"run_id"`
	FileName           string    `json:"file_name"`
	PageCount          int       `json:"page_count"`
	OCREngine          string    `json:"ocr_engine"`
	Provider           string    `json:"provider"`
	Model              string    `json:"model"`
	TranslatedTo       string    `json:"translated_to,omitempty"`
	ProcessedAt        time.Time `json:"processed_at"`
	ProcessingDuration string    `json:"processing_duration"`
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	extractCmd.Flags().String("lang", "", "Preferred output language, e.g. en, hi (default: PREFERRED_LANGUAGE)")
	extractCmd.Flags().String("ocr-lang", "", "OCR language hint (default: OCR_LANGUAGE)")
	extractCmd.Flags().String("ocr-engine", "", "OCR engine: tesseract or google (default: OCR_ENGINE)")
	extractCmd.Flags().String("provider", "", "Extraction provider: ollama, openai or documentai (default: EXTRACTION_PROVIDER)")
	extractCmd.Flags().String("model", "", "Vision model name (default: OLLAMA_MODEL)")
	extractCmd.Flags().String("translate-to", "", "Translate the record into this language before output")
	extractCmd.Flags().String("report", "", "Write a PDF report to this path")
	extractCmd.Flags().String("report-lang", "", "Report label language (default: --translate-to or --lang)")
	extractCmd.Flags().String("speech", "", "Write a spoken MP3 summary to this path")
	extractCmd.Flags().Bool("degrade", false, "Produce a record even when model inference fails")
	extractCmd.Flags().Int("timeout", 300, "Processing timeout in seconds")
}

func runExtract(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("extract")

	outputPath, _ := cmd.Flags().GetString("output")
	lang, _ := cmd.Flags().GetString("lang")
	ocrLang, _ := cmd.Flags().GetString("ocr-lang")
	ocrEngine, _ := cmd.Flags().GetString("ocr-engine")
	provider, _ := cmd.Flags().GetString("provider")
	model, _ := cmd.Flags().GetString("model")
	translateTo, _ := cmd.Flags().GetString("translate-to")
	reportPath, _ := cmd.Flags().GetString("report")
	reportLang, _ := cmd.Flags().GetString("report-lang")
	speechPath, _ := cmd.Flags().GetString("speech")
	degrade, _ := cmd.Flags().GetBool("degrade")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	if lang == "" {
		lang = cfg.PreferredLanguage
	}
	if ocrLang == "" {
		ocrLang = cfg.OCRLanguage
	}
	if ocrEngine == "" {
		ocrEngine = cfg.OCREngine
	}
	if provider == "" {
		provider = cfg.ExtractionProvider
	}
	if model == "" {
		model = defaultModel(cfg, provider)
	}

	path := args[0]
	log.Info().
		Str("file", path).
		Str("provider", provider).
		Str("model", model).
		Str("ocr_engine", ocrEngine).
		Str("lang", lang).
		Int("timeout", timeoutSecs).
		Msg("Starting document extraction")

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	p, closeFn, err := buildPipeline(ctx, cfg, ocrEngine, provider, log)
	if err != nil {
		return err
	}
	defer closeFn()

	result, err := p.Process(ctx, path, pipeline.Options{
		OCRLanguage:             ocrLang,
		PreferredLanguage:       lang,
		Model:                   model,
		DegradeOnInferenceError: degrade,
	})
	if err != nil {
		return handleProcessingError(err, log)
	}

	record := result.Record
	if translateTo != "" {
		record, err = translateRecord(ctx, cfg, record, translateTo, log)
		if err != nil {
			return err
		}
	}

	if reportPath != "" {
		if reportLang == "" {
			reportLang = firstNonEmpty(translateTo, lang)
		}
		if err := writeReport(cfg, record, reportLang, reportPath, log); err != nil {
			return err
		}
	}

	if speechPath != "" {
		if err := writeSpeech(ctx, cfg, record, firstNonEmpty(translateTo, lang), speechPath, log); err != nil {
			return err
		}
	}

	log.Info().
		Str("run_id", result.RunID).
		Int("warnings", len(record.Warnings)).
		Int("validation_errors", len(record.ValidationErrors)).
		Dur("duration", result.Duration).
		Msg("Document extraction completed successfully")

	output := ExtractOutput{
		Record: record,
		Metadata: ExtractMetadata{
			RunID:              result.RunID,
			FileName:           filepath.Base(path),
			PageCount:          result.Pages,
			OCREngine:          ocrEngine,
			Provider:           provider,
			Model:              model,
			TranslatedTo:       translateTo,
			ProcessedAt:        time.Now(),
			ProcessingDuration: result.Duration.String(),
		},
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON output")
		return fmt.Errorf("failed to create JSON output: %w", err)
	}
	return writeOutput(data, outputPath, log)
}

// buildPipeline wires preparation, OCR, extraction and normalization from the configuration
func buildPipeline(ctx context.Context, cfg *config.Config, ocrEngine, provider string, log zerolog.Logger) (*pipeline.Pipeline, func(), error) {
	engine, err := newEngine(cfg)
	if err != nil {
		return nil, nil, err
	}

	recognizer, closeOCR, err := newOCRService(ctx, cfg, ocrEngine, log)
	if err != nil {
		return nil, nil, err
	}

	extractor, closeExtractor, err := newExtractor(ctx, cfg, provider, log)
	if err != nil {
		closeOCR()
		return nil, nil, err
	}

	closeFn := func() {
		closeExtractor()
		closeOCR()
	}
	return pipeline.New(newPreparer(cfg), recognizer, extractor, engine), closeFn, nil
}

func translateRecord(ctx context.Context, cfg *config.Config, record *models.ExtractedRecord, target string, log zerolog.Logger) (*models.ExtractedRecord, error) {
	tr, err := newTranslator(ctx, cfg.TranslationProvider)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create translator")
		return nil, fmt.Errorf("failed to create translator: %w", err)
	}
	if tr == nil {
		log.Warn().
			Str("target", target).
			Msg("Translation requested but TRANSLATION_PROVIDER is none, keeping original text")
		return record, nil
	}

	translated, err := translate.Record(ctx, tr, record, target)
	if err != nil {
		log.Error().Err(err).Str("target", target).Msg("Translation failed")
		return nil, fmt.Errorf("failed to translate record: %w", err)
	}
	log.Info().Str("target", target).Msg("Record translated")
	return translated, nil
}

func writeReport(cfg *config.Config, record *models.ExtractedRecord, language, path string, log zerolog.Logger) error {
	pdf, err := report.NewPDFRenderer(cfg.ReportFontPath).Render(record, language)
	if err != nil {
		log.Error().Err(err).Msg("Failed to render report")
		return fmt.Errorf("failed to render PDF report: %w", err)
	}
	if err := os.WriteFile(path, pdf, 0644); err != nil {
		log.Error().Err(err).Str("report_file", path).Msg("Failed to write report")
		return fmt.Errorf("failed to write PDF report: %w", err)
	}
	log.Info().
		Str("report_file", path).
		Str("language", language).
		Int("bytes", len(pdf)).
		Msg("PDF report written")
	return nil
}

func writeSpeech(ctx context.Context, cfg *config.Config, record *models.ExtractedRecord, language, path string, log zerolog.Logger) error {
	synth, err := newSynthesizer(ctx, cfg.SpeechProvider)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create speech synthesizer")
		return fmt.Errorf("failed to create speech synthesizer: %w", err)
	}
	if synth == nil {
		return fmt.Errorf("speech output requested but SPEECH_PROVIDER is none")
	}

	voice := speech.VoiceLanguage(language)
	text := speech.Summary(record)
	if voice != speech.DefaultLanguage {
		tr, err := newTranslator(ctx, cfg.TranslationProvider)
		if err != nil {
			return fmt.Errorf("failed to create translator: %w", err)
		}
		if tr != nil {
			if text, err = tr.Translate(ctx, text, voice); err != nil {
				log.Error().Err(err).Msg("Failed to translate speech summary")
				return fmt.Errorf("failed to translate speech summary: %w", err)
			}
		}
	}

	audio, err := synth.Synthesize(ctx, text, voice)
	if err != nil {
		log.Error().Err(err).Msg("Speech synthesis failed")
		return fmt.Errorf("failed to synthesize speech: %w", err)
	}
	if err := os.WriteFile(path, audio, 0644); err != nil {
		log.Error().Err(err).Str("speech_file", path).Msg("Failed to write audio")
		return fmt.Errorf("failed to write audio file: %w", err)
	}
	log.Info().
		Str("speech_file", path).
		Int("bytes", len(audio)).
		Msg("Speech summary written")
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
