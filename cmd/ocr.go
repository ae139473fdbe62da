package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"taxdoc/internal/logger"
)

var ocrCmd = &cobra.Command{
	Use:   "ocr [file]",
	Short: "Recognize the text of an image or PDF",
	Long: `Prepare a document (images are re-encoded, PDFs are rendered page by page
with pdftoppm) and recognize the text of every page.

The default engine is the local tesseract binary. With --engine google the
pages are sent to Google Cloud Vision document text detection instead, which
needs GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS.`,
	Example: `  # Recognize an English receipt
  taxdoc ocr receipt.jpg

  # Hindi invoice, JSON output with per-page text
  taxdoc ocr invoice.pdf --lang hin --json -o invoice-ocr.json

  # Use Google Cloud Vision
  taxdoc ocr scan.tiff --engine google`,
	Args: cobra.ExactArgs(1),
	RunE: runOCR,
}

// OCROutput represents the JSON output structure when --json flag is used
type OCROutput struct {
	FileName           string    `json:"file_name"`
	Engine             string    `json:"engine"`
	Language           string    `json:"language"`
	PageCount          int       `json:"page_count"`
	Text               string    `json:"text"`
	Pages              []string  `json:"pages"`
	ProcessedAt        time.Time `json:"processed_at"`
	ProcessingDuration string    `json:"processing_duration"`
}

func init() {
	rootCmd.AddCommand(ocrCmd)

	ocrCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	ocrCmd.Flags().String("lang", "", "OCR language hint, e.g. en, hin, de-DE (default: OCR_LANGUAGE)")
	ocrCmd.Flags().String("engine", "", "OCR engine: tesseract or google (default: OCR_ENGINE)")
	ocrCmd.Flags().Bool("json", false, "Output as JSON")
	ocrCmd.Flags().Int("timeout", 300, "Processing timeout in seconds")
}

func runOCR(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("ocr")

	outputPath, _ := cmd.Flags().GetString("output")
	lang, _ := cmd.Flags().GetString("lang")
	engine, _ := cmd.Flags().GetString("engine")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	if lang == "" {
		lang = cfg.OCRLanguage
	}
	if engine == "" {
		engine = cfg.OCREngine
	}

	path := args[0]
	log.Info().
		Str("file", path).
		Str("engine", engine).
		Str("lang", lang).
		Int("timeout", timeoutSecs).
		Msg("Starting OCR processing")

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	service, closeEngine, err := newOCRService(ctx, cfg, engine, log)
	if err != nil {
		return err
	}
	defer closeEngine()

	doc, err := newPreparer(cfg).Prepare(ctx, path)
	if err != nil {
		return handleProcessingError(err, log)
	}

	recognition, err := service.Recognize(ctx, doc.Pages, lang)
	if err != nil {
		return handleProcessingError(err, log)
	}

	log.Info().
		Int("page_count", len(recognition.Pages)).
		Dur("duration", recognition.ProcessingDuration).
		Int("text_length", len(recognition.FullText)).
		Msg("OCR processing completed successfully")

	if !jsonOutput {
		return writeOutput([]byte(strings.TrimRight(recognition.FullText, "\n")), outputPath, log)
	}

	data, err := json.MarshalIndent(OCROutput{
		FileName:           filepath.Base(path),
		Engine:             engine,
		Language:           recognition.Language,
		PageCount:          len(recognition.Pages),
		Text:               recognition.FullText,
		Pages:              recognition.Pages,
		ProcessedAt:        recognition.ProcessedAt,
		ProcessingDuration: recognition.ProcessingDuration.String(),
	}, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON output")
		return fmt.Errorf("failed to create JSON output: %w", err)
	}
	return writeOutput(data, outputPath, log)
}
