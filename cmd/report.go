package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"taxdoc/internal/logger"
	"taxdoc/internal/speech"
	"taxdoc/pkg/models"
)

var reportCmd = &cobra.Command{
	Use:   "report [record.json]",
	Short: "Render a saved record as a PDF report, audio or text summary",
	Long: `Read a record written by "taxdoc extract" or "taxdoc batch" and render it
again without reprocessing the document. Both the extract output (with its
"record" and "metadata" keys) and a bare record are accepted.

Formats:
  pdf    PDF report with localized labels (REPORT_FONT_PATH for non-Latin scripts)
  speech MP3 summary via Google Cloud Text-to-Speech
  text   the plain summary sentence used for speech`,
	Example: `  # Hindi PDF report from a saved record
  taxdoc report invoice.json --format pdf --lang hi -o invoice.pdf

  # Translate to German, then print the summary
  taxdoc report invoice.json --format text --translate-to de`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout, required for pdf and speech)")
	reportCmd.Flags().String("format", "pdf", "Output format: pdf, speech or text")
	reportCmd.Flags().String("lang", "", "Report language (default: --translate-to or PREFERRED_LANGUAGE)")
	reportCmd.Flags().String("translate-to", "", "Translate the record before rendering")
	reportCmd.Flags().Int("timeout", 120, "Processing timeout in seconds")
}

func runReport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("report")

	outputPath, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")
	lang, _ := cmd.Flags().GetString("lang")
	translateTo, _ := cmd.Flags().GetString("translate-to")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	if (format == "pdf" || format == "speech") && outputPath == "" {
		return fmt.Errorf("--output is required for format %s", format)
	}

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	lang = firstNonEmpty(lang, translateTo, cfg.PreferredLanguage)

	record, err := readRecord(args[0])
	if err != nil {
		log.Error().Err(err).Str("file", args[0]).Msg("Failed to read record")
		return err
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	if translateTo != "" {
		if record, err = translateRecord(ctx, cfg, record, translateTo, log); err != nil {
			return err
		}
	}

	switch format {
	case "pdf":
		return writeReport(cfg, record, lang, outputPath, log)
	case "speech":
		return writeSpeech(ctx, cfg, record, lang, outputPath, log)
	case "text":
		return writeOutput([]byte(speech.Summary(record)), outputPath, log)
	}
	return fmt.Errorf("unknown format %q (use pdf, speech or text)", format)
}

// readRecord loads a record from the extract output or a bare record file
func readRecord(path string) (*models.ExtractedRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read record file: %w", err)
	}

	var wrapped struct {
		Record *models.ExtractedRecord `json:"record"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("invalid record file: %w", err)
	}
	if wrapped.Record != nil {
		return wrapped.Record, nil
	}

	record := models.NewExtractedRecord()
	if err := json.Unmarshal(data, record); err != nil {
		return nil, fmt.Errorf("invalid record file: %w", err)
	}
	return record, nil
}
