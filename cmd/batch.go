package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"taxdoc/internal/config"
	"taxdoc/internal/logger"
	"taxdoc/internal/pipeline"
	"taxdoc/internal/prepare"
	"taxdoc/internal/sheets"
	"taxdoc/pkg/models"
)

var batchCmd = &cobra.Command{
	Use:   "batch [folder]",
	Short: "Extract records from every document in a folder",
	Long: `Process every supported document in a folder in parallel and write one
JSON record per file. The number of parallel workers is set by BATCH_WORKERS.

With --sheet the records are also appended to the Google Sheet in
GOOGLE_SHEET_URL, one row per file, on the worksheet GOOGLE_SHEET_WORKSHEET.
Files that fail are still written as rows with status "failed" so nothing is
silently skipped.`,
	Example: `  # Extract all receipts in a folder into ./out
  taxdoc batch ./receipts --output-dir ./out

  # Extract and append to Google Sheets
  taxdoc batch ./invoices --sheet

  # See what would be exported without touching the sheet
  taxdoc batch ./invoices --sheet --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

// BatchResult represents the result of processing a single file
type BatchResult struct {
	Index    int
	Filename string
	Result   *pipeline.Result
	Error    error
	Status   string
}

// WorkerJob represents a job for the worker pool
type WorkerJob struct {
	FilePath string
	Index    int
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().String("output-dir", "", "Write one <file>.json record per document into this folder")
	batchCmd.Flags().String("lang", "", "Preferred output language (default: PREFERRED_LANGUAGE)")
	batchCmd.Flags().String("ocr-lang", "", "OCR language hint (default: OCR_LANGUAGE)")
	batchCmd.Flags().String("provider", "", "Extraction provider: ollama, openai or documentai (default: EXTRACTION_PROVIDER)")
	batchCmd.Flags().Bool("sheet", false, "Append the records to GOOGLE_SHEET_URL")
	batchCmd.Flags().Bool("dry-run", false, "Process files but don't write to Google Sheet")
	batchCmd.Flags().Bool("degrade", true, "Produce a record even when model inference fails")
	batchCmd.Flags().Bool("verbose", false, "Show detailed processing information")
	batchCmd.Flags().Int("timeout", 1800, "Total processing timeout in seconds")
}

func runBatch(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("batch")

	folderPath := args[0]
	outputDir, _ := cmd.Flags().GetString("output-dir")
	lang, _ := cmd.Flags().GetString("lang")
	ocrLang, _ := cmd.Flags().GetString("ocr-lang")
	provider, _ := cmd.Flags().GetString("provider")
	toSheet, _ := cmd.Flags().GetBool("sheet")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	degrade, _ := cmd.Flags().GetBool("degrade")
	verbose, _ := cmd.Flags().GetBool("verbose")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	if provider == "" {
		provider = cfg.ExtractionProvider
	}
	opts := pipeline.Options{
		OCRLanguage:             firstNonEmpty(ocrLang, cfg.OCRLanguage),
		PreferredLanguage:       firstNonEmpty(lang, cfg.PreferredLanguage),
		Model:                   defaultModel(cfg, provider),
		DegradeOnInferenceError: degrade,
	}

	folderInfo, err := os.Stat(folderPath)
	if err != nil {
		return fmt.Errorf("folder not found: %s", folderPath)
	}
	if !folderInfo.IsDir() {
		return fmt.Errorf("path is not a directory: %s", folderPath)
	}
	if toSheet && !dryRun && cfg.GoogleSheetURL == "" {
		return fmt.Errorf("GOOGLE_SHEET_URL environment variable is required for --sheet")
	}
	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	log.Info().
		Str("folder", folderPath).
		Str("provider", provider).
		Str("output_dir", outputDir).
		Bool("sheet", toSheet).
		Bool("dry_run", dryRun).
		Msg("Starting batch processing")

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("                         BATCH EXTRACTION")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Folder: %s\n", folderPath)
	fmt.Printf("Provider: %s\n", provider)
	if toSheet && dryRun {
		fmt.Printf("Mode: Dry Run (no Google Sheets update)\n")
	}
	fmt.Println()

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	files, err := findDocuments(folderPath, newPreparer(cfg))
	if err != nil {
		return fmt.Errorf("failed to find documents: %w", err)
	}
	if len(files) == 0 {
		fmt.Println("No supported documents found in folder.")
		return nil
	}

	p, closeFn, err := buildPipeline(ctx, cfg, cfg.OCREngine, provider, log)
	if err != nil {
		return err
	}
	defer closeFn()

	numWorkers := getNumWorkers(cfg)
	fmt.Printf("Processing %d documents with %d parallel workers...\n", len(files), numWorkers)
	fmt.Println()

	results := processDocumentsInParallel(ctx, files, p, opts, numWorkers, outputDir, log, verbose)

	fmt.Println()

	counts := map[string]int{}
	for _, result := range results {
		counts[result.Status]++
	}

	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("                 SUMMARY")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Succeeded: %d\n", counts[sheets.StatusOK])
	if counts[sheets.StatusDegraded] > 0 {
		fmt.Printf("Degraded: %d\n", counts[sheets.StatusDegraded])
	}
	if counts[sheets.StatusFailed] > 0 {
		fmt.Printf("Failed: %d\n", counts[sheets.StatusFailed])
	}
	fmt.Println()

	if toSheet && !dryRun {
		if err := exportToSheet(ctx, cfg, results); err != nil {
			log.Error().Err(err).Msg("Google Sheets export failed")
			return err
		}
		fmt.Printf("Sheet: %s\n", cfg.GoogleSheetWorksheet)
		fmt.Printf("Rows added: %d\n", len(results))
		fmt.Printf("URL: %s\n", cfg.GoogleSheetURL)
	}

	fmt.Println(strings.Repeat("=", 80))

	log.Info().
		Int("total", len(files)).
		Int("succeeded", counts[sheets.StatusOK]).
		Int("degraded", counts[sheets.StatusDegraded]).
		Int("failed", counts[sheets.StatusFailed]).
		Msg("Batch processing completed")

	return nil
}

// findDocuments lists the files in folderPath the preparer accepts, sorted by name
func findDocuments(folderPath string, preparer *prepare.Preparer) ([]string, error) {
	entries, err := os.ReadDir(folderPath)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if preparer.IsAllowed(prepare.Extension(entry.Name())) {
			files = append(files, filepath.Join(folderPath, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// getNumWorkers returns the configured number of workers
func getNumWorkers(cfg *config.Config) int {
	if cfg.BatchWorkers > 0 {
		return cfg.BatchWorkers
	}
	return 4
}

func processSingleDocument(ctx context.Context, path string, p *pipeline.Pipeline, opts pipeline.Options, outputDir string, log zerolog.Logger, verbose bool) BatchResult {
	result := BatchResult{Status: sheets.StatusOK}

	res, err := p.Process(ctx, path, opts)
	if err != nil {
		result.Error = err
		result.Status = sheets.StatusFailed
		log.Error().Err(err).Str("file", path).Msg("Failed to process document")
		return result
	}
	result.Result = res
	if res.Record.ExtractionError != nil {
		result.Status = sheets.StatusDegraded
	}

	if outputDir != "" {
		data, err := json.MarshalIndent(res.Record, "", "  ")
		if err == nil {
			err = os.WriteFile(filepath.Join(outputDir, filepath.Base(path)+".json"), data, 0644)
		}
		if err != nil {
			result.Error = fmt.Errorf("failed to write record: %w", err)
			result.Status = sheets.StatusFailed
			return result
		}
	}

	if verbose {
		log.Info().
			Str("file", path).
			Str("run_id", res.RunID).
			Int("warnings", len(res.Record.Warnings)).
			Int("validation_errors", len(res.Record.ValidationErrors)).
			Dur("duration", res.Duration).
			Msg("Document processed successfully")
	}
	return result
}

// processDocumentsInParallel processes documents using a worker pool pattern
func processDocumentsInParallel(ctx context.Context, files []string, p *pipeline.Pipeline, opts pipeline.Options, numWorkers int, outputDir string, log zerolog.Logger, verbose bool) []BatchResult {
	jobs := make(chan WorkerJob, len(files))
	results := make([]BatchResult, len(files))

	var processedCount int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for job := range jobs {
				log.Debug().
					Int("worker", workerID).
					Str("file", job.FilePath).
					Int("index", job.Index+1).
					Msg("Worker processing document")

				result := processSingleDocument(ctx, job.FilePath, p, opts, outputDir, log, verbose)
				result.Index = job.Index
				result.Filename = filepath.Base(job.FilePath)

				// Store result in correct position
				results[job.Index] = result

				mu.Lock()
				processedCount++
				fmt.Printf("[%d/%d] %s - %s", processedCount, len(files), result.Filename, getStatusEmoji(result.Status))
				if result.Error != nil {
					fmt.Printf(" (%s)", result.Error.Error())
				} else if total := result.Result.Record.TotalAmount; total != nil {
					fmt.Printf(" (%.2f %s)", *total, sheets.NormalizeCurrency(models.StringOr(result.Result.Record.Currency, "")))
				}
				fmt.Println()
				mu.Unlock()
			}
		}(w)
	}

	for i, file := range files {
		jobs <- WorkerJob{
			FilePath: file,
			Index:    i,
		}
	}
	close(jobs)

	wg.Wait()

	return results
}

func exportToSheet(ctx context.Context, cfg *config.Config, results []BatchResult) error {
	fmt.Println("Writing records to Google Sheet...")

	exporter, err := sheets.NewExporter(ctx, cfg.GoogleSheetURL)
	if err != nil {
		return fmt.Errorf("failed to create Google Sheets exporter: %w", err)
	}

	rows := make([]sheets.ExportResult, len(results))
	for i, result := range results {
		rows[i] = sheets.ExportResult{
			Filename: result.Filename,
			Error:    result.Error,
		}
		if result.Result != nil {
			rows[i].RunID = result.Result.RunID
			rows[i].Record = result.Result.Record
		}
	}

	if err := exporter.WriteResults(ctx, rows, cfg.GoogleSheetWorksheet); err != nil {
		return fmt.Errorf("failed to write to Google Sheet: %w", err)
	}
	return nil
}

// getStatusEmoji returns an emoji for the processing status
func getStatusEmoji(status string) string {
	switch status {
	case sheets.StatusOK:
		return "✅"
	case sheets.StatusDegraded:
		return "⚠️"
	case sheets.StatusFailed:
		return "❌"
	default:
		return "❓"
	}
}

