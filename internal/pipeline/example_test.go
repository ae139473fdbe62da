package pipeline_test

import (
	"context"
	"fmt"
	"log"

	"taxdoc/internal/invoice"
	"taxdoc/internal/llm"
	"taxdoc/internal/ocr"
	"taxdoc/internal/pipeline"
	"taxdoc/internal/prepare"
)

func Example() {
	p := pipeline.New(
		prepare.NewPreparer(prepare.Options{RenderScale: 2}),
		ocr.NewService(ocr.NewTesseractEngine("tesseract")),
		llm.NewOllamaExtractor(llm.OllamaConfig{BaseURL: "http://localhost:11434"}),
		invoice.NewEngine(invoice.EngineConfig{TaxCountry: "IN"}),
	)

	result, err := p.Process(context.Background(), "invoice.pdf", pipeline.Options{
		OCRLanguage:       "en",
		PreferredLanguage: "en",
		Model:             "llava",
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Run %s: %d line items, %d warnings\n",
		result.RunID, len(result.Record.LineItems), len(result.Record.Warnings))
}
