package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxdoc/internal/config"
	"taxdoc/internal/llm"
	"taxdoc/internal/prepare"
)

func TestReadRecord(t *testing.T) {
	dir := t.TempDir()

	wrapped := filepath.Join(dir, "wrapped.json")
	require.NoError(t, os.WriteFile(wrapped, []byte(`{"record":{"vendor_name":"ACME","total_amount":150},"metadata":{"run_id":"r1"}}`), 0644))

	bare := filepath.Join(dir, "bare.json")
	require.NoError(t, os.WriteFile(bare, []byte(`{"vendor_name":"Globex","total_amount":20.5}`), 0644))

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"record":`), 0644))

	record, err := readRecord(wrapped)
	require.NoError(t, err)
	assert.Equal(t, "ACME", *record.VendorName)
	assert.Equal(t, 150.0, *record.TotalAmount)

	record, err = readRecord(bare)
	require.NoError(t, err)
	assert.Equal(t, "Globex", *record.VendorName)
	assert.Equal(t, 20.5, *record.TotalAmount)

	_, err = readRecord(broken)
	assert.Error(t, err)

	_, err = readRecord(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestFindDocuments(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.pdf", "a.PNG", "notes.txt", "c.jpeg"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.pdf"), 0755))

	preparer := prepare.NewPreparer(prepare.Options{AllowedExtensions: []string{"png", "jpg", "jpeg", "pdf"}})
	files, err := findDocuments(dir, preparer)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "a.PNG"),
		filepath.Join(dir, "b.pdf"),
		filepath.Join(dir, "c.jpeg"),
	}, files)
}

func TestGetNumWorkers(t *testing.T) {
	assert.Equal(t, 8, getNumWorkers(&config.Config{BatchWorkers: 8}))
	assert.Equal(t, 4, getNumWorkers(&config.Config{}))
}

func TestDefaultModel(t *testing.T) {
	cfg := &config.Config{OllamaModel: "llava:13b", OpenAIModel: "gpt-4o-mini"}

	assert.Equal(t, "llava:13b", defaultModel(cfg, "ollama"))
	assert.Equal(t, "llava:13b", defaultModel(cfg, ""))
	assert.Equal(t, "gpt-4o-mini", defaultModel(cfg, "OpenAI"))
	assert.Equal(t, "documentai", defaultModel(cfg, "documentai"))
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "de", firstNonEmpty("", "de", "en"))
	assert.Equal(t, "", firstNonEmpty("", ""))
}

func TestHandleProcessingError(t *testing.T) {
	log := zerolog.Nop()

	tests := []struct {
		name     string
		err      error
		contains string
	}{
		{
			name:     "unsupported format",
			err:      prepare.WrapPrepareError("Prepare", prepare.ErrUnsupportedFormat, "gif"),
			contains: "ALLOWED_EXTENSIONS",
		},
		{
			name:     "unreachable endpoint",
			err:      fmt.Errorf("extract: %w", llm.ErrInferenceUnreachable),
			contains: "OLLAMA_API_BASE_URL",
		},
		{
			name:     "status error",
			err:      &llm.RequestFailedError{StatusCode: 404, Body: "model not found"},
			contains: "HTTP 404",
		},
		{
			name:     "deadline",
			err:      context.DeadlineExceeded,
			contains: "--timeout",
		},
		{
			name:     "canceled",
			err:      context.Canceled,
			contains: "canceled",
		},
		{
			name:     "other",
			err:      fmt.Errorf("boom"),
			contains: "document processing failed: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := handleProcessingError(tt.err, log)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestNewOCRServiceUnknownEngine(t *testing.T) {
	_, _, err := newOCRService(context.Background(), &config.Config{}, "abbyy", zerolog.Nop())
	assert.ErrorContains(t, err, "unknown OCR engine")
}

func TestNewTranslatorDisabled(t *testing.T) {
	tr, err := newTranslator(context.Background(), "none")
	require.NoError(t, err)
	assert.Nil(t, tr)

	tr, err = newTranslator(context.Background(), "prefix")
	require.NoError(t, err)
	assert.NotNil(t, tr)

	_, err = newTranslator(context.Background(), "babelfish")
	assert.Error(t, err)
}
