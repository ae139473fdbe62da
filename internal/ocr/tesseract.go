package ocr

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"taxdoc/internal/command"
	"taxdoc/internal/logger"
)

// TesseractEngine runs the tesseract binary on one page at a time.
type TesseractEngine struct {
	path   string
	runner command.Runner
	log    zerolog.Logger
}

// NewTesseractEngine creates an engine that executes the binary at path.
func NewTesseractEngine(path string) *TesseractEngine {
	return NewTesseractEngineWithRunner(path, command.NewExecRunner())
}

// NewTesseractEngineWithRunner creates an engine with an explicit runner (for testing).
func NewTesseractEngineWithRunner(path string, runner command.Runner) *TesseractEngine {
	if path == "" {
		path = "tesseract"
	}
	return &TesseractEngine{
		path:   path,
		runner: runner,
		log:    logger.WithComponent("tesseract"),
	}
}

// RecognizeImage pipes the PNG into `tesseract stdin stdout -l <lang> --psm <mode>`.
func (t *TesseractEngine) RecognizeImage(ctx context.Context, png []byte, lang string, mode PageSegMode) (string, error) {
	const op = "RecognizeImage"

	tessLang := TesseractLanguage(lang)
	stdout, stderr, err := t.runner.Run(ctx, png, t.path,
		"stdin", "stdout",
		"-l", tessLang,
		"--psm", strconv.Itoa(int(mode)),
	)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", WrapOCRError(op, err, strings.TrimSpace(command.Truncate(string(stderr), 512)))
	}

	text := strings.TrimRight(string(stdout), "\f\n ")
	t.log.Debug().
		Str("language", tessLang).
		Int("characters", len(text)).
		Msg("Page recognized")

	return text, nil
}

// String describes the engine for logs.
func (t *TesseractEngine) String() string {
	return fmt.Sprintf("tesseract(%s)", t.path)
}
