// Package prepare turns an uploaded file into page images.
//
// Raster images (PNG, JPEG, TIFF) become a single page. PDFs are counted
// with pdfcpu and rasterized page by page with pdftoppm at 72 DPI times
// the configured render scale. Every page is re-encoded as PNG so that OCR
// engines and the vision model receive the same bytes.
package prepare

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog"
	_ "golang.org/x/image/tiff"

	"taxdoc/internal/command"
	"taxdoc/internal/logger"
	"taxdoc/pkg/models"
)

const (
	// BaseDPI is the resolution of a PDF page at render scale 1.
	BaseDPI = 72

	// DefaultRenderScale upsamples PDF pages for better recognition.
	DefaultRenderScale = 2
)

// DefaultAllowedExtensions lists the formats accepted when none are configured.
var DefaultAllowedExtensions = []string{"png", "jpg", "jpeg", "tiff", "pdf"}

// PageCounter returns the number of pages of the PDF at path.
type PageCounter func(path string) (int, error)

// Options configures a Preparer.
type Options struct {
	AllowedExtensions []string
	RenderScale       int
	PdftoppmPath      string
	MaxFileSizeBytes  int64 // 0 disables the check
}

// Preparer normalizes uploads into page images.
type Preparer struct {
	opts    Options
	runner  command.Runner
	counter PageCounter
	log     zerolog.Logger
}

// NewPreparer creates a Preparer that shells out to pdftoppm.
func NewPreparer(opts Options) *Preparer {
	return NewPreparerWithDeps(opts, command.NewExecRunner(), CountPDFPages)
}

// NewPreparerWithDeps creates a Preparer with explicit dependencies (for testing).
func NewPreparerWithDeps(opts Options, runner command.Runner, counter PageCounter) *Preparer {
	if len(opts.AllowedExtensions) == 0 {
		opts.AllowedExtensions = DefaultAllowedExtensions
	}
	if opts.RenderScale <= 0 {
		opts.RenderScale = DefaultRenderScale
	}
	if opts.PdftoppmPath == "" {
		opts.PdftoppmPath = "pdftoppm"
	}
	if counter == nil {
		counter = CountPDFPages
	}
	return &Preparer{
		opts:    opts,
		runner:  runner,
		counter: counter,
		log:     logger.WithComponent("prepare"),
	}
}

// Extension returns the normalized extension of path: lower case, no dot,
// "tif" folded into "tiff".
func Extension(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "tif" {
		return "tiff"
	}
	return ext
}

// IsAllowed reports whether ext is one of the configured formats.
func (p *Preparer) IsAllowed(ext string) bool {
	return ext != "" && slices.Contains(p.opts.AllowedExtensions, ext)
}

// Prepare decodes the file at path into an ordered list of pages.
func (p *Preparer) Prepare(ctx context.Context, path string) (*models.Document, error) {
	const op = "Prepare"

	ext := Extension(path)
	if !p.IsAllowed(ext) {
		return nil, WrapPrepareError(op, ErrUnsupportedFormat, fmt.Sprintf("extension %q", ext))
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, WrapPrepareError(op, ErrInvalidInput, err.Error())
	}
	if !info.Mode().IsRegular() {
		return nil, WrapPrepareError(op, ErrInvalidInput, "not a regular file")
	}
	if info.Size() == 0 {
		return nil, WrapPrepareError(op, ErrEmptyDocument, "file is empty")
	}
	if p.opts.MaxFileSizeBytes > 0 && info.Size() > p.opts.MaxFileSizeBytes {
		return nil, WrapPrepareError(op, ErrFileTooLarge, fmt.Sprintf("file size: %d bytes", info.Size()))
	}

	p.log.Debug().
		Str("file", path).
		Str("extension", ext).
		Int64("size", info.Size()).
		Msg("Preparing document")

	var pages []models.PageImage
	if ext == "pdf" {
		pages, err = p.renderPDF(ctx, path)
	} else {
		var page models.PageImage
		page, err = p.decodeImage(path)
		pages = []models.PageImage{page}
	}
	if err != nil {
		return nil, WrapPrepareError(op, err, filepath.Base(path))
	}

	p.log.Info().
		Str("file", filepath.Base(path)).
		Int("pages", len(pages)).
		Msg("Document prepared")

	return &models.Document{Path: path, Extension: ext, Pages: pages}, nil
}

// decodeImage reads a raster image as a single PNG page.
func (p *Preparer) decodeImage(path string) (models.PageImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.PageImage{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return models.PageImage{}, fmt.Errorf("%w: decode image: %v", ErrInvalidDocument, err)
	}

	var buf bytes.Buffer
	if format == "png" {
		buf.Write(data)
	} else if err := png.Encode(&buf, img); err != nil {
		return models.PageImage{}, fmt.Errorf("%w: encode png: %v", ErrInvalidDocument, err)
	}

	bounds := img.Bounds()
	return models.PageImage{
		Number: 1,
		PNG:    buf.Bytes(),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

// renderPDF rasterizes every page of a PDF with pdftoppm.
func (p *Preparer) renderPDF(ctx context.Context, path string) ([]models.PageImage, error) {
	pageCount, err := p.counter(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if pageCount == 0 {
		return nil, ErrEmptyDocument
	}

	tmpDir, err := os.MkdirTemp("", "taxdoc-pages-*")
	if err != nil {
		return nil, err
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			p.log.Warn().Err(rmErr).Str("dir", tmpDir).Msg("Failed to remove page directory")
		}
	}()

	dpi := BaseDPI * p.opts.RenderScale
	prefix := filepath.Join(tmpDir, "page")

	// pdftoppm -r <dpi> -png <in.pdf> <tmp/page> writes page-1.png, page-2.png, ...
	_, stderr, err := p.runner.Run(ctx, nil, p.opts.PdftoppmPath, "-r", strconv.Itoa(dpi), "-png", path, prefix)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: pdftoppm: %v: %s", ErrInvalidDocument, err, command.Truncate(string(stderr), 512))
	}

	files, err := renderedPages(prefix)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: renderer produced no pages", ErrInvalidDocument)
	}
	if len(files) != pageCount {
		p.log.Warn().
			Int("expected", pageCount).
			Int("rendered", len(files)).
			Msg("Rendered page count differs from PDF page count")
	}

	pages := make([]models.PageImage, 0, len(files))
	for i, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrInvalidDocument, i+1, err)
		}
		pages = append(pages, models.PageImage{
			Number: i + 1,
			PNG:    data,
			Width:  cfg.Width,
			Height: cfg.Height,
		})
	}

	p.log.Debug().
		Int("pages", len(pages)).
		Int("dpi", dpi).
		Msg("PDF rendered")

	return pages, nil
}

// renderedPages lists prefix-N.png files ordered by page number. pdftoppm
// zero-pads N depending on the page count, so the number is parsed.
func renderedPages(prefix string) ([]string, error) {
	matches, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, err
	}

	pageNum := func(file string) int {
		n, _ := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(file, prefix+"-"), ".png"))
		return n
	}
	sort.Slice(matches, func(i, j int) bool {
		return pageNum(matches[i]) < pageNum(matches[j])
	})
	return matches, nil
}

// CountPDFPages reads the page count of a PDF with pdfcpu.
func CountPDFPages(path string) (int, error) {
	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read PDF context: %w", err)
	}
	return pdfCtx.PageCount, nil
}
