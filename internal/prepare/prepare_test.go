package prepare

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxdoc/internal/command"
)

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.Black)
	}
	return img
}

func writePNG(t *testing.T, path string, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(w, h)))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return buf.Bytes()
}

func noRunner(t *testing.T) command.Runner {
	return command.RunnerFunc(func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, []byte, error) {
		t.Fatalf("unexpected command %s %v", name, args)
		return nil, nil, nil
	})
}

func TestPrepareRejectsUnsupportedExtension(t *testing.T) {
	p := NewPreparerWithDeps(Options{}, noRunner(t), nil)

	_, err := p.Prepare(context.Background(), "statement.docx")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestPrepareMissingAndEmptyFiles(t *testing.T) {
	dir := t.TempDir()
	p := NewPreparerWithDeps(Options{}, noRunner(t), nil)

	_, err := p.Prepare(context.Background(), filepath.Join(dir, "missing.png"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	empty := filepath.Join(dir, "empty.pdf")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = p.Prepare(context.Background(), empty)
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestPrepareRejectsOversizedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.png")
	writePNG(t, path, 40, 40)

	p := NewPreparerWithDeps(Options{MaxFileSizeBytes: 10}, noRunner(t), nil)
	_, err := p.Prepare(context.Background(), path)
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestPreparePNGIsSinglePage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "receipt.PNG")
	data := writePNG(t, path, 30, 20)

	p := NewPreparerWithDeps(Options{}, noRunner(t), nil)
	doc, err := p.Prepare(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, doc.Pages, 1)
	assert.Equal(t, "png", doc.Extension)
	assert.Equal(t, 1, doc.Pages[0].Number)
	assert.Equal(t, 30, doc.Pages[0].Width)
	assert.Equal(t, 20, doc.Pages[0].Height)
	assert.Equal(t, base64.StdEncoding.EncodeToString(data), doc.FirstPagePayload())
}

func TestPrepareJPEGIsReencodedAsPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoice.jpg")
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(16, 16), nil))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	p := NewPreparerWithDeps(Options{}, noRunner(t), nil)
	doc, err := p.Prepare(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, doc.Pages, 1)
	_, format, err := image.DecodeConfig(bytes.NewReader(doc.Pages[0].PNG))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
}

func TestPrepareCorruptImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.jpeg")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))

	p := NewPreparerWithDeps(Options{}, noRunner(t), nil)
	_, err := p.Prepare(context.Background(), path)
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestPreparePDFWithoutPages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blank.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))

	zero := func(string) (int, error) { return 0, nil }
	p := NewPreparerWithDeps(Options{}, noRunner(t), zero)

	_, err := p.Prepare(context.Background(), path)
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestPreparePDFRendersEveryPage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoice.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))

	var gotArgs []string
	runner := command.RunnerFunc(func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, []byte, error) {
		gotArgs = append([]string{name}, args...)
		prefix := args[len(args)-1]
		for _, page := range []string{"01", "02", "10"} {
			writePNG(t, prefix+"-"+page+".png", 8, 8)
		}
		return nil, nil, nil
	})
	three := func(string) (int, error) { return 3, nil }

	p := NewPreparerWithDeps(Options{RenderScale: 2, PdftoppmPath: "/usr/bin/pdftoppm"}, runner, three)
	doc, err := p.Prepare(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, doc.Pages, 3)
	for i, page := range doc.Pages {
		assert.Equal(t, i+1, page.Number)
	}
	require.Len(t, gotArgs, 6)
	assert.Equal(t, []string{"/usr/bin/pdftoppm", "-r", "144", "-png", path}, gotArgs[:5])
}

func TestPreparePDFRenderFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoice.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))

	runner := command.RunnerFunc(func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, []byte, error) {
		return nil, []byte("Syntax Error: Couldn't read xref table"), errors.New("exit status 1")
	})
	one := func(string) (int, error) { return 1, nil }

	p := NewPreparerWithDeps(Options{}, runner, one)
	_, err := p.Prepare(context.Background(), path)
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestRenderedPagesOrder(t *testing.T) {
	dir := t.TempDir()
	prefix := filepath.Join(dir, "page")
	for _, n := range []string{"10", "2", "1"} {
		require.NoError(t, os.WriteFile(prefix+"-"+n+".png", []byte{0}, 0o644))
	}

	files, err := renderedPages(prefix)
	require.NoError(t, err)
	assert.Equal(t, []string{prefix + "-1.png", prefix + "-2.png", prefix + "-10.png"}, files)
}

func TestCountPDFPages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "two.pdf")

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	for i := 0; i < 2; i++ {
		pdf.AddPage()
		pdf.Cell(40, 10, "Total: 150.00 USD")
	}
	require.NoError(t, pdf.OutputFileAndClose(path))

	count, err := CountPDFPages(path)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	garbage := filepath.Join(t.TempDir(), "garbage.pdf")
	require.NoError(t, os.WriteFile(garbage, []byte("hello"), 0o644))
	_, err = CountPDFPages(garbage)
	assert.Error(t, err)
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "tiff", Extension("scan.TIF"))
	assert.Equal(t, "pdf", Extension("/tmp/a.b/Invoice.PDF"))
	assert.Equal(t, "", Extension("README"))
}
