package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/wudi/printkit/document"
)

func raster(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	return img
}

// echoEngine reports the dimensions it was handed, making rotation baking
// observable.
type echoEngine struct{}

func (echoEngine) Name() string { return "echo" }

func (echoEngine) Recognize(_ context.Context, in Input) (Result, error) {
	b := in.Image.Bounds()
	return Result{Page: in.Page, PlainText: fmt.Sprintf("%dx%d", b.Dx(), b.Dy())}, nil
}

type batchEngine struct {
	echoEngine
	calls int
}

func (b *batchEngine) RecognizeBatch(ctx context.Context, inputs []Input) ([]Result, error) {
	b.calls++
	out := make([]Result, 0, len(inputs))
	for _, in := range inputs {
		res, _ := b.echoEngine.Recognize(ctx, in)
		out = append(out, res)
	}
	return out, nil
}

type failingEngine struct{}

func (failingEngine) Name() string { return "failing" }

func (failingEngine) Recognize(context.Context, Input) (Result, error) {
	return Result{}, errors.New("no trained data")
}

func TestRecognizeDocumentFillsPageText(t *testing.T) {
	d := document.FromImages(raster(6, 2), raster(3, 3))
	d = document.RotatePage(d, 0) // baked dims become 2x6

	got, err := RecognizeDocument(context.Background(), echoEngine{}, d)
	if err != nil {
		t.Fatalf("RecognizeDocument failed: %v", err)
	}
	if text := got.Page(0).Text; text != "2x6" {
		t.Fatalf("page 0 text = %q, want rotation-baked 2x6", text)
	}
	if text := got.Page(1).Text; text != "3x3" {
		t.Fatalf("page 1 text = %q", text)
	}
	if got.Version() <= d.Version() {
		t.Fatal("recognition did not produce a new document version")
	}
}

func TestRecognizeDocumentUsesBatchEngine(t *testing.T) {
	d := document.FromImages(raster(2, 2), raster(2, 2), raster(2, 2))
	engine := &batchEngine{}
	if _, err := RecognizeDocument(context.Background(), engine, d); err != nil {
		t.Fatalf("RecognizeDocument failed: %v", err)
	}
	if engine.calls != 1 {
		t.Fatalf("batch calls = %d, want 1", engine.calls)
	}
}

func TestRecognizeDocumentEngineError(t *testing.T) {
	d := document.FromImages(raster(2, 2))
	if _, err := RecognizeDocument(context.Background(), failingEngine{}, d); err == nil {
		t.Fatal("expected engine error to surface")
	}
}

func TestDefaultEngineIsNop(t *testing.T) {
	res, err := DefaultEngine().Recognize(context.Background(), Input{Page: 3})
	if err != nil {
		t.Fatalf("nop engine errored: %v", err)
	}
	if res.Page != 3 || res.PlainText != "" {
		t.Fatalf("nop result = %+v", res)
	}
}

func TestInputOptions(t *testing.T) {
	in := Input{}
	for _, o := range []InputOption{
		WithLanguages("eng", "deu"),
		WithDPI(300),
		WithMetadata("tessedit_pageseg_mode", "6"),
	} {
		o(&in)
	}
	if len(in.Languages) != 2 || in.DPI != 300 || in.Metadata["tessedit_pageseg_mode"] != "6" {
		t.Fatalf("options not applied: %+v", in)
	}
}
