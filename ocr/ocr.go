// Package ocr plugs text recognition into the scan pipeline so captured
// documents become searchable. The Engine contract is small and
// provider-agnostic; the tesseract subpackage supplies the default local
// engine, and the package-level default stays a no-op unless an engine is
// registered, keeping recognition optional for builds without the native
// dependency.
package ocr

import (
	"context"
	"fmt"
	"image"

	"github.com/wudi/printkit/document"
	"github.com/wudi/printkit/imaging"
)

// Input is one page raster submitted for recognition.
type Input struct {
	// Page is the zero-based index of the page this raster came from.
	Page int
	// Image is the page raster with any rotation already baked in.
	Image image.Image
	// Languages lists trained-data hints (e.g. "eng", "deu").
	Languages []string
	// DPI is the effective dots-per-inch; zero means unknown.
	DPI int
	// Metadata passes engine-specific knobs through without hard-coding
	// them into the API surface.
	Metadata map[string]string
}

// Word is one recognized token with its pixel bounds.
type Word struct {
	Text       string
	Bounds     image.Rectangle
	Confidence float64
}

// Result is the recognition output for one page.
type Result struct {
	Page       int
	PlainText  string
	Words      []Word
	Confidence float64
	Language   string
}

// Engine is the OCR provider contract: one page in, one result out.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, in Input) (Result, error)
}

// BatchEngine recognizes several pages in one call, letting providers
// amortize client setup.
type BatchEngine interface {
	Engine
	RecognizeBatch(ctx context.Context, inputs []Input) ([]Result, error)
}

// InputOption adjusts an Input before submission.
type InputOption func(*Input)

// WithLanguages sets the language hints.
func WithLanguages(langs ...string) InputOption {
	return func(in *Input) { in.Languages = langs }
}

// WithDPI declares the effective scan resolution.
func WithDPI(dpi int) InputOption {
	return func(in *Input) { in.DPI = dpi }
}

// WithMetadata sets one engine-specific variable.
func WithMetadata(key, value string) InputOption {
	return func(in *Input) {
		if in.Metadata == nil {
			in.Metadata = make(map[string]string)
		}
		in.Metadata[key] = value
	}
}

var defaultEngine Engine = nopEngine{}

// DefaultEngine returns the registered default engine. Without a
// registration (the tesseract subpackage registers itself on import) it is
// a no-op that recognizes nothing.
func DefaultEngine() Engine { return defaultEngine }

// SetDefaultEngine replaces the default engine.
func SetDefaultEngine(e Engine) { defaultEngine = e }

type nopEngine struct{}

func (nopEngine) Name() string { return "nop" }

func (nopEngine) Recognize(_ context.Context, in Input) (Result, error) {
	return Result{Page: in.Page}, nil
}

// RecognizeDocument runs the engine over every page of d, rotation baked,
// and returns a new document version with each page's Text filled in. Batch
// engines are used when available.
func RecognizeDocument(ctx context.Context, engine Engine, d document.Document, opts ...InputOption) (document.Document, error) {
	pages := d.Pages()
	inputs := make([]Input, len(pages))
	for i, p := range pages {
		in := Input{Page: i, Image: imaging.BakeRotation(p.Content, float64(p.Rotation))}
		for _, o := range opts {
			o(&in)
		}
		inputs[i] = in
	}

	var results []Result
	if batch, ok := engine.(BatchEngine); ok {
		var err error
		results, err = batch.RecognizeBatch(ctx, inputs)
		if err != nil {
			return d, fmt.Errorf("recognize batch: %w", err)
		}
	} else {
		results = make([]Result, 0, len(inputs))
		for _, in := range inputs {
			if err := ctx.Err(); err != nil {
				return d, err
			}
			res, err := engine.Recognize(ctx, in)
			if err != nil {
				return d, fmt.Errorf("recognize page %d: %w", in.Page, err)
			}
			results = append(results, res)
		}
	}

	for _, res := range results {
		if res.Page >= 0 && res.Page < len(pages) {
			pages[res.Page].Text = res.PlainText
		}
	}
	return document.New(pages...), nil
}
