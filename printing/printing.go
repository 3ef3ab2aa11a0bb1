// Package printing defines the sink a finalized document or image is handed
// to. The core never consumes anything back from a sink beyond the error.
package printing

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/wudi/printkit/document"
	"github.com/wudi/printkit/export"
	"github.com/wudi/printkit/imaging"
	"github.com/wudi/printkit/observability"
)

// Job is a named, fully finalized print payload: rotations are already
// baked into the page rasters.
type Job struct {
	Name  string
	Pages []image.Image
}

// JobFromDocument finalizes a document into a Job.
func JobFromDocument(name string, d document.Document) Job {
	return Job{Name: name, Pages: document.Finalize(d)}
}

// JobFromImage finalizes a single image value into a Job.
func JobFromImage(name string, v imaging.Value) Job {
	return Job{Name: name, Pages: []image.Image{imaging.Print(v)}}
}

// Sink accepts print jobs. Implementations bridge the platform print
// system or a network printer.
type Sink interface {
	Print(ctx context.Context, job Job) error
}

// SpoolSink writes each job into a directory as a PDF. Used by the CLI
// tools and as a stand-in sink in tests.
type SpoolSink struct {
	Dir string
	Log observability.Logger
}

// NewSpoolSink spools jobs into dir.
func NewSpoolSink(dir string, log observability.Logger) *SpoolSink {
	if log == nil {
		log = observability.Nop()
	}
	return &SpoolSink{Dir: dir, Log: log}
}

func (s *SpoolSink) Print(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(job.Pages) == 0 {
		return fmt.Errorf("printing: job %q has no pages", job.Name)
	}

	path := filepath.Join(s.Dir, sanitizeName(job.Name)+".pdf")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("printing: spool %q: %w", job.Name, err)
	}
	defer f.Close()

	if err := export.WritePDF(f, job.Pages); err != nil {
		return fmt.Errorf("printing: spool %q: %w", job.Name, err)
	}
	s.Log.Info("job spooled",
		observability.String("job", job.Name),
		observability.Int("pages", len(job.Pages)),
		observability.String("path", path))
	return nil
}

// sanitizeName keeps spool filenames portable.
func sanitizeName(name string) string {
	if name == "" {
		return "untitled"
	}
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
	return clean
}
