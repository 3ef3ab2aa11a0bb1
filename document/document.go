// Package document models the scanned document edited by the viewer: an
// immutable ordered sequence of pages, each a raster with its own rotation.
// Transforms return new Documents; a monotonic version token distinguishes
// versions whose page count did not change (a rotated page looks identical
// to identity-based change detection otherwise).
package document

import (
	"image"
	"sync/atomic"
)

// Page is one page of a document. Content is treated as read-only.
type Page struct {
	Content  image.Image
	Rotation int // degrees clockwise, multiple of 90, [0,360)
	Text     string // recognized text, empty until OCR runs
}

// Document is an immutable ordered page sequence.
type Document struct {
	pages   []Page
	version uint64
}

var versionCounter atomic.Uint64

// New builds a document from pages. The slice is copied.
func New(pages ...Page) Document {
	d := Document{pages: make([]Page, len(pages))}
	copy(d.pages, pages)
	d.version = versionCounter.Add(1)
	return d
}

// FromImages wraps rasters as unrotated pages.
func FromImages(imgs ...image.Image) Document {
	pages := make([]Page, len(imgs))
	for i, img := range imgs {
		pages[i] = Page{Content: img}
	}
	return New(pages...)
}

// PageCount returns the number of pages.
func (d Document) PageCount() int { return len(d.pages) }

// Page returns page i, or a zero Page when i is out of range.
func (d Document) Page(i int) Page {
	if i < 0 || i >= len(d.pages) {
		return Page{}
	}
	return d.pages[i]
}

// Pages returns a copy of the page slice.
func (d Document) Pages() []Page {
	out := make([]Page, len(d.pages))
	copy(out, d.pages)
	return out
}

// Version returns the document's version token. Tokens are unique and
// monotonically increasing across all documents in the process.
func (d Document) Version() uint64 { return d.version }

// derive returns a new document with the given pages and a fresh token.
func derive(pages []Page) Document {
	return Document{pages: pages, version: versionCounter.Add(1)}
}
