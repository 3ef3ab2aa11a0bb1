package document

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/wudi/printkit/imaging"
)

// Default collage grid.
const (
	DefaultCollageColumns = 2
	DefaultCollageRows    = 2
)

// RotatePage returns a document with page i rotated a further 90 degrees
// clockwise, wrapping modulo 360. Out-of-range indexes return d unchanged.
func RotatePage(d Document, i int) Document {
	if i < 0 || i >= len(d.pages) {
		return d
	}
	pages := d.Pages()
	pages[i].Rotation = (pages[i].Rotation + 90) % 360
	return derive(pages)
}

// Collage composes the document's pages into an N-up layout. Pages are
// chunked into groups of cols*rows and each group is rendered onto one
// composed page: a white canvas divided into equal cells, filled row-major
// with aspect-fit thumbnails of the group's pages (rotation baked). The
// result has ceil(n / (cols*rows)) pages. Non-positive grid counts fall
// back to the 2x2 default; an empty document is returned unchanged.
func Collage(d Document, cols, rows int) Document {
	if cols < 1 {
		cols = DefaultCollageColumns
	}
	if rows < 1 {
		rows = DefaultCollageRows
	}
	if len(d.pages) == 0 {
		return d
	}

	chunk := cols * rows
	out := make([]Page, 0, (len(d.pages)+chunk-1)/chunk)
	for start := 0; start < len(d.pages); start += chunk {
		end := start + chunk
		if end > len(d.pages) {
			end = len(d.pages)
		}
		out = append(out, composePage(d.pages[start:end], cols, rows))
	}
	return derive(out)
}

// composePage renders one group of pages onto a single canvas sized after
// the group's first page.
func composePage(group []Page, cols, rows int) Page {
	first := imaging.BakeRotation(group[0].Content, float64(group[0].Rotation))
	w, h := first.Bounds().Dx(), first.Bounds().Dy()
	if w < cols {
		w = cols
	}
	if h < rows {
		h = rows
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	cellW, cellH := w/cols, h/rows
	for i, p := range group {
		row, col := i/cols, i%cols
		cell := image.Rect(col*cellW, row*cellH, (col+1)*cellW, (row+1)*cellH)
		baked := imaging.BakeRotation(p.Content, float64(p.Rotation))
		imaging.ScaleInto(canvas, cell, baked)
	}
	return Page{Content: canvas}
}

// Finalize bakes each page's stored rotation into its raster and returns
// the page images in order, ready for a print or export sink.
func Finalize(d Document) []image.Image {
	out := make([]image.Image, len(d.pages))
	for i, p := range d.pages {
		out[i] = imaging.BakeRotation(p.Content, float64(p.Rotation))
	}
	return out
}
