package document

import (
	"image"
	"image/color"
	"testing"
)

func page(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 200, B: 200, A: 255})
		}
	}
	return img
}

func pages(n, w, h int) []image.Image {
	out := make([]image.Image, n)
	for i := range out {
		out[i] = page(w, h)
	}
	return out
}

func TestRotatePageWraps(t *testing.T) {
	d := FromImages(pages(2, 4, 4)...)
	for i := 0; i < 3; i++ {
		d = RotatePage(d, 0)
	}
	if got := d.Page(0).Rotation; got != 270 {
		t.Fatalf("rotation = %d, want 270", got)
	}
	d = RotatePage(d, 0)
	if got := d.Page(0).Rotation; got != 0 {
		t.Fatalf("rotation after full turn = %d, want 0", got)
	}
	if got := d.Page(1).Rotation; got != 0 {
		t.Fatalf("untouched page rotated: %d", got)
	}
}

func TestRotatePageOutOfRange(t *testing.T) {
	d := FromImages(pages(1, 4, 4)...)
	if got := RotatePage(d, 5); got.Version() != d.Version() {
		t.Fatal("out-of-range rotate produced a new version")
	}
}

func TestRotatePageBumpsVersionWithSamePageCount(t *testing.T) {
	d := FromImages(pages(3, 4, 4)...)
	r := RotatePage(d, 1)
	if r.PageCount() != d.PageCount() {
		t.Fatalf("page count changed: %d", r.PageCount())
	}
	if r.Version() <= d.Version() {
		t.Fatalf("version not advanced: %d -> %d", d.Version(), r.Version())
	}
}

func TestCollageSevenPagesDefaultGrid(t *testing.T) {
	d := FromImages(pages(7, 8, 8)...)
	got := Collage(d, 0, 0) // defaults to 2x2
	if got.PageCount() != 2 {
		t.Fatalf("collage pages = %d, want 2 (ceil(7/4))", got.PageCount())
	}
}

func TestCollagePageCounts(t *testing.T) {
	cases := []struct {
		pages, cols, rows, want int
	}{
		{1, 2, 2, 1},
		{4, 2, 2, 1},
		{5, 2, 2, 2},
		{9, 3, 2, 2},
		{6, 1, 1, 6},
	}
	for _, c := range cases {
		d := FromImages(pages(c.pages, 6, 6)...)
		if got := Collage(d, c.cols, c.rows).PageCount(); got != c.want {
			t.Errorf("Collage(%d pages, %dx%d) = %d pages, want %d",
				c.pages, c.cols, c.rows, got, c.want)
		}
	}
}

func TestCollageKeepsPageSize(t *testing.T) {
	d := FromImages(pages(4, 10, 12)...)
	got := Collage(d, 2, 2)
	b := got.Page(0).Content.Bounds()
	if b.Dx() != 10 || b.Dy() != 12 {
		t.Fatalf("composed page = %dx%d, want 10x12", b.Dx(), b.Dy())
	}
}

func TestCollageEmptyDocument(t *testing.T) {
	d := New()
	if got := Collage(d, 2, 2); got.PageCount() != 0 {
		t.Fatalf("collage of empty doc has %d pages", got.PageCount())
	}
}

func TestFinalizeBakesRotation(t *testing.T) {
	d := FromImages(page(6, 2))
	d = RotatePage(d, 0)
	out := Finalize(d)
	if len(out) != 1 {
		t.Fatalf("finalize returned %d pages", len(out))
	}
	b := out[0].Bounds()
	if b.Dx() != 2 || b.Dy() != 6 {
		t.Fatalf("finalized dims = %dx%d, want 2x6", b.Dx(), b.Dy())
	}
}

func TestPagesReturnsCopy(t *testing.T) {
	d := FromImages(pages(2, 4, 4)...)
	got := d.Pages()
	got[0].Rotation = 90
	if d.Page(0).Rotation != 0 {
		t.Fatal("Pages() leaked internal slice")
	}
}
