// Package imaging defines the immutable image value edited by the scanner
// flow and the pure transforms over it. A Value never mutates its backing
// raster: every transform allocates a new raster or reuses the old one
// untouched, so values can sit on undo stacks safely.
package imaging

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"

	"github.com/wudi/printkit/coords"
)

// Op tags how a Value was derived from its predecessor.
type Op int

const (
	OpNone Op = iota
	OpRotate
	OpCrop
	OpCollage
)

func (o Op) String() string {
	switch o {
	case OpRotate:
		return "rotate"
	case OpCrop:
		return "crop"
	case OpCollage:
		return "collage"
	default:
		return "none"
	}
}

// Value is an immutable raster plus the edit metadata carried alongside it.
type Value struct {
	img      image.Image
	rotation float64 // degrees clockwise, [0,360)
	crop     *coords.Rect
	op       Op
	rows     int
	cols     int
}

// FromImage wraps a raster in an unedited Value. The caller must not mutate
// img afterwards.
func FromImage(img image.Image) Value {
	return Value{img: img, rows: 1, cols: 1}
}

// Image returns the backing raster. Treat it as read-only.
func (v Value) Image() image.Image { return v.img }

// Rotation returns the accumulated rotation in degrees clockwise.
func (v Value) Rotation() float64 { return v.rotation }

// Op returns the tag of the transform that produced this value.
func (v Value) Op() Op { return v.op }

// CropRect returns the view-frame rectangle of the last crop, if any.
func (v Value) CropRect() (coords.Rect, bool) {
	if v.crop == nil {
		return coords.Rect{}, false
	}
	return *v.crop, true
}

// Grid returns the collage row and column counts. (1, 1) for a plain image.
func (v Value) Grid() (rows, cols int) { return v.rows, v.cols }

// Rotate advances the rotation by 90 degrees, wrapping modulo 360. The
// raster is untouched; rotation is baked only by Print.
func Rotate(v Value) Value {
	out := v
	out.rotation = mod360(v.rotation + 90)
	out.op = OpRotate
	return out
}

// Crop cuts the region of the raster selected by sel, a rectangle drawn
// against a display frame showing the image aspect-fit. Degenerate or fully
// out-of-bounds selections return v unchanged.
func Crop(v Value, sel coords.Rect, frame coords.Size) Value {
	b := v.img.Bounds()
	pixelRect, err := coords.ViewToImage(sel, coords.Size{W: float64(b.Dx()), H: float64(b.Dy())}, frame)
	if err != nil || pixelRect.IsEmpty() {
		return v
	}

	crop := image.Rect(
		b.Min.X+int(pixelRect.X),
		b.Min.Y+int(pixelRect.Y),
		b.Min.X+int(pixelRect.X+pixelRect.W),
		b.Min.Y+int(pixelRect.Y+pixelRect.H),
	).Intersect(b)
	if crop.Empty() {
		return v
	}

	dst := image.NewNRGBA(image.Rect(0, 0, crop.Dx(), crop.Dy()))
	draw.Draw(dst, dst.Bounds(), v.img, crop.Min, draw.Src)

	out := v
	out.img = dst
	out.crop = &coords.Rect{X: sel.X, Y: sel.Y, W: sel.W, H: sel.H}
	out.op = OpCrop
	return out
}

// AddToCollage doubles the canvas by appending a duplicate of the current
// image: to the right when the grid has at least as many rows as columns,
// below otherwise. Alternating the growth axis keeps the grid roughly
// square. The running (rows, cols) counts travel in the op tag.
func AddToCollage(v Value) Value {
	b := v.img.Bounds()
	w, h := b.Dx(), b.Dy()

	growRight := v.rows >= v.cols

	var dst *image.NRGBA
	out := v
	if growRight {
		dst = image.NewNRGBA(image.Rect(0, 0, w*2, h))
		out.cols = v.cols * 2
	} else {
		dst = image.NewNRGBA(image.Rect(0, 0, w, h*2))
		out.rows = v.rows * 2
	}
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(0, 0, w, h), v.img, b.Min, draw.Src)
	if growRight {
		draw.Draw(dst, image.Rect(w, 0, w*2, h), v.img, b.Min, draw.Src)
	} else {
		draw.Draw(dst, image.Rect(0, h, w, h*2), v.img, b.Min, draw.Src)
	}

	out.img = dst
	out.op = OpCollage
	return out
}

// Print returns the raster to hand to a print or export sink. Accumulated
// rotation is baked in; collage results are already final and returned
// as-is.
func Print(v Value) image.Image {
	if v.op == OpCollage {
		return v.img
	}
	return BakeRotation(v.img, v.rotation)
}

// BakeRotation returns img rotated clockwise by the nearest multiple of 90
// degrees. A zero rotation returns img unchanged.
func BakeRotation(img image.Image, degrees float64) image.Image {
	switch quarterTurns(degrees) {
	case 1:
		return rotate90(img)
	case 2:
		return rotate90(rotate90(img))
	case 3:
		return rotate90(rotate90(rotate90(img)))
	default:
		return img
	}
}

// ScaleInto draws src aspect-fit and centered into the dst region. Used by
// collage page composition.
func ScaleInto(dst draw.Image, region image.Rectangle, src image.Image) {
	b := src.Bounds()
	fit := coords.FitRect(
		coords.Size{W: float64(b.Dx()), H: float64(b.Dy())},
		coords.Size{W: float64(region.Dx()), H: float64(region.Dy())},
	)
	target := image.Rect(
		region.Min.X+int(fit.X),
		region.Min.Y+int(fit.Y),
		region.Min.X+int(fit.X+fit.W),
		region.Min.Y+int(fit.Y+fit.H),
	)
	xdraw.ApproxBiLinear.Scale(dst, target, src, b, xdraw.Over, nil)
}

func mod360(deg float64) float64 {
	for deg >= 360 {
		deg -= 360
	}
	for deg < 0 {
		deg += 360
	}
	return deg
}

func quarterTurns(degrees float64) int {
	t := int(mod360(degrees)/90+0.5) % 4
	return t
}

// rotate90 rotates clockwise by a quarter turn.
func rotate90(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.Set(h-1-y, x, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}
