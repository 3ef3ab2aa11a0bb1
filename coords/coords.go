// Package coords maps rectangles between a display frame and an image's
// native pixel grid. The display frame is assumed to show the image
// aspect-fit: scaled uniformly to fit, centered on the unused axis. Crop
// selections made against the frame are mapped back into pixel coordinates
// through the inverse of that placement.
package coords

import (
	"errors"
	"math"
)

// Point is a position in either frame or pixel space.
type Point struct{ X, Y float64 }

// Size is a width/height pair.
type Size struct{ W, H float64 }

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct{ X, Y, W, H float64 }

// IsEmpty reports whether the rectangle has non-positive extent.
func (r Rect) IsEmpty() bool { return r.W <= 0 || r.H <= 0 }

// Matrix is a 2D affine transform in the form
// [a b c d tx ty]: x' = a*x + c*y + tx, y' = b*x + d*y + ty.
type Matrix [6]float64

func Identity() Matrix                { return Matrix{1, 0, 0, 1, 0, 0} }
func Translate(tx, ty float64) Matrix { return Matrix{1, 0, 0, 1, tx, ty} }
func Scale(sx, sy float64) Matrix     { return Matrix{sx, 0, 0, sy, 0, 0} }

// Multiply returns m then o applied in sequence.
func (m Matrix) Multiply(o Matrix) Matrix {
	return Matrix{
		m[0]*o[0] + m[1]*o[2],
		m[0]*o[1] + m[1]*o[3],
		m[2]*o[0] + m[3]*o[2],
		m[2]*o[1] + m[3]*o[3],
		m[4]*o[0] + m[5]*o[2] + o[4],
		m[4]*o[1] + m[5]*o[3] + o[5],
	}
}

// Apply transforms a point.
func (m Matrix) Apply(p Point) Point {
	return Point{X: m[0]*p.X + m[2]*p.Y + m[4], Y: m[1]*p.X + m[3]*p.Y + m[5]}
}

// ApplyRect transforms a rectangle and returns the bounding box of the
// transformed corners.
func (m Matrix) ApplyRect(r Rect) Rect {
	p0 := m.Apply(Point{r.X, r.Y})
	p1 := m.Apply(Point{r.X + r.W, r.Y + r.H})
	x0, x1 := math.Min(p0.X, p1.X), math.Max(p0.X, p1.X)
	y0, y1 := math.Min(p0.Y, p1.Y), math.Max(p0.Y, p1.Y)
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

var errSingular = errors.New("coords: singular matrix")

// Inverse returns the inverse transform.
func (m Matrix) Inverse() (Matrix, error) {
	det := m[0]*m[3] - m[1]*m[2]
	if math.Abs(det) < 1e-10 {
		return Matrix{}, errSingular
	}
	return Matrix{
		m[3] / det,
		-m[1] / det,
		-m[2] / det,
		m[0] / det,
		(m[2]*m[5] - m[3]*m[4]) / det,
		(m[1]*m[4] - m[0]*m[5]) / det,
	}, nil
}

// FitScale returns the uniform scale that aspect-fits image into frame.
func FitScale(image, frame Size) float64 {
	if image.W <= 0 || image.H <= 0 {
		return 0
	}
	return math.Min(frame.W/image.W, frame.H/image.H)
}

// FitRect returns the rectangle, in frame coordinates, that the image
// occupies when aspect-fit and centered in the frame.
func FitRect(image, frame Size) Rect {
	s := FitScale(image, frame)
	w, h := image.W*s, image.H*s
	return Rect{X: (frame.W - w) / 2, Y: (frame.H - h) / 2, W: w, H: h}
}

// ImageToView returns the transform placing image pixel coordinates into the
// frame under aspect-fit centering.
func ImageToView(image, frame Size) Matrix {
	s := FitScale(image, frame)
	fit := FitRect(image, frame)
	return Scale(s, s).Multiply(Translate(fit.X, fit.Y))
}

// ViewToImage maps a selection rectangle drawn against the frame into image
// pixel coordinates. The error is non-nil when the placement is degenerate
// (zero-sized image or frame).
func ViewToImage(sel Rect, image, frame Size) (Rect, error) {
	inv, err := ImageToView(image, frame).Inverse()
	if err != nil {
		return Rect{}, err
	}
	return inv.ApplyRect(sel), nil
}
