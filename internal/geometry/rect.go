// File: internal/geometry/rect.go
package geometry

import "math"

// Point is a screen coordinate in CSS pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an integer-rounded, axis-aligned rectangle.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NewRect builds a Rect from floating point coordinates, rounding each field independently.
func NewRect(x, y, width, height float64) Rect {
	return Rect{X: round(x), Y: round(y), Width: round(width), Height: round(height)}
}

// Center returns the rounded center of the rectangle.
func (r Rect) Center() Point {
	return Point{
		X: math.Round(float64(r.X) + float64(r.Width)/2),
		Y: math.Round(float64(r.Y) + float64(r.Height)/2),
	}
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= float64(r.X) && p.X <= float64(r.X+r.Width) &&
		p.Y >= float64(r.Y) && p.Y <= float64(r.Y+r.Height)
}

// Offset translates the rectangle in place.
func (r *Rect) Offset(dx, dy int) {
	r.X += dx
	r.Y += dy
}

// Scale multiplies every field by ratio, rounding each one on its own.
func (r Rect) Scale(ratio float64) Rect {
	return NewRect(float64(r.X)*ratio, float64(r.Y)*ratio, float64(r.Width)*ratio, float64(r.Height)*ratio)
}

// ScaleInv divides every field by ratio, rounding each one on its own.
func (r Rect) ScaleInv(ratio float64) Rect {
	return NewRect(float64(r.X)/ratio, float64(r.Y)/ratio, float64(r.Width)/ratio, float64(r.Height)/ratio)
}

// Intersect returns the overlap of r and o, or nil when they are disjoint.
// Rectangles that only share an edge intersect with a zero width or height.
func (r Rect) Intersect(o Rect) *Rect {
	x1 := max(r.X, o.X)
	x2 := min(r.X+r.Width, o.X+o.Width)
	y1 := max(r.Y, o.Y)
	y2 := min(r.Y+r.Height, o.Y+o.Height)
	if x2 < x1 || y2 < y1 {
		return nil
	}
	return &Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// Right is the x coordinate of the right edge.
func (r Rect) Right() int { return r.X + r.Width }

// Bottom is the y coordinate of the bottom edge.
func (r Rect) Bottom() int { return r.Y + r.Height }

// FloorCenterX is floor(x + width/2), the horizontal center used for alignment.
func (r Rect) FloorCenterX() int {
	return int(math.Floor(float64(r.X) + float64(r.Width)/2))
}

// FloorCenterY is floor(y + height/2), the vertical center used for alignment.
func (r Rect) FloorCenterY() int {
	return int(math.Floor(float64(r.Y) + float64(r.Height)/2))
}

// DOMRect returns r as an unrounded rectangle.
func (r Rect) DOMRect() DOMRect {
	return DOMRect{X: float64(r.X), Y: float64(r.Y), Width: float64(r.Width), Height: float64(r.Height)}
}

// DOMRect is the unrounded client rectangle reported by a renderer.
type DOMRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (d DOMRect) Left() float64   { return d.X }
func (d DOMRect) Top() float64    { return d.Y }
func (d DOMRect) Right() float64  { return d.X + d.Width }
func (d DOMRect) Bottom() float64 { return d.Y + d.Height }

// FloorCenterX is floor(left + width/2).
func (d DOMRect) FloorCenterX() float64 { return math.Floor(d.X + d.Width/2) }

// FloorCenterY is floor(top + height/2).
func (d DOMRect) FloorCenterY() float64 { return math.Floor(d.Y + d.Height/2) }

// Rect rounds the rectangle.
func (d DOMRect) Rect() Rect { return NewRect(d.X, d.Y, d.Width, d.Height) }

// RelativeTo rounds the rectangle after translating it so that origin becomes (0,0).
func (d DOMRect) RelativeTo(origin Point) Rect {
	return NewRect(d.X-origin.X, d.Y-origin.Y, d.Width, d.Height)
}

// Origin returns the top-left corner.
func (d DOMRect) Origin() Point { return Point{X: d.X, Y: d.Y} }

func round(v float64) int {
	// JavaScript rounds halves toward +Inf; math.Round rounds them away from zero.
	return int(math.Floor(v + 0.5))
}
