package geom

import "math"

// Point is a position in diagram space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by (dx, dy).
func (p Point) Add(dx, dy float64) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Rect represents an axis-aligned bounding box.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains checks if a point is inside the rect. Edges are inclusive.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// IsEmpty checks if the rect has zero or negative area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Union returns the smallest rect containing both rects.
// Degenerate rects are ignored.
func (r Rect) Union(other Rect) Rect {
	if r.IsEmpty() {
		if other.IsEmpty() {
			return Rect{}
		}
		return other
	}
	if other.IsEmpty() {
		return r
	}

	minX := min(r.X, other.X)
	minY := min(r.Y, other.Y)
	maxX := max(r.Right(), other.Right())
	maxY := max(r.Bottom(), other.Bottom())

	return Rect{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX,
		Height: maxY - minY,
	}
}

// Union folds boxes into their common bounding box.
func Union(boxes ...Rect) Rect {
	var result Rect
	for _, b := range boxes {
		result = result.Union(b)
	}
	return result
}

// Translate returns the rect moved by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// Left returns the minimum x coordinate.
func (r Rect) Left() float64 { return r.X }

// Right returns the maximum x coordinate.
func (r Rect) Right() float64 { return r.X + r.Width }

// Top returns the minimum y coordinate.
func (r Rect) Top() float64 { return r.Y }

// Bottom returns the maximum y coordinate.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Center returns the center point of the rect.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Corners returns the four corners clockwise from the top-left.
func (r Rect) Corners() [4]Point {
	return [4]Point{
		{X: r.X, Y: r.Y},
		{X: r.Right(), Y: r.Y},
		{X: r.Right(), Y: r.Bottom()},
		{X: r.X, Y: r.Bottom()},
	}
}

// Scale maps r from the frame `from` into the frame `to`, keeping its relative
// position and proportions. A degenerate source frame only translates.
func (r Rect) Scale(from, to Rect) Rect {
	sx, sy := 1.0, 1.0
	if from.Width > 0 {
		sx = to.Width / from.Width
	}
	if from.Height > 0 {
		sy = to.Height / from.Height
	}
	return Rect{
		X:      to.X + (r.X-from.X)*sx,
		Y:      to.Y + (r.Y-from.Y)*sy,
		Width:  r.Width * sx,
		Height: r.Height * sy,
	}
}

// Rotate returns the axis-aligned bounding box of r rotated by angle degrees
// around pivot.
func Rotate(r Rect, angle float64, pivot Point) Rect {
	angle = NormalizeAngle(angle)
	if angle == 0 {
		return r
	}
	m := Translate(pivot.X, pivot.Y).Multiply(RotateDegrees(angle)).Multiply(Translate(-pivot.X, -pivot.Y))
	return m.TransformRect(r)
}

// NormalizeAngle maps an angle in degrees into [0, 360).
func NormalizeAngle(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	// math.Mod can leave -0 or round up to 360 for tiny negatives.
	if deg >= 360 || deg == 0 {
		return 0
	}
	return deg
}

// Snap rounds value to the nearest multiple of gridSize. A non-positive grid
// leaves the value untouched.
func Snap(value, gridSize float64) float64 {
	if gridSize <= 0 {
		return value
	}
	return math.Round(value/gridSize) * gridSize
}

// SnapPoint snaps both coordinates of p.
func SnapPoint(p Point, gridSize float64) Point {
	return Point{X: Snap(p.X, gridSize), Y: Snap(p.Y, gridSize)}
}
