package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnionIgnoresDegenerateBoxes(t *testing.T) {
	a := Rect{X: 10, Y: 10, Width: 20, Height: 20}
	b := Rect{X: 50, Y: 0, Width: 10, Height: 5}
	line := Rect{X: -100, Y: -100, Width: 0, Height: 300}

	assert.Equal(t, Rect{X: 10, Y: 0, Width: 50, Height: 30}, Union(a, b))
	assert.Equal(t, Union(a, b), Union(a, line, b))
	assert.Equal(t, Rect{}, Union())
	assert.Equal(t, Rect{}, Union(line))
}

func TestTranslateAndContains(t *testing.T) {
	r := Rect{X: 0, Y: 0, Width: 10, Height: 10}.Translate(5, -5)

	assert.Equal(t, Rect{X: 5, Y: -5, Width: 10, Height: 10}, r)
	assert.True(t, r.Contains(Point{X: 5, Y: -5}), "edges are inclusive")
	assert.True(t, r.Contains(Point{X: 15, Y: 5}))
	assert.False(t, r.Contains(Point{X: 15.1, Y: 0}))
}

func TestRotate(t *testing.T) {
	r := Rect{X: 0, Y: 0, Width: 20, Height: 10}

	rotated := Rotate(r, 90, r.Center())
	assert.InDelta(t, 5, rotated.X, 1e-9)
	assert.InDelta(t, -5, rotated.Y, 1e-9)
	assert.InDelta(t, 10, rotated.Width, 1e-9)
	assert.InDelta(t, 20, rotated.Height, 1e-9)

	assert.Equal(t, r, Rotate(r, 360, Point{}))
	assert.Equal(t, r, Rotate(r, -720, Point{X: 3, Y: 3}))
}

func TestNormalizeAngle(t *testing.T) {
	cases := map[float64]float64{
		0:    0,
		360:  0,
		-90:  270,
		450:  90,
		-360: 0,
		725:  5,
	}
	for in, want := range cases {
		assert.InDelta(t, want, NormalizeAngle(in), 1e-9, "angle %v", in)
	}
}

func TestSnap(t *testing.T) {
	assert.Equal(t, 10.0, Snap(12, 10))
	assert.Equal(t, 20.0, Snap(15, 10))
	assert.Equal(t, 7.3, Snap(7.3, 0))
	assert.Equal(t, Point{X: 8, Y: 16}, SnapPoint(Point{X: 9, Y: 15}, 8))
}

func TestScaleIntoFrame(t *testing.T) {
	from := Rect{X: 0, Y: 0, Width: 100, Height: 100}
	to := Rect{X: 10, Y: 10, Width: 200, Height: 50}
	inner := Rect{X: 50, Y: 50, Width: 50, Height: 50}

	assert.Equal(t, Rect{X: 110, Y: 35, Width: 100, Height: 25}, inner.Scale(from, to))
}

func TestBoxMatrix(t *testing.T) {
	box := Rect{X: 10, Y: 20, Width: 40, Height: 20}

	m := BoxMatrix(box, 0)
	assert.Equal(t, Point{X: 10, Y: 20}, m.TransformPoint(Point{}))
	assert.Equal(t, Point{X: 50, Y: 40}, m.TransformPoint(Point{X: 40, Y: 20}))

	rotated := BoxMatrix(box, 180).TransformPoint(Point{})
	assert.InDelta(t, 50, rotated.X, 1e-9)
	assert.InDelta(t, 40, rotated.Y, 1e-9)

	inv := m.Invert()
	back := inv.TransformPoint(Point{X: 50, Y: 40})
	assert.InDelta(t, 40, back.X, 1e-9)
	assert.InDelta(t, 20, back.Y, 1e-9)
}
