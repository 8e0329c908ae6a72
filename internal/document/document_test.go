package document

import (
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mydraft/mydraft/backend-go/internal/geom"
	"github.com/mydraft/mydraft/backend-go/internal/typeid"
)

func leaf(id string, x, y, w, h float64) *Shape {
	return NewShape(ID(id), "rectangle", Transform{X: x, Y: y, Width: w, Height: h}, NewProperties(
		Property{Key: "backgroundColor", Value: Color("#ffffff")},
	))
}

func build(t *testing.T, shapes ...*Shape) Diagram {
	t.Helper()
	d := New()
	for _, s := range shapes {
		var err error
		d, err = d.Add(s, "", -1)
		require.NoError(t, err)
	}
	require.NoError(t, d.Validate())
	return d
}

func TestResolveRoundTripsThroughWithTransform(t *testing.T) {
	d := build(t, leaf("a", 10, 10, 20, 20), leaf("b", 50, 40, 10, 10))
	d, err := d.Wrap("g", []ID{"a", "b"})
	require.NoError(t, err)

	for _, id := range []ID{"a", "g"} {
		want := Transform{X: 3, Y: 4, Width: 50, Height: 60, Rotation: 30}
		next, err := d.WithTransform(id, want)
		require.NoError(t, err)

		got, err := next.Resolve(id)
		require.NoError(t, err)
		assert.Equal(t, want, got.Transform(), id)
		require.NoError(t, next.Validate())
	}
}

func TestWithTransformOnUnknownID(t *testing.T) {
	d := build(t, leaf("a", 0, 0, 10, 10))
	next, err := d.WithTransform("missing", Transform{})
	require.ErrorIs(t, err, ErrNotFound)
	assert.True(t, next.Equal(d))
}

func TestGroupResizeScalesChildren(t *testing.T) {
	d := build(t, leaf("a", 10, 10, 20, 20), leaf("b", 50, 40, 10, 10))
	d, err := d.Wrap("g", []ID{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, geom.Rect{X: 10, Y: 10, Width: 50, Height: 40}, d.BoundingBox("g"))

	d, err = d.Resize("g", geom.Rect{X: 0, Y: 0, Width: 100, Height: 80})
	require.NoError(t, err)

	a, _ := d.Get("a")
	b, _ := d.Get("b")
	assert.Equal(t, geom.Rect{X: 0, Y: 0, Width: 40, Height: 40}, a.Transform().Box())
	assert.Equal(t, geom.Rect{X: 80, Y: 60, Width: 20, Height: 20}, b.Transform().Box())
	g, _ := d.Get("g")
	assert.Equal(t, d.BoundingBox("g"), g.Bounds())
}

func TestGroupBoxFollowsChildren(t *testing.T) {
	d := build(t, leaf("a", 0, 0, 10, 10), leaf("b", 20, 0, 10, 10))
	d, err := d.Wrap("g", []ID{"a", "b"})
	require.NoError(t, err)

	d, err = d.Translate("b", 10, 5)
	require.NoError(t, err)

	g, _ := d.Get("g")
	assert.Equal(t, geom.Rect{X: 0, Y: 0, Width: 40, Height: 15}, g.Bounds())
}

func TestRotatingNestedGroupRefreshesParent(t *testing.T) {
	d := build(t, leaf("a", 0, 0, 40, 20), leaf("b", 60, 0, 40, 20), leaf("c", 200, 200, 10, 10))
	d, err := d.Wrap("g", []ID{"a", "b"})
	require.NoError(t, err)
	d, err = d.Wrap("p", []ID{"g", "c"})
	require.NoError(t, err)

	d, err = d.Rotate("g", 90)
	require.NoError(t, err)
	require.NoError(t, d.Validate())

	p, _ := d.Get("p")
	assert.Equal(t, d.BoundingBox("p"), p.Transform().Box())
	assert.InDelta(t, 40, p.Transform().X, 1e-9)
	assert.InDelta(t, -40, p.Transform().Y, 1e-9)
	assert.InDelta(t, 170, p.Transform().Width, 1e-9)
	assert.InDelta(t, 250, p.Transform().Height, 1e-9)

	g, _ := d.Get("g")
	assert.Equal(t, 90.0, g.Transform().Rotation)
}

func TestTranslateMovesSubtree(t *testing.T) {
	d := build(t, leaf("a", 0, 0, 10, 10), leaf("b", 20, 0, 10, 10))
	d, err := d.Wrap("g", []ID{"a", "b"})
	require.NoError(t, err)

	d = d.TranslateMany([]ID{"g", "a"}, 5, 5)
	a, _ := d.Get("a")
	b, _ := d.Get("b")
	assert.Equal(t, 5.0, a.Transform().X)
	assert.Equal(t, 25.0, b.Transform().X)
}

func TestReparentRejectsCycles(t *testing.T) {
	d := build(t, leaf("a", 0, 0, 10, 10), leaf("b", 20, 0, 10, 10))
	d, err := d.Wrap("inner", []ID{"a"})
	require.NoError(t, err)
	d, err = d.Wrap("outer", []ID{"inner", "b"})
	require.NoError(t, err)

	for _, target := range []ID{"outer", "inner"} {
		next, err := d.Reparent("outer", target, 0)
		require.ErrorIs(t, err, ErrCycleRejected)
		assert.True(t, next.Equal(d))
	}
	require.NoError(t, d.Validate())
}

func TestReparentMovesBetweenLevels(t *testing.T) {
	d := build(t, leaf("a", 0, 0, 10, 10), leaf("b", 20, 0, 10, 10), leaf("c", 40, 0, 10, 10))
	d, err := d.Wrap("g", []ID{"a", "b"})
	require.NoError(t, err)

	d, err = d.Reparent("c", "g", 0)
	require.NoError(t, err)
	require.NoError(t, d.Validate())

	assert.Empty(t, cmp.Diff([]ID{"g"}, d.RootOrder()))
	assert.Empty(t, cmp.Diff([]ID{"c", "a", "b"}, d.Children("g")))
	assert.Equal(t, ID("g"), d.ParentOf("c"))
	assert.Equal(t, geom.Rect{X: 0, Y: 0, Width: 50, Height: 10}, d.BoundingBox("g"))

	_, err = d.Reparent("c", "a", 0)
	require.ErrorIs(t, err, ErrInvalidOperation)
}

func TestWrapAndUnwrapRoundTrip(t *testing.T) {
	d := build(t,
		leaf("a", 0, 0, 10, 10),
		leaf("b", 20, 0, 10, 10),
		leaf("c", 40, 0, 10, 10),
		leaf("d", 60, 0, 10, 10),
	)
	grouped, err := d.Wrap("g", []ID{"c", "a"})
	require.NoError(t, err)
	require.NoError(t, grouped.Validate())

	assert.Empty(t, cmp.Diff([]ID{"b", "g", "d"}, grouped.RootOrder()))
	assert.Empty(t, cmp.Diff([]ID{"a", "c"}, grouped.Children("g")))

	released, ids, err := grouped.Unwrap("g")
	require.NoError(t, err)
	assert.Equal(t, []ID{"a", "c"}, ids)
	assert.Empty(t, cmp.Diff([]ID{"b", "a", "c", "d"}, released.RootOrder()))
	assert.False(t, released.Has("g"))
	require.NoError(t, released.Validate())
}

func TestWrapRequiresSharedParent(t *testing.T) {
	d := build(t, leaf("a", 0, 0, 10, 10), leaf("b", 20, 0, 10, 10))
	d, err := d.Wrap("g", []ID{"a"})
	require.NoError(t, err)

	_, err = d.Wrap("h", []ID{"a", "b"})
	require.ErrorIs(t, err, ErrInvalidOperation)
}

func TestUnwrapLeafIsInvalid(t *testing.T) {
	d := build(t, leaf("a", 0, 0, 10, 10))
	_, _, err := d.Unwrap("a")
	require.ErrorIs(t, err, ErrInvalidOperation)
}

func TestRemoveDropsSubtreeAndKeepsEmptyGroup(t *testing.T) {
	d := build(t, leaf("a", 0, 0, 10, 10), leaf("b", 20, 0, 10, 10))
	d, err := d.Wrap("g", []ID{"a"})
	require.NoError(t, err)

	next := d.Remove("a")
	assert.False(t, next.Has("a"))
	assert.True(t, next.Has("g"))
	assert.Equal(t, 0, len(next.Children("g")))
	require.NoError(t, next.Validate())

	next = d.Remove("g")
	assert.Equal(t, 1, next.Len())
	assert.Equal(t, []ID{"b"}, next.RootOrder())

	assert.True(t, d.Remove("missing").Equal(d))
}

func TestSetSiblingOrder(t *testing.T) {
	d := build(t, leaf("a", 0, 0, 1, 1), leaf("b", 0, 0, 1, 1), leaf("c", 0, 0, 1, 1))

	next, err := d.SetSiblingOrder("", []ID{"c", "a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []ID{"c", "a", "b"}, next.RootOrder())

	_, err = d.SetSiblingOrder("", []ID{"a", "b"})
	require.ErrorIs(t, err, ErrInvalidOperation)
	_, err = d.SetSiblingOrder("", []ID{"a", "b", "x"})
	require.ErrorIs(t, err, ErrInvalidOperation)
}

func TestAddRejectsDuplicates(t *testing.T) {
	d := build(t, leaf("a", 0, 0, 1, 1))
	_, err := d.Add(leaf("a", 5, 5, 1, 1), "", -1)
	require.ErrorIs(t, err, ErrDuplicateID)
}

func TestGraftFragment(t *testing.T) {
	d := build(t, leaf("a", 0, 0, 10, 10))
	fragment := []*Shape{
		NewGroup("g", []ID{"x", "y"}, Transform{}),
		leaf("x", 100, 100, 10, 10),
		leaf("y", 120, 100, 10, 10),
	}
	next, err := d.Graft(fragment, "", 0)
	require.NoError(t, err)
	require.NoError(t, next.Validate())

	assert.Equal(t, []ID{"g", "a"}, next.RootOrder())
	assert.Equal(t, geom.Rect{X: 100, Y: 100, Width: 30, Height: 10}, next.BoundingBox("g"))
	g, _ := next.Get("g")
	assert.Equal(t, next.BoundingBox("g"), g.Bounds())

	cyclic := []*Shape{
		NewGroup("p", []ID{"q"}, Transform{}),
		NewGroup("q", []ID{"p"}, Transform{}),
	}
	_, err = d.Graft(cyclic, "", -1)
	require.ErrorIs(t, err, ErrCycleRejected)
}

func TestMutationSharesUntouchedShapes(t *testing.T) {
	d := build(t, leaf("a", 0, 0, 10, 10), leaf("b", 20, 0, 10, 10))
	before, _ := d.Get("b")

	next, err := d.WithProperty("a", "fontSize", Number(14))
	require.NoError(t, err)

	after, _ := next.Get("b")
	assert.Same(t, before, after)

	old, _ := d.Get("a")
	_, ok := old.Property("fontSize")
	assert.False(t, ok, "mutators must not alter their argument")
}

func TestTopLevelDropsNestedIDs(t *testing.T) {
	d := build(t, leaf("a", 0, 0, 10, 10), leaf("b", 20, 0, 10, 10))
	d, err := d.Wrap("g", []ID{"a"})
	require.NoError(t, err)

	assert.Equal(t, []ID{"a", "b"}, d.TopLevel([]ID{"a", "b", "b", "missing"}))
	assert.Equal(t, []ID{"g", "b"}, d.TopLevel([]ID{"a", "g", "b"}))
}

func TestFreshIDSkipsUsedIDs(t *testing.T) {
	d := build(t, NewShape("shape_1", "rectangle", Transform{}, Properties{}))
	id := FreshID(typeid.NewSequence(1), d, typeid.PrefixShape)
	assert.Equal(t, ID("shape_2"), id)
}

func TestValidateCatchesParentMismatch(t *testing.T) {
	d := build(t, leaf("a", 0, 0, 10, 10))
	e := d.edit()
	s, _ := e.get("a")
	e.put(s.WithParent("ghost"))
	broken := e.commit()
	require.ErrorIs(t, broken.Validate(), ErrInvalidOperation)
}

func TestParseColor(t *testing.T) {
	cases := map[string]color.NRGBA{
		"#abc":            {R: 0xaa, G: 0xbb, B: 0xcc, A: 0xff},
		"#AABBCC80":       {R: 0xaa, G: 0xbb, B: 0xcc, A: 0x80},
		"rgb(255, 0, 10)": {R: 255, B: 10, A: 255},
		"rgba(0,0,0,0.5)": {A: 128},
		"rgb(100%,0%,0%)": {R: 255, A: 255},
		"red":             {R: 255, A: 255},
		"transparent":     {},
	}
	for in, want := range cases {
		got, ok := ParseColor(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "#", "#abcde", "rgb(1,2,3,4)", "rgba(1,2,3,2)", "url(#x)", "red;x=1"} {
		assert.False(t, ValidColor(in), in)
	}
}

func TestPropertiesKeepInsertionOrder(t *testing.T) {
	p := NewProperties(
		Property{Key: "b", Value: Number(1)},
		Property{Key: "a", Value: Text("x")},
		Property{Key: "b", Value: Number(2)},
	)
	assert.Equal(t, []string{"b", "a"}, p.Keys())
	v, ok := p.Get("b")
	require.True(t, ok)
	assert.Equal(t, 2.0, v.Number)
	assert.Equal(t, []string{"a"}, p.Delete("b").Keys())
	assert.Equal(t, 2, p.Len())
}
