package arrange

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mydraft/mydraft/backend-go/internal/document"
	"github.com/mydraft/mydraft/backend-go/internal/geom"
	"github.com/mydraft/mydraft/backend-go/internal/selection"
	"github.com/mydraft/mydraft/backend-go/internal/typeid"
)

type box struct {
	id         document.ID
	x, y, w, h float64
}

func diagram(t *testing.T, boxes ...box) document.Diagram {
	t.Helper()
	d := document.New()
	for _, b := range boxes {
		var err error
		tr := document.Transform{X: b.x, Y: b.y, Width: b.w, Height: b.h}
		d, err = d.Add(document.NewShape(b.id, "rectangle", tr, document.Properties{}), "", -1)
		require.NoError(t, err)
	}
	return d
}

func sel(d document.Diagram, ids ...document.ID) selection.Selection {
	return selection.Select(d, ids)
}

func x(t *testing.T, d document.Diagram, id document.ID) float64 {
	t.Helper()
	s, err := d.Resolve(id)
	require.NoError(t, err)
	return s.Transform().X
}

func TestAlignLeft(t *testing.T) {
	d := diagram(t, box{"a", 10, 0, 20, 10}, box{"b", 50, 30, 10, 10})

	next, err := Align(d, sel(d, "a", "b"), AlignLeft)
	require.NoError(t, err)
	assert.Equal(t, 10.0, x(t, next, "a"))
	assert.Equal(t, 10.0, x(t, next, "b"))
}

func TestAlignCenterHorizontal(t *testing.T) {
	d := diagram(t, box{"a", 10, 0, 20, 10}, box{"b", 50, 30, 10, 10})

	next, err := Align(d, sel(d, "a", "b"), AlignCenterHorizontal)
	require.NoError(t, err)

	// The aggregate box spans 10..60.
	assert.Equal(t, 35.0, next.BoundingBox("a").Center().X)
	assert.Equal(t, 35.0, next.BoundingBox("b").Center().X)
}

func TestAlignMovesGroupsAsAWhole(t *testing.T) {
	d := diagram(t, box{"a", 10, 0, 10, 10}, box{"b", 30, 0, 10, 10}, box{"c", 0, 50, 5, 5})
	d, err := d.Wrap("g", []document.ID{"a", "b"})
	require.NoError(t, err)

	// a is covered by g and must not move on its own.
	next, err := Align(d, sel(d, "g", "c", "a"), AlignLeft)
	require.NoError(t, err)
	assert.Equal(t, 0.0, x(t, next, "a"))
	assert.Equal(t, 20.0, x(t, next, "b"))
	assert.Equal(t, 0.0, x(t, next, "c"))
}

func TestAlignNeedsTwoShapes(t *testing.T) {
	d := diagram(t, box{"a", 10, 0, 20, 10})
	next, err := Align(d, sel(d, "a"), AlignLeft)
	require.ErrorIs(t, err, document.ErrInvalidOperation)
	assert.True(t, next.Equal(d))
}

func TestDistributeHorizontal(t *testing.T) {
	// Centers at 0, 5 and 100.
	d := diagram(t, box{"a", -5, 0, 10, 10}, box{"c", 95, 0, 10, 10}, box{"b", 0, 0, 10, 10})

	next, err := Distribute(d, sel(d, "a", "c", "b"), Horizontal)
	require.NoError(t, err)
	assert.Equal(t, 50.0, next.BoundingBox("b").Center().X)
	assert.Equal(t, -5.0, x(t, next, "a"))
	assert.Equal(t, 95.0, x(t, next, "c"))
}

func TestDistributeWithFewerThanThreeIsNoop(t *testing.T) {
	d := diagram(t, box{"a", 0, 0, 10, 10}, box{"b", 40, 0, 10, 10})
	next, err := Distribute(d, sel(d, "a", "b"), Vertical)
	require.ErrorIs(t, err, document.ErrInvalidOperation)
	assert.True(t, next.Equal(d))
}

func TestOrder(t *testing.T) {
	d := diagram(t,
		box{"a", 0, 0, 1, 1}, box{"b", 0, 0, 1, 1}, box{"c", 0, 0, 1, 1}, box{"d", 0, 0, 1, 1},
	)
	cases := []struct {
		mode OrderMode
		ids  []document.ID
		want []document.ID
	}{
		{OrderFront, []document.ID{"b"}, []document.ID{"a", "c", "d", "b"}},
		{OrderBack, []document.ID{"c"}, []document.ID{"c", "a", "b", "d"}},
		{OrderForward, []document.ID{"a", "b"}, []document.ID{"c", "a", "b", "d"}},
		{OrderBackward, []document.ID{"c", "d"}, []document.ID{"a", "c", "d", "b"}},
		{OrderForward, []document.ID{"d"}, []document.ID{"a", "b", "c", "d"}},
	}
	for _, tc := range cases {
		t.Run(string(tc.mode), func(t *testing.T) {
			next, err := Order(d, sel(d, tc.ids...), tc.mode)
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, next.RootOrder()); diff != "" {
				t.Errorf("order mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOrderBackAtBackIsNoop(t *testing.T) {
	d := diagram(t, box{"a", 0, 0, 1, 1}, box{"b", 0, 0, 1, 1})
	next, err := Order(d, sel(d, "a"), OrderBack)
	require.NoError(t, err)
	assert.True(t, next.Equal(d))
	assert.Equal(t, []document.ID{"a", "b"}, next.RootOrder())
}

func TestGroupUngroupRoundTrip(t *testing.T) {
	d := diagram(t,
		box{"a", 0, 0, 10, 10}, box{"b", 20, 0, 10, 10}, box{"c", 40, 0, 10, 10}, box{"d", 60, 0, 10, 10},
	)
	gen := typeid.NewSequence(1)

	grouped, gid, err := Group(d, sel(d, "d", "b"), gen)
	require.NoError(t, err)
	assert.Equal(t, document.ID("group_1"), gid)
	assert.Equal(t, []document.ID{"a", "c", gid}, grouped.RootOrder())
	assert.Equal(t, geom.Rect{X: 20, Y: 0, Width: 50, Height: 10}, grouped.BoundingBox(gid))

	released, children, err := Ungroup(grouped, sel(grouped, gid))
	require.NoError(t, err)
	assert.Equal(t, []document.ID{"b", "d"}, children)

	// Same shapes at the top level, same relative paint order.
	assert.ElementsMatch(t, d.RootOrder(), released.RootOrder())
	assert.Equal(t, []document.ID{"a", "c", "b", "d"}, released.RootOrder())
	require.NoError(t, released.Validate())
}

func TestGroupUngroupRoundTripAdjacent(t *testing.T) {
	d := diagram(t, box{"a", 0, 0, 10, 10}, box{"b", 20, 0, 10, 10}, box{"c", 40, 0, 10, 10})

	grouped, gid, err := Group(d, sel(d, "a", "b"), typeid.NewSequence(1))
	require.NoError(t, err)
	released, _, err := Ungroup(grouped, sel(grouped, gid))
	require.NoError(t, err)
	assert.True(t, released.Equal(d))
}

func TestUngroupOnLeafIsInvalid(t *testing.T) {
	d := diagram(t, box{"a", 0, 0, 10, 10})
	next, _, err := Ungroup(d, sel(d, "a"))
	require.ErrorIs(t, err, document.ErrInvalidOperation)
	assert.True(t, next.Equal(d))
}

func TestReparentCycleLeavesDiagramUnchanged(t *testing.T) {
	d := diagram(t, box{"a", 0, 0, 10, 10}, box{"b", 20, 0, 10, 10})
	d, gid, err := Group(d, sel(d, "a", "b"), typeid.NewSequence(1))
	require.NoError(t, err)

	next, err := Reparent(d, gid, gid, 0)
	require.ErrorIs(t, err, document.ErrCycleRejected)
	assert.True(t, next.Equal(d))
}

func TestNudgeSnapsToGrid(t *testing.T) {
	d := diagram(t, box{"a", 3, 4, 10, 10})
	next := Nudge(d, sel(d, "a"), 1, 0, 10)
	s, _ := next.Get("a")
	assert.Equal(t, 0.0, s.Transform().X)
	assert.Equal(t, 0.0, s.Transform().Y)

	next = Nudge(d, sel(d, "a"), 1, 0, 0)
	s, _ = next.Get("a")
	assert.Equal(t, 4.0, s.Transform().X)
}

func TestRotateSelection(t *testing.T) {
	d := diagram(t, box{"a", 0, 0, 20, 10})
	next := Rotate(d, sel(d, "a"), 450)
	s, _ := next.Get("a")
	assert.Equal(t, 90.0, s.Transform().Rotation)
	assert.Equal(t, geom.Rect{X: 0, Y: 0, Width: 20, Height: 10}, s.Transform().Box())
}
