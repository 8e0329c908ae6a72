package clipboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mydraft/mydraft/backend-go/internal/document"
	"github.com/mydraft/mydraft/backend-go/internal/persist"
	"github.com/mydraft/mydraft/backend-go/internal/selection"
	"github.com/mydraft/mydraft/backend-go/internal/typeid"
)

func fixture(t *testing.T) document.Diagram {
	t.Helper()
	d := document.New()
	for i, id := range []document.ID{"shape_1", "shape_2", "shape_3"} {
		var err error
		tr := document.Transform{X: float64(i * 50), Y: 10, Width: 40, Height: 20}
		props := document.NewProperties(document.Property{Key: "text", Value: document.Text(string(id))})
		d, err = d.Add(document.NewShape(id, "button", tr, props), "", -1)
		require.NoError(t, err)
	}
	d, err := d.Wrap("group_4", []document.ID{"shape_1", "shape_2"})
	require.NoError(t, err)
	return d
}

func TestCopyCapturesSubtrees(t *testing.T) {
	d := fixture(t)
	p := Copy(d, selection.Select(d, []document.ID{"shape_3", "group_4", "shape_1"}))

	assert.Equal(t, []document.ID{"group_4", "shape_3"}, p.Roots)
	require.Len(t, p.Shapes, 4)
	assert.Equal(t, document.ID(""), p.Shapes[0].Parent())
	assert.NotEqual(t, [16]byte{}, [16]byte(p.ID))
}

func TestPasteUsesDisjointIDs(t *testing.T) {
	d := fixture(t)
	before := d.IDs()
	p := Copy(d, selection.Select(d, []document.ID{"group_4", "shape_3"}))

	// The sequence would hand out ids that already exist; they must be skipped.
	next, sel, err := Paste(d, p, DefaultOffset, typeid.NewSequence(1))
	require.NoError(t, err)
	require.NoError(t, next.Validate())

	assert.Equal(t, d.Len()+4, next.Len())
	for _, id := range next.IDs() {
		if d.Has(id) {
			continue
		}
		assert.NotContains(t, before, id)
	}
	require.Equal(t, 2, sel.Len())
	for _, id := range sel.IDs() {
		assert.NotContains(t, before, id)
		assert.Equal(t, document.ID(""), next.ParentOf(id))
	}

	// Roots appended on top, in copied paint order, children remapped.
	order := next.RootOrder()
	assert.Equal(t, sel.IDs(), order[len(order)-2:])
	group := sel.IDs()[0]
	require.Len(t, next.Children(group), 2)
	for _, c := range next.Children(group) {
		assert.NotContains(t, before, c)
		assert.Equal(t, group, next.ParentOf(c))
	}
}

func TestPasteOffsetsEveryNode(t *testing.T) {
	d := fixture(t)
	p := Copy(d, selection.Select(d, []document.ID{"group_4"}))
	next, sel, err := Paste(d, p, 20, typeid.NewSequence(100))
	require.NoError(t, err)

	src := d.BoundingBox("group_4")
	dst := next.BoundingBox(sel.IDs()[0])
	assert.Equal(t, src.X+20, dst.X)
	assert.Equal(t, src.Y+20, dst.Y)
	assert.Equal(t, src.Width, dst.Width)
}

func TestPasteEmptyPayloadIsNoop(t *testing.T) {
	d := fixture(t)
	next, sel, err := Paste(d, Copy(d, selection.Selection{}), DefaultOffset, typeid.NewSequence(1))
	require.NoError(t, err)
	assert.True(t, next.Equal(d))
	assert.True(t, sel.IsEmpty())
}

func TestDuplicate(t *testing.T) {
	d := fixture(t)
	next, sel, err := Duplicate(d, selection.Select(d, []document.ID{"shape_3"}), DefaultOffset, typeid.Random{})
	require.NoError(t, err)
	require.True(t, sel.IsSingle())

	dup, err := next.Resolve(sel.IDs()[0])
	require.NoError(t, err)
	orig, _ := d.Get("shape_3")
	assert.Equal(t, orig.Transform().X+DefaultOffset, dup.Transform().X)
	assert.True(t, orig.Properties().Equal(dup.Properties()))
	assert.NoError(t, typeid.Validate(string(dup.ID()), typeid.PrefixShape))
}

func TestPayloadJSONRoundTrip(t *testing.T) {
	d := fixture(t)
	p := Copy(d, selection.Select(d, []document.ID{"group_4"}))

	data, err := p.Marshal()
	require.NoError(t, err)
	back, err := UnmarshalPayload(data)
	require.NoError(t, err)

	assert.Equal(t, p.ID, back.ID)
	assert.Equal(t, p.Roots, back.Roots)
	require.Len(t, back.Shapes, len(p.Shapes))
	for i := range p.Shapes {
		assert.True(t, p.Shapes[i].Equal(back.Shapes[i]))
	}

	_, err = UnmarshalPayload([]byte(`{"roots":["x"],"shapes":[]}`))
	require.ErrorIs(t, err, persist.ErrCorrupt)
}
