package persist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mydraft/mydraft/backend-go/internal/document"
	"github.com/mydraft/mydraft/backend-go/internal/typeid"
)

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func TestJSONRoundTrip(t *testing.T) {
	d := NewSampleDiagram(typeid.NewSequence(1))
	require.NoError(t, d.Validate())

	data, err := Marshal(d)
	require.NoError(t, err)
	back, err := Unmarshal(data)
	require.NoError(t, err)

	assert.True(t, back.Equal(d))
	if diff := cmp.Diff(Encode(d), Encode(back)); diff != "" {
		t.Errorf("documents differ (-want +got):\n%s", diff)
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	d := NewSampleDiagram(typeid.NewSequence(1))

	data, err := MarshalYAML(d)
	require.NoError(t, err)
	back, err := UnmarshalYAML(data)
	require.NoError(t, err)
	assert.True(t, back.Equal(d))
}

func TestLoadFixture(t *testing.T) {
	d, err := UnmarshalYAML(fixture(t, "grouped.yaml"))
	require.NoError(t, err)

	assert.Equal(t, []document.ID{"shape_1", "group_4"}, d.RootOrder())
	assert.Equal(t, []document.ID{"shape_2", "shape_3"}, d.Children("group_4"))

	s, err := d.Resolve("shape_1")
	require.NoError(t, err)
	thickness, ok := s.Property("strokeThickness")
	require.True(t, ok)
	assert.Equal(t, document.Number(2), thickness)
	text, _ := s.Property("text")
	assert.Equal(t, document.Text("true"), text)

	b, _ := d.Get("shape_2")
	size, _ := b.Property("fontSize")
	assert.Equal(t, 14.5, size.Number)

	data, err := Marshal(d)
	require.NoError(t, err)
	back, err := Unmarshal(data)
	require.NoError(t, err)
	assert.True(t, back.Equal(d))
}

func TestCorruptInput(t *testing.T) {
	rect := func(id string, parent *string) ShapeRecord {
		return ShapeRecord{ID: id, Type: "rectangle", Transform: document.Transform{Width: 10, Height: 10}, Parent: parent}
	}
	ptr := func(s string) *string { return &s }

	cases := map[string]Document{
		"missing reference": {Version: 1, Order: []string{"a", "b"}, Shapes: map[string]ShapeRecord{"a": rect("a", nil)}},
		"duplicate in order": {Version: 1, Order: []string{"a", "a"}, Shapes: map[string]ShapeRecord{"a": rect("a", nil)}},
		"parent mismatch": {Version: 1, Order: []string{"a"}, Shapes: map[string]ShapeRecord{"a": rect("a", ptr("g"))}},
		"orphan": {Version: 1, Order: []string{"a"}, Shapes: map[string]ShapeRecord{"a": rect("a", nil), "b": rect("b", nil)}},
		"key mismatch": {Version: 1, Order: []string{"a"}, Shapes: map[string]ShapeRecord{"a": rect("z", nil)}},
		"unknown kind": {Version: 1, Order: []string{"a"}, Shapes: map[string]ShapeRecord{"a": {
			ID: "a", Type: "rectangle", Properties: []PropertyRecord{{Key: "k", Kind: "matrix", Value: 1.0}},
		}}},
		"kind mismatch": {Version: 1, Order: []string{"a"}, Shapes: map[string]ShapeRecord{"a": {
			ID: "a", Type: "rectangle", Properties: []PropertyRecord{{Key: "k", Kind: document.KindNumber, Value: "ten"}},
		}}},
		"bad color": {Version: 1, Order: []string{"a"}, Shapes: map[string]ShapeRecord{"a": {
			ID: "a", Type: "rectangle", Properties: []PropertyRecord{{Key: "k", Kind: document.KindColor, Value: `red" x="1`}},
		}}},
		"leaf with children": {Version: 1, Order: []string{"a"}, Shapes: map[string]ShapeRecord{"a": {
			ID: "a", Type: "rectangle", Children: []string{"b"},
		}}},
		"future version": {Version: Version + 1},
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(doc)
			require.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

func TestCycleFixtureIsCorrupt(t *testing.T) {
	_, err := UnmarshalYAML(fixture(t, "cycle.yaml"))
	require.ErrorIs(t, err, ErrCorrupt)
	require.ErrorIs(t, err, document.ErrCycleRejected)
}

func TestMalformedBytes(t *testing.T) {
	_, err := Unmarshal([]byte(`{"version": 1, "order": [`))
	require.ErrorIs(t, err, ErrCorrupt)

	_, err = UnmarshalYAML([]byte("version: [1"))
	require.ErrorIs(t, err, ErrCorrupt)

	_, err = Unmarshal([]byte(`{"version": 1, "order": [], "shapes": {}, "extra": true}`))
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestEmptyDiagramRoundTrip(t *testing.T) {
	data, err := Marshal(document.New())
	require.NoError(t, err)
	d, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, 0, d.Len())
}
