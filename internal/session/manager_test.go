package session

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mydraft/mydraft/backend-go/internal/editor"
	"github.com/mydraft/mydraft/backend-go/internal/metrics"
	"github.com/mydraft/mydraft/backend-go/internal/persist"
	"github.com/mydraft/mydraft/backend-go/internal/storage"
	"github.com/mydraft/mydraft/backend-go/internal/typeid"
)

func newManager(t *testing.T) (*Manager, *storage.Memory, *metrics.Metrics) {
	t.Helper()
	store := storage.NewMemory()
	m := metrics.New()
	return NewManager(store, editor.Options{IDs: typeid.NewSequence(1)}, m, nil), store, m
}

func TestCreateSeedsSnapshot(t *testing.T) {
	mgr, store, _ := newManager(t)
	ctx := context.Background()

	v, err := mgr.Create(ctx, CreateRequest{Sample: true})
	require.NoError(t, err)
	require.NoError(t, typeid.Validate(v.SessionID, typeid.PrefixSession))
	assert.False(t, v.Dirty)
	assert.Equal(t, int32(1), v.SavedVersion)
	assert.NotEmpty(t, v.Diagram.Shapes)

	snap, err := store.Latest(ctx, v.SessionID)
	require.NoError(t, err)
	assert.Equal(t, int32(1), snap.Version)
}

func TestDispatchMarksDirtyAndSaves(t *testing.T) {
	mgr, _, m := newManager(t)
	ctx := context.Background()
	v, err := mgr.Create(ctx, CreateRequest{})
	require.NoError(t, err)

	v, err = mgr.Dispatch(ctx, v.SessionID,
		editor.AddShape{Type: "rectangle"}, editor.AddShape{Type: "teapot"}, editor.SelectAll{}, editor.SelectTab{Key: "layers"})
	require.NoError(t, err)
	assert.True(t, v.Dirty)
	assert.Len(t, v.Diagram.Shapes, 1)
	assert.Len(t, v.Selection, 1)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Intents.WithLabelValues(editor.KindAddShape)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IntentsAbsorbed.WithLabelValues(editor.KindAddShape)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.IntentsAbsorbed.WithLabelValues(editor.KindSelectAll)))

	snap, err := mgr.Save(ctx, v.SessionID)
	require.NoError(t, err)
	assert.Equal(t, int32(2), snap.Version)

	v, err = mgr.View(ctx, v.SessionID)
	require.NoError(t, err)
	assert.False(t, v.Dirty)
	assert.Equal(t, int32(2), v.SavedVersion)
}

func TestUnknownSession(t *testing.T) {
	mgr, _, _ := newManager(t)
	ctx := context.Background()

	_, err := mgr.View(ctx, "not-a-session")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = mgr.View(ctx, typeid.NewSessionID())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReopenFromStorage(t *testing.T) {
	mgr, store, _ := newManager(t)
	ctx := context.Background()
	v, err := mgr.Create(ctx, CreateRequest{})
	require.NoError(t, err)
	_, err = mgr.Dispatch(ctx, v.SessionID, editor.AddShape{Type: "ellipse"})
	require.NoError(t, err)
	_, err = mgr.Save(ctx, v.SessionID)
	require.NoError(t, err)

	// A second manager over the same storage sees the saved diagram.
	other := NewManager(store, editor.Options{}, metrics.New(), nil)
	back, err := other.View(ctx, v.SessionID)
	require.NoError(t, err)
	assert.Len(t, back.Diagram.Shapes, 1)
	assert.Equal(t, int32(2), back.SavedVersion)
	assert.False(t, back.CanUndo)
}

func TestCreateFromSession(t *testing.T) {
	mgr, _, _ := newManager(t)
	ctx := context.Background()
	src, err := mgr.Create(ctx, CreateRequest{Sample: true})
	require.NoError(t, err)

	copyView, err := mgr.Create(ctx, CreateRequest{FromSession: src.SessionID, FromVersion: 1})
	require.NoError(t, err)
	assert.NotEqual(t, src.SessionID, copyView.SessionID)
	assert.Equal(t, src.Diagram, copyView.Diagram)

	_, err = mgr.Create(ctx, CreateRequest{FromSession: src.SessionID, FromVersion: 9})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateFromDocument(t *testing.T) {
	mgr, _, _ := newManager(t)
	ctx := context.Background()

	data, err := persist.Marshal(persist.NewSampleDiagram(typeid.NewSequence(50)))
	require.NoError(t, err)
	v, err := mgr.Create(ctx, CreateRequest{Document: data})
	require.NoError(t, err)
	assert.Contains(t, v.Diagram.Shapes, "shape_50")

	_, err = mgr.Create(ctx, CreateRequest{Document: []byte(`{"version":1,"order":["x"],"shapes":{}}`)})
	require.ErrorIs(t, err, ErrInvalid)
	require.ErrorIs(t, err, persist.ErrCorrupt)
}

func TestTransactIsOneStep(t *testing.T) {
	mgr, _, _ := newManager(t)
	ctx := context.Background()
	v, err := mgr.Create(ctx, CreateRequest{})
	require.NoError(t, err)
	id := v.SessionID

	v, err = mgr.Transact(ctx, id, "Build form",
		editor.AddShape{Type: "label"},
		editor.AddShape{Type: "textbox", Y: 40},
		editor.SelectAll{},
		editor.Group{},
	)
	require.NoError(t, err)
	assert.Len(t, v.Diagram.Shapes, 3)
	assert.Equal(t, "Build form", v.UndoLabel)
	assert.Equal(t, editor.Idle, v.Mode)

	v, err = mgr.Dispatch(ctx, id, editor.Undo{})
	require.NoError(t, err)
	assert.Empty(t, v.Diagram.Shapes)
}

func TestLoadRejectsCorrupt(t *testing.T) {
	mgr, _, _ := newManager(t)
	ctx := context.Background()
	v, err := mgr.Create(ctx, CreateRequest{Sample: true})
	require.NoError(t, err)

	after, err := mgr.Load(ctx, v.SessionID, []byte(`{"version":1,"order":["x"],"shapes":{}}`))
	require.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, v.Diagram, after.Diagram)
}

func TestSaveDirtyAndStop(t *testing.T) {
	mgr, store, m := newManager(t)
	ctx := context.Background()
	a, err := mgr.Create(ctx, CreateRequest{})
	require.NoError(t, err)
	b, err := mgr.Create(ctx, CreateRequest{})
	require.NoError(t, err)

	_, err = mgr.Dispatch(ctx, a.SessionID, editor.AddShape{Type: "rectangle"})
	require.NoError(t, err)
	assert.Equal(t, 1, mgr.SaveDirty(ctx))
	assert.Equal(t, 0, mgr.SaveDirty(ctx))

	_, err = mgr.Dispatch(ctx, b.SessionID, editor.AddShape{Type: "rectangle"})
	require.NoError(t, err)
	mgr.Stop(ctx)

	snaps, err := store.List(ctx, b.SessionID)
	require.NoError(t, err)
	assert.Len(t, snaps, 2)
	assert.Equal(t, 4.0, testutil.ToFloat64(m.SnapshotsSaved))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SessionsActive))
}

func TestRunAutosaves(t *testing.T) {
	mgr, store, _ := newManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	v, err := mgr.Create(ctx, CreateRequest{})
	require.NoError(t, err)
	_, err = mgr.Dispatch(ctx, v.SessionID, editor.AddShape{Type: "rectangle"})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		mgr.Run(ctx, 5*time.Millisecond)
		close(done)
	}()
	require.Eventually(t, func() bool {
		snap, err := store.Latest(context.Background(), v.SessionID)
		return err == nil && snap.Version == 2
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestSubscribe(t *testing.T) {
	mgr, _, _ := newManager(t)
	ctx := context.Background()
	v, err := mgr.Create(ctx, CreateRequest{})
	require.NoError(t, err)

	var got []uint64
	unsubscribe := mgr.Subscribe(v.SessionID, func(v View) { got = append(got, v.Revision) })
	_, err = mgr.Dispatch(ctx, v.SessionID, editor.AddShape{Type: "rectangle"})
	require.NoError(t, err)
	unsubscribe()
	_, err = mgr.Dispatch(ctx, v.SessionID, editor.AddShape{Type: "rectangle"})
	require.NoError(t, err)

	assert.Equal(t, []uint64{1}, got)
}

func TestUnknownIntentIsInvalid(t *testing.T) {
	mgr, _, _ := newManager(t)
	ctx := context.Background()
	v, err := mgr.Create(ctx, CreateRequest{})
	require.NoError(t, err)

	_, err = mgr.Dispatch(ctx, v.SessionID, unknownIntent{})
	require.ErrorIs(t, err, ErrInvalid)
	require.ErrorIs(t, err, editor.ErrUnknownIntent)
}

type unknownIntent struct{}

func (unknownIntent) Kind() string { return "unknown" }
