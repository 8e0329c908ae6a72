package export

import (
	"bytes"
	"context"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mydraft/mydraft/backend-go/internal/editor"
	"github.com/mydraft/mydraft/backend-go/internal/persist"
	"github.com/mydraft/mydraft/backend-go/internal/session"
	"github.com/mydraft/mydraft/backend-go/internal/storage"
)

func setup(t *testing.T) (*mux.Router, string) {
	t.Helper()
	mgr := session.NewManager(storage.NewMemory(), editor.Options{}, nil, nil)
	v, err := mgr.Create(context.Background(), session.CreateRequest{Sample: true})
	require.NoError(t, err)

	h := NewHandler(mgr)
	r := mux.NewRouter()
	r.HandleFunc("/sessions/{id}/diagram.{format}", h.Diagram)
	r.HandleFunc("/sessions/{id}/thumbnail.png", h.Thumbnail)
	return r, v.SessionID
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestFormats(t *testing.T) {
	r, id := setup(t)

	rec := get(r, "/sessions/"+id+"/diagram.svg")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")

	rec = get(r, "/sessions/"+id+"/diagram.json")
	require.Equal(t, http.StatusOK, rec.Code)
	d, err := persist.Unmarshal(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Positive(t, d.Len())

	rec = get(r, "/sessions/"+id+"/diagram.yaml")
	require.Equal(t, http.StatusOK, rec.Code)
	back, err := persist.UnmarshalYAML(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, d.Len(), back.Len())

	rec = get(r, "/sessions/"+id+"/diagram.gif")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPNGSizes(t *testing.T) {
	r, id := setup(t)

	rec := get(r, "/sessions/"+id+"/thumbnail.png")
	require.Equal(t, http.StatusOK, rec.Code)
	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())

	rec = get(r, "/sessions/"+id+"/diagram.png?size=64")
	require.Equal(t, http.StatusOK, rec.Code)
	img, err = png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())

	for _, bad := range []string{"0", "-3", "big", "99999"} {
		rec = get(r, "/sessions/"+id+"/diagram.png?size="+bad)
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
}

func TestDownloadName(t *testing.T) {
	r, id := setup(t)
	rec := get(r, "/sessions/"+id+"/diagram.svg?download=1&name=my%20login/page")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="my-login-page.svg"`, rec.Header().Get("Content-Disposition"))
}

func TestUnknownSession(t *testing.T) {
	r, _ := setup(t)
	rec := get(r, "/sessions/session_nope/diagram.svg")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
