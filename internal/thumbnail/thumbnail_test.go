package thumbnail

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mydraft/mydraft/backend-go/internal/geom"
	"github.com/mydraft/mydraft/backend-go/internal/persist"
	"github.com/mydraft/mydraft/backend-go/internal/renderer"
	"github.com/mydraft/mydraft/backend-go/internal/typeid"
)

func TestFit(t *testing.T) {
	assert.Equal(t, 1.0, Fit(geom.Rect{Width: 10, Height: 10}, 256))
	assert.Equal(t, 0.5, Fit(geom.Rect{Width: 480, Height: 100}, 256))
	assert.Equal(t, 1.0, Fit(geom.Rect{}, 256))
}

func TestWritePNG(t *testing.T) {
	d := persist.NewSampleDiagram(typeid.NewSequence(1))

	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, renderer.Default(), d, 128))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 128, img.Bounds().Dx())
	assert.Equal(t, 128, img.Bounds().Dy())
}
