package uistate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReducer(t *testing.T) {
	s := Initial()
	assert.Equal(t, TabShapes, s.SelectedTab)

	s, err := s.SelectTab(TabIcons)
	require.NoError(t, err)
	assert.Equal(t, TabIcons, s.SelectedTab)

	_, err = s.SelectTab("layers")
	require.Error(t, err)

	s = s.ToggleLeftSidebar().ToggleRightSidebar().ToggleRightSidebar()
	assert.False(t, s.ShowLeftSidebar)
	assert.True(t, s.ShowRightSidebar)
}
