// Package uistate holds the editor chrome state that lives beside the diagram:
// the active sidebar tab and sidebar visibility. It is never recorded in
// history.
package uistate

import "fmt"

const (
	TabShapes = "shapes"
	TabIcons  = "icons"
)

type State struct {
	SelectedTab      string `json:"selectedTab"`
	ShowLeftSidebar  bool   `json:"showLeftSidebar"`
	ShowRightSidebar bool   `json:"showRightSidebar"`
}

// Initial is the state of a fresh editor.
func Initial() State {
	return State{SelectedTab: TabShapes, ShowLeftSidebar: true, ShowRightSidebar: true}
}

// SelectTab switches the left sidebar tab.
func (s State) SelectTab(key string) (State, error) {
	switch key {
	case TabShapes, TabIcons:
		s.SelectedTab = key
		return s, nil
	}
	return s, fmt.Errorf("unknown tab %q", key)
}

func (s State) ToggleLeftSidebar() State {
	s.ShowLeftSidebar = !s.ShowLeftSidebar
	return s
}

func (s State) ToggleRightSidebar() State {
	s.ShowRightSidebar = !s.ShowRightSidebar
	return s
}
