package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jarv/justread/internal/home"
)

const (
	msgHiddenLoading = "Loading..."
	msgHiddenError   = "Error loading hidden section"
	msgHiddenEmpty   = "No hidden section data"
)

type hiddenState int

const (
	hiddenStateLoading hiddenState = iota
	hiddenStateError
	hiddenStateEmpty
	hiddenStateLoaded
)

// hiddenSectionView exists only while its section is expanded. Each
// expansion mounts a new view with a new generation and fetches again.
type hiddenSectionView struct {
	generation int
	state      hiddenState
	section    *home.Section
}

// hiddenSection is the collapsible header of a hidden layout.
type hiddenSection struct {
	expanded bool
	view     *hiddenSectionView
}

// toggle expands or collapses the section. Expanding mounts a view tagged
// with generation and returns its fetch.
func (h *hiddenSection) toggle(service home.Service, index, generation int) tea.Cmd {
	if h.expanded {
		h.expanded = false
		h.view = nil
		return nil
	}
	h.expanded = true
	h.view = &hiddenSectionView{generation: generation, state: hiddenStateLoading}
	return loadHiddenSection(service, index, generation)
}

// resolve applies a fetch result. Results for a view that has since been
// unmounted are dropped.
func (h *hiddenSection) resolve(msg HiddenLoadedMsg) bool {
	if h.view == nil || h.view.generation != msg.Generation {
		return false
	}
	switch {
	case msg.Err != nil:
		h.view.state = hiddenStateError
	case msg.Result == nil:
		h.view.state = hiddenStateEmpty
	default:
		h.view.state = hiddenStateLoaded
		h.view.section = msg.Result
	}
	return true
}

func (h *hiddenSection) loading() bool {
	return h.view != nil && h.view.state == hiddenStateLoading
}

// items are the focusable entries of a loaded view.
func (h *hiddenSection) items() []home.Item {
	if h.view == nil || h.view.state != hiddenStateLoaded {
		return nil
	}
	return h.view.section.Items
}
