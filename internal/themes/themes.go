// Package themes holds the colour palettes, highlight styles and spinners
// the home view can be configured with.
package themes

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Name         string
	GlamourStyle string
	// Section headers and the active page dot.
	Accent   lipgloss.Color
	AccentFg lipgloss.Color
	Selected lipgloss.Color
	Muted    lipgloss.Color
	Border   lipgloss.Color
	Success  lipgloss.Color
	Failure  lipgloss.Color
}

var AvailableThemes = []Theme{
	{
		Name:         "dark",
		GlamourStyle: "dark",
		Accent:       "62",
		AccentFg:     "231",
		Selected:     "170",
		Muted:        "243",
		Border:       "#555555",
		Success:      "42",
		Failure:      "196",
	},
	{
		Name:         "light",
		GlamourStyle: "light",
		Accent:       "12",
		AccentFg:     "0",
		Selected:     "75",
		Muted:        "245",
		Border:       "#999999",
		Success:      "28",
		Failure:      "160",
	},
	{
		Name:         "dracula",
		GlamourStyle: "dracula",
		Accent:       "141",
		AccentFg:     "231",
		Selected:     "212",
		Muted:        "#6272a4",
		Border:       "#6272a4",
		Success:      "#50fa7b",
		Failure:      "#ff5555",
	},
	{
		Name:         "pink",
		GlamourStyle: "pink",
		Accent:       "200",
		AccentFg:     "0",
		Selected:     "205",
		Muted:        "#cc99cc",
		Border:       "#cc99cc",
		Success:      "120",
		Failure:      "203",
	},
	{
		Name:         "ascii",
		GlamourStyle: "ascii",
		Accent:       "7",
		AccentFg:     "0",
		Selected:     "7",
		Muted:        "8",
		Border:       "#808080",
		Success:      "7",
		Failure:      "7",
	},
}

// GetThemeByName falls back to the first (dark) theme for unknown names.
func GetThemeByName(name string) *Theme {
	for i := range AvailableThemes {
		if AvailableThemes[i].Name == name {
			return &AvailableThemes[i]
		}
	}
	return &AvailableThemes[0]
}

func GetThemeNames() []string {
	names := make([]string, len(AvailableThemes))
	for i, theme := range AvailableThemes {
		names[i] = theme.Name
	}
	return names
}

// Highlight styles for the focused item.
const (
	HighlightBackground      = "background"
	HighlightUnderline       = "underline"
	HighlightPrefix          = "prefix"
	HighlightPrefixUnderline = "prefix-underline"
)

func GetHighlightStyles() []string {
	return []string{
		HighlightBackground,
		HighlightUnderline,
		HighlightPrefix,
		HighlightPrefixUnderline,
	}
}

var spinners = map[string]spinner.Spinner{
	"braille":  {Frames: []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}, FPS: time.Second / 10},
	"dots":     spinner.Dot,
	"line":     spinner.Line,
	"arrow":    {Frames: []string{"←", "↖", "↑", "↗", "→", "↘", "↓", "↙"}, FPS: time.Second / 8},
	"star":     {Frames: []string{"✶", "✸", "✹", "✺", "✹", "✸"}, FPS: time.Second / 8},
	"circle":   {Frames: []string{"◐", "◓", "◑", "◒"}, FPS: time.Second / 6},
	"square":   {Frames: []string{"◰", "◳", "◲", "◱"}, FPS: time.Second / 6},
	"triangle": {Frames: []string{"◢", "◣", "◤", "◥"}, FPS: time.Second / 6},
	"pulse":    spinner.Pulse,
}

func GetSpinnerTypes() []string {
	return []string{"braille", "dots", "line", "arrow", "star", "circle", "square", "triangle", "pulse"}
}

// GetSpinner returns the spinner for spinnerType, or braille if unknown.
func GetSpinner(spinnerType string) spinner.Spinner {
	if s, ok := spinners[spinnerType]; ok {
		return s
	}
	return spinners["braille"]
}
