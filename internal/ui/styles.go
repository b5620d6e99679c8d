package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jarv/justread/internal/themes"
)

type styles struct {
	highlight string

	Title        lipgloss.Style
	SectionTitle lipgloss.Style
	ItemTitle    lipgloss.Style
	Selected     lipgloss.Style
	Source       lipgloss.Style
	Muted        lipgloss.Style
	Preview      lipgloss.Style
	Actions      lipgloss.Style
	Popover      lipgloss.Style
	Button       lipgloss.Style
	Success      lipgloss.Style
	Failure      lipgloss.Style
	ActiveDot    lipgloss.Style
}

func newStyles(theme *themes.Theme, highlight string) styles {
	s := styles{
		highlight:    highlight,
		Title:        lipgloss.NewStyle().Bold(true).Background(theme.Border).Foreground(theme.AccentFg),
		SectionTitle: lipgloss.NewStyle().Bold(true).Foreground(theme.Accent).MarginTop(1),
		ItemTitle:    lipgloss.NewStyle().Bold(true),
		Source:       lipgloss.NewStyle().Underline(true),
		Muted:        lipgloss.NewStyle().Foreground(theme.Muted),
		Preview:      lipgloss.NewStyle().Foreground(theme.Muted).PaddingLeft(2),
		Actions:      lipgloss.NewStyle().Foreground(theme.Muted).PaddingLeft(2),
		Popover: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Accent).
			Padding(0, 1),
		Button:    lipgloss.NewStyle().Foreground(theme.Accent).Bold(true),
		Success:   lipgloss.NewStyle().Foreground(theme.Success).Bold(true),
		Failure:   lipgloss.NewStyle().Foreground(theme.Failure).Bold(true),
		ActiveDot: lipgloss.NewStyle().Foreground(theme.Accent),
	}

	switch highlight {
	case themes.HighlightUnderline, themes.HighlightPrefixUnderline:
		s.Selected = lipgloss.NewStyle().Underline(true).Foreground(theme.Selected)
	case themes.HighlightPrefix:
		s.Selected = lipgloss.NewStyle().Foreground(theme.Selected)
	default:
		s.Selected = lipgloss.NewStyle().Background(theme.Selected).Foreground(lipgloss.Color("229"))
	}
	return s
}

func (s styles) usesPrefix() bool {
	return s.highlight == themes.HighlightPrefix || s.highlight == themes.HighlightPrefixUnderline
}

// applyHighlight marks the focused line with the configured highlight.
func (s styles) applyHighlight(line string, isSelected bool) string {
	if s.usesPrefix() {
		if isSelected {
			line = "> " + line
		} else {
			line = "  " + line
		}
	}
	if isSelected {
		return s.Selected.Render(line)
	}
	return line
}
