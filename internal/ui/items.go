package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jarv/justread/internal/home"
)

// Labels of the top pick action row. The actions have no handlers.
var topPickActions = []string{"＋ Library", "✎ Comment", "↗ Share", "▣ Archive", "✕ Remove"}

func itemZoneID(section, index int) string {
	return fmt.Sprintf("item:%d:%d", section, index)
}

func renderTitle(title string, width int) string {
	if title == "" {
		title = "(untitled)"
	}
	if width > 1 {
		title = runewidth.Truncate(title, width, "…")
	}
	return title
}

func renderTimeAgo(date, now time.Time) string {
	return home.TimeAgo(date, now)
}

func (m Model) titleWidth() int {
	w := m.width - 4
	if w < 20 {
		w = 20
	}
	return w
}

func (m Model) renderByline(section, index int, item home.Item) string {
	parts := []string{m.renderSourceInfo(section, index, item.Source)}
	if ago := renderTimeAgo(item.Date, m.now()); ago != "" {
		parts = append(parts, m.styles.Muted.Render(ago))
	}
	return strings.Join(parts, m.styles.Muted.Render(" · "))
}

func (m Model) renderJustAddedItem(section, index int, item home.Item) string {
	selected := m.isFocused(section, index)
	lines := []string{
		m.styles.applyHighlight(m.styles.ItemTitle.Render(renderTitle(item.Title, m.titleWidth())), selected),
		"  " + m.renderByline(section, index, item),
	}
	return m.zones.Mark(itemZoneID(section, index), strings.Join(lines, "\n"))
}

func (m Model) renderTopPickItem(section, index int, item home.Item) string {
	selected := m.isFocused(section, index)
	lines := []string{
		m.styles.applyHighlight(m.styles.ItemTitle.Render(renderTitle(item.Title, m.titleWidth())), selected),
		"  " + m.renderByline(section, index, item),
	}
	if item.PreviewContent != "" {
		lines = append(lines, m.styles.Preview.Width(m.titleWidth()).Render(item.PreviewContent))
	}
	lines = append(lines, m.styles.Actions.Render(strings.Join(topPickActions, "   ")))
	return m.zones.Mark(itemZoneID(section, index), strings.Join(lines, "\n"))
}

func (m Model) renderQuickLinkItem(section, index int, item home.Item) string {
	selected := m.isFocused(section, index)
	byline := m.renderByline(section, index, item)
	title := renderTitle(item.Title, m.titleWidth()-lipgloss.Width(byline)-2)
	line := m.styles.applyHighlight(title, selected) + "  " + byline
	return m.zones.Mark(itemZoneID(section, index), line)
}
