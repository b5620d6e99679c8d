package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/paginator"

	"github.com/jarv/justread/internal/home"
)

const hiddenHeaderIndex = -1

func hiddenZoneID(section int) string {
	return fmt.Sprintf("hidden:%d", section)
}

func pageZoneID(section int, dir string) string {
	return fmt.Sprintf("page:%d:%s", section, dir)
}

// newPager builds the paginator of a top picks or quick links section.
func newPager(perPage int, s styles) *paginator.Model {
	p := paginator.New(paginator.WithPerPage(perPage))
	p.Type = paginator.Dots
	p.ActiveDot = s.ActiveDot.Render("•")
	p.InactiveDot = s.Muted.Render("•")
	return &p
}

// syncPager fits a pager to a new item count. The current page is kept
// and only clamped when the list shrank below it.
func syncPager(p *paginator.Model, items int) {
	if items < 1 {
		p.TotalPages = 1
	} else {
		p.SetTotalPages(items)
	}
	if p.Page >= p.TotalPages {
		p.Page = p.TotalPages - 1
	}
	if p.Page < 0 {
		p.Page = 0
	}
}

// pageBounds returns the slice of items visible on the current page.
func pageBounds(p *paginator.Model, items int) (int, int) {
	return p.GetSliceBounds(items)
}

// syncSectionState attaches pagers and hidden headers to freshly loaded
// sections. State is keyed by section position and survives reloads while
// the layout at that position stays the same. A position whose layout
// changed, or that disappeared, starts over.
func (m *Model) syncSectionState() {
	for i, layout := range m.layouts {
		if i >= len(m.sections) || m.sections[i].Layout != layout {
			m.resetSectionState(i)
		}
	}

	m.layouts = make([]home.Layout, len(m.sections))
	for i, section := range m.sections {
		m.layouts[i] = section.Layout
		switch section.Layout {
		case home.LayoutTopPicks, home.LayoutQuickLinks:
			p, ok := m.pagers[i]
			if !ok {
				p = newPager(section.Layout.PerPage(), m.styles)
				m.pagers[i] = p
			}
			syncPager(p, len(section.Items))
		case home.LayoutHidden:
			if _, ok := m.hidden[i]; !ok {
				m.hidden[i] = &hiddenSection{}
			}
		}
	}
}

func (m *Model) resetSectionState(i int) {
	delete(m.pagers, i)
	delete(m.hidden, i)
	if m.popover.open && m.popover.section == i {
		m.popover.close()
	}
}

// visibleIndexes returns the item indexes a section currently shows.
func (m Model) visibleIndexes(si int) []int {
	section := m.sections[si]
	var start, end int
	switch section.Layout {
	case home.LayoutJustAdded:
		start, end = 0, len(section.Items)
	case home.LayoutTopPicks, home.LayoutQuickLinks:
		start, end = pageBounds(m.pagers[si], len(section.Items))
	case home.LayoutHidden:
		idx := []int{hiddenHeaderIndex}
		if h := m.hidden[si]; h != nil {
			for i := range h.items() {
				idx = append(idx, i)
			}
		}
		return idx
	default:
		return nil
	}
	idx := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		idx = append(idx, i)
	}
	return idx
}

// block is one rendered piece of the home view. index is the focus index
// it belongs to, or noFocus for headers and footers.
type block struct {
	section int
	index   int
	text    string
}

const noFocus = -2

// renderSection dispatches on the section layout.
func (m Model) renderSection(si int) []block {
	section := m.sections[si]
	switch section.Layout {
	case home.LayoutJustAdded:
		return m.justAddedSection(si, section)
	case home.LayoutTopPicks:
		return m.paginatedSection(si, section, m.renderTopPickItem)
	case home.LayoutQuickLinks:
		return m.paginatedSection(si, section, m.renderQuickLinkItem)
	case home.LayoutHidden:
		return m.hiddenSectionView(si, section)
	default:
		// Unknown layouts render nothing.
		return nil
	}
}

func (m Model) sectionHeader(si int, section home.Section) block {
	return block{section: si, index: noFocus, text: m.styles.SectionTitle.Render(section.Title)}
}

func (m Model) withPopover(si, i int, rendered string) string {
	if m.popover.isFor(si, i) {
		if body := m.renderPopover(); body != "" {
			return rendered + "\n" + body
		}
	}
	return rendered
}

func (m Model) justAddedSection(si int, section home.Section) []block {
	blocks := []block{m.sectionHeader(si, section)}
	for i, item := range section.Items {
		blocks = append(blocks, block{si, i, m.withPopover(si, i, m.renderJustAddedItem(si, i, item))})
	}
	return blocks
}

func (m Model) paginatedSection(si int, section home.Section, render func(int, int, home.Item) string) []block {
	blocks := []block{m.sectionHeader(si, section)}
	for _, i := range m.visibleIndexes(si) {
		blocks = append(blocks, block{si, i, m.withPopover(si, i, render(si, i, section.Items[i]))})
	}
	if p := m.pagers[si]; p.TotalPages > 1 {
		prev := m.zones.Mark(pageZoneID(si, "prev"), m.styles.Muted.Render("‹"))
		next := m.zones.Mark(pageZoneID(si, "next"), m.styles.Muted.Render("›"))
		footer := fmt.Sprintf("  %s %s %s %s", prev, p.View(), next,
			m.styles.Muted.Render(fmt.Sprintf("%d/%d", p.Page+1, p.TotalPages)))
		blocks = append(blocks, block{si, noFocus, footer})
	}
	return blocks
}

func (m Model) hiddenSectionView(si int, section home.Section) []block {
	h := m.hidden[si]
	arrow := "▸"
	if h.expanded {
		arrow = "▾"
	}
	title := section.Title
	if title == "" {
		title = "Hidden"
	}
	header := m.styles.SectionTitle.UnsetMarginTop().Render(arrow + " " + title)
	header = m.styles.applyHighlight(header, m.isFocused(si, hiddenHeaderIndex))
	blocks := []block{{si, hiddenHeaderIndex, "\n" + m.zones.Mark(hiddenZoneID(si), header)}}
	if h.view == nil {
		return blocks
	}

	status := func(text string) []block {
		return append(blocks, block{si, noFocus, "  " + text})
	}
	switch h.view.state {
	case hiddenStateLoading:
		return status(m.spinner.View() + " " + m.styles.Muted.Render(msgHiddenLoading))
	case hiddenStateError:
		return status(m.styles.Failure.Render(msgHiddenError))
	case hiddenStateEmpty:
		return status(m.styles.Muted.Render(msgHiddenEmpty))
	}

	items := h.view.section.Items
	if len(items) == 0 {
		return status(m.styles.Muted.Render("Nothing hidden"))
	}
	for i, item := range items {
		blocks = append(blocks, block{si, i, m.withPopover(si, i, m.renderQuickLinkItem(si, i, item))})
	}
	return blocks
}
