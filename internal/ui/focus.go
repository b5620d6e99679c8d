package ui

import "github.com/jarv/justread/internal/home"

// focusTargets lists every focusable position in render order.
func (m Model) focusTargets() []focusTarget {
	var targets []focusTarget
	for si := range m.sections {
		for _, i := range m.visibleIndexes(si) {
			targets = append(targets, focusTarget{section: si, index: i})
		}
	}
	return targets
}

func (m Model) isFocused(si, i int) bool {
	return m.hasFocus && m.focus.section == si && m.focus.index == i
}

func (m *Model) setFocus(si, i int) {
	m.focus = focusTarget{section: si, index: i}
	m.hasFocus = true
}

func (m Model) focusPosition(targets []focusTarget) int {
	for pos, t := range targets {
		if t == m.focus {
			return pos
		}
	}
	return -1
}

// ensureFocus keeps focus on a visible position after the layout changed,
// preferring the same section.
func (m *Model) ensureFocus() {
	targets := m.focusTargets()
	if len(targets) == 0 {
		m.hasFocus = false
		return
	}
	if m.hasFocus && m.focusPosition(targets) >= 0 {
		return
	}
	if m.hasFocus {
		var last *focusTarget
		for i := range targets {
			if targets[i].section == m.focus.section {
				if targets[i].index > m.focus.index && last != nil {
					break
				}
				last = &targets[i]
			}
		}
		if last != nil {
			m.focus = *last
			return
		}
	}
	m.focus = targets[0]
	m.hasFocus = true
}

func (m *Model) moveFocus(delta int) {
	targets := m.focusTargets()
	if len(targets) == 0 {
		return
	}
	pos := m.focusPosition(targets)
	if pos < 0 {
		m.ensureFocus()
		return
	}
	pos += delta
	if pos < 0 {
		pos = 0
	}
	if pos >= len(targets) {
		pos = len(targets) - 1
	}
	if targets[pos] != m.focus {
		m.popover.close()
	}
	m.focus = targets[pos]
}

// moveSection jumps to the first position of the next or previous section
// that has one.
func (m *Model) moveSection(delta int) {
	targets := m.focusTargets()
	if len(targets) == 0 {
		return
	}
	current := m.focus.section
	if delta > 0 {
		for _, t := range targets {
			if t.section > current {
				m.popover.close()
				m.focus = t
				return
			}
		}
		return
	}
	for i := len(targets) - 1; i >= 0; i-- {
		if targets[i].section < current {
			first := targets[i]
			for _, t := range targets {
				if t.section == first.section {
					first = t
					break
				}
			}
			m.popover.close()
			m.focus = first
			return
		}
	}
}

// turnPage moves a paginated section by one page and focuses its first
// item when the focus was in that section.
func (m *Model) turnPage(si, delta int) {
	if si < 0 || si >= len(m.sections) {
		return
	}
	p, ok := m.pagers[si]
	if !ok {
		return
	}
	before := p.Page
	if delta > 0 {
		p.NextPage()
	} else {
		p.PrevPage()
	}
	if p.Page == before {
		return
	}
	if m.popover.open && m.popover.section == si {
		m.popover.close()
	}
	if m.hasFocus && m.focus.section == si {
		if idx := m.visibleIndexes(si); len(idx) > 0 {
			m.focus = focusTarget{section: si, index: idx[0]}
		}
	}
}

// pageOf reports the current page of a paginated section.
func (m Model) pageOf(si int) (page, total int) {
	p, ok := m.pagers[si]
	if !ok {
		return 0, 0
	}
	return p.Page, p.TotalPages
}

func (m Model) sectionLayout(si int) home.Layout {
	if si < 0 || si >= len(m.sections) {
		return home.LayoutUnknown
	}
	return m.sections[si].Layout
}
