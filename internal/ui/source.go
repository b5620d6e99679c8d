package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"github.com/jarv/justread/internal/home"
)

const (
	zoneFeedbackMore = "feedback:more"
	zoneFeedbackLess = "feedback:less"
	zoneUnsubscribe  = "popover:unsubscribe"
)

type popoverKind int

const (
	popoverNone popoverKind = iota
	popoverSite
	popoverSubscription
)

func popoverKindFor(t home.SourceType) popoverKind {
	switch t {
	case home.SourceLibrary:
		return popoverSite
	case home.SourceNewsletter, home.SourceRSS:
		return popoverSubscription
	default:
		return popoverNone
	}
}

// popover shows the source details of one item. The subscription lookup
// is tagged with the generation of the opening that fired it.
type popover struct {
	open       bool
	generation int
	section    int
	index      int
	source     home.Source

	subLoading   bool
	subscription *home.Subscription
}

func (p *popover) kind() popoverKind {
	return popoverKindFor(p.source.Type)
}

func (p *popover) isFor(section, index int) bool {
	return p.open && p.section == section && p.index == index
}

func (p *popover) show(service home.Service, section, index int, source home.Source) tea.Cmd {
	p.open = true
	p.generation++
	p.section = section
	p.index = index
	p.source = source
	p.subscription = nil
	p.subLoading = false

	if p.kind() != popoverSubscription {
		return nil
	}
	p.subLoading = true
	return loadSubscription(service, source.ID, p.generation)
}

func (p *popover) close() {
	p.open = false
	p.subLoading = false
	p.subscription = nil
}

func (p *popover) resolve(msg SubscriptionLoadedMsg) bool {
	if !p.open || msg.Generation != p.generation {
		return false
	}
	p.subLoading = false
	p.subscription = msg.Subscription
	return true
}

// feedbackInput builds the mutation input. ok is false when the popover
// has nothing to send feedback about.
func (p *popover) feedbackInput(t home.FeedbackType) (home.FeedbackInput, bool) {
	switch p.kind() {
	case popoverSite:
		return home.FeedbackInput{FeedbackType: t, Site: p.source.Name}, true
	case popoverSubscription:
		if p.subscription == nil {
			return home.FeedbackInput{}, false
		}
		return home.FeedbackInput{FeedbackType: t, Subscription: p.subscription.Name}, true
	default:
		return home.FeedbackInput{}, false
	}
}

// feedbackView is the thumbs up/down pair. Clicks on it are consumed and
// never reach the item underneath.
type feedbackView struct {
	zones *zone.Manager
}

func (f feedbackView) render(s styles) string {
	more := f.zones.Mark(zoneFeedbackMore, s.Button.Render("[👍 more]"))
	less := f.zones.Mark(zoneFeedbackLess, s.Button.Render("[👎 less]"))
	return more + " " + less
}

func (f feedbackView) typeForZone(id string) (home.FeedbackType, bool) {
	switch id {
	case zoneFeedbackMore:
		return home.FeedbackMore, true
	case zoneFeedbackLess:
		return home.FeedbackLess, true
	default:
		return "", false
	}
}

func sourceZoneID(section, index int) string {
	return fmt.Sprintf("source:%d:%d", section, index)
}

// renderSourceInfo is the popover trigger: icon plus underlined name.
func (m Model) renderSourceInfo(section, index int, source home.Source) string {
	label := m.icons.render(source.Icon, home.IconSmall) + m.styles.Source.Render(source.Name)
	return m.zones.Mark(sourceZoneID(section, index), label)
}

func (m Model) renderPopover() string {
	p := m.popover
	var body []string
	switch p.kind() {
	case popoverSite:
		body = append(body,
			m.icons.render(p.source.Icon, home.IconLarge)+m.styles.ItemTitle.Render(p.source.Name),
			m.styles.Muted.Render("Saved from this site"),
			m.feedback.render(m.styles),
		)
	case popoverSubscription:
		body = append(body, m.icons.render(p.source.Icon, home.IconLarge)+m.styles.ItemTitle.Render(p.source.Name))
		switch {
		case p.subLoading:
			body = append(body, m.styles.Muted.Render(msgHiddenLoading))
		case p.subscription != nil:
			if p.subscription.Description != "" {
				body = append(body, m.styles.Muted.Render(p.subscription.Description))
			}
			if p.subscription.IsActive() {
				body = append(body, m.zones.Mark(zoneUnsubscribe, m.styles.Button.Render("[ Unsubscribe ]")))
			}
		}
		body = append(body, m.feedback.render(m.styles))
	default:
		// Unknown source types open an empty popover.
		return ""
	}

	width := m.width - 6
	if width > 60 {
		width = 60
	}
	if width < 20 {
		width = 20
	}
	return m.styles.Popover.Width(width).Render(strings.Join(body, "\n"))
}
