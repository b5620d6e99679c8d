// Package home holds the home feed domain types shared by the backends and the TUI.
package home

import (
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned by backends when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Page sizes of the paginated section layouts.
const (
	TopPicksPerPage   = 4
	QuickLinksPerPage = 8
)

// Layout is the rendering tag of a home section.
type Layout int

const (
	LayoutUnknown Layout = iota
	LayoutJustAdded
	LayoutTopPicks
	LayoutQuickLinks
	LayoutHidden
)

var layoutTags = map[Layout]string{
	LayoutJustAdded:  "just_added",
	LayoutTopPicks:   "top_picks",
	LayoutQuickLinks: "quick_links",
	LayoutHidden:     "hidden",
}

// ParseLayout maps a wire tag to a Layout. Unrecognized tags map to
// LayoutUnknown; it never fails.
func ParseLayout(tag string) Layout {
	for layout, t := range layoutTags {
		if t == tag {
			return layout
		}
	}
	return LayoutUnknown
}

func (l Layout) String() string {
	if t, ok := layoutTags[l]; ok {
		return t
	}
	return "unknown"
}

// PerPage returns the page size for paginated layouts and 0 otherwise.
func (l Layout) PerPage() int {
	switch l {
	case LayoutTopPicks:
		return TopPicksPerPage
	case LayoutQuickLinks:
		return QuickLinksPerPage
	default:
		return 0
	}
}

// Section is a titled group of home items.
type Section struct {
	Layout Layout
	// Tag is the raw layout tag as received, kept for unknown layouts.
	Tag   string
	Title string
	Items []Item
}

// NewSection builds a section from a raw layout tag.
func NewSection(tag, title string, items []Item) Section {
	return Section{
		Layout: ParseLayout(tag),
		Tag:    tag,
		Title:  title,
		Items:  items,
	}
}

// Item is one feed entry.
type Item struct {
	ID             string
	Title          string
	URL            string
	Date           time.Time
	Thumbnail      string
	PreviewContent string
	Slug           string
	Source         Source
}

// SourceType is the kind of origin of an item.
type SourceType string

const (
	SourceLibrary    SourceType = "LIBRARY"
	SourceNewsletter SourceType = "NEWSLETTER"
	SourceRSS        SourceType = "RSS"
)

// ParseSourceType normalizes a wire value. Unknown values are preserved as-is.
func ParseSourceType(s string) SourceType {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LIBRARY":
		return SourceLibrary
	case "NEWSLETTER":
		return SourceNewsletter
	case "RSS":
		return SourceRSS
	default:
		return SourceType(s)
	}
}

// IsSubscription reports whether sources of this type are backed by a subscription.
func (t SourceType) IsSubscription() bool {
	return t == SourceNewsletter || t == SourceRSS
}

// Source is the origin of an item.
type Source struct {
	Type SourceType
	ID   string
	Name string
	Icon string
}

// SubscriptionStatus is the state of a subscription.
type SubscriptionStatus string

const (
	SubscriptionActive       SubscriptionStatus = "ACTIVE"
	SubscriptionUnsubscribed SubscriptionStatus = "UNSUBSCRIBED"
)

// Subscription is a newsletter or feed the user follows.
type Subscription struct {
	ID          string
	Name        string
	Status      SubscriptionStatus
	Description string
	Type        SourceType
	URL         string
	Icon        string
}

// IsActive reports whether the subscription can be unsubscribed from.
func (s *Subscription) IsActive() bool {
	return s != nil && s.Status == SubscriptionActive
}

// Article is the content shown by the reader view.
type Article struct {
	Title   string
	URL     string
	Author  string
	Content string // HTML
	Date    time.Time
}
