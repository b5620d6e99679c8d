package home

import "strings"

// MePathPrefix prefixes in-app reader paths addressed by slug.
const MePathPrefix = "/me/"

// Navigator performs navigation on behalf of item views.
type Navigator interface {
	// Push navigates in-app.
	Push(target string)
	// OpenNewContext opens the target outside the app (a browser tab).
	OpenNewContext(target string)
}

// Modifiers is the modifier key state of an activation (click or key press).
type Modifiers struct {
	Meta  bool
	Ctrl  bool
	Shift bool
}

// OpensNewContext reports whether the activation should leave the app.
// Only meta and ctrl count; shift is ignored.
func (m Modifiers) OpensNewContext() bool {
	return m.Meta || m.Ctrl
}

// ItemTarget returns the navigation target of an item rendered with layout.
// Top picks navigate to the reader path of their slug; everything else to
// the item URL.
func ItemTarget(layout Layout, item Item) string {
	if layout == LayoutTopPicks {
		return SlugPath(item.Slug)
	}
	return item.URL
}

// SlugPath builds the in-app reader path for a slug.
func SlugPath(slug string) string {
	return MePathPrefix + slug
}

// SlugFromTarget extracts the slug from a reader path.
func SlugFromTarget(target string) (string, bool) {
	if !strings.HasPrefix(target, MePathPrefix) {
		return "", false
	}
	slug := strings.TrimPrefix(target, MePathPrefix)
	return slug, slug != ""
}

// ExternalTarget resolves target for a new browsing context. Reader paths
// are joined onto webBase; without a web base the item URL in fallback is
// used. Other targets are returned unchanged.
func ExternalTarget(webBase, target, fallback string) string {
	if _, ok := SlugFromTarget(target); !ok {
		return target
	}
	if webBase == "" {
		return fallback
	}
	return strings.TrimRight(webBase, "/") + target
}

// Activate routes an activation of target to exactly one navigator method.
func Activate(nav Navigator, target string, mods Modifiers) {
	if mods.OpensNewContext() {
		nav.OpenNewContext(target)
		return
	}
	nav.Push(target)
}
