package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jarv/justread/internal/config"
	"github.com/jarv/justread/internal/home"
)

var testNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

type fakeService struct {
	mu           sync.Mutex
	sections     []home.Section
	hidden       *home.Section
	hiddenErr    error
	subscription *home.Subscription
	feedbackOK   bool
	feedbackErr  error
	article      *home.Article

	feedback []home.FeedbackInput
	reads    []string
	subLooks []string
}

func (f *fakeService) GetHomeItems(ctx context.Context) ([]home.Section, error) {
	return f.sections, nil
}

func (f *fakeService) GetHiddenHomeSection(ctx context.Context) (*home.Section, error) {
	return f.hidden, f.hiddenErr
}

func (f *fakeService) GetSubscription(ctx context.Context, sourceID string) (*home.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subLooks = append(f.subLooks, sourceID)
	return f.subscription, nil
}

func (f *fakeService) GetSubscriptions(ctx context.Context) ([]home.Subscription, error) {
	return nil, nil
}

func (f *fakeService) SendHomeFeedback(ctx context.Context, input home.FeedbackInput) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feedback = append(f.feedback, input)
	return f.feedbackOK, f.feedbackErr
}

func (f *fakeService) ReadItem(ctx context.Context, target string) (*home.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads = append(f.reads, target)
	if f.article == nil {
		return nil, home.ErrNotFound
	}
	return f.article, nil
}

type recordingOpener struct {
	opened []string
}

func (r *recordingOpener) open(url string) error {
	r.opened = append(r.opened, url)
	return nil
}

func newTestModel(t *testing.T, svc *fakeService) (Model, *recordingOpener) {
	t.Helper()
	opener := &recordingOpener{}
	m := NewModel(Options{
		Service:     svc,
		Config:      config.GetDefaultConfig(),
		OpenBrowser: opener.open,
		Now:         func() time.Time { return testNow },
	})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 200})
	m = updated.(Model)
	updated, _ = m.Update(HomeLoadedMsg{Sections: svc.sections})
	return updated.(Model), opener
}

// run executes cmd and any batched commands, returning the messages.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			msgs = append(msgs, run(c)...)
		}
		return msgs
	}
	return []tea.Msg{msg}
}

func find[T tea.Msg](msgs []tea.Msg) (T, bool) {
	for _, msg := range msgs {
		if v, ok := msg.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func makeItems(prefix string, n int, source home.Source) []home.Item {
	items := make([]home.Item, n)
	for i := range items {
		id := prefix + "-" + string(rune('a'+i))
		items[i] = home.Item{
			ID:     id,
			Title:  "Title " + id,
			URL:    "https://example.com/" + id,
			Slug:   id,
			Date:   testNow.Add(-time.Duration(i+1) * time.Hour),
			Source: source,
		}
	}
	return items
}

var (
	siteSource = home.Source{Type: home.SourceLibrary, ID: "example.com", Name: "Example"}
	subSource  = home.Source{Type: home.SourceNewsletter, ID: "sub-1", Name: "Daily"}
	oddSource  = home.Source{Type: "PODCAST", ID: "p", Name: "Pod"}
)

func standardSections() []home.Section {
	return []home.Section{
		home.NewSection("just_added", "Just Added", makeItems("ja", 1, subSource)),
		home.NewSection("top_picks", "Top Picks", makeItems("tp", 9, siteSource)),
		home.NewSection("quick_links", "Quick Links", makeItems("ql", 10, siteSource)),
		home.NewSection("carousel", "Mystery Layout", makeItems("mx", 2, siteSource)),
		home.NewSection("hidden", "Hidden", nil),
	}
}

func TestDispatchPerLayout(t *testing.T) {
	svc := &fakeService{sections: standardSections()}
	m, _ := newTestModel(t, svc)

	view := m.View()
	for _, want := range []string{"Just Added", "Top Picks", "Quick Links", "▸ Hidden"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if strings.Contains(view, "Mystery Layout") || strings.Contains(view, "Title mx-a") {
		t.Error("unknown layout should render nothing")
	}
	if blocks := m.renderSection(3); blocks != nil {
		t.Errorf("unknown layout rendered %d blocks", len(blocks))
	}

	// Top picks carry the static action row, quick links do not.
	if !strings.Contains(view, "✎ Comment") {
		t.Error("top picks action row missing")
	}
}

func TestPaginationBounds(t *testing.T) {
	tests := []struct {
		name      string
		layout    string
		items     int
		wantPages int
		wantFirst int
		wantLast  int
	}{
		{"top picks partial page", "top_picks", 9, 3, 4, 1},
		{"top picks exact", "top_picks", 8, 2, 4, 4},
		{"quick links", "quick_links", 10, 2, 8, 2},
		{"quick links single", "quick_links", 3, 1, 3, 3},
		{"empty", "quick_links", 0, 1, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{sections: []home.Section{
				home.NewSection(tt.layout, "Section", makeItems("x", tt.items, siteSource)),
			}}
			m, _ := newTestModel(t, svc)

			if _, total := m.pageOf(0); total != tt.wantPages {
				t.Fatalf("pages = %d, want %d", total, tt.wantPages)
			}
			if got := len(m.visibleIndexes(0)); got != tt.wantFirst {
				t.Errorf("first page shows %d items, want %d", got, tt.wantFirst)
			}
			for i := 0; i < tt.wantPages; i++ {
				m.turnPage(0, 1)
			}
			if page, _ := m.pageOf(0); page != tt.wantPages-1 {
				t.Errorf("page after paging past the end = %d", page)
			}
			if got := len(m.visibleIndexes(0)); got != tt.wantLast {
				t.Errorf("last page shows %d items, want %d", got, tt.wantLast)
			}
			if perPage := home.ParseLayout(tt.layout).PerPage(); len(m.visibleIndexes(0)) > perPage {
				t.Errorf("page exceeds %d items", perPage)
			}
		})
	}
}

func TestPageSurvivesReloadAndClamps(t *testing.T) {
	svc := &fakeService{sections: []home.Section{
		home.NewSection("quick_links", "Quick Links", makeItems("q", 20, siteSource)),
	}}
	m, _ := newTestModel(t, svc)

	m.turnPage(0, 1)
	m.turnPage(0, 1)
	if page, _ := m.pageOf(0); page != 2 {
		t.Fatalf("page = %d, want 2", page)
	}

	updated, _ := m.Update(HomeLoadedMsg{Sections: svc.sections})
	m = updated.(Model)
	if page, _ := m.pageOf(0); page != 2 {
		t.Errorf("reload reset page to %d", page)
	}

	shrunk := []home.Section{home.NewSection("quick_links", "Quick Links", makeItems("q", 10, siteSource))}
	updated, _ = m.Update(HomeLoadedMsg{Sections: shrunk})
	m = updated.(Model)
	if page, total := m.pageOf(0); page != 1 || total != 2 {
		t.Errorf("page %d of %d after shrink, want 1 of 2", page, total)
	}

	// A new model starts over.
	fresh, _ := newTestModel(t, svc)
	if page, _ := fresh.pageOf(0); page != 0 {
		t.Errorf("fresh model page = %d", page)
	}
}

func TestModifierNavigationIsExclusive(t *testing.T) {
	svc := &fakeService{sections: standardSections(), article: &home.Article{Title: "Read me"}}

	tests := []struct {
		name       string
		section    int
		mods       home.Modifiers
		wantRead   string
		wantOpened string
	}{
		{"plain just added", 0, home.Modifiers{}, "https://example.com/ja-a", ""},
		{"plain top pick", 1, home.Modifiers{}, "/me/tp-a", ""},
		{"ctrl quick link", 2, home.Modifiers{Ctrl: true}, "", "https://example.com/ql-a"},
		{"meta top pick", 1, home.Modifiers{Meta: true}, "", "https://example.com/tp-a"},
		{"shift is ignored", 2, home.Modifiers{Shift: true}, "https://example.com/ql-a", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc.reads = nil
			m, opener := newTestModel(t, svc)

			_, cmd := m.handleClick(itemZoneID(tt.section, 0), tt.mods)
			msgs := run(cmd)

			if tt.wantRead != "" {
				if len(svc.reads) != 1 || svc.reads[0] != tt.wantRead {
					t.Errorf("reads = %v, want [%s]", svc.reads, tt.wantRead)
				}
				if len(opener.opened) != 0 {
					t.Errorf("browser opened %v on in-app navigation", opener.opened)
				}
				if _, ok := find[ArticleLoadedMsg](msgs); !ok {
					t.Error("expected ArticleLoadedMsg")
				}
			} else {
				if len(opener.opened) != 1 || opener.opened[0] != tt.wantOpened {
					t.Errorf("opened = %v, want [%s]", opener.opened, tt.wantOpened)
				}
				if len(svc.reads) != 0 {
					t.Errorf("in-app navigation happened: %v", svc.reads)
				}
			}
		})
	}
}

// checkedOpener records only the URLs a real browser opener would accept.
type checkedOpener struct {
	opened []string
}

func (c *checkedOpener) open(url string) error {
	if err := checkBrowserURL(url); err != nil {
		return err
	}
	c.opened = append(c.opened, url)
	return nil
}

func TestNewContextOpensAbsoluteURLs(t *testing.T) {
	tests := []struct {
		name    string
		webURL  string
		section int
		want    string
	}{
		{"top pick on web base", "https://read.example", 1, "https://read.example/me/tp-a"},
		{"top pick without web base", "", 1, "https://example.com/tp-a"},
		{"quick link ignores web base", "https://read.example", 2, "https://example.com/ql-a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{sections: standardSections()}
			m, _ := newTestModel(t, svc)
			opener := &checkedOpener{}
			m.openBrowser = opener.open
			m.webURL = tt.webURL

			_, cmd := m.handleClick(itemZoneID(tt.section, 0), home.Modifiers{Ctrl: true})
			opened, ok := find[LinkOpenedMsg](run(cmd))
			if !ok {
				t.Fatal("expected LinkOpenedMsg")
			}
			if opened.Err != nil {
				t.Fatalf("open %q failed: %v", opened.URL, opened.Err)
			}
			if len(opener.opened) != 1 || opener.opened[0] != tt.want {
				t.Errorf("opened = %v, want [%s]", opener.opened, tt.want)
			}
			if len(svc.reads) != 0 {
				t.Errorf("in-app navigation happened: %v", svc.reads)
			}
		})
	}
}

func TestNewContextWithoutURLShowsToast(t *testing.T) {
	sections := standardSections()
	sections[1].Items[0].URL = ""
	svc := &fakeService{sections: sections}
	m, _ := newTestModel(t, svc)
	opener := &checkedOpener{}
	m.openBrowser = opener.open

	_, cmd := m.handleClick(itemZoneID(1, 0), home.Modifiers{Meta: true})
	if cmd == nil {
		t.Fatal("expected a toast command")
	}
	if m.toasts.count(toastError) != 1 || len(opener.opened) != 0 {
		t.Errorf("error toasts = %d, opened = %v", m.toasts.count(toastError), opener.opened)
	}
}

func TestCheckBrowserURL(t *testing.T) {
	for _, u := range []string{"https://example.com/a", "http://localhost:8080/me/x"} {
		if err := checkBrowserURL(u); err != nil {
			t.Errorf("checkBrowserURL(%q) = %v", u, err)
		}
	}
	for _, u := range []string{"/me/tp-a", "javascript:alert(1)", "file:///etc/passwd", "https://"} {
		if err := checkBrowserURL(u); err == nil {
			t.Errorf("checkBrowserURL(%q) accepted", u)
		}
	}
}

func TestFeedbackClickDoesNotNavigate(t *testing.T) {
	svc := &fakeService{sections: standardSections(), feedbackOK: true}
	m, opener := newTestModel(t, svc)

	// Quick link item 0 with a LIBRARY source.
	updated, cmd := m.handleClick(sourceZoneID(2, 0), home.Modifiers{})
	m = updated.(Model)
	run(cmd)
	if !m.popover.isFor(2, 0) {
		t.Fatal("clicking the source should open the popover")
	}
	if len(svc.reads) != 0 {
		t.Fatal("clicking the source navigated")
	}

	for _, id := range []string{zoneFeedbackMore, zoneFeedbackLess} {
		_, cmd = m.handleClick(id, home.Modifiers{Ctrl: true})
		run(cmd)
	}

	if len(svc.reads) != 0 || len(opener.opened) != 0 {
		t.Errorf("feedback click navigated: reads=%v opened=%v", svc.reads, opener.opened)
	}
	want := []home.FeedbackInput{
		{FeedbackType: home.FeedbackMore, Site: "Example"},
		{FeedbackType: home.FeedbackLess, Site: "Example"},
	}
	if len(svc.feedback) != 2 || svc.feedback[0] != want[0] || svc.feedback[1] != want[1] {
		t.Errorf("feedback = %+v, want %+v", svc.feedback, want)
	}
}

func TestPopoverContentPerSourceType(t *testing.T) {
	active := &home.Subscription{ID: "sub-1", Name: "Daily Digest", Status: home.SubscriptionActive, Description: "Every morning"}
	sections := []home.Section{
		home.NewSection("just_added", "Just Added", []home.Item{
			makeItems("site", 1, siteSource)[0],
			makeItems("sub", 1, subSource)[0],
			makeItems("odd", 1, oddSource)[0],
		}),
	}
	svc := &fakeService{sections: sections, subscription: active}
	m, _ := newTestModel(t, svc)

	// LIBRARY: site content, no lookup.
	cmd := m.openPopover(0, 0)
	run(cmd)
	body := m.renderPopover()
	if !strings.Contains(body, "more") || strings.Contains(body, "Unsubscribe") {
		t.Errorf("site popover body = %q", body)
	}
	if len(svc.subLooks) != 0 {
		t.Error("site popover looked up a subscription")
	}

	// NEWSLETTER: subscription content, looked up by source id.
	msgs := run(m.openPopover(0, 1))
	loaded, ok := find[SubscriptionLoadedMsg](msgs)
	if !ok {
		t.Fatal("subscription popover should fetch the subscription")
	}
	if len(svc.subLooks) != 1 || svc.subLooks[0] != "sub-1" {
		t.Errorf("lookups = %v", svc.subLooks)
	}
	updated, _ := m.Update(loaded)
	m = updated.(Model)
	body = m.renderPopover()
	if !strings.Contains(body, "Unsubscribe") || !strings.Contains(body, "Every morning") {
		t.Errorf("subscription popover body = %q", body)
	}

	// Unknown type: trigger renders, popover body is empty.
	if !strings.Contains(m.View(), "Pod") {
		t.Error("source trigger for unknown type should render")
	}
	run(m.openPopover(0, 2))
	if body := m.renderPopover(); body != "" {
		t.Errorf("unknown source popover = %q, want empty", body)
	}
	if cmd := m.submitFeedback(home.FeedbackMore); cmd != nil {
		t.Error("unknown source should not send feedback")
	}
}

func TestUnsubscribeHiddenWhenInactive(t *testing.T) {
	svc := &fakeService{
		sections:     []home.Section{home.NewSection("just_added", "Just Added", makeItems("s", 1, subSource))},
		subscription: &home.Subscription{Name: "Daily", Status: home.SubscriptionUnsubscribed},
	}
	m, _ := newTestModel(t, svc)
	loaded, _ := find[SubscriptionLoadedMsg](run(m.openPopover(0, 0)))
	updated, _ := m.Update(loaded)
	m = updated.(Model)

	if strings.Contains(m.renderPopover(), "Unsubscribe") {
		t.Error("unsubscribe shown for an inactive subscription")
	}
}

func TestFeedbackToasts(t *testing.T) {
	tests := []struct {
		name         string
		source       home.Source
		subscription *home.Subscription
		ok           bool
		err          error
		wantSent     int
		wantSuccess  int
		wantErrors   int
		wantFeedback home.FeedbackInput
	}{
		{
			name:         "subscription success",
			source:       subSource,
			subscription: &home.Subscription{Name: "Daily Digest", Status: home.SubscriptionActive},
			ok:           true,
			wantSent:     1,
			wantSuccess:  1,
			wantFeedback: home.FeedbackInput{FeedbackType: home.FeedbackMore, Subscription: "Daily Digest"},
		},
		{
			name:         "falsy result",
			source:       siteSource,
			ok:           false,
			wantSent:     1,
			wantErrors:   1,
			wantFeedback: home.FeedbackInput{FeedbackType: home.FeedbackMore, Site: "Example"},
		},
		{
			name:         "mutation error",
			source:       siteSource,
			ok:           true,
			err:          errors.New("boom"),
			wantSent:     1,
			wantErrors:   1,
			wantFeedback: home.FeedbackInput{FeedbackType: home.FeedbackMore, Site: "Example"},
		},
		{
			name:       "missing subscription",
			source:     subSource,
			ok:         true,
			wantSent:   0,
			wantErrors: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{
				sections:     []home.Section{home.NewSection("just_added", "Just Added", makeItems("f", 1, tt.source))},
				subscription: tt.subscription,
				feedbackOK:   tt.ok,
				feedbackErr:  tt.err,
			}
			m, _ := newTestModel(t, svc)

			for _, msg := range run(m.openPopover(0, 0)) {
				if loaded, ok := msg.(SubscriptionLoadedMsg); ok {
					updated, _ := m.Update(loaded)
					m = updated.(Model)
				}
			}

			_, cmd := m.handleClick(zoneFeedbackMore, home.Modifiers{})
			if tt.wantSent > 0 {
				for _, msg := range run(cmd) {
					updated, _ := m.Update(msg)
					m = updated.(Model)
				}
			}

			if len(svc.feedback) != tt.wantSent {
				t.Fatalf("mutation calls = %d, want %d", len(svc.feedback), tt.wantSent)
			}
			if tt.wantSent > 0 && svc.feedback[0] != tt.wantFeedback {
				t.Errorf("feedback = %+v, want %+v", svc.feedback[0], tt.wantFeedback)
			}
			if got := m.toasts.count(toastSuccess); got != tt.wantSuccess {
				t.Errorf("success toasts = %d, want %d", got, tt.wantSuccess)
			}
			if got := m.toasts.count(toastError); got != tt.wantErrors {
				t.Errorf("error toasts = %d, want %d", got, tt.wantErrors)
			}
		})
	}
}

func TestJustAddedShowsTimeAgo(t *testing.T) {
	item := home.Item{
		ID:     "1",
		Title:  "Fresh post",
		URL:    "https://example.com/fresh",
		Date:   testNow.Add(-time.Hour),
		Source: siteSource,
	}
	svc := &fakeService{sections: []home.Section{home.NewSection("just_added", "Just Added", []home.Item{item})}}
	m, _ := newTestModel(t, svc)

	view := m.View()
	if !strings.Contains(view, "Fresh post") || !strings.Contains(view, "1 hour ago") {
		t.Errorf("view = %q", view)
	}
}

func TestHiddenSectionLifecycle(t *testing.T) {
	hiddenItems := home.NewSection("hidden", "Hidden", makeItems("h", 2, siteSource))
	svc := &fakeService{sections: standardSections(), hidden: &hiddenItems}
	m, _ := newTestModel(t, svc)
	const si = 4

	if cmd := m.toggleHidden(si); cmd == nil {
		t.Fatal("expanding should fetch")
	}
	if !strings.Contains(m.View(), msgHiddenLoading) {
		t.Error("expected loading state")
	}

	// Collapse and expand again: the first fetch is abandoned.
	m.toggleHidden(si)
	m.toggleHidden(si)
	updated, _ := m.Update(HiddenLoadedMsg{Section: si, Generation: 1, Result: &hiddenItems})
	m = updated.(Model)
	if m.hidden[si].view.state != hiddenStateLoading {
		t.Fatal("stale result was applied")
	}

	updated, _ = m.Update(HiddenLoadedMsg{Section: si, Generation: 2, Result: &hiddenItems})
	m = updated.(Model)
	if !strings.Contains(m.View(), "Title h-a") {
		t.Error("loaded hidden items not shown")
	}

	// Collapsed results are dropped too.
	m.toggleHidden(si)
	updated, _ = m.Update(HiddenLoadedMsg{Section: si, Generation: 2, Result: &hiddenItems})
	m = updated.(Model)
	if m.hidden[si].view != nil {
		t.Error("collapsed section remounted")
	}

	tests := []struct {
		name   string
		result *home.Section
		err    error
		want   string
	}{
		{"error", nil, errors.New("boom"), msgHiddenError},
		{"absent", nil, nil, msgHiddenEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mm := m
			mm.hidden = map[int]*hiddenSection{si: {}}
			mm.toggleHidden(si)
			gen := mm.hidden[si].view.generation
			updated, _ := mm.Update(HiddenLoadedMsg{Section: si, Generation: gen, Result: tt.result, Err: tt.err})
			if view := updated.(Model).View(); !strings.Contains(view, tt.want) {
				t.Errorf("view missing %q", tt.want)
			}
		})
	}
}

func TestHiddenStateSurvivesReload(t *testing.T) {
	hiddenItems := home.NewSection("hidden", "Hidden", makeItems("h", 1, siteSource))
	svc := &fakeService{sections: standardSections(), hidden: &hiddenItems}
	m, _ := newTestModel(t, svc)

	for _, msg := range run(m.toggleHidden(4)) {
		if loaded, ok := msg.(HiddenLoadedMsg); ok {
			updated, _ := m.Update(loaded)
			m = updated.(Model)
		}
	}
	updated, _ := m.Update(HomeLoadedMsg{Sections: standardSections()})
	m = updated.(Model)

	if !m.hidden[4].expanded || m.hidden[4].view.state != hiddenStateLoaded {
		t.Error("reload collapsed the hidden section")
	}
}

func TestErrorScreenAndRetry(t *testing.T) {
	svc := &fakeService{sections: standardSections()}
	m := NewModel(Options{Service: svc, Config: config.GetDefaultConfig()})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 200})
	m = updated.(Model)

	updated, _ = m.Update(ErrorMsg{Err: errors.New("server down")})
	m = updated.(Model)
	view := m.View()
	if !strings.Contains(view, "Error: server down") || !strings.Contains(view, "Press r to retry") {
		t.Errorf("view = %q", view)
	}

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	m = updated.(Model)
	if m.err != nil || cmd == nil {
		t.Fatal("r should clear the error and reload")
	}
	if _, ok := find[HomeLoadedMsg](run(cmd)); !ok {
		t.Error("retry did not reload the home feed")
	}
}

func TestReloadErrorKeepsLoadedPage(t *testing.T) {
	svc := &fakeService{sections: standardSections()}
	m, _ := newTestModel(t, svc)

	updated, cmd := m.Update(ErrorMsg{Err: errors.New("server down")})
	m = updated.(Model)
	if m.err != nil || cmd == nil {
		t.Fatalf("err = %v, cmd = %v", m.err, cmd)
	}
	if m.toasts.count(toastError) != 1 {
		t.Errorf("error toasts = %d, want 1", m.toasts.count(toastError))
	}
	view := m.View()
	if strings.Contains(view, "Error: server down") || !strings.Contains(view, "Top Picks") {
		t.Errorf("view = %q", view)
	}
}

func TestSectionStateResetsWhenLayoutChanges(t *testing.T) {
	hiddenItems := home.NewSection("hidden", "Hidden", makeItems("h", 1, siteSource))
	original := []home.Section{
		home.NewSection("quick_links", "Quick Links", makeItems("q", 20, siteSource)),
		home.NewSection("hidden", "Hidden", nil),
	}
	swapped := []home.Section{original[1], original[0]}
	svc := &fakeService{sections: original, hidden: &hiddenItems}
	m, _ := newTestModel(t, svc)

	m.turnPage(0, 1)
	var stale HiddenLoadedMsg
	for _, msg := range run(m.toggleHidden(1)) {
		if loaded, ok := msg.(HiddenLoadedMsg); ok {
			stale = loaded
			updated, _ := m.Update(loaded)
			m = updated.(Model)
		}
	}
	if page, _ := m.pageOf(0); page != 1 || !m.hidden[1].expanded {
		t.Fatalf("setup: page = %d, expanded = %v", page, m.hidden[1].expanded)
	}

	updated, _ := m.Update(HomeLoadedMsg{Sections: swapped})
	m = updated.(Model)
	if _, ok := m.pagers[0]; ok {
		t.Error("hidden position kept a pager")
	}
	if m.hidden[0].expanded {
		t.Error("new hidden position inherited expanded state")
	}
	if page, _ := m.pageOf(1); page != 0 {
		t.Errorf("new quick links position on page %d", page)
	}
	m.turnPage(0, 1)
	if _, ok := m.pagers[0]; ok {
		t.Error("turnPage created state for the hidden position")
	}

	updated, _ = m.Update(HomeLoadedMsg{Sections: original})
	m = updated.(Model)
	if m.hidden[1].expanded || m.hidden[1].view != nil {
		t.Error("hidden state survived a layout change at its position")
	}
	if page, _ := m.pageOf(0); page != 0 {
		t.Errorf("quick links came back on page %d", page)
	}

	m.toggleHidden(1)
	updated, _ = m.Update(stale)
	m = updated.(Model)
	if m.hidden[1].view.state != hiddenStateLoading {
		t.Error("result from the earlier mount was applied")
	}
}

func TestKeyboardFocusAndActivation(t *testing.T) {
	svc := &fakeService{sections: standardSections(), article: &home.Article{Title: "A", Content: "<p>x</p>"}}
	m, _ := newTestModel(t, svc)

	if !m.isFocused(0, 0) {
		t.Fatalf("initial focus = %+v", m.focus)
	}
	press := func(s string) tea.Cmd {
		var msg tea.KeyMsg
		switch s {
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "alt+enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter, Alt: true}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
		}
		updated, cmd := m.Update(msg)
		m = updated.(Model)
		return cmd
	}

	press("tab")
	if !m.isFocused(1, 0) {
		t.Fatalf("tab focus = %+v", m.focus)
	}
	press("j")
	if !m.isFocused(1, 1) {
		t.Fatalf("j focus = %+v", m.focus)
	}

	run(press("enter"))
	if len(svc.reads) != 1 || svc.reads[0] != "/me/tp-b" {
		t.Errorf("reads = %v", svc.reads)
	}

	msgs := run(press("alt+enter"))
	if opened, ok := find[LinkOpenedMsg](msgs); !ok || opened.URL != "https://example.com/tp-b" {
		t.Errorf("alt+enter msgs = %v", msgs)
	}
	if len(svc.reads) != 1 {
		t.Errorf("alt+enter navigated in-app: %v", svc.reads)
	}
}

func TestReaderOpensLinks(t *testing.T) {
	svc := &fakeService{sections: standardSections()}
	m, opener := newTestModel(t, svc)

	article := &home.Article{
		Title:   "Essay",
		URL:     "https://example.com/essay",
		Content: `<p>See <a href="https://go.dev">Go</a> and <a href="https://example.org">this</a>.</p>`,
	}
	updated, _ := m.Update(ArticleLoadedMsg{Target: "/me/essay", Article: article})
	m = updated.(Model)
	if m.state != ReaderView {
		t.Fatalf("state = %v", m.state)
	}
	if len(m.reader.links) != 2 {
		t.Fatalf("links = %v", m.reader.links)
	}
	if !strings.Contains(m.View(), "Essay") {
		t.Error("reader title missing")
	}

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'2'}})
	m = updated.(Model)
	run(cmd)
	updated, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'o'}})
	m = updated.(Model)
	run(cmd)
	want := []string{"https://example.org", "https://example.com/essay"}
	if len(opener.opened) != 2 || opener.opened[0] != want[0] || opener.opened[1] != want[1] {
		t.Errorf("opened = %v, want %v", opener.opened, want)
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if updated.(Model).state != HomeView {
		t.Error("esc should return home")
	}
}

func TestReaderKeysAndStatusBars(t *testing.T) {
	svc := &fakeService{sections: standardSections()}
	m, _ := newTestModel(t, svc)
	if !strings.Contains(m.View(), FormatStatusBar(HomeViewKeys.StatusBar)) {
		t.Error("home status bar missing")
	}

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	m = updated.(Model)
	article := &home.Article{Title: "Long", Content: strings.Repeat("<p>Lorem ipsum dolor sit amet.</p>", 60)}
	updated, _ = m.Update(ArticleLoadedMsg{Target: "/me/long", Article: article})
	m = updated.(Model)
	if !strings.Contains(m.View(), FormatStatusBar(ReaderViewKeys.StatusBar)) {
		t.Error("reader status bar missing")
	}

	tests := []struct {
		name     string
		msg      tea.KeyMsg
		scrolled bool
	}{
		{"half page down", tea.KeyMsg{Type: tea.KeyCtrlD}, true},
		{"half page up", tea.KeyMsg{Type: tea.KeyCtrlU}, false},
	}
	for _, tt := range tests {
		updated, _ = m.Update(tt.msg)
		m = updated.(Model)
		if got := m.reader.viewport.YOffset > 0; got != tt.scrolled {
			t.Errorf("%s: offset = %d", tt.name, m.reader.viewport.YOffset)
		}
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	m = updated.(Model)
	if m.state != HelpView || !strings.Contains(m.View(), FormatStatusBar(HelpViewKeys.StatusBar)) {
		t.Fatalf("state = %v, help status bar missing", m.state)
	}
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)
	if m.state != ReaderView {
		t.Fatalf("esc from help: state = %v", m.state)
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if updated.(Model).state != HomeView {
		t.Error("q should close the reader")
	}
}

func TestArticleErrorShowsToast(t *testing.T) {
	svc := &fakeService{sections: standardSections()}
	m, _ := newTestModel(t, svc)

	updated, _ := m.Update(ArticleLoadedMsg{Target: "/me/x", Err: home.ErrNotFound})
	m = updated.(Model)
	if m.state != HomeView || m.toasts.count(toastError) != 1 {
		t.Errorf("state = %v, error toasts = %d", m.state, m.toasts.count(toastError))
	}
}

func TestToastExpiry(t *testing.T) {
	ts := newToasts(time.Second)
	ts.ShowSuccessToast("one")
	ts.ShowErrorToast("two")
	if len(ts.items) != 2 {
		t.Fatalf("toasts = %d", len(ts.items))
	}
	ts.expire(ts.items[0].id)
	if len(ts.items) != 1 || ts.items[0].message != "two" {
		t.Errorf("remaining = %+v", ts.items)
	}
}
