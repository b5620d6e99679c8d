// Package ui is the Bubble Tea home view: sectioned items, source
// popovers, feedback, the hidden section and the in-app reader.
package ui

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	zone "github.com/lrstanley/bubblezone"

	"github.com/jarv/justread/internal/config"
	"github.com/jarv/justread/internal/home"
	"github.com/jarv/justread/internal/logging"
	"github.com/jarv/justread/internal/tasks"
	"github.com/jarv/justread/internal/themes"
	"github.com/jarv/justread/internal/version"
)

const globalHelp string = "?: help"

type ViewState int

const (
	HomeView ViewState = iota
	ReaderView
	HelpView
)

// Options wires the view to its collaborators. Only Service is required.
type Options struct {
	Service home.Service
	Config  config.Config
	// Tasks, when set, drives the refresh indicator and reloads the home
	// feed once background refreshes finish.
	Tasks tasks.Manager
	// Refresh queues a refresh of all subscriptions.
	Refresh     func() error
	OpenBrowser func(string) error
	// WebURL is the base URL reader paths resolve against when an item
	// opens in the browser. Empty means items open at their own URL.
	WebURL     string
	HTTPClient *http.Client
	Now        func() time.Time
}

type focusTarget struct {
	section int
	index   int
}

type Model struct {
	service     home.Service
	taskManager tasks.Manager
	refresh     func() error
	openBrowser func(string) error
	webURL      string
	now         func() time.Time
	config      config.Config

	styles   styles
	renderer *glamour.TermRenderer
	zones    *zone.Manager
	spinner  spinner.Model
	feedback feedbackView
	icons    *siteIcons
	toasts   *toasts

	state         ViewState
	previousState ViewState
	sections      []home.Section
	loaded        bool
	loading       bool
	pagers        map[int]*paginator.Model
	hidden        map[int]*hiddenSection
	hiddenMounts  int
	layouts       []home.Layout
	popover       popover
	focus         focusTarget
	hasFocus      bool
	reader        reader
	width         int
	height        int
	err           error
	refreshing    bool
	refreshStatus string
}

func NewModel(opts Options) Model {
	cfg := opts.Config
	theme := themes.GetThemeByName(cfg.ThemeName)
	s := newStyles(theme, cfg.HighlightStyle)

	sp := spinner.New(spinner.WithSpinner(themes.GetSpinner(cfg.SpinnerType)))
	sp.Style = s.ActiveDot

	m := Model{
		service:     opts.Service,
		taskManager: opts.Tasks,
		refresh:     opts.Refresh,
		openBrowser: opts.OpenBrowser,
		webURL:      opts.WebURL,
		now:         opts.Now,
		config:      cfg,
		styles:      s,
		renderer:    newGlamourRenderer(theme.GlamourStyle, 80),
		zones:       zone.New(),
		spinner:     sp,
		icons:       newSiteIcons(opts.HTTPClient),
		toasts:      newToasts(time.Duration(cfg.ToastSeconds) * time.Second),
		state:       HomeView,
		loading:     true,
		pagers:      make(map[int]*paginator.Model),
		hidden:      make(map[int]*hiddenSection),
	}
	m.feedback = feedbackView{zones: m.zones}
	if m.openBrowser == nil {
		m.openBrowser = OpenBrowser
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		loadHome(m.service),
		tea.WindowSize(),
		m.spinner.Tick,
	}
	if m.taskManager != nil {
		cmds = append(cmds, listenForTaskEvents(m.taskManager))
	}
	return tea.Batch(cmds...)
}

// busy reports whether anything on screen is waiting and needs the spinner.
func (m Model) busy() bool {
	if m.loading || m.refreshing || m.popover.subLoading {
		return true
	}
	for _, h := range m.hidden {
		if h.loading() {
			return true
		}
	}
	return false
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.renderer = newGlamourRenderer(themes.GetThemeByName(m.config.ThemeName).GlamourStyle, m.width-4)
		if m.state == ReaderView && m.reader.article != nil {
			offset := m.reader.viewport.YOffset
			m.openReader(ArticleLoadedMsg{Target: m.reader.target, Article: m.reader.article})
			m.reader.viewport.SetYOffset(offset)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.MouseMsg:
		if m.state != HomeView || m.err != nil {
			if m.state == ReaderView {
				var cmd tea.Cmd
				m.reader.viewport, cmd = m.reader.viewport.Update(msg)
				return m, cmd
			}
			return m, nil
		}
		return m.handleMouse(msg)

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case HomeLoadedMsg:
		m.loading = false
		m.loaded = true
		m.err = nil
		m.sections = msg.Sections
		m.syncSectionState()
		m.ensureFocus()
		if m.popover.open && m.itemAt(m.popover.section, m.popover.index) == nil {
			m.popover.close()
		}
		return m, m.requestIcons()

	case ErrorMsg:
		m.loading = false
		if m.loaded {
			return m, m.toasts.ShowErrorToast("Could not reload home feed")
		}
		m.err = msg.Err
		return m, nil

	case HiddenLoadedMsg:
		h, ok := m.hidden[msg.Section]
		if !ok || !h.resolve(msg) {
			return m, nil
		}
		m.ensureFocus()
		if msg.Result != nil {
			return m, m.requestIconsFor(msg.Result.Items)
		}
		return m, nil

	case SubscriptionLoadedMsg:
		if m.popover.resolve(msg) && msg.Subscription != nil {
			return m, m.icons.request(msg.Subscription.Icon)
		}
		return m, nil

	case FeedbackSentMsg:
		if msg.OK && msg.Err == nil {
			return m, m.toasts.ShowSuccessToast(msgFeedbackSent)
		}
		return m, m.toasts.ShowErrorToast(msgFeedbackError)

	case ArticleLoadedMsg:
		if msg.Err != nil || msg.Article == nil {
			text := "Could not open item"
			if errors.Is(msg.Err, home.ErrNotFound) {
				text = "Item not found"
			}
			return m, m.toasts.ShowErrorToast(text)
		}
		m.popover.close()
		m.openReader(msg)
		return m, nil

	case IconLoadedMsg:
		m.icons.resolve(msg)
		return m, nil

	case ToastExpiredMsg:
		m.toasts.expire(msg.ID)
		return m, nil

	case LinkOpenedMsg:
		if msg.Err != nil {
			return m, m.toasts.ShowErrorToast("Could not open browser")
		}
		return m, nil

	case RefreshQueuedMsg:
		if msg.Err != nil {
			return m, m.toasts.ShowErrorToast("Refresh failed: " + msg.Err.Error())
		}
		m.refreshing = true
		return m, m.spinner.Tick

	case TaskEventMsg:
		return m.handleTaskEvent(msg.Event)
	}

	return m, nil
}

func (m Model) handleTaskEvent(event tasks.TaskEvent) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{listenForTaskEvents(m.taskManager)}

	wasRefreshing := m.refreshing
	m.refreshing = event.Pending > 0
	if m.refreshing {
		m.refreshStatus = fmt.Sprintf("refreshing (%d left)", event.Pending)
		if !wasRefreshing {
			cmds = append(cmds, m.spinner.Tick)
		}
	} else {
		m.refreshStatus = ""
	}

	if event.Type == tasks.TaskEventFailed {
		logging.Warn("Background task failed", "type", event.TaskType, "error", event.Error)
	}
	if event.Type != tasks.TaskEventStarted && event.Pending == 0 {
		cmds = append(cmds, loadHome(m.service))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) reload() (Model, tea.Cmd) {
	m.loading = true
	m.err = nil
	return m, tea.Batch(loadHome(m.service), m.spinner.Tick)
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.ForceQuit) {
		return m, quitApp(m.taskManager)
	}

	if m.err != nil {
		switch {
		case key.Matches(msg, keys.Reload):
			return m.reload()
		case key.Matches(msg, keys.Quit), key.Matches(msg, keys.Back):
			return m, quitApp(m.taskManager)
		}
		return m, nil
	}

	switch m.state {
	case ReaderView:
		if key.Matches(msg, keys.Help) {
			m.previousState = m.state
			m.state = HelpView
			return m, nil
		}
		return m.handleReaderKeys(msg)
	case HelpView:
		if key.Matches(msg, keys.Quit) || key.Matches(msg, keys.Back) || key.Matches(msg, keys.Help) {
			m.state = m.previousState
		}
		return m, nil
	default:
		return m.handleHomeKeys(msg)
	}
}

func (m Model) handleHomeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Help):
		m.previousState = m.state
		m.state = HelpView
		return m, nil

	case key.Matches(msg, keys.Back):
		m.popover.close()
		return m, nil

	case key.Matches(msg, keys.Quit):
		if m.popover.open {
			m.popover.close()
			return m, nil
		}
		return m, quitApp(m.taskManager)

	case key.Matches(msg, keys.Down):
		m.moveFocus(1)
	case key.Matches(msg, keys.Up):
		m.moveFocus(-1)
	case key.Matches(msg, keys.NextSect):
		m.moveSection(1)
	case key.Matches(msg, keys.PrevSect):
		m.moveSection(-1)
	case key.Matches(msg, keys.NextPage):
		m.turnPage(m.focus.section, 1)
	case key.Matches(msg, keys.PrevPage):
		m.turnPage(m.focus.section, -1)

	case key.Matches(msg, keys.Open):
		if !m.hasFocus {
			return m, nil
		}
		if m.focus.index == hiddenHeaderIndex {
			return m, m.toggleHidden(m.focus.section)
		}
		return m, m.activate(m.focus.section, m.focus.index, home.Modifiers{})

	case key.Matches(msg, keys.OpenNew):
		if !m.hasFocus || m.focus.index == hiddenHeaderIndex {
			return m, nil
		}
		return m, m.activate(m.focus.section, m.focus.index, home.Modifiers{Meta: true})

	case key.Matches(msg, keys.Toggle):
		if m.hasFocus && m.sectionLayout(m.focus.section) == home.LayoutHidden {
			return m, m.toggleHidden(m.focus.section)
		}

	case key.Matches(msg, keys.Source):
		if !m.hasFocus {
			return m, nil
		}
		return m, m.togglePopover(m.focus.section, m.focus.index)

	case key.Matches(msg, keys.More):
		return m, m.submitFeedback(home.FeedbackMore)
	case key.Matches(msg, keys.Less):
		return m, m.submitFeedback(home.FeedbackLess)

	case key.Matches(msg, keys.Reload):
		return m.reload()

	case key.Matches(msg, keys.Refresh):
		if m.refresh == nil {
			return m, m.toasts.ShowErrorToast("Refresh is not available for this backend")
		}
		return m, queueRefresh(m.refresh)
	}

	return m, nil
}

// handleMouse resolves the zone under the pointer. Hovering a source
// opens its popover; a left press is a click.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Action == tea.MouseActionMotion:
		for _, id := range m.zoneIDs() {
			if !strings.HasPrefix(id, "source:") || !m.zones.Get(id).InBounds(msg) {
				continue
			}
			var si, i int
			if _, err := fmt.Sscanf(id, "source:%d:%d", &si, &i); err == nil && !m.popover.isFor(si, i) {
				return m, m.openPopover(si, i)
			}
			return m, nil
		}
		return m, nil

	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		mods := home.Modifiers{Meta: msg.Alt, Ctrl: msg.Ctrl, Shift: msg.Shift}
		for _, id := range m.zoneIDs() {
			if m.zones.Get(id).InBounds(msg) {
				return m.handleClick(id, mods)
			}
		}
		return m, nil

	case msg.Button == tea.MouseButtonWheelDown:
		m.moveFocus(1)
	case msg.Button == tea.MouseButtonWheelUp:
		m.moveFocus(-1)
	}
	return m, nil
}

// zoneIDs lists the clickable zones innermost first, so a click is handled
// by exactly one of them.
func (m Model) zoneIDs() []string {
	var ids []string
	if m.popover.open {
		ids = append(ids, zoneFeedbackMore, zoneFeedbackLess, zoneUnsubscribe)
	}
	for si := range m.sections {
		ids = append(ids, hiddenZoneID(si), pageZoneID(si, "prev"), pageZoneID(si, "next"))
		for _, i := range m.visibleIndexes(si) {
			if i != hiddenHeaderIndex {
				ids = append(ids, sourceZoneID(si, i))
			}
		}
	}
	for si := range m.sections {
		for _, i := range m.visibleIndexes(si) {
			if i != hiddenHeaderIndex {
				ids = append(ids, itemZoneID(si, i))
			}
		}
	}
	return ids
}

// handleClick routes a click on zone id. Feedback and popover controls
// consume the click; only item zones navigate.
func (m Model) handleClick(id string, mods home.Modifiers) (tea.Model, tea.Cmd) {
	if t, ok := m.feedback.typeForZone(id); ok {
		return m, m.submitFeedback(t)
	}
	if id == zoneUnsubscribe {
		return m, nil
	}

	var si, i int
	var dir string
	switch {
	case strings.HasPrefix(id, "page:"):
		if _, err := fmt.Sscanf(id, "page:%d:%s", &si, &dir); err == nil {
			if dir == "next" {
				m.turnPage(si, 1)
			} else {
				m.turnPage(si, -1)
			}
		}
		return m, nil
	case strings.HasPrefix(id, "hidden:"):
		if _, err := fmt.Sscanf(id, "hidden:%d", &si); err == nil {
			m.setFocus(si, hiddenHeaderIndex)
			return m, m.toggleHidden(si)
		}
	case strings.HasPrefix(id, "source:"):
		if _, err := fmt.Sscanf(id, "source:%d:%d", &si, &i); err == nil {
			m.setFocus(si, i)
			return m, m.togglePopover(si, i)
		}
	case strings.HasPrefix(id, "item:"):
		if _, err := fmt.Sscanf(id, "item:%d:%d", &si, &i); err == nil {
			m.setFocus(si, i)
			return m, m.activate(si, i, mods)
		}
	}
	return m, nil
}

// itemAt returns the item behind a focus position, looking into the
// mounted hidden view for hidden sections.
func (m Model) itemAt(si, i int) *home.Item {
	if si < 0 || si >= len(m.sections) || i < 0 {
		return nil
	}
	items := m.sections[si].Items
	if m.sections[si].Layout == home.LayoutHidden {
		items = m.hidden[si].items()
	}
	if i >= len(items) {
		return nil
	}
	return &items[i]
}

// cmdNavigator collects the command for one activation.
type cmdNavigator struct {
	m        *Model
	fallback string
	cmd      tea.Cmd
}

func (n *cmdNavigator) Push(target string) {
	n.cmd = readItem(n.m.service, target)
}

func (n *cmdNavigator) OpenNewContext(target string) {
	target = home.ExternalTarget(n.m.webURL, target, n.fallback)
	if target == "" {
		n.cmd = n.m.toasts.ShowErrorToast("Nothing to open")
		return
	}
	n.cmd = openLink(n.m.openBrowser, target)
}

func (m *Model) activate(si, i int, mods home.Modifiers) tea.Cmd {
	item := m.itemAt(si, i)
	if item == nil {
		return nil
	}
	layout := m.sections[si].Layout
	if layout == home.LayoutHidden {
		layout = home.LayoutQuickLinks
	}
	target := home.ItemTarget(layout, *item)
	if target == "" || target == home.MePathPrefix {
		return m.toasts.ShowErrorToast("Nothing to open")
	}
	nav := &cmdNavigator{m: m, fallback: item.URL}
	home.Activate(nav, target, mods)
	return nav.cmd
}

func (m *Model) toggleHidden(si int) tea.Cmd {
	h, ok := m.hidden[si]
	if !ok {
		return nil
	}
	if m.popover.open && m.popover.section == si {
		m.popover.close()
	}
	generation := 0
	if !h.expanded {
		m.hiddenMounts++
		generation = m.hiddenMounts
	}
	cmd := h.toggle(m.service, si, generation)
	if cmd == nil {
		m.ensureFocus()
		return nil
	}
	return tea.Batch(cmd, m.spinner.Tick)
}

func (m *Model) openPopover(si, i int) tea.Cmd {
	item := m.itemAt(si, i)
	if item == nil {
		return nil
	}
	cmds := []tea.Cmd{m.popover.show(m.service, si, i, item.Source), m.icons.request(item.Source.Icon)}
	if m.popover.subLoading {
		cmds = append(cmds, m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

func (m *Model) togglePopover(si, i int) tea.Cmd {
	if m.popover.isFor(si, i) {
		m.popover.close()
		return nil
	}
	return m.openPopover(si, i)
}

// submitFeedback sends feedback for the open popover. A subscription
// popover without a subscription reports an error without sending.
func (m *Model) submitFeedback(t home.FeedbackType) tea.Cmd {
	if !m.popover.open || m.popover.kind() == popoverNone {
		return nil
	}
	input, ok := m.popover.feedbackInput(t)
	if !ok {
		return m.toasts.ShowErrorToast(msgFeedbackError)
	}
	return sendFeedback(m.service, input)
}

func (m *Model) requestIconsFor(items []home.Item) tea.Cmd {
	var cmds []tea.Cmd
	for _, item := range items {
		if cmd := m.icons.request(item.Source.Icon); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return tea.Batch(cmds...)
}

func (m *Model) requestIcons() tea.Cmd {
	var cmds []tea.Cmd
	for _, section := range m.sections {
		cmds = append(cmds, m.requestIconsFor(section.Items))
	}
	return tea.Batch(cmds...)
}

func (m Model) View() string {
	var out string
	switch {
	case m.state == HelpView:
		out = m.renderHelpView()
	case m.err != nil:
		out = fmt.Sprintf("Error: %v\n\nPress r to retry, q to quit", m.err)
	case m.state == ReaderView:
		out = m.renderReader()
	default:
		out = m.renderHome()
	}
	return m.zones.Scan(out)
}

func (m Model) renderHeader() string {
	title := "JustRead " + version.GetVersion()
	if m.refreshing {
		title += " - " + m.spinner.View() + " " + m.refreshStatus
	}
	return m.styles.Title.Width(m.width).Render(title)
}

func (m Model) renderToasts() []string {
	lines := make([]string, 0, len(m.toasts.items))
	for _, t := range m.toasts.items {
		if t.kind == toastSuccess {
			lines = append(lines, m.styles.Success.Render("✓ "+t.message))
		} else {
			lines = append(lines, m.styles.Failure.Render("✗ "+t.message))
		}
	}
	return lines
}

func (m Model) renderHome() string {
	var content []string
	focusStart, focusEnd := -1, -1

	switch {
	case !m.loaded:
		content = []string{"", m.spinner.View() + " Loading..."}
	case len(m.sections) == 0:
		content = []string{"", m.styles.Muted.Render("Nothing here yet.")}
	default:
		for si := range m.sections {
			for _, b := range m.renderSection(si) {
				lines := strings.Split(b.text, "\n")
				if m.hasFocus && b.section == m.focus.section && b.index == m.focus.index {
					focusStart = len(content)
					focusEnd = len(content) + len(lines) - 1
				}
				content = append(content, lines...)
			}
		}
	}

	footer := m.renderToasts()
	footer = append(footer, m.styles.Muted.Render(globalHelp+" | "+FormatStatusBar(GetViewKeys(m.state).StatusBar)))

	available := m.height - 1 - len(footer)
	if available < 1 {
		available = 1
	}
	offset := 0
	if focusEnd >= available {
		offset = focusEnd - available + 1
		if focusStart < offset {
			offset = focusStart
		}
	}
	if offset > 0 && offset < len(content) {
		content = content[offset:]
	}
	if len(content) > available {
		content = content[:available]
	}
	for len(content) < available {
		content = append(content, "")
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(strings.Join(content, "\n"))
	b.WriteString("\n")
	b.WriteString(strings.Join(footer, "\n"))
	return b.String()
}

func (m Model) renderHelpView() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Width(m.width).Render("JustRead help"))
	b.WriteString("\n")

	write := func(title string, bindings []key.Binding) {
		b.WriteString("\n")
		b.WriteString(m.styles.SectionTitle.UnsetMarginTop().Render(title))
		b.WriteString("\n")
		for _, binding := range bindings {
			h := binding.Help()
			b.WriteString(fmt.Sprintf("  %-14s %s\n", h.Key, h.Desc))
		}
	}
	write("Global", globalBindings)
	write("Home", GetViewKeys(HomeView).Help)
	write("Reader", GetViewKeys(ReaderView).Help)
	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render("Clicking a source opens its details; ctrl or alt click opens items in the browser."))
	b.WriteString("\n\n")
	b.WriteString(m.styles.Muted.Render(FormatStatusBar(GetViewKeys(m.state).StatusBar)))
	return b.String()
}
