package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jarv/justread/internal/feeds"
	"github.com/jarv/justread/internal/home"
	"github.com/jarv/justread/internal/logging"
)

// reader is the in-app target of item navigation.
type reader struct {
	target   string
	article  *home.Article
	links    []string
	viewport viewport.Model
	ready    bool
}

func newGlamourRenderer(style string, width int) *glamour.TermRenderer {
	if width < 20 {
		width = 80
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		logging.Warn("Falling back to default markdown renderer", "style", style, "error", err)
		renderer, _ = glamour.NewTermRenderer()
	}
	return renderer
}

// renderArticle turns article HTML into numbered-link markdown rendered for
// the terminal.
func renderArticle(article *home.Article, renderer *glamour.TermRenderer, s styles) (string, []string) {
	content, links := feeds.AddLinkMarkersToHTML(article.Content)
	content = feeds.ConvertHTMLToMarkdown(content)
	if renderer != nil {
		if rendered, err := renderer.Render(content); err == nil {
			content = rendered
		}
	}

	var b strings.Builder
	if article.Author != "" {
		b.WriteString(s.Muted.Render(article.Author))
		b.WriteString("\n")
	}
	b.WriteString(content)
	if len(links) > 0 {
		b.WriteString("\n")
		b.WriteString(s.Muted.Render("Links:"))
		b.WriteString("\n")
		for i, link := range links {
			b.WriteString(fmt.Sprintf("[%d] %s\n", i+1, link))
		}
	}
	return b.String(), links
}

func (m *Model) openReader(msg ArticleLoadedMsg) {
	body, links := renderArticle(msg.Article, m.renderer, m.styles)
	vp := viewport.New(m.width, m.readerHeight())
	vp.SetContent(body)
	m.reader = reader{
		target:   msg.Target,
		article:  msg.Article,
		links:    links,
		viewport: vp,
		ready:    true,
	}
	m.state = ReaderView
}

func (m Model) readerHeight() int {
	h := m.height - 3
	if h < 1 {
		h = 1
	}
	return h
}

func (m Model) handleReaderKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit), key.Matches(msg, keys.Back):
		m.state = HomeView
		m.reader = reader{}
		return m, nil

	case key.Matches(msg, keys.OpenInBrow):
		if m.reader.article != nil && m.reader.article.URL != "" {
			return m, openLink(m.openBrowser, m.reader.article.URL)
		}
		return m, nil

	case key.Matches(msg, keys.OpenLinkN):
		n := int(msg.Runes[0] - '1')
		if n < len(m.reader.links) {
			return m, openLink(m.openBrowser, m.reader.links[n])
		}
		return m, nil

	case key.Matches(msg, keys.HalfDown):
		m.reader.viewport.HalfPageDown()
		return m, nil

	case key.Matches(msg, keys.HalfUp):
		m.reader.viewport.HalfPageUp()
		return m, nil
	}

	var cmd tea.Cmd
	m.reader.viewport, cmd = m.reader.viewport.Update(msg)
	return m, cmd
}

func (m Model) renderReader() string {
	var b strings.Builder
	title := "Untitled"
	if m.reader.article != nil && m.reader.article.Title != "" {
		title = m.reader.article.Title
	}
	b.WriteString(m.styles.Title.Width(m.width).Render(renderTitle(title, m.width)))
	b.WriteString("\n\n")
	b.WriteString(m.reader.viewport.View())
	b.WriteString("\n")

	status := globalHelp + " | " + FormatStatusBar(GetViewKeys(m.state).StatusBar)
	if !m.reader.viewport.AtBottom() || m.reader.viewport.YOffset > 0 {
		status = fmt.Sprintf("(%3.f%%) ", m.reader.viewport.ScrollPercent()*100) + status
	}
	b.WriteString(m.styles.Muted.Render(status))
	return b.String()
}
