package ui

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jarv/justread/internal/home"
	"github.com/jarv/justread/internal/logging"
	"github.com/jarv/justread/internal/version"
)

const maxIconBytes = 1 << 20

var errBlankIcon = errors.New("icon has no visible pixels")

type iconStatus int

const (
	iconLoading iconStatus = iota
	iconLoaded
	iconFailed
)

type iconState struct {
	status iconStatus
	color  lipgloss.Color
}

// siteIcons loads source icons once per URL. A URL that failed to load
// stays hidden for the lifetime of the view.
type siteIcons struct {
	client *http.Client
	states map[string]*iconState
}

func newSiteIcons(client *http.Client) *siteIcons {
	if client == nil {
		client = http.DefaultClient
	}
	return &siteIcons{client: client, states: make(map[string]*iconState)}
}

// request returns the fetch command for url, or nil when it is already
// known.
func (s *siteIcons) request(url string) tea.Cmd {
	if url == "" {
		return nil
	}
	if _, ok := s.states[url]; ok {
		return nil
	}
	s.states[url] = &iconState{status: iconLoading}
	return fetchIcon(s.client, url)
}

func (s *siteIcons) resolve(msg IconLoadedMsg) {
	state, ok := s.states[msg.URL]
	if !ok {
		state = &iconState{}
		s.states[msg.URL] = state
	}
	if msg.Err != nil {
		logging.Debug("Site icon hidden", "url", msg.URL, "error", msg.Err)
		state.status = iconFailed
		return
	}
	state.status = iconLoaded
	state.color = msg.Color
}

// render draws the icon glyph, or nothing when it is loading or failed.
func (s *siteIcons) render(url string, size home.IconSize) string {
	state, ok := s.states[url]
	if !ok || state.status != iconLoaded {
		return ""
	}
	glyph := "●"
	if size == home.IconLarge {
		glyph = strings.Repeat("█", size.Cells())
	}
	return lipgloss.NewStyle().Foreground(state.color).Render(glyph) + " "
}

func fetchIcon(client *http.Client, url string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		color, err := loadIconColor(ctx, client, url)
		return IconLoadedMsg{URL: url, Color: color, Err: err}
	}
}

func loadIconColor(ctx context.Context, client *http.Client, url string) (lipgloss.Color, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", version.GetUserAgent())

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	img, _, err := image.Decode(io.LimitReader(resp.Body, maxIconBytes))
	if err != nil {
		return "", fmt.Errorf("failed to decode icon: %w", err)
	}
	return averageColor(img)
}

// averageColor is the alpha-weighted mean of the image's pixels.
func averageColor(img image.Image) (lipgloss.Color, error) {
	var r, g, b, weight uint64
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			pr, pg, pb, pa := img.At(x, y).RGBA()
			if pa == 0 {
				continue
			}
			// RGBA is alpha-premultiplied
			r += uint64(pr)
			g += uint64(pg)
			b += uint64(pb)
			weight += uint64(pa)
		}
	}
	if weight == 0 {
		return "", errBlankIcon
	}
	scale := func(v uint64) uint64 { return v * 0xff / weight }
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", scale(r), scale(g), scale(b))), nil
}
