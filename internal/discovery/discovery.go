package discovery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/jarv/justread/internal/version"
)

const maxPageBytes = 5 << 20

var (
	ErrNoFeed             = errors.New("no feed link found in HTML")
	ErrUnsupportedContent = errors.New("unsupported content type")
)

// Client fetches pages to find feeds and page metadata.
type Client struct {
	http *http.Client
}

func New(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{http: httpClient}
}

// Page is a fetched HTML document together with its metadata.
type Page struct {
	URL      string
	HTML     string
	Metadata PageMetadata
}

// PageMetadata is what a page says about itself in <head>.
type PageMetadata struct {
	Title       string
	Description string
	SiteName    string
	Icon        string
	Image       string
	FeedURL     string
}

func (c *Client) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", version.GetUserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}
	return resp, nil
}

// DiscoverFeed returns the feed URL for rawURL. A URL that already serves a
// feed is returned as-is; YouTube channel pages map to the channel's RSS
// feed; HTML pages are searched for an alternate feed link.
func (c *Client) DiscoverFeed(ctx context.Context, rawURL string) (string, error) {
	if isYouTubeURL(rawURL) {
		return c.discoverYouTubeFeed(ctx, rawURL)
	}

	resp, err := c.get(ctx, rawURL)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	contentType := resp.Header.Get("Content-Type")
	if isFeedContentType(contentType) {
		return rawURL, nil
	}
	if !isHTMLContentType(contentType) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedContent, contentType)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	return DiscoverFeedFromHTML(string(body), rawURL)
}

// FetchPage downloads an HTML page and extracts its metadata.
func (c *Client) FetchPage(ctx context.Context, rawURL string) (*Page, error) {
	resp, err := c.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !isHTMLContentType(contentType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedContent, contentType)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	// Redirects change the base for relative links
	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	meta, err := ExtractMetadata(string(body), finalURL)
	if err != nil {
		return nil, err
	}
	return &Page{URL: finalURL, HTML: string(body), Metadata: meta}, nil
}

// DiscoverFeedFromHTML returns the first alternate RSS/Atom link, resolved
// against baseURL.
func DiscoverFeedFromHTML(htmlContent string, baseURL string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	var feedURL string
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "link" {
			if hasRel(attr(n, "rel"), "alternate") && isFeedType(attr(n, "type")) && attr(n, "href") != "" {
				feedURL = attr(n, "href")
				return false
			}
		}
		return true
	})
	if feedURL == "" {
		return "", ErrNoFeed
	}
	return resolveURL(baseURL, feedURL), nil
}

// ExtractMetadata reads title, description, site name, icon, preview image and
// feed link from an HTML document. Open Graph values win over plain ones. A
// page without an icon link falls back to /favicon.ico, and a page without a
// site name falls back to the host.
func ExtractMetadata(htmlContent string, baseURL string) (PageMetadata, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return PageMetadata{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var (
		meta      PageMetadata
		docTitle  string
		plainDesc string
		appleIcon string
		inBody    bool
	)

	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		switch n.Data {
		case "body":
			inBody = true
		case "title":
			if docTitle == "" && !inBody {
				docTitle = strings.TrimSpace(textContent(n))
			}
		case "meta":
			content := strings.TrimSpace(attr(n, "content"))
			switch strings.ToLower(attr(n, "property") + attr(n, "name")) {
			case "og:title":
				meta.Title = content
			case "og:description":
				meta.Description = content
			case "og:site_name":
				meta.SiteName = content
			case "og:image":
				meta.Image = content
			case "description":
				plainDesc = content
			}
		case "link":
			rel := attr(n, "rel")
			href := attr(n, "href")
			switch {
			case href == "":
			case hasRel(rel, "icon"):
				if meta.Icon == "" {
					meta.Icon = href
				}
			case hasRel(rel, "apple-touch-icon"):
				appleIcon = href
			case hasRel(rel, "alternate") && isFeedType(attr(n, "type")):
				if meta.FeedURL == "" {
					meta.FeedURL = href
				}
			}
		}
		return true
	})

	if meta.Title == "" {
		meta.Title = docTitle
	}
	if meta.Description == "" {
		meta.Description = plainDesc
	}
	if meta.Icon == "" {
		meta.Icon = appleIcon
	}
	if meta.Icon == "" {
		meta.Icon = "/favicon.ico"
	}
	meta.Icon = resolveURL(baseURL, meta.Icon)
	if meta.Image != "" {
		meta.Image = resolveURL(baseURL, meta.Image)
	}
	if meta.FeedURL != "" {
		meta.FeedURL = resolveURL(baseURL, meta.FeedURL)
	}
	if meta.SiteName == "" {
		meta.SiteName = Host(baseURL)
	}
	if meta.Title == "" {
		meta.Title = baseURL
	}
	return meta, nil
}

// Host returns the host of rawURL without a leading "www.".
func Host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// walk visits n depth-first until visit returns false.
func walk(n *html.Node, visit func(*html.Node) bool) bool {
	if !visit(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, visit) {
			return false
		}
	}
	return true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasRel(rel, want string) bool {
	for _, r := range strings.Fields(strings.ToLower(rel)) {
		if r == want {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		return true
	})
	return sb.String()
}

func isFeedContentType(contentType string) bool {
	contentType = strings.TrimSpace(strings.ToLower(strings.Split(contentType, ";")[0]))
	return contentType == "application/rss+xml" ||
		contentType == "application/atom+xml" ||
		contentType == "application/xml" ||
		contentType == "text/xml"
}

func isHTMLContentType(contentType string) bool {
	contentType = strings.TrimSpace(strings.ToLower(strings.Split(contentType, ";")[0]))
	return contentType == "text/html" || contentType == "application/xhtml+xml"
}

func isFeedType(typeAttr string) bool {
	typeAttr = strings.ToLower(typeAttr)
	return typeAttr == "application/rss+xml" || typeAttr == "application/atom+xml"
}

func resolveURL(baseURL, ref string) string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return ref
	}
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ref
	}
	return base.ResolveReference(r).String()
}

func isYouTubeURL(rawURL string) bool {
	host := Host(rawURL)
	return host == "youtube.com" || strings.HasSuffix(host, ".youtube.com") || host == "youtu.be"
}

func (c *Client) discoverYouTubeFeed(ctx context.Context, rawURL string) (string, error) {
	resp, err := c.get(ctx, rawURL)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	channelID, err := extractYouTubeChannelID(string(body))
	if err != nil {
		return "", err
	}
	return "https://www.youtube.com/feeds/videos.xml?channel_id=" + channelID, nil
}

var youTubeChannelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"channelId":"([^"]+)"`),
	regexp.MustCompile(`"channel_id":"([^"]+)"`),
	regexp.MustCompile(`channel_id=([A-Za-z0-9_-]+)`),
	regexp.MustCompile(`/channel/([A-Za-z0-9_-]+)`),
}

func extractYouTubeChannelID(htmlContent string) (string, error) {
	for _, re := range youTubeChannelPatterns {
		if matches := re.FindStringSubmatch(htmlContent); len(matches) > 1 {
			return matches[1], nil
		}
	}
	return "", fmt.Errorf("could not find YouTube channel ID in page")
}
