package feeds

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	md "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"
	"golang.org/x/net/html"

	"github.com/jarv/justread/internal/logging"
)

var (
	mdLinkPattern = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	hrefPattern   = regexp.MustCompile(`<a[^>]+href=["']([^"']+)["']`)
)

// ConvertHTMLToMarkdown converts item content for display, dropping blank
// lines. Content that fails to convert is returned unchanged.
func ConvertHTMLToMarkdown(input string) string {
	if input == "" {
		return ""
	}

	markdown, err := md.ConvertString(input)
	if err != nil {
		logging.Warn("Failed to convert HTML to markdown", "error", err)
		return input
	}

	var cleanLines []string
	for _, line := range strings.Split(strings.TrimSpace(markdown), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			cleanLines = append(cleanLines, line)
		}
	}
	return strings.Join(cleanLines, "\n")
}

func isHTTP(link string) bool {
	return strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://")
}

// ExtractLinks returns the distinct http(s) links in content, in order of
// first appearance: markdown links, then anchors, then bare URLs.
func ExtractLinks(content string) []string {
	var links []string
	seen := make(map[string]bool)
	add := func(link string) {
		if isHTTP(link) && !seen[link] {
			links = append(links, link)
			seen[link] = true
		}
	}

	for _, match := range mdLinkPattern.FindAllStringSubmatch(content, -1) {
		add(match[2])
	}
	for _, match := range hrefPattern.FindAllStringSubmatch(content, -1) {
		add(match[1])
	}
	if strings.Contains(content, "http") {
		for _, word := range strings.Fields(content) {
			if isHTTP(word) {
				add(strings.TrimRight(word, ".,!?;)"))
			}
		}
	}
	return links
}

// AddLinkMarkersToHTML appends a numbered marker ("[1]", "[2]", ...) after
// every http(s) anchor so links can be picked by number once the content is
// rendered as text. Repeated hrefs reuse their first number.
func AddLinkMarkersToHTML(content string) (string, []string) {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return content, ExtractLinks(content)
	}

	var links []string
	index := make(map[string]int)

	var visit func(*html.Node)
	visit = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
		if n.Type != html.ElementNode || n.Data != "a" {
			return
		}
		var href string
		for _, a := range n.Attr {
			if a.Key == "href" {
				href = strings.TrimSpace(a.Val)
			}
		}
		if !isHTTP(href) {
			return
		}
		num, ok := index[href]
		if !ok {
			links = append(links, href)
			num = len(links)
			index[href] = num
		}
		n.AppendChild(&html.Node{Type: html.TextNode, Data: " [" + strconv.Itoa(num) + "]"})
	}
	visit(doc)

	var sb strings.Builder
	body := findBody(doc)
	if body == nil {
		body = doc
	}
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&sb, c); err != nil {
			return content, links
		}
	}
	return sb.String(), links
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

// Preview renders HTML as a single line of plain-ish text no wider than
// width cells.
func Preview(content string, width int) string {
	text := ConvertHTMLToMarkdown(content)
	text = strings.Join(strings.Fields(text), " ")
	if width <= 0 {
		return text
	}
	return runewidth.Truncate(text, width, "…")
}

// Slug builds a URL-safe identifier from title, suffixed with a short
// name-based UUID of key so the same item keeps the same slug across
// refreshes.
func Slug(title, key string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			sb.WriteRune(r)
			dash = false
		case sb.Len() > 0 && !dash:
			sb.WriteByte('-')
			dash = true
		}
		if sb.Len() >= 60 {
			break
		}
	}
	base := strings.Trim(sb.String(), "-")
	suffix := uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()[:8]
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}
