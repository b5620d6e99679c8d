package main

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"html"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
)

var loremWords = []string{
	"lorem", "ipsum", "dolor", "sit", "amet", "consectetur", "adipiscing", "elit",
	"sed", "do", "eiusmod", "tempor", "incididunt", "ut", "labore", "et", "dolore",
	"magna", "aliqua", "enim", "ad", "minim", "veniam", "quis", "nostrud",
	"exercitation", "ullamco", "laboris", "nisi", "aliquip", "ex", "ea", "commodo",
	"consequat", "duis", "aute", "irure", "in", "reprehenderit", "voluptate",
	"velit", "esse", "cillum", "fugiat", "nulla", "pariatur", "excepteur", "sint",
	"occaecat", "cupidatat", "non", "proident", "sunt", "culpa", "qui", "officia",
	"deserunt", "mollit", "anim", "id", "est", "laborum",
}

// demoFeed is one of the generated subscriptions. icon is the icon path
// served for it; the broken ones exercise the hidden-icon fallback.
type demoFeed struct {
	name  string
	title string
	icon  string
}

var demoFeeds = []demoFeed{
	{name: "daily", title: "Lorem Daily Digest", icon: "/icons/e05d44.png"},
	{name: "tech", title: "Dolor Sit Tech Blog", icon: "/icons/4c8eda.png"},
	{name: "weekly", title: "Consectetur Weekly", icon: "/icons/missing.png"},
	{name: "notes", title: "Adipiscing Notes", icon: "/icons/garbage.png"},
}

func newDemoServerCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "demo-server",
		Short: "Serve generated feeds, icons and pages for trying the local backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "justread demo server listening on http://localhost%s\n\n", addr)
			fmt.Fprintln(out, "Subscriptions file entries:")
			for _, f := range demoFeeds {
				fmt.Fprintf(out, "  http://localhost%s/feeds/%s.xml\n", addr, f.name)
			}
			fmt.Fprintf(out, "  http://localhost%s/feeds/letters.xml newsletter\n\n", addr)
			fmt.Fprintln(out, "Query parameters for feeds: title=..., articles=N, delay=N (seconds), status=N")
			fmt.Fprintf(out, "Pages to save: http://localhost%s/pages/<anything>\n", addr)

			server := &http.Server{
				Addr:              addr,
				Handler:           newDemoRouter(time.Now),
				ReadHeaderTimeout: 10 * time.Second,
			}
			return server.ListenAndServe()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

func newDemoRouter(now func() time.Time) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	h := &demoHandlers{now: now}
	r.Get("/", h.index)
	r.Get("/feeds/{name}.xml", h.feed)
	r.Get("/icons/{name}.png", h.icon)
	r.Get("/pages/{slug}", h.page)
	return r
}

type demoHandlers struct {
	now func() time.Time
}

func (h *demoHandlers) index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	var b strings.Builder
	b.WriteString("<html><head><title>justread demo</title>")
	for _, f := range demoFeeds {
		fmt.Fprintf(&b, `<link rel="alternate" type="application/rss+xml" title="%s" href="/feeds/%s.xml">`,
			html.EscapeString(f.title), f.name)
	}
	b.WriteString("</head><body><h1>justread demo</h1><ul>")
	for _, f := range demoFeeds {
		fmt.Fprintf(&b, `<li><a href="/feeds/%s.xml">%s</a></li>`, f.name, html.EscapeString(f.title))
	}
	b.WriteString("</ul></body></html>")
	_, _ = w.Write([]byte(b.String()))
}

// seeded returns a generator that yields the same content for the same key,
// so item GUIDs stay stable across refreshes.
func seeded(key string) *rand.Rand {
	hash := fnv.New64a()
	_, _ = hash.Write([]byte(key))
	return rand.New(rand.NewSource(int64(hash.Sum64())))
}

func loremText(rng *rand.Rand, wordCount int) string {
	words := make([]string, wordCount)
	for i := range words {
		words[i] = loremWords[rng.Intn(len(loremWords))]
	}
	text := strings.Join(words, " ")
	return strings.ToUpper(text[:1]) + text[1:] + "."
}

func lookupDemoFeed(name string) demoFeed {
	if name == "" {
		name = "feed"
	}
	for _, f := range demoFeeds {
		if f.name == name {
			return f
		}
	}
	return demoFeed{name: name, title: strings.ToUpper(name[:1]) + name[1:], icon: "/icons/8e44ad.png"}
}

// generateDemoFeed renders an RSS document whose newest item is a few
// minutes old, so the just added section is never empty.
func generateDemoFeed(f demoFeed, baseURL string, articles int, now time.Time) string {
	rng := seeded(f.name)
	if articles <= 0 {
		articles = 5 + rng.Intn(15)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/">
<channel>
<title>%s</title>
<description>%s</description>
<link>%s/</link>
<image><url>%s%s</url><title>%s</title><link>%s/</link></image>
<lastBuildDate>%s</lastBuildDate>
`, html.EscapeString(f.title), loremText(rng, 12), baseURL, baseURL, f.icon, html.EscapeString(f.title), baseURL,
		now.Format(time.RFC1123Z))

	published := now.Add(-time.Duration(5+rng.Intn(30)) * time.Minute)
	for i := 0; i < articles; i++ {
		title := strings.TrimSuffix(loremText(rng, 3+rng.Intn(6)), ".")
		content := "<p>" + loremText(rng, 40+rng.Intn(60)) + "</p><p>" + loremText(rng, 30) +
			fmt.Sprintf(` <a href="%s/pages/%s-%d">Read more</a>.</p>`, baseURL, f.name, i+1)
		link := fmt.Sprintf("%s/pages/%s-%d", baseURL, f.name, i+1)

		fmt.Fprintf(&b, `<item>
<title>%s</title>
<description>%s</description>
<content:encoded><![CDATA[%s]]></content:encoded>
<link>%s</link>
<guid>%s</guid>
<pubDate>%s</pubDate>
</item>
`, html.EscapeString(title), loremText(rng, 20), content, link, link, published.Format(time.RFC1123Z))
		published = published.Add(-time.Duration(1+rng.Intn(36)) * time.Hour)
	}
	b.WriteString("</channel>\n</rss>\n")
	return b.String()
}

// feed serves a generated RSS document with conditional GET support. The
// ETag changes every minute.
func (h *demoHandlers) feed(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	f := lookupDemoFeed(chi.URLParam(r, "name"))
	if title := query.Get("title"); title != "" {
		f.title = title
	}

	status := http.StatusOK
	if s, err := strconv.Atoi(query.Get("status")); err == nil {
		status = s
	}
	articles, _ := strconv.Atoi(query.Get("articles"))
	if delay, err := strconv.Atoi(query.Get("delay")); err == nil && delay > 0 {
		select {
		case <-time.After(time.Duration(delay) * time.Second):
		case <-r.Context().Done():
			return
		}
	}

	now := h.now()
	etag := fmt.Sprintf(`"demo-%s-%d"`, f.name, now.Unix()/60)
	lastModified := now.UTC().Truncate(time.Minute).Format(http.TimeFormat)
	w.Header().Set("ETag", etag)
	w.Header().Set("Last-Modified", lastModified)
	w.Header().Set("Cache-Control", "max-age=60")

	if status < 200 || status > 299 {
		w.WriteHeader(status)
		_, _ = fmt.Fprintf(w, "HTTP %d Error", status)
		return
	}
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	baseURL := "http://" + r.Host
	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(generateDemoFeed(f, baseURL, articles, now)))
}

// icon serves a solid PNG of the hex colour in the path. "garbage" serves
// bytes that are not an image; anything else that is not a colour is 404.
func (h *demoHandlers) icon(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "garbage" {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("this is not a png"))
		return
	}
	c, ok := parseHexColor(name)
	if !ok {
		http.NotFound(w, r)
		return
	}

	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "max-age=86400")
	_, _ = w.Write(buf.Bytes())
}

func parseHexColor(s string) (color.RGBA, bool) {
	if len(s) != 6 {
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, true
}

// page serves an article page with Open Graph metadata for save.
func (h *demoHandlers) page(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	rng := seeded("page-" + slug)
	title := strings.TrimSuffix(loremText(rng, 4+rng.Intn(4)), ".")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = fmt.Fprintf(w, `<!doctype html>
<html><head>
<title>%[1]s</title>
<meta property="og:title" content="%[1]s">
<meta property="og:site_name" content="Lorem Pages">
<meta name="description" content="%[2]s">
<meta name="author" content="Demo Author">
<link rel="icon" href="/icons/2ecc71.png">
</head><body>
<article><h1>%[1]s</h1><p>%[2]s</p><p>%[3]s</p><p>%[4]s</p></article>
</body></html>
`, html.EscapeString(title), loremText(rng, 25), loremText(rng, 60), loremText(rng, 60))
}
