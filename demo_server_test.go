package main

import (
	"bytes"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jarv/justread/internal/discovery"
	"github.com/jarv/justread/internal/home"
)

var demoNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func newDemoTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(newDemoRouter(func() time.Time { return demoNow }))
	t.Cleanup(srv.Close)
	return srv
}

func TestDemoFeedParsesAndIsStable(t *testing.T) {
	srv := newDemoTestServer(t)

	fetch := func() *gofeed.Feed {
		resp, err := http.Get(srv.URL + "/feeds/daily.xml?articles=3")
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotEmpty(t, resp.Header.Get("ETag"))

		feed, err := gofeed.NewParser().Parse(resp.Body)
		require.NoError(t, err)
		return feed
	}

	first := fetch()
	assert.Equal(t, "Lorem Daily Digest", first.Title)
	require.Len(t, first.Items, 3)
	require.NotNil(t, first.Image)
	assert.Equal(t, srv.URL+"/icons/e05d44.png", first.Image.URL)
	assert.True(t, first.Items[0].PublishedParsed.After(demoNow.Add(-time.Hour)))

	second := fetch()
	for i := range first.Items {
		assert.Equal(t, first.Items[i].GUID, second.Items[i].GUID)
		assert.Equal(t, first.Items[i].Title, second.Items[i].Title)
	}
}

func TestDemoFeedConditionalAndStatus(t *testing.T) {
	srv := newDemoTestServer(t)

	resp, err := http.Get(srv.URL + "/feeds/tech.xml")
	require.NoError(t, err)
	_ = resp.Body.Close()
	etag := resp.Header.Get("ETag")

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/feeds/tech.xml", nil)
	require.NoError(t, err)
	req.Header.Set("If-None-Match", etag)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/feeds/tech.xml?status=500")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestDemoIcons(t *testing.T) {
	srv := newDemoTestServer(t)

	tests := []struct {
		path       string
		wantStatus int
		wantImage  bool
	}{
		{"/icons/e05d44.png", http.StatusOK, true},
		{"/icons/missing.png", http.StatusNotFound, false},
		{"/icons/garbage.png", http.StatusOK, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var buf bytes.Buffer
			_, err = buf.ReadFrom(resp.Body)
			require.NoError(t, err)
			img, err := png.Decode(&buf)
			if !tt.wantImage {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			r, g, b, _ := img.At(0, 0).RGBA()
			assert.Equal(t, []uint32{0xe0, 0x5d, 0x44}, []uint32{r >> 8, g >> 8, b >> 8})
			assert.Equal(t, image.Rect(0, 0, 16, 16), img.Bounds())
		})
	}
}

func TestDemoPageMetadata(t *testing.T) {
	srv := newDemoTestServer(t)

	page, err := discovery.New(srv.Client()).FetchPage(t.Context(), srv.URL+"/pages/hello")
	require.NoError(t, err)
	assert.Equal(t, "Lorem Pages", page.Metadata.SiteName)
	assert.NotEmpty(t, page.Metadata.Title)
	assert.Equal(t, srv.URL+"/icons/2ecc71.png", page.Metadata.Icon)

	feedURL, err := discovery.New(srv.Client()).DiscoverFeed(t.Context(), srv.URL+"/")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/feeds/daily.xml", feedURL)
}

func TestParseHexColor(t *testing.T) {
	c, ok := parseHexColor("4c8eda")
	require.True(t, ok)
	assert.Equal(t, uint8(0x4c), c.R)
	assert.Equal(t, uint8(0xda), c.B)

	for _, bad := range []string{"", "missing", "zzzzzz", "12345"} {
		_, ok := parseHexColor(bad)
		assert.False(t, ok, bad)
	}
}

func TestPrintSections(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	sections := []home.Section{
		home.NewSection("top_picks", "Top Picks", []home.Item{{
			Title:  "An essay",
			Slug:   "an-essay",
			Date:   now.Add(-time.Hour),
			Source: home.Source{Name: "Essays"},
		}}),
		home.NewSection("hidden", "Hidden", nil),
	}

	var out strings.Builder
	require.NoError(t, printSections(&out, sections, now))
	text := out.String()
	assert.Contains(t, text, "Top Picks [top_picks]")
	assert.Contains(t, text, "An essay")
	assert.Contains(t, text, "1 hour ago")
	assert.Contains(t, text, "/me/an-essay")
	assert.Contains(t, text, "Hidden [hidden]")
}
