package feeds

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"github.com/jarv/justread/internal/config"
	"github.com/jarv/justread/internal/database"
	"github.com/jarv/justread/internal/discovery"
	"github.com/jarv/justread/internal/logging"
	"github.com/jarv/justread/internal/version"
)

const FeedTimeout = 30 * time.Second

// conditionalRequestTransport adds the User-Agent and, when the feed has been
// fetched before, If-None-Match / If-Modified-Since headers.
type conditionalRequestTransport struct {
	Transport    http.RoundTripper
	UserAgent    string
	Etag         string
	LastModified string
}

func (t *conditionalRequestTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.UserAgent)
	if t.Etag != "" {
		req.Header.Set("If-None-Match", t.Etag)
	}
	if t.LastModified != "" {
		req.Header.Set("If-Modified-Since", t.LastModified)
	}
	return t.Transport.RoundTrip(req)
}

// Manager owns every read and write of feeds and items in the local library.
// All database access goes through dbMutex.
type Manager struct {
	db        *sql.DB
	queries   *database.Queries
	parser    *gofeed.Parser
	transport http.RoundTripper
	now       func() time.Time
	dbMutex   sync.RWMutex
}

type Option func(*Manager)

// WithTransport overrides the HTTP transport used for feed fetches.
func WithTransport(rt http.RoundTripper) Option {
	return func(m *Manager) {
		m.transport = rt
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func NewManager(db *sql.DB, queries *database.Queries, opts ...Option) *Manager {
	m := &Manager{
		db:        db,
		queries:   queries,
		parser:    gofeed.NewParser(),
		transport: http.DefaultTransport,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Now is the manager's clock, truncated to seconds in UTC so stored
// timestamps order correctly as text.
func (m *Manager) Now() time.Time {
	return dbTime(m.now())
}

func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

func (m *Manager) httpClientForFeed(feed database.Feed) *http.Client {
	t := &conditionalRequestTransport{
		Transport: m.transport,
		UserAgent: version.GetUserAgent(),
	}
	if feed.Etag.Valid {
		t.Etag = feed.Etag.String
	}
	if feed.LastModified.Valid {
		t.LastModified = feed.LastModified.String
	}
	return &http.Client{Timeout: FeedTimeout, Transport: t}
}

// parseCacheControl extracts max-age from Cache-Control header
func parseCacheControl(cacheControl string) (maxAge int64, hasMaxAge bool) {
	for _, part := range strings.Split(cacheControl, ",") {
		part = strings.TrimSpace(part)
		if val, ok := strings.CutPrefix(part, "max-age="); ok {
			if age, err := strconv.ParseInt(val, 10, 64); err == nil {
				return age, true
			}
		}
	}
	return 0, false
}

// SyncResult reports what SyncSubscriptions changed.
type SyncResult struct {
	Added   []string
	Resumed []string
	Hidden  []string
}

// SyncSubscriptions makes the feeds table match the subscriptions file.
// Listed feeds are created or made visible with the listed kind. Feeds no
// longer listed are hidden rather than deleted so their items and feedback
// survive a re-subscribe.
func (m *Manager) SyncSubscriptions(ctx context.Context, entries []config.SubscriptionEntry) (SyncResult, error) {
	m.dbMutex.Lock()
	defer m.dbMutex.Unlock()

	var result SyncResult

	existing, err := m.queries.ListAllFeeds(ctx)
	if err != nil {
		return result, err
	}
	byURL := make(map[string]database.Feed, len(existing))
	for _, f := range existing {
		byURL[f.Url] = f
	}

	listed := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if listed[entry.URL] {
			continue
		}
		listed[entry.URL] = true

		feed, ok := byURL[entry.URL]
		if !ok {
			_, err := m.queries.CreateFeed(ctx, database.CreateFeedParams{
				Url:     entry.URL,
				Title:   entry.URL, // until fetched
				Kind:    string(entry.Kind),
				Visible: true,
			})
			if err != nil {
				return result, fmt.Errorf("failed to add feed %s: %w", entry.URL, err)
			}
			result.Added = append(result.Added, entry.URL)
			continue
		}

		if feed.Kind != string(entry.Kind) {
			if err := m.queries.UpdateFeedKind(ctx, string(entry.Kind), entry.URL); err != nil {
				return result, err
			}
		}
		if !feed.Visible {
			if err := m.queries.ShowFeedByURL(ctx, entry.URL); err != nil {
				return result, err
			}
			result.Resumed = append(result.Resumed, entry.URL)
		}
	}

	for _, f := range existing {
		if f.Visible && !listed[f.Url] {
			if err := m.queries.HideFeedByURL(ctx, f.Url); err != nil {
				return result, err
			}
			result.Hidden = append(result.Hidden, f.Url)
		}
	}

	if n := len(result.Added) + len(result.Resumed) + len(result.Hidden); n > 0 {
		logging.Info("Subscriptions synced",
			"added", len(result.Added), "resumed", len(result.Resumed), "hidden", len(result.Hidden))
	}
	return result, nil
}

// AddSubscription discovers the feed behind rawURL, fetches it once and
// returns the stored feed.
func (m *Manager) AddSubscription(ctx context.Context, d *discovery.Client, rawURL string, entry config.SubscriptionEntry) (database.Feed, error) {
	feedURL, err := d.DiscoverFeed(ctx, rawURL)
	if err != nil {
		return database.Feed{}, fmt.Errorf("failed to discover feed: %w", err)
	}
	entry.URL = feedURL

	m.dbMutex.Lock()
	feed, err := m.queries.GetFeedByURL(ctx, feedURL)
	if errors.Is(err, sql.ErrNoRows) {
		feed, err = m.queries.CreateFeed(ctx, database.CreateFeedParams{
			Url:     feedURL,
			Title:   feedURL,
			Kind:    string(entry.Kind),
			Visible: true,
		})
	} else if err == nil && !feed.Visible {
		err = m.queries.ShowFeedByURL(ctx, feedURL)
	}
	m.dbMutex.Unlock()
	if err != nil {
		return database.Feed{}, err
	}

	if err := m.RefreshFeed(ctx, feed.ID); err != nil {
		return database.Feed{}, err
	}
	return m.GetFeed(ctx, feed.ID)
}

func (m *Manager) RefreshFeed(ctx context.Context, feedID int64) error {
	m.dbMutex.RLock()
	feed, err := m.queries.GetFeed(ctx, feedID)
	m.dbMutex.RUnlock()
	if err != nil {
		return err
	}

	now := m.Now()

	if feed.CacheControlMaxAge.Valid && feed.LastUpdated.Valid {
		cacheExpiry := feed.LastUpdated.Time.Add(time.Duration(feed.CacheControlMaxAge.Int64) * time.Second)
		if now.Before(cacheExpiry) {
			logging.Debug("Feed still within cache control period, skipping fetch",
				"url", feed.Url,
				"expiresAt", cacheExpiry)
			return nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, FeedTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.Url, nil)
	if err != nil {
		m.recordFeedError(ctx, feedID, err)
		return err
	}

	resp, err := m.httpClientForFeed(feed).Do(req)
	if err != nil {
		logging.Error("Error fetching feed", "url", feed.Url, "error", err)
		m.recordFeedError(ctx, feedID, err)
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotModified {
		logging.Debug("Feed not modified", "url", feed.Url)
		m.dbMutex.Lock()
		err = m.queries.UpdateFeed(ctx, database.UpdateFeedParams{
			ID:                 feedID,
			Title:              feed.Title,
			Description:        feed.Description,
			Icon:               feed.Icon,
			LastUpdated:        sql.NullTime{Time: now, Valid: true},
			Etag:               feed.Etag,
			LastModified:       feed.LastModified,
			CacheControlMaxAge: feed.CacheControlMaxAge,
		})
		m.dbMutex.Unlock()
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		logging.Error("HTTP error fetching feed", "url", feed.Url, "status", resp.StatusCode)
		m.recordFeedError(ctx, feedID, err)
		return err
	}

	etag := sql.NullString{String: resp.Header.Get("ETag"), Valid: resp.Header.Get("ETag") != ""}
	lastModified := sql.NullString{String: resp.Header.Get("Last-Modified"), Valid: resp.Header.Get("Last-Modified") != ""}

	var cacheControlMaxAge sql.NullInt64
	if maxAge, ok := parseCacheControl(resp.Header.Get("Cache-Control")); ok {
		cacheControlMaxAge = sql.NullInt64{Int64: maxAge, Valid: true}
	}

	parsed, err := m.parser.Parse(resp.Body)
	if err != nil {
		logging.Error("Error parsing feed", "url", feed.Url, "error", err)
		m.recordFeedError(ctx, feedID, err)
		return err
	}

	m.recordFeedError(ctx, feedID, nil)

	title := parsed.Title
	if title == "" {
		title = feed.Title
	}

	m.dbMutex.Lock()
	err = m.queries.UpdateFeed(ctx, database.UpdateFeedParams{
		ID:                 feedID,
		Title:              title,
		Description:        parsed.Description,
		Icon:               feedIcon(parsed, feed.Url),
		LastUpdated:        sql.NullTime{Time: now, Valid: true},
		Etag:               etag,
		LastModified:       lastModified,
		CacheControlMaxAge: cacheControlMaxAge,
	})
	m.dbMutex.Unlock()
	if err != nil {
		return err
	}

	for _, item := range parsed.Items {
		params := itemParams(feedID, item, now)
		m.dbMutex.Lock()
		_, err := m.queries.UpsertItem(ctx, params)
		m.dbMutex.Unlock()
		if err != nil {
			logging.Error("Error upserting item", "guid", params.Guid, "error", err)
		}
	}

	logging.Debug("Feed refreshed", "url", feed.Url, "items", len(parsed.Items))
	return nil
}

func itemParams(feedID int64, item *gofeed.Item, now time.Time) database.UpsertItemParams {
	published := now
	switch {
	case item.PublishedParsed != nil:
		published = *item.PublishedParsed
	case item.UpdatedParsed != nil:
		published = *item.UpdatedParsed
	}

	content := item.Content
	description := item.Description
	if content == "" {
		content = description
	}

	// YouTube puts the description in media:group
	if content == "" {
		if desc := mediaValue(item, "group", "description"); desc != "" {
			content = desc
			description = desc
		}
	}

	guid := item.GUID
	if guid == "" {
		guid = item.Link
	}
	if guid == "" {
		guid = item.Title
	}

	return database.UpsertItemParams{
		FeedID:      feedID,
		Guid:        guid,
		Title:       item.Title,
		Description: description,
		Content:     content,
		Link:        item.Link,
		Published:   sql.NullTime{Time: dbTime(published), Valid: true},
		Slug:        Slug(item.Title, strconv.FormatInt(feedID, 10)+"|"+guid),
		Thumbnail:   itemThumbnail(item),
	}
}

func mediaValue(item *gofeed.Item, path ...string) string {
	media, ok := item.Extensions["media"]
	if !ok || len(path) == 0 {
		return ""
	}
	exts, ok := media[path[0]]
	if !ok || len(exts) == 0 {
		return ""
	}
	ext := exts[0]
	for _, name := range path[1:] {
		children, ok := ext.Children[name]
		if !ok || len(children) == 0 {
			return ""
		}
		ext = children[0]
	}
	if ext.Value != "" {
		return ext.Value
	}
	return ext.Attrs["url"]
}

func itemThumbnail(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	if thumb := mediaValue(item, "thumbnail"); thumb != "" {
		return thumb
	}
	return mediaValue(item, "group", "thumbnail")
}

// feedIcon prefers the feed's own image, then the favicon of its site.
func feedIcon(parsed *gofeed.Feed, feedURL string) string {
	if parsed.Image != nil && parsed.Image.URL != "" {
		return parsed.Image.URL
	}
	site := parsed.Link
	if site == "" {
		site = feedURL
	}
	u, err := url.Parse(site)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host + "/favicon.ico"
}

// RefreshAllFeeds refreshes every visible feed with at most concurrency
// fetches in flight. Individual failures are recorded on the feed and logged;
// only a cancelled context fails the whole refresh.
func (m *Manager) RefreshAllFeeds(ctx context.Context, concurrency int) error {
	feeds, err := m.ListFeeds(ctx)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	for _, feed := range feeds {
		g.Go(func() error {
			if err := m.RefreshFeed(ctx, feed.ID); err != nil {
				logging.Error("Error refreshing feed", "url", feed.Url, "error", err)
			}
			return ctx.Err()
		})
	}
	return g.Wait()
}

func (m *Manager) recordFeedError(ctx context.Context, feedID int64, err error) {
	// Record even when the fetch context has expired
	ctx = context.WithoutCancel(ctx)

	m.dbMutex.Lock()
	defer m.dbMutex.Unlock()

	if err == nil {
		if clearErr := m.queries.ClearFeedError(ctx, feedID); clearErr != nil {
			logging.Error("Failed to clear feed error", "feedID", feedID, "error", clearErr)
		}
		return
	}

	if updateErr := m.queries.UpdateFeedError(ctx, database.UpdateFeedErrorParams{
		ID:            feedID,
		LastError:     sql.NullString{String: err.Error(), Valid: true},
		LastErrorTime: sql.NullTime{Time: m.Now(), Valid: true},
	}); updateErr != nil {
		logging.Error("Failed to update feed error", "feedID", feedID, "error", updateErr)
	}
}
