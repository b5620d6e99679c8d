// Package library is the local home.Service: it builds the home feed from the
// SQLite library populated by subscription refreshes and saved pages.
package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jarv/justread/internal/config"
	"github.com/jarv/justread/internal/database"
	"github.com/jarv/justread/internal/discovery"
	"github.com/jarv/justread/internal/feeds"
	"github.com/jarv/justread/internal/home"
	"github.com/jarv/justread/internal/logging"
)

const (
	recentItemsLimit = 500
	justAddedLimit   = 10
	topPicksLimit    = 20
	quickLinksLimit  = 40
	hiddenLimit      = 40
	previewWidth     = 280
)

const (
	TitleJustAdded  = "Just Added"
	TitleTopPicks   = "Top Picks"
	TitleQuickLinks = "Quick Links"
	TitleHidden     = "Hidden"
)

// Library implements home.Service over the local database.
type Library struct {
	feeds     *feeds.Manager
	discovery *discovery.Client
	justAdded time.Duration
	now       func() time.Time
}

type Option func(*Library)

func WithJustAddedHours(hours int) Option {
	return func(l *Library) {
		if hours > 0 {
			l.justAdded = time.Duration(hours) * time.Hour
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *Library) {
		l.now = now
	}
}

func New(m *feeds.Manager, d *discovery.Client, opts ...Option) *Library {
	l := &Library{
		feeds:     m,
		discovery: d,
		justAdded: 24 * time.Hour,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

var _ home.Service = (*Library)(nil)

type scoredItem struct {
	item  home.Item
	score int64
}

func (l *Library) loadScored(ctx context.Context) ([]scoredItem, error) {
	rows, err := l.feeds.ListRecentItems(ctx, recentItemsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	scores, err := l.feeds.FeedbackScores(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load feedback: %w", err)
	}

	out := make([]scoredItem, 0, len(rows))
	for _, row := range rows {
		item := toHomeItem(row)
		out = append(out, scoredItem{item: item, score: scores[item.Source.Name]})
	}
	return out, nil
}

// GetHomeItems builds the sections in display order. Items from sources with
// a negative feedback score only appear in the hidden section, which is
// returned as a header and fetched on demand.
func (l *Library) GetHomeItems(ctx context.Context) ([]home.Section, error) {
	all, err := l.loadScored(ctx)
	if err != nil {
		return nil, err
	}

	cutoff := l.now().Add(-l.justAdded)
	var justAdded, candidates []scoredItem
	for _, si := range all {
		if si.score < 0 {
			continue
		}
		if len(justAdded) < justAddedLimit && !si.item.Date.Before(cutoff) {
			justAdded = append(justAdded, si)
			continue
		}
		candidates = append(candidates, si)
	}

	var picks, rest []scoredItem
	for _, si := range candidates {
		if si.item.PreviewContent != "" {
			picks = append(picks, si)
		} else {
			rest = append(rest, si)
		}
	}
	sort.SliceStable(picks, func(i, j int) bool {
		if picks[i].score != picks[j].score {
			return picks[i].score > picks[j].score
		}
		return picks[i].item.Date.After(picks[j].item.Date)
	})
	if len(picks) > topPicksLimit {
		rest = append(picks[topPicksLimit:], rest...)
		picks = picks[:topPicksLimit]
	}
	sort.SliceStable(rest, func(i, j int) bool {
		return rest[i].item.Date.After(rest[j].item.Date)
	})
	if len(rest) > quickLinksLimit {
		rest = rest[:quickLinksLimit]
	}

	var sections []home.Section
	add := func(layout home.Layout, title string, items []scoredItem) {
		if len(items) == 0 {
			return
		}
		sections = append(sections, home.NewSection(layout.String(), title, unwrap(items)))
	}
	add(home.LayoutJustAdded, TitleJustAdded, justAdded)
	add(home.LayoutTopPicks, TitleTopPicks, picks)
	add(home.LayoutQuickLinks, TitleQuickLinks, rest)
	sections = append(sections, home.NewSection(home.LayoutHidden.String(), TitleHidden, nil))

	logging.Debug("Built home sections", "sections", len(sections), "items", len(all))
	return sections, nil
}

// GetHiddenHomeSection returns the items whose source has a negative score,
// newest first, or nil when there are none.
func (l *Library) GetHiddenHomeSection(ctx context.Context) (*home.Section, error) {
	all, err := l.loadScored(ctx)
	if err != nil {
		return nil, err
	}
	var hidden []scoredItem
	for _, si := range all {
		if si.score < 0 {
			hidden = append(hidden, si)
		}
		if len(hidden) == hiddenLimit {
			break
		}
	}
	if len(hidden) == 0 {
		return nil, nil
	}
	section := home.NewSection(home.LayoutHidden.String(), TitleHidden, unwrap(hidden))
	return &section, nil
}

func unwrap(items []scoredItem) []home.Item {
	out := make([]home.Item, len(items))
	for i, si := range items {
		out[i] = si.item
	}
	return out
}

func toHomeItem(row database.ItemWithSource) home.Item {
	item := home.Item{
		ID:        strconv.FormatInt(row.ID, 10),
		Title:     row.Title,
		URL:       row.Link,
		Thumbnail: row.Thumbnail,
		Slug:      row.Slug,
	}
	if row.Published.Valid {
		item.Date = row.Published.Time
	}
	preview := row.Description
	if preview == "" && row.FeedID.Valid {
		preview = row.Content
	}
	item.PreviewContent = feeds.Preview(preview, previewWidth)

	if row.FeedID.Valid {
		item.Source = home.Source{
			Type: home.ParseSourceType(row.FeedKind.String),
			ID:   strconv.FormatInt(row.FeedID.Int64, 10),
			Name: row.FeedTitle.String,
			Icon: row.FeedIcon.String,
		}
	} else {
		item.Source = home.Source{
			Type: home.SourceLibrary,
			ID:   discovery.Host(row.Link),
			Name: row.SiteName,
			Icon: row.SiteIcon,
		}
		if item.Source.Name == "" {
			item.Source.Name = item.Source.ID
		}
	}
	return item
}

func toSubscription(feed database.Feed) home.Subscription {
	status := home.SubscriptionActive
	if !feed.Visible {
		status = home.SubscriptionUnsubscribed
	}
	return home.Subscription{
		ID:          strconv.FormatInt(feed.ID, 10),
		Name:        feed.Title,
		Status:      status,
		Description: feed.Description,
		Type:        home.ParseSourceType(feed.Kind),
		URL:         feed.Url,
		Icon:        feed.Icon,
	}
}

// GetSubscription resolves a feed source id. Library sources (site hosts) and
// unknown ids have no subscription.
func (l *Library) GetSubscription(ctx context.Context, sourceID string) (*home.Subscription, error) {
	id, err := strconv.ParseInt(sourceID, 10, 64)
	if err != nil {
		return nil, nil
	}
	feed, err := l.feeds.GetFeed(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sub := toSubscription(feed)
	return &sub, nil
}

func (l *Library) GetSubscriptions(ctx context.Context) ([]home.Subscription, error) {
	all, err := l.feeds.ListAllFeeds(ctx)
	if err != nil {
		return nil, err
	}
	subs := make([]home.Subscription, len(all))
	for i, f := range all {
		subs[i] = toSubscription(f)
	}
	return subs, nil
}

func (l *Library) SendHomeFeedback(ctx context.Context, input home.FeedbackInput) (bool, error) {
	if err := input.Validate(); err != nil {
		return false, err
	}
	id, err := l.feeds.RecordFeedback(ctx, string(input.FeedbackType), input.Subscription, input.Site)
	if err != nil {
		return false, fmt.Errorf("failed to record feedback: %w", err)
	}
	logging.Info("Home feedback recorded", "id", id, "type", input.FeedbackType,
		"subscription", input.Subscription, "site", input.Site)
	return true, nil
}

// ReadItem resolves a reader path or URL to an article. URLs that are not in
// the library are fetched live.
func (l *Library) ReadItem(ctx context.Context, target string) (*home.Article, error) {
	var (
		row database.ItemWithSource
		err error
	)
	if slug, ok := home.SlugFromTarget(target); ok {
		row, err = l.feeds.GetItemBySlug(ctx, slug)
	} else {
		row, err = l.feeds.GetItemByLink(ctx, target)
	}

	switch {
	case err == nil:
		return toArticle(row), nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, err
	case strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://"):
		if l.discovery == nil {
			return nil, home.ErrNotFound
		}
		page, err := l.discovery.FetchPage(ctx, target)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", target, err)
		}
		return &home.Article{
			Title:   page.Metadata.Title,
			URL:     page.URL,
			Author:  page.Metadata.SiteName,
			Content: page.HTML,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", home.ErrNotFound, target)
	}
}

func toArticle(row database.ItemWithSource) *home.Article {
	content := row.Content
	if content == "" {
		content = row.Description
	}
	author := row.SiteName
	if row.FeedID.Valid {
		author = row.FeedTitle.String
	}
	article := &home.Article{
		Title:   row.Title,
		URL:     row.Link,
		Author:  author,
		Content: content,
	}
	if row.Published.Valid {
		article.Date = row.Published.Time
	}
	return article
}

// Save fetches rawURL and stores it in the library.
func (l *Library) Save(ctx context.Context, rawURL string) (home.Item, error) {
	if l.discovery == nil {
		return home.Item{}, errors.New("saving requires a discovery client")
	}
	page, err := l.discovery.FetchPage(ctx, rawURL)
	if err != nil {
		return home.Item{}, err
	}
	row, err := l.feeds.SavePage(ctx, page)
	if err != nil {
		return home.Item{}, fmt.Errorf("failed to save page: %w", err)
	}
	return toHomeItem(row), nil
}

// Subscribe discovers the feed behind rawURL, records it in the
// subscriptions file and fetches it.
func (l *Library) Subscribe(ctx context.Context, subscriptionsFile, rawURL string, kind home.SourceType) (home.Subscription, error) {
	if l.discovery == nil {
		return home.Subscription{}, errors.New("subscribing requires a discovery client")
	}
	feed, err := l.feeds.AddSubscription(ctx, l.discovery, rawURL, config.SubscriptionEntry{Kind: kind})
	if err != nil {
		return home.Subscription{}, err
	}
	if _, err := config.AddSubscription(subscriptionsFile, config.SubscriptionEntry{URL: feed.Url, Kind: kind}); err != nil {
		return home.Subscription{}, fmt.Errorf("failed to update subscriptions file: %w", err)
	}
	return toSubscription(feed), nil
}
