package feeds

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/jarv/justread/internal/database"
	"github.com/jarv/justread/internal/discovery"
)

func (m *Manager) GetFeed(ctx context.Context, id int64) (database.Feed, error) {
	m.dbMutex.RLock()
	defer m.dbMutex.RUnlock()
	return m.queries.GetFeed(ctx, id)
}

func (m *Manager) GetFeedByURL(ctx context.Context, url string) (database.Feed, error) {
	m.dbMutex.RLock()
	defer m.dbMutex.RUnlock()
	return m.queries.GetFeedByURL(ctx, url)
}

// ListFeeds returns the visible (subscribed) feeds.
func (m *Manager) ListFeeds(ctx context.Context) ([]database.Feed, error) {
	m.dbMutex.RLock()
	defer m.dbMutex.RUnlock()
	return m.queries.ListFeeds(ctx)
}

// ListAllFeeds returns visible and hidden feeds.
func (m *Manager) ListAllFeeds(ctx context.Context) ([]database.Feed, error) {
	m.dbMutex.RLock()
	defer m.dbMutex.RUnlock()
	return m.queries.ListAllFeeds(ctx)
}

func (m *Manager) ListRecentItems(ctx context.Context, limit int64) ([]database.ItemWithSource, error) {
	m.dbMutex.RLock()
	defer m.dbMutex.RUnlock()
	return m.queries.ListRecentItems(ctx, limit)
}

func (m *Manager) GetItemBySlug(ctx context.Context, slug string) (database.ItemWithSource, error) {
	m.dbMutex.RLock()
	defer m.dbMutex.RUnlock()
	return m.queries.GetItemBySlug(ctx, slug)
}

func (m *Manager) GetItemByLink(ctx context.Context, link string) (database.ItemWithSource, error) {
	m.dbMutex.RLock()
	defer m.dbMutex.RUnlock()
	return m.queries.GetItemByLink(ctx, link)
}

// SavePage stores a fetched page as a library item. Saving a URL that is
// already in the library returns the existing item.
func (m *Manager) SavePage(ctx context.Context, page *discovery.Page) (database.ItemWithSource, error) {
	m.dbMutex.Lock()
	defer m.dbMutex.Unlock()

	existing, err := m.queries.GetItemByLink(ctx, page.URL)
	if err == nil && !existing.FeedID.Valid {
		return existing, nil
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return database.ItemWithSource{}, err
	}

	meta := page.Metadata
	slug := Slug(meta.Title, "library|"+page.URL)
	_, err = m.queries.CreateLibraryItem(ctx, database.CreateLibraryItemParams{
		Guid:        page.URL,
		Title:       meta.Title,
		Description: meta.Description,
		Content:     page.HTML,
		Link:        page.URL,
		Published:   sql.NullTime{Time: m.Now(), Valid: true},
		Slug:        slug,
		Thumbnail:   meta.Image,
		SiteName:    meta.SiteName,
		SiteIcon:    meta.Icon,
	})
	if err != nil {
		return database.ItemWithSource{}, err
	}
	return m.queries.GetItemBySlug(ctx, slug)
}

// RecordFeedback stores one feedback row and returns its id.
func (m *Manager) RecordFeedback(ctx context.Context, feedbackType, subscription, site string) (string, error) {
	id := uuid.New().String()

	m.dbMutex.Lock()
	defer m.dbMutex.Unlock()
	err := m.queries.CreateHomeFeedback(ctx, database.CreateHomeFeedbackParams{
		ID:           id,
		FeedbackType: feedbackType,
		Subscription: subscription,
		Site:         site,
	})
	return id, err
}

// FeedbackScores maps a subscription or site name to #MORE - #LESS.
func (m *Manager) FeedbackScores(ctx context.Context) (map[string]int64, error) {
	m.dbMutex.RLock()
	rows, err := m.queries.ListFeedbackScores(ctx)
	m.dbMutex.RUnlock()
	if err != nil {
		return nil, err
	}
	scores := make(map[string]int64, len(rows))
	for _, r := range rows {
		scores[strings.TrimSpace(r.Name)] += r.Score
	}
	return scores, nil
}

func (m *Manager) GetLogMessages(ctx context.Context, limit int64) ([]database.LogMessage, error) {
	m.dbMutex.RLock()
	defer m.dbMutex.RUnlock()
	return m.queries.GetLogMessages(ctx, limit)
}

func (m *Manager) DeleteAllLogMessages(ctx context.Context) error {
	m.dbMutex.Lock()
	defer m.dbMutex.Unlock()
	return m.queries.DeleteAllLogMessages(ctx)
}

// GetFeedByURLID returns just the id of the feed stored under url.
func (m *Manager) GetFeedByURLID(ctx context.Context, url string) (int64, error) {
	feed, err := m.GetFeedByURL(ctx, url)
	if err != nil {
		return 0, err
	}
	return feed.ID, nil
}
