package database

import (
	"context"
	"database/sql"
)

const upsertItem = `-- name: UpsertItem :one
INSERT INTO items (feed_id, guid, title, description, content, link, published, slug, thumbnail)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (feed_id, guid) DO UPDATE SET
    title = excluded.title,
    description = excluded.description,
    content = excluded.content,
    link = excluded.link,
    published = excluded.published,
    thumbnail = excluded.thumbnail
RETURNING id`

type UpsertItemParams struct {
	FeedID      int64
	Guid        string
	Title       string
	Description string
	Content     string
	Link        string
	Published   sql.NullTime
	Slug        string
	Thumbnail   string
}

func (q *Queries) UpsertItem(ctx context.Context, arg UpsertItemParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, upsertItem,
		arg.FeedID,
		arg.Guid,
		arg.Title,
		arg.Description,
		arg.Content,
		arg.Link,
		arg.Published,
		arg.Slug,
		arg.Thumbnail,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const createLibraryItem = `-- name: CreateLibraryItem :one
INSERT INTO items (feed_id, guid, title, description, content, link, published, slug, thumbnail, site_name, site_icon)
VALUES (NULL, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id`

type CreateLibraryItemParams struct {
	Guid        string
	Title       string
	Description string
	Content     string
	Link        string
	Published   sql.NullTime
	Slug        string
	Thumbnail   string
	SiteName    string
	SiteIcon    string
}

func (q *Queries) CreateLibraryItem(ctx context.Context, arg CreateLibraryItemParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createLibraryItem,
		arg.Guid,
		arg.Title,
		arg.Description,
		arg.Content,
		arg.Link,
		arg.Published,
		arg.Slug,
		arg.Thumbnail,
		arg.SiteName,
		arg.SiteIcon,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

// ItemWithSource is an item joined with the feed it came from. Feed columns
// are null for library saves.
type ItemWithSource struct {
	Item
	FeedTitle   sql.NullString
	FeedKind    sql.NullString
	FeedIcon    sql.NullString
	FeedVisible sql.NullBool
}

const itemWithSourceColumns = `i.id, i.feed_id, i.guid, i.title, i.description, i.content, i.link, i.published,
	i.slug, i.created_at, i.thumbnail, i.site_name, i.site_icon,
	f.title, f.kind, f.icon, f.visible`

func scanItemWithSource(row interface{ Scan(...interface{}) error }) (ItemWithSource, error) {
	var i ItemWithSource
	err := row.Scan(
		&i.ID,
		&i.FeedID,
		&i.Guid,
		&i.Title,
		&i.Description,
		&i.Content,
		&i.Link,
		&i.Published,
		&i.Slug,
		&i.CreatedAt,
		&i.Thumbnail,
		&i.SiteName,
		&i.SiteIcon,
		&i.FeedTitle,
		&i.FeedKind,
		&i.FeedIcon,
		&i.FeedVisible,
	)
	return i, err
}

const listRecentItems = `-- name: ListRecentItems :many
SELECT ` + itemWithSourceColumns + `
FROM items i
LEFT JOIN feeds f ON f.id = i.feed_id
WHERE i.feed_id IS NULL OR f.visible = 1
ORDER BY i.published DESC, i.id DESC
LIMIT ?`

func (q *Queries) ListRecentItems(ctx context.Context, limit int64) ([]ItemWithSource, error) {
	rows, err := q.db.QueryContext(ctx, listRecentItems, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ItemWithSource
	for rows.Next() {
		i, err := scanItemWithSource(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getItemBySlug = `-- name: GetItemBySlug :one
SELECT ` + itemWithSourceColumns + `
FROM items i
LEFT JOIN feeds f ON f.id = i.feed_id
WHERE i.slug = ?`

func (q *Queries) GetItemBySlug(ctx context.Context, slug string) (ItemWithSource, error) {
	return scanItemWithSource(q.db.QueryRowContext(ctx, getItemBySlug, slug))
}

const getItemByLink = `-- name: GetItemByLink :one
SELECT ` + itemWithSourceColumns + `
FROM items i
LEFT JOIN feeds f ON f.id = i.feed_id
WHERE i.link = ?
ORDER BY i.id DESC
LIMIT 1`

func (q *Queries) GetItemByLink(ctx context.Context, link string) (ItemWithSource, error) {
	return scanItemWithSource(q.db.QueryRowContext(ctx, getItemByLink, link))
}

const countItemsByFeed = `-- name: CountItemsByFeed :one
SELECT COUNT(*) FROM items WHERE feed_id = ?`

func (q *Queries) CountItemsByFeed(ctx context.Context, feedID int64) (int64, error) {
	row := q.db.QueryRowContext(ctx, countItemsByFeed, feedID)
	var count int64
	err := row.Scan(&count)
	return count, err
}
