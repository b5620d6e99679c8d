package database

import (
	"context"
	"database/sql"
)

const feedColumns = `id, url, title, description, kind, icon, last_updated, etag, last_modified,
	cache_control_max_age, last_error, last_error_time, visible, created_at`

func scanFeed(row interface{ Scan(...interface{}) error }) (Feed, error) {
	var i Feed
	err := row.Scan(
		&i.ID,
		&i.Url,
		&i.Title,
		&i.Description,
		&i.Kind,
		&i.Icon,
		&i.LastUpdated,
		&i.Etag,
		&i.LastModified,
		&i.CacheControlMaxAge,
		&i.LastError,
		&i.LastErrorTime,
		&i.Visible,
		&i.CreatedAt,
	)
	return i, err
}

const createFeed = `-- name: CreateFeed :one
INSERT INTO feeds (url, title, description, kind, icon, last_updated, visible)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + feedColumns

type CreateFeedParams struct {
	Url         string
	Title       string
	Description string
	Kind        string
	Icon        string
	LastUpdated sql.NullTime
	Visible     bool
}

func (q *Queries) CreateFeed(ctx context.Context, arg CreateFeedParams) (Feed, error) {
	row := q.db.QueryRowContext(ctx, createFeed,
		arg.Url,
		arg.Title,
		arg.Description,
		arg.Kind,
		arg.Icon,
		arg.LastUpdated,
		arg.Visible,
	)
	return scanFeed(row)
}

const getFeed = `-- name: GetFeed :one
SELECT ` + feedColumns + ` FROM feeds WHERE id = ?`

func (q *Queries) GetFeed(ctx context.Context, id int64) (Feed, error) {
	return scanFeed(q.db.QueryRowContext(ctx, getFeed, id))
}

const getFeedByURL = `-- name: GetFeedByURL :one
SELECT ` + feedColumns + ` FROM feeds WHERE url = ?`

func (q *Queries) GetFeedByURL(ctx context.Context, url string) (Feed, error) {
	return scanFeed(q.db.QueryRowContext(ctx, getFeedByURL, url))
}

const listFeeds = `-- name: ListFeeds :many
SELECT ` + feedColumns + ` FROM feeds WHERE visible = 1 ORDER BY title`

func (q *Queries) ListFeeds(ctx context.Context) ([]Feed, error) {
	return q.queryFeeds(ctx, listFeeds)
}

const listAllFeeds = `-- name: ListAllFeeds :many
SELECT ` + feedColumns + ` FROM feeds ORDER BY title`

func (q *Queries) ListAllFeeds(ctx context.Context) ([]Feed, error) {
	return q.queryFeeds(ctx, listAllFeeds)
}

func (q *Queries) queryFeeds(ctx context.Context, query string) ([]Feed, error) {
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Feed
	for rows.Next() {
		i, err := scanFeed(rows)
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

const updateFeed = `-- name: UpdateFeed :exec
UPDATE feeds
SET title = ?, description = ?, icon = ?, last_updated = ?, etag = ?, last_modified = ?, cache_control_max_age = ?
WHERE id = ?`

type UpdateFeedParams struct {
	Title              string
	Description        string
	Icon               string
	LastUpdated        sql.NullTime
	Etag               sql.NullString
	LastModified       sql.NullString
	CacheControlMaxAge sql.NullInt64
	ID                 int64
}

func (q *Queries) UpdateFeed(ctx context.Context, arg UpdateFeedParams) error {
	_, err := q.db.ExecContext(ctx, updateFeed,
		arg.Title,
		arg.Description,
		arg.Icon,
		arg.LastUpdated,
		arg.Etag,
		arg.LastModified,
		arg.CacheControlMaxAge,
		arg.ID,
	)
	return err
}

const updateFeedKind = `-- name: UpdateFeedKind :exec
UPDATE feeds SET kind = ? WHERE url = ?`

func (q *Queries) UpdateFeedKind(ctx context.Context, kind, url string) error {
	_, err := q.db.ExecContext(ctx, updateFeedKind, kind, url)
	return err
}

const updateFeedError = `-- name: UpdateFeedError :exec
UPDATE feeds SET last_error = ?, last_error_time = ? WHERE id = ?`

type UpdateFeedErrorParams struct {
	LastError     sql.NullString
	LastErrorTime sql.NullTime
	ID            int64
}

func (q *Queries) UpdateFeedError(ctx context.Context, arg UpdateFeedErrorParams) error {
	_, err := q.db.ExecContext(ctx, updateFeedError, arg.LastError, arg.LastErrorTime, arg.ID)
	return err
}

const clearFeedError = `-- name: ClearFeedError :exec
UPDATE feeds SET last_error = NULL, last_error_time = NULL WHERE id = ?`

func (q *Queries) ClearFeedError(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, clearFeedError, id)
	return err
}

const hideFeedByURL = `-- name: HideFeedByURL :exec
UPDATE feeds SET visible = 0 WHERE url = ?`

func (q *Queries) HideFeedByURL(ctx context.Context, url string) error {
	_, err := q.db.ExecContext(ctx, hideFeedByURL, url)
	return err
}

const showFeedByURL = `-- name: ShowFeedByURL :exec
UPDATE feeds SET visible = 1 WHERE url = ?`

func (q *Queries) ShowFeedByURL(ctx context.Context, url string) error {
	_, err := q.db.ExecContext(ctx, showFeedByURL, url)
	return err
}
