package database

import (
	"database/sql"
)

type Feed struct {
	ID                 int64
	Url                string
	Title              string
	Description        string
	Kind               string
	Icon               string
	LastUpdated        sql.NullTime
	Etag               sql.NullString
	LastModified       sql.NullString
	CacheControlMaxAge sql.NullInt64
	LastError          sql.NullString
	LastErrorTime      sql.NullTime
	Visible            bool
	CreatedAt          sql.NullTime
}

type HomeFeedback struct {
	ID           string
	FeedbackType string
	Subscription string
	Site         string
	CreatedAt    sql.NullTime
}

type Item struct {
	ID          int64
	FeedID      sql.NullInt64
	Guid        string
	Title       string
	Description string
	Content     string
	Link        string
	Published   sql.NullTime
	Slug        string
	CreatedAt   sql.NullTime
	Thumbnail   string
	SiteName    string
	SiteIcon    string
}

type LogMessage struct {
	ID         int64
	Level      string
	Message    string
	Timestamp  sql.NullTime
	Attributes sql.NullString
}

type Setting struct {
	Key   string
	Value string
}
