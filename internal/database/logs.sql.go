package database

import (
	"context"
	"database/sql"
)

const createLogMessage = `-- name: CreateLogMessage :exec
INSERT INTO log_messages (level, message, timestamp, attributes)
VALUES (?, ?, ?, ?)`

type CreateLogMessageParams struct {
	Level      string
	Message    string
	Timestamp  sql.NullTime
	Attributes sql.NullString
}

func (q *Queries) CreateLogMessage(ctx context.Context, arg CreateLogMessageParams) error {
	_, err := q.db.ExecContext(ctx, createLogMessage,
		arg.Level,
		arg.Message,
		arg.Timestamp,
		arg.Attributes,
	)
	return err
}

const getLogMessages = `-- name: GetLogMessages :many
SELECT id, level, message, timestamp, attributes
FROM log_messages
ORDER BY id DESC
LIMIT ?`

func (q *Queries) GetLogMessages(ctx context.Context, limit int64) ([]LogMessage, error) {
	rows, err := q.db.QueryContext(ctx, getLogMessages, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LogMessage
	for rows.Next() {
		var i LogMessage
		if err := rows.Scan(
			&i.ID,
			&i.Level,
			&i.Message,
			&i.Timestamp,
			&i.Attributes,
		); err != nil {
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

const deleteAllLogMessages = `-- name: DeleteAllLogMessages :exec
DELETE FROM log_messages`

func (q *Queries) DeleteAllLogMessages(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllLogMessages)
	return err
}
