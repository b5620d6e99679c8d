package database

import (
	"context"
)

const createHomeFeedback = `-- name: CreateHomeFeedback :exec
INSERT INTO home_feedback (id, feedback_type, subscription, site)
VALUES (?, ?, ?, ?)`

type CreateHomeFeedbackParams struct {
	ID           string
	FeedbackType string
	Subscription string
	Site         string
}

func (q *Queries) CreateHomeFeedback(ctx context.Context, arg CreateHomeFeedbackParams) error {
	_, err := q.db.ExecContext(ctx, createHomeFeedback,
		arg.ID,
		arg.FeedbackType,
		arg.Subscription,
		arg.Site,
	)
	return err
}

const listFeedbackScores = `-- name: ListFeedbackScores :many
SELECT
    CASE WHEN subscription != '' THEN subscription ELSE site END AS name,
    SUM(CASE feedback_type WHEN 'MORE' THEN 1 WHEN 'LESS' THEN -1 ELSE 0 END) AS score
FROM home_feedback
GROUP BY name`

type FeedbackScore struct {
	Name  string
	Score int64
}

func (q *Queries) ListFeedbackScores(ctx context.Context) ([]FeedbackScore, error) {
	rows, err := q.db.QueryContext(ctx, listFeedbackScores)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []FeedbackScore
	for rows.Next() {
		var i FeedbackScore
		if err := rows.Scan(&i.Name, &i.Score); err != nil {
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
