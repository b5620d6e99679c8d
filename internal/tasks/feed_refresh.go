package tasks

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jarv/justread/internal/config"
	"github.com/jarv/justread/internal/feeds"
	"github.com/jarv/justread/internal/logging"
)

// FeedRefresher is the part of feeds.Manager the handlers need.
type FeedRefresher interface {
	RefreshFeed(ctx context.Context, feedID int64) error
}

type FeedRefreshHandler struct {
	feeds FeedRefresher
}

func NewFeedRefreshHandler(f FeedRefresher) *FeedRefreshHandler {
	return &FeedRefreshHandler{feeds: f}
}

func (h *FeedRefreshHandler) Execute(ctx context.Context, task *Task) error {
	feedID, err := int64Value(task.Data, "feed_id")
	if err != nil {
		return err
	}
	if err := h.feeds.RefreshFeed(ctx, feedID); err != nil {
		return fmt.Errorf("feed refresh failed: %w", err)
	}
	return nil
}

func (h *FeedRefreshHandler) CanHandle(taskType TaskType) bool {
	return taskType == TaskTypeFeedRefresh
}

func CreateFeedRefreshTask(feedID int64, url string) *Task {
	return &Task{
		Type: TaskTypeFeedRefresh,
		Data: map[string]interface{}{
			"feed_id": feedID,
			"url":     url,
		},
	}
}

func int64Value(data map[string]interface{}, key string) (int64, error) {
	value, ok := data[key]
	if !ok {
		return 0, fmt.Errorf("missing %s in task data", key)
	}
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s format: %v", key, v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("invalid %s type: %T", key, v)
	}
}

// SubscriptionSyncer is the part of feeds.Manager the sync handler needs.
type SubscriptionSyncer interface {
	FeedRefresher
	SyncSubscriptions(ctx context.Context, entries []config.SubscriptionEntry) (feeds.SyncResult, error)
	GetFeedByURLID(ctx context.Context, url string) (int64, error)
}

// SubscriptionsSyncHandler re-reads the subscriptions file, syncs the feeds
// table and fetches feeds that were added or resumed.
type SubscriptionsSyncHandler struct {
	feeds SubscriptionSyncer
	path  string
}

func NewSubscriptionsSyncHandler(f SubscriptionSyncer, path string) *SubscriptionsSyncHandler {
	return &SubscriptionsSyncHandler{feeds: f, path: path}
}

func (h *SubscriptionsSyncHandler) Execute(ctx context.Context, task *Task) error {
	entries, err := config.ReadSubscriptionsFromPath(h.path)
	if err != nil {
		return fmt.Errorf("failed to read subscriptions: %w", err)
	}
	result, err := h.feeds.SyncSubscriptions(ctx, entries)
	if err != nil {
		return fmt.Errorf("failed to sync subscriptions: %w", err)
	}

	for _, url := range append(result.Added, result.Resumed...) {
		id, err := h.feeds.GetFeedByURLID(ctx, url)
		if err != nil {
			logging.Error("Synced feed not found", "url", url, "error", err)
			continue
		}
		if err := h.feeds.RefreshFeed(ctx, id); err != nil {
			logging.Warn("Initial fetch failed", "url", url, "error", err)
		}
	}
	task.Data["added"] = len(result.Added)
	task.Data["hidden"] = len(result.Hidden)
	return nil
}

func (h *SubscriptionsSyncHandler) CanHandle(taskType TaskType) bool {
	return taskType == TaskTypeSubscriptionsSync
}

func CreateSubscriptionsSyncTask() *Task {
	return &Task{
		Type: TaskTypeSubscriptionsSync,
		Data: map[string]interface{}{},
	}
}
