package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jarv/justread/internal/home"
	"github.com/jarv/justread/internal/tasks"
)

type HomeLoadedMsg struct {
	Sections []home.Section
}

// HiddenLoadedMsg answers the fetch of one mounted hidden view. Section
// and Generation identify the mount that asked for it.
type HiddenLoadedMsg struct {
	Section    int
	Generation int
	Result     *home.Section
	Err        error
}

// SubscriptionLoadedMsg answers the lookup of one opened popover.
type SubscriptionLoadedMsg struct {
	Generation   int
	Subscription *home.Subscription
	Err          error
}

type FeedbackSentMsg struct {
	Input home.FeedbackInput
	OK    bool
	Err   error
}

type ArticleLoadedMsg struct {
	Target  string
	Article *home.Article
	Err     error
}

type IconLoadedMsg struct {
	URL   string
	Color lipgloss.Color
	Err   error
}

type ToastExpiredMsg struct {
	ID int
}

type LinkOpenedMsg struct {
	URL string
	Err error
}

type RefreshQueuedMsg struct {
	Err error
}

type TaskEventMsg struct {
	Event tasks.TaskEvent
}

type ErrorMsg struct {
	Err error
}
