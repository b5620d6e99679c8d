package home

import (
	"context"
	"fmt"
)

// FeedbackType is the direction of a feedback signal.
type FeedbackType string

const (
	FeedbackMore FeedbackType = "MORE"
	FeedbackLess FeedbackType = "LESS"
)

// FeedbackInput is the payload of a home feedback mutation. Exactly one of
// Subscription or Site is set.
type FeedbackInput struct {
	FeedbackType FeedbackType `json:"feedbackType"`
	Subscription string       `json:"subscription,omitempty"`
	Site         string       `json:"site,omitempty"`
}

// Validate checks the input before it is sent.
func (in FeedbackInput) Validate() error {
	switch in.FeedbackType {
	case FeedbackMore, FeedbackLess:
	default:
		return fmt.Errorf("invalid feedback type %q", in.FeedbackType)
	}
	if (in.Subscription == "") == (in.Site == "") {
		return fmt.Errorf("feedback needs exactly one of subscription or site")
	}
	return nil
}

// Service is the data contract the home view depends on.
type Service interface {
	// GetHomeItems returns the ordered home sections.
	GetHomeItems(ctx context.Context) ([]Section, error)

	// GetHiddenHomeSection returns the hidden section, or nil when the backend
	// has none.
	GetHiddenHomeSection(ctx context.Context) (*Section, error)

	// GetSubscription returns the subscription behind a source id, or nil
	// when there is none.
	GetSubscription(ctx context.Context, sourceID string) (*Subscription, error)

	// GetSubscriptions lists all subscriptions.
	GetSubscriptions(ctx context.Context) ([]Subscription, error)

	// SendHomeFeedback records a feedback signal and reports success.
	SendHomeFeedback(ctx context.Context, input FeedbackInput) (bool, error)

	// ReadItem resolves a navigation target to readable content.
	ReadItem(ctx context.Context, target string) (*Article, error)
}
