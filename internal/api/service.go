package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jarv/justread/internal/discovery"
	"github.com/jarv/justread/internal/home"
	"github.com/jarv/justread/internal/logging"
)

// PageFetcher loads an arbitrary web page.
type PageFetcher interface {
	FetchPage(ctx context.Context, rawURL string) (*discovery.Page, error)
}

var _ home.Service = (*Client)(nil)

func (c *Client) GetHomeItems(ctx context.Context) ([]home.Section, error) {
	var data struct {
		Home struct {
			result
			Edges []struct {
				Node sectionNode `json:"node"`
			} `json:"edges"`
		} `json:"home"`
	}
	if err := c.do(ctx, "GetHomeItems", homeQuery, nil, &data); err != nil {
		return nil, err
	}
	if err := data.Home.err("home"); err != nil {
		return nil, err
	}

	sections := make([]home.Section, len(data.Home.Edges))
	for i, edge := range data.Home.Edges {
		sections[i] = edge.Node.toHome()
	}
	return sections, nil
}

func (c *Client) GetHiddenHomeSection(ctx context.Context) (*home.Section, error) {
	var data struct {
		Hidden struct {
			result
			Section *sectionNode `json:"section"`
		} `json:"hiddenHomeSection"`
	}
	if err := c.do(ctx, "GetHiddenHomeSection", hiddenHomeSectionQuery, nil, &data); err != nil {
		return nil, err
	}
	if err := data.Hidden.err("hiddenHomeSection"); err != nil {
		return nil, err
	}
	if data.Hidden.Section == nil {
		return nil, nil
	}
	section := data.Hidden.Section.toHome()
	return &section, nil
}

// GetSubscription returns nil without error when the server reports the
// subscription as not found.
func (c *Client) GetSubscription(ctx context.Context, sourceID string) (*home.Subscription, error) {
	var data struct {
		Subscription struct {
			result
			Subscription *subscriptionNode `json:"subscription"`
		} `json:"subscription"`
	}
	vars := map[string]any{"id": sourceID}
	if err := c.do(ctx, "GetSubscription", subscriptionQuery, vars, &data); err != nil {
		return nil, err
	}
	if err := data.Subscription.err("subscription"); err != nil {
		if errors.Is(err, home.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if data.Subscription.Subscription == nil {
		return nil, nil
	}
	sub := data.Subscription.Subscription.toHome()
	return &sub, nil
}

func (c *Client) GetSubscriptions(ctx context.Context) ([]home.Subscription, error) {
	var data struct {
		Subscriptions struct {
			result
			Subscriptions []subscriptionNode `json:"subscriptions"`
		} `json:"subscriptions"`
	}
	if err := c.do(ctx, "GetSubscriptions", subscriptionsQuery, nil, &data); err != nil {
		return nil, err
	}
	if err := data.Subscriptions.err("subscriptions"); err != nil {
		return nil, err
	}
	subs := make([]home.Subscription, len(data.Subscriptions.Subscriptions))
	for i, s := range data.Subscriptions.Subscriptions {
		subs[i] = s.toHome()
	}
	return subs, nil
}

// SendHomeFeedback reports false without an error when the server answers
// with the error arm of the result union.
func (c *Client) SendHomeFeedback(ctx context.Context, input home.FeedbackInput) (bool, error) {
	if err := input.Validate(); err != nil {
		return false, err
	}
	var data struct {
		SendHomeFeedback struct {
			result
			Message string `json:"message"`
		} `json:"sendHomeFeedback"`
	}
	vars := map[string]any{"input": input}
	if err := c.do(ctx, "SendHomeFeedback", sendHomeFeedbackMutation, vars, &data); err != nil {
		return false, err
	}
	if err := data.SendHomeFeedback.err("sendHomeFeedback"); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return false, err
		}
		logging.Warn("Home feedback rejected", "error", err)
		return false, nil
	}
	return true, nil
}

// ReadItem loads an article by reader path. Plain URLs go to the page
// fetcher when one is configured.
func (c *Client) ReadItem(ctx context.Context, target string) (*home.Article, error) {
	slug, ok := home.SlugFromTarget(target)
	if !ok {
		return c.readURL(ctx, target)
	}

	var data struct {
		Article struct {
			result
			Article *articleNode `json:"article"`
		} `json:"article"`
	}
	vars := map[string]any{"username": "me", "slug": slug, "format": "html"}
	if err := c.do(ctx, "GetArticle", articleQuery, vars, &data); err != nil {
		return nil, err
	}
	if err := data.Article.err("article"); err != nil {
		return nil, err
	}
	if data.Article.Article == nil {
		return nil, fmt.Errorf("%w: %s", home.ErrNotFound, target)
	}
	return data.Article.Article.toHome(), nil
}

func (c *Client) readURL(ctx context.Context, target string) (*home.Article, error) {
	if c.pages == nil || !(strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")) {
		return nil, fmt.Errorf("%w: %s", home.ErrNotFound, target)
	}
	page, err := c.pages.FetchPage(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", target, err)
	}
	return &home.Article{
		Title:   page.Metadata.Title,
		URL:     page.URL,
		Author:  page.Metadata.SiteName,
		Content: page.HTML,
	}, nil
}
