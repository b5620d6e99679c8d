package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jarv/justread/internal/home"
)

// ResultError is the Error arm of a Success/Error result union.
type ResultError struct {
	Operation string
	Codes     []string
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Operation, strings.Join(e.Codes, ", "))
}

// Is maps well-known error codes onto sentinel errors.
func (e *ResultError) Is(target error) bool {
	for _, code := range e.Codes {
		switch {
		case code == "UNAUTHORIZED" && target == ErrUnauthorized:
			return true
		case code == "NOT_FOUND" && target == home.ErrNotFound:
			return true
		}
	}
	return false
}

// result decodes any `... on XSuccess` / `... on XError` union. The success
// payload fields are embedded by the caller.
type result struct {
	Typename   string   `json:"__typename"`
	ErrorCodes []string `json:"errorCodes"`
}

func (r result) err(op string) error {
	if strings.HasSuffix(r.Typename, "Error") || len(r.ErrorCodes) > 0 {
		return &ResultError{Operation: op, Codes: r.ErrorCodes}
	}
	if r.Typename == "" {
		return errors.New(op + ": missing result type")
	}
	return nil
}

type sourceNode struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
	Icon string `json:"icon"`
	Type string `json:"type"`
}

type itemNode struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	URL            string     `json:"url"`
	Date           string     `json:"date"`
	Thumbnail      string     `json:"thumbnail"`
	PreviewContent string     `json:"previewContent"`
	Slug           string     `json:"slug"`
	Source         sourceNode `json:"source"`
}

type sectionNode struct {
	Title  string     `json:"title"`
	Layout string     `json:"layout"`
	Items  []itemNode `json:"items"`
}

type subscriptionNode struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	Description string `json:"description"`
	Type        string `json:"type"`
	URL         string `json:"url"`
	Icon        string `json:"icon"`
}

type articleNode struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Author      string `json:"author"`
	Content     string `json:"content"`
	PublishedAt string `json:"publishedAt"`
	SavedAt     string `json:"savedAt"`
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (n itemNode) toHome() home.Item {
	return home.Item{
		ID:             n.ID,
		Title:          n.Title,
		URL:            n.URL,
		Date:           parseTime(n.Date),
		Thumbnail:      n.Thumbnail,
		PreviewContent: n.PreviewContent,
		Slug:           n.Slug,
		Source: home.Source{
			Type: home.ParseSourceType(n.Source.Type),
			ID:   n.Source.ID,
			Name: n.Source.Name,
			Icon: n.Source.Icon,
		},
	}
}

func (n sectionNode) toHome() home.Section {
	items := make([]home.Item, len(n.Items))
	for i, it := range n.Items {
		items[i] = it.toHome()
	}
	return home.NewSection(n.Layout, n.Title, items)
}

func (n subscriptionNode) toHome() home.Subscription {
	return home.Subscription{
		ID:          n.ID,
		Name:        n.Name,
		Status:      home.SubscriptionStatus(n.Status),
		Description: n.Description,
		Type:        home.ParseSourceType(n.Type),
		URL:         n.URL,
		Icon:        n.Icon,
	}
}

func (n articleNode) toHome() *home.Article {
	date := parseTime(n.PublishedAt)
	if date.IsZero() {
		date = parseTime(n.SavedAt)
	}
	return &home.Article{
		Title:   n.Title,
		URL:     n.URL,
		Author:  n.Author,
		Content: n.Content,
		Date:    date,
	}
}
