package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jarv/justread/internal/discovery"
	"github.com/jarv/justread/internal/home"
)

// fakeServer answers GraphQL operations by name with canned JSON.
type fakeServer struct {
	*httptest.Server
	responses map[string]string
	lastVars  map[string]json.RawMessage
	calls     atomic.Int32
}

func newFakeServer(t *testing.T, responses map[string]string) *fakeServer {
	t.Helper()
	fs := &fakeServer{responses: responses}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.calls.Add(1)
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req struct {
			OperationName string                     `json:"operationName"`
			Variables     map[string]json.RawMessage `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		fs.lastVars = req.Variables
		body, ok := fs.responses[req.OperationName]
		if !ok {
			http.Error(w, "unknown operation", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fakeServer) client(opts ...Option) *Client {
	opts = append([]Option{WithHTTPClient(fs.Client()), WithRateLimit(0)}, opts...)
	return NewClient(fs.URL, "secret", opts...)
}

const homeResponse = `{"data":{"home":{"__typename":"HomeSuccess","edges":[
 {"node":{"title":"Just Added","layout":"just_added","items":[
  {"id":"1","title":"Fresh","url":"https://example.com/fresh","date":"2026-03-02T11:00:00Z","slug":"fresh",
   "source":{"id":"sub-1","name":"Daily","type":"NEWSLETTER","icon":"https://example.com/icon.png"}}]}},
 {"node":{"title":"Mystery","layout":"carousel","items":[]}},
 {"node":{"title":"Hidden","layout":"hidden","items":[]}}
]}}}`

func TestGetHomeItems(t *testing.T) {
	fs := newFakeServer(t, map[string]string{"GetHomeItems": homeResponse})

	sections, err := fs.client().GetHomeItems(context.Background())
	require.NoError(t, err)
	require.Len(t, sections, 3)

	assert.Equal(t, home.LayoutJustAdded, sections[0].Layout)
	require.Len(t, sections[0].Items, 1)
	item := sections[0].Items[0]
	assert.Equal(t, "Fresh", item.Title)
	assert.Equal(t, home.SourceNewsletter, item.Source.Type)
	assert.True(t, item.Date.Equal(time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC)))

	assert.Equal(t, home.LayoutUnknown, sections[1].Layout)
	assert.Equal(t, "carousel", sections[1].Tag)
	assert.Equal(t, home.LayoutHidden, sections[2].Layout)
}

func TestHomeErrorArm(t *testing.T) {
	fs := newFakeServer(t, map[string]string{
		"GetHomeItems": `{"data":{"home":{"__typename":"HomeError","errorCodes":["UNAUTHORIZED"]}}}`,
	})

	_, err := fs.client().GetHomeItems(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)

	var resultErr *ResultError
	require.ErrorAs(t, err, &resultErr)
	assert.Equal(t, []string{"UNAUTHORIZED"}, resultErr.Codes)
}

func TestUnauthorizedStatus(t *testing.T) {
	fs := newFakeServer(t, nil)
	c := NewClient(fs.URL, "wrong", WithHTTPClient(fs.Client()))

	_, err := c.GetHomeItems(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestGraphQLErrors(t *testing.T) {
	fs := newFakeServer(t, map[string]string{
		"GetSubscriptions": `{"data":null,"errors":[{"message":"boom"}]}`,
	})

	_, err := fs.client().GetSubscriptions(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestGetHiddenHomeSection(t *testing.T) {
	tests := []struct {
		name     string
		response string
		wantNil  bool
		wantLen  int
	}{
		{
			name: "loaded",
			response: `{"data":{"hiddenHomeSection":{"__typename":"HiddenHomeSectionSuccess","section":
				{"title":"Hidden","layout":"hidden","items":[{"id":"9","title":"Muted","source":{"type":"RSS"}}]}}}}`,
			wantLen: 1,
		},
		{
			name:     "absent",
			response: `{"data":{"hiddenHomeSection":{"__typename":"HiddenHomeSectionSuccess","section":null}}}`,
			wantNil:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newFakeServer(t, map[string]string{"GetHiddenHomeSection": tt.response})
			section, err := fs.client().GetHiddenHomeSection(context.Background())
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, section)
				return
			}
			require.NotNil(t, section)
			assert.Len(t, section.Items, tt.wantLen)
		})
	}
}

func TestGetSubscription(t *testing.T) {
	fs := newFakeServer(t, map[string]string{
		"GetSubscription": `{"data":{"subscription":{"__typename":"SubscriptionSuccess","subscription":
			{"id":"sub-1","name":"Daily","status":"ACTIVE","description":"Every day","type":"NEWSLETTER"}}}}`,
	})

	sub, err := fs.client().GetSubscription(context.Background(), "sub-1")
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, "Daily", sub.Name)
	assert.True(t, sub.IsActive())
	assert.JSONEq(t, `"sub-1"`, string(fs.lastVars["id"]))

	fs.responses["GetSubscription"] = `{"data":{"subscription":{"__typename":"SubscriptionError","errorCodes":["NOT_FOUND"]}}}`
	sub, err = fs.client().GetSubscription(context.Background(), "gone")
	require.NoError(t, err)
	assert.Nil(t, sub)
}

func TestSendHomeFeedback(t *testing.T) {
	fs := newFakeServer(t, map[string]string{
		"SendHomeFeedback": `{"data":{"sendHomeFeedback":{"__typename":"SendHomeFeedbackSuccess","message":"ok"}}}`,
	})
	c := fs.client()
	ctx := context.Background()

	ok, err := c.SendHomeFeedback(ctx, home.FeedbackInput{FeedbackType: home.FeedbackMore, Subscription: "Daily"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"feedbackType":"MORE","subscription":"Daily"}`, string(fs.lastVars["input"]))

	fs.responses["SendHomeFeedback"] = `{"data":{"sendHomeFeedback":{"__typename":"SendHomeFeedbackError","errorCodes":["BAD_REQUEST"]}}}`
	ok, err = c.SendHomeFeedback(ctx, home.FeedbackInput{FeedbackType: home.FeedbackLess, Site: "example.com"})
	require.NoError(t, err)
	assert.False(t, ok)

	// Invalid input never reaches the server.
	before := fs.calls.Load()
	ok, err = c.SendHomeFeedback(ctx, home.FeedbackInput{FeedbackType: home.FeedbackLess})
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Equal(t, before, fs.calls.Load())
}

func TestReadItem(t *testing.T) {
	fs := newFakeServer(t, map[string]string{
		"GetArticle": `{"data":{"article":{"__typename":"ArticleSuccess","article":
			{"title":"Essay","url":"https://example.com/essay","author":"Ann","content":"<p>hi</p>","publishedAt":"2026-01-01T00:00:00Z"}}}}`,
	})

	article, err := fs.client().ReadItem(context.Background(), home.SlugPath("essay-1"))
	require.NoError(t, err)
	assert.Equal(t, "Essay", article.Title)
	assert.JSONEq(t, `"essay-1"`, string(fs.lastVars["slug"]))

	fs.responses["GetArticle"] = `{"data":{"article":{"__typename":"ArticleError","errorCodes":["NOT_FOUND"]}}}`
	_, err = fs.client().ReadItem(context.Background(), home.SlugPath("missing"))
	assert.ErrorIs(t, err, home.ErrNotFound)

	_, err = fs.client().ReadItem(context.Background(), "https://example.com/elsewhere")
	assert.ErrorIs(t, err, home.ErrNotFound)
}

func TestReadItemFallsBackToPageFetcher(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Live page</title></head><body>text</body></html>`))
	}))
	defer page.Close()

	fs := newFakeServer(t, nil)
	c := fs.client(WithPageFetcher(discovery.New(page.Client())))

	article, err := c.ReadItem(context.Background(), page.URL+"/post")
	require.NoError(t, err)
	assert.Equal(t, "Live page", article.Title)
	assert.Equal(t, int32(0), fs.calls.Load())
}

func TestTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()

	c := NewClient(slow.URL, "secret", WithHTTPClient(slow.Client()), WithTimeout(50*time.Millisecond))
	_, err := c.GetHomeItems(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
