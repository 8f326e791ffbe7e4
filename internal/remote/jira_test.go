package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  map[string][]string
	Body   map[string]any
	Auth   string
	User   string
}

type fakeJira struct {
	t        *testing.T
	mu       sync.Mutex
	requests []recordedRequest
	handler  func(w http.ResponseWriter, r *http.Request, body map[string]any)
}

func newFakeJira(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, body map[string]any)) (*fakeJira, *httptest.Server) {
	f := &fakeJira{t: t, handler: handler}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			require.NoError(t, json.Unmarshal(data, &body))
		}
		user, _, _ := r.BasicAuth()
		f.mu.Lock()
		f.requests = append(f.requests, recordedRequest{
			Method: r.Method, Path: r.URL.Path, Query: r.URL.Query(), Body: body,
			Auth: r.Header.Get("Authorization"), User: user,
		})
		f.mu.Unlock()
		f.handler(w, r, body)
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeJira) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func testJiraConfig(server string) JiraConfig {
	return JiraConfig{
		Server:   server,
		Username: "bot@example.com",
		Password: "secret",
		Fields: FieldIDs{
			CustomID:  "customfield_10035",
			LocalTask: "customfield_10033",
			Component: "customfield_10034",
		},
		RetryDelay: time.Millisecond,
	}
}

func TestNewJiraClient_Validation(t *testing.T) {
	_, err := NewJiraClient(JiraConfig{})
	assert.Error(t, err)

	_, err = NewJiraClient(JiraConfig{Server: "https://jira.example.com"})
	assert.Error(t, err, "custom ID field is required")
}

func TestJiraClient_FindIssues(t *testing.T) {
	issue := func(key, tag string) map[string]any {
		return map[string]any{
			"key": key,
			"fields": map[string]any{
				"summary":           "Rig",
				"description":       nil,
				"issuetype":         map[string]any{"name": "Task"},
				"parent":            map[string]any{"key": "KAN-1"},
				"customfield_10035": tag,
				"customfield_10034": map[string]any{"value": "Rigging"},
			},
		}
	}

	fake, srv := newFakeJira(t, func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
		startAt, _ := strconv.Atoi(r.URL.Query().Get("startAt"))
		var page []map[string]any
		switch startAt {
		case 0:
			page = []map[string]any{issue("KAN-2", "C1_RIG"), issue("KAN-3", "C10_RIG")}
		case 2:
			page = []map[string]any{issue("KAN-4", "C1_MDL")}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"startAt": startAt, "total": 3, "issues": page})
	})

	client, err := NewJiraClient(testJiraConfig(srv.URL))
	require.NoError(t, err)

	issues, err := client.FindIssues(context.Background(), "KAN", ScopeFilter("C1"))
	require.NoError(t, err)

	require.Len(t, issues, 2, "C10_RIG is filtered out locally")
	assert.Equal(t, "KAN-2", issues[0].Key)
	assert.Equal(t, "KAN-4", issues[1].Key)
	assert.Equal(t, Fields{
		FieldSummary:   "Rig",
		FieldIssueType: "Task",
		FieldParent:    "KAN-1",
		FieldScopeTag:  "C1_RIG",
		FieldComponent: "Rigging",
	}, issues[0].Fields)

	reqs := fake.recorded()
	require.Len(t, reqs, 2)
	assert.Equal(t, "/rest/api/2/search", reqs[0].Path)
	assert.Equal(t, `project = "KAN" AND issuetype = "Task" AND cf[10035] ~ "C1_*" ORDER BY key ASC`, reqs[0].Query["jql"][0])
	assert.Equal(t, "bot@example.com", reqs[0].User)
}

func TestJiraClient_CreateIssue(t *testing.T) {
	fake, srv := newFakeJira(t, func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"10001","key":"KAN-7"}`))
	})
	client, err := NewJiraClient(testJiraConfig(srv.URL))
	require.NoError(t, err)

	key, err := client.CreateIssue(context.Background(), "KAN", Fields{
		FieldSummary:   "Rig",
		FieldScopeTag:  "C1_RIG",
		FieldParent:    "KAN-1",
		FieldComponent: "Rigging",
	})
	require.NoError(t, err)
	assert.Equal(t, "KAN-7", key)

	reqs := fake.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "/rest/api/2/issue", reqs[0].Path)
	assert.Equal(t, map[string]any{
		"fields": map[string]any{
			"project":           map[string]any{"key": "KAN"},
			"issuetype":         map[string]any{"name": "Task"},
			"summary":           "Rig",
			"parent":            map[string]any{"key": "KAN-1"},
			"customfield_10035": "C1_RIG",
			"customfield_10034": "Rigging",
		},
	}, reqs[0].Body)
}

func TestJiraClient_CreateEpic(t *testing.T) {
	fake, srv := newFakeJira(t, func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
		_, _ = w.Write([]byte(`{"id":"10000","key":"KAN-1"}`))
	})
	client, err := NewJiraClient(testJiraConfig(srv.URL))
	require.NoError(t, err)

	key, err := client.CreateEpic(context.Background(), "KAN", Fields{FieldSummary: "Character1", FieldScopeTag: "C1_RIG"})
	require.NoError(t, err)
	assert.Equal(t, "KAN-1", key)

	fields := fake.recorded()[0].Body["fields"].(map[string]any)
	assert.Equal(t, map[string]any{"name": "Epic"}, fields["issuetype"])
}

func TestJiraClient_UpdateAndLink(t *testing.T) {
	fake, srv := newFakeJira(t, func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
		w.WriteHeader(http.StatusNoContent)
	})
	client, err := NewJiraClient(testJiraConfig(srv.URL))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, client.UpdateIssue(ctx, "KAN-2", Fields{FieldLocalTask: "abc"}))
	require.NoError(t, client.CreateLink(ctx, "Depends", "KAN-3", "KAN-2"))

	reqs := fake.recorded()
	require.Len(t, reqs, 2)
	assert.Equal(t, http.MethodPut, reqs[0].Method)
	assert.Equal(t, "/rest/api/2/issue/KAN-2", reqs[0].Path)
	assert.Equal(t, map[string]any{"fields": map[string]any{"customfield_10033": "abc"}}, reqs[0].Body)

	assert.Equal(t, "/rest/api/2/issueLink", reqs[1].Path)
	assert.Equal(t, map[string]any{
		"type":         map[string]any{"name": "Depends"},
		"inwardIssue":  map[string]any{"key": "KAN-3"},
		"outwardIssue": map[string]any{"key": "KAN-2"},
	}, reqs[1].Body)
}

func TestJiraClient_ListLinks(t *testing.T) {
	_, srv := newFakeJira(t, func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
		_, _ = w.Write([]byte(`{"fields":{"issuelinks":[
			{"type":{"name":"Depends"},"outwardIssue":{"key":"KAN-2"}},
			{"type":{"name":"Blocks"},"inwardIssue":{"key":"KAN-9"}}
		]}}`))
	})
	client, err := NewJiraClient(testJiraConfig(srv.URL))
	require.NoError(t, err)

	links, err := client.ListLinks(context.Background(), "KAN-3")
	require.NoError(t, err)
	assert.Equal(t, []Link{
		{Type: "Depends", From: "KAN-3", To: "KAN-2"},
		{Type: "Blocks", From: "KAN-9", To: "KAN-3"},
	}, links)
}

func TestJiraClient_RetriesRateLimit(t *testing.T) {
	calls := 0
	fake, srv := newFakeJira(t, func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	client, err := NewJiraClient(testJiraConfig(srv.URL))
	require.NoError(t, err)

	require.NoError(t, client.UpdateIssue(context.Background(), "KAN-2", Fields{FieldSummary: "x"}))
	assert.Len(t, fake.recorded(), 3)
}

func TestJiraClient_RateLimitExhausted(t *testing.T) {
	_, srv := newFakeJira(t, func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	client, err := NewJiraClient(testJiraConfig(srv.URL))
	require.NoError(t, err)

	err = client.UpdateIssue(context.Background(), "KAN-2", Fields{})
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
}

func TestJiraClient_NoBackoffAfterLastAttempt(t *testing.T) {
	fake, srv := newFakeJira(t, func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	cfg := testJiraConfig(srv.URL)
	cfg.MaxAttempts = 1
	cfg.RetryDelay = time.Hour
	client, err := NewJiraClient(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = client.UpdateIssue(ctx, "KAN-2", Fields{})

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr, "the rate limit is reported, not the deadline")
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
	assert.NotErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, fake.recorded(), 1)
}

func TestJiraClient_NoRetryOnServerError(t *testing.T) {
	fake, srv := newFakeJira(t, func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
		http.Error(w, "kaput", http.StatusInternalServerError)
	})
	client, err := NewJiraClient(testJiraConfig(srv.URL))
	require.NoError(t, err)

	_, err = client.CreateIssue(context.Background(), "KAN", Fields{FieldSummary: "x"})
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	assert.Len(t, fake.recorded(), 1)
}

func TestJiraClient_BearerToken(t *testing.T) {
	fake, srv := newFakeJira(t, func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
		w.WriteHeader(http.StatusNoContent)
	})
	cfg := testJiraConfig(srv.URL)
	cfg.Token = "pat-123"
	client, err := NewJiraClient(cfg)
	require.NoError(t, err)

	require.NoError(t, client.UpdateIssue(context.Background(), "KAN-2", Fields{}))
	req := fake.recorded()[0]
	assert.Equal(t, "Bearer pat-123", req.Auth)
	assert.Empty(t, req.User)
}
