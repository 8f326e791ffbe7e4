package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/ynput/ayon-jira/pkg/logging"
)

const (
	// DefaultMaxAttempts is the number of attempts for rate limited calls.
	DefaultMaxAttempts = 3
	// DefaultRetryDelay is the first backoff delay after a 429 response.
	DefaultRetryDelay = time.Second
	// searchPageSize is the maxResults used for paginated searches.
	searchPageSize = 100
)

// FieldIDs maps the logical custom fields to Jira field identifiers.
type FieldIDs struct {
	CustomID  string
	LocalTask string
	Component string
}

// JiraConfig configures a JiraClient.
type JiraConfig struct {
	Server   string
	Username string
	Password string
	// Token, when set, is sent as an OAuth2 bearer token instead of basic auth.
	Token string

	Fields    FieldIDs
	IssueType string
	EpicType  string

	MaxAttempts int
	RetryDelay  time.Duration

	// HTTPClient overrides the transport. Mostly useful in tests.
	HTTPClient *http.Client
}

// HTTPError is a non-2xx response from the Jira API.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("jira %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// JiraClient implements Tracker and LinkLister against the Jira REST API v2.
type JiraClient struct {
	cfg  JiraConfig
	base *url.URL
	http *http.Client
}

// NewJiraClient creates a client. Credentials are taken from cfg only.
func NewJiraClient(cfg JiraConfig) (*JiraClient, error) {
	if cfg.Server == "" {
		return nil, errors.New("jira server URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.Server, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid jira server URL: %w", err)
	}
	if cfg.Fields.CustomID == "" {
		return nil, errors.New("jira custom ID field is required")
	}
	if cfg.IssueType == "" {
		cfg.IssueType = "Task"
	}
	if cfg.EpicType == "" {
		cfg.EpicType = "Epic"
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}))
	}

	return &JiraClient{cfg: cfg, base: base, http: httpClient}, nil
}

// FindEpics implements Tracker.
func (c *JiraClient) FindEpics(ctx context.Context, projectCode string, filter Filter) ([]Issue, error) {
	return c.search(ctx, projectCode, c.cfg.EpicType, filter)
}

// FindIssues implements Tracker.
func (c *JiraClient) FindIssues(ctx context.Context, projectCode string, filter Filter) ([]Issue, error) {
	return c.search(ctx, projectCode, c.cfg.IssueType, filter)
}

// CreateEpic implements Tracker.
func (c *JiraClient) CreateEpic(ctx context.Context, projectCode string, fields Fields) (string, error) {
	fields = fields.Clone()
	fields[FieldIssueType] = c.cfg.EpicType
	return c.create(ctx, projectCode, fields)
}

// CreateIssue implements Tracker.
func (c *JiraClient) CreateIssue(ctx context.Context, projectCode string, fields Fields) (string, error) {
	fields = fields.Clone()
	if fields[FieldIssueType] == "" {
		fields[FieldIssueType] = c.cfg.IssueType
	}
	return c.create(ctx, projectCode, fields)
}

// UpdateIssue implements Tracker.
func (c *JiraClient) UpdateIssue(ctx context.Context, key string, fields Fields) error {
	body := map[string]any{"fields": c.encodeFields(fields)}
	_, err := c.do(ctx, http.MethodPut, "/rest/api/2/issue/"+key, nil, body)
	if err != nil {
		return err
	}
	logging.Debug("Jira", "Updated %s (%d fields)", key, len(fields))
	return nil
}

// CreateLink implements Tracker. The current issue is the inward side and
// the referenced issue the outward side.
func (c *JiraClient) CreateLink(ctx context.Context, linkType, fromKey, toKey string) error {
	body := map[string]any{
		"type":         map[string]string{"name": linkType},
		"inwardIssue":  map[string]string{"key": fromKey},
		"outwardIssue": map[string]string{"key": toKey},
	}
	if _, err := c.do(ctx, http.MethodPost, "/rest/api/2/issueLink", nil, body); err != nil {
		return err
	}
	logging.Debug("Jira", "Linked %s -[%s]-> %s", fromKey, linkType, toKey)
	return nil
}

// ListLinks implements LinkLister.
func (c *JiraClient) ListLinks(ctx context.Context, key string) ([]Link, error) {
	query := url.Values{"fields": {"issuelinks"}}
	data, err := c.do(ctx, http.MethodGet, "/rest/api/2/issue/"+key, query, nil)
	if err != nil {
		return nil, err
	}

	type ref struct {
		Key string `json:"key"`
	}
	var resp struct {
		Fields struct {
			IssueLinks []struct {
				Type struct {
					Name string `json:"name"`
				} `json:"type"`
				InwardIssue  *ref `json:"inwardIssue"`
				OutwardIssue *ref `json:"outwardIssue"`
			} `json:"issuelinks"`
		} `json:"fields"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse links of %s: %w", key, err)
	}

	links := make([]Link, 0, len(resp.Fields.IssueLinks))
	for _, l := range resp.Fields.IssueLinks {
		switch {
		case l.OutwardIssue != nil:
			links = append(links, Link{Type: l.Type.Name, From: key, To: l.OutwardIssue.Key})
		case l.InwardIssue != nil:
			links = append(links, Link{Type: l.Type.Name, From: l.InwardIssue.Key, To: key})
		}
	}
	return links, nil
}

func (c *JiraClient) create(ctx context.Context, projectCode string, fields Fields) (string, error) {
	encoded := c.encodeFields(fields)
	encoded["project"] = map[string]string{"key": projectCode}

	data, err := c.do(ctx, http.MethodPost, "/rest/api/2/issue", nil, map[string]any{"fields": encoded})
	if err != nil {
		return "", err
	}
	var created struct {
		ID  string `json:"id"`
		Key string `json:"key"`
	}
	if err := json.Unmarshal(data, &created); err != nil {
		return "", fmt.Errorf("failed to parse created issue: %w", err)
	}
	if created.Key == "" {
		return "", errors.New("jira returned no key for created issue")
	}
	logging.Debug("Jira", "Created %s %s (%s)", fields[FieldIssueType], created.Key, fields[FieldSummary])
	return created.Key, nil
}

func (c *JiraClient) search(ctx context.Context, projectCode, issueType string, filter Filter) ([]Issue, error) {
	match, err := filter.Compile()
	if err != nil {
		return nil, err
	}
	jql := c.renderJQL(projectCode, issueType, filter)

	requested := []string{"summary", "description", "issuetype", "parent", c.cfg.Fields.CustomID}
	if c.cfg.Fields.LocalTask != "" {
		requested = append(requested, c.cfg.Fields.LocalTask)
	}
	if c.cfg.Fields.Component != "" {
		requested = append(requested, c.cfg.Fields.Component)
	}

	var issues []Issue
	for startAt := 0; ; {
		query := url.Values{
			"jql":        {jql},
			"startAt":    {strconv.Itoa(startAt)},
			"maxResults": {strconv.Itoa(searchPageSize)},
			"fields":     {strings.Join(requested, ",")},
		}
		data, err := c.do(ctx, http.MethodGet, "/rest/api/2/search", query, nil)
		if err != nil {
			return nil, err
		}

		var page struct {
			StartAt    int `json:"startAt"`
			MaxResults int `json:"maxResults"`
			Total      int `json:"total"`
			Issues     []struct {
				Key    string                     `json:"key"`
				Fields map[string]json.RawMessage `json:"fields"`
			} `json:"issues"`
		}
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, fmt.Errorf("failed to parse search response: %w", err)
		}

		for _, raw := range page.Issues {
			issue := Issue{Key: raw.Key, Fields: c.decodeFields(raw.Fields)}
			if match(issue.Fields) {
				issues = append(issues, issue)
			}
		}

		startAt += len(page.Issues)
		if len(page.Issues) == 0 || startAt >= page.Total {
			break
		}
	}

	logging.Debug("Jira", "Search %q returned %d matching issues", jql, len(issues))
	return issues, nil
}

// renderJQL approximates filter in JQL. Wildcard clauses become text searches
// on their literal prefix; results are re-checked with the exact predicate.
func (c *JiraClient) renderJQL(projectCode, issueType string, filter Filter) string {
	clauses := []string{
		"project = " + jqlQuote(projectCode),
		"issuetype = " + jqlQuote(issueType),
	}
	for _, cl := range filter {
		field := c.jqlField(cl.Field)
		if field == "" {
			continue
		}
		switch cl.Op {
		case OpEq:
			clauses = append(clauses, field+" = "+jqlQuote(cl.Value))
		case OpMatch:
			if prefix := literalPrefix(cl.Value); prefix != "" {
				clauses = append(clauses, field+" ~ "+jqlQuote(prefix+"*"))
			}
		}
	}
	return strings.Join(clauses, " AND ") + " ORDER BY key ASC"
}

func (c *JiraClient) jqlField(f Field) string {
	switch f {
	case FieldSummary:
		return "summary"
	case FieldDescription:
		return "description"
	case FieldIssueType:
		return "issuetype"
	case FieldParent:
		return "parent"
	case FieldScopeTag:
		return customFieldJQL(c.cfg.Fields.CustomID)
	case FieldLocalTask:
		return customFieldJQL(c.cfg.Fields.LocalTask)
	case FieldComponent:
		return customFieldJQL(c.cfg.Fields.Component)
	}
	return ""
}

// customFieldJQL turns "customfield_10035" into "cf[10035]".
func customFieldJQL(id string) string {
	if n, ok := strings.CutPrefix(id, "customfield_"); ok {
		return "cf[" + n + "]"
	}
	return id
}

func jqlQuote(s string) string {
	return strconv.Quote(s)
}

func (c *JiraClient) encodeFields(fields Fields) map[string]any {
	out := make(map[string]any, len(fields))
	for f, v := range fields {
		switch f {
		case FieldIssueType:
			out["issuetype"] = map[string]string{"name": v}
		case FieldSummary:
			out["summary"] = v
		case FieldDescription:
			out["description"] = v
		case FieldParent:
			if v != "" {
				out["parent"] = map[string]string{"key": v}
			}
		case FieldScopeTag:
			out[c.cfg.Fields.CustomID] = v
		case FieldLocalTask:
			if c.cfg.Fields.LocalTask != "" {
				out[c.cfg.Fields.LocalTask] = v
			}
		case FieldComponent:
			if c.cfg.Fields.Component != "" {
				out[c.cfg.Fields.Component] = v
			}
		}
	}
	return out
}

func (c *JiraClient) decodeFields(raw map[string]json.RawMessage) Fields {
	fields := Fields{}
	str := func(key string) (string, bool) {
		v, ok := raw[key]
		if !ok || string(v) == "null" {
			return "", false
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return "", false
		}
		return s, true
	}
	named := func(key, attr string) (string, bool) {
		v, ok := raw[key]
		if !ok {
			return "", false
		}
		var obj map[string]any
		if err := json.Unmarshal(v, &obj); err != nil || obj == nil {
			return "", false
		}
		s, ok := obj[attr].(string)
		return s, ok
	}

	if s, ok := str("summary"); ok {
		fields[FieldSummary] = s
	}
	if s, ok := str("description"); ok {
		fields[FieldDescription] = s
	}
	if s, ok := named("issuetype", "name"); ok {
		fields[FieldIssueType] = s
	}
	if s, ok := named("parent", "key"); ok {
		fields[FieldParent] = s
	}
	if s, ok := str(c.cfg.Fields.CustomID); ok {
		fields[FieldScopeTag] = s
	}
	if c.cfg.Fields.LocalTask != "" {
		if s, ok := str(c.cfg.Fields.LocalTask); ok {
			fields[FieldLocalTask] = s
		}
	}
	if c.cfg.Fields.Component != "" {
		if s, ok := str(c.cfg.Fields.Component); ok {
			fields[FieldComponent] = s
		} else if s, ok := named(c.cfg.Fields.Component, "value"); ok {
			fields[FieldComponent] = s
		}
	}
	return fields
}

// do sends a request and returns the response body. Rate limited responses
// are retried with exponential backoff; any other failure is returned as is.
func (c *JiraClient) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	u := *c.base
	u.Path = c.base.Path + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, u.String(), bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.cfg.Token == "" && c.cfg.Username != "" {
			req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("jira %s %s: %w", method, path, err)
		}
		respBody, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read jira response: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = &HTTPError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(respBody)}
			if attempt == c.cfg.MaxAttempts-1 {
				break
			}
			delay := c.cfg.RetryDelay * time.Duration(1<<attempt)
			logging.Warn("Jira", "Rate limited on %s %s (attempt %d/%d), retrying after %v",
				method, path, attempt+1, c.cfg.MaxAttempts, delay)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
				continue
			}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &HTTPError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(respBody)}
		}
		return respBody, nil
	}

	return nil, fmt.Errorf("max attempts (%d) exceeded: %w", c.cfg.MaxAttempts, lastErr)
}
