package local

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/ynput/ayon-jira/pkg/logging"
)

const tasksPageSize = 100

// AyonConfig configures an AyonClient.
type AyonConfig struct {
	Server string
	// APIKey is sent as X-Api-Key. Token, when set instead, is sent as a
	// bearer token.
	APIKey string
	Token  string

	HTTPClient *http.Client
}

// HTTPError is a non-2xx response from the AYON server.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("ayon %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// AyonClient implements Store against the AYON server: reads go through
// GraphQL, writes through the REST API.
type AyonClient struct {
	cfg  AyonConfig
	base *url.URL
	http *http.Client
}

// NewAyonClient creates a client.
func NewAyonClient(cfg AyonConfig) (*AyonClient, error) {
	if cfg.Server == "" {
		return nil, errors.New("ayon server URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.Server, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid ayon server URL: %w", err)
	}
	if cfg.APIKey == "" && cfg.Token == "" {
		return nil, errors.New("ayon API key or token is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}))
	}
	return &AyonClient{cfg: cfg, base: base, http: httpClient}, nil
}

const folderByPathQuery = `query FolderByPath($projectName: String!, $paths: [String!]) {
  project(name: $projectName) {
    folders(paths: $paths) {
      edges { node { id name path } }
    }
  }
}`

const tasksQuery = `query FolderTasks($projectName: String!, $folderIds: [String!], $first: Int, $after: String) {
  project(name: $projectName) {
    tasks(folderIds: $folderIds, first: $first, after: $after) {
      pageInfo { hasNextPage endCursor }
      edges { node { id name taskType folderId data } }
    }
  }
}`

// GetContainerByPath implements Store.
func (c *AyonClient) GetContainerByPath(ctx context.Context, projectName, path string) (*Container, error) {
	path = NormalizePath(path)
	var resp struct {
		Project *struct {
			Folders struct {
				Edges []struct {
					Node struct {
						ID   string `json:"id"`
						Name string `json:"name"`
						Path string `json:"path"`
					} `json:"node"`
				} `json:"edges"`
			} `json:"folders"`
		} `json:"project"`
	}
	err := c.graphql(ctx, folderByPathQuery, map[string]any{
		"projectName": projectName,
		"paths":       []string{path},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Project == nil {
		return nil, fmt.Errorf("project %s: %w", projectName, ErrNotFound)
	}
	for _, edge := range resp.Project.Folders.Edges {
		if NormalizePath(edge.Node.Path) == path {
			return &Container{ID: edge.Node.ID, Name: edge.Node.Name, Path: path}, nil
		}
	}
	return nil, fmt.Errorf("folder %s: %w", path, ErrNotFound)
}

// ListTasks implements Store.
func (c *AyonClient) ListTasks(ctx context.Context, projectName, containerID string) ([]Task, error) {
	var tasks []Task
	var after *string
	for {
		var resp struct {
			Project *struct {
				Tasks struct {
					PageInfo struct {
						HasNextPage bool   `json:"hasNextPage"`
						EndCursor   string `json:"endCursor"`
					} `json:"pageInfo"`
					Edges []struct {
						Node struct {
							ID       string          `json:"id"`
							Name     string          `json:"name"`
							TaskType string          `json:"taskType"`
							FolderID string          `json:"folderId"`
							Data     json.RawMessage `json:"data"`
						} `json:"node"`
					} `json:"edges"`
				} `json:"tasks"`
			} `json:"project"`
		}
		err := c.graphql(ctx, tasksQuery, map[string]any{
			"projectName": projectName,
			"folderIds":   []string{containerID},
			"first":       tasksPageSize,
			"after":       after,
		}, &resp)
		if err != nil {
			return nil, err
		}
		if resp.Project == nil {
			return nil, fmt.Errorf("project %s: %w", projectName, ErrNotFound)
		}

		for _, edge := range resp.Project.Tasks.Edges {
			data, err := decodeTaskData(edge.Node.Data)
			if err != nil {
				return nil, fmt.Errorf("task %s: %w", edge.Node.ID, err)
			}
			tasks = append(tasks, Task{
				ID:          edge.Node.ID,
				Name:        edge.Node.Name,
				TaskType:    edge.Node.TaskType,
				ContainerID: edge.Node.FolderID,
				Data:        data,
			})
		}

		page := resp.Project.Tasks.PageInfo
		if !page.HasNextPage || page.EndCursor == "" {
			break
		}
		cursor := page.EndCursor
		after = &cursor
	}
	return tasks, nil
}

// decodeTaskData accepts task data either as an object or as a JSON encoded
// string, which is how GraphQL returns it.
func decodeTaskData(raw json.RawMessage) (map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return map[string]any{}, nil
	}
	if raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return nil, err
		}
		if encoded == "" {
			return map[string]any{}, nil
		}
		raw = json.RawMessage(encoded)
	}
	data := map[string]any{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("invalid task data: %w", err)
	}
	return data, nil
}

// CreateTask implements Store.
func (c *AyonClient) CreateTask(ctx context.Context, projectName, name, taskType, containerID string, data map[string]any) (string, error) {
	id := NewEntityID()
	body := map[string]any{
		"id":       id,
		"name":     name,
		"taskType": taskType,
		"folderId": containerID,
		"data":     data,
	}
	if _, err := c.rest(ctx, http.MethodPost, "/api/projects/"+projectName+"/tasks", body); err != nil {
		return "", err
	}
	logging.Debug("Ayon", "Created task %s (%s) in folder %s", name, id, containerID)
	return id, nil
}

// UpdateTask implements Store.
func (c *AyonClient) UpdateTask(ctx context.Context, projectName, taskID string, data map[string]any) error {
	body := map[string]any{"data": data}
	if _, err := c.rest(ctx, http.MethodPatch, "/api/projects/"+projectName+"/tasks/"+taskID, body); err != nil {
		return err
	}
	logging.Debug("Ayon", "Updated task %s", taskID)
	return nil
}

func (c *AyonClient) graphql(ctx context.Context, query string, variables map[string]any, out any) error {
	data, err := c.rest(ctx, http.MethodPost, "/graphql", map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return err
	}

	var resp struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors,omitempty"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("failed to parse graphql response: %w", err)
	}
	if len(resp.Errors) > 0 {
		msgs := make([]string, len(resp.Errors))
		for i, e := range resp.Errors {
			msgs[i] = e.Message
		}
		return fmt.Errorf("graphql errors: %s", strings.Join(msgs, "; "))
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to decode graphql data: %w", err)
	}
	return nil
}

func (c *AyonClient) rest(ctx context.Context, method, path string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	u := *c.base
	u.Path = c.base.Path + path

	req, err := http.NewRequestWithContext(ctx, method, u.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// Bearer tokens are added by the oauth2 transport.
	if c.cfg.Token == "" {
		req.Header.Set("X-Api-Key", c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ayon %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read ayon response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}
