package template

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Side selects one of the two documents of a template.
type Side string

const (
	// SideRemote is the issue tracker document: a flat list of items.
	SideRemote Side = "Jira"
	// SideLocal is the production tracking document: tasks keyed by name.
	SideLocal Side = "Ayon"
)

// Root keys of the two documents.
const (
	remoteRootKey = "jira_template"
	localRootKey  = "ayon_template"
	localTasksKey = "tasks"
)

// Reserved local item fields.
const (
	// FieldCurrentPhase is metadata and is never translated to a ticket key.
	FieldCurrentPhase = "current_phase"
	// FieldTaskType overrides the task category; it is not stored in task data.
	FieldTaskType = "task_type"
)

// RemoteItem is one entry of the remote-side document.
type RemoteItem struct {
	CustomID    string `json:"Custom ID"`
	EpicLink    string `json:"Epic Link"`
	Summary     string `json:"Summary"`
	Description string `json:"Description"`
	Component   string `json:"Component"`
	DependsOn   string `json:"Depends_On"`
	Unblocks    string `json:"Unblocks"`
}

// DependsOnIDs returns the trimmed, non-empty custom IDs of DependsOn.
func (i RemoteItem) DependsOnIDs() []string { return SplitRefs(i.DependsOn) }

// UnblocksIDs returns the trimmed, non-empty custom IDs of Unblocks.
func (i RemoteItem) UnblocksIDs() []string { return SplitRefs(i.Unblocks) }

// SplitRefs splits a comma separated reference list, trimming whitespace and
// dropping empty entries.
func SplitRefs(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	refs := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		refs = append(refs, part)
	}
	return refs
}

// LocalItem is one task definition of the local-side document.
type LocalItem struct {
	Name string
	// Keys preserves the field order of the document.
	Keys   []string
	Fields map[string]any
}

// Category returns the declared task category: the task_type field when
// present, otherwise the task name.
func (i LocalItem) Category() string {
	if v, ok := i.Fields[FieldTaskType].(string); ok && v != "" {
		return v
	}
	return i.Name
}

// LocalTemplate is the parsed local-side document.
type LocalTemplate struct {
	Tasks []LocalItem
}

// RemoteDocument is the parsed remote-side document.
type RemoteDocument struct {
	Items []RemoteItem
}

// CustomIDs returns the custom IDs of all items in document order.
func (d *RemoteDocument) CustomIDs() []string {
	ids := make([]string, 0, len(d.Items))
	for _, item := range d.Items {
		ids = append(ids, item.CustomID)
	}
	return ids
}

func decodeRemote(data []byte) (*RemoteDocument, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	raw, ok := root[remoteRootKey]
	if !ok {
		return nil, fmt.Errorf("missing %q root key", remoteRootKey)
	}

	var items []RemoteItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", remoteRootKey, err)
	}

	seen := make(map[string]bool, len(items))
	for i, item := range items {
		if item.CustomID == "" {
			return nil, fmt.Errorf("item %d has an empty Custom ID", i)
		}
		if seen[item.CustomID] {
			return nil, fmt.Errorf("duplicate Custom ID %q", item.CustomID)
		}
		seen[item.CustomID] = true
	}

	return &RemoteDocument{Items: items}, nil
}

func decodeLocal(data []byte) (*LocalTemplate, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	rawTemplate, ok := root[localRootKey]
	if !ok {
		return nil, fmt.Errorf("missing %q root key", localRootKey)
	}

	var sections map[string]json.RawMessage
	if err := json.Unmarshal(rawTemplate, &sections); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", localRootKey, err)
	}
	rawTasks, ok := sections[localTasksKey]
	if !ok || bytes.Equal(bytes.TrimSpace(rawTasks), []byte("null")) {
		return &LocalTemplate{}, nil
	}

	// Task order matters for deterministic create/update sequences, so the
	// tasks object is walked token by token instead of decoded into a map.
	names, values, err := orderedObject(rawTasks)
	if err != nil {
		return nil, fmt.Errorf("decoding %s.%s: %w", localRootKey, localTasksKey, err)
	}

	tmpl := &LocalTemplate{Tasks: make([]LocalItem, 0, len(names))}
	for i, name := range names {
		keys, fieldValues, err := orderedObject(values[i])
		if err != nil {
			return nil, fmt.Errorf("task %q: %w", name, err)
		}
		item := LocalItem{Name: name, Keys: keys, Fields: make(map[string]any, len(keys))}
		for j, key := range keys {
			var v any
			if err := json.Unmarshal(fieldValues[j], &v); err != nil {
				return nil, fmt.Errorf("task %q field %q: %w", name, key, err)
			}
			item.Fields[key] = v
		}
		tmpl.Tasks = append(tmpl.Tasks, item)
	}

	return tmpl, nil
}

// orderedObject returns the keys and raw values of a JSON object in document order.
func orderedObject(data json.RawMessage) ([]string, []json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("expected an object")
	}

	var keys []string
	var values []json.RawMessage
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected a string key")
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, nil, err
		}
		if seen[key] {
			return nil, nil, fmt.Errorf("duplicate key %q", key)
		}
		seen[key] = true
		keys = append(keys, key)
		values = append(values, value)
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}

	return keys, values, nil
}
