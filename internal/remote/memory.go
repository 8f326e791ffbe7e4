package remote

import (
	"context"
	"fmt"
	"sync"
)

type memoryIssue struct {
	project string
	epic    bool
	fields  Fields
}

// MemoryTracker is an in-memory Tracker. Keys are "<project>-<n>", optionally
// prefixed. It is safe for concurrent use.
type MemoryTracker struct {
	mu        sync.Mutex
	keyPrefix string
	next      int
	issues    map[string]*memoryIssue
	order     []string
	links     []Link
	failures  map[string]error
	calls     map[string]int
}

// NewMemoryTracker returns an empty tracker.
func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{
		issues:   make(map[string]*memoryIssue),
		failures: make(map[string]error),
		calls:    make(map[string]int),
	}
}

// newOverlayTracker returns a tracker whose keys cannot collide with a real
// tracker's keys.
func newOverlayTracker(prefix string) *MemoryTracker {
	m := NewMemoryTracker()
	m.keyPrefix = prefix
	return m
}

// FailNext makes the next call of op (a Tracker method name) return err.
func (m *MemoryTracker) FailNext(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = err
}

// Calls returns how often op was called.
func (m *MemoryTracker) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *MemoryTracker) enter(op string) error {
	m.calls[op]++
	if err, ok := m.failures[op]; ok {
		delete(m.failures, op)
		return err
	}
	return nil
}

// FindEpics implements Tracker.
func (m *MemoryTracker) FindEpics(ctx context.Context, projectCode string, filter Filter) ([]Issue, error) {
	return m.find("FindEpics", projectCode, true, filter)
}

// FindIssues implements Tracker.
func (m *MemoryTracker) FindIssues(ctx context.Context, projectCode string, filter Filter) ([]Issue, error) {
	return m.find("FindIssues", projectCode, false, filter)
}

func (m *MemoryTracker) find(op, projectCode string, epic bool, filter Filter) ([]Issue, error) {
	match, err := filter.Compile()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(op); err != nil {
		return nil, err
	}

	var out []Issue
	for _, key := range m.order {
		issue := m.issues[key]
		if issue.project != projectCode || issue.epic != epic || !match(issue.fields) {
			continue
		}
		out = append(out, Issue{Key: key, Fields: issue.fields.Clone()})
	}
	return out, nil
}

// CreateEpic implements Tracker.
func (m *MemoryTracker) CreateEpic(ctx context.Context, projectCode string, fields Fields) (string, error) {
	return m.create("CreateEpic", projectCode, true, fields)
}

// CreateIssue implements Tracker.
func (m *MemoryTracker) CreateIssue(ctx context.Context, projectCode string, fields Fields) (string, error) {
	return m.create("CreateIssue", projectCode, false, fields)
}

func (m *MemoryTracker) create(op, projectCode string, epic bool, fields Fields) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(op); err != nil {
		return "", err
	}
	if parent := fields[FieldParent]; parent != "" {
		if p, ok := m.issues[parent]; !ok || !p.epic {
			return "", fmt.Errorf("parent %s is not an epic", parent)
		}
	}
	return m.insert(projectCode, epic, fields), nil
}

func (m *MemoryTracker) insert(projectCode string, epic bool, fields Fields) string {
	m.next++
	key := fmt.Sprintf("%s-%d", projectCode, m.next)
	if m.keyPrefix != "" {
		key = m.keyPrefix + "-" + key
	}
	m.issues[key] = &memoryIssue{project: projectCode, epic: epic, fields: fields.Clone()}
	m.order = append(m.order, key)
	return key
}

// UpdateIssue implements Tracker.
func (m *MemoryTracker) UpdateIssue(ctx context.Context, key string, fields Fields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("UpdateIssue"); err != nil {
		return err
	}
	issue, ok := m.issues[key]
	if !ok {
		return fmt.Errorf("issue %s does not exist", key)
	}
	for f, v := range fields {
		issue.fields[f] = v
	}
	return nil
}

// CreateLink implements Tracker.
func (m *MemoryTracker) CreateLink(ctx context.Context, linkType, fromKey, toKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("CreateLink"); err != nil {
		return err
	}
	for _, key := range []string{fromKey, toKey} {
		if _, ok := m.issues[key]; !ok {
			return fmt.Errorf("issue %s does not exist", key)
		}
	}
	m.links = append(m.links, Link{Type: linkType, From: fromKey, To: toKey})
	return nil
}

// ListLinks implements LinkLister.
func (m *MemoryTracker) ListLinks(ctx context.Context, key string) ([]Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ListLinks"); err != nil {
		return nil, err
	}
	var out []Link
	for _, l := range m.links {
		if l.From == key || l.To == key {
			out = append(out, l)
		}
	}
	return out, nil
}

// Seed stores an issue directly, bypassing failure injection and call
// counting. It returns the new key.
func (m *MemoryTracker) Seed(projectCode string, epic bool, fields Fields) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insert(projectCode, epic, fields)
}

// Get returns the fields of an issue.
func (m *MemoryTracker) Get(key string) (Fields, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	issue, ok := m.issues[key]
	if !ok {
		return nil, false
	}
	return issue.fields.Clone(), true
}

// Epics returns every epic in creation order.
func (m *MemoryTracker) Epics() []Issue {
	return m.all(true)
}

// Issues returns every non-epic issue in creation order.
func (m *MemoryTracker) Issues() []Issue {
	return m.all(false)
}

func (m *MemoryTracker) all(epic bool) []Issue {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Issue
	for _, key := range m.order {
		if issue := m.issues[key]; issue.epic == epic {
			out = append(out, Issue{Key: key, Fields: issue.fields.Clone()})
		}
	}
	return out
}

// Links returns every link in creation order.
func (m *MemoryTracker) Links() []Link {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Link(nil), m.links...)
}
