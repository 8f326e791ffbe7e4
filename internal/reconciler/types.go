package reconciler

import (
	"fmt"
	"sort"
	"time"
)

// EntityKind is the kind of entity a reconciler touches.
type EntityKind string

const (
	// KindEpic is a remote epic.
	KindEpic EntityKind = "Epic"

	// KindIssue is a remote issue created from a template item.
	KindIssue EntityKind = "Issue"

	// KindLink is a directed link between two remote issues.
	KindLink EntityKind = "Link"

	// KindTask is a local task.
	KindTask EntityKind = "Task"

	// KindBackref is the local task ID written onto a remote issue.
	KindBackref EntityKind = "Backref"
)

// ChangeOperation describes what happened to an entity.
type ChangeOperation string

const (
	// OperationCreate indicates a new entity was created.
	OperationCreate ChangeOperation = "Create"

	// OperationUpdate indicates an existing entity was updated.
	OperationUpdate ChangeOperation = "Update"

	// OperationReuse indicates an existing entity was reused unchanged.
	OperationReuse ChangeOperation = "Reuse"

	// OperationSkip indicates the entity was intentionally left alone.
	OperationSkip ChangeOperation = "Skip"
)

// ChangeEvent reports one committed (or, for dry runs, simulated) change.
type ChangeEvent struct {
	// Kind is the kind of entity that changed.
	Kind EntityKind

	// Operation describes what happened.
	Operation ChangeOperation

	// Scope is the scope key the change belongs to.
	Scope string

	// Location is the local folder path (local changes only).
	Location string

	// Name is a human readable name: custom ID, epic summary or task name.
	Name string

	// Key is the identifier assigned by the owning system.
	Key string

	// Timestamp is when the change was made.
	Timestamp time.Time
}

// Observer receives change events. Implementations must not block.
type Observer interface {
	Observe(event ChangeEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ChangeEvent)

// Observe implements Observer.
func (f ObserverFunc) Observe(event ChangeEvent) { f(event) }

// Observers fans an event out to several observers.
type Observers []Observer

// Observe implements Observer.
func (o Observers) Observe(event ChangeEvent) {
	for _, obs := range o {
		if obs != nil {
			obs.Observe(event)
		}
	}
}

func notify(obs Observer, event ChangeEvent) {
	if obs == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	obs.Observe(event)
}

// CrossReferenceMap translates custom IDs to remote keys, per scope.
// It is built fresh for every run.
type CrossReferenceMap map[string]map[string]string

// Set records customID -> key in scope.
func (m CrossReferenceMap) Set(scope, customID, key string) {
	if m[scope] == nil {
		m[scope] = make(map[string]string)
	}
	m[scope][customID] = key
}

// Merge records every entry of issues in scope.
func (m CrossReferenceMap) Merge(scope string, issues map[string]string) {
	for id, key := range issues {
		m.Set(scope, id, key)
	}
}

// Lookup returns the key of customID in scope.
func (m CrossReferenceMap) Lookup(scope, customID string) (string, bool) {
	key, ok := m[scope][customID]
	return key, ok
}

// Scope returns a copy of the entries of scope.
func (m CrossReferenceMap) Scope(scope string) map[string]string {
	out := make(map[string]string, len(m[scope]))
	for id, key := range m[scope] {
		out[id] = key
	}
	return out
}

// Scopes returns the scope keys in sorted order.
func (m CrossReferenceMap) Scopes() []string {
	scopes := make([]string, 0, len(m))
	for s := range m {
		scopes = append(scopes, s)
	}
	sort.Strings(scopes)
	return scopes
}

// LinkTypes names the tracker link types used for the two reference fields.
type LinkTypes struct {
	DependsOn string
	Unblocks  string
}

// DefaultLinkTypes are the Jira link type names the templates were written for.
var DefaultLinkTypes = LinkTypes{DependsOn: "Depends", Unblocks: "Blocks"}

// Translation is one local field whose value was replaced by a remote key.
type Translation struct {
	// SourceField is the field name in the template.
	SourceField string
	// Field is the field name stored on the task.
	Field string
	// CustomID is the template value that was translated.
	CustomID string
	// RemoteKey is the value stored on the task.
	RemoteKey string
	// ForeignKey is true when the field is a declared foreign key and was
	// renamed accordingly.
	ForeignKey bool
}

// Backref is a pending write of a local task ID onto a remote issue.
type Backref struct {
	Scope     string
	Location  string
	TaskID    string
	TaskName  string
	Field     string
	RemoteKey string
}

func (b Backref) String() string {
	return fmt.Sprintf("%s <- %s (%s.%s)", b.RemoteKey, b.TaskID, b.TaskName, b.Field)
}
