package remote

import (
	"context"
	"fmt"
)

// Field names a logical issue field. Implementations map these to their own
// field identifiers.
type Field string

const (
	FieldIssueType   Field = "issuetype"
	FieldSummary     Field = "summary"
	FieldDescription Field = "description"
	FieldComponent   Field = "component"
	// FieldScopeTag holds the scoped custom ID: "<scope>_<custom id>".
	FieldScopeTag Field = "scope_tag"
	// FieldParent holds the key of the parent epic.
	FieldParent Field = "parent"
	// FieldLocalTask holds the back-reference to the local task ID.
	FieldLocalTask Field = "local_task"
)

// Fields is a flat set of field values keyed by logical field.
type Fields map[Field]string

// Clone returns a copy of f.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Issue is an epic or an issue as returned by a query.
type Issue struct {
	Key    string
	Fields Fields
}

// Link is a directed, typed edge between two issues.
type Link struct {
	Type string
	From string
	To   string
}

func (l Link) String() string {
	return fmt.Sprintf("%s -[%s]-> %s", l.From, l.Type, l.To)
}

// Tracker is the issue tracker capability.
type Tracker interface {
	// FindEpics returns epics of the project matching filter.
	FindEpics(ctx context.Context, projectCode string, filter Filter) ([]Issue, error)
	// FindIssues returns non-epic issues of the project matching filter.
	FindIssues(ctx context.Context, projectCode string, filter Filter) ([]Issue, error)
	// CreateEpic creates an epic and returns its key.
	CreateEpic(ctx context.Context, projectCode string, fields Fields) (string, error)
	// CreateIssue creates an issue and returns its key.
	CreateIssue(ctx context.Context, projectCode string, fields Fields) (string, error)
	// UpdateIssue sets the given fields on an existing issue.
	UpdateIssue(ctx context.Context, key string, fields Fields) error
	// CreateLink creates a directed link of linkType from fromKey to toKey.
	CreateLink(ctx context.Context, linkType, fromKey, toKey string) error
}

// LinkLister is implemented by trackers that can list the links of an issue.
// It enables optional link de-duplication.
type LinkLister interface {
	ListLinks(ctx context.Context, key string) ([]Link, error)
}
