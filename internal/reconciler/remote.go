package reconciler

import (
	"context"
	"strings"

	"github.com/ynput/ayon-jira/internal/api"
	"github.com/ynput/ayon-jira/internal/remote"
	"github.com/ynput/ayon-jira/internal/template"
	"github.com/ynput/ayon-jira/pkg/logging"
)

// RemoteOptions configures a RemoteReconciler.
type RemoteOptions struct {
	// Description renders issue descriptions. Nil sends them verbatim.
	Description *DescriptionRenderer
	// Observer receives a ChangeEvent per created, updated or reused entity.
	Observer Observer
	// Metrics records failures. Defaults to the global instance.
	Metrics *ReconcilerMetrics
}

// RemoteReconciler creates or updates the epics and issues of one scope.
type RemoteReconciler struct {
	tracker  remote.Tracker
	renderer *DescriptionRenderer
	observer Observer
	metrics  *ReconcilerMetrics
}

// NewRemoteReconciler creates a reconciler over tracker.
func NewRemoteReconciler(tracker remote.Tracker, opts RemoteOptions) *RemoteReconciler {
	if opts.Metrics == nil {
		opts.Metrics = GetReconcilerMetrics()
	}
	return &RemoteReconciler{
		tracker:  tracker,
		renderer: opts.Description,
		observer: opts.Observer,
		metrics:  opts.Metrics,
	}
}

// RemoteRequest is the input of one scope reconciliation.
type RemoteRequest struct {
	ProjectCode  string
	Scope        string
	TemplateName string
	Document     *template.RemoteDocument
}

// ScopeResult is the outcome of one scope reconciliation.
type ScopeResult struct {
	Scope string
	// Issues maps custom ID to remote key for every item of the document.
	Issues map[string]string
	// Epics maps epic summary to remote key.
	Epics map[string]string

	EpicsCreated  int
	EpicsReused   int
	IssuesCreated int
	IssuesUpdated int
}

// Reconcile brings the epics and issues of one scope in line with the
// document. Items are processed in document order; the epic an item refers
// to always exists before the item's issue is written. Any tracker failure
// aborts the scope and is returned as *api.RemoteCallError.
func (r *RemoteReconciler) Reconcile(ctx context.Context, req RemoteRequest) (*ScopeResult, error) {
	scope := req.Scope
	filter := remote.ScopeFilter(scope)

	epics, err := r.tracker.FindEpics(ctx, req.ProjectCode, filter)
	if err != nil {
		return nil, r.fail(KindEpic, "find_epics", scope, "", err)
	}
	issues, err := r.tracker.FindIssues(ctx, req.ProjectCode, filter)
	if err != nil {
		return nil, r.fail(KindIssue, "find_issues", scope, "", err)
	}

	result := &ScopeResult{
		Scope:  scope,
		Issues: make(map[string]string, len(req.Document.Items)),
		Epics:  make(map[string]string, len(epics)),
	}

	owned := ownedTags(scope, req.Document)

	for _, epic := range epics {
		if _, ok := owned(epic.Fields[remote.FieldScopeTag]); !ok {
			continue
		}
		summary := epic.Fields[remote.FieldSummary]
		if _, dup := result.Epics[summary]; dup {
			logging.Warn("RemoteReconciler", "Scope %s has more than one epic named %q, using %s",
				scope, summary, result.Epics[summary])
			continue
		}
		result.Epics[summary] = epic.Key
	}

	existing := make(map[string]string, len(issues))
	for _, issue := range issues {
		customID, ok := owned(issue.Fields[remote.FieldScopeTag])
		if !ok {
			continue
		}
		if _, dup := existing[customID]; dup {
			logging.Warn("RemoteReconciler", "Scope %s has more than one issue tagged %s, using %s",
				scope, customID, existing[customID])
			continue
		}
		existing[customID] = issue.Key
	}

	reused := make(map[string]bool)
	for _, item := range req.Document.Items {
		epicKey, err := r.ensureEpic(ctx, req, item, result, reused)
		if err != nil {
			return nil, err
		}

		description, err := r.renderer.Render(DescriptionData{Item: item, Scope: scope, Template: req.TemplateName})
		if err != nil {
			return nil, err
		}

		fields := remote.Fields{
			remote.FieldSummary:     item.Summary,
			remote.FieldDescription: description,
			remote.FieldScopeTag:    remote.ScopeTag(scope, item.CustomID),
		}
		if item.Component != "" {
			fields[remote.FieldComponent] = item.Component
		}
		if epicKey != "" {
			fields[remote.FieldParent] = epicKey
		}

		if key, ok := existing[item.CustomID]; ok {
			if err := r.tracker.UpdateIssue(ctx, key, fields); err != nil {
				return nil, r.fail(KindIssue, "update_issue", scope, item.CustomID, err)
			}
			result.Issues[item.CustomID] = key
			result.IssuesUpdated++
			notify(r.observer, ChangeEvent{Kind: KindIssue, Operation: OperationUpdate, Scope: scope, Name: item.CustomID, Key: key})
			continue
		}

		key, err := r.tracker.CreateIssue(ctx, req.ProjectCode, fields)
		if err != nil {
			return nil, r.fail(KindIssue, "create_issue", scope, item.CustomID, err)
		}
		result.Issues[item.CustomID] = key
		result.IssuesCreated++
		notify(r.observer, ChangeEvent{Kind: KindIssue, Operation: OperationCreate, Scope: scope, Name: item.CustomID, Key: key})
	}

	logging.Info("RemoteReconciler", "Scope %s: epics %d created/%d reused, issues %d created/%d updated",
		scope, result.EpicsCreated, result.EpicsReused, result.IssuesCreated, result.IssuesUpdated)
	return result, nil
}

// ownedTags returns a matcher for the scope tags written by this scope. The
// tracker search matches on the "<scope>_" prefix only, so a scope named
// Hero also sees the entities of Hero_Alt. A tag belongs to the scope when
// what follows the prefix is a Custom ID of the document.
func ownedTags(scope string, doc *template.RemoteDocument) func(tag string) (string, bool) {
	ids := make(map[string]bool, len(doc.Items))
	for _, item := range doc.Items {
		ids[item.CustomID] = true
	}
	prefix := remote.ScopeTag(scope, "")
	return func(tag string) (string, bool) {
		customID, ok := strings.CutPrefix(tag, prefix)
		if !ok || !ids[customID] {
			return "", false
		}
		return customID, true
	}
}

// ensureEpic returns the key of the item's epic, creating it when the scope
// has no epic of that name yet. Items without an epic link have no parent.
func (r *RemoteReconciler) ensureEpic(ctx context.Context, req RemoteRequest, item template.RemoteItem,
	result *ScopeResult, reused map[string]bool) (string, error) {
	if item.EpicLink == "" {
		return "", nil
	}

	if key, ok := result.Epics[item.EpicLink]; ok {
		if !reused[key] {
			reused[key] = true
			result.EpicsReused++
			notify(r.observer, ChangeEvent{Kind: KindEpic, Operation: OperationReuse, Scope: req.Scope, Name: item.EpicLink, Key: key})
		}
		return key, nil
	}

	key, err := r.tracker.CreateEpic(ctx, req.ProjectCode, remote.Fields{
		remote.FieldSummary:  item.EpicLink,
		remote.FieldScopeTag: remote.ScopeTag(req.Scope, item.CustomID),
	})
	if err != nil {
		return "", r.fail(KindEpic, "create_epic", req.Scope, item.EpicLink, err)
	}
	result.Epics[item.EpicLink] = key
	// Epics created in this run are not counted as reused by later items.
	reused[key] = true
	result.EpicsCreated++
	notify(r.observer, ChangeEvent{Kind: KindEpic, Operation: OperationCreate, Scope: req.Scope, Name: item.EpicLink, Key: key})
	return key, nil
}

func (r *RemoteReconciler) fail(kind EntityKind, op, scope, entity string, err error) error {
	r.metrics.RecordFailure(kind, entity, err.Error())
	return &api.RemoteCallError{Op: op, Scope: scope, Entity: entity, Err: err}
}
