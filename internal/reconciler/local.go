package reconciler

import (
	"context"
	"errors"
	"sort"

	"github.com/ynput/ayon-jira/internal/api"
	"github.com/ynput/ayon-jira/internal/local"
	"github.com/ynput/ayon-jira/internal/scope"
	"github.com/ynput/ayon-jira/internal/template"
	"github.com/ynput/ayon-jira/pkg/logging"
)

// DefaultForeignKeys is the foreign-key table used when none is configured.
var DefaultForeignKeys = map[string]string{"outfit_id": "outfit_ticket"}

// DefaultTaskTypeCorrections maps template categories that are not task
// types of the local system to ones that are.
var DefaultTaskTypeCorrections = map[string]string{
	"Concept": "Generic",
	"Model":   "Modeling",
}

// LocalOptions configures a LocalReconciler.
type LocalOptions struct {
	// ForeignKeys maps a template field holding a custom ID to the task
	// field that stores the translated remote key, e.g. outfit_id ->
	// outfit_ticket. Nil means DefaultForeignKeys.
	ForeignKeys map[string]string
	// TaskTypeCorrections maps categories to task types. Nil means
	// DefaultTaskTypeCorrections.
	TaskTypeCorrections map[string]string
	// StrictForeignKeys fails with *api.DanglingReferenceError when a
	// declared foreign-key field holds a value that is not a known custom ID.
	// Otherwise such values pass through unchanged.
	StrictForeignKeys bool
	Observer          Observer
	Metrics           *ReconcilerMetrics
}

// LocalReconciler creates or updates the local tasks of one location.
type LocalReconciler struct {
	store       local.Store
	foreignKeys map[string]string
	corrections map[string]string
	strict      bool
	observer    Observer
	metrics     *ReconcilerMetrics
}

// NewLocalReconciler creates a reconciler over store.
func NewLocalReconciler(store local.Store, opts LocalOptions) *LocalReconciler {
	if opts.ForeignKeys == nil {
		opts.ForeignKeys = DefaultForeignKeys
	}
	if opts.TaskTypeCorrections == nil {
		opts.TaskTypeCorrections = DefaultTaskTypeCorrections
	}
	if opts.Metrics == nil {
		opts.Metrics = GetReconcilerMetrics()
	}
	return &LocalReconciler{
		store:       store,
		foreignKeys: opts.ForeignKeys,
		corrections: opts.TaskTypeCorrections,
		strict:      opts.StrictForeignKeys,
		observer:    opts.Observer,
		metrics:     opts.Metrics,
	}
}

// LocalRequest is the input of one location reconciliation.
type LocalRequest struct {
	ProjectName string
	Target      scope.Target
	Template    *template.LocalTemplate
	// Issues is the scope's slice of the cross-reference map.
	Issues map[string]string
}

// LocationResult is the outcome of one location reconciliation.
type LocationResult struct {
	Location    string
	Scope       string
	ContainerID string
	Created     int
	Updated     int
	// Backrefs lists the remote issues each task references through a
	// declared foreign-key field.
	Backrefs []Backref
}

// TaskType returns the local task type for a template category.
func (r *LocalReconciler) TaskType(category string) string {
	if corrected, ok := r.corrections[category]; ok {
		return corrected
	}
	return category
}

// Translate builds the stored data of a task definition. Fields are visited
// in document order:
//
//   - task_type is dropped; it only selects the category.
//   - current_phase is copied unchanged.
//   - A value equal to a custom ID in issues becomes the remote key. Declared
//     foreign-key fields are stored under their destination name, other
//     fields keep their name.
//   - Everything else is copied unchanged.
func (r *LocalReconciler) Translate(scopeKey string, item template.LocalItem, issues map[string]string) (map[string]any, []Translation, error) {
	data := make(map[string]any, len(item.Fields))
	var translations []Translation

	for _, field := range item.Keys {
		value := item.Fields[field]
		switch field {
		case template.FieldTaskType:
			continue
		case template.FieldCurrentPhase:
			data[field] = value
			continue
		}

		dest, isForeignKey := r.foreignKeys[field]
		customID, isString := value.(string)
		key, resolved := issues[customID]
		if !isString || customID == "" || !resolved {
			if isForeignKey && isString && customID != "" && r.strict {
				return nil, nil, &api.DanglingReferenceError{
					Scope: scopeKey, CustomID: item.Name, Field: field, Reference: customID,
				}
			}
			if isForeignKey && isString && customID != "" {
				logging.Warn("LocalReconciler", "Task %s field %s references unknown custom ID %q, keeping value",
					item.Name, field, customID)
			}
			data[field] = value
			continue
		}

		t := Translation{SourceField: field, Field: field, CustomID: customID, RemoteKey: key}
		if isForeignKey {
			t.Field = dest
			t.ForeignKey = true
		}
		data[t.Field] = key
		translations = append(translations, t)
	}

	return data, translations, nil
}

// Reconcile creates or updates every task of the template under the target's
// folder. A missing folder yields *api.LocationNotFoundError and no changes;
// callers treat it as a skipped location. Store failures are
// *api.LocalCallError.
func (r *LocalReconciler) Reconcile(ctx context.Context, req LocalRequest) (*LocationResult, error) {
	target := req.Target
	result := &LocationResult{Location: target.Location, Scope: target.Key}

	container, err := r.store.GetContainerByPath(ctx, req.ProjectName, target.Location)
	if err != nil {
		if errors.Is(err, local.ErrNotFound) {
			logging.Warn("LocalReconciler", "No folder at %s in project %s, skipping", target.Location, req.ProjectName)
			return result, &api.LocationNotFoundError{Project: req.ProjectName, Location: target.Location}
		}
		return nil, r.fail("get_container_by_path", target.Location, target.Location, err)
	}
	result.ContainerID = container.ID

	tasks, err := r.store.ListTasks(ctx, req.ProjectName, container.ID)
	if err != nil {
		return nil, r.fail("list_tasks", target.Location, container.ID, err)
	}
	byName := make(map[string]local.Task, len(tasks))
	for _, t := range tasks {
		byName[t.Name] = t
	}

	for _, item := range req.Template.Tasks {
		data, translations, err := r.Translate(target.Key, item, req.Issues)
		if err != nil {
			return nil, err
		}

		var taskID string
		if existing, ok := byName[item.Name]; ok {
			merged := mergeData(existing.Data, data)
			if err := r.store.UpdateTask(ctx, req.ProjectName, existing.ID, merged); err != nil {
				return nil, r.fail("update_task", target.Location, item.Name, err)
			}
			taskID = existing.ID
			result.Updated++
			notify(r.observer, ChangeEvent{Kind: KindTask, Operation: OperationUpdate, Scope: target.Key, Location: target.Location, Name: item.Name, Key: taskID})
		} else {
			taskType := r.TaskType(item.Category())
			taskID, err = r.store.CreateTask(ctx, req.ProjectName, item.Name, taskType, container.ID, data)
			if err != nil {
				return nil, r.fail("create_task", target.Location, item.Name, err)
			}
			byName[item.Name] = local.Task{ID: taskID, Name: item.Name, TaskType: taskType, ContainerID: container.ID, Data: data}
			result.Created++
			notify(r.observer, ChangeEvent{Kind: KindTask, Operation: OperationCreate, Scope: target.Key, Location: target.Location, Name: item.Name, Key: taskID})
		}

		for _, t := range translations {
			if !t.ForeignKey {
				continue
			}
			result.Backrefs = append(result.Backrefs, Backref{
				Scope: target.Key, Location: target.Location,
				TaskID: taskID, TaskName: item.Name, Field: t.Field, RemoteKey: t.RemoteKey,
			})
		}
	}

	logging.Info("LocalReconciler", "Location %s: %d tasks created, %d updated, %d back-references pending",
		target.Location, result.Created, result.Updated, len(result.Backrefs))
	return result, nil
}

// mergeData overlays update on the existing task data. Task updates replace
// the whole data blob, so unrelated keys are carried over.
func mergeData(existing, update map[string]any) map[string]any {
	merged := make(map[string]any, len(existing)+len(update))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range update {
		merged[k] = v
	}
	return merged
}

// ForeignKeyTable builds the declared foreign-key table: the configured
// entries plus "<phase>_id -> <phase>_ticket" for every phase value.
func ForeignKeyTable(configured map[string]string, phases []string) map[string]string {
	table := make(map[string]string, len(configured)+len(phases))
	for src, dest := range configured {
		table[src] = dest
	}
	sorted := append([]string(nil), phases...)
	sort.Strings(sorted)
	for _, phase := range sorted {
		if phase == "" {
			continue
		}
		if _, ok := table[phase+"_id"]; !ok {
			table[phase+"_id"] = phase + "_ticket"
		}
	}
	return table
}

func (r *LocalReconciler) fail(op, location, entity string, err error) error {
	r.metrics.RecordFailure(KindTask, entity, err.Error())
	return &api.LocalCallError{Op: op, Location: location, Entity: entity, Err: err}
}
