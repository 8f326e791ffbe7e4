package reconciler

import (
	"context"
	"errors"

	"github.com/ynput/ayon-jira/internal/api"
	"github.com/ynput/ayon-jira/internal/remote"
	"github.com/ynput/ayon-jira/pkg/logging"
)

// BackrefUpdater writes local task IDs onto the remote issues they reference.
type BackrefUpdater struct {
	tracker  remote.Tracker
	observer Observer
	metrics  *ReconcilerMetrics
}

// NewBackrefUpdater creates an updater over tracker.
func NewBackrefUpdater(tracker remote.Tracker, observer Observer, metrics *ReconcilerMetrics) *BackrefUpdater {
	if metrics == nil {
		metrics = GetReconcilerMetrics()
	}
	return &BackrefUpdater{tracker: tracker, observer: observer, metrics: metrics}
}

// Update writes every back-reference once. Each write is attempted even when
// earlier ones fail; failures are joined into the returned error and nothing
// already written is rolled back. It returns the number of issues written.
func (u *BackrefUpdater) Update(ctx context.Context, backrefs []Backref) (int, error) {
	type target struct{ key, task string }
	done := make(map[target]bool, len(backrefs))
	owner := make(map[string]string, len(backrefs))

	var errs []error
	written := 0
	for _, b := range backrefs {
		t := target{key: b.RemoteKey, task: b.TaskID}
		if done[t] {
			continue
		}
		done[t] = true

		if prev, ok := owner[b.RemoteKey]; ok && prev != b.TaskID {
			logging.Warn("Backref", "Issue %s is referenced by tasks %s and %s, keeping the latter",
				b.RemoteKey, prev, b.TaskID)
		}
		owner[b.RemoteKey] = b.TaskID

		err := u.tracker.UpdateIssue(ctx, b.RemoteKey, remote.Fields{remote.FieldLocalTask: b.TaskID})
		if err != nil {
			u.metrics.RecordFailure(KindBackref, b.RemoteKey, err.Error())
			errs = append(errs, &api.RemoteCallError{Op: "update_issue", Scope: b.Scope, Entity: b.RemoteKey, Err: err})
			continue
		}
		written++
		notify(u.observer, ChangeEvent{
			Kind: KindBackref, Operation: OperationUpdate, Scope: b.Scope, Location: b.Location,
			Name: b.TaskName, Key: b.RemoteKey,
		})
	}

	if len(errs) > 0 {
		logging.Error("Backref", errors.Join(errs...), "%d of %d back-references failed", len(errs), len(errs)+written)
	}
	return written, errors.Join(errs...)
}
