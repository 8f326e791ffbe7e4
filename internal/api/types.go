package api

import "time"

// RunRequest is one invocation of the template synchronization.
type RunRequest struct {
	// Actor is the user on whose behalf the run happens. It is journaled and audited.
	Actor string `json:"actor"`

	// ProjectName is the production tracking project.
	ProjectName string `json:"project_name"`

	// RemoteProjectCode is the issue tracker project key (e.g. "KAN").
	RemoteProjectCode string `json:"remote_project_code"`

	// TemplateName selects the pair of template documents.
	TemplateName string `json:"template_name"`

	// Placeholders resolves %token% markers in both documents.
	Placeholders map[string]string `json:"placeholder_map"`

	// Locations are the target folder paths, processed in order.
	Locations []string `json:"folder_paths"`

	// DryRun performs every read but no write.
	DryRun bool `json:"dry_run,omitempty"`
}

// RemoteCounts tallies what a run did in the issue tracker.
type RemoteCounts struct {
	EpicsCreated    int `json:"epics_created"`
	EpicsReused     int `json:"epics_reused"`
	IssuesCreated   int `json:"issues_created"`
	IssuesUpdated   int `json:"issues_updated"`
	LinksCreated    int `json:"links_created"`
	LinksSkipped    int `json:"links_skipped,omitempty"`
	BackrefsWritten int `json:"backrefs_written"`
}

// LocalCounts tallies what a run did in the production tracking system.
type LocalCounts struct {
	TasksCreated     int      `json:"tasks_created"`
	TasksUpdated     int      `json:"tasks_updated"`
	SkippedLocations []string `json:"skipped_locations,omitempty"`
}

// ScopeMapping is the cross-reference slice of one scope, exposed in reports.
type ScopeMapping struct {
	Scope    string            `json:"scope"`
	Location string            `json:"location"`
	Issues   map[string]string `json:"issues"` // custom ID -> remote key
}

// RunReport summarizes one orchestration run.
type RunReport struct {
	RunID        string         `json:"run_id"`
	Actor        string         `json:"actor,omitempty"`
	TemplateName string         `json:"template_name"`
	ProjectName  string         `json:"project_name"`
	DryRun       bool           `json:"dry_run,omitempty"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   time.Time      `json:"finished_at"`
	Remote       RemoteCounts   `json:"remote"`
	Local        LocalCounts    `json:"local"`
	Scopes       []ScopeMapping `json:"scopes,omitempty"`
	Warnings     []string       `json:"warnings,omitempty"`
	Error        string         `json:"error,omitempty"`
}

// Changed reports whether the run created or updated anything in either system.
func (r *RunReport) Changed() bool {
	if r == nil {
		return false
	}
	rc := r.Remote
	lc := r.Local
	return rc.EpicsCreated+rc.IssuesCreated+rc.IssuesUpdated+rc.LinksCreated+rc.BackrefsWritten+
		lc.TasksCreated+lc.TasksUpdated > 0
}

// Duration returns the wall time of the run.
func (r *RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// RunRecord is a journaled run as listed by the journal.
type RunRecord struct {
	RunID        string     `json:"run_id"`
	Actor        string     `json:"actor"`
	ProjectName  string     `json:"project_name"`
	TemplateName string     `json:"template_name"`
	Status       string     `json:"status"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	Error        string     `json:"error,omitempty"`
	Entries      int        `json:"entries"`
}

// Run statuses stored in the journal.
const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
	RunStatusPartial   = "partial"
)
