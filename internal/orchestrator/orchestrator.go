package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ynput/ayon-jira/internal/api"
	"github.com/ynput/ayon-jira/internal/dependency"
	"github.com/ynput/ayon-jira/internal/local"
	"github.com/ynput/ayon-jira/internal/reconciler"
	"github.com/ynput/ayon-jira/internal/remote"
	"github.com/ynput/ayon-jira/internal/scope"
	"github.com/ynput/ayon-jira/internal/template"
	"github.com/ynput/ayon-jira/pkg/logging"
)

// Journal durably records runs and the entities they touch.
type Journal interface {
	Begin(ctx context.Context, run api.RunRecord) error
	Record(ctx context.Context, runID string, event reconciler.ChangeEvent) error
	Finish(ctx context.Context, runID, status, errMsg string, finishedAt time.Time) error
}

// Config holds the configuration for the orchestrator.
type Config struct {
	// Loader reads template documents. Required.
	Loader *template.Loader
	// Tracker is the remote issue tracker. Required.
	Tracker remote.Tracker
	// Store is the local production tracking system. Required.
	Store local.Store

	// DefaultPlaceholders are merged under the placeholders of each request.
	DefaultPlaceholders map[string]string
	// ProjectCode is used when a request carries no remote project code.
	ProjectCode string

	// RunTimeout bounds a whole run. Zero means no timeout.
	RunTimeout time.Duration
	// LockDir holds the per-scope lock files. Defaults to a directory under
	// the system temp dir.
	LockDir string
	// Journal is optional.
	Journal Journal

	Description       *reconciler.DescriptionRenderer
	LinkTypes         reconciler.LinkTypes
	DedupeLinks       bool
	ForeignKeys       map[string]string
	TaskTypes         map[string]string
	StrictForeignKeys bool

	// Metrics defaults to the global reconciler metrics.
	Metrics *reconciler.ReconcilerMetrics
}

// Orchestrator sequences template runs: pre-flight validation, per-scope
// locking, remote reconciliation with links, local reconciliation and the
// back-reference pass.
type Orchestrator struct {
	cfg     Config
	locker  *ScopeLocker
	metrics *reconciler.ReconcilerMetrics
}

// New creates a new orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Loader == nil {
		return nil, errors.New("orchestrator: template loader is required")
	}
	if cfg.Tracker == nil {
		return nil, errors.New("orchestrator: remote tracker is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("orchestrator: local store is required")
	}
	if cfg.LockDir == "" {
		cfg.LockDir = filepath.Join(os.TempDir(), "ayon-jira-locks")
	}
	if cfg.Metrics == nil {
		cfg.Metrics = reconciler.GetReconcilerMetrics()
	}
	return &Orchestrator{
		cfg:     cfg,
		locker:  NewScopeLocker(cfg.LockDir),
		metrics: cfg.Metrics,
	}, nil
}

// plan is the validated input of a run.
type plan struct {
	req      api.RunRequest
	remote   *template.RemoteDocument
	local    *template.LocalTemplate
	targets  []scope.Target
	warnings []string
}

// Validate runs the pre-flight checks of req without touching either system.
func (o *Orchestrator) Validate(ctx context.Context, req api.RunRequest) error {
	_, err := o.preflight(req)
	if err != nil {
		return &api.RunError{Stage: api.StagePreflight, Err: err}
	}
	return nil
}

// Templates lists the available template names.
func (o *Orchestrator) Templates() ([]string, error) {
	return o.cfg.Loader.Templates()
}

func (o *Orchestrator) preflight(req api.RunRequest) (*plan, error) {
	if req.RemoteProjectCode == "" {
		req.RemoteProjectCode = o.cfg.ProjectCode
	}
	if req.RemoteProjectCode == "" {
		return nil, errors.New("remote project code is required")
	}
	if strings.TrimSpace(req.ProjectName) == "" {
		return nil, errors.New("project name is required")
	}
	if strings.TrimSpace(req.TemplateName) == "" {
		return nil, errors.New("template name is required")
	}
	if len(req.Locations) == 0 {
		return nil, errors.New("at least one folder path is required")
	}

	placeholders := template.MergePlaceholders(o.cfg.DefaultPlaceholders, req.Placeholders)
	remoteDoc, localDoc, err := o.cfg.Loader.LoadPair(req.TemplateName, placeholders)
	if err != nil {
		return nil, err
	}

	graph := dependency.FromDocument(remoteDoc)
	if err := graph.CheckReferences(""); err != nil {
		return nil, err
	}
	if _, err := graph.TopologicalSort(); err != nil {
		logging.Warn("Orchestrator", "Template %s: %v", req.TemplateName, err)
	}

	if o.cfg.StrictForeignKeys {
		if err := checkForeignKeys(remoteDoc, localDoc, o.foreignKeys()); err != nil {
			return nil, err
		}
	}

	p := &plan{
		req:     req,
		remote:  remoteDoc,
		local:   localDoc,
		targets: scope.Normalize(req.ProjectName, req.Locations),
	}
	for _, dup := range scope.Duplicates(p.targets) {
		p.warnings = append(p.warnings, fmt.Sprintf("location %s is targeted more than once", dup))
	}
	if len(scope.Keys(p.targets)) == 0 {
		return nil, errors.New("no folder path names a location")
	}
	return p, nil
}

func (o *Orchestrator) foreignKeys() map[string]string {
	if o.cfg.ForeignKeys == nil {
		return reconciler.DefaultForeignKeys
	}
	return o.cfg.ForeignKeys
}

// checkForeignKeys rejects declared foreign-key fields whose value is not a
// custom ID of the remote document.
func checkForeignKeys(doc *template.RemoteDocument, tmpl *template.LocalTemplate, foreignKeys map[string]string) error {
	known := make(map[string]bool, len(doc.Items))
	for _, id := range doc.CustomIDs() {
		known[id] = true
	}
	for _, item := range tmpl.Tasks {
		for _, field := range item.Keys {
			if _, ok := foreignKeys[field]; !ok {
				continue
			}
			value, ok := item.Fields[field].(string)
			if !ok || value == "" || known[value] {
				continue
			}
			return &api.DanglingReferenceError{CustomID: item.Name, Field: field, Reference: value}
		}
	}
	return nil
}

// Run executes one template run. The report is always returned; on failure
// it is accompanied by an *api.RunError whose Changed flag tells whether
// anything was committed before the failure.
func (o *Orchestrator) Run(ctx context.Context, req api.RunRequest) (*api.RunReport, error) {
	report := &api.RunReport{
		RunID:        uuid.NewString(),
		Actor:        req.Actor,
		TemplateName: req.TemplateName,
		ProjectName:  req.ProjectName,
		DryRun:       req.DryRun,
		StartedAt:    time.Now(),
	}

	if o.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.RunTimeout)
		defer cancel()
	}

	logging.Info("Orchestrator", "Run %s: template %s for %s (%d locations, dry-run=%t, actor=%s)",
		report.RunID, req.TemplateName, req.ProjectName, len(req.Locations), req.DryRun, req.Actor)

	p, err := o.preflight(req)
	if err != nil {
		return o.finish(ctx, report, &api.RunError{RunID: report.RunID, Stage: api.StagePreflight, Err: err}, false)
	}
	report.Warnings = append(report.Warnings, p.warnings...)

	tracker, store := o.cfg.Tracker, o.cfg.Store
	if req.DryRun {
		tracker = remote.NewDryRunTracker(tracker)
		store = local.NewDryRunStore(store)
	} else {
		release, err := o.locker.Acquire(req.ProjectName, req.TemplateName, scope.Keys(p.targets))
		if err != nil {
			return o.finish(ctx, report, &api.RunError{RunID: report.RunID, Stage: api.StageLock, Err: err}, false)
		}
		defer release()
	}

	journaled := !req.DryRun && o.begin(ctx, report)
	r := &run{
		orch:    o,
		plan:    p,
		report:  report,
		xref:    reconciler.CrossReferenceMap{},
		journal: journaled,
	}
	observer := reconciler.Observers{&auditObserver{run: r}, o.metrics}

	r.remote = reconciler.NewRemoteReconciler(tracker, reconciler.RemoteOptions{
		Description: o.cfg.Description,
		Observer:    observer,
		Metrics:     o.metrics,
	})
	r.links = reconciler.NewLinkResolver(tracker, reconciler.LinkOptions{
		Types:    o.cfg.LinkTypes,
		Dedupe:   o.cfg.DedupeLinks,
		Observer: observer,
		Metrics:  o.metrics,
	})
	r.local = reconciler.NewLocalReconciler(store, reconciler.LocalOptions{
		ForeignKeys:         o.cfg.ForeignKeys,
		TaskTypeCorrections: o.cfg.TaskTypes,
		StrictForeignKeys:   o.cfg.StrictForeignKeys,
		Observer:            observer,
		Metrics:             o.metrics,
	})
	r.backrefs = reconciler.NewBackrefUpdater(tracker, observer, o.metrics)

	return o.finish(ctx, report, r.execute(ctx), journaled)
}

func (o *Orchestrator) begin(ctx context.Context, report *api.RunReport) bool {
	if o.cfg.Journal == nil {
		return false
	}
	err := o.cfg.Journal.Begin(ctx, api.RunRecord{
		RunID:        report.RunID,
		Actor:        report.Actor,
		ProjectName:  report.ProjectName,
		TemplateName: report.TemplateName,
		Status:       api.RunStatusRunning,
		StartedAt:    report.StartedAt,
	})
	if err != nil {
		logging.Error("Orchestrator", err, "Run %s will not be journaled", report.RunID)
		return false
	}
	return true
}

func (o *Orchestrator) finish(ctx context.Context, report *api.RunReport, runErr *api.RunError, journaled bool) (*api.RunReport, error) {
	report.FinishedAt = time.Now()
	o.metrics.RecordRun(runErr != nil)

	status := api.RunStatusSucceeded
	if runErr != nil {
		report.Error = runErr.Error()
		status = api.RunStatusFailed
		if runErr.Changed {
			status = api.RunStatusPartial
		}
	}

	if journaled {
		// The run context may already be expired; the outcome is still recorded.
		if err := o.cfg.Journal.Finish(context.WithoutCancel(ctx), report.RunID, status, report.Error, report.FinishedAt); err != nil {
			logging.Error("Orchestrator", err, "Failed to journal the outcome of run %s", report.RunID)
		}
	}

	if runErr != nil {
		logging.Error("Orchestrator", runErr, "Run %s %s after %s", report.RunID, status, report.Duration())
		return report, runErr
	}
	logging.Info("Orchestrator", "Run %s %s after %s: remote %+v, local %d created/%d updated",
		report.RunID, status, report.Duration(), report.Remote, report.Local.TasksCreated, report.Local.TasksUpdated)
	return report, nil
}

// run is the state of one execution.
type run struct {
	orch    *Orchestrator
	plan    *plan
	report  *api.RunReport
	xref    reconciler.CrossReferenceMap
	journal bool

	remote   *reconciler.RemoteReconciler
	links    *reconciler.LinkResolver
	local    *reconciler.LocalReconciler
	backrefs *reconciler.BackrefUpdater
}

// execute runs the stages in order over all scopes: every scope is
// reconciled remotely and linked before any location is touched, and the
// back-references are written once all tasks exist.
func (r *run) execute(ctx context.Context) *api.RunError {
	targets := make([]scope.Target, 0, len(r.plan.targets))
	for _, target := range r.plan.targets {
		if target.Empty() {
			r.warn("folder path %q names no location, skipped", target.Raw)
			continue
		}
		targets = append(targets, target)
	}

	if runErr := r.remotePass(ctx, targets); runErr != nil {
		return runErr
	}
	pending, runErr := r.localPass(ctx, targets)
	if runErr != nil {
		return runErr
	}

	written, err := r.backrefs.Update(ctx, pending)
	r.report.Remote.BackrefsWritten += written
	if err != nil {
		return r.fail(api.StageBackref, "", err)
	}
	return nil
}

// remotePass reconciles the epics, issues and links of every scope.
func (r *run) remotePass(ctx context.Context, targets []scope.Target) *api.RunError {
	req := r.plan.req
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return r.fail(api.StageRemote, target.Key, err)
		}

		scopeResult, err := r.remote.Reconcile(ctx, reconciler.RemoteRequest{
			ProjectCode:  req.RemoteProjectCode,
			Scope:        target.Key,
			TemplateName: req.TemplateName,
			Document:     r.plan.remote,
		})
		if err != nil {
			return r.fail(api.StageRemote, target.Key, err)
		}
		r.xref.Merge(target.Key, scopeResult.Issues)
		r.report.Remote.EpicsCreated += scopeResult.EpicsCreated
		r.report.Remote.EpicsReused += scopeResult.EpicsReused
		r.report.Remote.IssuesCreated += scopeResult.IssuesCreated
		r.report.Remote.IssuesUpdated += scopeResult.IssuesUpdated
		r.report.Scopes = append(r.report.Scopes, api.ScopeMapping{
			Scope:    target.Key,
			Location: target.Location,
			Issues:   r.xref.Scope(target.Key),
		})

		linkResult, err := r.links.Resolve(ctx, target.Key, r.plan.remote, r.xref.Scope(target.Key))
		r.report.Remote.LinksCreated += linkResult.Created
		r.report.Remote.LinksSkipped += linkResult.Skipped
		if err != nil {
			return r.fail(api.StageLinks, target.Key, err)
		}
	}
	return nil
}

// localPass reconciles the tasks of every location and returns the
// back-references to write. Locations that do not exist are skipped.
func (r *run) localPass(ctx context.Context, targets []scope.Target) ([]reconciler.Backref, *api.RunError) {
	var pending []reconciler.Backref
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return nil, r.fail(api.StageLocal, target.Key, err)
		}

		locationResult, err := r.local.Reconcile(ctx, reconciler.LocalRequest{
			ProjectName: r.plan.req.ProjectName,
			Target:      target,
			Template:    r.plan.local,
			Issues:      r.xref.Scope(target.Key),
		})
		if locationResult != nil {
			r.report.Local.TasksCreated += locationResult.Created
			r.report.Local.TasksUpdated += locationResult.Updated
		}
		if err != nil {
			if api.IsLocationNotFound(err) {
				r.report.Local.SkippedLocations = append(r.report.Local.SkippedLocations, target.Location)
				r.warn("%v, location skipped", err)
				continue
			}
			return nil, r.fail(api.StageLocal, target.Key, err)
		}
		pending = append(pending, locationResult.Backrefs...)
	}
	return pending, nil
}

func (r *run) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	logging.Warn("Orchestrator", "Run %s: %s", r.report.RunID, msg)
	r.report.Warnings = append(r.report.Warnings, msg)
}

func (r *run) fail(stage api.Stage, scopeKey string, err error) *api.RunError {
	return &api.RunError{
		RunID:   r.report.RunID,
		Stage:   stage,
		Scope:   scopeKey,
		Entity:  failingEntity(err),
		Changed: r.report.Changed(),
		Err:     err,
	}
}

// failingEntity extracts the name of the entity a reconciliation error is about.
func failingEntity(err error) string {
	var remoteErr *api.RemoteCallError
	if errors.As(err, &remoteErr) {
		return remoteErr.Entity
	}
	var localErr *api.LocalCallError
	if errors.As(err, &localErr) {
		return localErr.Entity
	}
	var dangling *api.DanglingReferenceError
	if errors.As(err, &dangling) {
		return dangling.CustomID
	}
	return ""
}
