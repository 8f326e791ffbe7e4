package api

import (
	"errors"
	"fmt"
	"strings"
)

// Stage names the orchestration step an error was raised in.
type Stage string

const (
	StagePreflight Stage = "preflight"
	StageLock      Stage = "lock"
	StageRemote    Stage = "remote"
	StageLinks     Stage = "links"
	StageLocal     Stage = "local"
	StageBackref   Stage = "backref"
)

// MissingPlaceholderError is returned when template text references %tokens%
// that the placeholder map does not resolve to a non-empty value.
type MissingPlaceholderError struct {
	Tokens []string
}

func (e *MissingPlaceholderError) Error() string {
	return fmt.Sprintf("missing placeholder values: %s", strings.Join(e.Tokens, ", "))
}

// TemplateNotFoundError is returned when the backing document for a template
// name and side does not exist.
type TemplateNotFoundError struct {
	Name string
	Side string
	Path string
}

func (e *TemplateNotFoundError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("template %s (%s side) not found at %s", e.Name, e.Side, e.Path)
	}
	return fmt.Sprintf("template %s (%s side) not found", e.Name, e.Side)
}

// TemplateMalformedError is returned when a template document does not parse
// after placeholder substitution, or does not match the expected shape.
type TemplateMalformedError struct {
	Name   string
	Side   string
	Reason string
	Err    error
}

func (e *TemplateMalformedError) Error() string {
	msg := fmt.Sprintf("template %s (%s side) is malformed", e.Name, e.Side)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TemplateMalformedError) Unwrap() error { return e.Err }

// DanglingReferenceError is returned when a dependency link or a foreign-key
// field points at a custom ID that no item of the run defines.
type DanglingReferenceError struct {
	Scope     string
	CustomID  string // item holding the reference
	Field     string // Depends_On, Unblocks or a local field name
	Reference string // the unresolved custom ID
}

func (e *DanglingReferenceError) Error() string {
	where := e.CustomID
	if e.Scope != "" {
		where = e.Scope + "/" + e.CustomID
	}
	return fmt.Sprintf("%s.%s references unknown custom ID %q", where, e.Field, e.Reference)
}

// LocationNotFoundError is returned when a target location has no matching
// container in the production system. The orchestrator skips such locations.
type LocationNotFoundError struct {
	Project  string
	Location string
}

func (e *LocationNotFoundError) Error() string {
	return fmt.Sprintf("location %s not found in project %s", e.Location, e.Project)
}

// RemoteCallError wraps a failed request against the issue tracker.
type RemoteCallError struct {
	Op     string
	Scope  string
	Entity string
	Err    error
}

func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("remote %s failed (scope %q, entity %q): %v", e.Op, e.Scope, e.Entity, e.Err)
}

func (e *RemoteCallError) Unwrap() error { return e.Err }

// LocalCallError wraps a failed request against the production tracking system.
type LocalCallError struct {
	Op       string
	Location string
	Entity   string
	Err      error
}

func (e *LocalCallError) Error() string {
	return fmt.Sprintf("local %s failed (location %q, entity %q): %v", e.Op, e.Location, e.Entity, e.Err)
}

func (e *LocalCallError) Unwrap() error { return e.Err }

// LockedError is returned when another run holds the lock of a scope.
type LockedError struct {
	Scope string
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("scope %s is locked by another run", e.Scope)
}

// RunError is the error returned by the orchestrator. Changed reports whether
// any entity was created or updated before the failure: when false the run
// failed before touching either system and is safe to retry as-is.
type RunError struct {
	RunID   string
	Stage   Stage
	Scope   string
	Entity  string
	Changed bool
	Err     error
}

func (e *RunError) Error() string {
	state := "nothing was changed"
	if e.Changed {
		state = "partially changed, re-run required"
	}
	var ctx []string
	if e.Scope != "" {
		ctx = append(ctx, "scope "+e.Scope)
	}
	if e.Entity != "" {
		ctx = append(ctx, "entity "+e.Entity)
	}
	where := ""
	if len(ctx) > 0 {
		where = " (" + strings.Join(ctx, ", ") + ")"
	}
	return fmt.Sprintf("run failed at %s%s, %s: %v", e.Stage, where, state, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// IsPreflight reports whether err is a run failure that left both systems untouched.
func IsPreflight(err error) bool {
	var runErr *RunError
	return errors.As(err, &runErr) && !runErr.Changed
}

// IsPartial reports whether err is a run failure after some entities were committed.
func IsPartial(err error) bool {
	var runErr *RunError
	return errors.As(err, &runErr) && runErr.Changed
}

// IsMissingPlaceholder checks if an error is or wraps a MissingPlaceholderError.
func IsMissingPlaceholder(err error) bool {
	var e *MissingPlaceholderError
	return errors.As(err, &e)
}

// IsDanglingReference checks if an error is or wraps a DanglingReferenceError.
func IsDanglingReference(err error) bool {
	var e *DanglingReferenceError
	return errors.As(err, &e)
}

// IsLocationNotFound checks if an error is or wraps a LocationNotFoundError.
func IsLocationNotFound(err error) bool {
	var e *LocationNotFoundError
	return errors.As(err, &e)
}

// IsLocked checks if an error is or wraps a LockedError.
func IsLocked(err error) bool {
	var e *LockedError
	return errors.As(err, &e)
}
