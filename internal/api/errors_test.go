package api

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunError_PreflightAndPartial(t *testing.T) {
	preflight := &RunError{Stage: StagePreflight, Err: &MissingPlaceholderError{Tokens: []string{"Name"}}}
	partial := &RunError{Stage: StageLinks, Scope: "Character1", Entity: "RIG", Changed: true,
		Err: &DanglingReferenceError{Scope: "Character1", CustomID: "RIG", Field: "Depends_On", Reference: "MDL"}}

	assert.True(t, IsPreflight(preflight))
	assert.False(t, IsPartial(preflight))
	assert.True(t, IsPartial(partial))
	assert.False(t, IsPreflight(partial))

	wrapped := fmt.Errorf("endpoint: %w", partial)
	assert.True(t, IsPartial(wrapped))
	assert.True(t, IsDanglingReference(wrapped))
	assert.True(t, IsMissingPlaceholder(preflight))

	assert.Contains(t, preflight.Error(), "nothing was changed")
	assert.Contains(t, partial.Error(), "partially changed")
	assert.Contains(t, partial.Error(), "scope Character1")
	assert.Contains(t, partial.Error(), "entity RIG")
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"missing placeholder", &MissingPlaceholderError{Tokens: []string{"A", "B"}}, "missing placeholder values: A, B"},
		{"template not found", &TemplateNotFoundError{Name: "Tier_1_Outfit", Side: "Jira", Path: "/t/x.json"}, "template Tier_1_Outfit (Jira side) not found at /t/x.json"},
		{"malformed", &TemplateMalformedError{Name: "T", Side: "Ayon", Reason: "bad root"}, "template T (Ayon side) is malformed: bad root"},
		{"dangling", &DanglingReferenceError{Scope: "C1", CustomID: "B", Field: "Depends_On", Reference: "Z"}, `C1/B.Depends_On references unknown custom ID "Z"`},
		{"location", &LocationNotFoundError{Project: "p", Location: "Characters/X"}, "location Characters/X not found in project p"},
		{"locked", &LockedError{Scope: "C1"}, "scope C1 is locked by another run"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestCallErrorsUnwrap(t *testing.T) {
	cause := errors.New("boom")
	remote := &RemoteCallError{Op: "create_issue", Scope: "C1", Entity: "RIG", Err: cause}
	local := &LocalCallError{Op: "create_task", Location: "Characters/C1", Entity: "Rigging", Err: cause}

	assert.ErrorIs(t, remote, cause)
	assert.ErrorIs(t, local, cause)
	assert.ErrorIs(t, &RunError{Stage: StageRemote, Err: remote}, cause)
	assert.True(t, IsLocationNotFound(fmt.Errorf("x: %w", &LocationNotFoundError{})))
	assert.True(t, IsLocked(&RunError{Err: &LockedError{Scope: "C1"}}))
}

func TestRunReport_Changed(t *testing.T) {
	var nilReport *RunReport
	assert.False(t, nilReport.Changed())

	r := &RunReport{}
	assert.False(t, r.Changed())

	r.Remote.EpicsReused = 2
	assert.False(t, r.Changed(), "reusing epics is not a change")

	r.Local.TasksUpdated = 1
	assert.True(t, r.Changed())
}
