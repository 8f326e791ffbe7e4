package remote

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDryRunTracker(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryTracker()
	existing := inner.Seed("KAN", false, Fields{FieldSummary: "Rig", FieldScopeTag: "C1_RIG"})
	d := NewDryRunTracker(inner)

	epic, err := d.CreateEpic(ctx, "KAN", Fields{FieldSummary: "Character1", FieldScopeTag: "C1_MDL"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(epic, DryRunKeyPrefix+"-"))

	issue, err := d.CreateIssue(ctx, "KAN", Fields{FieldSummary: "Model", FieldScopeTag: "C1_MDL", FieldParent: epic})
	require.NoError(t, err)

	issues, err := d.FindIssues(ctx, "KAN", ScopeFilter("C1"))
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, existing, issues[0].Key)
	assert.Equal(t, issue, issues[1].Key)

	epics, err := d.FindEpics(ctx, "KAN", ScopeFilter("C1"))
	require.NoError(t, err)
	require.Len(t, epics, 1)

	require.NoError(t, d.UpdateIssue(ctx, existing, Fields{FieldLocalTask: "t1"}))
	require.NoError(t, d.CreateLink(ctx, "Depends", issue, existing))

	// Nothing reached the underlying tracker.
	assert.Empty(t, inner.Epics())
	assert.Len(t, inner.Issues(), 1)
	assert.Empty(t, inner.Links())
	fields, _ := inner.Get(existing)
	assert.Empty(t, fields[FieldLocalTask])

	assert.Len(t, d.Updates(), 1)
	assert.Equal(t, []Link{{Type: "Depends", From: issue, To: existing}}, d.Links())

	links, err := d.ListLinks(ctx, existing)
	require.NoError(t, err)
	assert.Len(t, links, 1)
}

// listlessTracker hides the LinkLister of the tracker it wraps.
type listlessTracker struct {
	Tracker
}

func TestDryRunTracker_ListLinksWithoutInnerLister(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryTracker()
	a := inner.Seed("KAN", false, Fields{FieldSummary: "A"})
	b := inner.Seed("KAN", false, Fields{FieldSummary: "B"})
	require.NoError(t, inner.CreateLink(ctx, "Depends", a, b))
	d := NewDryRunTracker(listlessTracker{Tracker: inner})

	links, err := d.ListLinks(ctx, a)
	require.NoError(t, err)
	assert.Empty(t, links, "links of the underlying tracker are not visible")

	require.NoError(t, d.CreateLink(ctx, "Blocks", b, a))
	links, err = d.ListLinks(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, []Link{{Type: "Blocks", From: b, To: a}}, links)
	assert.Zero(t, inner.Calls("ListLinks"))
}
