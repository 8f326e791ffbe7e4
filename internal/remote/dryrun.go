package remote

import (
	"context"
	"strings"
	"sync"

	"github.com/ynput/ayon-jira/pkg/logging"
)

// DryRunKeyPrefix marks keys synthesized by a DryRunTracker.
const DryRunKeyPrefix = "DRYRUN"

// Update is a recorded issue update.
type Update struct {
	Key    string
	Fields Fields
}

// DryRunTracker reads from an underlying tracker and records writes instead
// of performing them. Entities "created" during the dry run are visible to
// later reads of the same run.
type DryRunTracker struct {
	inner   Tracker
	overlay *MemoryTracker

	mu      sync.Mutex
	updates []Update
	links   []Link
}

// NewDryRunTracker wraps inner.
func NewDryRunTracker(inner Tracker) *DryRunTracker {
	return &DryRunTracker{inner: inner, overlay: newOverlayTracker(DryRunKeyPrefix)}
}

// FindEpics implements Tracker.
func (d *DryRunTracker) FindEpics(ctx context.Context, projectCode string, filter Filter) ([]Issue, error) {
	found, err := d.inner.FindEpics(ctx, projectCode, filter)
	if err != nil {
		return nil, err
	}
	created, err := d.overlay.FindEpics(ctx, projectCode, filter)
	if err != nil {
		return nil, err
	}
	return append(found, created...), nil
}

// FindIssues implements Tracker.
func (d *DryRunTracker) FindIssues(ctx context.Context, projectCode string, filter Filter) ([]Issue, error) {
	found, err := d.inner.FindIssues(ctx, projectCode, filter)
	if err != nil {
		return nil, err
	}
	created, err := d.overlay.FindIssues(ctx, projectCode, filter)
	if err != nil {
		return nil, err
	}
	return append(found, created...), nil
}

// CreateEpic implements Tracker.
func (d *DryRunTracker) CreateEpic(ctx context.Context, projectCode string, fields Fields) (string, error) {
	key := d.overlay.Seed(projectCode, true, fields)
	logging.Info("Jira", "[dry-run] would create epic %q as %s", fields[FieldSummary], key)
	return key, nil
}

// CreateIssue implements Tracker. Parents are not validated since they may
// live in the underlying tracker.
func (d *DryRunTracker) CreateIssue(ctx context.Context, projectCode string, fields Fields) (string, error) {
	key := d.overlay.Seed(projectCode, false, fields)
	logging.Info("Jira", "[dry-run] would create issue %q as %s", fields[FieldSummary], key)
	return key, nil
}

// UpdateIssue implements Tracker.
func (d *DryRunTracker) UpdateIssue(ctx context.Context, key string, fields Fields) error {
	if strings.HasPrefix(key, DryRunKeyPrefix+"-") {
		if err := d.overlay.UpdateIssue(ctx, key, fields); err != nil {
			return err
		}
	}
	d.mu.Lock()
	d.updates = append(d.updates, Update{Key: key, Fields: fields.Clone()})
	d.mu.Unlock()
	logging.Info("Jira", "[dry-run] would update %s (%d fields)", key, len(fields))
	return nil
}

// CreateLink implements Tracker.
func (d *DryRunTracker) CreateLink(ctx context.Context, linkType, fromKey, toKey string) error {
	link := Link{Type: linkType, From: fromKey, To: toKey}
	d.mu.Lock()
	d.links = append(d.links, link)
	d.mu.Unlock()
	logging.Info("Jira", "[dry-run] would link %s", link)
	return nil
}

// ListLinks implements LinkLister. When the underlying tracker cannot list
// links only the links recorded during the dry run are returned.
func (d *DryRunTracker) ListLinks(ctx context.Context, key string) ([]Link, error) {
	var links []Link
	if lister, ok := d.inner.(LinkLister); ok && !strings.HasPrefix(key, DryRunKeyPrefix+"-") {
		found, err := lister.ListLinks(ctx, key)
		if err != nil {
			return nil, err
		}
		links = append(links, found...)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, l := range d.links {
		if l.From == key || l.To == key {
			links = append(links, l)
		}
	}
	return links, nil
}

// Updates returns the recorded updates.
func (d *DryRunTracker) Updates() []Update {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Update(nil), d.updates...)
}

// Links returns the recorded links.
func (d *DryRunTracker) Links() []Link {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Link(nil), d.links...)
}
