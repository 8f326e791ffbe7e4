package reconciler

import (
	"context"
	"fmt"

	"github.com/ynput/ayon-jira/internal/api"
	"github.com/ynput/ayon-jira/internal/remote"
	"github.com/ynput/ayon-jira/internal/template"
	"github.com/ynput/ayon-jira/pkg/logging"
)

// LinkOptions configures a LinkResolver.
type LinkOptions struct {
	Types LinkTypes
	// Dedupe skips links that already exist. It requires a tracker that
	// implements remote.LinkLister; otherwise every link is created.
	Dedupe   bool
	Observer Observer
	Metrics  *ReconcilerMetrics
}

// LinkResolver materializes the Depends_On and Unblocks references of a
// document as directed tracker links.
type LinkResolver struct {
	tracker  remote.Tracker
	types    LinkTypes
	lister   remote.LinkLister
	observer Observer
	metrics  *ReconcilerMetrics
}

// NewLinkResolver creates a resolver over tracker.
func NewLinkResolver(tracker remote.Tracker, opts LinkOptions) *LinkResolver {
	if opts.Types.DependsOn == "" {
		opts.Types.DependsOn = DefaultLinkTypes.DependsOn
	}
	if opts.Types.Unblocks == "" {
		opts.Types.Unblocks = DefaultLinkTypes.Unblocks
	}
	if opts.Metrics == nil {
		opts.Metrics = GetReconcilerMetrics()
	}
	r := &LinkResolver{tracker: tracker, types: opts.Types, observer: opts.Observer, metrics: opts.Metrics}
	if opts.Dedupe {
		if lister, ok := tracker.(remote.LinkLister); ok {
			r.lister = lister
		} else {
			logging.Warn("LinkResolver", "Link de-duplication requested but %T cannot list links", tracker)
		}
	}
	return r
}

// LinkResult counts the links of one scope.
type LinkResult struct {
	Created int
	Skipped int
}

// Resolve creates the links of every item in document order. Each reference
// is resolved through issues (custom ID -> key); an unknown reference is a
// *api.DanglingReferenceError. The current item is the source of the link
// and the referenced item its target.
func (r *LinkResolver) Resolve(ctx context.Context, scope string, doc *template.RemoteDocument, issues map[string]string) (LinkResult, error) {
	var result LinkResult
	existing := make(map[string]map[remote.Link]bool)

	for _, item := range doc.Items {
		fromKey, ok := issues[item.CustomID]
		if !ok {
			return result, fmt.Errorf("scope %s: item %s has no remote issue", scope, item.CustomID)
		}

		edges := []struct {
			field    string
			linkType string
			refs     []string
		}{
			{"Depends_On", r.types.DependsOn, item.DependsOnIDs()},
			{"Unblocks", r.types.Unblocks, item.UnblocksIDs()},
		}
		for _, edge := range edges {
			for _, ref := range edge.refs {
				toKey, ok := issues[ref]
				if !ok {
					return result, &api.DanglingReferenceError{
						Scope: scope, CustomID: item.CustomID, Field: edge.field, Reference: ref,
					}
				}

				link := remote.Link{Type: edge.linkType, From: fromKey, To: toKey}
				if r.lister != nil {
					known, err := r.linksOf(ctx, existing, fromKey)
					if err != nil {
						return result, r.fail(scope, item.CustomID, err)
					}
					if known[link] {
						result.Skipped++
						notify(r.observer, ChangeEvent{Kind: KindLink, Operation: OperationSkip, Scope: scope, Name: item.CustomID + "->" + ref, Key: link.String()})
						continue
					}
				}

				if err := r.tracker.CreateLink(ctx, link.Type, link.From, link.To); err != nil {
					return result, r.fail(scope, item.CustomID, err)
				}
				if r.lister != nil {
					existing[fromKey][link] = true
				}
				result.Created++
				notify(r.observer, ChangeEvent{Kind: KindLink, Operation: OperationCreate, Scope: scope, Name: item.CustomID + "->" + ref, Key: link.String()})
			}
		}
	}

	logging.Info("LinkResolver", "Scope %s: %d links created, %d skipped", scope, result.Created, result.Skipped)
	return result, nil
}

func (r *LinkResolver) linksOf(ctx context.Context, cache map[string]map[remote.Link]bool, key string) (map[remote.Link]bool, error) {
	if known, ok := cache[key]; ok {
		return known, nil
	}
	links, err := r.lister.ListLinks(ctx, key)
	if err != nil {
		return nil, err
	}
	known := make(map[remote.Link]bool, len(links))
	for _, l := range links {
		known[l] = true
	}
	cache[key] = known
	return known, nil
}

func (r *LinkResolver) fail(scope, entity string, err error) error {
	r.metrics.RecordFailure(KindLink, entity, err.Error())
	return &api.RemoteCallError{Op: "create_link", Scope: scope, Entity: entity, Err: err}
}
