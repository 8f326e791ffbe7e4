package reconciler

import (
	"github.com/ynput/ayon-jira/internal/template"
)

// twoItemDocument has A (no dependencies) and B depending on A, both under
// the epic "Character1".
func twoItemDocument() *template.RemoteDocument {
	return &template.RemoteDocument{Items: []template.RemoteItem{
		{CustomID: "A", EpicLink: "Character1", Summary: "Concept", Description: "first"},
		{CustomID: "B", EpicLink: "Character1", Summary: "Model", DependsOn: "A"},
	}}
}

type eventRecorder struct {
	events []ChangeEvent
}

func (r *eventRecorder) Observe(e ChangeEvent) { r.events = append(r.events, e) }

func (r *eventRecorder) count(kind EntityKind, op ChangeOperation) int {
	n := 0
	for _, e := range r.events {
		if e.Kind == kind && e.Operation == op {
			n++
		}
	}
	return n
}
