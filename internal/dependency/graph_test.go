package dependency

import (
	"errors"
	"reflect"
	"testing"

	"github.com/ynput/ayon-jira/internal/api"
	"github.com/ynput/ayon-jira/internal/template"
)

func outfitGraph() *Graph {
	return FromDocument(&template.RemoteDocument{Items: []template.RemoteItem{
		{CustomID: "CON", Summary: "Concept", Unblocks: "MDL"},
		{CustomID: "MDL", Summary: "Model"},
		{CustomID: "RIG", Summary: "Rig", DependsOn: "MDL"},
		{CustomID: "TEX", Summary: "Texture", DependsOn: "MDL, CON"},
	}})
}

func TestNew(t *testing.T) {
	g := New()
	if g == nil {
		t.Fatal("New() returned nil")
	}
	if g.Len() != 0 {
		t.Fatalf("expected empty graph, got %d nodes", g.Len())
	}
}

func TestAddNode(t *testing.T) {
	tests := []struct {
		name     string
		nodes    []Node
		expected []NodeID
	}{
		{
			name:     "add single node",
			nodes:    []Node{{ID: "A"}},
			expected: []NodeID{"A"},
		},
		{
			name:     "insertion order kept",
			nodes:    []Node{{ID: "B"}, {ID: "A"}, {ID: "C", DependsOn: []NodeID{"A"}}},
			expected: []NodeID{"B", "A", "C"},
		},
		{
			name:     "replace existing node",
			nodes:    []Node{{ID: "A", Summary: "old"}, {ID: "B"}, {ID: "A", Summary: "new"}},
			expected: []NodeID{"A", "B"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			for _, node := range tt.nodes {
				g.AddNode(node)
			}
			if got := g.IDs(); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("expected IDs %v, got %v", tt.expected, got)
			}
			last := tt.nodes[len(tt.nodes)-1]
			if node := g.Get(last.ID); node == nil || node.Summary != last.Summary {
				t.Errorf("node %s not stored as last added", last.ID)
			}
		})
	}
}

func TestAddNodeCopiesSlices(t *testing.T) {
	deps := []NodeID{"A"}
	g := New()
	g.AddNode(Node{ID: "B", DependsOn: deps})
	deps[0] = "Z"
	if got := g.Dependencies("B"); !reflect.DeepEqual(got, []NodeID{"A"}) {
		t.Errorf("graph shares caller slice: %v", got)
	}
}

func TestDependencies(t *testing.T) {
	g := outfitGraph()

	tests := []struct {
		nodeID   NodeID
		expected []NodeID
	}{
		{"CON", nil},
		{"MDL", []NodeID{"CON"}},
		{"RIG", []NodeID{"MDL"}},
		{"TEX", []NodeID{"MDL", "CON"}},
		{"nonexistent", nil},
	}

	for _, tt := range tests {
		t.Run(string(tt.nodeID), func(t *testing.T) {
			if got := g.Dependencies(tt.nodeID); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestDependents(t *testing.T) {
	g := outfitGraph()

	tests := []struct {
		nodeID   NodeID
		expected []NodeID
	}{
		{"CON", []NodeID{"MDL", "TEX"}},
		{"MDL", []NodeID{"RIG", "TEX"}},
		{"RIG", nil},
		{"nonexistent", nil},
	}

	for _, tt := range tests {
		t.Run(string(tt.nodeID), func(t *testing.T) {
			if got := g.Dependents(tt.nodeID); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestReferences(t *testing.T) {
	got := outfitGraph().References()
	expected := []Reference{
		{From: "CON", To: "MDL", Kind: EdgeUnblocks},
		{From: "RIG", To: "MDL", Kind: EdgeDependsOn},
		{From: "TEX", To: "MDL", Kind: EdgeDependsOn},
		{From: "TEX", To: "CON", Kind: EdgeDependsOn},
	}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}
}

func TestCheckReferences(t *testing.T) {
	if err := outfitGraph().CheckReferences("C1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	g := FromDocument(&template.RemoteDocument{Items: []template.RemoteItem{
		{CustomID: "A", Summary: "a"},
		{CustomID: "B", Summary: "b", Unblocks: "A, Z"},
	}})

	err := g.CheckReferences("C1")
	var dangling *api.DanglingReferenceError
	if !errors.As(err, &dangling) {
		t.Fatalf("expected DanglingReferenceError, got %v", err)
	}
	want := api.DanglingReferenceError{Scope: "C1", CustomID: "B", Field: "Unblocks", Reference: "Z"}
	if *dangling != want {
		t.Errorf("expected %+v, got %+v", want, *dangling)
	}
	if len(g.Missing()) != 1 {
		t.Errorf("expected one missing reference, got %v", g.Missing())
	}
}

func TestTopologicalSort(t *testing.T) {
	order, err := outfitGraph().TopologicalSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []NodeID{"CON", "MDL", "RIG", "TEX"}
	if !reflect.DeepEqual(order, expected) {
		t.Errorf("expected %v, got %v", expected, order)
	}
}

func TestTopologicalSortCycle(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "A", DependsOn: []NodeID{"B"}})
	g.AddNode(Node{ID: "B", DependsOn: []NodeID{"A"}})
	g.AddNode(Node{ID: "C"})

	order, err := g.TopologicalSort()
	if err == nil {
		t.Fatal("expected a cycle error")
	}
	if !reflect.DeepEqual(order, []NodeID{"C"}) {
		t.Errorf("expected partial order [C], got %v", order)
	}
}

func TestTopologicalSortIgnoresUnknownTargets(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "A", DependsOn: []NodeID{"missing"}})
	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(order, []NodeID{"A"}) {
		t.Errorf("expected [A], got %v", order)
	}
}
