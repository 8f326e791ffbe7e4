package dependency

import (
	"fmt"
	"strings"

	"github.com/ynput/ayon-jira/internal/api"
	"github.com/ynput/ayon-jira/internal/template"
)

// NodeID is the custom ID of a template item.
type NodeID string

// EdgeKind distinguishes the two reference fields of a template item.
type EdgeKind int

const (
	// EdgeDependsOn is declared by the Depends_On field.
	EdgeDependsOn EdgeKind = iota
	// EdgeUnblocks is declared by the Unblocks field.
	EdgeUnblocks
)

// Field returns the template field name that declares edges of this kind.
func (k EdgeKind) Field() string {
	if k == EdgeUnblocks {
		return "Unblocks"
	}
	return "Depends_On"
}

// Node is one template item together with its outgoing references.
type Node struct {
	ID        NodeID
	Summary   string
	DependsOn []NodeID
	Unblocks  []NodeID
}

// Reference is one declared edge of the graph.
type Reference struct {
	From NodeID
	To   NodeID
	Kind EdgeKind
}

// Graph answers reference queries over the items of one remote document.
// It is not thread-safe; callers build it once per run and only read it.
type Graph struct {
	nodes map[NodeID]*Node
	order []NodeID
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[NodeID]*Node)}
}

// FromDocument builds the graph of a remote document.
func FromDocument(doc *template.RemoteDocument) *Graph {
	g := New()
	for _, item := range doc.Items {
		g.AddNode(Node{
			ID:        NodeID(item.CustomID),
			Summary:   item.Summary,
			DependsOn: toIDs(item.DependsOnIDs()),
			Unblocks:  toIDs(item.UnblocksIDs()),
		})
	}
	return g
}

func toIDs(refs []string) []NodeID {
	ids := make([]NodeID, 0, len(refs))
	for _, r := range refs {
		ids = append(ids, NodeID(r))
	}
	return ids
}

// AddNode adds (or replaces) a node in the graph.
func (g *Graph) AddNode(n Node) {
	if g.nodes == nil {
		g.nodes = make(map[NodeID]*Node)
	}
	if _, exists := g.nodes[n.ID]; !exists {
		g.order = append(g.order, n.ID)
	}
	// Copy to avoid external mutations
	copied := n
	copied.DependsOn = append([]NodeID(nil), n.DependsOn...)
	copied.Unblocks = append([]NodeID(nil), n.Unblocks...)
	g.nodes[n.ID] = &copied
}

// Get returns a pointer to the stored node or nil if it does not exist.
func (g *Graph) Get(id NodeID) *Node {
	return g.nodes[id]
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// IDs returns the node IDs in insertion order.
func (g *Graph) IDs() []NodeID {
	return append([]NodeID(nil), g.order...)
}

// Dependencies returns the immediate prerequisites of id: the nodes it depends
// on and the nodes that declare they unblock it.
func (g *Graph) Dependencies(id NodeID) []NodeID {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	deps := append([]NodeID(nil), n.DependsOn...)
	for _, other := range g.order {
		for _, target := range g.nodes[other].Unblocks {
			if target == id {
				deps = append(deps, other)
				break
			}
		}
	}
	return dedupe(deps)
}

// Dependents returns the nodes that must wait for id, in insertion order.
func (g *Graph) Dependents(id NodeID) []NodeID {
	var res []NodeID
	if n, ok := g.nodes[id]; ok {
		res = append(res, n.Unblocks...)
	}
	for _, other := range g.order {
		for _, dep := range g.nodes[other].DependsOn {
			if dep == id {
				res = append(res, other)
				break
			}
		}
	}
	return dedupe(res)
}

// References returns every declared edge in document order.
func (g *Graph) References() []Reference {
	var refs []Reference
	for _, id := range g.order {
		n := g.nodes[id]
		for _, to := range n.DependsOn {
			refs = append(refs, Reference{From: id, To: to, Kind: EdgeDependsOn})
		}
		for _, to := range n.Unblocks {
			refs = append(refs, Reference{From: id, To: to, Kind: EdgeUnblocks})
		}
	}
	return refs
}

// Missing returns the references whose target is not a node of the graph.
func (g *Graph) Missing() []Reference {
	var missing []Reference
	for _, ref := range g.References() {
		if _, ok := g.nodes[ref.To]; !ok {
			missing = append(missing, ref)
		}
	}
	return missing
}

// CheckReferences returns a *api.DanglingReferenceError for the first
// reference that names an unknown custom ID.
func (g *Graph) CheckReferences(scope string) error {
	missing := g.Missing()
	if len(missing) == 0 {
		return nil
	}
	ref := missing[0]
	return &api.DanglingReferenceError{
		Scope:     scope,
		CustomID:  string(ref.From),
		Field:     ref.Kind.Field(),
		Reference: string(ref.To),
	}
}

// TopologicalSort orders nodes so that prerequisites come first. Ties keep
// insertion order. References to unknown nodes are ignored.
func (g *Graph) TopologicalSort() ([]NodeID, error) {
	indegree := make(map[NodeID]int, len(g.nodes))
	for _, id := range g.order {
		for _, dep := range g.Dependencies(id) {
			if _, ok := g.nodes[dep]; ok {
				indegree[id]++
			}
		}
	}

	sorted := make([]NodeID, 0, len(g.nodes))
	done := make(map[NodeID]bool, len(g.nodes))
	for len(sorted) < len(g.order) {
		progressed := false
		for _, id := range g.order {
			if done[id] || indegree[id] > 0 {
				continue
			}
			done[id] = true
			sorted = append(sorted, id)
			progressed = true
			for _, dependent := range g.Dependents(id) {
				if _, ok := g.nodes[dependent]; ok {
					indegree[dependent]--
				}
			}
		}
		if !progressed {
			var cyclic []string
			for _, id := range g.order {
				if !done[id] {
					cyclic = append(cyclic, string(id))
				}
			}
			return sorted, fmt.Errorf("dependency cycle among %s", strings.Join(cyclic, ", "))
		}
	}
	return sorted, nil
}

func dedupe(ids []NodeID) []NodeID {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[NodeID]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
