// Package dependency models the references between the items of a remote
// template document.
//
// Every item is a node keyed by its custom ID. Depends_On and Unblocks
// declare directed edges: "B depends on A" and "A unblocks B" both make A a
// prerequisite of B.
//
// The graph serves two purposes:
//
//  1. Pre-flight validation. CheckReferences reports the first reference to
//     an unknown custom ID before either system is touched.
//  2. Reporting. TopologicalSort yields a work order for report output and
//     flags cycles, which the issue tracker tolerates but which usually mean
//     a template mistake.
//
// # Usage Example
//
//	graph := dependency.FromDocument(doc)
//	if err := graph.CheckReferences(scope); err != nil {
//	    return err // *api.DanglingReferenceError
//	}
//	order, err := graph.TopologicalSort()
//
// The Graph type is not thread-safe. Build it once and only read it afterwards.
package dependency
