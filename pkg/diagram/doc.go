// Package diagram provides the graph model produced for a clause description.
//
// # Overview
//
// A [Graph] is a set of labelled nodes, a list of styled edge chains and a
// list of rank groups. It carries no coordinates: layout is left to Graphviz,
// and the rank groups are the only placement constraints the model states.
//
// # Node Identity
//
// Nodes are keyed by [NodeID], a comparable tagged value built from a role
// and the unit and operator indices it belongs to. Identity never depends on
// the labels in the input, so two units with the same category or operator
// label always get distinct nodes. [NodeID.Name] maps an identifier to a
// stable name suitable for DOT output:
//
//	diagram.Backbone(clause.Core).Name()        // "CoreTop"
//	diagram.Category(4).Name()                  // "cat4"
//	diagram.Periphery(clause.CoreP, 5).Name()   // "CoreP5Top"
//	diagram.Operator(0, 1).Name()               // "op0_1"
//
// # Building
//
// Create a graph with [New], then add nodes, edges and ranks. Edges and ranks
// may only reference nodes that were already added:
//
//	g := diagram.New()
//	g.AddNode(diagram.Node{ID: diagram.Terminal(0), Label: "leaving"})
//	g.AddNode(diagram.Node{ID: diagram.Category(0), Label: "V"})
//	g.AddEdge(diagram.Edge{
//	    Path:  []diagram.NodeID{diagram.Terminal(0), diagram.Category(0)},
//	    Style: diagram.EdgeStyle{NoArrow: true},
//	    Kind:  diagram.EdgeAttach,
//	})
//
// # Comparison
//
// [Graph.Equal] compares two graphs structurally: node sets, edge multisets
// and rank member sets. Emission order is ignored, which is what tests of the
// builder care about.
//
// # Concurrency
//
// A Graph is not safe for concurrent mutation. Once built it is treated as
// immutable and may be read from multiple goroutines.
package diagram
