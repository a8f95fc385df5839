// Package projection builds the layered-structure diagram for a clause.
//
// # Overview
//
// [Build] turns an ordered list of [clause.Unit] values into a
// [diagram.Graph] in one pass over the units. The graph has four parts:
//
//   - A fixed projection backbone: an upper chain of layer nodes
//     (Sentence, Clause, Core, Nuc, Pred) and a mirrored lower chain.
//   - Category attachments: each unit with a top gets a category node wired
//     to the layer it attaches to. CoreP and ClauseP attach through a
//     unit-scoped periphery node ranked level with Core or Clause.
//   - Operator attachments: each bottom gets an operator node, linked to its
//     unit by a dotted edge and to the lower layer node it scopes.
//   - A central spine through the head unit plus rank groups that keep the
//     terminals on one row in input order and the categories on another.
//
// # Head
//
// Exactly one unit must carry a Pred-kind top. [Head] checks this before any
// node is created, so Build either returns a complete graph or an error with
// code MISSING_HEAD or MULTIPLE_HEADS, never a partial graph.
//
// # Purity
//
// Build holds no state between calls and does no I/O. Calling it twice on
// the same input yields graphs that compare [diagram.Graph.Equal], and it is
// safe to call from multiple goroutines.
package projection
