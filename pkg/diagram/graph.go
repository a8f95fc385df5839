package diagram

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] for the zero NodeID or
	// an ID whose role is unknown.
	ErrInvalidNodeID = errors.New("invalid node ID")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownNode is returned by [Graph.AddEdge] and [Graph.AddRank] when
	// they reference a node that has not been added.
	ErrUnknownNode = errors.New("unknown node")

	// ErrShortPath is returned by [Graph.AddEdge] for paths with fewer than
	// two nodes.
	ErrShortPath = errors.New("edge path needs at least two nodes")

	// ErrInvalidRank is returned by [Graph.AddRank] for unnamed or empty ranks
	// and for names already in use.
	ErrInvalidRank = errors.New("invalid rank")
)

// GroupMain tags the nodes that sit on the central vertical axis.
const GroupMain = "main"

// Node is a labelled vertex. Group is an optional alignment tag passed
// through to the renderer.
type Node struct {
	ID    NodeID
	Label string
	Group string
}

// EdgeStyle holds the presentation attributes of an edge.
type EdgeStyle struct {
	Dotted    bool // drawn dotted
	Invisible bool // laid out but not drawn
	NoArrow   bool // no arrowhead
}

// EdgeKind tags the structural role of an edge.
type EdgeKind string

// Edge kinds emitted by the builder.
const (
	EdgeBackbone  EdgeKind = "backbone"  // adjacent layers on either chain
	EdgeAttach    EdgeKind = "attach"    // terminal through category to its layer
	EdgePeriphery EdgeKind = "periphery" // periphery node to its base layer
	EdgeScope     EdgeKind = "scope"     // terminal to one of its operators
	EdgeOperator  EdgeKind = "operator"  // operator to the layer it scopes
	EdgeSpine     EdgeKind = "spine"     // the central axis through the head
	EdgeAlign     EdgeKind = "align"     // invisible ordering of terminals
)

// Edge is a directed chain over two or more nodes sharing one style.
// A two-node Path is an ordinary edge.
type Edge struct {
	Path  []NodeID
	Style EdgeStyle
	Kind  EdgeKind
}

// Rank names a set of nodes that render on the same horizontal rank.
// Membership is a set; Members keeps insertion order for stable output.
type Rank struct {
	Name    string
	Members []NodeID
}

// Graph is the diagram model: nodes in insertion order, edges, and rank
// groups. The zero value is not usable; create graphs with [New].
type Graph struct {
	nodes map[NodeID]*Node
	order []NodeID
	edges []Edge
	ranks []Rank
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[NodeID]*Node)}
}

// AddNode adds n to the graph. It returns ErrInvalidNodeID for zero or
// unnamed IDs and ErrDuplicateNodeID if the ID is already present.
func (g *Graph) AddNode(n Node) error {
	if n.ID.IsZero() || n.ID.Name() == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNodeID, n.ID)
	}
	node := n
	g.nodes[n.ID] = &node
	g.order = append(g.order, n.ID)
	return nil
}

// AddEdge appends e. Every node on the path must already exist.
func (g *Graph) AddEdge(e Edge) error {
	if len(e.Path) < 2 {
		return ErrShortPath
	}
	for _, id := range e.Path {
		if _, ok := g.nodes[id]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownNode, id)
		}
	}
	e.Path = slices.Clone(e.Path)
	g.edges = append(g.edges, e)
	return nil
}

// AddRank appends a rank group. The name must be non-empty and unused, and
// every member must already exist. Repeated members are kept once.
func (g *Graph) AddRank(r Rank) error {
	if r.Name == "" || len(r.Members) == 0 {
		return fmt.Errorf("%w: rank needs a name and at least one member", ErrInvalidRank)
	}
	if _, ok := g.Rank(r.Name); ok {
		return fmt.Errorf("%w: duplicate rank %q", ErrInvalidRank, r.Name)
	}
	members := make([]NodeID, 0, len(r.Members))
	for _, id := range r.Members {
		if _, ok := g.nodes[id]; !ok {
			return fmt.Errorf("%w: %s in rank %q", ErrUnknownNode, id, r.Name)
		}
		if !slices.Contains(members, id) {
			members = append(members, id)
		}
	}
	g.ranks = append(g.ranks, Rank{Name: r.Name, Members: members})
	return nil
}

// Node returns the node with the given ID.
func (g *Graph) Node(id NodeID) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Has reports whether the graph contains id.
func (g *Graph) Has(id NodeID) bool {
	_, ok := g.nodes[id]
	return ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []Node {
	nodes := make([]Node, len(g.order))
	for i, id := range g.order {
		nodes[i] = *g.nodes[id]
	}
	return nodes
}

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, len(g.edges))
	for i, e := range g.edges {
		e.Path = slices.Clone(e.Path)
		edges[i] = e
	}
	return edges
}

// EdgesOfKind returns the edges tagged with kind, in insertion order.
func (g *Graph) EdgesOfKind(kind EdgeKind) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.Kind == kind {
			e.Path = slices.Clone(e.Path)
			out = append(out, e)
		}
	}
	return out
}

// Ranks returns a copy of all rank groups in insertion order.
func (g *Graph) Ranks() []Rank {
	ranks := make([]Rank, len(g.ranks))
	for i, r := range g.ranks {
		ranks[i] = Rank{Name: r.Name, Members: slices.Clone(r.Members)}
	}
	return ranks
}

// Rank returns the named rank group.
func (g *Graph) Rank(name string) (Rank, bool) {
	for _, r := range g.ranks {
		if r.Name == name {
			return Rank{Name: r.Name, Members: slices.Clone(r.Members)}, true
		}
	}
	return Rank{}, false
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.order) }

// EdgeCount returns the number of edge chains. A chain of n nodes counts once.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// RankCount returns the number of rank groups.
func (g *Graph) RankCount() int { return len(g.ranks) }

// Validate checks that every edge and rank refers to existing nodes. Graphs
// built through AddEdge and AddRank always pass; Validate guards graphs
// decoded from elsewhere.
func (g *Graph) Validate() error {
	if len(g.nodes) != len(g.order) {
		return fmt.Errorf("node index out of sync: %d indexed, %d ordered", len(g.nodes), len(g.order))
	}
	for i, e := range g.edges {
		if len(e.Path) < 2 {
			return fmt.Errorf("edge %d: %w", i, ErrShortPath)
		}
		for _, id := range e.Path {
			if !g.Has(id) {
				return fmt.Errorf("edge %d: %w: %s", i, ErrUnknownNode, id)
			}
		}
	}
	for _, r := range g.ranks {
		for _, id := range r.Members {
			if !g.Has(id) {
				return fmt.Errorf("rank %q: %w: %s", r.Name, ErrUnknownNode, id)
			}
		}
	}
	return nil
}

// Equal reports whether g and other have the same nodes (ID, label and
// group), the same multiset of edges and the same rank groups compared as
// sets. Emission order is ignored.
func (g *Graph) Equal(other *Graph) bool {
	if g == nil || other == nil {
		return g == other
	}
	if g.NodeCount() != other.NodeCount() || g.EdgeCount() != other.EdgeCount() || g.RankCount() != other.RankCount() {
		return false
	}
	for id, n := range g.nodes {
		m, ok := other.nodes[id]
		if !ok || *n != *m {
			return false
		}
	}
	return slices.Equal(edgeKeys(g.edges), edgeKeys(other.edges)) &&
		slices.Equal(rankKeys(g.ranks), rankKeys(other.ranks))
}

func edgeKeys(edges []Edge) []string {
	keys := make([]string, len(edges))
	for i, e := range edges {
		names := make([]string, len(e.Path))
		for j, id := range e.Path {
			names[j] = id.Name()
		}
		keys[i] = fmt.Sprintf("%s|%t%t%t|%s", e.Kind, e.Style.Dotted, e.Style.Invisible, e.Style.NoArrow,
			strings.Join(names, ">"))
	}
	slices.Sort(keys)
	return keys
}

func rankKeys(ranks []Rank) []string {
	keys := make([]string, len(ranks))
	for i, r := range ranks {
		names := make([]string, len(r.Members))
		for j, id := range r.Members {
			names[j] = id.Name()
		}
		slices.Sort(names)
		keys[i] = r.Name + "|" + strings.Join(names, ",")
	}
	slices.Sort(keys)
	return keys
}
