package diagram

import (
	"encoding/json"
	"fmt"
	"io"
)

// Document is the serialization format of a graph, used for the json output
// format and API responses. Nodes are referenced by [NodeID.Name].
type Document struct {
	Nodes []NodeDoc `json:"nodes" bson:"nodes"`
	Edges []EdgeDoc `json:"edges" bson:"edges"`
	Ranks []RankDoc `json:"ranks" bson:"ranks"`
}

// NodeDoc is the serialized form of a [Node].
type NodeDoc struct {
	ID    string `json:"id" bson:"id"`
	Role  string `json:"role" bson:"role"`
	Label string `json:"label" bson:"label"`
	Group string `json:"group,omitempty" bson:"group,omitempty"`
	Unit  *int   `json:"unit,omitempty" bson:"unit,omitempty"` // set for unit-scoped roles
}

// EdgeDoc is the serialized form of an [Edge].
type EdgeDoc struct {
	Path      []string `json:"path" bson:"path"`
	Kind      string   `json:"kind" bson:"kind"`
	Dotted    bool     `json:"dotted,omitempty" bson:"dotted,omitempty"`
	Invisible bool     `json:"invisible,omitempty" bson:"invisible,omitempty"`
	NoArrow   bool     `json:"no_arrow,omitempty" bson:"no_arrow,omitempty"`
}

// RankDoc is the serialized form of a [Rank].
type RankDoc struct {
	Name    string   `json:"name" bson:"name"`
	Members []string `json:"members" bson:"members"`
}

// Export converts g to its serialization format.
func Export(g *Graph) Document {
	doc := Document{
		Nodes: make([]NodeDoc, 0, g.NodeCount()),
		Edges: make([]EdgeDoc, 0, g.EdgeCount()),
		Ranks: make([]RankDoc, 0, g.RankCount()),
	}

	for _, n := range g.Nodes() {
		nd := NodeDoc{ID: n.ID.Name(), Role: n.ID.Role.String(), Label: n.Label, Group: n.Group}
		if unitScoped(n.ID.Role) {
			unit := n.ID.Unit
			nd.Unit = &unit
		}
		doc.Nodes = append(doc.Nodes, nd)
	}
	for _, e := range g.Edges() {
		doc.Edges = append(doc.Edges, EdgeDoc{
			Path:      names(e.Path),
			Kind:      string(e.Kind),
			Dotted:    e.Style.Dotted,
			Invisible: e.Style.Invisible,
			NoArrow:   e.Style.NoArrow,
		})
	}
	for _, r := range g.Ranks() {
		doc.Ranks = append(doc.Ranks, RankDoc{Name: r.Name, Members: names(r.Members)})
	}
	return doc
}

// MarshalJSON encodes the graph as its [Document].
func (g *Graph) MarshalJSON() ([]byte, error) {
	return json.Marshal(Export(g))
}

// WriteJSON writes g as indented JSON to w.
func WriteJSON(g *Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Export(g)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func unitScoped(r Role) bool {
	return r != RoleBackbone && r != RoleBottomLayer
}

func names(ids []NodeID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Name()
	}
	return out
}
