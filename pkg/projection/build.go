package projection

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/clausetree/pkg/clause"
	"github.com/matzehuels/clausetree/pkg/diagram"
	"github.com/matzehuels/clausetree/pkg/errors"
)

// Rank group names emitted by Build.
const (
	RankTerminals  = "phons"
	RankCategories = "categories"
)

// SpineLength is the number of nodes on the central spine: five upper
// layers, the head's category, terminal and lower category, five lower layers.
const SpineLength = 13

// Layers returns the backbone layers from the top of the diagram down.
func Layers() []clause.Kind {
	return []clause.Kind{clause.Sentence, clause.Clause, clause.Core, clause.Nuc, clause.Pred}
}

// layer is one row of the backbone table.
type layer struct {
	kind clause.Kind
	top  diagram.Node
	bot  diagram.Node
}

// backbone returns the layer table, built fresh for each call.
func backbone() []layer {
	kinds := Layers()
	rows := make([]layer, len(kinds))
	for i, k := range kinds {
		rows[i] = layer{
			kind: k,
			top:  diagram.Node{ID: diagram.Backbone(k), Label: k.String(), Group: diagram.GroupMain},
			bot:  diagram.Node{ID: diagram.BottomLayer(k), Label: k.String(), Group: diagram.GroupMain},
		}
	}
	return rows
}

// Head returns the index of the unit whose top has kind Pred. It fails with
// MISSING_HEAD when there is none and MULTIPLE_HEADS when there are several.
func Head(units []clause.Unit) (int, error) {
	heads := clause.Heads(units)
	switch len(heads) {
	case 1:
		return heads[0], nil
	case 0:
		return -1, errors.New(errors.ErrCodeMissingHead,
			"no unit has a Pred-kind category; exactly one head is required")
	default:
		idx := make([]string, len(heads))
		for i, h := range heads {
			idx[i] = strconv.Itoa(h)
		}
		return -1, errors.New(errors.ErrCodeMultipleHeads,
			"units %s all have a Pred-kind category; exactly one head is required", strings.Join(idx, ", ")).
			At(errors.Location{Unit: heads[1], Field: "top.kind", Value: clause.Pred.String()})
	}
}

// Build constructs the diagram for units. Units must contain exactly one
// head; see [Head]. An operator with a periphery kind (CoreP, ClauseP) scopes
// the bottom node of its base layer, e.g. CoreBot.
func Build(units []clause.Unit) (*diagram.Graph, error) {
	head, err := Head(units)
	if err != nil {
		return nil, err
	}

	b := &builder{g: diagram.New()}
	b.scaffold(backbone())
	for i, u := range units {
		b.unit(i, u, i == head)
	}
	b.spine(head)
	b.align(units)

	if b.err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, b.err, "build diagram")
	}
	return b.g, nil
}

// builder records the first graph error and ignores later calls, so the
// emission steps read as straight-line code.
type builder struct {
	g   *diagram.Graph
	err error
}

func (b *builder) node(id diagram.NodeID, label, group string) {
	if b.err == nil {
		b.err = b.g.AddNode(diagram.Node{ID: id, Label: label, Group: group})
	}
}

func (b *builder) edge(kind diagram.EdgeKind, style diagram.EdgeStyle, path ...diagram.NodeID) {
	if b.err == nil {
		b.err = b.g.AddEdge(diagram.Edge{Path: path, Style: style, Kind: kind})
	}
}

func (b *builder) rank(name string, members ...diagram.NodeID) {
	if b.err == nil {
		b.err = b.g.AddRank(diagram.Rank{Name: name, Members: members})
	}
}

var (
	plain     = diagram.EdgeStyle{}
	noArrow   = diagram.EdgeStyle{NoArrow: true}
	scope     = diagram.EdgeStyle{Dotted: true, NoArrow: true}
	invisible = diagram.EdgeStyle{Invisible: true}
)

func (b *builder) scaffold(rows []layer) {
	for _, r := range rows {
		b.node(r.top.ID, r.top.Label, r.top.Group)
		b.node(r.bot.ID, r.bot.Label, r.bot.Group)
	}
	for i := 1; i < len(rows); i++ {
		b.edge(diagram.EdgeBackbone, noArrow, rows[i-1].top.ID, rows[i].top.ID)
	}
	for i := len(rows) - 1; i > 0; i-- {
		b.edge(diagram.EdgeBackbone, noArrow, rows[i].bot.ID, rows[i-1].bot.ID)
	}
}

// unit emits everything that belongs to unit i. The terminal node comes
// first because the attachment edges start from it.
func (b *builder) unit(i int, u clause.Unit, isHead bool) {
	terminal := diagram.Terminal(i)
	group := ""
	if isHead {
		group = diagram.GroupMain
	}
	b.node(terminal, u.Phon, group)

	if u.Top != nil {
		b.top(i, *u.Top, isHead)
	}
	for j, bot := range u.Bottoms {
		b.bottom(i, j, bot)
	}
}

func (b *builder) top(i int, top clause.Top, isHead bool) {
	category := diagram.Category(i)
	if isHead {
		b.node(category, top.Category, diagram.GroupMain)
		b.node(diagram.CategoryBottom(i), top.Category, diagram.GroupMain)
		return
	}
	b.node(category, top.Category, "")

	target := diagram.Backbone(top.Kind)
	if base, ok := top.Kind.Base(); ok {
		target = diagram.Periphery(top.Kind, i)
		b.node(target, top.Kind.String(), "")
		b.edge(diagram.EdgePeriphery, noArrow, target, diagram.Backbone(base))
		b.rank("periphery_"+target.Name(), target, diagram.Backbone(base))
	}
	b.edge(diagram.EdgeAttach, noArrow, diagram.Terminal(i), category, target)
}

// bottom emits operator j of unit i. A periphery kind scopes its base
// layer, since the lower chain has no periphery nodes.
func (b *builder) bottom(i, j int, bot clause.Bottom) {
	op := diagram.Operator(i, j)
	b.node(op, bot.Operator, "")

	kind := bot.Kind
	if base, ok := kind.Base(); ok {
		kind = base
	}
	target := diagram.BottomLayer(kind)
	b.edge(diagram.EdgeScope, scope, diagram.Terminal(i), op)
	b.edge(diagram.EdgeOperator, plain, op, target)
	b.rank("scope_"+op.Name(), op, target)
}

func (b *builder) spine(head int) {
	path := make([]diagram.NodeID, 0, SpineLength)
	for _, k := range Layers() {
		path = append(path, diagram.Backbone(k))
	}
	path = append(path, diagram.Category(head), diagram.Terminal(head), diagram.CategoryBottom(head))
	layers := Layers()
	for i := len(layers) - 1; i >= 0; i-- {
		path = append(path, diagram.BottomLayer(layers[i]))
	}
	if len(path) != SpineLength {
		b.err = fmt.Errorf("spine has %d nodes, want %d", len(path), SpineLength)
		return
	}
	b.edge(diagram.EdgeSpine, noArrow, path...)
}

func (b *builder) align(units []clause.Unit) {
	terminals := make([]diagram.NodeID, len(units))
	var categories []diagram.NodeID
	for i, u := range units {
		terminals[i] = diagram.Terminal(i)
		if u.HasTop() {
			categories = append(categories, diagram.Category(i))
		}
	}

	b.rank(RankTerminals, terminals...)
	if len(terminals) > 1 {
		b.edge(diagram.EdgeAlign, invisible, terminals...)
	}
	b.rank(RankCategories, categories...)
}
