package diagram

import (
	"strconv"

	"github.com/matzehuels/clausetree/pkg/clause"
)

// Role distinguishes the structural position of a node in the diagram.
// The zero Role is invalid, so the zero NodeID is never a usable identifier.
type Role uint8

const (
	// RoleBackbone is a layer node on the upper projection chain.
	RoleBackbone Role = iota + 1
	// RoleBottomLayer is a layer node on the lower operator chain.
	RoleBottomLayer
	// RoleCategory is a unit's category node.
	RoleCategory
	// RoleCategoryBottom is the head unit's category node on the lower chain.
	RoleCategoryBottom
	// RolePeriphery is a unit-scoped periphery node next to its base layer.
	RolePeriphery
	// RoleTerminal is a unit's surface-form node.
	RoleTerminal
	// RoleOperator is one operator attachment of a unit.
	RoleOperator
)

var roleNames = [...]string{
	RoleBackbone:       "backbone",
	RoleBottomLayer:    "bottom-layer",
	RoleCategory:       "category",
	RoleCategoryBottom: "category-bottom",
	RolePeriphery:      "periphery",
	RoleTerminal:       "terminal",
	RoleOperator:       "operator",
}

func (r Role) String() string {
	if r > 0 && int(r) < len(roleNames) {
		return roleNames[r]
	}
	return "role(" + strconv.Itoa(int(r)) + ")"
}

// NodeID identifies a node by role and position. Fields that a role does not
// use are left zero: Layer is set only for backbone, bottom-layer and
// periphery nodes; Unit for all unit-scoped roles; Index only for operators.
//
// Use the constructors rather than composite literals.
type NodeID struct {
	Role  Role
	Layer clause.Kind
	Unit  int
	Index int
}

// Backbone returns the upper-chain node for a layer ("<Layer>Top").
func Backbone(layer clause.Kind) NodeID { return NodeID{Role: RoleBackbone, Layer: layer} }

// BottomLayer returns the lower-chain node for a layer ("<Layer>Bot").
func BottomLayer(layer clause.Kind) NodeID { return NodeID{Role: RoleBottomLayer, Layer: layer} }

// Category returns the category node of unit i.
func Category(i int) NodeID { return NodeID{Role: RoleCategory, Unit: i} }

// CategoryBottom returns the head unit's category node on the lower chain.
func CategoryBottom(i int) NodeID { return NodeID{Role: RoleCategoryBottom, Unit: i} }

// Periphery returns the periphery node that unit i's category hangs off.
// Each unit gets its own, even when several share a periphery kind.
func Periphery(kind clause.Kind, i int) NodeID {
	return NodeID{Role: RolePeriphery, Layer: kind, Unit: i}
}

// Terminal returns the surface-form node of unit i.
func Terminal(i int) NodeID { return NodeID{Role: RoleTerminal, Unit: i} }

// Operator returns the node for the j-th operator attachment of unit i.
func Operator(i, j int) NodeID { return NodeID{Role: RoleOperator, Unit: i, Index: j} }

// IsZero reports whether id is the zero NodeID.
func (id NodeID) IsZero() bool { return id == NodeID{} }

// Name returns the node's DOT identifier. Names are stable across runs and
// distinct for distinct IDs; they never contain input labels.
func (id NodeID) Name() string {
	switch id.Role {
	case RoleBackbone:
		return id.Layer.String() + "Top"
	case RoleBottomLayer:
		return id.Layer.String() + "Bot"
	case RoleCategory:
		return "cat" + strconv.Itoa(id.Unit)
	case RoleCategoryBottom:
		return "cat" + strconv.Itoa(id.Unit) + "Bot"
	case RolePeriphery:
		return id.Layer.String() + strconv.Itoa(id.Unit) + "Top"
	case RoleTerminal:
		return "w" + strconv.Itoa(id.Unit)
	case RoleOperator:
		return "op" + strconv.Itoa(id.Unit) + "_" + strconv.Itoa(id.Index)
	default:
		return ""
	}
}

// String returns the node name, or a placeholder for invalid IDs.
func (id NodeID) String() string {
	if name := id.Name(); name != "" {
		return name
	}
	return "<invalid node>"
}
