package clause

// Top is the category assigned to a unit's upper projection.
// A Top with Kind == Pred marks the unit as the head.
type Top struct {
	Category string `json:"pos" toml:"pos"`
	Kind     Kind   `json:"kind" toml:"kind"`
}

// Bottom is a grammatical operator scoping the clause at the layer named
// by Kind.
type Bottom struct {
	Operator string `json:"op" toml:"op"`
	Kind     Kind   `json:"kind" toml:"kind"`
}

// Unit is one terminal of the description: its surface form plus optional
// attachments. The zero value is a unit with an empty surface form and no
// attachments, which contributes only a terminal node to a diagram.
type Unit struct {
	Phon    string   `json:"phon" toml:"phon"`
	Top     *Top     `json:"top,omitempty" toml:"top,omitempty"`
	Bottoms []Bottom `json:"bot,omitempty" toml:"bot,omitempty"`
}

// HasTop reports whether the unit carries a category attachment.
func (u Unit) HasTop() bool { return u.Top != nil }

// IsHead reports whether the unit's category attaches at the Pred layer.
func (u Unit) IsHead() bool { return u.Top != nil && u.Top.Kind == Pred }

// Heads returns the indices of all head units in order.
// A well-formed description has exactly one.
func Heads(units []Unit) []int {
	var heads []int
	for i, u := range units {
		if u.IsHead() {
			heads = append(heads, i)
		}
	}
	return heads
}
