package clause

import (
	"strconv"

	"github.com/matzehuels/clausetree/pkg/errors"
)

// Kind names a layer of the clause that a category or operator attaches to.
// The set is closed; [ParseKind] rejects anything else.
type Kind uint8

const (
	Pred Kind = iota
	Nuc
	Core
	CoreP // periphery of the core
	Clause
	ClauseP // periphery of the clause
	Sentence
)

var kindNames = [...]string{
	Pred:     "Pred",
	Nuc:      "Nuc",
	Core:     "Core",
	CoreP:    "CoreP",
	Clause:   "Clause",
	ClauseP:  "ClauseP",
	Sentence: "Sentence",
}

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	return []Kind{Pred, Nuc, Core, CoreP, Clause, ClauseP, Sentence}
}

// String returns the canonical spelling used in input files and node labels.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool { return int(k) < len(kindNames) }

// Base returns the non-periphery layer a periphery kind hangs off:
// CoreP yields Core and ClauseP yields Clause. For every other kind the
// second result is false.
func (k Kind) Base() (Kind, bool) {
	switch k {
	case CoreP:
		return Core, true
	case ClauseP:
		return Clause, true
	default:
		return k, false
	}
}

// IsPeriphery reports whether k is CoreP or ClauseP.
func (k Kind) IsPeriphery() bool {
	_, ok := k.Base()
	return ok
}

// ParseKind parses the canonical, case-sensitive spelling of a kind.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return 0, errors.New(errors.ErrCodeMalformedInput,
		"unknown kind %q (must be one of Pred, Nuc, Core, CoreP, Clause, ClauseP, Sentence)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, errors.New(errors.ErrCodeInternal, "cannot marshal invalid kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
