package clause

import (
	"testing"

	"github.com/matzehuels/clausetree/pkg/errors"
)

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		t.Run(k.String(), func(t *testing.T) {
			got, err := ParseKind(k.String())
			if err != nil {
				t.Fatalf("ParseKind(%q) error: %v", k.String(), err)
			}
			if got != k {
				t.Errorf("ParseKind(%q) = %v, want %v", k.String(), got, k)
			}
		})
	}
}

func TestParseKind_Invalid(t *testing.T) {
	for _, s := range []string{"Foo", "", "pred", "CORE", "Core "} {
		t.Run(s, func(t *testing.T) {
			_, err := ParseKind(s)
			if err == nil {
				t.Fatalf("ParseKind(%q) should fail", s)
			}
			if !errors.Is(err, errors.ErrCodeMalformedInput) {
				t.Errorf("ParseKind(%q) code = %v, want %v", s, errors.GetCode(err), errors.ErrCodeMalformedInput)
			}
		})
	}
}

func TestKindBase(t *testing.T) {
	tests := []struct {
		kind   Kind
		want   Kind
		wantOK bool
	}{
		{Pred, Pred, false},
		{Nuc, Nuc, false},
		{Core, Core, false},
		{CoreP, Core, true},
		{Clause, Clause, false},
		{ClauseP, Clause, true},
		{Sentence, Sentence, false},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			got, ok := tt.kind.Base()
			if ok != tt.wantOK {
				t.Fatalf("Base() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Base() = %v, want %v", got, tt.want)
			}
			if tt.kind.IsPeriphery() != tt.wantOK {
				t.Errorf("IsPeriphery() = %v, want %v", tt.kind.IsPeriphery(), tt.wantOK)
			}
		})
	}
}

func TestKindText(t *testing.T) {
	var k Kind
	if err := k.UnmarshalText([]byte("ClauseP")); err != nil {
		t.Fatalf("UnmarshalText error: %v", err)
	}
	if k != ClauseP {
		t.Errorf("UnmarshalText = %v, want ClauseP", k)
	}

	text, err := k.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText error: %v", err)
	}
	if string(text) != "ClauseP" {
		t.Errorf("MarshalText = %q, want ClauseP", text)
	}

	if err := k.UnmarshalText([]byte("Foo")); err == nil {
		t.Error("UnmarshalText(Foo) should fail")
	}
	if _, err := Kind(42).MarshalText(); err == nil {
		t.Error("MarshalText of an invalid kind should fail")
	}
}

func TestKindString_OutOfRange(t *testing.T) {
	if got := Kind(9).String(); got != "Kind(9)" {
		t.Errorf("String() = %q, want Kind(9)", got)
	}
	if Kind(9).Valid() {
		t.Error("Kind(9).Valid() = true, want false")
	}
}
