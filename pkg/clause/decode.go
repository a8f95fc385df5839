package clause

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/clausetree/pkg/errors"
)

// Format identifies a structured-text encoding of a description.
type Format string

// Supported input formats.
const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// DetectFormat picks the input format from a file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidFormat,
			"cannot infer input format from %q (expected .json or .toml)", filepath.Base(path))
	}
}

// ParseFormat parses a format name as given on the command line or in config.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatTOML:
		return FormatTOML, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidFormat, "invalid input format: %q (must be json or toml)", s)
	}
}

// ReadFile reads and decodes a description, choosing the decoder by extension.
func ReadFile(path string) ([]Unit, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeFileNotFound, "input file not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return DecodeFormat(f, format)
}

// DecodeFormat decodes a description in the given format.
func DecodeFormat(r io.Reader, format Format) ([]Unit, error) {
	switch format {
	case FormatJSON:
		return Decode(r)
	case FormatTOML:
		return DecodeTOML(r)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported input format: %q", format)
	}
}

// Decode reads a JSON array of units from r.
func Decode(r io.Reader) ([]Unit, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, jsonError(data, err, errors.NoUnit)
	}

	units := make([]Unit, 0, len(elems))
	for i, elem := range elems {
		var raw rawUnit
		if err := json.Unmarshal(elem, &raw); err != nil {
			return nil, jsonError(elem, err, i)
		}
		u, err := raw.resolve(i)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, nil
}

// DecodeTOML reads a TOML document of [[unit]] tables from r.
func DecodeTOML(r io.Reader) ([]Unit, error) {
	var doc struct {
		Units []rawUnit `toml:"unit"`
	}
	if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
		var perr toml.ParseError
		if stderrors.As(err, &perr) {
			return nil, errors.Wrap(errors.ErrCodeMalformedInput, err, "invalid TOML").
				At(errors.Location{Unit: errors.NoUnit, Line: perr.Position.Line})
		}
		return nil, errors.Wrap(errors.ErrCodeMalformedInput, err, "invalid TOML")
	}

	units := make([]Unit, 0, len(doc.Units))
	for i, raw := range doc.Units {
		u, err := raw.resolve(i)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, nil
}

// Encode writes units as an indented JSON array in the canonical input form.
func Encode(w io.Writer, units []Unit) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if units == nil {
		units = []Unit{}
	}
	if err := enc.Encode(units); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// =============================================================================
// Raw records
// =============================================================================

// rawUnit mirrors Unit with pointer fields so absent keys can be told apart
// from empty values.
type rawUnit struct {
	Phon    *string     `json:"phon" toml:"phon"`
	Top     *rawTop     `json:"top" toml:"top"`
	Bot     []rawBottom `json:"bot" toml:"bot"`
	Bottoms []rawBottom `json:"bottoms" toml:"bottoms"`
}

type rawTop struct {
	Pos  *string `json:"pos" toml:"pos"`
	Kind *string `json:"kind" toml:"kind"`
}

type rawBottom struct {
	Op   *string `json:"op" toml:"op"`
	Kind *string `json:"kind" toml:"kind"`
}

func (r rawUnit) resolve(i int) (Unit, error) {
	if r.Phon == nil {
		return Unit{}, missing(i, "phon")
	}
	u := Unit{Phon: *r.Phon}

	if r.Top != nil {
		top, err := r.Top.resolve(i)
		if err != nil {
			return Unit{}, err
		}
		u.Top = &top
	}

	bots, field := r.Bot, "bot"
	if r.Bottoms != nil {
		if r.Bot != nil {
			return Unit{}, errors.New(errors.ErrCodeMalformedInput,
				"both \"bot\" and \"bottoms\" given; use one").
				At(errors.Location{Unit: i, Field: "bottoms"})
		}
		bots, field = r.Bottoms, "bottoms"
	}
	for j, b := range bots {
		bottom, err := b.resolve(i, fmt.Sprintf("%s[%d]", field, j))
		if err != nil {
			return Unit{}, err
		}
		u.Bottoms = append(u.Bottoms, bottom)
	}
	return u, nil
}

func (r rawTop) resolve(i int) (Top, error) {
	if r.Pos == nil {
		return Top{}, missing(i, "top.pos")
	}
	if r.Kind == nil {
		return Top{}, missing(i, "top.kind")
	}
	kind, err := ParseKind(*r.Kind)
	if err != nil {
		return Top{}, invalid(i, "top.kind", *r.Kind, err)
	}
	return Top{Category: *r.Pos, Kind: kind}, nil
}

func (r rawBottom) resolve(i int, path string) (Bottom, error) {
	if r.Op == nil {
		return Bottom{}, missing(i, path+".op")
	}
	if r.Kind == nil {
		return Bottom{}, missing(i, path+".kind")
	}
	kind, err := ParseKind(*r.Kind)
	if err != nil {
		return Bottom{}, invalid(i, path+".kind", *r.Kind, err)
	}
	return Bottom{Operator: *r.Op, Kind: kind}, nil
}

// =============================================================================
// Error helpers
// =============================================================================

func missing(unit int, field string) error {
	return errors.New(errors.ErrCodeMalformedInput, "missing required field").
		At(errors.Location{Unit: unit, Field: field})
}

func invalid(unit int, field, value string, cause error) error {
	return errors.New(errors.ErrCodeMalformedInput, "%s", errors.UserMessage(cause)).
		At(errors.Location{Unit: unit, Field: field, Value: value})
}

// jsonError converts an encoding/json failure into a MalformedInput error,
// keeping whatever position information the decoder reported.
func jsonError(data []byte, err error, unit int) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	switch {
	case stderrors.As(err, &syntaxErr):
		return errors.Wrap(errors.ErrCodeMalformedInput, err, "invalid JSON").
			At(errors.Location{Unit: unit, Line: lineOf(data, syntaxErr.Offset), Offset: syntaxErr.Offset})
	case stderrors.As(err, &typeErr):
		loc := errors.Location{Unit: unit, Field: typeErr.Field}
		var msg string
		switch {
		case typeErr.Field != "":
			msg = fmt.Sprintf("expected %s, got JSON %s", typeErr.Type, typeErr.Value)
		case unit == errors.NoUnit:
			msg = "expected an array of units, got JSON " + typeErr.Value
		default:
			msg = "expected a unit object, got JSON " + typeErr.Value
		}
		return errors.New(errors.ErrCodeMalformedInput, "%s", msg).At(loc)
	default:
		return errors.Wrap(errors.ErrCodeMalformedInput, err, "invalid JSON").
			At(errors.Location{Unit: unit})
	}
}

func lineOf(data []byte, offset int64) int {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	return bytes.Count(data[:offset], []byte("\n")) + 1
}
