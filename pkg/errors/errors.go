// Package errors defines the coded errors shared by the CLI and the HTTP
// API. A code picks the exit status or HTTP status; a Location tells the
// user which unit and field of the input is at fault.
//
// # Error Codes
//
// The three conversion failures are:
//   - MALFORMED_INPUT: the record model could not be decoded
//   - MISSING_HEAD: no unit carries a Pred-kind category
//   - MULTIPLE_HEADS: more than one unit carries a Pred-kind category
//
// All three are terminal for a single conversion. The operation is pure, so
// retrying would reproduce the same failure.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMalformedInput, "unknown kind %q", s).
//	    At(errors.Location{Unit: 3, Field: "kind", Value: s})
//	if errors.Is(err, errors.ErrCodeMalformedInput) {
//	    // report to the user verbatim
//	}
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Conversion errors
	ErrCodeMalformedInput Code = "MALFORMED_INPUT"
	ErrCodeMissingHead    Code = "MISSING_HEAD"
	ErrCodeMultipleHeads  Code = "MULTIPLE_HEADS"

	// Request validation errors
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"
	ErrCodeFileNotFound  Code = "FILE_NOT_FOUND"

	// Rendering errors
	ErrCodeTimeout      Code = "TIMEOUT"
	ErrCodeRenderFailed Code = "RENDER_FAILED"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// NoUnit marks a Location that is not attributable to a specific unit.
const NoUnit = -1

// Location pinpoints where in the input an error originated.
// Zero-valued fields are omitted from the rendered message, except Unit,
// which uses NoUnit as its "absent" value.
type Location struct {
	Unit   int    // 0-based unit index, or NoUnit
	Field  string // offending field name (e.g. "kind")
	Value  string // offending value, if any
	Line   int    // 1-based line number for syntax errors
	Offset int64  // byte offset for syntax errors
}

// String formats the location as `unit 3, field "kind" ("Foo")`.
func (l Location) String() string {
	var parts []string
	if l.Unit != NoUnit {
		parts = append(parts, fmt.Sprintf("unit %d", l.Unit))
	}
	if l.Field != "" {
		f := fmt.Sprintf("field %q", l.Field)
		if l.Value != "" {
			f += fmt.Sprintf(" (%q)", l.Value)
		}
		parts = append(parts, f)
	}
	if l.Line > 0 {
		parts = append(parts, fmt.Sprintf("line %d", l.Line))
	}
	if l.Offset > 0 {
		parts = append(parts, fmt.Sprintf("offset %d", l.Offset))
	}
	return strings.Join(parts, ", ")
}

// Error is a coded error, optionally located in the input and wrapping a
// cause.
type Error struct {
	Code     Code
	Message  string
	Cause    error
	Location *Location
}

// text is the message prefixed with the location, without code or cause.
func (e *Error) text() string {
	if e.Location != nil {
		if loc := e.Location.String(); loc != "" {
			return loc + ": " + e.Message
		}
	}
	return e.Message
}

// Error renders "CODE: location: message: cause", leaving out empty parts.
func (e *Error) Error() string {
	s := string(e.Code) + ": " + e.text()
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Cause }

// At records where in the input the error originated. It returns e so
// constructors can chain it.
func (e *Error) At(loc Location) *Error {
	e.Location = &loc
	return e
}

// New returns an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap is like New but keeps cause for errors.Is and errors.As.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	e := New(code, format, args...)
	e.Cause = cause
	return e
}

// find returns the outermost *Error in err's chain.
func find(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// Is reports whether the outermost *Error in err's chain has code.
func Is(err error, code Code) bool {
	e, ok := find(err)
	return ok && e.Code == code
}

// GetCode returns the code of the outermost *Error in err's chain, or "".
func GetCode(err error) Code {
	if e, ok := find(err); ok {
		return e.Code
	}
	return ""
}

// GetLocation returns the input location attached to err, if any.
func GetLocation(err error) (Location, bool) {
	if e, ok := find(err); ok && e.Location != nil {
		return *e.Location, true
	}
	return Location{}, false
}

// UserMessage returns the located message without the code prefix or
// cause, which is what the CLI prints. Errors without a code are returned
// unchanged.
func UserMessage(err error) string {
	if e, ok := find(err); ok {
		return e.text()
	}
	return err.Error()
}
