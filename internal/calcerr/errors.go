// Package calcerr defines the error kinds surfaced by the calculator core.
//
// Every error that aborts a compute request is an *Error carrying a Kind and,
// where known, the dotted path of the offending parameter. Callers match kinds
// with errors.Is against the Err* sentinels.
package calcerr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a calculator failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnitUnknown
	KindInvalidConfig
	KindOutOfRange
	KindNumericDegenerate
	KindModelFailure
)

// String returns the kind name used in API responses.
func (k Kind) String() string {
	switch k {
	case KindUnitUnknown:
		return "UnitUnknown"
	case KindInvalidConfig:
		return "InvalidConfig"
	case KindOutOfRange:
		return "OutOfRange"
	case KindNumericDegenerate:
		return "NumericDegenerate"
	case KindModelFailure:
		return "ModelFailure"
	default:
		return "Unknown"
	}
}

// Sentinels for errors.Is matching. Only the Kind is compared.
var (
	ErrUnitUnknown       = &Error{Kind: KindUnitUnknown}
	ErrInvalidConfig     = &Error{Kind: KindInvalidConfig}
	ErrOutOfRange        = &Error{Kind: KindOutOfRange}
	ErrNumericDegenerate = &Error{Kind: KindNumericDegenerate}
	ErrModelFailure      = &Error{Kind: KindModelFailure}
)

// Error is a calculator failure with optional field path and remedy.
type Error struct {
	Kind Kind
	// Path is the dotted parameter path, e.g. "collimation.sample_aperture.units".
	Path string
	// Formula tags the calculation that degenerated (NumericDegenerate only).
	Formula string
	// Suggested is a legal value the caller could use instead, if one exists.
	Suggested string
	Msg       string
	Err       error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Path != "" {
		b.WriteString(" at ")
		b.WriteString(e.Path)
	}
	if e.Formula != "" {
		b.WriteString(" in ")
		b.WriteString(e.Formula)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Suggested != "" {
		b.WriteString(" (suggested: ")
		b.WriteString(e.Suggested)
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// UnitUnknown reports an unrecognised unit token at path.
func UnitUnknown(path, token string, valid string) *Error {
	return &Error{
		Kind:      KindUnitUnknown,
		Path:      path,
		Msg:       fmt.Sprintf("unrecognised unit %q", token),
		Suggested: valid,
	}
}

// InvalidConfig reports a structurally malformed parameter at path.
func InvalidConfig(path string, format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidConfig, Path: path, Msg: fmt.Sprintf(format, args...)}
}

// OutOfRange reports value outside [lo, hi] at path, suggesting the nearest bound.
func OutOfRange(path string, value, lo, hi float64) *Error {
	suggested := lo
	if value > hi {
		suggested = hi
	}
	return &Error{
		Kind:      KindOutOfRange,
		Path:      path,
		Msg:       fmt.Sprintf("%g outside [%g, %g]", value, lo, hi),
		Suggested: fmt.Sprintf("%g", suggested),
	}
}

// NumericDegenerate reports a non-recoverable division by zero or log of zero.
func NumericDegenerate(formula string, format string, args ...interface{}) *Error {
	return &Error{Kind: KindNumericDegenerate, Formula: formula, Msg: fmt.Sprintf(format, args...)}
}

// ModelFailure wraps an error raised by the scattering-model provider.
func ModelFailure(model string, err error) *Error {
	return &Error{Kind: KindModelFailure, Path: "model.name", Msg: fmt.Sprintf("model %q", model), Err: err}
}

// WithPath returns err with its Path prefixed by prefix when err is an *Error.
// Other errors are returned unchanged.
func WithPath(prefix string, err error) error {
	var ce *Error
	if !errors.As(err, &ce) {
		return err
	}
	cp := *ce
	switch {
	case cp.Path == "":
		cp.Path = prefix
	case prefix != "":
		cp.Path = prefix + "." + cp.Path
	}
	return &cp
}

// KindOf returns the Kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}
