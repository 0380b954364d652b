package lower

import (
	"fmt"

	"lowir/internal/srcir"
)

// Code classifies conversion failures.
type Code uint8

const (
	// CodeUnsupportedType marks a source type the target cannot represent:
	// bf16, memref with non-identity layout or non-default memory space,
	// vector-of-vector.
	CodeUnsupportedType Code = iota + 1
	// CodeUnsupportedOperation marks an operation with no lowering rule for
	// its memref- or function-typed operands/results.
	CodeUnsupportedOperation
	// CodeInternal marks a driver invariant violation, e.g. a missing remap
	// entry. A bug, not a user error.
	CodeInternal
)

func (c Code) String() string {
	switch c {
	case CodeUnsupportedType:
		return "UnsupportedType"
	case CodeUnsupportedOperation:
		return "UnsupportedOperation"
	case CodeInternal:
		return "InternalInvariantViolation"
	default:
		return fmt.Sprintf("Code(%d)", c)
	}
}

// ConversionError aborts a whole-module conversion. It names the failing
// construct and the operation that triggered it; the input module is left
// unmodified.
type ConversionError struct {
	Code     Code
	Loc      srcir.Loc
	TypeName string
	Detail   string
}

func (e *ConversionError) Error() string {
	msg := fmt.Sprintf("%s at %s", e.Code, e.Loc)
	if e.TypeName != "" {
		msg += ": type " + e.TypeName
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func typeErr(loc srcir.Loc, name, detail string) *ConversionError {
	return &ConversionError{Code: CodeUnsupportedType, Loc: loc, TypeName: name, Detail: detail}
}

func opErr(loc srcir.Loc, detail string) *ConversionError {
	return &ConversionError{Code: CodeUnsupportedOperation, Loc: loc, Detail: detail}
}

func internalErr(loc srcir.Loc, format string, args ...any) *ConversionError {
	return &ConversionError{Code: CodeInternal, Loc: loc, Detail: fmt.Sprintf(format, args...)}
}
