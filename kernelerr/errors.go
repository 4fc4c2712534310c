// Package kernelerr defines the configuration kernel's CompileError
// taxonomy: structured, code-carrying errors built on top of
// github.com/agilira/go-errors.
package kernelerr

import (
	"fmt"

	goerrors "github.com/agilira/go-errors"
)

// Code identifies the class of failure. Codes are stable and safe to
// pattern-match on across kernel versions.
type Code string

const (
	// CodeInvalidInput covers malformed raw configuration: non-unique keys
	// within a single mapping, unsupported raw node types, and similar
	// structural problems detected while the tree is compiled.
	CodeInvalidInput Code = "INVALID_INPUT"

	// CodePatternCollision covers two distinct pattern keys expanding to the
	// same concrete key with neither resolved by an explicit override.
	CodePatternCollision Code = "PATTERN_COLLISION"

	// CodeUnknownWildcardContext covers a pattern key whose context has no
	// entry in the Hierarchy Index for the wildcard token used.
	CodeUnknownWildcardContext Code = "UNKNOWN_WILDCARD_CONTEXT"

	// CodeDepthExceeded covers a configuration tree deeper than the
	// configured maximum, guarding against pathological or adversarial
	// nesting.
	CodeDepthExceeded Code = "DEPTH_EXCEEDED"

	// CodeCyclicExpansion covers a reference cycle in the raw input tree, or
	// a hierarchy context that resolves back to itself during expansion.
	CodeCyclicExpansion Code = "CYCLIC_EXPANSION"

	// CodeInternFailure covers resource exhaustion inside the Intern Table.
	CodeInternFailure Code = "INTERN_FAILURE"

	// CodeViewNotFound covers a query naming a view that was never
	// registered.
	CodeViewNotFound Code = "VIEW_NOT_FOUND"

	// CodeDuplicateView covers a RegisterView or RegisterViewWithSchema call
	// naming an already-registered view with a different function.
	CodeDuplicateView Code = "DUPLICATE_VIEW"

	// CodeViewError wraps an error returned by a view function itself.
	CodeViewError Code = "VIEW_ERROR"
)

// New constructs a fresh error carrying code, formatted like fmt.Errorf.
func New(code Code, format string, args ...any) error {
	return goerrors.New(string(code), fmt.Sprintf(format, args...))
}

// Wrap attaches code and a formatted message to an underlying cause.
func Wrap(err error, code Code, format string, args ...any) error {
	return goerrors.Wrap(err, string(code), fmt.Sprintf(format, args...))
}

// HasCode reports whether err's message is tagged with code. go-errors
// prefixes the formatted message with the code, so this is a conservative,
// dependency-light check usable from tests and host call sites alike.
func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return containsCode(err.Error(), string(code))
}

func containsCode(msg, code string) bool {
	for i := 0; i+len(code) <= len(msg); i++ {
		if msg[i:i+len(code)] == code {
			return true
		}
	}
	return false
}
