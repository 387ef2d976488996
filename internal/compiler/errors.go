package compiler

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a compile failure.
type ErrorKind uint8

const (
	// GrammarMismatch: input does not match any literal, selector or
	// comparison production.
	GrammarMismatch ErrorKind = iota + 1
	// UnknownSelector: identifier not in the allow-list.
	UnknownSelector
	// UnbalancedGrouping: missing or stray parenthesis, or Sub/EndSub mismatch.
	UnbalancedGrouping
	// MalformedSequence: adjacent operators, dangling operator, empty
	// expression or single-element bracket list.
	MalformedSequence
	// InvalidArgument: builder called with an empty selector, invalid
	// comparison or unusable values.
	InvalidArgument
)

// Compile error codes (E200-E209)
const (
	ErrGrammarMismatch    = "E201"
	ErrUnknownSelector    = "E202"
	ErrUnbalancedGrouping = "E203"
	ErrMalformedSequence  = "E204"
	ErrInvalidArgument    = "E205"
)

var kindInfo = [...]struct {
	name string
	code string
}{
	GrammarMismatch:    {"grammar mismatch", ErrGrammarMismatch},
	UnknownSelector:    {"unknown selector", ErrUnknownSelector},
	UnbalancedGrouping: {"unbalanced grouping", ErrUnbalancedGrouping},
	MalformedSequence:  {"malformed sequence", ErrMalformedSequence},
	InvalidArgument:    {"invalid argument", ErrInvalidArgument},
}

func (k ErrorKind) String() string {
	if k == 0 || int(k) >= len(kindInfo) {
		return fmt.Sprintf("ErrorKind(%d)", uint8(k))
	}
	return kindInfo[k].name
}

// Code returns the stable error code for the kind.
func (k ErrorKind) Code() string {
	if k == 0 || int(k) >= len(kindInfo) {
		return ""
	}
	return kindInfo[k].code
}

// CompileError is returned by Parse and the fluent builder. No partial tree is
// ever returned alongside it.
type CompileError struct {
	Kind    ErrorKind `json:"kind"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
	// Pos is the byte offset into Query, or -1 when the error has no
	// source position (builder errors).
	Pos   int    `json:"pos"`
	Query string `json:"query,omitempty"`
}

func (e *CompileError) Error() string {
	if e.Pos < 0 {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Kind, e.Message)
	}
	return fmt.Sprintf("[%s] %s at offset %d: %s%s", e.Code, e.Kind, e.Pos, e.Message, e.near())
}

// near quotes a short excerpt of the query starting at Pos.
func (e *CompileError) near() string {
	if e.Pos >= len(e.Query) {
		return " (at end of input)"
	}
	excerpt := e.Query[e.Pos:]
	const maxExcerpt = 16
	if len(excerpt) > maxExcerpt {
		excerpt = excerpt[:maxExcerpt] + "..."
	}
	return fmt.Sprintf(" near %q", excerpt)
}

func newError(kind ErrorKind, query string, pos int, format string, args ...any) *CompileError {
	return &CompileError{
		Kind:    kind,
		Code:    kind.Code(),
		Message: fmt.Sprintf(format, args...),
		Pos:     pos,
		Query:   query,
	}
}

// argumentError is a builder error without source position.
func argumentError(kind ErrorKind, format string, args ...any) *CompileError {
	return newError(kind, "", -1, format, args...)
}

// KindOf extracts the ErrorKind from a CompileError anywhere in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return 0, false
}

// IsKind reports whether err is a CompileError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
