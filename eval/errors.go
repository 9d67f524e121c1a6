package eval

import (
	"fmt"
	"strings"

	"github.com/lush-shell/lush/token"
)

// ErrorKind classifies evaluator failures.
type ErrorKind int

const (
	// StructuralError: mismatched nesting or a node with the wrong shape.
	StructuralError ErrorKind = iota + 1
	// ScopeError: name conflict within a block, or an unresolved reference.
	ScopeError
	// PrecedenceError: priority queried on an unresolved operator, or an
	// operator missing from the priority table.
	PrecedenceError
	// ProtocolError: malformed response from the command dispatcher.
	ProtocolError
	// RuntimeError: any other evaluation failure.
	RuntimeError
)

func (k ErrorKind) String() string {
	switch k {
	case StructuralError:
		return "structural error"
	case ScopeError:
		return "scope error"
	case PrecedenceError:
		return "precedence error"
	case ProtocolError:
		return "protocol error"
	case RuntimeError:
		return "runtime error"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is the single error type returned by the evaluator. Node holds a
// rendering of the offending node, never the node itself.
type Error struct {
	Kind  ErrorKind
	Msg   string
	Node  string
	Token *token.Token
	Err   error
}

// Sentinels for errors.Is matching on kind.
var (
	ErrStructural = &Error{Kind: StructuralError}
	ErrScope      = &Error{Kind: ScopeError}
	ErrPrecedence = &Error{Kind: PrecedenceError}
	ErrProtocol   = &Error{Kind: ProtocolError}
	ErrRuntime    = &Error{Kind: RuntimeError}
)

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Node != "" {
		b.WriteString(" (at ")
		b.WriteString(e.Node)
		b.WriteString(")")
	}
	if e.Token != nil {
		b.WriteString(" (token ")
		b.WriteString(e.Token.String())
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrScope)
// works regardless of message or context.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newError(kind ErrorKind, n Node, format string, args ...any) *Error {
	e := &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
	if n != nil {
		e.Node = n.String()
	}
	return e
}

func structuralf(n Node, format string, args ...any) *Error {
	return newError(StructuralError, n, format, args...)
}

func scopef(n Node, format string, args ...any) *Error {
	return newError(ScopeError, n, format, args...)
}

func precedencef(n Node, format string, args ...any) *Error {
	return newError(PrecedenceError, n, format, args...)
}

func runtimef(n Node, format string, args ...any) *Error {
	return newError(RuntimeError, n, format, args...)
}

// withToken attaches the token being inserted when the failure happened,
// unless a token is already recorded.
func withToken(err error, tok token.Token) error {
	if e, ok := err.(*Error); ok && e.Token == nil {
		t := tok
		e.Token = &t
	}
	return err
}
