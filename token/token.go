// Package token defines the tokens the evaluator consumes and the fixed
// vocabulary of token names produced by the upstream tokenizer.
package token

import (
	"strconv"
	"strings"
)

// Structural markers. These never become nodes; they move the insertion
// cursor.
const (
	OpenGroup    = "("
	CloseGroup   = ")"
	OpenBlock    = "{"
	CloseBlock   = "}"
	OpenCommand  = "["
	CloseCommand = "]"
	Terminator   = ";"
)

// Node-producing names.
const (
	Exp     = "exp"
	ID      = "ID"
	Int     = "INT"
	Fixed   = "FIXED"
	Str     = "STR"
	Frag    = "FRAG"
	New     = "new"
	Renew   = "renew"
	Init    = "init"
	Paren   = "paren"
	Bracket = "bracket"
)

// Token is a (name, optional value) pair produced by the tokenizer.
type Token struct {
	Name  string
	Value string
}

// NewToken returns a token with the given name and value.
func NewToken(name, value string) Token {
	return Token{Name: name, Value: value}
}

// String renders the token in the wire format: NAME or NAME:'value'.
func (t Token) String() string {
	if t.Value == "" {
		return t.Name
	}
	return t.Name + ":" + quote(t.Value)
}

func quote(v string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for i := 0; i < len(v); i++ {
		if v[i] == '\'' || v[i] == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(v[i])
	}
	b.WriteByte('\'')
	return b.String()
}

// GoString is used by %#v; it keeps test failure output readable.
func (t Token) GoString() string {
	return "token.Token{" + strconv.Quote(t.Name) + ", " + strconv.Quote(t.Value) + "}"
}

// IsStructural reports whether name is one of the cursor-moving markers.
func IsStructural(name string) bool {
	switch name {
	case OpenGroup, CloseGroup, OpenBlock, CloseBlock, OpenCommand, CloseCommand, Terminator:
		return true
	}
	return false
}

// IsOpener reports whether name opens a nested structure.
func IsOpener(name string) bool {
	return name == OpenGroup || name == OpenBlock || name == OpenCommand
}

// IsCloser reports whether name closes a nested structure.
func IsCloser(name string) bool {
	return name == CloseGroup || name == CloseBlock || name == CloseCommand
}

// Closer returns the closing marker for an opener, or "" if name is not an
// opener.
func Closer(opener string) string {
	switch opener {
	case OpenGroup:
		return CloseGroup
	case OpenBlock:
		return CloseBlock
	case OpenCommand:
		return CloseCommand
	}
	return ""
}

// operatorNames lists every name the tokenizer emits for an operator,
// including the grouping pseudo-operators.
const operatorNames = "DOT OR NOR XOR XNOR AND EQ NE LT LE GT GE USEROP " +
	"TILDE DOUBLETILDE PLUS MINUS STAR SLASH PERCENT CARAT NOT PIPE AMP " +
	Paren + " " + Bracket

var operators = make(map[string]bool)

func init() {
	for _, name := range strings.Fields(operatorNames) {
		operators[name] = true
	}
}

// IsOperator reports whether name is a known operator name.
func IsOperator(name string) bool { return operators[name] }

// IsLiteral reports whether name denotes a literal value token.
func IsLiteral(name string) bool {
	return name == Int || name == Fixed || name == Str
}
