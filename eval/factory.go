package eval

import (
	"github.com/lush-shell/lush/token"
)

// MakeNode maps a token to the node variant that represents it. It never
// validates; shape checks happen when the node completes.
func MakeNode(tok token.Token) Node {
	if token.IsLiteral(tok.Name) {
		n := &Literal{}
		n.init(n, tok)
		return n
	}
	switch tok.Name {
	case token.OpenBlock:
		return newBlock(tok)
	case token.OpenCommand:
		n := &Command{}
		n.init(n, tok)
		return n
	case token.Exp:
		n := &ExpressionBlock{}
		n.init(n, tok)
		return n
	case token.ID:
		n := &Variable{}
		n.init(n, tok)
		return n
	case token.Frag:
		n := &CommandFragment{}
		n.init(n, tok)
		return n
	case token.New, token.Renew:
		n := &New{renew: tok.Name == token.Renew}
		n.init(n, tok)
		return n
	case token.Init:
		n := &NewInit{}
		n.init(n, tok)
		return n
	}
	// Operators, and any name without a dedicated variant, which then
	// behaves as a nullary command-operator.
	n := &Operator{}
	n.init(n, tok)
	return n
}
