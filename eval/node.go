package eval

import (
	"strconv"

	"github.com/lush-shell/lush/token"
)

// Node is a node of the evaluation tree. The set of implementations is
// closed (RootNode, Operator, Block, ExpressionBlock, Command,
// CommandFragment, Variable, Literal, New, NewInit); the lifecycle phases
// dispatch on the concrete type.
type Node interface {
	// Name is the token name the node was built from.
	Name() string
	// Text is the token value the node was built from ("" if none).
	Text() string
	Parent() Node
	Children() []Node
	// Block is the nearest enclosing Block, set during setup.
	Block() *Block
	Result() Value

	IsSetup() bool
	IsComplete() bool
	IsReordered() bool
	IsAnalyzed() bool
	IsEvaluated() bool

	String() string

	base() *nodeBase
}

// nodeBase carries the state shared by every variant. name and text are
// fixed at construction; parent is assigned once at attachment.
type nodeBase struct {
	self     Node
	name     string
	text     string
	parent   Node
	children []Node
	block    *Block
	root     *RootNode

	// opener is the structural marker that made this node the cursor, or
	// "" for nodes that were attached as leaves.
	opener string
	closed bool

	isSetup     bool
	isComplete  bool
	isReordered bool
	isAnalyzed  bool
	isEvaluated bool

	result    Value
	discarded bool
}

func (n *nodeBase) init(self Node, tok token.Token) {
	n.self = self
	n.name = tok.Name
	n.text = tok.Value
}

func (n *nodeBase) Name() string       { return n.name }
func (n *nodeBase) Text() string       { return n.text }
func (n *nodeBase) Parent() Node       { return n.parent }
func (n *nodeBase) Children() []Node   { return n.children }
func (n *nodeBase) Block() *Block      { return n.block }
func (n *nodeBase) Result() Value      { return n.result }
func (n *nodeBase) IsSetup() bool      { return n.isSetup }
func (n *nodeBase) IsComplete() bool   { return n.isComplete }
func (n *nodeBase) IsReordered() bool  { return n.isReordered }
func (n *nodeBase) IsAnalyzed() bool   { return n.isAnalyzed }
func (n *nodeBase) IsEvaluated() bool  { return n.isEvaluated }
func (n *nodeBase) base() *nodeBase    { return n }
func (n *nodeBase) token() token.Token { return token.Token{Name: n.name, Value: n.text} }

// String renders the node as its originating token.
func (n *nodeBase) String() string { return n.token().String() }

// addChild attaches c as the last child. A node's parent never changes
// after attachment, except when reordering rebuilds an operator chain.
func (n *nodeBase) addChild(c Node) {
	cb := c.base()
	cb.parent = n.self
	cb.root = n.root
	n.children = append(n.children, c)
}

// replaceChild swaps old for repl in place, keeping source order.
func (n *nodeBase) replaceChild(old, repl Node) bool {
	for i, c := range n.children {
		if c == old {
			n.children[i] = repl
			repl.base().parent = n.self
			return true
		}
	}
	return false
}

// removeChild detaches c, returning false if it is not a child.
func (n *nodeBase) removeChild(c Node) bool {
	for i, x := range n.children {
		if x == c {
			n.children = append(n.children[:i:i], n.children[i+1:]...)
			return true
		}
	}
	return false
}

// isScope reports whether n is a scope container: the root or a Block.
func isScope(n Node) bool {
	switch n.(type) {
	case *RootNode, *Block:
		return true
	}
	return false
}

// walk visits n and its descendants in pre-order. Returning false from fn
// skips the node's children.
func walk(n Node, fn func(Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children() {
		walk(c, fn)
	}
}

// RootNode is the parentless anchor of the tree. It owns the global scope.
type RootNode struct {
	nodeBase
	global *Block
}

func newRoot() *RootNode {
	r := &RootNode{}
	r.init(r, token.Token{Name: "root"})
	r.root = r
	r.global = newBlock(token.Token{Name: "global"})
	r.global.root = r
	r.global.kind = CodeBlock
	r.global.isSetup = true
	r.isSetup = true
	return r
}

// Global returns the global scope.
func (r *RootNode) Global() *Block { return r.global }

// Literal is an INT, FIXED or STR leaf.
type Literal struct {
	nodeBase
	val Value
}

// Value returns the parsed literal; nil before completion.
func (l *Literal) Value() Value { return l.val }

func (l *Literal) complete() error {
	if len(l.children) != 0 {
		return structuralf(l, "literal cannot have children")
	}
	switch l.name {
	case token.Int:
		n, err := strconv.ParseInt(l.text, 10, 64)
		if err != nil {
			return structuralf(l, "invalid integer %q", l.text)
		}
		l.val = Int(n)
	case token.Fixed:
		f, err := strconv.ParseFloat(l.text, 64)
		if err != nil {
			return structuralf(l, "invalid fixed-point number %q", l.text)
		}
		l.val = Fixed(f)
	default:
		l.val = Str(l.text)
	}
	return nil
}

// ExpressionBlock wraps exactly one expression. It is where operator
// reordering starts.
type ExpressionBlock struct {
	nodeBase
}

// Expr returns the wrapped expression, or nil before completion.
func (e *ExpressionBlock) Expr() Node {
	if len(e.children) != 1 {
		return nil
	}
	return e.children[0]
}

func (e *ExpressionBlock) complete() error {
	if len(e.children) != 1 {
		return structuralf(e, "expression block must wrap exactly one expression, got %d", len(e.children))
	}
	return nil
}

// cmdText is the evaluated expression rendered for command text.
func (e *ExpressionBlock) cmdText() string { return e.result.String() }
