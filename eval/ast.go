// Package eval builds and runs the evaluation tree. Tokens are inserted
// one at a time; each fragment that closes runs through setup, complete,
// reorder and analyze, and Evaluate executes the fragments that are
// ready, in source order.
package eval

import (
	"context"
	"log/slog"

	"github.com/lush-shell/lush/token"
)

// AST is the insertion driver: the root of the tree plus the cursor where
// the next token attaches. It is not safe for concurrent use.
type AST struct {
	root       *RootNode
	cursor     Node
	expectHead bool

	log        *slog.Logger
	dispatcher Dispatcher
}

// Option configures an AST.
type Option func(*AST)

// WithLogger sets the diagnostics logger. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(a *AST) {
		if l != nil {
			a.log = l
		}
	}
}

// WithDispatcher sets the collaborator that runs commands.
func WithDispatcher(d Dispatcher) Option {
	return func(a *AST) { a.dispatcher = d }
}

// NewAST returns an empty tree with the cursor at the root.
func NewAST(opts ...Option) *AST {
	a := &AST{
		root: newRoot(),
		log:  slog.New(slog.DiscardHandler),
	}
	a.cursor = a.root
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Root returns the root node.
func (a *AST) Root() *RootNode { return a.root }

// Global returns the global scope.
func (a *AST) Global() *Block { return a.root.global }

// Cursor returns the node the next token attaches to.
func (a *AST) Cursor() Node { return a.cursor }

// Insert adds one token to the tree. On failure the offending fragment is
// discarded, the cursor returns to the root and the error is returned.
func (a *AST) Insert(tok token.Token) error {
	a.log.Debug("insert", "token", tok.String())
	if err := a.insert(tok); err != nil {
		a.log.Warn("insert failed, resetting", "token", tok.String(), "err", err)
		a.Reset()
		return withToken(err, tok)
	}
	return nil
}

// InsertAll inserts toks in order, stopping at the first failure.
func (a *AST) InsertAll(toks []token.Token) error {
	for _, tok := range toks {
		if err := a.Insert(tok); err != nil {
			return err
		}
	}
	return nil
}

func (a *AST) insert(tok token.Token) error {
	switch {
	case tok.Name == token.OpenGroup:
		if a.expectHead {
			return structuralf(a.cursor, "( must be followed by a group head")
		}
		a.expectHead = true
		return nil
	case token.IsCloser(tok.Name):
		return a.close(tok.Name)
	case tok.Name == token.Terminator:
		if a.expectHead {
			return structuralf(a.cursor, "; right after (")
		}
		if !isScope(a.cursor) {
			return structuralf(a.cursor, "; inside an open %s", a.cursor.Name())
		}
		return a.flush(a.cursor)
	}

	if a.expectHead && token.IsOpener(tok.Name) {
		return structuralf(a.cursor, "%s cannot be a group head", tok.Name)
	}
	n := MakeNode(tok)
	if _, ok := n.(*Operator); ok && !token.IsOperator(tok.Name) {
		a.log.Debug("unknown token name becomes a command-operator", "name", tok.Name)
	}
	if err := a.attach(a.cursor, n); err != nil {
		return err
	}
	switch {
	case a.expectHead:
		n.base().opener = token.OpenGroup
		a.expectHead = false
		a.cursor = n
	case token.IsOpener(tok.Name):
		n.base().opener = tok.Name
		a.cursor = n
	}
	return nil
}

func (a *AST) attach(parent, n Node) error {
	pb := parent.base()
	if pb.isComplete {
		return structuralf(parent, "cannot attach %s to a completed node", n)
	}
	pb.addChild(n)
	return setupNode(n)
}

// close handles a closing marker: it must match the opener of the cursor.
// When the cursor returns to a scope container, the container's pending
// children are cascaded.
func (a *AST) close(closer string) error {
	if a.expectHead {
		return structuralf(a.cursor, "%s right after (", closer)
	}
	cur := a.cursor.base()
	if cur.opener == "" || token.Closer(cur.opener) != closer {
		return structuralf(a.cursor, "unmatched %s", closer)
	}
	if closer == token.CloseBlock {
		if err := a.flush(a.cursor); err != nil {
			return err
		}
	}
	cur.closed = true
	a.cursor = cur.parent
	if isScope(a.cursor) {
		return a.flush(a.cursor)
	}
	return nil
}

// flush cascades every child of the container that has not been analyzed,
// in source order.
func (a *AST) flush(container Node) error {
	cb := container.base()
	for i := 0; i < len(cb.children); i++ {
		c := cb.children[i]
		if c.IsAnalyzed() {
			continue
		}
		if err := a.cascade(c); err != nil {
			return err
		}
	}
	return nil
}

func (a *AST) cascade(n Node) error {
	if err := setupTree(n); err != nil {
		return err
	}
	if err := completeTree(n); err != nil {
		return err
	}
	top, err := reorderFragment(n)
	if err != nil {
		return err
	}
	if err := analyzeTree(top); err != nil {
		return err
	}
	a.log.Info("fragment ready", "node", top.String(), "scope", top.Block().describe())
	return nil
}

// Reset discards every top-level fragment that is not both complete and
// analyzed, rolls back the declarations those fragments made, and returns
// the cursor to the root. Evaluated fragments always survive.
func (a *AST) Reset() {
	kept := a.root.children[:0]
	dropped := 0
	for _, c := range a.root.children {
		if c.IsComplete() && c.IsAnalyzed() {
			kept = append(kept, c)
			continue
		}
		rollback(c)
		dropped++
	}
	clear(a.root.children[len(kept):])
	a.root.children = kept
	a.cursor = a.root
	a.expectHead = false
	if dropped > 0 {
		a.log.Warn("reset discarded fragments", "count", dropped)
	}
}

// Evaluate runs the top-level fragments that are complete and analyzed
// but not yet evaluated, in source order, and returns their values. It
// stops at the first fragment that is not ready. A fragment that fails is
// discarded and its error returned; fragments after it run on the next
// call.
func (a *AST) Evaluate(ctx context.Context) ([]Value, error) {
	var vals []Value
	for _, c := range a.root.children {
		if c.IsEvaluated() {
			continue
		}
		if !c.IsComplete() || !c.IsAnalyzed() {
			break
		}
		if err := ctx.Err(); err != nil {
			return vals, err
		}
		if err := a.evaluateTree(ctx, c); err != nil {
			a.log.Warn("evaluation failed, discarding fragment", "node", c.String(), "err", err)
			a.discard(c)
			return vals, err
		}
		vals = append(vals, c.Result())
	}
	return vals, nil
}

func (a *AST) discard(n Node) {
	rollback(n)
	a.root.removeChild(n)
}
