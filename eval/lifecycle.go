package eval

import (
	"context"
)

// The lifecycle runs each fragment through setup, complete, reorder and
// analyze when it closes; evaluation happens later, from AST.Evaluate.
// Every phase is idempotent per node and refuses to run before the phase
// ahead of it has.

func setupNode(n Node) error {
	b := n.base()
	if b.isSetup {
		return nil
	}
	p := b.parent
	if p == nil || !p.IsSetup() {
		return structuralf(n, "cannot set up a node before its parent")
	}
	switch pp := p.(type) {
	case *RootNode:
		b.block = pp.global
	case *Block:
		b.block = pp
	default:
		b.block = p.Block()
	}
	if blk, ok := n.(*Block); ok {
		blk.parentBlock = b.block
	}
	b.isSetup = true
	return nil
}

func setupTree(n Node) error {
	var err error
	walk(n, func(m Node) bool {
		if err == nil {
			err = setupNode(m)
		}
		return err == nil
	})
	return err
}

func completeTree(n Node) error {
	b := n.base()
	if b.isComplete {
		return nil
	}
	if !b.isSetup {
		return structuralf(n, "cannot complete a node that is not set up")
	}
	for _, c := range b.children {
		if err := completeTree(c); err != nil {
			return err
		}
	}
	if err := completeNode(n); err != nil {
		return err
	}
	b.isComplete = true
	return nil
}

func completeNode(n Node) error {
	switch x := n.(type) {
	case *Operator:
		return x.resolveArity()
	case *Block:
		x.resolveKind()
		return nil
	case *ExpressionBlock:
		return x.complete()
	case *Command:
		return x.complete()
	case *CommandFragment:
		return x.complete()
	case *Variable:
		return x.complete()
	case *Literal:
		return x.complete()
	case *New:
		return x.complete()
	case *NewInit:
		return x.complete()
	}
	return structuralf(n, "%s cannot be completed", n.Name())
}

// reorderFragment reorders every operator chain in the fragment rooted at
// n and marks the whole fragment reordered. It returns the fragment root,
// which changes when n itself heads a chain that was rebuilt.
func reorderFragment(n Node) (Node, error) {
	var roots []*Operator
	walk(n, func(m Node) bool {
		if op, ok := m.(*Operator); ok && !op.isReordered && chainRoot(op) {
			roots = append(roots, op)
		}
		return true
	})
	top := n
	for _, op := range roots {
		if op.isReordered {
			continue
		}
		built, err := reorderExpression(op)
		if err != nil {
			return nil, err
		}
		if Node(op) == top {
			top = built
		}
	}
	var err error
	walk(top, func(m Node) bool {
		b := m.base()
		if !b.isComplete && err == nil {
			err = precedencef(m, "cannot reorder an incomplete node")
		}
		b.isReordered = true
		return true
	})
	if err != nil {
		return nil, err
	}
	return top, nil
}

func analyzeTree(n Node) error {
	b := n.base()
	if b.isAnalyzed {
		return nil
	}
	if !b.isReordered {
		return structuralf(n, "cannot analyze a node that is not reordered")
	}
	for _, c := range b.children {
		if err := analyzeTree(c); err != nil {
			return err
		}
	}
	switch x := n.(type) {
	case *Variable:
		if err := x.analyze(); err != nil {
			return err
		}
	case *NewInit:
		if err := x.analyze(); err != nil {
			return err
		}
	}
	b.isAnalyzed = true
	return nil
}

func (a *AST) evaluateTree(ctx context.Context, n Node) error {
	b := n.base()
	if b.isEvaluated {
		return nil
	}
	if !b.isAnalyzed {
		return runtimef(n, "cannot evaluate a node that is not analyzed")
	}
	for _, c := range b.children {
		if err := a.evaluateTree(ctx, c); err != nil {
			return err
		}
	}
	if err := a.evaluateNode(ctx, n); err != nil {
		return err
	}
	b.isEvaluated = true
	return nil
}

func (a *AST) evaluateNode(ctx context.Context, n Node) error {
	switch x := n.(type) {
	case *Literal:
		x.result = x.val
	case *Variable:
		return x.evaluate()
	case *Operator:
		return x.evaluate()
	case *ExpressionBlock:
		x.result = x.children[0].Result()
	case *Block:
		x.result = Nil()
		if x.kind == ExpressionBlockKind {
			x.result = x.expBlock.Result()
		}
	case *CommandFragment:
		x.result = Str(x.text)
	case *Command:
		return x.evaluate(ctx, a)
	case *New:
		return x.evaluate()
	case *NewInit:
		return x.evaluate()
	default:
		return runtimef(n, "%s cannot be evaluated", n.Name())
	}
	return nil
}

// rollback undoes the declarations made inside a discarded subtree.
func rollback(n Node) {
	walk(n, func(m Node) bool {
		if v, ok := m.(*Variable); ok && v.declaredIn != nil {
			v.declaredIn.removeVariable(v)
			v.declaredIn = nil
		}
		m.base().discarded = true
		return true
	})
}
