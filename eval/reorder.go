package eval

// The tokenizer hands us operator chains in a naive, right-leaning shape:
// `1 * 2 + 3` arrives as (STAR 1 (PLUS 2 3)). Reordering detaches such a
// chain into a flat sequence of operands and operators, rebuilds it by
// precedence climbing, and reattaches the new root where the old one was.
// Grouping operators (paren, bracket) and every non-operator node are
// opaque operands; the chain never extends through them, so nothing moves
// across a Block boundary.

type itemKind int

const (
	operand itemKind = iota
	prefix
	infix
)

type chainItem struct {
	kind itemKind
	node Node
	prio int
}

// chainRoot reports whether op starts an expression chain: its parent is
// not an operator that the chain would extend through.
func chainRoot(op *Operator) bool {
	p, ok := op.parent.(*Operator)
	return !ok || p.isGrouping() || p.arity == Nullary
}

// reorderExpression rebuilds the chain rooted at root and returns the new
// root. Nested grouping operands are reordered as their own expressions.
func reorderExpression(root *Operator) (Node, error) {
	// Rebuilding re-parents root, so the attachment point is taken first.
	parent := root.parent
	var items []chainItem
	if err := flatten(root, &items); err != nil {
		return nil, err
	}
	c := &climber{items: items}
	built, err := c.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if c.pos != len(c.items) {
		return nil, precedencef(c.items[c.pos].node, "operator chain has leftover %s", c.items[c.pos].node)
	}

	if built != Node(root) {
		parent.base().replaceChild(root, built)
	}
	if op, ok := built.(*Operator); ok {
		if err := validateOperatorTree(op, -1); err != nil {
			return nil, err
		}
	}
	return built, nil
}

// validateOperatorTree checks the rebuilt chain top-down: every operator
// has the children its arity implies, grouping operators wrap exactly one
// operand, and no operator binds tighter than one of its operator
// children. It fills the left/right slots and marks the chain reordered.
func validateOperatorTree(op *Operator, parentPrio int) error {
	want := 0
	switch op.arity {
	case Unary:
		want = 1
	case Binary:
		want = 2
	}
	if len(op.children) != want {
		return structuralf(op, "%s operator %s has %d operands", op.arity, op.name, len(op.children))
	}
	if op.isGrouping() && op.arity != Unary {
		return structuralf(op, "%s must wrap exactly one operand", op.name)
	}
	prio := parentPrio
	if op.arity != Nullary {
		p, err := op.Priority()
		if err != nil {
			return err
		}
		if parentPrio >= 0 && p < parentPrio {
			return precedencef(op, "%s (priority %d) ended up below an operator with priority %d", op.name, p, parentPrio)
		}
		prio = p
	}
	op.left, op.right = nil, nil
	if want > 0 {
		op.left = op.children[0]
	}
	if want > 1 {
		op.right = op.children[1]
	}
	op.isReordered = true
	if op.isGrouping() || op.arity == Nullary {
		return nil
	}
	for _, c := range op.children {
		child, ok := c.(*Operator)
		if !ok {
			continue
		}
		if child.isGrouping() || child.arity == Nullary {
			// Independent expression or opaque operand.
			if err := validateOperatorTree(child, -1); err != nil {
				return err
			}
			continue
		}
		if err := validateOperatorTree(child, prio); err != nil {
			return err
		}
	}
	return nil
}

// flatten appends the in-order item sequence of n and detaches the
// operator children it walks through.
func flatten(n Node, items *[]chainItem) error {
	op, ok := n.(*Operator)
	if !ok || op.isGrouping() || op.arity == Nullary {
		if ok && op.isGrouping() {
			if err := reorderGroup(op); err != nil {
				return err
			}
		}
		*items = append(*items, chainItem{kind: operand, node: n})
		return nil
	}
	prio, err := op.Priority()
	if err != nil {
		return err
	}
	children := op.children
	op.children = nil
	op.left, op.right = nil, nil
	switch op.arity {
	case Unary:
		*items = append(*items, chainItem{kind: prefix, node: op, prio: prio})
		return flatten(children[0], items)
	case Binary:
		if err := flatten(children[0], items); err != nil {
			return err
		}
		*items = append(*items, chainItem{kind: infix, node: op, prio: prio})
		return flatten(children[1], items)
	}
	return structuralf(op, "operator %s has unresolved arity", op.name)
}

// reorderGroup reorders the independent expression inside a grouping
// operator.
func reorderGroup(g *Operator) error {
	for _, c := range g.children {
		inner, ok := c.(*Operator)
		if !ok || inner.isReordered {
			continue
		}
		if _, err := reorderExpression(inner); err != nil {
			return err
		}
	}
	return nil
}

// climber is a precedence-climbing parser over a flattened chain. Equal
// priorities associate to the left.
type climber struct {
	items []chainItem
	pos   int
}

func (c *climber) peek() (chainItem, bool) {
	if c.pos >= len(c.items) {
		return chainItem{}, false
	}
	return c.items[c.pos], true
}

func (c *climber) parseExpr(minPrio int) (Node, error) {
	lhs, err := c.parseUnary(minPrio)
	if err != nil {
		return nil, err
	}
	for {
		it, ok := c.peek()
		if !ok || it.kind != infix || it.prio < minPrio {
			return lhs, nil
		}
		c.pos++
		rhs, err := c.parseExpr(it.prio + 1)
		if err != nil {
			return nil, err
		}
		op := it.node.(*Operator)
		op.addChild(lhs)
		op.addChild(rhs)
		lhs = op
	}
}

func (c *climber) parseUnary(minPrio int) (Node, error) {
	it, ok := c.peek()
	if !ok {
		return nil, precedencef(nil, "operator chain ends without an operand")
	}
	switch it.kind {
	case operand:
		c.pos++
		return it.node, nil
	case prefix:
		// A looser prefix operator cannot sit below a tighter operator;
		// the source has to parenthesize it.
		if minPrio > 0 && it.prio < minPrio-1 {
			return nil, precedencef(it.node, "%s (priority %d) cannot be an operand of an operator with priority %d; parenthesize it", it.node.Name(), it.prio, minPrio-1)
		}
		c.pos++
		x, err := c.parseExpr(it.prio + 1)
		if err != nil {
			return nil, err
		}
		op := it.node.(*Operator)
		op.addChild(x)
		return op, nil
	}
	return nil, precedencef(it.node, "operator %s is missing its left operand", it.node.Name())
}
