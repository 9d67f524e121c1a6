package eval

import (
	"cmp"
	"math"

	"github.com/lush-shell/lush/token"
)

// Arity is resolved from the child count when an Operator completes.
type Arity int

const (
	Unresolved Arity = iota
	Nullary
	Unary
	Binary
)

func (a Arity) String() string {
	switch a {
	case Nullary:
		return "nullary"
	case Unary:
		return "unary"
	case Binary:
		return "binary"
	}
	return "unresolved"
}

// Operator is a nullary (command-operator), unary or binary operator.
// left and right point into the owned children once validated; they are
// never used for ownership.
type Operator struct {
	nodeBase
	arity Arity
	left  Node
	right Node
}

// Arity returns the resolved arity.
func (o *Operator) Arity() Arity { return o.arity }

// Left and Right return the validated operand slots (Right is nil for
// unary operators).
func (o *Operator) Left() Node  { return o.left }
func (o *Operator) Right() Node { return o.right }

// resolveArity sets the arity from the child count.
func (o *Operator) resolveArity() error {
	switch len(o.children) {
	case 0:
		o.arity = Nullary
	case 1:
		o.arity = Unary
	case 2:
		o.arity = Binary
	default:
		return structuralf(o, "operator %s cannot have %d children (at most 2)", o.name, len(o.children))
	}
	return nil
}

// isGrouping reports whether the operator is a grouping pseudo-operator.
// Its operand is an independent expression for reordering purposes.
func (o *Operator) isGrouping() bool {
	return o.name == token.Paren || o.name == token.Bracket
}

// Priority returns the binding strength of the operator: a higher number
// binds tighter and ends up deeper in the tree. PLUS and MINUS depend on
// arity, so the operator must be complete before its priority is known.
func (o *Operator) Priority() (int, error) {
	if !o.isComplete {
		return 0, precedencef(o, "cannot query priority of incomplete operator %s", o.name)
	}
	switch o.name {
	case "DOT":
		return 1, nil
	case "OR", "NOR", "XOR", "XNOR":
		return 2, nil
	case "AND":
		return 3, nil
	case "EQ", "NE":
		return 4, nil
	case "LT", "LE", "GT", "GE":
		return 5, nil
	case "USEROP":
		return 6, nil
	case "TILDE", "DOUBLETILDE":
		return 7, nil
	case "STAR", "SLASH", "PERCENT":
		return 9, nil
	case "CARAT":
		return 10, nil
	case "NOT":
		return 11, nil
	case "PIPE":
		return 13, nil
	case "AMP":
		return 14, nil
	case token.Paren, token.Bracket:
		return 15, nil
	case "PLUS", "MINUS":
		switch o.arity {
		case Binary:
			return 8, nil
		case Unary:
			return 12, nil
		}
	}
	return 0, precedencef(o, "unknown priority for %s operator %s", o.arity, o.name)
}

// evaluate computes the operator result from its already evaluated
// operands.
func (o *Operator) evaluate() error {
	switch o.arity {
	case Nullary:
		o.result = Nil()
		return nil
	case Unary:
		v, err := o.unary(o.left.Result())
		if err != nil {
			return err
		}
		o.result = v
		return nil
	case Binary:
		v, err := o.binary(o.left.Result(), o.right.Result())
		if err != nil {
			return err
		}
		o.result = v
		return nil
	}
	return runtimef(o, "operator %s evaluated before its arity was resolved", o.name)
}

func (o *Operator) unary(x Value) (Value, error) {
	switch o.name {
	case token.Paren:
		return x, nil
	case "NOT":
		return Bool(!x.Truthy()), nil
	case "PLUS":
		if !x.isNumber() {
			return Value{}, o.typeError(x)
		}
		return x, nil
	case "MINUS":
		switch x.Tag {
		case VTInt:
			if x.AsInt() == math.MinInt64 {
				return Value{}, o.overflow()
			}
			return Int(-x.AsInt()), nil
		case VTFixed:
			return Fixed(-x.AsFixed()), nil
		}
		return Value{}, o.typeError(x)
	}
	return Value{}, runtimef(o, "unary operator %s is not supported for evaluation", o.name)
}

func (o *Operator) binary(x, y Value) (Value, error) {
	switch o.name {
	case "AND":
		return Bool(x.Truthy() && y.Truthy()), nil
	case "OR":
		return Bool(x.Truthy() || y.Truthy()), nil
	case "NOR":
		return Bool(!(x.Truthy() || y.Truthy())), nil
	case "XOR":
		return Bool(x.Truthy() != y.Truthy()), nil
	case "XNOR":
		return Bool(x.Truthy() == y.Truthy()), nil
	case "EQ":
		return Bool(x.Equal(y)), nil
	case "NE":
		return Bool(!x.Equal(y)), nil
	case "LT", "LE", "GT", "GE":
		return o.compare(x, y)
	case "PLUS":
		if x.Tag == VTStr && y.Tag == VTStr {
			return Str(x.AsStr() + y.AsStr()), nil
		}
		return o.arith(x, y)
	case "MINUS", "STAR", "SLASH", "PERCENT", "CARAT":
		return o.arith(x, y)
	}
	return Value{}, runtimef(o, "binary operator %s is not supported for evaluation", o.name)
}

func (o *Operator) compare(x, y Value) (Value, error) {
	var c int
	switch {
	case x.Tag == VTInt && y.Tag == VTInt:
		c = cmp.Compare(x.AsInt(), y.AsInt())
	case x.isNumber() && y.isNumber():
		c = cmp.Compare(x.AsFixed(), y.AsFixed())
	case x.Tag == VTStr && y.Tag == VTStr:
		c = cmp.Compare(x.AsStr(), y.AsStr())
	default:
		return Value{}, o.typeError(x, y)
	}
	switch o.name {
	case "LT":
		return Bool(c < 0), nil
	case "LE":
		return Bool(c <= 0), nil
	case "GT":
		return Bool(c > 0), nil
	}
	return Bool(c >= 0), nil
}

func (o *Operator) arith(x, y Value) (Value, error) {
	if !x.isNumber() || !y.isNumber() {
		return Value{}, o.typeError(x, y)
	}
	if x.Tag == VTInt && y.Tag == VTInt && !(o.name == "CARAT" && y.AsInt() < 0) {
		return o.intArith(x.AsInt(), y.AsInt())
	}
	a, b := x.AsFixed(), y.AsFixed()
	switch o.name {
	case "PLUS":
		return Fixed(a + b), nil
	case "MINUS":
		return Fixed(a - b), nil
	case "STAR":
		return Fixed(a * b), nil
	case "SLASH":
		if b == 0 {
			return Value{}, runtimef(o, "division by zero")
		}
		return Fixed(a / b), nil
	case "PERCENT":
		if b == 0 {
			return Value{}, runtimef(o, "modulo by zero")
		}
		return Fixed(math.Mod(a, b)), nil
	}
	return Fixed(math.Pow(a, b)), nil
}

// intArith is integer arithmetic; a result outside int64 is an error
// rather than a wrapped value.
func (o *Operator) intArith(a, b int64) (Value, error) {
	var (
		n  int64
		ok = true
	)
	switch o.name {
	case "PLUS":
		n = a + b
		ok = (b >= 0) == (n >= a)
	case "MINUS":
		n = a - b
		ok = (b >= 0) == (n <= a)
	case "STAR":
		n, ok = mulInt(a, b)
	case "SLASH":
		if b == 0 {
			return Value{}, runtimef(o, "division by zero")
		}
		n, ok = a/b, !(a == math.MinInt64 && b == -1)
	case "PERCENT":
		if b == 0 {
			return Value{}, runtimef(o, "modulo by zero")
		}
		n = a % b
	default:
		n, ok = ipow(a, b)
	}
	if !ok {
		return Value{}, o.overflow()
	}
	return Int(n), nil
}

// mulInt multiplies and reports whether the product fits in an int64.
func mulInt(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	n := a * b
	if n/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	return n, true
}

// ipow raises base to a non-negative exponent, reporting overflow.
func ipow(base, exp int64) (int64, bool) {
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			r, ok := mulInt(result, base)
			if !ok {
				return 0, false
			}
			result = r
		}
		exp >>= 1
		if exp > 0 {
			b, ok := mulInt(base, base)
			if !ok {
				return 0, false
			}
			base = b
		}
	}
	return result, true
}

func (o *Operator) overflow() error {
	return runtimef(o, "integer overflow in %s", o.name)
}

func (o *Operator) typeError(vals ...Value) error {
	switch len(vals) {
	case 1:
		return runtimef(o, "operator %s does not apply to %s", o.name, vals[0].Tag)
	default:
		return runtimef(o, "operator %s does not apply to %s and %s", o.name, vals[0].Tag, vals[1].Tag)
	}
}
