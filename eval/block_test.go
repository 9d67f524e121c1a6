package eval

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lush-shell/lush/token"
)

func tokenOf(name string, value ...string) token.Token {
	tok := token.Token{Name: name}
	if len(value) > 0 {
		tok.Value = value[0]
	}
	return tok
}

func variable(name string) *Variable {
	return MakeNode(tokenOf(token.ID, name)).(*Variable)
}

func TestAddVariable(t *testing.T) {
	outer := newBlock(tokenOf(token.OpenBlock))
	inner := newBlock(tokenOf(token.OpenBlock))
	inner.parentBlock = outer

	require.NoError(t, outer.AddVariable(variable("x")))
	err := outer.AddVariable(variable("x"))
	assert.ErrorIs(t, err, ErrScope)

	// Shadowing in a nested block is allowed.
	require.NoError(t, inner.AddVariable(variable("x")))
	require.NoError(t, inner.AddVariable(variable("y")))

	assert.True(t, inner.IsInScope("x"))
	assert.True(t, inner.IsInScope("y"))
	assert.False(t, outer.IsInScope("y"))
	assert.Equal(t, inner, inner.lookup("x"))
	assert.Equal(t, []string{"x", "y"}, inner.Names())
}

func TestRemoveVariable(t *testing.T) {
	b := newBlock(tokenOf(token.OpenBlock))
	v := variable("x")
	require.NoError(t, b.AddVariable(v))
	b.bind("x", Int(1))

	b.removeVariable(variable("x"))
	assert.True(t, b.HasVariable("x"), "only the declaring variable removes a name")

	b.removeVariable(v)
	assert.False(t, b.HasVariable("x"))
	_, ok := b.Get("x")
	assert.False(t, ok)
}

func TestScopeResolution(t *testing.T) {
	a := NewAST()
	evalLine(t, a, "( new ( init ID:'g' INT:'1' ) ) ;")
	evalLine(t, a, "{ ( new ( init ID:'z' INT:'2' ) ) ; { ( exp ( PLUS ID:'z' ID:'g' ) ) ; } ; }")

	outer := a.Root().Children()[1].(*Block)
	inner := outer.Children()[1].(*Block)
	assert.Equal(t, Int(3), inner.Children()[0].Result())
	assert.True(t, inner.IsInScope("z"))
	assert.True(t, inner.IsInScope("g"), "global scope is the last resort")
	assert.False(t, a.Global().IsInScope("z"))
	assert.Same(t, a.Global(), outer.ParentBlock())
	assert.Same(t, outer, inner.ParentBlock())

	// A sibling block does not see z.
	err := insertLine(t, a, "{ ( exp ID:'z' ) ; }")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrScope), "got %v", err)
	assert.Len(t, a.Root().Children(), 2)
}

func TestShadowing(t *testing.T) {
	a := NewAST()
	vals := evalLine(t, a, "( new ( init ID:'x' INT:'1' ) ) ; { ( new ( init ID:'x' INT:'2' ) ) ; ( exp ID:'x' ) ; } ( exp ID:'x' ) ;")
	require.Len(t, vals, 3)
	assert.Equal(t, Int(1), vals[2])

	blk := a.Root().Children()[1].(*Block)
	assert.Equal(t, Int(2), blk.Children()[1].Result())
	v, ok := a.Global().Get("x")
	require.True(t, ok)
	assert.Equal(t, Int(1), v)
}

func TestNameConflictRollsBack(t *testing.T) {
	a := NewAST()
	err := insertLine(t, a, "( new ( init ID:'x' INT:'1' ) ( init ID:'x' INT:'2' ) ) ;")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrScope))
	assert.False(t, a.Global().HasVariable("x"))
	assert.Empty(t, a.Root().Children())
}

func TestUndeclaredVariable(t *testing.T) {
	a := NewAST()
	err := insertLine(t, a, "( exp ID:'nope' ) ;")
	assert.True(t, errors.Is(err, ErrScope), "got %v", err)
}

func TestBlockKind(t *testing.T) {
	tests := []struct {
		name string
		line string
		kind BlockKind
		text string
	}{
		{"single expression", "{ ( exp ( PLUS INT:'1' INT:'2' ) ) }", ExpressionBlockKind, "3"},
		{"empty", "{ }", CodeBlock, ""},
		{"two statements", "{ ( exp INT:'1' ) ; ( exp INT:'2' ) ; }", CodeBlock, ""},
		{"single non-expression", "{ INT:'1' ; }", CodeBlock, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAST()
			vals := evalLine(t, a, tt.line+" ;")
			require.Len(t, vals, 1)
			blk := a.Root().Children()[0].(*Block)
			assert.Equal(t, tt.kind, blk.Kind())

			text, err := blk.CmdText()
			if tt.kind == CodeBlock {
				assert.ErrorIs(t, err, ErrRuntime)
				assert.Empty(t, cmp.Diff([]Value{Nil()}, vals))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.text, text)
		})
	}
}

func TestNewAndRenew(t *testing.T) {
	a := NewAST()
	vals := evalLine(t, a, "( new ( init ID:'x' INT:'1' ) ( init ID:'y' ) ) ; ( renew ( init ID:'x' ( exp ( PLUS ID:'x' INT:'4' ) ) ) ) ; ( exp ID:'x' ) ;")
	assert.Empty(t, cmp.Diff([]Value{Nil(), Int(5), Int(5)}, vals))

	y, ok := a.Global().Get("y")
	require.True(t, ok)
	assert.True(t, y.IsNil())
}

func TestRenewInnerBlockWritesOuter(t *testing.T) {
	a := NewAST()
	evalLine(t, a, "( new ( init ID:'x' INT:'1' ) ) ; { ( renew ( init ID:'x' INT:'9' ) ) ; } ;")
	x, _ := a.Global().Get("x")
	assert.Equal(t, Int(9), x)
	assert.Equal(t, []string{"x"}, a.Global().Names())
}

func TestDeclarationErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
		kind error
	}{
		{"renew undeclared", "( renew ( init ID:'q' INT:'1' ) )", ErrScope},
		{"typed declaration", "( new ( init ID:'q' ID:'int' INT:'1' ) )", ErrStructural},
		{"non-init child", "( new INT:'1' )", ErrStructural},
		{"empty new", "( new )", ErrStructural},
		{"init without name", "( new ( init INT:'1' ) )", ErrStructural},
		{"init outside new", "( init ID:'q' )", ErrStructural},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAST()
			err := insertLine(t, a, tt.line)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
			assert.Empty(t, a.Global().Names())
		})
	}
}
