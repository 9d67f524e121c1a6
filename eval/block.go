package eval

import (
	"fmt"
	"sort"

	"github.com/lush-shell/lush/token"
)

// BlockKind is decided when a Block completes.
type BlockKind int

const (
	Undetermined BlockKind = iota
	// CodeBlock is a sequence of statements.
	CodeBlock
	// ExpressionBlockKind is a block whose only child is an ExpressionBlock.
	ExpressionBlockKind
)

func (k BlockKind) String() string {
	switch k {
	case CodeBlock:
		return "code"
	case ExpressionBlockKind:
		return "expression"
	}
	return "undetermined"
}

// Block is a scope. Its variables are declared during analysis and their
// storage cells are written during evaluation.
type Block struct {
	nodeBase
	kind        BlockKind
	parentBlock *Block
	expBlock    *ExpressionBlock
	vars        map[string]*Variable
	cells       map[string]Value
}

func newBlock(tok token.Token) *Block {
	b := &Block{
		vars:  make(map[string]*Variable),
		cells: make(map[string]Value),
	}
	b.init(b, tok)
	return b
}

// Kind returns the resolved block kind.
func (b *Block) Kind() BlockKind { return b.kind }

// IsCodeBlock reports whether the block resolved to a statement list.
func (b *Block) IsCodeBlock() bool { return b.kind == CodeBlock }

// ParentBlock returns the enclosing scope; nil for the global scope.
func (b *Block) ParentBlock() *Block { return b.parentBlock }

func (b *Block) isGlobal() bool { return b.root != nil && b.root.global == b }

// resolveKind decides the block kind from its children.
func (b *Block) resolveKind() {
	b.expBlock = nil
	if len(b.children) == 1 {
		if e, ok := b.children[0].(*ExpressionBlock); ok {
			b.expBlock = e
			b.kind = ExpressionBlockKind
			return
		}
	}
	b.kind = CodeBlock
}

// cmdText returns the text an expression block contributes to a command.
func (b *Block) cmdText() (string, error) {
	if b.kind != ExpressionBlockKind || b.expBlock == nil {
		return "", runtimef(b, "cannot get command text of a %s block", b.kind)
	}
	return b.expBlock.cmdText(), nil
}

// CmdText is the exported form of cmdText.
func (b *Block) CmdText() (string, error) { return b.cmdText() }

// AddVariable declares v in this block. Only this block's own names are
// checked; shadowing a name from an enclosing block is allowed.
func (b *Block) AddVariable(v *Variable) error {
	name := v.VarName()
	if _, ok := b.vars[name]; ok {
		return scopef(v, "block %s cannot add variable %q; name conflicts in its scope", b.describe(), name)
	}
	b.vars[name] = v
	v.declaredIn = b
	return nil
}

// removeVariable undoes AddVariable for v, if v is still the declaration.
func (b *Block) removeVariable(v *Variable) {
	name := v.VarName()
	if b.vars[name] == v {
		delete(b.vars, name)
		delete(b.cells, name)
	}
}

// HasVariable reports whether name is declared in this block itself.
func (b *Block) HasVariable(name string) bool {
	_, ok := b.vars[name]
	return ok
}

// IsInScope reports whether name is declared in this block, any enclosing
// block, or the global scope. The walk follows static nesting.
func (b *Block) IsInScope(name string) bool { return b.lookup(name) != nil }

// lookup returns the block declaring name along the scope chain.
func (b *Block) lookup(name string) *Block {
	for s := b; s != nil; s = s.parentBlock {
		if s.HasVariable(name) {
			return s
		}
		if s.parentBlock == nil && !s.isGlobal() && s.root != nil {
			if s.root.global.HasVariable(name) {
				return s.root.global
			}
		}
	}
	return nil
}

func (b *Block) bind(name string, v Value) { b.cells[name] = v }

// Get returns the value bound to name in this block.
func (b *Block) Get(name string) (Value, bool) {
	if _, ok := b.vars[name]; !ok {
		return Value{}, false
	}
	return b.cells[name], true
}

// Names returns the names declared in this block, sorted.
func (b *Block) Names() []string {
	names := make([]string, 0, len(b.vars))
	for name := range b.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (b *Block) describe() string {
	if b.isGlobal() {
		return "global"
	}
	return fmt.Sprintf("block@%d", b.depth())
}

// depth counts the blocks enclosing b up to the global scope, which is 0.
func (b *Block) depth() int {
	if b.isGlobal() {
		return 0
	}
	d := 1
	for s := b.parentBlock; s != nil && !s.isGlobal(); s = s.parentBlock {
		d++
	}
	return d
}
