package eval

import (
	"strings"
)

// Print renders the tree one node per line, indented by depth. Each line
// carries the lifecycle flags (S setup, C complete, R reordered, A
// analyzed, E evaluated, '-' when unset) and the cursor is marked with
// "<". Analyzed variables name the scope they are bound to. Printing never
// changes the tree.
func (a *AST) Print() string {
	var sb strings.Builder
	a.print(&sb, a.root, 0)
	return sb.String()
}

func (a *AST) print(sb *strings.Builder, n Node, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(n.String())
	if blk, ok := n.(*Block); ok && blk.kind != Undetermined {
		sb.WriteString(" (")
		sb.WriteString(blk.kind.String())
		sb.WriteString(")")
	}
	if op, ok := n.(*Operator); ok && op.arity != Unresolved {
		sb.WriteString(" (")
		sb.WriteString(op.arity.String())
		sb.WriteString(")")
	}
	if v, ok := n.(*Variable); ok && v.Binding() != nil {
		if v.IsDeclaration() {
			sb.WriteString(" (declares in ")
		} else {
			sb.WriteString(" (reads ")
		}
		sb.WriteString(v.Binding().describe())
		sb.WriteString(")")
	}
	if _, ok := n.(*RootNode); !ok {
		sb.WriteString(" [")
		sb.WriteString(flags(n))
		sb.WriteString("]")
	}
	if n == a.cursor {
		if a.expectHead {
			sb.WriteString(" < (")
		} else {
			sb.WriteString(" <")
		}
	}
	sb.WriteByte('\n')
	for _, c := range n.Children() {
		a.print(sb, c, depth+1)
	}
}

func flags(n Node) string {
	b := []byte("-----")
	set := []bool{n.IsSetup(), n.IsComplete(), n.IsReordered(), n.IsAnalyzed(), n.IsEvaluated()}
	for i, on := range set {
		if on {
			b[i] = "SCRAE"[i]
		}
	}
	return string(b)
}
