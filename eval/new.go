package eval

// New declares variables in its enclosing block, one per NewInit child.
// In renew mode it rebinds variables that are already in scope instead.
type New struct {
	nodeBase
	renew bool
}

func (n *New) complete() error {
	if len(n.children) == 0 {
		return structuralf(n, "%s without any variable", n.name)
	}
	for _, c := range n.children {
		if _, ok := c.(*NewInit); !ok {
			return structuralf(c, "%s only accepts init children, got %s", n.name, c.Name())
		}
	}
	return nil
}

func (n *New) evaluate() error {
	n.result = n.children[len(n.children)-1].Result()
	return nil
}

// NewInit pairs a variable name with an optional initializer expression.
type NewInit struct {
	nodeBase
}

// Var returns the declared variable.
func (n *NewInit) Var() *Variable {
	if len(n.children) == 0 {
		return nil
	}
	v, _ := n.children[0].(*Variable)
	return v
}

// Init returns the initializer, or nil when the variable starts out nil.
func (n *NewInit) Init() Node {
	if len(n.children) < 2 {
		return nil
	}
	return n.children[1]
}

func (n *NewInit) renew() bool {
	p, ok := n.parent.(*New)
	return ok && p.renew
}

func (n *NewInit) complete() error {
	if _, ok := n.parent.(*New); !ok {
		return structuralf(n, "init outside of a new statement")
	}
	switch len(n.children) {
	case 1, 2:
	case 3:
		return structuralf(n, "typed declarations are not supported")
	default:
		return structuralf(n, "init takes a name and an optional initializer, got %d children", len(n.children))
	}
	v, ok := n.children[0].(*Variable)
	if !ok {
		return structuralf(n.children[0], "init must start with a variable name")
	}
	v.declaring = true
	return nil
}

func (n *NewInit) analyze() error {
	v := n.Var()
	if n.renew() {
		b := n.block.lookup(v.VarName())
		if b == nil {
			return scopef(v, "cannot renew %q; it is not declared in scope", v.VarName())
		}
		v.binding = b
		return nil
	}
	if err := n.block.AddVariable(v); err != nil {
		return err
	}
	v.binding = n.block
	return nil
}

func (n *NewInit) evaluate() error {
	val := Nil()
	if init := n.Init(); init != nil {
		val = init.Result()
	}
	v := n.Var()
	if !v.binding.HasVariable(v.VarName()) {
		return runtimef(v, "variable %q is no longer declared", v.VarName())
	}
	v.binding.bind(v.VarName(), val)
	n.result = val
	return nil
}
