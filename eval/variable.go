package eval

// Variable is an identifier leaf. As the first child of a NewInit it is a
// declaration; anywhere else it is a reference resolved during analysis
// against the scope chain of its enclosing Block.
type Variable struct {
	nodeBase
	declaring  bool
	declaredIn *Block
	binding    *Block
}

// VarName returns the identifier.
func (v *Variable) VarName() string { return v.text }

// Binding returns the block whose storage cell the variable reads or
// writes; nil before analysis.
func (v *Variable) Binding() *Block { return v.binding }

// IsDeclaration reports whether the variable introduces its name.
func (v *Variable) IsDeclaration() bool { return v.declaring }

func (v *Variable) complete() error {
	if len(v.children) != 0 {
		return structuralf(v, "variable %q cannot have children", v.text)
	}
	if v.text == "" {
		return structuralf(v, "variable without a name")
	}
	return nil
}

func (v *Variable) analyze() error {
	if v.declaring {
		return nil
	}
	b := v.block.lookup(v.text)
	if b == nil {
		return scopef(v, "variable %q is not declared in scope", v.text)
	}
	v.binding = b
	return nil
}

func (v *Variable) evaluate() error {
	if v.declaring {
		return nil
	}
	val, ok := v.binding.Get(v.text)
	if !ok {
		return runtimef(v, "variable %q is no longer declared", v.text)
	}
	v.result = val
	return nil
}
