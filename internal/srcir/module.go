package srcir

// Module is an ordered list of functions sharing one type interner.
type Module struct {
	Funcs []*Func
}

// Value is one SSA value inside a function.
type Value struct {
	Type TypeID
	Name string
}

// Block is a basic block: a straight-line run of operations.
type Block struct {
	ID  BlockID
	Ops []Op
}

// Func is one function: its interned type, parameter values, the value
// table, and the block list. Params index into Values.
type Func struct {
	Name   string
	Type   TypeID
	Params []ValueID
	Values []Value
	Blocks []Block
}

// ValueType returns the type of a value, or NoTypeID when out of range.
func (f *Func) ValueType(v ValueID) TypeID {
	if v < 0 || int(v) >= len(f.Values) {
		return NoTypeID
	}
	return f.Values[v].Type
}

// FindFunc returns the function with the given name, or nil.
func (m *Module) FindFunc(name string) *Func {
	for _, f := range m.Funcs {
		if f != nil && f.Name == name {
			return f
		}
	}
	return nil
}
