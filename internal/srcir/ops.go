package srcir

import "fmt"

// ValueID identifies a value inside one function.
type ValueID int32

// BlockID identifies a basic block inside one function.
type BlockID int32

const (
	NoValueID ValueID = -1
	NoBlockID BlockID = -1
)

// Loc pins an operation for diagnostics: function name plus position.
type Loc struct {
	Func  string
	Block BlockID
	Op    int
}

func (l Loc) String() string {
	if l.Func == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("@%s/bb%d#%d", l.Func, l.Block, l.Op)
}

// OpKind enumerates operation kinds in the source IR.
type OpKind uint8

const (
	// OpConst materializes a scalar constant.
	OpConst OpKind = iota
	// OpAlloc allocates a memref; one index operand per dynamic dimension.
	OpAlloc
	// OpDimCast reclassifies static dimensions of a memref as dynamic.
	OpDimCast
	// OpLoad reads one element of a memref at the given subscripts.
	OpLoad
	// OpStore writes one element of a memref at the given subscripts.
	OpStore
	// OpBin is scalar binary arithmetic; it has no memref semantics and is
	// lowered by plain type substitution.
	OpBin
	// OpCall invokes a function by name.
	OpCall
	// OpReturn terminates a function, yielding zero or more results.
	OpReturn
)

func (k OpKind) String() string {
	switch k {
	case OpConst:
		return "const"
	case OpAlloc:
		return "alloc"
	case OpDimCast:
		return "dimcast"
	case OpLoad:
		return "load"
	case OpStore:
		return "store"
	case OpBin:
		return "bin"
	case OpCall:
		return "call"
	case OpReturn:
		return "return"
	default:
		return fmt.Sprintf("OpKind(%d)", k)
	}
}

// BinKind selects the arithmetic operation of an OpBin.
type BinKind uint8

const (
	BinAdd BinKind = iota
	BinSub
	BinMul
)

func (b BinKind) String() string {
	switch b {
	case BinAdd:
		return "add"
	case BinSub:
		return "sub"
	case BinMul:
		return "mul"
	default:
		return fmt.Sprintf("BinKind(%d)", b)
	}
}

// ConstOp materializes a constant of a scalar type.
type ConstOp struct {
	Type    TypeID
	IsFloat bool
	Int     int64
	Float   float64
}

// AllocOp allocates a memref of the given type. DynSizes supplies one
// index-typed size per dynamic dimension, in shape order.
type AllocOp struct {
	Memref   TypeID
	DynSizes []ValueID
}

// DimCastOp re-materializes a memref value under a shape with more dynamic
// dimensions. The buffer pointer carries over unchanged.
type DimCastOp struct {
	Src ValueID
	To  TypeID
}

// LoadOp reads an element; one index-typed subscript per dimension.
type LoadOp struct {
	Memref     ValueID
	Subscripts []ValueID
}

// StoreOp writes an element; one index-typed subscript per dimension.
type StoreOp struct {
	Value      ValueID
	Memref     ValueID
	Subscripts []ValueID
}

// BinOp is scalar binary arithmetic over matching operand types.
type BinOp struct {
	Op  BinKind
	LHS ValueID
	RHS ValueID
}

// CallOp invokes Callee, whose full function type is carried on the op so
// call sites convert without resolving the callee.
type CallOp struct {
	Callee     string
	CalleeType TypeID
	Args       []ValueID
}

// ReturnOp yields the function results.
type ReturnOp struct {
	Operands []ValueID
}

// Op is one source operation. Kind selects the active payload.
type Op struct {
	Kind    OpKind
	Results []ValueID

	Const   ConstOp
	Alloc   AllocOp
	DimCast DimCastOp
	Load    LoadOp
	Store   StoreOp
	Bin     BinOp
	Call    CallOp
	Return  ReturnOp
}
