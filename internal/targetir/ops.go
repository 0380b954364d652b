package targetir

import "fmt"

// ValueID identifies a value inside one function.
type ValueID int32

// BlockID identifies a basic block inside one function.
type BlockID int32

const (
	NoValueID ValueID = -1
	NoBlockID BlockID = -1
)

// OpKind enumerates instruction kinds in the target IR.
type OpKind uint8

const (
	// OpConst materializes a scalar constant; the printer folds it into
	// operand positions as a literal.
	OpConst OpKind = iota
	// OpUndef materializes an undefined value of an aggregate type.
	OpUndef
	// OpInsertValue writes one field of an aggregate, yielding the new
	// aggregate.
	OpInsertValue
	// OpExtractValue reads one field of an aggregate.
	OpExtractValue
	// OpGEP computes an element address from a base pointer and an offset.
	OpGEP
	// OpLoad reads through a pointer.
	OpLoad
	// OpStore writes through a pointer.
	OpStore
	// OpBin is integer or floating binary arithmetic.
	OpBin
	// OpCall invokes a function by symbol name.
	OpCall
	// OpRet terminates a function.
	OpRet
	// OpAlloca reserves a buffer of Count elements and yields its pointer.
	OpAlloca
)

func (k OpKind) String() string {
	switch k {
	case OpConst:
		return "const"
	case OpUndef:
		return "undef"
	case OpInsertValue:
		return "insertvalue"
	case OpExtractValue:
		return "extractvalue"
	case OpGEP:
		return "getelementptr"
	case OpLoad:
		return "load"
	case OpStore:
		return "store"
	case OpBin:
		return "bin"
	case OpCall:
		return "call"
	case OpRet:
		return "ret"
	case OpAlloca:
		return "alloca"
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

// ConstOp materializes a scalar constant.
type ConstOp struct {
	Type    TypeID
	IsFloat bool
	Int     int64
	Float   float64
}

// UndefOp materializes an undefined value.
type UndefOp struct {
	Type TypeID
}

// InsertValueOp writes field Index of Agg with Val.
type InsertValueOp struct {
	Agg   ValueID
	Val   ValueID
	Index int
}

// ExtractValueOp reads field Index of Agg.
type ExtractValueOp struct {
	Agg   ValueID
	Index int
}

// GEPOp addresses element Offset past Ptr, in units of Elem.
type GEPOp struct {
	Elem   TypeID
	Ptr    ValueID
	Offset ValueID
}

// LoadOp reads through Ptr.
type LoadOp struct {
	Ptr ValueID
}

// StoreOp writes Val through Ptr.
type StoreOp struct {
	Val ValueID
	Ptr ValueID
}

// BinOp is binary arithmetic over matching operand types.
type BinOp struct {
	Op  BinKind
	LHS ValueID
	RHS ValueID
}

// CallOp invokes Callee with the given function type.
type CallOp struct {
	Callee string
	Type   TypeID // KindFunction
	Args   []ValueID
}

// RetOp terminates the function; HasValue is false for void returns.
type RetOp struct {
	HasValue bool
	Value    ValueID
}

// AllocaOp reserves Count elements of Elem and yields the buffer pointer.
type AllocaOp struct {
	Elem  TypeID
	Count ValueID
}

// Op is one target instruction. Kind selects the active payload.
type Op struct {
	Kind    OpKind
	Results []ValueID

	Const   ConstOp
	Undef   UndefOp
	Insert  InsertValueOp
	Extract ExtractValueOp
	GEP     GEPOp
	Load    LoadOp
	Store   StoreOp
	Bin     BinOp
	Call    CallOp
	Ret     RetOp
	Alloca  AllocaOp
}
