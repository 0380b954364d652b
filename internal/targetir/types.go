package targetir

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of target types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInteger
	KindFloat
	KindVector
	KindStruct
	KindPointer
	KindFuncPtr
	KindVoid
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindVector:
		return "vector"
	case KindStruct:
		return "struct"
	case KindPointer:
		return "pointer"
	case KindFuncPtr:
		return "funcptr"
	case KindVoid:
		return "void"
	case KindFunction:
		return "function"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// FloatKind selects one of the target's floating-point formats.
type FloatKind uint8

const (
	FloatHalf FloatKind = iota
	FloatFloat
	FloatDouble
)

func (f FloatKind) String() string {
	switch f {
	case FloatHalf:
		return "half"
	case FloatFloat:
		return "float"
	case FloatDouble:
		return "double"
	default:
		return fmt.Sprintf("FloatKind(%d)", f)
	}
}

// Type is a compact descriptor for any supported target type. Struct fields
// and function signatures live in interner side tables addressed by Info.
type Type struct {
	Kind  Kind
	Width uint32    // integers
	Float FloatKind // floats
	Elem  TypeID    // vector element, pointer pointee
	Count uint32    // vector length
	Info  uint32    // struct/function side-table index
}

// StructInfo is the side-table payload of a struct type.
type StructInfo struct {
	Fields []TypeID
}

// FuncInfo is the side-table payload of function and function-pointer types.
// The target collapses results to exactly one (possibly Void).
type FuncInfo struct {
	Params []TypeID
	Result TypeID
}
