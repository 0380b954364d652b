package srcir

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of source types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInteger
	KindFloat
	KindIndex
	KindVector
	KindMemref
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
	case KindIndex:
		return "index"
	case KindVector:
		return "vector"
	case KindMemref:
		return "memref"
	case KindFunction:
		return "function"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// FloatKind selects a floating-point format.
type FloatKind uint8

const (
	FloatF16 FloatKind = iota
	FloatF32
	FloatF64
	FloatBF16
)

func (f FloatKind) String() string {
	switch f {
	case FloatF16:
		return "f16"
	case FloatF32:
		return "f32"
	case FloatF64:
		return "f64"
	case FloatBF16:
		return "bf16"
	default:
		return fmt.Sprintf("FloatKind(%d)", f)
	}
}

// DynamicDim marks a memref dimension whose size is runtime-determined.
const DynamicDim int64 = -1

// LayoutKind tags the index-to-offset mapping of a memref.
// Only the identity layout is lowerable; others are representable so that
// rejection happens in the converter, with a location, not in the parser.
type LayoutKind uint8

const (
	LayoutIdentity LayoutKind = iota
	LayoutStrided
)

func (l LayoutKind) String() string {
	switch l {
	case LayoutIdentity:
		return "identity"
	case LayoutStrided:
		return "strided"
	default:
		return fmt.Sprintf("LayoutKind(%d)", l)
	}
}

// DefaultMemorySpace is the only memory space the lowering accepts.
const DefaultMemorySpace uint32 = 0

// Type is a compact descriptor for any supported source type.
// Variable-size payloads (memref shapes, function signatures) live in
// interner side tables addressed by Info.
type Type struct {
	Kind  Kind
	Width uint32    // integers
	Float FloatKind // floats
	Elem  TypeID    // vector element
	Count uint32    // vector length
	Info  uint32    // memref/function side-table index
}

// MemrefInfo is the side-table payload of a memref type.
type MemrefInfo struct {
	Elem   TypeID
	Dims   []int64 // DynamicDim for runtime-sized dimensions
	Layout LayoutKind
	Space  uint32
}

// Rank returns the number of dimensions.
func (mi MemrefInfo) Rank() int { return len(mi.Dims) }

// DynamicCount returns the number of runtime-sized dimensions.
func (mi MemrefInfo) DynamicCount() int {
	n := 0
	for _, d := range mi.Dims {
		if d == DynamicDim {
			n++
		}
	}
	return n
}

// FuncInfo is the side-table payload of a function type.
type FuncInfo struct {
	Params  []TypeID
	Results []TypeID
}
