package srcir

import (
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"
)

// Interner provides stable TypeIDs by hashing structural descriptors.
// Structural equality of two types implies identity equality of their IDs.
type Interner struct {
	types   []Type
	index   map[typeKey]TypeID
	memrefs []MemrefInfo
	funcs   []FuncInfo
}

// NewInterner constructs an empty interner. TypeID 0 is reserved as invalid.
func NewInterner() *Interner {
	in := &Interner{
		index: make(map[typeKey]TypeID, 64),
	}
	in.memrefs = append(in.memrefs, MemrefInfo{}) // reserve 0 as invalid sentinel
	in.funcs = append(in.funcs, FuncInfo{})
	in.internRaw(Type{Kind: KindInvalid})
	return in
}

// Integer interns a signed integer type of the given bit width.
func (in *Interner) Integer(width uint32) TypeID {
	return in.intern(Type{Kind: KindInteger, Width: width})
}

// Float interns a floating-point type.
func (in *Interner) Float(k FloatKind) TypeID {
	return in.intern(Type{Kind: KindFloat, Float: k})
}

// Index interns the platform-pointer-width subscript type.
func (in *Interner) Index() TypeID {
	return in.intern(Type{Kind: KindIndex})
}

// Vector interns a one-dimensional vector type. Nested vectors are
// representable; the converter rejects them.
func (in *Interner) Vector(elem TypeID, count uint32) TypeID {
	return in.intern(Type{Kind: KindVector, Elem: elem, Count: count})
}

// Memref interns a memref type. Use DynamicDim for runtime-sized dimensions.
func (in *Interner) Memref(elem TypeID, dims []int64, layout LayoutKind, space uint32) TypeID {
	info := MemrefInfo{Elem: elem, Dims: append([]int64(nil), dims...), Layout: layout, Space: space}
	key := typeKey{Kind: KindMemref, Extra: memrefKey(info)}
	if id, ok := in.index[key]; ok {
		return id
	}
	idx, err := safecast.Conv[uint32](len(in.memrefs))
	if err != nil {
		panic(fmt.Errorf("len(memrefs) overflow: %w", err))
	}
	in.memrefs = append(in.memrefs, info)
	id := in.internRaw(Type{Kind: KindMemref, Info: idx})
	in.index[key] = id
	return id
}

// Function interns a function type with the given parameter and result lists.
func (in *Interner) Function(params, results []TypeID) TypeID {
	info := FuncInfo{
		Params:  append([]TypeID(nil), params...),
		Results: append([]TypeID(nil), results...),
	}
	key := typeKey{Kind: KindFunction, Extra: funcKey(info)}
	if id, ok := in.index[key]; ok {
		return id
	}
	idx, err := safecast.Conv[uint32](len(in.funcs))
	if err != nil {
		panic(fmt.Errorf("len(funcs) overflow: %w", err))
	}
	in.funcs = append(in.funcs, info)
	id := in.internRaw(Type{Kind: KindFunction, Info: idx})
	in.index[key] = id
	return id
}

// intern ensures the fixed-arity descriptor has a stable TypeID.
func (in *Interner) intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	key := typeKey{Kind: t.Kind, Width: t.Width, Float: t.Float, Elem: t.Elem, Count: t.Count}
	if id, ok := in.index[key]; ok {
		return id
	}
	id := in.internRaw(t)
	in.index[key] = id
	return id
}

// internRaw adds the descriptor to storage without consulting the map.
func (in *Interner) internRaw(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("srcir: invalid TypeID")
	}
	return tt
}

// MemrefInfo returns the shape payload of a memref TypeID.
func (in *Interner) MemrefInfo(id TypeID) (MemrefInfo, bool) {
	t, ok := in.Lookup(id)
	if !ok || t.Kind != KindMemref || int(t.Info) >= len(in.memrefs) {
		return MemrefInfo{}, false
	}
	return in.memrefs[t.Info], true
}

// FuncInfo returns the signature payload of a function TypeID.
func (in *Interner) FuncInfo(id TypeID) (FuncInfo, bool) {
	t, ok := in.Lookup(id)
	if !ok || t.Kind != KindFunction || int(t.Info) >= len(in.funcs) {
		return FuncInfo{}, false
	}
	return in.funcs[t.Info], true
}

// Count returns the number of interned types, including the invalid slot 0.
func (in *Interner) Count() int { return len(in.types) }

// String renders a TypeID in the textual form used by dumps and diagnostics.
func (in *Interner) String(id TypeID) string {
	t, ok := in.Lookup(id)
	if !ok {
		return "<invalid>"
	}
	switch t.Kind {
	case KindInteger:
		return fmt.Sprintf("i%d", t.Width)
	case KindFloat:
		return t.Float.String()
	case KindIndex:
		return "index"
	case KindVector:
		return fmt.Sprintf("vector<%dx%s>", t.Count, in.String(t.Elem))
	case KindMemref:
		mi := in.memrefs[t.Info]
		var sb strings.Builder
		sb.WriteString("memref<")
		for _, d := range mi.Dims {
			if d == DynamicDim {
				sb.WriteString("?x")
			} else {
				sb.WriteString(strconv.FormatInt(d, 10))
				sb.WriteString("x")
			}
		}
		sb.WriteString(in.String(mi.Elem))
		if mi.Layout != LayoutIdentity {
			sb.WriteString(", ")
			sb.WriteString(mi.Layout.String())
		}
		if mi.Space != DefaultMemorySpace {
			fmt.Fprintf(&sb, ", %d", mi.Space)
		}
		sb.WriteString(">")
		return sb.String()
	case KindFunction:
		fi := in.funcs[t.Info]
		var sb strings.Builder
		sb.WriteString("(")
		for i, p := range fi.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(in.String(p))
		}
		sb.WriteString(") -> (")
		for i, r := range fi.Results {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(in.String(r))
		}
		sb.WriteString(")")
		return sb.String()
	default:
		return "<invalid>"
	}
}

// typeKey is the comparable structural key. Variadic payloads are folded
// into Extra so that the whole key stays a valid map key.
type typeKey struct {
	Kind  Kind
	Width uint32
	Float FloatKind
	Elem  TypeID
	Count uint32
	Extra string
}

func memrefKey(mi MemrefInfo) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "e%d;l%d;s%d;", mi.Elem, mi.Layout, mi.Space)
	for _, d := range mi.Dims {
		sb.WriteString(strconv.FormatInt(d, 10))
		sb.WriteString(",")
	}
	return sb.String()
}

func funcKey(fi FuncInfo) string {
	var sb strings.Builder
	for _, p := range fi.Params {
		fmt.Fprintf(&sb, "p%d,", p)
	}
	for _, r := range fi.Results {
		fmt.Fprintf(&sb, "r%d,", r)
	}
	return sb.String()
}
