package targetir

import (
	"fmt"
	"strings"

	"fortio.org/safecast"
)

// Interner provides stable TypeIDs by hashing structural descriptors, so
// identity comparison of IDs doubles as structural equality.
type Interner struct {
	types   []Type
	index   map[typeKey]TypeID
	structs []StructInfo
	funcs   []FuncInfo
	void    TypeID
}

// NewInterner constructs an interner. TypeID 0 is reserved as invalid.
func NewInterner() *Interner {
	in := &Interner{
		index: make(map[typeKey]TypeID, 64),
	}
	in.structs = append(in.structs, StructInfo{}) // reserve 0 as invalid sentinel
	in.funcs = append(in.funcs, FuncInfo{})
	in.internRaw(Type{Kind: KindInvalid})
	in.void = in.intern(Type{Kind: KindVoid})
	return in
}

// Void returns the pre-interned void type.
func (in *Interner) Void() TypeID { return in.void }

// Integer interns an integer type of the given bit width.
func (in *Interner) Integer(width uint32) TypeID {
	return in.intern(Type{Kind: KindInteger, Width: width})
}

// Float interns a floating-point type.
func (in *Interner) Float(k FloatKind) TypeID {
	return in.intern(Type{Kind: KindFloat, Float: k})
}

// Vector interns a one-dimensional vector type.
func (in *Interner) Vector(elem TypeID, count uint32) TypeID {
	return in.intern(Type{Kind: KindVector, Elem: elem, Count: count})
}

// Pointer interns a pointer type.
func (in *Interner) Pointer(pointee TypeID) TypeID {
	return in.intern(Type{Kind: KindPointer, Elem: pointee})
}

// Struct interns a struct type with the given ordered fields.
func (in *Interner) Struct(fields []TypeID) TypeID {
	return in.internSig(KindStruct, fields, NoTypeID)
}

// FuncPtr interns a function-pointer type.
func (in *Interner) FuncPtr(params []TypeID, result TypeID) TypeID {
	return in.internSig(KindFuncPtr, params, result)
}

// Function interns a function type with a single (possibly void) result.
func (in *Interner) Function(params []TypeID, result TypeID) TypeID {
	return in.internSig(KindFunction, params, result)
}

func (in *Interner) internSig(kind Kind, list []TypeID, result TypeID) TypeID {
	key := typeKey{Kind: kind, Elem: result, Extra: idListKey(list)}
	if id, ok := in.index[key]; ok {
		return id
	}
	var idx uint32
	var err error
	switch kind {
	case KindStruct:
		idx, err = safecast.Conv[uint32](len(in.structs))
		if err != nil {
			panic(fmt.Errorf("len(structs) overflow: %w", err))
		}
		in.structs = append(in.structs, StructInfo{Fields: append([]TypeID(nil), list...)})
	default:
		idx, err = safecast.Conv[uint32](len(in.funcs))
		if err != nil {
			panic(fmt.Errorf("len(funcs) overflow: %w", err))
		}
		in.funcs = append(in.funcs, FuncInfo{Params: append([]TypeID(nil), list...), Result: result})
	}
	id := in.internRaw(Type{Kind: kind, Info: idx})
	in.index[key] = id
	return id
}

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
		panic("targetir: invalid TypeID")
	}
	return tt
}

// StructInfo returns the field payload of a struct TypeID.
func (in *Interner) StructInfo(id TypeID) (StructInfo, bool) {
	t, ok := in.Lookup(id)
	if !ok || t.Kind != KindStruct || int(t.Info) >= len(in.structs) {
		return StructInfo{}, false
	}
	return in.structs[t.Info], true
}

// FuncInfo returns the signature payload of a function or function-pointer
// TypeID.
func (in *Interner) FuncInfo(id TypeID) (FuncInfo, bool) {
	t, ok := in.Lookup(id)
	if !ok || (t.Kind != KindFunction && t.Kind != KindFuncPtr) || int(t.Info) >= len(in.funcs) {
		return FuncInfo{}, false
	}
	return in.funcs[t.Info], true
}

// String renders a TypeID in the target's textual spelling.
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
	case KindVoid:
		return "void"
	case KindVector:
		return fmt.Sprintf("<%d x %s>", t.Count, in.String(t.Elem))
	case KindPointer:
		return in.String(t.Elem) + "*"
	case KindStruct:
		si := in.structs[t.Info]
		parts := make([]string, 0, len(si.Fields))
		for _, f := range si.Fields {
			parts = append(parts, in.String(f))
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case KindFuncPtr, KindFunction:
		fi := in.funcs[t.Info]
		parts := make([]string, 0, len(fi.Params))
		for _, p := range fi.Params {
			parts = append(parts, in.String(p))
		}
		return fmt.Sprintf("%s (%s)", in.String(fi.Result), strings.Join(parts, ", "))
	default:
		return "<invalid>"
	}
}

type typeKey struct {
	Kind  Kind
	Width uint32
	Float FloatKind
	Elem  TypeID
	Count uint32
	Extra string
}

func idListKey(list []TypeID) string {
	var sb strings.Builder
	for _, id := range list {
		fmt.Fprintf(&sb, "%d,", id)
	}
	return sb.String()
}
