// Package moduleio serializes source modules to a versioned msgpack
// payload, so pre-built IR can be stored, cached, and fed to the lowering
// tool without a textual frontend.
package moduleio

import (
	"fmt"

	"fortio.org/safecast"

	"lowir/internal/srcir"
)

// SchemaVersion - increment when the payload format changes.
const SchemaVersion uint16 = 1

// TypeRec flattens one interned type. Cross-references use the source
// TypeID numbering of the encoding interner; decoding re-interns in order,
// which is sound because constructors only reference earlier IDs.
type TypeRec struct {
	Kind    uint8
	Width   uint32
	Float   uint8
	Elem    uint32
	Count   uint32
	Dims    []int64
	Layout  uint8
	Space   uint32
	Params  []uint32
	Results []uint32
}

// ValueRec is one function-local value.
type ValueRec struct {
	Type uint32
	Name string
}

// OpRec is one operation. Operands holds the kind-specific value list; see
// packOperands for the per-kind layout.
type OpRec struct {
	Kind     uint8
	Bin      uint8
	Results  []int32
	Operands []int32
	Type     uint32
	Callee   string
	IsFloat  bool
	Int      int64
	Float    float64
}

// BlockRec is one basic block.
type BlockRec struct {
	Ops []OpRec
}

// FuncRec is one function.
type FuncRec struct {
	Name   string
	Type   uint32
	Params []int32
	Values []ValueRec
	Blocks []BlockRec
}

// Payload is the serialized form of a module plus the types it references.
type Payload struct {
	Schema uint16
	Types  []TypeRec
	Funcs  []FuncRec
}

// Encode flattens a module and its interner into a payload.
func Encode(m *srcir.Module, types *srcir.Interner) (*Payload, error) {
	p := &Payload{Schema: SchemaVersion}
	for i := 1; i < types.Count(); i++ {
		rec, err := encodeType(types, srcir.TypeID(i))
		if err != nil {
			return nil, err
		}
		p.Types = append(p.Types, rec)
	}
	for _, f := range m.Funcs {
		if f == nil {
			continue
		}
		fr := FuncRec{Name: f.Name, Type: uint32(f.Type)}
		for _, v := range f.Params {
			fr.Params = append(fr.Params, int32(v))
		}
		for _, v := range f.Values {
			fr.Values = append(fr.Values, ValueRec{Type: uint32(v.Type), Name: v.Name})
		}
		for bi := range f.Blocks {
			br := BlockRec{}
			for oi := range f.Blocks[bi].Ops {
				br.Ops = append(br.Ops, encodeOp(&f.Blocks[bi].Ops[oi]))
			}
			fr.Blocks = append(fr.Blocks, br)
		}
		p.Funcs = append(p.Funcs, fr)
	}
	return p, nil
}

func encodeType(types *srcir.Interner, id srcir.TypeID) (TypeRec, error) {
	t, ok := types.Lookup(id)
	if !ok {
		return TypeRec{}, fmt.Errorf("moduleio: dangling TypeID %d", id)
	}
	rec := TypeRec{
		Kind:  uint8(t.Kind),
		Width: t.Width,
		Float: uint8(t.Float),
		Elem:  uint32(t.Elem),
		Count: t.Count,
	}
	switch t.Kind {
	case srcir.KindMemref:
		mi, _ := types.MemrefInfo(id)
		rec.Elem = uint32(mi.Elem)
		rec.Dims = mi.Dims
		rec.Layout = uint8(mi.Layout)
		rec.Space = mi.Space
	case srcir.KindFunction:
		fi, _ := types.FuncInfo(id)
		for _, pp := range fi.Params {
			rec.Params = append(rec.Params, uint32(pp))
		}
		for _, rr := range fi.Results {
			rec.Results = append(rec.Results, uint32(rr))
		}
	}
	return rec, nil
}

func encodeOp(op *srcir.Op) OpRec {
	rec := OpRec{Kind: uint8(op.Kind)}
	for _, r := range op.Results {
		rec.Results = append(rec.Results, int32(r))
	}
	rec.Operands = packOperands(op)
	switch op.Kind {
	case srcir.OpConst:
		rec.Type = uint32(op.Const.Type)
		rec.IsFloat = op.Const.IsFloat
		rec.Int = op.Const.Int
		rec.Float = op.Const.Float
	case srcir.OpAlloc:
		rec.Type = uint32(op.Alloc.Memref)
	case srcir.OpDimCast:
		rec.Type = uint32(op.DimCast.To)
	case srcir.OpBin:
		rec.Bin = uint8(op.Bin.Op)
	case srcir.OpCall:
		rec.Type = uint32(op.Call.CalleeType)
		rec.Callee = op.Call.Callee
	}
	return rec
}

// packOperands flattens the kind-specific operand lists:
//
//	alloc:   dynamic sizes
//	dimcast: source
//	load:    memref, subscripts...
//	store:   value, memref, subscripts...
//	bin:     lhs, rhs
//	call:    args
//	return:  operands
func packOperands(op *srcir.Op) []int32 {
	var vs []srcir.ValueID
	switch op.Kind {
	case srcir.OpAlloc:
		vs = op.Alloc.DynSizes
	case srcir.OpDimCast:
		vs = []srcir.ValueID{op.DimCast.Src}
	case srcir.OpLoad:
		vs = append([]srcir.ValueID{op.Load.Memref}, op.Load.Subscripts...)
	case srcir.OpStore:
		vs = append([]srcir.ValueID{op.Store.Value, op.Store.Memref}, op.Store.Subscripts...)
	case srcir.OpBin:
		vs = []srcir.ValueID{op.Bin.LHS, op.Bin.RHS}
	case srcir.OpCall:
		vs = op.Call.Args
	case srcir.OpReturn:
		vs = op.Return.Operands
	}
	out := make([]int32, 0, len(vs))
	for _, v := range vs {
		out = append(out, int32(v))
	}
	return out
}

// Decode rebuilds a module and a fresh interner from a payload.
func Decode(p *Payload) (*srcir.Module, *srcir.Interner, error) {
	if p.Schema != SchemaVersion {
		return nil, nil, fmt.Errorf("moduleio: unsupported schema %d, want %d", p.Schema, SchemaVersion)
	}
	types := srcir.NewInterner()
	idMap := make(map[uint32]srcir.TypeID, len(p.Types)+1)
	idMap[0] = srcir.NoTypeID
	for i, rec := range p.Types {
		oldID, err := safecast.Conv[uint32](i + 1)
		if err != nil {
			return nil, nil, fmt.Errorf("moduleio: type count overflow: %w", err)
		}
		id, derr := decodeType(types, rec, idMap)
		if derr != nil {
			return nil, nil, fmt.Errorf("moduleio: type %d: %w", oldID, derr)
		}
		idMap[oldID] = id
	}

	mapType := func(old uint32) (srcir.TypeID, error) {
		id, ok := idMap[old]
		if !ok {
			return srcir.NoTypeID, fmt.Errorf("moduleio: dangling type reference %d", old)
		}
		return id, nil
	}

	m := &srcir.Module{}
	for fi := range p.Funcs {
		f, err := decodeFunc(&p.Funcs[fi], mapType)
		if err != nil {
			return nil, nil, err
		}
		m.Funcs = append(m.Funcs, f)
	}
	return m, types, nil
}

func decodeType(types *srcir.Interner, rec TypeRec, idMap map[uint32]srcir.TypeID) (srcir.TypeID, error) {
	ref := func(old uint32) (srcir.TypeID, error) {
		id, ok := idMap[old]
		if !ok {
			return srcir.NoTypeID, fmt.Errorf("forward type reference %d", old)
		}
		return id, nil
	}
	switch srcir.Kind(rec.Kind) {
	case srcir.KindInteger:
		return types.Integer(rec.Width), nil
	case srcir.KindFloat:
		return types.Float(srcir.FloatKind(rec.Float)), nil
	case srcir.KindIndex:
		return types.Index(), nil
	case srcir.KindVector:
		elem, err := ref(rec.Elem)
		if err != nil {
			return srcir.NoTypeID, err
		}
		return types.Vector(elem, rec.Count), nil
	case srcir.KindMemref:
		elem, err := ref(rec.Elem)
		if err != nil {
			return srcir.NoTypeID, err
		}
		return types.Memref(elem, rec.Dims, srcir.LayoutKind(rec.Layout), rec.Space), nil
	case srcir.KindFunction:
		params := make([]srcir.TypeID, 0, len(rec.Params))
		for _, old := range rec.Params {
			id, err := ref(old)
			if err != nil {
				return srcir.NoTypeID, err
			}
			params = append(params, id)
		}
		results := make([]srcir.TypeID, 0, len(rec.Results))
		for _, old := range rec.Results {
			id, err := ref(old)
			if err != nil {
				return srcir.NoTypeID, err
			}
			results = append(results, id)
		}
		return types.Function(params, results), nil
	default:
		return srcir.NoTypeID, fmt.Errorf("unknown kind %d", rec.Kind)
	}
}

func decodeFunc(fr *FuncRec, mapType func(uint32) (srcir.TypeID, error)) (*srcir.Func, error) {
	ft, err := mapType(fr.Type)
	if err != nil {
		return nil, fmt.Errorf("moduleio: fn %s: %w", fr.Name, err)
	}
	f := &srcir.Func{Name: fr.Name, Type: ft}
	for _, p := range fr.Params {
		f.Params = append(f.Params, srcir.ValueID(p))
	}
	for _, v := range fr.Values {
		vt, err := mapType(v.Type)
		if err != nil {
			return nil, fmt.Errorf("moduleio: fn %s: %w", fr.Name, err)
		}
		f.Values = append(f.Values, srcir.Value{Type: vt, Name: v.Name})
	}
	for bi := range fr.Blocks {
		blk := srcir.Block{ID: srcir.BlockID(bi)}
		for oi := range fr.Blocks[bi].Ops {
			op, err := decodeOp(&fr.Blocks[bi].Ops[oi], mapType)
			if err != nil {
				return nil, fmt.Errorf("moduleio: fn %s bb%d#%d: %w", fr.Name, bi, oi, err)
			}
			blk.Ops = append(blk.Ops, op)
		}
		f.Blocks = append(f.Blocks, blk)
	}
	return f, nil
}

func decodeOp(rec *OpRec, mapType func(uint32) (srcir.TypeID, error)) (srcir.Op, error) {
	op := srcir.Op{Kind: srcir.OpKind(rec.Kind)}
	for _, r := range rec.Results {
		op.Results = append(op.Results, srcir.ValueID(r))
	}
	vs := make([]srcir.ValueID, 0, len(rec.Operands))
	for _, o := range rec.Operands {
		vs = append(vs, srcir.ValueID(o))
	}
	switch op.Kind {
	case srcir.OpConst:
		tt, err := mapType(rec.Type)
		if err != nil {
			return srcir.Op{}, err
		}
		op.Const = srcir.ConstOp{Type: tt, IsFloat: rec.IsFloat, Int: rec.Int, Float: rec.Float}
	case srcir.OpAlloc:
		tt, err := mapType(rec.Type)
		if err != nil {
			return srcir.Op{}, err
		}
		op.Alloc = srcir.AllocOp{Memref: tt, DynSizes: vs}
	case srcir.OpDimCast:
		tt, err := mapType(rec.Type)
		if err != nil {
			return srcir.Op{}, err
		}
		if len(vs) != 1 {
			return srcir.Op{}, fmt.Errorf("dimcast needs 1 operand, got %d", len(vs))
		}
		op.DimCast = srcir.DimCastOp{Src: vs[0], To: tt}
	case srcir.OpLoad:
		if len(vs) < 1 {
			return srcir.Op{}, fmt.Errorf("load needs a memref operand")
		}
		op.Load = srcir.LoadOp{Memref: vs[0], Subscripts: vs[1:]}
	case srcir.OpStore:
		if len(vs) < 2 {
			return srcir.Op{}, fmt.Errorf("store needs value and memref operands")
		}
		op.Store = srcir.StoreOp{Value: vs[0], Memref: vs[1], Subscripts: vs[2:]}
	case srcir.OpBin:
		if len(vs) != 2 {
			return srcir.Op{}, fmt.Errorf("binary op needs 2 operands, got %d", len(vs))
		}
		op.Bin = srcir.BinOp{Op: srcir.BinKind(rec.Bin), LHS: vs[0], RHS: vs[1]}
	case srcir.OpCall:
		tt, err := mapType(rec.Type)
		if err != nil {
			return srcir.Op{}, err
		}
		op.Call = srcir.CallOp{Callee: rec.Callee, CalleeType: tt, Args: vs}
	case srcir.OpReturn:
		op.Return = srcir.ReturnOp{Operands: vs}
	default:
		return srcir.Op{}, fmt.Errorf("unknown op kind %d", rec.Kind)
	}
	return op, nil
}
