package lower

import (
	"lowir/internal/srcir"
	"lowir/internal/targetir"
)

// descField returns the descriptor field index holding the size of dynamic
// dimension dim: 1 plus the number of dynamic dimensions before it.
func descField(mi srcir.MemrefInfo, dim int) int {
	field := 1
	for i := 0; i < dim; i++ {
		if mi.Dims[i] == srcir.DynamicDim {
			field++
		}
	}
	return field
}

func (fl *funcLowerer) memrefOf(v srcir.ValueID, loc srcir.Loc) (srcir.MemrefInfo, error) {
	mi, ok := fl.types.MemrefInfo(fl.srcF.ValueType(v))
	if !ok {
		return srcir.MemrefInfo{}, opErr(loc, "operand is not a memref")
	}
	return mi, nil
}

// lowerAlloc builds a descriptor at the allocation site: the buffer pointer
// from the allocation primitive, then one inserted size per dynamic
// dimension, left to right.
func (fl *funcLowerer) lowerAlloc(op *srcir.Op, loc srcir.Loc) error {
	mi, ok := fl.types.MemrefInfo(op.Alloc.Memref)
	if !ok {
		return opErr(loc, "alloc of non-memref type")
	}
	descTy, cerr := fl.conv.Convert(op.Alloc.Memref)
	if cerr != nil {
		return stamp(cerr, loc)
	}
	elemTy, cerr := fl.conv.Convert(mi.Elem)
	if cerr != nil {
		return stamp(cerr, loc)
	}
	if len(op.Alloc.DynSizes) != mi.DynamicCount() {
		return internalErr(loc, "alloc has %d dynamic sizes, shape needs %d", len(op.Alloc.DynSizes), mi.DynamicCount())
	}

	idxTy := fl.conv.IndexType()
	dynVals := make([]targetir.ValueID, 0, len(op.Alloc.DynSizes))
	for _, s := range op.Alloc.DynSizes {
		v, err := fl.mapOne(s, loc)
		if err != nil {
			return err
		}
		dynVals = append(dynVals, v)
	}

	// total element count: product of all dimension sizes
	var total targetir.ValueID
	if mi.Rank() == 0 {
		total = fl.b.Const(idxTy, 1)
	}
	dynIdx := 0
	for i, d := range mi.Dims {
		var size targetir.ValueID
		if d == srcir.DynamicDim {
			size = dynVals[dynIdx]
			dynIdx++
		} else {
			size = fl.b.Const(idxTy, d)
		}
		if i == 0 {
			total = size
		} else {
			total = fl.b.Bin(targetir.BinMul, total, size)
		}
	}

	ptr := fl.b.Alloca(elemTy, total)
	desc := fl.b.Undef(descTy)
	desc = fl.b.InsertValue(desc, ptr, 0)
	for i, v := range dynVals {
		desc = fl.b.InsertValue(desc, v, 1+i)
	}
	fl.record(op.Results[0], desc)
	return nil
}

// lowerDimCast re-materializes a descriptor under the new field layout. The
// buffer pointer carries over; a newly-dynamic dimension's size, implicit
// before the cast, is materialized as a constant here. Re-materialization
// is per-site: repeated casts are not hoisted or merged.
func (fl *funcLowerer) lowerDimCast(op *srcir.Op, loc srcir.Loc) error {
	srcMi, err := fl.memrefOf(op.DimCast.Src, loc)
	if err != nil {
		return err
	}
	dstMi, ok := fl.types.MemrefInfo(op.DimCast.To)
	if !ok {
		return opErr(loc, "dimcast to non-memref type")
	}
	if srcMi.Rank() != dstMi.Rank() || srcMi.Elem != dstMi.Elem {
		return opErr(loc, "dimcast changes rank or element type")
	}
	dstTy, cerr := fl.conv.Convert(op.DimCast.To)
	if cerr != nil {
		return stamp(cerr, loc)
	}
	oldDesc, merr := fl.mapOne(op.DimCast.Src, loc)
	if merr != nil {
		return merr
	}

	idxTy := fl.conv.IndexType()
	desc := fl.b.Undef(dstTy)
	desc = fl.b.InsertValue(desc, fl.b.ExtractValue(oldDesc, 0), 0)
	dynIdx := 0
	for i, d := range dstMi.Dims {
		if d != srcir.DynamicDim {
			continue
		}
		var size targetir.ValueID
		if srcMi.Dims[i] == srcir.DynamicDim {
			size = fl.b.ExtractValue(oldDesc, descField(srcMi, i))
		} else {
			size = fl.b.Const(idxTy, srcMi.Dims[i])
		}
		desc = fl.b.InsertValue(desc, size, 1+dynIdx)
		dynIdx++
	}
	fl.record(op.Results[0], desc)
	return nil
}

// dimSize materializes the size of dimension i: a constant for static
// dimensions, a descriptor field extraction for dynamic ones. Sizes are
// re-materialized at every use site; eliminating the redundancy is left to
// a later pass.
func (fl *funcLowerer) dimSize(mi srcir.MemrefInfo, desc targetir.ValueID, i int) targetir.ValueID {
	if mi.Dims[i] == srcir.DynamicDim {
		return fl.b.ExtractValue(desc, descField(mi, i))
	}
	return fl.b.Const(fl.conv.IndexType(), mi.Dims[i])
}

// linearize computes the row-major element offset: acc starts at the first
// subscript and folds acc = acc*d_i + s_i over the remaining dimensions,
// the lexically-first subscript varying slowest.
func (fl *funcLowerer) linearize(mi srcir.MemrefInfo, desc targetir.ValueID, subs []targetir.ValueID) targetir.ValueID {
	if mi.Rank() == 0 {
		return fl.b.Const(fl.conv.IndexType(), 0)
	}
	acc := subs[0]
	for i := 1; i < mi.Rank(); i++ {
		acc = fl.b.Bin(targetir.BinMul, acc, fl.dimSize(mi, desc, i))
		acc = fl.b.Bin(targetir.BinAdd, acc, subs[i])
	}
	return acc
}

// elemAddr lowers the subscript list to the element address: linearized
// offset applied to the descriptor's buffer pointer.
func (fl *funcLowerer) elemAddr(mi srcir.MemrefInfo, desc targetir.ValueID, srcSubs []srcir.ValueID, loc srcir.Loc) (targetir.ValueID, error) {
	subs := make([]targetir.ValueID, 0, len(srcSubs))
	for _, s := range srcSubs {
		v, err := fl.mapOne(s, loc)
		if err != nil {
			return targetir.NoValueID, err
		}
		subs = append(subs, v)
	}
	elemTy, cerr := fl.conv.Convert(mi.Elem)
	if cerr != nil {
		return targetir.NoValueID, stamp(cerr, loc)
	}
	off := fl.linearize(mi, desc, subs)
	ptr := fl.b.ExtractValue(desc, 0)
	return fl.b.GEP(elemTy, ptr, off), nil
}

func (fl *funcLowerer) lowerLoad(op *srcir.Op, loc srcir.Loc) error {
	mi, err := fl.memrefOf(op.Load.Memref, loc)
	if err != nil {
		return err
	}
	desc, err := fl.mapOne(op.Load.Memref, loc)
	if err != nil {
		return err
	}
	addr, err := fl.elemAddr(mi, desc, op.Load.Subscripts, loc)
	if err != nil {
		return err
	}
	fl.record(op.Results[0], fl.b.Load(addr))
	return nil
}

func (fl *funcLowerer) lowerStore(op *srcir.Op, loc srcir.Loc) error {
	mi, err := fl.memrefOf(op.Store.Memref, loc)
	if err != nil {
		return err
	}
	desc, err := fl.mapOne(op.Store.Memref, loc)
	if err != nil {
		return err
	}
	val, err := fl.mapOne(op.Store.Value, loc)
	if err != nil {
		return err
	}
	addr, err := fl.elemAddr(mi, desc, op.Store.Subscripts, loc)
	if err != nil {
		return err
	}
	fl.b.Store(val, addr)
	return nil
}
