package lower

import (
	"lowir/internal/datalayout"
	"lowir/internal/srcir"
	"lowir/internal/targetir"
)

// Converted is the output of a successful whole-module conversion.
type Converted struct {
	Module *targetir.Module
	Types  *targetir.Interner
}

type convState uint8

const (
	stateNotStarted convState = iota
	stateConvertingTypes
	stateConvertingSignatures
	stateConvertingBodies
	stateDone
	stateFailed
)

// ConvertModule lowers a whole source module. The walk is single-threaded
// and fail-fast: the first unconvertible type or operation aborts the run
// and the input module is left untouched. Functions are visited once each,
// signature first, then a single program-order body walk.
func ConvertModule(m *srcir.Module, types *srcir.Interner, layout datalayout.Layout) (*Converted, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	d := &driver{
		src:   m,
		types: types,
		conv:  NewConverter(types, targetir.NewInterner(), layout),
		out:   &targetir.Module{},
	}
	if err := d.run(); err != nil {
		d.state = stateFailed
		return nil, err
	}
	d.state = stateDone
	return &Converted{Module: d.out, Types: d.conv.Target()}, nil
}

type driver struct {
	src   *srcir.Module
	types *srcir.Interner
	conv  *Converter
	out   *targetir.Module
	state convState
}

func (d *driver) run() error {
	d.state = stateConvertingTypes
	if err := d.convertTypes(); err != nil {
		return err
	}
	d.state = stateConvertingSignatures
	builders, err := d.convertSignatures()
	if err != nil {
		return err
	}
	d.state = stateConvertingBodies
	for i, f := range d.src.Funcs {
		if f == nil {
			continue
		}
		fl := &funcLowerer{
			conv:  d.conv,
			types: d.types,
			srcF:  f,
			b:     builders[i],
			remap: make(map[srcir.ValueID][]targetir.ValueID, len(f.Values)),
		}
		if err := fl.lower(); err != nil {
			return err
		}
		d.out.Funcs = append(d.out.Funcs, fl.b.Finish())
	}
	return nil
}

// convertTypes walks every type the module mentions, populating the memo
// and surfacing unsupported types with the location of their first use,
// before any output is created.
func (d *driver) convertTypes() error {
	for _, f := range d.src.Funcs {
		if f == nil {
			continue
		}
		fi, ok := d.types.FuncInfo(f.Type)
		if !ok {
			return internalErr(srcir.Loc{Func: f.Name}, "function type is not a function")
		}
		if _, _, err := d.conv.ConvertSignature(fi.Params, fi.Results); err != nil {
			return stamp(err, srcir.Loc{Func: f.Name})
		}
		for bi := range f.Blocks {
			bb := &f.Blocks[bi]
			for oi := range bb.Ops {
				loc := srcir.Loc{Func: f.Name, Block: bb.ID, Op: oi}
				if err := d.convertOpTypes(f, &bb.Ops[oi], loc); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (d *driver) convertOpTypes(f *srcir.Func, op *srcir.Op, loc srcir.Loc) error {
	for _, r := range op.Results {
		if _, err := d.conv.Convert(f.ValueType(r)); err != nil {
			return stamp(err, loc)
		}
	}
	switch op.Kind {
	case srcir.OpAlloc:
		if _, err := d.conv.Convert(op.Alloc.Memref); err != nil {
			return stamp(err, loc)
		}
	case srcir.OpDimCast:
		if _, err := d.conv.Convert(op.DimCast.To); err != nil {
			return stamp(err, loc)
		}
	case srcir.OpCall:
		ci, ok := d.types.FuncInfo(op.Call.CalleeType)
		if !ok {
			return internalErr(loc, "call callee type is not a function")
		}
		if _, _, err := d.conv.ConvertSignature(ci.Params, ci.Results); err != nil {
			return stamp(err, loc)
		}
	}
	return nil
}

// convertSignatures creates one target shell per source function, indexed
// by source position.
func (d *driver) convertSignatures() (map[int]*targetir.FuncBuilder, error) {
	builders := make(map[int]*targetir.FuncBuilder, len(d.src.Funcs))
	for i, f := range d.src.Funcs {
		if f == nil {
			continue
		}
		fi, _ := d.types.FuncInfo(f.Type)
		params, result, err := d.conv.ConvertSignature(fi.Params, fi.Results)
		if err != nil {
			return nil, stamp(err, srcir.Loc{Func: f.Name})
		}
		builders[i] = targetir.NewFunc(d.conv.Target(), f.Name, params, result)
	}
	return builders, nil
}

// stamp attaches a location to a type-conversion error that was produced
// without one.
func stamp(err *ConversionError, loc srcir.Loc) *ConversionError {
	if err.Loc.Func == "" {
		out := *err
		out.Loc = loc
		return &out
	}
	return err
}

// funcLowerer rewrites one function body. The remap table records, for each
// original value, its replacement value(s); it lives only for this run.
type funcLowerer struct {
	conv  *Converter
	types *srcir.Interner
	srcF  *srcir.Func
	b     *targetir.FuncBuilder
	remap map[srcir.ValueID][]targetir.ValueID
}

func (fl *funcLowerer) lower() error {
	for i, p := range fl.srcF.Params {
		fl.remap[p] = []targetir.ValueID{fl.b.Param(i)}
	}
	for bi := range fl.srcF.Blocks {
		bb := &fl.srcF.Blocks[bi]
		if bi > 0 {
			fl.b.StartBlock()
		}
		for oi := range bb.Ops {
			loc := srcir.Loc{Func: fl.srcF.Name, Block: bb.ID, Op: oi}
			if err := fl.lowerOp(&bb.Ops[oi], loc); err != nil {
				return err
			}
		}
	}
	return nil
}

// lowerOp dispatches over the closed op set: memref ops get dedicated
// rules, calls and returns go through the calling-convention rewrite, and
// the rest is plain type substitution.
func (fl *funcLowerer) lowerOp(op *srcir.Op, loc srcir.Loc) error {
	switch op.Kind {
	case srcir.OpConst:
		return fl.lowerConst(op, loc)
	case srcir.OpBin:
		return fl.lowerBin(op, loc)
	case srcir.OpAlloc:
		return fl.lowerAlloc(op, loc)
	case srcir.OpDimCast:
		return fl.lowerDimCast(op, loc)
	case srcir.OpLoad:
		return fl.lowerLoad(op, loc)
	case srcir.OpStore:
		return fl.lowerStore(op, loc)
	case srcir.OpCall:
		return fl.lowerCall(op, loc)
	case srcir.OpReturn:
		return fl.lowerReturn(op, loc)
	default:
		return opErr(loc, "no lowering rule for op kind "+op.Kind.String())
	}
}

// mapOne resolves a source operand to its single replacement value.
func (fl *funcLowerer) mapOne(v srcir.ValueID, loc srcir.Loc) (targetir.ValueID, error) {
	vals, ok := fl.remap[v]
	if !ok {
		return targetir.NoValueID, internalErr(loc, "remap table has no entry for value %d", v)
	}
	if len(vals) != 1 {
		return targetir.NoValueID, internalErr(loc, "value %d maps to %d values, want 1", v, len(vals))
	}
	return vals[0], nil
}

func (fl *funcLowerer) record(src srcir.ValueID, tgt ...targetir.ValueID) {
	fl.remap[src] = tgt
}

func (fl *funcLowerer) lowerConst(op *srcir.Op, loc srcir.Loc) error {
	tt, err := fl.conv.Convert(op.Const.Type)
	if err != nil {
		return stamp(err, loc)
	}
	var res targetir.ValueID
	if op.Const.IsFloat {
		res = fl.b.ConstFloat(tt, op.Const.Float)
	} else {
		res = fl.b.Const(tt, op.Const.Int)
	}
	fl.record(op.Results[0], res)
	return nil
}

func (fl *funcLowerer) lowerBin(op *srcir.Op, loc srcir.Loc) error {
	lhs, err := fl.mapOne(op.Bin.LHS, loc)
	if err != nil {
		return err
	}
	rhs, err := fl.mapOne(op.Bin.RHS, loc)
	if err != nil {
		return err
	}
	var kind targetir.BinKind
	switch op.Bin.Op {
	case srcir.BinAdd:
		kind = targetir.BinAdd
	case srcir.BinSub:
		kind = targetir.BinSub
	case srcir.BinMul:
		kind = targetir.BinMul
	default:
		return opErr(loc, "no lowering rule for binary op "+op.Bin.Op.String())
	}
	fl.record(op.Results[0], fl.b.Bin(kind, lhs, rhs))
	return nil
}
