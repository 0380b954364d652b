package lower

import (
	"lowir/internal/srcir"
	"lowir/internal/targetir"
)

// lowerCall rewrites a call site. A call producing N>1 results becomes one
// call yielding the packed aggregate plus N field extractions; the remap
// table records each extraction as the replacement for the corresponding
// original result, in declaration order.
func (fl *funcLowerer) lowerCall(op *srcir.Op, loc srcir.Loc) error {
	ci, ok := fl.types.FuncInfo(op.Call.CalleeType)
	if !ok {
		return internalErr(loc, "call callee type is not a function")
	}
	params, result, cerr := fl.conv.ConvertSignature(ci.Params, ci.Results)
	if cerr != nil {
		return stamp(cerr, loc)
	}
	fnType := fl.conv.Target().Function(params, result)

	args := make([]targetir.ValueID, 0, len(op.Call.Args))
	for _, a := range op.Call.Args {
		v, err := fl.mapOne(a, loc)
		if err != nil {
			return err
		}
		args = append(args, v)
	}
	callv := fl.b.Call(op.Call.Callee, fnType, args...)

	switch len(op.Results) {
	case 0:
		return nil
	case 1:
		fl.record(op.Results[0], callv)
		return nil
	default:
		for i, r := range op.Results {
			fl.record(r, fl.b.ExtractValue(callv, i))
		}
		return nil
	}
}

// lowerReturn rewrites the terminator. A return of N>1 values becomes
// sequential field insertions into an initially-undefined aggregate,
// followed by one return of that aggregate. Insertion order follows the
// original declaration order; it is the observable ABI of the packing.
func (fl *funcLowerer) lowerReturn(op *srcir.Op, loc srcir.Loc) error {
	switch len(op.Return.Operands) {
	case 0:
		fl.b.RetVoid()
		return nil
	case 1:
		v, err := fl.mapOne(op.Return.Operands[0], loc)
		if err != nil {
			return err
		}
		fl.b.Ret(v)
		return nil
	default:
		agg := fl.b.Undef(fl.b.ResultType())
		for i, r := range op.Return.Operands {
			v, err := fl.mapOne(r, loc)
			if err != nil {
				return err
			}
			agg = fl.b.InsertValue(agg, v, i)
		}
		fl.b.Ret(agg)
		return nil
	}
}
