package srcir

import "fmt"

// Validate checks structural invariants of a module before conversion:
// def-before-use, operand arity and typing per op kind, and terminator
// placement. It reports the first violation with its location.
func Validate(m *Module, types *Interner) error {
	if m == nil {
		return nil
	}
	for _, f := range m.Funcs {
		if f == nil {
			continue
		}
		if err := validateFunc(f, types); err != nil {
			return err
		}
	}
	return nil
}

func validateFunc(f *Func, types *Interner) error {
	fi, ok := types.FuncInfo(f.Type)
	if !ok {
		return fmt.Errorf("fn %s: type is not a function type", f.Name)
	}
	if len(f.Params) != len(fi.Params) {
		return fmt.Errorf("fn %s: %d params, type declares %d", f.Name, len(f.Params), len(fi.Params))
	}
	defined := make([]bool, len(f.Values))
	for i, p := range f.Params {
		if p < 0 || int(p) >= len(f.Values) {
			return fmt.Errorf("fn %s: param %d out of range", f.Name, i)
		}
		if f.Values[p].Type != fi.Params[i] {
			return fmt.Errorf("fn %s: param %d type %s does not match signature %s",
				f.Name, i, types.String(f.Values[p].Type), types.String(fi.Params[i]))
		}
		defined[p] = true
	}

	for bi := range f.Blocks {
		bb := &f.Blocks[bi]
		for oi := range bb.Ops {
			op := &bb.Ops[oi]
			loc := Loc{Func: f.Name, Block: bb.ID, Op: oi}
			if err := validateOp(f, types, fi, op, loc, defined); err != nil {
				return err
			}
			if op.Kind == OpReturn && oi != len(bb.Ops)-1 {
				return fmt.Errorf("%s: return must terminate its block", loc)
			}
			for _, r := range op.Results {
				if r < 0 || int(r) >= len(f.Values) {
					return fmt.Errorf("%s: result value out of range", loc)
				}
				if defined[r] {
					return fmt.Errorf("%s: value %s defined twice", loc, f.Values[r].Name)
				}
				defined[r] = true
			}
		}
	}

	if len(f.Blocks) == 0 {
		return fmt.Errorf("fn %s: no blocks", f.Name)
	}
	last := f.Blocks[len(f.Blocks)-1]
	if len(last.Ops) == 0 || last.Ops[len(last.Ops)-1].Kind != OpReturn {
		return fmt.Errorf("fn %s: missing return", f.Name)
	}
	return nil
}

func validateOp(f *Func, types *Interner, fi FuncInfo, op *Op, loc Loc, defined []bool) error {
	use := func(v ValueID, what string) error {
		if v < 0 || int(v) >= len(f.Values) {
			return fmt.Errorf("%s: %s operand out of range", loc, what)
		}
		if !defined[v] {
			return fmt.Errorf("%s: %s operand used before definition", loc, what)
		}
		return nil
	}
	useIndex := func(v ValueID, what string) error {
		if err := use(v, what); err != nil {
			return err
		}
		if t := types.MustLookup(f.ValueType(v)); t.Kind != KindIndex {
			return fmt.Errorf("%s: %s operand must be index, got %s", loc, what, types.String(f.ValueType(v)))
		}
		return nil
	}

	switch op.Kind {
	case OpConst:
		t := types.MustLookup(op.Const.Type)
		switch t.Kind {
		case KindInteger, KindFloat, KindIndex:
		default:
			return fmt.Errorf("%s: const of non-scalar type %s", loc, types.String(op.Const.Type))
		}
	case OpAlloc:
		mi, ok := types.MemrefInfo(op.Alloc.Memref)
		if !ok {
			return fmt.Errorf("%s: alloc of non-memref type", loc)
		}
		if len(op.Alloc.DynSizes) != mi.DynamicCount() {
			return fmt.Errorf("%s: alloc needs %d dynamic sizes, got %d", loc, mi.DynamicCount(), len(op.Alloc.DynSizes))
		}
		for _, s := range op.Alloc.DynSizes {
			if err := useIndex(s, "alloc size"); err != nil {
				return err
			}
		}
	case OpDimCast:
		if err := use(op.DimCast.Src, "dimcast"); err != nil {
			return err
		}
		src, ok := types.MemrefInfo(f.ValueType(op.DimCast.Src))
		if !ok {
			return fmt.Errorf("%s: dimcast of non-memref value", loc)
		}
		dst, ok := types.MemrefInfo(op.DimCast.To)
		if !ok {
			return fmt.Errorf("%s: dimcast to non-memref type", loc)
		}
		if src.Elem != dst.Elem || src.Rank() != dst.Rank() {
			return fmt.Errorf("%s: dimcast changes element type or rank", loc)
		}
		for i := range src.Dims {
			if src.Dims[i] == DynamicDim && dst.Dims[i] != DynamicDim {
				return fmt.Errorf("%s: dimcast dimension %d refines dynamic to static", loc, i)
			}
			if src.Dims[i] != DynamicDim && dst.Dims[i] != DynamicDim && src.Dims[i] != dst.Dims[i] {
				return fmt.Errorf("%s: dimcast changes static dimension %d", loc, i)
			}
		}
	case OpLoad:
		if err := use(op.Load.Memref, "load"); err != nil {
			return err
		}
		mi, ok := types.MemrefInfo(f.ValueType(op.Load.Memref))
		if !ok {
			return fmt.Errorf("%s: load from non-memref value", loc)
		}
		if len(op.Load.Subscripts) != mi.Rank() {
			return fmt.Errorf("%s: load rank %d needs %d subscripts, got %d", loc, mi.Rank(), mi.Rank(), len(op.Load.Subscripts))
		}
		for _, s := range op.Load.Subscripts {
			if err := useIndex(s, "subscript"); err != nil {
				return err
			}
		}
	case OpStore:
		if err := use(op.Store.Value, "store value"); err != nil {
			return err
		}
		if err := use(op.Store.Memref, "store"); err != nil {
			return err
		}
		mi, ok := types.MemrefInfo(f.ValueType(op.Store.Memref))
		if !ok {
			return fmt.Errorf("%s: store to non-memref value", loc)
		}
		if len(op.Store.Subscripts) != mi.Rank() {
			return fmt.Errorf("%s: store rank %d needs %d subscripts, got %d", loc, mi.Rank(), mi.Rank(), len(op.Store.Subscripts))
		}
		if f.ValueType(op.Store.Value) != mi.Elem {
			return fmt.Errorf("%s: store value type mismatch", loc)
		}
		for _, s := range op.Store.Subscripts {
			if err := useIndex(s, "subscript"); err != nil {
				return err
			}
		}
	case OpBin:
		if err := use(op.Bin.LHS, "lhs"); err != nil {
			return err
		}
		if err := use(op.Bin.RHS, "rhs"); err != nil {
			return err
		}
		if f.ValueType(op.Bin.LHS) != f.ValueType(op.Bin.RHS) {
			return fmt.Errorf("%s: binary operand types differ", loc)
		}
	case OpCall:
		ci, ok := types.FuncInfo(op.Call.CalleeType)
		if !ok {
			return fmt.Errorf("%s: call with non-function callee type", loc)
		}
		if len(op.Call.Args) != len(ci.Params) {
			return fmt.Errorf("%s: call to @%s needs %d args, got %d", loc, op.Call.Callee, len(ci.Params), len(op.Call.Args))
		}
		for i, a := range op.Call.Args {
			if err := use(a, "call arg"); err != nil {
				return err
			}
			if f.ValueType(a) != ci.Params[i] {
				return fmt.Errorf("%s: call arg %d type mismatch", loc, i)
			}
		}
		if len(op.Results) != len(ci.Results) {
			return fmt.Errorf("%s: call produces %d results, callee type declares %d", loc, len(op.Results), len(ci.Results))
		}
	case OpReturn:
		if len(op.Return.Operands) != len(fi.Results) {
			return fmt.Errorf("%s: return arity %d, function declares %d results", loc, len(op.Return.Operands), len(fi.Results))
		}
		for i, v := range op.Return.Operands {
			if err := use(v, "return"); err != nil {
				return err
			}
			if f.ValueType(v) != fi.Results[i] {
				return fmt.Errorf("%s: return operand %d type mismatch", loc, i)
			}
		}
	default:
		return fmt.Errorf("%s: unknown op kind %d", loc, op.Kind)
	}
	return nil
}
