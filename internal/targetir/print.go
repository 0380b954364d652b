package targetir

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
)

// RenderModule writes the module in the target's textual syntax, one
// function per `define`. Constants and undef values are folded into
// operand positions so the output is plain target IR.
func RenderModule(w io.Writer, m *Module, types *Interner) error {
	if w == nil || m == nil {
		return nil
	}
	funcs := make([]*Func, 0, len(m.Funcs))
	for _, f := range m.Funcs {
		if f != nil {
			funcs = append(funcs, f)
		}
	}
	slices.SortStableFunc(funcs, func(a, b *Func) int {
		return strings.Compare(a.Name, b.Name)
	})
	for i, f := range funcs {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if err := renderFunc(w, f, types); err != nil {
			return err
		}
	}
	return nil
}

type funcRenderer struct {
	types    *Interner
	f        *Func
	literals map[ValueID]string
}

func renderFunc(w io.Writer, f *Func, types *Interner) error {
	r := &funcRenderer{types: types, f: f, literals: make(map[ValueID]string)}
	r.collectLiterals()

	params := make([]string, 0, len(f.Params))
	for _, p := range f.Params {
		params = append(params, fmt.Sprintf("%s %%%s", types.String(f.ValueType(p)), f.Values[p].Name))
	}
	fmt.Fprintf(w, "define %s @%s(%s) {\n", types.String(f.Result), f.Name, strings.Join(params, ", "))
	for bi := range f.Blocks {
		bb := &f.Blocks[bi]
		if bi > 0 {
			fmt.Fprintf(w, "bb%d:\n", bb.ID)
		}
		for oi := range bb.Ops {
			op := &bb.Ops[oi]
			if op.Kind == OpConst || op.Kind == OpUndef {
				continue
			}
			fmt.Fprintf(w, "  %s\n", r.renderOp(op))
		}
	}
	fmt.Fprintln(w, "}")
	return nil
}

func (r *funcRenderer) collectLiterals() {
	for bi := range r.f.Blocks {
		for oi := range r.f.Blocks[bi].Ops {
			op := &r.f.Blocks[bi].Ops[oi]
			switch op.Kind {
			case OpConst:
				lit := strconv.FormatInt(op.Const.Int, 10)
				if op.Const.IsFloat {
					lit = formatFloatLiteral(op.Const.Float)
				}
				r.literals[op.Results[0]] = lit
			case OpUndef:
				r.literals[op.Results[0]] = "undef"
			}
		}
	}
}

func formatFloatLiteral(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// operand renders a value reference: a folded literal or %name.
func (r *funcRenderer) operand(v ValueID) string {
	if lit, ok := r.literals[v]; ok {
		return lit
	}
	if v < 0 || int(v) >= len(r.f.Values) {
		return "<bad>"
	}
	return "%" + r.f.Values[v].Name
}

func (r *funcRenderer) typed(v ValueID) string {
	return r.types.String(r.f.ValueType(v)) + " " + r.operand(v)
}

func (r *funcRenderer) result(op *Op) string {
	return "%" + r.f.Values[op.Results[0]].Name + " = "
}

func (r *funcRenderer) renderOp(op *Op) string {
	ts := r.types
	switch op.Kind {
	case OpInsertValue:
		return fmt.Sprintf("%sinsertvalue %s, %s, %d",
			r.result(op), r.typed(op.Insert.Agg), r.typed(op.Insert.Val), op.Insert.Index)
	case OpExtractValue:
		return fmt.Sprintf("%sextractvalue %s, %d",
			r.result(op), r.typed(op.Extract.Agg), op.Extract.Index)
	case OpGEP:
		return fmt.Sprintf("%sgetelementptr %s, %s, %s",
			r.result(op), ts.String(op.GEP.Elem), r.typed(op.GEP.Ptr), r.typed(op.GEP.Offset))
	case OpLoad:
		elem := r.f.ValueType(op.Results[0])
		return fmt.Sprintf("%sload %s, %s", r.result(op), ts.String(elem), r.typed(op.Load.Ptr))
	case OpStore:
		return fmt.Sprintf("store %s, %s", r.typed(op.Store.Val), r.typed(op.Store.Ptr))
	case OpBin:
		name := binName(ts, r.f.ValueType(op.Bin.LHS), op.Bin.Op)
		return fmt.Sprintf("%s%s %s %s, %s",
			r.result(op), name, ts.String(r.f.ValueType(op.Bin.LHS)), r.operand(op.Bin.LHS), r.operand(op.Bin.RHS))
	case OpCall:
		fi, _ := ts.FuncInfo(op.Call.Type)
		args := make([]string, 0, len(op.Call.Args))
		for _, a := range op.Call.Args {
			args = append(args, r.typed(a))
		}
		callee := fmt.Sprintf("call %s @%s(%s)", ts.String(fi.Result), op.Call.Callee, strings.Join(args, ", "))
		if len(op.Results) == 0 {
			return callee
		}
		return r.result(op) + callee
	case OpRet:
		if !op.Ret.HasValue {
			return "ret void"
		}
		return "ret " + r.typed(op.Ret.Value)
	case OpAlloca:
		return fmt.Sprintf("%salloca %s, %s", r.result(op), ts.String(op.Alloca.Elem), r.typed(op.Alloca.Count))
	default:
		return fmt.Sprintf("; unknown op %d", op.Kind)
	}
}

func binName(ts *Interner, t TypeID, k BinKind) string {
	isFloat := false
	if tt, ok := ts.Lookup(t); ok {
		isFloat = tt.Kind == KindFloat || (tt.Kind == KindVector && ts.MustLookup(tt.Elem).Kind == KindFloat)
	}
	switch k {
	case BinAdd:
		if isFloat {
			return "fadd"
		}
		return "add"
	case BinSub:
		if isFloat {
			return "fsub"
		}
		return "sub"
	case BinMul:
		if isFloat {
			return "fmul"
		}
		return "mul"
	default:
		return "bin?"
	}
}
