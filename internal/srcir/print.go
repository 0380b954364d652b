package srcir

import (
	"fmt"
	"io"
	"slices"
	"strings"
)

// DumpModule writes a human-readable representation of a source module.
// Output is deterministic: functions print in name order.
func DumpModule(w io.Writer, m *Module, types *Interner) error {
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
	fmt.Fprintf(w, "funcs=%d\n", len(funcs))
	for _, f := range funcs {
		if err := dumpFunc(w, f, types); err != nil {
			return err
		}
	}
	return nil
}

func dumpFunc(w io.Writer, f *Func, types *Interner) error {
	fmt.Fprintf(w, "\nfn %s %s:\n", f.Name, types.String(f.Type))
	for i := range f.Blocks {
		bb := &f.Blocks[i]
		fmt.Fprintf(w, "  bb%d:\n", bb.ID)
		for j := range bb.Ops {
			fmt.Fprintf(w, "    %s\n", formatOp(types, f, &bb.Ops[j]))
		}
	}
	return nil
}

func formatOp(types *Interner, f *Func, op *Op) string {
	var sb strings.Builder
	if len(op.Results) > 0 {
		for i, r := range op.Results {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(valName(f, r))
		}
		sb.WriteString(" = ")
	}
	switch op.Kind {
	case OpConst:
		if op.Const.IsFloat {
			fmt.Fprintf(&sb, "const %s %g", types.String(op.Const.Type), op.Const.Float)
		} else {
			fmt.Fprintf(&sb, "const %s %d", types.String(op.Const.Type), op.Const.Int)
		}
	case OpAlloc:
		fmt.Fprintf(&sb, "alloc %s", types.String(op.Alloc.Memref))
		if len(op.Alloc.DynSizes) > 0 {
			fmt.Fprintf(&sb, " [%s]", valList(f, op.Alloc.DynSizes))
		}
	case OpDimCast:
		fmt.Fprintf(&sb, "dimcast %s to %s", valName(f, op.DimCast.Src), types.String(op.DimCast.To))
	case OpLoad:
		fmt.Fprintf(&sb, "load %s[%s]", valName(f, op.Load.Memref), valList(f, op.Load.Subscripts))
	case OpStore:
		fmt.Fprintf(&sb, "store %s, %s[%s]", valName(f, op.Store.Value), valName(f, op.Store.Memref), valList(f, op.Store.Subscripts))
	case OpBin:
		fmt.Fprintf(&sb, "%s %s, %s", op.Bin.Op, valName(f, op.Bin.LHS), valName(f, op.Bin.RHS))
	case OpCall:
		fmt.Fprintf(&sb, "call @%s(%s) : %s", op.Call.Callee, valList(f, op.Call.Args), types.String(op.Call.CalleeType))
	case OpReturn:
		sb.WriteString("return")
		if len(op.Return.Operands) > 0 {
			sb.WriteString(" ")
			sb.WriteString(valList(f, op.Return.Operands))
		}
	default:
		fmt.Fprintf(&sb, "<unknown op %d>", op.Kind)
	}
	return sb.String()
}

func valName(f *Func, v ValueID) string {
	if v < 0 || int(v) >= len(f.Values) {
		return "<bad>"
	}
	name := f.Values[v].Name
	if name == "" {
		return fmt.Sprintf("v%d", v)
	}
	return "%" + name
}

func valList(f *Func, vs []ValueID) string {
	parts := make([]string, 0, len(vs))
	for _, v := range vs {
		parts = append(parts, valName(f, v))
	}
	return strings.Join(parts, ", ")
}
