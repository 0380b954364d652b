package lower

import (
	"fmt"
	"testing"

	"lowir/internal/targetir"
)

// machine is a tiny evaluator over lowered functions, enough to observe the
// values conversions produce: integer arithmetic, aggregate insert/extract,
// pointer offsets, and symbolic call results.
type machine struct {
	t     *testing.T
	types *targetir.Interner
	f     *targetir.Func
	vals  map[targetir.ValueID]any

	mem        map[ptrTok]any
	gepOffsets []int64
	nextAlloc  int
}

// ptrTok stands in for an address: an allocation identity plus an element
// offset.
type ptrTok struct {
	alloc  int
	offset int64
}

func newMachine(t *testing.T, types *targetir.Interner, f *targetir.Func) *machine {
	return &machine{
		t:     t,
		types: types,
		f:     f,
		vals:  make(map[targetir.ValueID]any),
		mem:   make(map[ptrTok]any),
	}
}

func (m *machine) setArg(i int, v any) {
	m.vals[m.f.Params[i]] = v
}

func (m *machine) get(v targetir.ValueID) any {
	val, ok := m.vals[v]
	if !ok {
		m.t.Fatalf("eval: value t%d read before definition", v)
	}
	return val
}

func (m *machine) getInt(v targetir.ValueID) int64 {
	i, ok := m.get(v).(int64)
	if !ok {
		m.t.Fatalf("eval: value t%d is not an integer", v)
	}
	return i
}

// run executes every block in order and returns the ret operand (nil for
// void returns).
func (m *machine) run() any {
	for bi := range m.f.Blocks {
		for oi := range m.f.Blocks[bi].Ops {
			op := &m.f.Blocks[bi].Ops[oi]
			if op.Kind == targetir.OpRet {
				if !op.Ret.HasValue {
					return nil
				}
				return m.get(op.Ret.Value)
			}
			m.step(op)
		}
	}
	m.t.Fatalf("eval: function fell off the end")
	return nil
}

func (m *machine) step(op *targetir.Op) {
	switch op.Kind {
	case targetir.OpConst:
		if op.Const.IsFloat {
			m.vals[op.Results[0]] = op.Const.Float
		} else {
			m.vals[op.Results[0]] = op.Const.Int
		}
	case targetir.OpUndef:
		si, ok := m.types.StructInfo(op.Undef.Type)
		if !ok {
			m.vals[op.Results[0]] = nil
			return
		}
		m.vals[op.Results[0]] = make([]any, len(si.Fields))
	case targetir.OpInsertValue:
		agg, ok := m.get(op.Insert.Agg).([]any)
		if !ok {
			m.t.Fatalf("eval: insertvalue into non-aggregate")
		}
		next := append([]any(nil), agg...)
		next[op.Insert.Index] = m.get(op.Insert.Val)
		m.vals[op.Results[0]] = next
	case targetir.OpExtractValue:
		agg, ok := m.get(op.Extract.Agg).([]any)
		if !ok {
			m.t.Fatalf("eval: extractvalue from non-aggregate")
		}
		m.vals[op.Results[0]] = agg[op.Extract.Index]
	case targetir.OpAlloca:
		m.nextAlloc++
		m.vals[op.Results[0]] = ptrTok{alloc: m.nextAlloc}
	case targetir.OpGEP:
		base, ok := m.get(op.GEP.Ptr).(ptrTok)
		if !ok {
			m.t.Fatalf("eval: getelementptr through non-pointer")
		}
		off := m.getInt(op.GEP.Offset)
		m.gepOffsets = append(m.gepOffsets, off)
		m.vals[op.Results[0]] = ptrTok{alloc: base.alloc, offset: base.offset + off}
	case targetir.OpLoad:
		ptr, ok := m.get(op.Load.Ptr).(ptrTok)
		if !ok {
			m.t.Fatalf("eval: load through non-pointer")
		}
		m.vals[op.Results[0]] = m.mem[ptr]
	case targetir.OpStore:
		ptr, ok := m.get(op.Store.Ptr).(ptrTok)
		if !ok {
			m.t.Fatalf("eval: store through non-pointer")
		}
		m.mem[ptr] = m.get(op.Store.Val)
	case targetir.OpBin:
		lhs := m.getInt(op.Bin.LHS)
		rhs := m.getInt(op.Bin.RHS)
		var out int64
		switch op.Bin.Op {
		case targetir.BinAdd:
			out = lhs + rhs
		case targetir.BinSub:
			out = lhs - rhs
		case targetir.BinMul:
			out = lhs * rhs
		}
		m.vals[op.Results[0]] = out
	case targetir.OpCall:
		// calls yield symbolic results so packing can be observed per slot
		if len(op.Results) == 0 {
			return
		}
		fi, _ := m.types.FuncInfo(op.Call.Type)
		if si, ok := m.types.StructInfo(fi.Result); ok {
			agg := make([]any, len(si.Fields))
			for i := range agg {
				agg[i] = callSym(op.Call.Callee, i)
			}
			m.vals[op.Results[0]] = agg
			return
		}
		m.vals[op.Results[0]] = callSym(op.Call.Callee, 0)
	default:
		m.t.Fatalf("eval: unsupported op kind %v", op.Kind)
	}
}

func callSym(callee string, i int) string {
	return fmt.Sprintf("%s#%d", callee, i)
}
