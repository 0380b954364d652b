package targetir

import (
	"strings"
	"testing"
)

func TestRenderFoldsConstantsAndUndef(t *testing.T) {
	in := NewInterner()
	i64 := in.Integer(64)
	f64 := in.Float(FloatDouble)
	agg := in.Struct([]TypeID{i64, f64})

	b := NewFunc(in, "pair", nil, agg)
	c := b.Const(i64, 7)
	fc := b.ConstFloat(f64, 1.5)
	u := b.Undef(agg)
	a1 := b.InsertValue(u, c, 0)
	a2 := b.InsertValue(a1, fc, 1)
	b.Ret(a2)

	var sb strings.Builder
	m := &Module{Funcs: []*Func{b.Finish()}}
	if err := RenderModule(&sb, m, in); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := sb.String()
	for _, want := range []string{
		"define { i64, double } @pair()",
		"insertvalue { i64, double } undef, i64 7, 0",
		"double 1.5, 1",
		"ret { i64, double }",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "const") {
		t.Fatalf("constants must fold into operands:\n%s", out)
	}
}

func TestRenderMemoryOps(t *testing.T) {
	in := NewInterner()
	f32 := in.Float(FloatFloat)
	i64 := in.Integer(64)

	b := NewFunc(in, "probe", []TypeID{in.Pointer(f32), i64}, f32)
	p := b.GEP(f32, b.Param(0), b.Param(1))
	v := b.Load(p)
	b.Store(v, p)
	b.Ret(v)

	var sb strings.Builder
	if err := RenderModule(&sb, &Module{Funcs: []*Func{b.Finish()}}, in); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := sb.String()
	for _, want := range []string{
		"define float @probe(float* %t0, i64 %t1)",
		"getelementptr float, float* %t0, i64 %t1",
		"load float, float*",
		"store float",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}
