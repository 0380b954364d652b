package lower

import (
	"testing"

	"lowir/internal/datalayout"
	"lowir/internal/srcir"
	"lowir/internal/targetir"
)

func newConverter() (*srcir.Interner, *Converter) {
	src := srcir.NewInterner()
	return src, NewConverter(src, targetir.NewInterner(), datalayout.Default())
}

func mustConvert(t *testing.T, c *Converter, id srcir.TypeID) targetir.TypeID {
	t.Helper()
	out, err := c.Convert(id)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	return out
}

func TestConvertScalars(t *testing.T) {
	src, c := newConverter()
	cases := []struct {
		id   srcir.TypeID
		want string
	}{
		{src.Integer(1), "i1"},
		{src.Integer(32), "i32"},
		{src.Float(srcir.FloatF16), "half"},
		{src.Float(srcir.FloatF32), "float"},
		{src.Float(srcir.FloatF64), "double"},
		{src.Index(), "i64"},
		{src.Vector(src.Float(srcir.FloatF32), 4), "<4 x float>"},
	}
	for _, tc := range cases {
		got := c.Target().String(mustConvert(t, c, tc.id))
		if got != tc.want {
			t.Fatalf("convert(%s) = %s, want %s", src.String(tc.id), got, tc.want)
		}
	}
}

func TestIndexWidthFollowsLayout(t *testing.T) {
	src := srcir.NewInterner()
	c := NewConverter(src, targetir.NewInterner(), datalayout.Layout{PointerBits: 32})
	got := c.Target().String(mustConvert(t, c, src.Index()))
	if got != "i32" {
		t.Fatalf("index on 32-bit layout = %s, want i32", got)
	}
}

func TestConvertIsMemoizedToIdenticalIDs(t *testing.T) {
	src, c := newConverter()
	ids := []srcir.TypeID{
		src.Integer(32),
		src.Float(srcir.FloatF64),
		src.Index(),
		src.Memref(src.Float(srcir.FloatF32), []int64{10, srcir.DynamicDim}, srcir.LayoutIdentity, 0),
		src.Function([]srcir.TypeID{src.Integer(32)}, []srcir.TypeID{src.Integer(64), src.Float(srcir.FloatF64)}),
	}
	for _, id := range ids {
		a := mustConvert(t, c, id)
		b := mustConvert(t, c, id)
		if a != b {
			t.Fatalf("convert(%s) not identity-stable: %d vs %d", src.String(id), a, b)
		}
	}
}

func TestConvertRejectsBF16(t *testing.T) {
	src, c := newConverter()
	_, err := c.Convert(src.Float(srcir.FloatBF16))
	if err == nil || err.Code != CodeUnsupportedType {
		t.Fatalf("bf16 should fail with UnsupportedType, got %v", err)
	}
}

func TestConvertRejectsVectorOfVector(t *testing.T) {
	src, c := newConverter()
	inner := src.Vector(src.Float(srcir.FloatF32), 4)
	_, err := c.Convert(src.Vector(inner, 2))
	if err == nil || err.Code != CodeUnsupportedType {
		t.Fatalf("vector-of-vector should fail with UnsupportedType, got %v", err)
	}
}

func TestConvertRejectsExoticMemrefs(t *testing.T) {
	src, c := newConverter()
	f32 := src.Float(srcir.FloatF32)
	strided := src.Memref(f32, []int64{4}, srcir.LayoutStrided, 0)
	if _, err := c.Convert(strided); err == nil || err.Code != CodeUnsupportedType {
		t.Fatalf("non-identity layout should fail with UnsupportedType, got %v", err)
	}
	spaced := src.Memref(f32, []int64{4}, srcir.LayoutIdentity, 3)
	if _, err := c.Convert(spaced); err == nil || err.Code != CodeUnsupportedType {
		t.Fatalf("non-default memory space should fail with UnsupportedType, got %v", err)
	}
}

func TestMemrefDescriptorSpelling(t *testing.T) {
	src, c := newConverter()
	f32 := src.Float(srcir.FloatF32)
	mref := src.Memref(f32, []int64{10, srcir.DynamicDim, 13, srcir.DynamicDim}, srcir.LayoutIdentity, 0)
	got := c.Target().String(mustConvert(t, c, mref))
	if got != "{ float*, i64, i64 }" {
		t.Fatalf("memref<10x?x13x?xf32> converts to %s, want { float*, i64, i64 }", got)
	}
}

func TestDescriptorFieldCountOverShapes(t *testing.T) {
	src, c := newConverter()
	f64 := src.Float(srcir.FloatF64)
	for rank := 0; rank <= 5; rank++ {
		for mask := 0; mask < 1<<rank; mask++ {
			dims := make([]int64, rank)
			dyn := 0
			for i := range dims {
				if mask&(1<<i) != 0 {
					dims[i] = srcir.DynamicDim
					dyn++
				} else {
					dims[i] = int64(i + 2)
				}
			}
			id := mustConvert(t, c, src.Memref(f64, dims, srcir.LayoutIdentity, 0))
			si, ok := c.Target().StructInfo(id)
			if !ok {
				t.Fatalf("rank %d mask %b: descriptor is not a struct", rank, mask)
			}
			if len(si.Fields) != 1+dyn {
				t.Fatalf("rank %d mask %b: %d fields, want %d", rank, mask, len(si.Fields), 1+dyn)
			}
		}
	}
}

func TestSignatureCollapse(t *testing.T) {
	src, c := newConverter()
	i32 := src.Integer(32)
	f32 := src.Float(srcir.FloatF32)
	i64 := src.Integer(64)
	f64 := src.Float(srcir.FloatF64)

	params, result, err := c.ConvertSignature([]srcir.TypeID{i32, f32}, []srcir.TypeID{i64, f64})
	if err != nil {
		t.Fatalf("signature: %v", err)
	}
	if len(params) != 2 {
		t.Fatalf("argument arity changed: %d", len(params))
	}
	ts := c.Target()
	if ts.String(params[0]) != "i32" || ts.String(params[1]) != "float" {
		t.Fatalf("params convert wrong: %s, %s", ts.String(params[0]), ts.String(params[1]))
	}
	if ts.String(result) != "{ i64, double }" {
		t.Fatalf("two results should pack to { i64, double }, got %s", ts.String(result))
	}

	_, void, err := c.ConvertSignature(nil, nil)
	if err != nil {
		t.Fatalf("empty signature: %v", err)
	}
	if void != ts.Void() {
		t.Fatalf("zero results should collapse to void")
	}

	_, one, err := c.ConvertSignature(nil, []srcir.TypeID{f64})
	if err != nil {
		t.Fatalf("single result: %v", err)
	}
	if ts.String(one) != "double" {
		t.Fatalf("single result should stay unpacked, got %s", ts.String(one))
	}
}

func TestSignatureErrorNamesPosition(t *testing.T) {
	src, c := newConverter()
	bf := src.Float(srcir.FloatBF16)
	_, _, err := c.ConvertSignature([]srcir.TypeID{src.Integer(32), bf}, nil)
	if err == nil || err.Code != CodeUnsupportedType {
		t.Fatalf("expected UnsupportedType, got %v", err)
	}
	if err.Detail == "" || err.Detail[:10] != "argument 1" {
		t.Fatalf("error should name the offending slot, got %q", err.Detail)
	}
}

func TestFunctionAsValueConvertsToPointer(t *testing.T) {
	src, c := newConverter()
	fn := src.Function([]srcir.TypeID{src.Integer(32)}, []srcir.TypeID{src.Integer(64)})
	got := c.Target().String(mustConvert(t, c, fn))
	if got != "i64 (i32)*" {
		t.Fatalf("function-as-value converts to %s, want i64 (i32)*", got)
	}
}
