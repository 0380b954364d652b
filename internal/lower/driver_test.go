package lower

import (
	"errors"
	"strings"
	"testing"

	"lowir/internal/datalayout"
	"lowir/internal/srcir"
	"lowir/internal/targetir"
)

func dump(t *testing.T, m *srcir.Module, types *srcir.Interner) string {
	t.Helper()
	var sb strings.Builder
	if err := srcir.DumpModule(&sb, m, types); err != nil {
		t.Fatalf("dump: %v", err)
	}
	return sb.String()
}

func TestConvertModuleEndToEnd(t *testing.T) {
	src := srcir.NewInterner()
	f32 := src.Float(srcir.FloatF32)
	mref := src.Memref(f32, []int64{10, srcir.DynamicDim}, srcir.LayoutIdentity, 0)

	b := srcir.NewFunc(src, "get", []srcir.TypeID{mref, src.Index(), src.Index()}, []srcir.TypeID{f32})
	v := b.Load(b.Param(0), b.Param(1), b.Param(2))
	b.Return(v)
	m := &srcir.Module{Funcs: []*srcir.Func{b.Finish()}}
	if err := srcir.Validate(m, src); err != nil {
		t.Fatalf("validate: %v", err)
	}

	conv, err := ConvertModule(m, src, datalayout.Default())
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	var sb strings.Builder
	if err := targetir.RenderModule(&sb, conv.Module, conv.Types); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := sb.String()
	for _, want := range []string{
		"define float @get({ float*, i64 } %t0, i64 %t1, i64 %t2)",
		"extractvalue { float*, i64 } %t0, 1",
		"getelementptr float, float*",
		"load float, float*",
		"ret float",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestBF16AbortsWholeModule(t *testing.T) {
	src := srcir.NewInterner()
	f32 := src.Float(srcir.FloatF32)
	bf := src.Float(srcir.FloatBF16)

	good := srcir.NewFunc(src, "fine", nil, []srcir.TypeID{f32})
	good.Return(good.ConstFloat(f32, 1))

	bad := srcir.NewFunc(src, "tainted", nil, []srcir.TypeID{bf})
	bad.Return(bad.ConstFloat(bf, 1))

	m := &srcir.Module{Funcs: []*srcir.Func{good.Finish(), bad.Finish()}}
	before := dump(t, m, src)

	conv, err := ConvertModule(m, src, datalayout.Default())
	if conv != nil {
		t.Fatalf("failed conversion must produce no partial module")
	}
	var cerr *ConversionError
	if !errors.As(err, &cerr) || cerr.Code != CodeUnsupportedType {
		t.Fatalf("expected UnsupportedType, got %v", err)
	}
	if !strings.Contains(cerr.Error(), "bf16") {
		t.Fatalf("error should name the offending type: %v", cerr)
	}
	if cerr.Loc.Func != "tainted" {
		t.Fatalf("error should locate the offending function, got %v", cerr.Loc)
	}
	if after := dump(t, m, src); after != before {
		t.Fatalf("input module was modified by a failed conversion")
	}
}

func TestUnknownOpFailsAsUnsupportedOperation(t *testing.T) {
	src := srcir.NewInterner()
	b := srcir.NewFunc(src, "odd", nil, nil)
	b.Return()
	f := b.Finish()
	f.Blocks[0].Ops = append([]srcir.Op{{Kind: srcir.OpKind(99)}}, f.Blocks[0].Ops...)

	_, err := ConvertModule(&srcir.Module{Funcs: []*srcir.Func{f}}, src, datalayout.Default())
	var cerr *ConversionError
	if !errors.As(err, &cerr) || cerr.Code != CodeUnsupportedOperation {
		t.Fatalf("expected UnsupportedOperation, got %v", err)
	}
	if cerr.Loc.Func != "odd" || cerr.Loc.Op != 0 {
		t.Fatalf("error should carry the op location, got %v", cerr.Loc)
	}
}

func TestMissingRemapIsInternal(t *testing.T) {
	src := srcir.NewInterner()
	f32 := src.Float(srcir.FloatF32)
	b := srcir.NewFunc(src, "ghosted", nil, []srcir.TypeID{f32})
	b.Return(b.ConstFloat(f32, 0))
	f := b.Finish()
	// point the return at a value no op defines
	f.Values = append(f.Values, srcir.Value{Type: f32, Name: "ghost"})
	f.Blocks[0].Ops[1].Return.Operands[0] = srcir.ValueID(len(f.Values) - 1)

	_, err := ConvertModule(&srcir.Module{Funcs: []*srcir.Func{f}}, src, datalayout.Default())
	var cerr *ConversionError
	if !errors.As(err, &cerr) || cerr.Code != CodeInternal {
		t.Fatalf("expected InternalInvariantViolation, got %v", err)
	}
}

func TestInvalidLayoutRejected(t *testing.T) {
	src := srcir.NewInterner()
	_, err := ConvertModule(&srcir.Module{}, src, datalayout.Layout{PointerBits: 48})
	if err == nil {
		t.Fatalf("48-bit layout should be rejected")
	}
}
