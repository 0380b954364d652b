package diag

import (
	"strings"
	"testing"

	"lowir/internal/lower"
	"lowir/internal/srcir"
)

func TestBagLimitAndSort(t *testing.T) {
	b := NewBag(2)
	d1 := Diagnostic{Severity: SevError, Code: "B", Loc: srcir.Loc{Func: "zeta"}}
	d2 := Diagnostic{Severity: SevError, Code: "A", Loc: srcir.Loc{Func: "alpha"}}
	if !b.Add(d1) || !b.Add(d2) {
		t.Fatalf("adds under the limit must succeed")
	}
	if b.Add(Diagnostic{}) {
		t.Fatalf("add over the limit must fail")
	}
	b.Sort()
	if b.Items()[0].Loc.Func != "alpha" {
		t.Fatalf("sort should order by function name")
	}
	if !b.HasErrors() {
		t.Fatalf("bag with errors should report them")
	}
}

func TestFromConversionError(t *testing.T) {
	cerr := &lower.ConversionError{
		Code:     lower.CodeUnsupportedType,
		Loc:      srcir.Loc{Func: "tainted", Block: 0, Op: 3},
		TypeName: "bf16",
	}
	d := FromError("mod.lim", cerr)
	if d.Severity != SevError || d.Code != "UnsupportedType" {
		t.Fatalf("unexpected mapping: %+v", d)
	}
	if d.Loc.Func != "tainted" || d.Loc.Op != 3 {
		t.Fatalf("location lost: %+v", d.Loc)
	}
}

func TestRendererPlainOutput(t *testing.T) {
	var sb strings.Builder
	b := NewBag(4)
	b.Add(FromError("mod.lim", &lower.ConversionError{
		Code:     lower.CodeUnsupportedType,
		Loc:      srcir.Loc{Func: "tainted"},
		TypeName: "bf16",
	}))
	NewRenderer(&sb, false).RenderAll(b)
	out := sb.String()
	for _, want := range []string{"mod.lim:", "ERROR [UnsupportedType]", "@tainted/bb0#0", "bf16"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}
