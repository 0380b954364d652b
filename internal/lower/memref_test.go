package lower

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"lowir/internal/datalayout"
	"lowir/internal/srcir"
	"lowir/internal/targetir"
)

// buildLoadModule allocates a memref of the given shape (dynamic sizes as
// constants), loads at the given subscripts, and returns the element.
func buildLoadModule(src *srcir.Interner, dims []int64, dynSizes, subs []int64) *srcir.Module {
	f32 := src.Float(srcir.FloatF32)
	mref := src.Memref(f32, dims, srcir.LayoutIdentity, 0)
	b := srcir.NewFunc(src, "probe", nil, []srcir.TypeID{f32})
	dyn := make([]srcir.ValueID, 0, len(dynSizes))
	for _, s := range dynSizes {
		dyn = append(dyn, b.ConstIndex(s))
	}
	mem := b.Alloc(mref, dyn...)
	ss := make([]srcir.ValueID, 0, len(subs))
	for _, s := range subs {
		ss = append(ss, b.ConstIndex(s))
	}
	v := b.Load(mem, ss...)
	b.Return(v)
	return &srcir.Module{Funcs: []*srcir.Func{b.Finish()}}
}

func lastGEPOffset(t *testing.T, conv *Converted, name string) int64 {
	t.Helper()
	f := conv.Module.FindFunc(name)
	if f == nil {
		t.Fatalf("function %s missing", name)
	}
	mach := newMachine(t, conv.Types, f)
	mach.run()
	if len(mach.gepOffsets) == 0 {
		t.Fatalf("no address computation emitted")
	}
	return mach.gepOffsets[len(mach.gepOffsets)-1]
}

// Scenario: load at [1,2,3,4] on memref<10x?x13x?xf32> with runtime sizes
// 20 and 7 linearizes to ((1*20+2)*13+3)*7+4 = 2027.
func TestLinearizeStaticScenario(t *testing.T) {
	src := srcir.NewInterner()
	m := buildLoadModule(src,
		[]int64{10, srcir.DynamicDim, 13, srcir.DynamicDim},
		[]int64{20, 7},
		[]int64{1, 2, 3, 4})
	require.NoError(t, srcir.Validate(m, src))

	conv, err := ConvertModule(m, src, datalayout.Default())
	require.NoError(t, err)
	require.EqualValues(t, 2027, lastGEPOffset(t, conv, "probe"))
}

func TestRankZeroMemref(t *testing.T) {
	src := srcir.NewInterner()
	m := buildLoadModule(src, nil, nil, nil)
	require.NoError(t, srcir.Validate(m, src))

	conv, err := ConvertModule(m, src, datalayout.Default())
	require.NoError(t, err)

	// descriptor is the bare buffer pointer wrapped in a 1-field struct
	f32 := src.Float(srcir.FloatF32)
	mref := src.Memref(f32, nil, srcir.LayoutIdentity, 0)
	c := NewConverter(src, targetir.NewInterner(), datalayout.Default())
	id, cerr := c.Convert(mref)
	require.Nil(t, cerr)
	si, ok := c.Target().StructInfo(id)
	require.True(t, ok)
	require.Len(t, si.Fields, 1)

	require.EqualValues(t, 0, lastGEPOffset(t, conv, "probe"))
}

// Randomized check of the left-fold against the naive sum-of-products
// reference, across ranks, static/dynamic mixes, and subscripts.
func TestLinearizeMatchesReference(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for iter := 0; iter < 300; iter++ {
		rank := 1 + rng.Intn(5)
		dims := make([]int64, rank)
		sizes := make([]int64, rank)
		subs := make([]int64, rank)
		var dynSizes []int64
		for i := range dims {
			sizes[i] = 1 + int64(rng.Intn(8))
			if rng.Intn(2) == 0 {
				dims[i] = srcir.DynamicDim
				dynSizes = append(dynSizes, sizes[i])
			} else {
				dims[i] = sizes[i]
			}
			subs[i] = int64(rng.Intn(int(sizes[i])))
		}

		want := int64(0)
		for i := range sizes {
			stride := int64(1)
			for j := i + 1; j < rank; j++ {
				stride *= sizes[j]
			}
			want += subs[i] * stride
		}

		src := srcir.NewInterner()
		m := buildLoadModule(src, dims, dynSizes, subs)
		require.NoError(t, srcir.Validate(m, src))
		conv, err := ConvertModule(m, src, datalayout.Default())
		require.NoError(t, err)
		require.EqualValues(t, want, lastGEPOffset(t, conv, "probe"),
			"dims=%v sizes=%v subs=%v", dims, sizes, subs)
	}
}

// A store followed by a load at the same subscripts round-trips through
// the lowered address arithmetic.
func TestStoreLoadRoundTrip(t *testing.T) {
	src := srcir.NewInterner()
	f32 := src.Float(srcir.FloatF32)
	mref := src.Memref(f32, []int64{3, srcir.DynamicDim}, srcir.LayoutIdentity, 0)

	b := srcir.NewFunc(src, "cell", nil, []srcir.TypeID{f32})
	n := b.ConstIndex(5)
	mem := b.Alloc(mref, n)
	i := b.ConstIndex(2)
	j := b.ConstIndex(4)
	val := b.ConstFloat(f32, 42.5)
	b.Store(val, mem, i, j)
	out := b.Load(mem, i, j)
	b.Return(out)
	m := &srcir.Module{Funcs: []*srcir.Func{b.Finish()}}
	require.NoError(t, srcir.Validate(m, src))

	conv, err := ConvertModule(m, src, datalayout.Default())
	require.NoError(t, err)
	mach := newMachine(t, conv.Types, conv.Module.FindFunc("cell"))
	require.Equal(t, 42.5, mach.run())
	// both accesses linearize to the same offset, computed independently
	require.Len(t, mach.gepOffsets, 2)
	require.Equal(t, mach.gepOffsets[0], mach.gepOffsets[1])
}

// A static→dynamic cast carries the buffer pointer and materializes the
// newly-dynamic size into the fresh descriptor.
func TestDimCastRematerializesDescriptor(t *testing.T) {
	src := srcir.NewInterner()
	f32 := src.Float(srcir.FloatF32)
	fixed := src.Memref(f32, []int64{4, 5}, srcir.LayoutIdentity, 0)
	relaxed := src.Memref(f32, []int64{4, srcir.DynamicDim}, srcir.LayoutIdentity, 0)

	b := srcir.NewFunc(src, "relax", nil, []srcir.TypeID{f32})
	mem := b.Alloc(fixed)
	cast := b.DimCast(mem, relaxed)
	i := b.ConstIndex(3)
	j := b.ConstIndex(2)
	v := b.Load(cast, i, j)
	b.Return(v)
	m := &srcir.Module{Funcs: []*srcir.Func{b.Finish()}}
	require.NoError(t, srcir.Validate(m, src))

	conv, err := ConvertModule(m, src, datalayout.Default())
	require.NoError(t, err)
	// offset uses the materialized size 5: 3*5+2
	require.EqualValues(t, 17, lastGEPOffset(t, conv, "relax"))
}

// Repeated loads re-materialize shape extractions independently; the count
// of address computations matches the count of accesses.
func TestNoCommonSubexpressionElimination(t *testing.T) {
	src := srcir.NewInterner()
	f32 := src.Float(srcir.FloatF32)
	mref := src.Memref(f32, []int64{srcir.DynamicDim, srcir.DynamicDim}, srcir.LayoutIdentity, 0)

	b := srcir.NewFunc(src, "twice", nil, []srcir.TypeID{f32})
	d0 := b.ConstIndex(6)
	d1 := b.ConstIndex(9)
	mem := b.Alloc(mref, d0, d1)
	i := b.ConstIndex(1)
	j := b.ConstIndex(2)
	a := b.Load(mem, i, j)
	bv := b.Load(mem, i, j)
	sum := b.Bin(srcir.BinAdd, a, bv)
	b.Return(sum)
	m := &srcir.Module{Funcs: []*srcir.Func{b.Finish()}}
	require.NoError(t, srcir.Validate(m, src))

	conv, err := ConvertModule(m, src, datalayout.Default())
	require.NoError(t, err)
	f := conv.Module.FindFunc("twice")
	extracts := 0
	for bi := range f.Blocks {
		for oi := range f.Blocks[bi].Ops {
			if f.Blocks[bi].Ops[oi].Kind == targetir.OpExtractValue {
				extracts++
			}
		}
	}
	// each load extracts the size of dim 1 and the buffer pointer on its own
	require.Equal(t, 4, extracts)
}
