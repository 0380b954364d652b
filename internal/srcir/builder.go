package srcir

import "fmt"

// FuncBuilder constructs a function one operation at a time, allocating
// result values as it goes. It exists for clients and tests; hand-built
// Func structures are equally valid input.
type FuncBuilder struct {
	types *Interner
	f     *Func
	cur   BlockID
}

// NewFunc starts a function with the given parameter and result types.
func NewFunc(types *Interner, name string, params, results []TypeID) *FuncBuilder {
	f := &Func{
		Name: name,
		Type: types.Function(params, results),
	}
	for i, p := range params {
		f.Params = append(f.Params, ValueID(len(f.Values)))
		f.Values = append(f.Values, Value{Type: p, Name: fmt.Sprintf("arg%d", i)})
	}
	f.Blocks = append(f.Blocks, Block{ID: 0})
	return &FuncBuilder{types: types, f: f, cur: 0}
}

// Param returns the value of the i-th parameter.
func (b *FuncBuilder) Param(i int) ValueID { return b.f.Params[i] }

// StartBlock opens a new block and makes it current.
func (b *FuncBuilder) StartBlock() BlockID {
	id := BlockID(len(b.f.Blocks))
	b.f.Blocks = append(b.f.Blocks, Block{ID: id})
	b.cur = id
	return id
}

// Finish returns the built function.
func (b *FuncBuilder) Finish() *Func { return b.f }

func (b *FuncBuilder) newValue(t TypeID) ValueID {
	id := ValueID(len(b.f.Values))
	b.f.Values = append(b.f.Values, Value{Type: t, Name: fmt.Sprintf("v%d", id)})
	return id
}

func (b *FuncBuilder) push(op Op) {
	blk := &b.f.Blocks[b.cur]
	blk.Ops = append(blk.Ops, op)
}

// ConstIndex emits an index-typed integer constant.
func (b *FuncBuilder) ConstIndex(v int64) ValueID {
	return b.Const(b.types.Index(), v)
}

// Const emits an integer constant of the given type.
func (b *FuncBuilder) Const(t TypeID, v int64) ValueID {
	res := b.newValue(t)
	b.push(Op{Kind: OpConst, Results: []ValueID{res}, Const: ConstOp{Type: t, Int: v}})
	return res
}

// ConstFloat emits a floating-point constant of the given type.
func (b *FuncBuilder) ConstFloat(t TypeID, v float64) ValueID {
	res := b.newValue(t)
	b.push(Op{Kind: OpConst, Results: []ValueID{res}, Const: ConstOp{Type: t, IsFloat: true, Float: v}})
	return res
}

// Alloc emits a memref allocation with the given dynamic sizes.
func (b *FuncBuilder) Alloc(memref TypeID, dynSizes ...ValueID) ValueID {
	res := b.newValue(memref)
	b.push(Op{Kind: OpAlloc, Results: []ValueID{res}, Alloc: AllocOp{Memref: memref, DynSizes: dynSizes}})
	return res
}

// DimCast emits a shape reclassification of a memref value.
func (b *FuncBuilder) DimCast(src ValueID, to TypeID) ValueID {
	res := b.newValue(to)
	b.push(Op{Kind: OpDimCast, Results: []ValueID{res}, DimCast: DimCastOp{Src: src, To: to}})
	return res
}

// Load emits an element load.
func (b *FuncBuilder) Load(memref ValueID, subscripts ...ValueID) ValueID {
	mi, ok := b.types.MemrefInfo(b.f.ValueType(memref))
	if !ok {
		panic("srcir: load from non-memref value")
	}
	res := b.newValue(mi.Elem)
	b.push(Op{Kind: OpLoad, Results: []ValueID{res}, Load: LoadOp{Memref: memref, Subscripts: subscripts}})
	return res
}

// Store emits an element store.
func (b *FuncBuilder) Store(value, memref ValueID, subscripts ...ValueID) {
	b.push(Op{Kind: OpStore, Store: StoreOp{Value: value, Memref: memref, Subscripts: subscripts}})
}

// Bin emits scalar binary arithmetic; the result takes the LHS type.
func (b *FuncBuilder) Bin(op BinKind, lhs, rhs ValueID) ValueID {
	res := b.newValue(b.f.ValueType(lhs))
	b.push(Op{Kind: OpBin, Results: []ValueID{res}, Bin: BinOp{Op: op, LHS: lhs, RHS: rhs}})
	return res
}

// Call emits a call; calleeType must be a function type and supplies the
// result value types.
func (b *FuncBuilder) Call(callee string, calleeType TypeID, args ...ValueID) []ValueID {
	fi, ok := b.types.FuncInfo(calleeType)
	if !ok {
		panic("srcir: call with non-function callee type")
	}
	results := make([]ValueID, 0, len(fi.Results))
	for _, rt := range fi.Results {
		results = append(results, b.newValue(rt))
	}
	b.push(Op{Kind: OpCall, Results: results, Call: CallOp{Callee: callee, CalleeType: calleeType, Args: args}})
	return results
}

// Return emits the function terminator.
func (b *FuncBuilder) Return(operands ...ValueID) {
	b.push(Op{Kind: OpReturn, Return: ReturnOp{Operands: operands}})
}
