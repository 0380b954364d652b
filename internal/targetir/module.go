package targetir

import "fmt"

// Module is an ordered list of functions sharing one type interner.
type Module struct {
	Funcs []*Func
}

// Value is one SSA value inside a function.
type Value struct {
	Type TypeID
	Name string
}

// Block is a basic block.
type Block struct {
	ID  BlockID
	Ops []Op
}

// Func is one target function. Result is always a single type, void when
// the function yields nothing. Params index into Values.
type Func struct {
	Name   string
	Type   TypeID // KindFunction
	Params []ValueID
	Result TypeID
	Values []Value
	Blocks []Block
}

// ValueType returns the type of a value, or NoTypeID when out of range.
func (f *Func) ValueType(v ValueID) TypeID {
	if v < 0 || int(v) >= len(f.Values) {
		return NoTypeID
	}
	return f.Values[v].Type
}

// FindFunc returns the function with the given name, or nil.
func (m *Module) FindFunc(name string) *Func {
	for _, f := range m.Funcs {
		if f != nil && f.Name == name {
			return f
		}
	}
	return nil
}

// FuncBuilder appends instructions to a target function, allocating result
// values with sequential %tN names.
type FuncBuilder struct {
	types *Interner
	f     *Func
	cur   BlockID
}

// NewFunc starts a target function with converted parameter types and the
// single collapsed result type.
func NewFunc(types *Interner, name string, params []TypeID, result TypeID) *FuncBuilder {
	f := &Func{
		Name:   name,
		Type:   types.Function(params, result),
		Result: result,
	}
	for _, p := range params {
		id := ValueID(len(f.Values))
		f.Params = append(f.Params, id)
		f.Values = append(f.Values, Value{Type: p, Name: fmt.Sprintf("t%d", id)})
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

// Types returns the interner the builder interns into.
func (b *FuncBuilder) Types() *Interner { return b.types }

// ResultType returns the function's single collapsed result type.
func (b *FuncBuilder) ResultType() TypeID { return b.f.Result }

func (b *FuncBuilder) newValue(t TypeID) ValueID {
	id := ValueID(len(b.f.Values))
	b.f.Values = append(b.f.Values, Value{Type: t, Name: fmt.Sprintf("t%d", id)})
	return id
}

func (b *FuncBuilder) push(op Op) {
	blk := &b.f.Blocks[b.cur]
	blk.Ops = append(blk.Ops, op)
}

// Const emits an integer constant.
func (b *FuncBuilder) Const(t TypeID, v int64) ValueID {
	res := b.newValue(t)
	b.push(Op{Kind: OpConst, Results: []ValueID{res}, Const: ConstOp{Type: t, Int: v}})
	return res
}

// ConstFloat emits a floating-point constant.
func (b *FuncBuilder) ConstFloat(t TypeID, v float64) ValueID {
	res := b.newValue(t)
	b.push(Op{Kind: OpConst, Results: []ValueID{res}, Const: ConstOp{Type: t, IsFloat: true, Float: v}})
	return res
}

// Undef emits an undefined value of t.
func (b *FuncBuilder) Undef(t TypeID) ValueID {
	res := b.newValue(t)
	b.push(Op{Kind: OpUndef, Results: []ValueID{res}, Undef: UndefOp{Type: t}})
	return res
}

// InsertValue emits a field insertion, yielding the updated aggregate.
func (b *FuncBuilder) InsertValue(agg, val ValueID, index int) ValueID {
	res := b.newValue(b.f.ValueType(agg))
	b.push(Op{Kind: OpInsertValue, Results: []ValueID{res}, Insert: InsertValueOp{Agg: agg, Val: val, Index: index}})
	return res
}

// ExtractValue emits a field extraction.
func (b *FuncBuilder) ExtractValue(agg ValueID, index int) ValueID {
	si, ok := b.types.StructInfo(b.f.ValueType(agg))
	if !ok || index < 0 || index >= len(si.Fields) {
		panic("targetir: extractvalue from non-struct or bad index")
	}
	res := b.newValue(si.Fields[index])
	b.push(Op{Kind: OpExtractValue, Results: []ValueID{res}, Extract: ExtractValueOp{Agg: agg, Index: index}})
	return res
}

// GEP emits an element address computation.
func (b *FuncBuilder) GEP(elem TypeID, ptr, offset ValueID) ValueID {
	res := b.newValue(b.types.Pointer(elem))
	b.push(Op{Kind: OpGEP, Results: []ValueID{res}, GEP: GEPOp{Elem: elem, Ptr: ptr, Offset: offset}})
	return res
}

// Load emits a load through ptr.
func (b *FuncBuilder) Load(ptr ValueID) ValueID {
	pt := b.types.MustLookup(b.f.ValueType(ptr))
	if pt.Kind != KindPointer {
		panic("targetir: load through non-pointer")
	}
	res := b.newValue(pt.Elem)
	b.push(Op{Kind: OpLoad, Results: []ValueID{res}, Load: LoadOp{Ptr: ptr}})
	return res
}

// Store emits a store through ptr.
func (b *FuncBuilder) Store(val, ptr ValueID) {
	b.push(Op{Kind: OpStore, Store: StoreOp{Val: val, Ptr: ptr}})
}

// Bin emits binary arithmetic; the result takes the LHS type.
func (b *FuncBuilder) Bin(op BinKind, lhs, rhs ValueID) ValueID {
	res := b.newValue(b.f.ValueType(lhs))
	b.push(Op{Kind: OpBin, Results: []ValueID{res}, Bin: BinOp{Op: op, LHS: lhs, RHS: rhs}})
	return res
}

// Call emits a call. For void callees the returned ValueID is NoValueID.
func (b *FuncBuilder) Call(callee string, fnType TypeID, args ...ValueID) ValueID {
	fi, ok := b.types.FuncInfo(fnType)
	if !ok {
		panic("targetir: call with non-function type")
	}
	op := Op{Kind: OpCall, Call: CallOp{Callee: callee, Type: fnType, Args: args}}
	res := NoValueID
	if fi.Result != b.types.Void() {
		res = b.newValue(fi.Result)
		op.Results = []ValueID{res}
	}
	b.push(op)
	return res
}

// RetVoid emits a void return.
func (b *FuncBuilder) RetVoid() {
	b.push(Op{Kind: OpRet})
}

// Ret emits a value return.
func (b *FuncBuilder) Ret(v ValueID) {
	b.push(Op{Kind: OpRet, Ret: RetOp{HasValue: true, Value: v}})
}

// Alloca emits a buffer allocation of count elements and yields its pointer.
func (b *FuncBuilder) Alloca(elem TypeID, count ValueID) ValueID {
	res := b.newValue(b.types.Pointer(elem))
	b.push(Op{Kind: OpAlloca, Results: []ValueID{res}, Alloca: AllocaOp{Elem: elem, Count: count}})
	return res
}
