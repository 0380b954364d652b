package lower

import (
	"fmt"

	"lowir/internal/datalayout"
	"lowir/internal/srcir"
	"lowir/internal/targetir"
)

// Converter memoizes the source→target type mapping. It is total except for
// the declared failures: bf16, vector-of-vector, and memrefs with a
// non-identity layout or non-default memory space.
type Converter struct {
	src    *srcir.Interner
	tgt    *targetir.Interner
	layout datalayout.Layout
	memo   map[srcir.TypeID]targetir.TypeID
}

// NewConverter builds a converter over the given interners and layout.
func NewConverter(src *srcir.Interner, tgt *targetir.Interner, layout datalayout.Layout) *Converter {
	return &Converter{
		src:    src,
		tgt:    tgt,
		layout: layout,
		memo:   make(map[srcir.TypeID]targetir.TypeID, 32),
	}
}

// Target returns the target interner the converter interns into.
func (c *Converter) Target() *targetir.Interner { return c.tgt }

// IndexType returns the integer type that realizes index on this target.
func (c *Converter) IndexType() targetir.TypeID {
	return c.tgt.Integer(c.layout.PointerBits)
}

// Convert maps one source type to its target type in value position.
// Function types convert to pointer-to-function-pointer here, since the
// target cannot pass an unindirected function as a value. Repeated calls
// for the same source type return the identical target TypeID.
func (c *Converter) Convert(id srcir.TypeID) (targetir.TypeID, *ConversionError) {
	if out, ok := c.memo[id]; ok {
		return out, nil
	}
	out, err := c.convert(id)
	if err != nil {
		return targetir.NoTypeID, err
	}
	c.memo[id] = out
	return out, nil
}

func (c *Converter) convert(id srcir.TypeID) (targetir.TypeID, *ConversionError) {
	t, ok := c.src.Lookup(id)
	if !ok {
		return targetir.NoTypeID, internalErr(srcir.Loc{}, "convert of invalid TypeID %d", id)
	}
	switch t.Kind {
	case srcir.KindInteger:
		return c.tgt.Integer(t.Width), nil
	case srcir.KindFloat:
		switch t.Float {
		case srcir.FloatF16:
			return c.tgt.Float(targetir.FloatHalf), nil
		case srcir.FloatF32:
			return c.tgt.Float(targetir.FloatFloat), nil
		case srcir.FloatF64:
			return c.tgt.Float(targetir.FloatDouble), nil
		default:
			return targetir.NoTypeID, typeErr(srcir.Loc{}, c.src.String(id), "bf16 has no target representation")
		}
	case srcir.KindIndex:
		return c.IndexType(), nil
	case srcir.KindVector:
		if elem := c.src.MustLookup(t.Elem); elem.Kind == srcir.KindVector {
			return targetir.NoTypeID, typeErr(srcir.Loc{}, c.src.String(id), "target vectors are one-dimensional")
		}
		elem, err := c.Convert(t.Elem)
		if err != nil {
			return targetir.NoTypeID, err
		}
		return c.tgt.Vector(elem, t.Count), nil
	case srcir.KindMemref:
		return c.convertMemref(id)
	case srcir.KindFunction:
		fi, _ := c.src.FuncInfo(id)
		params, result, err := c.ConvertSignature(fi.Params, fi.Results)
		if err != nil {
			return targetir.NoTypeID, err
		}
		return c.tgt.Pointer(c.tgt.FuncPtr(params, result)), nil
	default:
		return targetir.NoTypeID, typeErr(srcir.Loc{}, c.src.String(id), "unknown kind")
	}
}

// convertMemref maps a memref to its descriptor struct: the buffer pointer
// followed by one index-width integer per dynamic dimension, in shape order.
func (c *Converter) convertMemref(id srcir.TypeID) (targetir.TypeID, *ConversionError) {
	mi, ok := c.src.MemrefInfo(id)
	if !ok {
		return targetir.NoTypeID, internalErr(srcir.Loc{}, "memref TypeID %d has no shape payload", id)
	}
	if mi.Layout != srcir.LayoutIdentity {
		return targetir.NoTypeID, typeErr(srcir.Loc{}, c.src.String(id), "non-identity layout")
	}
	if mi.Space != srcir.DefaultMemorySpace {
		return targetir.NoTypeID, typeErr(srcir.Loc{}, c.src.String(id), "non-default memory space")
	}
	elem, err := c.Convert(mi.Elem)
	if err != nil {
		return targetir.NoTypeID, err
	}
	fields := make([]targetir.TypeID, 0, 1+mi.DynamicCount())
	fields = append(fields, c.tgt.Pointer(elem))
	for i := 0; i < mi.DynamicCount(); i++ {
		fields = append(fields, c.IndexType())
	}
	return c.tgt.Struct(fields), nil
}

// ConvertSignature rewrites a function signature: argument arity is kept,
// each argument converts 1:1, and the result list collapses to exactly one
// type: void for zero results, the converted type for one, a struct of all
// converted results in declaration order otherwise.
func (c *Converter) ConvertSignature(params, results []srcir.TypeID) ([]targetir.TypeID, targetir.TypeID, *ConversionError) {
	outParams := make([]targetir.TypeID, 0, len(params))
	for i, p := range params {
		tp, err := c.Convert(p)
		if err != nil {
			return nil, targetir.NoTypeID, positioned(err, fmt.Sprintf("argument %d", i))
		}
		outParams = append(outParams, tp)
	}
	switch len(results) {
	case 0:
		return outParams, c.tgt.Void(), nil
	case 1:
		r, err := c.Convert(results[0])
		if err != nil {
			return nil, targetir.NoTypeID, positioned(err, "result 0")
		}
		return outParams, r, nil
	default:
		fields := make([]targetir.TypeID, 0, len(results))
		for i, r := range results {
			tr, err := c.Convert(r)
			if err != nil {
				return nil, targetir.NoTypeID, positioned(err, fmt.Sprintf("result %d", i))
			}
			fields = append(fields, tr)
		}
		return outParams, c.tgt.Struct(fields), nil
	}
}

// positioned prefixes the error detail with the offending signature slot.
func positioned(err *ConversionError, pos string) *ConversionError {
	out := *err
	if out.Detail == "" {
		out.Detail = pos
	} else {
		out.Detail = pos + ": " + out.Detail
	}
	return &out
}
