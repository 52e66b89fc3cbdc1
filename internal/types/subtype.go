package types

// Subtype decides t <: u. DYNAMIC is both a universal subtype and a
// universal supertype; everything else follows the structural rules.
func Subtype(t, u Type) bool {
	return subtype(t, u, make(map[shapePair]bool))
}

// Equal is mutual subtyping.
func Equal(t, u Type) bool {
	assumed := make(map[shapePair]bool)
	return subtype(t, u, assumed) && subtype(u, t, assumed)
}

// shapePair records an in-flight shape comparison; assuming in-progress
// pairs succeed makes the check terminate on cyclic shapes.
type shapePair struct {
	a, b *Shape
}

func subtype(t, u Type, assumed map[shapePair]bool) bool {
	t = Resolve(t)
	u = Resolve(u)

	// An unbound placeholder behaves as DYNAMIC until its defining
	// function's first call-site freezes it.
	if p, ok := t.(*TPlaceholder); ok && p.Bound == nil {
		return true
	}
	if p, ok := u.(*TPlaceholder); ok && p.Bound == nil {
		return true
	}

	if IsDynamic(t) || IsDynamic(u) {
		return true
	}

	// Union on the left: every member must fit.
	if tu, ok := t.(TUnion); ok {
		for _, m := range tu.Types {
			if !subtype(m, u, assumed) {
				return false
			}
		}
		return true
	}
	// Union on the right: some member must contain t.
	if uu, ok := u.(TUnion); ok {
		for _, m := range uu.Types {
			if subtype(t, m, assumed) {
				return true
			}
		}
		return false
	}

	switch u := u.(type) {
	case TNil:
		_, ok := t.(TNil)
		return ok
	case TBool:
		switch t.(type) {
		case TBool, TBoolLit:
			return true
		}
		return false
	case TBoolLit:
		tb, ok := t.(TBoolLit)
		return ok && tb.Value == u.Value
	case TNumber:
		switch t.(type) {
		case TNumber, TInteger, TIntLit:
			return true
		}
		return false
	case TInteger:
		switch t.(type) {
		case TInteger, TIntLit:
			return true
		}
		return false
	case TIntLit:
		ti, ok := t.(TIntLit)
		return ok && ti.Value == u.Value
	case TString:
		switch t.(type) {
		case TString, TStrLit:
			return true
		}
		return false
	case TStrLit:
		ts, ok := t.(TStrLit)
		return ok && ts.Value == u.Value
	case TTableAny:
		switch t.(type) {
		case TTableAny, TTable:
			return true
		}
		return false
	case TFuncAny:
		switch t.(type) {
		case TFuncAny, TFunc:
			return true
		}
		return false
	case TTable:
		tt, ok := t.(TTable)
		if !ok {
			return false
		}
		return shapeSub(tt.Shape, u.Shape, assumed)
	case TFunc:
		tf, ok := t.(TFunc)
		if !ok {
			return false
		}
		return funcSub(tf, u, assumed)
	default:
		return false
	}
}

// funcSub: contravariant parameters, covariant returns; variadic tails
// compare by element type.
func funcSub(t, u TFunc, assumed map[shapePair]bool) bool {
	n := len(t.Params.Fixed)
	if len(u.Params.Fixed) > n {
		n = len(u.Params.Fixed)
	}
	for i := 0; i < n; i++ {
		if !subtype(u.Params.At(i), t.Params.At(i), assumed) {
			return false
		}
	}
	if u.Params.Tail != nil {
		if t.Params.Tail == nil {
			return false
		}
		if !subtype(u.Params.Tail, t.Params.Tail, assumed) {
			return false
		}
	}

	n = len(t.Returns.Fixed)
	if len(u.Returns.Fixed) > n {
		n = len(u.Returns.Fixed)
	}
	for i := 0; i < n; i++ {
		if !subtype(t.Returns.At(i), u.Returns.At(i), assumed) {
			return false
		}
	}
	if t.Returns.Tail != nil && u.Returns.Tail != nil {
		return subtype(t.Returns.Tail, u.Returns.Tail, assumed)
	}
	return true
}

// slotSub compares two slots for shape-to-shape subtyping. On the value
// side a Currently slot stands for what it currently holds and is checked
// covariantly against the requirement's declared type, whatever the
// requirement's variance. Otherwise a Const requirement slot is read-only
// and allows covariance, while a Var or Currently requirement slot is
// mutable and needs invariant declared types.
func slotSub(t, u *FieldSlot, assumed map[shapePair]bool) bool {
	// A Currently slot on the value side floats: it stands for what it
	// currently holds and adapts to the target covariantly.
	if t.Variance == Currently {
		return subtype(t.Current, u.Declared, assumed)
	}
	if u.Variance == Const {
		return subtype(t.Declared, u.Declared, assumed)
	}
	return subtype(t.Declared, u.Declared, assumed) && subtype(u.Declared, t.Declared, assumed)
}

func shapeSub(t, u *Shape, assumed map[shapePair]bool) bool {
	if t == u {
		return true
	}
	pair := shapePair{t, u}
	if assumed[pair] {
		return true
	}
	assumed[pair] = true
	defer delete(assumed, pair)

	switch u.Kind {
	case ShapeEmpty:
		// Every table fits the no-keys-known shape.
		return true

	case ShapeRecord, ShapeTuple:
		if t.Kind != ShapeRecord && t.Kind != ShapeTuple && t.Kind != ShapeEmpty {
			return false
		}
		for _, k := range u.Order {
			uslot := u.Fields[k]
			tslot, ok := t.Fields[k]
			if !ok {
				// A missing slot reads as nil; it fits only a slot
				// admitting nil.
				if uslot.Variance == Const && subtype(Nil, uslot.Declared, assumed) {
					continue
				}
				return false
			}
			if !slotSub(tslot, uslot, assumed) {
				return false
			}
		}
		return true

	case ShapeArray:
		switch t.Kind {
		case ShapeArray:
			return slotSub(t.Elem, u.Elem, assumed)
		case ShapeTuple:
			// A tuple fits an array when each positional slot fits the
			// element slot; mutable element slots need invariance.
			for _, k := range t.Order {
				if !slotSub(t.Fields[k], u.Elem, assumed) {
					return false
				}
			}
			return true
		case ShapeEmpty:
			return true
		}
		return false

	case ShapeMap:
		switch t.Kind {
		case ShapeMap:
			// Keys are contravariant: a map accepting broader keys can
			// stand in for one accepting narrower keys.
			if !subtype(u.Key, t.Key, assumed) {
				return false
			}
			return slotSub(t.Elem, u.Elem, assumed)
		case ShapeArray:
			if !subtype(u.Key, Integer, assumed) {
				return false
			}
			return slotSub(t.Elem, u.Elem, assumed)
		case ShapeRecord, ShapeTuple:
			for _, k := range t.Order {
				var kt Type
				if k.IsInt {
					kt = TIntLit{Value: k.Int}
				} else {
					kt = TStrLit{Value: k.Str}
				}
				if !subtype(kt, u.Key, assumed) {
					return false
				}
				if !slotSub(t.Fields[k], u.Elem, assumed) {
					return false
				}
			}
			return true
		case ShapeEmpty:
			return true
		}
		return false
	}
	return false
}
