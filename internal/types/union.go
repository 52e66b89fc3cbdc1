package types

import "sort"

// NewUnion builds a canonical union from the given members: nested unions
// are flattened, DYNAMIC collapses the whole union, literals subsumed by a
// broader variant of the same kind are dropped, true|false simplifies to
// boolean, duplicates are removed, and a singleton result is returned
// directly.
func NewUnion(ts ...Type) Type {
	flat := make([]Type, 0, len(ts))
	for _, t := range ts {
		if t == nil {
			continue
		}
		t = Resolve(t)
		if u, ok := t.(TUnion); ok {
			flat = append(flat, u.Types...)
			continue
		}
		flat = append(flat, t)
	}

	for _, t := range flat {
		if IsDynamic(t) {
			return Dynamic
		}
	}

	// true | false -> boolean
	hasTrue, hasFalse := false, false
	for _, t := range flat {
		if b, ok := t.(TBoolLit); ok {
			if b.Value {
				hasTrue = true
			} else {
				hasFalse = true
			}
		}
	}
	if hasTrue && hasFalse {
		kept := flat[:0]
		for _, t := range flat {
			if _, ok := t.(TBoolLit); ok {
				continue
			}
			kept = append(kept, t)
		}
		flat = append(kept, Bool)
	}

	// Drop any member subsumed by another member. The pairwise check also
	// removes plain duplicates; ties between equivalent members keep the
	// first occurrence.
	kept := make([]Type, 0, len(flat))
	for i, t := range flat {
		subsumed := false
		for j, u := range flat {
			if i == j {
				continue
			}
			if !memberSub(t, u) {
				continue
			}
			if memberSub(u, t) && i < j {
				// Equivalent members: keep only the earliest.
				continue
			}
			subsumed = true
			break
		}
		if !subsumed {
			kept = append(kept, t)
		}
	}

	if len(kept) == 0 {
		return Nil
	}
	if len(kept) == 1 {
		return kept[0]
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].String() < kept[j].String()
	})
	return TUnion{Types: kept}
}

// memberSub is the subsumption test used during canonicalisation. Shape
// subsumption inside unions is restricted to identical shapes: two
// distinct table values never collapse, because their shapes may diverge
// by later adaptation.
func memberSub(t, u Type) bool {
	if tt, ok := t.(TTable); ok {
		if ut, ok := u.(TTable); ok {
			return tt.Shape == ut.Shape
		}
		_, isAny := u.(TTableAny)
		return isAny
	}
	return Subtype(t, u)
}

// WithoutNil removes nil from a type: a union drops its nil member, and
// every other type, nil itself included, is returned unchanged.
func WithoutNil(t Type) Type {
	switch t := Resolve(t).(type) {
	case TUnion:
		var kept []Type
		for _, m := range t.Types {
			if _, ok := m.(TNil); ok {
				continue
			}
			kept = append(kept, m)
		}
		if len(kept) == 0 {
			return Nil
		}
		return NewUnion(kept...)
	default:
		return t
	}
}

// Intersect narrows t to the part compatible with bound. It is the
// workhorse of flow-sensitive narrowing: for unions it keeps the members
// below the bound, for everything else it returns the more precise of the
// two when related, or nil-the-Go-value when the types are disjoint.
func Intersect(t, bound Type) Type {
	t = Resolve(t)
	bound = Resolve(bound)
	if IsDynamic(t) {
		return t
	}
	if IsDynamic(bound) {
		return t
	}
	if u, ok := t.(TUnion); ok {
		var kept []Type
		for _, m := range u.Types {
			if r := Intersect(m, bound); r != nil {
				kept = append(kept, r)
			}
		}
		if len(kept) == 0 {
			return nil
		}
		return NewUnion(kept...)
	}
	if u, ok := bound.(TUnion); ok {
		var kept []Type
		for _, m := range u.Types {
			if r := Intersect(t, m); r != nil {
				kept = append(kept, r)
			}
		}
		if len(kept) == 0 {
			return nil
		}
		return NewUnion(kept...)
	}
	if Subtype(t, bound) {
		return t
	}
	if Subtype(bound, t) {
		return bound
	}
	return nil
}
