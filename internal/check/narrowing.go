package check

import (
	"github.com/moonscope/moonscope/internal/ast"
	"github.com/moonscope/moonscope/internal/types"
)

// narrowMap is the refinement a predicate imposes on named variables
// along one branch.
type narrowMap map[string]types.Type

// mergeNarrowings overlays b on top of a: refinements from both apply.
// A name refined by both keeps the intersection of the two, or b's
// refinement when they are disjoint. Neither input is mutated.
func mergeNarrowings(a, b narrowMap) narrowMap {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make(narrowMap, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		if prev, ok := out[k]; ok {
			if refined := types.Intersect(prev, v); refined != nil {
				out[k] = refined
				continue
			}
		}
		out[k] = v
	}
	return out
}

// unionNarrowings keeps only the names refined by both inputs, joining
// the refinements. It models "either of the two paths was taken".
func unionNarrowings(a, b narrowMap) narrowMap {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	out := make(narrowMap)
	for k, va := range a {
		if vb, ok := b[k]; ok {
			out[k] = types.NewUnion(va, vb)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// analyzePredicate derives the narrowing maps a condition imposes on its
// truthy and falsy branches. Only direct variable references narrow;
// WHATEVER-typed names are filtered later by Env.Narrow.
func (c *Checker) analyzePredicate(e ast.Expression) (truthy, falsy narrowMap) {
	switch e := e.(type) {
	case *ast.Identifier:
		cur, _, ok := c.env.Read(e.Value)
		if !ok {
			return nil, nil
		}
		t := types.Truthy(cur)
		f := types.Falsy(cur)
		truthy = narrowMap{}
		falsy = narrowMap{}
		if t != nil {
			truthy[e.Value] = t
		}
		if f != nil {
			falsy[e.Value] = f
		}
		return truthy, falsy

	case *ast.ParenExpression:
		return c.analyzePredicate(e.Inner)

	case *ast.PrefixExpression:
		if e.Op == "not" {
			t, f := c.analyzePredicate(e.Right)
			return f, t
		}
		return nil, nil

	case *ast.InfixExpression:
		switch e.Op {
		case "and":
			t1, f1 := c.analyzePredicate(e.Left)
			t2, f2 := c.analyzePredicate(e.Right)
			// Truthy: both held. Falsy: one of the two failed.
			return mergeNarrowings(t1, t2), unionNarrowings(f1, f2)
		case "or":
			t1, f1 := c.analyzePredicate(e.Left)
			t2, f2 := c.analyzePredicate(e.Right)
			return unionNarrowings(t1, t2), mergeNarrowings(f1, f2)
		case "==":
			return c.analyzeTypeofTest(e, false)
		case "~=":
			return c.analyzeTypeofTest(e, true)
		}
		return nil, nil

	default:
		return nil, nil
	}
}

// analyzeTypeofTest recognises `type(x) == "lit"` in either orientation
// (and its ~= negation) and narrows x to the named base kind.
func (c *Checker) analyzeTypeofTest(e *ast.InfixExpression, negated bool) (truthy, falsy narrowMap) {
	call, lit := typeofComparison(e)
	if call == nil || lit == nil || !c.isTypeofCall(call) {
		return nil, nil
	}
	ident, ok := call.Args[0].(*ast.Identifier)
	if !ok {
		return nil, nil
	}
	base, known := typeofResults[lit.Value]
	if !known {
		// The bad literal is reported by the expression checker.
		return nil, nil
	}
	cur, _, found := c.env.Read(ident.Value)
	if !found {
		return nil, nil
	}

	refined := types.Intersect(cur, base)
	if refined == nil {
		refined = base
	}
	matched := narrowMap{ident.Value: refined}

	var unmatched narrowMap
	if rest := subtract(cur, base); rest != nil {
		unmatched = narrowMap{ident.Value: rest}
	}

	if negated {
		return unmatched, matched
	}
	return matched, unmatched
}

// subtract removes the part of t below bound; it reports nil when nothing
// remains. WHATEVER is returned unchanged.
func subtract(t, bound types.Type) types.Type {
	t = types.Resolve(t)
	if types.IsDynamic(t) {
		return t
	}
	u, ok := t.(types.TUnion)
	if !ok {
		if types.Subtype(t, bound) {
			return nil
		}
		return t
	}
	var kept []types.Type
	for _, m := range u.Types {
		if !types.Subtype(m, bound) {
			kept = append(kept, m)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return types.NewUnion(kept...)
}
