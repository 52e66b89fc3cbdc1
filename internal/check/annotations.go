package check

import (
	"github.com/moonscope/moonscope/internal/ast"
	"github.com/moonscope/moonscope/internal/diagnostics"
	"github.com/moonscope/moonscope/internal/types"
)

// kindType resolves an annotation kind into a checker type. Unknown names
// report once and resolve to WHATEVER so that downstream checks do not
// cascade.
func (c *Checker) kindType(k ast.Kind) types.Type {
	switch k := k.(type) {
	case *ast.KDynamic:
		return types.Dynamic

	case *ast.KName:
		switch k.Name {
		case "nil":
			return types.Nil
		case "boolean":
			return types.Bool
		case "number":
			return types.Number
		case "integer", "int":
			return types.Integer
		case "string":
			return types.String
		case "table":
			return types.TableAny
		case "function":
			return types.FuncAny
		case "WHATEVER":
			return types.Dynamic
		}
		if c.aliasInProgress[k.Name] {
			c.errorAt(diagnostics.ErrT003, k.Token, "the type alias %s is recursive", k.Name)
			return types.Dynamic
		}
		if t, ok := c.env.ResolveAlias(k.Name); ok {
			return t
		}
		c.errorAt(diagnostics.ErrT001, k.Token, "unknown type name %s", k.Name)
		return types.Dynamic

	case *ast.KBoolLit:
		return types.TBoolLit{Value: k.Value}

	case *ast.KIntLit:
		return types.TIntLit{Value: k.Value}

	case *ast.KStrLit:
		return types.TStrLit{Value: k.Value}

	case *ast.KOptional:
		return types.NewUnion(c.kindType(k.Inner), types.Nil)

	case *ast.KUnion:
		members := make([]types.Type, 0, len(k.Kinds))
		for _, m := range k.Kinds {
			members = append(members, c.kindType(m))
		}
		return types.NewUnion(members...)

	case *ast.KRecord:
		if len(k.Fields) == 0 {
			return types.TTable{Shape: types.NewEmptyShape()}
		}
		shape := types.NewRecordShape()
		for _, f := range k.Fields {
			t := c.kindType(f.Annot.Kind)
			shape.Put(types.StrKey(f.Name), types.NewFieldSlot(t, innerVariance(f.Annot.Mod)))
		}
		return types.TTable{Shape: shape}

	case *ast.KTuple:
		shape := types.NewTupleShape()
		for i, item := range k.Items {
			t := c.kindType(item.Kind)
			shape.Put(types.IntKey(int64(i+1)), types.NewFieldSlot(t, innerVariance(item.Mod)))
		}
		return types.TTable{Shape: shape}

	case *ast.KArray:
		t := c.kindType(k.Elem.Kind)
		return types.TTable{Shape: types.NewArrayShape(types.NewFieldSlot(t, innerVariance(k.Elem.Mod)))}

	case *ast.KMap:
		key := c.kindType(k.Key)
		val := c.kindType(k.Value.Kind)
		return types.TTable{Shape: types.NewMapShape(key, types.NewFieldSlot(val, innerVariance(k.Value.Mod)))}

	case *ast.KFunc:
		fn := types.TFunc{}
		for _, p := range k.Params {
			var t types.Type = types.Dynamic
			if p.Annot != nil {
				t = c.kindType(p.Annot.Kind)
			}
			fn.Params.Fixed = append(fn.Params.Fixed, t)
		}
		if k.HasTail {
			if k.Vararg != nil {
				fn.Params.Tail = c.kindType(k.Vararg)
			} else {
				fn.Params.Tail = types.Dynamic
			}
		}
		for _, r := range k.Returns {
			fn.Returns.Fixed = append(fn.Returns.Fixed, c.kindType(r))
		}
		return fn

	case *ast.KAttr:
		inner := c.kindType(k.Inner)
		attr, ok := types.LookupAttr(k.Name)
		if !ok {
			c.warnAt(diagnostics.ErrT004, k.Token, "unrecognized attribute name %s ignored", k.Name)
			return inner
		}
		if fn, isFunc := inner.(types.TFunc); isFunc {
			fn.Attr = attr
			return fn
		}
		c.warnAt(diagnostics.ErrT004, k.Token, "the attribute %s applies only to function types", k.Name)
		return inner

	default:
		return types.Dynamic
	}
}

// bindingVariance is the variance of a declared variable slot; unmarked
// bindings float (currently).
func bindingVariance(m ast.Modifier) types.Variance {
	switch m {
	case ast.ModConst:
		return types.Const
	case ast.ModVar:
		return types.Var
	default:
		return types.Currently
	}
}

// innerVariance is the variance of a table slot inside an annotation;
// unmarked slots are fixed (var).
func innerVariance(m ast.Modifier) types.Variance {
	switch m {
	case ast.ModConst:
		return types.Const
	case ast.ModCurrently:
		return types.Currently
	default:
		return types.Var
	}
}

func (c *Checker) checkAssume(s *ast.AssumeStatement) {
	t := c.kindType(s.Annot.Kind)
	v := bindingVariance(s.Annot.Mod)
	if s.Global {
		if _, err := c.env.DeclareGlobal(s.Name.Value, t, v, true, s.Name.Token); err != nil {
			c.errorAt(diagnostics.ErrC006, s.Name.Token, "%s", err.Error())
		}
		return
	}
	// A non-global assume always declares a local in the current scope,
	// replacing a local of that name there and shadowing any outer or
	// global binding.
	c.env.Declare(s.Name.Value, t, v, s.Name.Token)
}

func (c *Checker) checkTypeAlias(s *ast.TypeAliasStatement) {
	c.aliasInProgress[s.Name.Value] = true
	t := c.kindType(s.Kind)
	delete(c.aliasInProgress, s.Name.Value)
	if err := c.env.DefineAlias(s.Name.Value, t); err != nil {
		c.errorAt(diagnostics.ErrT002, s.Name.Token, "%s", err.Error())
	}
}

func (c *Checker) checkOpen(s *ast.OpenStatement) {
	if c.opener == nil {
		c.errorAt(diagnostics.ErrT005, s.Name.Token, "no predefined environments are available")
		return
	}
	bindings, ok := c.opener.Open(s.Name.Value)
	if !ok {
		c.errorAt(diagnostics.ErrT005, s.Name.Token, "unknown predefined environment %s", s.Name.Value)
		return
	}
	for _, b := range bindings {
		t := c.kindType(b.Annot.Kind)
		v := bindingVariance(b.Annot.Mod)
		// Predefined globals are idempotent: re-opening an environment
		// keeps the first declaration.
		if _, exists := c.env.Lookup(b.Name); exists {
			continue
		}
		if _, err := c.env.DeclareGlobal(b.Name, t, v, true, s.Name.Token); err != nil {
			c.errorAt(diagnostics.ErrC006, s.Name.Token, "%s", err.Error())
		}
	}
}
