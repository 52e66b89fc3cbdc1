package check

import (
	"github.com/moonscope/moonscope/internal/ast"
	"github.com/moonscope/moonscope/internal/diagnostics"
	"github.com/moonscope/moonscope/internal/types"
)

// checkExpr types an expression in a single-value context.
func (c *Checker) checkExpr(e ast.Expression) types.Type {
	return c.checkExprSeq(e).First()
}

// checkExprSeq types an expression, keeping the full sequence for the
// multi-valued forms (calls and varargs).
func (c *Checker) checkExprSeq(e ast.Expression) types.Seq {
	switch e := e.(type) {
	case *ast.NilLiteral:
		return types.SingleSeq(types.Nil)

	case *ast.BooleanLiteral:
		return types.SingleSeq(types.TBoolLit{Value: e.Value})

	case *ast.NumberLiteral:
		if e.IsInt {
			return types.SingleSeq(types.TIntLit{Value: e.Int})
		}
		return types.SingleSeq(types.Number)

	case *ast.StringLiteral:
		return types.SingleSeq(types.TStrLit{Value: e.Value})

	case *ast.VarargExpression:
		frame := c.env.Frame()
		if frame == nil || frame.Varargs == nil {
			c.errorAt(diagnostics.ErrC007, e.Token, "vararg can only be used inside the innermost vararg function")
			return types.DynamicSeq()
		}
		return *frame.Varargs

	case *ast.Identifier:
		t, _, ok := c.env.Read(e.Value)
		if !ok {
			c.errorAt(diagnostics.ErrC001, e.Token, "global or local variable %s is not defined", e.Value)
			return types.SingleSeq(types.Dynamic)
		}
		return types.SingleSeq(t)

	case *ast.ParenExpression:
		if e.Inner == nil {
			return types.SingleSeq(types.Dynamic)
		}
		return types.SingleSeq(c.checkExpr(e.Inner))

	case *ast.FunctionLiteral:
		fn := c.checkFunctionLiteral(e, nil)
		return types.SingleSeq(fn)

	case *ast.TableConstructor:
		return types.SingleSeq(c.checkTableConstructor(e))

	case *ast.IndexExpression:
		return types.SingleSeq(c.checkIndexRead(e))

	case *ast.CallExpression:
		return c.checkCallExpression(e)

	case *ast.MethodCallExpression:
		return c.checkMethodCall(e)

	case *ast.PrefixExpression:
		return types.SingleSeq(c.checkPrefix(e))

	case *ast.InfixExpression:
		return types.SingleSeq(c.checkInfix(e))

	default:
		return types.SingleSeq(types.Dynamic)
	}
}

// checkExprList types a value list: every expression contributes its
// first value except the last, whose whole sequence is spliced.
func (c *Checker) checkExprList(exprs []ast.Expression) types.Seq {
	if len(exprs) == 0 {
		return types.EmptySeq()
	}
	var seq types.Seq
	for _, e := range exprs[:len(exprs)-1] {
		seq.Fixed = append(seq.Fixed, c.checkExpr(e))
	}
	last := c.checkExprSeq(exprs[len(exprs)-1])
	seq.Fixed = append(seq.Fixed, last.Fixed...)
	seq.Tail = last.Tail
	return seq
}

func (c *Checker) checkTableConstructor(e *ast.TableConstructor) types.Type {
	shape := types.NewEmptyShape()
	table := types.TTable{Shape: shape}
	nextIndex := int64(1)

	for i, f := range e.Fields {
		switch {
		case f.Name != "":
			val := c.checkExpr(f.Value)
			if err := shape.Write(types.TStrLit{Value: f.Name}, val, true); err != nil {
				c.errorAt(diagnostics.ErrC004, f.Value.GetToken(), "%s", err.Error())
			}
		case f.Key != nil:
			key := c.checkExpr(f.Key)
			val := c.checkExpr(f.Value)
			if err := shape.Write(key, val, true); err != nil {
				c.errorAt(diagnostics.ErrC004, f.Key.GetToken(), "%s", err.Error())
			}
		default:
			// The final positional item splices the fixed part of its
			// sequence; a variadic tail adds no slots.
			if i == len(e.Fields)-1 {
				seq := c.checkExprSeq(f.Value)
				for _, t := range seq.Fixed {
					if err := shape.Write(types.TIntLit{Value: nextIndex}, t, true); err != nil {
						c.errorAt(diagnostics.ErrC004, f.Value.GetToken(), "%s", err.Error())
					}
					nextIndex++
				}
				continue
			}
			val := c.checkExpr(f.Value)
			if err := shape.Write(types.TIntLit{Value: nextIndex}, val, true); err != nil {
				c.errorAt(diagnostics.ErrC004, f.Value.GetToken(), "%s", err.Error())
			}
			nextIndex++
		}
	}
	return table
}

// checkIndexRead types t[k] in read position.
func (c *Checker) checkIndexRead(e *ast.IndexExpression) types.Type {
	obj := types.Resolve(c.checkExpr(e.Object))
	key := c.checkExpr(e.Key)

	if isOpaque(obj) {
		return types.Dynamic
	}

	switch obj := obj.(type) {
	case types.TTable:
		t, err := obj.Shape.Read(key)
		if err != nil {
			c.errorAt(diagnostics.ErrC004, e.Token, "%s", err.Error())
			return types.Dynamic
		}
		return t
	case types.TTableAny:
		c.errorAt(diagnostics.ErrC004, e.Token, "cannot index a value of the opaque type table without downcasting")
		return types.Dynamic
	case types.TString, types.TStrLit:
		// Strings carry a metatable in the source language.
		return types.Dynamic
	default:
		c.errorAt(diagnostics.ErrC004, e.Token, "cannot index a value of the type %s", obj.String())
		return types.Dynamic
	}
}

func (c *Checker) checkCallExpression(e *ast.CallExpression) types.Seq {
	calleeType := types.Resolve(c.checkExpr(e.Callee))

	// Builtins recognised by attribute.
	if fn, ok := calleeType.(types.TFunc); ok {
		switch fn.Attr {
		case types.AttrRequire:
			return c.checkRequireCall(e, fn)
		case types.AttrTypeof:
			for _, a := range e.Args {
				c.checkExpr(a)
			}
			return types.SingleSeq(types.String)
		}
	}

	return c.checkCall(calleeType, e.Args, e)
}

// checkCall validates a call against a callee type and returns the
// callee's return sequence.
func (c *Checker) checkCall(calleeType types.Type, args []ast.Expression, e ast.Expression) types.Seq {
	calleeType = types.Resolve(calleeType)

	if isOpaque(calleeType) {
		for _, a := range args {
			c.checkExpr(a)
		}
		return types.DynamicSeq()
	}

	switch callee := calleeType.(type) {
	case types.TFuncAny:
		for _, a := range args {
			c.checkExpr(a)
		}
		return types.DynamicSeq()

	case types.TFunc:
		argSeq := c.checkExprList(args)
		c.checkArgs(callee, argSeq, e)
		return callee.Returns

	default:
		for _, a := range args {
			c.checkExpr(a)
		}
		c.errorAt(diagnostics.ErrC005, e.GetToken(), "tried to call a non-function value of the type %s", calleeType.String())
		return types.DynamicSeq()
	}
}

// checkArgs matches an argument sequence against a parameter sequence:
// extra arguments need a variadic tail; missing arguments are padded with
// nil when the parameter admits nil; unresolved parameter placeholders
// are frozen to the first call-site's argument types.
func (c *Checker) checkArgs(fn types.TFunc, argSeq types.Seq, e ast.Expression) {
	params := fn.Params
	if argSeq.Len() > params.Len() && !params.IsVariadic() && !argSeq.IsVariadic() {
		c.errorAt(diagnostics.ErrC005, e.GetToken(), "the function takes %d arguments but got %d",
			params.Len(), argSeq.Len())
		return
	}

	n := params.Len()
	if argSeq.Len() > n {
		n = argSeq.Len()
	}
	for i := 0; i < n; i++ {
		arg := argSeq.At(i)
		var want types.Type
		if i < params.Len() {
			want = params.Fixed[i]
		} else if params.Tail != nil {
			want = params.Tail
		} else {
			break
		}

		if p, ok := want.(*types.TPlaceholder); ok {
			if p.Bound == nil {
				p.Bind(types.Broaden(arg))
				continue
			}
			if !types.Subtype(arg, p.Bound) {
				c.errorAt(diagnostics.ErrC002, e.GetToken(),
					"the type %s is not a subtype of %s, the type this parameter was inferred to have",
					arg.String(), p.Bound.String())
			}
			continue
		}

		if i >= argSeq.Len() && argSeq.Tail == nil {
			// A missing argument is the nil padding.
			if !types.Subtype(types.Nil, want) {
				c.errorAt(diagnostics.ErrC005, e.GetToken(),
					"the function requires an argument of the type %s at position %d", want.String(), i+1)
			}
			continue
		}
		if !types.Subtype(arg, want) {
			c.errorAt(diagnostics.ErrC002, e.GetToken(),
				"the type %s is not a subtype of %s", arg.String(), want.String())
		}
	}
}

func (c *Checker) checkRequireCall(e *ast.CallExpression, fn types.TFunc) types.Seq {
	if len(e.Args) >= 1 {
		if lit, ok := e.Args[0].(*ast.StringLiteral); ok {
			if c.req == nil {
				return types.SingleSeq(types.Dynamic)
			}
			return types.SingleSeq(c.req.Require(lit.Value, e.Token, c.file))
		}
		c.checkExpr(e.Args[0])
	}
	c.warnAt(diagnostics.ErrM003, e.Token, "cannot resolve the module name at the check time")
	return types.SingleSeq(types.Dynamic)
}

func (c *Checker) checkMethodCall(e *ast.MethodCallExpression) types.Seq {
	recv := types.Resolve(c.checkExpr(e.Receiver))

	if isOpaque(recv) {
		for _, a := range e.Args {
			c.checkExpr(a)
		}
		return types.DynamicSeq()
	}

	switch recv := recv.(type) {
	case types.TTable:
		mt, err := recv.Shape.Read(types.TStrLit{Value: e.Method})
		if err != nil {
			c.errorAt(diagnostics.ErrC004, e.Token, "%s", err.Error())
			return types.DynamicSeq()
		}
		mt = types.Resolve(mt)
		fn, ok := mt.(types.TFunc)
		if !ok {
			if isOpaque(mt) {
				for _, a := range e.Args {
					c.checkExpr(a)
				}
				return types.DynamicSeq()
			}
			c.errorAt(diagnostics.ErrC005, e.Token, "tried to call a non-function value of the type %s", mt.String())
			for _, a := range e.Args {
				c.checkExpr(a)
			}
			return types.DynamicSeq()
		}
		// recv:m(args) is recv.m(recv, args).
		argSeq := c.checkExprList(e.Args)
		full := types.Seq{Fixed: append([]types.Type{recv}, argSeq.Fixed...), Tail: argSeq.Tail}
		c.checkArgs(fn, full, e)
		return fn.Returns

	case types.TString, types.TStrLit:
		for _, a := range e.Args {
			c.checkExpr(a)
		}
		return types.DynamicSeq()

	default:
		c.errorAt(diagnostics.ErrC004, e.Token, "cannot index a value of the type %s", recv.String())
		for _, a := range e.Args {
			c.checkExpr(a)
		}
		return types.DynamicSeq()
	}
}

func (c *Checker) checkPrefix(e *ast.PrefixExpression) types.Type {
	t := c.checkExpr(e.Right)

	switch e.Op {
	case "-":
		if isOpaque(t) {
			return types.Dynamic
		}
		if !types.Subtype(t, types.Number) {
			c.errorAt(diagnostics.ErrC003, e.Token, "cannot apply the - operator to %s", t.String())
			return types.Dynamic
		}
		if types.Subtype(t, types.Integer) {
			return types.Integer
		}
		return types.Number

	case "not":
		return types.Bool

	case "#":
		if isOpaque(t) {
			return types.Dynamic
		}
		lenable := types.NewUnion(types.String, types.TableAny)
		if !types.Subtype(t, lenable) {
			c.errorAt(diagnostics.ErrC003, e.Token, "cannot apply the # operator to %s", t.String())
			return types.Dynamic
		}
		return types.Integer

	default:
		return types.Dynamic
	}
}

func (c *Checker) checkInfix(e *ast.InfixExpression) types.Type {
	switch e.Op {
	case "and":
		left := c.checkExpr(e.Left)
		right := c.checkExpr(e.Right)
		if isOpaque(left) {
			return types.Dynamic
		}
		falsy := types.Falsy(left)
		truthy := types.Truthy(left)
		if truthy == nil {
			// Statically falsy: the right side is never evaluated.
			return left
		}
		if falsy == nil {
			// Statically truthy: the expression is the right side.
			return right
		}
		return types.NewUnion(falsy, right)

	case "or":
		left := c.checkExpr(e.Left)
		right := c.checkExpr(e.Right)
		if isOpaque(left) {
			return types.Dynamic
		}
		falsy := types.Falsy(left)
		truthy := types.Truthy(left)
		if falsy == nil {
			// Statically truthy: the right side is never evaluated.
			return left
		}
		if truthy == nil {
			return right
		}
		return types.NewUnion(truthy, right)

	case "==", "~=":
		c.checkTypeofLiteral(e)
		c.checkExpr(e.Left)
		c.checkExpr(e.Right)
		return types.Bool

	case "+", "-", "*", "/", "%", "^":
		left := c.checkExpr(e.Left)
		right := c.checkExpr(e.Right)
		return c.checkArith(e, left, right)

	case "..":
		left := c.checkExpr(e.Left)
		right := c.checkExpr(e.Right)
		cattable := types.NewUnion(types.Number, types.String)
		if !isOpaque(left) && !types.Subtype(left, cattable) {
			c.errorAt(diagnostics.ErrC003, e.Token, "cannot apply the .. operator to %s", left.String())
		}
		if !isOpaque(right) && !types.Subtype(right, cattable) {
			c.errorAt(diagnostics.ErrC003, e.Token, "cannot apply the .. operator to %s", right.String())
		}
		return types.String

	case "<", "<=", ">", ">=":
		left := c.checkExpr(e.Left)
		right := c.checkExpr(e.Right)
		c.checkOrdering(e, left, right)
		return types.Bool

	default:
		c.checkExpr(e.Left)
		c.checkExpr(e.Right)
		return types.Dynamic
	}
}

func (c *Checker) checkArith(e *ast.InfixExpression, left, right types.Type) types.Type {
	if isOpaque(left) || isOpaque(right) {
		return types.Dynamic
	}
	bad := false
	if !types.Subtype(left, types.Number) {
		c.errorAt(diagnostics.ErrC002, e.Token, "the type %s is not a subtype of number", left.String())
		bad = true
	}
	if !types.Subtype(right, types.Number) {
		c.errorAt(diagnostics.ErrC002, e.Token, "the type %s is not a subtype of number", right.String())
		bad = true
	}
	if bad {
		return types.Dynamic
	}
	if e.Op != "/" && types.Subtype(left, types.Integer) && types.Subtype(right, types.Integer) {
		return types.Integer
	}
	return types.Number
}

// checkOrdering enforces the both-numbers-or-both-strings rule for < and
// friends, with a dedicated wording for unions straddling the two.
func (c *Checker) checkOrdering(e *ast.InfixExpression, left, right types.Type) {
	if isOpaque(left) && isOpaque(right) {
		return
	}
	straddles := func(t types.Type) bool {
		return !types.Subtype(t, types.Number) && !types.Subtype(t, types.String) &&
			types.Subtype(t, types.NewUnion(types.Number, types.String))
	}
	if straddles(left) || straddles(right) {
		c.errorAt(diagnostics.ErrC003, e.Token,
			"operands of the %s operator should be either numbers or strings but not both", e.Op)
		return
	}

	numeric := func(t types.Type) bool { return isOpaque(t) || types.Subtype(t, types.Number) }
	stringy := func(t types.Type) bool { return isOpaque(t) || types.Subtype(t, types.String) }
	if numeric(left) && numeric(right) {
		return
	}
	if stringy(left) && stringy(right) {
		return
	}
	c.errorAt(diagnostics.ErrC003, e.Token, "cannot apply the %s operator to %s and %s",
		e.Op, left.String(), right.String())
}

// checkTypeofLiteral validates the literal in a `type(x) == "lit"` test;
// the narrowing itself is handled at the branch points.
func (c *Checker) checkTypeofLiteral(e *ast.InfixExpression) {
	call, lit := typeofComparison(e)
	if call == nil || lit == nil {
		return
	}
	if !c.isTypeofCall(call) {
		return
	}
	if _, ok := typeofResults[lit.Value]; !ok {
		c.errorAt(diagnostics.ErrC009, lit.Token,
			"the literal %q cannot appear as a return type name for type", lit.Value)
	}
}

// typeofComparison splits an equality into a call operand and a string
// literal operand, in either orientation.
func typeofComparison(e *ast.InfixExpression) (*ast.CallExpression, *ast.StringLiteral) {
	if call, ok := e.Left.(*ast.CallExpression); ok {
		if lit, ok := e.Right.(*ast.StringLiteral); ok {
			return call, lit
		}
	}
	if call, ok := e.Right.(*ast.CallExpression); ok {
		if lit, ok := e.Left.(*ast.StringLiteral); ok {
			return call, lit
		}
	}
	return nil, nil
}

// typeofResults maps the result strings of the type() builtin to the base
// kind each one names.
var typeofResults = map[string]types.Type{
	"nil":      types.Nil,
	"boolean":  types.Bool,
	"number":   types.Number,
	"string":   types.String,
	"table":    types.TableAny,
	"function": types.FuncAny,
}

// isTypeofCall reports whether a call's callee resolves to the builtin
// tagged [type]. Only direct name callees participate in narrowing.
func (c *Checker) isTypeofCall(call *ast.CallExpression) bool {
	ident, ok := call.Callee.(*ast.Identifier)
	if !ok || len(call.Args) != 1 {
		return false
	}
	t, _, found := c.env.Read(ident.Value)
	if !found {
		return false
	}
	fn, ok := types.Resolve(t).(types.TFunc)
	return ok && fn.Attr == types.AttrTypeof
}
