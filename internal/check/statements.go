package check

import (
	"github.com/moonscope/moonscope/internal/ast"
	"github.com/moonscope/moonscope/internal/diagnostics"
	"github.com/moonscope/moonscope/internal/scope"
	"github.com/moonscope/moonscope/internal/token"
	"github.com/moonscope/moonscope/internal/types"
)

func (c *Checker) checkBlockStatements(stmts []ast.Statement) {
	for _, s := range stmts {
		c.checkStatement(s)
	}
}

// checkBlock checks a block in its own lexical scope, optionally
// installing a narrowing overlay for the flow path entering it.
func (c *Checker) checkBlock(b *ast.Block, narrowing narrowMap) {
	c.env.Push(scope.BlockScope, nil)
	defer c.env.Pop()
	for name, t := range narrowing {
		c.env.Narrow(name, t)
	}
	if b != nil {
		c.checkBlockStatements(b.Statements)
	}
}

func (c *Checker) checkStatement(s ast.Statement) {
	switch s := s.(type) {
	case *ast.LocalStatement:
		c.checkLocalStatement(s)
	case *ast.AssignStatement:
		c.checkAssignStatement(s)
	case *ast.ExpressionStatement:
		c.checkExpressionStatement(s)
	case *ast.DoStatement:
		c.checkBlock(s.Body, nil)
	case *ast.WhileStatement:
		cond := s.Cond
		c.checkExpr(cond)
		truthy, _ := c.analyzePredicate(cond)
		c.checkBlock(s.Body, truthy)
	case *ast.RepeatStatement:
		// The until condition is in the scope of the body.
		c.env.Push(scope.BlockScope, nil)
		if s.Body != nil {
			c.checkBlockStatements(s.Body.Statements)
		}
		if s.Cond != nil {
			c.checkExpr(s.Cond)
		}
		c.env.Pop()
	case *ast.IfStatement:
		c.checkIfStatement(s)
	case *ast.NumericForStatement:
		c.checkNumericFor(s)
	case *ast.GenericForStatement:
		c.checkGenericFor(s)
	case *ast.FunctionStatement:
		c.checkFunctionStatement(s)
	case *ast.ReturnStatement:
		c.checkReturnStatement(s)
	case *ast.BreakStatement:
		// Nothing to check.
	case *ast.AssumeStatement:
		c.checkAssume(s)
	case *ast.TypeAliasStatement:
		c.checkTypeAlias(s)
	case *ast.OpenStatement:
		c.checkOpen(s)
	}
}

func (c *Checker) checkLocalStatement(s *ast.LocalStatement) {
	valSeq := c.checkExprList(s.Values)
	for i, name := range s.Names {
		val := valSeq.At(i)
		var annot *ast.SlotAnnot
		if i < len(s.Annots) {
			annot = s.Annots[i]
		}
		if annot == nil {
			c.env.Declare(name.Value, val, types.Currently, name.Token)
			continue
		}
		declared := c.kindType(annot.Kind)
		v := bindingVariance(annot.Mod)
		if len(s.Values) > 0 {
			c.subtypeOrError(val, declared, valueToken(s, i), name.Token)
		}
		c.env.Declare(name.Value, declared, v, name.Token)
	}
}

func valueToken(s *ast.LocalStatement, i int) token.Token {
	if i < len(s.Values) {
		return s.Values[i].GetToken()
	}
	if len(s.Values) > 0 {
		return s.Values[len(s.Values)-1].GetToken()
	}
	return s.Token
}

func (c *Checker) checkAssignStatement(s *ast.AssignStatement) {
	valSeq := c.checkExprList(s.Values)

	for i, target := range s.Targets {
		val := valSeq.At(i)
		var annot *ast.SlotAnnot
		if i < len(s.Annots) {
			annot = s.Annots[i]
		}

		switch target := target.(type) {
		case *ast.Identifier:
			c.assignName(target, val, annot)
		case *ast.IndexExpression:
			if annot != nil {
				c.errorAt(diagnostics.ErrP003, annot.Token, "a slot annotation cannot apply to a table index")
			}
			c.assignIndex(target, val)
		default:
			c.errorAt(diagnostics.ErrC005, target.GetToken(), "this expression cannot be assigned to")
		}
	}
}

func (c *Checker) assignName(target *ast.Identifier, val types.Type, annot *ast.SlotAnnot) {
	slot, exists := c.env.Lookup(target.Value)

	if annot != nil {
		declared := c.kindType(annot.Kind)
		v := bindingVariance(annot.Mod)
		if exists && !slot.Global {
			c.errorAt(diagnostics.ErrP003, annot.Token,
				"a slot annotation on an assignment applies only to global variables")
		} else {
			g, err := c.env.DeclareGlobal(target.Value, declared, v, true, target.Token)
			if err != nil {
				c.errorAt(diagnostics.ErrC006, target.Token, "%s", err.Error())
			}
			slot, exists = g, true
		}
	}

	if !exists {
		// First assignment to an unannotated global declares it.
		g, _ := c.env.DeclareGlobal(target.Value, types.Broaden(val), types.Currently, false, target.Token)
		g.Current = val
		return
	}

	switch slot.Variance {
	case types.Const:
		c.errorAt(diagnostics.ErrC008, target.Token, "cannot assign to the const variable %s", target.Value)
	case types.Var:
		c.subtypeOrError(val, slot.Declared, target.Token, slot.DeclTok)
	default:
		if err := c.env.Assign(target.Value, val); err != nil {
			c.errorAt(diagnostics.ErrC002, target.Token, "%s", err.Error())
		}
	}
}

func (c *Checker) assignIndex(target *ast.IndexExpression, val types.Type) {
	objType := types.Resolve(c.checkExpr(target.Object))
	keyType := c.checkExpr(target.Key)

	if isOpaque(objType) {
		return
	}

	// The table's holding slot decides adaptability: a shape held in a
	// Var slot was fixed at declaration.
	adaptable := true
	if ident, ok := target.Object.(*ast.Identifier); ok {
		if slot, found := c.env.Lookup(ident.Value); found && slot.Variance == types.Var {
			adaptable = false
		}
	}

	switch obj := objType.(type) {
	case types.TTable:
		if err := obj.Shape.Write(keyType, val, adaptable); err != nil {
			c.errorAt(diagnostics.ErrC004, target.Token, "%s", err.Error())
		}
	case types.TTableAny:
		c.errorAt(diagnostics.ErrC004, target.Token, "cannot index a value of the opaque type table without downcasting")
	default:
		c.errorAt(diagnostics.ErrC004, target.Token, "cannot index a value of the type %s", objType.String())
	}
}

// checkExpressionStatement checks a call statement and applies assertion
// narrowing permanently to the enclosing scope.
func (c *Checker) checkExpressionStatement(s *ast.ExpressionStatement) {
	c.checkExprSeq(s.Expr)

	call, ok := s.Expr.(*ast.CallExpression)
	if !ok || len(call.Args) == 0 {
		return
	}
	ident, ok := call.Callee.(*ast.Identifier)
	if !ok {
		return
	}
	t, _, found := c.env.Read(ident.Value)
	if !found {
		return
	}
	fn, ok := types.Resolve(t).(types.TFunc)
	if !ok {
		return
	}

	// The assertion behaves as `if not pred then fail end`: the truthy
	// narrowing survives in the enclosing scope.
	switch fn.Attr {
	case types.AttrAssert:
		truthy, _ := c.analyzePredicate(call.Args[0])
		for name, t := range truthy {
			c.env.Narrow(name, t)
		}
	case types.AttrAssertNot:
		_, falsy := c.analyzePredicate(call.Args[0])
		for name, t := range falsy {
			c.env.Narrow(name, t)
		}
	case types.AttrAssertType:
		c.applyAssertType(call)
	}
}

// applyAssertType handles helpers declared [assert-type]: the first
// argument is narrowed to the base kind named by the second.
func (c *Checker) applyAssertType(call *ast.CallExpression) {
	if len(call.Args) < 2 {
		return
	}
	ident, ok := call.Args[0].(*ast.Identifier)
	if !ok {
		return
	}
	lit, ok := call.Args[1].(*ast.StringLiteral)
	if !ok {
		return
	}
	base, ok := typeofResults[lit.Value]
	if !ok {
		c.errorAt(diagnostics.ErrC009, lit.Token,
			"the literal %q cannot appear as a return type name for type", lit.Value)
		return
	}
	cur, _, found := c.env.Read(ident.Value)
	if !found {
		return
	}
	refined := types.Intersect(cur, base)
	if refined == nil {
		refined = base
	}
	c.env.Narrow(ident.Value, refined)
}

func (c *Checker) checkIfStatement(s *ast.IfStatement) {
	// Each arm sees the falsy narrowings of every arm before it.
	accumulated := narrowMap{}
	for _, clause := range s.Clauses {
		c.checkExpr(clause.Cond)
		truthy, falsy := c.analyzePredicate(clause.Cond)
		c.checkBlock(clause.Body, mergeNarrowings(accumulated, truthy))
		accumulated = mergeNarrowings(accumulated, falsy)
	}
	if s.Else != nil {
		c.checkBlock(s.Else, accumulated)
	}
}

func (c *Checker) checkNumericFor(s *ast.NumericForStatement) {
	bounds := []ast.Expression{s.Start, s.Stop}
	if s.Step != nil {
		bounds = append(bounds, s.Step)
	}
	integral := true
	for _, b := range bounds {
		t := c.checkExpr(b)
		if isOpaque(t) {
			integral = false
			continue
		}
		if !types.Subtype(t, types.Number) {
			c.errorAt(diagnostics.ErrC002, b.GetToken(), "the type %s is not a subtype of number", t.String())
			integral = false
			continue
		}
		if !types.Subtype(t, types.Integer) {
			integral = false
		}
	}

	var loopVar types.Type = types.Number
	if integral {
		loopVar = types.Integer
	}
	c.env.Push(scope.BlockScope, nil)
	c.env.Declare(s.Var.Value, loopVar, types.Currently, s.Var.Token)
	if s.Body != nil {
		c.checkBlockStatements(s.Body.Statements)
	}
	c.env.Pop()
}

func (c *Checker) checkGenericFor(s *ast.GenericForStatement) {
	iterSeq := c.checkExprList(s.Exprs)
	iter := types.Resolve(iterSeq.First())

	varTypes := make([]types.Type, len(s.Names))
	switch it := iter.(type) {
	case types.TFunc:
		// The iterator's return sequence drives the loop variables; the
		// first one drops nil because the loop stops on it.
		for i := range s.Names {
			t := it.Returns.At(i)
			if i == 0 {
				t = types.WithoutNil(t)
			}
			varTypes[i] = t
		}
	default:
		if !isOpaque(iter) {
			if _, isAny := iter.(types.TFuncAny); !isAny {
				c.errorAt(diagnostics.ErrC005, s.Token,
					"the iterator is a non-function value of the type %s", iter.String())
			}
		}
		for i := range varTypes {
			varTypes[i] = types.Dynamic
		}
	}

	c.env.Push(scope.BlockScope, nil)
	for i, name := range s.Names {
		c.env.Declare(name.Value, varTypes[i], types.Currently, name.Token)
	}
	if s.Body != nil {
		c.checkBlockStatements(s.Body.Statements)
	}
	c.env.Pop()
}

func (c *Checker) checkFunctionStatement(s *ast.FunctionStatement) {
	if s.Func == nil {
		// The parser already reported the malformed declaration.
		return
	}
	if s.IsLocal {
		// The name is visible inside the body for recursion; the slot is
		// re-assigned with the final type after checking.
		slot := c.env.Declare(s.Name.Value, types.FuncAny, types.Currently, s.Name.Token)
		fn := c.checkFunctionLiteral(s.Func, nil)
		slot.Current = fn
		slot.Declared = fn
		return
	}

	if len(s.Path) == 0 {
		fn := c.checkFunctionLiteral(s.Func, nil)
		c.assignName(s.Name, fn, nil)
		return
	}

	// function t.a.b(...) / function t:m(...): resolve the holder table
	// and write the function into its slot.
	holder, _, found := c.env.Read(s.Name.Value)
	if !found {
		c.errorAt(diagnostics.ErrC001, s.Name.Token, "global or local variable %s is not defined", s.Name.Value)
		holder = types.Dynamic
	}
	holder = types.Resolve(holder)
	for _, part := range s.Path[:len(s.Path)-1] {
		holder = c.readMember(holder, part, s.Name.Token)
	}

	var selfType types.Type
	if s.IsMethod {
		selfType = holder
	}
	fn := c.checkFunctionLiteral(s.Func, selfType)

	last := s.Path[len(s.Path)-1]
	switch h := types.Resolve(holder).(type) {
	case types.TTable:
		adaptable := true
		if len(s.Path) == 1 {
			if slot, ok := c.env.Lookup(s.Name.Value); ok && slot.Variance == types.Var {
				adaptable = false
			}
		}
		if err := h.Shape.Write(types.TStrLit{Value: last}, fn, adaptable); err != nil {
			c.errorAt(diagnostics.ErrC004, s.Name.Token, "%s", err.Error())
		}
	case types.TDynamic:
		// Nothing to record.
	case types.TTableAny:
		c.errorAt(diagnostics.ErrC004, s.Name.Token, "cannot index a value of the opaque type table without downcasting")
	default:
		c.errorAt(diagnostics.ErrC004, s.Name.Token, "cannot index a value of the type %s", holder.String())
	}
}

// readMember reads a string-keyed member for dotted function paths.
func (c *Checker) readMember(t types.Type, name string, tok token.Token) types.Type {
	t = types.Resolve(t)
	if isOpaque(t) {
		return types.Dynamic
	}
	tbl, ok := t.(types.TTable)
	if !ok {
		c.errorAt(diagnostics.ErrC004, tok, "cannot index a value of the type %s", t.String())
		return types.Dynamic
	}
	m, err := tbl.Shape.Read(types.TStrLit{Value: name})
	if err != nil {
		c.errorAt(diagnostics.ErrC004, tok, "%s", err.Error())
		return types.Dynamic
	}
	return m
}

func (c *Checker) checkReturnStatement(s *ast.ReturnStatement) {
	seq := c.checkExprList(s.Values)
	frame := c.env.Frame()
	if frame == nil {
		return
	}
	if frame.DeclaredReturns != nil {
		if !types.SubSeq(seq, *frame.DeclaredReturns) {
			c.errorAt(diagnostics.ErrC010, s.Token,
				"the return sequence %s is not a subtype of the declared %s",
				seq.String(), frame.DeclaredReturns.String())
		}
		return
	}
	if frame.ActualReturns == nil {
		frame.ActualReturns = &seq
		return
	}
	merged := types.UnionSeq(*frame.ActualReturns, seq)
	frame.ActualReturns = &merged
}

// checkFunctionLiteral types a function body and produces its type.
// Unannotated parameters start as unresolved placeholders, frozen by the
// first call-site.
func (c *Checker) checkFunctionLiteral(fn *ast.FunctionLiteral, selfType types.Type) types.TFunc {
	var ft types.TFunc

	paramTypes := make([]types.Type, len(fn.Params))
	for i, p := range fn.Params {
		var annot *ast.SlotAnnot
		if i < len(fn.ParamAnnots) {
			annot = fn.ParamAnnots[i]
		}
		if annot != nil {
			paramTypes[i] = c.kindType(annot.Kind)
		} else {
			paramTypes[i] = c.freshPlaceholder(p.Value)
		}
	}
	ft.Params.Fixed = paramTypes
	if selfType != nil {
		// A method declaration takes its receiver as the leading
		// parameter; recv:m(args) supplies it implicitly.
		ft.Params.Fixed = append([]types.Type{selfType}, paramTypes...)
	}
	if fn.IsVararg {
		if fn.VarargAnnot != nil {
			ft.Params.Tail = c.kindType(fn.VarargAnnot)
		} else {
			ft.Params.Tail = types.Dynamic
		}
	}

	frame := &scope.Frame{}
	if fn.IsVararg {
		frame.Varargs = &types.Seq{Tail: ft.Params.Tail}
	}
	if fn.HasRetAnnot {
		var declared types.Seq
		for _, k := range fn.ReturnAnnot {
			declared.Fixed = append(declared.Fixed, c.kindType(k))
		}
		frame.DeclaredReturns = &declared
	}

	c.env.Push(scope.FunctionScope, frame)
	if selfType != nil {
		c.env.Declare("self", selfType, types.Currently, fn.Token)
	}
	for i, p := range fn.Params {
		c.env.Declare(p.Value, paramTypes[i], types.Currently, p.Token)
	}
	if fn.Body != nil {
		c.checkBlockStatements(fn.Body.Statements)
	}
	c.env.Pop()

	if frame.DeclaredReturns != nil {
		ft.Returns = *frame.DeclaredReturns
	} else if frame.ActualReturns != nil {
		ft.Returns = *frame.ActualReturns
	} else {
		ft.Returns = types.EmptySeq()
	}
	return ft
}
