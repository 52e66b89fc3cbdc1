package scope

import (
	"testing"

	"github.com/moonscope/moonscope/internal/token"
	"github.com/moonscope/moonscope/internal/types"
)

func newTestEnv() *Env {
	e := NewEnv()
	e.Push(ModuleScope, &Frame{})
	return e
}

func TestDeclareAndRead(t *testing.T) {
	e := newTestEnv()
	e.Declare("x", types.Integer, types.Currently, token.Token{})
	got, _, ok := e.Read("x")
	if !ok || got.String() != "integer" {
		t.Fatalf("Read(x) = %v, %v", got, ok)
	}
	if _, _, ok := e.Read("y"); ok {
		t.Fatalf("an undeclared name should not resolve")
	}
}

func TestScopeHygiene(t *testing.T) {
	e := newTestEnv()
	e.Push(BlockScope, nil)
	e.Declare("inner", types.String, types.Currently, token.Token{})
	if _, _, ok := e.Read("inner"); !ok {
		t.Fatalf("the name should be visible inside its block")
	}
	e.Pop()
	if _, _, ok := e.Read("inner"); ok {
		t.Fatalf("a name declared inside a block must not survive the block")
	}
}

func TestShadowing(t *testing.T) {
	e := newTestEnv()
	e.Declare("x", types.Integer, types.Currently, token.Token{})
	e.Push(BlockScope, nil)
	e.Declare("x", types.String, types.Currently, token.Token{})
	got, _, _ := e.Read("x")
	if got.String() != "string" {
		t.Fatalf("the inner declaration should shadow, got %s", got.String())
	}
	e.Pop()
	got, _, _ = e.Read("x")
	if got.String() != "integer" {
		t.Fatalf("the outer slot should be restored, got %s", got.String())
	}
}

func TestAssignVariance(t *testing.T) {
	e := newTestEnv()
	e.Declare("c", types.Integer, types.Const, token.Token{})
	if err := e.Assign("c", types.TIntLit{Value: 1}); err == nil {
		t.Fatalf("assigning to a const slot should fail")
	}

	e.Declare("v", types.Number, types.Var, token.Token{})
	if err := e.Assign("v", types.TIntLit{Value: 1}); err != nil {
		t.Fatalf("a subtype assignment to a var slot should pass: %v", err)
	}
	if err := e.Assign("v", types.String); err == nil {
		t.Fatalf("a non-subtype assignment to a var slot should fail")
	}

	e.Declare("f", types.Integer, types.Currently, token.Token{})
	if err := e.Assign("f", types.String); err != nil {
		t.Fatalf("a currently slot floats: %v", err)
	}
	got, _, _ := e.Read("f")
	if got.String() != "string" {
		t.Fatalf("the currently slot should have the new type, got %s", got.String())
	}
}

func TestNarrowingOverlay(t *testing.T) {
	e := newTestEnv()
	e.Declare("p", types.NewUnion(types.Integer, types.Nil), types.Currently, token.Token{})

	e.Push(BlockScope, nil)
	e.Narrow("p", types.Integer)
	got, _, _ := e.Read("p")
	if got.String() != "integer" {
		t.Fatalf("the overlay should win inside the branch, got %s", got.String())
	}
	e.Pop()

	got, _, _ = e.Read("p")
	if got.String() != "integer|nil" {
		t.Fatalf("narrowing must be discarded on pop, got %s", got.String())
	}
}

func TestNarrowingSkipsDynamic(t *testing.T) {
	e := newTestEnv()
	e.Declare("d", types.Dynamic, types.Currently, token.Token{})
	e.Narrow("d", types.Integer)
	got, _, _ := e.Read("d")
	if !types.IsDynamic(got) {
		t.Fatalf("WHATEVER slots are never narrowed, got %s", got.String())
	}
}

func TestAssignmentInvalidatesNarrowing(t *testing.T) {
	e := newTestEnv()
	e.Declare("p", types.NewUnion(types.Integer, types.Nil), types.Currently, token.Token{})
	e.Push(BlockScope, nil)
	e.Narrow("p", types.Integer)
	if err := e.Assign("p", types.Nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _, _ := e.Read("p")
	if got.String() != "nil" {
		t.Fatalf("assignment should drop the stale overlay, got %s", got.String())
	}
	e.Pop()
}

func TestGlobalTypeRedefinition(t *testing.T) {
	e := newTestEnv()
	if _, err := e.DeclareGlobal("g", types.Integer, types.Currently, true, token.Token{}); err != nil {
		t.Fatalf("first annotation: %v", err)
	}
	if _, err := e.DeclareGlobal("g", types.String, types.Currently, true, token.Token{}); err == nil {
		t.Fatalf("re-annotating a global's type should fail")
	}
	if _, err := e.DeclareGlobal("g", types.String, types.Currently, false, token.Token{}); err != nil {
		t.Fatalf("a plain assignment to an annotated global is not a redefinition: %v", err)
	}
}

func TestAliases(t *testing.T) {
	e := newTestEnv()
	if err := e.DefineAlias("Point", types.Integer); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := e.DefineAlias("Point", types.String); err == nil {
		t.Fatalf("alias redefinition should fail")
	}
	got, ok := e.ResolveAlias("Point")
	if !ok || got.String() != "integer" {
		t.Fatalf("ResolveAlias(Point) = %v, %v", got, ok)
	}

	e.Push(BlockScope, nil)
	if err := e.DefineAlias("Point", types.String); err != nil {
		t.Fatalf("shadowing an alias in an inner scope is allowed: %v", err)
	}
	e.Pop()
}

func TestVarargsScopedToFunction(t *testing.T) {
	e := newTestEnv()
	seq := types.Seq{Tail: types.String}
	e.Push(FunctionScope, &Frame{Varargs: &seq})
	if !e.InnermostFunctionHasVarargs() {
		t.Fatalf("the frame has varargs")
	}
	e.Push(FunctionScope, &Frame{})
	if e.InnermostFunctionHasVarargs() {
		t.Fatalf("a nested non-vararg function must not see the outer varargs")
	}
	e.Pop()
	e.Pop()
}
