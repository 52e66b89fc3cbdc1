package types

import "testing"

func TestReflexivity(t *testing.T) {
	shape := NewRecordShape()
	shape.Put(StrKey("x"), NewFieldSlot(Integer, Var))

	cases := []Type{
		Dynamic, Nil, Bool, True, False, Number, Integer, String,
		TIntLit{Value: 3}, TStrLit{Value: "a"}, TableAny, FuncAny,
		TTable{Shape: shape},
		TFunc{Params: SeqOf(Integer), Returns: SeqOf(String)},
	}
	for _, c := range cases {
		if !Subtype(c, c) {
			t.Errorf("%s should be a subtype of itself", c.String())
		}
	}
}

func TestLiteralRefinement(t *testing.T) {
	cases := []struct {
		sub, super Type
		want       bool
	}{
		{TIntLit{Value: 3}, Integer, true},
		{TIntLit{Value: 3}, Number, true},
		{Integer, Number, true},
		{Number, Integer, false},
		{TStrLit{Value: "a"}, String, true},
		{String, TStrLit{Value: "a"}, false},
		{True, Bool, true},
		{Bool, True, false},
		{TIntLit{Value: 3}, TIntLit{Value: 4}, false},
		{Nil, Bool, false},
	}
	for _, c := range cases {
		if got := Subtype(c.sub, c.super); got != c.want {
			t.Errorf("Subtype(%s, %s) = %v, want %v", c.sub.String(), c.super.String(), got, c.want)
		}
	}
}

func TestDynamicTransparency(t *testing.T) {
	for _, c := range []Type{Nil, Integer, String, TableAny, FuncAny} {
		if !Subtype(c, Dynamic) {
			t.Errorf("%s should be a subtype of WHATEVER", c.String())
		}
		if !Subtype(Dynamic, c) {
			t.Errorf("WHATEVER should be a subtype of %s", c.String())
		}
	}
}

func TestUnionAbsorption(t *testing.T) {
	u := NewUnion(Integer, String)
	if !Subtype(Integer, u) {
		t.Errorf("integer should fit integer|string")
	}
	if !Subtype(TIntLit{Value: 5}, u) {
		t.Errorf("an integer literal should fit integer|string")
	}
	if Subtype(Bool, u) {
		t.Errorf("boolean should not fit integer|string")
	}
	if !Subtype(u, NewUnion(Number, String)) {
		t.Errorf("integer|string should fit number|string")
	}
	if Subtype(NewUnion(Number, String), Number) {
		t.Errorf("number|string should not fit number")
	}
}

func TestOpaqueTops(t *testing.T) {
	tbl := TTable{Shape: NewEmptyShape()}
	fn := TFunc{Returns: EmptySeq()}
	if !Subtype(tbl, TableAny) {
		t.Errorf("a concrete table should fit the opaque table top")
	}
	if Subtype(TableAny, tbl) {
		t.Errorf("the opaque table top requires a downcast to a concrete shape")
	}
	if !Subtype(fn, FuncAny) {
		t.Errorf("a concrete function should fit the opaque function top")
	}
	if Subtype(FuncAny, fn) {
		t.Errorf("the opaque function top requires a downcast")
	}
	if Subtype(TableAny, FuncAny) {
		t.Errorf("table and function tops are unrelated")
	}
}

func TestFunctionVariance(t *testing.T) {
	// Parameters are contravariant, returns covariant.
	f1 := TFunc{Params: SeqOf(Number), Returns: SeqOf(Integer)}
	f2 := TFunc{Params: SeqOf(Integer), Returns: SeqOf(Number)}
	if !Subtype(f1, f2) {
		t.Errorf("function(number) -> integer should fit function(integer) -> number")
	}
	if Subtype(f2, f1) {
		t.Errorf("function(integer) -> number should not fit function(number) -> integer")
	}
}

func TestRecordWidthSubtyping(t *testing.T) {
	wide := NewRecordShape()
	wide.Put(StrKey("x"), NewFieldSlot(Integer, Const))
	wide.Put(StrKey("y"), NewFieldSlot(String, Const))
	narrow := NewRecordShape()
	narrow.Put(StrKey("x"), NewFieldSlot(Number, Const))

	if !Subtype(TTable{Shape: wide}, TTable{Shape: narrow}) {
		t.Errorf("a wider record with covariant const slots should fit a narrower one")
	}
	if Subtype(TTable{Shape: narrow}, TTable{Shape: wide}) {
		t.Errorf("a record missing a non-nil slot should not fit")
	}
}

func TestVarSlotInvariance(t *testing.T) {
	a := NewRecordShape()
	a.Put(StrKey("x"), NewFieldSlot(Integer, Var))
	b := NewRecordShape()
	b.Put(StrKey("x"), NewFieldSlot(Number, Var))

	if Subtype(TTable{Shape: a}, TTable{Shape: b}) {
		t.Errorf("a var slot requires invariant types")
	}
	c := NewRecordShape()
	c.Put(StrKey("x"), NewFieldSlot(Integer, Var))
	if !Subtype(TTable{Shape: a}, TTable{Shape: c}) {
		t.Errorf("var slots with equal types should fit")
	}
}

func TestMapKeyContravariance(t *testing.T) {
	broad := NewMapShape(NewUnion(Integer, String), NewFieldSlot(Number, Const))
	narrow := NewMapShape(Integer, NewFieldSlot(Number, Const))
	if !Subtype(TTable{Shape: broad}, TTable{Shape: narrow}) {
		t.Errorf("a map accepting broader keys should stand in for a narrower one")
	}
	if Subtype(TTable{Shape: narrow}, TTable{Shape: broad}) {
		t.Errorf("a map accepting only integer keys cannot serve string keys")
	}
}

func TestCyclicShapeTermination(t *testing.T) {
	// node = {next = node|nil}
	a := NewRecordShape()
	a.Put(StrKey("next"), NewFieldSlot(nil, Const))
	ta := TTable{Shape: a}
	a.Fields[StrKey("next")].Declared = NewUnion(ta, Nil)
	a.Fields[StrKey("next")].Current = a.Fields[StrKey("next")].Declared

	b := NewRecordShape()
	b.Put(StrKey("next"), NewFieldSlot(nil, Const))
	tb := TTable{Shape: b}
	b.Fields[StrKey("next")].Declared = NewUnion(tb, Nil)
	b.Fields[StrKey("next")].Current = b.Fields[StrKey("next")].Declared

	// The check must terminate; with in-flight pairs assumed equal the
	// two cyclic shapes are mutual subtypes.
	if !Subtype(ta, tb) || !Subtype(tb, ta) {
		t.Errorf("structurally equal cyclic shapes should be mutual subtypes")
	}
}

func TestEqualIsMutualSubtyping(t *testing.T) {
	if !Equal(NewUnion(Integer, String), NewUnion(String, Integer)) {
		t.Errorf("union order should not matter for equivalence")
	}
	if Equal(Integer, Number) {
		t.Errorf("integer and number are not equivalent")
	}
}
