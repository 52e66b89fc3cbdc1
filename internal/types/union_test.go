package types

import "testing"

func TestUnionCanonicalisation(t *testing.T) {
	cases := []struct {
		name string
		got  Type
		want string
	}{
		{"flattens nested unions", NewUnion(NewUnion(Integer, String), Nil), "integer|nil|string"},
		{"collapses on WHATEVER", NewUnion(Integer, Dynamic), "WHATEVER"},
		{"subsumes literals", NewUnion(TIntLit{Value: 3}, Integer), "integer"},
		{"subsumes narrower kinds", NewUnion(Integer, Number), "number"},
		{"true and false make boolean", NewUnion(True, False), "boolean"},
		{"dedupes", NewUnion(String, String), "string"},
		{"singleton unwraps", NewUnion(Integer), "integer"},
		{"keeps distinct literals", NewUnion(TIntLit{Value: 1}, TIntLit{Value: 2}), "1|2"},
	}
	for _, c := range cases {
		if c.got.String() != c.want {
			t.Errorf("%s: got %s, want %s", c.name, c.got.String(), c.want)
		}
	}
}

func TestUnionKeepsDistinctShapes(t *testing.T) {
	a := TTable{Shape: NewEmptyShape()}
	b := TTable{Shape: NewEmptyShape()}
	u, ok := NewUnion(a, b).(TUnion)
	if !ok || len(u.Types) != 2 {
		t.Fatalf("two distinct table values must not collapse in a union")
	}
	if single, ok := NewUnion(a, a).(TTable); !ok || single.Shape != a.Shape {
		t.Errorf("the same table value should dedupe")
	}
}

func TestWithoutNil(t *testing.T) {
	u := NewUnion(Integer, Nil)
	if got := WithoutNil(u).String(); got != "integer" {
		t.Errorf("WithoutNil(integer|nil) = %s, want integer", got)
	}
	if got := WithoutNil(String).String(); got != "string" {
		t.Errorf("WithoutNil(string) = %s, want string", got)
	}
}

func TestIntersect(t *testing.T) {
	u := NewUnion(Integer, String, Nil)
	if got := Intersect(u, Number); got == nil || got.String() != "integer" {
		t.Errorf("Intersect(integer|string|nil, number) should keep integer, got %v", got)
	}
	if got := Intersect(Bool, Number); got != nil {
		t.Errorf("disjoint types should intersect to nothing, got %s", got.String())
	}
	if got := Intersect(Dynamic, Number); !IsDynamic(got) {
		t.Errorf("WHATEVER should be untouched by intersection")
	}
}

func TestTruthyFalsy(t *testing.T) {
	u := NewUnion(Integer, Nil, False)
	if got := Truthy(u); got == nil || got.String() != "integer" {
		t.Errorf("Truthy(integer|nil|false) should be integer, got %v", got)
	}
	f := Falsy(u)
	if f == nil || f.String() != "false|nil" {
		t.Errorf("Falsy(integer|nil|false) should be false|nil, got %v", f)
	}
	if Truthy(Nil) != nil {
		t.Errorf("nil has no truthy part")
	}
	if Falsy(Integer) != nil {
		t.Errorf("integer has no falsy part")
	}
	if got := Truthy(Bool); got == nil || got.String() != "true" {
		t.Errorf("Truthy(boolean) should be true, got %v", got)
	}
}

func TestBroaden(t *testing.T) {
	if Broaden(TIntLit{Value: 3}).String() != "integer" {
		t.Errorf("an integer literal broadens to integer")
	}
	if Broaden(TStrLit{Value: "a"}).String() != "string" {
		t.Errorf("a string literal broadens to string")
	}
	if Broaden(NewUnion(TIntLit{Value: 3}, Nil)).String() != "integer|nil" {
		t.Errorf("broadening distributes over unions")
	}
}
