package types

import (
	"strings"
	"testing"
)

func TestEmptyShapeAdaptation(t *testing.T) {
	// {} indexed by 1 becomes a tuple.
	s := NewEmptyShape()
	if err := s.Write(TIntLit{Value: 1}, Integer, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Kind != ShapeTuple {
		t.Fatalf("writing [1] to {} should produce a tuple, got kind %d", s.Kind)
	}

	// {} indexed by a string literal becomes a record.
	s = NewEmptyShape()
	if err := s.Write(TStrLit{Value: "x"}, String, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Kind != ShapeRecord {
		t.Fatalf("writing .x to {} should produce a record, got kind %d", s.Kind)
	}

	// {} indexed by an unknown integer becomes a map keyed by integer.
	s = NewEmptyShape()
	if err := s.Write(Integer, Bool, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Kind != ShapeMap || s.Key.String() != "integer" {
		t.Fatalf("writing an unknown integer key to {} should produce {[integer] = ...}")
	}
}

func TestRecordExtension(t *testing.T) {
	s := NewRecordShape()
	s.Put(StrKey("x"), NewFieldSlot(Integer, Currently))
	if err := s.Write(TStrLit{Value: "y"}, String, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	slot, ok := s.Field(StrKey("y"))
	if !ok || slot.Current.String() != "string" {
		t.Fatalf("the record should have gained a y slot")
	}
}

func TestVarShapeRejectsAdaptation(t *testing.T) {
	// A shape held in a Var slot is fixed: adaptation must fail.
	s := NewArrayShape(NewFieldSlot(Number, Var))
	if err := s.Write(TIntLit{Value: 1}, TIntLit{Value: 42}, false); err != nil {
		t.Fatalf("writing an in-schema integer key should be fine: %v", err)
	}
	err := s.Write(TStrLit{Value: "what"}, TIntLit{Value: 54}, false)
	if err == nil || !strings.Contains(err.Error(), "cannot adapt") {
		t.Fatalf("adapting a fixed shape should fail, got %v", err)
	}
	if s.Kind != ShapeArray {
		t.Fatalf("a failed adaptation must leave the shape unchanged")
	}
}

func TestWidenToMap(t *testing.T) {
	s := NewArrayShape(NewFieldSlot(Number, Currently))
	if err := s.Write(TStrLit{Value: "k"}, String, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Kind != ShapeMap {
		t.Fatalf("an array admitting a string key should widen to a map")
	}
	if s.Key.String() != "integer|string" {
		t.Fatalf("the widened key type should be integer|string, got %s", s.Key.String())
	}
}

func TestMapReadsIncludeNil(t *testing.T) {
	s := NewMapShape(String, NewFieldSlot(Integer, Currently))
	got, err := s.Read(String)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.String() != "integer|nil" {
		t.Fatalf("map reads should include nil, got %s", got.String())
	}
}

func TestMapNilWriteIsDelete(t *testing.T) {
	s := NewMapShape(String, NewFieldSlot(Integer, Var))
	if err := s.Write(TStrLit{Value: "k"}, Nil, false); err != nil {
		t.Fatalf("writing nil to a map deletes and is always admitted: %v", err)
	}
	if err := s.Write(TStrLit{Value: "k"}, String, false); err == nil {
		t.Fatalf("a var map slot should reject a non-subtype write")
	}
}

func TestConstSlotRejectsWrites(t *testing.T) {
	s := NewRecordShape()
	s.Put(StrKey("x"), NewFieldSlot(Integer, Const))
	if err := s.Write(TStrLit{Value: "x"}, TIntLit{Value: 1}, true); err == nil {
		t.Fatalf("a const slot must reject writes")
	}
}

func TestUnresolvedRecordKey(t *testing.T) {
	s := NewRecordShape()
	s.Put(StrKey("x"), NewFieldSlot(Integer, Currently))
	s.Put(StrKey("y"), NewFieldSlot(Integer, Currently))
	if _, err := s.Read(String); err == nil {
		t.Fatalf("an unresolved string key on a multi-slot record should fail")
	}

	single := NewRecordShape()
	single.Put(StrKey("only"), NewFieldSlot(Integer, Currently))
	got, err := single.Read(String)
	if err != nil {
		t.Fatalf("a singleton record slot admits an unresolved key of its kind: %v", err)
	}
	if got.String() != "integer|nil" {
		t.Fatalf("the unresolved read should include nil, got %s", got.String())
	}
}
