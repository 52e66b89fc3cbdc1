package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Variance governs whether and how a slot's type may change after
// declaration.
type Variance int

const (
	// Currently: mutable, and the type floats with each assignment.
	Currently Variance = iota
	// Const: read-only; writes are errors.
	Const
	// Var: mutable, but the type is fixed at declaration; assignments
	// must be subtypes.
	Var
)

func (v Variance) String() string {
	switch v {
	case Const:
		return "const"
	case Var:
		return "var"
	default:
		return "currently"
	}
}

// Key is a statically-known table key: a string or an integer literal.
type Key struct {
	IsInt bool
	Int   int64
	Str   string
}

func IntKey(i int64) Key  { return Key{IsInt: true, Int: i} }
func StrKey(s string) Key { return Key{Str: s} }

func (k Key) String() string {
	if k.IsInt {
		return strconv.FormatInt(k.Int, 10)
	}
	return k.Str
}

// FieldSlot is one mutable slot of a shape, tracking the declared type,
// the currently-known type, and the variance tag. For Var slots Current
// always equals Declared; for Const slots both are fixed.
type FieldSlot struct {
	Declared Type
	Current  Type
	Variance Variance
}

// NewFieldSlot creates a slot whose current type starts at its declared
// type.
func NewFieldSlot(declared Type, v Variance) *FieldSlot {
	return &FieldSlot{Declared: declared, Current: declared, Variance: v}
}

// ShapeKind discriminates the five table shapes.
type ShapeKind int

const (
	ShapeEmpty ShapeKind = iota
	ShapeRecord
	ShapeTuple
	ShapeMap
	ShapeArray
)

// Shape is the mutable structural description of one table value. Shapes
// are reference-identified: the *Shape pointer is the identity, and
// adaptation mutates the shape in place. A shape is never shared across
// distinct table values.
type Shape struct {
	Kind   ShapeKind
	Fields map[Key]*FieldSlot // Record and Tuple slots
	Order  []Key              // insertion order, for deterministic display
	Key    Type               // Map key type
	Elem   *FieldSlot         // Map and Array value slot
}

// NewEmptyShape creates the {} shape with no keys known.
func NewEmptyShape() *Shape {
	return &Shape{Kind: ShapeEmpty}
}

// NewRecordShape creates a record shape with no fields; Put adds them in
// order.
func NewRecordShape() *Shape {
	return &Shape{Kind: ShapeRecord, Fields: make(map[Key]*FieldSlot)}
}

// NewTupleShape creates a tuple shape keyed 1..k.
func NewTupleShape() *Shape {
	return &Shape{Kind: ShapeTuple, Fields: make(map[Key]*FieldSlot)}
}

// NewMapShape creates the homogeneous {[K]=V} shape.
func NewMapShape(key Type, elem *FieldSlot) *Shape {
	return &Shape{Kind: ShapeMap, Key: key, Elem: elem}
}

// NewArrayShape creates the {V} shape, equivalent to a map from integer
// but with a richer adaptation rule.
func NewArrayShape(elem *FieldSlot) *Shape {
	return &Shape{Kind: ShapeArray, Elem: elem}
}

// Put inserts or replaces a field slot, maintaining insertion order.
func (s *Shape) Put(k Key, slot *FieldSlot) {
	if s.Fields == nil {
		s.Fields = make(map[Key]*FieldSlot)
	}
	if _, exists := s.Fields[k]; !exists {
		s.Order = append(s.Order, k)
	}
	s.Fields[k] = slot
}

// Field returns the slot for a key, if known.
func (s *Shape) Field(k Key) (*FieldSlot, bool) {
	slot, ok := s.Fields[k]
	return slot, ok
}

func (s *Shape) String() string {
	// A slot whose type has not been set yet renders as "?".
	show := func(t Type) string {
		if t == nil {
			return "?"
		}
		return t.String()
	}
	switch s.Kind {
	case ShapeEmpty:
		return "{}"
	case ShapeMap:
		return fmt.Sprintf("{[%s] = %s}", s.Key.String(), show(s.Elem.Current))
	case ShapeArray:
		return fmt.Sprintf("{%s}", show(s.Elem.Current))
	case ShapeTuple:
		parts := make([]string, 0, len(s.Order))
		for _, k := range s.Order {
			parts = append(parts, show(s.Fields[k].Current))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		parts := make([]string, 0, len(s.Order))
		for _, k := range s.Order {
			slot := s.Fields[k]
			if k.IsInt {
				parts = append(parts, fmt.Sprintf("[%d] = %s", k.Int, show(slot.Current)))
			} else {
				parts = append(parts, fmt.Sprintf("%s = %s", k.Str, show(slot.Current)))
			}
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
}
