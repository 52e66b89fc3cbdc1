package types

import "fmt"

// keyClass classifies an index key for shape resolution.
type keyClass int

const (
	keyIntLit keyClass = iota
	keyStrLit
	keyInt // integer-like, value unknown
	keyStr // string-like, value unknown
	keyDyn
	keyBad
)

func classifyKey(t Type) (keyClass, Key) {
	switch t := Resolve(t).(type) {
	case TIntLit:
		return keyIntLit, IntKey(t.Value)
	case TStrLit:
		return keyStrLit, StrKey(t.Value)
	case TInteger, TNumber:
		return keyInt, Key{}
	case TString:
		return keyStr, Key{}
	case TDynamic:
		return keyDyn, Key{}
	default:
		return keyBad, Key{}
	}
}

// Read resolves the type of reading this shape with a key of the given
// type. Reads never adapt the shape. Reads from maps and arrays yield the
// value type joined with nil, because absence is always possible.
func (s *Shape) Read(key Type) (Type, error) {
	class, k := classifyKey(key)
	if class == keyBad {
		return nil, fmt.Errorf("cannot index a table with a key of the type %s", key.String())
	}
	if class == keyDyn {
		return Dynamic, nil
	}

	switch s.Kind {
	case ShapeEmpty:
		return Nil, nil

	case ShapeRecord, ShapeTuple:
		switch class {
		case keyIntLit, keyStrLit:
			if slot, ok := s.Field(k); ok {
				return slot.Current, nil
			}
			return Nil, nil
		default:
			// An unresolved key can still be admitted when the slot set
			// is a singleton of the matching key kind.
			if len(s.Order) == 1 && s.Order[0].IsInt == (class == keyInt) {
				return NewUnion(s.Fields[s.Order[0]].Current, Nil), nil
			}
			return nil, fmt.Errorf("cannot index the table %s with a key that cannot be resolved at check time", s.String())
		}

	case ShapeArray:
		if class == keyStrLit || class == keyStr {
			return nil, fmt.Errorf("cannot index the array %s with a string key", s.String())
		}
		return NewUnion(s.Elem.Current, Nil), nil

	case ShapeMap:
		if !Subtype(key, s.Key) {
			return nil, fmt.Errorf("the key type %s is not a subtype of the map key type %s",
				key.String(), s.Key.String())
		}
		return NewUnion(s.Elem.Current, Nil), nil
	}
	return nil, fmt.Errorf("cannot index the table %s", s.String())
}

// Write checks an assignment through this shape with the given key and
// value types, adapting the shape in place where the rules allow it.
// Adaptation is forbidden when adaptable is false (the table is held in a
// Var slot and its shape was fixed at declaration).
func (s *Shape) Write(key, val Type, adaptable bool) error {
	class, k := classifyKey(key)
	if class == keyBad {
		return fmt.Errorf("cannot index a table with a key of the type %s", key.String())
	}
	if class == keyDyn {
		return nil
	}

	switch s.Kind {
	case ShapeEmpty:
		if !adaptable {
			return fmt.Errorf("cannot adapt the table %s to admit the key %s", s.String(), key.String())
		}
		switch class {
		case keyIntLit:
			s.Kind = ShapeTuple
			if !k.IsInt || k.Int != 1 {
				s.Kind = ShapeRecord
			}
			s.Put(k, NewFieldSlot(val, Currently))
		case keyStrLit:
			s.Kind = ShapeRecord
			s.Put(k, NewFieldSlot(val, Currently))
		case keyInt:
			s.Kind = ShapeMap
			s.Key = Integer
			s.Elem = NewFieldSlot(val, Currently)
		case keyStr:
			s.Kind = ShapeMap
			s.Key = String
			s.Elem = NewFieldSlot(val, Currently)
		}
		return nil

	case ShapeRecord, ShapeTuple:
		switch class {
		case keyIntLit, keyStrLit:
			if slot, ok := s.Field(k); ok {
				return writeSlot(slot, val)
			}
			if !adaptable {
				return fmt.Errorf("cannot adapt the table %s to admit the key %s", s.String(), key.String())
			}
			if s.Kind == ShapeTuple && !k.IsInt {
				s.Kind = ShapeRecord
			}
			s.Put(k, NewFieldSlot(val, Currently))
			return nil
		default:
			// Admitting an unresolved key homogenises the shape into a map.
			if !adaptable {
				return fmt.Errorf("cannot adapt the table %s to admit the key %s", s.String(), key.String())
			}
			s.widenToMap(class, val)
			return nil
		}

	case ShapeArray:
		switch class {
		case keyIntLit, keyInt:
			return writeElem(s.Elem, val)
		default:
			if !adaptable {
				return fmt.Errorf("cannot adapt the table %s to admit the key %s", s.String(), key.String())
			}
			s.widenToMap(class, val)
			return nil
		}

	case ShapeMap:
		// Writing nil under a key the map admits is a delete and is
		// admitted whatever the element slot's variance.
		if Subtype(key, s.Key) {
			if _, isNil := Resolve(val).(TNil); isNil {
				return nil
			}
			return writeElem(s.Elem, val)
		}
		if !adaptable {
			return fmt.Errorf("cannot adapt the table %s to admit the key %s", s.String(), key.String())
		}
		s.Key = NewUnion(s.Key, Broaden(key))
		return writeElem(s.Elem, val)
	}
	return fmt.Errorf("cannot index the table %s", s.String())
}

// widenToMap converts a record, tuple or array into a map admitting both
// the existing keys and the incoming key's kind (integer for an unresolved
// integer key, string otherwise).
func (s *Shape) widenToMap(incoming keyClass, val Type) {
	keys := make([]Type, 0, 2)
	vals := []Type{val}

	switch s.Kind {
	case ShapeRecord, ShapeTuple:
		for _, k := range s.Order {
			if k.IsInt {
				keys = append(keys, Integer)
			} else {
				keys = append(keys, String)
			}
			vals = append(vals, s.Fields[k].Current)
		}
	case ShapeArray:
		keys = append(keys, Integer)
		vals = append(vals, s.Elem.Current)
	}
	if incoming == keyInt {
		keys = append(keys, Integer)
	} else {
		keys = append(keys, String)
	}

	s.Kind = ShapeMap
	s.Fields = nil
	s.Order = nil
	s.Key = NewUnion(keys...)
	s.Elem = NewFieldSlot(NewUnion(vals...), Currently)
}

// writeSlot applies the per-variance assignment rule to a record or tuple
// slot.
func writeSlot(slot *FieldSlot, val Type) error {
	switch slot.Variance {
	case Const:
		return fmt.Errorf("cannot assign to a const slot of the type %s", slot.Declared.String())
	case Var:
		if !Subtype(val, slot.Declared) {
			return fmt.Errorf("the type %s is not a subtype of %s", val.String(), slot.Declared.String())
		}
		return nil
	default:
		slot.Current = val
		return nil
	}
}

// writeElem applies the assignment rule to a homogeneous (map or array)
// value slot. A Currently element slot joins, rather than replaces, its
// type: other elements written earlier keep their own types.
func writeElem(slot *FieldSlot, val Type) error {
	switch slot.Variance {
	case Const:
		return fmt.Errorf("cannot assign to a const slot of the type %s", slot.Declared.String())
	case Var:
		if !Subtype(val, slot.Declared) {
			return fmt.Errorf("the type %s is not a subtype of %s", val.String(), slot.Declared.String())
		}
		return nil
	default:
		slot.Current = NewUnion(slot.Current, val)
		return nil
	}
}
