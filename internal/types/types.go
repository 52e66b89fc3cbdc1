package types

import (
	"fmt"
	"strconv"
)

// Type is the interface for all types in the lattice.
type Type interface {
	String() string
	typ()
}

// Attr tags a function type with a checker-recognised builtin behaviour.
// Attributes never affect subtyping; they only drive the expression and
// statement checkers (require resolution, assertion narrowing, type tests).
type Attr int

const (
	AttrNone Attr = iota
	AttrRequire
	AttrAssert
	AttrAssertNot
	AttrAssertType
	AttrTypeof
)

var attrNames = map[string]Attr{
	"require":     AttrRequire,
	"assert":      AttrAssert,
	"assert-not":  AttrAssertNot,
	"assert-type": AttrAssertType,
	"type":        AttrTypeof,
}

// LookupAttr maps an annotation attribute name to its tag.
func LookupAttr(name string) (Attr, bool) {
	a, ok := attrNames[name]
	return a, ok
}

// TDynamic is the gradual-typing escape hatch: it accepts and produces
// every operation without constraint.
type TDynamic struct{}

// TNil is the unit/absent value.
type TNil struct{}

// TBool is all booleans.
type TBool struct{}

// TBoolLit is the singleton true or false.
type TBoolLit struct{ Value bool }

// TNumber is all numbers.
type TNumber struct{}

// TInteger is integral numbers, a subtype of TNumber.
type TInteger struct{}

// TIntLit is a singleton integer.
type TIntLit struct{ Value int64 }

// TString is all strings.
type TString struct{}

// TStrLit is a singleton string.
type TStrLit struct{ Value string }

// TTableAny is the opaque `table` top. It admits no indexing without an
// explicit downcast.
type TTableAny struct{}

// TFuncAny is the opaque `function` top.
type TFuncAny struct{}

// TTable is a table value with a concrete shape. The shape pointer is the
// identity: two types naming the same *Shape observe the same mutations.
type TTable struct{ Shape *Shape }

// TFunc is a function type with a positional parameter sequence, an
// optional variadic tail inside Params, and a return sequence.
type TFunc struct {
	Params  Seq
	Returns Seq
	Attr    Attr
}

// TUnion is a canonical union: at least two members, none of which is
// itself a union or Dynamic. Construct only through NewUnion.
type TUnion struct{ Types []Type }

// TPlaceholder is the unresolved type of an unannotated function
// parameter. The first call-site binds it, after which it is frozen.
// Always used by pointer so the binding is shared.
type TPlaceholder struct {
	Name  string
	Bound Type
}

func (TDynamic) typ()      {}
func (TNil) typ()          {}
func (TBool) typ()         {}
func (TBoolLit) typ()      {}
func (TNumber) typ()       {}
func (TInteger) typ()      {}
func (TIntLit) typ()       {}
func (TString) typ()       {}
func (TStrLit) typ()       {}
func (TTableAny) typ()     {}
func (TFuncAny) typ()      {}
func (TTable) typ()        {}
func (TFunc) typ()         {}
func (TUnion) typ()        {}
func (*TPlaceholder) typ() {}

// Singleton instances for the unparameterised variants.
var (
	Dynamic  = TDynamic{}
	Nil      = TNil{}
	Bool     = TBool{}
	True     = TBoolLit{Value: true}
	False    = TBoolLit{Value: false}
	Number   = TNumber{}
	Integer  = TInteger{}
	String   = TString{}
	TableAny = TTableAny{}
	FuncAny  = TFuncAny{}
)

func (TDynamic) String() string  { return "WHATEVER" }
func (TNil) String() string      { return "nil" }
func (TBool) String() string     { return "boolean" }
func (TNumber) String() string   { return "number" }
func (TInteger) String() string  { return "integer" }
func (TString) String() string   { return "string" }
func (TTableAny) String() string { return "table" }
func (TFuncAny) String() string  { return "function" }

func (t TBoolLit) String() string {
	if t.Value {
		return "true"
	}
	return "false"
}

func (t TIntLit) String() string { return strconv.FormatInt(t.Value, 10) }

func (t TStrLit) String() string { return strconv.Quote(t.Value) }

func (t TTable) String() string {
	if t.Shape == nil {
		return "{}"
	}
	return t.Shape.String()
}

func (t TFunc) String() string {
	return fmt.Sprintf("function%s -> %s", t.Params.String(), t.Returns.String())
}

func (t TUnion) String() string {
	s := ""
	for i, m := range t.Types {
		if i > 0 {
			s += "|"
		}
		s += m.String()
	}
	return s
}

func (t *TPlaceholder) String() string {
	if t.Bound != nil {
		return t.Bound.String()
	}
	return "<unresolved " + t.Name + ">"
}

// Bind freezes an unresolved placeholder to its first observed type.
// Binding an already-bound placeholder is a checker bug.
func (t *TPlaceholder) Bind(to Type) {
	if t.Bound != nil {
		panic("placeholder bound twice")
	}
	t.Bound = to
}

// Resolve follows a bound placeholder to its frozen type; all other types
// resolve to themselves.
func Resolve(t Type) Type {
	if p, ok := t.(*TPlaceholder); ok && p.Bound != nil {
		return Resolve(p.Bound)
	}
	return t
}

// IsDynamic reports whether t is the DYNAMIC type.
func IsDynamic(t Type) bool {
	_, ok := Resolve(t).(TDynamic)
	return ok
}

// IsUnresolved reports whether t contains an unbound placeholder anywhere.
func IsUnresolved(t Type) bool {
	switch t := Resolve(t).(type) {
	case *TPlaceholder:
		return t.Bound == nil
	case TUnion:
		for _, m := range t.Types {
			if IsUnresolved(m) {
				return true
			}
		}
	case TFunc:
		for _, p := range t.Params.Fixed {
			if IsUnresolved(p) {
				return true
			}
		}
		if t.Params.Tail != nil && IsUnresolved(t.Params.Tail) {
			return true
		}
		for _, r := range t.Returns.Fixed {
			if IsUnresolved(r) {
				return true
			}
		}
		if t.Returns.Tail != nil && IsUnresolved(t.Returns.Tail) {
			return true
		}
	case TTable:
		if t.Shape == nil {
			return false
		}
		for _, k := range t.Shape.Order {
			if IsUnresolved(t.Shape.Fields[k].Current) {
				return true
			}
		}
		if t.Shape.Key != nil && IsUnresolved(t.Shape.Key) {
			return true
		}
		if t.Shape.Elem != nil && IsUnresolved(t.Shape.Elem.Current) {
			return true
		}
	}
	return false
}

// Broaden returns the base kind of a literal type: IntLit -> integer,
// StrLit -> string, BoolLit -> boolean. Non-literals broaden to themselves.
func Broaden(t Type) Type {
	switch t := Resolve(t).(type) {
	case TIntLit:
		return Integer
	case TStrLit:
		return String
	case TBoolLit:
		return Bool
	case TUnion:
		broadened := make([]Type, len(t.Types))
		for i, m := range t.Types {
			broadened[i] = Broaden(m)
		}
		return NewUnion(broadened...)
	default:
		return t
	}
}

// Truthy splits off the part of t that can drive a conditional into its
// taken branch: nil and false are removed.
func Truthy(t Type) Type {
	switch t := Resolve(t).(type) {
	case TNil:
		return nil
	case TBoolLit:
		if !t.Value {
			return nil
		}
		return t
	case TBool:
		return True
	case TUnion:
		var kept []Type
		for _, m := range t.Types {
			if tr := Truthy(m); tr != nil {
				kept = append(kept, tr)
			}
		}
		if len(kept) == 0 {
			return nil
		}
		return NewUnion(kept...)
	default:
		return t
	}
}

// Falsy is the complement of Truthy: the part of t that fails a
// conditional. Only nil and false are falsy in the source language.
func Falsy(t Type) Type {
	switch t := Resolve(t).(type) {
	case TNil:
		return t
	case TBoolLit:
		if !t.Value {
			return t
		}
		return nil
	case TBool:
		return False
	case TUnion:
		var kept []Type
		for _, m := range t.Types {
			if f := Falsy(m); f != nil {
				kept = append(kept, f)
			}
		}
		if len(kept) == 0 {
			return nil
		}
		return NewUnion(kept...)
	case TDynamic:
		return t
	default:
		return nil
	}
}
