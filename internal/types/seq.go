package types

import "strings"

// Seq is a sequence type: the type of a multi-valued expression or of a
// function's parameters or returns. It has fixed positional types plus an
// optional variadic tail.
type Seq struct {
	Fixed []Type
	Tail  Type // nil when the sequence is not variadic
}

// SeqOf builds a fixed-arity sequence.
func SeqOf(ts ...Type) Seq { return Seq{Fixed: ts} }

// SingleSeq wraps one type as a one-valued sequence.
func SingleSeq(t Type) Seq { return Seq{Fixed: []Type{t}} }

// EmptySeq is the sequence of no values.
func EmptySeq() Seq { return Seq{} }

// DynamicSeq is the fully unconstrained sequence: any number of WHATEVER.
func DynamicSeq() Seq { return Seq{Tail: Dynamic} }

// First is the type of the sequence when used in a single-value context:
// the first position, or nil-the-type when the sequence is empty.
func (s Seq) First() Type { return s.At(0) }

// At returns the type at position i, adapting the sequence to a fixed
// arity: positions past the fixed part take the variadic tail joined with
// nil (absence is possible), or plain nil when there is no tail.
func (s Seq) At(i int) Type {
	if i < len(s.Fixed) {
		return s.Fixed[i]
	}
	if s.Tail != nil {
		if IsDynamic(s.Tail) {
			return Dynamic
		}
		return NewUnion(s.Tail, Nil)
	}
	return Nil
}

// Len is the fixed arity of the sequence.
func (s Seq) Len() int { return len(s.Fixed) }

// IsVariadic reports whether the sequence has a tail.
func (s Seq) IsVariadic() bool { return s.Tail != nil }

func (s Seq) String() string {
	parts := make([]string, 0, len(s.Fixed)+1)
	for _, t := range s.Fixed {
		parts = append(parts, t.String())
	}
	if s.Tail != nil {
		parts = append(parts, s.Tail.String()+"...")
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// SubSeq decides sequence subtyping: every position of s must be a subtype
// of the corresponding position of u, with missing positions padded by nil
// on both sides, and variadic tails compared by element type.
func SubSeq(s, u Seq) bool {
	n := len(s.Fixed)
	if len(u.Fixed) > n {
		n = len(u.Fixed)
	}
	for i := 0; i < n; i++ {
		if !Subtype(s.At(i), u.At(i)) {
			return false
		}
	}
	if u.Tail != nil && s.Tail != nil {
		return Subtype(s.Tail, u.Tail)
	}
	if s.Tail != nil && u.Tail == nil {
		// Extra values are discarded when adapting to a fixed arity.
		return true
	}
	return true
}

// UnionSeq merges two sequences position-wise; the result's arity is the
// longer of the two, with the shorter padded by nil.
func UnionSeq(a, b Seq) Seq {
	n := len(a.Fixed)
	if len(b.Fixed) > n {
		n = len(b.Fixed)
	}
	fixed := make([]Type, n)
	for i := 0; i < n; i++ {
		fixed[i] = NewUnion(a.At(i), b.At(i))
	}
	var tail Type
	switch {
	case a.Tail != nil && b.Tail != nil:
		tail = NewUnion(a.Tail, b.Tail)
	case a.Tail != nil:
		tail = a.Tail
	case b.Tail != nil:
		tail = b.Tail
	}
	return Seq{Fixed: fixed, Tail: tail}
}
