package scope

import (
	"fmt"

	"github.com/moonscope/moonscope/internal/token"
	"github.com/moonscope/moonscope/internal/types"
)

// Slot is an environment entry: a variable together with its declared
// type, its currently-known type, and the variance tag fixed at
// declaration.
type Slot struct {
	Name     string
	Declared types.Type
	Current  types.Type
	Variance types.Variance
	Global   bool
	// DeclTok points at the declaration site, for "originates here" notes.
	DeclTok token.Token
	// TypeFixed marks a global whose declared type came from an
	// annotation; a second annotation is a redefinition error.
	TypeFixed bool
}

// ScopeKind distinguishes function frames from plain blocks.
type ScopeKind int

const (
	BlockScope ScopeKind = iota
	FunctionScope
	ModuleScope
)

// Frame carries the per-function state threaded through nested blocks.
type Frame struct {
	// DeclaredReturns is the annotated return sequence, when present.
	DeclaredReturns *types.Seq
	// ActualReturns joins the return statements seen so far.
	ActualReturns *types.Seq
	// Varargs is the type sequence of `...`, nil when the function is not
	// variadic. Varargs are lexically scoped to the innermost function.
	Varargs *types.Seq
}

// Scope is one lexical level: named slots, type aliases, and the
// narrowing overlay installed by the flow path that entered it.
type Scope struct {
	parent   *Scope
	kind     ScopeKind
	vars     map[string]*Slot
	aliases  map[string]types.Type
	narrowed map[string]types.Type
	frame    *Frame // set on FunctionScope and ModuleScope
}

// Env is the full environment: the global slot table plus the lexical
// scope stack.
type Env struct {
	globals       map[string]*Slot
	globalAliases map[string]types.Type
	current       *Scope
}

func NewEnv() *Env {
	return &Env{
		globals:       make(map[string]*Slot),
		globalAliases: make(map[string]types.Type),
	}
}

// Push enters a new lexical scope. Function and module scopes carry a
// fresh frame.
func (e *Env) Push(kind ScopeKind, frame *Frame) {
	s := &Scope{
		parent:   e.current,
		kind:     kind,
		vars:     make(map[string]*Slot),
		aliases:  make(map[string]types.Type),
		narrowed: make(map[string]types.Type),
		frame:    frame,
	}
	e.current = s
}

// Pop leaves the current scope. Names declared inside it go out of scope
// and any narrowing performed within it is discarded.
func (e *Env) Pop() {
	if e.current == nil {
		panic("pop on empty scope stack")
	}
	e.current = e.current.parent
}

// SwapStack replaces the lexical stack and returns the previous one. A
// required module checks against the globals only, not the requiring
// chunk's locals; Checker.Check swaps an empty stack in around each chunk.
func (e *Env) SwapStack(s *Scope) *Scope {
	old := e.current
	e.current = s
	return old
}

// Frame returns the innermost function (or module) frame.
func (e *Env) Frame() *Frame {
	for s := e.current; s != nil; s = s.parent {
		if s.frame != nil {
			return s.frame
		}
	}
	return nil
}

// InnermostFunctionHasVarargs reports whether `...` is in scope, which is
// a property of the innermost function frame only.
func (e *Env) InnermostFunctionHasVarargs() bool {
	f := e.Frame()
	return f != nil && f.Varargs != nil
}

// Declare introduces a local slot in the current scope, shadowing any
// outer binding of the same name.
func (e *Env) Declare(name string, declared types.Type, v types.Variance, tok token.Token) *Slot {
	slot := &Slot{
		Name:     name,
		Declared: declared,
		Current:  declared,
		Variance: v,
		DeclTok:  tok,
	}
	e.current.vars[name] = slot
	delete(e.current.narrowed, name)
	return slot
}

// DeclareGlobal introduces or re-types a global slot. The declared type of
// a global is fixed at its first annotation; fixing it twice is an error.
func (e *Env) DeclareGlobal(name string, declared types.Type, v types.Variance, annotated bool, tok token.Token) (*Slot, error) {
	if slot, ok := e.globals[name]; ok {
		if annotated {
			if slot.TypeFixed {
				return slot, fmt.Errorf("the global %s already has the declared type %s", name, slot.Declared.String())
			}
			slot.Declared = declared
			slot.Current = declared
			slot.Variance = v
			slot.TypeFixed = true
			slot.DeclTok = tok
		}
		return slot, nil
	}
	slot := &Slot{
		Name:      name,
		Declared:  declared,
		Current:   declared,
		Variance:  v,
		Global:    true,
		DeclTok:   tok,
		TypeFixed: annotated,
	}
	e.globals[name] = slot
	return slot, nil
}

// Lookup finds the slot a name resolves to: lexical scopes inside-out,
// then globals.
func (e *Env) Lookup(name string) (*Slot, bool) {
	for s := e.current; s != nil; s = s.parent {
		if slot, ok := s.vars[name]; ok {
			return slot, true
		}
	}
	slot, ok := e.globals[name]
	return slot, ok
}

// Read returns the currently-known type of a name, honouring narrowing
// overlays top-down: the innermost overlay for the name wins, and overlays
// stop applying once the name's defining scope is passed.
func (e *Env) Read(name string) (types.Type, *Slot, bool) {
	for s := e.current; s != nil; s = s.parent {
		if t, ok := s.narrowed[name]; ok {
			if slot, found := e.lookupFrom(s, name); found {
				return t, slot, true
			}
		}
		if slot, ok := s.vars[name]; ok {
			return slot.Current, slot, true
		}
	}
	if slot, ok := e.globals[name]; ok {
		return slot.Current, slot, true
	}
	return nil, nil, false
}

func (e *Env) lookupFrom(from *Scope, name string) (*Slot, bool) {
	for s := from; s != nil; s = s.parent {
		if slot, ok := s.vars[name]; ok {
			return slot, true
		}
	}
	slot, ok := e.globals[name]
	return slot, ok
}

// Assign applies the per-variance assignment rule to the slot a name
// resolves to and clears the overlays for it in every scope from the
// current one out to the name's defining scope.
func (e *Env) Assign(name string, val types.Type) error {
	slot, ok := e.Lookup(name)
	if !ok {
		return fmt.Errorf("global or local variable %s is not defined", name)
	}
	// Assignment invalidates every overlay for the name on the way down
	// to its defining scope.
	for s := e.current; s != nil; s = s.parent {
		delete(s.narrowed, name)
		if _, defined := s.vars[name]; defined {
			break
		}
	}
	return e.AssignSlot(slot, val)
}

// AssignSlot applies the assignment rule directly to a slot.
func (e *Env) AssignSlot(slot *Slot, val types.Type) error {
	switch slot.Variance {
	case types.Const:
		return fmt.Errorf("cannot assign to the const variable %s", slot.Name)
	case types.Var:
		if !types.Subtype(val, slot.Declared) {
			return fmt.Errorf("the type %s is not a subtype of %s", val.String(), slot.Declared.String())
		}
		return nil
	default:
		slot.Current = val
		return nil
	}
}

// Narrow installs a flow-sensitive view of a name for the remainder of
// the current scope. Narrowing never applies to DYNAMIC slots.
func (e *Env) Narrow(name string, refined types.Type) {
	slot, ok := e.Lookup(name)
	if !ok {
		return
	}
	if types.IsDynamic(slot.Declared) || types.IsDynamic(slot.Current) {
		return
	}
	e.current.narrowed[name] = refined
}

// Narrowings returns the overlay installed in the current scope. The
// checker does not merge branch overlays back at the end of an if.
func (e *Env) Narrowings() map[string]types.Type {
	return e.current.narrowed
}

// DefineAlias binds a type alias in the current scope. Redefining an
// alias visible in the same scope is an error.
func (e *Env) DefineAlias(name string, t types.Type) error {
	if e.current == nil {
		if _, ok := e.globalAliases[name]; ok {
			return fmt.Errorf("the type alias %s is already defined", name)
		}
		e.globalAliases[name] = t
		return nil
	}
	if _, ok := e.current.aliases[name]; ok {
		return fmt.Errorf("the type alias %s is already defined", name)
	}
	e.current.aliases[name] = t
	return nil
}

// ResolveAlias finds a type alias lexically.
func (e *Env) ResolveAlias(name string) (types.Type, bool) {
	for s := e.current; s != nil; s = s.parent {
		if t, ok := s.aliases[name]; ok {
			return t, true
		}
	}
	t, ok := e.globalAliases[name]
	return t, ok
}
