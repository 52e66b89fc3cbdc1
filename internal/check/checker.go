package check

import (
	"fmt"

	"github.com/moonscope/moonscope/internal/ast"
	"github.com/moonscope/moonscope/internal/diagnostics"
	"github.com/moonscope/moonscope/internal/scope"
	"github.com/moonscope/moonscope/internal/token"
	"github.com/moonscope/moonscope/internal/types"
)

// Requirer resolves a literal require() argument into the type the named
// module returns. It is implemented by the module resolver; a nil
// Requirer downgrades every require to WHATEVER.
type Requirer interface {
	Require(name string, tok token.Token, fromFile string) types.Type
}

// EnvOpener resolves `--# open NAME` into a list of bindings. It is
// implemented by the stdenv package.
type EnvOpener interface {
	Open(name string) ([]EnvBinding, bool)
}

// EnvBinding is one predefined global: its name and its annotation kind.
type EnvBinding struct {
	Name  string
	Annot *ast.SlotAnnot
}

// Checker walks one chunk, reporting diagnostics and computing the
// chunk's returned sequence. The environment is shared across every chunk
// of a run: the source language has one global namespace.
type Checker struct {
	file   string
	rep    *diagnostics.Reporter
	env    *scope.Env
	req    Requirer
	opener EnvOpener

	// aliasInProgress guards `--# type` right-hand sides against
	// referring to the alias being defined.
	aliasInProgress map[string]bool
	// placeholderSeq numbers fresh parameter placeholders.
	placeholderSeq int
}

func New(file string, rep *diagnostics.Reporter, env *scope.Env, req Requirer, opener EnvOpener) *Checker {
	return &Checker{
		file:            file,
		rep:             rep,
		env:             env,
		req:             req,
		opener:          opener,
		aliasInProgress: make(map[string]bool),
	}
}

// Check type-checks a whole chunk and returns its return sequence. A
// chunk that never returns yields the empty sequence. The chunk sees the
// shared globals but never the lexical stack of whoever required it.
func (c *Checker) Check(prog *ast.Program) types.Seq {
	saved := c.env.SwapStack(nil)
	defer c.env.SwapStack(saved)

	frame := &scope.Frame{Varargs: &types.Seq{Tail: types.Dynamic}}
	c.env.Push(scope.ModuleScope, frame)
	defer c.env.Pop()

	c.checkBlockStatements(prog.Statements)

	if frame.ActualReturns == nil {
		return types.EmptySeq()
	}
	return *frame.ActualReturns
}

func (c *Checker) errorAt(code diagnostics.ErrorCode, tok token.Token, format string, args ...interface{}) {
	d := diagnostics.NewError(code, tok, fmt.Sprintf(format, args...))
	d.File = c.file
	c.rep.Report(d)
}

func (c *Checker) warnAt(code diagnostics.ErrorCode, tok token.Token, format string, args ...interface{}) {
	d := diagnostics.NewWarning(code, tok, fmt.Sprintf(format, args...))
	d.File = c.file
	c.rep.Report(d)
}

func (c *Checker) noteAt(code diagnostics.ErrorCode, tok token.Token, format string, args ...interface{}) {
	d := diagnostics.NewNote(code, tok, fmt.Sprintf(format, args...))
	d.File = c.file
	c.rep.Report(d)
}

// subtypeOrError reports a subtype failure with an "originates here" note
// when the declaration site is known.
func (c *Checker) subtypeOrError(val, want types.Type, tok token.Token, declTok token.Token) bool {
	if types.Subtype(val, want) {
		return true
	}
	c.errorAt(diagnostics.ErrC002, tok, "the type %s is not a subtype of %s", val.String(), want.String())
	if declTok.Line != 0 {
		c.noteAt(diagnostics.ErrC002, declTok, "the required type originates here")
	}
	return false
}

func (c *Checker) freshPlaceholder(name string) *types.TPlaceholder {
	c.placeholderSeq++
	return &types.TPlaceholder{Name: fmt.Sprintf("%s#%d", name, c.placeholderSeq)}
}

// isOpaque reports whether a type should silence further checks: WHATEVER
// itself and parameters whose type is not yet resolved.
func isOpaque(t types.Type) bool {
	t = types.Resolve(t)
	if types.IsDynamic(t) {
		return true
	}
	p, ok := t.(*types.TPlaceholder)
	return ok && p.Bound == nil
}
