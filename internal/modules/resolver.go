package modules

import (
	"github.com/moonscope/moonscope/internal/ast"
	"github.com/moonscope/moonscope/internal/config"
	"github.com/moonscope/moonscope/internal/diagnostics"
	"github.com/moonscope/moonscope/internal/token"
	"github.com/moonscope/moonscope/internal/types"
)

// Loader turns a module name into a parsed chunk. It is implemented by
// the filesystem loader in the CLI and by an in-memory loader in the test
// harness.
type Loader interface {
	Load(name string) (*ast.Program, string, error)
}

// CheckFunc type-checks a loaded chunk and returns its return sequence.
// The resolver stays ignorant of the checker to keep the dependency
// one-way; the pipeline wires the two together.
type CheckFunc func(prog *ast.Program, file string) types.Seq

type moduleState int

const (
	stateInProgress moduleState = iota
	stateDone
)

// entry is the cache record for one module.
type entry struct {
	state    moduleState
	returns  types.Type
	firstTok token.Token
	fromFile string
}

// Resolver resolves require() calls: each module is checked at most once,
// diamonds share the cached result, and cycles report at the require that
// closes them.
type Resolver struct {
	loader  Loader
	check   CheckFunc
	rep     *diagnostics.Reporter
	entries map[string]*entry
	depth   int
}

func NewResolver(loader Loader, rep *diagnostics.Reporter) *Resolver {
	return &Resolver{
		loader:  loader,
		rep:     rep,
		entries: make(map[string]*entry),
	}
}

// SetCheckFunc installs the checking callback. It must be set before the
// first Require.
func (r *Resolver) SetCheckFunc(check CheckFunc) { r.check = check }

// Require resolves a literal require() argument into the type the module
// returns.
func (r *Resolver) Require(name string, tok token.Token, fromFile string) types.Type {
	if e, ok := r.entries[name]; ok {
		if e.state == stateInProgress {
			r.report(diagnostics.NewError(diagnostics.ErrM001, tok, "Recursive require was requested"), fromFile)
			return types.Dynamic
		}
		return e.returns
	}

	if r.depth >= config.MaxRequireDepth {
		r.report(diagnostics.NewError(diagnostics.ErrM001, tok, "the require chain is too deep"), fromFile)
		return types.Dynamic
	}

	e := &entry{state: stateInProgress, firstTok: tok, fromFile: fromFile}
	r.entries[name] = e

	prog, file, err := r.loader.Load(name)
	if err != nil {
		r.report(diagnostics.NewError(diagnostics.ErrM002, tok, "cannot find the module "+name), fromFile)
		e.state = stateDone
		e.returns = types.Dynamic
		return e.returns
	}

	r.depth++
	seq := r.check(prog, file)
	r.depth--

	ret := seq.First()
	switch {
	case isFalse(ret):
		// The runtime's own recursion protection relies on modules never
		// returning false.
		r.report(diagnostics.NewError(diagnostics.ErrM004, tok, "the module "+name+" returned false"), fromFile)
		ret = types.Dynamic
	case types.IsUnresolved(ret):
		r.report(diagnostics.NewError(diagnostics.ErrM005, tok,
			"the return type of the module "+name+" is not fully resolved"), fromFile)
		ret = types.Dynamic
	}

	e.state = stateDone
	e.returns = ret
	return ret
}

func (r *Resolver) report(d *diagnostics.Diagnostic, file string) {
	d.File = file
	r.rep.Report(d)
}

func isFalse(t types.Type) bool {
	b, ok := types.Resolve(t).(types.TBoolLit)
	return ok && !b.Value
}
