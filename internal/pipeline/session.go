package pipeline

import (
	"github.com/moonscope/moonscope/internal/ast"
	"github.com/moonscope/moonscope/internal/check"
	"github.com/moonscope/moonscope/internal/diagnostics"
	"github.com/moonscope/moonscope/internal/modules"
	"github.com/moonscope/moonscope/internal/parser"
	"github.com/moonscope/moonscope/internal/scope"
	"github.com/moonscope/moonscope/internal/types"
)

// Session owns the shared state of one checking run: the reporter, the
// global environment, and the module cache. Every chunk of the run -- the
// entry point and each required module -- checks against the same three.
type Session struct {
	Reporter *diagnostics.Reporter
	Env      *scope.Env
	Resolver *modules.Resolver
	opener   check.EnvOpener
}

// NewSession wires the resolver back into the checker: a require() call
// loads, parses and checks the named module within this session.
func NewSession(loader modules.Loader, opener check.EnvOpener) *Session {
	s := &Session{
		Reporter: diagnostics.NewReporter(),
		Env:      scope.NewEnv(),
		opener:   opener,
	}
	s.Resolver = modules.NewResolver(loader, s.Reporter)
	s.Resolver.SetCheckFunc(func(prog *ast.Program, file string) types.Seq {
		return s.checkProgram(prog, file)
	})
	return s
}

// ParseSource parses one chunk, reporting parse diagnostics against the
// given file.
func (s *Session) ParseSource(file, source string) *ast.Program {
	prog, errs := parser.Parse(source)
	prog.File = file
	for _, d := range errs {
		d.File = file
		s.Reporter.Report(d)
	}
	return prog
}

// CheckSource runs the full pipeline on one chunk of source text.
func (s *Session) CheckSource(file, source string) types.Seq {
	ctx := &PipelineContext{File: file, Source: source, Reporter: s.Reporter, Env: s.Env}
	ctx = New(&parseProcessor{s}, &checkProcessor{s}).Run(ctx)
	return ctx.Returns
}

func (s *Session) checkProgram(prog *ast.Program, file string) types.Seq {
	c := check.New(file, s.Reporter, s.Env, s.Resolver, s.opener)
	return c.Check(prog)
}

// Verdict summarises the run so far: "ok" or "error".
func (s *Session) Verdict() string { return s.Reporter.Verdict() }

type parseProcessor struct{ s *Session }

func (p *parseProcessor) Process(ctx *PipelineContext) *PipelineContext {
	ctx.Program = p.s.ParseSource(ctx.File, ctx.Source)
	return ctx
}

type checkProcessor struct{ s *Session }

func (p *checkProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Program == nil {
		return ctx
	}
	ctx.Returns = p.s.checkProgram(ctx.Program, ctx.File)
	return ctx
}
