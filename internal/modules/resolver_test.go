package modules

import (
	"fmt"
	"strings"
	"testing"

	"github.com/moonscope/moonscope/internal/ast"
	"github.com/moonscope/moonscope/internal/diagnostics"
	"github.com/moonscope/moonscope/internal/token"
	"github.com/moonscope/moonscope/internal/types"
)

// stubLoader pretends every listed module parses to an empty chunk.
type stubLoader struct {
	known map[string]bool
}

func (l *stubLoader) Load(name string) (*ast.Program, string, error) {
	if !l.known[name] {
		return nil, "", fmt.Errorf("not found")
	}
	return &ast.Program{File: name}, name, nil
}

func newTestResolver(known []string, check CheckFunc) (*Resolver, *diagnostics.Reporter) {
	rep := diagnostics.NewReporter()
	loader := &stubLoader{known: make(map[string]bool)}
	for _, k := range known {
		loader.known[k] = true
	}
	r := NewResolver(loader, rep)
	r.SetCheckFunc(check)
	return r, rep
}

func TestRequireCachesResult(t *testing.T) {
	checked := 0
	r, rep := newTestResolver([]string{"m"}, func(prog *ast.Program, file string) types.Seq {
		checked++
		return types.SingleSeq(types.Integer)
	})

	first := r.Require("m", token.Token{Line: 1}, "main")
	second := r.Require("m", token.Token{Line: 2}, "other")
	if checked != 1 {
		t.Fatalf("the module should check exactly once, checked %d times", checked)
	}
	if first.String() != "integer" || second.String() != "integer" {
		t.Fatalf("cached results should be identical: %s vs %s", first.String(), second.String())
	}
	if len(rep.All()) != 0 {
		t.Fatalf("unexpected diagnostics: %v", rep.All()[0])
	}
}

func TestRequireMissing(t *testing.T) {
	r, rep := newTestResolver(nil, func(prog *ast.Program, file string) types.Seq {
		return types.EmptySeq()
	})
	got := r.Require("ghost", token.Token{}, "main")
	if !types.IsDynamic(got) {
		t.Fatalf("a missing module should resolve to WHATEVER")
	}
	if len(rep.All()) != 1 || !strings.Contains(rep.All()[0].Message, "cannot find the module ghost") {
		t.Fatalf("expected one missing-module diagnostic")
	}
}

func TestRequireCycle(t *testing.T) {
	var r *Resolver
	var rep *diagnostics.Reporter
	r, rep = newTestResolver([]string{"a", "b"}, func(prog *ast.Program, file string) types.Seq {
		switch file {
		case "a":
			return types.SingleSeq(r.Require("b", token.Token{Line: 1}, "a"))
		case "b":
			return types.SingleSeq(r.Require("a", token.Token{Line: 1}, "b"))
		}
		return types.EmptySeq()
	})

	r.Require("a", token.Token{}, "main")
	errs := rep.All()
	if len(errs) != 1 {
		t.Fatalf("a cycle should report exactly once, got %d", len(errs))
	}
	if errs[0].Message != "Recursive require was requested" {
		t.Fatalf("unexpected message: %s", errs[0].Message)
	}
	if errs[0].File != "b" {
		t.Fatalf("the error should be keyed to the require that closes the cycle, got %s", errs[0].File)
	}
}

func TestModuleNeverReturningYieldsNil(t *testing.T) {
	r, _ := newTestResolver([]string{"quiet"}, func(prog *ast.Program, file string) types.Seq {
		return types.EmptySeq()
	})
	got := r.Require("quiet", token.Token{}, "main")
	if got.String() != "nil" {
		t.Fatalf("a module that never returns yields nil, got %s", got.String())
	}
}

func TestFalseReturningModule(t *testing.T) {
	r, rep := newTestResolver([]string{"bad"}, func(prog *ast.Program, file string) types.Seq {
		return types.SingleSeq(types.False)
	})
	got := r.Require("bad", token.Token{}, "main")
	if !types.IsDynamic(got) {
		t.Fatalf("a false-returning module caches WHATEVER")
	}
	if len(rep.All()) != 1 || !strings.Contains(rep.All()[0].Message, "returned false") {
		t.Fatalf("expected the returned-false error")
	}
}

func TestUnresolvedReturnType(t *testing.T) {
	placeholder := &types.TPlaceholder{Name: "p"}
	r, rep := newTestResolver([]string{"m"}, func(prog *ast.Program, file string) types.Seq {
		return types.SingleSeq(types.TFunc{
			Params:  types.SeqOf(placeholder),
			Returns: types.EmptySeq(),
		})
	})
	got := r.Require("m", token.Token{}, "main")
	if !types.IsDynamic(got) {
		t.Fatalf("an unresolved return type caches WHATEVER")
	}
	if len(rep.All()) != 1 || !strings.Contains(rep.All()[0].Message, "not fully resolved") {
		t.Fatalf("expected the not-fully-resolved error")
	}
}
