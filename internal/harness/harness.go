// Package harness implements the line-oriented plaintext test format:
//
//	--8<-- NAME      opens a test (-->8-- NAME opens a disabled one)
//	--& NAME         splits the following lines into an auxiliary module
//	--! ok|error     ends the test and states the expected verdict
//
// Inside a module, `--@< MSG` asserts a diagnostic on the previous source
// line, `--@^ MSG` two lines above, and `--@v MSG` on the next line. Each
// expectation matches at most one diagnostic; unmatched expectations and
// unmatched diagnostics both fail the test.
package harness

import (
	"fmt"
	"strings"

	"github.com/moonscope/moonscope/internal/ast"
	"github.com/moonscope/moonscope/internal/check"
	"github.com/moonscope/moonscope/internal/diagnostics"
	"github.com/moonscope/moonscope/internal/pipeline"
)

// EntryName is the file name under which a test's first module checks.
const EntryName = "main"

// Expectation is one `--@` assertion.
type Expectation struct {
	File    string
	Line    int
	Message string
}

// Module is one source chunk of a test.
type Module struct {
	Name   string
	Source string
}

// Test is one parsed harness test.
type Test struct {
	Name         string
	Disabled     bool
	Modules      []Module // the first module is the entry point
	Expect       string   // "ok" or "error"
	Expectations []Expectation
}

// ParseTests parses a harness file into its tests.
func ParseTests(text string) ([]*Test, error) {
	var tests []*Test
	var cur *Test
	var curModule string
	var lines []string
	var moduleLine int

	flushModule := func() {
		if cur == nil {
			return
		}
		cur.Modules = append(cur.Modules, Module{Name: curModule, Source: strings.Join(lines, "\n")})
		lines = nil
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(raw, "\r")
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, "--8<--"):
			if cur != nil {
				return nil, fmt.Errorf("test %s is not terminated by --!", cur.Name)
			}
			cur = &Test{Name: strings.TrimSpace(trimmed[len("--8<--"):])}
			curModule = EntryName
			moduleLine = 0

		case strings.HasPrefix(trimmed, "-->8--"):
			if cur != nil {
				return nil, fmt.Errorf("test %s is not terminated by --!", cur.Name)
			}
			cur = &Test{Name: strings.TrimSpace(trimmed[len("-->8--"):]), Disabled: true}
			curModule = EntryName
			moduleLine = 0

		case strings.HasPrefix(trimmed, "--&"):
			if cur == nil {
				return nil, fmt.Errorf("--& outside a test")
			}
			flushModule()
			curModule = strings.TrimSpace(trimmed[len("--&"):])
			moduleLine = 0

		case strings.HasPrefix(trimmed, "--!"):
			if cur == nil {
				return nil, fmt.Errorf("--! outside a test")
			}
			verdict := strings.TrimSpace(trimmed[len("--!"):])
			if verdict != "ok" && verdict != "error" {
				return nil, fmt.Errorf("test %s: bad verdict %q", cur.Name, verdict)
			}
			flushModule()
			cur.Expect = verdict
			tests = append(tests, cur)
			cur = nil

		default:
			if cur == nil {
				if trimmed != "" {
					return nil, fmt.Errorf("stray line outside a test: %q", line)
				}
				continue
			}
			moduleLine++
			if exp, ok := parseExpectation(line, curModule, moduleLine); ok {
				cur.Expectations = append(cur.Expectations, exp)
			}
			lines = append(lines, line)
		}
	}
	if cur != nil {
		return nil, fmt.Errorf("test %s is not terminated by --!", cur.Name)
	}
	return tests, nil
}

// parseExpectation recognises a `--@` marker anywhere in the line.
func parseExpectation(line, module string, lineNo int) (Expectation, bool) {
	idx := strings.Index(line, "--@")
	if idx < 0 || idx+3 >= len(line) {
		return Expectation{}, false
	}
	dir := line[idx+3]
	msg := strings.TrimSpace(line[idx+4:])
	switch dir {
	case '<':
		return Expectation{File: module, Line: lineNo - 1, Message: msg}, true
	case '^':
		return Expectation{File: module, Line: lineNo - 2, Message: msg}, true
	case 'v':
		return Expectation{File: module, Line: lineNo + 1, Message: msg}, true
	default:
		return Expectation{}, false
	}
}

// Result is the outcome of running one test.
type Result struct {
	Name     string
	Skipped  bool
	Failures []string
}

func (r *Result) Passed() bool { return !r.Skipped && len(r.Failures) == 0 }

// testLoader serves a test's auxiliary modules to the resolver, parsing
// them on demand within the session.
type testLoader struct {
	sources map[string]string
	session *pipeline.Session
}

func (l *testLoader) Load(name string) (*ast.Program, string, error) {
	src, ok := l.sources[name]
	if !ok {
		return nil, "", fmt.Errorf("module %s not found", name)
	}
	return l.session.ParseSource(name, src), name, nil
}

// Run checks one test end to end.
func Run(t *Test, opener check.EnvOpener) *Result {
	res := &Result{Name: t.Name}
	if t.Disabled {
		res.Skipped = true
		return res
	}

	sources := make(map[string]string)
	for _, m := range t.Modules[1:] {
		sources[m.Name] = m.Source
	}

	loader := &testLoader{sources: sources}
	session := pipeline.NewSession(loader, opener)
	loader.session = session

	session.CheckSource(EntryName, t.Modules[0].Source)

	if v := session.Verdict(); v != t.Expect {
		res.Failures = append(res.Failures, fmt.Sprintf("verdict %s, want %s", v, t.Expect))
	}
	res.Failures = append(res.Failures, matchExpectations(t.Expectations, session.Reporter.Sorted())...)
	return res
}

// matchExpectations pairs expectations with diagnostics one-to-one. When
// the test states no expectations only the verdict is checked.
func matchExpectations(expectations []Expectation, diags []*diagnostics.Diagnostic) []string {
	if len(expectations) == 0 {
		return nil
	}
	var failures []string
	matched := make([]bool, len(diags))

	for _, exp := range expectations {
		found := false
		for i, d := range diags {
			if matched[i] || d.Severity == diagnostics.SeverityNote {
				continue
			}
			if d.File == exp.File && d.Token.Line == exp.Line && strings.Contains(d.Message, exp.Message) {
				matched[i] = true
				found = true
				break
			}
		}
		if !found {
			failures = append(failures, fmt.Sprintf("expected a diagnostic at %s:%d containing %q",
				exp.File, exp.Line, exp.Message))
		}
	}
	for i, d := range diags {
		if !matched[i] && d.Severity != diagnostics.SeverityNote {
			failures = append(failures, "unmatched diagnostic: "+d.Error())
		}
	}
	return failures
}
