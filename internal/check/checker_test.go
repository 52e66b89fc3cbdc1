package check_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/moonscope/moonscope/internal/ast"
	"github.com/moonscope/moonscope/internal/diagnostics"
	"github.com/moonscope/moonscope/internal/pipeline"
	"github.com/moonscope/moonscope/internal/stdenv"
)

// mapLoader serves auxiliary modules from memory.
type mapLoader struct {
	sources map[string]string
	session *pipeline.Session
}

func (l *mapLoader) Load(name string) (*ast.Program, string, error) {
	src, ok := l.sources[name]
	if !ok {
		return nil, "", fmt.Errorf("module %s not found", name)
	}
	return l.session.ParseSource(name, src), name, nil
}

// analyzeSource runs the full pipeline over one chunk (plus optional
// auxiliary modules) and returns the collected diagnostics.
func analyzeSource(src string, aux map[string]string) []*diagnostics.Diagnostic {
	loader := &mapLoader{sources: aux}
	session := pipeline.NewSession(loader, stdenv.NewOpener())
	loader.session = session
	session.CheckSource("main", src)
	return session.Reporter.Sorted()
}

func errorsOnly(diags []*diagnostics.Diagnostic) []*diagnostics.Diagnostic {
	var out []*diagnostics.Diagnostic
	for _, d := range diags {
		if d.Severity == diagnostics.SeverityError {
			out = append(out, d)
		}
	}
	return out
}

func expectOk(t *testing.T, src string) {
	t.Helper()
	if errs := errorsOnly(analyzeSource(src, nil)); len(errs) > 0 {
		var msgs []string
		for _, e := range errs {
			msgs = append(msgs, e.Error())
		}
		t.Fatalf("expected no errors, got:\n%s\ninput: %s", strings.Join(msgs, "\n"), src)
	}
}

func expectError(t *testing.T, src string, substr string) {
	t.Helper()
	errs := errorsOnly(analyzeSource(src, nil))
	for _, e := range errs {
		if strings.Contains(e.Message, substr) {
			return
		}
	}
	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	t.Fatalf("expected an error containing %q, got:\n%s\ninput: %s",
		substr, strings.Join(msgs, "\n"), src)
}

// --- name resolution and slots ------------------------------------------

func TestCallingNilIsAnError(t *testing.T) {
	// local p declares p as nil; nil is not callable.
	expectError(t, "local p\np()", "tried to call a non-function value of the type nil")
}

func TestUndefinedVariable(t *testing.T) {
	expectError(t, "local x = y + 1", "global or local variable y is not defined")
}

func TestGlobalAssignmentDeclares(t *testing.T) {
	expectOk(t, "g = 42\nlocal x = g + 1")
}

func TestConstBindingRejectsAssignment(t *testing.T) {
	expectError(t, "local c = 1 --: const integer\nc = 2", "cannot assign to the const variable c")
}

func TestVarBindingChecksSubtype(t *testing.T) {
	expectError(t, "local v = 1 --: var integer\nv = 'str'", "not a subtype")
	expectOk(t, "local v = 1 --: var number\nv = 2.5")
}

func TestCurrentlyBindingFloats(t *testing.T) {
	expectOk(t, "local f = 1\nf = 'now a string'\nlocal s = f .. '!'")
}

// --- operators -----------------------------------------------------------

func TestArithmeticRequiresNumbers(t *testing.T) {
	expectError(t, "--# assume p: number\nlocal x = p + 'foo'", `the type "foo" is not a subtype of number`)
	expectOk(t, "--# assume p: number\nlocal x = p + 1")
}

func TestDivisionAlwaysNumber(t *testing.T) {
	// Checked via an integer-only context: a var integer slot rejects
	// the number produced by /.
	expectError(t, "local i = 0 --: var integer\ni = 4 / 2", "not a subtype")
	expectOk(t, "local i = 0 --: var integer\ni = 4 % 2")
}

func TestMixedOrderingOnUnion(t *testing.T) {
	expectError(t, "--# assume p: string|number\nlocal q = p < 3.14",
		"either numbers or strings but not both")
	expectOk(t, "--# assume p: number\nlocal q = p < 3.14")
	expectError(t, "--# assume p: boolean\nlocal q = p < true", "cannot apply the < operator")
}

func TestConcatOperands(t *testing.T) {
	expectOk(t, "local s = 'a' .. 1")
	expectError(t, "local s = 'a' .. true", "cannot apply the .. operator")
}

func TestLengthOperator(t *testing.T) {
	expectOk(t, "local t = {1, 2}\nlocal n = #t + #'str'")
	expectError(t, "local n = #42", "cannot apply the # operator")
}

func TestAndOrTypes(t *testing.T) {
	// `or` drops the falsy part of its left side.
	expectOk(t, "--# assume p: integer|nil\nlocal x = (p or 0) + 1")
	// `and` keeps the falsy part of its left side.
	expectError(t, "--# assume p: integer|nil\nlocal y = (p and 1) + 1", "not a subtype of number")
}

// --- tables --------------------------------------------------------------

func TestTableAdaptationFromEmpty(t *testing.T) {
	expectOk(t, "local t = {}\nt.x = 1\nt[1] = 'a'\nlocal v = t.x + 1")
}

func TestVarShapeCannotAdapt(t *testing.T) {
	expectError(t, "local a = {} --: var {number}\na[1] = 42\na.what = 54", "cannot adapt")
	expectOk(t, "local a = {} --: var {number}\na[1] = 42")
}

func TestVarShapeElementTypeFixed(t *testing.T) {
	expectError(t, "local a = {} --: var {number}\na[1] = 'str'", "not a subtype")
}

func TestTableAnyCannotIndex(t *testing.T) {
	expectError(t, "--# assume t: table\nlocal v = t.x", "without downcasting")
	expectError(t, "--# assume t: table\nt.x = 1", "without downcasting")
}

func TestIndexingNonTable(t *testing.T) {
	expectError(t, "local n = 42\nlocal v = n.x", "cannot index a value of the type 42")
}

func TestMapReadsIncludeNil(t *testing.T) {
	// Reading a map yields the value joined with nil, so using it as a
	// plain number must go through a check first.
	expectError(t, "--# assume m: {[string] = integer}\nlocal v = m['k'] + 1", "not a subtype of number")
	expectOk(t, "--# open lua51\n--# assume m: {[string] = integer}\nlocal v = m['k']\nassert(v)\nlocal w = v + 1")
}

func TestRecordAnnotation(t *testing.T) {
	expectOk(t, "--# assume r: {x = integer, y = string}\nlocal v = r.x + 1\nlocal s = r.y .. '!'")
	expectError(t, "--# assume r: {x = var integer}\nr.x = 'str'", "not a subtype")
	expectError(t, "--# assume r: {x = const integer}\nr.x = 2", "cannot assign to a const slot")
}

// --- calls and functions -------------------------------------------------

func TestArityChecking(t *testing.T) {
	expectError(t, "--v (a: integer)\nlocal function f(a) end\nf(1, 2)",
		"takes 1 arguments but got 2")
	expectOk(t, "--v (a: integer, ...)\nlocal function g(a, ...) end\ng(1, 2, 3)")
	// A missing argument pads with nil only when the parameter admits it.
	expectError(t, "--v (a: integer)\nlocal function f(a) end\nf()", "requires an argument")
	expectOk(t, "--v (a: integer?)\nlocal function f(a) end\nf()")
}

func TestReturnAnnotationChecked(t *testing.T) {
	expectError(t, "--v (a: integer) -> string\nlocal function f(a) return 42 end\nf(1)",
		"is not a subtype of the declared")
	expectOk(t, "--v (a: integer) -> string\nlocal function f(a) return 'ok' end\nf(1)")
}

func TestParameterInferenceFreezesOnce(t *testing.T) {
	src := `local function f(x) return x end
f('first')
f(42)`
	expectError(t, src, "inferred to have")
	expectOk(t, "local function g(x) return x end\ng('a')\ng('b')")
}

func TestVarargOutsideVarargFunction(t *testing.T) {
	expectError(t, "local function f()\nreturn function() return ... end\nend",
		"vararg can only be used inside the innermost vararg function")
	expectOk(t, "local function f(...) return ... end")
}

func TestMethodCalls(t *testing.T) {
	src := `local obj = {}
function obj:greet(name) --: string --> string
  return 'hi ' .. name
end
local s = obj:greet('you') .. '!'`
	expectOk(t, src)
	expectError(t, "--# assume t: {}\nlocal v = t:missing()", "tried to call a non-function value of the type nil")
}

func TestDynamicReceiverIsSilent(t *testing.T) {
	expectOk(t, "--# assume d: ?\nlocal v = d:anything(1, 2):chained()")
}

// --- control flow and narrowing ------------------------------------------

func TestAssertNarrowsNil(t *testing.T) {
	expectOk(t, "--# open lua51\n--# assume p: integer|nil\nassert(p)\nprint(p + 5)")
	expectError(t, "--# open lua51\n--# assume p: integer|nil\nprint(p + 5)", "not a subtype of number")
}

func TestIfNarrowing(t *testing.T) {
	src := `--# assume p: integer|nil
if p then
  local x = p + 1
end`
	expectOk(t, src)
}

func TestTypeofNarrowing(t *testing.T) {
	src := `--# open lua51
--# assume v: integer|string
if type(v) == "number" then
  local n = v + 1
else
  local s = v .. '!'
end`
	expectOk(t, src)
}

func TestTypeofBadLiteral(t *testing.T) {
	expectError(t, "--# open lua51\n--# assume v: ?\nlocal b = type(v) == 'numbr'",
		"cannot appear as a return type name for type")
}

func TestNotInvertsNarrowing(t *testing.T) {
	src := `--# assume p: integer|nil
if not p then
else
  local x = p + 1
end`
	expectOk(t, src)
}

func TestWhileNarrowing(t *testing.T) {
	expectOk(t, "--# assume p: integer|nil\nwhile p do\nlocal x = p + 1\nbreak\nend")
}

func TestNarrowingDiscardedAfterBranch(t *testing.T) {
	src := `--# assume p: integer|nil
if p then
end
local x = p + 1`
	expectError(t, src, "not a subtype of number")
}

func TestDynamicNeverNarrows(t *testing.T) {
	expectOk(t, "--# open lua51\n--# assume d: ?\nassert(type(d) == 'number')\nlocal x = d .. 'still fine'")
}

func TestNumericFor(t *testing.T) {
	expectOk(t, "local sum = 0 --: var integer\nfor i = 1, 10 do sum = sum + i end")
	// A fractional bound demotes the loop variable to number.
	expectError(t, "local sum = 0 --: var integer\nfor i = 1, 10, 0.5 do sum = sum + i end",
		"not a subtype")
	expectError(t, "for i = 1, 'ten' do end", "not a subtype of number")
}

func TestGenericForWithTypedIterator(t *testing.T) {
	src := `--# assume iter: function(?, ?) -> (integer?, string)
for i, s in iter do
  local x = i + 1
  local y = s .. '!'
end`
	expectOk(t, src)
}

func TestGenericForNonFunctionIterator(t *testing.T) {
	// The error fires once and the body still checks with WHATEVER vars.
	src := `for k, v in 42 do
  local x = k + v
end`
	expectError(t, src, "the iterator is a non-function value of the type 42")
}

// --- annotations ---------------------------------------------------------

func TestUnknownTypeName(t *testing.T) {
	expectError(t, "--# assume p: Wat", "unknown type name Wat")
}

func TestUnknownAssumeBehavesAsDynamicAfterwards(t *testing.T) {
	// Exactly one error; afterwards p is WHATEVER and checks silently.
	diags := errorsOnly(analyzeSource("--# assume p: Wat\nlocal x = p + 1\nlocal y = p .. 'x'", nil))
	if len(diags) != 1 {
		t.Fatalf("want exactly one error, got %d", len(diags))
	}
}

func TestTypeAlias(t *testing.T) {
	expectOk(t, "--# type Id = integer\n--# assume p: Id\nlocal x = p + 1")
	expectError(t, "--# type Id = integer\n--# type Id = string", "already defined")
	expectError(t, "--# type Loop = Loop|nil", "recursive")
}

func TestGlobalTypeRedefinitionIsAnError(t *testing.T) {
	expectError(t, "--# assume global g: integer\n--# assume global g: string",
		"already has the declared type")
}

func TestOpenUnknownEnv(t *testing.T) {
	expectError(t, "--# open lua99", "unknown predefined environment lua99")
}

func TestUnknownAttributeWarns(t *testing.T) {
	diags := analyzeSource("--# assume f: [wat] function() -> ()", nil)
	found := false
	for _, d := range diags {
		if d.Severity == diagnostics.SeverityWarning && strings.Contains(d.Message, "unrecognized attribute") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a warning about the unknown attribute")
	}
	if len(errorsOnly(diags)) != 0 {
		t.Fatalf("an unknown attribute is not an error")
	}
}

// --- modules -------------------------------------------------------------

func TestRequireReturnsModuleType(t *testing.T) {
	aux := map[string]string{
		"config": "local M = {}\nM.size = 42\nreturn M",
	}
	diags := errorsOnly(analyzeSource("--# open lua51\nlocal cfg = require 'config'\nlocal n = cfg.size + 1", aux))
	if len(diags) != 0 {
		t.Fatalf("unexpected errors: %v", diags[0])
	}
}

func TestRequireMissingModule(t *testing.T) {
	diags := analyzeSource("--# open lua51\nlocal m = require 'nope'", nil)
	found := false
	for _, d := range diags {
		if strings.Contains(d.Message, "cannot find the module nope") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a missing-module error")
	}
}

func TestRequireNonLiteralWarns(t *testing.T) {
	diags := analyzeSource("--# open lua51\nlocal name = 'x'\nlocal m = require(name)", nil)
	found := false
	for _, d := range diags {
		if d.Severity == diagnostics.SeverityWarning && strings.Contains(d.Message, "cannot resolve the module name") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a warning for the non-literal require")
	}
}

func TestModuleReturningFalse(t *testing.T) {
	aux := map[string]string{"bad": "return false"}
	diags := errorsOnly(analyzeSource("--# open lua51\nlocal m = require 'bad'", aux))
	if len(diags) != 1 || !strings.Contains(diags[0].Message, "returned false") {
		t.Fatalf("expected exactly the returned-false error, got %v", diags)
	}
}

func TestDiamondImportsCheckOnce(t *testing.T) {
	aux := map[string]string{
		"d": "return 'leaf'",
		"b": "local d = require 'd'\nreturn d",
		"c": "local d = require 'd'\nreturn d",
	}
	src := "--# open lua51\nlocal b = require 'b'\nlocal c = require 'c'\nlocal s = b .. c"
	diags := errorsOnly(analyzeSource(src, aux))
	if len(diags) != 0 {
		t.Fatalf("a diamond import should check cleanly, got %v", diags[0])
	}
}

func TestRecursiveRequire(t *testing.T) {
	aux := map[string]string{
		"a": "--# open lua51\nlocal b = require 'b'\nreturn 1",
		"b": "--# open lua51\nlocal a = require 'a'\nreturn 2",
	}
	diags := errorsOnly(analyzeSource("--# open lua51\nlocal a = require 'a'", aux))
	if len(diags) != 1 {
		t.Fatalf("a require cycle should produce exactly one error, got %d", len(diags))
	}
	if !strings.Contains(diags[0].Message, "Recursive require was requested") {
		t.Fatalf("unexpected message: %s", diags[0].Message)
	}
}
