package diagnostics

import (
	"fmt"
	"sort"

	"github.com/moonscope/moonscope/internal/token"
)

// ErrorCode is a stable identifier for a class of diagnostics.
// L = lexer, P = parser, T = types/annotations, C = checker, M = modules.
type ErrorCode string

const (
	ErrL001 ErrorCode = "L001" // malformed token
	ErrL002 ErrorCode = "L002" // unterminated string or long comment

	ErrP001 ErrorCode = "P001" // unexpected token
	ErrP002 ErrorCode = "P002" // malformed annotation
	ErrP003 ErrorCode = "P003" // annotation out of place
	ErrP006 ErrorCode = "P006" // recursion depth exceeded

	ErrT001 ErrorCode = "T001" // unknown type name
	ErrT002 ErrorCode = "T002" // type alias redefinition
	ErrT003 ErrorCode = "T003" // recursive type alias
	ErrT004 ErrorCode = "T004" // unknown attribute (warning)
	ErrT005 ErrorCode = "T005" // unknown predefined environment

	ErrC001 ErrorCode = "C001" // undefined variable
	ErrC002 ErrorCode = "C002" // not a subtype
	ErrC003 ErrorCode = "C003" // operator misuse
	ErrC004 ErrorCode = "C004" // table misuse
	ErrC005 ErrorCode = "C005" // call misuse
	ErrC006 ErrorCode = "C006" // global type redefinition
	ErrC007 ErrorCode = "C007" // vararg outside the innermost vararg function
	ErrC008 ErrorCode = "C008" // assignment to const
	ErrC009 ErrorCode = "C009" // bad `type` literal
	ErrC010 ErrorCode = "C010" // return type mismatch

	ErrM001 ErrorCode = "M001" // recursive require
	ErrM002 ErrorCode = "M002" // module not found
	ErrM003 ErrorCode = "M003" // unresolvable module name (warning)
	ErrM004 ErrorCode = "M004" // module returned false
	ErrM005 ErrorCode = "M005" // module return type not fully resolved
)

// Severity distinguishes errors (fail the check), warnings, and notes
// attached to a preceding diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityNote
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "note"
	}
}

// Diagnostic is a single reported finding with its source span.
type Diagnostic struct {
	Code     ErrorCode
	Severity Severity
	File     string
	Token    token.Token
	Message  string
}

func (d *Diagnostic) Error() string {
	if d.File != "" {
		return fmt.Sprintf("%s:%d:%d: [%s] %s: %s",
			d.File, d.Token.Line, d.Token.Column, d.Code, d.Severity, d.Message)
	}
	return fmt.Sprintf("%d:%d: [%s] %s: %s",
		d.Token.Line, d.Token.Column, d.Code, d.Severity, d.Message)
}

// NewError creates an error-level diagnostic at the given token.
func NewError(code ErrorCode, tok token.Token, msg string) *Diagnostic {
	return &Diagnostic{Code: code, Severity: SeverityError, Token: tok, Message: msg}
}

// NewWarning creates a warning-level diagnostic at the given token.
func NewWarning(code ErrorCode, tok token.Token, msg string) *Diagnostic {
	return &Diagnostic{Code: code, Severity: SeverityWarning, Token: tok, Message: msg}
}

// NewNote creates a note attached to the previously reported diagnostic.
func NewNote(code ErrorCode, tok token.Token, msg string) *Diagnostic {
	return &Diagnostic{Code: code, Severity: SeverityNote, Token: tok, Message: msg}
}

// Reporter collects diagnostics across files. Within one file the checker
// reports in lexical order already; Sorted re-establishes the global order
// (file, then position) required for output.
type Reporter struct {
	diags []*Diagnostic
	// seen deduplicates by position+code+message so that re-checked
	// subexpressions do not double-report.
	seen map[string]bool
}

func NewReporter() *Reporter {
	return &Reporter{seen: make(map[string]bool)}
}

// Report records a diagnostic; duplicates (same file, position, code and
// message) are dropped.
func (r *Reporter) Report(d *Diagnostic) {
	key := fmt.Sprintf("%s:%d:%d:%s:%s", d.File, d.Token.Line, d.Token.Column, d.Code, d.Message)
	if r.seen[key] {
		return
	}
	r.seen[key] = true
	r.diags = append(r.diags, d)
}

// All returns the collected diagnostics in reporting order.
func (r *Reporter) All() []*Diagnostic {
	return r.diags
}

// Sorted returns diagnostics ordered by file, then line, then column.
// Notes are ordered by their own position like any other diagnostic, not
// next to the diagnostic they annotate; the sort is stable.
func (r *Reporter) Sorted() []*Diagnostic {
	out := make([]*Diagnostic, len(r.diags))
	copy(out, r.diags)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		if out[i].Token.Line != out[j].Token.Line {
			return out[i].Token.Line < out[j].Token.Line
		}
		return out[i].Token.Column < out[j].Token.Column
	})
	return out
}

// HasErrors reports whether any error-level diagnostic was recorded.
func (r *Reporter) HasErrors() bool {
	for _, d := range r.diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Verdict summarises the run: "ok" if no error-level diagnostic was
// produced, else "error".
func (r *Reporter) Verdict() string {
	if r.HasErrors() {
		return "error"
	}
	return "ok"
}
