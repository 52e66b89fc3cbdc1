package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"github.com/moonscope/moonscope/internal/ast"
	"github.com/moonscope/moonscope/internal/config"
	"github.com/moonscope/moonscope/internal/diagnostics"
	"github.com/moonscope/moonscope/internal/pipeline"
	"github.com/moonscope/moonscope/internal/stdenv"
)

const (
	colorReset  = "\x1b[0m"
	colorRed    = "\x1b[31m"
	colorYellow = "\x1b[33m"
	colorCyan   = "\x1b[36m"
)

// fsLoader resolves require() names against the search root.
type fsLoader struct {
	root    string
	session *pipeline.Session
}

func (l *fsLoader) Load(name string) (*ast.Program, string, error) {
	rel := strings.ReplaceAll(name, ".", string(filepath.Separator))
	path := filepath.Join(l.root, rel)
	if !strings.HasSuffix(path, config.SourceFileExt) {
		path += config.SourceFileExt
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	return l.session.ParseSource(path, string(data)), path, nil
}

type jsonDiagnostic struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

type jsonReport struct {
	RunID       string           `json:"run_id"`
	Verdict     string           `json:"verdict"`
	Diagnostics []jsonDiagnostic `json:"diagnostics"`
}

func main() {
	jsonOut := flag.Bool("json", false, "emit diagnostics as JSON")
	noColor := flag.Bool("no-color", false, "disable colored output")
	root := flag.String("root", "", "require() search root (defaults to the entry file's directory)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: moonscope [flags] entry.lua")
		os.Exit(2)
	}
	entry := flag.Arg(0)

	data, err := os.ReadFile(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "moonscope: %v\n", err)
		os.Exit(2)
	}

	searchRoot := *root
	if searchRoot == "" {
		searchRoot = filepath.Dir(entry)
	}

	loader := &fsLoader{root: searchRoot}
	session := pipeline.NewSession(loader, stdenv.NewOpener())
	loader.session = session

	session.CheckSource(entry, string(data))

	diags := session.Reporter.Sorted()
	if *jsonOut {
		report := jsonReport{
			RunID:       uuid.NewString(),
			Verdict:     session.Verdict(),
			Diagnostics: make([]jsonDiagnostic, 0, len(diags)),
		}
		for _, d := range diags {
			report.Diagnostics = append(report.Diagnostics, jsonDiagnostic{
				File:     d.File,
				Line:     d.Token.Line,
				Column:   d.Token.Column,
				Code:     string(d.Code),
				Severity: d.Severity.String(),
				Message:  d.Message,
			})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			fmt.Fprintf(os.Stderr, "moonscope: %v\n", err)
			os.Exit(2)
		}
	} else {
		colored := !*noColor && isatty.IsTerminal(os.Stdout.Fd())
		for _, d := range diags {
			printDiagnostic(d, colored)
		}
		fmt.Println(session.Verdict())
	}

	if session.Reporter.HasErrors() {
		os.Exit(1)
	}
}

func printDiagnostic(d *diagnostics.Diagnostic, colored bool) {
	if !colored {
		fmt.Println(d.Error())
		return
	}
	var color string
	switch d.Severity {
	case diagnostics.SeverityError:
		color = colorRed
	case diagnostics.SeverityWarning:
		color = colorYellow
	default:
		color = colorCyan
	}
	fmt.Printf("%s:%d:%d: %s%s%s: %s\n",
		d.File, d.Token.Line, d.Token.Column, color, d.Severity, colorReset, d.Message)
}
