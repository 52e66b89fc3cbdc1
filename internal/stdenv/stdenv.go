// Package stdenv ships the predefined environments loadable with
// `--# open NAME`. Each environment is a YAML document binding global
// names to annotation kinds, embedded into the binary and parsed once on
// first use.
package stdenv

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/moonscope/moonscope/internal/check"
	"github.com/moonscope/moonscope/internal/parser"
)

//go:embed lua51.yaml
var lua51Source []byte

// envFile mirrors the YAML layout of an environment definition.
type envFile struct {
	Name    string `yaml:"name"`
	Globals []struct {
		Name string `yaml:"name"`
		Type string `yaml:"type"`
	} `yaml:"globals"`
}

// Opener implements check.EnvOpener over the embedded definitions.
type Opener struct {
	once sync.Once
	envs map[string][]check.EnvBinding
	err  error
}

func NewOpener() *Opener { return &Opener{} }

func (o *Opener) load() {
	o.envs = make(map[string][]check.EnvBinding)
	for _, src := range [][]byte{lua51Source} {
		var file envFile
		if err := yaml.Unmarshal(src, &file); err != nil {
			o.err = fmt.Errorf("malformed environment definition: %w", err)
			return
		}
		bindings := make([]check.EnvBinding, 0, len(file.Globals))
		for _, g := range file.Globals {
			// Folded YAML keeps the line breaks before more-indented
			// lines, and annotation text ends at a line break.
			annot, errs := parser.ParseSlotAnnotText(strings.ReplaceAll(g.Type, "\n", " "))
			if annot == nil || len(errs) > 0 {
				o.err = fmt.Errorf("malformed type for the predefined global %s in %s", g.Name, file.Name)
				return
			}
			bindings = append(bindings, check.EnvBinding{Name: g.Name, Annot: annot})
		}
		o.envs[file.Name] = bindings
	}
}

// Open returns the bindings of a predefined environment.
func (o *Opener) Open(name string) ([]check.EnvBinding, bool) {
	o.once.Do(o.load)
	if o.err != nil {
		// Definitions are embedded; a parse failure here is a build
		// defect and should surface loudly.
		panic(o.err)
	}
	b, ok := o.envs[name]
	return b, ok
}
