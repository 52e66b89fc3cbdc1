package pipeline

import (
	"github.com/moonscope/moonscope/internal/ast"
	"github.com/moonscope/moonscope/internal/diagnostics"
	"github.com/moonscope/moonscope/internal/scope"
	"github.com/moonscope/moonscope/internal/types"
)

// PipelineContext carries one chunk through the stages.
type PipelineContext struct {
	File     string
	Source   string
	Program  *ast.Program
	Reporter *diagnostics.Reporter
	Env      *scope.Env
	Returns  types.Seq
}

// Processor is one stage of the pipeline.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// Pipeline represents a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes the pipeline. Stages keep running after errors so a single
// pass collects every diagnostic the chunk produces.
func (p *Pipeline) Run(initialCtx *PipelineContext) *PipelineContext {
	ctx := initialCtx
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
	}
	return ctx
}
