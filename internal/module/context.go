package module

import (
	"github.com/kingrea/chalkline/internal/artifact"
	"github.com/kingrea/chalkline/internal/config"
	"github.com/kingrea/chalkline/internal/logbook"
	"github.com/kingrea/chalkline/internal/pipeline"
)

// ModuleContext carries shared runtime dependencies into every stage.
type ModuleContext struct {
	Config     *config.Config
	Pipeline   *pipeline.Pipeline
	Logbook    *logbook.Logbook
	Artifacts  *artifact.Store
	RunID      string
	OriginMode string
}

// NewContext builds a ModuleContext with a fresh artifact store and run id.
func NewContext(cfg *config.Config, p *pipeline.Pipeline, lb *logbook.Logbook) *ModuleContext {
	return &ModuleContext{
		Config:    cfg,
		Pipeline:  p,
		Logbook:   lb,
		Artifacts: artifact.NewStore(p),
		RunID:     pipeline.NewRunID(),
	}
}

// WithArtifacts allows dependency injection of a pre-built store.
func (ctx *ModuleContext) WithArtifacts(store *artifact.Store) *ModuleContext {
	clone := *ctx
	clone.Artifacts = store
	return &clone
}

// WithMode records which entry point triggered the invocation.
func (ctx *ModuleContext) WithMode(name string) *ModuleContext {
	clone := *ctx
	clone.OriginMode = name
	return &clone
}
