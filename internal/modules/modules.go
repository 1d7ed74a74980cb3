package modules

import (
	"github.com/kingrea/chalkline/internal/module"
	"github.com/kingrea/chalkline/internal/modules/planscan"
	"github.com/kingrea/chalkline/internal/modules/standards"
)

// PipelineOrder lists the built-in stage ids in execution order. The
// zero-flag runner walks this list front to back.
var PipelineOrder = []string{"plan-scan", "standards-sync"}

// RegisterBuiltins installs all of the built-in stage factories into the
// provided registry.
func RegisterBuiltins(reg *module.Registry) {
	if reg == nil {
		return
	}
	planscan.Register(reg)
	standards.Register(reg)
}
