package planscan

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kingrea/chalkline/internal/artifact"
	"github.com/kingrea/chalkline/internal/config"
	"github.com/kingrea/chalkline/internal/lessonplan"
	"github.com/kingrea/chalkline/internal/module"
	"github.com/kingrea/chalkline/internal/modules/runtime"
	"github.com/kingrea/chalkline/internal/roster"
	"github.com/kingrea/chalkline/internal/workspace"
)

const (
	moduleID      = "plan-scan"
	moduleVersion = "1.0.0"
)

// listerFactory builds the Drive listing service. The default constructs
// authenticated clients from the configured credentials file.
type listerFactory func(goCtx context.Context, cfg *config.Config, logf func(string, ...any)) (roster.FolderLister, error)

// identityFunc reports the service account identity folders must be shared
// with.
type identityFunc func(credentialsPath string) (string, error)

// Option customizes the plan scan module.
type Option func(*ScanModule)

// WithListerFactory injects the folder listing service (tests).
func WithListerFactory(factory listerFactory) Option {
	return func(m *ScanModule) {
		if factory != nil {
			m.listers = factory
		}
	}
}

// WithIdentity injects the service account identity lookup (tests).
func WithIdentity(fn identityFunc) Option {
	return func(m *ScanModule) {
		if fn != nil {
			m.identity = fn
		}
	}
}

// WithForce makes Run rescan even when the plan-links artifact is READY.
func WithForce(force bool) Option {
	return func(m *ScanModule) {
		m.force = force
	}
}

// ScanModule walks the roster and records the lesson plan mapping.
type ScanModule struct {
	*module.Base
	listers  listerFactory
	identity identityFunc
	force    bool
}

// Register installs the module factory.
func Register(reg *module.Registry) {
	if reg == nil {
		return
	}
	reg.MustRegister(moduleID, func(cfg module.Config) (module.Module, error) {
		return New(WithForce(cfg.Bool("force"))), nil
	})
}

// New configures the module metadata and IO contracts.
func New(opts ...Option) *ScanModule {
	info := module.Info{
		ID:          moduleID,
		Name:        "Scan Lesson Plans",
		Description: "Walks the roster, locates each unit's lesson plan in Drive, and records the link mapping.",
		Version:     moduleVersion,
	}
	base := module.NewBase(info)
	base.SetOutputs(
		artifact.PlanLinksJSON,
	)
	mod := &ScanModule{
		Base:     &base,
		listers:  defaultListerFactory,
		identity: workspace.ServiceAccountEmail,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(mod)
		}
	}
	return mod
}

// Run walks every roster row once and writes the plan-links artifact. Per-row
// faults are journaled and skipped; only missing top-level inputs (roster
// file, credentials) fail the stage.
func (m *ScanModule) Run(ctx *module.ModuleContext) (module.Result, error) {
	if err := runtime.ValidateContext(moduleID, ctx); err != nil {
		return module.Result{Status: module.StatusFailed}, err
	}
	if !m.force {
		if done, err := m.IsComplete(ctx); err != nil {
			return module.Result{Status: module.StatusFailed}, err
		} else if done {
			return module.Result{Status: module.StatusNoOp, Message: "plan links already recorded"}, nil
		}
	}
	rosterPath := ctx.Config.RosterPath()
	if _, err := os.Stat(rosterPath); err != nil {
		return module.Result{Status: module.StatusFailed}, fmt.Errorf("%s: roster file: %w", moduleID, err)
	}
	rows, err := roster.Load(rosterPath, roster.Columns{
		ID:     ctx.Config.Project.Roster.IDColumn,
		Ready:  ctx.Config.Project.Roster.ReadyColumn,
		Folder: ctx.Config.Project.Roster.FolderColumn,
	})
	if err != nil {
		return module.Result{Status: module.StatusFailed}, fmt.Errorf("%s: %w", moduleID, err)
	}
	goCtx := context.Background()
	lister, err := m.listers(goCtx, ctx.Config, ctx.Logbook.Info)
	if err != nil {
		return module.Result{Status: module.StatusFailed}, fmt.Errorf("%s: %w", moduleID, err)
	}
	if email, idErr := m.identity(ctx.Config.CredentialsPath()); idErr != nil {
		ctx.Logbook.Warn("service account identity unavailable: %v", idErr)
	} else {
		ctx.Logbook.Info("share folders with %s or listings will come back empty", email)
	}
	if err := ctx.Artifacts.Write(artifact.ScanActiveMarker, nil, artifact.Metadata{}); err != nil {
		return module.Result{Status: module.StatusFailed}, fmt.Errorf("%s: mark in progress: %w", moduleID, err)
	}
	defer func() {
		_ = ctx.Artifacts.Remove(artifact.ScanActiveMarker)
	}()

	ctx.Logbook.Info("plan scan started: %d roster rows", len(rows))
	walker := roster.NewWalker(lister, ctx.Logbook)
	mapping, stats := walker.Walk(goCtx, rows)

	body, err := mapping.MarshalJSON()
	if err != nil {
		return module.Result{Status: module.StatusFailed}, fmt.Errorf("%s: encode mapping: %w", moduleID, err)
	}
	meta := runtime.Metadata(ctx, moduleID, moduleVersion, artifact.PlanLinksJSON,
		runtime.WithChecksum(mappingFingerprint(mapping.Pairs())),
		runtime.WithNote("rows", strconv.Itoa(stats.Rows)),
		runtime.WithNote("mapped", strconv.Itoa(stats.Mapped)),
		runtime.WithNote("skipped", strconv.Itoa(stats.Skipped())),
	)
	if err := ctx.Artifacts.Write(artifact.PlanLinksJSON, body, meta); err != nil {
		return module.Result{Status: module.StatusFailed}, fmt.Errorf("%s: write plan links: %w", moduleID, err)
	}
	ctx.Logbook.Info("plan scan finished: mapped %d, skipped %d", stats.Mapped, stats.Skipped())
	return module.Result{
		Status:  module.StatusCompleted,
		Message: fmt.Sprintf("mapped %d of %d rows", stats.Mapped, stats.Rows),
	}, nil
}

// IsComplete reports whether the plan-links artifact is READY.
func (m *ScanModule) IsComplete(ctx *module.ModuleContext) (bool, error) {
	if err := runtime.ValidateContext(moduleID, ctx); err != nil {
		return false, err
	}
	return runtime.ArtifactReady(ctx, moduleID, artifact.PlanLinksJSON)
}

// mappingFingerprint hashes the ordered pairs so a rescan that lands on the
// same links is recognizable in metadata.
func mappingFingerprint(pairs []lessonplan.Pair) string {
	if len(pairs) == 0 {
		return "none"
	}
	var parts []string
	for _, pair := range pairs {
		parts = append(parts, pair.LessonID+"|"+pair.Link)
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, ";")))
	return fmt.Sprintf("%x", sum[:])
}

func defaultListerFactory(goCtx context.Context, cfg *config.Config, logf func(string, ...any)) (roster.FolderLister, error) {
	return workspace.NewServices(goCtx, cfg.CredentialsPath(), workspace.WithLogf(logf))
}
