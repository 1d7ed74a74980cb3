package standards

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kingrea/chalkline/internal/agent"
	"github.com/kingrea/chalkline/internal/artifact"
	"github.com/kingrea/chalkline/internal/lessonplan"
	"github.com/kingrea/chalkline/internal/module"
	"github.com/kingrea/chalkline/internal/modules/runtime"
	"github.com/kingrea/chalkline/internal/workspace"
)

const (
	moduleID      = "standards-sync"
	moduleVersion = "1.0.0"
)

const (
	entryWritten = "written"
	entryFailed  = "failed"
)

// taskRunner runs one extraction task. *agent.Runner satisfies it.
type taskRunner interface {
	RunTask(ctx context.Context, task agent.Task) (agent.Outcome, error)
}

// runnerFactory builds the task runner. The default constructs workspace
// services and a Gemini-backed agent from the project configuration.
type runnerFactory func(goCtx context.Context, ctx *module.ModuleContext) (taskRunner, error)

// Option customizes the standards sync module.
type Option func(*SyncModule)

// WithClock overrides the timestamp source (tests).
func WithClock(clock func() time.Time) Option {
	return func(m *SyncModule) {
		if clock != nil {
			m.now = clock
		}
	}
}

// WithRunnerFactory injects the task runner (tests).
func WithRunnerFactory(factory runnerFactory) Option {
	return func(m *SyncModule) {
		if factory != nil {
			m.runners = factory
		}
	}
}

// WithForce makes Run reprocess even when the results artifact is READY.
func WithForce(force bool) Option {
	return func(m *SyncModule) {
		m.force = force
	}
}

// SyncModule processes every mapping entry through the extraction agent.
type SyncModule struct {
	*module.Base
	now     func() time.Time
	runners runnerFactory
	force   bool
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
func New(opts ...Option) *SyncModule {
	info := module.Info{
		ID:          moduleID,
		Name:        "Sync Standards",
		Description: "Runs the extraction agent over every recorded lesson plan and files the standards into the tracker.",
		Version:     moduleVersion,
	}
	base := module.NewBase(info)
	base.SetInputs(
		artifact.PlanLinksJSON,
	)
	base.SetOutputs(
		artifact.ResultsJSON,
		artifact.ReportDoc,
	)
	mod := &SyncModule{
		Base:    &base,
		now:     time.Now,
		runners: defaultRunnerFactory,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(mod)
		}
	}
	return mod
}

// entry is one per-lesson record in the results artifact, in input order.
type entry struct {
	LessonID string `json:"lesson_id"`
	Status   string `json:"status"`
	Output   string `json:"output"`
}

// Run processes every mapping entry exactly once, in file order. A fault on
// one entry is recorded and never aborts the batch; only missing top-level
// preconditions (mapping, spreadsheet id, API key) fail the stage.
func (m *SyncModule) Run(ctx *module.ModuleContext) (module.Result, error) {
	if err := runtime.ValidateContext(moduleID, ctx); err != nil {
		return module.Result{Status: module.StatusFailed}, err
	}
	if missing, err := runtime.MissingInput(ctx, moduleID, m.Inputs()); err != nil {
		return module.Result{Status: module.StatusFailed}, err
	} else if missing != "" {
		return module.Result{Status: module.StatusNeedsInput, Message: fmt.Sprintf("waiting for %s", missing)}, nil
	}
	if !m.force {
		if done, err := m.IsComplete(ctx); err != nil {
			return module.Result{Status: module.StatusFailed}, err
		} else if done {
			return module.Result{Status: module.StatusNoOp, Message: "standards already synced"}, nil
		}
	}
	if strings.TrimSpace(ctx.Config.SpreadsheetID()) == "" {
		return module.Result{Status: module.StatusFailed},
			fmt.Errorf("%s: spreadsheet id is not configured (set spreadsheet.id or SPREADSHEET_ID)", moduleID)
	}
	if strings.TrimSpace(ctx.Config.Project.Agent.APIKey) == "" {
		return module.Result{Status: module.StatusFailed},
			fmt.Errorf("%s: GEMINI_API_KEY is not set", moduleID)
	}

	data, err := ctx.Artifacts.ReadJSON(artifact.PlanLinksJSON)
	if err != nil {
		return module.Result{Status: module.StatusFailed}, fmt.Errorf("%s: %w", moduleID, err)
	}
	mapping, err := lessonplan.ParseMapping(data)
	if err != nil {
		return module.Result{Status: module.StatusFailed}, fmt.Errorf("%s: %w", moduleID, err)
	}

	goCtx := context.Background()
	runner, err := m.runners(goCtx, ctx)
	if err != nil {
		return module.Result{Status: module.StatusFailed}, fmt.Errorf("%s: %w", moduleID, err)
	}
	if err := ctx.Artifacts.Write(artifact.SyncActiveMarker, nil, artifact.Metadata{}); err != nil {
		return module.Result{Status: module.StatusFailed}, fmt.Errorf("%s: mark in progress: %w", moduleID, err)
	}
	defer func() {
		_ = ctx.Artifacts.Remove(artifact.SyncActiveMarker)
	}()

	pairs := mapping.Pairs()
	ctx.Logbook.Info("standards sync started: %d entries", len(pairs))
	entries := make([]entry, 0, len(pairs))
	written := 0
	for _, pair := range pairs {
		outcome, runErr := runner.RunTask(goCtx, agent.Task{
			LessonID:      pair.LessonID,
			DocumentLink:  pair.Link,
			SpreadsheetID: ctx.Config.SpreadsheetID(),
		})
		if runErr != nil {
			ctx.Logbook.Error("%s: %v", pair.LessonID, runErr)
			entries = append(entries, entry{LessonID: pair.LessonID, Status: entryFailed, Output: runErr.Error()})
			continue
		}
		status := entryFailed
		if outcome.Written {
			status = entryWritten
			written++
			ctx.Logbook.Info("%s: standards written", pair.LessonID)
		} else {
			ctx.Logbook.Warn("%s: agent finished without writing", pair.LessonID)
		}
		entries = append(entries, entry{LessonID: pair.LessonID, Status: status, Output: outcome.Output})
	}

	if err := m.writeResults(ctx, entries, written); err != nil {
		return module.Result{Status: module.StatusFailed}, err
	}
	if err := m.writeReport(ctx, entries, written); err != nil {
		return module.Result{Status: module.StatusFailed}, err
	}
	ctx.Logbook.Info("standards sync finished: %d written, %d failed", written, len(entries)-written)
	return module.Result{
		Status:  module.StatusCompleted,
		Message: fmt.Sprintf("synced %d of %d entries", written, len(entries)),
	}, nil
}

// IsComplete reports whether the results artifact is READY.
func (m *SyncModule) IsComplete(ctx *module.ModuleContext) (bool, error) {
	if err := runtime.ValidateContext(moduleID, ctx); err != nil {
		return false, err
	}
	return runtime.ArtifactReady(ctx, moduleID, artifact.ResultsJSON)
}

func (m *SyncModule) writeResults(ctx *module.ModuleContext, entries []entry, written int) error {
	payload := struct {
		Results []entry `json:"results"`
	}{Results: entries}
	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: encode results: %w", moduleID, err)
	}
	meta := runtime.Metadata(ctx, moduleID, moduleVersion, artifact.ResultsJSON,
		runtime.WithInputs(artifact.PlanLinksJSON),
		runtime.WithNote("entries", strconv.Itoa(len(entries))),
		runtime.WithNote("written", strconv.Itoa(written)),
	)
	if err := ctx.Artifacts.Write(artifact.ResultsJSON, body, meta); err != nil {
		return fmt.Errorf("%s: write results: %w", moduleID, err)
	}
	return nil
}

func (m *SyncModule) writeReport(ctx *module.ModuleContext, entries []entry, written int) error {
	var b strings.Builder
	b.WriteString("# Standards Sync Report\n\n")
	fmt.Fprintf(&b, "Generated at %s.\n\n", m.now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- entries processed: %d\n", len(entries))
	fmt.Fprintf(&b, "- standards written: %d\n", written)
	fmt.Fprintf(&b, "- failed: %d\n\n", len(entries)-written)
	if len(entries) > 0 {
		b.WriteString("## Entries\n\n")
		for _, e := range entries {
			fmt.Fprintf(&b, "- **%s** · %s: %s\n", e.LessonID, e.Status, firstLine(e.Output))
		}
	} else {
		b.WriteString("_No entries to process._\n")
	}
	meta := runtime.Metadata(ctx, moduleID, moduleVersion, artifact.ReportDoc,
		runtime.WithInputs(artifact.PlanLinksJSON),
	)
	if err := ctx.Artifacts.Write(artifact.ReportDoc, []byte(b.String()), meta); err != nil {
		return fmt.Errorf("%s: write report: %w", moduleID, err)
	}
	return nil
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return strings.TrimSpace(text[:idx])
	}
	return strings.TrimSpace(text)
}

func defaultRunnerFactory(goCtx context.Context, ctx *module.ModuleContext) (taskRunner, error) {
	credentials := ctx.Config.CredentialsPath()
	if _, err := os.Stat(credentials); err != nil {
		return nil, fmt.Errorf("credentials file: %w", err)
	}
	services, err := workspace.NewServices(goCtx, credentials, workspace.WithLogf(ctx.Logbook.Info))
	if err != nil {
		return nil, err
	}
	sheet := agent.Sheet{
		KeyColumn:       ctx.Config.Project.Spreadsheet.KeyColumn,
		StandardsColumn: ctx.Config.Project.Spreadsheet.StandardsColumn,
		Tab:             ctx.Config.Project.Spreadsheet.Tab,
	}
	return agent.New(goCtx,
		ctx.Config.Project.Agent.APIKey,
		ctx.Config.Project.Agent.Model,
		services,
		sheet,
		agent.WithMaxTurns(ctx.Config.Project.Agent.MaxTurns),
		agent.WithJournal(ctx.Logbook),
	)
}
