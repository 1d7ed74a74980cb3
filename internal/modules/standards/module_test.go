package standards

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/kingrea/chalkline/internal/agent"
	"github.com/kingrea/chalkline/internal/artifact"
	"github.com/kingrea/chalkline/internal/config"
	"github.com/kingrea/chalkline/internal/lessonplan"
	"github.com/kingrea/chalkline/internal/logbook"
	"github.com/kingrea/chalkline/internal/module"
	"github.com/kingrea/chalkline/internal/pipeline"
)

type stubRunner struct {
	outcomes map[string]agent.Outcome
	errs     map[string]error
	order    []string
}

func (s *stubRunner) RunTask(_ context.Context, task agent.Task) (agent.Outcome, error) {
	s.order = append(s.order, task.LessonID)
	if err, ok := s.errs[task.LessonID]; ok {
		return agent.Outcome{LessonID: task.LessonID}, err
	}
	return s.outcomes[task.LessonID], nil
}

func newTestContext(t *testing.T) *module.ModuleContext {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		ProjectDir:          dir,
		ChalklineProjectDir: filepath.Join(dir, ".chalkline"),
		Project: config.ProjectConfig{
			Version:     1,
			Roster:      config.RosterConfig{Path: filepath.Join(dir, "roster.csv"), IDColumn: "A", ReadyColumn: "E", FolderColumn: "F"},
			Spreadsheet: config.SpreadsheetConfig{ID: "sheet-1", KeyColumn: "A", StandardsColumn: "P"},
			Credentials: filepath.Join(dir, "service-account.json"),
			Agent:       config.AgentConfig{Model: "gemini-test", MaxTurns: 3, APIKey: "test-key"},
		},
	}
	p := pipeline.New(cfg.ChalklineProjectDir)
	if err := p.Initialize(); err != nil {
		t.Fatalf("initialize pipeline: %v", err)
	}
	lb, err := logbook.New(p.LogbookPath())
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	return module.NewContext(cfg, p, lb)
}

func writePlanLinks(t *testing.T, ctx *module.ModuleContext, pairs ...string) {
	t.Helper()
	mapping := lessonplan.NewMapping()
	for i := 0; i+1 < len(pairs); i += 2 {
		mapping.Set(pairs[i], pairs[i+1])
	}
	body, err := json.Marshal(mapping)
	if err != nil {
		t.Fatalf("marshal mapping: %v", err)
	}
	meta := artifact.Metadata{ArtifactID: artifact.PlanLinksJSON.ID, ModuleID: "plan-scan", Version: "1.0.0"}
	if err := ctx.Artifacts.Write(artifact.PlanLinksJSON, body, meta); err != nil {
		t.Fatalf("write plan links: %v", err)
	}
}

func newSyncModule(runner taskRunner, opts ...Option) *SyncModule {
	opts = append([]Option{
		WithRunnerFactory(func(context.Context, *module.ModuleContext) (taskRunner, error) {
			return runner, nil
		}),
		WithClock(func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) }),
	}, opts...)
	return New(opts...)
}

func TestRunNeedsInputUntilPlanLinksReady(t *testing.T) {
	ctx := newTestContext(t)
	mod := newSyncModule(&stubRunner{})

	result, err := mod.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Status != module.StatusNeedsInput {
		t.Fatalf("Run status = %s, want needs-input", result.Status)
	}
}

func TestRunRecordsEntriesInOrderAndContinuesPastFailures(t *testing.T) {
	ctx := newTestContext(t)
	writePlanLinks(t, ctx, "L-1", "link-1", "L-2", "link-2", "L-3", "link-3")
	runner := &stubRunner{
		outcomes: map[string]agent.Outcome{
			"L-1": {LessonID: "L-1", Written: true, Output: "Wrote CCSS.MATH.1 for L-1."},
			"L-3": {LessonID: "L-3", Written: false, Output: "The tracker has no row for L-3."},
		},
		errs: map[string]error{
			"L-2": errors.New("document forbidden"),
		},
	}
	mod := newSyncModule(runner)

	result, err := mod.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Status != module.StatusCompleted {
		t.Fatalf("Run status = %s, want completed", result.Status)
	}
	if result.Message != "synced 1 of 3 entries" {
		t.Fatalf("Run message = %q", result.Message)
	}
	if len(runner.order) != 3 || runner.order[0] != "L-1" || runner.order[1] != "L-2" || runner.order[2] != "L-3" {
		t.Fatalf("tasks ran in order %v", runner.order)
	}

	data, err := ctx.Artifacts.ReadJSON(artifact.ResultsJSON)
	if err != nil {
		t.Fatalf("read results: %v", err)
	}
	var payload struct {
		Results []entry `json:"results"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("parse results: %v", err)
	}
	if len(payload.Results) != 3 {
		t.Fatalf("results has %d entries, want 3", len(payload.Results))
	}
	if payload.Results[0].Status != entryWritten {
		t.Fatalf("L-1 status = %s, want written", payload.Results[0].Status)
	}
	if payload.Results[1].Status != entryFailed || payload.Results[2].Status != entryFailed {
		t.Fatalf("failure statuses = %s, %s, want failed", payload.Results[1].Status, payload.Results[2].Status)
	}

	report, err := ctx.Artifacts.Check(artifact.ReportDoc)
	if err != nil || report.State != artifact.StateReady {
		t.Fatalf("report check = %s, %v, want ready", report.State, err)
	}
}

func TestRunNoOpWhenResultsReadyUnlessForced(t *testing.T) {
	ctx := newTestContext(t)
	writePlanLinks(t, ctx, "L-1", "link-1")
	runner := &stubRunner{outcomes: map[string]agent.Outcome{
		"L-1": {LessonID: "L-1", Written: true, Output: "done"},
	}}

	if result, err := newSyncModule(runner).Run(ctx); err != nil || result.Status != module.StatusCompleted {
		t.Fatalf("first Run = %+v, %v", result, err)
	}
	result, err := newSyncModule(runner).Run(ctx)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if result.Status != module.StatusNoOp {
		t.Fatalf("second Run status = %s, want no-op", result.Status)
	}
	result, err = newSyncModule(runner, WithForce(true)).Run(ctx)
	if err != nil {
		t.Fatalf("forced Run: %v", err)
	}
	if result.Status != module.StatusCompleted {
		t.Fatalf("forced Run status = %s, want completed", result.Status)
	}
}

func TestRunFailsWithoutSpreadsheetID(t *testing.T) {
	ctx := newTestContext(t)
	ctx.Config.Project.Spreadsheet.ID = ""
	writePlanLinks(t, ctx, "L-1", "link-1")

	result, err := newSyncModule(&stubRunner{}).Run(ctx)
	if err == nil {
		t.Fatal("Run succeeded without a spreadsheet id")
	}
	if result.Status != module.StatusFailed {
		t.Fatalf("Run status = %s, want failed", result.Status)
	}
}

func TestRunFailsWithoutAPIKey(t *testing.T) {
	ctx := newTestContext(t)
	ctx.Config.Project.Agent.APIKey = ""
	writePlanLinks(t, ctx, "L-1", "link-1")

	result, err := newSyncModule(&stubRunner{}).Run(ctx)
	if err == nil {
		t.Fatal("Run succeeded without an API key")
	}
	if result.Status != module.StatusFailed {
		t.Fatalf("Run status = %s, want failed", result.Status)
	}
}
