package tui

import (
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/chalkline/internal/artifact"
	"github.com/kingrea/chalkline/internal/config"
	"github.com/kingrea/chalkline/internal/logbook"
	"github.com/kingrea/chalkline/internal/module"
	"github.com/kingrea/chalkline/internal/pipeline"
)

// stubStage runs instantly and optionally writes its output artifact.
type stubStage struct {
	module.Base
	result module.Result
	write  bool
	runs   *int
}

func newStubStage(id string, output artifact.ArtifactRef, result module.Result, write bool, runs *int) *stubStage {
	base := module.NewBase(module.Info{ID: id, Name: id, Version: "test"})
	base.SetOutputs(output)
	return &stubStage{Base: base, result: result, write: write, runs: runs}
}

func (s *stubStage) IsComplete(ctx *module.ModuleContext) (bool, error) {
	result, err := ctx.Artifacts.Check(s.Outputs()[0])
	if err != nil {
		return false, err
	}
	return result.State == artifact.StateReady, nil
}

func (s *stubStage) Run(ctx *module.ModuleContext) (module.Result, error) {
	if s.runs != nil {
		*s.runs++
	}
	if s.write {
		meta := artifact.Metadata{ArtifactID: s.Outputs()[0].ID, ModuleID: s.Info().ID, Version: "test"}
		if err := ctx.Artifacts.Write(s.Outputs()[0], []byte("{}"), meta); err != nil {
			return module.Result{Status: module.StatusFailed}, err
		}
	}
	return s.result, nil
}

func newTestApp(t *testing.T, scanRuns, syncRuns *int) *App {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		ProjectDir:          dir,
		ChalklineProjectDir: filepath.Join(dir, ".chalkline"),
	}
	p := pipeline.New(cfg.ChalklineProjectDir)
	if err := p.Initialize(); err != nil {
		t.Fatalf("initialize pipeline: %v", err)
	}
	lb, err := logbook.New(p.LogbookPath())
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	moduleCtx := module.NewContext(cfg, p, lb)

	reg := module.NewRegistry()
	reg.MustRegister("plan-scan", func(module.Config) (module.Module, error) {
		return newStubStage("plan-scan", artifact.PlanLinksJSON,
			module.Result{Status: module.StatusCompleted, Message: "mapped 2 of 3 rows"}, true, scanRuns), nil
	})
	reg.MustRegister("standards-sync", func(module.Config) (module.Module, error) {
		return newStubStage("standards-sync", artifact.ResultsJSON,
			module.Result{Status: module.StatusCompleted, Message: "synced 2 of 2 entries"}, true, syncRuns), nil
	})

	app, err := NewApp(dir, WithModuleContext(moduleCtx), WithRegistry(reg))
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	return app
}

// drain executes a command tree synchronously, feeding messages back into
// the model until no command remains.
func drain(t *testing.T, m tea.Model, cmd tea.Cmd) tea.Model {
	t.Helper()
	for cmd != nil {
		msg := cmd()
		if msg == nil {
			return m
		}
		switch batch := msg.(type) {
		case tea.BatchMsg:
			for _, sub := range batch {
				m = drain(t, m, sub)
			}
			return m
		default:
			m, cmd = m.Update(msg)
		}
	}
	return m
}

func keyMsg(key string) tea.KeyMsg {
	if key == "enter" {
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

func TestStagesStartPending(t *testing.T) {
	app := newTestApp(t, nil, nil)
	if len(app.stages) != 2 {
		t.Fatalf("dashboard has %d stages, want 2", len(app.stages))
	}
	for _, stage := range app.stages {
		if stage.state != "pending" {
			t.Fatalf("stage %s starts %q, want pending", stage.id, stage.state)
		}
	}
}

func TestEnterRunsSelectedStage(t *testing.T) {
	var scanRuns int
	app := newTestApp(t, &scanRuns, nil)

	model, cmd := app.Update(keyMsg("enter"))
	if cmd == nil {
		t.Fatal("enter produced no command")
	}
	model = drain(t, model, cmd)
	app = model.(*App)

	if scanRuns != 1 {
		t.Fatalf("plan-scan ran %d times, want 1", scanRuns)
	}
	if app.runningID != "" {
		t.Fatalf("runningID = %q after completion", app.runningID)
	}
	if app.stages[0].state != "ready" {
		t.Fatalf("plan-scan state = %q, want ready", app.stages[0].state)
	}
	if app.stages[0].message != "mapped 2 of 3 rows" {
		t.Fatalf("plan-scan message = %q", app.stages[0].message)
	}
}

func TestRunAllChainsStagesInOrder(t *testing.T) {
	var scanRuns, syncRuns int
	app := newTestApp(t, &scanRuns, &syncRuns)

	model, cmd := app.Update(keyMsg("a"))
	model = drain(t, model, cmd)
	app = model.(*App)

	if scanRuns != 1 || syncRuns != 1 {
		t.Fatalf("stage runs = %d, %d, want 1 and 1", scanRuns, syncRuns)
	}
	for _, stage := range app.stages {
		if stage.state != "ready" {
			t.Fatalf("stage %s state = %q after run all", stage.id, stage.state)
		}
	}
}

func TestViewListsStagesAndHelp(t *testing.T) {
	app := newTestApp(t, nil, nil)
	view := app.View()
	if !strings.Contains(view, "plan-scan") || !strings.Contains(view, "standards-sync") {
		t.Fatalf("view missing stage names:\n%s", view)
	}
	if !strings.Contains(view, "q quit") {
		t.Fatalf("view missing help line:\n%s", view)
	}
}
