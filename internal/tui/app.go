// internal/tui/app.go
//
// The Chalkline dashboard. It uses bubbletea, which follows The Elm
// Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The dashboard shows the two pipeline stages with their artifact states and
// last results, plus a live tail of the run journal. Stages run one at a
// time in a background command; "a" chains them in pipeline order.

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/chalkline/internal/artifact"
	"github.com/kingrea/chalkline/internal/config"
	"github.com/kingrea/chalkline/internal/logbook"
	"github.com/kingrea/chalkline/internal/logging"
	"github.com/kingrea/chalkline/internal/module"
	"github.com/kingrea/chalkline/internal/modules"
	"github.com/kingrea/chalkline/internal/pipeline"
)

const journalRefreshInterval = 3 * time.Second

const journalTailLines = 12

var (
	titleStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	stateStyleReady   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	stateStylePending = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
	stateStyleRunning = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	stateStyleFailed  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	stageNameStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
	detailTextStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	helpStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
	panelStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(0, 1)
)

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithModuleContext injects a pre-built module context (tests).
func WithModuleContext(ctx *module.ModuleContext) AppOption {
	return func(a *App) {
		if ctx != nil {
			a.moduleCtx = ctx
		}
	}
}

// WithRegistry injects a pre-built stage registry (tests).
func WithRegistry(reg *module.Registry) AppOption {
	return func(a *App) {
		if reg != nil {
			a.registry = reg
		}
	}
}

// stageRow is the dashboard's view of one pipeline stage.
type stageRow struct {
	id      string
	name    string
	desc    string
	state   string
	message string
	failed  bool
}

type stageFinishedMsg struct {
	id     string
	result module.Result
	err    error
}

type journalTickMsg struct{}

// App is the dashboard model. In bubbletea, this holds ALL the state.
type App struct {
	moduleCtx *module.ModuleContext
	registry  *module.Registry

	stages    []stageRow
	selection int
	runningID string
	runQueue  []string

	spin    spinner.Model
	logView viewport.Model
	logger  *logging.Logger
	ready   bool
	width   int
	height  int
	err     error
}

// NewApp builds the dashboard for the given project directory.
func NewApp(projectDir string, opts ...AppOption) (*App, error) {
	a := &App{}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	if a.moduleCtx == nil {
		cfg, err := config.NewConfig(projectDir)
		if err != nil {
			return nil, err
		}
		p := pipeline.New(cfg.ChalklineProjectDir)
		if err := p.Initialize(); err != nil {
			return nil, fmt.Errorf("tui: initialize run dir: %w", err)
		}
		lb, err := logbook.New(p.LogbookPath())
		if err != nil {
			return nil, fmt.Errorf("tui: open logbook: %w", err)
		}
		a.moduleCtx = module.NewContext(cfg, p, lb).WithMode("dashboard")
		if logger, err := logging.New(cfg.LogsDir()); err == nil {
			a.logger = logger
			a.logger.Printf("dashboard session started in %s", projectDir)
		}
	}
	if a.registry == nil {
		a.registry = module.NewRegistry()
		modules.RegisterBuiltins(a.registry)
	}
	a.spin = spinner.New(spinner.WithSpinner(spinner.Dot))
	a.logView = viewport.New(80, journalTailLines)
	if err := a.buildStageRows(); err != nil {
		return nil, err
	}
	a.refreshStates()
	return a, nil
}

func (a *App) buildStageRows() error {
	for _, id := range modules.PipelineOrder {
		mod, err := a.registry.Resolve(id, nil)
		if err != nil {
			return fmt.Errorf("tui: resolve stage %s: %w", id, err)
		}
		info := mod.Info()
		a.stages = append(a.stages, stageRow{id: info.ID, name: info.Name, desc: info.Description})
	}
	return nil
}

// refreshStates re-checks every stage's output artifacts on disk.
func (a *App) refreshStates() {
	for i := range a.stages {
		if a.stages[i].id == a.runningID {
			a.stages[i].state = "running"
			continue
		}
		a.stages[i].state = a.stageState(a.stages[i].id)
	}
	a.logView.SetContent(strings.Join(a.moduleCtx.Logbook.Tail(journalTailLines), "\n"))
	a.logView.GotoBottom()
}

func (a *App) stageState(id string) string {
	mod, err := a.registry.Resolve(id, nil)
	if err != nil {
		return "unknown"
	}
	for _, ref := range mod.Outputs() {
		result, err := a.moduleCtx.Artifacts.Check(ref)
		if err != nil || result.State != artifact.StateReady {
			return "pending"
		}
	}
	return "ready"
}

// Init starts the spinner and the journal refresh ticks.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spin.Tick, scheduleJournalTick())
}

func scheduleJournalTick() tea.Cmd {
	return tea.Tick(journalRefreshInterval, func(time.Time) tea.Msg {
		return journalTickMsg{}
	})
}

// Update routes messages to the model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.logView.Width = msg.Width - 4
		a.ready = true
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd

	case journalTickMsg:
		a.refreshStates()
		return a, scheduleJournalTick()

	case stageFinishedMsg:
		return a.handleStageFinished(msg)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "up", "k":
		if a.selection > 0 {
			a.selection--
		}
	case "down", "j":
		if a.selection < len(a.stages)-1 {
			a.selection++
		}
	case "r":
		a.refreshStates()
	case "enter":
		if a.runningID == "" && len(a.stages) > 0 {
			return a, a.startStage(a.stages[a.selection].id)
		}
	case "a":
		if a.runningID == "" && len(a.stages) > 0 {
			a.runQueue = append([]string{}, modules.PipelineOrder[1:]...)
			return a, a.startStage(modules.PipelineOrder[0])
		}
	default:
		var cmd tea.Cmd
		a.logView, cmd = a.logView.Update(msg)
		return a, cmd
	}
	return a, nil
}

// startStage kicks off one stage in a background command. The stage runs to
// completion; its result comes back as a stageFinishedMsg.
func (a *App) startStage(id string) tea.Cmd {
	a.runningID = id
	a.err = nil
	for i := range a.stages {
		if a.stages[i].id == id {
			a.stages[i].state = "running"
			a.stages[i].message = ""
			a.stages[i].failed = false
		}
	}
	moduleCtx := a.moduleCtx
	registry := a.registry
	return func() tea.Msg {
		mod, err := registry.Resolve(id, nil)
		if err != nil {
			return stageFinishedMsg{id: id, err: err}
		}
		result, err := mod.Run(moduleCtx)
		return stageFinishedMsg{id: id, result: result, err: err}
	}
}

func (a *App) handleStageFinished(msg stageFinishedMsg) (tea.Model, tea.Cmd) {
	a.runningID = ""
	if msg.err != nil {
		a.logger.Printf("stage %s: %v", msg.id, msg.err)
	} else {
		a.logger.Printf("stage %s: %s %s", msg.id, msg.result.Status, msg.result.Message)
	}
	for i := range a.stages {
		if a.stages[i].id != msg.id {
			continue
		}
		if msg.err != nil {
			a.stages[i].failed = true
			a.stages[i].message = msg.err.Error()
		} else {
			a.stages[i].failed = msg.result.Status == module.StatusFailed
			a.stages[i].message = msg.result.Message
		}
	}
	a.refreshStates()
	if msg.err != nil {
		a.err = msg.err
		a.runQueue = nil
		return a, nil
	}
	if len(a.runQueue) > 0 {
		next := a.runQueue[0]
		a.runQueue = a.runQueue[1:]
		return a, a.startStage(next)
	}
	return a, nil
}

// View renders the dashboard.
func (a *App) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Chalkline · lesson plan standards pipeline"))
	b.WriteString("\n\n")

	for i, stage := range a.stages {
		cursor := "  "
		if i == a.selection {
			cursor = "> "
		}
		label := a.renderStateLabel(stage)
		line := fmt.Sprintf("%s%s %s", cursor, label, stageNameStyle.Render(stage.name))
		b.WriteString(line)
		b.WriteString("\n")
		if stage.message != "" {
			b.WriteString(detailTextStyle.Render("      " + stage.message))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(panelStyle.Render(a.renderJournalPanel()))
	b.WriteString("\n")
	if a.err != nil {
		b.WriteString(stateStyleFailed.Render("error: " + a.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("↑/↓ select · enter run stage · a run all · r refresh · q quit"))
	b.WriteString("\n")
	return b.String()
}

func (a *App) renderStateLabel(stage stageRow) string {
	switch {
	case stage.id == a.runningID:
		return stateStyleRunning.Render(a.spin.View() + "running")
	case stage.failed:
		return stateStyleFailed.Render("[failed] ")
	case stage.state == "ready":
		return stateStyleReady.Render("[ready]  ")
	default:
		return stateStylePending.Render("[pending]")
	}
}

func (a *App) renderJournalPanel() string {
	tail := a.moduleCtx.Logbook.Tail(journalTailLines)
	if len(tail) == 0 {
		return detailTextStyle.Render("journal is empty, run a stage to see progress here")
	}
	return a.logView.View()
}
