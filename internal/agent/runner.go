package agent

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// NoStandardsFound is the output recorded when the model produces no text.
const NoStandardsFound = "No standards found"

const defaultMaxTurns = 3

// generator is the model seam; tests stub it with canned responses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type genaiModels struct {
	client *genai.Client
}

func (g genaiModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return g.client.Models.GenerateContent(ctx, model, contents, config)
}

// Runner executes extraction tasks one at a time against a Gemini model.
type Runner struct {
	models   generator
	model    string
	maxTurns int
	ws       Workspace
	sheet    Sheet
	journal  Journal
}

// Option customizes a Runner.
type Option func(*Runner)

// WithGenerator swaps the model backend (used in tests).
func WithGenerator(g generator) Option {
	return func(r *Runner) {
		if g != nil {
			r.models = g
		}
	}
}

// WithMaxTurns caps the prompt/tool round trips per task.
func WithMaxTurns(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.maxTurns = n
		}
	}
}

// WithJournal routes tool diagnostics to the given journal.
func WithJournal(j Journal) Option {
	return func(r *Runner) {
		if j != nil {
			r.journal = j
		}
	}
}

// New builds a runner. Unless a generator is injected, a Gemini API client is
// constructed from the key.
func New(ctx context.Context, apiKey, model string, ws Workspace, sheet Sheet, opts ...Option) (*Runner, error) {
	if ws == nil {
		return nil, fmt.Errorf("agent: workspace is required")
	}
	r := &Runner{
		model:    model,
		maxTurns: defaultMaxTurns,
		ws:       ws,
		sheet:    sheet,
		journal:  noopJournal{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.models == nil {
		if strings.TrimSpace(apiKey) == "" {
			return nil, fmt.Errorf("agent: api key is required")
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("agent: build genai client: %w", err)
		}
		r.models = genaiModels{client: client}
	}
	return r, nil
}

// RunTask runs the extraction loop for one task. Each turn sends the
// conversation so far; tool calls are executed and their results fed back as
// function responses. The loop stops when the model answers with plain text
// or the turn cap is hit. Model/transport failures abort the task with an
// error; tool-level failures are reported back to the model instead.
func (r *Runner) RunTask(ctx context.Context, task Task) (Outcome, error) {
	outcome := Outcome{LessonID: task.LessonID}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Tools:             []*genai.Tool{{FunctionDeclarations: declarations()}},
	}
	contents := []*genai.Content{
		genai.NewContentFromText(taskPrompt(task, r.sheet), genai.RoleUser),
	}
	var lastText string
	for turn := 0; turn < r.maxTurns; turn++ {
		resp, err := r.models.GenerateContent(ctx, r.model, contents, config)
		if err != nil {
			return outcome, fmt.Errorf("agent: %s: model turn %d: %w", task.LessonID, turn+1, err)
		}
		if text := strings.TrimSpace(resp.Text()); text != "" {
			lastText = text
		}
		calls := resp.FunctionCalls()
		if len(calls) == 0 {
			break
		}
		if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
			contents = append(contents, resp.Candidates[0].Content)
		}
		parts := make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			result := r.execute(ctx, task, call, &outcome)
			parts = append(parts, genai.NewPartFromFunctionResponse(call.Name, result))
		}
		contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))
	}
	if lastText == "" {
		lastText = NoStandardsFound
	}
	outcome.Output = lastText
	return outcome, nil
}

func (r *Runner) execute(ctx context.Context, task Task, call *genai.FunctionCall, outcome *Outcome) map[string]any {
	switch call.Name {
	case toolReadLessonPlan:
		return r.readLessonPlan(ctx, task, call.Args, outcome)
	case toolWriteStandards:
		return r.writeStandards(ctx, task, call.Args, outcome)
	default:
		r.journal.Warn("%s: model called unknown tool %q", task.LessonID, call.Name)
		outcome.Calls = append(outcome.Calls, ToolCall{Name: call.Name, Status: "error", Detail: "unknown tool"})
		return map[string]any{"status": "error", "message": "unknown tool " + call.Name}
	}
}

func stringArg(args map[string]any, key, fallback string) string {
	if value, ok := args[key].(string); ok && strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}
