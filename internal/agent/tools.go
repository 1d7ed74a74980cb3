package agent

import (
	"context"
	"fmt"

	"github.com/kingrea/chalkline/internal/drivelink"
	"github.com/kingrea/chalkline/internal/workspace"

	"google.golang.org/genai"
)

const (
	toolReadLessonPlan = "read_lesson_plan"
	toolWriteStandards = "write_standards"
)

func declarations() []*genai.FunctionDeclaration {
	return []*genai.FunctionDeclaration{
		{
			Name:        toolReadLessonPlan,
			Description: "Read the full plain text of a lesson plan Google Doc given its sharing link.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"docurl": {
						Type:        genai.TypeString,
						Description: "Sharing link of the lesson plan document",
					},
				},
				Required: []string{"docurl"},
			},
		},
		{
			Name:        toolWriteStandards,
			Description: "Write a comma-separated list of standards into the tracker row whose key column matches the lesson id.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"lesson_id": {
						Type:        genai.TypeString,
						Description: "Lesson id to locate in the tracker's key column",
					},
					"standards": {
						Type:        genai.TypeString,
						Description: "Comma-separated list of standards found in the lesson plan",
					},
				},
				Required: []string{"lesson_id", "standards"},
			},
		},
	}
}

func (r *Runner) readLessonPlan(ctx context.Context, task Task, args map[string]any, outcome *Outcome) map[string]any {
	docurl := stringArg(args, "docurl", task.DocumentLink)
	docID, ok := drivelink.Resolve(docurl)
	if !ok {
		detail := fmt.Sprintf("link %q matches no known shape", docurl)
		r.journal.Warn("%s: read_lesson_plan: %s", task.LessonID, detail)
		outcome.Calls = append(outcome.Calls, ToolCall{Name: toolReadLessonPlan, Status: "error", Detail: detail})
		return map[string]any{"status": "error", "message": detail}
	}
	text, err := r.ws.DocumentText(ctx, docID)
	if err != nil {
		r.journal.Warn("%s: read_lesson_plan: %v", task.LessonID, err)
		outcome.Calls = append(outcome.Calls, ToolCall{Name: toolReadLessonPlan, Status: "error", Detail: err.Error()})
		return map[string]any{"status": "error", "message": err.Error()}
	}
	r.journal.Info("%s: read_lesson_plan: %d characters", task.LessonID, len(text))
	outcome.Calls = append(outcome.Calls, ToolCall{Name: toolReadLessonPlan, Status: "ok", Detail: fmt.Sprintf("%d characters", len(text))})
	return map[string]any{"status": "ok", "text": text}
}

func (r *Runner) writeStandards(ctx context.Context, task Task, args map[string]any, outcome *Outcome) map[string]any {
	lessonID := stringArg(args, "lesson_id", task.LessonID)
	standards := stringArg(args, "standards", "")
	keys, err := r.ws.ReadColumn(ctx, task.SpreadsheetID, r.sheet.KeyColumn, r.sheet.Tab)
	if err != nil {
		r.journal.Warn("%s: write_standards: %v", task.LessonID, err)
		outcome.Calls = append(outcome.Calls, ToolCall{Name: toolWriteStandards, Status: "error", Detail: err.Error()})
		return map[string]any{"status": "error", "message": err.Error()}
	}
	row := workspace.FindRowByKey(keys, lessonID)
	if row == 0 {
		detail := fmt.Sprintf("no row with %q in column %s", lessonID, r.sheet.KeyColumn)
		r.journal.Warn("%s: write_standards: %s", task.LessonID, detail)
		outcome.Calls = append(outcome.Calls, ToolCall{Name: toolWriteStandards, Status: "error", Detail: detail})
		return map[string]any{"status": "error", "message": detail}
	}
	if err := r.ws.WriteCell(ctx, task.SpreadsheetID, r.sheet.StandardsColumn, row, r.sheet.Tab, standards); err != nil {
		r.journal.Warn("%s: write_standards: %v", task.LessonID, err)
		outcome.Calls = append(outcome.Calls, ToolCall{Name: toolWriteStandards, Status: "error", Detail: err.Error()})
		return map[string]any{"status": "error", "message": err.Error()}
	}
	cell := fmt.Sprintf("%s%d", r.sheet.StandardsColumn, row)
	r.journal.Info("%s: write_standards: wrote %s", task.LessonID, cell)
	outcome.Written = true
	outcome.Calls = append(outcome.Calls, ToolCall{Name: toolWriteStandards, Status: "ok", Detail: cell})
	return map[string]any{"status": "ok", "cell": cell}
}
