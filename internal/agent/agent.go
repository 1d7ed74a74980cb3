// Package agent drives the standards extraction loop: a Gemini model reads a
// lesson plan through a reader tool and files the standards it finds through
// a sheets writer tool. The model is a black box; everything around it
// (tools, turn cap, fallbacks) is deterministic and recorded per task.
package agent

import "context"

// Task is one unit of extraction work: a lesson id, the link to its plan
// document, and the tracker spreadsheet to update.
type Task struct {
	LessonID      string
	DocumentLink  string
	SpreadsheetID string
}

// ToolCall records one tool invocation made while processing a task.
type ToolCall struct {
	Name   string
	Status string
	Detail string
}

// Outcome is the result of one task. Output is the model's final text (never
// empty; a silent model yields the fallback line). Written reports whether
// the standards cell was actually updated.
type Outcome struct {
	LessonID string
	Output   string
	Written  bool
	Calls    []ToolCall
}

// Workspace is the slice of Google services the tools touch.
// *workspace.Services satisfies it.
type Workspace interface {
	DocumentText(ctx context.Context, documentID string) (string, error)
	ReadColumn(ctx context.Context, spreadsheetID, column, tab string) ([]string, error)
	WriteCell(ctx context.Context, spreadsheetID, column string, row int, tab, value string) error
}

// Sheet names the tracker geometry the writer tool targets.
type Sheet struct {
	KeyColumn       string
	StandardsColumn string
	Tab             string
}

// Journal receives per-call diagnostics. *logbook.Logbook satisfies it.
type Journal interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
}

type noopJournal struct{}

func (noopJournal) Info(string, ...any) {}
func (noopJournal) Warn(string, ...any) {}
