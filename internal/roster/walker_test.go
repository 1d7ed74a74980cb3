package roster

import (
	"context"
	"fmt"
	"testing"

	"github.com/kingrea/chalkline/internal/lessonplan"
	"github.com/kingrea/chalkline/internal/workspace"
)

type stubLister struct {
	listings map[string][]lessonplan.File
	faults   map[string]error
}

func (s stubLister) ListFolder(_ context.Context, folderID string) ([]lessonplan.File, error) {
	if err, ok := s.faults[folderID]; ok {
		return nil, err
	}
	return s.listings[folderID], nil
}

func folderURL(id string) string {
	return fmt.Sprintf("https://drive.google.com/drive/folders/%s?usp=sharing", id)
}

func planDoc(name, link string) lessonplan.File {
	return lessonplan.File{Name: name, MimeType: lessonplan.MimeGoogleDoc, ViewLink: link}
}

func TestWalkSkipsNotReadyRowsAnyCase(t *testing.T) {
	lister := stubLister{listings: map[string][]lessonplan.File{
		"F1": {planDoc("lesson plan", "link-1")},
	}}
	rows := []Row{
		{LessonID: "L-1", Ready: "FALSE", FolderRef: folderURL("F1")},
		{LessonID: "L-2", Ready: "false", FolderRef: folderURL("F1")},
		{LessonID: "L-3", Ready: " False ", FolderRef: folderURL("F1")},
	}

	mapping, stats := NewWalker(lister, nil).Walk(context.Background(), rows)
	if mapping.Len() != 0 {
		t.Fatalf("mapping has %d entries, want 0", mapping.Len())
	}
	if stats.NotReady != 3 {
		t.Fatalf("NotReady = %d, want 3", stats.NotReady)
	}
}

func TestWalkTreatsBlankAndOtherFlagsAsReady(t *testing.T) {
	lister := stubLister{listings: map[string][]lessonplan.File{
		"F1": {planDoc("lesson plan", "link-1")},
	}}
	rows := []Row{
		{LessonID: "L-1", Ready: "", FolderRef: folderURL("F1")},
		{LessonID: "L-2", Ready: "maybe", FolderRef: folderURL("F1")},
	}

	mapping, stats := NewWalker(lister, nil).Walk(context.Background(), rows)
	if mapping.Len() != 2 {
		t.Fatalf("mapping has %d entries, want 2", mapping.Len())
	}
	if stats.Mapped != 2 {
		t.Fatalf("Mapped = %d, want 2", stats.Mapped)
	}
}

func TestWalkSkipsIncompleteRows(t *testing.T) {
	lister := stubLister{}
	rows := []Row{
		{LessonID: "  ", Ready: "TRUE", FolderRef: folderURL("F1")},
		{LessonID: "L-2", Ready: "TRUE", FolderRef: "   "},
	}

	mapping, stats := NewWalker(lister, nil).Walk(context.Background(), rows)
	if mapping.Len() != 0 {
		t.Fatalf("mapping has %d entries, want 0", mapping.Len())
	}
	if stats.Incomplete != 2 {
		t.Fatalf("Incomplete = %d, want 2", stats.Incomplete)
	}
}

func TestWalkDuplicateLessonIDLaterRowWins(t *testing.T) {
	lister := stubLister{listings: map[string][]lessonplan.File{
		"F1": {planDoc("lesson plan v1", "link-old")},
		"F2": {planDoc("lesson plan v2", "link-new")},
	}}
	rows := []Row{
		{LessonID: "L-1", FolderRef: folderURL("F1")},
		{LessonID: "L-1", FolderRef: folderURL("F2")},
	}

	mapping, stats := NewWalker(lister, nil).Walk(context.Background(), rows)
	if mapping.Len() != 1 {
		t.Fatalf("mapping has %d entries, want 1", mapping.Len())
	}
	if link, _ := mapping.Get("L-1"); link != "link-new" {
		t.Fatalf("L-1 link = %q, want the later row's link", link)
	}
	if stats.Mapped != 1 {
		t.Fatalf("stats.Mapped = %d, want 1 to match the mapping size", stats.Mapped)
	}
}

func TestWalkOneFaultNeverAbortsTheBatch(t *testing.T) {
	lister := stubLister{
		listings: map[string][]lessonplan.File{
			"F1": {
				{Name: "notes.txt", MimeType: lessonplan.MimePlainText, ViewLink: "link-notes"},
				{Name: "Finalized_LessonPlan", MimeType: lessonplan.MimePDF, ViewLink: "link-final"},
			},
			"F4": {{Name: "scratch.png", MimeType: "image/png", ViewLink: "link-img"}},
		},
		faults: map[string]error{
			"F3": &workspace.AccessError{Kind: workspace.FaultNotFound, Resource: "folder F3", Err: context.DeadlineExceeded},
		},
	}
	rows := []Row{
		{LessonID: "L-1", FolderRef: folderURL("F1")},
		{LessonID: "L-2", FolderRef: "https://example.com/no-drive-shape"},
		{LessonID: "L-3", FolderRef: folderURL("F3")},
		{LessonID: "L-4", FolderRef: folderURL("F4")},
	}

	mapping, stats := NewWalker(lister, nil).Walk(context.Background(), rows)
	if mapping.Len() != 1 {
		t.Fatalf("mapping has %d entries, want exactly 1", mapping.Len())
	}
	if link, _ := mapping.Get("L-1"); link != "link-final" {
		t.Fatalf("L-1 link = %q, want the tier-1 pick", link)
	}
	if stats.Rows != 4 || stats.BadRef != 1 || stats.ListFailed != 1 || stats.NoMatch != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.Skipped() != 3 {
		t.Fatalf("Skipped() = %d, want 3", stats.Skipped())
	}
}
