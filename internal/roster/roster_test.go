package roster

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSkipsHeaderAndToleratesShortRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.csv")
	content := "Lesson ID,Unit,Grade,Teacher,Ready,Folder Link\n" +
		"L-1,Unit 1,5,Ms. Reyes,TRUE,https://drive.google.com/drive/folders/AAA\n" +
		"L-2,Unit 2\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write roster: %v", err)
	}

	rows, err := Load(path, Columns{ID: "A", Ready: "E", Folder: "F"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("loaded %d rows, want 2", len(rows))
	}
	if rows[0].LessonID != "L-1" || rows[0].Ready != "TRUE" || rows[0].FolderRef == "" {
		t.Fatalf("row 1 = %+v", rows[0])
	}
	if rows[1].LessonID != "L-2" || rows[1].Ready != "" || rows[1].FolderRef != "" {
		t.Fatalf("short row = %+v, want empty missing fields", rows[1])
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.csv"), Columns{ID: "A", Ready: "E", Folder: "F"}); err == nil {
		t.Fatal("Load succeeded on a missing file")
	}
}

func TestColumnIndex(t *testing.T) {
	cases := []struct {
		letter string
		want   int
	}{
		{"A", 0},
		{"F", 5},
		{"Z", 25},
		{"AA", 26},
		{" p ", 15},
	}
	for _, tc := range cases {
		got, err := columnIndex(tc.letter)
		if err != nil {
			t.Fatalf("columnIndex(%q): %v", tc.letter, err)
		}
		if got != tc.want {
			t.Fatalf("columnIndex(%q) = %d, want %d", tc.letter, got, tc.want)
		}
	}
	if _, err := columnIndex("4"); err == nil {
		t.Fatal("columnIndex accepted a digit")
	}
	if _, err := columnIndex(""); err == nil {
		t.Fatal("columnIndex accepted an empty letter")
	}
}
