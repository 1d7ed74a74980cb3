// Package roster loads the lesson tracker export and walks it against Drive,
// pairing each ready row with its lesson plan document link.
package roster

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// Row is one line of the tracker export.
type Row struct {
	LessonID  string
	Ready     string
	FolderRef string
}

// Columns names the roster columns by spreadsheet letter.
type Columns struct {
	ID     string
	Ready  string
	Folder string
}

// Load reads the export CSV, skipping the header row. Rows shorter than the
// referenced columns load with the missing fields empty; the walker decides
// what to do with them.
func Load(path string, cols Columns) ([]Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("roster: open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("roster: parse %s: %w", path, err)
	}

	idIdx, err := columnIndex(cols.ID)
	if err != nil {
		return nil, err
	}
	readyIdx, err := columnIndex(cols.Ready)
	if err != nil {
		return nil, err
	}
	folderIdx, err := columnIndex(cols.Folder)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(records))
	for i, record := range records {
		if i == 0 {
			continue
		}
		rows = append(rows, Row{
			LessonID:  field(record, idIdx),
			Ready:     field(record, readyIdx),
			FolderRef: field(record, folderIdx),
		})
	}
	return rows, nil
}

func field(record []string, idx int) string {
	if idx < len(record) {
		return record[idx]
	}
	return ""
}

// columnIndex converts a spreadsheet column letter (A..Z, AA..) into a
// zero-based index.
func columnIndex(letter string) (int, error) {
	normalized := strings.ToUpper(strings.TrimSpace(letter))
	if normalized == "" {
		return 0, fmt.Errorf("roster: empty column letter")
	}
	n := 0
	for _, r := range normalized {
		if r < 'A' || r > 'Z' {
			return 0, fmt.Errorf("roster: bad column letter %q", letter)
		}
		n = n*26 + int(r-'A') + 1
	}
	return n - 1, nil
}
