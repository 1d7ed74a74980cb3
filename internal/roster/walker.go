package roster

import (
	"context"
	"strings"

	"github.com/kingrea/chalkline/internal/drivelink"
	"github.com/kingrea/chalkline/internal/lessonplan"
)

// FolderLister fetches the immediate children of a Drive folder.
type FolderLister interface {
	ListFolder(ctx context.Context, folderID string) ([]lessonplan.File, error)
}

// Journal receives walk diagnostics. *logbook.Logbook satisfies it.
type Journal interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
}

type noopJournal struct{}

func (noopJournal) Info(string, ...any) {}
func (noopJournal) Warn(string, ...any) {}

// Stats tallies walk outcomes for the end-of-run summary.
type Stats struct {
	Rows       int
	Mapped     int
	NotReady   int
	Incomplete int
	BadRef     int
	ListFailed int
	NoMatch    int
}

// Skipped returns how many rows produced no mapping entry.
func (s Stats) Skipped() int {
	return s.NotReady + s.Incomplete + s.BadRef + s.ListFailed + s.NoMatch
}

// Walker pairs roster rows with lesson plan links.
type Walker struct {
	lister  FolderLister
	journal Journal
}

// NewWalker builds a walker over the given listing service.
func NewWalker(lister FolderLister, journal Journal) *Walker {
	if journal == nil {
		journal = noopJournal{}
	}
	return &Walker{lister: lister, journal: journal}
}

// Walk processes every row exactly once, in source order. A fault on one row
// is recorded in the journal and never stops the walk. Rows whose readiness
// flag equals "false" (any case) are filtered; any other value, blank
// included, counts as ready.
func (w *Walker) Walk(ctx context.Context, rows []Row) (*lessonplan.Mapping, Stats) {
	mapping := lessonplan.NewMapping()
	var stats Stats
	for i, row := range rows {
		stats.Rows++
		rowNum := i + 2 // 1-based plus the header row

		if strings.EqualFold(strings.TrimSpace(row.Ready), "false") {
			stats.NotReady++
			w.journal.Info("row %d: not ready, skipped", rowNum)
			continue
		}
		id := strings.TrimSpace(row.LessonID)
		ref := strings.TrimSpace(row.FolderRef)
		if id == "" || ref == "" {
			stats.Incomplete++
			w.journal.Info("row %d: missing lesson id or folder link, skipped", rowNum)
			continue
		}
		folderID, ok := drivelink.Resolve(ref)
		if !ok {
			stats.BadRef++
			w.journal.Warn("row %d (%s): folder link %q matches no known shape, skipped", rowNum, id, ref)
			continue
		}
		files, err := w.lister.ListFolder(ctx, folderID)
		if err != nil {
			stats.ListFailed++
			w.journal.Warn("row %d (%s): %v, skipped", rowNum, id, err)
			continue
		}
		selection, ok := lessonplan.Select(files)
		if !ok {
			stats.NoMatch++
			w.journal.Warn("row %d (%s): no lesson plan among %d files%s", rowNum, id, len(files), contentsHint(files))
			continue
		}
		if _, dup := mapping.Get(id); dup {
			w.journal.Info("row %d (%s): duplicate lesson id, later row wins", rowNum, id)
		} else {
			stats.Mapped++
		}
		mapping.Set(id, selection.File.ViewLink)
		w.journal.Info("row %d (%s): tier %d pick %q (%s)", rowNum, id, selection.Tier, selection.File.Name, selection.Reason)
	}
	return mapping, stats
}

// contentsHint lists a few folder item names so naming drift is easy to spot
// in the journal.
func contentsHint(files []lessonplan.File) string {
	if len(files) == 0 {
		return ""
	}
	names := make([]string, 0, 5)
	for _, f := range files {
		if len(names) == 5 {
			names = append(names, "...")
			break
		}
		names = append(names, f.Name)
	}
	return ": " + strings.Join(names, ", ")
}
