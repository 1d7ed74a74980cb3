// internal/pipeline/pipeline.go
//
// Defines the run directory structure and file constants. All run state is
// stored in .chalkline/run/ so a finished or interrupted pipeline can be
// inspected after the fact.

package pipeline

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Directory names within .chalkline/
const (
	RunDir = "run"
)

// File names for run artifacts
const (
	FilePlanLinks = "plan_links.json"
	FileResults   = "extraction_results.json"
	FileReport    = "REPORT.md"
	FileLogbook   = "logbook.log"
)

// Marker files (empty files that signal a stage is mid-run)
const (
	MarkerScanActive = ".scan-active"
	MarkerSyncActive = ".sync-active"
)

// Pipeline manages the run directory structure
type Pipeline struct {
	// Base path to .chalkline directory
	chalklineDir string
}

// New creates a new Pipeline manager
func New(chalklineDir string) *Pipeline {
	return &Pipeline{
		chalklineDir: chalklineDir,
	}
}

// Dir returns the run directory path
func (p *Pipeline) Dir() string {
	return filepath.Join(p.chalklineDir, RunDir)
}

// PlanLinksPath returns the path to plan_links.json
func (p *Pipeline) PlanLinksPath() string {
	return filepath.Join(p.Dir(), FilePlanLinks)
}

// ResultsPath returns the path to extraction_results.json
func (p *Pipeline) ResultsPath() string {
	return filepath.Join(p.Dir(), FileResults)
}

// ReportPath returns the path to REPORT.md
func (p *Pipeline) ReportPath() string {
	return filepath.Join(p.Dir(), FileReport)
}

// LogbookPath returns the path to the run journal
func (p *Pipeline) LogbookPath() string {
	return filepath.Join(p.Dir(), FileLogbook)
}

// ScanActivePath returns the marker path for an in-flight plan scan
func (p *Pipeline) ScanActivePath() string {
	return filepath.Join(p.Dir(), MarkerScanActive)
}

// SyncActivePath returns the marker path for an in-flight standards sync
func (p *Pipeline) SyncActivePath() string {
	return filepath.Join(p.Dir(), MarkerSyncActive)
}

// PlanLinksRecorded reports whether a plan scan has produced its mapping.
func (p *Pipeline) PlanLinksRecorded() bool {
	return fileExistsAt(p.PlanLinksPath())
}

// ResultsRecorded reports whether a standards sync has produced its results.
func (p *Pipeline) ResultsRecorded() bool {
	return fileExistsAt(p.ResultsPath())
}

// Initialize creates the run directory
func (p *Pipeline) Initialize() error {
	return os.MkdirAll(p.Dir(), 0755)
}

// Reset removes the entire run directory (for starting fresh)
func (p *Pipeline) Reset() error {
	return os.RemoveAll(p.Dir())
}

// NewRunID returns a short unique identifier stamped into artifact metadata
// so entries from different runs can be told apart.
func NewRunID() string {
	return uuid.New().String()[:8]
}

func fileExistsAt(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
