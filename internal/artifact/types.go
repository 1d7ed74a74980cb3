// Package artifact defines the filesystem-level contracts (inputs/outputs)
// that stages exchange. Each artifact has a stable identifier, kind, and a
// resolver that maps to the actual path within the project's .chalkline tree.

package artifact

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/kingrea/chalkline/internal/pipeline"
)

// Kind captures the storage shape and serialization format for an artifact.
type Kind string

const (
	// KindDocument represents a markdown-like text document with YAML frontmatter.
	KindDocument Kind = "document"
	// KindJSON represents a JSON document enriched with a _chalkline metadata block.
	KindJSON Kind = "json"
	// KindMarker represents an empty file used as a marker/flag.
	KindMarker Kind = "marker"
	// KindDirectory represents a directory that must exist.
	KindDirectory Kind = "directory"
)

// PathResolver returns the fully-qualified path to an artifact for the current run.
type PathResolver func(*pipeline.Pipeline) string

// ArtifactRef declares a stable identifier and metadata for an artifact.
type ArtifactRef struct {
	ID          string
	Name        string
	Description string
	Kind        Kind
	Optional    bool
	path        PathResolver
}

// Path resolves the artifact path for the provided pipeline instance.
func (r ArtifactRef) Path(p *pipeline.Pipeline) string {
	if p == nil || r.path == nil {
		return ""
	}
	return filepath.Clean(r.path(p))
}

// Validate ensures the reference is well-formed.
func (r ArtifactRef) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("artifact: id is required")
	}
	if r.Kind == "" {
		return fmt.Errorf("artifact: kind is required for %s", r.ID)
	}
	if r.path == nil {
		return fmt.Errorf("artifact: path resolver missing for %s", r.ID)
	}
	return nil
}

// Metadata captures provenance stored inside artifact frontmatter or metadata blocks.
type Metadata struct {
	ArtifactID string
	ModuleID   string
	Version    string
	Run        string
	Inputs     []string
	CreatedAt  time.Time
	Checksum   string
	Notes      map[string]string
}

// WithDefaults ensures metadata carries the artifact ID and timestamps.
func (m Metadata) WithDefaults(ref ArtifactRef, now time.Time) Metadata {
	clone := m
	if clone.ArtifactID == "" {
		clone.ArtifactID = ref.ID
	}
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = now.UTC()
	} else {
		clone.CreatedAt = clone.CreatedAt.UTC()
	}
	return clone
}

// ValidateFor ensures metadata matches the artifact contract.
func (m Metadata) ValidateFor(ref ArtifactRef) error {
	if m.ArtifactID != ref.ID {
		return fmt.Errorf("artifact: metadata id %s does not match ref %s", m.ArtifactID, ref.ID)
	}
	if m.ModuleID == "" {
		return fmt.Errorf("artifact: module id is required for %s", ref.ID)
	}
	if m.Version == "" {
		return fmt.Errorf("artifact: version is required for %s", ref.ID)
	}
	return nil
}

// State captures the readiness of an artifact on disk.
type State string

const (
	StateMissing State = "missing"
	StateReady   State = "ready"
	StateInvalid State = "invalid"
	StateError   State = "error"
)

// CheckResult captures Store.Check results.
type CheckResult struct {
	Ref      ArtifactRef
	Path     string
	State    State
	Metadata *Metadata
	Err      error
}

// helper to register global references
func register(ref ArtifactRef) ArtifactRef {
	if refs == nil {
		refs = map[string]ArtifactRef{}
	}
	refs[ref.ID] = ref
	return ref
}

var refs map[string]ArtifactRef

// Lookup returns a registered artifact reference by ID.
func Lookup(id string) (ArtifactRef, bool) {
	ref, ok := refs[id]
	return ref, ok
}

// newDocRef creates a markdown document reference helper.
func newDocRef(id, name, desc string, resolver PathResolver) ArtifactRef {
	return ArtifactRef{
		ID:          id,
		Name:        name,
		Description: desc,
		Kind:        KindDocument,
		path:        resolver,
	}
}

// newJSONRef creates a JSON artifact reference helper.
func newJSONRef(id, name, desc string, resolver PathResolver) ArtifactRef {
	return ArtifactRef{
		ID:          id,
		Name:        name,
		Description: desc,
		Kind:        KindJSON,
		path:        resolver,
	}
}

// newMarkerRef creates a marker file reference helper.
func newMarkerRef(id, name, desc string, resolver PathResolver) ArtifactRef {
	return ArtifactRef{
		ID:          id,
		Name:        name,
		Description: desc,
		Kind:        KindMarker,
		path:        resolver,
	}
}

// newDirectoryRef creates a directory reference helper.
func newDirectoryRef(id, name, desc string, resolver PathResolver) ArtifactRef {
	return ArtifactRef{
		ID:          id,
		Name:        name,
		Description: desc,
		Kind:        KindDirectory,
		path:        resolver,
	}
}

// Canonical artifact references for the extraction pipeline.
var (
	RunDirectory = register(newDirectoryRef("run-dir", "Run Directory", "Folder holding all run artifacts", func(p *pipeline.Pipeline) string { return p.Dir() }))

	PlanLinksJSON = register(newJSONRef("plan-links", "Lesson Plan Links", "Mapping of lesson ids to their lesson plan document links", func(p *pipeline.Pipeline) string { return p.PlanLinksPath() }))

	ScanActiveMarker = register(newMarkerRef("scan-active", "Plan Scan Active Marker", "Marker present while a plan scan is walking the roster", func(p *pipeline.Pipeline) string { return p.ScanActivePath() }))

	ResultsJSON = register(newJSONRef("standards-results", "Standards Extraction Results", "Per-lesson agent outcomes in roster order", func(p *pipeline.Pipeline) string { return p.ResultsPath() }))

	SyncActiveMarker = register(newMarkerRef("sync-active", "Standards Sync Active Marker", "Marker present while the standards sync is processing entries", func(p *pipeline.Pipeline) string { return p.SyncActivePath() }))

	ReportDoc = register(newDocRef("standards-report", "Standards Sync Report", "Human-readable run summary with per-lesson status lines", func(p *pipeline.Pipeline) string { return p.ReportPath() }))
)
