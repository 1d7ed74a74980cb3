package artifact

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kingrea/chalkline/internal/pipeline"
)

func writeRaw(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func fixedClock() time.Time {
	return time.Date(2025, 3, 11, 9, 30, 0, 0, time.UTC)
}

func testStore(t *testing.T) *Store {
	t.Helper()
	p := pipeline.New(t.TempDir())
	if err := p.Initialize(); err != nil {
		t.Fatalf("initialize pipeline: %v", err)
	}
	return NewStore(p, WithClock(fixedClock))
}

func TestWriteJSONKeepsBodyKeyOrder(t *testing.T) {
	store := testStore(t)
	body := []byte(`{"zeta":"z-link","alpha":"a-link"}`)
	meta := Metadata{ModuleID: "plan-scan", Version: "1.0.0", Run: "run-1"}
	if err := store.Write(PlanLinksJSON, body, meta); err != nil {
		t.Fatalf("write json artifact: %v", err)
	}

	data, err := store.ReadJSON(PlanLinksJSON)
	if err != nil {
		t.Fatalf("read json artifact: %v", err)
	}
	zeta := bytes.Index(data, []byte(`"zeta"`))
	alpha := bytes.Index(data, []byte(`"alpha"`))
	metaBlock := bytes.Index(data, []byte(`"_chalkline"`))
	if zeta == -1 || alpha == -1 || metaBlock == -1 {
		t.Fatalf("artifact missing expected keys:\n%s", data)
	}
	if !(zeta < alpha && alpha < metaBlock) {
		t.Fatalf("artifact reordered keys (zeta=%d alpha=%d meta=%d):\n%s", zeta, alpha, metaBlock, data)
	}

	res, err := store.Check(PlanLinksJSON)
	if err != nil {
		t.Fatalf("check json artifact: %v", err)
	}
	if res.State != StateReady {
		t.Fatalf("state = %s, want ready", res.State)
	}
	if res.Metadata == nil || res.Metadata.ModuleID != "plan-scan" || res.Metadata.Run != "run-1" {
		t.Fatalf("metadata not round-tripped: %+v", res.Metadata)
	}
}

func TestCheckJSONWithoutMetadataIsInvalid(t *testing.T) {
	store := testStore(t)
	path := PlanLinksJSON.Path(store.pipeline)
	if err := writeRaw(path, []byte(`{"L1":"link"}`)); err != nil {
		t.Fatal(err)
	}
	res, _ := store.Check(PlanLinksJSON)
	if res.State != StateInvalid {
		t.Fatalf("state = %s, want invalid for a bare mapping", res.State)
	}
}

func TestMarkerLifecycle(t *testing.T) {
	store := testStore(t)
	if res, _ := store.Check(ScanActiveMarker); res.State != StateMissing {
		t.Fatalf("fresh marker state = %s, want missing", res.State)
	}
	if err := store.Write(ScanActiveMarker, nil, Metadata{}); err != nil {
		t.Fatalf("write marker: %v", err)
	}
	if res, _ := store.Check(ScanActiveMarker); res.State != StateReady {
		t.Fatalf("marker state = %s, want ready", res.State)
	}
	if err := store.Remove(ScanActiveMarker); err != nil {
		t.Fatalf("remove marker: %v", err)
	}
	if res, _ := store.Check(ScanActiveMarker); res.State != StateMissing {
		t.Fatalf("marker state after remove = %s, want missing", res.State)
	}
	if err := store.Remove(ScanActiveMarker); err != nil {
		t.Fatalf("second remove should be a no-op: %v", err)
	}
}

func TestDocumentFrontMatterRoundTrip(t *testing.T) {
	store := testStore(t)
	body := []byte("# Standards Sync Report\n\n- L1: written\n")
	meta := Metadata{ModuleID: "standards-sync", Version: "1.0.0", Run: "run-9"}
	if err := store.Write(ReportDoc, body, meta); err != nil {
		t.Fatalf("write document artifact: %v", err)
	}
	res, err := store.Check(ReportDoc)
	if err != nil {
		t.Fatalf("check document artifact: %v", err)
	}
	if res.State != StateReady {
		t.Fatalf("state = %s, want ready", res.State)
	}
	if res.Metadata.CreatedAt != fixedClock() {
		t.Fatalf("created = %s, want fixed clock time", res.Metadata.CreatedAt)
	}
}

func TestWriteJSONRejectsNonObjectBody(t *testing.T) {
	store := testStore(t)
	err := store.Write(ResultsJSON, []byte(`[1,2,3]`), Metadata{ModuleID: "standards-sync", Version: "1.0.0"})
	if err == nil || !strings.Contains(err.Error(), "invalid json body") {
		t.Fatalf("expected invalid body error, got %v", err)
	}
}
