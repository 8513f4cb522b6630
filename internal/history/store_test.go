package history

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ironsheep/shape-finder-mcp/internal/detection"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// fixedClock makes CreatedAt deterministic and strictly increasing.
func fixedClock(s *Store) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	s.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func analysisOf(t *testing.T, x0, y0, x1, y1 int) *detection.Analysis {
	t.Helper()
	m, err := detection.NewBinaryMask(160, 120)
	if err != nil {
		t.Fatalf("NewBinaryMask: %v", err)
	}
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			m.Set(x, y, true)
		}
	}
	d, err := detection.NewDetector(detection.DefaultConfig())
	if err != nil {
		t.Fatalf("NewDetector: %v", err)
	}
	a, err := d.Analyze(m)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	return a
}

func TestRecordAndGet(t *testing.T) {
	s := tempStore(t)
	a := analysisOf(t, 20, 20, 60, 60)

	rec, err := s.Record("square.png", "threshold", a)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("expected non-empty ID")
	}

	got, err := s.Get(rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Label != "Square" || got.Outcome != "classified" || got.Source != "square.png" || got.Mode != "threshold" {
		t.Errorf("unexpected record: %+v", got)
	}
	if got.Vertices != 4 || len(got.Polygon) != 4 {
		t.Errorf("vertices %d, polygon %v; want 4 corners", got.Vertices, got.Polygon)
	}
	if got.Area != 1521 {
		t.Errorf("area = %v, want 1521", got.Area)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not restored")
	}
}

func TestRecord_Unclassified(t *testing.T) {
	s := tempStore(t)
	a := analysisOf(t, 0, 0, 0, 0)

	rec, err := s.Record("blank.png", "canny", a)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	got, err := s.Get(rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Label != "Unknown" || got.Outcome != "no_shapes" || got.Message != "no shapes found" {
		t.Errorf("unexpected record: %+v", got)
	}
	if got.Polygon != nil {
		t.Errorf("polygon = %v, want nil", got.Polygon)
	}
}

func TestGet_NotFound(t *testing.T) {
	s := tempStore(t)
	if _, err := s.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecent(t *testing.T) {
	s := tempStore(t)
	fixedClock(s)

	square := analysisOf(t, 20, 20, 60, 60)
	rect := analysisOf(t, 20, 20, 120, 70)

	var ids []string
	for i, a := range []*detection.Analysis{square, rect, square} {
		rec, err := s.Record("img"+string(rune('a'+i))+".png", "threshold", a)
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
		ids = append(ids, rec.ID)
	}

	all, err := s.Recent(10, "")
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
	if all[0].ID != ids[2] || all[2].ID != ids[0] {
		t.Error("records not ordered newest first")
	}

	limited, _ := s.Recent(1, "")
	if len(limited) != 1 || limited[0].ID != ids[2] {
		t.Errorf("limit 1 returned %d records", len(limited))
	}

	rects, _ := s.Recent(10, "Rectangle")
	if len(rects) != 1 || rects[0].ID != ids[1] {
		t.Errorf("label filter returned %+v", rects)
	}
}

func TestRecent_SubSecondOrder(t *testing.T) {
	s := tempStore(t)
	base := time.Date(2024, 5, 1, 12, 0, 5, 0, time.UTC)
	// recorded out of chronological order so rowid cannot decide
	times := []time.Time{
		base.Add(120 * time.Millisecond),
		base.Add(100 * time.Millisecond),
		base.Add(500 * time.Millisecond),
		base,
	}
	s.now = func() time.Time {
		next := times[0]
		times = times[1:]
		return next
	}

	a := analysisOf(t, 20, 20, 60, 60)
	recs := make(map[int64]string)
	for i := 0; i < 4; i++ {
		rec, err := s.Record("same-second.png", "threshold", a)
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
		recs[rec.CreatedAt.UnixNano()] = rec.ID
	}

	got, err := s.Recent(10, "")
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	want := []time.Duration{500 * time.Millisecond, 120 * time.Millisecond, 100 * time.Millisecond, 0}
	if len(got) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(got))
	}
	for i, off := range want {
		at := base.Add(off)
		if got[i].ID != recs[at.UnixNano()] {
			t.Errorf("position %d: created %v, want %v", i, got[i].CreatedAt, at)
		}
		if !got[i].CreatedAt.Equal(at) || got[i].CreatedAt.Location() != time.UTC {
			t.Errorf("position %d: CreatedAt %v did not round-trip as UTC", i, got[i].CreatedAt)
		}
	}
}

func TestGet_BadCreatedAt(t *testing.T) {
	s := tempStore(t)
	_, err := s.db.Exec(`INSERT INTO analyses (id, source, mode, label, outcome, message, created_at)
		VALUES ('broken', 'x.png', 'threshold', 'Square', 'classified', '', 'yesterday')`)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	_, err = s.Get("broken")
	if err == nil {
		t.Fatal("expected an error for an unparseable created_at")
	}
	if !strings.Contains(err.Error(), "broken") || !strings.Contains(err.Error(), "created_at") {
		t.Errorf("error %q should name the record and the column", err)
	}
	if _, err := s.Recent(10, ""); err == nil {
		t.Error("Recent should surface the same decode error")
	}
}

func TestCountByLabel(t *testing.T) {
	s := tempStore(t)
	square := analysisOf(t, 20, 20, 60, 60)
	empty := analysisOf(t, 0, 0, 0, 0)

	for _, a := range []*detection.Analysis{square, square, empty} {
		if _, err := s.Record("x.png", "threshold", a); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	counts, err := s.CountByLabel()
	if err != nil {
		t.Fatalf("CountByLabel: %v", err)
	}
	if counts["Square"] != 2 || counts["Unknown"] != 1 || len(counts) != 2 {
		t.Errorf("counts = %v", counts)
	}
}

func TestRecord_Concurrent(t *testing.T) {
	s := tempStore(t)
	a := analysisOf(t, 20, 20, 60, 60)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Record("c.png", "threshold", a); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent Record: %v", err)
	}

	counts, _ := s.CountByLabel()
	if counts["Square"] != 20 {
		t.Errorf("expected 20 squares, got %d", counts["Square"])
	}
}

func TestNewStore_InMemory(t *testing.T) {
	s, err := NewStore(":memory:")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer s.Close()
	if _, err := s.Record("m.png", "threshold", analysisOf(t, 20, 20, 60, 60)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	recent, err := s.Recent(0, "")
	if err != nil || len(recent) != 1 {
		t.Fatalf("Recent = %d records, %v", len(recent), err)
	}
}

func TestNewStore_BadPath(t *testing.T) {
	dir := t.TempDir()
	// a directory where the database file should be
	path := filepath.Join(dir, "db")
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatal(err)
	}
	if s, err := NewStore(path); err == nil {
		s.Close()
		t.Fatal("expected error opening a directory as a database")
	}
}
