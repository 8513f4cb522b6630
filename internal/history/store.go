// Package history persists shape analyses in SQLite so past results can be
// listed and aggregated.
package history

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ironsheep/shape-finder-mcp/internal/detection"
	"github.com/ironsheep/shape-finder-mcp/internal/geometry"
)

const schema = `
CREATE TABLE IF NOT EXISTS analyses (
	id            TEXT PRIMARY KEY,
	source        TEXT NOT NULL,
	mode          TEXT NOT NULL,
	label         TEXT NOT NULL,
	outcome       TEXT NOT NULL,
	message       TEXT NOT NULL,
	vertices      INTEGER NOT NULL DEFAULT 0,
	area          REAL NOT NULL DEFAULT 0,
	perimeter     REAL NOT NULL DEFAULT 0,
	circularity   REAL NOT NULL DEFAULT 0,
	aspect_ratio  REAL NOT NULL DEFAULT 0,
	polygon_json  TEXT,
	created_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analyses_created ON analyses(created_at);
CREATE INDEX IF NOT EXISTS idx_analyses_label ON analyses(label);
`

// timeLayout is fixed width so created_at sorts chronologically as text.
// Values are always stored in UTC.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("analysis not found")

// Record is one stored analysis.
type Record struct {
	ID          string           `json:"id"`
	Source      string           `json:"source"`
	Mode        string           `json:"mode"`
	Label       string           `json:"label"`
	Outcome     string           `json:"outcome"`
	Message     string           `json:"message"`
	Vertices    int              `json:"vertices"`
	Area        float64          `json:"area"`
	Perimeter   float64          `json:"perimeter"`
	Circularity float64          `json:"circularity"`
	AspectRatio float64          `json:"aspect_ratio"`
	Polygon     geometry.Polygon `json:"polygon,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Store manages the analyses table.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens (or creates) the SQLite database at dbPath and runs
// migrations. ":memory:" gives a private in-memory store.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// one connection: keeps ":memory:" a single database and serialises writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a as the analysis of source made in the given mask mode and
// returns the stored row.
func (s *Store) Record(source, mode string, a *detection.Analysis) (Record, error) {
	rec := Record{
		ID:          uuid.New().String(),
		Source:      source,
		Mode:        mode,
		Label:       a.Label().String(),
		Outcome:     a.Outcome.String(),
		Message:     a.Message,
		Vertices:    a.VertexCount,
		Circularity: a.Circularity,
		AspectRatio: a.AspectRatio,
		Polygon:     a.Polygon,
		CreatedAt:   s.now().UTC(),
	}
	if a.Summary != nil {
		rec.Area = a.Summary.Area
		rec.Perimeter = a.Summary.Perimeter
	}

	var polyJSON sql.NullString
	if len(rec.Polygon) > 0 {
		data, err := json.Marshal(rec.Polygon)
		if err != nil {
			return Record{}, fmt.Errorf("marshal polygon: %w", err)
		}
		polyJSON = sql.NullString{String: string(data), Valid: true}
	}

	_, err := s.db.Exec(
		`INSERT INTO analyses (id, source, mode, label, outcome, message, vertices, area, perimeter,
		                       circularity, aspect_ratio, polygon_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Source, rec.Mode, rec.Label, rec.Outcome, rec.Message, rec.Vertices,
		rec.Area, rec.Perimeter, rec.Circularity, rec.AspectRatio, polyJSON,
		rec.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return Record{}, fmt.Errorf("insert analysis: %w", err)
	}
	return rec, nil
}

const selectColumns = `SELECT id, source, mode, label, outcome, message, vertices, area, perimeter,
	circularity, aspect_ratio, polygon_json, created_at FROM analyses`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var rec Record
	var polyJSON sql.NullString
	var createdAt string
	if err := row.Scan(&rec.ID, &rec.Source, &rec.Mode, &rec.Label, &rec.Outcome, &rec.Message,
		&rec.Vertices, &rec.Area, &rec.Perimeter, &rec.Circularity, &rec.AspectRatio,
		&polyJSON, &createdAt); err != nil {
		return Record{}, err
	}
	if polyJSON.Valid {
		if err := json.Unmarshal([]byte(polyJSON.String), &rec.Polygon); err != nil {
			return Record{}, fmt.Errorf("decode polygon of %s: %w", rec.ID, err)
		}
	}
	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return Record{}, fmt.Errorf("decode created_at of %s: %w", rec.ID, err)
	}
	rec.CreatedAt = t
	return rec, nil
}

// Get returns the analysis with the given id.
func (s *Store) Get(id string) (Record, error) {
	rec, err := scanRecord(s.db.QueryRow(selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Record{}, fmt.Errorf("get analysis: %w", err)
	}
	return rec, nil
}

// Recent returns up to limit analyses, newest first. label filters by shape
// label when non-empty.
func (s *Store) Recent(limit int, label string) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	query := selectColumns
	args := []any{}
	if label != "" {
		query += ` WHERE label = ?`
		args = append(args, label)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CountByLabel returns how many analyses were stored per label.
func (s *Store) CountByLabel() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT label, COUNT(*) FROM analyses GROUP BY label`)
	if err != nil {
		return nil, fmt.Errorf("count analyses: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var label string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, err
		}
		counts[label] = n
	}
	return counts, rows.Err()
}
