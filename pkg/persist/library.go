package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/vanderheijden86/graphsketch/pkg/debug"
	"github.com/vanderheijden86/graphsketch/pkg/graph"
	"github.com/vanderheijden86/graphsketch/pkg/metrics"

	_ "modernc.org/sqlite"
)

// ErrGraphNotFound is returned when a library has no graph by that name.
var ErrGraphNotFound = errors.New("persist: no graph with that name")

const librarySchema = `
CREATE TABLE IF NOT EXISTS graphs (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	document   BLOB NOT NULL,
	vertices   INTEGER NOT NULL,
	edges      INTEGER NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_graphs_updated ON graphs(updated_at);
`

// Entry describes one saved graph.
type Entry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Vertices  int       `json:"vertices"`
	Edges     int       `json:"edges"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Library is a SQLite database of named graphs.
type Library struct {
	db   *sql.DB
	path string
}

// OpenLibrary opens or creates the library at path.
func OpenLibrary(path string) (*Library, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create directory: %v", ErrPersistence, err)
	}
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path))
	if err != nil {
		return nil, fmt.Errorf("%w: open library: %v", ErrPersistence, err)
	}
	// one writer; sqlite serializes anyway
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(librarySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: create schema: %v", ErrPersistence, err)
	}
	debug.Log("persist: opened library %s", path)
	return &Library{db: db, path: path}, nil
}

// Path returns the database path.
func (l *Library) Path() string { return l.path }

// Close closes the database.
func (l *Library) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Save stores an encoded document under name, replacing any previous
// version. The entry keeps its id across replacements.
func (l *Library) Save(ctx context.Context, name string, data []byte) error {
	defer metrics.Timer(metrics.LibrarySave)()

	if name == "" {
		return fmt.Errorf("%w: empty graph name", ErrPersistence)
	}
	var counts struct {
		Vertices []json.RawMessage `json:"vertices"`
		Edges    []json.RawMessage `json:"edges"`
	}
	if err := json.Unmarshal(data, &counts); err != nil {
		return malformed(err.Error())
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO graphs (id, name, document, vertices, edges, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			document = excluded.document,
			vertices = excluded.vertices,
			edges = excluded.edges,
			updated_at = excluded.updated_at`,
		uuid.NewString(), name, data, len(counts.Vertices), len(counts.Edges),
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("%w: save %q: %v", ErrPersistence, name, err)
	}
	return nil
}

// SaveGraph encodes s and stores it under name.
func (l *Library) SaveGraph(ctx context.Context, name string, s *graph.Store) error {
	data, err := Marshal(s)
	if err != nil {
		return err
	}
	return l.Save(ctx, name, data)
}

// Load decodes the graph stored under name.
func (l *Library) Load(ctx context.Context, name string) (*graph.Store, error) {
	var data []byte
	err := l.db.QueryRowContext(ctx, `SELECT document FROM graphs WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrGraphNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load %q: %v", ErrPersistence, name, err)
	}
	return Unmarshal(data)
}

// List returns every entry, most recently updated first.
func (l *Library) List(ctx context.Context) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, name, vertices, edges, updated_at
		FROM graphs
		ORDER BY updated_at DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %v", ErrPersistence, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var updated string
		if err := rows.Scan(&e.ID, &e.Name, &e.Vertices, &e.Edges, &updated); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrPersistence, err)
		}
		e.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list: %v", ErrPersistence, err)
	}
	return entries, nil
}

// Delete removes the graph stored under name and reports whether it
// existed.
func (l *Library) Delete(ctx context.Context, name string) (bool, error) {
	res, err := l.db.ExecContext(ctx, `DELETE FROM graphs WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("%w: delete %q: %v", ErrPersistence, name, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Slot returns a Saver that writes to one name in the library.
func (l *Library) Slot(name string) Saver {
	return librarySlot{lib: l, name: name}
}

type librarySlot struct {
	lib  *Library
	name string
}

func (s librarySlot) Save(ctx context.Context, data []byte) error {
	return s.lib.Save(ctx, s.name, data)
}

func (s librarySlot) String() string {
	return fmt.Sprintf("%s#%s", s.lib.path, s.name)
}
