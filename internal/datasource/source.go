// Package datasource finds the graphs a user has on disk and picks the one
// to open when none is named: JSON graph files in the data directory and
// the named slots of the SQLite library. Sources are validated by decoding
// them, and the freshest valid one wins.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/vanderheijden86/graphsketch/pkg/debug"
	"github.com/vanderheijden86/graphsketch/pkg/persist"
)

// SourceType identifies the kind of source.
type SourceType string

const (
	// SourceTypeLibrary is one named graph inside a library database.
	SourceTypeLibrary SourceType = "library"
	// SourceTypeFile is a JSON graph document.
	SourceTypeFile SourceType = "file"
)

// Priority values break ties between equally fresh sources.
const (
	PriorityLibrary = 100
	PriorityFile    = 50
)

// ErrNoSources is returned when discovery finds nothing usable.
var ErrNoSources = errors.New("datasource: no valid sources")

// DataSource is one place a graph can be loaded from.
type DataSource struct {
	Type SourceType `json:"type"`
	// Path is the file, or the library database for library sources.
	Path string `json:"path"`
	// Name is the library slot; empty for files.
	Name     string    `json:"name,omitempty"`
	Priority int       `json:"priority"`
	ModTime  time.Time `json:"mod_time"`
	Size     int64     `json:"size,omitempty"`

	Valid           bool   `json:"valid"`
	ValidationError string `json:"validation_error,omitempty"`
	Vertices        int    `json:"vertices"`
	Edges           int    `json:"edges"`
}

// Locator is the string users type to name the source: a path, or
// path#name for library slots.
func (s DataSource) Locator() string {
	if s.Type == SourceTypeLibrary {
		return s.Path + "#" + s.Name
	}
	return s.Path
}

// String returns a human-readable description of the source.
func (s DataSource) String() string {
	status := "valid"
	if !s.Valid {
		status = "invalid: " + s.ValidationError
	}
	return fmt.Sprintf("%s (%s, priority=%d, mod=%s, %d vertices, %d edges, %s)",
		s.Locator(), s.Type, s.Priority, s.ModTime.Format(time.RFC3339), s.Vertices, s.Edges, status)
}

// ParseLocator splits path#name. A locator without '#' is a file.
func ParseLocator(loc string) DataSource {
	if i := strings.LastIndex(loc, "#"); i > 0 && i < len(loc)-1 {
		return DataSource{Type: SourceTypeLibrary, Path: loc[:i], Name: loc[i+1:], Priority: PriorityLibrary}
	}
	return DataSource{Type: SourceTypeFile, Path: loc, Priority: PriorityFile}
}

// DiscoveryOptions configures source discovery.
type DiscoveryOptions struct {
	// DataDir is scanned for *.json graph files. GS_DATA_DIR, then the
	// working directory, are used when empty.
	DataDir string
	// Library is a library database to enumerate. Empty skips it.
	Library string
	// ValidateAfterDiscovery decodes each source.
	ValidateAfterDiscovery bool
	// IncludeInvalid keeps sources that failed validation.
	IncludeInvalid bool
	Verbose        bool
	Logger         func(msg string)
}

// DiscoverSources lists candidate sources, freshest first.
func DiscoverSources(ctx context.Context, opts DiscoveryOptions) ([]DataSource, error) {
	if opts.Logger == nil {
		opts.Logger = func(string) {}
	}
	dir := opts.DataDir
	if dir == "" {
		if env := os.Getenv("GS_DATA_DIR"); env != "" {
			dir = env
		} else {
			wd, err := os.Getwd()
			if err != nil {
				return nil, fmt.Errorf("failed to get current directory: %w", err)
			}
			dir = wd
		}
	}
	logf := func(format string, args ...any) {
		if opts.Verbose {
			opts.Logger(fmt.Sprintf(format, args...))
		}
		debug.Log("datasource: "+format, args...)
	}
	logf("discovering sources in %s", dir)

	var sources []DataSource
	files, err := discoverFileSources(dir)
	if err != nil {
		logf("file discovery warning: %v", err)
	}
	sources = append(sources, files...)

	if opts.Library != "" {
		slots, err := discoverLibrarySources(ctx, opts.Library)
		if err != nil {
			logf("library discovery warning: %v", err)
		}
		sources = append(sources, slots...)
	}

	if opts.ValidateAfterDiscovery {
		kept := sources[:0]
		for i := range sources {
			if err := ValidateSource(ctx, &sources[i]); err != nil {
				logf("validation failed for %s: %v", sources[i].Locator(), err)
			}
			if sources[i].Valid || opts.IncludeInvalid {
				kept = append(kept, sources[i])
			}
		}
		sources = kept
	}

	sortSources(sources)
	logf("discovered %d sources", len(sources))
	return sources, nil
}

func sortSources(sources []DataSource) {
	sort.SliceStable(sources, func(i, j int) bool {
		if sources[i].ModTime.Equal(sources[j].ModTime) {
			return sources[i].Priority > sources[j].Priority
		}
		return sources[i].ModTime.After(sources[j].ModTime)
	})
}

// skipFile reports editor leftovers and in-flight atomic saves.
func skipFile(name string) bool {
	return strings.Contains(name, ".tmp") ||
		strings.Contains(name, ".backup") ||
		strings.Contains(name, ".orig") ||
		strings.HasPrefix(name, ".")
}

func discoverFileSources(dir string) ([]DataSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}
	var sources []DataSource
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") || skipFile(name) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		sources = append(sources, DataSource{
			Type:     SourceTypeFile,
			Path:     filepath.Join(dir, name),
			Priority: PriorityFile,
			ModTime:  info.ModTime(),
			Size:     info.Size(),
		})
	}
	return sources, nil
}

func discoverLibrarySources(ctx context.Context, path string) ([]DataSource, error) {
	if _, err := os.Stat(path); err != nil {
		// OpenLibrary would create it
		return nil, nil
	}
	lib, err := persist.OpenLibrary(path)
	if err != nil {
		return nil, err
	}
	defer lib.Close()
	entries, err := lib.List(ctx)
	if err != nil {
		return nil, err
	}
	sources := make([]DataSource, 0, len(entries))
	for _, e := range entries {
		sources = append(sources, DataSource{
			Type:     SourceTypeLibrary,
			Path:     path,
			Name:     e.Name,
			Priority: PriorityLibrary,
			ModTime:  e.UpdatedAt,
			Vertices: e.Vertices,
			Edges:    e.Edges,
		})
	}
	return sources, nil
}

// ValidateSource decodes the source and records the outcome on it.
func ValidateSource(ctx context.Context, s *DataSource) error {
	store, err := LoadFromSource(ctx, *s)
	if err != nil {
		s.Valid = false
		s.ValidationError = err.Error()
		return err
	}
	s.Valid = true
	s.ValidationError = ""
	s.Vertices = store.Len()
	s.Edges = len(store.Edges())
	return nil
}

// SelectBestSource returns the freshest valid source. Ties go to the higher
// priority.
func SelectBestSource(sources []DataSource) (DataSource, error) {
	var valid []DataSource
	for _, s := range sources {
		if s.Valid {
			valid = append(valid, s)
		}
	}
	if len(valid) == 0 {
		return DataSource{}, ErrNoSources
	}
	sortSources(valid)
	return valid[0], nil
}
