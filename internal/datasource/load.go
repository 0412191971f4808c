package datasource

import (
	"context"
	"fmt"

	"github.com/vanderheijden86/graphsketch/pkg/graph"
	"github.com/vanderheijden86/graphsketch/pkg/persist"
)

// LoadFromSource decodes the graph a source points at.
func LoadFromSource(ctx context.Context, source DataSource) (*graph.Store, error) {
	switch source.Type {
	case SourceTypeLibrary:
		lib, err := persist.OpenLibrary(source.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open library %s: %w", source.Path, err)
		}
		defer lib.Close()
		return lib.Load(ctx, source.Name)

	case SourceTypeFile:
		return persist.NewFileStore(source.Path).Load()

	default:
		return nil, fmt.Errorf("unknown source type: %s", source.Type)
	}
}

// Open loads a locator as typed by a user: a file path or path#name.
func Open(ctx context.Context, locator string) (*graph.Store, DataSource, error) {
	src := ParseLocator(locator)
	store, err := LoadFromSource(ctx, src)
	if err != nil {
		return nil, src, err
	}
	src.Valid = true
	src.Vertices, src.Edges = store.Len(), len(store.Edges())
	return store, src, nil
}

// LoadBest discovers, validates and loads the freshest source.
func LoadBest(ctx context.Context, opts DiscoveryOptions) (*graph.Store, DataSource, error) {
	opts.ValidateAfterDiscovery = true
	opts.IncludeInvalid = false
	sources, err := DiscoverSources(ctx, opts)
	if err != nil {
		return nil, DataSource{}, err
	}
	best, err := SelectBestSource(sources)
	if err != nil {
		return nil, DataSource{}, err
	}
	store, err := LoadFromSource(ctx, best)
	if err != nil {
		return nil, best, err
	}
	return store, best, nil
}

// Saver returns where edits to a loaded source are written back.
func Saver(source DataSource) (persist.Saver, func() error, error) {
	switch source.Type {
	case SourceTypeLibrary:
		lib, err := persist.OpenLibrary(source.Path)
		if err != nil {
			return nil, nil, err
		}
		return lib.Slot(source.Name), lib.Close, nil
	case SourceTypeFile:
		return persist.NewFileStore(source.Path), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown source type: %s", source.Type)
	}
}
