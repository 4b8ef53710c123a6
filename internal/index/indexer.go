package index

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"genres/internal/crawler"
	"genres/internal/descriptor"
	"genres/internal/extractor"
	"genres/internal/graph"
)

// Indexer orchestrates codebase indexing and graph management.
type Indexer struct {
	crawler *crawler.Crawler
}

// NewIndexer creates a new indexer.
func NewIndexer(c *crawler.Crawler) *Indexer {
	return &Indexer{
		crawler: c,
	}
}

// BuildGraph scans every root and constructs a linked declaration graph on top of the
// core types.
func (i *Indexer) BuildGraph(roots ...string) (*graph.Graph, error) {
	g := graph.NewGraph().WithCoreTypes()

	for _, root := range roots {
		err := i.crawler.ScanProject(root, func(file *extractor.File) {
			g.AddFile(file)
		})
		if err != nil {
			return nil, fmt.Errorf("scan of %s failed: %w", root, err)
		}
	}

	// Resolve relationships after all units are loaded
	g.LinkRelations()

	return g, nil
}

// SyncResult describes what Sync changed in a graph.
type SyncResult struct {
	Updated []string
	Removed []string
	// Unchanged files were loaded but hash to the stored content.
	Unchanged []string
	// RemovedTypes were declared before the sync and are declared nowhere now.
	RemovedTypes []descriptor.TypeID
	Failed       map[string]error
}

// Changed reports whether the graph was modified.
func (r *SyncResult) Changed() bool {
	return len(r.Updated) > 0 || len(r.Removed) > 0
}

// Sync reloads paths into g. Files that no longer exist are removed, unsupported ones
// are skipped. The graph is relinked when anything changed.
func (i *Indexer) Sync(g *graph.Graph, paths []string) *SyncResult {
	result := &SyncResult{Failed: make(map[string]error)}
	dropped := make(map[descriptor.TypeID]bool)

	for _, path := range paths {
		if !extractor.Supported(path) {
			continue
		}

		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			ids := g.RemoveFile(path)
			if ids == nil {
				continue
			}
			for _, id := range ids {
				dropped[id] = true
			}
			result.Removed = append(result.Removed, path)
			continue
		}

		file, err := i.crawler.LoadFile(path)
		if err != nil {
			result.Failed[path] = err
			continue
		}

		prev, existed := g.Unit(path)
		if existed && prev.ContentHash == file.ContentHash {
			result.Unchanged = append(result.Unchanged, path)
			continue
		}
		if existed {
			for _, d := range prev.Decls {
				dropped[d.ID] = true
			}
		}
		g.AddFile(file)
		result.Updated = append(result.Updated, path)
	}

	if !result.Changed() {
		return result
	}

	g.LinkRelations()
	for _, id := range g.Types() {
		delete(dropped, id)
	}
	for id := range dropped {
		result.RemovedTypes = append(result.RemovedTypes, id)
	}
	sort.Slice(result.RemovedTypes, func(a, b int) bool { return result.RemovedTypes[a] < result.RemovedTypes[b] })
	return result
}
