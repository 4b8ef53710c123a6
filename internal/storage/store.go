package storage

import (
	"context"
	"time"

	"genres/internal/descriptor"
	"genres/internal/graph"
)

// Store persists scanned declarations between runs.
type Store interface {
	DeclarationStore
	Close() error
}

// ScanInfo describes one saved snapshot.
type ScanInfo struct {
	ID    string
	At    time.Time
	Units int
	Types int
	Edges int
}

// DeclarationStore defines operations for persisting the declaration graph.
type DeclarationStore interface {
	// SaveGraph replaces the stored snapshot with the units and edges of g.
	SaveGraph(ctx context.Context, g *graph.Graph) (*ScanInfo, error)

	// LoadGraph rebuilds a linked graph, core types included, from the snapshot.
	LoadGraph(ctx context.Context) (*graph.Graph, error)

	// FileHashes maps every stored unit path to its content hash.
	FileHashes(ctx context.Context) (map[string]string, error)

	// Dependents lists the stored types that extend or implement id.
	Dependents(ctx context.Context, id descriptor.TypeID) ([]descriptor.TypeID, error)

	// LastScan returns the most recent snapshot, nil before the first save.
	LastScan(ctx context.Context) (*ScanInfo, error)
}
