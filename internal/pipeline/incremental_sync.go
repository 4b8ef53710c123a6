package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"genres/internal/analysis"
	"genres/internal/cache"
	"genres/internal/descriptor"
	"genres/internal/git"
	"genres/internal/graph"
	"genres/internal/index"
	"genres/internal/storage"
)

// IncrementalSync brings a stored declaration graph up to date with the working tree.
type IncrementalSync struct {
	Store   storage.Store
	Indexer *index.Indexer

	// ProjectRoot is the git work tree; diff paths are relative to it.
	ProjectRoot string
	// SourceDirs are scanned on a full resync. Empty means ProjectRoot.
	SourceDirs []string
	BaseRef    string
	// Ignored types are left out of the closures checked after an update.
	Ignored []descriptor.TypeID

	Out io.Writer
}

// Report is the outcome of one sync.
type Report struct {
	Scan   *storage.ScanInfo
	Stats  graph.Stats
	Sync   *index.SyncResult
	Impact *analysis.ImpactReport
	// Broken maps affected types to the error their closure now fails with.
	Broken map[descriptor.TypeID]error
	// FullResync is set when the graph was rebuilt from scratch.
	FullResync bool
}

type updatePlan struct {
	Changes    []git.ChangedFile
	FullResync bool
}

type graphUpdateResult struct {
	Graph *graph.Graph
	Sync  *index.SyncResult
}

func NewIncrementalSync(store storage.Store, idx *index.Indexer) *IncrementalSync {
	return &IncrementalSync{
		Store:       store,
		Indexer:     idx,
		ProjectRoot: ".",
		BaseRef:     "HEAD",
		Out:         os.Stdout,
	}
}

// Run diffs the work tree against BaseRef and applies the changes. With force, or when
// nothing was stored yet, the graph is rebuilt from the source directories.
func (s *IncrementalSync) Run(ctx context.Context, force bool) (*Report, error) {
	changes, err := git.GetChangedFiles(ctx, s.ProjectRoot, s.BaseRef)
	if err != nil {
		return nil, fmt.Errorf("failed to get git changes: %w", err)
	}
	return s.Apply(ctx, changes, force)
}

// Apply updates the stored graph with the given changes.
func (s *IncrementalSync) Apply(ctx context.Context, changes []git.ChangedFile, force bool) (*Report, error) {
	plan, err := s.planStage(ctx, changes, force)
	if err != nil {
		return nil, err
	}
	if len(plan.Changes) == 0 && !plan.FullResync {
		fmt.Fprintln(s.out(), "✅ No changes detected.")
		return &Report{}, nil
	}

	result, err := s.graphUpdateStage(ctx, plan)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Stats:      result.Graph.Stats(),
		Sync:       result.Sync,
		FullResync: plan.FullResync,
	}
	if !plan.FullResync && !result.Sync.Changed() {
		fmt.Fprintln(s.out(), "✅ Declarations unchanged.")
		return report, nil
	}

	report.Scan, err = s.Store.SaveGraph(ctx, result.Graph)
	if err != nil {
		return nil, fmt.Errorf("failed to save updated graph: %w", err)
	}

	if !plan.FullResync {
		report.Impact, report.Broken = s.impactAnalysisStage(result.Graph, plan.Changes, result.Sync.RemovedTypes)
	}
	return report, nil
}

func (s *IncrementalSync) planStage(ctx context.Context, changes []git.ChangedFile, force bool) (*updatePlan, error) {
	last, err := s.Store.LastScan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read last scan: %w", err)
	}

	fullResync := force || last == nil
	if fullResync {
		fmt.Fprintln(s.out(), "🧭 Running full sync from current codebase.")
	} else if len(changes) > 0 {
		fmt.Fprintf(s.out(), "📝 Detected %d changed files.\n", len(changes))
	}

	return &updatePlan{
		Changes:    changes,
		FullResync: fullResync,
	}, nil
}

func (s *IncrementalSync) graphUpdateStage(ctx context.Context, plan *updatePlan) (*graphUpdateResult, error) {
	if plan.FullResync {
		start := time.Now()
		dirs := s.SourceDirs
		if len(dirs) == 0 {
			dirs = []string{s.ProjectRoot}
		}
		g, err := s.Indexer.BuildGraph(dirs...)
		if err != nil {
			return nil, fmt.Errorf("full sync graph build failed: %w", err)
		}
		fmt.Fprintf(s.out(), "📊 Graph Update: full rebuild completed in %v. Types=%d\n", time.Since(start), len(g.Types()))
		fmt.Fprintf(s.out(), "  -> Linked edges: %d, unresolved relations: %d\n", len(g.Edges), len(g.Unresolved))
		return &graphUpdateResult{Graph: g, Sync: &index.SyncResult{}}, nil
	}

	fmt.Fprintln(s.out(), "🔄 Loading stored declaration graph...")
	g, err := s.Store.LoadGraph(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}

	paths := make([]string, 0, len(plan.Changes))
	for _, change := range plan.Changes {
		paths = append(paths, s.resolvePath(change.Path))
	}
	result := s.Indexer.Sync(g, paths)
	for path, err := range result.Failed {
		fmt.Fprintf(s.out(), "⚠️ Failed to parse file %s: %v\n", path, err)
	}

	fmt.Fprintf(s.out(), "📊 Graph Update: %d files updated, %d removed, %d unchanged.\n",
		len(result.Updated), len(result.Removed), len(result.Unchanged))
	fmt.Fprintf(s.out(), "  -> Linked edges: %d, unresolved relations: %d\n", len(g.Edges), len(g.Unresolved))
	return &graphUpdateResult{Graph: g, Sync: result}, nil
}

func (s *IncrementalSync) impactAnalysisStage(g *graph.Graph, changes []git.ChangedFile, removed []descriptor.TypeID) (*analysis.ImpactReport, map[descriptor.TypeID]error) {
	fmt.Fprintln(s.out(), "🔍 Analyzing impact...")
	analyzer := analysis.NewAnalyzer(g, s.ProjectRoot)
	report, err := analyzer.AnalyzeImpact(changes, removed...)
	if err != nil {
		fmt.Fprintf(s.out(), "Analysis warning: %v\n", err)
		return nil, nil
	}

	fmt.Fprintf(s.out(), "  -> %d types directly affected\n", len(report.DirectlyAffected))
	fmt.Fprintf(s.out(), "  -> %d types indirectly affected (subtypes and inner types)\n", len(report.IndirectlyAffected))

	// Rebuild the closures of surviving affected types against the new graph
	broken := make(map[descriptor.TypeID]error)
	closures := cache.New(g)
	for _, id := range report.All() {
		if _, ok := g.Lookup(id); !ok {
			continue
		}
		if _, err := closures.Get(id, s.Ignored...); err != nil {
			broken[id] = err
			fmt.Fprintf(s.out(), "❌ %s: %v\n", id, err)
		}
	}
	return report, broken
}

func (s *IncrementalSync) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.ProjectRoot, path)
}

func (s *IncrementalSync) out() io.Writer {
	if s.Out == nil {
		return io.Discard
	}
	return s.Out
}
