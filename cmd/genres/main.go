package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"genres/internal/config"
	"genres/internal/crawler"
	"genres/internal/descriptor"
	"genres/internal/extractor"
	"genres/internal/graph"
	"genres/internal/index"
	"genres/internal/pipeline"
	"genres/internal/storage"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	rootCmd = &cobra.Command{
		Use:   "genres",
		Short: "Resolve generic type variables across Java inheritance hierarchies",
	}
	configPath string
	dbPath     string

	fancy = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the project configuration")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the declaration database (SQLite), overrides the configuration")

	scanCmd.Flags().Bool("watch", false, "Keep the database in sync with file changes")
	updateCmd.Flags().String("base", "HEAD", "Git revision to diff the work tree against")
	updateCmd.Flags().Bool("force", false, "Rebuild the graph from scratch")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(hierarchyCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(compareCmd)
}

// say prints a progress line, prefixed with icon on terminals.
func say(icon, format string, args ...interface{}) {
	if fancy {
		fmt.Print(icon + " ")
	}
	fmt.Printf(format+"\n", args...)
}

func loadConfig() *config.Config {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config %s: %v", configPath, err)
	}
	if dbPath != "" {
		cfg.Storage.Path = dbPath
	}
	if root, err := filepath.Abs(cfg.Project.Root); err == nil {
		cfg.Project.Root = root
	}
	return cfg
}

// initStore initializes the SQLite store.
func initStore(cfg *config.Config) (*storage.SQLiteStore, error) {
	if dir := filepath.Dir(cfg.Storage.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return storage.NewSQLiteStore(cfg.Storage.Path)
}

func newCrawler(cfg *config.Config) *crawler.Crawler {
	ext, err := extractor.NewExtractor("java")
	if err != nil {
		log.Fatalf("Failed to create extractor: %v", err)
	}
	cr := crawler.NewCrawler(ext, cfg.Project.Ignore...)
	cr.OnError = func(path string, err error) {
		log.Printf("Warning: skipping %s: %v", path, err)
	}
	return cr
}

func reportGraph(g *graph.Graph) {
	stats := g.Stats()
	say("📊", "Graph: %d types in %d units, %d edges", stats.Types, stats.Units, stats.Edges)
	if stats.Unresolved == 0 {
		return
	}
	counts := g.UnresolvedReasonCounts()
	say("⚠️", "%d unresolved references (no candidate: %d, ambiguous: %d, source missing: %d)",
		stats.Unresolved, counts[graph.ReasonNoCandidate], counts[graph.ReasonAmbiguous], counts[graph.ReasonSourceMissing])
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the project and build the declaration database",
	Run: func(cmd *cobra.Command, args []string) {
		watch, _ := cmd.Flags().GetBool("watch")
		cfg := loadConfig()

		store, err := initStore(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()

		cr := newCrawler(cfg)
		idx := index.NewIndexer(cr)

		dirs := cfg.SourceDirs()
		say("🔍", "Scanning %v...", dirs)
		g, err := idx.BuildGraph(dirs...)
		if err != nil {
			log.Fatalf("Failed to build graph: %v", err)
		}
		reportGraph(g)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		scan, err := store.SaveGraph(ctx, g)
		if err != nil {
			log.Fatalf("Failed to save graph: %v", err)
		}
		say("✅", "Saved scan %s to %s", scan.ID, cfg.Storage.Path)

		if watch {
			if err := watchSources(ctx, cr, idx, store, g, dirs); err != nil {
				log.Fatalf("Watch failed: %v", err)
			}
		}
	},
}

// watchSources applies file changes to g until ctx is done, saving after every change
// that modified a declaration.
func watchSources(ctx context.Context, cr *crawler.Crawler, idx *index.Indexer, store storage.Store, g *graph.Graph, dirs []string) error {
	var mu sync.Mutex
	onChange := func(change crawler.Change) {
		mu.Lock()
		defer mu.Unlock()

		result := idx.Sync(g, []string{change.Path})
		for path, err := range result.Failed {
			log.Printf("Warning: skipping %s: %v", path, err)
		}
		if !result.Changed() {
			return
		}
		say("🔄", "%s %s", change.Op, change.Path)
		if len(result.RemovedTypes) > 0 {
			say("🗑️", "Removed %v", result.RemovedTypes)
		}
		if _, err := store.SaveGraph(ctx, g); err != nil {
			log.Printf("Warning: failed to save graph: %v", err)
			return
		}
		reportGraph(g)
	}

	eg, ctx := errgroup.WithContext(ctx)
	for _, dir := range dirs {
		w, err := cr.NewWatcher(dir)
		if err != nil {
			return err
		}
		defer w.Close()
		eg.Go(func() error {
			return w.Run(ctx, onChange)
		})
	}
	say("👀", "Watching for changes, press Ctrl+C to stop")
	return eg.Wait()
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Apply git changes to the declaration database and report affected types",
	Run: func(cmd *cobra.Command, args []string) {
		baseRef, _ := cmd.Flags().GetString("base")
		force, _ := cmd.Flags().GetBool("force")
		cfg := loadConfig()

		store, err := initStore(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()

		syncer := pipeline.NewIncrementalSync(store, index.NewIndexer(newCrawler(cfg)))
		syncer.ProjectRoot = cfg.Project.Root
		syncer.SourceDirs = cfg.SourceDirs()
		syncer.BaseRef = baseRef
		syncer.Ignored = typeIDs(cfg.Resolve.Ignore)

		report, err := syncer.Run(context.Background(), force)
		if err != nil {
			log.Fatalf("Update failed: %v", err)
		}
		if report.Impact != nil {
			for _, id := range report.Impact.All() {
				fmt.Printf("  %s\n", id)
			}
		}
		if len(report.Broken) > 0 {
			log.Fatalf("%d affected types no longer resolve", len(report.Broken))
		}
	},
}

func typeIDs(names []string) []descriptor.TypeID {
	ids := make([]descriptor.TypeID, len(names))
	for i, n := range names {
		ids[i] = descriptor.TypeID(n)
	}
	return ids
}
