package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"genres/internal/cache"
	"genres/internal/compare"
	"genres/internal/config"
	"genres/internal/descriptor"
	"genres/internal/extractor"
	"genres/internal/graph"
	"genres/internal/hierarchy"
	"genres/internal/navigator"

	"github.com/kr/pretty"
	"github.com/spf13/cobra"
)

func init() {
	for _, cmd := range []*cobra.Command{hierarchyCmd, resolveCmd} {
		cmd.Flags().StringSlice("ignore", nil, "Types left out of the closure, in addition to the configured ones")
	}
	hierarchyCmd.Flags().Bool("dump", false, "Print the closure as a Go value")

	resolveCmd.Flags().String("at", "", "Ancestor of ROOT to resolve members in")
	resolveCmd.Flags().String("field", "", "Only resolve this field")
	resolveCmd.Flags().String("method", "", "Only resolve methods with this name")

	compareCmd.Flags().String("package", "", "Package the types are written in")
	compareCmd.Flags().StringSlice("import", nil, "Imports the types are written with")
	compareCmd.Flags().StringSlice("var", nil, "Type variables in scope")
}

// loadGraph reads the stored graph. It exits when nothing was scanned yet.
func loadGraph(cfg *config.Config) *graph.Graph {
	store, err := initStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	last, err := store.LastScan(ctx)
	if err != nil {
		log.Fatalf("Failed to read database: %v", err)
	}
	if last == nil {
		log.Fatalf("No scan found in %s, run 'genres scan' first", cfg.Storage.Path)
	}

	g, err := store.LoadGraph(ctx)
	if err != nil {
		log.Fatalf("Failed to load graph: %v", err)
	}
	return g
}

// lookupType maps a name typed by the user to a declared id.
func lookupType(g *graph.Graph, name string) descriptor.TypeID {
	ids := g.Find(name)
	switch len(ids) {
	case 1:
		return ids[0]
	case 0:
		log.Fatalf("Unknown type %s", name)
	default:
		log.Fatalf("Type %s is ambiguous: %v", name, ids)
	}
	return ""
}

// ignoredTypes resolves configured and flagged names. Names not declared in g are kept as written.
func ignoredTypes(cmd *cobra.Command, g *graph.Graph, cfg *config.Config) []descriptor.TypeID {
	extra, _ := cmd.Flags().GetStringSlice("ignore")
	var out []descriptor.TypeID
	for _, name := range append(append([]string(nil), cfg.Resolve.Ignore...), extra...) {
		if ids := g.Find(name); len(ids) == 1 {
			out = append(out, ids[0])
		} else {
			out = append(out, descriptor.TypeID(name))
		}
	}
	return out
}

type closureDump struct {
	Root      descriptor.TypeID
	Types     map[descriptor.TypeID]map[string]string
	Conflicts []hierarchy.Conflict
	Missing   []descriptor.TypeID
}

var hierarchyCmd = &cobra.Command{
	Use:   "hierarchy ROOT",
	Short: "Print the supertypes of ROOT with their resolved type variables",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dump, _ := cmd.Flags().GetBool("dump")
		cfg := loadConfig()
		g := loadGraph(cfg)

		root := lookupType(g, args[0])
		closure, err := cache.New(g).Get(root, ignoredTypes(cmd, g, cfg)...)
		if err != nil {
			log.Fatalf("Failed to resolve %s: %v", root, err)
		}

		if dump {
			d := closureDump{
				Root:      closure.Root(),
				Types:     make(map[descriptor.TypeID]map[string]string),
				Conflicts: closure.Conflicts(),
				Missing:   closure.Missing(),
			}
			for _, id := range closure.Types() {
				b, _ := closure.Bindings(id)
				vals := make(map[string]string, b.Len())
				for name, t := range b.Map() {
					vals[name] = t.String()
				}
				d.Types[id] = vals
			}
			pretty.Println(d)
			return
		}

		for _, id := range closure.Types() {
			depth, _ := closure.Depth(id)
			b, _ := closure.Bindings(id)
			fmt.Printf("%s%s %s\n", strings.Repeat("  ", depth), id, b)
		}
		for _, c := range closure.Conflicts() {
			say("⚠️", "%s reached again via %s as %s, kept %s", c.Type, c.Via, c.Dropped, c.Kept)
		}
		if missing := closure.Missing(); len(missing) > 0 {
			say("❓", "Not declared: %v", missing)
		}
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve ROOT",
	Short: "Resolve the fields and methods of ROOT, or of one of its ancestors, in ROOT's context",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		at, _ := cmd.Flags().GetString("at")
		fieldName, _ := cmd.Flags().GetString("field")
		methodName, _ := cmd.Flags().GetString("method")
		cfg := loadConfig()
		g := loadGraph(cfg)

		root := lookupType(g, args[0])
		tc, err := navigator.Resolve(cache.New(g), root, ignoredTypes(cmd, g, cfg)...)
		if err != nil {
			log.Fatalf("Failed to resolve %s: %v", root, err)
		}
		if at != "" {
			if tc, err = tc.Type(lookupType(g, at)); err != nil {
				log.Fatalf("Failed to navigate to %s: %v", at, err)
			}
		}

		current, err := tc.ToStringCurrentType()
		if err != nil {
			log.Fatalf("Failed to format %s: %v", tc.Decl().ID, err)
		}
		fmt.Println(current)

		decl := tc.Decl()
		if methodName == "" {
			for _, f := range decl.Fields {
				if fieldName != "" && f.Name != fieldName {
					continue
				}
				t, err := tc.ResolveFieldType(f)
				if err != nil {
					log.Fatalf("Failed to resolve field %s: %v", f.Name, err)
				}
				fmt.Printf("  %s %s\n", t, f.Name)
			}
		}
		if fieldName == "" {
			for _, m := range decl.Methods {
				if methodName != "" && m.Name != methodName {
					continue
				}
				mc, err := tc.Method(m)
				if err != nil {
					log.Fatalf("Failed to resolve method %s: %v", m.Name, err)
				}
				s, err := mc.ToStringMethod()
				if err != nil {
					log.Fatalf("Failed to format method %s: %v", m.Name, err)
				}
				fmt.Printf("  %s\n", s)
			}
		}
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare LEFT RIGHT",
	Short: "Compare two Java type descriptors by specificity",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		pkg, _ := cmd.Flags().GetString("package")
		imports, _ := cmd.Flags().GetStringSlice("import")
		vars, _ := cmd.Flags().GetStringSlice("var")
		cfg := loadConfig()
		g := loadGraph(cfg)

		parse := func(src string) descriptor.Type {
			t, err := extractor.ParseType(src, vars...)
			if err != nil {
				log.Fatalf("Failed to parse %q: %v", src, err)
			}
			linked, unresolved := g.LinkType(t, pkg, imports...)
			for _, u := range unresolved {
				say("❓", "%s: %s", u.Target, u.Reason)
			}
			return linked
		}
		left, right := parse(args[0]), parse(args[1])

		res := compare.Compare(left, right, hierarchy.NewLattice(g))
		fmt.Printf("%s vs %s\n", left, right)
		fmt.Printf("  compatible:    %v\n", res.IsCompatible())
		fmt.Printf("  equal:         %v\n", res.IsEqual())
		fmt.Printf("  more specific: %v\n", res.IsMoreSpecific())
	},
}
