package analysis

import (
	"path/filepath"
	"sort"

	"genres/internal/descriptor"
	"genres/internal/git"
	"genres/internal/graph"
)

// ImpactReport summarizes the declarations whose closures are affected by changes.
type ImpactReport struct {
	// DirectlyAffected are declared in the changed lines, or were removed.
	DirectlyAffected []descriptor.TypeID
	// IndirectlyAffected inherit from, or are nested in, a directly affected type.
	IndirectlyAffected []descriptor.TypeID
}

// All lists every affected type, direct ones first.
func (r *ImpactReport) All() []descriptor.TypeID {
	return append(append([]descriptor.TypeID(nil), r.DirectlyAffected...), r.IndirectlyAffected...)
}

// Analyzer performs impact analysis on the declaration graph.
type Analyzer struct {
	g    *graph.Graph
	root string
}

// NewAnalyzer creates a new analyzer. Diff paths are taken relative to root.
func NewAnalyzer(g *graph.Graph, root string) *Analyzer {
	return &Analyzer{g: g, root: root}
}

// AnalyzeImpact identifies which types are affected by the given changes. removed lists
// types whose sources were deleted before the graph was relinked.
func (a *Analyzer) AnalyzeImpact(changes []git.ChangedFile, removed ...descriptor.TypeID) (*ImpactReport, error) {
	report := &ImpactReport{
		DirectlyAffected:   []descriptor.TypeID{},
		IndirectlyAffected: []descriptor.TypeID{},
	}

	seenDirect := make(map[descriptor.TypeID]bool)
	seenIndirect := make(map[descriptor.TypeID]bool)
	direct := func(id descriptor.TypeID) {
		if !seenDirect[id] {
			report.DirectlyAffected = append(report.DirectlyAffected, id)
			seenDirect[id] = true
		}
	}

	// 1. Find Direct Impacts
	for _, id := range removed {
		direct(id)
	}
	byFile := a.declsByFile()
	for _, change := range changes {
		for _, d := range byFile[a.normalize(change.Path)] {
			if change.Deleted || isAffected(d, change.ChangedLines) {
				direct(d.ID)
			}
		}
	}

	// 2. Find Indirect Impacts: every type whose closure walks through a direct one
	queue := append([]descriptor.TypeID(nil), report.DirectlyAffected...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, dep := range a.dependents(id) {
			if seenDirect[dep] || seenIndirect[dep] {
				continue
			}
			seenIndirect[dep] = true
			report.IndirectlyAffected = append(report.IndirectlyAffected, dep)
			queue = append(queue, dep)
		}
	}

	sort.Slice(report.IndirectlyAffected, func(i, j int) bool {
		return report.IndirectlyAffected[i] < report.IndirectlyAffected[j]
	})
	return report, nil
}

// dependents are the subtypes of id and the types nested in it.
func (a *Analyzer) dependents(id descriptor.TypeID) []descriptor.TypeID {
	return append(a.g.Subtypes(id), a.g.InnerTypes(id)...)
}

func (a *Analyzer) declsByFile() map[string][]*descriptor.TypeDecl {
	out := make(map[string][]*descriptor.TypeDecl)
	for _, id := range a.g.Types() {
		path := a.g.FileOf(id)
		if path == "" {
			continue
		}
		if d, ok := a.g.Lookup(id); ok {
			key := a.normalize(path)
			out[key] = append(out[key], d)
		}
	}
	return out
}

func (a *Analyzer) normalize(path string) string {
	if a.root != "" && !filepath.IsAbs(path) {
		path = filepath.Join(a.root, path)
	}
	return filepath.Clean(path)
}

func isAffected(d *descriptor.TypeDecl, lines []int) bool {
	// Manifests carry no line ranges, any change touches every declaration
	if d.Source.EndLine == 0 {
		return len(lines) > 0
	}
	for _, line := range lines {
		if d.Source.Contains(line) {
			return true
		}
	}
	return false
}
