package graph

func (g *Graph) UnresolvedReasonCounts() map[UnresolvedReason]int {
	counts := make(map[UnresolvedReason]int)
	if g == nil {
		return counts
	}
	for _, u := range g.Unresolved {
		reason := u.Reason
		if reason == "" {
			reason = ReasonNoCandidate
		}
		counts[reason]++
	}
	return counts
}

// Stats summarizes the graph for reporting.
type Stats struct {
	Types      int
	Units      int
	Edges      int
	Unresolved int
}

func (g *Graph) Stats() Stats {
	return Stats{
		Types:      len(g.declared),
		Units:      len(g.units),
		Edges:      len(g.Edges),
		Unresolved: len(g.Unresolved),
	}
}
