package detect

import (
	"sort"

	"github.com/soundprediction/go-relcheck/pkg/graph"
	"github.com/soundprediction/go-relcheck/pkg/types"
)

// FindContradictions scans a broader-than graph for concept pairs asserted in
// both directions. Each offending pair is reported once with A ordered before
// B lexicographically; self-loops never qualify. Runs in time linear in the
// distinct edge count.
func FindContradictions(g *graph.Graph) []types.Contradiction {
	seen := make(map[[2]types.CUI]struct{})
	var out []types.Contradiction
	for _, edge := range g.Edges() {
		if edge.Source == edge.Target {
			continue
		}
		if !g.HasEdge(edge.Target, edge.Source) {
			continue
		}
		a, b := edge.Source, edge.Target
		if b < a {
			a, b = b, a
		}
		key := [2]types.CUI{a, b}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, types.Contradiction{A: a, B: b})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}
