// Package detect finds structural defects in concept relation graphs:
// elementary cycles in the hierarchy channel and mutual broader-than
// contradictions.
package detect

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/soundprediction/go-relcheck/pkg/graph"
	"github.com/soundprediction/go-relcheck/pkg/types"
)

const (
	// DefaultCycleBudget bounds the per-component enumeration effort in unit
	// operations. Dense components can hold exponentially many elementary
	// cycles, so enumeration degrades to a partial result instead of running
	// away.
	DefaultCycleBudget int64 = 10_000_000

	// DefaultWorkers bounds how many components are searched concurrently.
	DefaultWorkers = 8
)

// CycleOptions tunes FindCycles. The zero value uses the defaults.
type CycleOptions struct {
	// Budget caps the per-component enumeration effort. Zero or negative
	// falls back to DefaultCycleBudget.
	Budget int64
	// Workers bounds the component fan-out. Zero or negative falls back to
	// DefaultWorkers.
	Workers int
	// Logger receives per-phase progress. Nil falls back to slog.Default().
	Logger *slog.Logger
}

// CycleResult holds the cycles found in one graph.
type CycleResult struct {
	// Cycles in deterministic order: components by smallest member, circuits
	// within a component in discovery order.
	Cycles []types.Cycle
	// Components is the number of nontrivial strongly connected components
	// that were searched.
	Components int
	// PartialComponents counts components whose enumeration was truncated by
	// the budget. Their cycles found so far are still included.
	PartialComponents int
}

// Partial reports whether any component was truncated.
func (r *CycleResult) Partial() bool { return r.PartialComponents > 0 }

// FindCycles enumerates the elementary cycles of a channel graph. Self-loops
// never participate; they are reported separately during graph construction.
// Strongly connected components are located with an iterative Tarjan pass,
// then enumerated independently, fanned out across opts.Workers goroutines.
// The result is deterministic for identical inputs regardless of worker
// count.
func FindCycles(ctx context.Context, g *graph.Graph, opts CycleOptions) (*CycleResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	budget := opts.Budget
	if budget <= 0 {
		budget = DefaultCycleBudget
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	cuis, adj := densify(g)
	comps := sccs(adj)

	result := &CycleResult{Components: len(comps)}
	if len(comps) == 0 {
		return result, nil
	}

	logger.Debug("enumerating cycles",
		"channel", string(g.Channel()),
		"components", len(comps),
		"workers", workers,
		"budget", budget)

	perComp := make([][]types.Cycle, len(comps))
	partials := make([]bool, len(comps))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, comp := range comps {
		i, comp := i, comp
		eg.Go(func() error {
			partial, err := componentCircuits(gctx, adj, comp, budget, func(cycle []int) {
				path := make([]types.CUI, len(cycle))
				for j, v := range cycle {
					path[j] = cuis[v]
				}
				perComp[i] = append(perComp[i], types.Cycle{Path: path})
			})
			if err != nil {
				return err
			}
			partials[i] = partial
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	for i := range comps {
		result.Cycles = append(result.Cycles, perComp[i]...)
		if partials[i] {
			result.PartialComponents++
		}
	}
	if result.Partial() {
		logger.Warn("cycle enumeration truncated",
			"partial_components", result.PartialComponents,
			"budget", budget)
	}
	return result, nil
}

// densify interns the graph's CUIs into dense indexes ordered
// lexicographically and materializes an index-based adjacency list. Self
// edges are dropped here; they cannot extend a cycle of length two or more.
func densify(g *graph.Graph) ([]types.CUI, [][]int) {
	cuis := g.Nodes()
	idx := make(map[types.CUI]int, len(cuis))
	for i, cui := range cuis {
		idx[cui] = i
	}
	adj := make([][]int, len(cuis))
	for i, cui := range cuis {
		succ := g.Succ(cui)
		row := make([]int, 0, len(succ))
		for _, target := range succ {
			if j := idx[target]; j != i {
				row = append(row, j)
			}
		}
		adj[i] = row
	}
	return cuis, adj
}
