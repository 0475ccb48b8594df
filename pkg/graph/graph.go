// Package graph builds per-channel directed multigraphs over concepts and
// surfaces the structural findings seen during insertion.
package graph

import (
	"sort"

	"github.com/soundprediction/go-relcheck/pkg/types"
)

type edgeKey struct {
	source types.CUI
	target types.CUI
}

// Graph is a directed multigraph over CUIs for one channel. Adjacency holds
// each distinct edge once; assertion multiplicities are tracked separately so
// duplicate rows never distort traversal.
type Graph struct {
	channel   types.Channel
	nodes     map[types.CUI]struct{}
	succ      map[types.CUI]map[types.CUI]struct{}
	mult      map[edgeKey]int
	order     []edgeKey
	edgeCount int64
}

func newGraph(channel types.Channel) *Graph {
	return &Graph{
		channel: channel,
		nodes:   make(map[types.CUI]struct{}),
		succ:    make(map[types.CUI]map[types.CUI]struct{}),
		mult:    make(map[edgeKey]int),
	}
}

func (g *Graph) add(source, target types.CUI) {
	g.edgeCount++
	g.nodes[source] = struct{}{}
	g.nodes[target] = struct{}{}

	key := edgeKey{source: source, target: target}
	if g.mult[key]++; g.mult[key] > 1 {
		return
	}
	g.order = append(g.order, key)
	set, ok := g.succ[source]
	if !ok {
		set = make(map[types.CUI]struct{})
		g.succ[source] = set
	}
	set[target] = struct{}{}
}

// Channel returns the semantic channel this graph was built for.
func (g *Graph) Channel() types.Channel { return g.channel }

// Nodes returns every concept appearing as an endpoint, sorted
// lexicographically.
func (g *Graph) Nodes() []types.CUI {
	nodes := make([]types.CUI, 0, len(g.nodes))
	for cui := range g.nodes {
		nodes = append(nodes, cui)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })
	return nodes
}

// NodeCount returns the number of distinct endpoint concepts.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// Succ returns the distinct successors of a concept, sorted
// lexicographically.
func (g *Graph) Succ(cui types.CUI) []types.CUI {
	set := g.succ[cui]
	if len(set) == 0 {
		return nil
	}
	out := make([]types.CUI, 0, len(set))
	for target := range set {
		out = append(out, target)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// HasEdge reports whether the distinct edge source -> target exists.
func (g *Graph) HasEdge(source, target types.CUI) bool {
	_, ok := g.succ[source][target]
	return ok
}

// Multiplicity returns how many times source -> target was asserted.
func (g *Graph) Multiplicity(source, target types.CUI) int {
	return g.mult[edgeKey{source: source, target: target}]
}

// Edges returns the distinct edges in first-seen order.
func (g *Graph) Edges() []types.Edge {
	out := make([]types.Edge, 0, len(g.order))
	for _, key := range g.order {
		out = append(out, types.Edge{Source: key.source, Target: key.target, Channel: g.channel})
	}
	return out
}

// DistinctEdgeCount returns the number of distinct directed edges.
func (g *Graph) DistinctEdgeCount() int64 { return int64(len(g.order)) }

// EdgeCount returns the number of edge assertions, duplicates included.
func (g *Graph) EdgeCount() int64 { return g.edgeCount }

// duplicates returns one finding per distinct edge asserted more than once,
// in first-seen order.
func (g *Graph) duplicates() []types.DuplicateEdge {
	var out []types.DuplicateEdge
	for _, key := range g.order {
		if n := g.mult[key]; n > 1 {
			out = append(out, types.DuplicateEdge{
				Source:      key.source,
				Target:      key.target,
				Channel:     g.channel,
				Occurrences: n,
			})
		}
	}
	return out
}

type selfKey struct {
	cui     types.CUI
	channel types.Channel
}

// Builder ingests canonical edges and materializes one graph per channel.
// Self-loops are recorded as findings and still inserted, so later phases see
// the full structure. Builder is not safe for concurrent use.
type Builder struct {
	hierarchy *Graph
	broader   *Graph
	selfSeen  map[selfKey]struct{}
	selfLoops []types.SelfLoop
}

// NewBuilder returns an empty Builder with both channel graphs initialized.
func NewBuilder() *Builder {
	return &Builder{
		hierarchy: newGraph(types.ChannelHierarchy),
		broader:   newGraph(types.ChannelBroader),
		selfSeen:  make(map[selfKey]struct{}),
	}
}

// Add inserts one canonical edge. code is the raw relation label the edge was
// derived from; it is kept on the finding when the edge turns out to be a
// self-loop. The first sighting per concept and channel wins, repeats fold
// into duplicate multiplicity.
func (b *Builder) Add(edge types.Edge, code types.RelationCode) {
	g := b.graph(edge.Channel)
	if g == nil {
		return
	}
	if edge.Source == edge.Target {
		key := selfKey{cui: edge.Source, channel: edge.Channel}
		if _, ok := b.selfSeen[key]; !ok {
			b.selfSeen[key] = struct{}{}
			b.selfLoops = append(b.selfLoops, types.SelfLoop{
				CUI:     edge.Source,
				Channel: edge.Channel,
				Code:    code,
			})
		}
	}
	g.add(edge.Source, edge.Target)
}

func (b *Builder) graph(channel types.Channel) *Graph {
	switch channel {
	case types.ChannelHierarchy:
		return b.hierarchy
	case types.ChannelBroader:
		return b.broader
	default:
		return nil
	}
}

// Graph returns the built graph for a channel, or nil for an unknown channel.
func (b *Builder) Graph(channel types.Channel) *Graph {
	return b.graph(channel)
}

// SelfLoops returns self-loop findings in first-seen order.
func (b *Builder) SelfLoops() []types.SelfLoop {
	return b.selfLoops
}

// Duplicates returns duplicate-edge findings, hierarchy channel first, each
// channel in first-seen order.
func (b *Builder) Duplicates() []types.DuplicateEdge {
	out := b.hierarchy.duplicates()
	return append(out, b.broader.duplicates()...)
}
