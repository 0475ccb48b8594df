package graph_test

import (
	"testing"

	"github.com/soundprediction/go-relcheck/pkg/graph"
	"github.com/soundprediction/go-relcheck/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hierEdge(source, target types.CUI) types.Edge {
	return types.Edge{Source: source, Target: target, Channel: types.ChannelHierarchy}
}

func broaderEdge(source, target types.CUI) types.Edge {
	return types.Edge{Source: source, Target: target, Channel: types.ChannelBroader}
}

func TestBuilderSeparatesChannels(t *testing.T) {
	b := graph.NewBuilder()
	b.Add(hierEdge("C1", "C2"), types.RelationCHD)
	b.Add(broaderEdge("C1", "C2"), types.RelationRB)

	h := b.Graph(types.ChannelHierarchy)
	br := b.Graph(types.ChannelBroader)

	assert.Equal(t, int64(1), h.EdgeCount())
	assert.Equal(t, int64(1), br.EdgeCount())
	assert.True(t, h.HasEdge("C1", "C2"))
	assert.True(t, br.HasEdge("C1", "C2"))
	assert.False(t, h.HasEdge("C2", "C1"))

	assert.Nil(t, b.Graph(types.Channel("unknown")))
}

func TestGraphMultiplicity(t *testing.T) {
	b := graph.NewBuilder()
	b.Add(hierEdge("C1", "C2"), types.RelationCHD)
	b.Add(hierEdge("C1", "C2"), types.RelationPAR)
	b.Add(hierEdge("C1", "C2"), types.RelationCHD)
	b.Add(hierEdge("C2", "C3"), types.RelationCHD)

	g := b.Graph(types.ChannelHierarchy)
	assert.Equal(t, int64(4), g.EdgeCount())
	assert.Equal(t, int64(2), g.DistinctEdgeCount())
	assert.Equal(t, 3, g.Multiplicity("C1", "C2"))
	assert.Equal(t, 1, g.Multiplicity("C2", "C3"))
	assert.Zero(t, g.Multiplicity("C3", "C2"))

	dups := b.Duplicates()
	require.Len(t, dups, 1)
	assert.Equal(t, types.DuplicateEdge{
		Source:      "C1",
		Target:      "C2",
		Channel:     types.ChannelHierarchy,
		Occurrences: 3,
	}, dups[0])
}

func TestDuplicatesOrderedHierarchyFirst(t *testing.T) {
	b := graph.NewBuilder()
	b.Add(broaderEdge("C5", "C6"), types.RelationRB)
	b.Add(broaderEdge("C5", "C6"), types.RelationRB)
	b.Add(hierEdge("C3", "C4"), types.RelationCHD)
	b.Add(hierEdge("C3", "C4"), types.RelationCHD)
	b.Add(hierEdge("C1", "C2"), types.RelationCHD)
	b.Add(hierEdge("C1", "C2"), types.RelationCHD)

	dups := b.Duplicates()
	require.Len(t, dups, 3)
	assert.Equal(t, types.ChannelHierarchy, dups[0].Channel)
	assert.Equal(t, types.CUI("C3"), dups[0].Source)
	assert.Equal(t, types.CUI("C1"), dups[1].Source)
	assert.Equal(t, types.ChannelBroader, dups[2].Channel)
}

func TestSelfLoopsRecordedAndInserted(t *testing.T) {
	b := graph.NewBuilder()
	b.Add(hierEdge("C1", "C1"), types.RelationCHD)
	b.Add(hierEdge("C1", "C1"), types.RelationPAR)
	b.Add(broaderEdge("C1", "C1"), types.RelationRN)

	loops := b.SelfLoops()
	require.Len(t, loops, 2)
	assert.Equal(t, types.SelfLoop{CUI: "C1", Channel: types.ChannelHierarchy, Code: types.RelationCHD}, loops[0])
	assert.Equal(t, types.SelfLoop{CUI: "C1", Channel: types.ChannelBroader, Code: types.RelationRN}, loops[1])

	// The loop edge still lands in the graph, with multiplicity.
	h := b.Graph(types.ChannelHierarchy)
	assert.True(t, h.HasEdge("C1", "C1"))
	assert.Equal(t, 2, h.Multiplicity("C1", "C1"))
	assert.Equal(t, 1, h.NodeCount())

	dups := b.Duplicates()
	require.Len(t, dups, 1)
	assert.Equal(t, types.CUI("C1"), dups[0].Source)
}

func TestGraphAccessors(t *testing.T) {
	b := graph.NewBuilder()
	b.Add(hierEdge("C3", "C1"), types.RelationCHD)
	b.Add(hierEdge("C3", "C2"), types.RelationCHD)
	b.Add(hierEdge("C1", "C2"), types.RelationCHD)

	g := b.Graph(types.ChannelHierarchy)
	assert.Equal(t, []types.CUI{"C1", "C2", "C3"}, g.Nodes())
	assert.Equal(t, []types.CUI{"C1", "C2"}, g.Succ("C3"))
	assert.Nil(t, g.Succ("C2"))

	edges := g.Edges()
	require.Len(t, edges, 3)
	assert.Equal(t, types.Edge{Source: "C3", Target: "C1", Channel: types.ChannelHierarchy}, edges[0])
}
