package relcheck_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/go-relcheck"
	"github.com/soundprediction/go-relcheck/pkg/logger"
	"github.com/soundprediction/go-relcheck/pkg/report"
	"github.com/soundprediction/go-relcheck/pkg/types"
)

func newChecker(t *testing.T, opts relcheck.Options) *relcheck.Checker {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = logger.NewLogger(io.Discard, slog.LevelError)
	}
	c, err := relcheck.NewChecker(opts)
	require.NoError(t, err)
	return c
}

func check(t *testing.T, c *relcheck.Checker, input string) *report.Report {
	t.Helper()
	rep, err := c.Check(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	return rep
}

func TestCheckEndToEndScenario(t *testing.T) {
	// Both hierarchy rows describe the same relationship from opposite ends;
	// the third row is a broader-than self reference.
	input := strings.Join([]string{
		"C1|C2|PAR|CHD",
		"C2|C1|CHD|PAR",
		"C3|C3|RB|RN",
	}, "\n")

	rep := check(t, newChecker(t, relcheck.Options{}), input)

	require.Len(t, rep.Duplicates, 1)
	assert.Equal(t, types.DuplicateEdge{
		Source:      "C1",
		Target:      "C2",
		Channel:     types.ChannelHierarchy,
		Occurrences: 2,
	}, rep.Duplicates[0])

	require.Len(t, rep.SelfLoops, 1)
	assert.Equal(t, types.SelfLoop{CUI: "C3", Channel: types.ChannelBroader, Code: types.RelationRN}, rep.SelfLoops[0])

	assert.Empty(t, rep.Cycles)
	assert.Empty(t, rep.Contradictions)

	stats := rep.Stats
	assert.Equal(t, int64(3), stats.LinesRead)
	assert.Equal(t, int64(2), stats.HierarchyEdges)
	assert.Equal(t, int64(1), stats.HierarchyDistinct)
	assert.Equal(t, int64(1), stats.BroaderEdges)
	assert.Zero(t, stats.LinesSkipped)
}

func TestCheckFindsCyclesAndContradictions(t *testing.T) {
	input := strings.Join([]string{
		"C1|C2|x|CHD", // C1 -> C2
		"C2|C3|x|CHD", // C2 -> C3
		"C1|C3|x|PAR", // C3 -> C1, closing the triangle
		"C4|C5|x|RB",
		"C4|C5|x|RN", // mutual broader-than claims
		"C6|C7|x|RB", // one-directional, no contradiction
	}, "\n")

	rep := check(t, newChecker(t, relcheck.Options{}), input)

	require.Len(t, rep.Cycles, 1)
	assert.Equal(t, "C1 -> C2 -> C3", rep.Cycles[0].String())

	require.Len(t, rep.Contradictions, 1)
	assert.Equal(t, types.Contradiction{A: "C4", B: "C5"}, rep.Contradictions[0])

	assert.Equal(t, 1, rep.Stats.CycleCount)
	assert.Equal(t, 1, rep.Stats.ContradictionCount)
	assert.False(t, rep.Stats.CyclesPartial)
}

func TestCheckStatisticsInvariant(t *testing.T) {
	input := strings.Join([]string{
		"C1|C2|x|CHD",
		"C2|C3|x|PAR",
		"C4|C5|x|RB",
		"C4|C5|x|RQ", // irrelevant code
		"C6|C7",      // malformed, too few fields
		"C8|C9|x|RN",
	}, "\n")

	rep := check(t, newChecker(t, relcheck.Options{}), input)

	stats := rep.Stats
	assert.Equal(t, int64(6), stats.LinesRead)
	assert.Equal(t, int64(1), stats.LinesMalformed)
	assert.Equal(t, int64(1), stats.LinesIrrelevant)
	assert.Equal(t, int64(2), stats.LinesSkipped)
	assert.Equal(t, stats.LinesRead,
		stats.LinesMalformed+stats.LinesIrrelevant+stats.HierarchyEdges+stats.BroaderEdges)
	// CHD, PAR, RB, RN and RQ were all observed.
	assert.Equal(t, 5, stats.RelationKindsSeen)
}

func TestCheckModeGatesDetectors(t *testing.T) {
	input := strings.Join([]string{
		"C1|C2|x|CHD",
		"C1|C2|x|PAR", // 2-cycle C1 <-> C2
		"C3|C4|x|RB",
		"C3|C4|x|RN", // contradiction {C3, C4}
	}, "\n")

	tests := []struct {
		name               string
		mode               types.CheckMode
		wantCycles         int
		wantContradictions int
	}{
		{"parent-child only", types.ModeParentChild, 1, 0},
		{"broader-than only", types.ModeBroaderThan, 0, 1},
		{"both", types.ModeBoth, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := check(t, newChecker(t, relcheck.Options{Mode: tt.mode}), input)
			assert.Len(t, rep.Cycles, tt.wantCycles)
			assert.Len(t, rep.Contradictions, tt.wantContradictions)
		})
	}
}

func TestCheckDeterministicAcrossRuns(t *testing.T) {
	input := strings.Join([]string{
		"C5|C6|x|CHD",
		"C6|C5|x|CHD",
		"C1|C2|x|RB",
		"C2|C1|x|RB",
		"C3|C3|x|CHD",
		"C5|C6|x|CHD",
	}, "\n")

	c := newChecker(t, relcheck.Options{RunID: "fixed"})
	first := check(t, c, input)
	second := check(t, c, input)

	first.Stats.Durations = types.PhaseDurations{}
	second.Stats.Durations = types.PhaseDurations{}
	assert.Equal(t, first, second)
}

func TestCheckCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newChecker(t, relcheck.Options{})
	_, err := c.Check(ctx, strings.NewReader("C1|C2|x|CHD\n"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestCheckFileMissing(t *testing.T) {
	c := newChecker(t, relcheck.Options{})
	_, err := c.CheckFile(context.Background(), filepath.Join(t.TempDir(), "absent.rrf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCheckFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relations.rrf")
	require.NoError(t, os.WriteFile(path, []byte("C1|C2|x|CHD\nC2|C1|x|CHD\n"), 0o644))

	c := newChecker(t, relcheck.Options{})
	rep, err := c.CheckFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, rep.Cycles, 1)
	assert.Equal(t, "C1 -> C2", rep.Cycles[0].String())
}

func TestNewCheckerRejectsBadOptions(t *testing.T) {
	_, err := relcheck.NewChecker(relcheck.Options{Mode: types.CheckMode("everything")})
	require.Error(t, err)
}
