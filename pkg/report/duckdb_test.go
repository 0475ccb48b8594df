package report

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/soundprediction/go-relcheck/pkg/types"
)

func TestDuckDBSink(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "relcheck_test.duckdb")

	sink, err := NewDuckDBSink(dbPath)
	if err != nil {
		t.Fatalf("Failed to create DuckDB sink: %v", err)
	}
	defer sink.Close()

	ctx := context.Background()

	rep := &Report{
		SelfLoops: []types.SelfLoop{
			{CUI: "C3", Channel: types.ChannelBroader, Code: types.RelationRB},
			{CUI: "C9", Channel: types.ChannelHierarchy, Code: types.RelationCHD},
		},
		Duplicates: []types.DuplicateEdge{
			{Source: "C1", Target: "C2", Channel: types.ChannelHierarchy, Occurrences: 3},
		},
		Cycles: []types.Cycle{
			{Path: []types.CUI{"C4", "C5", "C6"}},
		},
		Contradictions: []types.Contradiction{
			{A: "C7", B: "C8"},
		},
		Stats: types.Statistics{
			RunID:     "duckdb-test-run",
			Mode:      types.ModeBoth,
			LinesRead: 42,
		},
	}

	if err := sink.WriteFindings(ctx, rep); err != nil {
		t.Fatalf("Failed to write findings: %v", err)
	}
	if err := sink.WriteStatistics(ctx, &rep.Stats); err != nil {
		t.Fatalf("Failed to write statistics: %v", err)
	}

	counts := map[string]int{
		"self_loops":             2,
		"duplicate_edges":        1,
		"hierarchy_cycles":       1,
		"broader_contradictions": 1,
		"run_statistics":         1,
	}
	for table, want := range counts {
		var got int
		row := sink.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table)
		if err := row.Scan(&got); err != nil {
			t.Fatalf("Failed to count %s: %v", table, err)
		}
		if got != want {
			t.Errorf("Expected %d rows in %s, got %d", want, table, got)
		}
	}

	var path string
	var length int
	row := sink.db.QueryRowContext(ctx, "SELECT cycle_path, length FROM hierarchy_cycles WHERE run_id = ?", "duckdb-test-run")
	if err := row.Scan(&path, &length); err != nil {
		t.Fatalf("Failed to read cycle row: %v", err)
	}
	if path != "C4 -> C5 -> C6" || length != 3 {
		t.Errorf("Unexpected cycle row: %q length %d", path, length)
	}

	// Re-writing statistics for the same run replaces the row.
	rep.Stats.LinesRead = 43
	if err := sink.WriteStatistics(ctx, &rep.Stats); err != nil {
		t.Fatalf("Failed to rewrite statistics: %v", err)
	}
	var linesRead int64
	row = sink.db.QueryRowContext(ctx, "SELECT lines_read FROM run_statistics WHERE run_id = ?", "duckdb-test-run")
	if err := row.Scan(&linesRead); err != nil {
		t.Fatalf("Failed to read statistics row: %v", err)
	}
	if linesRead != 43 {
		t.Errorf("Expected lines_read 43 after rewrite, got %d", linesRead)
	}
}
