// Package report assembles audit findings into ordered tables and persists
// them through CSV and DuckDB sinks.
package report

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/soundprediction/go-relcheck/pkg/types"
)

// Report bundles the finding tables and statistics of one run. Table order is
// deterministic: self-loops and duplicates in first-seen order, cycles by
// component then discovery, contradictions sorted.
type Report struct {
	SelfLoops      []types.SelfLoop      `json:"self_loops"`
	Duplicates     []types.DuplicateEdge `json:"duplicate_edges"`
	Cycles         []types.Cycle         `json:"cycles"`
	Contradictions []types.Contradiction `json:"contradictions"`
	Stats          types.Statistics      `json:"statistics"`
}

// Sink persists one report. WriteFindings emits the four finding tables;
// WriteStatistics runs afterwards so the write-phase duration can land inside
// the statistics artifact.
type Sink interface {
	WriteFindings(ctx context.Context, rep *Report) error
	WriteStatistics(ctx context.Context, stats *types.Statistics) error
	Close() error
}

// Write persists rep through every sink. It measures how long the finding
// tables took, records that in rep.Stats.Durations along with the refreshed
// total, and only then emits statistics. Sinks stay open; closing them is the
// caller's job.
func Write(ctx context.Context, rep *Report, sinks ...Sink) error {
	start := time.Now()
	for _, sink := range sinks {
		if err := sink.WriteFindings(ctx, rep); err != nil {
			return fmt.Errorf("writing findings: %w", err)
		}
	}

	d := &rep.Stats.Durations
	d.Write = time.Since(start)
	d.Total = d.Parse + d.Cycles + d.Contradictions + d.Write

	for _, sink := range sinks {
		if err := sink.WriteStatistics(ctx, &rep.Stats); err != nil {
			return fmt.Errorf("writing statistics: %w", err)
		}
	}
	return nil
}

// Timestamp renders t in the compact form shared by every artifact name of
// one run, e.g. 20240131_154502.
func Timestamp(t time.Time) string {
	return t.Format("20060102_150405")
}

// statisticsRows flattens stats into ordered metric and value pairs for the
// metric-oriented sinks.
func statisticsRows(stats *types.Statistics) [][2]string {
	seconds := func(d time.Duration) string {
		return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
	}
	count := func(n int64) string {
		return strconv.FormatInt(n, 10)
	}
	return [][2]string{
		{"run_id", stats.RunID},
		{"mode", string(stats.Mode)},
		{"lines_read", count(stats.LinesRead)},
		{"lines_malformed", count(stats.LinesMalformed)},
		{"lines_irrelevant", count(stats.LinesIrrelevant)},
		{"lines_skipped", count(stats.LinesSkipped)},
		{"hierarchy_edges", count(stats.HierarchyEdges)},
		{"broader_than_edges", count(stats.BroaderEdges)},
		{"hierarchy_distinct_edges", count(stats.HierarchyDistinct)},
		{"broader_than_distinct_edges", count(stats.BroaderDistinct)},
		{"hierarchy_nodes", count(stats.HierarchyNodes)},
		{"broader_than_nodes", count(stats.BroaderNodes)},
		{"relation_kinds_seen", strconv.Itoa(stats.RelationKindsSeen)},
		{"self_loop_count", strconv.Itoa(stats.SelfLoopCount)},
		{"duplicate_edge_count", strconv.Itoa(stats.DuplicateCount)},
		{"cycle_count", strconv.Itoa(stats.CycleCount)},
		{"contradiction_count", strconv.Itoa(stats.ContradictionCount)},
		{"cycles_partial", strconv.FormatBool(stats.CyclesPartial)},
		{"partial_components", strconv.Itoa(stats.PartialComponents)},
		{"parse_seconds", seconds(stats.Durations.Parse)},
		{"cycle_detection_seconds", seconds(stats.Durations.Cycles)},
		{"contradiction_detection_seconds", seconds(stats.Durations.Contradictions)},
		{"write_seconds", seconds(stats.Durations.Write)},
		{"total_seconds", seconds(stats.Durations.Total)},
	}
}
