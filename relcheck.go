package relcheck

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/soundprediction/go-relcheck/pkg/detect"
	"github.com/soundprediction/go-relcheck/pkg/graph"
	"github.com/soundprediction/go-relcheck/pkg/mrrel"
	"github.com/soundprediction/go-relcheck/pkg/report"
	"github.com/soundprediction/go-relcheck/pkg/types"
)

// cancelCheckLines controls how often the parse loop polls the context.
const cancelCheckLines = 4096

// Options configures a Checker.
type Options struct {
	// Layout describes the input row format. The zero value uses
	// mrrel.DefaultLayout().
	Layout mrrel.Layout
	// Mode selects which detectors run. Empty uses types.ModeBoth. Graphs
	// for both channels are always built.
	Mode types.CheckMode
	// CycleBudget caps the per-component cycle enumeration effort. Zero uses
	// detect.DefaultCycleBudget.
	CycleBudget int64
	// Workers bounds the cycle-detection fan-out. Zero uses
	// detect.DefaultWorkers.
	Workers int
	// RunID identifies the run in reports. Empty draws a fresh UUID per run.
	RunID string
	// Logger receives progress. Nil falls back to slog.Default().
	Logger *slog.Logger
}

// Checker audits concept relation tables for hierarchy cycles, broader-than
// contradictions, duplicate assertions and self-loops. A Checker carries no
// state between runs; everything mutable lives inside Check.
type Checker struct {
	layout  mrrel.Layout
	mode    types.CheckMode
	budget  int64
	workers int
	runID   string
	logger  *slog.Logger
}

// NewChecker validates opts and returns a Checker.
func NewChecker(opts Options) (*Checker, error) {
	layout := opts.Layout
	if layout == (mrrel.Layout{}) {
		layout = mrrel.DefaultLayout()
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	mode := opts.Mode
	if mode == "" {
		mode = types.ModeBoth
	}
	if _, err := types.ParseCheckMode(string(mode)); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Checker{
		layout:  layout,
		mode:    mode,
		budget:  opts.CycleBudget,
		workers: opts.Workers,
		runID:   opts.RunID,
		logger:  logger,
	}, nil
}

// Check runs the audit over input and assembles the report. Findings and
// statistics are deterministic for identical input; only the run ID and the
// durations vary. The write-phase duration stays zero until the report passes
// through report.Write.
func (c *Checker) Check(ctx context.Context, input io.Reader) (*report.Report, error) {
	runID := c.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger := c.logger.With("run_id", runID)

	logger.Info("starting relationship parsing", "mode", string(c.mode))
	parseStart := time.Now()

	reader, err := mrrel.NewReader(input, c.layout)
	if err != nil {
		return nil, err
	}
	builder := graph.NewBuilder()

	var lines int64
	for {
		if lines%cancelCheckLines == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		lines++

		rel, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		edge, ok := mrrel.Normalize(rel)
		if !ok {
			continue
		}
		builder.Add(edge, rel.Code)
	}
	parseDur := time.Since(parseStart)

	hierarchy := builder.Graph(types.ChannelHierarchy)
	broader := builder.Graph(types.ChannelBroader)
	read, malformed, irrelevant := reader.Counts()

	logger.Info("relationship parsing complete",
		"lines_read", read,
		"hierarchy_edges", hierarchy.EdgeCount(),
		"broader_than_edges", broader.EdgeCount(),
		"lines_skipped", malformed+irrelevant)

	rep := &report.Report{
		SelfLoops:  builder.SelfLoops(),
		Duplicates: builder.Duplicates(),
	}

	var cyclesDur time.Duration
	if c.mode.CyclesEnabled() {
		logger.Info("checking for parent-child loops")
		start := time.Now()
		res, err := detect.FindCycles(ctx, hierarchy, detect.CycleOptions{
			Budget:  c.budget,
			Workers: c.workers,
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
		cyclesDur = time.Since(start)
		rep.Cycles = res.Cycles
		rep.Stats.CyclesPartial = res.Partial()
		rep.Stats.PartialComponents = res.PartialComponents
		logger.Info("cycle detection complete",
			"cycles", len(res.Cycles),
			"components", res.Components,
			"partial", res.Partial())
	}

	var contradictionsDur time.Duration
	if c.mode.ContradictionsEnabled() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		logger.Info("checking broader-than contradictions")
		start := time.Now()
		rep.Contradictions = detect.FindContradictions(broader)
		contradictionsDur = time.Since(start)
		logger.Info("contradiction detection complete",
			"contradictions", len(rep.Contradictions))
	}

	stats := &rep.Stats
	stats.RunID = runID
	stats.Mode = c.mode
	stats.LinesRead = read
	stats.LinesMalformed = malformed
	stats.LinesIrrelevant = irrelevant
	stats.LinesSkipped = malformed + irrelevant
	stats.HierarchyEdges = hierarchy.EdgeCount()
	stats.BroaderEdges = broader.EdgeCount()
	stats.HierarchyDistinct = hierarchy.DistinctEdgeCount()
	stats.BroaderDistinct = broader.DistinctEdgeCount()
	stats.HierarchyNodes = int64(hierarchy.NodeCount())
	stats.BroaderNodes = int64(broader.NodeCount())
	stats.RelationKindsSeen = len(reader.RelationKinds())
	stats.SelfLoopCount = len(rep.SelfLoops)
	stats.DuplicateCount = len(rep.Duplicates)
	stats.CycleCount = len(rep.Cycles)
	stats.ContradictionCount = len(rep.Contradictions)
	stats.Durations.Parse = parseDur
	stats.Durations.Cycles = cyclesDur
	stats.Durations.Contradictions = contradictionsDur
	stats.Durations.Total = parseDur + cyclesDur + contradictionsDur

	logger.Info("check complete",
		"self_loops", stats.SelfLoopCount,
		"duplicate_edges", stats.DuplicateCount,
		"cycles", stats.CycleCount,
		"contradictions", stats.ContradictionCount)
	return rep, nil
}

// CheckFile opens path and runs Check over it. The file handle is closed on
// all paths.
func (c *Checker) CheckFile(ctx context.Context, path string) (*report.Report, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input %s: %w", path, err)
	}
	defer file.Close()
	return c.Check(ctx, file)
}
