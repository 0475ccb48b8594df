package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/soundprediction/go-relcheck/pkg/types"
)

// CSVSink writes timestamped CSV artifacts into a directory. Finding files
// are only created for non-empty tables; the statistics file is always
// written.
type CSVSink struct {
	dir    string
	stamp  string
	logger *slog.Logger
	paths  []string
}

// NewCSVSink returns a sink writing into dir with the given run timestamp
// (see Timestamp). The directory is created if missing. A nil logger falls
// back to slog.Default().
func NewCSVSink(dir, stamp string, logger *slog.Logger) (*CSVSink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", dir, err)
	}
	return &CSVSink{dir: dir, stamp: stamp, logger: logger}, nil
}

// WriteFindings emits one CSV file per non-empty finding table.
func (s *CSVSink) WriteFindings(ctx context.Context, rep *Report) error {
	if len(rep.SelfLoops) > 0 {
		rows := make([][]string, 0, len(rep.SelfLoops))
		for _, loop := range rep.SelfLoops {
			rows = append(rows, []string{string(loop.CUI), string(loop.Channel), string(loop.Code)})
		}
		if err := s.writeFile("self_loops", []string{"CUI", "Channel", "Relation"}, rows); err != nil {
			return err
		}
	}

	if len(rep.Duplicates) > 0 {
		rows := make([][]string, 0, len(rep.Duplicates))
		for _, dup := range rep.Duplicates {
			rows = append(rows, []string{
				string(dup.Source), string(dup.Target), string(dup.Channel), strconv.Itoa(dup.Occurrences),
			})
		}
		if err := s.writeFile("duplicate_edges", []string{"Source", "Target", "Channel", "Occurrences"}, rows); err != nil {
			return err
		}
	}

	if len(rep.Cycles) > 0 {
		rows := make([][]string, 0, len(rep.Cycles))
		for i, cycle := range rep.Cycles {
			rows = append(rows, []string{strconv.Itoa(i + 1), cycle.String(), strconv.Itoa(cycle.Length())})
		}
		if err := s.writeFile("parent_child_cycles", []string{"ID", "Cycle", "Length"}, rows); err != nil {
			return err
		}
	}

	if len(rep.Contradictions) > 0 {
		rows := make([][]string, 0, len(rep.Contradictions))
		for i, pair := range rep.Contradictions {
			rows = append(rows, []string{strconv.Itoa(i + 1), string(pair.A), string(pair.B)})
		}
		if err := s.writeFile("broader_than_contradictions", []string{"ID", "CUI_A", "CUI_B"}, rows); err != nil {
			return err
		}
	}

	return ctx.Err()
}

// WriteStatistics emits the run_statistics file. It is always written, even
// for a perfectly clean input.
func (s *CSVSink) WriteStatistics(_ context.Context, stats *types.Statistics) error {
	pairs := statisticsRows(stats)
	rows := make([][]string, 0, len(pairs))
	for _, pair := range pairs {
		rows = append(rows, []string{pair[0], pair[1]})
	}
	return s.writeFile("run_statistics", []string{"Metric", "Value"}, rows)
}

// Paths lists every file written so far, in write order.
func (s *CSVSink) Paths() []string {
	return append([]string(nil), s.paths...)
}

// Close is a no-op; each file is flushed and closed as it is written.
func (s *CSVSink) Close() error { return nil }

func (s *CSVSink) writeFile(name string, header []string, rows [][]string) error {
	path := filepath.Join(s.dir, fmt.Sprintf("%s_%s.csv", name, s.stamp))
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(header); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}

	s.paths = append(s.paths, path)
	s.logger.Info("wrote report file", "path", path, "rows", len(rows))
	return nil
}
