package relcheck

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/soundprediction/go-relcheck"
	"github.com/soundprediction/go-relcheck/pkg/config"
	"github.com/soundprediction/go-relcheck/pkg/logger"
	"github.com/soundprediction/go-relcheck/pkg/mrrel"
	"github.com/soundprediction/go-relcheck/pkg/report"
	"github.com/soundprediction/go-relcheck/pkg/types"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the relation audit over an input file",
	Long: `Read a pipe-delimited relation file, build the hierarchy and broader-than
graphs, and report self-loops, duplicate rows, parent-child cycles and
broader-than contradictions.

The --check flag selects which detectors run:
  parent-child   cycles in the parent-child hierarchy only
  broader-than   mutual broader-than contradictions only
  both           everything (default)

Self-loop and duplicate findings are produced in every mode.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringP("input", "i", "", "relation file to audit (required)")
	checkCmd.Flags().StringP("output-dir", "o", "relcheck_output", "directory for report artifacts")
	checkCmd.Flags().StringP("check", "t", "both", "detectors to run (parent-child, broader-than, both)")
	checkCmd.Flags().String("format", "csv", "report format (csv, duckdb, both)")
	checkCmd.Flags().String("delimiter", "|", "input field delimiter")
	checkCmd.Flags().Int("source-col", 0, "zero-based column of the source CUI")
	checkCmd.Flags().Int("target-col", 1, "zero-based column of the target CUI")
	checkCmd.Flags().Int("relation-col", 3, "zero-based column of the relation code")
	checkCmd.Flags().Int64("cycle-budget", 0, "per-component cycle search budget (0 = default)")
	checkCmd.Flags().Int("workers", 0, "parallel cycle-search workers (0 = default)")
	checkCmd.Flags().Bool("no-progress", false, "disable the progress bar")

	checkCmd.MarkFlagRequired("input")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	overrideConfigWithFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Input.Path == "" {
		return fmt.Errorf("no input file given")
	}

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	log := logger.NewDefaultLogger(level)
	if cfg.Log.File != "" {
		teed, closer, err := logger.NewTeeLogger(os.Stderr, cfg.Log.File, level)
		if err != nil {
			return err
		}
		defer closer.Close()
		log = teed
	}

	mode, err := types.ParseCheckMode(cfg.Check.Mode)
	if err != nil {
		return err
	}

	checker, err := relcheck.NewChecker(relcheck.Options{
		Layout: mrrel.Layout{
			Delimiter:   []rune(cfg.Input.Delimiter)[0],
			SourceCol:   cfg.Input.SourceCol,
			TargetCol:   cfg.Input.TargetCol,
			RelationCol: cfg.Input.RelationCol,
		},
		Mode:        mode,
		CycleBudget: cfg.Check.CycleBudget,
		Workers:     cfg.Check.Workers,
		Logger:      log,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	file, err := os.Open(cfg.Input.Path)
	if err != nil {
		return fmt.Errorf("opening input %s: %w", cfg.Input.Path, err)
	}
	defer file.Close()

	var input io.Reader = file
	if cfg.Input.Progress {
		info, err := file.Stat()
		if err != nil {
			return fmt.Errorf("stat input %s: %w", cfg.Input.Path, err)
		}
		bar := progressbar.DefaultBytes(info.Size(), "reading relations")
		input = io.TeeReader(file, bar)
		defer bar.Finish()
	}

	rep, err := checker.Check(ctx, input)
	if err != nil {
		return err
	}

	sinks, err := openSinks(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		for _, sink := range sinks {
			sink.Close()
		}
	}()

	if err := report.Write(ctx, rep, sinks...); err != nil {
		return err
	}

	printSummary(rep)
	return nil
}

func openSinks(cfg *config.Config, log *slog.Logger) ([]report.Sink, error) {
	stamp := report.Timestamp(time.Now())
	var sinks []report.Sink

	if cfg.Output.Format == "csv" || cfg.Output.Format == "both" {
		sink, err := report.NewCSVSink(cfg.Output.Dir, stamp, log)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}
	if cfg.Output.Format == "duckdb" || cfg.Output.Format == "both" {
		if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating output directory %s: %w", cfg.Output.Dir, err)
		}
		path := filepath.Join(cfg.Output.Dir, fmt.Sprintf("relcheck_%s.duckdb", stamp))
		sink, err := report.NewDuckDBSink(path)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}
	return sinks, nil
}

func printSummary(rep *report.Report) {
	stats := rep.Stats
	fmt.Printf("\nRun %s complete in %.3fs\n", stats.RunID, stats.Durations.Total.Seconds())
	fmt.Printf("  lines read:          %d (skipped %d)\n", stats.LinesRead, stats.LinesSkipped)
	fmt.Printf("  hierarchy edges:     %d (%d distinct)\n", stats.HierarchyEdges, stats.HierarchyDistinct)
	fmt.Printf("  broader-than edges:  %d (%d distinct)\n", stats.BroaderEdges, stats.BroaderDistinct)
	fmt.Printf("  self-loops:          %d\n", stats.SelfLoopCount)
	fmt.Printf("  duplicate edges:     %d\n", stats.DuplicateCount)
	if stats.Mode.CyclesEnabled() {
		fmt.Printf("  parent-child cycles: %d", stats.CycleCount)
		if stats.CyclesPartial {
			fmt.Printf(" (partial: %d components hit the search budget)", stats.PartialComponents)
		}
		fmt.Println()
	}
	if stats.Mode.ContradictionsEnabled() {
		fmt.Printf("  contradictions:      %d\n", stats.ContradictionCount)
	}
}

func overrideConfigWithFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("input") {
		cfg.Input.Path, _ = cmd.Flags().GetString("input")
	}
	if cmd.Flags().Changed("output-dir") {
		cfg.Output.Dir, _ = cmd.Flags().GetString("output-dir")
	}
	if cmd.Flags().Changed("check") {
		cfg.Check.Mode, _ = cmd.Flags().GetString("check")
	}
	if cmd.Flags().Changed("format") {
		cfg.Output.Format, _ = cmd.Flags().GetString("format")
	}
	if cmd.Flags().Changed("delimiter") {
		cfg.Input.Delimiter, _ = cmd.Flags().GetString("delimiter")
	}
	if cmd.Flags().Changed("source-col") {
		cfg.Input.SourceCol, _ = cmd.Flags().GetInt("source-col")
	}
	if cmd.Flags().Changed("target-col") {
		cfg.Input.TargetCol, _ = cmd.Flags().GetInt("target-col")
	}
	if cmd.Flags().Changed("relation-col") {
		cfg.Input.RelationCol, _ = cmd.Flags().GetInt("relation-col")
	}
	if cmd.Flags().Changed("cycle-budget") {
		cfg.Check.CycleBudget, _ = cmd.Flags().GetInt64("cycle-budget")
	}
	if cmd.Flags().Changed("workers") {
		cfg.Check.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if noProgress, _ := cmd.Flags().GetBool("no-progress"); noProgress {
		cfg.Input.Progress = false
	}
}
