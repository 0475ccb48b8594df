package report

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/soundprediction/go-relcheck/pkg/types"
)

// DuckDBSink persists findings into a single DuckDB database file with one
// table per finding category plus run_statistics. Tables carry the run ID,
// so several runs can share one database.
type DuckDBSink struct {
	db *sql.DB
}

// NewDuckDBSink opens (or creates) the database at dbPath and ensures the
// schema exists.
func NewDuckDBSink(dbPath string) (*DuckDBSink, error) {
	db, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening duckdb %s: %w", dbPath, err)
	}

	sink := &DuckDBSink{db: db}
	if err := sink.createTables(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}
	return sink, nil
}

func (s *DuckDBSink) createTables(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS self_loops (
			run_id VARCHAR,
			cui VARCHAR,
			channel VARCHAR,
			relation VARCHAR,
			created_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS duplicate_edges (
			run_id VARCHAR,
			source VARCHAR,
			target VARCHAR,
			channel VARCHAR,
			occurrences INTEGER,
			created_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS hierarchy_cycles (
			run_id VARCHAR,
			cycle_id INTEGER,
			cycle_path VARCHAR,
			length INTEGER,
			created_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS broader_contradictions (
			run_id VARCHAR,
			cui_a VARCHAR,
			cui_b VARCHAR,
			created_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS run_statistics (
			run_id VARCHAR PRIMARY KEY,
			mode VARCHAR,
			lines_read BIGINT,
			lines_malformed BIGINT,
			lines_irrelevant BIGINT,
			lines_skipped BIGINT,
			hierarchy_edges BIGINT,
			broader_than_edges BIGINT,
			hierarchy_distinct_edges BIGINT,
			broader_than_distinct_edges BIGINT,
			hierarchy_nodes BIGINT,
			broader_than_nodes BIGINT,
			relation_kinds_seen INTEGER,
			self_loop_count INTEGER,
			duplicate_edge_count INTEGER,
			cycle_count INTEGER,
			contradiction_count INTEGER,
			cycles_partial BOOLEAN,
			partial_components INTEGER,
			parse_seconds DOUBLE,
			cycle_detection_seconds DOUBLE,
			contradiction_detection_seconds DOUBLE,
			write_seconds DOUBLE,
			total_seconds DOUBLE,
			created_at TIMESTAMP
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// WriteFindings batch-inserts the four finding tables inside one transaction
// per table.
func (s *DuckDBSink) WriteFindings(ctx context.Context, rep *Report) error {
	now := time.Now()
	runID := rep.Stats.RunID

	if err := s.writeSelfLoops(ctx, runID, rep.SelfLoops, now); err != nil {
		return err
	}
	if err := s.writeDuplicates(ctx, runID, rep.Duplicates, now); err != nil {
		return err
	}
	if err := s.writeCycles(ctx, runID, rep.Cycles, now); err != nil {
		return err
	}
	return s.writeContradictions(ctx, runID, rep.Contradictions, now)
}

func (s *DuckDBSink) writeSelfLoops(ctx context.Context, runID string, loops []types.SelfLoop, now time.Time) error {
	if len(loops) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO self_loops (run_id, cui, channel, relation, created_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing self_loops insert: %w", err)
	}
	defer stmt.Close()

	for _, loop := range loops {
		if _, err := stmt.ExecContext(ctx, runID, string(loop.CUI), string(loop.Channel), string(loop.Code), now); err != nil {
			return fmt.Errorf("inserting self loop %s: %w", loop.CUI, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing self_loops: %w", err)
	}
	return nil
}

func (s *DuckDBSink) writeDuplicates(ctx context.Context, runID string, dups []types.DuplicateEdge, now time.Time) error {
	if len(dups) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO duplicate_edges (run_id, source, target, channel, occurrences, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing duplicate_edges insert: %w", err)
	}
	defer stmt.Close()

	for _, dup := range dups {
		if _, err := stmt.ExecContext(ctx, runID, string(dup.Source), string(dup.Target), string(dup.Channel), dup.Occurrences, now); err != nil {
			return fmt.Errorf("inserting duplicate edge %s->%s: %w", dup.Source, dup.Target, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing duplicate_edges: %w", err)
	}
	return nil
}

func (s *DuckDBSink) writeCycles(ctx context.Context, runID string, cycles []types.Cycle, now time.Time) error {
	if len(cycles) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO hierarchy_cycles (run_id, cycle_id, cycle_path, length, created_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing hierarchy_cycles insert: %w", err)
	}
	defer stmt.Close()

	for i, cycle := range cycles {
		if _, err := stmt.ExecContext(ctx, runID, i+1, cycle.String(), cycle.Length(), now); err != nil {
			return fmt.Errorf("inserting cycle %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing hierarchy_cycles: %w", err)
	}
	return nil
}

func (s *DuckDBSink) writeContradictions(ctx context.Context, runID string, pairs []types.Contradiction, now time.Time) error {
	if len(pairs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO broader_contradictions (run_id, cui_a, cui_b, created_at)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing broader_contradictions insert: %w", err)
	}
	defer stmt.Close()

	for _, pair := range pairs {
		if _, err := stmt.ExecContext(ctx, runID, string(pair.A), string(pair.B), now); err != nil {
			return fmt.Errorf("inserting contradiction %s/%s: %w", pair.A, pair.B, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing broader_contradictions: %w", err)
	}
	return nil
}

// WriteStatistics inserts the single statistics row for this run.
func (s *DuckDBSink) WriteStatistics(ctx context.Context, stats *types.Statistics) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO run_statistics (
			run_id, mode, lines_read, lines_malformed, lines_irrelevant, lines_skipped,
			hierarchy_edges, broader_than_edges, hierarchy_distinct_edges,
			broader_than_distinct_edges, hierarchy_nodes, broader_than_nodes,
			relation_kinds_seen, self_loop_count, duplicate_edge_count, cycle_count,
			contradiction_count, cycles_partial, partial_components,
			parse_seconds, cycle_detection_seconds, contradiction_detection_seconds,
			write_seconds, total_seconds, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		stats.RunID,
		string(stats.Mode),
		stats.LinesRead,
		stats.LinesMalformed,
		stats.LinesIrrelevant,
		stats.LinesSkipped,
		stats.HierarchyEdges,
		stats.BroaderEdges,
		stats.HierarchyDistinct,
		stats.BroaderDistinct,
		stats.HierarchyNodes,
		stats.BroaderNodes,
		stats.RelationKindsSeen,
		stats.SelfLoopCount,
		stats.DuplicateCount,
		stats.CycleCount,
		stats.ContradictionCount,
		stats.CyclesPartial,
		stats.PartialComponents,
		stats.Durations.Parse.Seconds(),
		stats.Durations.Cycles.Seconds(),
		stats.Durations.Contradictions.Seconds(),
		stats.Durations.Write.Seconds(),
		stats.Durations.Total.Seconds(),
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("inserting run statistics: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *DuckDBSink) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
