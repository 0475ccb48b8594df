package report_test

import (
	"context"
	"testing"
	"time"

	"github.com/soundprediction/go-relcheck/pkg/report"
	"github.com/soundprediction/go-relcheck/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink captures call order so the findings-before-statistics
// contract stays enforced.
type recordingSink struct {
	calls []string
	stats types.Statistics
}

func (s *recordingSink) WriteFindings(ctx context.Context, rep *report.Report) error {
	s.calls = append(s.calls, "findings")
	return nil
}

func (s *recordingSink) WriteStatistics(ctx context.Context, stats *types.Statistics) error {
	s.calls = append(s.calls, "statistics")
	s.stats = *stats
	return nil
}

func (s *recordingSink) Close() error {
	s.calls = append(s.calls, "close")
	return nil
}

func TestWriteOrdersSinkCallsAndRecordsDurations(t *testing.T) {
	rep := &report.Report{
		Stats: types.Statistics{
			RunID: "run-3",
			Durations: types.PhaseDurations{
				Parse:          100 * time.Millisecond,
				Cycles:         50 * time.Millisecond,
				Contradictions: 25 * time.Millisecond,
			},
		},
	}

	first := &recordingSink{}
	second := &recordingSink{}
	require.NoError(t, report.Write(context.Background(), rep, first, second))

	assert.Equal(t, []string{"findings", "statistics"}, first.calls)
	assert.Equal(t, []string{"findings", "statistics"}, second.calls)

	d := rep.Stats.Durations
	assert.GreaterOrEqual(t, d.Write, time.Duration(0))
	assert.Equal(t, d.Parse+d.Cycles+d.Contradictions+d.Write, d.Total)

	// The statistics handed to sinks already carry the final durations.
	assert.Equal(t, d.Total, first.stats.Durations.Total)
}

func TestTimestampFormat(t *testing.T) {
	ts := report.Timestamp(time.Date(2023, 12, 1, 9, 5, 0, 0, time.UTC))
	assert.Equal(t, "20231201_090500", ts)
}
