// Package mrrel reads concept relation rows from pipe-delimited flat files
// and normalizes them into canonical directed edges.
package mrrel

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/soundprediction/go-relcheck/pkg/types"
)

// ErrInvalidLayout is returned when a layout cannot address a row.
var ErrInvalidLayout = errors.New("invalid relation layout")

// maxLineBytes bounds a single row. Distribution files occasionally carry
// very long attribute columns, so the cap is generous.
const maxLineBytes = 4 * 1024 * 1024

// Layout describes where a relation row keeps its fields. Positions are
// zero-based column indexes into the delimited row.
type Layout struct {
	Delimiter   rune
	SourceCol   int
	TargetCol   int
	RelationCol int
}

// DefaultLayout matches the compact export format: pipe-delimited with the
// source CUI in column 0, the target CUI in column 1 and the relation code
// in column 3.
func DefaultLayout() Layout {
	return Layout{Delimiter: '|', SourceCol: 0, TargetCol: 1, RelationCol: 3}
}

// Validate checks that the layout can address a row.
func (l Layout) Validate() error {
	if l.Delimiter == 0 {
		return fmt.Errorf("%w: delimiter is unset", ErrInvalidLayout)
	}
	if l.SourceCol < 0 || l.TargetCol < 0 || l.RelationCol < 0 {
		return fmt.Errorf("%w: column positions must be non-negative", ErrInvalidLayout)
	}
	if l.SourceCol == l.TargetCol || l.SourceCol == l.RelationCol || l.TargetCol == l.RelationCol {
		return fmt.Errorf("%w: column positions must be distinct", ErrInvalidLayout)
	}
	return nil
}

// minFields is the field count a row needs before the layout can address it.
func (l Layout) minFields() int {
	n := l.SourceCol
	if l.TargetCol > n {
		n = l.TargetCol
	}
	if l.RelationCol > n {
		n = l.RelationCol
	}
	return n + 1
}

// Reader streams relevant relation rows off a flat file in a single
// order-preserving pass. Rows that are too short for the layout are counted
// as malformed; rows whose relation code is outside the checked four are
// counted as irrelevant. Both are skipped. Reader is not safe for concurrent
// use.
type Reader struct {
	scanner   *bufio.Scanner
	layout    Layout
	delimiter string
	minFields int

	linesRead       int64
	linesMalformed  int64
	linesIrrelevant int64
	kinds           map[types.RelationCode]int64
}

// NewReader returns a Reader over r using the given layout.
func NewReader(r io.Reader, layout Layout) (*Reader, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &Reader{
		scanner:   scanner,
		layout:    layout,
		delimiter: string(layout.Delimiter),
		minFields: layout.minFields(),
		kinds:     make(map[types.RelationCode]int64),
	}, nil
}

// Read returns the next relevant relation row. It returns io.EOF once the
// input is exhausted.
func (r *Reader) Read() (types.RawRelation, error) {
	for r.scanner.Scan() {
		r.linesRead++
		fields := strings.Split(strings.TrimSpace(r.scanner.Text()), r.delimiter)
		if len(fields) < r.minFields {
			r.linesMalformed++
			continue
		}
		code := types.RelationCode(fields[r.layout.RelationCol])
		r.kinds[code]++
		switch code {
		case types.RelationCHD, types.RelationPAR, types.RelationRB, types.RelationRN:
		default:
			r.linesIrrelevant++
			continue
		}
		return types.RawRelation{
			Source: types.CUI(fields[r.layout.SourceCol]),
			Target: types.CUI(fields[r.layout.TargetCol]),
			Code:   code,
		}, nil
	}
	if err := r.scanner.Err(); err != nil {
		return types.RawRelation{}, fmt.Errorf("scanning relation file: %w", err)
	}
	return types.RawRelation{}, io.EOF
}

// Counts reports the reader's progress so far: total lines consumed, lines
// skipped as malformed and lines skipped as irrelevant.
func (r *Reader) Counts() (read, malformed, irrelevant int64) {
	return r.linesRead, r.linesMalformed, r.linesIrrelevant
}

// RelationKinds returns a copy of the relation code inventory, including
// codes outside the checked four. Malformed rows contribute nothing.
func (r *Reader) RelationKinds() map[types.RelationCode]int64 {
	kinds := make(map[types.RelationCode]int64, len(r.kinds))
	for code, n := range r.kinds {
		kinds[code] = n
	}
	return kinds
}
