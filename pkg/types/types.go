package types

import (
	"fmt"
	"strings"
	"time"
)

// CUI is a concept unique identifier, the opaque string key under which
// concepts appear in the relation table. CUIs compare lexicographically.
type CUI string

// RelationCode is the relation label carried by a raw relation row. Only the
// four codes below participate in checking; every other label is counted and
// skipped.
type RelationCode string

const (
	// RelationCHD states that the target concept is a child of the source.
	RelationCHD RelationCode = "CHD"
	// RelationPAR states that the target concept is a parent of the source.
	RelationPAR RelationCode = "PAR"
	// RelationRB states that the source concept is broader than the target.
	RelationRB RelationCode = "RB"
	// RelationRN states that the source concept is narrower than the target.
	RelationRN RelationCode = "RN"
)

// Channel names the semantic interpretation an edge was normalized under.
type Channel string

const (
	// ChannelHierarchy holds parent-to-child edges derived from CHD and PAR rows.
	ChannelHierarchy Channel = "hierarchy"
	// ChannelBroader holds broader-to-narrower edges derived from RB and RN rows.
	ChannelBroader Channel = "broader_than"
)

// CheckMode selects which detectors a run executes. Graphs for both channels
// are always built, so self-loop and duplicate findings do not depend on the
// mode.
type CheckMode string

const (
	// ModeParentChild runs cycle detection on the hierarchy channel.
	ModeParentChild CheckMode = "parent-child"
	// ModeBroaderThan runs contradiction detection on the broader-than channel.
	ModeBroaderThan CheckMode = "broader-than"
	// ModeBoth runs both detectors.
	ModeBoth CheckMode = "both"
)

// CyclesEnabled reports whether the mode runs hierarchy cycle detection.
func (m CheckMode) CyclesEnabled() bool {
	return m == ModeParentChild || m == ModeBoth
}

// ContradictionsEnabled reports whether the mode runs broader-than
// contradiction detection.
func (m CheckMode) ContradictionsEnabled() bool {
	return m == ModeBroaderThan || m == ModeBoth
}

// ParseCheckMode maps a flag or config string onto a CheckMode.
func ParseCheckMode(s string) (CheckMode, error) {
	switch m := CheckMode(strings.TrimSpace(s)); m {
	case ModeParentChild, ModeBroaderThan, ModeBoth:
		return m, nil
	default:
		return "", fmt.Errorf("unknown check mode %q (want parent-child, broader-than or both)", s)
	}
}

// RawRelation is one relevant row of the relation table before normalization.
type RawRelation struct {
	Source CUI          `json:"source"`
	Target CUI          `json:"target"`
	Code   RelationCode `json:"code"`
}

// Edge is a canonical directed link between two concepts. Hierarchy edges
// point parent to child, broader-than edges point broader to narrower.
type Edge struct {
	Source  CUI     `json:"source"`
	Target  CUI     `json:"target"`
	Channel Channel `json:"channel"`
}

// SelfLoop reports a concept related to itself. There is one finding per
// concept and channel; repeated assertions fold into duplicate multiplicity.
type SelfLoop struct {
	CUI     CUI          `json:"cui"`
	Channel Channel      `json:"channel"`
	Code    RelationCode `json:"relation_code"`
}

// DuplicateEdge reports a directed link asserted more than once in a channel.
// Occurrences is the total assertion count, always at least 2.
type DuplicateEdge struct {
	Source      CUI     `json:"source"`
	Target      CUI     `json:"target"`
	Channel     Channel `json:"channel"`
	Occurrences int     `json:"occurrences"`
}

// Cycle reports an elementary cycle in the hierarchy channel. Path lists the
// member concepts starting from the lexicographically smallest one and does
// not repeat the closing vertex. Paths are always two or more concepts long;
// single-concept loops are reported as SelfLoop findings instead.
type Cycle struct {
	Path []CUI `json:"path"`
}

// Length returns the number of concepts on the cycle.
func (c Cycle) Length() int { return len(c.Path) }

// String renders the cycle as "A -> B -> C".
func (c Cycle) String() string {
	parts := make([]string, len(c.Path))
	for i, cui := range c.Path {
		parts[i] = string(cui)
	}
	return strings.Join(parts, " -> ")
}

// Contradiction reports a pair of concepts that each claim to be broader than
// the other. A is lexicographically smaller than B.
type Contradiction struct {
	A CUI `json:"cui_a"`
	B CUI `json:"cui_b"`
}

// PhaseDurations records wall-clock time spent in each run phase. Write covers
// emitting the finding tables and is filled in by the report writer; Total is
// the sum of the other phases.
type PhaseDurations struct {
	Parse          time.Duration `json:"parse"`
	Cycles         time.Duration `json:"cycles"`
	Contradictions time.Duration `json:"contradictions"`
	Write          time.Duration `json:"write"`
	Total          time.Duration `json:"total"`
}

// Statistics summarizes one audit run. The line counters satisfy
// LinesRead == LinesMalformed + LinesIrrelevant + HierarchyEdges + BroaderEdges,
// where the edge counters are multiset counts taken before deduplication.
type Statistics struct {
	RunID             string    `json:"run_id"`
	Mode              CheckMode `json:"mode"`
	LinesRead         int64     `json:"lines_read"`
	LinesMalformed    int64     `json:"lines_malformed"`
	LinesIrrelevant   int64     `json:"lines_irrelevant"`
	LinesSkipped      int64     `json:"lines_skipped"`
	HierarchyEdges    int64     `json:"hierarchy_edges"`
	BroaderEdges      int64     `json:"broader_than_edges"`
	HierarchyDistinct int64     `json:"hierarchy_distinct_edges"`
	BroaderDistinct   int64     `json:"broader_than_distinct_edges"`
	HierarchyNodes    int64     `json:"hierarchy_nodes"`
	BroaderNodes      int64     `json:"broader_than_nodes"`
	RelationKindsSeen int       `json:"relation_kinds_seen"`

	SelfLoopCount      int `json:"self_loop_count"`
	DuplicateCount     int `json:"duplicate_edge_count"`
	CycleCount         int `json:"cycle_count"`
	ContradictionCount int `json:"contradiction_count"`

	// CyclesPartial is set when at least one strongly connected component hit
	// the enumeration budget before listing all of its cycles.
	CyclesPartial     bool `json:"cycles_partial"`
	PartialComponents int  `json:"partial_components"`

	Durations PhaseDurations `json:"durations"`
}
