package mrrel

import (
	"github.com/soundprediction/go-relcheck/pkg/types"
)

// Normalize maps a raw relation row onto its canonical directed edge. CHD and
// PAR rows land in the hierarchy channel with the edge pointing parent to
// child, RB and RN rows land in the broader-than channel with the edge
// pointing broader to narrower. PAR and RN invert the row, so CHD(a,b) and
// PAR(b,a) produce the identical edge, as do RB(a,b) and RN(b,a). Rows whose
// code is outside the four return ok == false.
func Normalize(rel types.RawRelation) (types.Edge, bool) {
	switch rel.Code {
	case types.RelationCHD:
		return types.Edge{Source: rel.Source, Target: rel.Target, Channel: types.ChannelHierarchy}, true
	case types.RelationPAR:
		return types.Edge{Source: rel.Target, Target: rel.Source, Channel: types.ChannelHierarchy}, true
	case types.RelationRB:
		return types.Edge{Source: rel.Source, Target: rel.Target, Channel: types.ChannelBroader}, true
	case types.RelationRN:
		return types.Edge{Source: rel.Target, Target: rel.Source, Channel: types.ChannelBroader}, true
	default:
		return types.Edge{}, false
	}
}
