package speaker

import (
	"closer-insights-go/internal/types"
)

const (
	contentWeight = 10
	labelWeight   = 100
)

// LabelScore is the accumulated evidence for one raw label.
type LabelScore struct {
	Label string `json:"label"`
	Score int    `json:"score"`
}

// Resolver collapses raw speaker labels onto the two canonical roles.
type Resolver struct {
	patterns *Patterns
}

func NewResolver(p *Patterns) *Resolver {
	if p == nil {
		p = Default()
	}
	return &Resolver{patterns: p}
}

// Patterns exposes the tables the resolver was built with.
func (r *Resolver) Patterns() *Patterns {
	return r.patterns
}

// Resolve maps every distinct non-empty label to a role. The single highest scoring
// label is the rep and everything else is the prospect. Ties go to the label seen
// first. No labels yields an empty map.
func (r *Resolver) Resolve(raw []types.RawSegment) map[string]types.Role {
	return r.ResolveDirected(raw, types.DirectionUnknown)
}

// ResolveDirected is Resolve with the direction's extra content patterns applied.
func (r *Resolver) ResolveDirected(raw []types.RawSegment, dir types.CallDirection) map[string]types.Role {
	scores := r.Scores(raw, dir)
	roles := make(map[string]types.Role, len(scores))
	if len(scores) == 0 {
		return roles
	}

	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i].Score > scores[best].Score {
			best = i
		}
	}
	for i, s := range scores {
		if i == best {
			roles[s.Label] = types.RoleRep
		} else {
			roles[s.Label] = types.RoleProspect
		}
	}
	return roles
}

// Scores returns per-label scores in first-seen order.
func (r *Resolver) Scores(raw []types.RawSegment, dir types.CallDirection) []LabelScore {
	index := map[string]int{}
	var scores []LabelScore
	for _, seg := range raw {
		if seg.RawLabel == "" {
			continue
		}
		i, ok := index[seg.RawLabel]
		if !ok {
			i = len(scores)
			index[seg.RawLabel] = i
			scores = append(scores, LabelScore{Label: seg.RawLabel})
		}
		scores[i].Score += r.patterns.ContentScore(seg.Text, dir)
	}
	for i := range scores {
		scores[i].Score += r.patterns.LabelBias(scores[i].Label)
	}
	return scores
}

// Apply produces final segments. Labels missing from roles fall back to positional
// alternation: even indexes are the rep. End times are taken from the next
// segment's start when it is later, otherwise they equal the start.
func Apply(raw []types.RawSegment, roles map[string]types.Role) []types.TranscriptSegment {
	out := make([]types.TranscriptSegment, 0, len(raw))
	for i, seg := range raw {
		role, ok := roles[seg.RawLabel]
		if !ok {
			role = types.RoleRep
			if i%2 == 1 {
				role = types.RoleProspect
			}
		}
		end := seg.StartTime
		if i+1 < len(raw) && raw[i+1].StartTime > seg.StartTime {
			end = raw[i+1].StartTime
		}
		out = append(out, types.TranscriptSegment{
			Speaker:   role,
			Text:      seg.Text,
			StartTime: seg.StartTime,
			EndTime:   end,
		})
	}
	return out
}
