package transcript

import (
	"strings"

	"closer-insights-go/internal/types"
)

// PauseThreshold is the silence, in seconds, after which the next ASR segment is
// attributed to the other party.
const PauseThreshold = 1.5

// FromASR converts timed ASR output into resolved segments. The first speaker is
// assumed to be the rep and the role flips whenever the gap before a segment exceeds
// PauseThreshold. Without timed segments the full text is split into sentences that
// alternate rep/prospect with unknown timing.
func FromASR(res types.ASRResult) []types.TranscriptSegment {
	if len(res.Segments) == 0 {
		return alternateSentences(res.Text)
	}

	out := make([]types.TranscriptSegment, 0, len(res.Segments))
	role := types.RoleRep
	prevEnd := -1.0
	for _, seg := range res.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		if prevEnd >= 0 && seg.Start-prevEnd > PauseThreshold {
			role = role.Opposite()
		}
		end := seg.End
		if end < seg.Start {
			end = seg.Start
		}
		out = append(out, types.TranscriptSegment{
			Speaker:   role,
			Text:      text,
			StartTime: seg.Start,
			EndTime:   end,
		})
		prevEnd = end
	}
	return out
}

func alternateSentences(text string) []types.TranscriptSegment {
	text = strings.TrimSpace(text)
	if text == "" {
		return []types.TranscriptSegment{}
	}
	sentences := splitSentences(text)
	out := make([]types.TranscriptSegment, 0, len(sentences))
	role := types.RoleRep
	for _, s := range sentences {
		out = append(out, types.TranscriptSegment{Speaker: role, Text: s})
		role = role.Opposite()
	}
	return out
}
