package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role is the canonical speaker role of a transcript segment.
type Role string

const (
	RoleRep      Role = "rep"
	RoleProspect Role = "prospect"
)

// Opposite returns the other party.
func (r Role) Opposite() Role {
	if r == RoleRep {
		return RoleProspect
	}
	return RoleRep
}

// TranscriptSegment is one resolved utterance. Times are in seconds; EndTime equals
// StartTime when timing is unknown.
type TranscriptSegment struct {
	Speaker   Role    `json:"speaker"`
	Text      string  `json:"text"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// RawSegment is a parsed line before speaker resolution. RawLabel is the literal
// speaker token recovered from the source, empty when none was found.
type RawSegment struct {
	RawLabel  string  `json:"raw_label"`
	Text      string  `json:"text"`
	StartTime float64 `json:"start_time"`
}

// ASRSegment is one timed chunk produced by the transcription service.
type ASRSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// ASRResult is the transcription service output.
type ASRResult struct {
	Segments []ASRSegment `json:"segments"`
	Text     string       `json:"text"`
	Duration float64      `json:"duration"`
}

// UnmarshalJSON accepts the full transcript under either "text" or "full_text".
func (r *ASRResult) UnmarshalJSON(data []byte) error {
	type plain ASRResult
	var aux struct {
		plain
		FullText string `json:"full_text"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = ASRResult(aux.plain)
	if r.Text == "" {
		r.Text = aux.FullText
	}
	return nil
}

// CallContext describes the conversation's starting state. It is supplied by the
// caller and decides which phases are scored.
type CallContext string

const (
	ContextNewLead    CallContext = "new_lead"
	ContextBookedCall CallContext = "booked_call"
	ContextWarmLead   CallContext = "warm_lead"
	ContextFollowUp   CallContext = "follow_up"
)

// ParseCallContext maps a caller supplied string onto a CallContext. An empty string
// means a new lead.
func ParseCallContext(s string) (CallContext, error) {
	switch CallContext(strings.ToLower(strings.TrimSpace(s))) {
	case "", ContextNewLead:
		return ContextNewLead, nil
	case ContextBookedCall:
		return ContextBookedCall, nil
	case ContextWarmLead:
		return ContextWarmLead, nil
	case ContextFollowUp:
		return ContextFollowUp, nil
	}
	return "", fmt.Errorf("unknown call context %q", s)
}

// CallDirection tells the resolver who placed the call.
type CallDirection string

const (
	DirectionUnknown  CallDirection = ""
	DirectionOutbound CallDirection = "outbound" // rep is the caller
	DirectionInbound  CallDirection = "inbound"  // prospect is the caller
)

// ParseCallDirection accepts outbound/inbound and the caller-role spellings
// "rep" and "prospect".
func ParseCallDirection(s string) (CallDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DirectionUnknown, nil
	case "outbound", "rep":
		return DirectionOutbound, nil
	case "inbound", "prospect":
		return DirectionInbound, nil
	}
	return "", fmt.Errorf("unknown call direction %q", s)
}

// CallRecord is one row of a batch import.
type CallRecord struct {
	CallID      string `json:"call_id"`
	RepName     string `json:"rep_name,omitempty"`
	CallContext string `json:"call_context,omitempty"`
	Direction   string `json:"direction,omitempty"`
	AudioURL    string `json:"audio_url,omitempty"`
	Transcript  string `json:"transcript,omitempty"`
}
