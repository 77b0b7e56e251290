package flow

import "encoding/json"

// SchemaVersion tags the metadata blob so a decode of a shape written by an
// older build is treated as no prior state instead of silently defaulting
// individual fields.
const SchemaVersion = 1

type Kind string

const (
	KindTask Kind = "task"
	KindNote Kind = "note"
)

type RecordType string

const (
	RecordTicket RecordType = "ticket"
	RecordDeal   RecordType = "deal"
)

// State is the bag carried in a modal's private metadata slot. It is the
// only persistence available between two interactions on the same view.
//
// The tuple (RecordType, PipelineID, StageID, RecordID) is kept
// prefix-valid: a later field holds a value only while every field it
// depends on is set and unchanged since the value was chosen.
type State struct {
	Version         int        `json:"v"`
	Kind            Kind       `json:"kind,omitempty"`
	CorrelationID   string     `json:"correlation_id,omitempty"`
	OriginChannelID string     `json:"origin_channel_id,omitempty"`
	OriginUserID    string     `json:"origin_user_id,omitempty"`
	RecordType      RecordType `json:"record_type,omitempty"`
	PipelineID      string     `json:"pipeline_id,omitempty"`
	StageID         string     `json:"stage_id,omitempty"`
	RecordID        string     `json:"record_id,omitempty"`

	// Per-field nonces are embedded in the rendered block ids so that a
	// cleared selector is rebuilt empty instead of showing a stale pick.
	PipelineNonce int `json:"pipeline_nonce,omitempty"`
	StageNonce    int `json:"stage_nonce,omitempty"`
	RecordNonce   int `json:"record_nonce,omitempty"`
}

func NewState(kind Kind, correlationID, channelID, userID string) State {
	return State{
		Version:         SchemaVersion,
		Kind:            kind,
		CorrelationID:   correlationID,
		OriginChannelID: channelID,
		OriginUserID:    userID,
	}
}

// Encode serializes the state for the view's private metadata slot.
func Encode(s State) string {
	raw, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return string(raw)
}

// Decode recovers a state from private metadata. Absent, malformed, or
// wrong-version input yields a fresh default state; callers must tolerate
// "no prior state" as a valid condition.
func Decode(raw string) State {
	if raw == "" {
		return State{Version: SchemaVersion}
	}
	var s State
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return State{Version: SchemaVersion}
	}
	if s.Version != SchemaVersion {
		return State{Version: SchemaVersion}
	}
	return s
}

// PrefixValid reports whether the dependent-selection chain is consistent.
func (s State) PrefixValid() bool {
	if s.StageID != "" && s.PipelineID == "" {
		return false
	}
	if s.RecordID != "" && (s.StageID == "" || s.PipelineID == "") {
		return false
	}
	if s.PipelineID != "" && s.RecordType == "" {
		return false
	}
	return true
}

// SelectionComplete reports whether every dependent field has been chosen.
func (s State) SelectionComplete() bool {
	return s.RecordType != "" && s.PipelineID != "" && s.StageID != "" && s.RecordID != ""
}
