package domain

import "time"

// NudgeCandidate is a displayable nudge built per scan and discarded once
// resolved. Scripted candidates carry a fixed score of 1.0; generic candidates
// carry the engine's score.
type NudgeCandidate struct {
	ID       string    `json:"id"`
	Type     NudgeType `json:"type"`
	Tag      string    `json:"tag"`
	Title    string    `json:"title"`
	Reason   string    `json:"reason"`
	Products []Product `json:"products"`
	Savings  float64   `json:"savings"`
	Score    float64   `json:"score"` // in [0,1]
}

// NudgeSource distinguishes how a candidate was produced
type NudgeSource string

const (
	SourceScripted NudgeSource = "scripted"
	SourceGeneric  NudgeSource = "generic"
)

// NudgeRecord is the history entry appended when a candidate is presented.
// History records offers shown, not offers accepted.
type NudgeRecord struct {
	CandidateID string      `json:"candidateId"`
	Type        NudgeType   `json:"type"`
	Tag         string      `json:"tag"`
	Title       string      `json:"title"`
	Reason      string      `json:"reason"`
	Savings     float64     `json:"savings"`
	Source      NudgeSource `json:"source"`
	PresentedAt time.Time   `json:"presentedAt"`
}
