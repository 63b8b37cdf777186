// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import "fmt"

// Stage is a session's position in the four-step dialogue.
type Stage int

// Stages in dialogue order. A session only ever moves forward through
// them, except that malformed details keep it at StageAwaitingDetails.
const (
	StageAwaitingDetails Stage = iota
	StageAwaitingAnswer1
	StageAwaitingAnswer2
	StageAwaitingAnswer3
	StageCompleted
)

var stageLabels = [...]string{
	StageAwaitingDetails: "AWAITING_USER_DETAILS",
	StageAwaitingAnswer1: "AWAITING_ANSWER_1",
	StageAwaitingAnswer2: "AWAITING_ANSWER_2",
	StageAwaitingAnswer3: "AWAITING_ANSWER_3",
	StageCompleted:       "COMPLETED",
}

// String returns the stage label, e.g. "AWAITING_ANSWER_2".
func (s Stage) String() string {
	if s.Valid() {
		return stageLabels[s]
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// Valid reports whether s is one of the declared stages.
func (s Stage) Valid() bool {
	return s >= StageAwaitingDetails && s <= StageCompleted
}

// MarshalText encodes the stage as its label.
func (s Stage) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStage, int(s))
	}
	return []byte(stageLabels[s]), nil
}

// UnmarshalText decodes a stage label.
func (s *Stage) UnmarshalText(b []byte) error {
	for i, label := range stageLabels {
		if label == string(b) {
			*s = Stage(i)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownStage, b)
}
