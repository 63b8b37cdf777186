// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// UserProfile identifies the student a brainstorming session is for. It is
// captured once when the session starts and never changes afterwards.
type UserProfile struct {
	// Name is the student's name.
	Name string `json:"name" yaml:"name"`

	// EducationStream is the student's general field (e.g. STEM, Humanities, Arts).
	EducationStream string `json:"stream" yaml:"stream"`

	// Major is the student's specific major. Optional.
	Major string `json:"major,omitempty" yaml:"major,omitempty"`

	// CollegeName is the college the student is applying to.
	CollegeName string `json:"college" yaml:"college"`
}

// Turn records one request/response exchange of a session.
type Turn struct {
	// SessionID identifies the session the turn belongs to.
	SessionID string `json:"session_id" yaml:"session_id"`

	// Stage is the stage label the session was in when the input arrived.
	Stage string `json:"stage" yaml:"stage"`

	// Input is the user's message. For a session start it is the profile
	// rendered as a comma-separated line.
	Input string `json:"input" yaml:"input"`

	// Output is the text returned to the user.
	Output string `json:"output" yaml:"output"`

	// Profile is set on the turn that started the session.
	Profile *UserProfile `json:"profile,omitempty" yaml:"profile,omitempty"`

	// At is when the turn completed.
	At time.Time `json:"at" yaml:"at"`
}
