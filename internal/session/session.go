// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session runs the brainstorming dialogue. A Controller owns one
// Session and moves it through the four stages, asking a Generator for each
// question and the final outline. A Manager keys controllers by session id
// and serializes work per id.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/pdiddy/essay-brainstormer/pkg/types"
)

// Fixed replies that do not come from the generator.
const (
	MalformedDetailsMessage = "Sorry, I didn't understand that. Please provide your details in the format: Name, Stream, Major, College Name"
	CompletedMessage        = "Thank you! The session is complete. Please start a new session to begin again."
	OutlineIntro            = "Excellent! Here is the structured outline for your essay:\n\n"
)

var (
	// ErrGeneration matches every GenerationError.
	ErrGeneration = errors.New("could not generate response, please retry this turn")

	// ErrUnknownStage reports a stage value outside the declared set.
	ErrUnknownStage = errors.New("unknown stage")

	// ErrMalformedDetails is returned by ParseDetails.
	ErrMalformedDetails = errors.New("details must be four comma-separated fields: name, stream, major, college")

	// ErrNotFound is returned for an unknown session id.
	ErrNotFound = errors.New("session not found")
)

// GenerationError reports that the generator failed, timed out, or returned
// no text while the session was at Stage. The session is left unchanged.
type GenerationError struct {
	Stage Stage
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generating response at %s: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrGeneration) true for any GenerationError.
func (e *GenerationError) Is(target error) bool { return target == ErrGeneration }

// Generator turns a rendered instruction into generated text.
type Generator interface {
	Generate(ctx context.Context, instruction string) (string, error)
}

// Reply is the text returned to the user for one turn.
type Reply struct {
	Text     string `json:"response"`
	Complete bool   `json:"is_complete"`
}

// Session is the state of one conversation. Questions and Answers are index
// aligned: between turns len(Answers) == len(Questions) until the session
// completes, when the third answer has no following question.
type Session struct {
	ID        string             `json:"id"`
	Stage     Stage              `json:"stage"`
	Profile   *types.UserProfile `json:"profile,omitempty"`
	Questions []string           `json:"questions"`
	Answers   []string           `json:"answers"`
	Outline   string             `json:"outline,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Snapshot returns a deep copy of s.
func (s *Session) Snapshot() Session {
	cp := *s
	if s.Profile != nil {
		p := *s.Profile
		cp.Profile = &p
	}
	cp.Questions = slices.Clone(s.Questions)
	cp.Answers = slices.Clone(s.Answers)
	return cp
}

// errEmptyText is wrapped in a GenerationError when the generator returns
// only whitespace.
var errEmptyText = errors.New("empty generated text")

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
