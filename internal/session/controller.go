// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/essay-brainstormer/internal/prompt"
	"github.com/pdiddy/essay-brainstormer/pkg/types"
)

// DefaultTimeout bounds a generation call when Options.Timeout is unset.
const DefaultTimeout = 60 * time.Second

// Options configures a Controller or Manager.
type Options struct {
	// Timeout bounds each generation call. Expiry is a GenerationError.
	Timeout time.Duration

	// Logger receives stage transitions. Nil discards them.
	Logger *zap.Logger

	// Now returns the current time. Nil uses time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Controller drives one session through the dialogue. It is not safe for
// concurrent use; Manager serializes calls per session id.
type Controller struct {
	gen  Generator
	opts Options
	log  *zap.Logger
	sess *Session
}

// NewController returns a controller holding a fresh session with the given
// id at StageAwaitingDetails.
func NewController(id string, gen Generator, opts Options) *Controller {
	opts = opts.withDefaults()
	c := &Controller{
		gen:  gen,
		opts: opts,
		log:  opts.Logger.With(zap.String("session_id", id)),
	}
	c.sess = c.fresh(id)
	return c
}

// fresh returns a new, empty session. Restarts always go through here so an
// old session value is never reused.
func (c *Controller) fresh(id string) *Session {
	now := c.opts.Now()
	return &Session{
		ID:        id,
		Stage:     StageAwaitingDetails,
		Questions: []string{},
		Answers:   []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Session returns a snapshot of the current session.
func (c *Controller) Session() Session {
	return c.sess.Snapshot()
}

// Stage returns the current stage.
func (c *Controller) Stage() Stage {
	return c.sess.Stage
}

// Begin replaces the session with a fresh one for profile and returns the
// first question. The profile is stored as given. If generation fails the
// current session, including any progress, is kept unchanged.
func (c *Controller) Begin(ctx context.Context, profile types.UserProfile) (Reply, error) {
	instruction := prompt.Snapshot(profile.Name, profile.EducationStream, profile.Major)
	question, err := c.generate(ctx, StageAwaitingDetails, instruction)
	if err != nil {
		return Reply{}, err
	}

	next := c.fresh(c.sess.ID)
	next.Profile = &profile
	next.Questions = append(next.Questions, question)
	c.sess = next
	c.transition(StageAwaitingAnswer1)
	c.log.Info("session started", zap.String("name", profile.Name), zap.String("college", profile.CollegeName))
	return Reply{Text: question}, nil
}

// Advance processes one user message according to the current stage.
//
// Malformed details and input after completion are not errors: they return
// a fixed message. A GenerationError leaves the session exactly as it was,
// so the same input can be sent again.
func (c *Controller) Advance(ctx context.Context, input string) (Reply, error) {
	c.log.Debug("advance", zap.Stringer("stage", c.sess.Stage))

	switch c.sess.Stage {
	case StageAwaitingDetails:
		profile, err := ParseDetails(input)
		if err != nil {
			c.log.Info("malformed details, resetting")
			c.sess = c.fresh(c.sess.ID)
			return Reply{Text: MalformedDetailsMessage}, nil
		}
		return c.Begin(ctx, profile)

	case StageAwaitingAnswer1:
		return c.answer(ctx, input, StageAwaitingAnswer2, func(p *types.UserProfile, answers []string) string {
			return prompt.Lesson(p.Name, p.EducationStream, answers[0])
		})

	case StageAwaitingAnswer2:
		return c.answer(ctx, input, StageAwaitingAnswer3, func(p *types.UserProfile, answers []string) string {
			return prompt.Blueprint(p.Name, p.CollegeName, answers[1])
		})

	case StageAwaitingAnswer3:
		return c.answer(ctx, input, StageCompleted, func(_ *types.UserProfile, answers []string) string {
			return prompt.Outline(prompt.EssayPrompt, answers[0], answers[1], answers[2])
		})

	case StageCompleted:
		return Reply{Text: CompletedMessage, Complete: true}, nil
	}

	return Reply{}, fmt.Errorf("%w: %s", ErrUnknownStage, c.sess.Stage)
}

// answer records input as the next answer, generates the instruction built
// by render, and moves to next. Nothing is committed unless generation
// succeeds.
func (c *Controller) answer(ctx context.Context, input string, next Stage, render func(*types.UserProfile, []string) string) (Reply, error) {
	s := c.sess
	answers := append(slices.Clone(s.Answers), input)

	text, err := c.generate(ctx, s.Stage, render(s.Profile, answers))
	if err != nil {
		return Reply{}, err
	}

	s.Answers = answers
	if next == StageCompleted {
		s.Outline = text
		c.transition(next)
		return Reply{Text: OutlineIntro + text, Complete: true}, nil
	}
	s.Questions = append(s.Questions, text)
	c.transition(next)
	return Reply{Text: text}, nil
}

func (c *Controller) transition(next Stage) {
	c.log.Info("stage transition", zap.Stringer("from", c.sess.Stage), zap.Stringer("to", next))
	c.sess.Stage = next
	c.sess.UpdatedAt = c.opts.Now()
}

type generated struct {
	text string
	err  error
}

// generate calls the generator under the configured timeout. The call runs
// on its own goroutine so a generator that ignores ctx still cannot hold the
// session past the deadline.
func (c *Controller) generate(ctx context.Context, stage Stage, instruction string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	done := make(chan generated, 1)
	go func() {
		text, err := c.gen.Generate(ctx, instruction)
		done <- generated{text, err}
	}()

	var res generated
	select {
	case res = <-done:
	case <-ctx.Done():
		res.err = ctx.Err()
	}

	if res.err == nil && isBlank(res.text) {
		res.err = errEmptyText
	}
	if res.err != nil {
		c.log.Warn("generation failed", zap.Stringer("stage", stage), zap.Error(res.err))
		return "", &GenerationError{Stage: stage, Err: res.err}
	}
	return res.text, nil
}
