// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package generate talks to the text generation service: given a rendered
// instruction it returns the generated text or an error. Backends never
// substitute text on failure; an empty completion is ErrEmptyContent.
package generate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/essay-brainstormer/pkg/types"
)

// Defaults applied by New when the config leaves a field unset.
const (
	DefaultModel     = "gpt-4o-2024-08-06"
	DefaultMaxTokens = 1025
)

// ErrEmptyContent is returned when the backend answers without any text.
var ErrEmptyContent = errors.New("generation returned empty content")

// Usage reports token accounting when the backend provides it.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Total returns the combined token count.
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// Backend abstracts a provider API so tests can supply a mock.
type Backend interface {
	Complete(ctx context.Context, instruction string) (string, Usage, error)
}

// Client wraps a Backend with logging. It satisfies session.Generator.
type Client struct {
	backend Backend
	model   string
	log     *zap.Logger
}

// NewClient wraps backend. A nil logger discards output.
func NewClient(backend Backend, model string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{backend: backend, model: model, log: log}
}

// New builds a Client for the provider named in cfg.
func New(cfg types.AIConfig, log *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("no API key configured for provider %q", providerOrDefault(cfg.Provider))
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	httpClient := &http.Client{}

	var backend Backend
	switch providerOrDefault(cfg.Provider) {
	case types.ProviderOpenAI:
		if cfg.Model == "" {
			cfg.Model = DefaultModel
		}
		backend = &OpenAIBackend{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			BaseURL:     cfg.BaseURL,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			Client:      httpClient,
		}
	case types.ProviderAnthropic:
		if cfg.Model == "" {
			return nil, fmt.Errorf("provider %q requires a model", cfg.Provider)
		}
		backend = &ClaudeBackend{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			BaseURL:     cfg.BaseURL,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			Client:      httpClient,
		}
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}

	return NewClient(backend, cfg.Model, log), nil
}

func providerOrDefault(p types.Provider) types.Provider {
	if p == "" {
		return types.ProviderOpenAI
	}
	return types.Provider(strings.ToLower(string(p)))
}

// Generate sends instruction to the backend and returns the generated
// text. Whitespace-only output is reported as ErrEmptyContent.
func (c *Client) Generate(ctx context.Context, instruction string) (string, error) {
	start := time.Now()
	text, usage, err := c.backend.Complete(ctx, instruction)
	elapsed := time.Since(start)
	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrEmptyContent
	}
	if err != nil {
		c.log.Error("generation failed",
			zap.String("model", c.model),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return "", err
	}

	c.log.Info("generation complete",
		zap.String("model", c.model),
		zap.Duration("elapsed", elapsed),
		zap.Int("prompt_chars", len(instruction)),
		zap.Int("total_tokens", usage.Total()))
	return strings.TrimSpace(text), nil
}
