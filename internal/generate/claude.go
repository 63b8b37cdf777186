// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/essay-brainstormer/internal/httputil"
)

// claudeBaseURL is the public Anthropic API root.
const claudeBaseURL = "https://api.anthropic.com"

// ClaudeBackend calls the Anthropic Messages API.
type ClaudeBackend struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	Client      *http.Client
}

// claudeRequest is the request body for the Messages API.
type claudeRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
	Messages    []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// claudeResponse is the response body from the Messages API.
type claudeResponse struct {
	Content []claudeContent `json:"content"`
	Usage   struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// claudeContent is a content block in the response.
type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Complete requests one message for instruction and joins its text blocks.
func (c *ClaudeBackend) Complete(ctx context.Context, instruction string) (string, Usage, error) {
	reqBody := claudeRequest{
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
		Messages:    []claudeMessage{{Role: "user", Content: instruction}},
	}
	headers := map[string]string{
		"x-api-key":         c.APIKey,
		"anthropic-version": "2023-06-01",
	}

	var resp claudeResponse
	if err := httputil.PostJSON(ctx, c.Client, c.url(), headers, reqBody, &resp); err != nil {
		return "", Usage{}, fmt.Errorf("calling Claude API: %w", err)
	}

	usage := Usage{InputTokens: resp.Usage.InputTokens, OutputTokens: resp.Usage.OutputTokens}
	var parts []string
	for _, block := range resp.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return "", usage, ErrEmptyContent
	}
	return strings.Join(parts, ""), usage, nil
}

func (c *ClaudeBackend) url() string {
	base := strings.TrimRight(c.BaseURL, "/")
	if base == "" {
		base = claudeBaseURL
	}
	return base + "/v1/messages"
}
