// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/essay-brainstormer/internal/httputil"
)

// openAIBaseURL is the public OpenAI API root.
const openAIBaseURL = "https://api.openai.com/v1"

// OpenAIBackend calls the OpenAI chat completions API with the instruction
// as a single user message.
type OpenAIBackend struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	Client      *http.Client
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
	N           int             `json:"n"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Complete requests one completion for instruction.
func (o *OpenAIBackend) Complete(ctx context.Context, instruction string) (string, Usage, error) {
	reqBody := openAIRequest{
		Model:       o.Model,
		Messages:    []openAIMessage{{Role: "user", Content: instruction}},
		MaxTokens:   o.MaxTokens,
		Temperature: o.Temperature,
		N:           1,
	}
	headers := map[string]string{"Authorization": "Bearer " + o.APIKey}

	var resp openAIResponse
	if err := httputil.PostJSON(ctx, o.Client, o.url(), headers, reqBody, &resp); err != nil {
		return "", Usage{}, fmt.Errorf("calling OpenAI API: %w", err)
	}

	usage := Usage{InputTokens: resp.Usage.PromptTokens, OutputTokens: resp.Usage.CompletionTokens}
	if len(resp.Choices) == 0 {
		return "", usage, ErrEmptyContent
	}
	return resp.Choices[0].Message.Content, usage, nil
}

func (o *OpenAIBackend) url() string {
	base := strings.TrimRight(o.BaseURL, "/")
	if base == "" {
		base = openAIBaseURL
	}
	return strings.TrimSuffix(base, "/chat/completions") + "/chat/completions"
}
