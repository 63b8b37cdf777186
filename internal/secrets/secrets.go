// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads provider API keys from a directory of plain-text
// files. Each file is one secret: the filename is the key name and the
// trimmed contents are the value.
//
// Recognized key files: openai-api-key, anthropic-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/essay-brainstormer/pkg/types"
)

// Key file names per provider.
const (
	OpenAIKey    = "openai-api-key"
	AnthropicKey = "anthropic-api-key"
)

// Secrets maps key file names to their values.
type Secrets map[string]string

// Load reads all files in dir. A missing directory is not an error and
// yields an empty set. Unreadable files are logged and skipped.
func Load(dir string, log *zap.Logger) (Secrets, error) {
	if log == nil {
		log = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Secrets{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(Secrets)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}
	return secrets, nil
}

// APIKey returns the stored key for provider, or "" if none.
func (s Secrets) APIKey(provider types.Provider) string {
	switch types.Provider(strings.ToLower(string(provider))) {
	case types.ProviderOpenAI, "":
		return s[OpenAIKey]
	case types.ProviderAnthropic:
		return s[AnthropicKey]
	}
	return ""
}
