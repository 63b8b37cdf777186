// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/essay-brainstormer/internal/generate"
	"github.com/pdiddy/essay-brainstormer/internal/server"
	"github.com/pdiddy/essay-brainstormer/internal/session"
	"github.com/pdiddy/essay-brainstormer/internal/transcript"
	"github.com/pdiddy/essay-brainstormer/pkg/types"
)

// setDefaults registers every config key so env overrides and Unmarshal
// see it even without a config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.allow_origins", server.DefaultOrigins)
	v.SetDefault("server.default_session_id", server.DefaultSessionID)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("ai.provider", string(types.ProviderOpenAI))
	v.SetDefault("ai.model", generate.DefaultModel)
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.base_url", "")
	v.SetDefault("ai.max_tokens", generate.DefaultMaxTokens)
	v.SetDefault("ai.temperature", 0.0)
	v.SetDefault("ai.timeout", session.DefaultTimeout)

	v.SetDefault("session.idle_timeout", 2*time.Hour)
	v.SetDefault("session.prune_interval", 5*time.Minute)

	v.SetDefault("transcript.enabled", true)
	v.SetDefault("transcript.dir", transcript.DefaultDir)

	v.SetDefault("log.mode", "development")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.dir", "")
}

// bindEnv maps keys to ESSAY_BRAINSTORMER_* variables, e.g. ai.api_key to
// ESSAY_BRAINSTORMER_AI_API_KEY.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("ESSAY_BRAINSTORMER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

func loadConfig(v *viper.Viper) (types.Config, error) {
	var c types.Config
	if err := v.Unmarshal(&c); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return c, nil
}
