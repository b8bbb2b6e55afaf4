// Package config loads the environment-variable configuration described
// in spec.md §6, layering godotenv (.env) under viper (env binding and
// defaults) the way the teacher's cmd/server bootstraps its own config.
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the fully-resolved runtime configuration for one perform_task
// invocation.
type Config struct {
	LiteLLMModel       string
	LiteLLMTemperature float64
	LiteLLMAPIKey      string
	LiteLLMAPIBase     string

	MaxOrchTurns     int
	MaxExplorerTurns int
	MaxCoderTurns    int

	SandboxDefaultTimeout time.Duration
	SandboxMaxTimeout     time.Duration
	BashOutputLimitBytes  int
	SearchResultLimit     int

	TurnLogDir string
}

// Load reads configuration from the process environment, loading a .env
// file first (non-fatal if absent, matching the teacher's
// godotenv.Load()-best-effort pattern).
func Load() Config {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(nil)
	v.AutomaticEnv()

	v.SetDefault("LITELLM_MODEL", "anthropic/claude-sonnet-4")
	v.SetDefault("LITELLM_TEMPERATURE", 0.1)
	v.SetDefault("MAX_ORCH_TURNS", 100)
	v.SetDefault("MAX_EXPLORER_TURNS", 15)
	v.SetDefault("MAX_CODER_TURNS", 25)
	v.SetDefault("TURN_LOG_DIR", "logs/turns")

	cfg := Config{
		LiteLLMModel:       v.GetString("LITELLM_MODEL"),
		LiteLLMTemperature: v.GetFloat64("LITELLM_TEMPERATURE"),
		LiteLLMAPIKey:      os.Getenv("LITE_LLM_API_KEY"),
		LiteLLMAPIBase:     os.Getenv("LITE_LLM_API_BASE"),

		MaxOrchTurns:     v.GetInt("MAX_ORCH_TURNS"),
		MaxExplorerTurns: v.GetInt("MAX_EXPLORER_TURNS"),
		MaxCoderTurns:    v.GetInt("MAX_CODER_TURNS"),

		SandboxDefaultTimeout: 30 * time.Second,
		SandboxMaxTimeout:     300 * time.Second,
		BashOutputLimitBytes:  100 * 1024,
		SearchResultLimit:     1000,

		TurnLogDir: v.GetString("TURN_LOG_DIR"),
	}
	return cfg
}
