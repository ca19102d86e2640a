// Package config holds every tunable knob for the game master engine
// in one flat struct, so the pacing thresholds and retry budgets are
// auditable in a single place.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// #region config

// Config is the full set of engine tunables. All fields can be
// overridden from the environment via PARTYGM_-prefixed variables.
type Config struct {
	// Fact collection thresholds
	MinFacts             int     `env:"MIN_FACTS" envDefault:"5"`
	MaxFacts             int     `env:"MAX_FACTS" envDefault:"30"`
	TargetFactsPerPlayer float64 `env:"TARGET_FACTS_PER_PLAYER" envDefault:"2"`

	// Act boundaries as fractions of target session duration
	Act1TargetPercent float64 `env:"ACT1_TARGET_PERCENT" envDefault:"0.25"`
	Act2TargetPercent float64 `env:"ACT2_TARGET_PERCENT" envDefault:"0.80"`
	Act3TargetPercent float64 `env:"ACT3_TARGET_PERCENT" envDefault:"0.95"`

	// Act 2 round pacing
	MinRounds   int `env:"MIN_ROUNDS" envDefault:"3"`
	MaxRounds   int `env:"MAX_ROUNDS" envDefault:"10"`
	AvgRoundSec int `env:"AVG_ROUND_SEC" envDefault:"90"`

	// Model call behavior
	MaxRetries       int `env:"MAX_RETRIES" envDefault:"3"`
	RetryDelayMs     int `env:"RETRY_DELAY_MS" envDefault:"1000"`
	RequestTimeoutMs int `env:"REQUEST_TIMEOUT_MS" envDefault:"30000"`

	// Context size handed to the model
	RecentEventsCount int `env:"RECENT_EVENTS_COUNT" envDefault:"10"`
	MaxFactsInContext int `env:"MAX_FACTS_IN_CONTEXT" envDefault:"10"`

	// Generation parameters forwarded to the model transport
	Temperature     float32 `env:"TEMPERATURE" envDefault:"0.9"`
	MaxOutputTokens int     `env:"MAX_OUTPUT_TOKENS" envDefault:"1024"`
	TopP            float32 `env:"TOP_P" envDefault:"0.95"`

	// Transport selection and endpoints
	Transport    string `env:"TRANSPORT" envDefault:"http"` // "http" | "gemini"
	ModelURL     string `env:"MODEL_URL" envDefault:"http://localhost:11434/v1/chat/completions"`
	ModelName    string `env:"MODEL_NAME" envDefault:"gpt-4o-mini"`
	ModelAPIKey  string `env:"MODEL_API_KEY"`
	GeminiAPIKey string `env:"GEMINI_API_KEY"`

	// Persistence
	DBPath      string `env:"DB_PATH" envDefault:"partygm.db"`
	SupabaseURL string `env:"SUPABASE_URL"`
	SupabaseKey string `env:"SUPABASE_KEY"`

	// HTTP server
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`
}

// #endregion config

// #region constructors

// Default returns the built-in defaults without consulting the environment.
func Default() Config {
	return Config{
		MinFacts:             5,
		MaxFacts:             30,
		TargetFactsPerPlayer: 2,
		Act1TargetPercent:    0.25,
		Act2TargetPercent:    0.80,
		Act3TargetPercent:    0.95,
		MinRounds:            3,
		MaxRounds:            10,
		AvgRoundSec:          90,
		MaxRetries:           3,
		RetryDelayMs:         1000,
		RequestTimeoutMs:     30000,
		RecentEventsCount:    10,
		MaxFactsInContext:    10,
		Temperature:          0.9,
		MaxOutputTokens:      1024,
		TopP:                 0.95,
		Transport:            "http",
		ModelURL:             "http://localhost:11434/v1/chat/completions",
		ModelName:            "gpt-4o-mini",
		DBPath:               "partygm.db",
		ListenAddr:           ":8080",
	}
}

// Load parses the configuration from the environment on top of defaults.
func Load() (Config, error) {
	cfg := Default()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "PARTYGM_"}); err != nil {
		return Config{}, fmt.Errorf("parse env config: %w", err)
	}
	return cfg, nil
}

// #endregion constructors
