// Package config provides yaml-backed tuning for the triage pipeline.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// ScoreWeights are the assignment scoring constants, exposed as config so
// operators can retune them without a rebuild.
type ScoreWeights struct {
	Base                 int `yaml:"base"`
	ActivePenalty        int `yaml:"active_penalty"`
	CriticalPenalty      int `yaml:"critical_penalty"`
	TeamBonus            int `yaml:"team_bonus"`
	CriticalStackPenalty int `yaml:"critical_stack_penalty"`
}

// Config represents the triage.yaml structure.
type Config struct {
	// SystemActor is the provisioned identity the pipeline writes as.
	// When the matching user row is absent, side effects that need an
	// author (duplicate comments) are skipped and logged, never fatal.
	SystemActor string `yaml:"system_actor"`

	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	MaxMatches          int     `yaml:"max_matches"`

	ChatModel      string `yaml:"chat_model"`
	EmbeddingModel string `yaml:"embedding_model"`

	DefaultTeam string            `yaml:"default_team"`
	TeamMap     map[string]string `yaml:"team_map"`

	Weights ScoreWeights `yaml:"weights"`
}

// Default returns the built-in configuration used when no triage.yaml is
// provided. The team map and weights mirror the values the system shipped with.
func Default() *Config {
	return &Config{
		SystemActor:         "system",
		SimilarityThreshold: 0.85,
		MaxMatches:          10,
		ChatModel:           "gpt-4o-mini",
		EmbeddingModel:      "text-embedding-3-small",
		DefaultTeam:         "security",
		TeamMap: map[string]string{
			"XSS":                    "frontend",
			"SQL Injection":          "backend",
			"CSRF":                   "security",
			"Authentication Bypass":  "security",
			"Authorization":          "security",
			"Session Management":     "security",
			"Cryptography":           "security",
			"Information Disclosure": "security",
			"Network Security":       "infrastructure",
			"Denial of Service":      "infrastructure",
			"Configuration":          "infrastructure",
			"SSRF":                   "infrastructure",
			"RCE":                    "infrastructure",
		},
		Weights: ScoreWeights{
			Base:                 100,
			ActivePenalty:        10,
			CriticalPenalty:      20,
			TeamBonus:            30,
			CriticalStackPenalty: 30,
		},
	}
}

// Load reads and parses the triage config file, filling unset fields from the
// defaults. An empty path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var overlay fileConfig
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.merge(&overlay)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv loads the config from TRIAGE_CONFIG_PATH, or defaults.
func LoadFromEnv() (*Config, error) {
	return Load(os.Getenv("TRIAGE_CONFIG_PATH"))
}

// fileConfig mirrors Config with pointer fields so the overlay can tell an
// absent key from an explicit zero (a 0 similarity threshold is valid).
type fileConfig struct {
	SystemActor         *string           `yaml:"system_actor"`
	SimilarityThreshold *float64          `yaml:"similarity_threshold"`
	MaxMatches          *int              `yaml:"max_matches"`
	ChatModel           *string           `yaml:"chat_model"`
	EmbeddingModel      *string           `yaml:"embedding_model"`
	DefaultTeam         *string           `yaml:"default_team"`
	TeamMap             map[string]string `yaml:"team_map"`
	Weights             *ScoreWeights     `yaml:"weights"`
}

func (c *Config) merge(o *fileConfig) {
	if o.SystemActor != nil {
		c.SystemActor = *o.SystemActor
	}
	if o.SimilarityThreshold != nil {
		c.SimilarityThreshold = *o.SimilarityThreshold
	}
	if o.MaxMatches != nil {
		c.MaxMatches = *o.MaxMatches
	}
	if o.ChatModel != nil {
		c.ChatModel = *o.ChatModel
	}
	if o.EmbeddingModel != nil {
		c.EmbeddingModel = *o.EmbeddingModel
	}
	if o.DefaultTeam != nil {
		c.DefaultTeam = *o.DefaultTeam
	}
	for bugType, team := range o.TeamMap {
		c.TeamMap[bugType] = team
	}
	if o.Weights != nil {
		c.Weights = *o.Weights
	}
}

// validate ensures the configuration is usable
func validate(c *Config) error {
	if c.SystemActor == "" {
		return fmt.Errorf("system_actor is required")
	}
	if c.SimilarityThreshold < -1 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity_threshold must be in [-1,1], got %v", c.SimilarityThreshold)
	}
	if c.MaxMatches <= 0 {
		return fmt.Errorf("max_matches must be positive, got %d", c.MaxMatches)
	}
	if c.DefaultTeam == "" {
		return fmt.Errorf("default_team is required")
	}
	for bugType, team := range c.TeamMap {
		if team == "" {
			return fmt.Errorf("team_map entry for %q has empty team", bugType)
		}
	}
	return nil
}

// TeamFor maps a bug type to its owning team. Unknown types resolve to the
// default team, never an error.
func (c *Config) TeamFor(bugType string) string {
	if team, ok := c.TeamMap[bugType]; ok {
		return team
	}
	return c.DefaultTeam
}
