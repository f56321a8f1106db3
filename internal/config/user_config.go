// Package config loads Samvartha configuration from .samvartha/config.json.
// This is the single source of truth for configuration: provider API keys,
// summarizer profiles, resolution limits, reference lookup settings, and
// logging. Environment variables override file values for API keys.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// UserConfig holds ALL Samvartha configuration from .samvartha/config.json.
//
// Supported generative providers:
//   - gemini: gemini-2.5-flash (default), gemini-2.5-pro
//   - zai:    GLM-4.6 (default)
type UserConfig struct {
	// =========================================================================
	// PROVIDER CONFIGURATION
	// =========================================================================

	// API keys per provider
	GeminiAPIKey string `json:"gemini_api_key,omitempty"` // Google Gemini
	ZAIAPIKey    string `json:"zai_api_key,omitempty"`    // Z.AI / GLM

	// =========================================================================
	// SUMMARIZER PROFILES
	// =========================================================================

	// Two interchangeable profiles with the same contract and different
	// quality/cost. A is tried before B in the knowledge chain.
	SummarizerA *SummarizerProfile `json:"summarizer_a,omitempty"`
	SummarizerB *SummarizerProfile `json:"summarizer_b,omitempty"`

	// =========================================================================
	// RESOLUTION SETTINGS
	// =========================================================================

	Resolution *ResolutionConfig `json:"resolution,omitempty"`

	// =========================================================================
	// REFERENCE LOOKUP
	// =========================================================================

	Reference *ReferenceConfig `json:"reference,omitempty"`

	// =========================================================================
	// TASK KNOWLEDGE
	// =========================================================================

	Knowledge *KnowledgeConfig `json:"knowledge,omitempty"`

	// =========================================================================
	// COMMAND INTERPRETATION
	// =========================================================================

	Interpret *InterpretConfig `json:"interpret,omitempty"`

	// =========================================================================
	// LOGGING
	// =========================================================================

	Logging *LoggingConfig `json:"logging,omitempty"`
}

// SummarizerProfile configures one generative summarizer backend.
type SummarizerProfile struct {
	Provider    string  `json:"provider,omitempty"`  // "gemini" or "zai"
	Model       string  `json:"model,omitempty"`     // provider model override
	MaxWords    int     `json:"max_words,omitempty"` // upper bound on summary length
	MinWords    int     `json:"min_words,omitempty"` // lower bound hint for the prompt
	Temperature float64 `json:"temperature,omitempty"`
}

// ResolutionConfig bounds chain traversal.
type ResolutionConfig struct {
	// BackendTimeoutSeconds bounds each backend invocation; 0 disables
	// the per-backend bound. A timeout counts as a backend fault.
	BackendTimeoutSeconds int `json:"backend_timeout_seconds,omitempty"`
}

// ReferenceConfig configures the external reference lookup backend.
type ReferenceConfig struct {
	Endpoint string `json:"endpoint,omitempty"` // REST summary endpoint base URL
	Language string `json:"language,omitempty"` // wiki language code
	// CachePath is the SQLite file for the persistent lookup cache,
	// relative to the workspace. Empty disables persistence.
	CachePath string `json:"cache_path,omitempty"`
}

// KnowledgeConfig configures the task knowledge service.
type KnowledgeConfig struct {
	// ExtractorMinTokenLen is the length a token must exceed to count
	// as a task name during bulk detection.
	ExtractorMinTokenLen int `json:"extractor_min_token_len,omitempty"`
}

// InterpretConfig configures the command interpretation service.
type InterpretConfig struct {
	// RulesPath points at a YAML grammar file; empty uses the built-in rules.
	RulesPath string `json:"rules_path,omitempty"`
	// WatchRules reloads the grammar when the file changes.
	WatchRules bool `json:"watch_rules,omitempty"`
	// MaxParaphraseWords bounds the paraphrase stage output.
	MaxParaphraseWords int `json:"max_paraphrase_words,omitempty"`
}

// LoggingConfig mirrors the logging package's expectations.
type LoggingConfig struct {
	DebugMode  bool            `json:"debug_mode"`
	Categories map[string]bool `json:"categories,omitempty"`
	Level      string          `json:"level,omitempty"`
	JSONFormat bool            `json:"json_format,omitempty"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the baseline configuration used when no config file exists.
func Default() *UserConfig {
	return &UserConfig{
		SummarizerA: &SummarizerProfile{
			Provider: "gemini",
			Model:    "gemini-2.5-flash",
			MaxWords: 150,
			MinWords: 40,
		},
		SummarizerB: &SummarizerProfile{
			Provider: "zai",
			Model:    "GLM-4.6",
			MaxWords: 150,
			MinWords: 40,
		},
		Resolution: &ResolutionConfig{
			BackendTimeoutSeconds: 30,
		},
		Reference: &ReferenceConfig{
			Endpoint:  "https://en.wikipedia.org/api/rest_v1/page/summary",
			Language:  "en",
			CachePath: filepath.Join(".samvartha", "reference.db"),
		},
		Knowledge: &KnowledgeConfig{
			ExtractorMinTokenLen: 3,
		},
		Interpret: &InterpretConfig{
			MaxParaphraseWords: 30,
		},
		Logging: &LoggingConfig{},
	}
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads .samvartha/config.json under workspace. A missing file
// yields defaults; a malformed file is an error. Environment overrides
// are applied in both cases.
func Load(workspace string) (*UserConfig, error) {
	cfg := Default()

	path := filepath.Join(workspace, ".samvartha", "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the config back to .samvartha/config.json under workspace.
func (c *UserConfig) Save(workspace string) error {
	dir := filepath.Join(workspace, ".samvartha")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides lets environment variables win over file values.
// Both the SAMVARTHA_-prefixed and the provider-conventional names work.
func (c *UserConfig) applyEnvOverrides() {
	for _, name := range []string{"SAMVARTHA_GEMINI_API_KEY", "GEMINI_API_KEY"} {
		if v := os.Getenv(name); v != "" {
			c.GeminiAPIKey = v
			break
		}
	}
	for _, name := range []string{"SAMVARTHA_ZAI_API_KEY", "ZAI_API_KEY"} {
		if v := os.Getenv(name); v != "" {
			c.ZAIAPIKey = v
			break
		}
	}
}

// =============================================================================
// ACCESSORS (nil-safe, default-filling)
// =============================================================================

// GetSummarizerA returns profile A, filled with defaults where unset.
func (c *UserConfig) GetSummarizerA() SummarizerProfile {
	return fillProfile(c.SummarizerA, Default().SummarizerA)
}

// GetSummarizerB returns profile B, filled with defaults where unset.
func (c *UserConfig) GetSummarizerB() SummarizerProfile {
	return fillProfile(c.SummarizerB, Default().SummarizerB)
}

func fillProfile(p, def *SummarizerProfile) SummarizerProfile {
	out := *def
	if p == nil {
		return out
	}
	if p.Provider != "" {
		out.Provider = p.Provider
	}
	if p.Model != "" {
		out.Model = p.Model
	}
	if p.MaxWords > 0 {
		out.MaxWords = p.MaxWords
	}
	if p.MinWords > 0 {
		out.MinWords = p.MinWords
	}
	if p.Temperature > 0 {
		out.Temperature = p.Temperature
	}
	return out
}

// BackendTimeout returns the per-backend bound as a duration.
func (c *UserConfig) BackendTimeout() time.Duration {
	if c.Resolution == nil {
		return time.Duration(Default().Resolution.BackendTimeoutSeconds) * time.Second
	}
	return time.Duration(c.Resolution.BackendTimeoutSeconds) * time.Second
}

// GetReference returns the reference lookup settings, default-filled.
// When no endpoint is set, one is derived from the wiki language code.
func (c *UserConfig) GetReference() ReferenceConfig {
	def := *Default().Reference
	if c.Reference == nil {
		return def
	}
	out := *c.Reference
	if out.Language == "" {
		out.Language = def.Language
	}
	if out.Endpoint == "" {
		out.Endpoint = fmt.Sprintf("https://%s.wikipedia.org/api/rest_v1/page/summary", out.Language)
	}
	return out
}

// GetKnowledge returns the knowledge settings, default-filled.
func (c *UserConfig) GetKnowledge() KnowledgeConfig {
	def := *Default().Knowledge
	if c.Knowledge == nil {
		return def
	}
	out := *c.Knowledge
	if out.ExtractorMinTokenLen <= 0 {
		out.ExtractorMinTokenLen = def.ExtractorMinTokenLen
	}
	return out
}

// GetInterpret returns the interpretation settings, default-filled.
func (c *UserConfig) GetInterpret() InterpretConfig {
	def := *Default().Interpret
	if c.Interpret == nil {
		return def
	}
	out := *c.Interpret
	if out.MaxParaphraseWords <= 0 {
		out.MaxParaphraseWords = def.MaxParaphraseWords
	}
	return out
}

// APIKeyFor returns the configured key for a provider name.
func (c *UserConfig) APIKeyFor(provider string) string {
	switch provider {
	case "gemini":
		return c.GeminiAPIKey
	case "zai":
		return c.ZAIAPIKey
	default:
		return ""
	}
}
