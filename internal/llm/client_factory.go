package llm

import (
	"fmt"

	"samvartha/internal/config"
	"samvartha/internal/logging"
)

// FromProfile builds a client for one summarizer profile. Returns
// ErrNoAPIKey when the provider has no key configured; callers treat
// that as "this backend is unavailable", not a hard failure.
func FromProfile(cfg *config.UserConfig, profile config.SummarizerProfile) (Client, error) {
	key := cfg.APIKeyFor(profile.Provider)
	if key == "" {
		return nil, fmt.Errorf("%w for provider %q", ErrNoAPIKey, profile.Provider)
	}

	switch profile.Provider {
	case "gemini":
		gc := DefaultGeminiConfig(key)
		if profile.Model != "" {
			gc.Model = profile.Model
		}
		if profile.Temperature > 0 {
			gc.Temperature = profile.Temperature
		}
		logging.Boot("llm client: gemini model=%s", gc.Model)
		return NewGeminiClientWithConfig(gc), nil

	case "zai":
		zc := DefaultZAIConfig(key)
		if profile.Model != "" {
			zc.Model = profile.Model
		}
		if profile.Temperature > 0 {
			zc.Temperature = profile.Temperature
		}
		logging.Boot("llm client: zai model=%s", zc.Model)
		return NewZAIClientWithConfig(zc), nil

	default:
		return nil, fmt.Errorf("unknown provider %q", profile.Provider)
	}
}
