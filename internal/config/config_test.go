package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	a := cfg.GetSummarizerA()
	assert.Equal(t, "gemini", a.Provider)
	assert.Equal(t, 150, a.MaxWords)
	assert.Equal(t, 40, a.MinWords)

	b := cfg.GetSummarizerB()
	assert.Equal(t, "zai", b.Provider)
	assert.Equal(t, "GLM-4.6", b.Model)

	assert.Equal(t, "https://en.wikipedia.org/api/rest_v1/page/summary", cfg.GetReference().Endpoint)
	assert.Equal(t, 30, int(cfg.BackendTimeout().Seconds()))
}

func TestLoadParsesFile(t *testing.T) {
	dir := t.TempDir()
	configDir := filepath.Join(dir, ".samvartha")
	require.NoError(t, os.MkdirAll(configDir, 0755))

	content := `{
		"gemini_api_key": "file-key",
		"summarizer_a": {"model": "gemini-2.5-pro", "max_words": 80},
		"resolution": {"backend_timeout_seconds": 5},
		"interpret": {"rules_path": "rules.yaml", "watch_rules": true}
	}`
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.json"), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.GeminiAPIKey)

	a := cfg.GetSummarizerA()
	assert.Equal(t, "gemini-2.5-pro", a.Model)
	assert.Equal(t, 80, a.MaxWords)
	assert.Equal(t, "gemini", a.Provider, "unset profile fields fall back to defaults")
	assert.Equal(t, 40, a.MinWords)

	assert.Equal(t, 5, int(cfg.BackendTimeout().Seconds()))
	assert.Equal(t, "rules.yaml", cfg.GetInterpret().RulesPath)
	assert.True(t, cfg.GetInterpret().WatchRules)
}

func TestReferenceEndpointDerivedFromLanguage(t *testing.T) {
	cfg := Default()
	cfg.Reference = &ReferenceConfig{Language: "de"}

	assert.Equal(t, "https://de.wikipedia.org/api/rest_v1/page/summary", cfg.GetReference().Endpoint)

	cfg.Reference = &ReferenceConfig{Endpoint: "http://localhost:9999/summary", Language: "de"}
	assert.Equal(t, "http://localhost:9999/summary", cfg.GetReference().Endpoint,
		"an explicit endpoint wins over the language derivation")
}

func TestLoadMalformedFileFails(t *testing.T) {
	dir := t.TempDir()
	configDir := filepath.Join(dir, ".samvartha")
	require.NoError(t, os.MkdirAll(configDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.json"), []byte("{not json"), 0644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	dir := t.TempDir()
	configDir := filepath.Join(dir, ".samvartha")
	require.NoError(t, os.MkdirAll(configDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.json"),
		[]byte(`{"gemini_api_key": "file-key", "zai_api_key": "file-zai"}`), 0644))

	t.Setenv("SAMVARTHA_GEMINI_API_KEY", "env-key")
	t.Setenv("ZAI_API_KEY", "env-zai")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.GeminiAPIKey)
	assert.Equal(t, "env-zai", cfg.ZAIAPIKey)

	assert.Equal(t, "env-key", cfg.APIKeyFor("gemini"))
	assert.Equal(t, "env-zai", cfg.APIKeyFor("zai"))
	assert.Equal(t, "", cfg.APIKeyFor("unknown"))
}

func TestPrefixedEnvWinsOverConventional(t *testing.T) {
	t.Setenv("SAMVARTHA_GEMINI_API_KEY", "prefixed")
	t.Setenv("GEMINI_API_KEY", "conventional")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.GeminiAPIKey)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()

	cfg := Default()
	cfg.GeminiAPIKey = "saved-key"
	cfg.Resolution.BackendTimeoutSeconds = 7
	require.NoError(t, cfg.Save(dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "saved-key", loaded.GeminiAPIKey)
	assert.Equal(t, 7, int(loaded.BackendTimeout().Seconds()))
}
