package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theramind/theramind/pkg/types"
)

// isolateEnv points HOME and the XDG dirs at a temp directory so tests never
// pick up real user configs.
func isolateEnv(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, ".config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(tmpDir, ".local", "share"))
	return tmpDir
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadProjectConfig(t *testing.T) {
	tmpDir := isolateEnv(t)

	projectConfig := `{
		"$schema": "https://theramind.dev/config.json",
		"default_therapy": "ACT",
		"provider": {
			"openrouter": {
				"apiKey": "sk-or-test123",
				"baseURL": "https://openrouter.ai/api/v1"
			}
		},
		"modules": {
			"reaction_classifier": {
				"model": "openrouter/openai/gpt-4o-mini",
				"prompt_path": "reaction.md",
				"temperature": 0.2
			},
			"counselor": {
				"model": "openrouter/anthropic/claude-sonnet-4",
				"prompt_path": "counselor.md",
				"max_tokens": 1024
			}
		}
	}`
	writeConfig(t, filepath.Join(tmpDir, "theramind.json"), projectConfig)

	cfg, err := Load(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "https://theramind.dev/config.json", cfg.Schema)
	assert.Equal(t, "ACT", cfg.DefaultTherapy)
	assert.Equal(t, "sk-or-test123", cfg.Provider["openrouter"].APIKey)
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.Provider["openrouter"].BaseURL)

	reaction := cfg.Modules["reaction_classifier"]
	assert.Equal(t, "openrouter/openai/gpt-4o-mini", reaction.Model)
	assert.Equal(t, "reaction.md", reaction.PromptPath)
	require.NotNil(t, reaction.Temperature)
	assert.Equal(t, 0.2, *reaction.Temperature)

	counselor := cfg.Modules["counselor"]
	assert.Equal(t, 1024, counselor.MaxTokens)
}

func TestJSONCComments(t *testing.T) {
	tmpDir := isolateEnv(t)

	jsoncConfig := `{
		// Records live next to the project
		"records_dir": "./records",
		/* provider block */
		"provider": {
			"anthropic": {
				"apiKey": "test-key" // inline comment
			}
		}
	}`
	writeConfig(t, filepath.Join(tmpDir, "theramind.jsonc"), jsoncConfig)

	cfg, err := Load(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "./records", cfg.RecordsDir)
	assert.Equal(t, "test-key", cfg.Provider["anthropic"].APIKey)
}

func TestEnvInterpolation(t *testing.T) {
	tmpDir := isolateEnv(t)
	t.Setenv("TEST_API_KEY", "interpolated-key")

	config := `{
		"provider": {
			"openrouter": {
				"apiKey": "{env:TEST_API_KEY}"
			}
		}
	}`
	writeConfig(t, filepath.Join(tmpDir, "theramind.json"), config)

	cfg, err := Load(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "interpolated-key", cfg.Provider["openrouter"].APIKey)
}

func TestFileInterpolation(t *testing.T) {
	tmpDir := isolateEnv(t)

	keyFile := filepath.Join(tmpDir, "apikey.txt")
	require.NoError(t, os.WriteFile(keyFile, []byte("key-from-file"), 0644))

	config := `{
		"provider": {
			"openai": {
				"apiKey": "{file:apikey.txt}"
			}
		}
	}`
	writeConfig(t, filepath.Join(tmpDir, "theramind.json"), config)

	cfg, err := Load(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "key-from-file", cfg.Provider["openai"].APIKey)
}

func TestConfigMerge(t *testing.T) {
	tmpDir := isolateEnv(t)

	// Global config
	globalConfig := `{
		"default_therapy": "CBT",
		"provider": {
			"anthropic": {"apiKey": "global-key"}
		},
		"modules": {
			"counselor": {"model": "anthropic/claude-sonnet-4", "prompt_path": "counselor.md"}
		}
	}`
	writeConfig(t, filepath.Join(tmpDir, ".config", "theramind", "theramind.json"), globalConfig)

	// Project config (should override)
	projectDir := filepath.Join(tmpDir, "project")
	projectConfig := `{
		"default_therapy": "ACT",
		"modules": {
			"reaction_classifier": {"model": "openai/gpt-4o-mini", "prompt_path": "reaction.md"}
		}
	}`
	writeConfig(t, filepath.Join(projectDir, "theramind.json"), projectConfig)

	cfg, err := Load(projectDir)
	require.NoError(t, err)

	// Project scalar overrides global
	assert.Equal(t, "ACT", cfg.DefaultTherapy)

	// Global provider preserved
	assert.Equal(t, "global-key", cfg.Provider["anthropic"].APIKey)

	// Module maps merged
	assert.Equal(t, "anthropic/claude-sonnet-4", cfg.Modules["counselor"].Model)
	assert.Equal(t, "openai/gpt-4o-mini", cfg.Modules["reaction_classifier"].Model)
}

func TestEnvVarOverride(t *testing.T) {
	tmpDir := isolateEnv(t)
	t.Setenv("OPENROUTER_API_KEY", "env-or-key")
	t.Setenv("THERAMIND_RECORDS_DIR", "/srv/records")
	t.Setenv("THERAMIND_DEFAULT_THERAPY", "DBT")

	writeConfig(t, filepath.Join(tmpDir, "theramind.json"), `{"default_therapy": "CBT"}`)

	cfg, err := Load(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "env-or-key", cfg.Provider["openrouter"].APIKey)
	assert.Equal(t, "/srv/records", cfg.RecordsDir)
	assert.Equal(t, "DBT", cfg.DefaultTherapy)
}

func TestTHERAMIND_CONFIG(t *testing.T) {
	tmpDir := isolateEnv(t)

	customConfigPath := filepath.Join(tmpDir, "custom-config.json")
	writeConfig(t, customConfigPath, `{"default_therapy": "IPT"}`)
	t.Setenv("THERAMIND_CONFIG", customConfigPath)

	cfg, err := Load(filepath.Join(tmpDir, "elsewhere"))
	require.NoError(t, err)

	assert.Equal(t, "IPT", cfg.DefaultTherapy)
}

func TestTHERAMIND_CONFIG_CONTENT(t *testing.T) {
	isolateEnv(t)
	t.Setenv("THERAMIND_CONFIG_CONTENT", `{"default_therapy": "inline-therapy", "records_dir": "/inline/records"}`)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "inline-therapy", cfg.DefaultTherapy)
	assert.Equal(t, "/inline/records", cfg.RecordsDir)
}

func TestDefaults(t *testing.T) {
	isolateEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "CBT", cfg.DefaultTherapy)
	assert.Equal(t, GetPaths().RecordsPath(), cfg.RecordsDir)
	assert.Equal(t, filepath.Join(GetPaths().Config, "prompts"), cfg.PromptsDir)
}

func TestValidate(t *testing.T) {
	cfg := &types.Config{Modules: map[string]types.ModuleConfig{}}
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reaction_classifier")
	assert.Contains(t, err.Error(), "therapy_selection")

	for _, name := range types.RequiredModules {
		cfg.Modules[name] = types.ModuleConfig{Model: "openai/gpt-4o-mini", PromptPath: name + ".md"}
	}
	require.NoError(t, Validate(cfg))

	// A binding without a prompt path is still missing
	cfg.Modules[types.ModuleCounselor] = types.ModuleConfig{Model: "openai/gpt-4o-mini"}
	err = Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "counselor")
}
