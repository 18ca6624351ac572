package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/theramind/theramind/pkg/types"
	"github.com/tidwall/jsonc"
)

// Load loads configuration from multiple sources (priority order):
// 1. Global config (~/.config/theramind/)
// 2. Project config (theramind.json[c] in the given directory)
// 3. THERAMIND_CONFIG file
// 4. THERAMIND_CONFIG_CONTENT inline JSON
// 5. Environment variables
func Load(directory string) (*types.Config, error) {
	config := &types.Config{
		Provider: make(map[string]types.ProviderConfig),
		Modules:  make(map[string]types.ModuleConfig),
	}

	// Track loaded files to avoid duplicates
	loaded := make(map[string]bool)

	loadOnce := func(path string, baseDir string) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return
		}
		if loaded[absPath] {
			return
		}
		if loadConfigFile(path, config, baseDir) == nil {
			loaded[absPath] = true
		}
	}

	// 1. Global config
	globalPath := GetPaths().Config
	loadOnce(filepath.Join(globalPath, "theramind.json"), globalPath)
	loadOnce(filepath.Join(globalPath, "theramind.jsonc"), globalPath)

	// 2. Project config
	if directory != "" {
		loadOnce(filepath.Join(directory, "theramind.json"), directory)
		loadOnce(filepath.Join(directory, "theramind.jsonc"), directory)
	}

	// 3. THERAMIND_CONFIG file override
	if configPath := os.Getenv("THERAMIND_CONFIG"); configPath != "" {
		loadOnce(configPath, filepath.Dir(configPath))
	}

	// 4. THERAMIND_CONFIG_CONTENT inline JSON
	if configContent := os.Getenv("THERAMIND_CONFIG_CONTENT"); configContent != "" {
		var inlineConfig types.Config
		if err := json.Unmarshal(jsonc.ToJSON([]byte(configContent)), &inlineConfig); err == nil {
			mergeConfig(config, &inlineConfig)
		}
	}

	// 5. Environment variables (highest priority)
	applyEnvOverrides(config)

	applyDefaults(config)

	return config, nil
}

// Validate checks that every required pipeline module has a usable binding.
// Called once at startup; a missing binding is fatal before any turn runs.
func Validate(config *types.Config) error {
	var missing []string
	for _, name := range types.RequiredModules {
		m, ok := config.Modules[name]
		if !ok || m.Model == "" || m.PromptPath == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing module bindings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// loadConfigFile loads a single config file with interpolation support.
func loadConfigFile(path string, config *types.Config, baseDir string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err // File doesn't exist, skip
	}

	// Strip JSONC comments using tidwall/jsonc
	data = jsonc.ToJSON(data)

	// Apply interpolation
	data = interpolate(data, baseDir)

	var fileConfig types.Config
	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return err
	}

	mergeConfig(config, &fileConfig)
	return nil
}

// interpolate processes {env:VAR} and {file:path} placeholders.
func interpolate(data []byte, baseDir string) []byte {
	str := string(data)

	// Handle {env:VAR_NAME} placeholders
	envPattern := regexp.MustCompile(`\{env:([^}]+)\}`)
	str = envPattern.ReplaceAllStringFunc(str, func(match string) string {
		varName := envPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})

	// Handle {file:path} placeholders
	filePattern := regexp.MustCompile(`\{file:([^}]+)\}`)
	str = filePattern.ReplaceAllStringFunc(str, func(match string) string {
		filePath := filePattern.FindStringSubmatch(match)[1]

		// Resolve path
		if strings.HasPrefix(filePath, "~/") {
			home := os.Getenv("HOME")
			filePath = filepath.Join(home, filePath[2:])
		} else if !filepath.IsAbs(filePath) {
			filePath = filepath.Join(baseDir, filePath)
		}

		content, err := os.ReadFile(filePath)
		if err != nil {
			return match // Keep original if file not found
		}

		// Escape for JSON string
		escaped := strings.ReplaceAll(string(content), "\\", "\\\\")
		escaped = strings.ReplaceAll(escaped, "\"", "\\\"")
		escaped = strings.ReplaceAll(escaped, "\n", "\\n")
		escaped = strings.ReplaceAll(escaped, "\r", "\\r")
		escaped = strings.ReplaceAll(escaped, "\t", "\\t")

		return escaped
	})

	return []byte(str)
}

// mergeConfig merges source config into target.
func mergeConfig(target, source *types.Config) {
	if source.Schema != "" {
		target.Schema = source.Schema
	}
	if source.RecordsDir != "" {
		target.RecordsDir = source.RecordsDir
	}
	if source.PromptsDir != "" {
		target.PromptsDir = source.PromptsDir
	}
	if source.DefaultTherapy != "" {
		target.DefaultTherapy = source.DefaultTherapy
	}

	// Merge providers
	if source.Provider != nil {
		if target.Provider == nil {
			target.Provider = make(map[string]types.ProviderConfig)
		}
		for k, v := range source.Provider {
			target.Provider[k] = v
		}
	}

	// Merge module bindings
	if source.Modules != nil {
		if target.Modules == nil {
			target.Modules = make(map[string]types.ModuleConfig)
		}
		for k, v := range source.Modules {
			target.Modules[k] = v
		}
	}

	if source.Server != nil {
		target.Server = source.Server
	}
}

// applyEnvOverrides applies environment variable overrides.
func applyEnvOverrides(config *types.Config) {
	// Provider API keys
	providerEnvMap := map[string]string{
		"anthropic":  "ANTHROPIC_API_KEY",
		"openai":     "OPENAI_API_KEY",
		"openrouter": "OPENROUTER_API_KEY",
	}

	for provider, envVar := range providerEnvMap {
		if apiKey := os.Getenv(envVar); apiKey != "" {
			if config.Provider == nil {
				config.Provider = make(map[string]types.ProviderConfig)
			}
			p := config.Provider[provider]
			if p.APIKey == "" {
				p.APIKey = apiKey
				config.Provider[provider] = p
			}
		}
	}

	if dir := os.Getenv("THERAMIND_RECORDS_DIR"); dir != "" {
		config.RecordsDir = dir
	}
	if dir := os.Getenv("THERAMIND_PROMPTS_DIR"); dir != "" {
		config.PromptsDir = dir
	}
	if therapy := os.Getenv("THERAMIND_DEFAULT_THERAPY"); therapy != "" {
		config.DefaultTherapy = therapy
	}
}

// applyDefaults fills unset fields.
func applyDefaults(config *types.Config) {
	if config.RecordsDir == "" {
		config.RecordsDir = GetPaths().RecordsPath()
	}
	if config.PromptsDir == "" {
		config.PromptsDir = filepath.Join(GetPaths().Config, "prompts")
	}
	if config.DefaultTherapy == "" {
		config.DefaultTherapy = "CBT"
	}
}

// Save saves the configuration to a file.
func Save(config *types.Config, path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// GetConfigDir returns the config directory to use.
// Prefers THERAMIND_CONFIG_DIR, then ~/.config/theramind.
func GetConfigDir() string {
	if dir := os.Getenv("THERAMIND_CONFIG_DIR"); dir != "" {
		return dir
	}
	return GetPaths().Config
}
