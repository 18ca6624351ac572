package types

// Config represents the TheraMind configuration loaded from theramind.json[c].
type Config struct {
	// Schema reference (for editor support)
	Schema string `json:"$schema,omitempty"`

	// Directory holding counseling record files. Defaults to the data dir.
	RecordsDir string `json:"records_dir,omitempty"`

	// Directory holding prompt template files. Module prompt paths are
	// resolved relative to it.
	PromptsDir string `json:"prompts_dir,omitempty"`

	// Therapy used for a fresh counseling history when intake selection is
	// not run. Defaults to CBT.
	DefaultTherapy string `json:"default_therapy,omitempty"`

	// Provider configs, keyed by provider id ("openai", "anthropic", ...)
	Provider map[string]ProviderConfig `json:"provider,omitempty"`

	// Modules binds each pipeline module to a model and prompt template.
	Modules map[string]ModuleConfig `json:"modules,omitempty"`

	// Server settings for the HTTP front-end
	Server *ServerConfig `json:"server,omitempty"`
}

// ProviderConfig holds configuration for a specific model provider.
type ProviderConfig struct {
	APIKey  string `json:"apiKey,omitempty"`
	BaseURL string `json:"baseURL,omitempty"` // openai-compatible gateways (OpenRouter etc.)

	// Timeout in ms, nil = default, 0 = disabled
	Timeout *int `json:"timeout,omitempty"`

	// Disable provider
	Disable bool `json:"disable,omitempty"`
}

// ModuleConfig binds one pipeline module to a model and prompt template.
type ModuleConfig struct {
	// Model in "provider/model-id" form, e.g. "openai/gpt-4o-mini"
	Model string `json:"model"`

	// PromptPath is the template file, relative to PromptsDir
	PromptPath string `json:"prompt_path"`

	// Generation parameter overrides
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`
}

// Module names recognized in Config.Modules. The first eight are required
// for the turn pipeline; the rest are optional features.
const (
	ModuleReaction   = "reaction_classifier"
	ModuleResistance = "resistance_detection"
	ModuleStrategy   = "strategy_selection"
	ModulePhase      = "phase_selection"
	ModuleMemory     = "memory_retrieve"
	ModuleCounselor  = "counselor"
	ModuleEndDetect  = "end_detection"
	ModuleTherapy    = "therapy_selection"

	ModuleIntake     = "first_therapy_selection"
	ModuleEvaluation = "post_session_evaluation"
	ModuleClient     = "client_agent"
)

// RequiredModules lists the bindings that must be present for ProcessTurn.
var RequiredModules = []string{
	ModuleReaction,
	ModuleResistance,
	ModuleStrategy,
	ModulePhase,
	ModuleMemory,
	ModuleCounselor,
	ModuleEndDetect,
	ModuleTherapy,
}
