// Package config provides configuration loading, merging, and path management
// for TheraMind.
//
// # Configuration Loading
//
// The Load function searches for and merges configuration from multiple
// sources in priority order:
//
//  1. Global config (~/.config/theramind/theramind.json[c])
//  2. Project config (theramind.json[c] in the working directory)
//  3. THERAMIND_CONFIG file
//  4. THERAMIND_CONFIG_CONTENT inline JSON
//  5. Environment variables
//
// Later sources override earlier ones; environment variables have the
// highest precedence.
//
// # Supported Formats
//
// Both JSON and JSONC (JSON with Comments) are accepted; JSONC comments are
// stripped using tidwall/jsonc before parsing.
//
// # Variable Interpolation
//
// Configuration files support two placeholder forms:
//   - {env:VAR_NAME} - expands to environment variable values
//   - {file:path} - expands to file contents (escaped for JSON)
//
// File paths support absolute paths, paths relative to the config file
// directory, and home expansion (~/).
//
// Example:
//
//	{
//	  "provider": {
//	    "openrouter": {
//	      "apiKey": "{env:OPENROUTER_API_KEY}",
//	      "baseURL": "https://openrouter.ai/api/v1"
//	    }
//	  },
//	  "modules": {
//	    "reaction_classifier": {
//	      "model": "openrouter/openai/gpt-4o-mini",
//	      "prompt_path": "reaction.md"
//	    }
//	  }
//	}
//
// # Module Bindings
//
// Each pipeline module is bound to a model and a prompt template through
// Config.Modules. Validate reports the bindings still missing for the turn
// pipeline; callers treat that as a startup-time fatal error so a half
// configured pipeline never processes a turn.
//
// # Path Management
//
// The Paths type follows the XDG Base Directory Specification:
//   - Data: ~/.local/share/theramind (XDG_DATA_HOME)
//   - Config: ~/.config/theramind (XDG_CONFIG_HOME)
//   - Cache: ~/.cache/theramind (XDG_CACHE_HOME)
//   - State: ~/.local/state/theramind (XDG_STATE_HOME)
//
// Counseling record files live under Data/records by default; the location
// can be overridden with records_dir or THERAMIND_RECORDS_DIR.
package config
