// Package prompt loads and renders the prompt templates bound to pipeline
// modules.
package prompt

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// Template is a parsed prompt template. Templates are markdown or plain text
// files, optionally with a YAML frontmatter block overriding the module's
// model binding.
type Template struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Body        string   `json:"body"`
	Source      string   `json:"source,omitempty"`

	// Binding overrides from frontmatter
	Model       string   `json:"model,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
}

// frontmatter is the YAML block recognized at the top of a template file.
type frontmatter struct {
	Description string   `yaml:"description"`
	Model       string   `yaml:"model"`
	Temperature *float64 `yaml:"temperature"`
	MaxTokens   int      `yaml:"max_tokens"`
}

// ParseFile reads and parses a template file.
func ParseFile(path string) (*Template, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tmpl, err := Parse(string(content))
	if err != nil {
		return nil, err
	}
	tmpl.Source = path
	return tmpl, nil
}

// Parse parses template content. A leading "---" line starts a YAML
// frontmatter block terminated by the next "---" line; everything after is
// the template body. Content without frontmatter is used as the body whole.
func Parse(content string) (*Template, error) {
	tmpl := &Template{}

	body := content
	if strings.HasPrefix(content, "---\n") || strings.HasPrefix(content, "---\r\n") {
		rest := content[strings.Index(content, "\n")+1:]
		end := strings.Index(rest, "\n---")
		if end >= 0 {
			var fm frontmatter
			if err := yaml.Unmarshal([]byte(rest[:end]), &fm); err != nil {
				return nil, fmt.Errorf("invalid frontmatter: %w", err)
			}
			tmpl.Description = fm.Description
			tmpl.Model = fm.Model
			tmpl.Temperature = fm.Temperature
			tmpl.MaxTokens = fm.MaxTokens

			body = rest[end+len("\n---"):]
			if i := strings.Index(body, "\n"); i >= 0 {
				body = body[i+1:]
			} else {
				body = ""
			}
		}
	}

	tmpl.Body = strings.TrimSpace(body)
	if tmpl.Body == "" {
		return nil, fmt.Errorf("template has no body")
	}
	return tmpl, nil
}

// Render executes the template body against the given data.
func (t *Template) Render(data map[string]any) (string, error) {
	tmpl, err := template.New(t.Name).Funcs(templateFuncs()).Option("missingkey=zero").Parse(t.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", t.Name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", t.Name, err)
	}
	return buf.String(), nil
}

// templateFuncs returns helper functions available in template bodies.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"trim":  strings.TrimSpace,
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
		"join":  strings.Join,
		"default": func(defaultVal, val string) string {
			if val == "" {
				return defaultVal
			}
			return val
		},
	}
}
