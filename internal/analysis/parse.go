package analysis

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/theramind/theramind/pkg/types"
)

var (
	trueWordRe  = regexp.MustCompile(`(?i)\btrue\b`)
	falseWordRe = regexp.MustCompile(`(?i)\bfalse\b`)
)

// stripFences removes a surrounding Markdown code fence, with or without a
// language tag.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// extractJSON returns the outermost JSON object embedded in a model reply,
// tolerating code fences and surrounding prose.
func extractJSON(raw string) (string, error) {
	s := stripFences(raw)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return "", fmt.Errorf("no JSON object in output")
	}
	return s[start : end+1], nil
}

// decodeJSON extracts and unmarshals the JSON object in a model reply.
func decodeJSON(raw string, v any) error {
	s, err := extractJSON(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(s), v)
}

// parseBool maps a model reply to a boolean. An exact true/false answer
// (case insensitive, stray punctuation ignored) wins; otherwise the reply
// decides only when exactly one of the two words appears in it.
func parseBool(raw string) (value bool, ok bool) {
	s := strings.ToLower(stripFences(raw))
	s = strings.Trim(s, " \t\n.\"'`")
	switch s {
	case "true", "yes":
		return true, true
	case "false", "no":
		return false, true
	}

	hasTrue := trueWordRe.MatchString(s)
	hasFalse := falseWordRe.MatchString(s)
	if hasTrue != hasFalse {
		return hasTrue, true
	}
	return false, false
}

// FormatDialogue renders dialogue history as speaker-prefixed lines for
// prompt interpolation.
func FormatDialogue(turns []types.DialogueTurn) string {
	if len(turns) == 0 {
		return "(no dialogue yet)"
	}
	var b strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatSessions renders closed sessions, newest last, for cross-session
// prompts.
func FormatSessions(sessions []types.SessionRecord) string {
	if len(sessions) == 0 {
		return "(no previous sessions)"
	}
	var b strings.Builder
	for i, s := range sessions {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "## Session %d (%s)\n", s.Index, s.Therapy)
		if s.Evaluation != nil && s.Evaluation.Summary != "" {
			fmt.Fprintf(&b, "Evaluation: %s\n", s.Evaluation.Summary)
		}
		b.WriteString(FormatDialogue(s.Dialogue))
	}
	return b.String()
}

// formatStrategyHistory renders a session's earlier strategy picks.
func formatStrategyHistory(history []types.StrategyResult) string {
	if len(history) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for _, s := range history {
		fmt.Fprintf(&b, "- %s: %s\n", s.Strategy, s.StrategyText)
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatPhaseHistory renders a session's stage progression.
func formatPhaseHistory(history []types.PhaseResult) string {
	if len(history) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for _, p := range history {
		fmt.Fprintf(&b, "- %s\n", p.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}
