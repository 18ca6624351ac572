package analysis

import "fmt"

// ModelError wraps a model invocation failure in a pipeline step. The
// provider layer has already retried, so callers treat it as final for the
// turn.
type ModelError struct {
	Step string
	Err  error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("%s: model call failed: %v", e.Step, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// ClassificationError reports model output that could not be mapped to the
// step's expected label domain. Raw carries the unparsed output for
// diagnosis.
type ClassificationError struct {
	Step   string
	Raw    string
	Reason string
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("%s: unusable model output (%s): %q", e.Step, e.Reason, truncate(e.Raw, 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
