package repair

import "fmt"

// UnparsableError indicates model output that could not be repaired to valid
// JSON after both repair passes. Snippet carries the head of the offending
// text for diagnostics.
type UnparsableError struct {
	Reason  string
	Snippet string
}

func (e *UnparsableError) Error() string {
	if e.Snippet != "" {
		return fmt.Sprintf("unparsable model response: %s (snippet: %q)", e.Reason, e.Snippet)
	}
	return fmt.Sprintf("unparsable model response: %s", e.Reason)
}
