package extraction

import "fmt"

// APICallError represents an error from the Gemini API
type APICallError struct {
	Phase string
	Cause error
}

func (e *APICallError) Error() string {
	return fmt.Sprintf("%s model call failed: %v", e.Phase, e.Cause)
}

func (e *APICallError) Unwrap() error {
	return e.Cause
}

// ParseError represents an error parsing a model response
type ParseError struct {
	Phase string
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s response unparsable: %v", e.Phase, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
