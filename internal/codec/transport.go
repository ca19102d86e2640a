// Package codec abstracts the model transport: one outstanding
// completion call at a time against an external LLM, returning either
// raw text or a typed error carrying an HTTP-style status code. The
// retry classification upstream depends on that status being exposed.
package codec

import (
	"context"
	"fmt"
)

// #region completion-request

// CompletionRequest is a single prompt plus externally configured
// generation parameters.
type CompletionRequest struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
	TopP        float32
}

// #endregion completion-request

// #region transport

// Transport sends one completion request per call. Implementations:
// HTTPTransport (OpenAI-style JSON endpoint) and GeminiTransport.
type Transport interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// #endregion transport

// #region transport-error

// TransportError is a failed model call. StatusCode is 0 for pure
// network failures; Timeout marks deadline or dial timeouts.
type TransportError struct {
	StatusCode int
	Timeout    bool
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("model call timed out: %v", e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("model call failed with status %d: %v", e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("model call failed: %v", e.Err)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// #endregion transport-error
