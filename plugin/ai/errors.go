package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrNoProvider is returned when the gateway has nothing to call.
	ErrNoProvider = errors.New("no language model provider configured")

	errEmptyCompletion = errors.New("empty completion")
)

// ProviderError reports a failed upstream completion call.
type ProviderError struct {
	Provider string
	// StatusCode is the upstream HTTP status, 0 for transport failures.
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider %s failed with status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("provider %s failed: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsProviderError reports whether err carries a *ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
