package tutor

import (
	"errors"
	"fmt"

	nberrors "github.com/yungbote/ottolearn-tutor/internal/pkg/errors"
)

var (
	ErrEmptyQuestion   = fmt.Errorf("question is empty after sanitization: %w", nberrors.ErrValidation)
	ErrEmptyGeneration = errors.New("generation returned empty text")
	ErrMissingCourse   = fmt.Errorf("course id is required: %w", nberrors.ErrValidation)
)

const (
	ProviderEmbedding  = "embedding"
	ProviderGeneration = "generation"
)

// ProviderError marks a failure of an external embedding or generation call.
// errors.Is(err, nberrors.ErrProvider) holds, and the provider's own error stays reachable.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() []error { return []error{nberrors.ErrProvider, e.Err} }

func providerErr(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: provider, Err: err}
}

// IsEmbeddingFailure reports whether err came from the embedding provider.
func IsEmbeddingFailure(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Provider == ProviderEmbedding
}

// IsGenerationFailure reports whether err came from the generation provider.
func IsGenerationFailure(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Provider == ProviderGeneration
}
