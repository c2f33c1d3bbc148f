package tutor

import (
	"errors"
	"testing"

	nberrors "github.com/yungbote/ottolearn-tutor/internal/pkg/errors"
)

func TestProviderErrorChain(t *testing.T) {
	orig := errors.New("503 from upstream")
	err := providerErr(ProviderGeneration, orig)
	if !errors.Is(err, nberrors.ErrProvider) || !errors.Is(err, orig) {
		t.Fatalf("chain: %v", err)
	}
	if !IsGenerationFailure(err) || IsEmbeddingFailure(err) {
		t.Fatalf("provider classification wrong")
	}
	if providerErr(ProviderEmbedding, nil) != nil {
		t.Fatalf("nil error must stay nil")
	}
}
