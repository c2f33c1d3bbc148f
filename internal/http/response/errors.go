package response

import (
	"context"
	"errors"
	"net/http"

	chunkrepo "github.com/yungbote/ottolearn-tutor/internal/data/repos/course"
	"github.com/yungbote/ottolearn-tutor/internal/modules/tutor"
	"github.com/yungbote/ottolearn-tutor/internal/modules/tutor/vectors"
	nberrors "github.com/yungbote/ottolearn-tutor/internal/pkg/errors"
	"github.com/yungbote/ottolearn-tutor/internal/platform/apierr"
)

const StatusClientClosedRequest = 499

// FromError maps a service error onto an HTTP status and stable code. Upstream and store
// failures get a generic message; validation failures keep theirs.
func FromError(err error) *apierr.Error {
	if err == nil {
		return apierr.New(http.StatusInternalServerError, "internal_error", errors.New("internal error"))
	}
	if ae, ok := apierr.As(err); ok {
		return ae
	}

	var (
		dm *vectors.DimensionMismatchError
		nf *vectors.NonFiniteValueError
		ie *chunkrepo.InvalidIngestionInputError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apierr.New(http.StatusGatewayTimeout, "deadline_exceeded", errors.New("request timed out"))
	case errors.Is(err, context.Canceled):
		return apierr.New(StatusClientClosedRequest, "canceled", errors.New("request canceled"))
	case errors.Is(err, tutor.ErrEmptyQuestion):
		return apierr.New(http.StatusBadRequest, "empty_question", err)
	// Provider failures win over the validation errors they may wrap.
	case tutor.IsEmbeddingFailure(err):
		return apierr.New(http.StatusBadGateway, "embedding_provider_error", errors.New("embedding service unavailable"))
	case tutor.IsGenerationFailure(err):
		return apierr.New(http.StatusBadGateway, "generation_provider_error", errors.New("answer generation unavailable"))
	case errors.As(err, &dm):
		return apierr.New(http.StatusBadRequest, "dimension_mismatch", err)
	case errors.As(err, &nf):
		return apierr.New(http.StatusBadRequest, "non_finite_value", err)
	case errors.Is(err, vectors.ErrEmptyEmbedding):
		return apierr.New(http.StatusBadRequest, "empty_embedding", err)
	case errors.As(err, &ie):
		return apierr.New(http.StatusBadRequest, "invalid_input", err)
	case errors.Is(err, nberrors.ErrUnauthorized):
		return apierr.New(http.StatusUnauthorized, "unauthorized", errors.New("missing or invalid token"))
	case errors.Is(err, nberrors.ErrNotFound):
		return apierr.New(http.StatusNotFound, "not_found", err)
	case errors.Is(err, nberrors.ErrValidation):
		return apierr.New(http.StatusBadRequest, "invalid_input", err)
	case errors.Is(err, nberrors.ErrStore):
		return apierr.New(http.StatusInternalServerError, "store_error", errors.New("course store unavailable"))
	default:
		return apierr.New(http.StatusInternalServerError, "internal_error", errors.New("internal error"))
	}
}
