package tutor

import (
	"context"

	chunkrepo "github.com/yungbote/ottolearn-tutor/internal/data/repos/course"
	"github.com/yungbote/ottolearn-tutor/internal/platform/dbctx"
	"github.com/yungbote/ottolearn-tutor/internal/platform/logger"
)

const VectorQueryLimit = 5

// QueryContext is one retrieved chunk. Score is 1 - cosine distance.
type QueryContext struct {
	ChunkID string  `json:"chunk_id"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

type ChunkSearcher interface {
	NearestByCourse(dbc dbctx.Context, courseID string, query []float32, limit int) ([]chunkrepo.ScoredChunk, error)
}

type Retriever struct {
	log    *logger.Logger
	chunks ChunkSearcher
	limit  int
}

func NewRetriever(log *logger.Logger, chunks ChunkSearcher) *Retriever {
	return &Retriever{
		log:    log.With("service", "Retriever"),
		chunks: chunks,
		limit:  VectorQueryLimit,
	}
}

// FetchRelevantContexts returns at most VectorQueryLimit chunks of courseID, best first.
// The query embedding is validated by the store; an empty course yields an empty slice.
func (r *Retriever) FetchRelevantContexts(ctx context.Context, courseID string, queryEmbedding []float32) ([]QueryContext, error) {
	hits, err := r.chunks.NearestByCourse(dbctx.Context{Ctx: ctx}, courseID, queryEmbedding, r.limit)
	if err != nil {
		return nil, err
	}
	out := make([]QueryContext, 0, len(hits))
	for _, h := range hits {
		out = append(out, QueryContext{ChunkID: h.ChunkID, Content: h.Content, Score: h.Score})
	}
	r.log.Debug("Retrieved course contexts", "course_id", courseID, "contexts", len(out))
	return out, nil
}
