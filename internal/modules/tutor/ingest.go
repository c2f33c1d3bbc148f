package tutor

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	chunkrepo "github.com/yungbote/ottolearn-tutor/internal/data/repos/course"
	"github.com/yungbote/ottolearn-tutor/internal/observability"
	"github.com/yungbote/ottolearn-tutor/internal/platform/dbctx"
	"github.com/yungbote/ottolearn-tutor/internal/platform/logger"
)

const (
	DefaultEmbedBatchSize   = 64
	DefaultEmbedConcurrency = 4
)

// ChunkInput is one chunk as supplied by an ingestion caller. Chunks without an
// embedding are embedded from their content before the store is touched.
type ChunkInput struct {
	ChunkID   string    `json:"chunk_id" yaml:"chunk_id"`
	Position  float64   `json:"position" yaml:"position"`
	Content   string    `json:"content" yaml:"content"`
	Embedding []float32 `json:"embedding,omitempty" yaml:"embedding,omitempty"`
}

type ChunkReplacer interface {
	ReplaceCourseChunks(dbc dbctx.Context, courseID string, chunks []chunkrepo.ChunkRecord) (chunkrepo.ReplaceStats, error)
}

type IngestDeps struct {
	Log      *logger.Logger
	Chunks   ChunkReplacer
	Embedder BatchEmbedder
	// EmbedBatchSize is the number of texts per embedding call.
	EmbedBatchSize   int
	EmbedConcurrency int
}

type IngestService struct {
	log         *logger.Logger
	chunks      ChunkReplacer
	embedder    BatchEmbedder
	batchSize   int
	concurrency int
}

func NewIngestService(deps IngestDeps) *IngestService {
	s := &IngestService{
		log:         deps.Log.With("service", "IngestService"),
		chunks:      deps.Chunks,
		embedder:    deps.Embedder,
		batchSize:   deps.EmbedBatchSize,
		concurrency: deps.EmbedConcurrency,
	}
	if s.batchSize <= 0 {
		s.batchSize = DefaultEmbedBatchSize
	}
	if s.concurrency <= 0 {
		s.concurrency = DefaultEmbedConcurrency
	}
	return s
}

// Replace swaps the chunk set of courseID for chunks.
func (s *IngestService) Replace(ctx context.Context, courseID string, chunks []ChunkInput) (chunkrepo.ReplaceStats, error) {
	ctx, span := observability.StartSpan(ctx, "tutor.ingest",
		attribute.String("course.id", courseID),
		attribute.Int("tutor.chunks", len(chunks)),
	)
	stats, err := s.replace(ctx, courseID, chunks)
	observability.EndSpan(span, err)
	return stats, err
}

func (s *IngestService) replace(ctx context.Context, courseID string, chunks []ChunkInput) (chunkrepo.ReplaceStats, error) {
	courseID = strings.TrimSpace(courseID)
	if courseID == "" {
		return chunkrepo.ReplaceStats{}, &chunkrepo.InvalidIngestionInputError{Reason: "course id is required"}
	}
	if len(chunks) == 0 {
		return chunkrepo.ReplaceStats{}, &chunkrepo.InvalidIngestionInputError{Reason: "no chunks generated from course material"}
	}

	records := make([]chunkrepo.ChunkRecord, len(chunks))
	var missing []int
	for i, ch := range chunks {
		content := strings.TrimSpace(ch.Content)
		if content == "" {
			return chunkrepo.ReplaceStats{}, &chunkrepo.InvalidIngestionInputError{
				Reason: fmt.Sprintf("chunk %d (%q) has no content", i, ch.ChunkID),
			}
		}
		records[i] = chunkrepo.ChunkRecord{
			ChunkID:   ch.ChunkID,
			CourseID:  courseID,
			Position:  ch.Position,
			Content:   content,
			Embedding: ch.Embedding,
		}
		if len(ch.Embedding) == 0 {
			missing = append(missing, i)
		}
	}

	if len(missing) > 0 {
		if s.embedder == nil {
			return chunkrepo.ReplaceStats{}, &chunkrepo.InvalidIngestionInputError{
				Reason: fmt.Sprintf("%d chunks have no embedding and no embedder is configured", len(missing)),
			}
		}
		if err := s.embedMissing(ctx, records, missing); err != nil {
			return chunkrepo.ReplaceStats{}, err
		}
	}

	stats, err := s.chunks.ReplaceCourseChunks(dbctx.Context{Ctx: ctx}, courseID, records)
	if err != nil {
		return chunkrepo.ReplaceStats{}, err
	}
	s.log.Info("Course chunks replaced",
		"course_id", courseID,
		"chunks", len(records),
		"embedded", len(missing),
		"deleted", stats.Deleted,
		"batches", len(stats.Batches),
	)
	return stats, nil
}

// embedMissing fills records[idx].Embedding for every idx in missing, batchSize texts per
// call and at most concurrency calls in flight.
func (s *IngestService) embedMissing(ctx context.Context, records []chunkrepo.ChunkRecord, missing []int) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for start := 0; start < len(missing); start += s.batchSize {
		batch := missing[start:min(start+s.batchSize, len(missing))]
		g.Go(func() error {
			texts := make([]string, len(batch))
			for j, idx := range batch {
				texts[j] = records[idx].Content
			}
			vecs, err := s.embedder.EmbedBatch(gctx, texts)
			if err != nil {
				return providerErr(ProviderEmbedding, err)
			}
			if len(vecs) != len(batch) {
				return providerErr(ProviderEmbedding, fmt.Errorf("embedding count mismatch (got %d want %d)", len(vecs), len(batch)))
			}
			for j, idx := range batch {
				records[idx].Embedding = vecs[j]
			}
			return nil
		})
	}
	return g.Wait()
}
