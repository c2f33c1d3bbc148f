package tutor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/ottolearn-tutor/internal/modules/tutor/vectors"
	"github.com/yungbote/ottolearn-tutor/internal/platform/openai"
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Scrubber interface {
	Scrub(text string) string
}

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFail    Outcome = "fail"
)

// UsageEvent is recorded once per request that reached the embedding stage.
// EventID is shared by every sink so one request can be joined across them.
type UsageEvent struct {
	EventID    uuid.UUID
	UserID     string
	CourseID   string
	Outcome    Outcome
	Stage      Stage
	Fallback   bool
	Contexts   int
	Duration   time.Duration
	OccurredAt time.Time
	ErrorKind  string
}

// UsageLogger must not block the caller and must not fail the request.
type UsageLogger interface {
	Log(ev UsageEvent)
}

type OpenAIEmbedder struct {
	Client openai.Client
}

func (e OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.Client.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("expected 1 embedding, got %d", len(out))
	}
	return vectors.NormalizeFloat64(out[0])
}

func (e OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	raw, err := e.Client.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	out := make([][]float32, len(raw))
	for i, v := range raw {
		if out[i], err = vectors.NormalizeFloat64(v); err != nil {
			return nil, fmt.Errorf("embedding %d: %w", i, err)
		}
	}
	return out, nil
}

type OpenAIGenerator struct {
	Client openai.Client
}

func (g OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.Client.GenerateText(ctx, "", prompt)
}

type nopUsageLogger struct{}

func (nopUsageLogger) Log(UsageEvent) {}
