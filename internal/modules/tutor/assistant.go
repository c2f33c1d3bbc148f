package tutor

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/ottolearn-tutor/internal/modules/tutor/prompts"
	"github.com/yungbote/ottolearn-tutor/internal/modules/tutor/vectors"
	"github.com/yungbote/ottolearn-tutor/internal/observability"
	nberrors "github.com/yungbote/ottolearn-tutor/internal/pkg/errors"
	"github.com/yungbote/ottolearn-tutor/internal/platform/logger"
)

const FallbackAnswer = "I don't have enough details in the course materials to answer that. Could you try asking about another topic covered here?"

type Stage string

const (
	StageSanitizing Stage = "sanitizing"
	StageEmbedding  Stage = "embedding"
	StageRetrieving Stage = "retrieving"
	StageFallback   Stage = "fallback"
	StageComposing  Stage = "composing"
	StageGenerating Stage = "generating"
	StageDone       Stage = "done"
	StageFailed     Stage = "failed"
)

type ConversationTurn = prompts.Turn

type AskRequest struct {
	CourseID      string
	CourseTitle   string
	Question      string
	UserID        string
	Conversation  []ConversationTurn
	Summary       string
	PersonaPrompt string
}

type AskResult struct {
	Answer string `json:"answer"`
}

type ContextFetcher interface {
	FetchRelevantContexts(ctx context.Context, courseID string, queryEmbedding []float32) ([]QueryContext, error)
}

type AssistantDeps struct {
	Log       *logger.Logger
	Embedder  Embedder
	Generator Generator
	Retriever ContextFetcher
	Scrubber  Scrubber
	Usage     UsageLogger
	Now       func() time.Time
}

type Assistant struct {
	log       *logger.Logger
	embedder  Embedder
	generator Generator
	retriever ContextFetcher
	scrubber  Scrubber
	usage     UsageLogger
	now       func() time.Time
}

func NewAssistant(deps AssistantDeps) *Assistant {
	a := &Assistant{
		log:       deps.Log.With("service", "Assistant"),
		embedder:  deps.Embedder,
		generator: deps.Generator,
		retriever: deps.Retriever,
		scrubber:  deps.Scrubber,
		usage:     deps.Usage,
		now:       deps.Now,
	}
	if a.scrubber == nil {
		a.scrubber = RegexScrubber{}
	}
	if a.usage == nil {
		a.usage = nopUsageLogger{}
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

// askRun is the per-request state machine.
type askRun struct {
	req      AskRequest
	question string
	stage    Stage
	last     Stage
	contexts []QueryContext
}

func (r *askRun) enter(s Stage) {
	r.stage = s
	r.last = s
}

// Ask answers a learner question from the course's own material. Every request that gets
// past sanitization is usage-logged exactly once, success or fail.
func (a *Assistant) Ask(ctx context.Context, req AskRequest) (AskResult, error) {
	ctx, span := observability.StartSpan(ctx, "tutor.ask",
		attribute.String("course.id", req.CourseID),
	)
	run := &askRun{req: req}

	run.enter(StageSanitizing)
	run.question = strings.TrimSpace(a.scrubber.Scrub(req.Question))
	if run.question == "" {
		run.stage = StageFailed
		observability.EndSpan(span, ErrEmptyQuestion)
		return AskResult{}, ErrEmptyQuestion
	}

	start := a.now()
	res, err := a.answer(ctx, run)

	ev := UsageEvent{
		EventID:    uuid.New(),
		UserID:     req.UserID,
		CourseID:   req.CourseID,
		Outcome:    OutcomeSuccess,
		Stage:      run.last,
		Fallback:   run.last == StageFallback,
		Contexts:   len(run.contexts),
		Duration:   a.now().Sub(start),
		OccurredAt: a.now(),
	}
	if err != nil {
		run.stage = StageFailed
		ev.Outcome = OutcomeFail
		ev.ErrorKind = errorKind(err)
		a.log.Warn("Course assistant request failed",
			"course_id", req.CourseID,
			"user_id", req.UserID,
			"stage", string(run.last),
			"error", err,
		)
	} else {
		run.stage = StageDone
	}
	a.logUsage(ev)

	span.SetAttributes(
		attribute.String("tutor.stage", string(run.last)),
		attribute.Int("tutor.contexts", len(run.contexts)),
	)
	observability.EndSpan(span, err)
	if err != nil {
		return AskResult{}, err
	}
	return res, nil
}

func (a *Assistant) answer(ctx context.Context, run *askRun) (AskResult, error) {
	run.enter(StageEmbedding)
	var embedding []float32
	err := a.stage(ctx, run.stage, func(ctx context.Context) error {
		var err error
		embedding, err = a.embedder.Embed(ctx, run.question)
		if err != nil {
			return providerErr(ProviderEmbedding, err)
		}
		// A malformed vector is the provider's fault, not the caller's.
		embedding, err = vectors.Normalize(embedding)
		return providerErr(ProviderEmbedding, err)
	})
	if err != nil {
		return AskResult{}, err
	}

	run.enter(StageRetrieving)
	err = a.stage(ctx, run.stage, func(ctx context.Context) error {
		var err error
		run.contexts, err = a.retriever.FetchRelevantContexts(ctx, run.req.CourseID, embedding)
		return err
	})
	if err != nil {
		return AskResult{}, err
	}

	if len(run.contexts) == 0 {
		run.enter(StageFallback)
		a.log.Info("No course contexts matched; using fallback answer", "course_id", run.req.CourseID)
		return AskResult{Answer: FallbackAnswer}, nil
	}

	run.enter(StageComposing)
	texts := make([]string, 0, len(run.contexts))
	for _, c := range run.contexts {
		texts = append(texts, c.Content)
	}
	prompt := prompts.Build(prompts.Input{
		CourseTitle:   run.req.CourseTitle,
		Question:      run.question,
		Contexts:      texts,
		Summary:       run.req.Summary,
		Conversation:  run.req.Conversation,
		PersonaPrompt: run.req.PersonaPrompt,
	})

	run.enter(StageGenerating)
	var answer string
	err = a.stage(ctx, run.stage, func(ctx context.Context) error {
		var err error
		answer, err = a.generator.Generate(ctx, prompt)
		if err == nil && strings.TrimSpace(answer) == "" {
			err = ErrEmptyGeneration
		}
		return providerErr(ProviderGeneration, err)
	})
	if err != nil {
		return AskResult{}, err
	}
	return AskResult{Answer: answer}, nil
}

// stage runs fn under its own span after checking that ctx is still live.
func (a *Assistant) stage(ctx context.Context, s Stage, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx, span := observability.StartSpan(ctx, "tutor."+string(s))
	err := fn(ctx)
	observability.EndSpan(span, err)
	return err
}

// logUsage hands the event to the usage logger. A panicking logger must not turn a
// finished request into a failure.
func (a *Assistant) logUsage(ev UsageEvent) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("Usage logger panicked", "panic", r)
		}
	}()
	a.usage.Log(ev)
}

func errorKind(err error) string {
	switch {
	case IsEmbeddingFailure(err):
		return "embedding_provider_error"
	case IsGenerationFailure(err):
		return "generation_provider_error"
	case errors.Is(err, context.DeadlineExceeded):
		return "deadline_exceeded"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, nberrors.ErrValidation):
		return "validation"
	case errors.Is(err, nberrors.ErrStore):
		return "store_error"
	default:
		return "unknown"
	}
}
