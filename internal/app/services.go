package app

import (
	"context"
	"fmt"

	"github.com/yungbote/ottolearn-tutor/internal/modules/tutor"
	"github.com/yungbote/ottolearn-tutor/internal/platform/logger"
	"github.com/yungbote/ottolearn-tutor/internal/platform/openai"
	"github.com/yungbote/ottolearn-tutor/internal/platform/redis"
	"github.com/yungbote/ottolearn-tutor/internal/services"
)

type Services struct {
	OpenAI      openai.Client
	Auth        services.AuthService
	Usage       *services.UsageLogger
	UsageStream *redis.UsageStream
	Retriever   *tutor.Retriever
	Assistant   *tutor.Assistant
	Ingest      *tutor.IngestService
	Catalog     *tutor.Catalog
}

// wireServices returns whatever it managed to build alongside an error so the caller can
// release the usage logger and Redis connection.
func wireServices(ctx context.Context, log *logger.Logger, cfg Config, repos Repos) (Services, error) {
	log.Info("Wiring services...")
	var out Services

	sinks := []services.UsageSink{
		services.LogUsageSink{Log: log.With("sink", "rag_usage")},
		services.DBUsageSink{Repo: repos.RagUsage},
	}
	if cfg.RedisAddr != "" {
		stream, err := redis.NewUsageStream(ctx, log, redis.StreamOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Stream:   cfg.RedisUsageStream,
			MaxLen:   cfg.RedisStreamMax,
		})
		if err != nil {
			return out, fmt.Errorf("init redis usage stream: %w", err)
		}
		out.UsageStream = stream
		sinks = append(sinks, services.RedisUsageSink{Stream: stream})
	}
	out.Usage = services.NewUsageLogger(log, services.UsageLoggerOptions{QueueSize: cfg.UsageQueueSize}, sinks...)

	oa, err := openai.NewClient(log, openai.Config{
		APIKey:     cfg.OpenAIAPIKey,
		BaseURL:    cfg.OpenAIBaseURL,
		Model:      cfg.OpenAIModel,
		EmbedModel: cfg.OpenAIEmbedModel,
		Timeout:    cfg.OpenAITimeout,
		MaxRetries: cfg.OpenAIMaxRetries,
	})
	if err != nil {
		return out, fmt.Errorf("init openai: %w", err)
	}
	out.OpenAI = oa

	if cfg.JWTSecretKey != "" {
		if out.Auth, err = services.NewAuthService(log, cfg.JWTSecretKey, cfg.JWTIssuer); err != nil {
			return out, fmt.Errorf("init auth: %w", err)
		}
	}

	embedder := tutor.OpenAIEmbedder{Client: oa}
	out.Retriever = tutor.NewRetriever(log, repos.CourseChunk)
	out.Assistant = tutor.NewAssistant(tutor.AssistantDeps{
		Log:       log,
		Embedder:  embedder,
		Generator: tutor.OpenAIGenerator{Client: oa},
		Retriever: out.Retriever,
		Scrubber:  tutor.RegexScrubber{},
		Usage:     out.Usage,
	})
	out.Ingest = tutor.NewIngestService(tutor.IngestDeps{
		Log:              log,
		Chunks:           repos.CourseChunk,
		Embedder:         embedder,
		EmbedBatchSize:   cfg.EmbedBatchSize,
		EmbedConcurrency: cfg.EmbedConcurrency,
	})
	out.Catalog = tutor.NewCatalog(log, repos.CourseChunk, repos.RagUsage)
	return out, nil
}
