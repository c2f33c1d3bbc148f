package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	chunkrepo "github.com/yungbote/ottolearn-tutor/internal/data/repos/course"
	types "github.com/yungbote/ottolearn-tutor/internal/domain/course"
	"github.com/yungbote/ottolearn-tutor/internal/modules/tutor"
	"github.com/yungbote/ottolearn-tutor/internal/platform/dbctx"
	"github.com/yungbote/ottolearn-tutor/internal/platform/logger"
	"github.com/yungbote/ottolearn-tutor/internal/platform/redis"
)

const (
	DefaultUsageQueueSize   = 1024
	DefaultUsageSinkTimeout = 5 * time.Second
)

// UsageSink persists or forwards one usage event.
type UsageSink interface {
	Name() string
	Write(ctx context.Context, ev tutor.UsageEvent) error
}

type UsageLoggerOptions struct {
	QueueSize   int
	SinkTimeout time.Duration
}

// UsageLogger fans usage events out to its sinks on one background goroutine.
// Log never blocks: when the queue is full or the logger is closed the event is dropped.
type UsageLogger struct {
	log         *logger.Logger
	sinks       []UsageSink
	queue       chan tutor.UsageEvent
	sinkTimeout time.Duration

	mu      sync.RWMutex
	closed  bool
	done    chan struct{}
	dropped atomic.Int64
}

func NewUsageLogger(baseLog *logger.Logger, opts UsageLoggerOptions, sinks ...UsageSink) *UsageLogger {
	size := opts.QueueSize
	if size <= 0 {
		size = DefaultUsageQueueSize
	}
	timeout := opts.SinkTimeout
	if timeout <= 0 {
		timeout = DefaultUsageSinkTimeout
	}
	u := &UsageLogger{
		log:         baseLog.With("service", "UsageLogger"),
		sinks:       sinks,
		queue:       make(chan tutor.UsageEvent, size),
		sinkTimeout: timeout,
		done:        make(chan struct{}),
	}
	go u.run()
	return u
}

func (u *UsageLogger) Log(ev tutor.UsageEvent) {
	if ev.EventID == uuid.Nil {
		ev.EventID = uuid.New()
	}
	u.mu.RLock()
	defer u.mu.RUnlock()
	if u.closed {
		u.drop(ev, "closed")
		return
	}
	select {
	case u.queue <- ev:
	default:
		u.drop(ev, "queue_full")
	}
}

func (u *UsageLogger) drop(ev tutor.UsageEvent, reason string) {
	u.dropped.Add(1)
	u.log.Warn("Usage event dropped",
		"reason", reason,
		"user_id", ev.UserID,
		"outcome", string(ev.Outcome),
	)
}

// Dropped reports how many events were discarded.
func (u *UsageLogger) Dropped() int64 { return u.dropped.Load() }

// Close stops intake and waits for queued events to drain, or for ctx to end.
func (u *UsageLogger) Close(ctx context.Context) error {
	u.mu.Lock()
	if !u.closed {
		u.closed = true
		close(u.queue)
	}
	u.mu.Unlock()

	select {
	case <-u.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("usage logger drain: %w", ctx.Err())
	}
}

func (u *UsageLogger) run() {
	defer close(u.done)
	for ev := range u.queue {
		for _, s := range u.sinks {
			u.write(s, ev)
		}
	}
}

func (u *UsageLogger) write(s UsageSink, ev tutor.UsageEvent) {
	defer func() {
		if r := recover(); r != nil {
			u.log.Error("Usage sink panicked", "sink", s.Name(), "panic", r)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), u.sinkTimeout)
	defer cancel()
	if err := s.Write(ctx, ev); err != nil {
		u.log.Warn("Usage sink write failed", "sink", s.Name(), "error", err)
	}
}

// -------------------- sinks --------------------

// LogUsageSink writes one structured log line per event.
type LogUsageSink struct {
	Log *logger.Logger
}

func (LogUsageSink) Name() string { return "log" }

func (s LogUsageSink) Write(_ context.Context, ev tutor.UsageEvent) error {
	s.Log.Info("rag_usage",
		"user_id", ev.UserID,
		"course_id", ev.CourseID,
		"outcome", string(ev.Outcome),
		"stage", string(ev.Stage),
		"fallback", ev.Fallback,
		"contexts", ev.Contexts,
		"duration_ms", ev.Duration.Milliseconds(),
		"error_kind", ev.ErrorKind,
	)
	return nil
}

type DBUsageSink struct {
	Repo chunkrepo.RagUsageEventRepo
}

func (DBUsageSink) Name() string { return "db" }

func (s DBUsageSink) Write(ctx context.Context, ev tutor.UsageEvent) error {
	meta, err := json.Marshal(map[string]any{
		"stage":       string(ev.Stage),
		"fallback":    ev.Fallback,
		"contexts":    ev.Contexts,
		"duration_ms": ev.Duration.Milliseconds(),
		"error_kind":  ev.ErrorKind,
	})
	if err != nil {
		return err
	}
	return s.Repo.Create(dbctx.Context{Ctx: ctx}, &types.RagUsageEvent{
		ID:         ev.EventID,
		UserID:     ev.UserID,
		CourseID:   ev.CourseID,
		Outcome:    string(ev.Outcome),
		Metadata:   datatypes.JSON(meta),
		OccurredAt: ev.OccurredAt.UTC(),
	})
}

type StreamPublisher interface {
	Publish(ctx context.Context, e redis.UsageEntry) error
}

type RedisUsageSink struct {
	Stream StreamPublisher
}

func (RedisUsageSink) Name() string { return "redis" }

func (s RedisUsageSink) Write(ctx context.Context, ev tutor.UsageEvent) error {
	var id string
	if ev.EventID != uuid.Nil {
		id = ev.EventID.String()
	}
	return s.Stream.Publish(ctx, redis.UsageEntry{
		EventID:    id,
		UserID:     ev.UserID,
		CourseID:   ev.CourseID,
		Outcome:    string(ev.Outcome),
		Stage:      string(ev.Stage),
		OccurredAt: ev.OccurredAt,
	})
}
