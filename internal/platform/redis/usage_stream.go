package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/ottolearn-tutor/internal/platform/logger"
)

const DefaultUsageStream = "tutor:rag_usage"

// UsageEntry is one usage event as written to the stream. Fields become XADD values.
type UsageEntry struct {
	EventID    string
	UserID     string
	CourseID   string
	Outcome    string
	Stage      string
	OccurredAt time.Time
}

type UsageStream struct {
	log    *logger.Logger
	rdb    *goredis.Client
	stream string
	maxLen int64
}

type StreamOptions struct {
	Addr     string
	Password string
	DB       int
	Stream   string
	// MaxLen caps the stream approximately (XADD MAXLEN ~); 0 leaves it unbounded.
	MaxLen int64
}

func NewUsageStream(ctx context.Context, log *logger.Logger, opts StreamOptions) (*UsageStream, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	stream := strings.TrimSpace(opts.Stream)
	if stream == "" {
		stream = DefaultUsageStream
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &UsageStream{
		log:    log.With("service", "RedisUsageStream"),
		rdb:    rdb,
		stream: stream,
		maxLen: opts.MaxLen,
	}, nil
}

func (s *UsageStream) Publish(ctx context.Context, e UsageEntry) error {
	if s == nil || s.rdb == nil {
		return fmt.Errorf("redis usage stream not initialized")
	}
	args := &goredis.XAddArgs{
		Stream: s.stream,
		Values: entryValues(e),
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	return s.rdb.XAdd(ctx, args).Err()
}

func (s *UsageStream) Stream() string { return s.stream }

func (s *UsageStream) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

func entryValues(e UsageEntry) map[string]any {
	at := e.OccurredAt
	if at.IsZero() {
		at = time.Now()
	}
	vals := map[string]any{
		"user_id":     e.UserID,
		"outcome":     e.Outcome,
		"occurred_at": at.UTC().Format(time.RFC3339Nano),
	}
	if e.EventID != "" {
		vals["event_id"] = e.EventID
	}
	if e.CourseID != "" {
		vals["course_id"] = e.CourseID
	}
	if e.Stage != "" {
		vals["stage"] = e.Stage
	}
	return vals
}
