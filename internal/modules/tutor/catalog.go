package tutor

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	types "github.com/yungbote/ottolearn-tutor/internal/domain/course"
	"github.com/yungbote/ottolearn-tutor/internal/platform/dbctx"
	"github.com/yungbote/ottolearn-tutor/internal/platform/logger"
)

type ChunkLister interface {
	ListByCourse(dbc dbctx.Context, courseID string) ([]*types.CourseChunk, error)
	CountByCourse(dbc dbctx.Context, courseID string) (int64, error)
}

type UsageReader interface {
	ListByUser(dbc dbctx.Context, userID string, limit int) ([]*types.RagUsageEvent, error)
	CountByOutcome(dbc dbctx.Context, courseID string) (map[string]int64, error)
}

type ChunkSummary struct {
	ChunkID   string    `json:"chunk_id"`
	Position  int       `json:"position"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CourseStats struct {
	CourseID string           `json:"course_id"`
	Chunks   int64            `json:"chunks"`
	Outcomes map[string]int64 `json:"outcomes"`
}

type UsageRecord struct {
	CourseID   string         `json:"course_id"`
	Outcome    string         `json:"outcome"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Catalog is the read side over stored chunks and usage events.
type Catalog struct {
	log    *logger.Logger
	chunks ChunkLister
	usage  UsageReader
}

func NewCatalog(log *logger.Logger, chunks ChunkLister, usage UsageReader) *Catalog {
	return &Catalog{log: log.With("service", "Catalog"), chunks: chunks, usage: usage}
}

// CourseChunks lists a course's chunks in position order.
func (c *Catalog) CourseChunks(ctx context.Context, courseID string) ([]ChunkSummary, error) {
	courseID = strings.TrimSpace(courseID)
	if courseID == "" {
		return nil, ErrMissingCourse
	}
	rows, err := c.chunks.ListByCourse(dbctx.Context{Ctx: ctx}, courseID)
	if err != nil {
		return nil, err
	}
	out := make([]ChunkSummary, 0, len(rows))
	for _, r := range rows {
		if r == nil {
			continue
		}
		out = append(out, ChunkSummary{
			ChunkID:   r.ChunkID,
			Position:  r.Position,
			Content:   r.Content,
			UpdatedAt: r.UpdatedAt,
		})
	}
	return out, nil
}

func (c *Catalog) CourseStats(ctx context.Context, courseID string) (CourseStats, error) {
	courseID = strings.TrimSpace(courseID)
	if courseID == "" {
		return CourseStats{}, ErrMissingCourse
	}
	dbc := dbctx.Context{Ctx: ctx}
	n, err := c.chunks.CountByCourse(dbc, courseID)
	if err != nil {
		return CourseStats{}, err
	}
	outcomes, err := c.usage.CountByOutcome(dbc, courseID)
	if err != nil {
		return CourseStats{}, err
	}
	return CourseStats{CourseID: courseID, Chunks: n, Outcomes: outcomes}, nil
}

// RecentUsage returns the newest usage events of userID, newest first.
func (c *Catalog) RecentUsage(ctx context.Context, userID string, limit int) ([]UsageRecord, error) {
	rows, err := c.usage.ListByUser(dbctx.Context{Ctx: ctx}, strings.TrimSpace(userID), limit)
	if err != nil {
		return nil, err
	}
	out := make([]UsageRecord, 0, len(rows))
	for _, r := range rows {
		if r == nil {
			continue
		}
		rec := UsageRecord{CourseID: r.CourseID, Outcome: r.Outcome, OccurredAt: r.OccurredAt}
		if len(r.Metadata) > 0 {
			if err := json.Unmarshal(r.Metadata, &rec.Metadata); err != nil {
				c.log.Warn("Skipping unreadable usage metadata", "error", err)
			}
		}
		out = append(out, rec)
	}
	return out, nil
}
