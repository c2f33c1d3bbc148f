package course

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/ottolearn-tutor/internal/domain/course"
	"github.com/yungbote/ottolearn-tutor/internal/platform/dbctx"
	"github.com/yungbote/ottolearn-tutor/internal/platform/logger"
)

type RagUsageEventRepo interface {
	Create(dbc dbctx.Context, ev *types.RagUsageEvent) error
	ListByUser(dbc dbctx.Context, userID string, limit int) ([]*types.RagUsageEvent, error)
	CountByOutcome(dbc dbctx.Context, courseID string) (map[string]int64, error)
}

type ragUsageEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRagUsageEventRepo(db *gorm.DB, baseLog *logger.Logger) RagUsageEventRepo {
	return &ragUsageEventRepo{db: db, log: baseLog.With("repo", "RagUsageEventRepo")}
}

func (r *ragUsageEventRepo) Create(dbc dbctx.Context, ev *types.RagUsageEvent) error {
	if ev == nil {
		return nil
	}
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	if err := dbc.DB(r.db).Create(ev).Error; err != nil {
		return storeErr("usage insert", err)
	}
	return nil
}

func (r *ragUsageEventRepo) ListByUser(dbc dbctx.Context, userID string, limit int) ([]*types.RagUsageEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []*types.RagUsageEvent
	if err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("occurred_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, storeErr("usage list", err)
	}
	return out, nil
}

// CountByOutcome returns outcome -> count for courseID; an empty courseID counts everything.
func (r *ragUsageEventRepo) CountByOutcome(dbc dbctx.Context, courseID string) (map[string]int64, error) {
	type row struct {
		Outcome string
		N       int64
	}
	q := dbc.DB(r.db).Model(&types.RagUsageEvent{}).Select("outcome, COUNT(*) AS n")
	if courseID != "" {
		q = q.Where("course_id = ?", courseID)
	}
	var rows []row
	if err := q.Group("outcome").Scan(&rows).Error; err != nil {
		return nil, storeErr("usage count", err)
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Outcome] = r.N
	}
	return out, nil
}
