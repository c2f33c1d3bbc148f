package course

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	UsageOutcomeSuccess = "success"
	UsageOutcomeFail    = "fail"
)

// RagUsageEvent records the outcome of one assistant request.
type RagUsageEvent struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     string         `gorm:"column:user_id;type:text;not null;index" json:"user_id"`
	CourseID   string         `gorm:"column:course_id;type:text;index" json:"course_id,omitempty"`
	Outcome    string         `gorm:"column:outcome;type:text;not null;index" json:"outcome"`
	Metadata   datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	OccurredAt time.Time      `gorm:"column:occurred_at;not null;index" json:"occurred_at"`
}

func (RagUsageEvent) TableName() string { return "rag_usage_events" }
