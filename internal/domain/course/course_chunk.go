package course

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// CourseChunk is one retrievable fragment of course material. ChunkID is the logical identity:
// re-ingesting the same fragment overwrites its course, position, content and embedding.
type CourseChunk struct {
	ChunkID   string          `gorm:"column:chunk_id;primaryKey;type:text" json:"chunk_id"`
	CourseID  string          `gorm:"column:course_id;type:text;not null;index:idx_course_chunks_course_position,priority:1" json:"course_id"`
	Position  int             `gorm:"column:position;not null;default:0;index:idx_course_chunks_course_position,priority:2" json:"position"`
	Content   string          `gorm:"column:content;type:text;not null" json:"content"`
	Embedding pgvector.Vector `gorm:"column:embedding;type:vector(1536);not null" json:"-"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (CourseChunk) TableName() string { return "course_chunks" }
