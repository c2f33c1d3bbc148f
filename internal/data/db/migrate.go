package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/ottolearn-tutor/internal/domain/course"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&course.CourseChunk{},
		&course.RagUsageEvent{},
	); err != nil {
		return err
	}
	if db.Dialector.Name() == DialectPostgres {
		return EnsureVectorIndexes(db)
	}
	return nil
}

func EnsureVectorIndexes(db *gorm.DB) error {
	// Cosine-distance ANN index backing the `<=>` ordering used by retrieval.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_course_chunks_embedding_hnsw
		ON course_chunks
		USING hnsw (embedding vector_cosine_ops);
	`).Error; err != nil {
		return fmt.Errorf("create idx_course_chunks_embedding_hnsw: %w", err)
	}
	return nil
}
