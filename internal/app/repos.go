package app

import (
	"gorm.io/gorm"

	chunkrepo "github.com/yungbote/ottolearn-tutor/internal/data/repos/course"
	"github.com/yungbote/ottolearn-tutor/internal/platform/logger"
)

type Repos struct {
	CourseChunk chunkrepo.CourseChunkRepo
	RagUsage    chunkrepo.RagUsageEventRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger, cfg Config) Repos {
	log.Info("Wiring repos...")
	return Repos{
		CourseChunk: chunkrepo.NewCourseChunkRepo(db, log, cfg.InsertBatchSize),
		RagUsage:    chunkrepo.NewRagUsageEventRepo(db, log),
	}
}
