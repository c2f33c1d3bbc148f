package handlers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/ottolearn-tutor/internal/http/response"
	"github.com/yungbote/ottolearn-tutor/internal/modules/tutor"
	"github.com/yungbote/ottolearn-tutor/internal/platform/logger"
)

type CourseCatalog interface {
	CourseChunks(ctx context.Context, courseID string) ([]tutor.ChunkSummary, error)
	CourseStats(ctx context.Context, courseID string) (tutor.CourseStats, error)
}

type CourseCatalogHandler struct {
	log     *logger.Logger
	catalog CourseCatalog
}

func NewCourseCatalogHandler(log *logger.Logger, catalog CourseCatalog) *CourseCatalogHandler {
	return &CourseCatalogHandler{log: log.With("handler", "CourseCatalogHandler"), catalog: catalog}
}

// GET /api/courses/:courseId/chunks
func (h *CourseCatalogHandler) ListChunks(c *gin.Context) {
	courseID := strings.TrimSpace(c.Param("courseId"))
	chunks, err := h.catalog.CourseChunks(c.Request.Context(), courseID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"course_id": courseID,
		"count":     len(chunks),
		"chunks":    chunks,
	})
}

// GET /api/courses/:courseId/stats
func (h *CourseCatalogHandler) Stats(c *gin.Context) {
	st, err := h.catalog.CourseStats(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, st)
}
