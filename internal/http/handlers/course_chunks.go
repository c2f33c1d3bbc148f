package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	chunkrepo "github.com/yungbote/ottolearn-tutor/internal/data/repos/course"
	"github.com/yungbote/ottolearn-tutor/internal/http/response"
	"github.com/yungbote/ottolearn-tutor/internal/modules/tutor"
	"github.com/yungbote/ottolearn-tutor/internal/platform/logger"
)

const maxChunksPerRequest = 10000

type ChunkIngester interface {
	Replace(ctx context.Context, courseID string, chunks []tutor.ChunkInput) (chunkrepo.ReplaceStats, error)
}

type CourseChunkHandler struct {
	log    *logger.Logger
	ingest ChunkIngester
}

func NewCourseChunkHandler(log *logger.Logger, ingest ChunkIngester) *CourseChunkHandler {
	return &CourseChunkHandler{log: log.With("handler", "CourseChunkHandler"), ingest: ingest}
}

type replaceChunksRequest struct {
	Chunks []tutor.ChunkInput `json:"chunks"`
}

type replaceChunksResponse struct {
	CourseID string `json:"course_id"`
	Deleted  int64  `json:"deleted"`
	Inserted int    `json:"inserted"`
	Batches  []int  `json:"batches"`
}

// PUT /api/courses/:courseId/chunks
func (h *CourseChunkHandler) ReplaceChunks(c *gin.Context) {
	courseID := strings.TrimSpace(c.Param("courseId"))
	var req replaceChunksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if len(req.Chunks) > maxChunksPerRequest {
		response.RespondError(c, http.StatusRequestEntityTooLarge, "too_many_chunks",
			errors.New("too many chunks in one request"))
		return
	}

	stats, err := h.ingest.Replace(c.Request.Context(), courseID, req.Chunks)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	batches := stats.Batches
	if batches == nil {
		batches = []int{}
	}
	response.RespondOK(c, replaceChunksResponse{
		CourseID: courseID,
		Deleted:  stats.Deleted,
		Inserted: stats.Inserted,
		Batches:  batches,
	})
}
