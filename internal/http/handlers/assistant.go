package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/ottolearn-tutor/internal/http/response"
	"github.com/yungbote/ottolearn-tutor/internal/modules/tutor"
	"github.com/yungbote/ottolearn-tutor/internal/platform/ctxutil"
	"github.com/yungbote/ottolearn-tutor/internal/platform/logger"
)

type CourseAssistant interface {
	Ask(ctx context.Context, req tutor.AskRequest) (tutor.AskResult, error)
}

type AssistantHandler struct {
	log       *logger.Logger
	assistant CourseAssistant
}

func NewAssistantHandler(log *logger.Logger, assistant CourseAssistant) *AssistantHandler {
	return &AssistantHandler{log: log.With("handler", "AssistantHandler"), assistant: assistant}
}

type askRequest struct {
	Question      string                   `json:"question"`
	CourseTitle   string                   `json:"course_title"`
	Summary       string                   `json:"summary"`
	PersonaPrompt string                   `json:"persona_prompt"`
	Conversation  []tutor.ConversationTurn `json:"conversation"`
}

// POST /api/courses/:courseId/assistant/ask
func (h *AssistantHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	for i, turn := range req.Conversation {
		if turn.Role != "user" && turn.Role != "assistant" {
			response.RespondError(c, http.StatusBadRequest, "invalid_request",
				fmt.Errorf("conversation[%d].role must be \"user\" or \"assistant\"", i))
			return
		}
	}

	res, err := h.assistant.Ask(c.Request.Context(), tutor.AskRequest{
		CourseID:      strings.TrimSpace(c.Param("courseId")),
		CourseTitle:   req.CourseTitle,
		Question:      req.Question,
		UserID:        ctxutil.UserID(c.Request.Context()),
		Conversation:  req.Conversation,
		Summary:       req.Summary,
		PersonaPrompt: req.PersonaPrompt,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}
