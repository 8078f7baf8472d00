package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studytrack/planner-api/internal/dto"
	"github.com/studytrack/planner-api/internal/service"
	appErrors "github.com/studytrack/planner-api/pkg/errors"
	"github.com/studytrack/planner-api/pkg/response"
)

type plannerScheduler interface {
	Preview(ctx context.Context, studentID string, req dto.PreviewPlanRequest) (*dto.PreviewPlanResponse, error)
	Commit(ctx context.Context, studentID string, req dto.CommitPlanRequest) (*dto.CommitPlanResponse, error)
	Export(ctx context.Context, studentID string, query dto.ExportPlanQuery) (string, string, []byte, error)
}

// PlannerHandler exposes the plan preview, commit and export endpoints.
type PlannerHandler struct {
	service plannerScheduler
}

// NewPlannerHandler constructs the handler.
func NewPlannerHandler(svc *service.PlannerService) *PlannerHandler {
	return &PlannerHandler{service: svc}
}

// Preview places the submitted items into the student's free time and
// returns a proposal without persisting anything.
func (h *PlannerHandler) Preview(c *gin.Context) {
	studentID := studentIDFromContext(c)
	if studentID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.PreviewPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid plan preview payload"))
		return
	}

	resp, err := h.service.Preview(c.Request.Context(), studentID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Commit persists a previewed proposal as a task with subtasks plus
// calendar events.
func (h *PlannerHandler) Commit(c *gin.Context) {
	studentID := studentIDFromContext(c)
	if studentID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CommitPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid plan commit payload"))
		return
	}

	resp, err := h.service.Commit(c.Request.Context(), studentID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, resp)
}

// Export streams a previewed proposal as CSV or PDF.
func (h *PlannerHandler) Export(c *gin.Context) {
	studentID := studentIDFromContext(c)
	if studentID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var query dto.ExportPlanQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid plan export query"))
		return
	}

	filename, contentType, content, err := h.service.Export(c.Request.Context(), studentID, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, content)
}
