package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studytrack/planner-api/internal/dto"
	"github.com/studytrack/planner-api/internal/models"
	"github.com/studytrack/planner-api/internal/service"
	appErrors "github.com/studytrack/planner-api/pkg/errors"
	"github.com/studytrack/planner-api/pkg/response"
)

type calendarManager interface {
	List(ctx context.Context, studentID string, query dto.EventQuery) ([]models.Event, *models.Pagination, error)
	Create(ctx context.Context, studentID string, req dto.CreateEventRequest) (*models.Event, error)
	Delete(ctx context.Context, studentID, id string) error
}

// CalendarHandler exposes calendar CRUD endpoints.
type CalendarHandler struct {
	service calendarManager
}

// NewCalendarHandler constructs the handler.
func NewCalendarHandler(svc *service.CalendarService) *CalendarHandler {
	return &CalendarHandler{service: svc}
}

// List returns the student's events with optional date filters.
func (h *CalendarHandler) List(c *gin.Context) {
	studentID := studentIDFromContext(c)
	if studentID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var query dto.EventQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event query"))
		return
	}

	events, meta, err := h.service.List(c.Request.Context(), studentID, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, meta)
}

// Create adds a busy block to the calendar.
func (h *CalendarHandler) Create(c *gin.Context) {
	studentID := studentIDFromContext(c)
	if studentID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event payload"))
		return
	}

	event, err := h.service.Create(c.Request.Context(), studentID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// Delete removes one of the student's events.
func (h *CalendarHandler) Delete(c *gin.Context) {
	studentID := studentIDFromContext(c)
	if studentID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), studentID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
