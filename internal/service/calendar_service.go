package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/studytrack/planner-api/internal/dto"
	"github.com/studytrack/planner-api/internal/models"
	appErrors "github.com/studytrack/planner-api/pkg/errors"
)

type calendarEventRepository interface {
	List(ctx context.Context, studentID string, filter models.EventFilter) ([]models.Event, int, error)
	Create(ctx context.Context, exec sqlx.ExtContext, event *models.Event) error
	FindByID(ctx context.Context, studentID, id string) (*models.Event, error)
	Delete(ctx context.Context, studentID, id string) error
}

type calendarCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type cacheOperationRecorder interface {
	RecordCacheOperation(hit bool)
}

type cachedEventList struct {
	Events []models.Event    `json:"events"`
	Meta   models.Pagination `json:"meta"`
}

// CalendarService manages the student's busy blocks. Listings are cached;
// every write invalidates the student's cached pages.
type CalendarService struct {
	events    calendarEventRepository
	modules   plannerModuleReader
	cache     calendarCache
	metrics   cacheOperationRecorder
	validator *validator.Validate
	logger    *zap.Logger

	cacheEnabled bool
	cacheTTL     time.Duration
}

// CalendarServiceConfig governs cache behaviour for calendar reads.
type CalendarServiceConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// NewCalendarService wires calendar dependencies.
func NewCalendarService(
	events calendarEventRepository,
	modules plannerModuleReader,
	cache calendarCache,
	metrics cacheOperationRecorder,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg CalendarServiceConfig,
) *CalendarService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	return &CalendarService{
		events:       events,
		modules:      modules,
		cache:        cache,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
		cacheEnabled: cfg.CacheEnabled,
		cacheTTL:     cfg.CacheTTL,
	}
}

// List returns the student's events, serving from cache when possible.
func (s *CalendarService) List(ctx context.Context, studentID string, query dto.EventQuery) ([]models.Event, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event query")
	}

	filter := models.EventFilter{Page: query.Page, PageSize: query.PageSize}
	if parsed, err := time.Parse("2006-01-02", query.From); err == nil && query.From != "" {
		filter.From = &parsed
	}
	if parsed, err := time.Parse("2006-01-02", query.To); err == nil && query.To != "" {
		end := parsed.AddDate(0, 0, 1)
		filter.To = &end
	}

	key := fmt.Sprintf("calendar:%s:list:%s:%s:%d:%d", studentID, query.From, query.To, query.Page, query.PageSize)
	if s.cacheEnabled && s.cache != nil {
		var cached cachedEventList
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			if s.metrics != nil {
				s.metrics.RecordCacheOperation(true)
			}
			return cached.Events, &cached.Meta, nil
		}
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(false)
		}
	}

	events, total, err := s.events.List(ctx, studentID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}

	meta := buildPagination(query.Page, query.PageSize, total)
	if s.cacheEnabled && s.cache != nil {
		if err := s.cache.Set(ctx, key, cachedEventList{Events: events, Meta: meta}, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache event listing", zap.Error(err))
		}
	}
	return events, &meta, nil
}

// Create adds a busy block to the calendar.
func (s *CalendarService) Create(ctx context.Context, studentID string, req dto.CreateEventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	if !req.EndAt.After(req.StartAt) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "event must end after it starts")
	}

	var moduleID *string
	if req.ModuleCode != "" && s.modules != nil {
		module, err := s.modules.FindByCode(ctx, studentID, req.ModuleCode)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve module")
		}
		if module != nil {
			moduleID = &module.ID
		}
	}

	event := &models.Event{
		StudentID: studentID,
		ModuleID:  moduleID,
		Title:     req.Title,
		StartAt:   req.StartAt,
		EndAt:     req.EndAt,
	}
	if req.Location != "" {
		location := req.Location
		event.Location = &location
	}
	if err := s.events.Create(ctx, nil, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}

	s.invalidate(ctx, studentID)
	return event, nil
}

// Delete removes one of the student's events.
func (s *CalendarService) Delete(ctx context.Context, studentID, id string) error {
	if err := s.events.Delete(ctx, studentID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}
	s.invalidate(ctx, studentID)
	return nil
}

func (s *CalendarService) invalidate(ctx context.Context, studentID string) {
	if !s.cacheEnabled || s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, calendarCachePattern(studentID)); err != nil {
		s.logger.Warn("failed to invalidate calendar cache", zap.Error(err))
	}
}

func buildPagination(page, size, total int) models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	totalPages := 0
	if total > 0 {
		totalPages = (total + size - 1) / size
	}
	return models.Pagination{Page: page, PageSize: size, TotalItems: total, TotalPages: totalPages}
}
