package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/studytrack/planner-api/internal/dto"
	"github.com/studytrack/planner-api/internal/models"
	"github.com/studytrack/planner-api/internal/planner"
	appErrors "github.com/studytrack/planner-api/pkg/errors"
	"github.com/studytrack/planner-api/pkg/export"
)

type plannerEventRepository interface {
	ListUpcoming(ctx context.Context, studentID string, from time.Time, window time.Duration) ([]models.Event, error)
	Create(ctx context.Context, exec sqlx.ExtContext, event *models.Event) error
}

type plannerTaskRepository interface {
	FindByTitle(ctx context.Context, exec sqlx.ExtContext, studentID, title string, moduleID *string) (*models.Task, error)
	Create(ctx context.Context, exec sqlx.ExtContext, task *models.Task) error
	InsertSubtasks(ctx context.Context, exec sqlx.ExtContext, subtasks []models.Subtask) error
	NextSequence(ctx context.Context, exec sqlx.ExtContext, taskID string) (int, error)
}

type plannerModuleReader interface {
	FindByCode(ctx context.Context, studentID, code string) (*models.Module, error)
}

type calendarInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type plannerRunRecorder interface {
	RecordPlannerRun(operation, outcome string, scheduled, unscheduled int)
}

// PlannerService previews and commits study plans. A preview places the
// requested items into the student's free time and parks the result in an
// in-memory proposal store; nothing touches the database until the proposal
// is committed.
type PlannerService struct {
	events    plannerEventRepository
	tasks     plannerTaskRepository
	modules   plannerModuleReader
	cache     calendarInvalidator
	tx        txProvider
	metrics   plannerRunRecorder
	validator *validator.Validate
	logger    *zap.Logger
	clock     func() time.Time
	store     *proposalStore

	horizonDays int
	busyWindow  time.Duration
}

// PlannerServiceConfig governs planner run behaviour.
type PlannerServiceConfig struct {
	ProposalTTL time.Duration
	HorizonDays int
	BusyWindow  time.Duration
	Clock       func() time.Time
}

// NewPlannerService wires planner dependencies.
func NewPlannerService(
	events plannerEventRepository,
	tasks plannerTaskRepository,
	modules plannerModuleReader,
	cache calendarInvalidator,
	tx txProvider,
	metrics plannerRunRecorder,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg PlannerServiceConfig,
) *PlannerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = planner.DefaultHorizonDays
	}
	if cfg.BusyWindow <= 0 {
		cfg.BusyWindow = 30 * 24 * time.Hour
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &PlannerService{
		events:      events,
		tasks:       tasks,
		modules:     modules,
		cache:       cache,
		tx:          tx,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		clock:       clock,
		store:       newProposalStore(cfg.ProposalTTL, clock),
		horizonDays: cfg.HorizonDays,
		busyWindow:  cfg.BusyWindow,
	}
}

// Preview schedules the requested items into the student's free slots and
// stores the result as a proposal.
func (s *PlannerService) Preview(ctx context.Context, studentID string, req dto.PreviewPlanRequest) (*dto.PreviewPlanResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid plan preview payload")
	}

	now := s.clock()

	var moduleID *string
	moduleCode := ""
	if req.ModuleCode != "" && s.modules != nil {
		module, err := s.modules.FindByCode(ctx, studentID, req.ModuleCode)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve module")
		}
		if module != nil {
			moduleID = &module.ID
			moduleCode = module.Code
		}
	}

	dueDate, deadline := parseDueDate(req.DueDate, now.Location())

	horizon := req.HorizonDays
	if horizon <= 0 {
		horizon = s.horizonDays
	}

	busyEvents, err := s.events.ListUpcoming(ctx, studentID, now, s.busyWindow)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calendar events")
	}
	busy := make([]planner.Interval, 0, len(busyEvents))
	for _, event := range busyEvents {
		busy = append(busy, planner.Interval{Start: event.StartAt.In(now.Location()), End: event.EndAt.In(now.Location())})
	}

	slots := planner.NewSlotGenerator(func() time.Time { return now }).Generate(busy, horizon)

	items := make([]dto.PlanItemRequest, len(req.Items))
	copy(items, req.Items)
	sort.SliceStable(items, func(i, j int) bool { return items[i].Sequence < items[j].Sequence })

	requests := make([]planner.Request, 0, len(items))
	for _, item := range items {
		requests = append(requests, planner.Request{
			Title:          item.Title,
			EstimatedHours: item.EstimatedHours.Value,
			PreferredStart: item.PreferredStartTime(),
			Focus:          item.Focus,
		})
	}

	scheduled, _ := planner.Schedule(now, requests, slots, deadline)

	proposal := planProposal{
		ProposalID:      uuid.NewString(),
		StudentID:       studentID,
		AssignmentTitle: req.AssignmentTitle,
		ModuleID:        moduleID,
		ModuleCode:      moduleCode,
		DueDate:         dueDate,
		Items:           mergePlacements(items, requests, scheduled),
		RequestedAt:     now,
	}
	s.store.Save(proposal)

	resp := &dto.PreviewPlanResponse{ProposalID: proposal.ProposalID}
	for _, item := range proposal.Items {
		if item.Scheduled {
			resp.Scheduled = append(resp.Scheduled, dto.ScheduledItemView{
				Title:   item.Title,
				Focus:   item.Focus,
				StartAt: item.StartAt,
				EndAt:   item.EndAt,
			})
		} else {
			resp.Unscheduled = append(resp.Unscheduled, item.Request)
		}
	}
	resp.ScheduledCount = len(resp.Scheduled)
	resp.UnscheduledCount = len(resp.Unscheduled)

	if s.metrics != nil {
		s.metrics.RecordPlannerRun("preview", previewOutcome(resp.ScheduledCount, resp.UnscheduledCount), resp.ScheduledCount, resp.UnscheduledCount)
	}
	s.logger.Info("plan previewed",
		zap.String("proposal_id", proposal.ProposalID),
		zap.Int("scheduled", resp.ScheduledCount),
		zap.Int("unscheduled", resp.UnscheduledCount),
	)
	return resp, nil
}

// Commit persists a previewed proposal: the task is looked up or created,
// every item becomes a subtask, and each placed item additionally becomes a
// calendar event.
func (s *PlannerService) Commit(ctx context.Context, studentID string, req dto.CommitPlanRequest) (*dto.CommitPlanResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid plan commit payload")
	}
	proposal, ok := s.store.Get(req.ProposalID)
	if !ok || proposal.StudentID != studentID {
		return nil, appErrors.Clone(appErrors.ErrProposalExpired, "")
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	task, err := s.tasks.FindByTitle(ctx, tx, studentID, proposal.AssignmentTitle, proposal.ModuleID)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up task")
		return nil, err
	}
	if task == nil {
		task = &models.Task{
			StudentID: studentID,
			ModuleID:  proposal.ModuleID,
			Title:     proposal.AssignmentTitle,
			Status:    models.TaskStatusPending,
			DueDate:   proposal.DueDate,
			DueAt:     taskDueAt(proposal.DueDate),
		}
		if err = s.tasks.Create(ctx, tx, task); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create task")
			return nil, err
		}
	}

	nextSeq, err := s.tasks.NextSequence(ctx, tx, task.ID)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to number subtasks")
		return nil, err
	}

	subtasks := make([]models.Subtask, 0, len(proposal.Items))
	createdEvents := 0
	unscheduled := 0
	for i, item := range proposal.Items {
		sub := models.Subtask{
			TaskID:         task.ID,
			Title:          item.Title,
			Sequence:       nextSeq + i,
			EstimatedHours: item.EstimatedHours,
		}
		if item.Description != "" {
			desc := item.Description
			sub.Description = &desc
		}
		if item.Scheduled {
			start := item.StartAt
			end := item.EndAt
			sub.PlannedStart = &start
			sub.PlannedEnd = &end

			event := &models.Event{
				StudentID: studentID,
				ModuleID:  proposal.ModuleID,
				Title:     fmt.Sprintf("%s: %s", proposal.AssignmentTitle, item.Title),
				StartAt:   start,
				EndAt:     end,
			}
			if item.Focus != "" {
				focus := item.Focus
				event.Location = &focus
			}
			if err = s.events.Create(ctx, tx, event); err != nil {
				err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create calendar event")
				return nil, err
			}
			createdEvents++
		} else {
			unscheduled++
		}
		subtasks = append(subtasks, sub)
	}

	if err = s.tasks.InsertSubtasks(ctx, tx, subtasks); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist subtasks")
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit plan transaction")
		return nil, err
	}

	s.store.Delete(req.ProposalID)

	if s.cache != nil {
		if cacheErr := s.cache.DeleteByPattern(ctx, calendarCachePattern(studentID)); cacheErr != nil {
			s.logger.Warn("failed to invalidate calendar cache", zap.Error(cacheErr))
		}
	}
	if s.metrics != nil {
		s.metrics.RecordPlannerRun("commit", "success", createdEvents, unscheduled)
	}
	s.logger.Info("plan committed",
		zap.String("task_id", task.ID),
		zap.Int("subtasks", len(subtasks)),
		zap.Int("events", createdEvents),
	)

	message := "plan saved"
	if unscheduled > 0 {
		message = fmt.Sprintf("%d items could not be scheduled due to limited availability", unscheduled)
	}
	return &dto.CommitPlanResponse{
		TaskID:           task.ID,
		CreatedSubtasks:  len(subtasks),
		CreatedEvents:    createdEvents,
		UnscheduledCount: unscheduled,
		Message:          message,
	}, nil
}

// Export renders a previewed proposal as a downloadable document. The
// proposal stays in the store so it can still be committed afterwards.
func (s *PlannerService) Export(ctx context.Context, studentID string, query dto.ExportPlanQuery) (string, string, []byte, error) {
	if err := s.validator.Struct(query); err != nil {
		return "", "", nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid plan export query")
	}
	proposal, ok := s.store.Get(query.ProposalID)
	if !ok || proposal.StudentID != studentID {
		return "", "", nil, appErrors.Clone(appErrors.ErrProposalExpired, "")
	}

	data := export.Dataset{Headers: []string{"#", "Item", "Focus", "Date", "Start", "End", "Status"}}
	for i, item := range proposal.Items {
		row := map[string]string{
			"#":      fmt.Sprintf("%d", i+1),
			"Item":   item.Title,
			"Focus":  item.Focus,
			"Status": "unscheduled",
		}
		if item.Scheduled {
			row["Date"] = item.StartAt.Format("Mon 02 Jan 2006")
			row["Start"] = item.StartAt.Format("15:04")
			row["End"] = item.EndAt.Format("15:04")
			row["Status"] = "scheduled"
		}
		data.Rows = append(data.Rows, row)
	}

	title := fmt.Sprintf("Study plan: %s", proposal.AssignmentTitle)
	if proposal.ModuleCode != "" {
		title = fmt.Sprintf("Study plan: %s (%s)", proposal.AssignmentTitle, proposal.ModuleCode)
	}

	switch query.Format {
	case "pdf":
		subtitle := fmt.Sprintf("Generated %s", proposal.RequestedAt.Format("2 January 2006 15:04"))
		content, err := export.NewPDFExporter().Render(data, title, subtitle)
		if err != nil {
			return "", "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render plan PDF")
		}
		return "study-plan.pdf", "application/pdf", content, nil
	default:
		content, err := export.NewCSVExporter().Render(data)
		if err != nil {
			return "", "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render plan CSV")
		}
		return "study-plan.csv", "text/csv", content, nil
	}
}

// parseDueDate turns a YYYY-MM-DD string into the stored due date plus the
// scheduling deadline at 23:59 that evening. Unparsable input yields no
// deadline rather than an error.
func parseDueDate(raw string, loc *time.Location) (*time.Time, *time.Time) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation("2006-01-02", raw, loc)
	if err != nil {
		return nil, nil
	}
	deadline := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 23, 59, 0, 0, loc)
	return &parsed, &deadline
}

// taskDueAt derives the task-level due timestamp, 17:00 on the due date.
func taskDueAt(dueDate *time.Time) *time.Time {
	if dueDate == nil {
		return nil
	}
	due := time.Date(dueDate.Year(), dueDate.Month(), dueDate.Day(), 17, 0, 0, 0, dueDate.Location())
	return &due
}

func previewOutcome(scheduled, unscheduled int) string {
	switch {
	case unscheduled == 0:
		return "full"
	case scheduled == 0:
		return "none"
	default:
		return "partial"
	}
}

func calendarCachePattern(studentID string) string {
	return fmt.Sprintf("calendar:%s:*", studentID)
}

// mergePlacements maps the placement results back onto the original items.
// Each assignment carries the ordinal of the request it satisfied, so the
// items no assignment points at are exactly the unscheduled ones, even when
// two items are identical in every field.
func mergePlacements(items []dto.PlanItemRequest, requests []planner.Request, scheduled []planner.Assignment) []plannedItem {
	placed := make(map[int]planner.Assignment, len(scheduled))
	for _, assignment := range scheduled {
		placed[assignment.Index] = assignment
	}
	merged := make([]plannedItem, 0, len(items))
	for i, item := range items {
		planned := plannedItem{
			Request:        item,
			Title:          item.Title,
			Description:    item.Description,
			EstimatedHours: requests[i].EstimatedHours,
			Focus:          item.Focus,
		}
		if assignment, ok := placed[i]; ok {
			planned.Scheduled = true
			planned.StartAt = assignment.Slot.Start
			planned.EndAt = assignment.Slot.End
		}
		merged = append(merged, planned)
	}
	return merged
}

type plannedItem struct {
	Request        dto.PlanItemRequest
	Title          string
	Description    string
	EstimatedHours *float64
	Focus          string
	StartAt        time.Time
	EndAt          time.Time
	Scheduled      bool
}

type planProposal struct {
	ProposalID      string
	StudentID       string
	AssignmentTitle string
	ModuleID        *string
	ModuleCode      string
	DueDate         *time.Time
	Items           []plannedItem
	RequestedAt     time.Time
}

type proposalStore struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]planProposal
}

func newProposalStore(ttl time.Duration, now func() time.Time) *proposalStore {
	if now == nil {
		now = time.Now
	}
	return &proposalStore{
		ttl:   ttl,
		now:   now,
		items: make(map[string]planProposal),
	}
}

func (s *proposalStore) Save(proposal planProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[proposal.ProposalID] = proposal
}

func (s *proposalStore) Get(id string) (planProposal, bool) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return planProposal{}, false
	}
	if s.now().Sub(proposal.RequestedAt) > s.ttl {
		s.Delete(id)
		return planProposal{}, false
	}
	return proposal, true
}

func (s *proposalStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}
