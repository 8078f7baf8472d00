package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/studytrack/planner-api/internal/models"
)

// EventRepository provides persistence for calendar events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository creates a new event repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListUpcoming returns the student's busy blocks from `from` onward, ordered
// by start time. Rows with missing timestamps are excluded; the planner
// cannot place work around an event it cannot locate in time.
func (r *EventRepository) ListUpcoming(ctx context.Context, studentID string, from time.Time, window time.Duration) ([]models.Event, error) {
	const query = `SELECT id, student_id, module_id, title, start_at, end_at, location, created_at, updated_at
FROM events
WHERE student_id = $1 AND start_at IS NOT NULL AND end_at IS NOT NULL
  AND end_at > $2 AND start_at < $3
ORDER BY start_at ASC`
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, studentID, from, from.Add(window)); err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}
	return events, nil
}

// List returns the student's events with optional date filtering and pagination.
func (r *EventRepository) List(ctx context.Context, studentID string, filter models.EventFilter) ([]models.Event, int, error) {
	base := "FROM events WHERE student_id = $1"
	args := []interface{}{studentID}

	var conditions []string
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("end_at >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("start_at < $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, student_id, module_id, title, start_at, end_at, location, created_at, updated_at %s ORDER BY start_at ASC LIMIT %d OFFSET %d", base, size, offset)
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	return events, total, nil
}

// Create stores a new event. Accepts a transaction via exec.
func (r *EventRepository) Create(ctx context.Context, exec sqlx.ExtContext, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now

	const query = `INSERT INTO events (id, student_id, module_id, title, start_at, end_at, location, created_at, updated_at)
VALUES (:id, :student_id, :module_id, :title, :start_at, :end_at, :location, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// FindByID loads an event owned by the student.
func (r *EventRepository) FindByID(ctx context.Context, studentID, id string) (*models.Event, error) {
	const query = `SELECT id, student_id, module_id, title, start_at, end_at, location, created_at, updated_at
FROM events WHERE id = $1 AND student_id = $2`
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id, studentID); err != nil {
		return nil, err
	}
	return &event, nil
}

// Delete removes an event owned by the student.
func (r *EventRepository) Delete(ctx context.Context, studentID, id string) error {
	const query = `DELETE FROM events WHERE id = $1 AND student_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, studentID)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete event rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
