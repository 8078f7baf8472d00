package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/studytrack/planner-api/internal/models"
)

// TaskRepository provides persistence for tasks and their subtasks.
type TaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository creates a new task repository.
func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindByTitle looks up the student's most recent task with a matching title,
// case-insensitively. When moduleID is non-nil the match is scoped to that
// module. Returns nil without error when nothing matches.
func (r *TaskRepository) FindByTitle(ctx context.Context, exec sqlx.ExtContext, studentID, title string, moduleID *string) (*models.Task, error) {
	query := `SELECT id, student_id, module_id, title, status, due_date, due_at, created_at, updated_at
FROM tasks WHERE student_id = $1 AND title ILIKE $2`
	args := []interface{}{studentID, title}
	if moduleID != nil {
		query += " AND module_id = $3"
		args = append(args, *moduleID)
	}
	query += " ORDER BY created_at DESC LIMIT 1"

	var task models.Task
	if err := sqlx.GetContext(ctx, r.exec(exec), &task, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find task by title: %w", err)
	}
	return &task, nil
}

// Create stores a new task. Accepts a transaction via exec.
func (r *TaskRepository) Create(ctx context.Context, exec sqlx.ExtContext, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now
	if task.Status == "" {
		task.Status = models.TaskStatusPending
	}

	const query = `INSERT INTO tasks (id, student_id, module_id, title, status, due_date, due_at, created_at, updated_at)
VALUES (:id, :student_id, :module_id, :title, :status, :due_date, :due_at, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, task); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// InsertSubtasks stores a batch of subtasks for a task. Accepts a
// transaction via exec.
func (r *TaskRepository) InsertSubtasks(ctx context.Context, exec sqlx.ExtContext, subtasks []models.Subtask) error {
	if len(subtasks) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `INSERT INTO subtasks (id, task_id, title, description, sequence, estimated_hours, planned_start, planned_end, created_at)
VALUES (:id, :task_id, :title, :description, :sequence, :estimated_hours, :planned_start, :planned_end, :created_at)`

	for i := range subtasks {
		sub := &subtasks[i]
		if sub.ID == "" {
			sub.ID = uuid.NewString()
		}
		if sub.CreatedAt.IsZero() {
			sub.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, sub); err != nil {
			return fmt.Errorf("insert subtask: %w", err)
		}
	}
	return nil
}

// NextSequence returns the next free subtask sequence number for a task.
func (r *TaskRepository) NextSequence(ctx context.Context, exec sqlx.ExtContext, taskID string) (int, error) {
	const query = `SELECT COALESCE(MAX(sequence), 0) + 1 FROM subtasks WHERE task_id = $1`
	var next int
	if err := sqlx.GetContext(ctx, r.exec(exec), &next, query, taskID); err != nil {
		return 0, fmt.Errorf("next subtask sequence: %w", err)
	}
	return next, nil
}
