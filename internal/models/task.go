package models

import "time"

// Task statuses as stored in the tasks table.
const (
	TaskStatusPending   = "pending"
	TaskStatusActive    = "active"
	TaskStatusCompleted = "completed"
)

// Task is a student assignment or piece of coursework.
type Task struct {
	ID        string     `db:"id" json:"id"`
	StudentID string     `db:"student_id" json:"student_id"`
	ModuleID  *string    `db:"module_id" json:"module_id,omitempty"`
	Title     string     `db:"title" json:"title"`
	Status    string     `db:"status" json:"status"`
	DueDate   *time.Time `db:"due_date" json:"due_date,omitempty"`
	DueAt     *time.Time `db:"due_at" json:"due_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// Subtask is one step of a task breakdown.
type Subtask struct {
	ID             string     `db:"id" json:"id"`
	TaskID         string     `db:"task_id" json:"task_id"`
	Title          string     `db:"title" json:"title"`
	Description    *string    `db:"description" json:"description,omitempty"`
	Sequence       int        `db:"sequence" json:"sequence"`
	EstimatedHours *float64   `db:"estimated_hours" json:"estimated_hours,omitempty"`
	PlannedStart   *time.Time `db:"planned_start" json:"planned_start,omitempty"`
	PlannedEnd     *time.Time `db:"planned_end" json:"planned_end,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}
