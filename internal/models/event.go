package models

import "time"

// Event is a calendar entry on a student's timetable. Scheduled plan items
// are persisted as plain events, one row per placed assignment.
type Event struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	ModuleID  *string   `db:"module_id" json:"module_id,omitempty"`
	Title     string    `db:"title" json:"title"`
	StartAt   time.Time `db:"start_at" json:"start_at"`
	EndAt     time.Time `db:"end_at" json:"end_at"`
	Location  *string   `db:"location" json:"location,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// EventFilter narrows down calendar listings.
type EventFilter struct {
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}
