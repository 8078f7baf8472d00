package dto

import "time"

// CreateEventRequest adds a busy block to the student's calendar.
type CreateEventRequest struct {
	Title      string    `json:"title" validate:"required,max=255"`
	ModuleCode string    `json:"moduleCode" validate:"omitempty,max=32"`
	StartAt    time.Time `json:"startAt" validate:"required"`
	EndAt      time.Time `json:"endAt" validate:"required"`
	Location   string    `json:"location" validate:"omitempty,max=255"`
}

// EventQuery filters the event listing.
type EventQuery struct {
	From     string `form:"from" validate:"omitempty,datetime=2006-01-02"`
	To       string `form:"to" validate:"omitempty,datetime=2006-01-02"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}
