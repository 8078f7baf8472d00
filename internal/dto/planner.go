package dto

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// FlexHours accepts an estimated-hours value as a JSON number or a numeric
// string. Anything unusable decodes to nil so the planner's default applies;
// a bad estimate never fails the request.
type FlexHours struct {
	Value *float64
}

// UnmarshalJSON implements lenient decoding. It never returns an error.
func (h *FlexHours) UnmarshalJSON(raw []byte) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		h.Value = nil
		return nil
	}
	var number float64
	if err := json.Unmarshal(trimmed, &number); err == nil {
		h.Value = &number
		return nil
	}
	var text string
	if err := json.Unmarshal(trimmed, &text); err == nil {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
			h.Value = &parsed
			return nil
		}
	}
	h.Value = nil
	return nil
}

// MarshalJSON renders the resolved value or null.
func (h FlexHours) MarshalJSON() ([]byte, error) {
	if h.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*h.Value)
}

// PlanItemRequest is one proposed work item. PreferredStart, when present,
// is an RFC3339 timestamp the caller has already resolved; free-text time
// phrases are not accepted here.
type PlanItemRequest struct {
	Title          string    `json:"title" validate:"required,max=255"`
	Description    string    `json:"description" validate:"omitempty,max=1000"`
	Sequence       int       `json:"sequence" validate:"omitempty,min=0"`
	EstimatedHours FlexHours `json:"estimatedHours"`
	PreferredStart string    `json:"preferredStart" validate:"omitempty"`
	Focus          string    `json:"focus" validate:"omitempty,max=255"`
}

// PreferredStartTime parses the hint, returning nil when absent or
// unparsable.
func (p PlanItemRequest) PreferredStartTime() *time.Time {
	if p.PreferredStart == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, p.PreferredStart)
	if err != nil {
		return nil
	}
	return &parsed
}

// PreviewPlanRequest asks for a conflict-free placement of the items into
// the student's free time. Nothing is persisted until the proposal is
// committed.
type PreviewPlanRequest struct {
	AssignmentTitle string            `json:"assignmentTitle" validate:"required,max=255"`
	ModuleCode      string            `json:"moduleCode" validate:"omitempty,max=32"`
	DueDate         string            `json:"dueDate" validate:"omitempty,datetime=2006-01-02"`
	HorizonDays     int               `json:"horizonDays" validate:"omitempty,min=1,max=60"`
	Items           []PlanItemRequest `json:"items" validate:"required,min=1,max=64,dive"`
}

// ScheduledItemView is one placed item in a preview response.
type ScheduledItemView struct {
	Title   string    `json:"title"`
	Focus   string    `json:"focus,omitempty"`
	StartAt time.Time `json:"startAt"`
	EndAt   time.Time `json:"endAt"`
}

// PreviewPlanResponse returns the proposed placements plus the items that
// found no room.
type PreviewPlanResponse struct {
	ProposalID       string              `json:"proposalId"`
	Scheduled        []ScheduledItemView `json:"scheduled"`
	Unscheduled      []PlanItemRequest   `json:"unscheduled"`
	ScheduledCount   int                 `json:"scheduledCount"`
	UnscheduledCount int                 `json:"unscheduledCount"`
}

// CommitPlanRequest persists a previewed proposal.
type CommitPlanRequest struct {
	ProposalID string `json:"proposalId" validate:"required"`
}

// CommitPlanResponse summarises what the commit created.
type CommitPlanResponse struct {
	TaskID           string `json:"taskId"`
	CreatedSubtasks  int    `json:"createdSubtasks"`
	CreatedEvents    int    `json:"createdEvents"`
	UnscheduledCount int    `json:"unscheduledCount"`
	Message          string `json:"message"`
}

// ExportPlanQuery selects a previewed proposal for download.
type ExportPlanQuery struct {
	ProposalID string `form:"proposalId" validate:"required"`
	Format     string `form:"format" validate:"omitempty,oneof=csv pdf"`
}
