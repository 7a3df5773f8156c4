package task

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/minumate/backend/core"
)

// Statuses
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

var AllStatuses = []string{StatusPending, StatusInProgress, StatusCompleted}

type Task struct {
	ID            int        `json:"id"`
	MeetingID     int        `json:"meeting_id"`
	AssignedTo    *int       `json:"assigned_to"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	DueDate       *time.Time `json:"due_date"`
	Status        string     `json:"status"`
	IntendedOwner string     `json:"intended_owner,omitempty"`
	CreatedAt     time.Time  `json:"created_at"` // UTC
	UpdatedAt     time.Time  `json:"updated_at"` // UTC

	MeetingTitle string `json:"meeting_title,omitempty"` // joined in on reads
}

func (t *Task) IsAssigned() bool { return t.AssignedTo != nil }

func (t *Task) IsAssignedTo(userID int) bool {
	return t.AssignedTo != nil && *t.AssignedTo == userID
}

// NewTask contains information needed to create a new Task.
type NewTask struct {
	MeetingID     int        `json:"meeting_id" validate:"required"`
	AssignedTo    *int       `json:"assigned_to"`
	Title         string     `json:"title" validate:"required"`
	Description   string     `json:"description"`
	DueDate       *time.Time `json:"due_date"`
	IntendedOwner string     `json:"intended_owner"`
}

func (nt *NewTask) Validate(validate *validator.Validate) error {
	nt.Title = core.CleanString(nt.Title)
	nt.Description = core.CleanString(nt.Description)
	nt.IntendedOwner = core.CleanString(nt.IntendedOwner)
	return validate.Struct(nt)
}

// UpdateTaskStatus defines the only mutation allowed to assignees.
type UpdateTaskStatus struct {
	Status string `json:"status" validate:"required,taskstatus"`
}

func (ut *UpdateTaskStatus) Validate(validate *validator.Validate) error {
	ut.Status = core.CleanString(ut.Status, true /* lower */)
	return validate.Struct(ut)
}
