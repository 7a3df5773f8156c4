package project

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/minumate/backend/core"
)

// Statuses
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusOnHold    = "on_hold"
	StatusCancelled = "cancelled"
)

var AllStatuses = []string{StatusActive, StatusCompleted, StatusOnHold, StatusCancelled}

type Project struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedBy   int       `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC

	MeetingCount int `json:"meeting_count,omitempty"` // joined in on list reads
}

// NewProject contains information needed to create a new Project.
type NewProject struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Status      string `json:"status" validate:"omitempty,projectstatus"`
}

func (np *NewProject) Validate(validate *validator.Validate) error {
	np.Name = core.CleanString(np.Name)
	np.Description = core.CleanString(np.Description)
	if np.Status == "" {
		np.Status = StatusActive
	}
	return validate.Struct(np)
}

// UpdateProject defines what information may be provided to modify an existing Project.
type UpdateProject struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status" validate:"omitempty,projectstatus"`
}

func (up *UpdateProject) Validate(orig Project, validate *validator.Validate) error {
	if name := core.CleanString(up.Name); name != "" {
		up.Name = name
	} else {
		up.Name = orig.Name
	}
	if desc := core.CleanString(up.Description); desc != "" {
		up.Description = desc
	} else {
		up.Description = orig.Description
	}
	if up.Status == "" {
		up.Status = orig.Status
	}
	return validate.Struct(up)
}
