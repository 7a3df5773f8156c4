package meeting

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/minumate/backend/core"
)

// Participant roles
const (
	RoleOrganizer   = "organizer"
	RoleParticipant = "participant"
)

var AllRoles = []string{RoleOrganizer, RoleParticipant}

type Meeting struct {
	ID          int             `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Transcript  string          `json:"transcript,omitempty"`
	Analysis    json.RawMessage `json:"analysis,omitempty"`
	CreatedBy   int             `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"` // UTC
	UpdatedAt   time.Time       `json:"updated_at"` // UTC

	Participants []Participant `json:"participants,omitempty"`
}

func (m *Meeting) HasAnalysis() bool { return len(m.Analysis) > 0 }

// Participant links a User to a Meeting. User fields are joined in on reads.
type Participant struct {
	MeetingID int    `json:"meeting_id"`
	UserID    int    `json:"user_id"`
	Role      string `json:"role"`

	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name,omitempty"`
}

func (p *Participant) IsOrganizer() bool { return p.Role == RoleOrganizer }

// NewMeeting contains information needed to create a new Meeting.
type NewMeeting struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Transcript  string `json:"transcript"`
}

func (nm *NewMeeting) Validate(validate *validator.Validate) error {
	nm.Title = core.CleanString(nm.Title)
	nm.Description = core.CleanString(nm.Description)
	return validate.Struct(nm)
}

// UpdateMeeting defines what information may be provided to modify an existing Meeting.
type UpdateMeeting struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Transcript  string `json:"transcript"`
}

func (um *UpdateMeeting) Validate(orig Meeting, validate *validator.Validate) error {
	if title := core.CleanString(um.Title); title != "" {
		um.Title = title
	} else {
		um.Title = orig.Title
	}
	if desc := core.CleanString(um.Description); desc != "" {
		um.Description = desc
	} else {
		um.Description = orig.Description
	}
	if um.Transcript == "" {
		um.Transcript = orig.Transcript
	}
	return validate.Struct(um)
}

// AddParticipant contains information needed to link a User to a Meeting.
type AddParticipant struct {
	UserID int    `json:"user_id" validate:"required"`
	Role   string `json:"role" validate:"omitempty,meetingrole"`
}

func (ap *AddParticipant) Validate(validate *validator.Validate) error {
	if ap.Role == "" {
		ap.Role = RoleParticipant
	}
	return validate.Struct(ap)
}
