package tracking

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/minumate/backend/core"
)

// Event types
const (
	EventOpen      = "open"
	EventClick     = "click"
	EventBounce    = "bounce"
	EventDelivered = "delivered"
)

var AllEventTypes = []string{EventOpen, EventClick, EventBounce, EventDelivered}

// Email statuses
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// PageSize is the fixed page size of the admin email listing.
const PageSize = 20

// Email is a sent email tracked for opens and clicks.
type Email struct {
	ID                int       `json:"id"`
	TrackingID        string    `json:"tracking_id"`
	RecipientEmail    string    `json:"recipient_email"`
	RecipientName     string    `json:"recipient_name"`
	SenderEmail       string    `json:"sender_email"`
	SenderName        string    `json:"sender_name"`
	Subject           string    `json:"subject"`
	Content           string    `json:"content"`
	SentAt            time.Time `json:"sent_at"` // UTC
	TrackingEnabled   bool      `json:"tracking_enabled"`
	ProviderMessageID string    `json:"provider_message_id,omitempty"`
	Status            string    `json:"status"`
	MeetingID         *int      `json:"meeting_id"`
	CreatedAt         time.Time `json:"created_at"` // UTC

	// convenience fields derived from events
	Opened     bool       `json:"opened"`
	Clicked    bool       `json:"clicked"`
	OpenCount  int        `json:"open_count"`
	ClickCount int        `json:"click_count"`
	OpenedAt   *time.Time `json:"opened_at,omitempty"`

	Events []Event `json:"events,omitempty"`
}

// Event is a single tracking event on an Email.
type Event struct {
	ID         int       `json:"id"`
	TrackingID string    `json:"tracking_id"`
	EventType  string    `json:"event_type"`
	EventData  string    `json:"event_data,omitempty"` // JSON
	IPAddress  string    `json:"ip_address,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
	Timestamp  time.Time `json:"timestamp"` // UTC
}

// Stats aggregates tracking numbers for the admin dashboard.
type Stats struct {
	TotalEmails   int     `json:"total_emails"`
	OpenedEmails  int     `json:"opened_emails"`
	ClickedEmails int     `json:"clicked_emails"`
	RecentEmails  int     `json:"recent_emails"` // sent in the last 24h
	OpenRate      float64 `json:"open_rate"`     // percent
	ClickRate     float64 `json:"click_rate"`    // percent
}

// NewEmail contains information needed to track a sent email.
type NewEmail struct {
	TrackingID        string `validate:"required"`
	RecipientEmail    string `validate:"required,email"`
	RecipientName     string `validate:"required"`
	SenderEmail       string
	SenderName        string
	Subject           string `validate:"required"`
	Content           string
	TrackingEnabled   bool
	ProviderMessageID string
	Status            string
	MeetingID         *int
}

func (ne *NewEmail) Validate(validate *validator.Validate) error {
	ne.RecipientEmail = core.CleanString(ne.RecipientEmail, true /* lower */)
	ne.RecipientName = core.CleanString(ne.RecipientName)
	if ne.Status == "" {
		ne.Status = StatusSent
	}
	return validate.Struct(ne)
}

// QueryFilter filters the admin email listing.
type QueryFilter struct {
	Page   int    `query:"page"`
	Search string `query:"search"`
	Status string `query:"status" json:"status" validate:"omitempty,oneof=opened sent clicked"`
}

func (qf *QueryFilter) Validate(validate *validator.Validate) error {
	qf.Clean()
	return validate.Struct(qf)
}

func (qf *QueryFilter) Clean() {
	if qf.Page < 1 {
		qf.Page = 1
	}
	qf.Search = core.CleanString(qf.Search)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}

// Matches reports whether the email passes the search and status filters.
func (qf *QueryFilter) Matches(em Email) bool {
	if qf.Search != "" {
		s := strings.ToLower(qf.Search)
		if !(strings.Contains(strings.ToLower(em.RecipientEmail), s) ||
			strings.Contains(strings.ToLower(em.RecipientName), s)) {
			return false
		}
	}
	switch qf.Status {
	case "opened":
		return em.Opened
	case "sent":
		return !em.Opened
	case "clicked":
		return em.Clicked
	}
	return true
}

// EmailPage is one page of the admin email listing.
type EmailPage struct {
	Emails     []Email `json:"emails"`
	Stats      Stats   `json:"stats"`
	Page       int     `json:"page"`
	TotalPages int     `json:"total_pages"`
}
