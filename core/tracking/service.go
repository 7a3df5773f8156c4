package tracking

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// MinCleanupDays is the minimum retention enforced on email cleanup.
const MinCleanupDays = 7

var (
	// errors
	ErrNotFound          = errors.New("email not found")
	ErrRetentionTooShort = errors.New("emails newer than 7 days cannot be deleted")
)

type (
	Repository interface {
		SaveEmail(em Email) (Email, error)
		// GetEmailByTrackingID returns the email with its events and
		// convenience fields populated.
		GetEmailByTrackingID(trackingID string) (Email, error)
		// QueryEmails returns a page of emails, most recently sent first,
		// with open/click counts joined in.
		QueryEmails(limit, offset int) ([]Email, error)
		RecordEvent(ev Event) error
		GetStats() (Stats, error)
		// DeleteEmailsOlderThan deletes emails and their events older than
		// the given number of days, returning the number of emails deleted.
		DeleteEmailsOlderThan(days int) (int, error)
	}

	Service interface {
		// NewTrackingID returns a fresh unique tracking id.
		NewTrackingID() string
		Save(ne NewEmail) (Email, error)
		GetByTrackingID(trackingID string) (Email, error)
		Query(filter QueryFilter) (EmailPage, error)
		RecordOpen(trackingID, ipAddress, userAgent string) error
		RecordEvent(trackingID, eventType, eventData, ipAddress, userAgent string) error
		Stats() (Stats, error)
		Cleanup(days int) (int, error)
	}

	service struct {
		repo Repository
	}
)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) NewTrackingID() string {
	return uuid.NewString()
}

func (svc *service) Save(ne NewEmail) (Email, error) {
	now := time.Now().UTC()
	em := Email{
		TrackingID:        ne.TrackingID,
		RecipientEmail:    ne.RecipientEmail,
		RecipientName:     ne.RecipientName,
		SenderEmail:       ne.SenderEmail,
		SenderName:        ne.SenderName,
		Subject:           ne.Subject,
		Content:           ne.Content,
		SentAt:            now,
		TrackingEnabled:   ne.TrackingEnabled,
		ProviderMessageID: ne.ProviderMessageID,
		Status:            ne.Status,
		MeetingID:         ne.MeetingID,
		CreatedAt:         now,
	}
	return svc.repo.SaveEmail(em)
}

func (svc *service) GetByTrackingID(trackingID string) (Email, error) {
	return svc.repo.GetEmailByTrackingID(trackingID)
}

func (svc *service) Query(filter QueryFilter) (EmailPage, error) {
	filter.Clean()

	emails, err := svc.repo.QueryEmails(PageSize, (filter.Page-1)*PageSize)
	if err != nil {
		return EmailPage{}, err
	}
	filtered := make([]Email, 0, len(emails))
	for _, em := range emails {
		if filter.Matches(em) {
			filtered = append(filtered, em)
		}
	}

	stats, err := svc.repo.GetStats()
	if err != nil {
		return EmailPage{}, err
	}
	totalPages := (len(filtered) + PageSize - 1) / PageSize
	if totalPages < 1 {
		totalPages = 1
	}
	return EmailPage{
		Emails:     filtered,
		Stats:      stats,
		Page:       filter.Page,
		TotalPages: totalPages,
	}, nil
}

func (svc *service) RecordOpen(trackingID, ipAddress, userAgent string) error {
	return svc.RecordEvent(trackingID, EventOpen, "", ipAddress, userAgent)
}

func (svc *service) RecordEvent(trackingID, eventType, eventData, ipAddress, userAgent string) error {
	if _, err := svc.repo.GetEmailByTrackingID(trackingID); err != nil {
		return err
	}
	return svc.repo.RecordEvent(Event{
		TrackingID: trackingID,
		EventType:  eventType,
		EventData:  eventData,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Timestamp:  time.Now().UTC(),
	})
}

func (svc *service) Stats() (Stats, error) {
	return svc.repo.GetStats()
}

func (svc *service) Cleanup(days int) (int, error) {
	if days < MinCleanupDays {
		return 0, ErrRetentionTooShort
	}
	return svc.repo.DeleteEmailsOlderThan(days)
}
