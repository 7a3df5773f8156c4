package sqliterepos

import (
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/minumate/backend/core/tracking"
)

type emailRow struct {
	ID                int       `db:"id"`
	TrackingID        string    `db:"tracking_id"`
	RecipientEmail    string    `db:"recipient_email"`
	RecipientName     string    `db:"recipient_name"`
	SenderEmail       string    `db:"sender_email"`
	SenderName        string    `db:"sender_name"`
	Subject           string    `db:"subject"`
	Content           string    `db:"content"`
	SentAt            time.Time `db:"sent_at"`
	TrackingEnabled   bool      `db:"tracking_enabled"`
	ProviderMessageID string    `db:"provider_message_id"`
	Status            string    `db:"status"`
	MeetingID         null.Int  `db:"meeting_id"`
	CreatedAt         time.Time `db:"created_at"`
	OpenCount         int       `db:"open_count"`
	ClickCount        int       `db:"click_count"`

	// sqlite returns expression columns as raw text, so the MAX(timestamp)
	// aggregate cannot be scanned into a time directly.
	LastOpened null.String `db:"last_opened"`
}

// timestamp layouts the sqlite driver stores time values in
var sqliteTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

func parseSQLiteTime(s string) (time.Time, error) {
	for _, layout := range sqliteTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Errorf("unparsable sqlite timestamp %q", s)
}

func (r emailRow) toEmail() tracking.Email {
	em := tracking.Email{
		ID:                r.ID,
		TrackingID:        r.TrackingID,
		RecipientEmail:    r.RecipientEmail,
		RecipientName:     r.RecipientName,
		SenderEmail:       r.SenderEmail,
		SenderName:        r.SenderName,
		Subject:           r.Subject,
		Content:           r.Content,
		SentAt:            r.SentAt,
		TrackingEnabled:   r.TrackingEnabled,
		ProviderMessageID: r.ProviderMessageID,
		Status:            r.Status,
		CreatedAt:         r.CreatedAt,
		Opened:            r.OpenCount > 0,
		Clicked:           r.ClickCount > 0,
		OpenCount:         r.OpenCount,
		ClickCount:        r.ClickCount,
	}
	if r.MeetingID.Valid {
		mid := r.MeetingID.Int
		em.MeetingID = &mid
	}
	if r.LastOpened.Valid {
		if at, err := parseSQLiteTime(r.LastOpened.String); err == nil {
			em.OpenedAt = &at
		}
	}
	return em
}

type eventRow struct {
	ID         int         `db:"id"`
	TrackingID string      `db:"tracking_id"`
	EventType  string      `db:"event_type"`
	EventData  null.String `db:"event_data"`
	IPAddress  null.String `db:"ip_address"`
	UserAgent  null.String `db:"user_agent"`
	Timestamp  time.Time   `db:"timestamp"`
}

func (r eventRow) toEvent() tracking.Event {
	return tracking.Event{
		ID:         r.ID,
		TrackingID: r.TrackingID,
		EventType:  r.EventType,
		EventData:  r.EventData.String,
		IPAddress:  r.IPAddress.String,
		UserAgent:  r.UserAgent.String,
		Timestamp:  r.Timestamp,
	}
}

type trackingRepository struct {
	db *sqlx.DB
}

var _ tracking.Repository = (*trackingRepository)(nil) // interface compliance check

func NewTrackingRepository(db *sqlx.DB) *trackingRepository {
	return &trackingRepository{db: db}
}

func (repo *trackingRepository) SaveEmail(em tracking.Email) (tracking.Email, error) {
	res, err := repo.db.Exec(
		`INSERT INTO emails (tracking_id, recipient_email, recipient_name, sender_email, sender_name,
		 subject, content, sent_at, tracking_enabled, provider_message_id, status, meeting_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		em.TrackingID, em.RecipientEmail, em.RecipientName, em.SenderEmail, em.SenderName,
		em.Subject, em.Content, em.SentAt, em.TrackingEnabled, em.ProviderMessageID,
		em.Status, null.IntFromPtr(em.MeetingID), em.CreatedAt,
	)
	if err != nil {
		return tracking.Email{}, errors.Wrap(err, "inserting email")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return tracking.Email{}, errors.Wrap(err, "inserting email")
	}
	em.ID = int(id)
	return em, nil
}

func (repo *trackingRepository) GetEmailByTrackingID(trackingID string) (tracking.Email, error) {
	var row emailRow
	err := repo.db.Get(&row,
		`SELECT e.*,
		        COUNT(CASE WHEN ev.event_type = 'open' THEN 1 END) AS open_count,
		        COUNT(CASE WHEN ev.event_type = 'click' THEN 1 END) AS click_count,
		        MAX(CASE WHEN ev.event_type = 'open' THEN ev.timestamp END) AS last_opened
		 FROM emails e
		 LEFT JOIN email_events ev ON ev.tracking_id = e.tracking_id
		 WHERE e.tracking_id = ?
		 GROUP BY e.id`, trackingID)
	if err != nil {
		return tracking.Email{}, trapNoRowsErr(err, tracking.ErrNotFound, "finding email")
	}
	if row.ID == 0 {
		// LEFT JOIN aggregate returns a zero row when no email matches
		return tracking.Email{}, tracking.ErrNotFound
	}
	em := row.toEmail()

	var erows []eventRow
	err = repo.db.Select(&erows,
		`SELECT * FROM email_events WHERE tracking_id = ? ORDER BY timestamp DESC`, trackingID)
	if err != nil {
		return tracking.Email{}, errors.Wrap(err, "querying email events")
	}
	for _, e := range erows {
		em.Events = append(em.Events, e.toEvent())
	}
	return em, nil
}

func (repo *trackingRepository) QueryEmails(limit, offset int) ([]tracking.Email, error) {
	var rows []emailRow
	err := repo.db.Select(&rows,
		`SELECT e.*,
		        COUNT(CASE WHEN ev.event_type = 'open' THEN 1 END) AS open_count,
		        COUNT(CASE WHEN ev.event_type = 'click' THEN 1 END) AS click_count,
		        MAX(CASE WHEN ev.event_type = 'open' THEN ev.timestamp END) AS last_opened
		 FROM emails e
		 LEFT JOIN email_events ev ON ev.tracking_id = e.tracking_id
		 GROUP BY e.id
		 ORDER BY e.sent_at DESC
		 LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "querying emails")
	}
	emails := make([]tracking.Email, 0, len(rows))
	for _, r := range rows {
		emails = append(emails, r.toEmail())
	}
	return emails, nil
}

func (repo *trackingRepository) RecordEvent(ev tracking.Event) error {
	_, err := repo.db.Exec(
		`INSERT INTO email_events (tracking_id, event_type, event_data, ip_address, user_agent, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ev.TrackingID, ev.EventType,
		null.NewString(ev.EventData, ev.EventData != ""),
		null.NewString(ev.IPAddress, ev.IPAddress != ""),
		null.NewString(ev.UserAgent, ev.UserAgent != ""),
		ev.Timestamp,
	)
	if err != nil {
		return errors.Wrap(err, "inserting email event")
	}
	return nil
}

func (repo *trackingRepository) GetStats() (tracking.Stats, error) {
	var stats tracking.Stats

	if err := repo.db.Get(&stats.TotalEmails, `SELECT COUNT(*) FROM emails`); err != nil {
		return tracking.Stats{}, errors.Wrap(err, "counting emails")
	}
	err := repo.db.Get(&stats.OpenedEmails,
		`SELECT COUNT(DISTINCT e.tracking_id) FROM emails e
		 JOIN email_events ev ON ev.tracking_id = e.tracking_id
		 WHERE ev.event_type = 'open'`)
	if err != nil {
		return tracking.Stats{}, errors.Wrap(err, "counting opened emails")
	}
	err = repo.db.Get(&stats.ClickedEmails,
		`SELECT COUNT(DISTINCT e.tracking_id) FROM emails e
		 JOIN email_events ev ON ev.tracking_id = e.tracking_id
		 WHERE ev.event_type = 'click'`)
	if err != nil {
		return tracking.Stats{}, errors.Wrap(err, "counting clicked emails")
	}
	err = repo.db.Get(&stats.RecentEmails,
		`SELECT COUNT(*) FROM emails WHERE sent_at > datetime('now', '-1 day')`)
	if err != nil {
		return tracking.Stats{}, errors.Wrap(err, "counting recent emails")
	}

	if stats.TotalEmails > 0 {
		stats.OpenRate = float64(stats.OpenedEmails) / float64(stats.TotalEmails) * 100
		stats.ClickRate = float64(stats.ClickedEmails) / float64(stats.TotalEmails) * 100
	}
	return stats, nil
}

func (repo *trackingRepository) DeleteEmailsOlderThan(days int) (int, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	_, err := repo.db.Exec(
		`DELETE FROM email_events WHERE tracking_id IN (SELECT tracking_id FROM emails WHERE sent_at < ?)`, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "deleting old email events")
	}
	res, err := repo.db.Exec(`DELETE FROM emails WHERE sent_at < ?`, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "deleting old emails")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "deleting old emails")
	}
	return int(n), nil
}
