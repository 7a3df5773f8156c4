package sqliterepos

import (
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/minumate/backend/core/meeting"
)

type meetingRow struct {
	ID          int         `db:"id"`
	Title       string      `db:"title"`
	Description string      `db:"description"`
	Transcript  string      `db:"transcript"`
	Analysis    null.String `db:"analysis"`
	CreatedBy   int         `db:"created_by"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

func (r meetingRow) toMeeting() meeting.Meeting {
	mtg := meeting.Meeting{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Transcript:  r.Transcript,
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.Analysis.Valid {
		mtg.Analysis = []byte(r.Analysis.String)
	}
	return mtg
}

type participantRow struct {
	MeetingID int    `db:"meeting_id"`
	UserID    int    `db:"user_id"`
	Role      string `db:"role"`
	Username  string `db:"username"`
	Email     string `db:"email"`
	FullName  string `db:"full_name"`
}

func (r participantRow) toParticipant() meeting.Participant {
	return meeting.Participant{
		MeetingID: r.MeetingID,
		UserID:    r.UserID,
		Role:      r.Role,
		Username:  r.Username,
		Email:     r.Email,
		FullName:  r.FullName,
	}
}

type meetingRepository struct {
	db *sqlx.DB
}

var _ meeting.Repository = (*meetingRepository)(nil) // interface compliance check

func NewMeetingRepository(db *sqlx.DB) *meetingRepository {
	return &meetingRepository{db: db}
}

func (repo *meetingRepository) CreateMeeting(mtg meeting.Meeting) (meeting.Meeting, error) {
	res, err := repo.db.Exec(
		`INSERT INTO meetings (title, description, transcript, analysis, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		mtg.Title, mtg.Description, mtg.Transcript,
		null.NewString(string(mtg.Analysis), mtg.HasAnalysis()),
		mtg.CreatedBy, mtg.CreatedAt, mtg.UpdatedAt,
	)
	if err != nil {
		return meeting.Meeting{}, errors.Wrap(err, "inserting meeting")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return meeting.Meeting{}, errors.Wrap(err, "inserting meeting")
	}
	mtg.ID = int(id)
	return mtg, nil
}

func (repo *meetingRepository) QueryAllMeetings() ([]meeting.Meeting, error) {
	var rows []meetingRow
	if err := repo.db.Select(&rows, `SELECT * FROM meetings ORDER BY created_at DESC`); err != nil {
		return nil, errors.Wrap(err, "querying meetings")
	}
	meetings := make([]meeting.Meeting, 0, len(rows))
	for _, r := range rows {
		meetings = append(meetings, r.toMeeting())
	}
	return meetings, nil
}

func (repo *meetingRepository) QueryMeetingsForUser(userID int) ([]meeting.Meeting, error) {
	var rows []struct {
		meetingRow
		Role string `db:"role"`
	}
	err := repo.db.Select(&rows,
		`SELECT m.*, mp.role FROM meetings m
		 JOIN meeting_participants mp ON mp.meeting_id = m.id
		 WHERE mp.user_id = ?
		 ORDER BY m.created_at DESC`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying user meetings")
	}
	meetings := make([]meeting.Meeting, 0, len(rows))
	for _, r := range rows {
		mtg := r.toMeeting()
		mtg.Participants = []meeting.Participant{{MeetingID: mtg.ID, UserID: userID, Role: r.Role}}
		meetings = append(meetings, mtg)
	}
	return meetings, nil
}

func (repo *meetingRepository) GetMeetingByID(id int) (meeting.Meeting, error) {
	var row meetingRow
	if err := repo.db.Get(&row, `SELECT * FROM meetings WHERE id = ?`, id); err != nil {
		return meeting.Meeting{}, trapNoRowsErr(err, meeting.ErrNotFound, "finding meeting")
	}
	mtg := row.toMeeting()

	var prows []participantRow
	err := repo.db.Select(&prows,
		`SELECT mp.meeting_id, mp.user_id, mp.role, u.username, u.email, u.full_name
		 FROM meeting_participants mp
		 JOIN users u ON u.id = mp.user_id
		 WHERE mp.meeting_id = ?`, id)
	if err != nil {
		return meeting.Meeting{}, errors.Wrap(err, "querying participants")
	}
	for _, p := range prows {
		mtg.Participants = append(mtg.Participants, p.toParticipant())
	}
	return mtg, nil
}

func (repo *meetingRepository) UpdateMeeting(mtg meeting.Meeting) (meeting.Meeting, error) {
	_, err := repo.db.Exec(
		`UPDATE meetings SET title = ?, description = ?, transcript = ?, analysis = ?, updated_at = ?
		 WHERE id = ?`,
		mtg.Title, mtg.Description, mtg.Transcript,
		null.NewString(string(mtg.Analysis), mtg.HasAnalysis()),
		mtg.UpdatedAt, mtg.ID,
	)
	if err != nil {
		return meeting.Meeting{}, errors.Wrap(err, "updating meeting")
	}
	return mtg, nil
}

func (repo *meetingRepository) DeleteMeetingsByID(ids ...int) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM meetings WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "deleting meetings")
	}
	if _, err = repo.db.Exec(q, args...); err != nil {
		return errors.Wrap(err, "deleting meetings")
	}
	return nil
}

func (repo *meetingRepository) AddParticipant(p meeting.Participant) error {
	_, err := repo.db.Exec(
		`INSERT INTO meeting_participants (meeting_id, user_id, role) VALUES (?, ?, ?)
		 ON CONFLICT (meeting_id, user_id) DO NOTHING`,
		p.MeetingID, p.UserID, p.Role,
	)
	if err != nil {
		return errors.Wrap(err, "adding participant")
	}
	return nil
}

func (repo *meetingRepository) RemoveParticipant(meetingID, userID int) error {
	res, err := repo.db.Exec(
		`DELETE FROM meeting_participants WHERE meeting_id = ? AND user_id = ?`, meetingID, userID)
	if err != nil {
		return errors.Wrap(err, "removing participant")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return meeting.ErrNotParticipant
	}
	return nil
}

func (repo *meetingRepository) GetParticipant(meetingID, userID int) (meeting.Participant, error) {
	var row participantRow
	err := repo.db.Get(&row,
		`SELECT mp.meeting_id, mp.user_id, mp.role, u.username, u.email, u.full_name
		 FROM meeting_participants mp
		 JOIN users u ON u.id = mp.user_id
		 WHERE mp.meeting_id = ? AND mp.user_id = ?`, meetingID, userID)
	if err != nil {
		return meeting.Participant{}, trapNoRowsErr(err, meeting.ErrNotParticipant, "finding participant")
	}
	return row.toParticipant(), nil
}
