package meeting

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	// errors
	ErrNotFound          = errors.New("meeting not found")
	ErrParticipantExists = errors.New("user is already a participant of this meeting")
	ErrNotParticipant    = errors.New("user is not a participant of this meeting")
)

type (
	Repository interface {
		CreateMeeting(mtg Meeting) (Meeting, error)
		QueryAllMeetings() ([]Meeting, error)
		// QueryMeetingsForUser returns meetings the user participates in,
		// each with the user's Participant entry joined in.
		QueryMeetingsForUser(userID int) ([]Meeting, error)
		GetMeetingByID(id int) (Meeting, error)
		UpdateMeeting(mtg Meeting) (Meeting, error)
		DeleteMeetingsByID(ids ...int) error

		AddParticipant(p Participant) error
		RemoveParticipant(meetingID, userID int) error
		GetParticipant(meetingID, userID int) (Participant, error)
	}

	Service interface {
		Create(nm NewMeeting, createdBy int) (Meeting, error)
		QueryAll() ([]Meeting, error)
		QueryForUser(userID int) ([]Meeting, error)
		GetByID(id int) (Meeting, error)
		Update(id int, um UpdateMeeting) (Meeting, error)
		SetAnalysis(id int, analysis json.RawMessage) (Meeting, error)
		Delete(ids ...int) error
		AddParticipant(meetingID int, ap AddParticipant) error
		RemoveParticipant(meetingID, userID int) error
		GetParticipant(meetingID, userID int) (Participant, error)
	}

	service struct {
		repo Repository
	}
)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Create persists a new Meeting and adds its creator as organizer.
func (svc *service) Create(nm NewMeeting, createdBy int) (Meeting, error) {
	now := time.Now().UTC()
	mtg := Meeting{
		Title:       nm.Title,
		Description: nm.Description,
		Transcript:  nm.Transcript,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	mtg, err := svc.repo.CreateMeeting(mtg)
	if err != nil {
		return Meeting{}, err
	}
	p := Participant{MeetingID: mtg.ID, UserID: createdBy, Role: RoleOrganizer}
	if err := svc.repo.AddParticipant(p); err != nil {
		return Meeting{}, err
	}
	mtg.Participants = append(mtg.Participants, p)
	return mtg, nil
}

func (svc *service) QueryAll() ([]Meeting, error) {
	return svc.repo.QueryAllMeetings()
}

func (svc *service) QueryForUser(userID int) ([]Meeting, error) {
	return svc.repo.QueryMeetingsForUser(userID)
}

func (svc *service) GetByID(id int) (Meeting, error) {
	return svc.repo.GetMeetingByID(id)
}

func (svc *service) Update(id int, um UpdateMeeting) (Meeting, error) {
	orig, err := svc.repo.GetMeetingByID(id)
	if err != nil {
		return Meeting{}, err
	}
	orig.Title = um.Title
	orig.Description = um.Description
	orig.Transcript = um.Transcript
	orig.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateMeeting(orig)
}

func (svc *service) SetAnalysis(id int, analysis json.RawMessage) (Meeting, error) {
	mtg, err := svc.repo.GetMeetingByID(id)
	if err != nil {
		return Meeting{}, err
	}
	mtg.Analysis = analysis
	mtg.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateMeeting(mtg)
}

func (svc *service) Delete(ids ...int) error {
	return svc.repo.DeleteMeetingsByID(ids...)
}

func (svc *service) AddParticipant(meetingID int, ap AddParticipant) error {
	if ap.Role == "" {
		ap.Role = RoleParticipant
	}
	if _, err := svc.repo.GetParticipant(meetingID, ap.UserID); err == nil {
		return ErrParticipantExists
	} else if err != ErrNotParticipant {
		return err
	}
	return svc.repo.AddParticipant(Participant{
		MeetingID: meetingID,
		UserID:    ap.UserID,
		Role:      ap.Role,
	})
}

func (svc *service) RemoveParticipant(meetingID, userID int) error {
	return svc.repo.RemoveParticipant(meetingID, userID)
}

func (svc *service) GetParticipant(meetingID, userID int) (Participant, error) {
	return svc.repo.GetParticipant(meetingID, userID)
}
