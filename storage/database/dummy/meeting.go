package dummydb

import (
	"sort"

	"github.com/minumate/backend/core/meeting"
)

var meetingPKCount int

type meetingRepository struct {
	db    *meetingTable
	users *userTable
}

var _ meeting.Repository = (*meetingRepository)(nil) // interface compliance check

func NewMeetingRepository(db *DB) meeting.Repository {
	return &meetingRepository{db: db.meeting, users: db.user}
}

func (repo *meetingRepository) query() []meeting.Meeting {
	meetings := make([]meeting.Meeting, 0, len(repo.db.table))
	for _, mtg := range repo.db.table {
		meetings = append(meetings, *mtg)
	}
	sort.Slice(meetings, func(i, j int) bool { return meetings[i].CreatedAt.After(meetings[j].CreatedAt) })
	return meetings
}

func (repo *meetingRepository) joinUser(p meeting.Participant) meeting.Participant {
	if usr, ok := repo.users.table[p.UserID]; ok {
		p.Username = usr.Username
		p.Email = usr.Email
		p.FullName = usr.FullName
	}
	return p
}

func (repo *meetingRepository) CreateMeeting(mtg meeting.Meeting) (meeting.Meeting, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	meetingPKCount++
	mtg.ID = meetingPKCount
	stored := mtg
	stored.Participants = nil
	repo.db.table[mtg.ID] = &stored
	return mtg, nil
}

func (repo *meetingRepository) QueryAllMeetings() ([]meeting.Meeting, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *meetingRepository) QueryMeetingsForUser(userID int) ([]meeting.Meeting, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var meetings []meeting.Meeting
	for _, mtg := range repo.query() {
		for _, p := range repo.db.participants[mtg.ID] {
			if p.UserID == userID {
				mtg.Participants = []meeting.Participant{{MeetingID: mtg.ID, UserID: userID, Role: p.Role}}
				meetings = append(meetings, mtg)
				break
			}
		}
	}
	return meetings, nil
}

func (repo *meetingRepository) GetMeetingByID(id int) (meeting.Meeting, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	mtg, ok := repo.db.table[id]
	if !ok {
		return meeting.Meeting{}, meeting.ErrNotFound
	}
	found := *mtg
	repo.users.RLock()
	for _, p := range repo.db.participants[id] {
		found.Participants = append(found.Participants, repo.joinUser(p))
	}
	repo.users.RUnlock()
	return found, nil
}

func (repo *meetingRepository) UpdateMeeting(mtg meeting.Meeting) (meeting.Meeting, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[mtg.ID]; !ok {
		return meeting.Meeting{}, meeting.ErrNotFound
	}
	stored := mtg
	stored.Participants = nil
	repo.db.table[mtg.ID] = &stored
	return mtg, nil
}

func (repo *meetingRepository) DeleteMeetingsByID(ids ...int) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
		delete(repo.db.participants, id)
	}
	return nil
}

func (repo *meetingRepository) AddParticipant(p meeting.Participant) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.participants[p.MeetingID] {
		if existing.UserID == p.UserID {
			return nil
		}
	}
	repo.db.participants[p.MeetingID] = append(repo.db.participants[p.MeetingID], p)
	return nil
}

func (repo *meetingRepository) RemoveParticipant(meetingID, userID int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	participants := repo.db.participants[meetingID]
	for i, p := range participants {
		if p.UserID == userID {
			repo.db.participants[meetingID] = append(participants[:i], participants[i+1:]...)
			return nil
		}
	}
	return meeting.ErrNotParticipant
}

func (repo *meetingRepository) GetParticipant(meetingID, userID int) (meeting.Participant, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, p := range repo.db.participants[meetingID] {
		if p.UserID == userID {
			repo.users.RLock()
			defer repo.users.RUnlock()
			return repo.joinUser(p), nil
		}
	}
	return meeting.Participant{}, meeting.ErrNotParticipant
}
