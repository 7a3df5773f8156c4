package testutil

import (
	"testing"
	"time"

	"github.com/minumate/backend/core/meeting"
	"github.com/minumate/backend/core/task"
	"github.com/minumate/backend/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	fullName, uname, email, pwd, role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		FullName:  fullName,
		Username:  uname,
		Email:     email,
		Role:      role,
		Status:    user.StatusRegistered,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	} else {
		usr.Status = user.StatusCreated
	}
	usr, err := repo.CreateUser(usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateMeeting(
	t *testing.T,
	repo meeting.Repository,
	title, transcript string,
	createdBy int,
) meeting.Meeting {
	now := time.Now().UTC()
	mtg, err := repo.CreateMeeting(meeting.Meeting{
		Title:      title,
		Transcript: transcript,
		CreatedBy:  createdBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("CreateMeeting() failed: %v", err)
	}
	if err = repo.AddParticipant(meeting.Participant{
		MeetingID: mtg.ID,
		UserID:    createdBy,
		Role:      meeting.RoleOrganizer,
	}); err != nil {
		t.Fatalf("AddParticipant() failed: %v", err)
	}
	return mtg
}

func CreateTask(
	t *testing.T,
	repo task.Repository,
	meetingID int,
	title, intendedOwner string,
	assignedTo *int,
) task.Task {
	now := time.Now().UTC()
	tsk, err := repo.CreateTask(task.Task{
		MeetingID:     meetingID,
		AssignedTo:    assignedTo,
		Title:         title,
		Status:        task.StatusPending,
		IntendedOwner: intendedOwner,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		t.Fatalf("CreateTask() failed: %v", err)
	}
	return tsk
}
