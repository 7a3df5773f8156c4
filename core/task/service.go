package task

import (
	"errors"
	"strings"
	"time"
)

var (
	// errors
	ErrNotFound    = errors.New("task not found")
	ErrNotAssignee = errors.New("task is not assigned to this user")
)

type (
	Repository interface {
		CreateTask(tsk Task) (Task, error)
		GetTaskByID(id int) (Task, error)
		// QueryTasksByAssignee returns tasks assigned to the user, most
		// recent first, with MeetingTitle joined in.
		QueryTasksByAssignee(userID int) ([]Task, error)
		QueryTasksByMeeting(meetingID int) ([]Task, error)
		QueryUnassignedTasksByOwner(meetingID int, owner string) ([]Task, error)
		AssignTask(id, userID int) error
		UpdateTaskStatus(id int, status string) error
		DeleteTasksByID(ids ...int) error
	}

	Service interface {
		Create(nt NewTask) (Task, error)
		GetByID(id int) (Task, error)
		QueryByAssignee(userID int) ([]Task, error)
		QueryByMeeting(meetingID int) ([]Task, error)
		UpdateStatus(id, userID int, status string) (Task, error)
		// AssignIntendedTasks assigns the meeting's unassigned tasks whose
		// intended owner matches the recipient name to the given user.
		AssignIntendedTasks(meetingID, userID int, recipientName string) ([]Task, error)
		Delete(ids ...int) error
	}

	service struct {
		repo Repository
	}
)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(nt NewTask) (Task, error) {
	now := time.Now().UTC()
	tsk := Task{
		MeetingID:     nt.MeetingID,
		AssignedTo:    nt.AssignedTo,
		Title:         nt.Title,
		Description:   nt.Description,
		DueDate:       nt.DueDate,
		Status:        StatusPending,
		IntendedOwner: nt.IntendedOwner,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return svc.repo.CreateTask(tsk)
}

func (svc *service) GetByID(id int) (Task, error) {
	return svc.repo.GetTaskByID(id)
}

func (svc *service) QueryByAssignee(userID int) ([]Task, error) {
	return svc.repo.QueryTasksByAssignee(userID)
}

func (svc *service) QueryByMeeting(meetingID int) ([]Task, error) {
	return svc.repo.QueryTasksByMeeting(meetingID)
}

// UpdateStatus sets a task's status. Only the assigned user may do so.
func (svc *service) UpdateStatus(id, userID int, status string) (Task, error) {
	tsk, err := svc.repo.GetTaskByID(id)
	if err != nil {
		return Task{}, err
	}
	if !tsk.IsAssignedTo(userID) {
		return Task{}, ErrNotAssignee
	}
	if err := svc.repo.UpdateTaskStatus(id, status); err != nil {
		return Task{}, err
	}
	tsk.Status = status
	tsk.UpdatedAt = time.Now().UTC()
	return tsk, nil
}

// AssignIntendedTasks matches on the full recipient name first, then on each
// name part longer than 2 characters, case-insensitive.
func (svc *service) AssignIntendedTasks(meetingID, userID int, recipientName string) ([]Task, error) {
	recipientName = strings.TrimSpace(recipientName)
	if recipientName == "" {
		return nil, nil
	}

	matched, err := svc.repo.QueryUnassignedTasksByOwner(meetingID, recipientName)
	if err != nil {
		return nil, err
	}
	seen := make(map[int]bool, len(matched))
	for _, tsk := range matched {
		seen[tsk.ID] = true
	}

	for _, part := range strings.Fields(strings.ToLower(recipientName)) {
		if len(part) <= 2 {
			continue
		}
		more, err := svc.repo.QueryUnassignedTasksByOwner(meetingID, part)
		if err != nil {
			return nil, err
		}
		for _, tsk := range more {
			if !seen[tsk.ID] {
				seen[tsk.ID] = true
				matched = append(matched, tsk)
			}
		}
	}

	for i := range matched {
		if err := svc.repo.AssignTask(matched[i].ID, userID); err != nil {
			return nil, err
		}
		uid := userID
		matched[i].AssignedTo = &uid
	}
	return matched, nil
}

func (svc *service) Delete(ids ...int) error {
	return svc.repo.DeleteTasksByID(ids...)
}
