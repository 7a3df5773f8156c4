package project

import (
	"errors"
	"time"

	"github.com/minumate/backend/core/meeting"
)

var (
	// errors
	ErrNotFound      = errors.New("project not found")
	ErrAlreadyLinked = errors.New("meeting is already linked to this project")
	ErrNotLinked     = errors.New("meeting is not linked to this project")
)

type (
	Repository interface {
		CreateProject(prj Project) (Project, error)
		// QueryAllProjects returns all projects with MeetingCount joined in.
		QueryAllProjects() ([]Project, error)
		GetProjectByID(id int) (Project, error)
		UpdateProject(prj Project) (Project, error)
		DeleteProjectsByID(ids ...int) error

		LinkMeeting(projectID, meetingID int) error
		UnlinkMeeting(projectID, meetingID int) error
		IsMeetingLinked(projectID, meetingID int) (bool, error)
		QueryProjectMeetings(projectID int) ([]meeting.Meeting, error)
		// QueryUnlinkedMeetings returns meetings not linked to any project.
		QueryUnlinkedMeetings() ([]meeting.Meeting, error)
		QueryMeetingProjects(meetingID int) ([]Project, error)
	}

	Service interface {
		Create(np NewProject, createdBy int) (Project, error)
		QueryAll() ([]Project, error)
		GetByID(id int) (Project, error)
		Update(id int, up UpdateProject) (Project, error)
		Delete(ids ...int) error
		LinkMeeting(projectID, meetingID int) error
		UnlinkMeeting(projectID, meetingID int) error
		QueryMeetings(projectID int) ([]meeting.Meeting, error)
		QueryUnlinkedMeetings() ([]meeting.Meeting, error)
		QueryMeetingProjects(meetingID int) ([]Project, error)
	}

	service struct {
		repo Repository
	}
)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(np NewProject, createdBy int) (Project, error) {
	now := time.Now().UTC()
	prj := Project{
		Name:        np.Name,
		Description: np.Description,
		Status:      np.Status,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateProject(prj)
}

func (svc *service) QueryAll() ([]Project, error) {
	return svc.repo.QueryAllProjects()
}

func (svc *service) GetByID(id int) (Project, error) {
	return svc.repo.GetProjectByID(id)
}

func (svc *service) Update(id int, up UpdateProject) (Project, error) {
	orig, err := svc.repo.GetProjectByID(id)
	if err != nil {
		return Project{}, err
	}
	orig.Name = up.Name
	orig.Description = up.Description
	orig.Status = up.Status
	orig.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateProject(orig)
}

func (svc *service) Delete(ids ...int) error {
	return svc.repo.DeleteProjectsByID(ids...)
}

func (svc *service) LinkMeeting(projectID, meetingID int) error {
	linked, err := svc.repo.IsMeetingLinked(projectID, meetingID)
	if err != nil {
		return err
	}
	if linked {
		return ErrAlreadyLinked
	}
	return svc.repo.LinkMeeting(projectID, meetingID)
}

func (svc *service) UnlinkMeeting(projectID, meetingID int) error {
	linked, err := svc.repo.IsMeetingLinked(projectID, meetingID)
	if err != nil {
		return err
	}
	if !linked {
		return ErrNotLinked
	}
	return svc.repo.UnlinkMeeting(projectID, meetingID)
}

func (svc *service) QueryMeetings(projectID int) ([]meeting.Meeting, error) {
	if _, err := svc.repo.GetProjectByID(projectID); err != nil {
		return nil, err
	}
	return svc.repo.QueryProjectMeetings(projectID)
}

func (svc *service) QueryUnlinkedMeetings() ([]meeting.Meeting, error) {
	return svc.repo.QueryUnlinkedMeetings()
}

func (svc *service) QueryMeetingProjects(meetingID int) ([]Project, error) {
	return svc.repo.QueryMeetingProjects(meetingID)
}
