package dummydb

import (
	"sort"

	"github.com/minumate/backend/core/meeting"
	"github.com/minumate/backend/core/project"
)

var projectPKCount int

type projectRepository struct {
	db       *projectTable
	meetings *meetingTable
}

var _ project.Repository = (*projectRepository)(nil) // interface compliance check

func NewProjectRepository(db *DB) project.Repository {
	return &projectRepository{db: db.project, meetings: db.meeting}
}

func (repo *projectRepository) query() []project.Project {
	projects := make([]project.Project, 0, len(repo.db.table))
	for _, prj := range repo.db.table {
		p := *prj
		p.MeetingCount = len(repo.db.links[p.ID])
		projects = append(projects, p)
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].CreatedAt.After(projects[j].CreatedAt) })
	return projects
}

func (repo *projectRepository) CreateProject(prj project.Project) (project.Project, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	projectPKCount++
	prj.ID = projectPKCount
	repo.db.table[prj.ID] = &prj
	return prj, nil
}

func (repo *projectRepository) QueryAllProjects() ([]project.Project, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *projectRepository) GetProjectByID(id int) (project.Project, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	prj, ok := repo.db.table[id]
	if !ok {
		return project.Project{}, project.ErrNotFound
	}
	found := *prj
	found.MeetingCount = len(repo.db.links[id])
	return found, nil
}

func (repo *projectRepository) UpdateProject(prj project.Project) (project.Project, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[prj.ID]; !ok {
		return project.Project{}, project.ErrNotFound
	}
	stored := prj
	repo.db.table[prj.ID] = &stored
	return prj, nil
}

func (repo *projectRepository) DeleteProjectsByID(ids ...int) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
		delete(repo.db.links, id)
	}
	return nil
}

func (repo *projectRepository) LinkMeeting(projectID, meetingID int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, mid := range repo.db.links[projectID] {
		if mid == meetingID {
			return nil
		}
	}
	repo.db.links[projectID] = append(repo.db.links[projectID], meetingID)
	return nil
}

func (repo *projectRepository) UnlinkMeeting(projectID, meetingID int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	links := repo.db.links[projectID]
	for i, mid := range links {
		if mid == meetingID {
			repo.db.links[projectID] = append(links[:i], links[i+1:]...)
			return nil
		}
	}
	return nil
}

func (repo *projectRepository) IsMeetingLinked(projectID, meetingID int) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, mid := range repo.db.links[projectID] {
		if mid == meetingID {
			return true, nil
		}
	}
	return false, nil
}

func (repo *projectRepository) QueryProjectMeetings(projectID int) ([]meeting.Meeting, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	repo.meetings.RLock()
	defer repo.meetings.RUnlock()

	var meetings []meeting.Meeting
	for _, mid := range repo.db.links[projectID] {
		if mtg, ok := repo.meetings.table[mid]; ok {
			meetings = append(meetings, *mtg)
		}
	}
	sort.Slice(meetings, func(i, j int) bool { return meetings[i].CreatedAt.After(meetings[j].CreatedAt) })
	return meetings, nil
}

func (repo *projectRepository) QueryUnlinkedMeetings() ([]meeting.Meeting, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	repo.meetings.RLock()
	defer repo.meetings.RUnlock()

	linked := make(map[int]bool)
	for _, mids := range repo.db.links {
		for _, mid := range mids {
			linked[mid] = true
		}
	}
	var meetings []meeting.Meeting
	for _, mtg := range repo.meetings.table {
		if !linked[mtg.ID] {
			meetings = append(meetings, *mtg)
		}
	}
	sort.Slice(meetings, func(i, j int) bool { return meetings[i].CreatedAt.After(meetings[j].CreatedAt) })
	return meetings, nil
}

func (repo *projectRepository) QueryMeetingProjects(meetingID int) ([]project.Project, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var projects []project.Project
	for _, prj := range repo.db.table {
		for _, mid := range repo.db.links[prj.ID] {
			if mid == meetingID {
				projects = append(projects, *prj)
				break
			}
		}
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].CreatedAt.After(projects[j].CreatedAt) })
	return projects, nil
}
