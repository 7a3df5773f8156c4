package sqliterepos

import (
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/minumate/backend/core/meeting"
	"github.com/minumate/backend/core/project"
)

type projectRow struct {
	ID           int       `db:"id"`
	Name         string    `db:"name"`
	Description  string    `db:"description"`
	Status       string    `db:"status"`
	CreatedBy    int       `db:"created_by"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	MeetingCount int       `db:"meeting_count"`
}

func (r projectRow) toProject() project.Project {
	return project.Project{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		Status:       r.Status,
		CreatedBy:    r.CreatedBy,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		MeetingCount: r.MeetingCount,
	}
}

type projectRepository struct {
	db *sqlx.DB
}

var _ project.Repository = (*projectRepository)(nil) // interface compliance check

func NewProjectRepository(db *sqlx.DB) *projectRepository {
	return &projectRepository{db: db}
}

func (repo *projectRepository) CreateProject(prj project.Project) (project.Project, error) {
	res, err := repo.db.Exec(
		`INSERT INTO projects (name, description, status, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		prj.Name, prj.Description, prj.Status, prj.CreatedBy, prj.CreatedAt, prj.UpdatedAt,
	)
	if err != nil {
		return project.Project{}, errors.Wrap(err, "inserting project")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return project.Project{}, errors.Wrap(err, "inserting project")
	}
	prj.ID = int(id)
	return prj, nil
}

func (repo *projectRepository) QueryAllProjects() ([]project.Project, error) {
	var rows []projectRow
	err := repo.db.Select(&rows,
		`SELECT p.*, COUNT(pm.meeting_id) AS meeting_count FROM projects p
		 LEFT JOIN project_meetings pm ON pm.project_id = p.id
		 GROUP BY p.id
		 ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "querying projects")
	}
	projects := make([]project.Project, 0, len(rows))
	for _, r := range rows {
		projects = append(projects, r.toProject())
	}
	return projects, nil
}

func (repo *projectRepository) GetProjectByID(id int) (project.Project, error) {
	var row projectRow
	err := repo.db.Get(&row,
		`SELECT p.*, COUNT(pm.meeting_id) AS meeting_count FROM projects p
		 LEFT JOIN project_meetings pm ON pm.project_id = p.id
		 WHERE p.id = ?
		 GROUP BY p.id`, id)
	if err != nil {
		return project.Project{}, trapNoRowsErr(err, project.ErrNotFound, "finding project")
	}
	return row.toProject(), nil
}

func (repo *projectRepository) UpdateProject(prj project.Project) (project.Project, error) {
	_, err := repo.db.Exec(
		`UPDATE projects SET name = ?, description = ?, status = ?, updated_at = ? WHERE id = ?`,
		prj.Name, prj.Description, prj.Status, prj.UpdatedAt, prj.ID,
	)
	if err != nil {
		return project.Project{}, errors.Wrap(err, "updating project")
	}
	return prj, nil
}

func (repo *projectRepository) DeleteProjectsByID(ids ...int) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM projects WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "deleting projects")
	}
	if _, err = repo.db.Exec(q, args...); err != nil {
		return errors.Wrap(err, "deleting projects")
	}
	return nil
}

func (repo *projectRepository) LinkMeeting(projectID, meetingID int) error {
	_, err := repo.db.Exec(
		`INSERT INTO project_meetings (project_id, meeting_id) VALUES (?, ?)
		 ON CONFLICT (project_id, meeting_id) DO NOTHING`, projectID, meetingID)
	if err != nil {
		return errors.Wrap(err, "linking meeting")
	}
	return nil
}

func (repo *projectRepository) UnlinkMeeting(projectID, meetingID int) error {
	_, err := repo.db.Exec(
		`DELETE FROM project_meetings WHERE project_id = ? AND meeting_id = ?`, projectID, meetingID)
	if err != nil {
		return errors.Wrap(err, "unlinking meeting")
	}
	return nil
}

func (repo *projectRepository) IsMeetingLinked(projectID, meetingID int) (bool, error) {
	var count int
	err := repo.db.Get(&count,
		`SELECT COUNT(*) FROM project_meetings WHERE project_id = ? AND meeting_id = ?`, projectID, meetingID)
	if err != nil {
		return false, errors.Wrap(err, "checking meeting link")
	}
	return count > 0, nil
}

func (repo *projectRepository) QueryProjectMeetings(projectID int) ([]meeting.Meeting, error) {
	var rows []meetingRow
	err := repo.db.Select(&rows,
		`SELECT m.* FROM meetings m
		 JOIN project_meetings pm ON pm.meeting_id = m.id
		 WHERE pm.project_id = ?
		 ORDER BY m.created_at DESC`, projectID)
	if err != nil {
		return nil, errors.Wrap(err, "querying project meetings")
	}
	meetings := make([]meeting.Meeting, 0, len(rows))
	for _, r := range rows {
		meetings = append(meetings, r.toMeeting())
	}
	return meetings, nil
}

func (repo *projectRepository) QueryUnlinkedMeetings() ([]meeting.Meeting, error) {
	var rows []meetingRow
	err := repo.db.Select(&rows,
		`SELECT m.* FROM meetings m
		 WHERE m.id NOT IN (SELECT meeting_id FROM project_meetings)
		 ORDER BY m.created_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "querying unlinked meetings")
	}
	meetings := make([]meeting.Meeting, 0, len(rows))
	for _, r := range rows {
		meetings = append(meetings, r.toMeeting())
	}
	return meetings, nil
}

func (repo *projectRepository) QueryMeetingProjects(meetingID int) ([]project.Project, error) {
	var rows []projectRow
	err := repo.db.Select(&rows,
		`SELECT p.*, 0 AS meeting_count FROM projects p
		 JOIN project_meetings pm ON pm.project_id = p.id
		 WHERE pm.meeting_id = ?
		 ORDER BY p.created_at DESC`, meetingID)
	if err != nil {
		return nil, errors.Wrap(err, "querying meeting projects")
	}
	projects := make([]project.Project, 0, len(rows))
	for _, r := range rows {
		projects = append(projects, r.toProject())
	}
	return projects, nil
}
