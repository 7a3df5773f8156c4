package sqliterepos

import (
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/minumate/backend/core/task"
)

type taskRow struct {
	ID            int         `db:"id"`
	MeetingID     int         `db:"meeting_id"`
	AssignedTo    null.Int    `db:"assigned_to"`
	Title         string      `db:"title"`
	Description   string      `db:"description"`
	DueDate       null.Time   `db:"due_date"`
	Status        string      `db:"status"`
	IntendedOwner string      `db:"intended_owner"`
	CreatedAt     time.Time   `db:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at"`
	MeetingTitle  null.String `db:"meeting_title"`
}

func (r taskRow) toTask() task.Task {
	t := task.Task{
		ID:            r.ID,
		MeetingID:     r.MeetingID,
		Title:         r.Title,
		Description:   r.Description,
		Status:        r.Status,
		IntendedOwner: r.IntendedOwner,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		MeetingTitle:  r.MeetingTitle.String,
	}
	if r.AssignedTo.Valid {
		uid := r.AssignedTo.Int
		t.AssignedTo = &uid
	}
	if r.DueDate.Valid {
		due := r.DueDate.Time
		t.DueDate = &due
	}
	return t
}

func toTasks(rows []taskRow) []task.Task {
	tasks := make([]task.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.toTask())
	}
	return tasks
}

type taskRepository struct {
	db *sqlx.DB
}

var _ task.Repository = (*taskRepository)(nil) // interface compliance check

func NewTaskRepository(db *sqlx.DB) *taskRepository {
	return &taskRepository{db: db}
}

func (repo *taskRepository) CreateTask(tsk task.Task) (task.Task, error) {
	res, err := repo.db.Exec(
		`INSERT INTO tasks (meeting_id, assigned_to, title, description, due_date, status, intended_owner, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tsk.MeetingID, null.IntFromPtr(tsk.AssignedTo), tsk.Title, tsk.Description,
		null.TimeFromPtr(tsk.DueDate), tsk.Status, tsk.IntendedOwner, tsk.CreatedAt, tsk.UpdatedAt,
	)
	if err != nil {
		return task.Task{}, errors.Wrap(err, "inserting task")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return task.Task{}, errors.Wrap(err, "inserting task")
	}
	tsk.ID = int(id)
	return tsk, nil
}

func (repo *taskRepository) GetTaskByID(id int) (task.Task, error) {
	var row taskRow
	err := repo.db.Get(&row,
		`SELECT t.*, m.title AS meeting_title FROM tasks t
		 JOIN meetings m ON m.id = t.meeting_id
		 WHERE t.id = ?`, id)
	if err != nil {
		return task.Task{}, trapNoRowsErr(err, task.ErrNotFound, "finding task")
	}
	return row.toTask(), nil
}

func (repo *taskRepository) QueryTasksByAssignee(userID int) ([]task.Task, error) {
	var rows []taskRow
	err := repo.db.Select(&rows,
		`SELECT t.*, m.title AS meeting_title FROM tasks t
		 JOIN meetings m ON m.id = t.meeting_id
		 WHERE t.assigned_to = ?
		 ORDER BY t.created_at DESC`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying tasks")
	}
	return toTasks(rows), nil
}

func (repo *taskRepository) QueryTasksByMeeting(meetingID int) ([]task.Task, error) {
	var rows []taskRow
	err := repo.db.Select(&rows,
		`SELECT t.*, m.title AS meeting_title FROM tasks t
		 JOIN meetings m ON m.id = t.meeting_id
		 WHERE t.meeting_id = ?
		 ORDER BY t.created_at DESC`, meetingID)
	if err != nil {
		return nil, errors.Wrap(err, "querying tasks")
	}
	return toTasks(rows), nil
}

func (repo *taskRepository) QueryUnassignedTasksByOwner(meetingID int, owner string) ([]task.Task, error) {
	var rows []taskRow
	err := repo.db.Select(&rows,
		`SELECT t.*, m.title AS meeting_title FROM tasks t
		 JOIN meetings m ON m.id = t.meeting_id
		 WHERE t.meeting_id = ? AND t.assigned_to IS NULL AND LOWER(t.intended_owner) LIKE ?`,
		meetingID, "%"+strings.ToLower(owner)+"%")
	if err != nil {
		return nil, errors.Wrap(err, "querying unassigned tasks")
	}
	return toTasks(rows), nil
}

func (repo *taskRepository) AssignTask(id, userID int) error {
	if _, err := repo.db.Exec(`UPDATE tasks SET assigned_to = ?, updated_at = ? WHERE id = ?`,
		userID, time.Now().UTC(), id); err != nil {
		return errors.Wrap(err, "assigning task")
	}
	return nil
}

func (repo *taskRepository) UpdateTaskStatus(id int, status string) error {
	if _, err := repo.db.Exec(`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id); err != nil {
		return errors.Wrap(err, "updating task status")
	}
	return nil
}

func (repo *taskRepository) DeleteTasksByID(ids ...int) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM tasks WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "deleting tasks")
	}
	if _, err = repo.db.Exec(q, args...); err != nil {
		return errors.Wrap(err, "deleting tasks")
	}
	return nil
}
