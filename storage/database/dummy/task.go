package dummydb

import (
	"sort"
	"strings"
	"time"

	"github.com/minumate/backend/core/task"
)

var taskPKCount int

type taskRepository struct {
	db       *taskTable
	meetings *meetingTable
}

var _ task.Repository = (*taskRepository)(nil) // interface compliance check

func NewTaskRepository(db *DB) task.Repository {
	return &taskRepository{db: db.task, meetings: db.meeting}
}

func (repo *taskRepository) query() []task.Task {
	tasks := make([]task.Task, 0, len(repo.db.table))
	repo.meetings.RLock()
	for _, tsk := range repo.db.table {
		t := *tsk
		if mtg, ok := repo.meetings.table[t.MeetingID]; ok {
			t.MeetingTitle = mtg.Title
		}
		tasks = append(tasks, t)
	}
	repo.meetings.RUnlock()
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].CreatedAt.After(tasks[j].CreatedAt) })
	return tasks
}

func (repo *taskRepository) CreateTask(tsk task.Task) (task.Task, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	taskPKCount++
	tsk.ID = taskPKCount
	repo.db.table[tsk.ID] = &tsk
	return tsk, nil
}

func (repo *taskRepository) GetTaskByID(id int) (task.Task, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, tsk := range repo.query() {
		if tsk.ID == id {
			return tsk, nil
		}
	}
	return task.Task{}, task.ErrNotFound
}

func (repo *taskRepository) QueryTasksByAssignee(userID int) ([]task.Task, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var tasks []task.Task
	for _, tsk := range repo.query() {
		if tsk.IsAssignedTo(userID) {
			tasks = append(tasks, tsk)
		}
	}
	return tasks, nil
}

func (repo *taskRepository) QueryTasksByMeeting(meetingID int) ([]task.Task, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var tasks []task.Task
	for _, tsk := range repo.query() {
		if tsk.MeetingID == meetingID {
			tasks = append(tasks, tsk)
		}
	}
	return tasks, nil
}

func (repo *taskRepository) QueryUnassignedTasksByOwner(meetingID int, owner string) ([]task.Task, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	owner = strings.ToLower(owner)
	var tasks []task.Task
	for _, tsk := range repo.query() {
		if tsk.MeetingID == meetingID && !tsk.IsAssigned() &&
			strings.Contains(strings.ToLower(tsk.IntendedOwner), owner) {
			tasks = append(tasks, tsk)
		}
	}
	return tasks, nil
}

func (repo *taskRepository) AssignTask(id, userID int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	tsk, ok := repo.db.table[id]
	if !ok {
		return task.ErrNotFound
	}
	tsk.AssignedTo = &userID
	tsk.UpdatedAt = time.Now().UTC()
	return nil
}

func (repo *taskRepository) UpdateTaskStatus(id int, status string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	tsk, ok := repo.db.table[id]
	if !ok {
		return task.ErrNotFound
	}
	tsk.Status = status
	tsk.UpdatedAt = time.Now().UTC()
	return nil
}

func (repo *taskRepository) DeleteTasksByID(ids ...int) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
