package dummydb

import (
	"sync"

	"github.com/minumate/backend/core/meeting"
	"github.com/minumate/backend/core/project"
	"github.com/minumate/backend/core/task"
	"github.com/minumate/backend/core/tracking"
	"github.com/minumate/backend/core/user"
)

type (
	DB struct {
		user     *userTable
		meeting  *meetingTable
		task     *taskTable
		project  *projectTable
		tracking *trackingTable
	}

	userTable struct {
		sync.RWMutex
		table map[int]*user.User
	}

	meetingTable struct {
		sync.RWMutex
		table        map[int]*meeting.Meeting
		participants map[int][]meeting.Participant // by meeting ID
	}

	taskTable struct {
		sync.RWMutex
		table map[int]*task.Task
	}

	projectTable struct {
		sync.RWMutex
		table map[int]*project.Project
		links map[int][]int // project ID -> meeting IDs
	}

	trackingTable struct {
		sync.RWMutex
		table  map[string]*tracking.Email // by tracking ID
		events map[string][]tracking.Event
	}
)

// Reset drops all rows. Primary key counters keep counting so IDs stay
// unique across resets.
func (db *DB) Reset() {
	db.user.Lock()
	db.user.table = make(map[int]*user.User)
	db.user.Unlock()

	db.meeting.Lock()
	db.meeting.table = make(map[int]*meeting.Meeting)
	db.meeting.participants = make(map[int][]meeting.Participant)
	db.meeting.Unlock()

	db.task.Lock()
	db.task.table = make(map[int]*task.Task)
	db.task.Unlock()

	db.project.Lock()
	db.project.table = make(map[int]*project.Project)
	db.project.links = make(map[int][]int)
	db.project.Unlock()

	db.tracking.Lock()
	db.tracking.table = make(map[string]*tracking.Email)
	db.tracking.events = make(map[string][]tracking.Event)
	db.tracking.Unlock()
}

func Open() (*DB, error) {
	db := &DB{
		user:     &userTable{table: make(map[int]*user.User)},
		meeting:  &meetingTable{table: make(map[int]*meeting.Meeting), participants: make(map[int][]meeting.Participant)},
		task:     &taskTable{table: make(map[int]*task.Task)},
		project:  &projectTable{table: make(map[int]*project.Project), links: make(map[int][]int)},
		tracking: &trackingTable{table: make(map[string]*tracking.Email), events: make(map[string][]tracking.Event)},
	}
	return db, nil
}
