package dummydb

import (
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nkashama/duetrack/core/course"
	"github.com/nkashama/duetrack/core/group"
	"github.com/nkashama/duetrack/core/task"
	"github.com/nkashama/duetrack/core/user"
)

type (
	DB struct {
		user    *userTable
		course  *courseTable
		task    *taskTable
		subtask *subtaskTable
		group   *groupTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	courseTable struct {
		sync.RWMutex
		table map[string]*course.Course
	}

	taskTable struct {
		sync.RWMutex
		table map[string]*task.Task
	}

	subtaskTable struct {
		sync.RWMutex
		table map[string]*task.Subtask
	}

	groupTable struct {
		sync.RWMutex
		table map[string]*group.Group
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:    &userTable{table: make(map[string]*user.User)},
		course:  &courseTable{table: make(map[string]*course.Course)},
		task:    &taskTable{table: make(map[string]*task.Task)},
		subtask: &subtaskTable{table: make(map[string]*task.Subtask)},
		group:   &groupTable{table: make(map[string]*group.Group)},
	}
	return db, nil
}

func newID() string { return primitive.NewObjectID().Hex() }
