package dummydb

import (
	"time"

	"github.com/nkashama/duetrack/core/task"
)

type taskRepository struct {
	db *DB
}

var _ task.Repository = (*taskRepository)(nil) // interface compliance check

func NewTaskRepository(db *DB) task.Repository {
	return &taskRepository{db: db}
}

func (repo *taskRepository) query() []task.Task {
	tasks := make([]task.Task, 0, len(repo.db.task.table))
	for _, tsk := range repo.db.task.table {
		tasks = append(tasks, *tsk)
	}
	return tasks
}

func (repo *taskRepository) CreateTask(tsk task.Task) (task.Task, error) {
	repo.db.task.Lock()
	defer repo.db.task.Unlock()

	tsk.ID = newID()
	repo.db.task.table[tsk.ID] = &tsk
	return tsk, nil
}

func (repo *taskRepository) TaskExists(userID, title string, dueDate time.Time, dueTime string) (bool, error) {
	repo.db.task.RLock()
	defer repo.db.task.RUnlock()

	for _, tsk := range repo.query() {
		if tsk.UserID == userID && tsk.Title == title && sameDay(tsk.DueDate, dueDate) && tsk.DueTime == dueTime {
			return true, nil
		}
	}
	return false, nil
}

func (repo *taskRepository) GetTaskByID(id string) (task.Task, error) {
	repo.db.task.RLock()
	defer repo.db.task.RUnlock()

	if tsk, ok := repo.db.task.table[id]; ok {
		return *tsk, nil
	}
	return task.Task{}, task.ErrNotFound
}

// QueryTasksByUser returns tasks the user owns, is shared on, or can see
// through group membership.
func (repo *taskRepository) QueryTasksByUser(userID string) ([]task.Task, error) {
	repo.db.task.RLock()
	defer repo.db.task.RUnlock()

	tasks := make([]task.Task, 0)
	for _, tsk := range repo.query() {
		if repo.visibleTo(tsk, userID) {
			tasks = append(tasks, tsk)
		}
	}
	return tasks, nil
}

func (repo *taskRepository) QueryTasksByCourse(courseID string) ([]task.Task, error) {
	repo.db.task.RLock()
	defer repo.db.task.RUnlock()

	tasks := make([]task.Task, 0)
	for _, tsk := range repo.query() {
		if tsk.CourseID == courseID {
			tasks = append(tasks, tsk)
		}
	}
	return tasks, nil
}

func (repo *taskRepository) FilterTasks(filter task.QueryFilter) ([]task.Task, error) {
	repo.db.task.RLock()
	defer repo.db.task.RUnlock()

	tasks := make([]task.Task, 0)
	for _, tsk := range repo.query() {
		if filter.UserID != "" && !repo.visibleTo(tsk, filter.UserID) {
			continue
		}
		if len(filter.Statuses) > 0 && !statusIn(tsk.Status, filter.Statuses) {
			continue
		}
		if filter.CourseID != "" && tsk.CourseID != filter.CourseID {
			continue
		}
		if !filter.DueFrom.IsZero() && tsk.DueDate.Before(filter.DueFrom) {
			continue
		}
		if !filter.DueTo.IsZero() && tsk.DueDate.After(filter.DueTo) {
			continue
		}
		tasks = append(tasks, tsk)
	}
	return tasks, nil
}

func (repo *taskRepository) UpdateTask(tsk task.Task) (task.Task, error) {
	repo.db.task.Lock()
	defer repo.db.task.Unlock()

	if _, ok := repo.db.task.table[tsk.ID]; !ok {
		return task.Task{}, task.ErrNotFound
	}
	repo.db.task.table[tsk.ID] = &tsk
	return tsk, nil
}

// DeleteTaskByID removes the task and cascades to its subtasks.
func (repo *taskRepository) DeleteTaskByID(id string) error {
	repo.db.subtask.Lock()
	for stID, st := range repo.db.subtask.table {
		if st.ParentTask == id {
			delete(repo.db.subtask.table, stID)
		}
	}
	repo.db.subtask.Unlock()

	repo.db.task.Lock()
	defer repo.db.task.Unlock()
	delete(repo.db.task.table, id)
	return nil
}

func (repo *taskRepository) CreateSubtask(st task.Subtask) (task.Subtask, error) {
	repo.db.subtask.Lock()
	defer repo.db.subtask.Unlock()

	st.ID = newID()
	repo.db.subtask.table[st.ID] = &st
	return st, nil
}

func (repo *taskRepository) GetSubtaskByID(id string) (task.Subtask, error) {
	repo.db.subtask.RLock()
	defer repo.db.subtask.RUnlock()

	if st, ok := repo.db.subtask.table[id]; ok {
		return *st, nil
	}
	return task.Subtask{}, task.ErrSubtaskNotFound
}

func (repo *taskRepository) QuerySubtasksByTask(taskID string) ([]task.Subtask, error) {
	repo.db.subtask.RLock()
	defer repo.db.subtask.RUnlock()

	subtasks := make([]task.Subtask, 0)
	for _, st := range repo.db.subtask.table {
		if st.ParentTask == taskID {
			subtasks = append(subtasks, *st)
		}
	}
	return subtasks, nil
}

func (repo *taskRepository) UpdateSubtask(st task.Subtask) (task.Subtask, error) {
	repo.db.subtask.Lock()
	defer repo.db.subtask.Unlock()

	if _, ok := repo.db.subtask.table[st.ID]; !ok {
		return task.Subtask{}, task.ErrSubtaskNotFound
	}
	repo.db.subtask.table[st.ID] = &st
	return st, nil
}

func (repo *taskRepository) DeleteSubtaskByID(id string) error {
	repo.db.subtask.Lock()
	defer repo.db.subtask.Unlock()
	delete(repo.db.subtask.table, id)
	return nil
}

func (repo *taskRepository) visibleTo(tsk task.Task, userID string) bool {
	if tsk.UserID == userID {
		return true
	}
	for _, id := range tsk.SharedWith {
		if id == userID {
			return true
		}
	}
	if tsk.GroupID != "" {
		repo.db.group.RLock()
		defer repo.db.group.RUnlock()
		if grp, ok := repo.db.group.table[tsk.GroupID]; ok {
			return grp.HasMember(userID)
		}
	}
	return false
}

func statusIn(status string, statuses []string) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
