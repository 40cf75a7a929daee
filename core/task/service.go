package task

import (
	"time"

	"github.com/pkg/errors"

	"github.com/nkashama/duetrack/core"
	"github.com/nkashama/duetrack/core/course"
)

var (
	// errors
	ErrNotFound        = errors.New("task not found")
	ErrSubtaskNotFound = errors.New("subtask not found")

	errDuplicateTask = core.NewValidationError(nil, core.FieldError{
		Field: "title",
		Error: "a task with the same title, due date and due time already exists",
	})
)

type (
	Repository interface {
		CreateTask(tsk Task) (Task, error)
		TaskExists(userID, title string, dueDate time.Time, dueTime string) (bool, error)
		GetTaskByID(id string) (Task, error)
		QueryTasksByUser(userID string) ([]Task, error) // owner, shared-with or group member
		QueryTasksByCourse(courseID string) ([]Task, error)
		FilterTasks(filter QueryFilter) ([]Task, error)
		UpdateTask(tsk Task) (Task, error)
		DeleteTaskByID(id string) error // cascades to subtasks

		CreateSubtask(st Subtask) (Subtask, error)
		GetSubtaskByID(id string) (Subtask, error)
		QuerySubtasksByTask(taskID string) ([]Subtask, error)
		UpdateSubtask(st Subtask) (Subtask, error)
		DeleteSubtaskByID(id string) error
	}

	// CourseDirectory resolves course IDs for list joins and analytics.
	CourseDirectory interface {
		GetCoursesByIDs(ids []string) ([]course.Course, error)
	}

	ServiceInterface interface {
		Add(userID string, nt NewTask) (Task, error)
		QueryForUser(userID string) ([]WithCourseCode, error)
		GetByID(id string) (Task, error)
		ByStatus(userID, status string) ([]WithCourseCode, error)
		ByDueDate(userID string, date time.Time) ([]WithCourseCode, error)
		ByWeek(userID string, now time.Time) ([]WithCourseCode, error)
		ByCourse(courseID string) ([]Task, error)
		Update(orig Task, ut UpdateTask) (Task, error)
		UpdateStatus(orig Task, status string) (Task, error)
		Delete(id string) error
		QueryDueCandidates() ([]Task, error)

		AddSubtask(parent Task, ns NewSubtask) (Subtask, error)
		SubtasksForTask(taskID string) ([]Subtask, error)
		GetSubtaskByID(id string) (Subtask, error)
		UpdateSubtaskByID(orig Subtask, us UpdateSubtask) (Subtask, error)
		DeleteSubtask(parent Task, subtaskID string) error

		StatusStats(userID string) (StatusStats, error)
		CourseStats(userID string) ([]CourseStats, error)
		TimeStats(userID, unit string) ([]TimeStats, error)
		CompletionRates(userID string) ([]CompletionRate, error)
	}

	Service struct {
		repo    Repository
		courses CourseDirectory
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, courses CourseDirectory) *Service {
	return &Service{repo: repo, courses: courses}
}

func (svc *Service) Add(userID string, nt NewTask) (Task, error) {
	dueDate, err := time.Parse(DueDateLayout, nt.DueDate)
	if err != nil {
		return Task{}, errors.Wrap(err, "parsing due date")
	}

	exists, err := svc.repo.TaskExists(userID, nt.Title, dueDate, nt.DueTime)
	if err != nil {
		return Task{}, err
	}
	if exists {
		return Task{}, errDuplicateTask
	}

	now := time.Now().UTC()
	return svc.repo.CreateTask(Task{
		Title:       nt.Title,
		Description: nt.Description,
		DueDate:     dueDate,
		DueTime:     nt.DueTime,
		Status:      StatusPending,
		GroupStatus: nt.GroupStatus,
		CourseID:    nt.CourseID,
		UserID:      userID,
		SharedWith:  nt.SharedWith,
		GroupID:     nt.GroupID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *Service) QueryForUser(userID string) ([]WithCourseCode, error) {
	tsks, err := svc.repo.QueryTasksByUser(userID)
	if err != nil {
		return nil, err
	}
	return svc.withCourseCodes(tsks)
}

func (svc *Service) GetByID(id string) (Task, error) {
	return svc.repo.GetTaskByID(id)
}

func (svc *Service) ByStatus(userID, status string) ([]WithCourseCode, error) {
	tsks, err := svc.repo.FilterTasks(QueryFilter{UserID: userID, Statuses: []string{status}})
	if err != nil {
		return nil, err
	}
	return svc.withCourseCodes(tsks)
}

// ByDueDate returns the user's tasks due on the given calendar day.
func (svc *Service) ByDueDate(userID string, date time.Time) ([]WithCourseCode, error) {
	from := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	tsks, err := svc.repo.FilterTasks(QueryFilter{
		UserID:  userID,
		DueFrom: from,
		DueTo:   from.AddDate(0, 0, 1).Add(-time.Nanosecond),
	})
	if err != nil {
		return nil, err
	}
	return svc.withCourseCodes(tsks)
}

// ByWeek returns the user's active tasks due within 7 days of now.
func (svc *Service) ByWeek(userID string, now time.Time) ([]WithCourseCode, error) {
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	tsks, err := svc.repo.FilterTasks(QueryFilter{
		UserID:   userID,
		Statuses: ActiveStatuses,
		DueFrom:  from,
		DueTo:    from.AddDate(0, 0, 7),
	})
	if err != nil {
		return nil, err
	}
	return svc.withCourseCodes(tsks)
}

func (svc *Service) ByCourse(courseID string) ([]Task, error) {
	return svc.repo.QueryTasksByCourse(courseID)
}

func (svc *Service) Update(orig Task, ut UpdateTask) (Task, error) {
	if ut.Description != nil {
		orig.Description = *ut.Description
	}
	if ut.DueDate != "" {
		dueDate, err := time.Parse(DueDateLayout, ut.DueDate)
		if err != nil {
			return Task{}, errors.Wrap(err, "parsing due date")
		}
		orig.DueDate = dueDate
	}
	if ut.DueTime != "" {
		orig.DueTime = ut.DueTime
	}
	if ut.Status != "" {
		orig.Status = ut.Status
	}
	if ut.GroupStatus != "" {
		orig.GroupStatus = ut.GroupStatus
	}
	orig.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateTask(orig)
}

func (svc *Service) UpdateStatus(orig Task, status string) (Task, error) {
	orig.Status = status
	orig.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateTask(orig)
}

func (svc *Service) Delete(id string) error {
	return svc.repo.DeleteTaskByID(id)
}

// QueryDueCandidates returns every task, across all users, that is still
// eligible for a deadline alert (pending or in progress).
func (svc *Service) QueryDueCandidates() ([]Task, error) {
	return svc.repo.FilterTasks(QueryFilter{Statuses: ActiveStatuses})
}

func (svc *Service) AddSubtask(parent Task, ns NewSubtask) (Subtask, error) {
	dueDate, err := time.Parse(DueDateLayout, ns.DueDate)
	if err != nil {
		return Subtask{}, errors.Wrap(err, "parsing due date")
	}

	now := time.Now().UTC()
	st, err := svc.repo.CreateSubtask(Subtask{
		Title:       ns.Title,
		Description: ns.Description,
		DueDate:     dueDate,
		DueTime:     ns.DueTime,
		Status:      StatusPending,
		GroupStatus: parent.GroupStatus,
		CourseID:    parent.CourseID,
		ParentTask:  parent.ID,
		Assignee:    ns.Assignee,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return Subtask{}, err
	}

	parent.SubtaskIDs = append(parent.SubtaskIDs, st.ID)
	parent.UpdatedAt = now
	if _, err := svc.repo.UpdateTask(parent); err != nil {
		return Subtask{}, err
	}
	return st, nil
}

func (svc *Service) SubtasksForTask(taskID string) ([]Subtask, error) {
	return svc.repo.QuerySubtasksByTask(taskID)
}

func (svc *Service) GetSubtaskByID(id string) (Subtask, error) {
	return svc.repo.GetSubtaskByID(id)
}

func (svc *Service) UpdateSubtaskByID(orig Subtask, us UpdateSubtask) (Subtask, error) {
	if us.Title != "" {
		orig.Title = us.Title
	}
	if us.Description != nil {
		orig.Description = *us.Description
	}
	if us.DueDate != "" {
		dueDate, err := time.Parse(DueDateLayout, us.DueDate)
		if err != nil {
			return Subtask{}, errors.Wrap(err, "parsing due date")
		}
		orig.DueDate = dueDate
	}
	if us.DueTime != "" {
		orig.DueTime = us.DueTime
	}
	if us.Status != "" {
		orig.Status = us.Status
	}
	if us.Assignee != "" {
		orig.Assignee = us.Assignee
	}
	orig.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSubtask(orig)
}

func (svc *Service) DeleteSubtask(parent Task, subtaskID string) error {
	if err := svc.repo.DeleteSubtaskByID(subtaskID); err != nil {
		return err
	}

	ids := make([]string, 0, len(parent.SubtaskIDs))
	for _, id := range parent.SubtaskIDs {
		if id != subtaskID {
			ids = append(ids, id)
		}
	}
	parent.SubtaskIDs = ids
	parent.UpdatedAt = time.Now().UTC()
	_, err := svc.repo.UpdateTask(parent)
	return err
}

// withCourseCodes joins tasks with their course codes in one directory lookup.
func (svc *Service) withCourseCodes(tsks []Task) ([]WithCourseCode, error) {
	seen := make(map[string]bool, len(tsks))
	ids := make([]string, 0, len(tsks))
	for _, tsk := range tsks {
		if tsk.CourseID == "" || seen[tsk.CourseID] {
			continue
		}
		seen[tsk.CourseID] = true
		ids = append(ids, tsk.CourseID)
	}

	codes := make(map[string]string, len(ids))
	if len(ids) > 0 {
		crss, err := svc.courses.GetCoursesByIDs(ids)
		if err != nil {
			return nil, err
		}
		for _, crs := range crss {
			codes[crs.ID] = crs.Code
		}
	}

	res := make([]WithCourseCode, 0, len(tsks))
	for _, tsk := range tsks {
		res = append(res, WithCourseCode{Task: tsk, CourseCode: codes[tsk.CourseID]})
	}
	return res, nil
}
