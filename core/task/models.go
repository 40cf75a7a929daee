package task

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/nkashama/duetrack/core"
)

// Lifecycle statuses. Completed and overdue are terminal: the deadline
// scanner never looks at them.
const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusOverdue    = "overdue"

	GroupStatusIndividual = "individual"
	GroupStatusGroup      = "group"

	// DueDateLayout is the wire format of due dates.
	DueDateLayout = "2006-01-02"
)

// ActiveStatuses are the statuses eligible for deadline alerts.
var ActiveStatuses = []string{StatusPending, StatusInProgress}

type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	DueDate     time.Time `json:"due_date"`
	DueTime     string    `json:"due_time"` // 12-hour clock, eg. "02:30 PM"
	Status      string    `json:"status"`
	GroupStatus string    `json:"group_status"`
	CourseID    string    `json:"course_id,omitempty"`
	UserID      string    `json:"user_id"`
	SharedWith  []string  `json:"shared_with,omitempty"`
	GroupID     string    `json:"group_id,omitempty"`
	SubtaskIDs  []string  `json:"subtask_ids,omitempty"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// WithCourseCode is a Task joined with its course's code for list screens.
type WithCourseCode struct {
	Task
	CourseCode string `json:"course_code,omitempty"`
}

type Subtask struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	DueDate     time.Time `json:"due_date"`
	DueTime     string    `json:"due_time"`
	Status      string    `json:"status"`
	GroupStatus string    `json:"group_status"` // inherited from parent task
	CourseID    string    `json:"course_id,omitempty"`
	ParentTask  string    `json:"parent_task"`
	Assignee    string    `json:"assignee"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// NewTask contains information needed to add a new Task.
type NewTask struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
	DueDate     string   `json:"due_date" validate:"required,datetime=2006-01-02"`
	DueTime     string   `json:"due_time" validate:"required,duetime"`
	GroupStatus string   `json:"group_status" validate:"required,oneof=individual group"`
	CourseID    string   `json:"course_id" validate:"omitempty,objectid"`
	SharedWith  []string `json:"shared_with" validate:"omitempty,dive,objectid"`
	GroupID     string   `json:"group_id" validate:"omitempty,objectid"`
}

func (nt *NewTask) Validate(validate *validator.Validate) error {
	nt.Title = core.CleanString(nt.Title)
	nt.Description = core.CleanString(nt.Description)
	nt.DueTime = core.CleanString(nt.DueTime)
	return validate.Struct(nt)
}

// UpdateTask defines what information may be provided to modify an existing Task.
// Zero-valued fields are left untouched.
type UpdateTask struct {
	Description *string `json:"description" validate:"omitempty"`
	DueDate     string  `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	DueTime     string  `json:"due_time" validate:"omitempty,duetime"`
	Status      string  `json:"status" validate:"omitempty,oneof=pending in-progress completed overdue"`
	GroupStatus string  `json:"group_status" validate:"omitempty,oneof=individual group"`
}

func (ut *UpdateTask) Validate(validate *validator.Validate) error {
	ut.DueTime = core.CleanString(ut.DueTime)
	return validate.Struct(ut)
}

// UpdateTaskStatus moves a Task through its lifecycle.
type UpdateTaskStatus struct {
	TaskID string `json:"task_id" validate:"required,objectid"`
	Status string `json:"status" validate:"required,oneof=pending in-progress completed overdue"`
}

func (us *UpdateTaskStatus) Validate(validate *validator.Validate) error {
	return validate.Struct(us)
}

// NewSubtask contains information needed to add a Subtask to a Task.
// GroupStatus and CourseID are inherited from the parent.
type NewSubtask struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	DueDate     string `json:"due_date" validate:"required,datetime=2006-01-02"`
	DueTime     string `json:"due_time" validate:"required,duetime"`
	Assignee    string `json:"assignee" validate:"required,objectid"`
}

func (ns *NewSubtask) Validate(validate *validator.Validate) error {
	ns.Title = core.CleanString(ns.Title)
	ns.Description = core.CleanString(ns.Description)
	ns.DueTime = core.CleanString(ns.DueTime)
	return validate.Struct(ns)
}

// UpdateSubtask defines what information may be provided to modify an existing Subtask.
type UpdateSubtask struct {
	Title       string  `json:"title" validate:"omitempty"`
	Description *string `json:"description" validate:"omitempty"`
	DueDate     string  `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	DueTime     string  `json:"due_time" validate:"omitempty,duetime"`
	Status      string  `json:"status" validate:"omitempty,oneof=pending in-progress completed overdue"`
	Assignee    string  `json:"assignee" validate:"omitempty,objectid"`
}

func (us *UpdateSubtask) Validate(validate *validator.Validate) error {
	us.DueTime = core.CleanString(us.DueTime)
	return validate.Struct(us)
}

// QueryFilter narrows task queries. Zero-valued fields are ignored.
type QueryFilter struct {
	UserID   string
	Statuses []string
	CourseID string
	DueFrom  time.Time
	DueTo    time.Time
}
