package alert

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nkashama/duetrack/core"
	"github.com/nkashama/duetrack/core/task"
)

// EventDeadlineAlert is the outbound event carrying a Notification.
const EventDeadlineAlert = "deadlineAlert"

// Notification is the deadline alert payload delivered to clients.
type Notification struct {
	ID       string    `json:"id"`
	TaskID   string    `json:"taskId"`
	Title    string    `json:"title"`
	DueAt    time.Time `json:"dueAt"`
	DueTime  string    `json:"dueTime"`
	CourseID string    `json:"courseId,omitempty"`
	Message  string    `json:"message"`
}

// NewNotification builds the alert payload for a task due at dueAt.
func NewNotification(tsk task.Task, dueAt time.Time) Notification {
	return Notification{
		ID:       uuid.New().String(),
		TaskID:   tsk.ID,
		Title:    tsk.Title,
		DueAt:    dueAt,
		DueTime:  tsk.DueTime,
		CourseID: tsk.CourseID,
		Message:  fmt.Sprintf("Your task %q is due soon!", tsk.Title),
	}
}

// Dispatcher fans deadline alerts out to a user's live connections.
type Dispatcher struct {
	registry *Registry
	logger   core.Logger
}

func NewDispatcher(registry *Registry, logger core.Logger) *Dispatcher {
	return &Dispatcher{registry: registry, logger: logger}
}

// Dispatch sends n once to every connection the user holds right now.
// Fire and forget: send failures are logged, never returned, and do not
// stop delivery to the user's other connections.
func (dis *Dispatcher) Dispatch(userID string, n Notification) {
	for _, conn := range dis.registry.Connections(userID) {
		if err := conn.Send(EventDeadlineAlert, n); err != nil {
			dis.logger.Error(
				"failed to deliver deadline alert",
				"user", userID, "task", n.TaskID, "conn", conn.ID(), "err", err,
			)
		}
	}
}
