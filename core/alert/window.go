package alert

import (
	"time"

	"github.com/pkg/errors"

	"github.com/nkashama/duetrack/core/task"
)

// DueAt combines a task's calendar due date with its 12-hour clock due time
// into a single instant in loc. Any time-of-day embedded in dueDate is
// ignored; only its calendar date matters.
func DueAt(dueDate time.Time, dueTime string, loc *time.Location) (time.Time, error) {
	hour, minute, err := task.ParseDueTime(dueTime)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parsing due time %q", dueTime)
	}
	return time.Date(dueDate.Year(), dueDate.Month(), dueDate.Day(), hour, minute, 0, 0, loc), nil
}

// IsDue reports whether the task's deadline falls inside [now, now+horizon],
// both bounds inclusive. A task whose due time cannot be parsed is never due.
func IsDue(tsk task.Task, now time.Time, horizon time.Duration) bool {
	dueAt, err := DueAt(tsk.DueDate, tsk.DueTime, now.Location())
	if err != nil {
		return false
	}
	return !dueAt.Before(now) && !dueAt.After(now.Add(horizon))
}
