package task_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkashama/duetrack/core"
	"github.com/nkashama/duetrack/core/course"
	"github.com/nkashama/duetrack/core/task"
	dummydb "github.com/nkashama/duetrack/storage/dummy"
)

type fixture struct {
	svc     *task.Service
	courses course.Repository
	userID  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := dummydb.Open()
	require.NoError(t, err)

	return &fixture{
		svc:     task.NewService(dummydb.NewTaskRepository(db), dummydb.NewCourseDirectory(db)),
		courses: dummydb.NewCourseRepository(db),
		userID:  "user-1",
	}
}

func (f *fixture) addCourse(t *testing.T, name, code string) course.Course {
	t.Helper()
	crs, err := f.courses.CreateCourse(course.Course{Name: name, Code: code, UserID: f.userID})
	require.NoError(t, err)
	return crs
}

func (f *fixture) addTask(t *testing.T, title, dueDate, status, courseID string) task.Task {
	t.Helper()
	tsk, err := f.svc.Add(f.userID, task.NewTask{
		Title:       title,
		DueDate:     dueDate,
		DueTime:     "11:59 PM",
		GroupStatus: task.GroupStatusIndividual,
		CourseID:    courseID,
	})
	require.NoError(t, err)

	if status != task.StatusPending {
		tsk, err = f.svc.UpdateStatus(tsk, status)
		require.NoError(t, err)
	}
	return tsk
}

func dateIn(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format(task.DueDateLayout)
}

func TestAddRejectsDuplicates(t *testing.T) {
	f := newFixture(t)
	due := dateIn(1)

	_, err := f.svc.Add(f.userID, task.NewTask{
		Title:       "Final report",
		DueDate:     due,
		DueTime:     "11:59 PM",
		GroupStatus: task.GroupStatusIndividual,
	})
	require.NoError(t, err)

	// same title, date and time for the same user
	_, err = f.svc.Add(f.userID, task.NewTask{
		Title:       "Final report",
		DueDate:     due,
		DueTime:     "11:59 PM",
		GroupStatus: task.GroupStatusIndividual,
	})
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)

	// a different time on the same day is a different deadline
	_, err = f.svc.Add(f.userID, task.NewTask{
		Title:       "Final report",
		DueDate:     due,
		DueTime:     "09:00 AM",
		GroupStatus: task.GroupStatusIndividual,
	})
	assert.NoError(t, err)

	// another user may reuse the exact slot
	_, err = f.svc.Add("user-2", task.NewTask{
		Title:       "Final report",
		DueDate:     due,
		DueTime:     "11:59 PM",
		GroupStatus: task.GroupStatusIndividual,
	})
	assert.NoError(t, err)
}

func TestByWeek(t *testing.T) {
	f := newFixture(t)

	inWeek := f.addTask(t, "Due tomorrow", dateIn(1), task.StatusPending, "")
	f.addTask(t, "Due next month", dateIn(30), task.StatusPending, "")
	f.addTask(t, "Already done", dateIn(2), task.StatusCompleted, "")

	tasks, err := f.svc.ByWeek(f.userID, time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, inWeek.ID, tasks[0].ID)
}

func TestQueryForUserJoinsCourseCodes(t *testing.T) {
	f := newFixture(t)
	crs := f.addCourse(t, "Data Structures", "CS201")

	f.addTask(t, "Assignment 1", dateIn(1), task.StatusPending, crs.ID)
	f.addTask(t, "No course", dateIn(1), task.StatusPending, "")

	tasks, err := f.svc.QueryForUser(f.userID)
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	byTitle := make(map[string]task.WithCourseCode, len(tasks))
	for _, tsk := range tasks {
		byTitle[tsk.Title] = tsk
	}
	assert.Equal(t, "CS201", byTitle["Assignment 1"].CourseCode)
	assert.Empty(t, byTitle["No course"].CourseCode)
}

func TestQueryDueCandidates(t *testing.T) {
	f := newFixture(t)

	f.addTask(t, "Pending", dateIn(1), task.StatusPending, "")
	f.addTask(t, "In progress", dateIn(1), task.StatusInProgress, "")
	f.addTask(t, "Completed", dateIn(1), task.StatusCompleted, "")
	f.addTask(t, "Overdue", dateIn(-1), task.StatusOverdue, "")

	// candidates span all users
	_, err := f.svc.Add("user-2", task.NewTask{
		Title:       "Other user's task",
		DueDate:     dateIn(1),
		DueTime:     "11:59 PM",
		GroupStatus: task.GroupStatusIndividual,
	})
	require.NoError(t, err)

	candidates, err := f.svc.QueryDueCandidates()
	require.NoError(t, err)

	titles := make([]string, 0, len(candidates))
	for _, tsk := range candidates {
		titles = append(titles, tsk.Title)
	}
	assert.ElementsMatch(t, []string{"Pending", "In progress", "Other user's task"}, titles)
}

func TestSubtasks(t *testing.T) {
	f := newFixture(t)
	crs := f.addCourse(t, "Data Structures", "CS201")
	parent := f.addTask(t, "Final report", dateIn(3), task.StatusPending, crs.ID)

	st, err := f.svc.AddSubtask(parent, task.NewSubtask{
		Title:    "Draft outline",
		DueDate:  dateIn(1),
		DueTime:  "10:00 AM",
		Assignee: f.userID,
	})
	require.NoError(t, err)

	// subtasks inherit the parent's course and group status
	assert.Equal(t, parent.ID, st.ParentTask)
	assert.Equal(t, crs.ID, st.CourseID)
	assert.Equal(t, parent.GroupStatus, st.GroupStatus)

	parent, err = f.svc.GetByID(parent.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{st.ID}, parent.SubtaskIDs)

	t.Run("delete detaches from parent", func(t *testing.T) {
		require.NoError(t, f.svc.DeleteSubtask(parent, st.ID))

		_, err := f.svc.GetSubtaskByID(st.ID)
		assert.Equal(t, task.ErrSubtaskNotFound, err)

		parent, err = f.svc.GetByID(parent.ID)
		require.NoError(t, err)
		assert.Empty(t, parent.SubtaskIDs)
	})
}

func TestDeleteCascadesToSubtasks(t *testing.T) {
	f := newFixture(t)
	parent := f.addTask(t, "Final report", dateIn(3), task.StatusPending, "")

	st, err := f.svc.AddSubtask(parent, task.NewSubtask{
		Title:   "Draft outline",
		DueDate: dateIn(1),
		DueTime: "10:00 AM",
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(parent.ID))

	_, err = f.svc.GetByID(parent.ID)
	assert.Equal(t, task.ErrNotFound, err)
	_, err = f.svc.GetSubtaskByID(st.ID)
	assert.Equal(t, task.ErrSubtaskNotFound, err)
}

func TestStatusStats(t *testing.T) {
	f := newFixture(t)

	f.addTask(t, "A", dateIn(1), task.StatusPending, "")
	f.addTask(t, "B", dateIn(2), task.StatusPending, "")
	f.addTask(t, "C", dateIn(3), task.StatusInProgress, "")
	f.addTask(t, "D", dateIn(4), task.StatusCompleted, "")
	f.addTask(t, "E", dateIn(-1), task.StatusOverdue, "")

	stats, err := f.svc.StatusStats(f.userID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusStats{
		Completed:  1,
		Pending:    2,
		InProgress: 1,
		Overdue:    1,
	}, stats)
}

func TestCourseStats(t *testing.T) {
	f := newFixture(t)
	algo := f.addCourse(t, "Algorithms", "CS301")
	db := f.addCourse(t, "Databases", "CS305")

	f.addTask(t, "A", dateIn(1), task.StatusCompleted, algo.ID)
	f.addTask(t, "B", dateIn(2), task.StatusPending, algo.ID)
	f.addTask(t, "C", dateIn(3), task.StatusPending, db.ID)
	f.addTask(t, "No course", dateIn(4), task.StatusPending, "")

	stats, err := f.svc.CourseStats(f.userID)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	// sorted by course name
	assert.Equal(t, task.CourseStats{
		CourseID:   algo.ID,
		CourseName: "Algorithms",
		Total:      2,
		Completed:  1,
		Pending:    1,
	}, stats[0])
	assert.Equal(t, task.CourseStats{
		CourseID:   db.ID,
		CourseName: "Databases",
		Total:      1,
		Pending:    1,
	}, stats[1])
}

func TestTimeStats(t *testing.T) {
	f := newFixture(t)

	f.addTask(t, "A", dateIn(1), task.StatusCompleted, "")
	f.addTask(t, "B", dateIn(2), task.StatusPending, "")

	t.Run("week", func(t *testing.T) {
		_, wantPeriod := time.Now().UTC().ISOWeek()
		stats, err := f.svc.TimeStats(f.userID, task.UnitWeek)
		require.NoError(t, err)
		require.Len(t, stats, 1)
		assert.Equal(t, task.TimeStats{Period: wantPeriod, Created: 2, Completed: 1}, stats[0])
	})

	t.Run("month", func(t *testing.T) {
		stats, err := f.svc.TimeStats(f.userID, task.UnitMonth)
		require.NoError(t, err)
		require.Len(t, stats, 1)
		assert.Equal(t, int(time.Now().UTC().Month()), stats[0].Period)
	})

	t.Run("invalid unit", func(t *testing.T) {
		_, err := f.svc.TimeStats(f.userID, "year")
		var vErr *core.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})
}

func TestCompletionRates(t *testing.T) {
	f := newFixture(t)
	algo := f.addCourse(t, "Algorithms", "CS301")

	f.addTask(t, "A", dateIn(1), task.StatusCompleted, algo.ID)
	f.addTask(t, "B", dateIn(2), task.StatusCompleted, algo.ID)
	f.addTask(t, "C", dateIn(3), task.StatusPending, algo.ID)
	f.addTask(t, "D", dateIn(4), task.StatusOverdue, algo.ID)

	rates, err := f.svc.CompletionRates(f.userID)
	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.Equal(t, task.CompletionRate{
		CourseID:   algo.ID,
		CourseName: "Algorithms",
		Total:      4,
		Completed:  2,
		Rate:       50,
	}, rates[0])
}
