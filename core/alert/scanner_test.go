package alert

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkashama/duetrack/core"
	"github.com/nkashama/duetrack/core/task"
)

func newTestScanner(src *staticSource) (*Scanner, *Registry) {
	reg := NewRegistry()
	led := NewLedger()
	dis := NewDispatcher(reg, fakeLogger{})
	sc := NewScanner(src, reg, led, dis, fakeLogger{}, core.AlertConfig{
		ScanInterval: 20 * time.Second,
		Horizon:      24 * time.Hour,
		DedupTTL:     48 * time.Hour,
	})
	return sc, reg
}

func TestDispatcherFanOut(t *testing.T) {
	reg := NewRegistry()
	dis := NewDispatcher(reg, fakeLogger{})

	c1 := newFakeConn("c1")
	c2 := newFakeConn("c2")
	failing := newFakeConn("c3")
	failing.failing = true
	other := newFakeConn("c4")
	reg.Register("u1", c1)
	reg.Register("u1", failing)
	reg.Register("u1", c2)
	reg.Register("u2", other)

	n := NewNotification(task.Task{ID: "t1", Title: "essay", DueTime: "02:30 PM"}, time.Now())
	dis.Dispatch("u1", n)

	// every healthy connection of u1 gets exactly one event, u2 gets none
	for _, conn := range []*fakeConn{c1, c2} {
		events := conn.sent()
		require.Len(t, events, 1)
		assert.Equal(t, EventDeadlineAlert, events[0].Event)
		assert.Equal(t, n, events[0].Data)
	}
	assert.Empty(t, other.sent())
}

func TestNewNotification(t *testing.T) {
	dueAt := time.Date(2021, time.March, 15, 23, 59, 0, 0, time.UTC)
	tsk := task.Task{ID: "t1", Title: "final report", DueTime: "11:59 PM", CourseID: "crs1"}

	n := NewNotification(tsk, dueAt)
	assert.NotEmpty(t, n.ID)
	assert.Equal(t, "t1", n.TaskID)
	assert.Equal(t, "final report", n.Title)
	assert.True(t, n.DueAt.Equal(dueAt))
	assert.Equal(t, "11:59 PM", n.DueTime)
	assert.Equal(t, "crs1", n.CourseID)
	assert.Equal(t, `Your task "final report" is due soon!`, n.Message)

	// ids are unique per notification
	assert.NotEqual(t, n.ID, NewNotification(tsk, dueAt).ID)
}

func TestScannerPass(t *testing.T) {
	loc := time.UTC
	now := time.Date(2021, time.March, 15, 23, 58, 0, 0, loc)
	dueTask := task.Task{
		ID:      "t1",
		Title:   "final report",
		DueDate: time.Date(2021, time.March, 15, 0, 0, 0, 0, loc),
		DueTime: "11:59 PM",
		Status:  task.StatusPending,
		UserID:  "u1",
	}

	t.Run("due task is delivered once to an online user", func(t *testing.T) {
		sc, reg := newTestScanner(&staticSource{tasks: []task.Task{dueTask}})
		conn := newFakeConn("c1")
		reg.Register("u1", conn)

		sc.Pass(now)

		events := conn.sent()
		require.Len(t, events, 1)
		n, ok := events[0].Data.(Notification)
		require.True(t, ok)
		assert.Equal(t, "t1", n.TaskID)
		assert.True(t, n.DueAt.Equal(time.Date(2021, time.March, 15, 23, 59, 0, 0, loc)))

		// repeated passes inside the window do not re-notify
		for i := 0; i < 5; i++ {
			sc.Pass(now.Add(time.Duration(i) * 20 * time.Second))
		}
		assert.Len(t, conn.sent(), 1)
	})

	t.Run("offline user is not marked and is notified once back online", func(t *testing.T) {
		sc, reg := newTestScanner(&staticSource{tasks: []task.Task{dueTask}})

		sc.Pass(now) // nobody online, nothing marked

		conn := newFakeConn("c1")
		reg.Register("u1", conn)
		sc.Pass(now.Add(20 * time.Second))

		events := conn.sent()
		require.Len(t, events, 1)
	})

	t.Run("task outside the window is left alone", func(t *testing.T) {
		far := dueTask
		far.DueDate = far.DueDate.AddDate(0, 0, 3)
		sc, reg := newTestScanner(&staticSource{tasks: []task.Task{far}})
		conn := newFakeConn("c1")
		reg.Register("u1", conn)

		sc.Pass(now)
		assert.Empty(t, conn.sent())
	})

	t.Run("unparseable due time is skipped", func(t *testing.T) {
		bad := dueTask
		bad.DueTime = "23:59"
		sc, reg := newTestScanner(&staticSource{tasks: []task.Task{bad}})
		conn := newFakeConn("c1")
		reg.Register("u1", conn)

		sc.Pass(now)
		assert.Empty(t, conn.sent())
	})

	t.Run("store failure aborts the tick only", func(t *testing.T) {
		src := &staticSource{err: errors.New("connection reset")}
		sc, reg := newTestScanner(src)
		conn := newFakeConn("c1")
		reg.Register("u1", conn)

		sc.Pass(now) // must not panic or deliver

		src.err = nil
		src.tasks = []task.Task{dueTask}
		sc.Pass(now.Add(20 * time.Second))
		assert.Len(t, conn.sent(), 1)
	})

	t.Run("each user is notified independently", func(t *testing.T) {
		other := dueTask
		other.ID = "t2"
		other.UserID = "u2"
		sc, reg := newTestScanner(&staticSource{tasks: []task.Task{dueTask, other}})
		c1 := newFakeConn("c1")
		c2 := newFakeConn("c2")
		reg.Register("u1", c1)
		reg.Register("u2", c2)

		sc.Pass(now)
		assert.Len(t, c1.sent(), 1)
		assert.Len(t, c2.sent(), 1)
	})
}
