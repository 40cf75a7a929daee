package alert

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/nkashama/duetrack/core/task"
)

// test fakes

type sentEvent struct {
	Event string
	Data  interface{}
}

type fakeConn struct {
	id      string
	failing bool

	mu     sync.Mutex
	events []sentEvent
}

func newFakeConn(id string) *fakeConn { return &fakeConn{id: id} }

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(event string, data interface{}) error {
	if c.failing {
		return errors.New("send failed")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, sentEvent{Event: event, Data: data})
	return nil
}

func (c *fakeConn) sent() []sentEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]sentEvent(nil), c.events...)
}

type fakeLogger struct{}

func (fakeLogger) Debug(msg string, args ...interface{}) {}
func (fakeLogger) Info(msg string, args ...interface{})  {}
func (fakeLogger) Warn(msg string, args ...interface{})  {}
func (fakeLogger) Error(msg string, args ...interface{}) {}
func (fakeLogger) Fatal(msg string, args ...interface{}) {}

type staticSource struct {
	tasks []task.Task
	err   error
}

func (src *staticSource) QueryDueCandidates() ([]task.Task, error) {
	return src.tasks, src.err
}
