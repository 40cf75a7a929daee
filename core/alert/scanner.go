package alert

import (
	"sync/atomic"
	"time"

	"github.com/nkashama/duetrack/core"
	"github.com/nkashama/duetrack/core/task"
)

// TaskSource yields the tasks still eligible for deadline alerts.
type TaskSource interface {
	QueryDueCandidates() ([]task.Task, error)
}

// Scanner periodically walks active tasks and dispatches a deadline alert
// for each one entering its due window, at most once per (task, owner).
// A pass never fails the process: store errors abort the current tick only,
// per-task errors are logged and skipped.
type Scanner struct {
	tasks      TaskSource
	registry   *Registry
	ledger     *Ledger
	dispatcher *Dispatcher
	logger     core.Logger

	horizon  time.Duration
	dedupTTL time.Duration

	inPass int32 // atomic
}

func NewScanner(
	tasks TaskSource,
	registry *Registry,
	ledger *Ledger,
	dispatcher *Dispatcher,
	logger core.Logger,
	conf core.AlertConfig,
) *Scanner {
	return &Scanner{
		tasks:      tasks,
		registry:   registry,
		ledger:     ledger,
		dispatcher: dispatcher,
		logger:     logger,
		horizon:    conf.Horizon,
		dedupTTL:   conf.DedupTTL,
	}
}

// Run executes a single pass at the current time. It is the cron entry
// point; overlapping invocations are collapsed to one.
func (sc *Scanner) Run() {
	if !atomic.CompareAndSwapInt32(&sc.inPass, 0, 1) {
		return
	}
	defer atomic.StoreInt32(&sc.inPass, 0)

	sc.Pass(time.Now())
}

// Pass scans once as of now. Exposed for tests.
func (sc *Scanner) Pass(now time.Time) {
	sc.ledger.Sweep(sc.dedupTTL)

	tsks, err := sc.tasks.QueryDueCandidates()
	if err != nil {
		sc.logger.Error("deadline scan aborted: querying tasks", "err", err)
		return
	}

	for _, tsk := range tsks {
		sc.scanTask(tsk, now)
	}
}

func (sc *Scanner) scanTask(tsk task.Task, now time.Time) {
	dueAt, err := DueAt(tsk.DueDate, tsk.DueTime, now.Location())
	if err != nil {
		sc.logger.Warn("skipping task with unparseable due time", "task", tsk.ID, "err", err)
		return
	}
	if dueAt.Before(now) || dueAt.After(now.Add(sc.horizon)) {
		return
	}

	if sc.ledger.AlreadyNotified(tsk.ID, tsk.UserID) {
		return
	}
	// Offline users are skipped without marking so they are notified on
	// their next connection while the task is still in the window.
	if !sc.registry.Online(tsk.UserID) {
		return
	}

	sc.dispatcher.Dispatch(tsk.UserID, NewNotification(tsk, dueAt))
	sc.ledger.MarkNotified(tsk.ID, tsk.UserID)
	sc.logger.Info("deadline alert dispatched", "task", tsk.ID, "user", tsk.UserID, "dueAt", dueAt)
}
