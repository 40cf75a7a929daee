package alert

import (
	"sync"
	"time"
)

// for tests
var nowFunc = time.Now

// Ledger remembers which (task, user) pairs have already been notified so a
// deadline fires at most once per user while it stays inside the alert
// window. Entries are dropped by Sweep once they outlive their TTL.
type Ledger struct {
	mu      sync.Mutex
	entries map[string]time.Time // taskID:userID -> inserted at
}

func NewLedger() *Ledger {
	return &Ledger{entries: make(map[string]time.Time)}
}

func ledgerKey(taskID, userID string) string { return taskID + ":" + userID }

func (led *Ledger) AlreadyNotified(taskID, userID string) bool {
	led.mu.Lock()
	defer led.mu.Unlock()
	_, ok := led.entries[ledgerKey(taskID, userID)]
	return ok
}

func (led *Ledger) MarkNotified(taskID, userID string) {
	led.mu.Lock()
	defer led.mu.Unlock()
	led.entries[ledgerKey(taskID, userID)] = nowFunc()
}

// Sweep drops entries older than ttl and returns how many were dropped.
// A zero ttl disables eviction.
func (led *Ledger) Sweep(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}

	led.mu.Lock()
	defer led.mu.Unlock()

	cutoff := nowFunc().Add(-ttl)
	dropped := 0
	for key, insertedAt := range led.entries {
		if insertedAt.Before(cutoff) {
			delete(led.entries, key)
			dropped++
		}
	}
	return dropped
}
