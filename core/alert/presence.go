package alert

import "sync"

// Conn is an opaque handle on a live client connection.
type Conn interface {
	ID() string
	Send(event string, data interface{}) error
}

// Registry tracks which users currently hold live connections. A user may
// hold several (multiple tabs or devices); they go offline when their last
// connection unregisters.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]map[string]Conn // userID -> connID -> conn
	users map[string]string          // connID -> userID
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]map[string]Conn),
		users: make(map[string]string),
	}
}

// Register associates conn with userID. Re-registering the same connection,
// for the same user or another, is safe; the last registration wins.
func (reg *Registry) Register(userID string, conn Conn) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if prev, ok := reg.users[conn.ID()]; ok && prev != userID {
		reg.removeLocked(prev, conn.ID())
	}
	set, ok := reg.conns[userID]
	if !ok {
		set = make(map[string]Conn, 1)
		reg.conns[userID] = set
	}
	set[conn.ID()] = conn
	reg.users[conn.ID()] = userID
}

// Unregister drops the connection. Unknown IDs are a no-op.
func (reg *Registry) Unregister(connID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	userID, ok := reg.users[connID]
	if !ok {
		return
	}
	reg.removeLocked(userID, connID)
}

func (reg *Registry) removeLocked(userID, connID string) {
	delete(reg.users, connID)
	set := reg.conns[userID]
	delete(set, connID)
	if len(set) == 0 {
		delete(reg.conns, userID)
	}
}

// Connections returns the user's live connections; empty when offline.
func (reg *Registry) Connections(userID string) []Conn {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	set := reg.conns[userID]
	conns := make([]Conn, 0, len(set))
	for _, conn := range set {
		conns = append(conns, conn)
	}
	return conns
}

// Online reports whether the user holds at least one live connection.
func (reg *Registry) Online(userID string) bool {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.conns[userID]) > 0
}
