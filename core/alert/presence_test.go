package alert

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry(t *testing.T) {
	t.Run("offline user has no connections", func(t *testing.T) {
		reg := NewRegistry()
		assert.False(t, reg.Online("u1"))
		assert.Empty(t, reg.Connections("u1"))
	})

	t.Run("register is idempotent per connection", func(t *testing.T) {
		reg := NewRegistry()
		conn := newFakeConn("c1")
		reg.Register("u1", conn)
		reg.Register("u1", conn)
		reg.Register("u1", conn)
		assert.Len(t, reg.Connections("u1"), 1)
	})

	t.Run("multiple connections per user", func(t *testing.T) {
		reg := NewRegistry()
		reg.Register("u1", newFakeConn("c1"))
		reg.Register("u1", newFakeConn("c2"))
		assert.Len(t, reg.Connections("u1"), 2)
		assert.True(t, reg.Online("u1"))

		reg.Unregister("c1")
		assert.Len(t, reg.Connections("u1"), 1)
		assert.True(t, reg.Online("u1"))

		reg.Unregister("c2")
		assert.False(t, reg.Online("u1"))
		assert.Empty(t, reg.Connections("u1"))
	})

	t.Run("re-registering a connection moves it to the new user", func(t *testing.T) {
		reg := NewRegistry()
		conn := newFakeConn("c1")
		reg.Register("u1", conn)
		reg.Register("u2", conn)
		assert.False(t, reg.Online("u1"))
		assert.True(t, reg.Online("u2"))
	})

	t.Run("unregistering an unknown connection is a no-op", func(t *testing.T) {
		reg := NewRegistry()
		reg.Register("u1", newFakeConn("c1"))
		reg.Unregister("nope")
		assert.True(t, reg.Online("u1"))
	})

	t.Run("safe under concurrent access", func(t *testing.T) {
		reg := NewRegistry()
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				connID := fmt.Sprintf("c%d", i)
				reg.Register("u1", newFakeConn(connID))
				reg.Online("u1")
				reg.Connections("u1")
				if i%2 == 0 {
					reg.Unregister(connID)
				}
			}(i)
		}
		wg.Wait()
		assert.Len(t, reg.Connections("u1"), 25)
	})
}
