package alert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLedger(t *testing.T) {
	t.Run("marking is per task and user", func(t *testing.T) {
		led := NewLedger()
		assert.False(t, led.AlreadyNotified("t1", "u1"))

		led.MarkNotified("t1", "u1")
		assert.True(t, led.AlreadyNotified("t1", "u1"))
		assert.False(t, led.AlreadyNotified("t1", "u2"))
		assert.False(t, led.AlreadyNotified("t2", "u1"))
	})

	t.Run("sweep evicts entries older than ttl", func(t *testing.T) {
		now := time.Now()
		nowFunc = func() time.Time { return now }
		defer func() { nowFunc = time.Now }()

		led := NewLedger()
		led.MarkNotified("t1", "u1")

		now = now.Add(47 * time.Hour)
		led.MarkNotified("t2", "u1")
		assert.Equal(t, 0, led.Sweep(48*time.Hour))

		now = now.Add(2 * time.Hour) // t1 is now 49h old, t2 2h old
		assert.Equal(t, 1, led.Sweep(48*time.Hour))
		assert.False(t, led.AlreadyNotified("t1", "u1"))
		assert.True(t, led.AlreadyNotified("t2", "u1"))
	})

	t.Run("zero ttl disables eviction", func(t *testing.T) {
		now := time.Now()
		nowFunc = func() time.Time { return now }
		defer func() { nowFunc = time.Now }()

		led := NewLedger()
		led.MarkNotified("t1", "u1")
		now = now.Add(1000 * time.Hour)
		assert.Equal(t, 0, led.Sweep(0))
		assert.True(t, led.AlreadyNotified("t1", "u1"))
	})
}
