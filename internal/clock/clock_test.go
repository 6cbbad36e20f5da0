package clock

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func TestManual_AdvanceFiresInOrder(t *testing.T) {
	m := NewManual(epoch)

	var fired []time.Time
	cancel := m.Every(time.Second, func() { fired = append(fired, m.Now()) })
	defer cancel()

	m.Advance(3500 * time.Millisecond)

	require.Len(t, fired, 3)
	assert.Equal(t, epoch.Add(time.Second), fired[0])
	assert.Equal(t, epoch.Add(3*time.Second), fired[2])
	assert.Equal(t, epoch.Add(3500*time.Millisecond), m.Now())
}

func TestManual_CancelFromInsideCallback(t *testing.T) {
	m := NewManual(epoch)

	calls := 0
	var cancel func()
	cancel = m.Every(time.Second, func() {
		calls++
		if calls == 2 {
			cancel()
		}
	})

	m.Advance(10 * time.Second)

	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, m.Scheduled())
}

func TestManual_SetSkipsCallbacks(t *testing.T) {
	m := NewManual(epoch)

	calls := 0
	cancel := m.Every(time.Second, func() { calls++ })
	defer cancel()

	m.Set(epoch.Add(time.Hour))
	assert.Equal(t, 0, calls)

	m.Advance(time.Second)
	assert.Equal(t, 1, calls)
}

func TestReal_EveryAndCancel(t *testing.T) {
	var n atomic.Int32
	cancel := Real{}.Every(5*time.Millisecond, func() { n.Add(1) })

	require.Eventually(t, func() bool { return n.Load() >= 2 }, time.Second, 5*time.Millisecond)

	cancel()
	cancel()

	stopped := n.Load()
	time.Sleep(30 * time.Millisecond)
	assert.LessOrEqual(t, n.Load(), stopped+1)
}
