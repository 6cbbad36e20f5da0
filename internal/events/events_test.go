package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_TypedSubscribeAndPublish(t *testing.T) {
	b := New()

	var got []LockoutTick
	unsubscribe, err := b.OnLockoutTick(func(e LockoutTick) { got = append(got, e) })
	require.NoError(t, err)

	b.Publish(TopicLockoutTick, LockoutTick{Remaining: 3 * time.Second})
	b.Publish(TopicLockoutTick, LockoutTick{Remaining: 2 * time.Second})

	require.Len(t, got, 2)
	assert.Equal(t, 2*time.Second, got[1].Remaining)

	unsubscribe()
	b.Publish(TopicLockoutTick, LockoutTick{Remaining: time.Second})
	assert.Len(t, got, 2)
}

func TestBus_TopicsAreIndependent(t *testing.T) {
	b := New()

	started, ended := 0, 0
	_, err := b.OnLockoutStarted(func(LockoutStarted) { started++ })
	require.NoError(t, err)
	_, err = b.OnLockoutEnded(func(LockoutEnded) { ended++ })
	require.NoError(t, err)

	b.Publish(TopicLockoutStarted, LockoutStarted{})

	assert.Equal(t, 1, started)
	assert.Equal(t, 0, ended)
}

func TestBus_PublishWithoutSubscribers(t *testing.T) {
	b := New()
	assert.NotPanics(t, func() {
		b.Publish(TopicTokenExpired, TokenExpired{TokenID: "x"})
	})
}

func TestBus_MultipleSubscribers(t *testing.T) {
	b := New()

	var a, c string
	_, err := b.OnAuthenticationSucceeded(func(e AuthenticationSucceeded) { a = e.Method })
	require.NoError(t, err)
	_, err = b.OnAuthenticationSucceeded(func(e AuthenticationSucceeded) { c = e.TokenID })
	require.NoError(t, err)

	b.Publish(TopicAuthenticationSucceeded, AuthenticationSucceeded{Method: "passcode", TokenID: "t1"})

	assert.Equal(t, "passcode", a)
	assert.Equal(t, "t1", c)
}

func TestBus_RejectsNonFunc(t *testing.T) {
	b := New()
	_, err := b.subscribe(TopicLockoutTick, "not a func")
	require.Error(t, err)
}
