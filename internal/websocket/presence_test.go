package websocket

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPresenceRefCounting(t *testing.T) {
	tracker := NewPresenceTracker()
	userId := uuid.New()

	assert.False(t, tracker.IsOnline(userId))

	assert.True(t, tracker.Connect(userId), "first connection goes online")
	assert.False(t, tracker.Connect(userId), "second device is not a transition")
	assert.True(t, tracker.IsOnline(userId))

	assert.False(t, tracker.Disconnect(userId), "one device still attached")
	assert.True(t, tracker.IsOnline(userId))

	assert.True(t, tracker.Disconnect(userId), "last device goes offline")
	assert.False(t, tracker.IsOnline(userId))
}

func TestPresenceDisconnectUnknownUser(t *testing.T) {
	tracker := NewPresenceTracker()
	assert.False(t, tracker.Disconnect(uuid.New()))
}

func TestPresenceIndependentUsers(t *testing.T) {
	tracker := NewPresenceTracker()
	a := uuid.New()
	b := uuid.New()

	tracker.Connect(a)
	tracker.Connect(b)
	tracker.Disconnect(a)

	assert.False(t, tracker.IsOnline(a))
	assert.True(t, tracker.IsOnline(b))
}
