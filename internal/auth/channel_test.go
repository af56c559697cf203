// ABOUTME: Tests for channel naming and subscription authorization
// ABOUTME: Own channel is always granted, everything else always denied

package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChannelName(t *testing.T) {
	assert.Equal(t, "conversation.7", ChannelName(7))
	assert.Equal(t, "conversation.1234", ChannelName(1234))
}

func TestParseChannel(t *testing.T) {
	id, ok := ParseChannel("conversation.42")
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	for _, channel := range []string{
		"",
		"conversation.",
		"conversation.abc",
		"presence.42",
		"42",
	} {
		_, ok := ParseChannel(channel)
		assert.False(t, ok, "channel %q should not parse", channel)
	}
}

func TestCanSubscribe_OwnChannel(t *testing.T) {
	id := &Identity{UserID: 5, Name: "alice"}
	assert.True(t, CanSubscribe(id, "conversation.5"))
}

func TestCanSubscribe_OtherChannelDenied(t *testing.T) {
	id := &Identity{UserID: 5, Name: "alice"}

	assert.False(t, CanSubscribe(id, "conversation.6"))
	assert.False(t, CanSubscribe(id, "conversation.0"))
	assert.False(t, CanSubscribe(id, "bogus"))
}

func TestCanSubscribe_NoIdentity(t *testing.T) {
	assert.False(t, CanSubscribe(nil, "conversation.5"))
}
