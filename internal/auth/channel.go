// ABOUTME: Per-user delivery channel naming and subscription authorization
// ABOUTME: A user may only subscribe to their own conversation channel

package auth

import (
	"fmt"
	"strconv"
	"strings"
)

// channelPrefix namespaces per-user delivery channels.
const channelPrefix = "conversation."

// ChannelName returns the delivery channel for a user. Every user has
// exactly one logical channel, named deterministically from their ID.
func ChannelName(userID int64) string {
	return fmt.Sprintf("%s%d", channelPrefix, userID)
}

// ParseChannel extracts the user ID a channel belongs to.
// Returns false for anything that is not a well-formed conversation channel.
func ParseChannel(channel string) (int64, bool) {
	rest, ok := strings.CutPrefix(channel, channelPrefix)
	if !ok || rest == "" {
		return 0, false
	}
	userID, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return userID, true
}

// CanSubscribe reports whether the identity may subscribe to the channel:
// granted if and only if the channel is the identity's own. This is
// evaluated on every subscription attempt, never cached.
func CanSubscribe(id *Identity, channel string) bool {
	if id == nil {
		return false
	}
	userID, ok := ParseChannel(channel)
	if !ok {
		return false
	}
	return userID == id.UserID
}
