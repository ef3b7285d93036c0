/* bot_test.go
 * Contains unit tests for bot construction and helpers
 */

package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBot_RequiresToken(t *testing.T) {
	_, err := NewBot(context.Background(), "", nil, nil, nil, nil, nil, nil, "", nil)

	assert.Error(t, err)
}

func TestStartsWith_MatchesPrefixOnly(t *testing.T) {
	assert.True(t, startsWith("$start now", "$start"))
	assert.True(t, startsWith("$start", "$start"))
	assert.False(t, startsWith("please $start", "$start"))
	assert.False(t, startsWith("$st", "$start"))
	assert.False(t, startsWith("$status", "$stop"))
}

// region sink tests

func TestDiscordSink_SendWithoutSessionFails(t *testing.T) {
	sink := NewDiscordSink()

	err := sink.Send("user1", "hello")

	assert.Error(t, err)
}

func TestDiscordSink_SendDeliversToDMChannel(t *testing.T) {
	sink := NewDiscordSink()
	session := NewMockDiscordSession()
	sink.SetSession(session)

	err := sink.Send("user1", "goal!")

	assert.NoError(t, err)
	assert.Equal(t, "dm-user1", session.GetLastMessage().ChannelID)
	assert.Equal(t, "goal!", session.GetLastMessage().Content)
}

func TestDiscordSink_DMChannelIsCached(t *testing.T) {
	sink := NewDiscordSink()
	session := NewMockDiscordSession()
	sink.SetSession(session)

	assert.NoError(t, sink.Send("user1", "first"))

	// channel creation failures no longer matter once the id is cached
	session.ChannelErrorToReturn = errors.New("rate limited")
	assert.NoError(t, sink.Send("user1", "second"))

	// a new user does need channel creation and fails
	assert.Error(t, sink.Send("user2", "third"))
}

func TestDiscordSink_SendFailurePropagates(t *testing.T) {
	sink := NewDiscordSink()
	session := NewMockDiscordSession()
	session.ErrorToReturn = errors.New("dm closed")
	sink.SetSession(session)

	assert.Error(t, sink.Send("user1", "goal!"))
}

// endregion
