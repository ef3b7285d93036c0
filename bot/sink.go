/* sink.go
 * Contains the Discord delivery sink. Notifications go to each
 * subscriber's DM channel; channel ids are cached after the first
 * creation because Discord treats UserChannelCreate as a rate-limited
 * call.
 */

package bot

import (
	"fmt"
	"sync"
)

// DiscordSink delivers notifications to subscribers over direct messages.
// The zero session is allowed so the dispatcher can be wired before the
// gateway connection opens; sends before SetSession fail.
type DiscordSink struct {
	mu       sync.Mutex
	session  DiscordSession
	channels map[string]string
}

// NewDiscordSink creates a sink without a session attached.
func NewDiscordSink() *DiscordSink {
	return &DiscordSink{channels: make(map[string]string)}
}

// SetSession attaches the live Discord session once the gateway is open.
func (s *DiscordSink) SetSession(session DiscordSession) {
	s.mu.Lock()
	s.session = session
	s.mu.Unlock()
}

// Send delivers one message to the user's DM channel.
func (s *DiscordSink) Send(userID, text string) error {
	s.mu.Lock()
	session := s.session
	channelID, cached := s.channels[userID]
	s.mu.Unlock()

	if session == nil {
		return fmt.Errorf("discord session not connected")
	}

	if !cached {
		channel, err := session.UserChannelCreate(userID)
		if err != nil {
			return fmt.Errorf("failed to open DM channel for %s: %w", userID, err)
		}
		channelID = channel.ID
		s.mu.Lock()
		s.channels[userID] = channelID
		s.mu.Unlock()
	}

	if _, err := session.ChannelMessageSend(channelID, text); err != nil {
		return fmt.Errorf("failed to send DM to %s: %w", userID, err)
	}
	return nil
}
