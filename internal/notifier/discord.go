package notifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/eventdesk/apiserver/types"
)

// Announcer posts a short public notice about an event lifecycle change.
type Announcer interface {
	Announce(ctx context.Context, kind Kind, event types.Event) error
}

type DiscordAnnouncer struct {
	session   *discordgo.Session
	channelID string
}

func NewDiscordAnnouncer(session *discordgo.Session, channelID string) *DiscordAnnouncer {
	return &DiscordAnnouncer{
		session:   session,
		channelID: channelID,
	}
}

// NewDiscordAnnouncerFromToken opens a bot session for token.
func NewDiscordAnnouncerFromToken(token, channelID string) (*DiscordAnnouncer, error) {
	if token == "" {
		return nil, errors.New("discord bot token is empty")
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return NewDiscordAnnouncer(session, channelID), nil
}

func (a *DiscordAnnouncer) Announce(ctx context.Context, kind Kind, event types.Event) error {
	if a.session == nil {
		return fmt.Errorf("discord session is nil")
	}
	if a.channelID == "" {
		return fmt.Errorf("discord channel ID is empty")
	}

	_, err := a.session.ChannelMessageSend(a.channelID, Announcement(kind, event), discordgo.WithContext(ctx))
	return err
}

// Announcement renders the one-line channel message for a lifecycle change.
func Announcement(kind Kind, event types.Event) string {
	when := fmt.Sprintf("%s at %s", DisplayDate(event.Date), event.Time)
	switch kind {
	case KindCreated:
		return fmt.Sprintf("📅 **New event:** %s (%s, %s)", event.Title, when, event.Location)
	case KindUpdated:
		return fmt.Sprintf("✏️ **Event updated:** %s is now %s, %s", event.Title, when, event.Location)
	case KindCancelled:
		return fmt.Sprintf("❌ **Event cancelled:** %s (was %s)", event.Title, when)
	default:
		return fmt.Sprintf("**%s:** %s", kind, event.Title)
	}
}
