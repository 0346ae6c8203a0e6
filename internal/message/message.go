// Package message defines the tagged-union chat message the core
// pipeline consumes. Platform adapters (Twitch IRC, Discord gateway,
// Bilibili live) are out of scope; they are expected to decode their
// wire protocol and hand the core a Message.
package message

import "live-elo/internal/leaderboard"

// Authored is implemented by any value carrying an author identity —
// messages, and anything wrapping one (e.g. a pointer).
type Authored interface {
	AuthorId() leaderboard.AuthorId
}

// Platform tags which adapter produced a Message.
type Platform int

const (
	PlatformTwitch Platform = iota
	PlatformDiscord
	PlatformB2
)

// Message is a tagged union over platform payloads. The core only reads
// the author id and, via a ScoringSystem, the payload needed to compute
// a performance score — it never decodes platform wire formats itself.
type Message struct {
	Platform Platform
	Twitch   *TwitchPayload
	Discord  *DiscordPayload
	B2       *B2Payload
}

// TwitchPayload carries the fields the core needs from a Twitch IRC
// PRIVMSG.
type TwitchPayload struct {
	AuthorID string
	Text     string
}

// DiscordPayload carries the fields the core needs from a Discord
// MESSAGE_CREATE gateway event.
type DiscordPayload struct {
	AuthorID  string
	ChannelID string
	Text      string
}

// B2Payload carries the fields the core needs from a Bilibili live
// room danmaku packet.
type B2Payload struct {
	AuthorID string
	Text     string
}

func NewTwitch(p TwitchPayload) Message   { return Message{Platform: PlatformTwitch, Twitch: &p} }
func NewDiscord(p DiscordPayload) Message { return Message{Platform: PlatformDiscord, Discord: &p} }
func NewB2(p B2Payload) Message           { return Message{Platform: PlatformB2, B2: &p} }

// AuthorId implements Authored.
func (m Message) AuthorId() leaderboard.AuthorId {
	switch m.Platform {
	case PlatformTwitch:
		return leaderboard.NewTwitchAuthor(m.Twitch.AuthorID)
	case PlatformDiscord:
		return leaderboard.NewDiscordAuthor(m.Discord.AuthorID)
	case PlatformB2:
		return leaderboard.NewB2Author(m.B2.AuthorID)
	default:
		panic("message: Message has no platform payload set")
	}
}
