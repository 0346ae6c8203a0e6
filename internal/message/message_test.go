package message

import (
	"testing"

	"live-elo/internal/leaderboard"
)

func TestMessage_authorIdPerPlatform(t *testing.T) {
	twitch := NewTwitch(TwitchPayload{AuthorID: "t1", Text: "hi"})
	if twitch.AuthorId() != leaderboard.NewTwitchAuthor("t1") {
		t.Fatalf("unexpected twitch author id: %+v", twitch.AuthorId())
	}

	discord := NewDiscord(DiscordPayload{AuthorID: "d1", ChannelID: "c1", Text: "hi"})
	if discord.AuthorId() != leaderboard.NewDiscordAuthor("d1") {
		t.Fatalf("unexpected discord author id: %+v", discord.AuthorId())
	}

	b2 := NewB2(B2Payload{AuthorID: "b1", Text: "hi"})
	if b2.AuthorId() != leaderboard.NewB2Author("b1") {
		t.Fatalf("unexpected b2 author id: %+v", b2.AuthorId())
	}
}

func TestMessage_authorIdPanicsWithoutPayload(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for a Message with no platform payload set")
		}
	}()
	_ = Message{}.AuthorId()
}
