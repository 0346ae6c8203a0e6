package leaderboard

import (
	"encoding/json"
	"math"
	"testing"
)

func TestNewPerformancePoints_rejectsNegativeAndNonFinite(t *testing.T) {
	cases := []float32{-1, float32(math.NaN()), float32(math.Inf(1)), float32(math.Inf(-1))}
	for _, v := range cases {
		if _, err := NewPerformancePoints(v); err == nil {
			t.Fatalf("expected error for value %v", v)
		}
	}
}

func TestPerformancePointsAdd(t *testing.T) {
	a := MustPerformancePoints(1.5)
	b := MustPerformancePoints(2.5)
	if got := a.Add(b).Get(); got != 4.0 {
		t.Fatalf("expected 4.0, got %v", got)
	}
}

func TestAuthorIdJSONRoundTrip(t *testing.T) {
	original := NewDiscordAuthor("user-123")

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded AuthorId
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded != original {
		t.Fatalf("round trip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestOutgoingMessageJSONRoundTrip_initialLeaderboards(t *testing.T) {
	msg := NewInitialLeaderboardsMessage(map[LeaderboardName]LeaderboardElos{
		"messages": {
			{AuthorId: NewTwitchAuthor("a"), Elo: MustElo(1234)},
		},
	})

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded OutgoingMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.InitialLeaderboards == nil {
		t.Fatalf("expected InitialLeaderboards to be set")
	}
	if decoded.Changes != nil {
		t.Fatalf("expected Changes to be nil")
	}
	entries := decoded.InitialLeaderboards.Leaderboards["messages"]
	if len(entries) != 1 || entries[0].AuthorId.ID != "a" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestOutgoingMessageJSONRoundTrip_changes(t *testing.T) {
	msg := NewChangesMessage(LeaderboardsChanges{
		"messages": LeaderboardEloChanges{
			0: {AuthorId: NewTwitchAuthor("a"), Elo: MustElo(1234)},
		},
	})

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded OutgoingMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Changes == nil {
		t.Fatalf("expected Changes to be set")
	}
	entry, ok := decoded.Changes.Changes["messages"][0]
	if !ok || entry.AuthorId.ID != "a" {
		t.Fatalf("unexpected changes: %+v", decoded.Changes.Changes)
	}
}

func TestLeaderboardEloChanges_stringKeyedJSON(t *testing.T) {
	changes := LeaderboardEloChanges{
		2: {AuthorId: NewTwitchAuthor("x"), Elo: MustElo(1000)},
	}
	data, err := json.Marshal(changes)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) == "" {
		t.Fatalf("expected non-empty json")
	}

	var wire map[string]json.RawMessage
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatalf("expected string-keyed object, got error: %v", err)
	}
	if _, ok := wire["2"]; !ok {
		t.Fatalf("expected key \"2\" in %v", wire)
	}
}
