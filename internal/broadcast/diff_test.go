package broadcast

import (
	"testing"

	"live-elo/internal/leaderboard"
)

func TestFindChanges_noChangesWhenIdentical(t *testing.T) {
	snapshot := map[leaderboard.LeaderboardName]leaderboard.LeaderboardElos{
		"messages": {
			{AuthorId: leaderboard.NewTwitchAuthor("a"), Elo: leaderboard.MustElo(1200)},
		},
	}
	changes := FindChanges(snapshot, snapshot)
	if len(changes) != 0 {
		t.Fatalf("expected no changes for identical snapshots, got %v", changes)
	}
}

func TestFindChanges_detectsPositionDelta(t *testing.T) {
	before := map[leaderboard.LeaderboardName]leaderboard.LeaderboardElos{
		"messages": {
			{AuthorId: leaderboard.NewTwitchAuthor("a"), Elo: leaderboard.MustElo(1200)},
		},
	}
	after := map[leaderboard.LeaderboardName]leaderboard.LeaderboardElos{
		"messages": {
			{AuthorId: leaderboard.NewTwitchAuthor("a"), Elo: leaderboard.MustElo(1210)},
		},
	}

	changes := FindChanges(before, after)
	entry, ok := changes["messages"][0]
	if !ok {
		t.Fatalf("expected a change at position 0, got %v", changes)
	}
	if entry.Elo.Get() != 1210 {
		t.Fatalf("expected updated elo 1210, got %v", entry.Elo.Get())
	}
}

func TestFindChanges_newLeaderboardIncludedWholesale(t *testing.T) {
	before := map[leaderboard.LeaderboardName]leaderboard.LeaderboardElos{}
	after := map[leaderboard.LeaderboardName]leaderboard.LeaderboardElos{
		"messages": {
			{AuthorId: leaderboard.NewTwitchAuthor("a"), Elo: leaderboard.MustElo(1200)},
		},
	}

	changes := FindChanges(before, after)
	if len(changes["messages"]) != 1 {
		t.Fatalf("expected the new leaderboard's full ranking to appear, got %v", changes)
	}
}

func TestFindChanges_removedLeaderboardIgnored(t *testing.T) {
	before := map[leaderboard.LeaderboardName]leaderboard.LeaderboardElos{
		"messages": {
			{AuthorId: leaderboard.NewTwitchAuthor("a"), Elo: leaderboard.MustElo(1200)},
		},
	}
	after := map[leaderboard.LeaderboardName]leaderboard.LeaderboardElos{}

	changes := FindChanges(before, after)
	if len(changes) != 0 {
		t.Fatalf("expected no changes for a leaderboard absent from 'to', got %v", changes)
	}
}

func TestFindChanges_shrinkingLeaderboardHasNoTruncationSignal(t *testing.T) {
	before := map[leaderboard.LeaderboardName]leaderboard.LeaderboardElos{
		"messages": {
			{AuthorId: leaderboard.NewTwitchAuthor("a"), Elo: leaderboard.MustElo(1200)},
			{AuthorId: leaderboard.NewTwitchAuthor("b"), Elo: leaderboard.MustElo(1100)},
		},
	}
	after := map[leaderboard.LeaderboardName]leaderboard.LeaderboardElos{
		"messages": {
			{AuthorId: leaderboard.NewTwitchAuthor("a"), Elo: leaderboard.MustElo(1200)},
		},
	}

	// Position 1 is absent from 'after', so diffOne only iterates 'now' —
	// this test documents that a shrinking leaderboard produces an empty
	// diff even though b effectively disappeared. Known limitation of a
	// purely position-keyed sparse diff.
	changes := FindChanges(before, after)
	if len(changes) != 0 {
		t.Fatalf("expected no positions to be reported for a shrinking leaderboard, got %v", changes)
	}
}
