package leaderboard

import "testing"

func TestProcessorRun_emptyBaseEmptyPerformances(t *testing.T) {
	p := NewProcessor(nil, DefaultEloConfig())
	result := p.Run(nil)
	if len(result) != 0 {
		t.Fatalf("expected empty result, got %v", result)
	}
}

func TestProcessorRun_singlePlayerUnchanged(t *testing.T) {
	p := NewProcessor(nil, DefaultEloConfig())
	performances := map[AuthorId]PerformancePoints{
		NewTwitchAuthor("a"): MustPerformancePoints(3),
	}

	result := p.Run(performances)
	if len(result) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(result))
	}
	if result[0].AuthorId != NewTwitchAuthor("a") {
		t.Fatalf("unexpected author: %+v", result[0].AuthorId)
	}
	if result[0].Elo.Get() != DefaultEloConfig().StartingElo {
		t.Fatalf("expected unchanged starting elo with no opponents, got %v", result[0].Elo.Get())
	}
}

func TestProcessorRun_tieBreakByAuthorId(t *testing.T) {
	base := LeaderboardElos{
		{AuthorId: NewTwitchAuthor("b"), Elo: MustElo(1200)},
		{AuthorId: NewTwitchAuthor("a"), Elo: MustElo(1200)},
	}
	p := NewProcessor(base, DefaultEloConfig())

	result := p.Run(map[AuthorId]PerformancePoints{
		NewTwitchAuthor("a"): MustPerformancePoints(0),
		NewTwitchAuthor("b"): MustPerformancePoints(0),
	})

	if len(result) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(result))
	}
	if result[0].Elo.Get() != result[1].Elo.Get() {
		t.Fatalf("expected tied elos, got %v vs %v", result[0].Elo.Get(), result[1].Elo.Get())
	}
	if !result[0].AuthorId.Less(result[1].AuthorId) {
		t.Fatalf("expected lexicographic tie-break, got order %+v, %+v", result[0].AuthorId, result[1].AuthorId)
	}
}

func TestProcessorRun_winnerGainsLoserLoses(t *testing.T) {
	base := LeaderboardElos{
		{AuthorId: NewTwitchAuthor("winner"), Elo: MustElo(1200)},
		{AuthorId: NewTwitchAuthor("loser"), Elo: MustElo(1200)},
	}
	p := NewProcessor(base, DefaultEloConfig())

	result := p.Run(map[AuthorId]PerformancePoints{
		NewTwitchAuthor("winner"): MustPerformancePoints(10),
		NewTwitchAuthor("loser"):  MustPerformancePoints(0),
	})

	var winnerElo, loserElo float32
	for _, entry := range result {
		switch entry.AuthorId.ID {
		case "winner":
			winnerElo = entry.Elo.Get()
		case "loser":
			loserElo = entry.Elo.Get()
		}
	}

	if winnerElo <= 1200 {
		t.Fatalf("expected winner elo to increase, got %v", winnerElo)
	}
	if loserElo >= 1200 {
		t.Fatalf("expected loser elo to decrease, got %v", loserElo)
	}
}

func TestExpectedScore_parenthesizedCorrectly(t *testing.T) {
	// Equal ratings must yield an expectation of exactly 0.5. The bug
	// this guards against (10^(opp-player)/400 instead of
	// 10^((opp-player)/400)) gives about 0.9975 here, and exactly 1.0 for
	// a player rated 400 above the opponent, where the standard form
	// gives 1/1.1.
	got := expectedScore(1200, 1200)
	if got != 0.5 {
		t.Fatalf("expected 0.5 for equal ratings, got %v", got)
	}

	favored := expectedScore(1600, 1200)
	if favored <= 0.5 || favored >= 1.0 {
		t.Fatalf("expected the favored player's expectation in (0.5, 1.0), got %v", favored)
	}
}

func TestResultsSortedDescendingByElo(t *testing.T) {
	base := LeaderboardElos{
		{AuthorId: NewTwitchAuthor("low"), Elo: MustElo(900)},
		{AuthorId: NewTwitchAuthor("high"), Elo: MustElo(1500)},
	}
	p := NewProcessor(base, DefaultEloConfig())

	result := p.Run(nil)
	if len(result) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(result))
	}
	if result[0].Elo.Get() < result[1].Elo.Get() {
		t.Fatalf("expected descending order, got %v then %v", result[0].Elo.Get(), result[1].Elo.Get())
	}
}
