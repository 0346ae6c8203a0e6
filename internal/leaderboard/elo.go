package leaderboard

import (
	"math"
	"sort"
)

// EloConfig tunes the pairwise ELO update. OpponentBudget is the
// undocumented tunable flagged by the design notes: how much "budget" a
// player has to spend comparing itself against nearby-rated opponents
// before the candidate list is truncated.
type EloConfig struct {
	K              float32
	OpponentBudget float32
	StartingElo    float32
}

// DefaultEloConfig matches the values observed in the source system.
func DefaultEloConfig() EloConfig {
	return EloConfig{K: 2.0, OpponentBudget: 100.0, StartingElo: 1200.0}
}

// Processor computes a new LeaderboardElos from a base table and the
// current per-author performances for one leaderboard.
type Processor struct {
	base   LeaderboardElos
	config EloConfig
}

// NewProcessor builds a Processor seeded from base, which may be empty.
func NewProcessor(base LeaderboardElos, config EloConfig) *Processor {
	return &Processor{base: base, config: config}
}

type workingEntry struct {
	authorId    AuthorId
	elo         float32
	performance float32
}

// Run produces a new LeaderboardElos from the current performances,
// following the seed / pre-sort / per-player update / publish algorithm.
// An empty base with empty performances yields an empty table. A
// non-empty base is run through the update even when performances is
// empty, with every base author at performance zero.
func (p *Processor) Run(performances map[AuthorId]PerformancePoints) LeaderboardElos {
	players := make([]workingEntry, 0, len(p.base)+len(performances))
	seen := make(map[AuthorId]struct{}, len(p.base))

	for _, entry := range p.base {
		perf := float32(0)
		if pp, ok := performances[entry.AuthorId]; ok {
			perf = pp.Get()
		}
		players = append(players, workingEntry{
			authorId:    entry.AuthorId,
			elo:         entry.Elo.Get(),
			performance: perf,
		})
		seen[entry.AuthorId] = struct{}{}
	}

	for authorId, pp := range performances {
		if _, ok := seen[authorId]; ok {
			continue
		}
		players = append(players, workingEntry{
			authorId:    authorId,
			elo:         p.config.StartingElo,
			performance: pp.Get(),
		})
	}

	sort.SliceStable(players, func(i, j int) bool {
		if players[i].elo != players[j].elo {
			return players[i].elo < players[j].elo
		}
		return players[i].authorId.Less(players[j].authorId)
	})

	results := make(LeaderboardElos, 0, len(players))

	for _, player := range players {
		opponents := make([]workingEntry, 0, len(players)-1)
		for _, candidate := range players {
			if candidate.authorId == player.authorId {
				continue
			}
			opponents = append(opponents, candidate)
		}

		sort.SliceStable(opponents, func(i, j int) bool {
			di := absFloat32(opponents[i].elo - player.elo)
			dj := absFloat32(opponents[j].elo - player.elo)
			if di != dj {
				return di < dj
			}
			return opponents[i].authorId.Less(opponents[j].authorId)
		})

		budget := p.config.OpponentBudget
		kept := make([]workingEntry, 0, len(opponents))
		for _, opponent := range opponents {
			kept = append(kept, opponent)
			cost := absFloat32(opponent.elo-player.elo) + 1.0
			budget -= cost
			if budget <= 0 {
				break
			}
		}

		var eloChange float32
		for _, opponent := range kept {
			won := player.performance > opponent.performance
			wonScore := float32(0)
			if won {
				wonScore = 1.0
			}
			expected := expectedScore(player.elo, opponent.elo)
			eloChange += p.config.K * (wonScore - expected)
		}

		results = append(results, LeaderboardEloEntry{
			AuthorId: player.authorId,
			Elo:      MustElo(player.elo + eloChange),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Elo.Get() != results[j].Elo.Get() {
			return results[i].Elo.Get() > results[j].Elo.Get()
		}
		return results[i].AuthorId.Less(results[j].AuthorId)
	})

	return results
}

// expectedScore computes the standard logistic expectation for player
// against opponent. The design notes flag that the inherited source
// mis-parenthesizes this exponent as 10^(opp-player)/400 rather than
// 10^((opp-player)/400); this implements the mathematically standard
// form.
func expectedScore(playerElo, opponentElo float32) float32 {
	exponent := float64(opponentElo-playerElo) / 400.0
	return float32(1.0 / (1.0 + math.Pow(10, exponent)))
}

func absFloat32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
