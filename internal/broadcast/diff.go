// Package broadcast implements the periodic diff/broadcast loop: recompute
// the current ranking, diff it against the last published snapshot, and
// publish any non-empty delta to websocket subscribers.
package broadcast

import "live-elo/internal/leaderboard"

// FindChanges computes the sparse delta from 'from' to 'to'. It iterates
// every leaderboard name present in 'from'; for each position in 'to'
// ordering it records the new entry iff 'from's entry at that position is
// absent or structurally different. Leaderboards present only in 'to'
// are wholly included (a newly-registered leaderboard needs its full
// ranking sent once); leaderboards present only in 'from' are ignored —
// the current design assumes a fixed, config-declared leaderboard set.
func FindChanges(from, to map[leaderboard.LeaderboardName]leaderboard.LeaderboardElos) leaderboard.LeaderboardsChanges {
	changes := make(leaderboard.LeaderboardsChanges)

	for name, before := range from {
		now, ok := to[name]
		if !ok {
			continue
		}
		leaderboardChanges := diffOne(before, now)
		if len(leaderboardChanges) > 0 {
			changes[name] = leaderboardChanges
		}
	}

	for name, now := range to {
		if _, ok := from[name]; ok {
			continue
		}
		changes[name] = diffOne(nil, now)
	}

	return changes
}

func diffOne(before, now leaderboard.LeaderboardElos) leaderboard.LeaderboardEloChanges {
	changes := make(leaderboard.LeaderboardEloChanges)
	for index, nowAt := range now {
		if index >= len(before) || !before[index].Equal(nowAt) {
			changes[leaderboard.LeaderboardPosition(index)] = nowAt
		}
	}
	return changes
}
