package broadcast

import (
	"encoding/json"

	"live-elo/internal/leaderboard"
)

// MarshalChanges serializes a Changes frame as JSON, matching the
// OutgoingMessage wire contract.
func MarshalChanges(changes leaderboard.LeaderboardsChanges) ([]byte, error) {
	return json.Marshal(leaderboard.NewChangesMessage(changes))
}

// MarshalInitialLeaderboards serializes an InitialLeaderboards frame.
func MarshalInitialLeaderboards(leaderboards map[leaderboard.LeaderboardName]leaderboard.LeaderboardElos) ([]byte, error) {
	return json.Marshal(leaderboard.NewInitialLeaderboardsMessage(leaderboards))
}
