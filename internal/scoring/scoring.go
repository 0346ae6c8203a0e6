// Package scoring implements pure Message -> PerformancePoints mappings.
package scoring

import (
	"context"

	"live-elo/internal/leaderboard"
	"live-elo/internal/message"
)

// System is a pure scoring function plus a Close hook for any state it
// accumulates (none, for the scoring systems implemented here).
type System interface {
	Score(m message.Message) leaderboard.PerformancePoints
	Close(ctx context.Context)
}

// MessageCountScoring awards a flat 1.0 performance point per message,
// regardless of platform or content — the simplest possible leaderboard,
// matching the reference system's MessageCountScoring.
type MessageCountScoring struct{}

func NewMessageCountScoring() MessageCountScoring { return MessageCountScoring{} }

func (MessageCountScoring) Score(message.Message) leaderboard.PerformancePoints {
	return leaderboard.MustPerformancePoints(1.0)
}

func (MessageCountScoring) Close(context.Context) {}
