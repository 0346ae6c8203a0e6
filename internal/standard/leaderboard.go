// Package standard implements the StandardLeaderboard performance
// processor: score each message, then export the (author, performance)
// pair. It is the glue between internal/scoring, internal/leaderboard's
// Exporter, and internal/pipeline's Processor interface.
package standard

import (
	"context"

	"live-elo/internal/leaderboard"
	"live-elo/internal/message"
	"live-elo/internal/scoring"
)

// Leaderboard scores every incoming message and forwards the result to
// an Exporter. It implements pipeline.Processor[message.Message].
type Leaderboard struct {
	scoring  scoring.System
	exporter leaderboard.Exporter
}

func New(scoringSystem scoring.System, exporter leaderboard.Exporter) *Leaderboard {
	return &Leaderboard{scoring: scoringSystem, exporter: exporter}
}

func (l *Leaderboard) Process(ctx context.Context, m message.Message) {
	authorId := m.AuthorId()
	score := l.scoring.Score(m)
	l.exporter.Export(ctx, authorId, score)
}

func (l *Leaderboard) Close(ctx context.Context) {
	l.scoring.Close(ctx)
	l.exporter.Close(ctx)
}
