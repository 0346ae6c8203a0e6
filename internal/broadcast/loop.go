package broadcast

import (
	"context"
	"time"

	"go.uber.org/zap"

	"live-elo/internal/guard"
	"live-elo/internal/leaderboard"
	"live-elo/internal/metrics"
)

// TickInterval is the broadcast loop's recompute cadence.
const TickInterval = 5 * time.Second

// Publisher commits a newly computed snapshot and hands its serialized
// diff frame to every connected websocket subscriber, atomically with
// respect to new client registration (see ws.Hub.PublishDiff).
type Publisher interface {
	PublishDiff(snapshot map[leaderboard.LeaderboardName]leaderboard.LeaderboardElos, frame []byte)
	CommitSnapshot(snapshot map[leaderboard.LeaderboardName]leaderboard.LeaderboardElos)
}

// Loop periodically recomputes the ranked tables, diffs them against the
// last published snapshot, and publishes non-empty diffs.
type Loop struct {
	store     *leaderboard.SharedHandle
	publisher Publisher
	guard     *guard.ResourceGuard
	metrics   *metrics.Registry
	logger    *zap.Logger

	previous map[leaderboard.LeaderboardName]leaderboard.LeaderboardElos
}

// NewLoop builds a broadcast loop. metricsRegistry may be nil, in which
// case guard wait times are not observed.
func NewLoop(store *leaderboard.SharedHandle, publisher Publisher, resourceGuard *guard.ResourceGuard, metricsRegistry *metrics.Registry, logger *zap.Logger) *Loop {
	return &Loop{store: store, publisher: publisher, guard: resourceGuard, metrics: metricsRegistry, logger: logger}
}

// Run ticks every TickInterval until ctx is cancelled, exiting after the
// in-flight tick completes.
func (l *Loop) Run(ctx context.Context) {
	l.previous = l.store.GetLeaderboard()
	l.publisher.CommitSnapshot(l.previous)

	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (l *Loop) tick(ctx context.Context) {
	if l.guard != nil {
		waited, err := l.guard.WaitForBroadcast(ctx)
		if l.metrics != nil {
			l.metrics.BroadcastWaitSeconds.Observe(waited.Seconds())
		}
		if err != nil {
			return
		}
	}

	current := l.store.GetLeaderboard()
	changes := FindChanges(l.previous, current)

	if len(changes) > 0 {
		frame, err := MarshalChanges(changes)
		if err != nil {
			l.logger.Warn("failed to serialize changes frame", zap.Error(err))
		} else {
			l.publisher.PublishDiff(current, frame)
		}
	} else {
		l.publisher.CommitSnapshot(current)
	}

	l.previous = current
}
