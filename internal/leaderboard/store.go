package leaderboard

import (
	"sync"
	"sync/atomic"
	"time"

	"live-elo/internal/metrics"
)

// snapshot is the cached, recomputed ranking for every leaderboard. A nil
// *snapshot in the cache slot means "invalidated, recompute on next read".
type snapshot struct {
	leaderboards map[LeaderboardName]LeaderboardElos
}

// SharedHandle is the process-wide rendezvous between the ingest side
// (scoring/exporters pushing performance increments) and the broadcast
// side (the diff loop reading ranked tables). It holds an immutable map
// of per-leaderboard ELO processors, a read/write-locked map of current
// performances, and a single-slot atomically-swapped cache of the last
// computed ranking.
type SharedHandle struct {
	processors map[LeaderboardName]*Processor
	metrics    *metrics.Registry

	mu                  sync.RWMutex
	currentPerformances map[LeaderboardName]map[AuthorId]PerformancePoints

	cache atomic.Pointer[snapshot]
}

// NewSharedHandle builds a handle from a (possibly empty) set of base ELO
// tables, one EloConfig applied uniformly across leaderboards. metricsRegistry
// may be nil, in which case recompute timings are not observed.
func NewSharedHandle(base map[LeaderboardName]LeaderboardElos, config EloConfig, metricsRegistry *metrics.Registry) *SharedHandle {
	processors := make(map[LeaderboardName]*Processor, len(base))
	for name, elos := range base {
		processors[name] = NewProcessor(elos, config)
	}
	return &SharedHandle{
		processors:          processors,
		metrics:             metricsRegistry,
		currentPerformances: make(map[LeaderboardName]map[AuthorId]PerformancePoints),
	}
}

// PushChange atomically increments one author's performance on one
// leaderboard and invalidates the cached ranking.
func (h *SharedHandle) PushChange(leaderboardName LeaderboardName, authorId AuthorId, delta PerformancePoints) {
	h.mu.Lock()
	h.applyChangeLocked(leaderboardName, authorId, delta)
	h.mu.Unlock()

	h.cache.Store(nil)
}

// IngestedPerformance is one (leaderboard, author, delta) increment, as
// produced by a batch coalescer or a direct push.
type IngestedPerformance struct {
	Leaderboard LeaderboardName
	AuthorId    AuthorId
	Performance PerformancePoints
}

// PushChanges applies a batch of increments under a single write-lock
// acquisition.
func (h *SharedHandle) PushChanges(changes []IngestedPerformance) {
	h.mu.Lock()
	for _, change := range changes {
		h.applyChangeLocked(change.Leaderboard, change.AuthorId, change.Performance)
	}
	h.mu.Unlock()

	h.cache.Store(nil)
}

func (h *SharedHandle) applyChangeLocked(leaderboardName LeaderboardName, authorId AuthorId, delta PerformancePoints) {
	perAuthor, ok := h.currentPerformances[leaderboardName]
	if !ok {
		perAuthor = make(map[AuthorId]PerformancePoints)
		h.currentPerformances[leaderboardName] = perAuthor
	}
	perAuthor[authorId] = perAuthor[authorId].Add(delta)
}

// GetLeaderboard returns the current ranking for every leaderboard,
// recomputing under a read lock on a cache miss and publishing the
// result via an atomic pointer swap. Two concurrent misses may both
// recompute; both produce the same answer and the last store wins.
func (h *SharedHandle) GetLeaderboard() map[LeaderboardName]LeaderboardElos {
	if existing := h.cache.Load(); existing != nil {
		return existing.leaderboards
	}

	start := time.Now()

	h.mu.RLock()
	leaderboards := make(map[LeaderboardName]LeaderboardElos, len(h.processors))
	for name, processor := range h.processors {
		leaderboards[name] = processor.Run(h.currentPerformances[name])
	}
	h.mu.RUnlock()

	if h.metrics != nil {
		h.metrics.EloRecomputeSeconds.Observe(time.Since(start).Seconds())
	}

	h.cache.Store(&snapshot{leaderboards: leaderboards})
	return leaderboards
}
