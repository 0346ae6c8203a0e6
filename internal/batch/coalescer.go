// Package batch coalesces bursts of performance increments into minimal
// per-(leaderboard, author) batches, amortizing ELO recompute and
// network-send cost against message rate.
package batch

import (
	"context"
	"time"

	"live-elo/internal/leaderboard"
)

// CoalescingWindow bounds how long the coalescer keeps draining
// already-queued increments before emitting a batch. Independent of any
// cancellation context, per the design's explicit carve-out.
const CoalescingWindow = 5 * time.Second

// FullBatchedPerformances is leaderboard -> author -> summed performance
// for one coalescing window.
type FullBatchedPerformances map[leaderboard.LeaderboardName]map[leaderboard.AuthorId]leaderboard.PerformancePoints

// Flatten converts a batch back into individual increments, suitable
// for SharedHandle.PushChanges.
func (b FullBatchedPerformances) Flatten() []leaderboard.IngestedPerformance {
	out := make([]leaderboard.IngestedPerformance, 0, len(b))
	for name, perAuthor := range b {
		for authorId, performance := range perAuthor {
			out = append(out, leaderboard.IngestedPerformance{Leaderboard: name, AuthorId: authorId, Performance: performance})
		}
	}
	return out
}

// Coalescer reads individual increments off Incoming and emits one
// summed FullBatchedPerformances per window on Outgoing.
type Coalescer struct {
	incoming <-chan leaderboard.IngestedPerformance
	outgoing chan<- FullBatchedPerformances
}

func New(incoming <-chan leaderboard.IngestedPerformance, outgoing chan<- FullBatchedPerformances) *Coalescer {
	return &Coalescer{incoming: incoming, outgoing: outgoing}
}

// Run blocks until the first item of a window arrives, then drains
// additional items non-blockingly up to CoalescingWindow, sums them, and
// emits one batch. A closed Incoming channel ends the loop cleanly.
func (c *Coalescer) Run(ctx context.Context) {
	for {
		first, ok := c.recvFirst(ctx)
		if !ok {
			return
		}

		batch := make([]leaderboard.IngestedPerformance, 0, 1)
		batch = append(batch, first)
		batch = c.drainWithin(batch, CoalescingWindow)

		select {
		case c.outgoing <- squash(batch):
		case <-ctx.Done():
			return
		}
	}
}

func (c *Coalescer) recvFirst(ctx context.Context) (leaderboard.IngestedPerformance, bool) {
	select {
	case item, ok := <-c.incoming:
		return item, ok
	case <-ctx.Done():
		return leaderboard.IngestedPerformance{}, false
	}
}

func (c *Coalescer) drainWithin(batch []leaderboard.IngestedPerformance, window time.Duration) []leaderboard.IngestedPerformance {
	deadline := time.After(window)
	for {
		select {
		case item, ok := <-c.incoming:
			if !ok {
				return batch
			}
			batch = append(batch, item)
		case <-deadline:
			return batch
		}
	}
}

// ChannelExporter implements leaderboard.Exporter by sending each
// increment to a channel read by a Coalescer, rather than pushing
// directly into a SharedHandle — the point where per-message increments
// enter the coalescing window instead of hitting the store one at a
// time.
type ChannelExporter struct {
	leaderboardName leaderboard.LeaderboardName
	out             chan<- leaderboard.IngestedPerformance
}

// NewChannelExporter builds an Exporter that tags every increment with
// leaderboardName and sends it to out.
func NewChannelExporter(leaderboardName leaderboard.LeaderboardName, out chan<- leaderboard.IngestedPerformance) *ChannelExporter {
	return &ChannelExporter{leaderboardName: leaderboardName, out: out}
}

func (c *ChannelExporter) Export(ctx context.Context, authorId leaderboard.AuthorId, performance leaderboard.PerformancePoints) {
	select {
	case c.out <- leaderboard.IngestedPerformance{Leaderboard: c.leaderboardName, AuthorId: authorId, Performance: performance}:
	case <-ctx.Done():
	}
}

func (c *ChannelExporter) Close(context.Context) {}

func squash(items []leaderboard.IngestedPerformance) FullBatchedPerformances {
	out := make(FullBatchedPerformances)
	for _, item := range items {
		perAuthor, ok := out[item.Leaderboard]
		if !ok {
			perAuthor = make(map[leaderboard.AuthorId]leaderboard.PerformancePoints)
			out[item.Leaderboard] = perAuthor
		}
		perAuthor[item.AuthorId] = perAuthor[item.AuthorId].Add(item.Performance)
	}
	return out
}
