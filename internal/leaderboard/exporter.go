package leaderboard

import (
	"context"

	"go.uber.org/zap"
)

// Exporter receives scored (author, performance) increments from a
// PerformanceProcessor and routes them somewhere — the shared store, a
// diagnostic sink, or both via MultiExporter.
type Exporter interface {
	Export(ctx context.Context, authorId AuthorId, performance PerformancePoints)
	Close(ctx context.Context)
}

// DummyExporter logs every increment and discards it. Useful as one leg
// of a MultiExporter pair while wiring up a new leaderboard.
type DummyExporter struct {
	logger *zap.Logger
}

func NewDummyExporter(logger *zap.Logger) *DummyExporter {
	return &DummyExporter{logger: logger}
}

func (d *DummyExporter) Export(_ context.Context, authorId AuthorId, performance PerformancePoints) {
	d.logger.Debug("dummy export",
		zap.String("platform", string(authorId.Platform)),
		zap.String("author_id", authorId.ID),
		zap.Float32("performance", performance.Get()),
	)
}

func (d *DummyExporter) Close(context.Context) {}

// MultiExporter forwards every increment to both Head and Tail, letting
// one leaderboard drive multiple downstream consumers.
type MultiExporter struct {
	Head Exporter
	Tail Exporter
}

// PairExporters composes two exporters. Chain further by passing the
// result back in as Tail.
func PairExporters(head, tail Exporter) *MultiExporter {
	return &MultiExporter{Head: head, Tail: tail}
}

func (m *MultiExporter) Export(ctx context.Context, authorId AuthorId, performance PerformancePoints) {
	m.Head.Export(ctx, authorId, performance)
	m.Tail.Export(ctx, authorId, performance)
}

func (m *MultiExporter) Close(ctx context.Context) {
	m.Head.Close(ctx)
	m.Tail.Close(ctx)
}

// SharedHandleConsumer is an Exporter that pushes increments into a
// SharedHandle under a fixed leaderboard name.
type SharedHandleConsumer struct {
	leaderboard LeaderboardName
	handle      *SharedHandle
}

func (h *SharedHandle) ConsumerFor(leaderboard LeaderboardName) *SharedHandleConsumer {
	return &SharedHandleConsumer{leaderboard: leaderboard, handle: h}
}

func (c *SharedHandleConsumer) Export(_ context.Context, authorId AuthorId, performance PerformancePoints) {
	c.handle.PushChange(c.leaderboard, authorId, performance)
}

func (c *SharedHandleConsumer) Close(context.Context) {}
