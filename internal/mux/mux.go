// Package mux merges N independently-scheduled source tasks into one
// ordered stream, with cooperative cancellation.
package mux

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"live-elo/internal/pipeline"
)

const channelCapacity = 10_000

// TaskSourceBuilder accumulates sub-sources before Build assembles a
// TaskSource that runs each of them in its own goroutine.
type TaskSourceBuilder[M any] struct {
	logger  *zap.Logger
	sources []pipeline.Source[M]
}

func NewTaskSourceBuilder[M any](logger *zap.Logger) *TaskSourceBuilder[M] {
	return &TaskSourceBuilder[M]{logger: logger}
}

func (b *TaskSourceBuilder[M]) AddSource(source pipeline.Source[M]) *TaskSourceBuilder[M] {
	b.sources = append(b.sources, source)
	return b
}

// Build starts one goroutine per registered sub-source, each forwarding
// into a shared, bounded channel whose FIFO drain order defines the
// observable message order of the merged stream.
func (b *TaskSourceBuilder[M]) Build(ctx context.Context) *TaskSource[M] {
	ch := make(chan M, channelCapacity)
	group, groupCtx := errgroup.WithContext(ctx)

	for _, source := range b.sources {
		source := source
		group.Go(func() error {
			forward(groupCtx, source, ch, b.logger)
			return nil
		})
	}

	// Once every sub-source has finished, close the channel so Next
	// reports exhaustion after the buffered messages are drained.
	go func() {
		_ = group.Wait()
		close(ch)
	}()

	return &TaskSource[M]{ch: ch, group: group, logger: b.logger}
}

func forward[M any](ctx context.Context, source pipeline.Source[M], out chan<- M, logger *zap.Logger) {
	defer source.Close(ctx)
	for {
		message, ok := source.Next(ctx)
		if !ok {
			return
		}
		select {
		case out <- message:
		case <-ctx.Done():
			return
		}
	}
}

// TaskSource is a pipeline.Source reading the channel fed by every
// registered sub-source goroutine.
type TaskSource[M any] struct {
	ch     chan M
	group  *errgroup.Group
	logger *zap.Logger
}

func (s *TaskSource[M]) Next(ctx context.Context) (M, bool) {
	select {
	case message, ok := <-s.ch:
		return message, ok
	case <-ctx.Done():
		var zero M
		return zero, false
	}
}

// Close joins every sub-source goroutine, logging (but not propagating)
// any error — a failed join must never block shutdown.
func (s *TaskSource[M]) Close(_ context.Context) {
	if err := s.group.Wait(); err != nil && s.logger != nil {
		s.logger.Warn("error joining source subtask", zap.Error(err))
	}
}

// CancellableSource composes any Source with a context: Next resolves
// as exhausted (ok==false) the moment ctx is cancelled, even if the
// wrapped source would otherwise still block.
type CancellableSource[M any] struct {
	inner pipeline.Source[M]
}

func NewCancellableSource[M any](inner pipeline.Source[M]) *CancellableSource[M] {
	return &CancellableSource[M]{inner: inner}
}

func (c *CancellableSource[M]) Next(ctx context.Context) (M, bool) {
	type result struct {
		message M
		ok      bool
	}
	resultCh := make(chan result, 1)
	go func() {
		message, ok := c.inner.Next(ctx)
		resultCh <- result{message: message, ok: ok}
	}()

	select {
	case r := <-resultCh:
		return r.message, r.ok
	case <-ctx.Done():
		var zero M
		return zero, false
	}
}

func (c *CancellableSource[M]) Close(ctx context.Context) {
	c.inner.Close(ctx)
}
