// Package fanout broadcasts each incoming message to every registered
// leaderboard processor. Go channels are single-consumer, so the
// multi-subscriber broadcast semantics described by the spec (one
// producer, K independent subscribers, drop-on-lag) are hand-rolled
// here: one dispatch goroutine per subscriber, each with its own bounded
// channel, each fed by a non-blocking send that drops (and counts) on a
// full channel — the Go rendition of the teacher's
// Hub.Broadcast/broadcastToShards drop-on-full policy.
package fanout

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"live-elo/internal/pipeline"
)

const subscriberChannelCapacity = 10_000

// DropLogger is notified whenever a subscriber's channel is full and a
// message is dropped, so callers can wire it to a metrics counter.
type DropLogger interface {
	MessageDropped(subscriberIndex int)
}

type noopDropLogger struct{}

func (noopDropLogger) MessageDropped(int) {}

type subscriber[M any] struct {
	ch        chan M
	processor pipeline.Processor[M]
}

// Processor implements pipeline.Processor[M] by broadcasting every
// incoming message to every registered sub-processor.
type Processor[M any] struct {
	logger      *zap.Logger
	dropLogger  DropLogger
	subscribers []*subscriber[M]
	wg          sync.WaitGroup
	running     bool
}

// Builder accumulates sub-processors before Build starts one dispatch
// goroutine per subscriber.
type Builder[M any] struct {
	logger     *zap.Logger
	dropLogger DropLogger
	processors []pipeline.Processor[M]
}

func NewBuilder[M any](logger *zap.Logger) *Builder[M] {
	return &Builder[M]{logger: logger, dropLogger: noopDropLogger{}}
}

func (b *Builder[M]) WithDropLogger(dl DropLogger) *Builder[M] {
	b.dropLogger = dl
	return b
}

func (b *Builder[M]) AddProcessor(processor pipeline.Processor[M]) *Builder[M] {
	b.processors = append(b.processors, processor)
	return b
}

func (b *Builder[M]) Build(ctx context.Context) *Processor[M] {
	p := &Processor[M]{logger: b.logger, dropLogger: b.dropLogger, running: true}
	for _, proc := range b.processors {
		sub := &subscriber[M]{ch: make(chan M, subscriberChannelCapacity), processor: proc}
		p.subscribers = append(p.subscribers, sub)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			runSubscriber(ctx, sub)
		}()
	}
	return p
}

func runSubscriber[M any](ctx context.Context, sub *subscriber[M]) {
	for {
		select {
		case message, ok := <-sub.ch:
			if !ok {
				return
			}
			sub.processor.Process(ctx, message)
		case <-ctx.Done():
			return
		}
	}
}

// Process fans message out to every subscriber in registration order.
// Within one subscriber, messages are observed in this call's order;
// across subscribers there is no ordering guarantee. A subscriber whose
// channel is full has this message dropped — acceptable because every
// exporter in this system performs additive, commutative increments, so
// a catching-up subscriber still converges.
func (p *Processor[M]) Process(_ context.Context, message M) {
	for i, sub := range p.subscribers {
		select {
		case sub.ch <- message:
		default:
			p.dropLogger.MessageDropped(i)
			if p.logger != nil {
				p.logger.Warn("fanout subscriber lagging, dropping message", zap.Int("subscriber", i))
			}
		}
	}
}

// Close stops accepting new subscriber dispatch once all subscriber
// channels drain; callers must have already cancelled the context used
// in Build for this to return promptly.
func (p *Processor[M]) Close(ctx context.Context) {
	if !p.running {
		return
	}
	p.running = false
	for _, sub := range p.subscribers {
		close(sub.ch)
	}
	p.wg.Wait()
	for _, sub := range p.subscribers {
		sub.processor.Close(ctx)
	}
}
