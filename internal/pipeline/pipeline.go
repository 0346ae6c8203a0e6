// Package pipeline implements the generic message-pipeline skeleton:
// sources feed a filter, the filter's survivors feed a performance
// processor, and every stage is closed exactly once on termination.
package pipeline

import "context"

// Source produces messages until it is exhausted or cancelled, at which
// point Next returns ok == false.
type Source[M any] interface {
	Next(ctx context.Context) (message M, ok bool)
	Close(ctx context.Context)
}

// Filter is a pure predicate over messages.
type Filter[M any] interface {
	Keep(message M) bool
	Close(ctx context.Context)
}

// Processor consumes one message at a time and may suspend (e.g. to
// apply backpressure on a slow exporter).
type Processor[M any] interface {
	Process(ctx context.Context, message M)
	Close(ctx context.Context)
}

// Pipeline wires one Source, one Filter, and one Processor together.
// No message is ever dropped between Keep()==true and Process(): the
// loop only discards a message when Keep returns false.
type Pipeline[M any] struct {
	source    Source[M]
	filter    Filter[M]
	processor Processor[M]
}

// New builds a Pipeline from its three stages.
func New[M any](source Source[M], filter Filter[M], processor Processor[M]) *Pipeline[M] {
	return &Pipeline[M]{source: source, filter: filter, processor: processor}
}

// Run reads from the source until it is exhausted or ctx is cancelled.
// A slow Processor naturally backpressures the source, since Run does
// not buffer between read and process.
func (p *Pipeline[M]) Run(ctx context.Context) {
	for {
		message, ok := p.source.Next(ctx)
		if !ok {
			return
		}
		if !p.filter.Keep(message) {
			continue
		}
		p.processor.Process(ctx, message)
	}
}

// Close closes each stage exactly once, in source → filter → processor
// order. No stage returns a value from Close, so there is no residual
// state for the caller to inspect.
func (p *Pipeline[M]) Close(ctx context.Context) {
	p.source.Close(ctx)
	p.filter.Close(ctx)
	p.processor.Close(ctx)
}
