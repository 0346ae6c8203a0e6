package fanout

import (
	"context"
	"sync"
	"testing"
	"time"
)

type recordingProcessor struct {
	mu       sync.Mutex
	received []int
	closed   bool
}

func (r *recordingProcessor) Process(_ context.Context, m int) {
	r.mu.Lock()
	r.received = append(r.received, m)
	r.mu.Unlock()
}

func (r *recordingProcessor) Close(context.Context) {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

func (r *recordingProcessor) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.received)
}

func TestProcessor_fansOutToEverySubscriber(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := &recordingProcessor{}
	b := &recordingProcessor{}

	p := NewBuilder[int](nil).AddProcessor(a).AddProcessor(b).Build(ctx)

	p.Process(ctx, 42)

	deadline := time.Now().Add(time.Second)
	for (a.count() < 1 || b.count() < 1) && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	if a.count() != 1 || b.count() != 1 {
		t.Fatalf("expected both subscribers to receive the message, got a=%d b=%d", a.count(), b.count())
	}

	p.Close(ctx)
	if !a.closed || !b.closed {
		t.Fatalf("expected both sub-processors to be closed")
	}
}

type droppingCounter struct {
	mu      sync.Mutex
	dropped int
}

func (d *droppingCounter) MessageDropped(int) {
	d.mu.Lock()
	d.dropped++
	d.mu.Unlock()
}

func TestProcessor_dropsOnFullSubscriberChannel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	blocker := &blockingProcessor{unblock: make(chan struct{})}
	dropLogger := &droppingCounter{}

	p := NewBuilder[int](nil).WithDropLogger(dropLogger).AddProcessor(blocker).Build(ctx)

	// Flood well past subscriberChannelCapacity while the single
	// subscriber goroutine is blocked processing its first message.
	for i := 0; i < subscriberChannelCapacity+10; i++ {
		p.Process(ctx, i)
	}

	close(blocker.unblock)
	p.Close(ctx)

	dropLogger.mu.Lock()
	defer dropLogger.mu.Unlock()
	if dropLogger.dropped == 0 {
		t.Fatalf("expected at least one dropped message once the channel saturated")
	}
}

type blockingProcessor struct {
	unblock chan struct{}
	once    sync.Once
}

func (b *blockingProcessor) Process(context.Context, int) {
	b.once.Do(func() { <-b.unblock })
}

func (b *blockingProcessor) Close(context.Context) {}
