// Package ws implements the websocket transport: a Hub tracking
// connected clients and an Accept/read/write transport built on
// gobwas/ws, following the teacher's internal/session + internal/transport
// split but adapted to publish leaderboard diff frames instead of
// relaying arbitrary client payloads.
package ws

import (
	"net"
	"sync"
	"sync/atomic"

	"live-elo/internal/leaderboard"
	"live-elo/internal/metrics"
)

// Connection is one registered websocket client.
type Connection struct {
	ID        uint64
	Conn      net.Conn
	SendQueue chan []byte
	closeOnce sync.Once
	closed    chan struct{}
}

// ForceClose signals the connection's read/write loops to terminate
// because it fell too far behind the broadcast queue to keep up.
func (c *Connection) ForceClose() {
	c.closeOnce.Do(func() { close(c.closed) })
}

// Closed reports whether ForceClose has been called.
func (c *Connection) Closed() <-chan struct{} { return c.closed }

type shard struct {
	clients sync.Map // map[uint64]*Connection
	count   int32
}

// Hub tracks connections (sharded for contended access, matching the
// teacher's session.Hub) and serializes "commit a new snapshot and
// publish its diff" against "take a snapshot and subscribe" so a joining
// client can never both receive a diff and the post-diff snapshot, nor
// miss the diff entirely — see Register and PublishDiff.
type Hub struct {
	broadcastQueueSize int

	shards         []shard
	nextConnection uint64

	metrics *metrics.Registry

	mu              sync.RWMutex
	currentSnapshot map[leaderboard.LeaderboardName]leaderboard.LeaderboardElos
}

func NewHub(shardCount, broadcastQueueSize int, metricsRegistry *metrics.Registry) *Hub {
	if shardCount <= 0 {
		shardCount = 64
	}
	if broadcastQueueSize <= 0 {
		broadcastQueueSize = 10
	}
	return &Hub{
		broadcastQueueSize: broadcastQueueSize,
		shards:             make([]shard, shardCount),
		metrics:            metricsRegistry,
		currentSnapshot:    make(map[leaderboard.LeaderboardName]leaderboard.LeaderboardElos),
	}
}

// Register adds conn as a new client and returns it together with the
// snapshot current at the moment of registration. Held under the same
// read lock that PublishDiff takes as a writer, so registration is
// atomic with respect to any in-flight diff publication.
func (h *Hub) Register(conn net.Conn) (*Connection, map[leaderboard.LeaderboardName]leaderboard.LeaderboardElos) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	id := atomic.AddUint64(&h.nextConnection, 1)
	c := &Connection{
		ID:        id,
		Conn:      conn,
		SendQueue: make(chan []byte, h.broadcastQueueSize),
		closed:    make(chan struct{}),
	}

	s := h.pickShard(id)
	s.clients.Store(id, c)
	atomic.AddInt32(&s.count, 1)
	if h.metrics != nil {
		h.metrics.ActiveConnections.Inc()
	}

	return c, h.currentSnapshot
}

func (h *Hub) Unregister(c *Connection) {
	if c == nil {
		return
	}
	s := h.pickShard(c.ID)
	if _, ok := s.clients.LoadAndDelete(c.ID); ok {
		atomic.AddInt32(&s.count, -1)
		if h.metrics != nil {
			h.metrics.ActiveConnections.Dec()
		}
	}
}

// PublishDiff commits newSnapshot as the hub's current snapshot and
// broadcasts frame to every registered client, all under one write lock
// so no Register call can interleave between the commit and the
// broadcast.
func (h *Hub) PublishDiff(newSnapshot map[leaderboard.LeaderboardName]leaderboard.LeaderboardElos, frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.currentSnapshot = newSnapshot
	if h.metrics != nil {
		h.metrics.MessagesPublished.Inc()
	}
	h.broadcast(frame)
}

// CommitSnapshot updates the hub's current snapshot without broadcasting
// a frame, used on ticks where the diff was empty: new clients still
// need the up-to-date baseline even though nothing changed.
func (h *Hub) CommitSnapshot(newSnapshot map[leaderboard.LeaderboardName]leaderboard.LeaderboardElos) {
	h.mu.Lock()
	h.currentSnapshot = newSnapshot
	h.mu.Unlock()
}

func (h *Hub) broadcast(frame []byte) {
	for idx := range h.shards {
		s := &h.shards[idx]
		s.clients.Range(func(_, value any) bool {
			conn := value.(*Connection)
			select {
			case conn.SendQueue <- frame:
				if h.metrics != nil {
					h.metrics.MessagesDelivered.Inc()
				}
			default:
				// Slow client: disconnect rather than buffer further,
				// favoring a memory bound over client longevity.
				if h.metrics != nil {
					h.metrics.BroadcastDropped.Inc()
				}
				conn.ForceClose()
			}
			return true
		})
	}
}

// ClientCount returns the total number of tracked connections.
func (h *Hub) ClientCount() int {
	var total int32
	for idx := range h.shards {
		total += atomic.LoadInt32(&h.shards[idx].count)
	}
	return int(total)
}

func (h *Hub) pickShard(id uint64) *shard {
	return &h.shards[id%uint64(len(h.shards))]
}
