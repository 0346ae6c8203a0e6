package ws

import (
	"net"
	"testing"

	"live-elo/internal/leaderboard"
)

func TestHub_registerReturnsCurrentSnapshot(t *testing.T) {
	h := NewHub(0, 0, nil)
	baseline := map[leaderboard.LeaderboardName]leaderboard.LeaderboardElos{
		"messages": {{AuthorId: leaderboard.NewTwitchAuthor("a"), Elo: leaderboard.MustElo(1200)}},
	}
	h.CommitSnapshot(baseline)

	client, clientConn := net.Pipe()
	defer client.Close()
	defer clientConn.Close()

	conn, snapshot := h.Register(clientConn)
	defer h.Unregister(conn)

	if len(snapshot["messages"]) != 1 {
		t.Fatalf("expected registrant to see the committed baseline, got %v", snapshot)
	}
	if h.ClientCount() != 1 {
		t.Fatalf("expected 1 registered client, got %d", h.ClientCount())
	}
}

func TestHub_unregisterRemovesClient(t *testing.T) {
	h := NewHub(0, 0, nil)

	client, clientConn := net.Pipe()
	defer client.Close()
	defer clientConn.Close()

	conn, _ := h.Register(clientConn)
	h.Unregister(conn)

	if h.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unregister, got %d", h.ClientCount())
	}
}

func TestHub_publishDiffDisconnectsSlowClient(t *testing.T) {
	h := NewHub(1, 1, nil)

	client, clientConn := net.Pipe()
	defer client.Close()
	defer clientConn.Close()

	conn, _ := h.Register(clientConn)
	defer h.Unregister(conn)

	// Fill the connection's send queue (capacity 1) without draining it,
	// then publish twice: the second publish must find the queue full
	// and force-close the connection rather than block.
	h.PublishDiff(nil, []byte("first"))
	h.PublishDiff(nil, []byte("second"))

	select {
	case <-conn.Closed():
	default:
		t.Fatalf("expected slow client to be force-closed")
	}
}
