package ws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"go.uber.org/zap"

	"live-elo/internal/broadcast"
	"live-elo/internal/metrics"
)

// maxInboundFrameBytes bounds inbound frame and message size; outbound
// diff frames are unbounded but tend to be small.
const maxInboundFrameBytes = 2048

// Server accepts TCP connections, performs the websocket handshake with
// gobwas/ws, and drives each connection's read/write loops.
type Server struct {
	host    string
	port    int
	path    string
	logger  *zap.Logger
	hub     *Hub
	metrics *metrics.Registry

	listener net.Listener
	wg       sync.WaitGroup
}

func NewServer(host string, port int, path string, hub *Hub, metricsRegistry *metrics.Registry, logger *zap.Logger) *Server {
	return &Server{host: host, port: port, path: path, hub: hub, metrics: metricsRegistry, logger: logger}
}

func (s *Server) Start(ctx context.Context) error {
	if s.listener != nil {
		return errors.New("ws: server already started")
	}

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("ws: listen: %w", err)
	}
	s.listener = ln
	s.logger.Info("websocket transport listening", zap.String("addr", addr), zap.String("path", s.path))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptLoop(ctx)
	}()

	return nil
}

func (s *Server) Stop() {
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
}

func (s *Server) acceptLoop(ctx context.Context) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Error("accept error", zap.Error(err))
			return
		}

		s.wg.Add(1)
		go func(c net.Conn) {
			defer s.wg.Done()
			s.handleConnection(ctx, c)
		}(conn)
	}
}

func (s *Server) handleConnection(parent context.Context, conn net.Conn) {
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(10 * time.Second)); err != nil {
		s.logger.Debug("set handshake deadline", zap.Error(err))
	}

	if _, err := ws.Upgrade(conn); err != nil {
		if s.metrics != nil {
			s.metrics.AcceptErrors.Inc()
		}
		s.logger.Debug("upgrade failed", zap.Error(err))
		return
	}

	_ = conn.SetDeadline(time.Time{})

	// Register first: this atomically reads the current snapshot and
	// adds the connection to the broadcast recipient set under the
	// hub's read lock, which is what prevents a diff from being applied
	// to a snapshot this client never received (see Hub.PublishDiff).
	connection, snapshot := s.hub.Register(conn)
	defer s.hub.Unregister(connection)

	frame, err := broadcast.MarshalInitialLeaderboards(snapshot)
	if err != nil {
		s.logger.Warn("failed to serialize initial snapshot", zap.Error(err))
		return
	}
	if err := wsutil.WriteServerMessage(conn, ws.OpBinary, frame); err != nil {
		s.logger.Debug("failed to send initial snapshot", zap.Error(err))
		return
	}

	connCtx, cancel := context.WithCancel(parent)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.writeLoop(connCtx, connection, conn)
		// Unblock the read loop's pending NextFrame so the connection is
		// torn down on cancellation or ForceClose, not on the next inbound frame.
		_ = conn.SetReadDeadline(time.Now())
	}()

	s.readLoop(connCtx, connection, conn)
	cancel()
	<-done
}

func (s *Server) readLoop(ctx context.Context, connState *Connection, conn net.Conn) {
	reader := wsutil.NewReader(conn, ws.StateServerSide)
	for {
		select {
		case <-ctx.Done():
			return
		case <-connState.Closed():
			return
		default:
		}

		head, err := reader.NextFrame()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.logger.Debug("read frame error", zap.Error(err))
			}
			return
		}

		if head.Length > maxInboundFrameBytes {
			_ = wsutil.WriteServerMessage(conn, ws.OpClose, nil)
			return
		}

		switch head.OpCode {
		case ws.OpClose:
			_ = wsutil.WriteServerMessage(conn, ws.OpClose, nil)
			return
		case ws.OpPing:
			if err := wsutil.WriteServerMessage(conn, ws.OpPong, nil); err != nil {
				s.logger.Debug("write pong error", zap.Error(err))
				return
			}
		default:
			// Only ping frames are tolerated from clients; anything
			// else (including text/binary payloads) closes the
			// connection, since clients are not expected to send data.
			if _, err := io.CopyN(io.Discard, reader, int64(head.Length)); err != nil {
				s.logger.Debug("drain frame error", zap.Error(err))
			}
			return
		}
	}
}

func (s *Server) writeLoop(ctx context.Context, connState *Connection, conn net.Conn) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-connState.Closed():
			return
		case frame, ok := <-connState.SendQueue:
			if !ok {
				return
			}
			if err := wsutil.WriteServerMessage(conn, ws.OpBinary, frame); err != nil {
				s.logger.Debug("write message error", zap.Error(err))
				return
			}
		}
	}
}
