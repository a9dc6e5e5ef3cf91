package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/jkwon/parlor/internal/core"
	"github.com/jkwon/parlor/internal/core/debug"
	"github.com/jkwon/parlor/internal/packets"
)

// Frame is one whole decoded packet attributed to the session that produced
// it. The transport also synthesizes frames with the SessionConnected and
// SessionClosed ids; consumers must validate {SessionIndex, SessionSeq}
// against their own records rather than trust index freshness.
type Frame struct {
	SessionIndex int
	SessionSeq   uint64
	ID           uint16
	Body         []byte
}

// Server accepts lobby connections and turns their byte streams into an
// ordered queue of frames. One reader goroutine per connection feeds the
// queue; frames from the same session always appear in byte-arrival order.
// All domain state mutation happens in whatever single goroutine drains
// Frames(), so the transport never touches domain state itself.
type Server struct {
	config *core.Config
	logger *logrus.Logger

	pool     *sessionPool
	listener *net.TCPListener
	frames   chan Frame

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func NewServer(config *core.Config, logger *logrus.Logger) *Server {
	maxFrame := packets.HeaderSize + packets.MaxPacketBodySize

	// The receive buffer has to be able to hold a maximum-size frame plus a
	// read's worth of carry-over; the send buffer at least one whole frame.
	recvCapacity := config.RecvBufferSize
	if recvCapacity < 2*maxFrame {
		recvCapacity = 2 * maxFrame
	}
	sendCapacity := config.SendBufferSize
	if sendCapacity < maxFrame {
		sendCapacity = maxFrame
	}

	poolSize := config.SessionPoolSize()
	queueDepth := poolSize * 8
	if queueDepth < 64 {
		queueDepth = 64
	}

	return &Server{
		config: config,
		logger: logger,
		pool:   newSessionPool(poolSize, recvCapacity, sendCapacity),
		frames: make(chan Frame, queueDepth),
		done:   make(chan struct{}),
	}
}

// Start opens the listening socket and spins off the accept loop. The
// context cancels the listener.
func (n *Server) Start(ctx context.Context) error {
	hostAddr, err := net.ResolveTCPAddr("tcp", n.config.ListenAddress())
	if err != nil {
		return fmt.Errorf("error resolving address %s: %w", n.config.ListenAddress(), err)
	}

	socket, err := net.ListenTCP("tcp", hostAddr)
	if err != nil {
		return fmt.Errorf("error listening on socket: %w", err)
	}
	n.listener = socket

	n.logger.Infof("[NET] waiting for connections on %v (%d session slots)",
		socket.Addr(), n.config.SessionPoolSize())

	go func() {
		select {
		case <-ctx.Done():
		case <-n.done:
		}
		_ = socket.Close()
	}()

	n.wg.Add(1)
	go n.acceptLoop()
	return nil
}

// Frames returns the queue of decoded frames and synthetic session events.
func (n *Server) Frames() <-chan Frame {
	return n.frames
}

// Addr returns the bound listener address.
func (n *Server) Addr() net.Addr {
	return n.listener.Addr()
}

// LiveSessions returns the number of currently-open sessions.
func (n *Server) LiveSessions() int {
	return n.pool.liveCount()
}

// Send queues one frame on a session's send buffer. A stale {index, seq}
// pair returns ErrStaleSession and writes nothing; a full send buffer
// returns ErrSendBufferFull and writes nothing.
func (n *Server) Send(sessionIndex int, sessionSeq uint64, id uint16, body []byte) error {
	s := n.pool.get(sessionIndex)
	if s == nil {
		return ErrStaleSession
	}
	if n.config.Debugging.PacketLoggingEnabled {
		n.logger.Debug(debug.FormatFrame("send", sessionIndex, id, packets.Name(id), body))
	}
	return s.queueFrame(sessionSeq, id, body)
}

// ForceClose terminates a session from outside the transport, e.g. when the
// login deadline expires. No-op for stale references.
func (n *Server) ForceClose(sessionIndex int, sessionSeq uint64, reason string) {
	s := n.pool.get(sessionIndex)
	if s == nil {
		return
	}
	n.closeSession(s, sessionSeq, reason)
}

// Shutdown force-closes every live session, stops the accept loop, and
// blocks until all connection goroutines have exited.
func (n *Server) Shutdown() {
	n.closeOnce.Do(func() { close(n.done) })

	for _, s := range n.pool.sessions {
		n.closeSession(s, s.Seq(), "server shutdown")
	}
	n.wg.Wait()
}

func (n *Server) acceptLoop() {
	defer n.wg.Done()

	for {
		conn, err := n.listener.AcceptTCP()
		if err != nil {
			select {
			case <-n.done:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			n.logger.Warnf("[NET] failed to accept connection: %v", err)
			continue
		}

		session, err := n.pool.allocate(conn)
		if err != nil {
			// No slot to host the connection; never leave it half-open.
			n.logger.Warnf("[NET] rejecting connection from %v: %v", conn.RemoteAddr(), err)
			_ = conn.Close()
			continue
		}

		n.setSocketOptions(conn)

		n.logger.Infof("[NET] new session. index(%d) seq(%d) addr(%v)",
			session.index, session.seq, conn.RemoteAddr())
		n.enqueue(Frame{
			SessionIndex: session.index,
			SessionSeq:   session.seq,
			ID:           packets.SessionConnected,
		})

		n.wg.Add(2)
		go n.readLoop(session, conn, session.seq)
		go n.writeLoop(session, conn, session.seq, session.flushC)
	}
}

func (n *Server) setSocketOptions(conn *net.TCPConn) {
	// Zero linger so closed sessions release their socket immediately.
	_ = conn.SetLinger(0)
	if n.config.SockOptRecvBufferSize > 0 {
		_ = conn.SetReadBuffer(n.config.SockOptRecvBufferSize)
	}
	if n.config.SockOptSendBufferSize > 0 {
		_ = conn.SetWriteBuffer(n.config.SockOptSendBufferSize)
	}
}

// readLoop owns the session's receive buffer. It is the only goroutine that
// releases the slot, which keeps the buffer from being shared with a new
// occupant while a read is still in flight.
func (n *Server) readLoop(s *Session, conn *net.TCPConn, seq uint64) {
	defer n.wg.Done()
	defer n.pool.release(s.index)

	for {
		free := s.reader.free()
		if len(free) == 0 {
			// A full buffer without a decodable frame means the peer is
			// sending garbage faster than it frames it.
			n.closeSession(s, seq, "receive buffer overflow")
			return
		}

		nread, err := conn.Read(free)
		if nread > 0 {
			s.reader.advance(nread)

			decodeErr := s.reader.decode(func(id uint16, body []byte) {
				if n.config.Debugging.PacketLoggingEnabled {
					n.logger.Debug(debug.FormatFrame("recv", s.index, id, packets.Name(id), body))
				}
				n.enqueue(Frame{
					SessionIndex: s.index,
					SessionSeq:   seq,
					ID:           id,
					Body:         body,
				})
			})
			if decodeErr != nil {
				n.closeSession(s, seq, decodeErr.Error())
				return
			}
		}

		if err == io.EOF {
			n.closeSession(s, seq, "remote closed")
			return
		}
		if err != nil {
			n.closeSession(s, seq, "read error: "+err.Error())
			return
		}
	}
}

// writeLoop flushes the session's pending bytes whenever signaled. Partial
// writes leave the unsent tail compacted at the front of the send buffer.
func (n *Server) writeLoop(s *Session, conn *net.TCPConn, seq uint64, flushC chan struct{}) {
	defer n.wg.Done()

	scratch := make([]byte, len(s.sendBuf))

	for range flushC {
		for {
			s.mu.Lock()
			if s.closed || s.seq != seq {
				s.mu.Unlock()
				return
			}
			pending := s.pending
			if pending == 0 {
				s.mu.Unlock()
				break
			}
			copy(scratch, s.sendBuf[:pending])
			s.mu.Unlock()

			written, err := conn.Write(scratch[:pending])
			if err != nil {
				n.closeSession(s, seq, "send error: "+err.Error())
				return
			}

			s.mu.Lock()
			if s.closed || s.seq != seq {
				s.mu.Unlock()
				return
			}
			copy(s.sendBuf, s.sendBuf[written:s.pending])
			s.pending -= written
			s.mu.Unlock()
		}
	}
}

// closeSession tears a session down exactly once: close the socket, stop the
// writer, and enqueue the synthetic SessionClosed frame that is the only way
// upper layers learn of any disconnect. Safe to call from any goroutine and
// with a stale seq (in which case it is a no-op).
func (n *Server) closeSession(s *Session, seq uint64, reason string) {
	s.mu.Lock()
	if s.closed || s.seq != seq || s.conn == nil {
		s.mu.Unlock()
		return
	}
	s.closed = true
	conn := s.conn
	close(s.flushC)
	s.mu.Unlock()

	_ = conn.Close()

	n.logger.Infof("[NET] session closed. index(%d) seq(%d): %s", s.index, seq, reason)
	n.enqueue(Frame{
		SessionIndex: s.index,
		SessionSeq:   seq,
		ID:           packets.SessionClosed,
	})
}

func (n *Server) enqueue(f Frame) {
	select {
	case n.frames <- f:
	case <-n.done:
	}
}
