package transport

import (
	"errors"
	"net"
	"sync"

	"github.com/jkwon/parlor/internal/packets"
)

var (
	// ErrSessionPoolExhausted is returned by allocate when every slot is taken.
	ErrSessionPoolExhausted = errors.New("session pool exhausted")

	// ErrSendBufferFull is returned when queueing a frame would overflow the
	// session's send buffer. Nothing is written in that case.
	ErrSendBufferFull = errors.New("session send buffer full")

	// ErrStaleSession is returned when a caller holds an {index, seq} pair
	// for a session that has since been closed or reused.
	ErrStaleSession = errors.New("stale session reference")
)

// Session is one connection's slot in the pool. The slot (and its buffers)
// outlives any individual connection; the sequence number distinguishes
// successive occupants of the same index.
//
// The reader field is owned exclusively by the session's read goroutine.
// Everything else guarded by mu.
type Session struct {
	index int

	reader frameReader

	mu         sync.Mutex
	seq        uint64
	conn       net.Conn
	remoteAddr string
	closed     bool

	sendBuf []byte
	pending int
	flushC  chan struct{}
}

func (s *Session) Index() int { return s.index }

func (s *Session) Seq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

func (s *Session) RemoteAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remoteAddr
}

// queueFrame appends a framed packet to the send buffer and signals the
// writer. seq must match the session's current occupancy; a stale reference
// writes nothing.
func (s *Session) queueFrame(seq uint64, id uint16, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.seq != seq {
		return ErrStaleSession
	}

	total := packets.HeaderSize + len(body)
	if s.pending+total > len(s.sendBuf) {
		return ErrSendBufferFull
	}

	packets.PutHeader(s.sendBuf[s.pending:], packets.Header{TotalSize: uint16(total), ID: id})
	copy(s.sendBuf[s.pending+packets.HeaderSize:], body)
	s.pending += total

	select {
	case s.flushC <- struct{}{}:
	default:
	}
	return nil
}

// sessionPool is the fixed set of reusable session slots. Slots are handed
// out FIFO from a free list; buffers are allocated once and retained across
// reuse.
type sessionPool struct {
	mu       sync.Mutex
	sessions []*Session
	free     []int
	nextSeq  uint64
	live     int
}

func newSessionPool(count, recvCapacity, sendCapacity int) *sessionPool {
	p := &sessionPool{
		sessions: make([]*Session, count),
		free:     make([]int, count),
	}
	for i := 0; i < count; i++ {
		p.sessions[i] = &Session{
			index:   i,
			reader:  newFrameReader(recvCapacity),
			sendBuf: make([]byte, sendCapacity),
		}
		p.free[i] = i
	}
	return p
}

func (p *sessionPool) allocate(conn net.Conn) (*Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.free) == 0 {
		return nil, ErrSessionPoolExhausted
	}
	index := p.free[0]
	p.free = p.free[1:]

	p.nextSeq++
	s := p.sessions[index]

	s.mu.Lock()
	s.seq = p.nextSeq
	s.conn = conn
	s.remoteAddr = conn.RemoteAddr().String()
	s.closed = false
	s.pending = 0
	s.reader.reset()
	s.flushC = make(chan struct{}, 1)
	s.mu.Unlock()

	p.live++
	return s, nil
}

// release returns a slot to the free list and clears its per-connection
// state. The buffers keep their allocations.
func (p *sessionPool) release(index int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.sessions[index]
	s.mu.Lock()
	s.remoteAddr = ""
	s.pending = 0
	s.mu.Unlock()
	s.reader.reset()

	p.free = append(p.free, index)
	p.live--
}

func (p *sessionPool) get(index int) *Session {
	if index < 0 || index >= len(p.sessions) {
		return nil
	}
	return p.sessions[index]
}

func (p *sessionPool) liveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.live
}
