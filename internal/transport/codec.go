package transport

import (
	"errors"
	"fmt"

	"github.com/jkwon/parlor/internal/packets"
)

// ErrProtocolViolation indicates a malformed or oversized frame header. The
// session that produced it cannot be trusted and must be closed.
var ErrProtocolViolation = errors.New("protocol violation")

// frameReader accumulates stream bytes for one session and carves whole
// frames out of them. Reads land in free(); decode() consumes every complete
// frame and compacts the leftovers back to the front of the buffer, so a
// frame split across any number of reads is reassembled exactly once.
//
// The header of an incomplete frame is left unconsumed along with its body
// bytes and is reparsed once more data arrives; no header state is retained
// between calls.
type frameReader struct {
	buf  []byte
	size int
}

func newFrameReader(capacity int) frameReader {
	return frameReader{buf: make([]byte, capacity)}
}

// free returns the writable tail of the buffer.
func (r *frameReader) free() []byte {
	return r.buf[r.size:]
}

// advance records that n bytes were read into free().
func (r *frameReader) advance(n int) {
	r.size += n
}

func (r *frameReader) reset() {
	r.size = 0
}

// decode emits every whole frame currently buffered, in arrival order. The
// body passed to emit is a copy and safe to retain.
func (r *frameReader) decode(emit func(id uint16, body []byte)) error {
	readPos := 0

	for r.size-readPos >= packets.HeaderSize {
		header := packets.ParseHeader(r.buf[readPos:])

		bodySize := int(header.TotalSize) - packets.HeaderSize
		if bodySize < 0 {
			return fmt.Errorf("%w: declared size %d below header size", ErrProtocolViolation, header.TotalSize)
		}
		if bodySize > packets.MaxPacketBodySize {
			return fmt.Errorf("%w: declared body size %d exceeds maximum %d",
				ErrProtocolViolation, bodySize, packets.MaxPacketBodySize)
		}

		if bodySize > r.size-readPos-packets.HeaderSize {
			// Body not fully buffered yet.
			break
		}

		body := make([]byte, bodySize)
		copy(body, r.buf[readPos+packets.HeaderSize:readPos+packets.HeaderSize+bodySize])
		emit(header.ID, body)

		readPos += packets.HeaderSize + bodySize
	}

	if readPos > 0 {
		copy(r.buf, r.buf[readPos:r.size])
		r.size -= readPos
	}

	return nil
}
