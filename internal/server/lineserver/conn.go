package lineserver

import (
	"bufio"
	"bytes"
	"net"
	"sync/atomic"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"
)

// readChunkSize is the watcher's kernel read size. Commands are short
// lines, so 1 KiB covers several per read.
const readChunkSize = 1024

// Conn is one client connection. Between readiness handoffs a Conn is
// owned by exactly one goroutine — its watcher while armed, the
// processing worker after a notification — so the partial-read state
// needs no lock; the readiness channel provides the happens-before
// edge.
type Conn struct {
	id      string
	netConn net.Conn
	bw      *bufio.Writer

	// buf accumulates partial lines across readiness epochs.
	buf bytes.Buffer

	// readBuf/readN/readErr carry the watcher's last kernel read to
	// the worker that picks up the notification.
	readBuf []byte
	readN   int
	readErr error

	limiter *rate.Limiter
	closed  atomic.Bool
}

func newConn(nc net.Conn, limiter *rate.Limiter) *Conn {
	return &Conn{
		id:      ulid.Make().String(),
		netConn: nc,
		bw:      bufio.NewWriter(nc),
		readBuf: make([]byte, readChunkSize),
		limiter: limiter,
	}
}

// ID returns the connection's ULID, used for log correlation.
func (c *Conn) ID() string {
	return c.id
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.netConn.RemoteAddr()
}

// Close closes the socket once; later calls are no-ops.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.netConn.Close()
}

// hasLine reports whether a complete line is buffered.
func (c *Conn) hasLine() bool {
	return bytes.IndexByte(c.buf.Bytes(), '\n') >= 0
}

// nextLine extracts one complete newline-terminated line from the
// partial buffer, trimming the trailing LF/CRLF. ok is false when no
// complete line is buffered yet.
func (c *Conn) nextLine() (line string, ok bool) {
	data := c.buf.Bytes()
	idx := bytes.IndexByte(data, '\n')
	if idx < 0 {
		return "", false
	}

	raw := make([]byte, idx+1)
	_, _ = c.buf.Read(raw)

	raw = raw[:idx]
	if n := len(raw); n > 0 && raw[n-1] == '\r' {
		raw = raw[:n-1]
	}
	return string(raw), true
}
