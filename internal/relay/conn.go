package relay

import (
	"bufio"
	"net"
	"sync"
)

// tcpConn wraps an accepted socket with a locked, buffered writer so
// concurrent fan-outs never interleave partial lines. Its identity is the
// remote address and port, stable for the connection's lifetime.
type tcpConn struct {
	id string
	c  net.Conn

	mu sync.Mutex
	w  *bufio.Writer
}

func newTCPConn(c net.Conn) *tcpConn {
	return &tcpConn{
		id: c.RemoteAddr().String(),
		c:  c,
		w:  bufio.NewWriter(c),
	}
}

func (t *tcpConn) ID() string { return t.id }

func (t *tcpConn) WriteLine(p []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.w.Write(p); err != nil {
		return err
	}
	if err := t.w.WriteByte('\n'); err != nil {
		return err
	}
	return t.w.Flush()
}

func (t *tcpConn) Close() error { return t.c.Close() }
