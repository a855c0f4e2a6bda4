package transport

import (
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// ErrTimeout is returned by Conn.Send when no response arrives within the
// bounded wait. Callers map this to a local-only outcome rather than an
// outright failure.
var ErrTimeout = errors.New("request timed out")

// ErrClosed is returned by Conn.Send after the connection has been closed,
// either explicitly or because the remote side went away.
var ErrClosed = errors.New("connection closed")

// Conn is a request/response client connection. Each Send writes one frame
// and blocks until the matching response frame arrives or the timeout
// elapses. Responses are correlated to callers by request id, so any number
// of goroutines may Send concurrently.
type Conn struct {
	conn      net.Conn
	timeout   time.Duration
	requestID atomic.Uint64
	pending   *xsync.MapOf[uint64, chan []byte]
	closed    atomic.Bool
}

// Dial connects to the endpoint and starts the response reader. The timeout
// bounds every Send on the returned connection.
func Dial(endpoint string, timeout time.Duration) (*Conn, error) {
	nc, err := net.Dial("tcp", endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", endpoint, err)
	}

	c := &Conn{
		conn:    nc,
		timeout: timeout,
		pending: xsync.NewMapOf[uint64, chan []byte](),
	}
	go c.readResponses()
	return c, nil
}

// readResponses dispatches incoming frames to the goroutines waiting in
// Send. Frames with no waiter (a response after its caller timed out) are
// dropped. On read error all waiters are released.
func (c *Conn) readResponses() {
	for {
		f, err := ReadFrame(c.conn)
		if err != nil {
			c.closed.Store(true)
			c.pending.Range(func(id uint64, ch chan []byte) bool {
				c.pending.Delete(id)
				close(ch)
				return true
			})
			return
		}
		if ch, ok := c.pending.LoadAndDelete(f.RequestID); ok {
			ch <- f.Payload
		}
	}
}

// Send writes the payload as a request frame and waits for the matching
// response payload. Returns ErrTimeout if the response does not arrive in
// time and ErrClosed if the connection is gone.
func (c *Conn) Send(payload []byte) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	id := c.requestID.Add(1)
	ch := make(chan []byte, 1)
	c.pending.Store(id, ch)

	if err := WriteFrame(c.conn, 0, id, payload); err != nil {
		c.pending.Delete(id)
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, ErrClosed
		}
		return resp, nil
	case <-time.After(c.timeout):
		c.pending.Delete(id)
		return nil, ErrTimeout
	}
}

// Close shuts the connection down. Pending Sends fail with ErrClosed.
func (c *Conn) Close() error {
	c.closed.Store(true)
	return c.conn.Close()
}

// RemoteAddr returns the address of the remote endpoint.
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
