package transport

import (
	"encoding/binary"
	"io"
	"net"
)

// headerSize is the fixed frame header: origin + requestID + payload length.
const headerSize = 20

// Frame is one unit of the stream protocol: the routing envelope plus the
// serialized message payload.
type Frame struct {
	Origin    uint64 // connection token of the originating client, 0 if not applicable
	RequestID uint64 // requester-chosen id, preserved end-to-end
	Payload   []byte // serialized common.Message, opaque to the router
}

// WriteFrame writes a single frame to the connection.
func WriteFrame(conn net.Conn, origin, requestID uint64, payload []byte) error {
	header := make([]byte, headerSize)
	binary.BigEndian.PutUint64(header[:8], origin)
	binary.BigEndian.PutUint64(header[8:16], requestID)
	binary.BigEndian.PutUint32(header[16:20], uint32(len(payload)))

	b := net.Buffers{header, payload}
	_, err := b.WriteTo(conn)
	return err
}

// ReadFrame reads a single frame from the connection. The payload is always
// freshly allocated, so frames may outlive each other.
func ReadFrame(conn net.Conn) (Frame, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(conn, header[:]); err != nil {
		return Frame{}, err
	}

	f := Frame{
		Origin:    binary.BigEndian.Uint64(header[:8]),
		RequestID: binary.BigEndian.Uint64(header[8:16]),
	}

	contentLength := binary.BigEndian.Uint32(header[16:20])
	if contentLength == 0 {
		f.Payload = []byte{}
		return f, nil
	}

	f.Payload = make([]byte, contentLength)
	if _, err := io.ReadFull(conn, f.Payload); err != nil {
		return Frame{}, err
	}

	return f, nil
}

// ReadFrames reads frames in a loop and delivers them on the returned
// channel. The channel is closed when the connection fails or is closed,
// making connection loss observable as channel closure in a select.
func ReadFrames(conn net.Conn) <-chan Frame {
	ch := make(chan Frame)
	go func() {
		defer close(ch)
		for {
			f, err := ReadFrame(conn)
			if err != nil {
				return
			}
			ch <- f
		}
	}()
	return ch
}
