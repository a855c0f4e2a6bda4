// Package transport implements the framed stream protocol spoken on both of
// the broker's channels.
//
// Every frame carries a fixed header followed by an opaque payload:
//
//   - 8 bytes: origin (uint64, big endian): the connection token of the
//     client a forwarded request came from; echoed back on replies so the
//     broker can route them without inspecting the payload. Zero on frames
//     where no origin applies.
//   - 8 bytes: requestID (uint64, big endian): chosen by the requester and
//     preserved end-to-end, used to correlate replies with pending requests.
//   - 4 bytes: payload length (uint32, big endian)
//   - N bytes: payload (a serialized common.Message)
//
// The header is the envelope of the routing protocol: broker→server frames
// are the three-part envelope (destination connection, origin, payload) and
// server→broker replies the two-part one (origin, payload). Payloads are
// never rewritten in flight.
//
// The package also provides Conn, a request/response client connection that
// correlates replies by requestID and turns an elapsed bounded wait into
// ErrTimeout, and ProbeEndpoint, the bounded-retry liveness probe used by
// clients and servers hunting for a responsive broker.
package transport
