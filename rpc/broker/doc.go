// Package broker implements the router at the center of the shopping-list
// system. The broker is the only component clients and servers know about:
// servers register by heartbeating it, clients send every request to it,
// and the broker forwards each request to the server owning the request's
// list according to a consistent hash ring.
//
// The package focuses on:
//   - Fleet membership: heartbeats register servers (up to a fixed cap) and
//     refresh their liveness; a periodic sweep evicts servers that fall
//     silent, and a closed server connection evicts immediately.
//   - Routing: the list id of a request is hashed onto the ring to pick the
//     owning server; unscoped requests use a fixed placeholder key. Routing
//     failures ("No servers available", "Server not found") are answered
//     locally and are distinct from timeouts.
//   - Relaying: forwarded frames carry the client's connection token as
//     origin; server replies echo it, and the broker passes the payload back
//     untouched. The broker never rewrites payloads in flight.
//
// Concurrency model:
//
//	A single reactor goroutine owns all routing state (fleet registry, hash
//	ring, connection table). Accept loops and per-connection readers only
//	produce events on one channel; nothing else touches the state, so the
//	routing path takes no locks. One malformed message is answered with an
//	error reply and never terminates the loop.
package broker
