// Package ring implements the consistent hash ring used to assign a
// shopping-list key to exactly one record server.
//
// Each physical server owns a configurable number of virtual points
// ("replicas") placed on the ring at SHA-256 positions derived from
// "{serverID}:{replicaIndex}". Lookups hash the key the same way and walk
// clockwise to the first virtual point at or after the key position,
// wrapping around at the end of the token space.
//
// The ring is a pure data structure: it performs no I/O and carries no
// internal synchronization. The broker confines it to its single reactor
// goroutine; callers that share a Ring across goroutines must provide
// their own locking.
package ring
