package fleet

import (
	"sort"
	"time"

	"github.com/cesto-dev/cesto/lib/ring"
)

const (
	// DefaultCap is the maximum number of servers a broker will register.
	DefaultCap = 5
	// DefaultLivenessTimeout is how long a server may stay silent before it
	// is evicted. It should be at least three times the heartbeat interval.
	DefaultLivenessTimeout = 10 * time.Second
)

// Registry tracks live servers and keeps the hash ring in step with them.
type Registry struct {
	ring    *ring.Ring
	cap     int
	timeout time.Duration
	members map[string]time.Time // server identity -> last heartbeat
}

// New creates a registry backed by r. Non-positive cap or timeout values
// fall back to the defaults.
func New(r *ring.Ring, cap int, timeout time.Duration) *Registry {
	if cap <= 0 {
		cap = DefaultCap
	}
	if timeout <= 0 {
		timeout = DefaultLivenessTimeout
	}
	return &Registry{
		ring:    r,
		cap:     cap,
		timeout: timeout,
		members: make(map[string]time.Time),
	}
}

// Heartbeat records a heartbeat from id at time now. An unknown identity is
// registered (fleet entry plus ring points) unless the fleet is at capacity;
// a known identity only has its timestamp refreshed. The return value
// reports whether the server is a registered fleet member after the call:
// heartbeats from over-cap servers are still acknowledged by the caller but
// never make the sender routable.
func (r *Registry) Heartbeat(id string, now time.Time) bool {
	if _, known := r.members[id]; known {
		r.members[id] = now
		return true
	}
	if len(r.members) >= r.cap {
		return false
	}
	r.members[id] = now
	r.ring.AddNode(id)
	return true
}

// Sweep evicts every member whose last heartbeat is older than the liveness
// timeout, removing it from both the fleet and the ring, and returns the
// evicted identities.
func (r *Registry) Sweep(now time.Time) []string {
	var evicted []string
	for id, last := range r.members {
		if now.Sub(last) > r.timeout {
			delete(r.members, id)
			r.ring.RemoveNode(id)
			evicted = append(evicted, id)
		}
	}
	return evicted
}

// Remove evicts id immediately, regardless of its heartbeat age. Used when
// the broker loses the server's connection and the identity can never be
// written to again. Returns false if id was not a member.
func (r *Registry) Remove(id string) bool {
	if _, known := r.members[id]; !known {
		return false
	}
	delete(r.members, id)
	r.ring.RemoveNode(id)
	return true
}

// Lookup returns the identity of the registered server owning key, or false
// if the fleet is empty.
func (r *Registry) Lookup(key string) (string, bool) {
	return r.ring.GetNode(key)
}

// Has reports whether id is a registered fleet member.
func (r *Registry) Has(id string) bool {
	_, ok := r.members[id]
	return ok
}

// Size returns the number of registered servers.
func (r *Registry) Size() int {
	return len(r.members)
}

// Members returns the registered server identities in sorted order.
func (r *Registry) Members() []string {
	ids := make([]string, 0, len(r.members))
	for id := range r.members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
