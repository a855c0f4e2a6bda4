package ring

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"sort"
)

// DefaultReplicas is the number of virtual points placed on the ring per
// server. 100 points keep the key space evenly spread for small fleets.
const DefaultReplicas = 100

// token is a position on the ring. The full SHA-256 digest is kept so that
// placements stay uniform and collisions between virtual points remain
// negligible.
type token [sha256.Size]byte

// Ring maps keys to server identities via consistent hashing.
type Ring struct {
	replicas int
	tokens   []token          // sorted ring positions
	owners   map[token]string // ring position -> server identity
}

// New creates an empty ring with the given number of virtual points per
// server. A non-positive value falls back to DefaultReplicas.
func New(replicas int) *Ring {
	if replicas <= 0 {
		replicas = DefaultReplicas
	}
	return &Ring{
		replicas: replicas,
		owners:   make(map[token]string),
	}
}

// Replicas returns the configured number of virtual points per server.
func (r *Ring) Replicas() int {
	return r.replicas
}

// Size returns the number of virtual points currently on the ring.
func (r *Ring) Size() int {
	return len(r.tokens)
}

// AddNode inserts the virtual points for serverID into the ring. If a point
// collides with one of another server, the new owner wins.
func (r *Ring) AddNode(serverID string) {
	for i := 0; i < r.replicas; i++ {
		t := hashToken(fmt.Sprintf("%s:%d", serverID, i))
		if _, exists := r.owners[t]; !exists {
			r.insertToken(t)
		}
		r.owners[t] = serverID
	}
}

// RemoveNode deletes all virtual points previously inserted for serverID.
// It is a no-op for identities that were never added. Points that have been
// overwritten by a colliding server are left untouched.
func (r *Ring) RemoveNode(serverID string) {
	for i := 0; i < r.replicas; i++ {
		t := hashToken(fmt.Sprintf("%s:%d", serverID, i))
		if owner, ok := r.owners[t]; ok && owner == serverID {
			delete(r.owners, t)
			r.deleteToken(t)
		}
	}
}

// GetNode returns the identity of the server owning key. The owner is the
// server at the smallest ring position >= hash(key), wrapping around to the
// smallest position on the ring. The boolean is false if the ring is empty.
//
// For fixed ring membership GetNode is a pure function of key.
func (r *Ring) GetNode(key string) (string, bool) {
	if len(r.tokens) == 0 {
		return "", false
	}
	t := hashToken(key)
	idx := sort.Search(len(r.tokens), func(i int) bool {
		return bytes.Compare(r.tokens[i][:], t[:]) >= 0
	})
	if idx == len(r.tokens) {
		idx = 0
	}
	return r.owners[r.tokens[idx]], true
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func hashToken(key string) token {
	return sha256.Sum256([]byte(key))
}

// insertToken adds t to the sorted token slice.
func (r *Ring) insertToken(t token) {
	idx := sort.Search(len(r.tokens), func(i int) bool {
		return bytes.Compare(r.tokens[i][:], t[:]) >= 0
	})
	r.tokens = append(r.tokens, token{})
	copy(r.tokens[idx+1:], r.tokens[idx:])
	r.tokens[idx] = t
}

// deleteToken removes t from the sorted token slice.
func (r *Ring) deleteToken(t token) {
	idx := sort.Search(len(r.tokens), func(i int) bool {
		return bytes.Compare(r.tokens[i][:], t[:]) >= 0
	})
	if idx < len(r.tokens) && r.tokens[idx] == t {
		r.tokens = append(r.tokens[:idx], r.tokens[idx+1:]...)
	}
}
