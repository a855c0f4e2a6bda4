// Package fleet tracks the set of record servers currently known live to a
// broker. Membership is driven entirely by heartbeats: a first heartbeat
// registers a server (subject to a fleet-size cap) and places its virtual
// points on the hash ring, later heartbeats refresh its liveness timestamp,
// and a periodic sweep evicts servers whose last heartbeat has aged past
// the liveness timeout.
//
// The registry and its ring are updated together, so no routing decision can
// ever observe a server in one structure but not the other. Like lib/ring,
// the registry carries no internal synchronization and is meant to be owned
// by a single goroutine.
package fleet
