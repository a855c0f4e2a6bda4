// Package server implements the backend record server of the shopping-list
// system. A record server owns the canonical copy of every list the broker's
// hash ring assigns to it, announces itself via heartbeats and answers the
// requests the broker forwards.
//
// The package focuses on:
//   - Broker discovery: the configured brokers are probed in order on their
//     client-facing endpoints; the first one answering a ping wins, and no
//     responsive broker at startup is fatal for the process.
//   - Registration by heartbeat: the server pings the broker on a fixed
//     interval over its server-facing channel; the first heartbeat registers
//     it, later ones keep it alive.
//   - Request handling: forwarded frames are dispatched onto the store via
//     the adapter; the reply echoes the request's envelope so the broker can
//     route it back without the server knowing the client.
//
// Key Components:
//
//   - IRPCServerAdapter: Interface for the request adapter, with the Handle
//     method that processes one request against a storage.IStore.
//
//   - NewStoreAdapter: Factory function creating the adapter translating
//     wire operations to storage.IStore method calls.
//
//   - New: Factory function creating a configured server with its SQLite
//     store opened.
//
// Usage Example:
//
//	config := common.ServerConfig{
//	  Brokers: []common.BrokerEndpoint{
//	    {Client: "localhost:5555", Server: "localhost:5556"},
//	  },
//	  DBFile:               "server1.db",
//	  HeartbeatIntervalSec: 3,
//	  TimeoutSecond:        2,
//	  RetryCount:           3,
//	  LogLevel:             "info",
//	}
//
//	s, err := server.New(config, serializer.NewJSONSerializer())
//	if err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//	if err := s.Run(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Thread Safety:
//
//	Forwarded requests are handled concurrently, each in its own goroutine;
//	the underlying store serializes access. Run should be called only once.
package server
