// Package rpc provides the communication layer of the sharded shopping-list
// store. It connects the three process roles (clients, the broker/router
// tier, and the record servers) over two independent framed channels.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures used across the RPC system, including
//     the Message protocol, configuration structures, and logging.
//
//   - transport: The framed stream protocol shared by all processes, plus
//     the probing request/response client connection.
//
//   - serializer: Message serialization with multiple format options
//     (JSON, GOB, CBOR, Binary) for converting between Message objects and
//     byte arrays. JSON is the wire default.
//
//   - broker: The router reactor that tracks fleet membership via
//     heartbeats and forwards each client request to the server owning the
//     requested list.
//
//   - server: The record-server stub that registers with a broker,
//     heartbeats, and serves forwarded requests from its local store.
//
//   - client: The offline-first client that caches every write locally and
//     reconciles with the cluster through commit (push) and sync (pull).
package rpc
