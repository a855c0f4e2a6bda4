// Package serializer provides message serialization for the record store RPC
// system. It defines a common interface and multiple implementations for
// serializing and deserializing messages between clients, brokers and record
// servers.
//
// The package focuses on:
//   - Providing a consistent interface for different serialization formats
//   - Offering multiple implementations with different performance characteristics
//   - Supporting efficient encoding of the system's message structure
//
// Key Components:
//
//   - IRPCSerializer: Core interface that all serializer implementations must satisfy.
//
//   - jsonSerializerImpl: Implementation using JSON encoding. This is the
//     default for every process role. Humans can read it on the wire, which
//     helps when debugging a cluster. The broker deserializes payloads to
//     route them, so all processes of one deployment must agree on a format.
//
//   - cborSerializerImpl: Implementation using CBOR encoding via
//     github.com/fxamacker/cbor. Produces compact binary payloads while keeping
//     the same field naming as the JSON codec.
//
//   - gobSerializerImpl: Implementation using Go's built-in gob encoding,
//     offering good compatibility with Go's type system but with larger
//     serialized sizes. Only usable between Go peers.
//
//   - binarySerializerImpl: Custom binary format optimized for speed and space
//     efficiency. Uses a flag-based approach to encode only present fields,
//     resulting in compact serialized data with minimal overhead.
//
// Thread Safety:
//
//	All serializer implementations are stateless and safe for concurrent use
//	across multiple goroutines without additional synchronization.
//
// Usage:
//
//	Serializers are typically created once and reused throughout the application:
//
//	  serializer := serializer.NewJSONSerializer()
//	  data, err := serializer.Serialize(message)
//	  // ... send data ...
//	  var receivedMsg common.Message
//	  err = serializer.Deserialize(receivedData, &receivedMsg)
package serializer
