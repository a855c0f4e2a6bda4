// Package cmd implements the command-line interface for the cesto
// shopping-list store. It provides a hierarchical command structure with
// operations for running the broker and the record servers and for
// interacting with the cluster as a client.
//
// The package is organized into several subpackages:
//
//   - broker: Command for starting and configuring a broker
//   - serve: Command for starting and configuring a record server
//   - list: Commands for shopping-list operations (create, add-item, info,
//     commit, sync, etc.)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See cesto -help for a list of all commands.
package cmd
