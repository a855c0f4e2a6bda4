// Package storage provides the canonical record store used by a backend
// server. Each server owns its own database file; the partitioning of lists
// across servers happens one layer up, in the broker's hash ring, so this
// package never needs to know which lists it is supposed to hold.
//
// The package focuses on:
//   - A single interface (IStore) for all shopping-list record operations
//   - Sentinel errors whose text travels to clients unchanged
//   - Durable, transactional persistence via SQLite
//
// Key Components:
//
//   - IStore Interface: The core abstraction defining the record operations
//     a server can answer (create list, create item, update item, delete
//     item, fetch a list, enumerate list ids). Implementations return the
//     sentinel errors ErrListExists, ErrListNotFound and ErrItemNotFound
//     for the protocol-visible failure cases, so the RPC layer can map a
//     storage result onto a wire reply without inspecting error strings.
//
//   - SQLite Implementation: The default implementation backed by
//     modernc.org/sqlite, a pure-Go driver that needs no cgo. Lists and
//     items live in two tables joined by a foreign key with ON DELETE
//     CASCADE, and item upserts are expressed as INSERT ... ON CONFLICT so
//     that re-sent requests stay idempotent.
//
// The item's acquired flag is never stored. It is derived on read as
// current >= target (with target > 0), so the flag can never drift out of
// step with the quantities.
package storage
