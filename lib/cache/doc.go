// Package cache provides the client-side offline cache. Every write lands
// here first, before any network round trip is attempted, so a user can keep
// editing lists while the cluster is unreachable.
//
// The package focuses on:
//   - A single interface (ICache) for local reads, writes and sync bookkeeping
//   - Tracking which rows the cluster has acknowledged via a synced flag
//   - Durable persistence via SQLite, sharing the storage package's schema
//
// Key Components:
//
//   - ICache Interface: The local mirror of the record operations plus the
//     bookkeeping the reconciliation passes need. UnsyncedListIDs and
//     UnsyncedItems enumerate what a commit has to push; MarkListSynced and
//     MarkItemSynced record cluster acknowledgements; ReplaceItems installs
//     the server's version of a list wholesale during sync.
//
//   - SQLite Implementation: Backed by modernc.org/sqlite like the server
//     store, with an extra synced column on both tables. ReplaceItems runs
//     in one transaction so a crashed sync never leaves a list half
//     mirrored.
//
// Deletions are applied locally and never tracked: a delete is pushed to the
// cluster immediately when possible and simply forgotten otherwise, so
// commit has no tombstones to replay.
package cache
