// Package client implements the offline-first shopping-list client.
//
// Every write is applied to the local SQLite cache first and marked
// unsynced; only then is the cluster consulted, with a short bounded wait.
// An acknowledgement marks the row synced, a timeout leaves it unsynced and
// the write is reported as "saved locally", and an application-level error
// from the cluster is surfaced verbatim without touching the sync state.
// Deletes are the exception: they apply locally no matter what and are
// never tracked for later replay.
//
// Reconciliation is explicit and has two directions:
//
//   - Commit pushes unsynced state to the cluster: lists first (skipping
//     the items of a list whose create timed out), then items. A second
//     Commit with nothing new reports "nothing to commit".
//
//   - Sync pulls the cluster state and mirrors it destructively: local
//     lists the cluster does not know are dropped, and every server list
//     replaces the local item set wholesale. The server wins all conflicts.
package client
