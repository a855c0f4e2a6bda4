package cache

import "errors"

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// ICache is the interface for the local shopping-list cache. All methods are
// safe for concurrent use.
type ICache interface {
	// CreateList creates a list with synced=false. Returns ErrListExists if
	// the id is already present locally.
	CreateList(id string) error
	// MarkListSynced flags a list as acknowledged by the cluster.
	MarkListSynced(id string) error
	// SaveItem inserts or overwrites an item with synced=false. Returns
	// ErrListNotFound if the list is not cached.
	SaveItem(listID, name string, current, target int) error
	// MarkItemSynced flags an item as acknowledged by the cluster.
	MarkItemSynced(listID, name string) error
	// UpdateItem sets the quantities of an existing item and resets its
	// synced flag. Returns ErrItemNotFound if the item is not cached.
	UpdateItem(listID, name string, current, target int) error
	// DeleteItem removes an item unconditionally. Local deletes are never
	// tracked for later replay; deleting an absent item is not an error.
	DeleteItem(listID, name string) error
	// DeleteList removes a list and all its items.
	DeleteList(id string) error
	// GetList returns the cached list with its items. The boolean return
	// value indicates whether the list is cached.
	GetList(id string) (List, bool, error)
	// ListIDs returns the ids of all cached lists, sorted.
	ListIDs() ([]string, error)
	// UnsyncedListIDs returns the ids of lists not yet acknowledged, sorted.
	UnsyncedListIDs() ([]string, error)
	// UnsyncedItems returns the unacknowledged items of one list, in
	// insertion order.
	UnsyncedItems(listID string) ([]Item, error)
	// HasUnsynced reports whether any list or item awaits acknowledgement.
	HasUnsynced() (bool, error)
	// ReplaceItems overwrites a list's items wholesale with server state.
	// The list row is created if missing and forced synced, as are all
	// replacement items.
	ReplaceItems(listID string, items []Item) error
	// Close releases the underlying database.
	Close() error
}

// --------------------------------------------------------------------------
// Domain Types
// --------------------------------------------------------------------------

// List is one cached shopping list with its items.
type List struct {
	ID     string
	Synced bool
	Items  []Item
}

// Item is a single cached shopping-list entry.
type Item struct {
	Name     string
	Current  int
	Target   int
	Acquired bool
	Synced   bool
}

// --------------------------------------------------------------------------
// Sentinel Errors
// --------------------------------------------------------------------------

var (
	ErrListExists   = errors.New("List already exists")
	ErrListNotFound = errors.New("List not found")
	ErrItemNotFound = errors.New("Item not found")
)
