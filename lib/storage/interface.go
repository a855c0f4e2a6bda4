package storage

import "errors"

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IStore is the interface for the server-side shopping-list store. All
// methods are safe for concurrent use. Application-level failures are
// reported via the sentinel errors below so callers can turn them into
// wire replies verbatim.
type IStore interface {
	// CreateList creates an empty shopping list. Returns ErrListExists if
	// the id is already taken.
	CreateList(id string) error
	// CreateItem adds an item to a list, or overwrites the item if the name
	// is already present. Returns ErrListNotFound for an unknown list.
	CreateItem(listID, name string, current, target int) error
	// UpdateItem sets the quantities of an existing item. Returns
	// ErrItemNotFound if the list has no item with that name.
	UpdateItem(listID, name string, current, target int) error
	// DeleteItem removes an item. Deleting an absent item is not an error.
	DeleteItem(listID, name string) error
	// GetList returns a list with all its items. The boolean return value
	// indicates whether the list exists.
	GetList(id string) (List, bool, error)
	// ListIDs returns the ids of all lists in the store, sorted.
	ListIDs() ([]string, error)
	// Close releases the underlying database.
	Close() error
}

// --------------------------------------------------------------------------
// Domain Types
// --------------------------------------------------------------------------

// List is one shopping list with its items.
type List struct {
	ID    string
	Items []Item
}

// Item is a single shopping-list entry. Acquired is derived on every write:
// an item is acquired once the current quantity reaches the target.
type Item struct {
	Name     string
	Current  int
	Target   int
	Acquired bool
}

// --------------------------------------------------------------------------
// Sentinel Errors
// --------------------------------------------------------------------------

// The error texts travel to clients unchanged inside error replies.
var (
	ErrListExists   = errors.New("List already exists")
	ErrListNotFound = errors.New("List not found")
	ErrItemNotFound = errors.New("Item not found")
)
