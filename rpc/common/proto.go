package common

import (
	"encoding/json"
	"fmt"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// GlobalKey is the placeholder routing key for requests that are not scoped
// to a single list (e.g. list_all_lists). All unscoped requests land on the
// shard owning this key.
const GlobalKey = "global"

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the operation. The struct is the closed
// union of all wire operations: it is decoded once at the channel boundary
// and handlers work with typed fields.
type Message struct {
	// Operation of the message
	Op MessageType `json:"op"`

	// Request fields
	ListID   string `json:"list_id,omitempty"`   // Used for: all list-scoped operations
	ItemName string `json:"item_name,omitempty"` // Used for: CreateItem, UpdateItem, DeleteItem
	Current  int    `json:"current,omitempty"`   // Used for: CreateItem, UpdateItem
	Target   int    `json:"total,omitempty"`     // Used for: CreateItem, UpdateItem

	// Response fields
	Status Status    `json:"status,omitempty"`  // Outcome of the request
	Err    string    `json:"message,omitempty"` // Empty if no error, otherwise the error message
	Lists  []string  `json:"lists,omitempty"`   // Used for: ListAll responses
	List   *ListInfo `json:"list,omitempty"`    // Used for: GetInfo responses
}

// ListInfo is the full state of one shopping list as reported by the server
// that owns it.
type ListInfo struct {
	ID    string `json:"id"`
	Items []Item `json:"items"`
}

// Item is a single shopping-list entry. The name is the lookup key within
// its list; there is no surrogate id on the wire.
type Item struct {
	Name     string `json:"name"`
	Current  int    `json:"current_qtd"`
	Target   int    `json:"target_qtd"`
	Acquired bool   `json:"acquired_flag"`
}

// RoutingKey returns the ring key for the message: the list id for scoped
// operations, GlobalKey otherwise.
func (m *Message) RoutingKey() string {
	if m.ListID == "" {
		return GlobalKey
	}
	return m.ListID
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewPingRequest creates a new liveness probe
func NewPingRequest() *Message {
	return &Message{Op: MsgTPing}
}

// NewPongResponse creates the reply to a liveness probe
func NewPongResponse() *Message {
	return &Message{Op: MsgTPing, Status: StatusPong}
}

// NewCreateListRequest creates a new CreateList request
func NewCreateListRequest(listID string) *Message {
	return &Message{Op: MsgTCreateList, ListID: listID}
}

// NewCreateItemRequest creates a new CreateItem request
func NewCreateItemRequest(listID, itemName string, current, target int) *Message {
	return &Message{
		Op:       MsgTCreateItem,
		ListID:   listID,
		ItemName: itemName,
		Current:  current,
		Target:   target,
	}
}

// NewUpdateItemRequest creates a new UpdateItem request
func NewUpdateItemRequest(listID, itemName string, current, target int) *Message {
	return &Message{
		Op:       MsgTUpdateItem,
		ListID:   listID,
		ItemName: itemName,
		Current:  current,
		Target:   target,
	}
}

// NewDeleteItemRequest creates a new DeleteItem request
func NewDeleteItemRequest(listID, itemName string) *Message {
	return &Message{Op: MsgTDeleteItem, ListID: listID, ItemName: itemName}
}

// NewGetInfoRequest creates a new GetInfo request
func NewGetInfoRequest(listID string) *Message {
	return &Message{Op: MsgTGetInfo, ListID: listID}
}

// NewListAllRequest creates a new ListAll request. It carries no list id and
// is therefore routed with GlobalKey.
func NewListAllRequest() *Message {
	return &Message{Op: MsgTListAll}
}

// NewOKResponse creates a success response for the given operation
func NewOKResponse(op MessageType) *Message {
	return &Message{Op: op, Status: StatusOK}
}

// NewErrorResponse creates an error response for the given operation
func NewErrorResponse(op MessageType, err string) *Message {
	return &Message{Op: op, Status: StatusError, Err: err}
}

// NewTimeoutResponse creates the local stand-in reply for a request whose
// bounded wait elapsed without an answer. It is synthesized by the client,
// never sent over the wire.
func NewTimeoutResponse(op MessageType) *Message {
	return &Message{Op: op, Status: StatusTimeout}
}

// NewGetInfoResponse creates a GetInfo response carrying the list state
func NewGetInfoResponse(list *ListInfo) *Message {
	return &Message{Op: MsgTGetInfo, Status: StatusOK, List: list}
}

// NewListAllResponse creates a ListAll response carrying the known list ids
func NewListAllResponse(lists []string) *Message {
	return &Message{Op: MsgTListAll, Status: StatusOK, Lists: lists}
}

// --------------------------------------------------------------------------
// Status Definition
// --------------------------------------------------------------------------

// Status is the outcome of a request as reported in the reply.
type Status string

const (
	StatusOK      Status = "ok"
	StatusError   Status = "error"
	StatusPong    Status = "pong"
	StatusTimeout Status = "timeout"
)

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the operation of a message.
type MessageType uint8

// String returns the wire name of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTPing:
		return "ping"
	case MsgTCreateList:
		return "create_list"
	case MsgTCreateItem:
		return "create_item"
	case MsgTUpdateItem:
		return "update_item"
	case MsgTDeleteItem:
		return "delete_item"
	case MsgTGetInfo:
		return "get_info"
	case MsgTListAll:
		return "list_all_lists"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	switch s {
	case "ping":
		*t = MsgTPing
	case "create_list":
		*t = MsgTCreateList
	case "create_item":
		*t = MsgTCreateItem
	case "update_item":
		*t = MsgTUpdateItem
	case "delete_item":
		*t = MsgTDeleteItem
	case "get_info":
		*t = MsgTGetInfo
	case "list_all_lists":
		*t = MsgTListAll
	default:
		return fmt.Errorf("unknown operation: %s", s)
	}

	return nil
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	MsgTUnknown MessageType = iota

	MsgTPing // Liveness probe, doubles as the server heartbeat

	// Record operations

	MsgTCreateList // Create a shopping list
	MsgTCreateItem // Add an item to a list
	MsgTUpdateItem // Update the quantities of an item
	MsgTDeleteItem // Remove an item from a list
	MsgTGetInfo    // Fetch a list with all its items
	MsgTListAll    // Fetch the ids of all lists on the owning shard
)
