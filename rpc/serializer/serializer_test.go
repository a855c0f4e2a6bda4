package serializer

import (
	"reflect"
	"testing"

	"github.com/cesto-dev/cesto/rpc/common"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"JSON":   NewJSONSerializer,
	"GOB":    NewGOBSerializer,
	"CBOR":   NewCBORSerializer,
	"Binary": NewBinarySerializer,
}

// testMessages creates a set of test messages with different fields filled
func testMessages() []common.Message {
	return []common.Message{
		// Liveness probe
		{Op: common.MsgTPing},

		// Pong reply
		{Op: common.MsgTPing, Status: common.StatusPong},

		// CreateList request
		{Op: common.MsgTCreateList, ListID: "groceries"},

		// CreateItem request
		{
			Op:       common.MsgTCreateItem,
			ListID:   "groceries",
			ItemName: "milk",
			Current:  1,
			Target:   4,
		},

		// Error response
		{
			Op:     common.MsgTCreateList,
			Status: common.StatusError,
			Err:    "List already exists",
		},

		// ListAll response
		{
			Op:     common.MsgTListAll,
			Status: common.StatusOK,
			Lists:  []string{"groceries", "hardware"},
		},

		// GetInfo response with all item fields filled
		{
			Op:     common.MsgTGetInfo,
			Status: common.StatusOK,
			List: &common.ListInfo{
				ID: "groceries",
				Items: []common.Item{
					{Name: "milk", Current: 1, Target: 4, Acquired: false},
					{Name: "eggs", Current: 12, Target: 12, Acquired: true},
				},
			},
		},
	}
}

// TestSerializerRoundTrip tests that messages can be serialized and deserialized correctly
func TestSerializerRoundTrip(t *testing.T) {
	messages := testMessages()

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, msg := range messages {
				// Serialize
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message %d: %v", i, err)
					continue
				}

				// Deserialize
				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message %d: %v", i, err)
					continue
				}

				// Compare
				if !reflect.DeepEqual(msg, result) {
					t.Errorf("Message %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v",
						i, msg, result)
				}
			}
		})
	}
}

// TestMessageTypes tests each operation with each serializer
func TestMessageTypes(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			// Test each operation (MsgTUnknown is rejected by the JSON codec, skip it)
			for op := common.MsgTPing; op <= common.MsgTListAll; op++ {
				msg := common.Message{Op: op}

				// Serialize
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize operation %s: %v", op.String(), err)
					continue
				}

				// Deserialize
				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize operation %s: %v", op.String(), err)
					continue
				}

				// Check operation
				if result.Op != op {
					t.Errorf("Operation doesn't match after round trip: Expected %s, got %s",
						op.String(), result.Op.String())
				}
			}
		})
	}
}

// TestJSONWireFormat pins the documented wire field names
func TestJSONWireFormat(t *testing.T) {
	serializer := NewJSONSerializer()

	data, err := serializer.Serialize(common.Message{
		Op:       common.MsgTCreateItem,
		ListID:   "groceries",
		ItemName: "milk",
		Current:  1,
		Target:   4,
	})
	if err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}

	want := `{"op":"create_item","list_id":"groceries","item_name":"milk","current":1,"total":4}`
	if string(data) != want {
		t.Errorf("Wire format mismatch:\nwant %s\ngot  %s", want, data)
	}
}

// TestBinarySerializerSpecific tests specific edge cases for the binary serializer
func TestBinarySerializerSpecific(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name string
		msg  common.Message
	}{
		{
			name: "Empty message",
			msg:  common.Message{},
		},
		{
			name: "Message with empty strings and zero values",
			msg: common.Message{
				Op:       common.MsgTCreateList,
				ListID:   "",
				ItemName: "",
				Current:  0,
				Target:   0,
				Err:      "",
			},
		},
		{
			name: "Message with zero current but non-zero target",
			msg: common.Message{
				Op:       common.MsgTUpdateItem,
				ListID:   "groceries",
				ItemName: "milk",
				Current:  0,
				Target:   6,
			},
		},
		{
			name: "List info without items",
			msg: common.Message{
				Op:     common.MsgTGetInfo,
				Status: common.StatusOK,
				List:   &common.ListInfo{ID: "empty-list"},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Serialize
			data, err := serializer.Serialize(tc.msg)
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}

			// Deserialize
			var result common.Message
			err = serializer.Deserialize(data, &result)
			if err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}

			if tc.msg.Op != result.Op {
				t.Errorf("Op mismatch: expected %v, got %v", tc.msg.Op, result.Op)
			}
			if tc.msg.ListID != result.ListID {
				t.Errorf("ListID mismatch: expected '%s', got '%s'", tc.msg.ListID, result.ListID)
			}
			if tc.msg.ItemName != result.ItemName {
				t.Errorf("ItemName mismatch: expected '%s', got '%s'", tc.msg.ItemName, result.ItemName)
			}
			if tc.msg.Current != result.Current {
				t.Errorf("Current mismatch: expected %d, got %d", tc.msg.Current, result.Current)
			}
			if tc.msg.Target != result.Target {
				t.Errorf("Target mismatch: expected %d, got %d", tc.msg.Target, result.Target)
			}
			if tc.msg.Status != result.Status {
				t.Errorf("Status mismatch: expected '%s', got '%s'", tc.msg.Status, result.Status)
			}
			if tc.msg.Err != result.Err {
				t.Errorf("Err mismatch: expected '%s', got '%s'", tc.msg.Err, result.Err)
			}

			// List presence must survive even when the item set is empty
			if (tc.msg.List == nil) != (result.List == nil) {
				t.Errorf("List nil/non-nil mismatch: expected %v, got %v", tc.msg.List, result.List)
			} else if tc.msg.List != nil {
				if tc.msg.List.ID != result.List.ID {
					t.Errorf("List ID mismatch: expected '%s', got '%s'", tc.msg.List.ID, result.List.ID)
				}
				if len(tc.msg.List.Items) != len(result.List.Items) {
					t.Errorf("Item count mismatch: expected %d, got %d",
						len(tc.msg.List.Items), len(result.List.Items))
				}
			}
		})
	}
}

// TestInvalidBinaryData tests how the binary serializer handles corrupt or invalid data
func TestInvalidBinaryData(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name        string
		data        []byte
		expectError bool
	}{
		{
			name:        "Empty data",
			data:        []byte{},
			expectError: true,
		},
		{
			name:        "Too short header",
			data:        []byte{1}, // Only operation, no flags
			expectError: true,
		},
		{
			name:        "Valid header only",
			data:        []byte{1, 0}, // Operation 1, no flags
			expectError: false,
		},
		{
			name:        "Invalid length for list id",
			data:        []byte{2, 1, 0, 0, 0, 5, 'a', 'b', 'c'}, // Claims length 5 but only 3 bytes provided
			expectError: true,
		},
		{
			name:        "Truncated quantities",
			data:        []byte{3, 4, 0, 0, 0, 1}, // hasQty set but only 4 bytes follow
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var msg common.Message
			err := serializer.Deserialize(tc.data, &msg)

			if tc.expectError && err == nil {
				t.Errorf("Expected error but got none")
			} else if !tc.expectError && err != nil {
				t.Errorf("Did not expect error but got: %v", err)
			}
		})
	}
}
