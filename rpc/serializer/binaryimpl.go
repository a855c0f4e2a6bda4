package serializer

import (
	"encoding/binary"
	"fmt"

	"github.com/cesto-dev/cesto/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasListID   byte = 1 << 0
	hasItemName byte = 1 << 1
	hasQty      byte = 1 << 2 // current and target quantities travel together
	hasStatus   byte = 1 << 3
	hasErr      byte = 1 << 4
	hasLists    byte = 1 << 5
	hasList     byte = 1 << 6
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	// Calculate total size needed
	totalSize := b.sizeBytes(msg)
	result := make([]byte, totalSize)

	// Write operation
	result[0] = byte(msg.Op)

	// Initialize flags byte
	var flags byte = 0

	// Set position for writing
	pos := 2 // Start after Op and flags

	// Handle ListID
	if msg.ListID != "" {
		flags |= hasListID
		pos = putString(result, pos, msg.ListID)
	}

	// Handle ItemName
	if msg.ItemName != "" {
		flags |= hasItemName
		pos = putString(result, pos, msg.ItemName)
	}

	// Handle quantities
	if msg.Current != 0 || msg.Target != 0 {
		flags |= hasQty
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(msg.Current))
		binary.BigEndian.PutUint32(result[pos+4:pos+8], uint32(msg.Target))
		pos += 8
	}

	// Handle Status
	if msg.Status != "" {
		flags |= hasStatus
		pos = putString(result, pos, string(msg.Status))
	}

	// Handle Err
	if msg.Err != "" {
		flags |= hasErr
		pos = putString(result, pos, msg.Err)
	}

	// Handle Lists
	if msg.Lists != nil {
		flags |= hasLists
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(len(msg.Lists)))
		pos += 4
		for _, id := range msg.Lists {
			pos = putString(result, pos, id)
		}
	}

	// Handle List
	if msg.List != nil {
		flags |= hasList
		pos = putString(result, pos, msg.List.ID)
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(len(msg.List.Items)))
		pos += 4
		for _, item := range msg.List.Items {
			pos = putString(result, pos, item.Name)
			binary.BigEndian.PutUint32(result[pos:pos+4], uint32(item.Current))
			binary.BigEndian.PutUint32(result[pos+4:pos+8], uint32(item.Target))
			pos += 8
			if item.Acquired {
				result[pos] = 1
			}
			pos++
		}
	}

	// Set flags byte after knowing which fields are present
	result[1] = flags

	return result, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	// Check minimum size (Op + flags)
	if len(data) < 2 {
		return fmt.Errorf("data too short for message header")
	}

	// Read operation
	msg.Op = common.MessageType(data[0])

	// Read flags
	flags := data[1]

	// Initialize read position
	pos := 2
	var err error

	// Read ListID if present
	msg.ListID = ""
	if flags&hasListID != 0 {
		if msg.ListID, pos, err = getString(data, pos); err != nil {
			return fmt.Errorf("list id: %w", err)
		}
	}

	// Read ItemName if present
	msg.ItemName = ""
	if flags&hasItemName != 0 {
		if msg.ItemName, pos, err = getString(data, pos); err != nil {
			return fmt.Errorf("item name: %w", err)
		}
	}

	// Read quantities if present
	msg.Current, msg.Target = 0, 0
	if flags&hasQty != 0 {
		if pos+8 > len(data) {
			return fmt.Errorf("data too short for quantities")
		}
		msg.Current = int(binary.BigEndian.Uint32(data[pos : pos+4]))
		msg.Target = int(binary.BigEndian.Uint32(data[pos+4 : pos+8]))
		pos += 8
	}

	// Read Status if present
	msg.Status = ""
	if flags&hasStatus != 0 {
		var s string
		if s, pos, err = getString(data, pos); err != nil {
			return fmt.Errorf("status: %w", err)
		}
		msg.Status = common.Status(s)
	}

	// Read Err if present
	msg.Err = ""
	if flags&hasErr != 0 {
		if msg.Err, pos, err = getString(data, pos); err != nil {
			return fmt.Errorf("error message: %w", err)
		}
	}

	// Read Lists if present
	msg.Lists = nil
	if flags&hasLists != 0 {
		if pos+4 > len(data) {
			return fmt.Errorf("data too short for list count")
		}
		count := binary.BigEndian.Uint32(data[pos : pos+4])
		pos += 4
		msg.Lists = make([]string, 0, count)
		for i := uint32(0); i < count; i++ {
			var id string
			if id, pos, err = getString(data, pos); err != nil {
				return fmt.Errorf("list id %d: %w", i, err)
			}
			msg.Lists = append(msg.Lists, id)
		}
	}

	// Read List if present
	msg.List = nil
	if flags&hasList != 0 {
		list := &common.ListInfo{}
		if list.ID, pos, err = getString(data, pos); err != nil {
			return fmt.Errorf("list info id: %w", err)
		}
		if pos+4 > len(data) {
			return fmt.Errorf("data too short for item count")
		}
		count := binary.BigEndian.Uint32(data[pos : pos+4])
		pos += 4
		list.Items = make([]common.Item, 0, count)
		for i := uint32(0); i < count; i++ {
			var item common.Item
			if item.Name, pos, err = getString(data, pos); err != nil {
				return fmt.Errorf("item %d name: %w", i, err)
			}
			if pos+9 > len(data) {
				return fmt.Errorf("data too short for item %d", i)
			}
			item.Current = int(binary.BigEndian.Uint32(data[pos : pos+4]))
			item.Target = int(binary.BigEndian.Uint32(data[pos+4 : pos+8]))
			item.Acquired = data[pos+8] != 0
			pos += 9
			list.Items = append(list.Items, item)
		}
		msg.List = list
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// putString writes a length-prefixed string at pos and returns the new position
func putString(buf []byte, pos int, s string) int {
	binary.BigEndian.PutUint32(buf[pos:pos+4], uint32(len(s)))
	pos += 4
	copy(buf[pos:pos+len(s)], s)
	return pos + len(s)
}

// getString reads a length-prefixed string at pos and returns it with the new position
func getString(data []byte, pos int) (string, int, error) {
	if pos+4 > len(data) {
		return "", pos, fmt.Errorf("data too short for string length")
	}
	n := binary.BigEndian.Uint32(data[pos : pos+4])
	pos += 4
	if pos+int(n) > len(data) {
		return "", pos, fmt.Errorf("data too short for string data")
	}
	return string(data[pos : pos+int(n)]), pos + int(n), nil
}

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	// 1 byte for Op + 1 byte for flags
	size := 2

	if msg.ListID != "" {
		size += 4 + len(msg.ListID)
	}
	if msg.ItemName != "" {
		size += 4 + len(msg.ItemName)
	}
	if msg.Current != 0 || msg.Target != 0 {
		size += 8
	}
	if msg.Status != "" {
		size += 4 + len(msg.Status)
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err)
	}
	if msg.Lists != nil {
		size += 4
		for _, id := range msg.Lists {
			size += 4 + len(id)
		}
	}
	if msg.List != nil {
		size += 4 + len(msg.List.ID) + 4
		for _, item := range msg.List.Items {
			size += 4 + len(item.Name) + 9
		}
	}

	return size
}
