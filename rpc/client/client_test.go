package client

import (
	"net"
	"path/filepath"
	"sync"
	"testing"

	"github.com/cesto-dev/cesto/rpc/common"
	"github.com/cesto-dev/cesto/rpc/serializer"
	"github.com/cesto-dev/cesto/rpc/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSerializer = serializer.NewJSONSerializer()

// fakeBroker is a scripted cluster stand-in: pings are always answered with
// pong (so client startup succeeds), everything else goes through the
// handler. A nil handler result swallows the request, forcing the client
// into its timeout path.
type fakeBroker struct {
	t       *testing.T
	ln      net.Listener
	mu      sync.Mutex
	handler func(msg *common.Message) *common.Message
}

func startFakeBroker(t *testing.T) *fakeBroker {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	fb := &fakeBroker{t: t, ln: ln}
	go fb.acceptLoop()
	t.Cleanup(func() { _ = ln.Close() })
	return fb
}

func (fb *fakeBroker) setHandler(h func(msg *common.Message) *common.Message) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.handler = h
}

func (fb *fakeBroker) handle(msg *common.Message) *common.Message {
	fb.mu.Lock()
	h := fb.handler
	fb.mu.Unlock()
	if h == nil {
		return nil
	}
	return h(msg)
}

func (fb *fakeBroker) acceptLoop() {
	for {
		conn, err := fb.ln.Accept()
		if err != nil {
			return
		}
		go func(conn net.Conn) {
			defer conn.Close()
			for f := range transport.ReadFrames(conn) {
				var msg common.Message
				if err := testSerializer.Deserialize(f.Payload, &msg); err != nil {
					continue
				}
				var reply *common.Message
				if msg.Op == common.MsgTPing {
					reply = common.NewPongResponse()
				} else {
					reply = fb.handle(&msg)
				}
				if reply == nil {
					continue // swallow, client times out
				}
				data, err := testSerializer.Serialize(*reply)
				if err != nil {
					continue
				}
				if err := transport.WriteFrame(conn, 0, f.RequestID, data); err != nil {
					return
				}
			}
		}(conn)
	}
}

func (fb *fakeBroker) addr() string { return fb.ln.Addr().String() }

func newTestClient(t *testing.T, fb *fakeBroker) *Client {
	t.Helper()
	c, err := New(common.ClientConfig{
		Endpoints:     []string{fb.addr()},
		DBFile:        filepath.Join(t.TempDir(), "client.db"),
		TimeoutSecond: 1,
		RetryCount:    1,
	}, testSerializer)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// ackAll answers every request with ok.
func ackAll(msg *common.Message) *common.Message {
	return common.NewOKResponse(msg.Op)
}

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

func TestStartupFailsWithoutBroker(t *testing.T) {
	_, err := New(common.ClientConfig{
		Endpoints:     []string{"127.0.0.1:1"},
		DBFile:        filepath.Join(t.TempDir(), "client.db"),
		TimeoutSecond: 1,
		RetryCount:    1,
	}, testSerializer)
	assert.Error(t, err)
}

func TestPing(t *testing.T) {
	fb := startFakeBroker(t)
	c := newTestClient(t, fb)

	reply := c.Ping()
	assert.Equal(t, common.StatusPong, reply.Status)
}

func TestWriteAcknowledgedMarksSynced(t *testing.T) {
	fb := startFakeBroker(t)
	fb.setHandler(ackAll)
	c := newTestClient(t, fb)

	reply, err := c.CreateList("groceries")
	require.NoError(t, err)
	assert.Equal(t, common.StatusOK, reply.Status)

	reply, err = c.CreateItem("groceries", "milk", 1, 4)
	require.NoError(t, err)
	assert.Equal(t, common.StatusOK, reply.Status)

	has, err := c.cache.HasUnsynced()
	require.NoError(t, err)
	assert.False(t, has)
}

func TestOfflineWriteDurability(t *testing.T) {
	fb := startFakeBroker(t)
	// broker answers pings but swallows everything else
	c := newTestClient(t, fb)

	reply, err := c.CreateList("groceries")
	require.NoError(t, err)
	assert.Equal(t, common.StatusTimeout, reply.Status)

	reply, err = c.CreateItem("groceries", "milk", 1, 4)
	require.NoError(t, err)
	assert.Equal(t, common.StatusTimeout, reply.Status)

	// the writes survived locally, unsynced
	local, ok, err := c.cache.GetList("groceries")
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, local.Synced)
	require.Len(t, local.Items, 1)
	assert.Equal(t, "milk", local.Items[0].Name)
	assert.False(t, local.Items[0].Synced)
}

func TestServerErrorSurfacedVerbatim(t *testing.T) {
	fb := startFakeBroker(t)
	fb.setHandler(func(msg *common.Message) *common.Message {
		return common.NewErrorResponse(msg.Op, "List already exists")
	})
	c := newTestClient(t, fb)

	reply, err := c.CreateList("groceries")
	require.NoError(t, err)
	assert.Equal(t, common.StatusError, reply.Status)
	assert.Equal(t, "List already exists", reply.Err)

	// the rejected write stays cached and unsynced
	local, ok, err := c.cache.GetList("groceries")
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, local.Synced)
}

func TestLocalConflictIsAnError(t *testing.T) {
	fb := startFakeBroker(t)
	fb.setHandler(ackAll)
	c := newTestClient(t, fb)

	_, err := c.CreateList("groceries")
	require.NoError(t, err)
	_, err = c.CreateList("groceries")
	assert.Error(t, err)
}

func TestDeleteAppliesLocallyOnTimeout(t *testing.T) {
	fb := startFakeBroker(t)
	fb.setHandler(ackAll)
	c := newTestClient(t, fb)

	_, err := c.CreateList("groceries")
	require.NoError(t, err)
	_, err = c.CreateItem("groceries", "milk", 1, 4)
	require.NoError(t, err)

	// cluster goes dark for the delete
	fb.setHandler(nil)
	reply, err := c.DeleteItem("groceries", "milk")
	require.NoError(t, err)
	assert.Equal(t, common.StatusTimeout, reply.Status)

	local, _, err := c.cache.GetList("groceries")
	require.NoError(t, err)
	assert.Empty(t, local.Items, "delete applies locally even when the cluster is unreachable")

	// and it left nothing behind to replay
	has, err := c.cache.HasUnsynced()
	require.NoError(t, err)
	assert.False(t, has)
}

func TestCommitPushesUnsyncedState(t *testing.T) {
	fb := startFakeBroker(t)
	c := newTestClient(t, fb)

	// offline writes
	_, err := c.CreateList("groceries")
	require.NoError(t, err)
	_, err = c.CreateItem("groceries", "milk", 1, 4)
	require.NoError(t, err)

	// cluster comes back; commit replays everything
	var mu sync.Mutex
	var pushed []common.MessageType
	fb.setHandler(func(msg *common.Message) *common.Message {
		mu.Lock()
		pushed = append(pushed, msg.Op)
		mu.Unlock()
		return common.NewOKResponse(msg.Op)
	})

	summary, err := c.Commit()
	require.NoError(t, err)
	assert.Equal(t, "committed 1 lists, 1 items", summary)

	mu.Lock()
	assert.Equal(t, []common.MessageType{common.MsgTCreateList, common.MsgTCreateItem}, pushed,
		"lists must be pushed before their items")
	mu.Unlock()

	has, err := c.cache.HasUnsynced()
	require.NoError(t, err)
	assert.False(t, has)
}

func TestCommitIdempotence(t *testing.T) {
	fb := startFakeBroker(t)
	fb.setHandler(ackAll)
	c := newTestClient(t, fb)

	_, err := c.CreateList("groceries")
	require.NoError(t, err)

	// everything already acknowledged online; both commits are no-ops
	summary, err := c.Commit()
	require.NoError(t, err)
	assert.Equal(t, "nothing to commit", summary)

	summary, err = c.Commit()
	require.NoError(t, err)
	assert.Equal(t, "nothing to commit", summary)
}

func TestCommitSkipsItemsOfTimedOutList(t *testing.T) {
	fb := startFakeBroker(t)
	c := newTestClient(t, fb)

	// both writes time out and stay unsynced
	_, err := c.CreateList("groceries")
	require.NoError(t, err)
	_, err = c.CreateItem("groceries", "milk", 1, 4)
	require.NoError(t, err)

	// during commit the list create still times out; the item must not be
	// pushed to a server that does not know the list
	var mu sync.Mutex
	var pushed []common.MessageType
	fb.setHandler(func(msg *common.Message) *common.Message {
		mu.Lock()
		pushed = append(pushed, msg.Op)
		mu.Unlock()
		if msg.Op == common.MsgTCreateList {
			return nil
		}
		return common.NewOKResponse(msg.Op)
	})

	summary, err := c.Commit()
	require.NoError(t, err)
	assert.Equal(t, "committed 0 lists, 0 items", summary)

	mu.Lock()
	assert.Equal(t, []common.MessageType{common.MsgTCreateList}, pushed)
	mu.Unlock()

	// nothing was marked synced, the next commit retries
	has, err := c.cache.HasUnsynced()
	require.NoError(t, err)
	assert.True(t, has)
}

func TestSyncMirrorsServerState(t *testing.T) {
	fb := startFakeBroker(t)
	fb.setHandler(ackAll)
	c := newTestClient(t, fb)

	// local state: one list the server will not know
	_, err := c.CreateList("stale")
	require.NoError(t, err)

	// server state: one list with one item
	fb.setHandler(func(msg *common.Message) *common.Message {
		switch msg.Op {
		case common.MsgTListAll:
			return common.NewListAllResponse([]string{"groceries"})
		case common.MsgTGetInfo:
			return common.NewGetInfoResponse(&common.ListInfo{
				ID:    "groceries",
				Items: []common.Item{{Name: "milk", Current: 2, Target: 4}},
			})
		default:
			return common.NewOKResponse(msg.Op)
		}
	})

	require.NoError(t, c.Sync())

	// the stale local list is gone
	_, ok, err := c.cache.GetList("stale")
	require.NoError(t, err)
	assert.False(t, ok)

	// the server list is mirrored, fully synced
	local, ok, err := c.cache.GetList("groceries")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, local.Synced)
	require.Len(t, local.Items, 1)
	assert.Equal(t, "milk", local.Items[0].Name)
	assert.Equal(t, 2, local.Items[0].Current)
	assert.True(t, local.Items[0].Synced)

	has, err := c.cache.HasUnsynced()
	require.NoError(t, err)
	assert.False(t, has)
}

func TestSyncFailsWhenClusterUnreachable(t *testing.T) {
	fb := startFakeBroker(t)
	c := newTestClient(t, fb) // handler swallows list_all

	err := c.Sync()
	assert.ErrorContains(t, err, "cluster unreachable")
}
