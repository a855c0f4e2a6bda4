package server

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/cesto-dev/cesto/lib/storage"
	"github.com/cesto-dev/cesto/rpc/broker"
	"github.com/cesto-dev/cesto/rpc/common"
	"github.com/cesto-dev/cesto/rpc/serializer"
	"github.com/cesto-dev/cesto/rpc/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --------------------------------------------------------------------------
// Adapter Tests
// --------------------------------------------------------------------------

func newTestStore(t *testing.T) storage.IStore {
	t.Helper()
	s, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAdapterNilStore(t *testing.T) {
	adapter := NewStoreAdapter()
	resp := adapter.Handle(common.NewPingRequest(), nil)
	assert.Equal(t, common.StatusError, resp.Status)
}

func TestAdapterPing(t *testing.T) {
	adapter := NewStoreAdapter()
	resp := adapter.Handle(common.NewPingRequest(), newTestStore(t))
	assert.Equal(t, common.StatusPong, resp.Status)
}

func TestAdapterCreateList(t *testing.T) {
	adapter := NewStoreAdapter()
	store := newTestStore(t)

	resp := adapter.Handle(common.NewCreateListRequest("groceries"), store)
	assert.Equal(t, common.StatusOK, resp.Status)

	// conflict travels verbatim
	resp = adapter.Handle(common.NewCreateListRequest("groceries"), store)
	assert.Equal(t, common.StatusError, resp.Status)
	assert.Equal(t, "List already exists", resp.Err)
}

func TestAdapterItemLifecycle(t *testing.T) {
	adapter := NewStoreAdapter()
	store := newTestStore(t)

	require.Equal(t, common.StatusOK, adapter.Handle(common.NewCreateListRequest("groceries"), store).Status)
	require.Equal(t, common.StatusOK, adapter.Handle(common.NewCreateItemRequest("groceries", "milk", 1, 4), store).Status)
	require.Equal(t, common.StatusOK, adapter.Handle(common.NewUpdateItemRequest("groceries", "milk", 4, 4), store).Status)

	resp := adapter.Handle(common.NewGetInfoRequest("groceries"), store)
	require.Equal(t, common.StatusOK, resp.Status)
	require.NotNil(t, resp.List)
	require.Len(t, resp.List.Items, 1)
	assert.Equal(t, common.Item{Name: "milk", Current: 4, Target: 4, Acquired: true}, resp.List.Items[0])

	require.Equal(t, common.StatusOK, adapter.Handle(common.NewDeleteItemRequest("groceries", "milk"), store).Status)
	resp = adapter.Handle(common.NewGetInfoRequest("groceries"), store)
	require.Equal(t, common.StatusOK, resp.Status)
	assert.Empty(t, resp.List.Items)
}

func TestAdapterItemErrors(t *testing.T) {
	adapter := NewStoreAdapter()
	store := newTestStore(t)

	resp := adapter.Handle(common.NewCreateItemRequest("nope", "milk", 1, 4), store)
	assert.Equal(t, common.StatusError, resp.Status)
	assert.Equal(t, "List not found", resp.Err)

	require.Equal(t, common.StatusOK, adapter.Handle(common.NewCreateListRequest("groceries"), store).Status)
	resp = adapter.Handle(common.NewUpdateItemRequest("groceries", "milk", 1, 4), store)
	assert.Equal(t, common.StatusError, resp.Status)
	assert.Equal(t, "Item not found", resp.Err)
}

func TestAdapterGetInfoUnknownList(t *testing.T) {
	adapter := NewStoreAdapter()
	resp := adapter.Handle(common.NewGetInfoRequest("nope"), newTestStore(t))
	assert.Equal(t, common.StatusError, resp.Status)
	assert.Equal(t, "List not found", resp.Err)
}

func TestAdapterListAll(t *testing.T) {
	adapter := NewStoreAdapter()
	store := newTestStore(t)

	require.Equal(t, common.StatusOK, adapter.Handle(common.NewCreateListRequest("pharmacy"), store).Status)
	require.Equal(t, common.StatusOK, adapter.Handle(common.NewCreateListRequest("groceries"), store).Status)

	resp := adapter.Handle(common.NewListAllRequest(), store)
	require.Equal(t, common.StatusOK, resp.Status)
	assert.Equal(t, []string{"groceries", "pharmacy"}, resp.Lists)
}

func TestAdapterUnsupportedOperation(t *testing.T) {
	adapter := NewStoreAdapter()
	resp := adapter.Handle(&common.Message{Op: common.MsgTUnknown}, newTestStore(t))
	assert.Equal(t, common.StatusError, resp.Status)
}

// --------------------------------------------------------------------------
// End-to-End: server registers with a real broker and serves requests
// --------------------------------------------------------------------------

func TestServerRegistersAndServes(t *testing.T) {
	s := serializer.NewJSONSerializer()

	b := broker.New(common.BrokerConfig{
		ClientEndpoint: "127.0.0.1:0",
		ServerEndpoint: "127.0.0.1:0",
		Replicas:       common.DefaultReplicas,
		FleetCap:       common.DefaultFleetCap,
	}, s)
	require.NoError(t, b.Listen())
	go func() { _ = b.Serve() }()
	t.Cleanup(b.Shutdown)

	srv, err := New(common.ServerConfig{
		Brokers:              []common.BrokerEndpoint{{Client: b.ClientAddr(), Server: b.ServerAddr()}},
		DBFile:               filepath.Join(t.TempDir(), "server.db"),
		HeartbeatIntervalSec: 1,
		TimeoutSecond:        1,
		RetryCount:           1,
	}, s)
	require.NoError(t, err)
	go func() { _ = srv.Run() }()
	t.Cleanup(srv.Shutdown)

	conn, err := transport.Dial(b.ClientAddr(), time.Second)
	require.NoError(t, err)
	defer conn.Close()

	roundTrip := func(msg *common.Message) *common.Message {
		data, err := s.Serialize(*msg)
		require.NoError(t, err)
		resp, err := conn.Send(data)
		if err != nil {
			return nil
		}
		var reply common.Message
		require.NoError(t, s.Deserialize(resp, &reply))
		return &reply
	}

	// wait until the server's first heartbeat registered it; a lost reply
	// surfaces as a conflict on the retry, which proves the same thing
	require.Eventually(t, func() bool {
		reply := roundTrip(common.NewCreateListRequest("groceries"))
		if reply == nil {
			return false
		}
		return reply.Status == common.StatusOK || reply.Err == "List already exists"
	}, 3*time.Second, 100*time.Millisecond)

	reply := roundTrip(common.NewCreateItemRequest("groceries", "milk", 1, 4))
	require.NotNil(t, reply)
	assert.Equal(t, common.StatusOK, reply.Status)

	reply = roundTrip(common.NewGetInfoRequest("groceries"))
	require.NotNil(t, reply)
	require.Equal(t, common.StatusOK, reply.Status)
	require.NotNil(t, reply.List)
	require.Len(t, reply.List.Items, 1)
	assert.Equal(t, "milk", reply.List.Items[0].Name)
}
