package client

import (
	"errors"
	"fmt"
	"time"

	"github.com/cesto-dev/cesto/lib/cache"
	"github.com/cesto-dev/cesto/rpc/common"
	"github.com/cesto-dev/cesto/rpc/serializer"
	"github.com/cesto-dev/cesto/rpc/transport"
)

var logger = common.GetLogger("rpc/client")

// --------------------------------------------------------------------------
// Client
// --------------------------------------------------------------------------

// Client is the offline-first shopping-list client. Every write lands in
// the local cache before the cluster is consulted; a cluster timeout
// degrades a write to "saved locally" instead of failing it. The cache and
// the cluster are reconciled explicitly via Commit (push) and Sync (pull).
type Client struct {
	config     common.ClientConfig
	serializer serializer.IRPCSerializer
	cache      cache.ICache
	conn       *transport.Conn
}

// New opens the local cache and connects to the first responsive broker
// endpoint. Startup connectivity failure is fatal: an error is returned
// when no endpoint answers a ping within the configured retries.
func New(config common.ClientConfig, s serializer.IRPCSerializer) (*Client, error) {
	localCache, err := cache.NewSQLiteCache(config.DBFile)
	if err != nil {
		return nil, err
	}

	c := &Client{
		config:     config,
		serializer: s,
		cache:      localCache,
	}

	conn, err := c.findBroker()
	if err != nil {
		_ = localCache.Close()
		return nil, err
	}
	c.conn = conn
	return c, nil
}

// Close releases the broker connection and the local cache.
func (c *Client) Close() error {
	if c.conn != nil {
		_ = c.conn.Close()
	}
	return c.cache.Close()
}

// findBroker probes the configured endpoints in order and returns a live
// connection to the first one answering a ping.
func (c *Client) findBroker() (*transport.Conn, error) {
	timeout := time.Duration(c.config.TimeoutSecond) * time.Second
	ping, err := c.serializer.Serialize(*common.NewPingRequest())
	if err != nil {
		return nil, fmt.Errorf("failed to serialize ping: %w", err)
	}

	for _, endpoint := range c.config.Endpoints {
		for attempt := 0; attempt < c.config.RetryCount; attempt++ {
			if attempt > 0 {
				time.Sleep(500 * time.Millisecond)
			}

			conn, err := transport.Dial(endpoint, timeout)
			if err != nil {
				logger.Debugf("Failed to connect to %s: %v", endpoint, err)
				continue
			}

			resp, err := conn.Send(ping)
			if err == nil {
				var msg common.Message
				if err := c.serializer.Deserialize(resp, &msg); err == nil && msg.Status == common.StatusPong {
					logger.Infof("Connected to broker %s", endpoint)
					return conn, nil
				}
			}
			_ = conn.Close()
		}
		logger.Warningf("Broker %s did not respond", endpoint)
	}

	return nil, fmt.Errorf("no broker responded (probed %d endpoints, %d retries each)",
		len(c.config.Endpoints), c.config.RetryCount)
}

// --------------------------------------------------------------------------
// Round Trip
// --------------------------------------------------------------------------

// roundTrip sends one request and returns the reply. A transport timeout
// (or a lost connection) is not an error at this level: it degrades to a
// synthesized timeout reply so callers can fall back to offline semantics.
func (c *Client) roundTrip(req *common.Message) *common.Message {
	data, err := c.serializer.Serialize(*req)
	if err != nil {
		logger.Errorf("Failed to serialize request: %v", err)
		return common.NewErrorResponse(req.Op, "Malformed message")
	}

	resp, err := c.conn.Send(data)
	if err != nil {
		if !errors.Is(err, transport.ErrTimeout) {
			logger.Warningf("Broker connection lost: %v", err)
		}
		return common.NewTimeoutResponse(req.Op)
	}

	var msg common.Message
	if err := c.serializer.Deserialize(resp, &msg); err != nil {
		logger.Errorf("Malformed reply: %v", err)
		return common.NewErrorResponse(req.Op, "Malformed message")
	}
	return &msg
}

// --------------------------------------------------------------------------
// Offline-First Operations
// --------------------------------------------------------------------------

// CreateList creates a list locally, then tries to push it to the cluster.
// The returned reply reports the cluster outcome (ok, error or timeout);
// the local write survives either way. A local id conflict is an error.
func (c *Client) CreateList(id string) (*common.Message, error) {
	if err := c.cache.CreateList(id); err != nil {
		return nil, err
	}

	reply := c.roundTrip(common.NewCreateListRequest(id))
	if reply.Status == common.StatusOK {
		if err := c.cache.MarkListSynced(id); err != nil {
			return nil, err
		}
	}
	return reply, nil
}

// CreateItem adds an item locally, then tries to push it.
func (c *Client) CreateItem(listID, name string, current, target int) (*common.Message, error) {
	if err := c.cache.SaveItem(listID, name, current, target); err != nil {
		return nil, err
	}

	reply := c.roundTrip(common.NewCreateItemRequest(listID, name, current, target))
	if reply.Status == common.StatusOK {
		if err := c.cache.MarkItemSynced(listID, name); err != nil {
			return nil, err
		}
	}
	return reply, nil
}

// UpdateItem updates an item's quantities locally, then tries to push.
func (c *Client) UpdateItem(listID, name string, current, target int) (*common.Message, error) {
	if err := c.cache.UpdateItem(listID, name, current, target); err != nil {
		return nil, err
	}

	reply := c.roundTrip(common.NewUpdateItemRequest(listID, name, current, target))
	if reply.Status == common.StatusOK {
		if err := c.cache.MarkItemSynced(listID, name); err != nil {
			return nil, err
		}
	}
	return reply, nil
}

// DeleteItem removes an item locally no matter what the cluster says.
// Deletes are never tracked for later replay: a delete that times out here
// is undone by the next Sync if the server still has the item.
func (c *Client) DeleteItem(listID, name string) (*common.Message, error) {
	if err := c.cache.DeleteItem(listID, name); err != nil {
		return nil, err
	}
	return c.roundTrip(common.NewDeleteItemRequest(listID, name)), nil
}

// GetInfo returns the local and the server view of a list side by side,
// without reconciling them. The boolean reports whether the list is cached
// locally.
func (c *Client) GetInfo(id string) (cache.List, bool, *common.Message, error) {
	local, ok, err := c.cache.GetList(id)
	if err != nil {
		return cache.List{}, false, nil, err
	}
	reply := c.roundTrip(common.NewGetInfoRequest(id))
	return local, ok, reply, nil
}

// ListAll asks the cluster for all list ids it knows. Unscoped, so it only
// reaches the shard owning the placeholder key.
func (c *Client) ListAll() *common.Message {
	return c.roundTrip(common.NewListAllRequest())
}

// Ping probes the broker.
func (c *Client) Ping() *common.Message {
	return c.roundTrip(common.NewPingRequest())
}

// --------------------------------------------------------------------------
// Reconciliation: Commit (push) and Sync (pull)
// --------------------------------------------------------------------------

// Commit pushes all unsynced local state to the cluster: lists first, then
// items. Items of a list whose create timed out are skipped for this run,
// since they would land on a server that does not know the list yet. Returns a
// human-readable summary.
func (c *Client) Commit() (string, error) {
	hasWork, err := c.cache.HasUnsynced()
	if err != nil {
		return "", err
	}
	if !hasWork {
		return "nothing to commit", nil
	}

	skipped := map[string]bool{}
	lists, items := 0, 0

	unsyncedLists, err := c.cache.UnsyncedListIDs()
	if err != nil {
		return "", err
	}
	for _, id := range unsyncedLists {
		reply := c.roundTrip(common.NewCreateListRequest(id))
		switch reply.Status {
		case common.StatusOK:
			if err := c.cache.MarkListSynced(id); err != nil {
				return "", err
			}
			lists++
		case common.StatusTimeout:
			skipped[id] = true
			logger.Warningf("Commit of list %s timed out, skipping its items", id)
		default:
			logger.Warningf("Commit of list %s rejected: %s", id, reply.Err)
		}
	}

	allLists, err := c.cache.ListIDs()
	if err != nil {
		return "", err
	}
	for _, id := range allLists {
		if skipped[id] {
			continue
		}
		unsynced, err := c.cache.UnsyncedItems(id)
		if err != nil {
			return "", err
		}
		for _, it := range unsynced {
			reply := c.roundTrip(common.NewCreateItemRequest(id, it.Name, it.Current, it.Target))
			switch reply.Status {
			case common.StatusOK:
				if err := c.cache.MarkItemSynced(id, it.Name); err != nil {
					return "", err
				}
				items++
			case common.StatusTimeout:
				logger.Warningf("Commit of item %s/%s timed out", id, it.Name)
			default:
				logger.Warningf("Commit of item %s/%s rejected: %s", id, it.Name, reply.Err)
			}
		}
	}

	return fmt.Sprintf("committed %d lists, %d items", lists, items), nil
}

// Sync pulls the cluster state and mirrors it locally: lists the server no
// longer knows are dropped (items included), and for every server list the
// local item set is replaced wholesale. The server wins every conflict.
func (c *Client) Sync() error {
	reply := c.roundTrip(common.NewListAllRequest())
	switch reply.Status {
	case common.StatusOK:
	case common.StatusTimeout:
		return fmt.Errorf("sync failed: cluster unreachable")
	default:
		return fmt.Errorf("sync failed: %s", reply.Err)
	}

	serverLists := make(map[string]bool, len(reply.Lists))
	for _, id := range reply.Lists {
		serverLists[id] = true
	}

	localLists, err := c.cache.ListIDs()
	if err != nil {
		return err
	}
	for _, id := range localLists {
		if !serverLists[id] {
			logger.Infof("Sync: dropping local list %s, unknown to the cluster", id)
			if err := c.cache.DeleteList(id); err != nil {
				return err
			}
		}
	}

	for _, id := range reply.Lists {
		info := c.roundTrip(common.NewGetInfoRequest(id))
		if info.Status != common.StatusOK || info.List == nil {
			logger.Warningf("Sync: failed to fetch list %s: %s", id, info.Err)
			continue
		}
		items := make([]cache.Item, 0, len(info.List.Items))
		for _, it := range info.List.Items {
			items = append(items, cache.Item{
				Name:     it.Name,
				Current:  it.Current,
				Target:   it.Target,
				Acquired: it.Acquired,
				Synced:   true,
			})
		}
		if err := c.cache.ReplaceItems(id, items); err != nil {
			return err
		}
	}

	return nil
}
