package broker

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	vmetrics "github.com/VictoriaMetrics/metrics"
	"github.com/cesto-dev/cesto/lib/fleet"
	"github.com/cesto-dev/cesto/lib/ring"
	"github.com/cesto-dev/cesto/rpc/common"
	"github.com/cesto-dev/cesto/rpc/serializer"
	"github.com/cesto-dev/cesto/rpc/transport"
)

var logger = common.GetLogger("rpc/broker")

// --------------------------------------------------------------------------
// Metrics
// --------------------------------------------------------------------------

var (
	metricRequestsRouted = vmetrics.GetOrCreateCounter("cesto_broker_requests_routed_total")
	metricRepliesRelayed = vmetrics.GetOrCreateCounter("cesto_broker_replies_relayed_total")
	metricHeartbeats     = vmetrics.GetOrCreateCounter("cesto_broker_heartbeats_total")
	metricRegistrations  = vmetrics.GetOrCreateCounter("cesto_broker_registrations_total")
	metricEvictions      = vmetrics.GetOrCreateCounter("cesto_broker_evictions_total")
	metricRoutingErrors  = vmetrics.GetOrCreateCounter("cesto_broker_routing_errors_total")
)

// --------------------------------------------------------------------------
// Reactor Events
// --------------------------------------------------------------------------

type peerClass uint8

const (
	classClient peerClass = iota
	classServer
)

func (c peerClass) String() string {
	if c == classServer {
		return "server"
	}
	return "client"
}

type eventKind uint8

const (
	evAccept eventKind = iota
	evFrame
	evClosed
)

// event is the single currency of the reactor. Accept loops and per-conn
// readers produce events; only the reactor goroutine consumes them and
// touches the routing state.
type event struct {
	kind  eventKind
	class peerClass
	token uint64
	conn  net.Conn        // evAccept only
	frame transport.Frame // evFrame only
}

// --------------------------------------------------------------------------
// Broker
// --------------------------------------------------------------------------

// Broker routes client requests to the backend server owning the request's
// list and relays the replies back. It owns the fleet registry and hash
// ring; both are mutated exclusively from the reactor goroutine, so no
// locking is involved anywhere in the routing path.
type Broker struct {
	config     common.BrokerConfig
	serializer serializer.IRPCSerializer
	registry   *fleet.Registry

	// reactor state, touched only by the reactor goroutine
	conns     map[uint64]net.Conn
	nextToken uint64

	events chan event
	quit   chan struct{}

	// sweep timings, from config; assignable for tests
	livenessTimeout time.Duration
	sweepInterval   time.Duration

	clientListener net.Listener
	serverListener net.Listener
}

// New creates a broker from the given config. Call Listen then Serve (or
// Run) to start it.
func New(config common.BrokerConfig, s serializer.IRPCSerializer) *Broker {
	r := ring.New(config.Replicas)
	timeout := time.Duration(config.LivenessTimeoutSec) * time.Second
	return &Broker{
		config:          config,
		serializer:      s,
		registry:        fleet.New(r, config.FleetCap, timeout),
		conns:           make(map[uint64]net.Conn),
		events:          make(chan event, 128),
		quit:            make(chan struct{}),
		livenessTimeout: timeout,
		sweepInterval:   time.Second,
	}
}

// Listen binds the client and server endpoints. After Listen returns,
// ClientAddr and ServerAddr report the bound addresses.
func (b *Broker) Listen() error {
	cl, err := net.Listen("tcp", b.config.ClientEndpoint)
	if err != nil {
		return fmt.Errorf("failed to listen on client endpoint %s: %w", b.config.ClientEndpoint, err)
	}
	sl, err := net.Listen("tcp", b.config.ServerEndpoint)
	if err != nil {
		_ = cl.Close()
		return fmt.Errorf("failed to listen on server endpoint %s: %w", b.config.ServerEndpoint, err)
	}
	b.clientListener = cl
	b.serverListener = sl
	return nil
}

// ClientAddr returns the bound client endpoint address.
func (b *Broker) ClientAddr() string { return b.clientListener.Addr().String() }

// ServerAddr returns the bound server endpoint address.
func (b *Broker) ServerAddr() string { return b.serverListener.Addr().String() }

// Serve runs the accept loops and the reactor until Shutdown is called.
func (b *Broker) Serve() error {
	logger.Infof("Broker listening (clients: %s, servers: %s)", b.ClientAddr(), b.ServerAddr())

	if b.config.MetricsEndpoint != "" {
		go b.serveMetrics()
	}

	go b.acceptLoop(b.clientListener, classClient)
	go b.acceptLoop(b.serverListener, classServer)

	b.reactor()
	return nil
}

// Run binds the endpoints and serves until Shutdown.
func (b *Broker) Run() error {
	logger.Infof("Starting broker\n%s", b.config.String())
	if err := b.Listen(); err != nil {
		return err
	}
	return b.Serve()
}

// Shutdown stops the reactor and closes the listeners and all connections.
func (b *Broker) Shutdown() {
	close(b.quit)
	_ = b.clientListener.Close()
	_ = b.serverListener.Close()
}

// --------------------------------------------------------------------------
// Accept Loops and Readers
// --------------------------------------------------------------------------

func (b *Broker) acceptLoop(listener net.Listener, class peerClass) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-b.quit:
			default:
				logger.Errorf("Accept error on %s endpoint: %v", class, err)
			}
			return
		}
		b.deliver(event{kind: evAccept, class: class, conn: conn})
	}
}

// readLoop turns one connection into a stream of reactor events. It never
// touches routing state itself.
func (b *Broker) readLoop(token uint64, class peerClass, conn net.Conn) {
	for f := range transport.ReadFrames(conn) {
		b.deliver(event{kind: evFrame, class: class, token: token, frame: f})
	}
	b.deliver(event{kind: evClosed, class: class, token: token})
}

func (b *Broker) deliver(ev event) {
	select {
	case b.events <- ev:
	case <-b.quit:
	}
}

// --------------------------------------------------------------------------
// Reactor
// --------------------------------------------------------------------------

// reactor is the single goroutine that owns conns, the fleet registry and
// the hash ring. One bad message must never terminate this loop.
func (b *Broker) reactor() {
	ticker := time.NewTicker(b.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.quit:
			for _, conn := range b.conns {
				_ = conn.Close()
			}
			return

		case now := <-ticker.C:
			for _, id := range b.registry.Sweep(now) {
				metricEvictions.Inc()
				logger.Warningf("Server %s evicted: no heartbeat for %s", id, b.livenessTimeout)
			}

		case ev := <-b.events:
			switch ev.kind {
			case evAccept:
				b.nextToken++
				token := b.nextToken
				b.conns[token] = ev.conn
				logger.Debugf("Accepted %s connection %d from %s", ev.class, token, ev.conn.RemoteAddr())
				go b.readLoop(token, ev.class, ev.conn)

			case evFrame:
				if ev.class == classServer {
					b.handleServerFrame(ev.token, ev.frame)
				} else {
					b.handleClientFrame(ev.token, ev.frame)
				}

			case evClosed:
				if conn, ok := b.conns[ev.token]; ok {
					_ = conn.Close()
					delete(b.conns, ev.token)
				}
				if ev.class == classServer {
					// a closed connection can never receive a forwarded
					// request, so don't wait for the sweep
					if b.registry.Remove(identity(ev.token)) {
						metricEvictions.Inc()
						logger.Warningf("Server %s evicted: connection closed", identity(ev.token))
					}
				}
				logger.Debugf("Connection %d closed", ev.token)
			}
		}
	}
}

// --------------------------------------------------------------------------
// Frame Handling
// --------------------------------------------------------------------------

// handleServerFrame processes a frame from a backend server: either a
// heartbeat (answered locally) or a reply to a forwarded request (relayed to
// the originating client untouched).
func (b *Broker) handleServerFrame(token uint64, f transport.Frame) {
	var msg common.Message
	if err := b.serializer.Deserialize(f.Payload, &msg); err != nil {
		logger.Errorf("Malformed frame from server connection %d: %v", token, err)
		return
	}

	// a frame without a status is a request, and the only request a server
	// sends upstream is its heartbeat
	if msg.Status == "" {
		if msg.Op != common.MsgTPing {
			logger.Errorf("Unexpected %s request from server connection %d", msg.Op, token)
			return
		}
		b.handleHeartbeat(token, f.RequestID)
		return
	}

	// reply: relay the payload verbatim to the originating client
	clientConn, ok := b.conns[f.Origin]
	if !ok {
		// client gave up (timeout) or disconnected, drop the reply
		logger.Debugf("Dropping reply for vanished client connection %d", f.Origin)
		return
	}
	if err := transport.WriteFrame(clientConn, 0, f.RequestID, f.Payload); err != nil {
		logger.Errorf("Failed to relay reply to client connection %d: %v", f.Origin, err)
		return
	}
	metricRepliesRelayed.Inc()
}

func (b *Broker) handleHeartbeat(token uint64, requestID uint64) {
	metricHeartbeats.Inc()
	id := identity(token)

	known := b.registry.Has(id)
	registered := b.registry.Heartbeat(id, time.Now())
	switch {
	case registered && !known:
		metricRegistrations.Inc()
		logger.Infof("Server %s registered (fleet size %d)", id, b.registry.Size())
	case !registered:
		logger.Warningf("Heartbeat from server %s ignored: fleet at capacity (%d)", id, b.registry.Size())
	}

	// the heartbeat is acknowledged either way
	b.reply(token, requestID, common.NewPongResponse())
}

// handleClientFrame processes one client request: answered locally (ping,
// routing errors) or forwarded to the server owning the request's key.
func (b *Broker) handleClientFrame(token uint64, f transport.Frame) {
	var msg common.Message
	if err := b.serializer.Deserialize(f.Payload, &msg); err != nil {
		logger.Errorf("Malformed frame from client connection %d: %v", token, err)
		b.reply(token, f.RequestID, common.NewErrorResponse(common.MsgTUnknown, "Malformed message"))
		return
	}

	if msg.Op == common.MsgTPing {
		b.reply(token, f.RequestID, common.NewPongResponse())
		return
	}

	id, ok := b.registry.Lookup(msg.RoutingKey())
	if !ok {
		metricRoutingErrors.Inc()
		b.reply(token, f.RequestID, common.NewErrorResponse(msg.Op, "No servers available"))
		return
	}

	serverToken, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		metricRoutingErrors.Inc()
		logger.Errorf("Corrupt server identity %q in ring", id)
		b.reply(token, f.RequestID, common.NewErrorResponse(msg.Op, "Server not found"))
		return
	}
	serverConn, ok := b.conns[serverToken]
	if !ok {
		metricRoutingErrors.Inc()
		b.reply(token, f.RequestID, common.NewErrorResponse(msg.Op, "Server not found"))
		return
	}

	// forward the payload untouched, tagging the frame with the client's
	// connection token so the reply finds its way back
	if err := transport.WriteFrame(serverConn, token, f.RequestID, f.Payload); err != nil {
		metricRoutingErrors.Inc()
		logger.Errorf("Failed to forward request to server %s: %v", id, err)
		b.reply(token, f.RequestID, common.NewErrorResponse(msg.Op, "Server not found"))
		return
	}
	metricRequestsRouted.Inc()
	logger.Debugf("Routed %s (key %q) to server %s", msg.Op, msg.RoutingKey(), id)
}

// reply serializes msg and sends it on the given connection token. Reply
// failures only get logged, the peer will run into its own timeout.
func (b *Broker) reply(token uint64, requestID uint64, msg *common.Message) {
	conn, ok := b.conns[token]
	if !ok {
		return
	}
	data, err := b.serializer.Serialize(*msg)
	if err != nil {
		logger.Errorf("Failed to serialize reply: %v", err)
		return
	}
	if err := transport.WriteFrame(conn, 0, requestID, data); err != nil {
		logger.Errorf("Failed to write reply to connection %d: %v", token, err)
	}
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// identity derives the fleet identity of a server connection. Tokens are
// monotonically increasing per broker lifetime and never reused.
func identity(token uint64) string {
	return strconv.FormatUint(token, 10)
}

func (b *Broker) serveMetrics() {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		vmetrics.WritePrometheus(w, true)
	})
	logger.Infof("Metrics exposed on http://%s/metrics", b.config.MetricsEndpoint)
	if err := http.ListenAndServe(b.config.MetricsEndpoint, mux); err != nil {
		logger.Errorf("Metrics endpoint failed: %v", err)
	}
}
