package server

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	vmetrics "github.com/VictoriaMetrics/metrics"
	"github.com/cesto-dev/cesto/lib/storage"
	"github.com/cesto-dev/cesto/rpc/common"
	"github.com/cesto-dev/cesto/rpc/serializer"
	"github.com/cesto-dev/cesto/rpc/transport"
)

var logger = common.GetLogger("rpc/server")

var metricRequestsHandled = vmetrics.GetOrCreateCounter("cesto_server_requests_handled_total")

// --------------------------------------------------------------------------
// Record Server
// --------------------------------------------------------------------------

// Server is a backend record server: it owns one canonical store, announces
// itself to a broker via heartbeats and answers the requests the broker
// forwards. The server never learns which client issued a request; it only
// echoes the envelope back so the broker can route the reply.
type Server struct {
	config     common.ServerConfig
	serializer serializer.IRPCSerializer
	store      storage.IStore
	adapter    IRPCServerAdapter

	conn      net.Conn
	writeMu   sync.Mutex
	requestID atomic.Uint64
	quit      chan struct{}
	closeOnce sync.Once
}

// New creates a record server with its store opened from config.DBFile.
func New(config common.ServerConfig, s serializer.IRPCSerializer) (*Server, error) {
	store, err := storage.NewSQLiteStore(config.DBFile)
	if err != nil {
		return nil, err
	}
	return &Server{
		config:     config,
		serializer: s,
		store:      store,
		adapter:    NewStoreAdapter(),
		quit:       make(chan struct{}),
	}, nil
}

// Run connects to the first responsive broker, then serves forwarded
// requests until the broker connection is lost or Shutdown is called.
// Returns an error if no broker responds: startup connectivity failure is
// fatal for the process.
func (s *Server) Run() error {
	logger.Infof("Starting record server\n%s", s.config.String())
	defer s.store.Close()

	timeout := time.Duration(s.config.TimeoutSecond) * time.Second

	broker, ok := s.findBroker(timeout)
	if !ok {
		return fmt.Errorf("no broker responded (probed %d endpoints, %d retries each)",
			len(s.config.Brokers), s.config.RetryCount)
	}

	conn, err := net.Dial("tcp", broker.Server)
	if err != nil {
		return fmt.Errorf("failed to connect to broker %s: %w", broker.Server, err)
	}
	s.conn = conn
	defer conn.Close()

	logger.Infof("Connected to broker %s", broker.Server)

	// first heartbeat immediately, so the broker registers this server
	// before the first tick
	if err := s.sendHeartbeat(); err != nil {
		return fmt.Errorf("failed to send heartbeat: %w", err)
	}
	go s.heartbeatLoop()

	return s.serve()
}

// Shutdown stops the server. Safe to call more than once.
func (s *Server) Shutdown() {
	s.closeOnce.Do(func() {
		close(s.quit)
		if s.conn != nil {
			_ = s.conn.Close()
		}
	})
}

// --------------------------------------------------------------------------
// Broker Discovery
// --------------------------------------------------------------------------

// findBroker probes the configured brokers in order on their client-facing
// endpoints and returns the first one answering a ping.
func (s *Server) findBroker(timeout time.Duration) (common.BrokerEndpoint, bool) {
	ping, err := s.serializer.Serialize(*common.NewPingRequest())
	if err != nil {
		logger.Panicf("failed to serialize ping: %v", err)
	}
	isPong := func(data []byte) bool {
		var msg common.Message
		if err := s.serializer.Deserialize(data, &msg); err != nil {
			return false
		}
		return msg.Status == common.StatusPong
	}

	for _, broker := range s.config.Brokers {
		logger.Infof("Probing broker %s", broker.Client)
		if transport.ProbeEndpoint(broker.Client, s.config.RetryCount, timeout, ping, isPong) {
			return broker, true
		}
		logger.Warningf("Broker %s did not respond", broker.Client)
	}
	return common.BrokerEndpoint{}, false
}

// --------------------------------------------------------------------------
// Heartbeats
// --------------------------------------------------------------------------

func (s *Server) heartbeatLoop() {
	interval := time.Duration(s.config.HeartbeatIntervalSec) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.quit:
			return
		case <-ticker.C:
			if err := s.sendHeartbeat(); err != nil {
				logger.Errorf("Failed to send heartbeat: %v", err)
				return
			}
		}
	}
}

func (s *Server) sendHeartbeat() error {
	data, err := s.serializer.Serialize(*common.NewPingRequest())
	if err != nil {
		return err
	}
	return s.writeFrame(0, s.requestID.Add(1), data)
}

// --------------------------------------------------------------------------
// Request Loop
// --------------------------------------------------------------------------

// serve processes frames from the broker until the connection closes.
// Heartbeat acknowledgements are consumed here too; everything else is a
// forwarded client request and is dispatched onto the store, each in its
// own goroutine so a slow query never delays the next frame.
func (s *Server) serve() error {
	for f := range transport.ReadFrames(s.conn) {
		var msg common.Message
		if err := s.serializer.Deserialize(f.Payload, &msg); err != nil {
			logger.Errorf("Malformed frame from broker: %v", err)
			s.respond(f, common.NewErrorResponse(common.MsgTUnknown, "Malformed message"))
			continue
		}

		if msg.Status == common.StatusPong {
			logger.Debugf("Heartbeat acknowledged")
			continue
		}

		go func(f transport.Frame, msg common.Message) {
			start := time.Now()
			resp := s.adapter.Handle(&msg, s.store)
			metricRequestsHandled.Inc()
			logger.Debugf("Handled %s in %s", msg.Op, time.Since(start))
			s.respond(f, resp)
		}(f, msg)
	}

	select {
	case <-s.quit:
		return nil
	default:
		return fmt.Errorf("broker connection lost")
	}
}

// respond sends a reply frame echoing the request's origin and id.
func (s *Server) respond(req transport.Frame, msg *common.Message) {
	data, err := s.serializer.Serialize(*msg)
	if err != nil {
		logger.Errorf("Failed to serialize response: %v", err)
		return
	}
	if err := s.writeFrame(req.Origin, req.RequestID, data); err != nil {
		logger.Errorf("Failed to write response: %v", err)
	}
}

// writeFrame serializes writes to the broker connection. The heartbeat loop
// and the handler goroutines share it.
func (s *Server) writeFrame(origin, requestID uint64, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return transport.WriteFrame(s.conn, origin, requestID, data)
}
