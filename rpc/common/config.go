package common

import (
	"fmt"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Defaults
// --------------------------------------------------------------------------

const (
	DefaultReplicas             = 100 // virtual ring points per server
	DefaultFleetCap             = 5   // maximum registered servers per broker
	DefaultHeartbeatIntervalSec = 3   // server heartbeat period
	DefaultLivenessTimeoutSec   = 10  // silence tolerated before eviction
	DefaultTimeoutSecond        = 2   // bounded wait for one round trip
	DefaultRetryCount           = 3   // connection-probe attempts per endpoint
)

// --------------------------------------------------------------------------
// Broker configuration struct
// --------------------------------------------------------------------------

// BrokerConfig holds all configuration parameters for a broker process.
type BrokerConfig struct {
	// Listen endpoints
	ClientEndpoint string // client-facing channel
	ServerEndpoint string // server-facing channel

	// Routing parameters
	Replicas           int // virtual ring points per server
	FleetCap           int // maximum fleet size
	LivenessTimeoutSec int // heartbeat silence tolerated before eviction

	// I/O settings
	TimeoutSecond int // write deadline for forwarded frames

	// Observability
	MetricsEndpoint string // optional Prometheus text endpoint, empty to disable
	LogLevel        string
}

// String returns a formatted string representation of the configuration
func (c *BrokerConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Endpoints")
	addField("Client Channel", c.ClientEndpoint)
	addField("Server Channel", c.ServerEndpoint)

	addSection("Routing")
	addField("Ring Replicas", strconv.Itoa(c.Replicas))
	addField("Fleet Cap", strconv.Itoa(c.FleetCap))
	addField("Liveness Timeout", fmt.Sprintf("%d sec", c.LivenessTimeoutSec))

	addSection("I/O")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))

	addSection("Observability")
	if c.MetricsEndpoint != "" {
		addField("Metrics Endpoint", c.MetricsEndpoint)
	} else {
		addField("Metrics Endpoint", "disabled")
	}
	addField("Log Level", c.LogLevel)

	return sb.String()
}

// --------------------------------------------------------------------------
// Record server configuration struct
// --------------------------------------------------------------------------

// BrokerEndpoint is one broker as seen from a record server: the
// client-facing endpoint used to probe liveness and the server-facing
// endpoint used for the actual registration connection.
type BrokerEndpoint struct {
	Client string
	Server string
}

// ServerConfig holds all configuration parameters for a record server.
type ServerConfig struct {
	// Brokers to probe, in order. The first one answering a ping wins.
	Brokers []BrokerEndpoint

	// Storage
	DBFile string

	// Protocol timing
	HeartbeatIntervalSec int
	TimeoutSecond        int
	RetryCount           int

	// Logging configuration
	LogLevel string
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Brokers")
	for i, b := range c.Brokers {
		addField(strconv.Itoa(i), fmt.Sprintf("%s (probe %s)", b.Server, b.Client))
	}

	addSection("Storage")
	addField("Database File", c.DBFile)

	addSection("Protocol")
	addField("Heartbeat Interval", fmt.Sprintf("%d sec", c.HeartbeatIntervalSec))
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.RetryCount))

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}

// --------------------------------------------------------------------------
// Client configuration struct
// --------------------------------------------------------------------------

// ClientConfig holds all configuration parameters for a client process.
type ClientConfig struct {
	// Broker client-facing endpoints to probe, in order.
	Endpoints []string

	// Local cache
	DBFile string

	// Protocol timing
	TimeoutSecond int
	RetryCount    int

	// Logging configuration
	LogLevel string
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client Configuration")
	addField("Cache File", c.DBFile)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.RetryCount))

	addSection("Endpoints")
	for i, endpoint := range c.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}
