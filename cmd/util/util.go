package util

import (
	"fmt"
	"strings"

	"github.com/cesto-dev/cesto/rpc/common"
	"github.com/cesto-dev/cesto/rpc/serializer"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("cesto")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// GetSerializer creates a serializer based on configuration
func GetSerializer() (serializer.IRPCSerializer, error) {
	switch viper.GetString("serializer") {
	case "json":
		return serializer.NewJSONSerializer(), nil
	case "gob":
		return serializer.NewGOBSerializer(), nil
	case "cbor":
		return serializer.NewCBORSerializer(), nil
	case "binary":
		return serializer.NewBinarySerializer(), nil
	default:
		return nil, fmt.Errorf("invalid serializer %s", viper.GetString("serializer"))
	}
}

// ParseBrokerEndpoints parses a comma-separated list of broker endpoint
// pairs in the format 'clientAddr/serverAddr'
// (e.g. 'localhost:5555/localhost:5556,backup:5555/backup:5556').
func ParseBrokerEndpoints(value string) ([]common.BrokerEndpoint, error) {
	var brokers []common.BrokerEndpoint
	for _, pair := range strings.Split(value, ",") {
		parts := strings.Split(strings.TrimSpace(pair), "/")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid broker endpoint pair: %s (expected clientAddr/serverAddr)", pair)
		}
		brokers = append(brokers, common.BrokerEndpoint{
			Client: strings.TrimSpace(parts[0]),
			Server: strings.TrimSpace(parts[1]),
		})
	}
	return brokers, nil
}

// ParseEndpoints parses a comma-separated endpoint list.
func ParseEndpoints(value string) []string {
	var endpoints []string
	for _, e := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(e); trimmed != "" {
			endpoints = append(endpoints, trimmed)
		}
	}
	return endpoints
}
