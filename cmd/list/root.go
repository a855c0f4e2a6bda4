package list

import (
	cmdUtil "github.com/cesto-dev/cesto/cmd/util"
	"github.com/cesto-dev/cesto/rpc/client"
	"github.com/cesto-dev/cesto/rpc/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	rpcClient *client.Client

	// ListCommands represents the shopping-list command group
	ListCommands = &cobra.Command{
		Use:                "list",
		Short:              "Perform shopping-list operations",
		PersistentPreRunE:  setupClient,
		PersistentPostRunE: teardownClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(cmdUtil.InitConfig)

	// Add flags
	key := "endpoints"
	ListCommands.PersistentFlags().String(key, "localhost:5555", cmdUtil.WrapString("Comma-separated list of broker endpoints to probe, in order. The first one answering a ping wins"))

	key = "db"
	ListCommands.PersistentFlags().String(key, "client.db", cmdUtil.WrapString("Path of the local SQLite cache file"))

	key = "timeout"
	ListCommands.PersistentFlags().Int(key, common.DefaultTimeoutSecond, cmdUtil.WrapString("Bounded wait in seconds for one round trip - on expiry writes degrade to saved-locally"))

	key = "retries"
	ListCommands.PersistentFlags().Int(key, common.DefaultRetryCount, cmdUtil.WrapString("How many times to probe each endpoint before moving to the next"))

	key = "log-level"
	ListCommands.PersistentFlags().String(key, "warn", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	// Add subcommands
	ListCommands.AddCommand(createCmd)
	ListCommands.AddCommand(addItemCmd)
	ListCommands.AddCommand(updateItemCmd)
	ListCommands.AddCommand(deleteItemCmd)
	ListCommands.AddCommand(infoCmd)
	ListCommands.AddCommand(allCmd)
	ListCommands.AddCommand(pingCmd)
	ListCommands.AddCommand(commitCmd)
	ListCommands.AddCommand(syncCmd)
}

// setupClient initializes the offline-first client
func setupClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := cmdUtil.BindCommandFlags(cmd); err != nil {
		return err
	}

	common.InitLoggers(viper.GetString("log-level"))

	config := common.ClientConfig{
		Endpoints:     cmdUtil.ParseEndpoints(viper.GetString("endpoints")),
		DBFile:        viper.GetString("db"),
		TimeoutSecond: viper.GetInt("timeout"),
		RetryCount:    viper.GetInt("retries"),
		LogLevel:      viper.GetString("log-level"),
	}

	s, err := cmdUtil.GetSerializer()
	if err != nil {
		return err
	}

	rpcClient, err = client.New(config, s)
	return err
}

// teardownClient releases the broker connection and the local cache
func teardownClient(_ *cobra.Command, _ []string) error {
	if rpcClient != nil {
		return rpcClient.Close()
	}
	return nil
}
