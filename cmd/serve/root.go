package serve

import (
	cmdUtil "github.com/cesto-dev/cesto/cmd/util"
	"github.com/cesto-dev/cesto/rpc/common"
	"github.com/cesto-dev/cesto/rpc/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "server",
		Short:   "Start a cesto record server",
		Long:    `Start a cesto record server with the specified configuration. The server stores the canonical copy of the lists assigned to it and registers with the first responsive broker. Configuration can be set via command line flags or environment variables. The format of the environment variables is CESTO_<flag> (e.g. CESTO_DB=server2.db)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitConfig)

	// add flags
	key := "brokers"
	ServeCmd.PersistentFlags().String(key, "localhost:5555/localhost:5556", cmdUtil.WrapString("Comma-separated list of brokers to probe, each as a clientAddr/serverAddr pair. The first broker answering a ping wins"))

	key = "db"
	ServeCmd.PersistentFlags().String(key, "server.db", cmdUtil.WrapString("Path of the SQLite database file holding this server's lists"))

	key = "heartbeat-interval"
	ServeCmd.PersistentFlags().Int(key, common.DefaultHeartbeatIntervalSec, cmdUtil.WrapString("Heartbeat period in seconds"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int(key, common.DefaultTimeoutSecond, cmdUtil.WrapString("I/O timeout in seconds"))

	key = "retries"
	ServeCmd.PersistentFlags().Int(key, common.DefaultRetryCount, cmdUtil.WrapString("How many times to probe each broker before moving to the next"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// processConfig reads the configuration from the command line flags and environment variables
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := cmdUtil.BindCommandFlags(cmd); err != nil {
		return err
	}

	brokers, err := cmdUtil.ParseBrokerEndpoints(viper.GetString("brokers"))
	if err != nil {
		return err
	}

	serveCmdConfig.Brokers = brokers
	serveCmdConfig.DBFile = viper.GetString("db")
	serveCmdConfig.HeartbeatIntervalSec = viper.GetInt("heartbeat-interval")
	serveCmdConfig.TimeoutSecond = viper.GetInt("timeout")
	serveCmdConfig.RetryCount = viper.GetInt("retries")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	return nil
}

// run starts the record server
func run(_ *cobra.Command, _ []string) error {
	common.InitLoggers(serveCmdConfig.LogLevel)

	s, err := cmdUtil.GetSerializer()
	if err != nil {
		return err
	}

	srv, err := server.New(*serveCmdConfig, s)
	if err != nil {
		return err
	}
	return srv.Run()
}
