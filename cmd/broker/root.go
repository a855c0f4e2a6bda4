package broker

import (
	cmdUtil "github.com/cesto-dev/cesto/cmd/util"
	"github.com/cesto-dev/cesto/rpc/broker"
	"github.com/cesto-dev/cesto/rpc/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	brokerCmdConfig = &common.BrokerConfig{}
	BrokerCmd       = &cobra.Command{
		Use:     "broker",
		Short:   "Start a cesto broker",
		Long:    `Start a cesto broker process. The broker routes client requests to the backend server owning each list and keeps track of the server fleet via heartbeats. Configuration can be set via command line flags or environment variables. The format of the environment variables is CESTO_<flag> (e.g. CESTO_FLEET_CAP=10)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitConfig)

	// add flags
	key := "client-endpoint"
	BrokerCmd.PersistentFlags().String(key, "0.0.0.0:5555", cmdUtil.WrapString("The address on which clients connect"))

	key = "server-endpoint"
	BrokerCmd.PersistentFlags().String(key, "0.0.0.0:5556", cmdUtil.WrapString("The address on which backend servers register and receive requests"))

	key = "replicas"
	BrokerCmd.PersistentFlags().Int(key, common.DefaultReplicas, cmdUtil.WrapString("Number of virtual ring points per server"))

	key = "fleet-cap"
	BrokerCmd.PersistentFlags().Int(key, common.DefaultFleetCap, cmdUtil.WrapString("Maximum number of registered servers"))

	key = "liveness-timeout"
	BrokerCmd.PersistentFlags().Int(key, common.DefaultLivenessTimeoutSec, cmdUtil.WrapString("Heartbeat silence in seconds tolerated before a server is evicted"))

	key = "timeout"
	BrokerCmd.PersistentFlags().Int(key, common.DefaultTimeoutSecond, cmdUtil.WrapString("I/O timeout in seconds"))

	key = "metrics-endpoint"
	BrokerCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Optional address for the Prometheus metrics endpoint (empty to disable)"))

	key = "log-level"
	BrokerCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// processConfig reads the configuration from the command line flags and environment variables
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := cmdUtil.BindCommandFlags(cmd); err != nil {
		return err
	}

	brokerCmdConfig.ClientEndpoint = viper.GetString("client-endpoint")
	brokerCmdConfig.ServerEndpoint = viper.GetString("server-endpoint")
	brokerCmdConfig.Replicas = viper.GetInt("replicas")
	brokerCmdConfig.FleetCap = viper.GetInt("fleet-cap")
	brokerCmdConfig.LivenessTimeoutSec = viper.GetInt("liveness-timeout")
	brokerCmdConfig.TimeoutSecond = viper.GetInt("timeout")
	brokerCmdConfig.MetricsEndpoint = viper.GetString("metrics-endpoint")
	brokerCmdConfig.LogLevel = viper.GetString("log-level")

	return nil
}

// run starts the broker
func run(_ *cobra.Command, _ []string) error {
	common.InitLoggers(brokerCmdConfig.LogLevel)

	s, err := cmdUtil.GetSerializer()
	if err != nil {
		return err
	}

	b := broker.New(*brokerCmdConfig, s)
	return b.Run()
}
