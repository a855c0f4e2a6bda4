package cmd

import (
	"fmt"
	"os"

	"github.com/cesto-dev/cesto/cmd/broker"
	"github.com/cesto-dev/cesto/cmd/list"
	"github.com/cesto-dev/cesto/cmd/serve"
	"github.com/cesto-dev/cesto/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "cesto",
		Short: "sharded, offline-first shopping-list store",
		Long: fmt.Sprintf(`cesto (v%s)

A sharded, fault-tolerant shopping-list store written in Go.
Lists are partitioned across backend servers with a consistent
hash ring, routed through a broker, and edited offline-first
from a local cache that is reconciled with commit and sync.`, Version),
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of cesto",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("cesto v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(broker.BrokerCmd)
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(list.ListCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "json", util.WrapString("serializer to use (json, gob, cbor, binary) - must match across all processes"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
