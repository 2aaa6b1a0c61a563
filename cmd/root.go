// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"github.com/spf13/cobra"
)

var configFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "netcore",
	Short: "netcore - IP fragment reassembly and Path MTU discovery cache",
	Long: `netcore maintains the fragment reassembly and Path MTU caches that sit
beneath a user-space network stack's IP layer: it reassembles fragmented
IPv4/IPv6 datagrams, tracks discovered path MTUs per (source, destination),
and evicts both on their respective timers.`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "/etc/netcore/config.yml",
		"config file path")

	rootCmd.AddCommand(replayCmd)
}
