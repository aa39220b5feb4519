// Command meshrib runs a service-mesh control-plane node: it peers with
// other nodes over the PeerService protocol, maintains a Routing
// Information Base, and renders the result into a data-plane snapshot.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

// set by LDFLAGS at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "meshrib",
		Short: "Service-mesh control-plane node",
	}

	root.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringP("config", "c", "node.yaml", "path to node configuration file")

	root.AddCommand(
		newServeCmd(),
		newPeerCmd(),
		newRouteCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("version: %s, commit: %s, date: %s\n", version, commit, date)
			return nil
		},
	}
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

func verboseFlag(cmd *cobra.Command) (bool, error) {
	return cmd.Root().PersistentFlags().GetBool("verbose")
}

func configFlag(cmd *cobra.Command) (string, error) {
	return cmd.Root().PersistentFlags().GetString("config")
}
