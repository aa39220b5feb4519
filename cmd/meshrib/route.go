package main

import (
	"context"
	"fmt"

	"github.com/malbeclabs/meshrib/api/proto"
	"github.com/spf13/cobra"
)

func newRouteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "route",
		Short: "Manage locally-terminated routes on a running node",
	}
	cmd.PersistentFlags().String("admin-addr", "127.0.0.1:4001", "node admin gRPC address")

	var protocol, endpoint string
	var envoyPort int

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Advertise a new local route",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cancel, err := dialAdmin(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			ack, err := client.RouteAdd(context.Background(), &proto.RouteAddRequest{
				Name: args[0], Protocol: protocol, Endpoint: endpoint, EnvoyPort: envoyPort,
			})
			if err != nil {
				return err
			}
			return printAck(ack)
		},
	}
	add.Flags().StringVar(&protocol, "protocol", "http", "route protocol (http, http:graphql, tcp)")
	add.Flags().StringVar(&endpoint, "endpoint", "", "local upstream endpoint")
	add.Flags().IntVar(&envoyPort, "envoy-port", 0, "preferred envoy listener port (0 lets the allocator choose)")

	remove := &cobra.Command{
		Use:   "remove <name>",
		Short: "Withdraw a local route",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cancel, err := dialAdmin(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			ack, err := client.RouteRemove(context.Background(), &proto.RouteRemoveRequest{Name: args[0]})
			if err != nil {
				return err
			}
			return printAck(ack)
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List local and internal routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cancel, err := dialAdmin(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			resp, err := client.RouteList(context.Background(), &proto.Ack{})
			if err != nil {
				return err
			}
			fmt.Println("LOCAL:")
			for _, r := range resp.Local {
				fmt.Printf("  %-20s %-12s %-24s port=%d\n", r.Name, r.Protocol, r.Endpoint, r.EnvoyPort)
			}
			fmt.Println("INTERNAL:")
			for _, r := range resp.Internal {
				best := ""
				if r.BestPath {
					best = " (best)"
				}
				fmt.Printf("  %-20s via=%-16s port=%d path=%v%s\n", r.Name, r.PeerName, r.EnvoyPort, r.NodePath, best)
			}
			return nil
		},
	}

	cmd.AddCommand(add, remove, list)
	return cmd
}
