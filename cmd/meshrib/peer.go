package main

import (
	"context"
	"fmt"

	"github.com/malbeclabs/meshrib/api/proto"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func newPeerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "peer",
		Short: "Manage peers on a running node",
	}
	cmd.PersistentFlags().String("admin-addr", "127.0.0.1:4001", "node admin gRPC address")

	var endpoint, token string
	var domains []string
	var holdTime int64

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a new peer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cancel, err := dialAdmin(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			req := &proto.PeerAddRequest{Name: args[0], Endpoint: endpoint, Domains: domains, PeerToken: token}
			if holdTime > 0 {
				req.HoldTime = &holdTime
			}
			ack, err := client.PeerAdd(context.Background(), req)
			if err != nil {
				return err
			}
			return printAck(ack)
		},
	}
	add.Flags().StringVar(&endpoint, "endpoint", "", "peer's gRPC endpoint")
	add.Flags().StringVar(&token, "token", "", "capability token presented to this peer")
	add.Flags().StringSliceVar(&domains, "domains", nil, "domains this peer advertises")
	add.Flags().Int64Var(&holdTime, "hold-time", 0, "hold time in seconds (0 uses node default)")

	remove := &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a peer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cancel, err := dialAdmin(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			ack, err := client.PeerRemove(context.Background(), &proto.PeerRemoveRequest{Name: args[0]})
			if err != nil {
				return err
			}
			return printAck(ack)
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List known peers and their session status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cancel, err := dialAdmin(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			resp, err := client.PeerList(context.Background(), &proto.Ack{})
			if err != nil {
				return err
			}
			for _, p := range resp.Peers {
				fmt.Printf("%-20s %-24s %s\n", p.Name, p.Endpoint, p.ConnectionStatus)
			}
			return nil
		},
	}

	cmd.AddCommand(add, remove, list)
	return cmd
}

func dialAdmin(cmd *cobra.Command) (proto.AdminServiceClient, func(), error) {
	addr, err := cmd.Flags().GetString("admin-addr")
	if err != nil {
		return nil, nil, err
	}
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, fmt.Errorf("dialing admin server %s: %w", addr, err)
	}
	return proto.NewAdminServiceClient(conn), func() { _ = conn.Close() }, nil
}

func printAck(ack *proto.Ack) error {
	if !ack.Ok {
		return fmt.Errorf("rejected: %s", ack.Reason)
	}
	fmt.Println("ok")
	return nil
}
