package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/malbeclabs/meshrib/internal/authtoken"
	"github.com/malbeclabs/meshrib/internal/config"
	"github.com/malbeclabs/meshrib/internal/dataplane"
	"github.com/malbeclabs/meshrib/internal/portalloc"
	"github.com/malbeclabs/meshrib/internal/queue"
	"github.com/malbeclabs/meshrib/internal/ribcore"
	"github.com/malbeclabs/meshrib/internal/sink"
	"github.com/malbeclabs/meshrib/internal/store"
	"github.com/malbeclabs/meshrib/internal/telemetry"
	"github.com/malbeclabs/meshrib/internal/transport"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the control-plane node",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	verbose, err := verboseFlag(cmd)
	if err != nil {
		return err
	}
	configPath, err := configFlag(cmd)
	if err != nil {
		return err
	}

	log := newLogger(verbose)
	telemetry.PublishBuildInfo(version, commit, date)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ranges := make([]portalloc.Range, 0, len(cfg.EnvoyConfig.PortRanges))
	for _, r := range cfg.EnvoyConfig.PortRanges {
		ranges = append(ranges, portalloc.Range{Lo: r.Lo, Hi: r.Hi})
	}
	alloc := portalloc.New(ranges...)

	var checkpointer ribcore.Checkpointer
	var initial *ribcore.State
	if cfg.CheckpointDir != "" {
		cp := store.New(filepath.Join(cfg.CheckpointDir, "checkpoint.json"), log)
		checkpointer = cp
		initial, err = cp.Load()
		if err != nil {
			return fmt.Errorf("loading checkpoint: %w", err)
		}
	}

	rib := ribcore.NewRIB(cfg.Node.Name, alloc, initial, log, checkpointer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	peerSink := sink.New(sink.Config{
		NodeName:  cfg.Node.Name,
		NodeToken: cfg.SharedSecret,
	}, log)
	defer peerSink.Close()

	q := queue.New(rib, log, queue.Config{
		TickInterval: time.Second,
		OnCommit: func(result ribcore.CommitResult) {
			if len(result.Propagations) == 0 {
				return
			}
			for _, outcome := range peerSink.FanOut(ctx, result.Propagations) {
				if outcome.Rejected {
					log.Warn("propagation rejected", "peer", outcome.Peer, "error", outcome.Err)
				}
			}
		},
	})

	minter := authtoken.NewMinter([]byte(cfg.SharedSecret), cfg.Node.Name)
	verifier := authtoken.NewVerifier([]byte(cfg.SharedSecret))

	transportListener, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.ListenAddr, err)
	}
	transportSrv, err := transport.New(cfg.Node.Name, q, rib, verifier,
		transport.WithListener(transportListener),
		transport.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("building transport server: %w", err)
	}

	adminListener, err := net.Listen("tcp", cfg.AdminAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.AdminAddr, err)
	}
	adminSrv, err := transport.New(cfg.Node.Name, q, rib, verifier,
		transport.WithListener(adminListener),
		transport.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("building admin server: %w", err)
	}

	metricsSrv := telemetry.NewServer(cfg.CurrentMetricsAddr(), log)
	metricsSrv.Handle("/ribstate", ribStateHandler(rib))
	metricsSrv.Handle("/snapshot", snapshotHandler(rib))

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error { return q.Run(gctx) })

	if err := bootstrapPeers(ctx, q, cfg, minter); err != nil {
		return fmt.Errorf("bootstrapping peers: %w", err)
	}

	group.Go(func() error { return transportSrv.Run(gctx) })
	group.Go(func() error { return adminSrv.Run(gctx) })
	group.Go(func() error { return metricsSrv.Run(gctx) })

	log.Info("meshrib node started",
		"node", cfg.Node.Name,
		"listen", cfg.ListenAddr,
		"admin", cfg.AdminAddr,
		"metrics", cfg.CurrentMetricsAddr(),
	)

	return group.Wait()
}

// bootstrapPeers replays a LocalPeerCreate action for every peer listed in
// config, before the transport server starts accepting connections.
func bootstrapPeers(ctx context.Context, q *queue.Queue, cfg *config.Config, minter *authtoken.Minter) error {
	holdTime := cfg.HoldTime
	for _, p := range cfg.Peers {
		peerToken := p.PeerToken
		if peerToken == "" {
			token, err := minter.Mint(p.Name, time.Now(), 0)
			if err != nil {
				return fmt.Errorf("minting token for peer %s: %w", p.Name, err)
			}
			peerToken = token
		}
		ht := p.HoldTime
		if ht == nil {
			ht = holdTime
		}
		action := ribcore.NewLocalPeerCreate(time.Now().UnixMilli(), ribcore.LocalPeerCreatePayload{
			Name:      p.Name,
			Endpoint:  p.Endpoint,
			Domains:   p.Domains,
			PeerToken: peerToken,
			HoldTime:  ht,
		})
		if _, err := q.SubmitWait(ctx, action); err != nil {
			return fmt.Errorf("bootstrapping peer %s: %w", p.Name, err)
		}
	}
	return nil
}

func ribStateHandler(rib *ribcore.RIB) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rib.Current())
	})
}

func snapshotHandler(rib *ribcore.RIB) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snapshot := dataplane.Render(rib.Current(), rib.Metadata())
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(snapshot)
	})
}
