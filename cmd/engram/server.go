package engram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/engramkit/engram"
	"github.com/engramkit/engram/pkg/config"
	"github.com/engramkit/engram/pkg/logger"
	"github.com/engramkit/engram/pkg/server"
	"github.com/engramkit/engram/pkg/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Engram HTTP server",
	Long: `Start the Engram HTTP server to provide REST API access to the knowledge graph.

The server provides endpoints for:
- Creating and deleting entities, relations, and observations
- Reading, searching, and opening graph nodes
- Health checks

Configuration can be provided through config files, environment variables, or command-line flags.`,
	RunE: runServe,
}

var (
	serveHost string
	servePort int
	serveMode string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	// Server-specific flags
	serveCmd.Flags().StringVar(&serveHost, "host", "localhost", "Server host")
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Server port")
	serveCmd.Flags().StringVar(&serveMode, "mode", "release", "Server mode (debug, release, test)")

	// Storage flags
	serveCmd.Flags().String("backend", "jsonl", "Storage backend (jsonl, badger, neo4j, postgres)")
	serveCmd.Flags().String("dir", "", "Directory holding the memory file")
	serveCmd.Flags().String("file", "", "Memory file name")
	serveCmd.Flags().String("badger-dir", "", "Badger database directory")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	overrideServeFlags(cmd, cfg)

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, closer, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	if closer != nil {
		defer closer.Close()
	}

	st, err := store.New(cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := engram.New(ctx, st, log)
	if err != nil {
		return fmt.Errorf("failed to load graph: %w", err)
	}
	defer client.Close(context.Background())

	srv := server.New(cfg, client, log)
	srv.Setup()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(),
			time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
		defer cancel()

		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

func overrideServeFlags(cmd *cobra.Command, cfg *config.Config) {
	// Server flags
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serveHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
	}
	if cmd.Flags().Changed("mode") {
		cfg.Server.Mode = serveMode
	}

	// Storage flags
	if cmd.Flags().Changed("backend") {
		cfg.Storage.Backend, _ = cmd.Flags().GetString("backend")
	}
	if cmd.Flags().Changed("dir") {
		cfg.Storage.Dir, _ = cmd.Flags().GetString("dir")
	}
	if cmd.Flags().Changed("file") {
		cfg.Storage.File, _ = cmd.Flags().GetString("file")
	}
	if cmd.Flags().Changed("badger-dir") {
		cfg.Storage.BadgerDir, _ = cmd.Flags().GetString("badger-dir")
	}
}
