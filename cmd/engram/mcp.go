package engram

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/engramkit/engram"
	"github.com/engramkit/engram/pkg/config"
	"github.com/engramkit/engram/pkg/logger"
	"github.com/engramkit/engram/pkg/mcp"
	"github.com/engramkit/engram/pkg/server/handlers"
	"github.com/engramkit/engram/pkg/store"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Engram MCP server on stdio",
	Long: `Start the Engram MCP server. The server speaks the Model Context
Protocol over stdin/stdout, exposing the knowledge graph tools
(create_entities, search_nodes, read_graph, and the rest) to MCP hosts.

Logs go to stderr or to the configured log file; stdout belongs to the
protocol.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	// Storage flags
	mcpCmd.Flags().String("backend", "jsonl", "Storage backend (jsonl, badger, neo4j, postgres)")
	mcpCmd.Flags().String("dir", "", "Directory holding the memory file")
	mcpCmd.Flags().String("file", "", "Memory file name")
	mcpCmd.Flags().String("badger-dir", "", "Badger database directory")
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	overrideMCPFlags(cmd, cfg)

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

	srv := mcp.New(client, log, handlers.Version)
	if err := srv.ServeStdio(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server error: %w", err)
	}

	log.Info("mcp server stopped")
	return nil
}

func overrideMCPFlags(cmd *cobra.Command, cfg *config.Config) {
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
