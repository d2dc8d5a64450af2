package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/engramkit/engram/pkg/config"
	"github.com/engramkit/engram/pkg/types"
)

// Backend identifies a storage backend implementation.
type Backend string

const (
	// BackendJSONL persists the graph as line-delimited JSON in a single
	// file. This is the default and the only backend with a stable,
	// human-readable on-disk format.
	BackendJSONL Backend = "jsonl"

	// BackendBadger persists the graph in an embedded Badger database.
	BackendBadger Backend = "badger"

	// BackendNeo4j persists the graph in an external Neo4j database.
	BackendNeo4j Backend = "neo4j"

	// BackendPostgres persists the graph in an external PostgreSQL database.
	BackendPostgres Backend = "postgres"
)

// Store reads and writes complete knowledge graphs. Load returns an empty
// graph when no data has been persisted yet. Save replaces the persisted
// graph atomically; a failed Save must leave the previous state intact.
type Store interface {
	Load(ctx context.Context) (*types.KnowledgeGraph, error)
	Save(ctx context.Context, graph *types.KnowledgeGraph) error
	Close(ctx context.Context) error
}

// New builds the store selected by cfg.Backend, wrapped with a circuit
// breaker when one is configured.
func New(cfg config.StorageConfig, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		st  Store
		err error
	)
	switch Backend(cfg.Backend) {
	case BackendJSONL, "":
		path, perr := cfg.ResolvePath()
		if perr != nil {
			return nil, perr
		}
		st, err = NewJSONLStore(path, logger)
	case BackendBadger:
		st, err = NewBadgerStore(cfg.BadgerDir, logger)
	case BackendNeo4j:
		st, err = NewNeo4jStore(cfg.Neo4j, logger)
	case BackendPostgres:
		st, err = NewPostgresStore(cfg.Postgres, logger)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	if cfg.CircuitBreaker.Enabled {
		st = NewBreakerStore(st, cfg.CircuitBreaker, logger)
	}
	return st, nil
}
