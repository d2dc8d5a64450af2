package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/engramkit/engram/pkg/config"
	"github.com/engramkit/engram/pkg/types"
)

// Connection pool sizing for the postgres backend. The whole graph moves in
// a single Load or Save, so a small pool is plenty.
const (
	pgMaxOpenConns    = 25
	pgMaxIdleConns    = 5
	pgConnMaxLifetime = 5 * time.Minute
)

// PostgresStore persists the graph in a PostgreSQL database. Entities and
// relations live in two tables; a seq column on each preserves insertion
// order, and observations are stored as a JSONB array.
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore opens a connection pool for cfg.DSN, verifies the server
// is reachable and ensures the schema exists.
func NewPostgresStore(cfg config.PostgresConfig, logger *slog.Logger) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres store: dsn cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: open postgres: %v", types.ErrStorage, err)
	}
	db.SetMaxOpenConns(pgMaxOpenConns)
	db.SetMaxIdleConns(pgMaxIdleConns)
	db.SetConnMaxLifetime(pgConnMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping postgres: %v", types.ErrStorage, err)
	}

	s := &PostgresStore{db: db, logger: logger}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: init postgres schema: %v", types.ErrStorage, err)
	}
	return s, nil
}

func (s *PostgresStore) initSchema() error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS entities (
			name         TEXT PRIMARY KEY,
			entity_type  TEXT NOT NULL,
			observations JSONB NOT NULL DEFAULT '[]',
			seq          INT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS relations (
			from_entity   TEXT NOT NULL,
			to_entity     TEXT NOT NULL,
			relation_type TEXT NOT NULL,
			seq           INT NOT NULL,
			PRIMARY KEY (from_entity, to_entity, relation_type)
		)`,
	}
	for _, stmt := range tables {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Load reads all entities and relations, ordered by their persisted
// sequence numbers.
func (s *PostgresStore) Load(ctx context.Context) (*types.KnowledgeGraph, error) {
	graph := types.NewKnowledgeGraph()

	if err := s.loadEntities(ctx, graph); err != nil {
		if errors.Is(err, types.ErrFormat) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: postgres load: %v", types.ErrStorage, err)
	}
	if err := s.loadRelations(ctx, graph); err != nil {
		return nil, fmt.Errorf("%w: postgres load: %v", types.ErrStorage, err)
	}

	return graph, nil
}

func (s *PostgresStore) loadEntities(ctx context.Context, graph *types.KnowledgeGraph) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, entity_type, observations FROM entities ORDER BY seq`)
	if err != nil {
		return fmt.Errorf("query entities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name, entityType string
			rawObservations  []byte
		)
		if err := rows.Scan(&name, &entityType, &rawObservations); err != nil {
			return fmt.Errorf("scan entity: %w", err)
		}
		var observations []string
		if len(rawObservations) > 0 {
			if err := json.Unmarshal(rawObservations, &observations); err != nil {
				return fmt.Errorf("%w: decode observations for %q: %v", types.ErrFormat, name, err)
			}
		}
		graph.Entities = append(graph.Entities, types.NewEntity(name, entityType, observations))
	}
	return rows.Err()
}

func (s *PostgresStore) loadRelations(ctx context.Context, graph *types.KnowledgeGraph) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT from_entity, to_entity, relation_type FROM relations ORDER BY seq`)
	if err != nil {
		return fmt.Errorf("query relations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var fromEntity, toEntity, relationType string
		if err := rows.Scan(&fromEntity, &toEntity, &relationType); err != nil {
			return fmt.Errorf("scan relation: %w", err)
		}
		graph.Relations = append(graph.Relations, types.NewRelation(fromEntity, toEntity, relationType))
	}
	return rows.Err()
}

// Save replaces the persisted graph in a single transaction: both tables are
// emptied, then the new graph is inserted row by row.
func (s *PostgresStore) Save(ctx context.Context, graph *types.KnowledgeGraph) error {
	if graph == nil {
		graph = types.NewKnowledgeGraph()
	}

	if err := s.replaceAll(ctx, graph); err != nil {
		return fmt.Errorf("%w: postgres save: %v", types.ErrStorage, err)
	}

	s.logger.Debug("graph saved",
		"backend", "postgres",
		"entities", len(graph.Entities),
		"relations", len(graph.Relations))
	return nil
}

func (s *PostgresStore) replaceAll(ctx context.Context, graph *types.KnowledgeGraph) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"relations", "entities"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	entityStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entities (name, entity_type, observations, seq) VALUES ($1, $2, $3, $4)`)
	if err != nil {
		return fmt.Errorf("prepare entity insert: %w", err)
	}
	defer entityStmt.Close()

	for i := range graph.Entities {
		entity := graph.Entities[i]
		observations := entity.Observations
		if observations == nil {
			observations = []string{}
		}
		raw, err := json.Marshal(observations)
		if err != nil {
			return fmt.Errorf("encode observations for %q: %w", entity.Name, err)
		}
		if _, err := entityStmt.ExecContext(ctx, entity.Name, entity.EntityType, raw, i); err != nil {
			return fmt.Errorf("insert entity %q: %w", entity.Name, err)
		}
	}

	relationStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO relations (from_entity, to_entity, relation_type, seq) VALUES ($1, $2, $3, $4)`)
	if err != nil {
		return fmt.Errorf("prepare relation insert: %w", err)
	}
	defer relationStmt.Close()

	for i, relation := range graph.Relations {
		if _, err := relationStmt.ExecContext(ctx, relation.FromEntity, relation.ToEntity, relation.RelationType, i); err != nil {
			return fmt.Errorf("insert relation %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close releases the connection pool. The store is unusable afterwards.
func (s *PostgresStore) Close(ctx context.Context) error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("%w: close postgres: %v", types.ErrStorage, err)
	}
	return nil
}
