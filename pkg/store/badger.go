package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/engramkit/engram/pkg/types"
)

const (
	entityPrefix   = "entity:"
	relationPrefix = "relation:"
)

// BadgerStore persists the graph in an embedded Badger key-value database.
// Entities are keyed by name, relations by a zero-padded sequence number so
// iteration preserves their insertion order. Entities load in key order,
// which is lexicographic by name rather than insertion order.
type BadgerStore struct {
	db     *badger.DB
	logger *slog.Logger
}

// NewBadgerStore opens (or creates) a Badger database in dir.
func NewBadgerStore(dir string, logger *slog.Logger) (*BadgerStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("badger store: directory cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: open badger at %s: %v", types.ErrStorage, dir, err)
	}
	return &BadgerStore{db: db, logger: logger}, nil
}

func relationKey(seq int) []byte {
	return fmt.Appendf(nil, "%s%012d", relationPrefix, seq)
}

// Load reads every persisted record. An empty database yields an empty
// graph.
func (s *BadgerStore) Load(ctx context.Context) (*types.KnowledgeGraph, error) {
	graph := types.NewKnowledgeGraph()

	err := s.db.View(func(txn *badger.Txn) error {
		if err := scanPrefix(txn, entityPrefix, func(val []byte) error {
			var entity types.Entity
			if err := json.Unmarshal(val, &entity); err != nil {
				return fmt.Errorf("%w: decode entity: %v", types.ErrFormat, err)
			}
			if entity.Observations == nil {
				entity.Observations = []string{}
			}
			graph.Entities = append(graph.Entities, entity)
			return nil
		}); err != nil {
			return err
		}

		return scanPrefix(txn, relationPrefix, func(val []byte) error {
			var relation types.Relation
			if err := json.Unmarshal(val, &relation); err != nil {
				return fmt.Errorf("%w: decode relation: %v", types.ErrFormat, err)
			}
			graph.Relations = append(graph.Relations, relation)
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, types.ErrFormat) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: badger load: %v", types.ErrStorage, err)
	}

	return graph, nil
}

// scanPrefix visits the values of all keys under prefix in key order.
func scanPrefix(txn *badger.Txn, prefix string, visit func(val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		if err := it.Item().Value(visit); err != nil {
			return err
		}
	}
	return nil
}

// Save replaces the persisted graph inside a single transaction, so a crash
// never leaves a half-replaced graph.
func (s *BadgerStore) Save(ctx context.Context, graph *types.KnowledgeGraph) error {
	if graph == nil {
		graph = types.NewKnowledgeGraph()
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		var stale [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			stale = append(stale, it.Item().KeyCopy(nil))
		}
		it.Close()
		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return fmt.Errorf("delete %s: %w", key, err)
			}
		}

		for i := range graph.Entities {
			entity := graph.Entities[i]
			val, err := json.Marshal(entity)
			if err != nil {
				return fmt.Errorf("encode entity %q: %w", entity.Name, err)
			}
			if err := txn.Set([]byte(entityPrefix+entity.Name), val); err != nil {
				return fmt.Errorf("set entity %q: %w", entity.Name, err)
			}
		}
		for i, relation := range graph.Relations {
			val, err := json.Marshal(relation)
			if err != nil {
				return fmt.Errorf("encode relation: %w", err)
			}
			if err := txn.Set(relationKey(i), val); err != nil {
				return fmt.Errorf("set relation %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: badger save: %v", types.ErrStorage, err)
	}

	s.logger.Debug("graph saved",
		"backend", "badger",
		"entities", len(graph.Entities),
		"relations", len(graph.Relations))
	return nil
}

// Close releases the database. The store is unusable afterwards.
func (s *BadgerStore) Close(ctx context.Context) error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("%w: close badger: %v", types.ErrStorage, err)
	}
	return nil
}
