// Package store provides persistence backends for the engram knowledge
// graph.
//
// This package defines the Store interface and implementations for the
// supported backends:
//   - JSONL: One JSON record per line in a single file, the default
//   - Badger: Embedded key-value database
//   - Neo4j: External graph database
//   - Postgres: External relational database
//
// # Model
//
// A Store persists whole graphs. Load returns the complete graph (empty
// when nothing has been persisted yet) and Save atomically replaces the
// previous contents. Backends never merge: the in-memory graph held by the
// client is the source of truth and each Save is a full rewrite.
//
// # Usage
//
// Create a store via the factory:
//
//	st, err := store.New(cfg.Storage, logger)
//	if err != nil {
//	    return err
//	}
//	defer st.Close(ctx)
//
// or construct a backend directly:
//
//	st, err := store.NewJSONLStore("/data/memory.json", logger)
//
// # Failure Semantics
//
// Errors are wrapped with the sentinel kinds from pkg/types: decode problems
// carry types.ErrFormat, uniqueness violations types.ErrDuplicate, and I/O
// or backend failures types.ErrStorage. A failed Save leaves the previously
// persisted graph intact on every backend.
package store
