// Package engram provides a persistent knowledge graph memory for AI agents.
//
// Engram stores a graph of named entities, free-text observations attached
// to them, and directed typed relations between them. The graph lives in
// memory behind a read-write lock and is written through to a pluggable
// storage backend after every successful mutation, so the persisted state
// always reflects the last completed operation.
//
// # Basic Usage
//
// Create a store, then a client:
//
//	st, err := store.NewJSONLStore("memory.json", logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//	client, err := engram.New(ctx, st, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close(ctx)
//
//	created, err := client.CreateEntities(ctx, []types.Entity{
//		{Name: "alice", EntityType: "person", Observations: []string{"likes go"}},
//	})
//
// # Identity and Idempotence
//
// Entity names are unique; creating an existing name is a no-op and the
// entity is simply absent from the returned created slice. Relations are
// identified by their full (from, to, type) triple, and duplicate triples
// are skipped the same way. Deletions of things that do not exist are
// no-ops. Only AddObservations and CreateRelations demand that referenced
// entities exist; they fail their whole batch with an error wrapping
// types.ErrNotFound otherwise.
//
// # Transactional Batches
//
// Every mutating operation validates its whole batch, applies it in memory,
// and persists the complete graph once. If validation, a referenced-entity
// check, or the save fails, memory is rolled back and the persisted file is
// untouched: a batch either fully lands or leaves no trace.
//
// # Reading
//
// ReadGraph, SearchNodes, and OpenNodes return deep copies under a read
// lock; concurrent readers never block each other. SearchNodes matches
// case-insensitive substrings against names, types, and observations, and
// returns only relations whose endpoints both matched.
//
// # Architecture
//
//   - pkg/types: Core data types and error kinds
//   - pkg/store: Storage backends (JSONL file, Badger, Neo4j, PostgreSQL)
//   - pkg/config: Configuration loading and validation
//   - pkg/server: HTTP API
//   - pkg/mcp: Model Context Protocol server over stdio
package engram
