// Package types defines the core data types for the engram knowledge graph.
//
// This package contains the fundamental types used throughout engram:
//   - Entity: A named, typed node carrying free-text observations
//   - Relation: A directed, typed edge between two entities
//   - KnowledgeGraph: The aggregate of all entities and relations
//   - ObservationEntry/ObservationAddition/ObservationDeletion: Batch
//     shapes for observation operations
//
// # Identity
//
// Entities are identified by name alone; creating an entity whose name is
// already taken is a no-op. Relations are identified by their full
// (from_entity, to_entity, relation_type) triple, so two entities may be
// connected by any number of differently typed relations.
//
// # Validation
//
// Types provide Validate() methods for input validation:
//
//	entity := types.NewEntity("alice", "person", nil)
//	if err := entity.Validate(); err != nil {
//	    // Handle validation error
//	}
//
// # Error Kinds
//
// The package also declares the error sentinels shared by the client and the
// storage backends (ErrNotFound, ErrDuplicate, ErrStorage, ErrFormat).
// Errors are wrapped with fmt.Errorf and %w, so callers should test them
// with errors.Is rather than direct comparison.
package types
