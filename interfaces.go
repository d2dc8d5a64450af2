package engram

import (
	"context"

	"github.com/engramkit/engram/pkg/types"
)

// GraphClient is the operation surface of the knowledge graph, consumed by
// the HTTP handlers and the MCP tool layer. *Client is the canonical
// implementation.
type GraphClient interface {
	// CreateEntities adds the given entities, silently skipping names that
	// already exist, and returns the entities actually created.
	CreateEntities(ctx context.Context, entities []types.Entity) ([]types.Entity, error)

	// DeleteEntities removes the named entities and every relation touching
	// them. Unknown names are ignored.
	DeleteEntities(ctx context.Context, names []string) error

	// AddObservations appends observations to existing entities, skipping
	// duplicates, and reports what was actually added per entity. The whole
	// batch fails if any named entity does not exist.
	AddObservations(ctx context.Context, entries []types.ObservationEntry) ([]types.ObservationAddition, error)

	// DeleteObservations removes specific observations from entities.
	// Unknown entities and absent observations are ignored.
	DeleteObservations(ctx context.Context, entries []types.ObservationDeletion) error

	// CreateRelations adds the given relations, skipping triples that
	// already exist, and returns the relations actually created. The whole
	// batch fails if any endpoint entity does not exist.
	CreateRelations(ctx context.Context, relations []types.Relation) ([]types.Relation, error)

	// DeleteRelations removes exact relation triples. Non-matching triples
	// are ignored.
	DeleteRelations(ctx context.Context, relations []types.Relation) error

	// ReadGraph returns a deep copy of the entire graph.
	ReadGraph(ctx context.Context) (*types.KnowledgeGraph, error)

	// SearchNodes returns the subgraph of entities matching the query and
	// the relations connecting matched entities to each other.
	SearchNodes(ctx context.Context, query string) (*types.KnowledgeGraph, error)

	// OpenNodes returns the named entities and the relations among them.
	// Unknown names are skipped.
	OpenNodes(ctx context.Context, names []string) (*types.KnowledgeGraph, error)

	// Clear removes everything from the graph.
	Clear(ctx context.Context) error

	// Stats summarizes the current graph size.
	Stats(ctx context.Context) (types.GraphStats, error)

	// Close releases the underlying store.
	Close(ctx context.Context) error
}

var _ GraphClient = (*Client)(nil)
