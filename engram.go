package engram

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/engramkit/engram/pkg/store"
	"github.com/engramkit/engram/pkg/types"
)

// Client is the core knowledge graph manager. It holds the authoritative
// graph in memory, serializes access with a read-write lock, and persists
// the whole graph through its Store after every successful mutation.
//
// Entities are indexed by name; insertion order is tracked separately so
// reads and saves list entities in the order they were created.
type Client struct {
	store  store.Store
	logger *slog.Logger

	mu        sync.RWMutex
	entities  map[string]*types.Entity
	order     []string
	relations []types.Relation
}

// New creates a Client and loads the persisted graph through st. A store
// with nothing persisted yields an empty graph.
func New(ctx context.Context, st store.Store, logger *slog.Logger) (*Client, error) {
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := &Client{
		store:    st,
		logger:   logger,
		entities: make(map[string]*types.Entity),
	}

	graph, err := st.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}
	client.restoreLocked(graph)

	logger.Info("knowledge graph loaded",
		"entities", len(client.order),
		"relations", len(client.relations))
	return client, nil
}

// Close releases the underlying store.
func (c *Client) Close(ctx context.Context) error {
	return c.store.Close(ctx)
}

// snapshotLocked deep-copies the in-memory state into a wire graph,
// entities in insertion order followed by relations. Callers must hold mu
// at least for reading.
func (c *Client) snapshotLocked() *types.KnowledgeGraph {
	graph := types.NewKnowledgeGraph()
	for _, name := range c.order {
		graph.Entities = append(graph.Entities, c.entities[name].Clone())
	}
	graph.Relations = append(graph.Relations, c.relations...)
	return graph
}

// restoreLocked replaces the in-memory state with the given graph, taking
// ownership of it. Callers must hold mu for writing (or be inside New).
func (c *Client) restoreLocked(graph *types.KnowledgeGraph) {
	c.entities = make(map[string]*types.Entity, len(graph.Entities))
	c.order = c.order[:0]
	for i := range graph.Entities {
		entity := graph.Entities[i]
		if entity.Observations == nil {
			entity.Observations = []string{}
		}
		c.entities[entity.Name] = &entity
		c.order = append(c.order, entity.Name)
	}
	c.relations = append(c.relations[:0], graph.Relations...)
}

// persistLocked saves the current state. When the store rejects the save,
// memory is rolled back to the given pre-mutation snapshot so a failed
// batch leaves no partial effects. Callers must hold mu for writing.
func (c *Client) persistLocked(ctx context.Context, before *types.KnowledgeGraph) error {
	if err := c.store.Save(ctx, c.snapshotLocked()); err != nil {
		c.restoreLocked(before)
		return fmt.Errorf("failed to persist graph: %w", err)
	}
	return nil
}
