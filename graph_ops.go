package engram

import (
	"context"
	"fmt"

	"github.com/elliotchance/pie/v2"

	"github.com/engramkit/engram/pkg/types"
)

// CreateEntities adds new entities to the knowledge graph. Entities whose
// name is already taken are skipped, so retrying a batch is harmless. The
// returned slice holds only the entities actually created, in input order.
func (c *Client) CreateEntities(ctx context.Context, entities []types.Entity) ([]types.Entity, error) {
	for i := range entities {
		if err := entities[i].Validate(); err != nil {
			return nil, fmt.Errorf("create entities: %w", err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	before := c.snapshotLocked()
	created := make([]types.Entity, 0, len(entities))
	for i := range entities {
		// Clone also normalizes nil observations to an empty slice.
		entity := entities[i].Clone()
		if _, exists := c.entities[entity.Name]; exists {
			c.logger.Debug("entity already exists, skipping", "name", entity.Name)
			continue
		}
		c.entities[entity.Name] = &entity
		c.order = append(c.order, entity.Name)
		created = append(created, entity.Clone())
	}

	if err := c.persistLocked(ctx, before); err != nil {
		return nil, err
	}
	c.logger.Info("entities created", "requested", len(entities), "created", len(created))
	return created, nil
}

// DeleteEntities removes the named entities and cascades to every relation
// that references a removed entity as either endpoint. Unknown names are
// ignored.
func (c *Client) DeleteEntities(ctx context.Context, names []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	before := c.snapshotLocked()
	doomed := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, exists := c.entities[name]; exists {
			doomed[name] = struct{}{}
			delete(c.entities, name)
		}
	}
	c.order = pie.Filter(c.order, func(name string) bool {
		_, gone := doomed[name]
		return !gone
	})
	c.relations = pie.Filter(c.relations, func(r types.Relation) bool {
		_, fromGone := doomed[r.FromEntity]
		_, toGone := doomed[r.ToEntity]
		return !fromGone && !toGone
	})

	if err := c.persistLocked(ctx, before); err != nil {
		return err
	}
	c.logger.Info("entities deleted", "requested", len(names), "deleted", len(doomed))
	return nil
}

// AddObservations appends observations to existing entities. Observations an
// entity already carries are skipped. Every named entity must exist; a batch
// naming an unknown entity fails as a whole with no effect. The result
// reports, per entry, what was actually added.
func (c *Client) AddObservations(ctx context.Context, entries []types.ObservationEntry) ([]types.ObservationAddition, error) {
	for i := range entries {
		if err := entries[i].Validate(); err != nil {
			return nil, fmt.Errorf("add observations: %w", err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, entry := range entries {
		if _, exists := c.entities[entry.EntityName]; !exists {
			return nil, fmt.Errorf("add observations: %w: %q", types.ErrNotFound, entry.EntityName)
		}
	}

	before := c.snapshotLocked()
	additions := make([]types.ObservationAddition, 0, len(entries))
	for _, entry := range entries {
		entity := c.entities[entry.EntityName]
		added := []string{}
		for _, content := range entry.Contents {
			if entity.HasObservation(content) {
				continue
			}
			entity.Observations = append(entity.Observations, content)
			added = append(added, content)
		}
		additions = append(additions, types.ObservationAddition{
			EntityName: entry.EntityName,
			Added:      added,
		})
	}

	if err := c.persistLocked(ctx, before); err != nil {
		return nil, err
	}
	return additions, nil
}

// DeleteObservations removes specific observations from entities. Entries
// naming unknown entities or absent observations are ignored.
func (c *Client) DeleteObservations(ctx context.Context, entries []types.ObservationDeletion) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	before := c.snapshotLocked()
	for _, entry := range entries {
		entity, exists := c.entities[entry.EntityName]
		if !exists {
			continue
		}
		entity.Observations = pie.Filter(entity.Observations, func(observation string) bool {
			return observation != entry.Observation
		})
	}

	return c.persistLocked(ctx, before)
}

// CreateRelations adds new relations to the knowledge graph. Both endpoints
// of every relation must already exist; a batch referencing an unknown
// entity fails as a whole with no effect. Triples that already exist are
// skipped. The returned slice holds only the relations actually created.
func (c *Client) CreateRelations(ctx context.Context, relations []types.Relation) ([]types.Relation, error) {
	for i := range relations {
		if err := relations[i].Validate(); err != nil {
			return nil, fmt.Errorf("create relations: %w", err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, relation := range relations {
		if _, exists := c.entities[relation.FromEntity]; !exists {
			return nil, fmt.Errorf("create relations: %w: %q", types.ErrNotFound, relation.FromEntity)
		}
		if _, exists := c.entities[relation.ToEntity]; !exists {
			return nil, fmt.Errorf("create relations: %w: %q", types.ErrNotFound, relation.ToEntity)
		}
	}

	before := c.snapshotLocked()
	existing := make(map[types.Relation]struct{}, len(c.relations))
	for _, relation := range c.relations {
		existing[relation] = struct{}{}
	}

	created := make([]types.Relation, 0, len(relations))
	for _, relation := range relations {
		if _, dup := existing[relation]; dup {
			c.logger.Debug("relation already exists, skipping",
				"from", relation.FromEntity,
				"to", relation.ToEntity,
				"type", relation.RelationType)
			continue
		}
		existing[relation] = struct{}{}
		c.relations = append(c.relations, relation)
		created = append(created, relation)
	}

	if err := c.persistLocked(ctx, before); err != nil {
		return nil, err
	}
	c.logger.Info("relations created", "requested", len(relations), "created", len(created))
	return created, nil
}

// DeleteRelations removes relations matching the given triples exactly.
// Triples with no match are ignored.
func (c *Client) DeleteRelations(ctx context.Context, relations []types.Relation) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	before := c.snapshotLocked()
	doomed := make(map[types.Relation]struct{}, len(relations))
	for _, relation := range relations {
		doomed[relation] = struct{}{}
	}
	c.relations = pie.Filter(c.relations, func(r types.Relation) bool {
		_, gone := doomed[r]
		return !gone
	})

	return c.persistLocked(ctx, before)
}

// Clear removes every entity and relation from the graph and persists the
// empty state.
func (c *Client) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	before := c.snapshotLocked()
	c.entities = make(map[string]*types.Entity)
	c.order = c.order[:0]
	c.relations = c.relations[:0]

	if err := c.persistLocked(ctx, before); err != nil {
		return err
	}
	c.logger.Info("knowledge graph cleared",
		"entities", len(before.Entities),
		"relations", len(before.Relations))
	return nil
}
