package engram

import (
	"context"
	"strings"

	"github.com/elliotchance/pie/v2"

	"github.com/engramkit/engram/pkg/types"
)

// ReadGraph returns a deep copy of the entire graph. Mutating the result
// never affects the client's state.
func (c *Client) ReadGraph(ctx context.Context) (*types.KnowledgeGraph, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked(), nil
}

// SearchNodes returns the entities whose name, type, or any observation
// contains the query, ignoring case, plus the relations whose endpoints
// both matched. An empty or blank query matches nothing.
func (c *Client) SearchNodes(ctx context.Context, query string) (*types.KnowledgeGraph, error) {
	result := types.NewKnowledgeGraph()
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return result, nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	matched := make(map[string]struct{})
	for _, name := range c.order {
		entity := c.entities[name]
		if entityMatches(entity, query) {
			matched[name] = struct{}{}
			result.Entities = append(result.Entities, entity.Clone())
		}
	}
	result.Relations = append(result.Relations, relationsAmong(c.relations, matched)...)
	return result, nil
}

// OpenNodes returns the named entities and the relations connecting them to
// each other. Unknown names are skipped; duplicates in the input are
// collapsed.
func (c *Client) OpenNodes(ctx context.Context, names []string) (*types.KnowledgeGraph, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := types.NewKnowledgeGraph()
	found := make(map[string]struct{}, len(names))
	for _, name := range pie.Unique(names) {
		entity, exists := c.entities[name]
		if !exists {
			continue
		}
		found[name] = struct{}{}
		result.Entities = append(result.Entities, entity.Clone())
	}
	result.Relations = append(result.Relations, relationsAmong(c.relations, found)...)
	return result, nil
}

// Stats summarizes the current graph size.
func (c *Client) Stats(ctx context.Context) (types.GraphStats, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := types.GraphStats{
		EntityCount:   len(c.order),
		RelationCount: len(c.relations),
	}
	for _, entity := range c.entities {
		stats.ObservationCount += len(entity.Observations)
	}
	return stats, nil
}

// entityMatches reports whether the lowercased query appears in the entity
// name, entity type, or any observation.
func entityMatches(entity *types.Entity, query string) bool {
	if strings.Contains(strings.ToLower(entity.Name), query) {
		return true
	}
	if strings.Contains(strings.ToLower(entity.EntityType), query) {
		return true
	}
	for _, observation := range entity.Observations {
		if strings.Contains(strings.ToLower(observation), query) {
			return true
		}
	}
	return false
}

// relationsAmong keeps the relations whose endpoints are both in the given
// name set. Relations reaching outside the set are dropped so the returned
// subgraph is self-contained.
func relationsAmong(relations []types.Relation, names map[string]struct{}) []types.Relation {
	return pie.Filter(relations, func(r types.Relation) bool {
		_, fromOK := names[r.FromEntity]
		_, toOK := names[r.ToEntity]
		return fromOK && toOK
	})
}
