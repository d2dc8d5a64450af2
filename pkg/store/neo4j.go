package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"

	"github.com/engramkit/engram/pkg/config"
	"github.com/engramkit/engram/pkg/types"
)

// Neo4jStore persists the graph in a Neo4j database. Entities become
// (:Entity) nodes and relations become [:RELATES] relationships carrying the
// relation type as a property, so arbitrary relation type strings never
// reach Cypher syntax. A seq property on both preserves insertion order.
type Neo4jStore struct {
	client   neo4j.DriverWithContext
	database string
	logger   *slog.Logger
}

// NewNeo4jStore creates a store connected per cfg. The connection is
// validated lazily on first use.
func NewNeo4jStore(cfg config.Neo4jConfig, logger *slog.Logger) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("%w: create neo4j driver: %v", types.ErrStorage, err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	database := cfg.Database
	if database == "" {
		database = "neo4j"
	}

	return &Neo4jStore{
		client:   driver,
		database: database,
		logger:   logger,
	}, nil
}

// Load reads all entities and relations, ordered by their persisted
// sequence numbers.
func (s *Neo4jStore) Load(ctx context.Context) (*types.KnowledgeGraph, error) {
	session := s.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		graph := types.NewKnowledgeGraph()

		res, err := tx.Run(ctx, `
			MATCH (n:Entity)
			RETURN n.name AS name, n.entity_type AS entity_type, n.observations AS observations
			ORDER BY n.seq
		`, nil)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		for _, record := range records {
			entity, err := entityFromRecord(record)
			if err != nil {
				return nil, err
			}
			graph.Entities = append(graph.Entities, entity)
		}

		res, err = tx.Run(ctx, `
			MATCH (a:Entity)-[r:RELATES]->(b:Entity)
			RETURN a.name AS from_entity, b.name AS to_entity, r.relation_type AS relation_type
			ORDER BY r.seq
		`, nil)
		if err != nil {
			return nil, err
		}
		records, err = res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		for _, record := range records {
			relation, err := relationFromRecord(record)
			if err != nil {
				return nil, err
			}
			graph.Relations = append(graph.Relations, relation)
		}

		return graph, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: neo4j load: %v", types.ErrStorage, err)
	}

	return result.(*types.KnowledgeGraph), nil
}

// Save replaces the persisted graph in a single managed transaction: every
// Entity node is detached and deleted, then the new graph is recreated.
func (s *Neo4jStore) Save(ctx context.Context, graph *types.KnowledgeGraph) error {
	if graph == nil {
		graph = types.NewKnowledgeGraph()
	}

	session := s.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, `MATCH (n:Entity) DETACH DELETE n`, nil); err != nil {
			return nil, err
		}

		for i := range graph.Entities {
			entity := graph.Entities[i]
			observations := entity.Observations
			if observations == nil {
				observations = []string{}
			}
			_, err := tx.Run(ctx, `
				CREATE (n:Entity {name: $name, entity_type: $entity_type, observations: $observations, seq: $seq})
			`, map[string]any{
				"name":         entity.Name,
				"entity_type":  entity.EntityType,
				"observations": observations,
				"seq":          i,
			})
			if err != nil {
				return nil, err
			}
		}

		for i, relation := range graph.Relations {
			_, err := tx.Run(ctx, `
				MATCH (a:Entity {name: $from_entity}), (b:Entity {name: $to_entity})
				CREATE (a)-[:RELATES {relation_type: $relation_type, seq: $seq}]->(b)
			`, map[string]any{
				"from_entity":   relation.FromEntity,
				"to_entity":     relation.ToEntity,
				"relation_type": relation.RelationType,
				"seq":           i,
			})
			if err != nil {
				return nil, err
			}
		}

		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("%w: neo4j save: %v", types.ErrStorage, err)
	}

	s.logger.Debug("graph saved",
		"backend", "neo4j",
		"entities", len(graph.Entities),
		"relations", len(graph.Relations))
	return nil
}

// Close shuts down the underlying driver and its connection pool.
func (s *Neo4jStore) Close(ctx context.Context) error {
	if err := s.client.Close(ctx); err != nil {
		return fmt.Errorf("%w: close neo4j driver: %v", types.ErrStorage, err)
	}
	return nil
}

func entityFromRecord(record *db.Record) (types.Entity, error) {
	name, err := stringColumn(record, "name")
	if err != nil {
		return types.Entity{}, err
	}
	entityType, err := stringColumn(record, "entity_type")
	if err != nil {
		return types.Entity{}, err
	}
	observations, err := stringSliceColumn(record, "observations")
	if err != nil {
		return types.Entity{}, err
	}
	return types.NewEntity(name, entityType, observations), nil
}

func relationFromRecord(record *db.Record) (types.Relation, error) {
	fromEntity, err := stringColumn(record, "from_entity")
	if err != nil {
		return types.Relation{}, err
	}
	toEntity, err := stringColumn(record, "to_entity")
	if err != nil {
		return types.Relation{}, err
	}
	relationType, err := stringColumn(record, "relation_type")
	if err != nil {
		return types.Relation{}, err
	}
	return types.NewRelation(fromEntity, toEntity, relationType), nil
}

func stringColumn(record *db.Record, key string) (string, error) {
	value, found := record.Get(key)
	if !found || value == nil {
		return "", fmt.Errorf("%w: missing column %q", types.ErrFormat, key)
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%w: column %q: got %T, expected string", types.ErrFormat, key, value)
	}
	return s, nil
}

func stringSliceColumn(record *db.Record, key string) ([]string, error) {
	value, found := record.Get(key)
	if !found || value == nil {
		return []string{}, nil
	}
	items, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: column %q: got %T, expected list", types.ErrFormat, key, value)
	}
	result := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%w: column %q: list item %T, expected string", types.ErrFormat, key, item)
		}
		result = append(result, s)
	}
	return result, nil
}
