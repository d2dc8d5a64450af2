package types

import (
	"errors"
	"slices"
)

// Validation errors
var (
	ErrEmptyName         = errors.New("entity name cannot be empty")
	ErrEmptyEntityType   = errors.New("entity_type cannot be empty")
	ErrEmptyFromEntity   = errors.New("from_entity cannot be empty")
	ErrEmptyToEntity     = errors.New("to_entity cannot be empty")
	ErrEmptyRelationType = errors.New("relation_type cannot be empty")
)

// Entity represents a named node in the knowledge graph. The name is the
// primary identifier and must be unique within a graph. Observations are
// discrete statements about the entity, stored in insertion order.
type Entity struct {
	Name         string   `json:"name" mapstructure:"name"`
	EntityType   string   `json:"entity_type" mapstructure:"entity_type"`
	Observations []string `json:"observations" mapstructure:"observations"`
}

// NewEntity creates an Entity, normalizing nil observations to an empty
// slice so the JSON form is always an array.
func NewEntity(name, entityType string, observations []string) Entity {
	if observations == nil {
		observations = []string{}
	}
	return Entity{
		Name:         name,
		EntityType:   entityType,
		Observations: observations,
	}
}

// Validate checks if the entity has all required fields set.
func (e *Entity) Validate() error {
	if e.Name == "" {
		return ErrEmptyName
	}
	if e.EntityType == "" {
		return ErrEmptyEntityType
	}
	return nil
}

// Clone returns a deep copy of the entity.
func (e Entity) Clone() Entity {
	observations := make([]string, len(e.Observations))
	copy(observations, e.Observations)
	clone := e
	clone.Observations = observations
	return clone
}

// HasObservation reports whether the entity already carries the given
// observation.
func (e *Entity) HasObservation(observation string) bool {
	return slices.Contains(e.Observations, observation)
}

// Relation represents a directed, typed edge between two entities. Relations
// are compared by their full (from, to, type) triple.
type Relation struct {
	FromEntity   string `json:"from_entity" mapstructure:"from_entity"`
	ToEntity     string `json:"to_entity" mapstructure:"to_entity"`
	RelationType string `json:"relation_type" mapstructure:"relation_type"`
}

// NewRelation creates a Relation from source to target with the given type.
func NewRelation(fromEntity, toEntity, relationType string) Relation {
	return Relation{
		FromEntity:   fromEntity,
		ToEntity:     toEntity,
		RelationType: relationType,
	}
}

// Validate checks if the relation has all required fields set.
func (r *Relation) Validate() error {
	if r.FromEntity == "" {
		return ErrEmptyFromEntity
	}
	if r.ToEntity == "" {
		return ErrEmptyToEntity
	}
	if r.RelationType == "" {
		return ErrEmptyRelationType
	}
	return nil
}

// KnowledgeGraph is the aggregate wire shape: all entities and all relations.
// Slice order is meaningful and preserved across persistence round trips.
type KnowledgeGraph struct {
	Entities  []Entity   `json:"entities" mapstructure:"entities"`
	Relations []Relation `json:"relations" mapstructure:"relations"`
}

// NewKnowledgeGraph creates an empty graph whose JSON form serializes both
// collections as empty arrays rather than null.
func NewKnowledgeGraph() *KnowledgeGraph {
	return &KnowledgeGraph{
		Entities:  []Entity{},
		Relations: []Relation{},
	}
}

// Clone returns a deep copy of the graph.
func (g *KnowledgeGraph) Clone() *KnowledgeGraph {
	clone := &KnowledgeGraph{
		Entities:  make([]Entity, 0, len(g.Entities)),
		Relations: make([]Relation, 0, len(g.Relations)),
	}
	for _, entity := range g.Entities {
		clone.Entities = append(clone.Entities, entity.Clone())
	}
	clone.Relations = append(clone.Relations, g.Relations...)
	return clone
}

// FindEntity returns the entity with the given name, if present.
func (g *KnowledgeGraph) FindEntity(name string) (Entity, bool) {
	for _, entity := range g.Entities {
		if entity.Name == name {
			return entity, true
		}
	}
	return Entity{}, false
}

// HasRelation reports whether the graph contains the exact relation triple.
func (g *KnowledgeGraph) HasRelation(relation Relation) bool {
	return slices.Contains(g.Relations, relation)
}

// ObservationEntry is one batch item for adding observations: the target
// entity and the contents to append.
type ObservationEntry struct {
	EntityName string   `json:"entity_name" mapstructure:"entity_name"`
	Contents   []string `json:"contents" mapstructure:"contents"`
}

// Validate checks if the entry names a target entity.
func (o *ObservationEntry) Validate() error {
	if o.EntityName == "" {
		return ErrEmptyName
	}
	return nil
}

// ObservationAddition reports the observations actually appended to one
// entity, excluding duplicates that were already present.
type ObservationAddition struct {
	EntityName string   `json:"entity_name" mapstructure:"entity_name"`
	Added      []string `json:"added_observations" mapstructure:"added_observations"`
}

// ObservationDeletion identifies a single observation to remove from an
// entity.
type ObservationDeletion struct {
	EntityName  string `json:"entity_name" mapstructure:"entity_name"`
	Observation string `json:"observation" mapstructure:"observation"`
}

// GraphStats summarizes the size of a graph.
type GraphStats struct {
	EntityCount      int `json:"entity_count" mapstructure:"entity_count"`
	RelationCount    int `json:"relation_count" mapstructure:"relation_count"`
	ObservationCount int `json:"observation_count" mapstructure:"observation_count"`
}
