package types

import (
	"errors"
	"testing"
)

func TestEntityValidate(t *testing.T) {
	tests := []struct {
		name    string
		entity  Entity
		wantErr error
	}{
		{
			name:    "valid entity",
			entity:  NewEntity("alice", "person", []string{"likes go"}),
			wantErr: nil,
		},
		{
			name:    "valid entity without observations",
			entity:  NewEntity("bob", "person", nil),
			wantErr: nil,
		},
		{
			name:    "missing name",
			entity:  Entity{EntityType: "person"},
			wantErr: ErrEmptyName,
		},
		{
			name:    "missing entity type",
			entity:  Entity{Name: "alice"},
			wantErr: ErrEmptyEntityType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entity.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRelationValidate(t *testing.T) {
	tests := []struct {
		name     string
		relation Relation
		wantErr  error
	}{
		{
			name:     "valid relation",
			relation: NewRelation("alice", "bob", "knows"),
			wantErr:  nil,
		},
		{
			name:     "missing from entity",
			relation: Relation{ToEntity: "bob", RelationType: "knows"},
			wantErr:  ErrEmptyFromEntity,
		},
		{
			name:     "missing to entity",
			relation: Relation{FromEntity: "alice", RelationType: "knows"},
			wantErr:  ErrEmptyToEntity,
		},
		{
			name:     "missing relation type",
			relation: Relation{FromEntity: "alice", ToEntity: "bob"},
			wantErr:  ErrEmptyRelationType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.relation.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewEntityNormalizesObservations(t *testing.T) {
	entity := NewEntity("alice", "person", nil)
	if entity.Observations == nil {
		t.Fatal("NewEntity() should initialize observations to an empty slice")
	}
	if len(entity.Observations) != 0 {
		t.Errorf("NewEntity() observations = %v, want empty", entity.Observations)
	}
}

func TestEntityClone(t *testing.T) {
	original := NewEntity("alice", "person", []string{"likes go"})
	clone := original.Clone()

	clone.Observations[0] = "changed"
	clone.Observations = append(clone.Observations, "extra")

	if original.Observations[0] != "likes go" {
		t.Errorf("Clone() shares observation storage with the original")
	}
	if len(original.Observations) != 1 {
		t.Errorf("Clone() mutated original observations, got %v", original.Observations)
	}
}

func TestEntityHasObservation(t *testing.T) {
	entity := NewEntity("alice", "person", []string{"likes go", "works remotely"})

	if !entity.HasObservation("likes go") {
		t.Error("HasObservation() = false for a present observation")
	}
	if entity.HasObservation("Likes Go") {
		t.Error("HasObservation() should be case sensitive")
	}
	if entity.HasObservation("unknown") {
		t.Error("HasObservation() = true for an absent observation")
	}
}

func TestKnowledgeGraphClone(t *testing.T) {
	graph := NewKnowledgeGraph()
	graph.Entities = append(graph.Entities, NewEntity("alice", "person", []string{"likes go"}))
	graph.Relations = append(graph.Relations, NewRelation("alice", "alice", "self"))

	clone := graph.Clone()
	clone.Entities[0].Observations[0] = "changed"
	clone.Entities = append(clone.Entities, NewEntity("bob", "person", nil))
	clone.Relations[0].RelationType = "changed"

	if graph.Entities[0].Observations[0] != "likes go" {
		t.Error("Clone() shares entity observations with the original")
	}
	if len(graph.Entities) != 1 {
		t.Errorf("Clone() mutated original entities, got %d", len(graph.Entities))
	}
	if graph.Relations[0].RelationType != "self" {
		t.Error("Clone() shares relation storage with the original")
	}
}

func TestKnowledgeGraphFindEntity(t *testing.T) {
	graph := NewKnowledgeGraph()
	graph.Entities = append(graph.Entities, NewEntity("alice", "person", nil))

	if _, ok := graph.FindEntity("alice"); !ok {
		t.Error("FindEntity() did not find an existing entity")
	}
	if _, ok := graph.FindEntity("bob"); ok {
		t.Error("FindEntity() found a missing entity")
	}
}

func TestKnowledgeGraphHasRelation(t *testing.T) {
	graph := NewKnowledgeGraph()
	graph.Relations = append(graph.Relations, NewRelation("alice", "bob", "knows"))

	if !graph.HasRelation(NewRelation("alice", "bob", "knows")) {
		t.Error("HasRelation() = false for a present triple")
	}
	if graph.HasRelation(NewRelation("alice", "bob", "likes")) {
		t.Error("HasRelation() should match the full triple, including type")
	}
	if graph.HasRelation(NewRelation("bob", "alice", "knows")) {
		t.Error("HasRelation() should respect relation direction")
	}
}

func TestObservationEntryValidate(t *testing.T) {
	tests := []struct {
		name    string
		entry   ObservationEntry
		wantErr error
	}{
		{
			name:    "valid entry",
			entry:   ObservationEntry{EntityName: "alice", Contents: []string{"x"}},
			wantErr: nil,
		},
		{
			name:    "missing entity name",
			entry:   ObservationEntry{Contents: []string{"x"}},
			wantErr: ErrEmptyName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsValidation(t *testing.T) {
	if !IsValidation(ErrEmptyName) {
		t.Error("IsValidation(ErrEmptyName) = false")
	}
	if !IsValidation(ErrEmptyRelationType) {
		t.Error("IsValidation(ErrEmptyRelationType) = false")
	}
	if IsValidation(ErrNotFound) {
		t.Error("IsValidation(ErrNotFound) = true")
	}
	if IsValidation(nil) {
		t.Error("IsValidation(nil) = true")
	}
}
