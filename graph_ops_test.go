package engram

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engramkit/engram/pkg/types"
)

func TestCreateEntities(t *testing.T) {
	ctx := context.Background()
	client, st := newTestClient(t)

	created, err := client.CreateEntities(ctx, []types.Entity{
		{Name: "alice", EntityType: "person", Observations: []string{"likes go"}},
		{Name: "bob", EntityType: "person"},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.NotNil(t, created[1].Observations, "observations must be normalized to an empty slice")

	saved := st.saved()
	assert.Len(t, saved.Entities, 2)
	assert.Equal(t, 1, st.saves, "one batch should persist exactly once")
}

func TestCreateEntitiesSkipsExisting(t *testing.T) {
	ctx := context.Background()
	client, _ := seedClient(t)

	created, err := client.CreateEntities(ctx, []types.Entity{
		{Name: "alice", EntityType: "robot", Observations: []string{"override attempt"}},
		{Name: "dave", EntityType: "person"},
	})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "dave", created[0].Name)

	// The existing entity is untouched.
	graph, err := client.ReadGraph(ctx)
	require.NoError(t, err)
	alice, found := graph.FindEntity("alice")
	require.True(t, found)
	assert.Equal(t, "person", alice.EntityType)
	assert.Equal(t, []string{"likes go"}, alice.Observations)
}

func TestCreateEntitiesIsIdempotent(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)

	batch := []types.Entity{{Name: "alice", EntityType: "person"}}
	first, err := client.CreateEntities(ctx, batch)
	require.NoError(t, err)
	assert.Len(t, first, 1)

	second, err := client.CreateEntities(ctx, batch)
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestCreateEntitiesValidation(t *testing.T) {
	ctx := context.Background()
	client, st := seedClient(t)
	savesBefore := st.saves

	tests := []struct {
		name    string
		entity  types.Entity
		wantErr error
	}{
		{name: "empty name", entity: types.Entity{EntityType: "person"}, wantErr: types.ErrEmptyName},
		{name: "empty type", entity: types.Entity{Name: "x"}, wantErr: types.ErrEmptyEntityType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.CreateEntities(ctx, []types.Entity{tt.entity})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Equal(t, savesBefore, st.saves, "rejected batches must not persist")
}

func TestDeleteEntitiesCascadesRelations(t *testing.T) {
	ctx := context.Background()
	client, st := seedClient(t)

	require.NoError(t, client.DeleteEntities(ctx, []string{"alice"}))

	graph, err := client.ReadGraph(ctx)
	require.NoError(t, err)
	assert.Len(t, graph.Entities, 2)
	assert.Empty(t, graph.Relations, "every relation touching a deleted entity must go")

	saved := st.saved()
	assert.Empty(t, saved.Relations)
}

func TestDeleteEntitiesIgnoresUnknown(t *testing.T) {
	ctx := context.Background()
	client, _ := seedClient(t)

	require.NoError(t, client.DeleteEntities(ctx, []string{"nobody", "bob"}))

	graph, err := client.ReadGraph(ctx)
	require.NoError(t, err)
	assert.Len(t, graph.Entities, 2)
	_, found := graph.FindEntity("bob")
	assert.False(t, found)
}

func TestAddObservations(t *testing.T) {
	ctx := context.Background()
	client, _ := seedClient(t)

	additions, err := client.AddObservations(ctx, []types.ObservationEntry{
		{EntityName: "alice", Contents: []string{"likes go", "mentors bob"}},
		{EntityName: "bob", Contents: []string{"new hire"}},
	})
	require.NoError(t, err)
	require.Len(t, additions, 2)

	// "likes go" was already present, only the new observation is reported.
	assert.Equal(t, []string{"mentors bob"}, additions[0].Added)
	assert.Equal(t, []string{"new hire"}, additions[1].Added)

	graph, err := client.ReadGraph(ctx)
	require.NoError(t, err)
	alice, _ := graph.FindEntity("alice")
	assert.Equal(t, []string{"likes go", "mentors bob"}, alice.Observations)
}

func TestAddObservationsUnknownEntityFailsBatch(t *testing.T) {
	ctx := context.Background()
	client, st := seedClient(t)
	savesBefore := st.saves

	_, err := client.AddObservations(ctx, []types.ObservationEntry{
		{EntityName: "alice", Contents: []string{"should not land"}},
		{EntityName: "nobody", Contents: []string{"x"}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrNotFound)

	graph, err := client.ReadGraph(ctx)
	require.NoError(t, err)
	alice, _ := graph.FindEntity("alice")
	assert.Equal(t, []string{"likes go"}, alice.Observations, "failed batch must not partially apply")
	assert.Equal(t, savesBefore, st.saves)
}

func TestAddObservationsDedupesWithinBatch(t *testing.T) {
	ctx := context.Background()
	client, _ := seedClient(t)

	additions, err := client.AddObservations(ctx, []types.ObservationEntry{
		{EntityName: "bob", Contents: []string{"same", "same"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"same"}, additions[0].Added)
}

func TestDeleteObservations(t *testing.T) {
	ctx := context.Background()
	client, _ := seedClient(t)

	err := client.DeleteObservations(ctx, []types.ObservationDeletion{
		{EntityName: "alice", Observation: "likes go"},
		{EntityName: "alice", Observation: "never existed"},
		{EntityName: "nobody", Observation: "x"},
	})
	require.NoError(t, err, "unknown entities and absent observations are no-ops")

	graph, err := client.ReadGraph(ctx)
	require.NoError(t, err)
	alice, _ := graph.FindEntity("alice")
	assert.Empty(t, alice.Observations)
}

func TestCreateRelationsSkipsDuplicates(t *testing.T) {
	ctx := context.Background()
	client, _ := seedClient(t)

	created, err := client.CreateRelations(ctx, []types.Relation{
		{FromEntity: "alice", ToEntity: "bob", RelationType: "knows"},
		{FromEntity: "bob", ToEntity: "alice", RelationType: "knows"},
		{FromEntity: "alice", ToEntity: "bob", RelationType: "mentors"},
	})
	require.NoError(t, err)

	want := []types.Relation{
		{FromEntity: "bob", ToEntity: "alice", RelationType: "knows"},
		{FromEntity: "alice", ToEntity: "bob", RelationType: "mentors"},
	}
	if diff := cmp.Diff(want, created); diff != "" {
		t.Errorf("created relations mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateRelationsDedupesWithinBatch(t *testing.T) {
	ctx := context.Background()
	client, _ := seedClient(t)

	created, err := client.CreateRelations(ctx, []types.Relation{
		{FromEntity: "bob", ToEntity: "acme", RelationType: "works_at"},
		{FromEntity: "bob", ToEntity: "acme", RelationType: "works_at"},
	})
	require.NoError(t, err)
	assert.Len(t, created, 1)
}

func TestCreateRelationsUnknownEndpointFailsBatch(t *testing.T) {
	ctx := context.Background()
	client, st := seedClient(t)
	savesBefore := st.saves

	_, err := client.CreateRelations(ctx, []types.Relation{
		{FromEntity: "alice", ToEntity: "bob", RelationType: "mentors"},
		{FromEntity: "alice", ToEntity: "nobody", RelationType: "knows"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrNotFound)

	graph, err := client.ReadGraph(ctx)
	require.NoError(t, err)
	assert.Len(t, graph.Relations, 2, "failed batch must not partially apply")
	assert.Equal(t, savesBefore, st.saves)
}

func TestCreateRelationsValidation(t *testing.T) {
	ctx := context.Background()
	client, _ := seedClient(t)

	_, err := client.CreateRelations(ctx, []types.Relation{
		{FromEntity: "alice", ToEntity: "bob"},
	})
	assert.ErrorIs(t, err, types.ErrEmptyRelationType)
}

func TestDeleteRelationsMatchesExactTriple(t *testing.T) {
	ctx := context.Background()
	client, _ := seedClient(t)

	// Wrong type: nothing happens.
	require.NoError(t, client.DeleteRelations(ctx, []types.Relation{
		{FromEntity: "alice", ToEntity: "bob", RelationType: "mentors"},
	}))
	graph, err := client.ReadGraph(ctx)
	require.NoError(t, err)
	assert.Len(t, graph.Relations, 2)

	// Exact triple: removed.
	require.NoError(t, client.DeleteRelations(ctx, []types.Relation{
		{FromEntity: "alice", ToEntity: "bob", RelationType: "knows"},
	}))
	graph, err = client.ReadGraph(ctx)
	require.NoError(t, err)
	require.Len(t, graph.Relations, 1)
	assert.Equal(t, "works_at", graph.Relations[0].RelationType)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	client, st := seedClient(t)

	require.NoError(t, client.Clear(ctx))

	graph, err := client.ReadGraph(ctx)
	require.NoError(t, err)
	assert.Empty(t, graph.Entities)
	assert.Empty(t, graph.Relations)

	saved := st.saved()
	assert.Empty(t, saved.Entities)
	assert.Empty(t, saved.Relations)
}

func TestMutationsPersistInsertionOrder(t *testing.T) {
	ctx := context.Background()
	client, st := newTestClient(t)

	_, err := client.CreateEntities(ctx, []types.Entity{
		{Name: "zeta", EntityType: "thing"},
		{Name: "alpha", EntityType: "thing"},
		{Name: "mid", EntityType: "thing"},
	})
	require.NoError(t, err)

	saved := st.saved()
	names := make([]string, 0, len(saved.Entities))
	for _, entity := range saved.Entities {
		names = append(names, entity.Name)
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, names,
		"persisted entity order must follow insertion order, not name order")
}
