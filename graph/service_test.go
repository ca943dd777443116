package graph_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/engramhq/engram/entity"
	"github.com/engramhq/engram/errors"
	"github.com/engramhq/engram/graph"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGraphService(t *testing.T) graph.Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return graph.NewService(graph.NewInMemoryStore(), logger)
}

func TestService_CreateEntity(t *testing.T) {
	ctx := context.Background()
	svc := newGraphService(t)

	t.Run("requires a name", func(t *testing.T) {
		_, err := svc.CreateEntity(ctx, "t1", graph.EntityInput{UserID: "u1", Type: "person"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrInvalidParams))
	})

	t.Run("defaults confidence to 1", func(t *testing.T) {
		e, err := svc.CreateEntity(ctx, "t1", graph.EntityInput{UserID: "u1", Type: "person", Name: "Alice"})
		require.NoError(t, err)
		assert.NotEmpty(t, e.ID)
		assert.Equal(t, 1.0, e.Confidence)
	})
}

func TestService_UpsertEntity(t *testing.T) {
	ctx := context.Background()

	t.Run("deduplicates case-insensitively", func(t *testing.T) {
		svc := newGraphService(t)

		first, err := svc.UpsertEntity(ctx, "t1", graph.EntityInput{
			UserID:     "u1",
			Type:       "person",
			Name:       "Alice",
			Properties: map[string]any{"city": "Paris", "age": 30},
		})
		require.NoError(t, err)

		low := 0.6
		second, err := svc.UpsertEntity(ctx, "t1", graph.EntityInput{
			UserID:     "u1",
			Type:       "person",
			Name:       "alice",
			Properties: map[string]any{"city": "Berlin"},
			Confidence: &low,
		})
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "Berlin", second.Properties.Data()["city"])
		assert.Equal(t, 30, second.Properties.Data()["age"])
		assert.Equal(t, 0.6, second.Confidence)

		all, err := svc.FindEntitiesByType(ctx, "t1", "u1", "person")
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("different type is a different entity", func(t *testing.T) {
		svc := newGraphService(t)

		first, err := svc.UpsertEntity(ctx, "t1", graph.EntityInput{UserID: "u1", Type: "person", Name: "Mercury"})
		require.NoError(t, err)
		second, err := svc.UpsertEntity(ctx, "t1", graph.EntityInput{UserID: "u1", Type: "planet", Name: "Mercury"})
		require.NoError(t, err)

		assert.NotEqual(t, first.ID, second.ID)
	})

	t.Run("different user is a different entity", func(t *testing.T) {
		svc := newGraphService(t)

		first, err := svc.UpsertEntity(ctx, "t1", graph.EntityInput{UserID: "u1", Type: "person", Name: "Alice"})
		require.NoError(t, err)
		second, err := svc.UpsertEntity(ctx, "t1", graph.EntityInput{UserID: "u2", Type: "person", Name: "Alice"})
		require.NoError(t, err)

		assert.NotEqual(t, first.ID, second.ID)
	})
}

func TestService_UpsertEntities(t *testing.T) {
	ctx := context.Background()
	svc := newGraphService(t)

	results, err := svc.UpsertEntities(ctx, "t1", []graph.EntityInput{
		{UserID: "u1", Type: "person", Name: "Alice"},
		{UserID: "u1", Type: "person", Name: "Bob"},
		{UserID: "u1", Type: "person", Name: "alice"},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Input order is preserved and the duplicate resolves to the first id.
	assert.Equal(t, "Alice", results[0].Name)
	assert.Equal(t, "Bob", results[1].Name)
	assert.Equal(t, results[0].ID, results[2].ID)
}

func TestService_CreateRelation(t *testing.T) {
	ctx := context.Background()
	svc := newGraphService(t)

	t.Run("requires both endpoints", func(t *testing.T) {
		_, err := svc.CreateRelation(ctx, "t1", graph.RelationInput{UserID: "u1", SourceID: "a", Type: "knows"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrInvalidParams))
	})

	t.Run("parses the validity window", func(t *testing.T) {
		r, err := svc.CreateRelation(ctx, "t1", graph.RelationInput{
			UserID:    "u1",
			SourceID:  "a",
			TargetID:  "b",
			Type:      "employed_by",
			ValidFrom: "2024-01-15T10:30:00Z",
			ValidTo:   "2024-06-01",
		})
		require.NoError(t, err)
		require.NotNil(t, r.ValidFrom)
		require.NotNil(t, r.ValidTo)
		assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), r.ValidFrom.UTC())
		assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), r.ValidTo.UTC())
	})

	t.Run("empty validity bounds stay null", func(t *testing.T) {
		r, err := svc.CreateRelation(ctx, "t1", graph.RelationInput{
			UserID:   "u1",
			SourceID: "a",
			TargetID: "b",
			Type:     "knows",
		})
		require.NoError(t, err)
		assert.Nil(t, r.ValidFrom)
		assert.Nil(t, r.ValidTo)
	})

	t.Run("rejects unparseable dates", func(t *testing.T) {
		_, err := svc.CreateRelation(ctx, "t1", graph.RelationInput{
			UserID:    "u1",
			SourceID:  "a",
			TargetID:  "b",
			Type:      "knows",
			ValidFrom: "next tuesday",
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrInvalidParams))
	})

	t.Run("does not verify endpoint existence", func(t *testing.T) {
		r, err := svc.CreateRelation(ctx, "t1", graph.RelationInput{
			UserID:   "u1",
			SourceID: "ghost-a",
			TargetID: "ghost-b",
			Type:     "knows",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, r.ID)
		assert.Equal(t, 1.0, r.Confidence)
	})
}

func TestService_FindRelationsBetween(t *testing.T) {
	ctx := context.Background()
	svc := newGraphService(t)

	alice, err := svc.CreateEntity(ctx, "t1", graph.EntityInput{UserID: "u1", Type: "person", Name: "Alice"})
	require.NoError(t, err)
	bob, err := svc.CreateEntity(ctx, "t1", graph.EntityInput{UserID: "u1", Type: "person", Name: "Bob"})
	require.NoError(t, err)
	carol, err := svc.CreateEntity(ctx, "t1", graph.EntityInput{UserID: "u1", Type: "person", Name: "Carol"})
	require.NoError(t, err)

	forward, err := svc.CreateRelation(ctx, "t1", graph.RelationInput{
		UserID: "u1", SourceID: alice.ID, TargetID: bob.ID, Type: "manages",
	})
	require.NoError(t, err)
	reverse, err := svc.CreateRelation(ctx, "t1", graph.RelationInput{
		UserID: "u1", SourceID: bob.ID, TargetID: alice.ID, Type: "reports_to",
	})
	require.NoError(t, err)
	_, err = svc.CreateRelation(ctx, "t1", graph.RelationInput{
		UserID: "u1", SourceID: bob.ID, TargetID: carol.ID, Type: "knows",
	})
	require.NoError(t, err)

	t.Run("returns both directions", func(t *testing.T) {
		relations, err := svc.FindRelationsBetween(ctx, "t1", alice.ID, bob.ID)
		require.NoError(t, err)
		ids := lo.Map(relations, func(r entity.Relation, _ int) string { return r.ID })
		assert.ElementsMatch(t, []string{forward.ID, reverse.ID}, ids)
	})

	t.Run("argument order does not matter", func(t *testing.T) {
		relations, err := svc.FindRelationsBetween(ctx, "t1", bob.ID, alice.ID)
		require.NoError(t, err)
		assert.Len(t, relations, 2)
	})

	t.Run("unrelated pair is empty", func(t *testing.T) {
		relations, err := svc.FindRelationsBetween(ctx, "t1", alice.ID, carol.ID)
		require.NoError(t, err)
		assert.Empty(t, relations)
	})

	t.Run("other tenant sees nothing", func(t *testing.T) {
		relations, err := svc.FindRelationsBetween(ctx, "t2", alice.ID, bob.ID)
		require.NoError(t, err)
		assert.Empty(t, relations)
	})
}

func TestService_FindRelationsByType(t *testing.T) {
	ctx := context.Background()
	svc := newGraphService(t)

	alice, err := svc.CreateEntity(ctx, "t1", graph.EntityInput{UserID: "u1", Type: "person", Name: "Alice"})
	require.NoError(t, err)
	bob, err := svc.CreateEntity(ctx, "t1", graph.EntityInput{UserID: "u1", Type: "person", Name: "Bob"})
	require.NoError(t, err)

	knows, err := svc.CreateRelation(ctx, "t1", graph.RelationInput{
		UserID: "u1", SourceID: alice.ID, TargetID: bob.ID, Type: "knows",
	})
	require.NoError(t, err)
	_, err = svc.CreateRelation(ctx, "t1", graph.RelationInput{
		UserID: "u1", SourceID: alice.ID, TargetID: bob.ID, Type: "manages",
	})
	require.NoError(t, err)
	_, err = svc.CreateRelation(ctx, "t1", graph.RelationInput{
		UserID: "u2", SourceID: alice.ID, TargetID: bob.ID, Type: "knows",
	})
	require.NoError(t, err)

	t.Run("filters by type and user", func(t *testing.T) {
		relations, err := svc.FindRelationsByType(ctx, "t1", "u1", "knows")
		require.NoError(t, err)
		require.Len(t, relations, 1)
		assert.Equal(t, knows.ID, relations[0].ID)
	})

	t.Run("unknown type is empty", func(t *testing.T) {
		relations, err := svc.FindRelationsByType(ctx, "t1", "u1", "owns")
		require.NoError(t, err)
		assert.Empty(t, relations)
	})
}

func TestService_Deletes(t *testing.T) {
	ctx := context.Background()
	svc := newGraphService(t)

	alice, err := svc.CreateEntity(ctx, "t1", graph.EntityInput{UserID: "u1", Type: "person", Name: "Alice"})
	require.NoError(t, err)
	bob, err := svc.CreateEntity(ctx, "t1", graph.EntityInput{UserID: "u1", Type: "person", Name: "Bob"})
	require.NoError(t, err)
	_, err = svc.CreateRelation(ctx, "t1", graph.RelationInput{
		UserID: "u1", SourceID: alice.ID, TargetID: bob.ID, Type: "knows",
	})
	require.NoError(t, err)

	t.Run("deleting a missing entity is a no-op", func(t *testing.T) {
		require.NoError(t, svc.DeleteEntity(ctx, "t1", "missing"))
	})

	t.Run("delete by user removes both sides", func(t *testing.T) {
		deletedEntities, err := svc.DeleteEntitiesByUser(ctx, "t1", "u1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), deletedEntities)

		deletedRelations, err := svc.DeleteRelationsByUser(ctx, "t1", "u1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), deletedRelations)

		got, err := svc.GetEntity(ctx, "t1", alice.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestService_GetEntityTypes(t *testing.T) {
	ctx := context.Background()
	svc := newGraphService(t)

	for _, in := range []graph.EntityInput{
		{UserID: "u1", Type: "person", Name: "Alice"},
		{UserID: "u1", Type: "person", Name: "Bob"},
		{UserID: "u1", Type: "place", Name: "Paris"},
		{UserID: "u2", Type: "event", Name: "Launch"},
	} {
		_, err := svc.CreateEntity(ctx, "t1", in)
		require.NoError(t, err)
	}

	types, err := svc.GetEntityTypes(ctx, "t1", "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"person", "place"}, types)
}
