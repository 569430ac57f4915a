// Package storetest runs the same behavioural checks against every
// workflow.Store implementation.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meikuraledutech/workflow"
)

// Run exercises store, which must start with an empty schema.
func Run(t *testing.T, store workflow.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("get missing returns nil", func(t *testing.T) {
		w, err := store.GetWorkflow(ctx, "does-not-exist")
		require.NoError(t, err)
		assert.Nil(t, w)
	})

	t.Run("save and get round trip", func(t *testing.T) {
		in := workflow.DefaultTemplate("round-trip")
		require.NoError(t, store.SaveWorkflow(ctx, in))

		got, err := store.GetWorkflow(ctx, "round-trip")
		require.NoError(t, err)
		require.NotNil(t, got)

		want, _, err := workflow.Normalize(in)
		require.NoError(t, err)
		assert.Equal(t, want.Name, got.Name)
		assert.Equal(t, want.Nodes, got.Nodes)
		assert.Equal(t, want.Edges, got.Edges)
		assert.Nil(t, got.PublishedAt)
	})

	t.Run("save replaces nodes and edges", func(t *testing.T) {
		w := workflow.DefaultTemplate("replace")
		require.NoError(t, store.SaveWorkflow(ctx, w))

		g, _, err := workflow.Load(w)
		require.NoError(t, err)
		require.True(t, g.DeleteNode("cond-is-qualified"))
		require.NoError(t, store.SaveWorkflow(ctx, g.Snapshot("replace", "Renamed")))

		got, err := store.GetWorkflow(ctx, "replace")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Renamed", got.Name)
		assert.Len(t, got.Nodes, len(w.Nodes)-1)
		for _, e := range got.Edges {
			assert.NotEqual(t, "cond-is-qualified", e.Source)
			assert.NotEqual(t, "cond-is-qualified", e.Target)
		}
	})

	t.Run("dangling and duplicate edges are not stored", func(t *testing.T) {
		w := &workflow.Workflow{
			ID:   "dangling",
			Name: "Dangling",
			Nodes: []workflow.Node{
				{ID: "s", Type: workflow.NodeStart, Config: workflow.StartConfig{}},
				{ID: "e", Type: workflow.NodeEnd, Config: workflow.EndConfig{}},
			},
			Edges: []workflow.Edge{
				{ID: "ok", Source: "s", Target: "e"},
				{ID: "dup", Source: "s", Target: "e"},
				{ID: "ghost", Source: "s", Target: "missing"},
			},
		}
		require.NoError(t, store.SaveWorkflow(ctx, w))

		got, err := store.GetWorkflow(ctx, "dangling")
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Len(t, got.Edges, 1)
		assert.Equal(t, "ok", got.Edges[0].ID)
	})

	t.Run("node ids are scoped to their workflow", func(t *testing.T) {
		require.NoError(t, store.SaveWorkflow(ctx, workflow.DefaultTemplate("scope-a")))
		require.NoError(t, store.SaveWorkflow(ctx, workflow.DefaultTemplate("scope-b")))
		require.NoError(t, store.DeleteWorkflow(ctx, "scope-a"))

		got, err := store.GetWorkflow(ctx, "scope-b")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Len(t, got.Nodes, len(workflow.DefaultTemplate("x").Nodes))
	})

	t.Run("publish", func(t *testing.T) {
		err := store.MarkPublished(ctx, "never-saved")
		assert.ErrorIs(t, err, workflow.ErrWorkflowNotFound)

		require.NoError(t, store.SaveWorkflow(ctx, workflow.DefaultTemplate("pub")))
		require.NoError(t, store.MarkPublished(ctx, "pub"))

		got, err := store.GetWorkflow(ctx, "pub")
		require.NoError(t, err)
		require.NotNil(t, got.PublishedAt)

		require.NoError(t, store.SaveWorkflow(ctx, workflow.DefaultTemplate("pub")))
		again, err := store.GetWorkflow(ctx, "pub")
		require.NoError(t, err)
		require.NotNil(t, again.PublishedAt, "saving keeps the published stamp")
		assert.True(t, got.PublishedAt.Equal(*again.PublishedAt))
	})

	t.Run("list and delete", func(t *testing.T) {
		require.NoError(t, store.DropSchema(ctx))
		require.NoError(t, store.CreateSchema(ctx))

		list, err := store.ListWorkflows(ctx)
		require.NoError(t, err)
		assert.NotNil(t, list)
		assert.Empty(t, list)

		for _, id := range []string{"first", "second"} {
			w := workflow.DefaultTemplate(id)
			w.Name = id
			require.NoError(t, store.SaveWorkflow(ctx, w))
		}
		list, err = store.ListWorkflows(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "first", list[0].ID)
		assert.Equal(t, "second", list[1].Name)
		assert.Empty(t, list[0].Nodes)

		require.NoError(t, store.DeleteWorkflow(ctx, "first"))
		require.NoError(t, store.DeleteWorkflow(ctx, "first"))
		got, err := store.GetWorkflow(ctx, "first")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}
