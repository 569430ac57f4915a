package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meikuraledutech/workflow/internal/storetest"
)

func TestStore(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "workflows.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.CreateSchema(context.Background()))
	storetest.Run(t, s)
}

func TestCreateSchemaIsIdempotent(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "workflows.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	require.NoError(t, s.CreateSchema(ctx))
	require.NoError(t, s.CreateSchema(ctx))
}
