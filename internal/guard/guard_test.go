package guard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryGuardScope(t *testing.T) {
	ctx := context.Background()
	g := NewMemory()

	release, ok, err := g.Acquire(ctx, 1, "100")
	require.NoError(t, err)
	require.True(t, ok)

	// Same pair is busy; other users and other games are not.
	_, ok, err = g.Acquire(ctx, 1, "100")
	require.NoError(t, err)
	require.False(t, ok)

	r2, ok, err := g.Acquire(ctx, 1, "200")
	require.NoError(t, err)
	require.True(t, ok)
	r2()

	r3, ok, err := g.Acquire(ctx, 2, "100")
	require.NoError(t, err)
	require.True(t, ok)
	r3()

	release()
	release, ok, err = g.Acquire(ctx, 1, "100")
	require.NoError(t, err)
	require.True(t, ok, "marker should be free again after release")
	release()
}
