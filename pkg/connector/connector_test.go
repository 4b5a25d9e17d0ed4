package connector

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semilink/semilink/pkg/store"
)

func TestOpenEphemeral(t *testing.T) {
	ctx := context.Background()
	sc, err := Open(ctx, DefaultConfig(), true, prometheus.NewRegistry(), zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &store.MemoryStore{}, sc.Store)
	assert.Nil(t, sc.Remote)

	require.NoError(t, sc.Start(ctx))
	assert.Equal(t, StateAnonymous, sc.State.AuthState())
	assert.NotEmpty(t, sc.State.Snapshot().Posts)
	require.NoError(t, sc.Stop(ctx))
}

func TestOpenRestoresOfflineLogin(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.Cache.Path = filepath.Join(t.TempDir(), "cache.db")

	sc, err := Open(ctx, cfg, false, prometheus.NewRegistry(), zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &store.Cached{}, sc.Store)
	require.NoError(t, sc.Start(ctx))
	user := sc.Sessions.OfflineSignUp(ctx, "Priya Raman", "priya@example.com")
	require.True(t, sc.Mutations.ToggleSavedJob(ctx, "j1"))
	require.NoError(t, sc.Stop(ctx))

	sc, err = Open(ctx, cfg, false, prometheus.NewRegistry(), zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, sc.Start(ctx))
	defer sc.Stop(ctx)

	snap := sc.State.Snapshot()
	assert.Equal(t, StateAuthenticated, snap.Auth)
	assert.False(t, snap.RemoteBacked)
	assert.Equal(t, user.ID, snap.CurrentUser.ID)
	assert.Equal(t, "Priya Raman", snap.CurrentUser.Name)
	assert.Contains(t, snap.SavedJobs, "j1")
}
