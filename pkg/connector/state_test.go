package connector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semilink/semilink/pkg/semilinkgo/types"
)

func TestNavigateLeavingProfileClearsEditMode(t *testing.T) {
	s := NewState(AnonymousUser())
	s.installLocalUser(&types.Profile{ID: "new_user_1", Name: "Sam"}, true)

	snap := s.Snapshot()
	assert.True(t, snap.ShouldEditProfile)
	assert.Equal(t, ViewProfile, snap.CurrentView)

	s.Navigate(ViewProfile)
	assert.True(t, s.Snapshot().ShouldEditProfile)

	s.Navigate(ViewJobs)
	snap = s.Snapshot()
	assert.False(t, snap.ShouldEditProfile)
	assert.Equal(t, ViewJobs, snap.CurrentView)
}

func TestCompleteResolutionChecksEpoch(t *testing.T) {
	s := NewState(AnonymousUser())
	first := s.beginResolving()
	second := s.beginResolving()

	assert.False(t, s.completeResolution(first, &types.Profile{ID: "a", Name: "A"}, false, true))
	assert.Equal(t, StateResolving, s.AuthState())

	assert.True(t, s.completeResolution(second, &types.Profile{ID: "b", Name: "B"}, false, true))
	assert.Equal(t, "b", s.CurrentUser().ID)

	s.reset(AnonymousUser())
	assert.False(t, s.completeResolution(second, &types.Profile{ID: "b", Name: "B"}, false, true))
	assert.Equal(t, StateAnonymous, s.AuthState())
}

func TestCompleteResolutionClearsEditModeWhenComplete(t *testing.T) {
	s := NewState(AnonymousUser())
	epoch := s.beginResolving()
	require.True(t, s.completeResolution(epoch, &types.Profile{ID: "u9", Name: "Sam"}, true, true))
	require.True(t, s.Snapshot().ShouldEditProfile)

	epoch = s.beginResolving()
	require.True(t, s.completeResolution(epoch, &types.Profile{ID: "u9", Name: "Sam"}, false, true))
	snap := s.Snapshot()
	assert.False(t, snap.ShouldEditProfile)
	assert.Equal(t, ViewProfile, snap.CurrentView)
}

func TestSnapshotIsACopy(t *testing.T) {
	s := NewState(AnonymousUser())
	s.installLocalUser(&types.Profile{
		ID:         "u1",
		Name:       "Alex",
		Experience: []types.Experience{{ID: "e1", Title: "Engineer", Company: "Fab"}},
	}, false)

	snap := s.Snapshot()
	snap.CurrentUser.Name = "Changed"
	snap.CurrentUser.Experience[0].Title = "Changed"

	user := s.CurrentUser()
	assert.Equal(t, "Alex", user.Name)
	assert.Equal(t, "Engineer", user.Experience[0].Title)
	assert.Equal(t, ViewHome, s.Snapshot().CurrentView)
}
