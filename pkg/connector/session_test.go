package connector

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semilink/semilink/pkg/semilinkgo/event"
	"github.com/semilink/semilink/pkg/semilinkgo/routing/query"
	"github.com/semilink/semilink/pkg/semilinkgo/types"
	"github.com/semilink/semilink/pkg/store"
)

var samIdentity = types.Identity{ID: "u9", Email: "sam@x.com", Metadata: map[string]any{"name": "Sam"}}

func TestLoginWithPasswordResolvesProfile(t *testing.T) {
	remote := newFakeRemote()
	remote.addAccount("sam@x.com", "hunter2", samIdentity)
	remote.setRow(&types.RemoteProfile{
		ID:       "u9",
		Email:    ptr("sam@x.com"),
		Name:     ptr("Sam Remote"),
		Location: ptr("Austin"),
		About:    ptr("Yield engineer"),
		Experience: []types.Experience{
			{ID: "e1", Title: "Yield Engineer", Company: "Acme"},
		},
	})
	sc := newTestConnector(t, remote)
	ctx := context.Background()

	user, err := sc.Sessions.LoginWithPassword(ctx, "sam@x.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "Sam Remote", user.Name)

	snap := sc.State.Snapshot()
	assert.Equal(t, StateAuthenticated, snap.Auth)
	assert.True(t, snap.RemoteBacked)
	assert.False(t, snap.ShouldEditProfile)
	assert.Equal(t, ViewHome, snap.CurrentView)
	assert.Equal(t, "Sam Remote", getLocal(t, sc, "u9").Name)

	meta := loadLoginMetadata(ctx, sc.Collections)
	assert.NotEmpty(t, meta.Session)
	assert.Empty(t, meta.MockUserID)
}

func TestLoginWithPasswordFailure(t *testing.T) {
	remote := newFakeRemote()
	remote.addAccount("sam@x.com", "hunter2", samIdentity)
	sc := newTestConnector(t, remote)

	_, err := sc.Sessions.LoginWithPassword(context.Background(), "sam@x.com", "wrong")
	assert.Error(t, err)
	assert.Equal(t, StateAnonymous, sc.State.AuthState())
	assert.Equal(t, "u1", sc.State.CurrentUser().ID)
}

func TestSignUpNewUserArmsEditMode(t *testing.T) {
	remote := newFakeRemote()
	sc := newTestConnector(t, remote)

	user, err := sc.Sessions.SignUp(context.Background(), "jordan@x.com", "pw123456", "Jordan")
	require.NoError(t, err)
	assert.Equal(t, "Jordan", user.Name)
	assert.Equal(t, []types.Experience{}, user.Experience)
	assert.Empty(t, user.Location)
	assert.Empty(t, user.About)

	snap := sc.State.Snapshot()
	assert.True(t, snap.ShouldEditProfile)
	assert.Equal(t, ViewProfile, snap.CurrentView)

	created := remote.Created()
	require.Len(t, created, 1)
	assert.Equal(t, "Jordan", *created[0].Name)
}

func TestOfflineSignUpJordan(t *testing.T) {
	sc := newTestConnector(t, nil)
	ctx := context.Background()

	user, err := sc.Sessions.SignUp(ctx, "jordan@x.com", "", "Jordan")
	require.NoError(t, err)
	assert.Equal(t, "new_user_1714564800000", user.ID)
	assert.Equal(t, "Semiconductor Professional", user.Headline)
	assert.Equal(t, "https://ui-avatars.com/api/?name=Jordan&background=0ea5e9&color=fff", user.AvatarURL)
	assert.Equal(t, []types.Experience{}, user.Experience)

	snap := sc.State.Snapshot()
	assert.Equal(t, StateAuthenticated, snap.Auth)
	assert.False(t, snap.RemoteBacked)
	assert.True(t, snap.ShouldEditProfile)
	assert.Equal(t, ViewProfile, snap.CurrentView)
	assert.Equal(t, user, getLocal(t, sc, user.ID))

	second := sc.Sessions.OfflineSignUp(ctx, "Jordan Two", "")
	assert.Equal(t, "new_user_1714564800001", second.ID)
}

func TestOfflineSignIn(t *testing.T) {
	sc := newTestConnector(t, nil)
	ctx := context.Background()

	user, err := sc.Sessions.LoginWithPassword(ctx, "Sarah@SemiLink.com", "")
	require.NoError(t, err)
	assert.Equal(t, "u2", user.ID)
	assert.Equal(t, ViewHome, sc.State.Snapshot().CurrentView)

	user = sc.Sessions.OfflineSignIn(ctx, "nobody@x.com")
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, StateAuthenticated, sc.State.AuthState())
}

func TestLoginFlows(t *testing.T) {
	offline := newTestConnector(t, nil)
	flows := offline.Sessions.LoginFlows()
	require.Len(t, flows, 1)
	assert.Equal(t, LoginFlowOffline, flows[0].ID)
	_, err := offline.Sessions.OAuthURL(query.ProviderGitHub)
	assert.ErrorIs(t, err, ErrNoRemote)

	online := newTestConnector(t, newFakeRemote())
	assert.Len(t, online.Sessions.LoginFlows(), 3)
	url, err := online.Sessions.OAuthURL(query.ProviderGitHub)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, "provider=github"))
}

func TestLogoutResetsToAnonymous(t *testing.T) {
	remote := newFakeRemote()
	remote.addAccount("sam@x.com", "pw", samIdentity)
	sc := newTestConnector(t, remote)
	ctx := context.Background()
	_, err := sc.Sessions.LoginWithPassword(ctx, "sam@x.com", "pw")
	require.NoError(t, err)
	require.True(t, sc.State.Snapshot().ShouldEditProfile)

	sc.Sessions.Logout(ctx)
	snap := sc.State.Snapshot()
	assert.Equal(t, StateAnonymous, snap.Auth)
	assert.Equal(t, AnonymousUser(), snap.CurrentUser)
	assert.False(t, snap.ShouldEditProfile)
	assert.False(t, snap.RemoteBacked)
	assert.Equal(t, ViewHome, snap.CurrentView)
	assert.Equal(t, 1, remote.signOuts)
	assert.True(t, loadLoginMetadata(ctx, sc.Collections).IsEmpty())
}

func TestLogoutRemoteFailureStillResets(t *testing.T) {
	remote := newFakeRemote()
	remote.signOutErr = errRemoteDown
	remote.addAccount("sam@x.com", "pw", samIdentity)
	sc := newTestConnector(t, remote)
	ctx := context.Background()
	_, err := sc.Sessions.LoginWithPassword(ctx, "sam@x.com", "pw")
	require.NoError(t, err)

	sc.Sessions.Logout(ctx)
	assert.Equal(t, StateAnonymous, sc.State.AuthState())
}

func TestStaleResolutionIsDiscarded(t *testing.T) {
	remote := newFakeRemote()
	entered := make(chan struct{})
	release := make(chan struct{})
	remote.getHook = func() {
		close(entered)
		<-release
	}
	remote.setRow(&types.RemoteProfile{ID: "u9", Name: ptr("Sam"), Experience: []types.Experience{}})
	sc := newTestConnector(t, remote)
	putLocal(t, sc, &types.Profile{
		ID:         "u9",
		Email:      "sam@x.com",
		Name:       "Sam",
		Experience: []types.Experience{{ID: "e1", Title: "Eng", Company: "Acme"}},
	})
	ctx := context.Background()

	result := make(chan *Resolution, 1)
	go func() {
		result <- sc.Sessions.HandleSessionStarted(ctx, types.Session{Identity: samIdentity})
	}()
	<-entered
	assert.Equal(t, StateResolving, sc.State.AuthState())

	remote.lock.Lock()
	remote.getHook = nil
	remote.lock.Unlock()
	sc.Sessions.Logout(ctx)
	close(release)

	select {
	case res := <-result:
		assert.Nil(t, res)
	case <-time.After(2 * time.Second):
		t.Fatal("resolution did not finish")
	}
	snap := sc.State.Snapshot()
	assert.Equal(t, StateAnonymous, snap.Auth)
	assert.Equal(t, "u1", snap.CurrentUser.ID)
	assert.Zero(t, sc.Queue.Pending(), "discarded resolution must not write back")
}

func TestSessionStartedSchedulesExperienceSync(t *testing.T) {
	remote := newFakeRemote()
	remote.setRow(&types.RemoteProfile{ID: "u9", Name: ptr("Sam"), Experience: []types.Experience{}})
	sc := newTestConnector(t, remote)
	putLocal(t, sc, &types.Profile{
		ID:         "u9",
		Email:      "sam@x.com",
		Name:       "Sam",
		Experience: []types.Experience{{ID: "e1", Title: "Eng", Company: "Acme"}},
	})

	res := sc.Sessions.HandleSessionStarted(context.Background(), types.Session{Identity: samIdentity})
	require.NotNil(t, res)
	tasks := sc.Queue.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, TaskExperienceSync, tasks[0].Kind)
	assert.Equal(t, "u9", tasks[0].ProfileID)
	assert.Equal(t, "Eng", tasks[0].Experience[0].Title)
}

func TestSecondSessionStartedReResolves(t *testing.T) {
	remote := newFakeRemote()
	remote.setRow(&types.RemoteProfile{ID: "u9", Name: ptr("Sam")})
	sc := newTestConnector(t, remote)
	ctx := context.Background()

	first := sc.Sessions.HandleSessionStarted(ctx, types.Session{Identity: samIdentity})
	require.NotNil(t, first)
	remote.setRow(&types.RemoteProfile{ID: "u9", Name: ptr("Samuel")})
	second := sc.Sessions.HandleSessionStarted(ctx, types.Session{Identity: samIdentity})
	require.NotNil(t, second)
	assert.Equal(t, "Samuel", sc.State.CurrentUser().Name)
	assert.Equal(t, StateAuthenticated, sc.State.AuthState())
}

func TestFetchFailureResolvesFromCache(t *testing.T) {
	remote := newFakeRemote()
	remote.getErr = errRemoteDown
	sc := newTestConnector(t, remote)
	putLocal(t, sc, &types.Profile{ID: "u9", Name: "Cached Sam", Location: "Austin", About: "Hi", Experience: []types.Experience{{ID: "e1", Title: "Eng", Company: "Acme"}}})

	res := sc.Sessions.HandleSessionStarted(context.Background(), types.Session{Identity: samIdentity})
	require.NotNil(t, res)
	assert.Equal(t, "Cached Sam", sc.State.CurrentUser().Name)
	assert.False(t, sc.State.Snapshot().ShouldEditProfile)
	assert.Empty(t, remote.Created())
	assert.Zero(t, sc.Queue.Pending())
}

func TestSessionEndedEventResets(t *testing.T) {
	remote := newFakeRemote()
	remote.addAccount("sam@x.com", "pw", samIdentity)
	sc := newTestConnector(t, remote)
	_, err := sc.Sessions.LoginWithPassword(context.Background(), "sam@x.com", "pw")
	require.NoError(t, err)

	sc.Sessions.HandleRemoteEvent(event.SessionEnded{Reason: types.SessionEndedExpired})
	assert.Equal(t, StateAnonymous, sc.State.AuthState())
	assert.Zero(t, remote.signOuts)
}

func TestRestoreOfflineLogin(t *testing.T) {
	sc := newTestConnector(t, nil)
	ctx := context.Background()
	saveLoginMetadata(ctx, sc.Collections, &LoginMetadata{MockUserID: "u3"})

	user := sc.Sessions.Restore(ctx)
	require.NotNil(t, user)
	assert.Equal(t, "u3", user.ID)
	assert.Equal(t, StateAuthenticated, sc.State.AuthState())
}

func TestRestoreRemoteSession(t *testing.T) {
	remote := newFakeRemote()
	remote.session = &types.Session{AccessToken: "a", Identity: samIdentity}
	remote.setRow(&types.RemoteProfile{ID: "u9", Name: ptr("Sam")})

	sc := newTestConnector(t, remote)
	assert.Equal(t, StateAuthenticated, sc.State.AuthState())
	assert.Equal(t, "Sam", sc.State.CurrentUser().Name)
}

func TestCorruptLoginMetadataIgnored(t *testing.T) {
	sc := newTestConnector(t, nil)
	ctx := context.Background()
	require.NoError(t, sc.Store.Set(ctx, string(store.KeySession), "{not json"))
	assert.True(t, loadLoginMetadata(ctx, sc.Collections).IsEmpty())
	assert.Nil(t, sc.Sessions.Restore(ctx))
}
