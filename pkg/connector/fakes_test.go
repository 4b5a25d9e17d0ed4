package connector

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/semilink/semilink/pkg/semilinkgo"
	"github.com/semilink/semilink/pkg/semilinkgo/event"
	"github.com/semilink/semilink/pkg/semilinkgo/routing"
	"github.com/semilink/semilink/pkg/semilinkgo/routing/payload"
	"github.com/semilink/semilink/pkg/semilinkgo/routing/query"
	"github.com/semilink/semilink/pkg/semilinkgo/types"
	"github.com/semilink/semilink/pkg/store"
)

var errRemoteDown = errors.New("remote down")

type updateCall struct {
	ID   string
	Body json.RawMessage
}

type fakeAccount struct {
	password string
	identity types.Identity
}

// fakeRemote behaves like semilinkgo.Client: auth calls emit the same
// events synchronously.
type fakeRemote struct {
	lock sync.Mutex

	rows     map[string]*types.RemoteProfile
	accounts map[string]fakeAccount
	session  *types.Session

	getErr         error
	createErr      error
	signOutErr     error
	updateFailures int
	// getHook runs inside GetProfile without the lock held.
	getHook func()

	getCalls int
	created  []*types.RemoteProfile
	updates  []updateCall
	posts    []payload.PostInsert
	signOuts int

	handler semilinkgo.EventHandler
}

var _ RemoteService = (*fakeRemote)(nil)

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		rows:     make(map[string]*types.RemoteProfile),
		accounts: make(map[string]fakeAccount),
	}
}

func (fr *fakeRemote) addAccount(email, password string, identity types.Identity) {
	fr.lock.Lock()
	defer fr.lock.Unlock()
	fr.accounts[email] = fakeAccount{password: password, identity: identity}
}

func (fr *fakeRemote) emit(evt any) {
	fr.lock.Lock()
	handler := fr.handler
	fr.lock.Unlock()
	if handler != nil {
		handler(evt)
	}
}

func (fr *fakeRemote) GetSession(_ context.Context) (*types.Session, error) {
	fr.lock.Lock()
	defer fr.lock.Unlock()
	if fr.session == nil {
		return nil, nil
	}
	sess := *fr.session
	return &sess, nil
}

func (fr *fakeRemote) GetProfile(_ context.Context, id string) (*types.RemoteProfile, error) {
	fr.lock.Lock()
	hook := fr.getHook
	fr.getCalls++
	fr.lock.Unlock()
	if hook != nil {
		hook()
	}
	fr.lock.Lock()
	defer fr.lock.Unlock()
	if fr.getErr != nil {
		return nil, fr.getErr
	}
	row, ok := fr.rows[id]
	if !ok {
		return nil, nil
	}
	out := *row
	out.Experience = types.CloneExperience(row.Experience)
	return &out, nil
}

func (fr *fakeRemote) CreateProfile(_ context.Context, row *types.RemoteProfile) error {
	fr.lock.Lock()
	defer fr.lock.Unlock()
	if fr.createErr != nil {
		return fr.createErr
	}
	stored := *row
	fr.created = append(fr.created, &stored)
	fr.rows[row.ID] = &stored
	return nil
}

func (fr *fakeRemote) UpdateProfile(_ context.Context, id string, fields routing.PayloadDataInterface) error {
	fr.lock.Lock()
	defer fr.lock.Unlock()
	if fr.updateFailures > 0 {
		fr.updateFailures--
		return errRemoteDown
	}
	body, err := fields.Encode()
	if err != nil {
		return err
	}
	fr.updates = append(fr.updates, updateCall{ID: id, Body: body})
	return nil
}

func (fr *fakeRemote) InsertPost(_ context.Context, post payload.PostInsert) error {
	fr.lock.Lock()
	defer fr.lock.Unlock()
	fr.posts = append(fr.posts, post)
	return nil
}

func (fr *fakeRemote) SignOut(_ context.Context) error {
	fr.lock.Lock()
	fr.signOuts++
	fr.session = nil
	err := fr.signOutErr
	fr.lock.Unlock()
	fr.emit(event.SessionEnded{Reason: types.SessionEndedSignOut})
	return err
}

func (fr *fakeRemote) start(identity types.Identity) *types.Session {
	sess := types.Session{
		AccessToken:  "access-" + identity.ID,
		RefreshToken: "refresh-" + identity.ID,
		ExpiresAt:    time.Now().Add(time.Hour),
		Identity:     identity,
	}
	fr.lock.Lock()
	fr.session = &sess
	fr.lock.Unlock()
	fr.emit(event.SessionStarted{Session: sess})
	return &sess
}

func (fr *fakeRemote) SignInWithPassword(_ context.Context, email, password string) (*types.Session, error) {
	fr.lock.Lock()
	account, ok := fr.accounts[email]
	fr.lock.Unlock()
	if !ok || account.password != password {
		return nil, errors.New("invalid login credentials")
	}
	return fr.start(account.identity), nil
}

func (fr *fakeRemote) SignUp(_ context.Context, email, password, name string) (*types.Session, error) {
	identity := types.Identity{
		ID:       "user-" + email,
		Email:    email,
		Metadata: map[string]any{"name": name},
	}
	fr.addAccount(email, password, identity)
	return fr.start(identity), nil
}

func (fr *fakeRemote) AuthorizeURL(provider query.OAuthProvider) (string, error) {
	return "https://example.supabase.co/auth/v1/authorize?provider=" + string(provider), nil
}

func (fr *fakeRemote) GetSessionString() string {
	fr.lock.Lock()
	defer fr.lock.Unlock()
	if fr.session == nil {
		return ""
	}
	data, _ := json.Marshal(fr.session)
	return string(data)
}

func (fr *fakeRemote) SetEventHandler(handler semilinkgo.EventHandler) {
	fr.lock.Lock()
	defer fr.lock.Unlock()
	fr.handler = handler
}

func (fr *fakeRemote) Connect() error    { return nil }
func (fr *fakeRemote) Disconnect() error { return nil }

func (fr *fakeRemote) Updates() []updateCall {
	fr.lock.Lock()
	defer fr.lock.Unlock()
	return append([]updateCall(nil), fr.updates...)
}

func (fr *fakeRemote) Created() []*types.RemoteProfile {
	fr.lock.Lock()
	defer fr.lock.Unlock()
	return append([]*types.RemoteProfile(nil), fr.created...)
}

func (fr *fakeRemote) setRow(row *types.RemoteProfile) {
	fr.lock.Lock()
	defer fr.lock.Unlock()
	fr.rows[row.ID] = row
}

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.WriteBack.RetryDelay = 0
	cfg.WriteBack.RatePerSecond = 0
	cfg.WriteBack.MaxAttempts = 3
	cfg.TextGen.APIKey = ""
	return cfg
}

// newTestConnector builds a connector on a memory store. Pass a nil
// interface for an offline connector.
func newTestConnector(t *testing.T, remote RemoteService) *SemiLinkConnector {
	t.Helper()
	sc := NewConnector(context.Background(), Params{
		Config:     testConfig(),
		Store:      store.NewMemoryStore(),
		Remote:     remote,
		Registerer: prometheus.NewRegistry(),
		Logger:     zerolog.Nop(),
		Now:        func() time.Time { return testNow },
	})
	sc.Queue.sleep = func(context.Context, time.Duration) error { return nil }
	require.NoError(t, sc.Start(context.Background()))
	return sc
}

func putLocal(t *testing.T, sc *SemiLinkConnector, profiles ...*types.Profile) {
	t.Helper()
	ctx := context.Background()
	dir := sc.Collections.LoadDirectory(ctx)
	for _, p := range profiles {
		dir.Put(p)
	}
	require.NoError(t, sc.Collections.SaveDirectory(ctx, dir))
}

func getLocal(t *testing.T, sc *SemiLinkConnector, id string) *types.Profile {
	t.Helper()
	p, ok := sc.Collections.LoadDirectory(context.Background()).Get(id)
	require.True(t, ok, "profile %s not in cache", id)
	return p
}

func ptr[T any](v T) *T {
	return &v
}
