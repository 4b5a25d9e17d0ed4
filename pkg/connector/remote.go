package connector

import (
	"context"
	"errors"

	"github.com/semilink/semilink/pkg/semilinkgo"
	"github.com/semilink/semilink/pkg/semilinkgo/routing"
	"github.com/semilink/semilink/pkg/semilinkgo/routing/payload"
	"github.com/semilink/semilink/pkg/semilinkgo/routing/query"
	"github.com/semilink/semilink/pkg/semilinkgo/types"
)

var (
	ErrNotLoggedIn = errors.New("not logged in")
	ErrNoRemote    = errors.New("no remote service configured")
)

// RemoteService is the identity and profile backend. The core only reads
// and writes profile rows through it; the auth methods serve the login
// flows.
type RemoteService interface {
	GetSession(ctx context.Context) (*types.Session, error)
	GetProfile(ctx context.Context, id string) (*types.RemoteProfile, error)
	CreateProfile(ctx context.Context, row *types.RemoteProfile) error
	UpdateProfile(ctx context.Context, id string, fields routing.PayloadDataInterface) error
	InsertPost(ctx context.Context, post payload.PostInsert) error
	SignOut(ctx context.Context) error

	SignInWithPassword(ctx context.Context, email, password string) (*types.Session, error)
	SignUp(ctx context.Context, email, password, name string) (*types.Session, error)
	AuthorizeURL(provider query.OAuthProvider) (string, error)
	GetSessionString() string
	SetEventHandler(handler semilinkgo.EventHandler)
	Connect() error
	Disconnect() error
}

var _ RemoteService = (*semilinkgo.Client)(nil)
