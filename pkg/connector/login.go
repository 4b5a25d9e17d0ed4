package connector

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/semilink/semilink/pkg/semilinkgo"
	"github.com/semilink/semilink/pkg/semilinkgo/methods"
	"github.com/semilink/semilink/pkg/semilinkgo/routing/query"
	"github.com/semilink/semilink/pkg/semilinkgo/types"
)

type LoginFlow struct {
	ID          string
	Name        string
	Description string
}

const (
	LoginFlowPassword = "password"
	LoginFlowSignUp   = "signup"
	LoginFlowGitHub   = "github"
	LoginFlowOffline  = "offline"
)

var ErrConfirmationPending = semilinkgo.ErrConfirmationPending

func (sc *SessionController) LoginFlows() []LoginFlow {
	if sc.remote == nil {
		return []LoginFlow{{
			Name:        "Offline",
			Description: "Sign in or sign up locally without a backend",
			ID:          LoginFlowOffline,
		}}
	}
	return []LoginFlow{
		{
			Name:        "Password",
			Description: "Sign in with your email address and password",
			ID:          LoginFlowPassword,
		},
		{
			Name:        "Sign up",
			Description: "Create a new account",
			ID:          LoginFlowSignUp,
		},
		{
			Name:        "GitHub",
			Description: "Sign in with your GitHub account in a browser",
			ID:          LoginFlowGitHub,
		},
	}
}

// LoginWithPassword signs in and returns the resolved user. Without a
// remote service it falls back to the offline sign-in.
func (sc *SessionController) LoginWithPassword(ctx context.Context, email, password string) (*types.Profile, error) {
	if sc.remote == nil {
		return sc.OfflineSignIn(ctx, email), nil
	}
	if methods.IsBlank(email) || password == "" {
		return nil, fmt.Errorf("email and password are required")
	}
	// the remote client emits SessionStarted, which runs resolution
	_, err := sc.remote.SignInWithPassword(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return nil, err
	}
	return sc.state.CurrentUser(), nil
}

// SignUp creates an account. ErrConfirmationPending means the account
// exists but has to be confirmed by email before a session is issued.
func (sc *SessionController) SignUp(ctx context.Context, email, password, name string) (*types.Profile, error) {
	if methods.IsBlank(name) {
		return nil, fmt.Errorf("name is required")
	}
	if sc.remote == nil {
		return sc.OfflineSignUp(ctx, name, email), nil
	}
	_, err := sc.remote.SignUp(ctx, strings.TrimSpace(email), password, strings.TrimSpace(name))
	if errors.Is(err, ErrConfirmationPending) {
		zerolog.Ctx(ctx).Info().Str("email", email).Msg("Sign-up awaiting email confirmation")
		return nil, err
	} else if err != nil {
		return nil, err
	}
	return sc.state.CurrentUser(), nil
}

func (sc *SessionController) OAuthURL(provider query.OAuthProvider) (string, error) {
	if sc.remote == nil {
		return "", ErrNoRemote
	}
	return sc.remote.AuthorizeURL(provider)
}

// OfflineSignUp creates a local-only user named name and arms edit mode so
// the rest of the profile gets filled in.
func (sc *SessionController) OfflineSignUp(ctx context.Context, name, email string) *types.Profile {
	name = strings.TrimSpace(name)
	user := &types.Profile{
		ID:                 methods.TimeID("new_user_", sc.clock.next()),
		Email:              strings.TrimSpace(email),
		Name:               name,
		Headline:           sc.defaults.Headline,
		AvatarURL:          methods.AvatarURL(name, url.Values{"background": {"0ea5e9"}, "color": {"fff"}}),
		BackgroundImageURL: sc.defaults.BackgroundURL,
		Experience:         []types.Experience{},
	}

	sc.dirLock.Lock()
	dir := sc.cols.LoadDirectory(ctx)
	dir.Put(user)
	if err := sc.cols.SaveDirectory(ctx, dir); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("profile_id", user.ID).Msg("Failed to save new user to cache")
	}
	sc.dirLock.Unlock()

	sc.state.installLocalUser(user, IsProfileIncomplete(user))
	saveLoginMetadata(ctx, sc.cols, &LoginMetadata{MockUserID: user.ID})
	zerolog.Ctx(ctx).Info().Str("profile_id", user.ID).Msg("Created offline user")
	return user.Clone()
}

// OfflineSignIn maps the demo addresses to the seeded users. Any other
// address gets the default user.
func (sc *SessionController) OfflineSignIn(ctx context.Context, email string) *types.Profile {
	user := mockLoginUser(email)
	sc.state.installLocalUser(user, false)
	saveLoginMetadata(ctx, sc.cols, &LoginMetadata{MockUserID: user.ID})
	zerolog.Ctx(ctx).Info().Str("profile_id", user.ID).Msg("Signed in offline")
	return user
}
