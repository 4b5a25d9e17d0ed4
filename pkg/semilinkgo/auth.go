package semilinkgo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	gotypes "github.com/supabase-community/gotrue-go/types"

	"github.com/semilink/semilink/pkg/semilinkgo/event"
	"github.com/semilink/semilink/pkg/semilinkgo/types"
)

// GetSession returns the current session, refreshing it first if the
// access token has expired. It returns nil without an error when nobody
// is signed in.
func (c *Client) GetSession(ctx context.Context) (*types.Session, error) {
	sess := c.session.Session()
	if sess == nil {
		return nil, nil
	}
	if !sess.Expired(c.now()) {
		return sess, nil
	}
	return c.Refresh(ctx)
}

func (c *Client) Refresh(ctx context.Context) (*types.Session, error) {
	refreshToken := c.session.RefreshToken()
	if refreshToken == "" {
		return nil, ErrNoSession
	}
	var resp gotypes.Session
	err := c.do(ctx, func() (err error) {
		resp, err = c.sb.RefreshToken(refreshToken)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}
	sess := c.fromGoTrueSession(resp)
	c.session.Update(sess)
	c.emit(event.SessionRefreshed{Session: sess})
	return &sess, nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*types.Session, error) {
	var resp gotypes.Session
	err := c.do(ctx, func() (err error) {
		resp, err = c.sb.SignInWithEmailPassword(email, password)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign in: %w", err)
	}
	sess := c.fromGoTrueSession(resp)
	c.session.Update(sess)
	c.emit(event.SessionStarted{Session: sess})
	return &sess, nil
}

// SignUp registers a new account. When the backend requires the address to
// be confirmed first, no session is created and ErrConfirmationPending is
// returned.
func (c *Client) SignUp(ctx context.Context, email, password, name string) (*types.Session, error) {
	req := gotypes.SignupRequest{
		Email:    email,
		Password: password,
		Data:     map[string]interface{}{"name": name},
	}
	var resp *gotypes.SignupResponse
	err := c.do(ctx, func() (err error) {
		resp, err = c.sb.Auth.Signup(req)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign up: %w", err)
	}
	if resp.Session.AccessToken == "" {
		return nil, ErrConfirmationPending
	}
	if resp.Session.User.ID == uuid.Nil {
		resp.Session.User = resp.User
	}
	c.sb.UpdateAuthSession(resp.Session)
	sess := c.fromGoTrueSession(resp.Session)
	c.session.Update(sess)
	c.emit(event.SessionStarted{Session: sess})
	return &sess, nil
}

// SignOut revokes the session remotely and forgets it locally. The local
// state is cleared even when the remote call fails.
func (c *Client) SignOut(ctx context.Context) error {
	var err error
	if !c.session.IsEmpty() {
		err = c.do(ctx, func() error {
			return c.sb.Auth.Logout()
		})
	}
	_ = c.Disconnect()
	c.clearSession()
	c.emit(event.SessionEnded{Reason: types.SessionEndedSignOut})
	if err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	return nil
}

// clearSession forgets the user's tokens everywhere, so REST calls fall back
// to the anon key.
func (c *Client) clearSession() {
	c.session.Clear()
	c.sb.UpdateAuthSession(gotypes.Session{AccessToken: c.anonKey})
	c.sb.Auth = c.sb.Auth.WithToken("")
}

func (c *Client) fromGoTrueSession(s gotypes.Session) types.Session {
	sess := types.Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		Identity: types.Identity{
			Email:    s.User.Email,
			Metadata: s.User.UserMetadata,
		},
	}
	if s.User.ID != uuid.Nil {
		sess.Identity.ID = s.User.ID.String()
	}
	if s.ExpiresAt > 0 {
		sess.ExpiresAt = time.Unix(s.ExpiresAt, 0)
	} else if s.ExpiresIn > 0 {
		sess.ExpiresAt = c.now().Add(time.Duration(s.ExpiresIn) * time.Second)
	}
	return sess
}

func toGoTrueSession(s types.Session) gotypes.Session {
	out := gotypes.Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    "bearer",
	}
	if !s.ExpiresAt.IsZero() {
		out.ExpiresAt = s.ExpiresAt.Unix()
	}
	return out
}
