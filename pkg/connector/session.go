package connector

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/semilink/semilink/pkg/semilinkgo/types"
	"github.com/semilink/semilink/pkg/store"
)

// SessionController moves the app between ANONYMOUS, RESOLVING and
// AUTHENTICATED as sessions appear and end.
type SessionController struct {
	state    *State
	remote   RemoteService
	engine   *MergeEngine
	cols     *store.Collections
	defaults ProfileDefaults
	clock    *idClock
	dirLock  *sync.Mutex

	// ctx is used for events delivered by the remote client, which carry
	// no context of their own.
	ctx context.Context
}

func NewSessionController(ctx context.Context, state *State, remote RemoteService, engine *MergeEngine, cols *store.Collections, defaults ProfileDefaults, clock *idClock, dirLock *sync.Mutex) *SessionController {
	log := zerolog.Ctx(ctx).With().Str("component", "session").Logger()
	return &SessionController{
		state:    state,
		remote:   remote,
		engine:   engine,
		cols:     cols,
		defaults: defaults,
		clock:    clock,
		dirLock:  dirLock,
		ctx:      log.WithContext(context.WithoutCancel(ctx)),
	}
}

// HandleSessionStarted resolves the profile for a session that just
// appeared and makes it the active user. It returns nil when the session
// ended or was replaced before resolution finished.
func (sc *SessionController) HandleSessionStarted(ctx context.Context, sess types.Session) *Resolution {
	identity := sess.Identity
	log := zerolog.Ctx(ctx).With().Str("profile_id", identity.ID).Logger()
	if identity.ID == "" {
		log.Warn().Msg("Session has no user id, ignoring it")
		return nil
	}
	epoch := sc.state.beginResolving()
	sc.persistRemoteSession(ctx)

	var res *Resolution
	row, err := sc.remote.GetProfile(ctx, identity.ID)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to fetch remote profile, resolving from cache")
		res = sc.engine.ResolveCacheOnly(ctx, identity)
	} else {
		res = sc.engine.resolveRemote(ctx, row, identity)
	}

	if !sc.state.completeResolution(epoch, res.Profile, res.Incomplete, true) {
		log.Info().Msg("Session changed while resolving profile, discarding result")
		return nil
	}
	sc.engine.ScheduleWriteBack(ctx, res)
	evt := log.Info().Str("match", string(res.Match))
	if res.Incomplete {
		evt = evt.Bool("edit_mode", true)
	}
	evt.Msg("Profile resolved")
	return res
}

func (sc *SessionController) HandleSessionEnded(ctx context.Context, reason types.SessionEndedReason) {
	zerolog.Ctx(ctx).Info().Str("reason", string(reason)).Msg("Session ended")
	sc.state.reset(AnonymousUser())
	saveLoginMetadata(ctx, sc.cols, nil)
}

func (sc *SessionController) persistRemoteSession(ctx context.Context) {
	if sc.remote == nil {
		return
	}
	saveLoginMetadata(ctx, sc.cols, &LoginMetadata{Session: sc.remote.GetSessionString()})
}

// Restore picks up where the last run left off: a stored offline user, or
// whatever session the remote client still holds.
func (sc *SessionController) Restore(ctx context.Context) *types.Profile {
	log := zerolog.Ctx(ctx)
	meta := loadLoginMetadata(ctx, sc.cols)
	if meta.MockUserID != "" {
		user := sc.lookupLocalUser(ctx, meta.MockUserID)
		sc.state.installLocalUser(user, false)
		log.Info().Str("profile_id", user.ID).Msg("Restored offline login")
		return user
	}
	if sc.remote == nil {
		return nil
	}
	sess, err := sc.remote.GetSession(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to restore remote session")
		return nil
	} else if sess == nil {
		return nil
	}
	res := sc.HandleSessionStarted(ctx, *sess)
	if res == nil {
		return nil
	}
	return res.Profile
}

func (sc *SessionController) lookupLocalUser(ctx context.Context, id string) *types.Profile {
	sc.dirLock.Lock()
	dir := sc.cols.LoadDirectory(ctx)
	sc.dirLock.Unlock()
	if user, ok := dir.Get(id); ok {
		return user
	} else if user = seedUser(id); user != nil {
		return user
	}
	return AnonymousUser()
}

// Logout returns to the anonymous user immediately, then signs out of the
// remote service. A remote failure is logged only.
func (sc *SessionController) Logout(ctx context.Context) {
	log := zerolog.Ctx(ctx)
	sc.state.reset(AnonymousUser())
	if sc.remote != nil {
		if err := sc.remote.SignOut(ctx); err != nil {
			log.Warn().Err(err).Msg("Remote sign-out failed, local session cleared anyway")
		}
	}
	saveLoginMetadata(ctx, sc.cols, nil)
	log.Info().Msg("Logged out")
}
