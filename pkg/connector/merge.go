package connector

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/semilink/semilink/pkg/semilinkgo/methods"
	"github.com/semilink/semilink/pkg/semilinkgo/types"
	"github.com/semilink/semilink/pkg/store"
)

type FieldSource string

const (
	SourceIdentity FieldSource = "identity"
	SourceRemote   FieldSource = "remote"
	SourceLocal    FieldSource = "local"
	SourceDefault  FieldSource = "default"
)

type LocalMatch string

const (
	MatchNone  LocalMatch = ""
	MatchID    LocalMatch = "id"
	MatchEmail LocalMatch = "email"
)

type ProfileDefaults struct {
	Name          string
	Headline      string
	BackgroundURL string
	Avatar        func(name string) string
}

func (pd *ProfileDefaults) avatar(name string) string {
	if pd.Avatar == nil {
		return methods.AvatarURL(name, nil)
	}
	return pd.Avatar(name)
}

func DefaultsFromConfig(cfg *ProfileConfig) ProfileDefaults {
	pd := ProfileDefaults{
		Name:          cfg.DefaultName,
		Headline:      cfg.DefaultHeadline,
		BackgroundURL: cfg.BackgroundURL,
		Avatar:        cfg.FormatAvatar,
	}
	if pd.Name == "" {
		pd.Name = "User"
	}
	return pd
}

// Resolution is the outcome of merging one remote row with one cached
// profile.
type Resolution struct {
	Profile *types.Profile
	Sources map[string]FieldSource
	Match   LocalMatch
	// ExperienceWriteBack is the list that has to be pushed to the remote
	// side, or nil when the remote already has it.
	ExperienceWriteBack []types.Experience
	Incomplete          bool
	RemoteCreated       bool
}

type stringField struct {
	name     string
	remote   func(*types.RemoteProfile) *string
	local    func(*types.Profile) string
	fallback func(*ProfileDefaults, *types.Profile) string
	set      func(*types.Profile, string)
}

// profileFields lists the scalar string fields in resolution order. Each
// takes the remote value if non-blank, then the cached value if
// non-blank, then the fallback. avatarUrl comes after name because its
// fallback is derived from the resolved name.
var profileFields = []stringField{
	{
		name:     "name",
		remote:   func(r *types.RemoteProfile) *string { return r.Name },
		local:    func(p *types.Profile) string { return p.Name },
		fallback: func(d *ProfileDefaults, _ *types.Profile) string { return d.Name },
		set:      func(p *types.Profile, v string) { p.Name = v },
	},
	{
		name:     "headline",
		remote:   func(r *types.RemoteProfile) *string { return r.Headline },
		local:    func(p *types.Profile) string { return p.Headline },
		fallback: func(d *ProfileDefaults, _ *types.Profile) string { return d.Headline },
		set:      func(p *types.Profile, v string) { p.Headline = v },
	},
	{
		name:     "avatarUrl",
		remote:   func(r *types.RemoteProfile) *string { return r.AvatarURL },
		local:    func(p *types.Profile) string { return p.AvatarURL },
		fallback: func(d *ProfileDefaults, resolved *types.Profile) string { return d.avatar(resolved.Name) },
		set:      func(p *types.Profile, v string) { p.AvatarURL = v },
	},
	{
		name:     "location",
		remote:   func(r *types.RemoteProfile) *string { return r.Location },
		local:    func(p *types.Profile) string { return p.Location },
		fallback: func(*ProfileDefaults, *types.Profile) string { return "" },
		set:      func(p *types.Profile, v string) { p.Location = v },
	},
	{
		name:     "about",
		remote:   func(r *types.RemoteProfile) *string { return r.About },
		local:    func(p *types.Profile) string { return p.About },
		fallback: func(*ProfileDefaults, *types.Profile) string { return "" },
		set:      func(p *types.Profile, v string) { p.About = v },
	},
	{
		name:     "backgroundImageUrl",
		remote:   func(r *types.RemoteProfile) *string { return r.BackgroundImageURL },
		local:    func(p *types.Profile) string { return p.BackgroundImageURL },
		fallback: func(d *ProfileDefaults, _ *types.Profile) string { return d.BackgroundURL },
		set:      func(p *types.Profile, v string) { p.BackgroundImageURL = v },
	},
}

// ResolveFields merges remote and local into one profile without side
// effects. Either side may be nil. A nil remote means the remote state is
// unknown, so no write-back is proposed.
func ResolveFields(remote *types.RemoteProfile, local *types.Profile, identity types.Identity, defaults ProfileDefaults) *Resolution {
	res := &Resolution{
		Profile: &types.Profile{},
		Sources: make(map[string]FieldSource, len(profileFields)+4),
	}
	out := res.Profile

	out.ID = identity.ID
	if out.ID == "" && remote != nil {
		out.ID = remote.ID
	}
	res.Sources["id"] = SourceIdentity

	if remote != nil && !methods.IsBlank(derefStr(remote.Email)) {
		out.Email = *remote.Email
		res.Sources["email"] = SourceRemote
	} else {
		out.Email = identity.Email
		res.Sources["email"] = SourceIdentity
	}

	for _, field := range profileFields {
		switch {
		case remote != nil && !methods.IsBlank(derefStr(field.remote(remote))):
			field.set(out, *field.remote(remote))
			res.Sources[field.name] = SourceRemote
		case local != nil && !methods.IsBlank(field.local(local)):
			field.set(out, field.local(local))
			res.Sources[field.name] = SourceLocal
		default:
			field.set(out, field.fallback(&defaults, out))
			res.Sources[field.name] = SourceDefault
		}
	}

	switch {
	case remote != nil && derefInt(remote.Connections) > 0:
		out.Connections = *remote.Connections
		res.Sources["connections"] = SourceRemote
	case local != nil && local.Connections > 0:
		out.Connections = local.Connections
		res.Sources["connections"] = SourceLocal
	default:
		res.Sources["connections"] = SourceDefault
	}

	switch {
	case remote != nil && len(remote.Experience) > 0:
		out.Experience = types.CloneExperience(remote.Experience)
		res.Sources["experience"] = SourceRemote
	case local != nil && len(local.Experience) > 0:
		out.Experience = types.CloneExperience(local.Experience)
		res.Sources["experience"] = SourceLocal
		if remote != nil {
			res.ExperienceWriteBack = types.CloneExperience(local.Experience)
		}
	default:
		out.Experience = []types.Experience{}
		res.Sources["experience"] = SourceDefault
	}

	res.Incomplete = IsProfileIncomplete(out)
	return res
}

// IsProfileIncomplete reports whether the user still has to fill in their
// location, about text or work history.
func IsProfileIncomplete(p *types.Profile) bool {
	return methods.IsBlank(p.Location) || methods.IsBlank(p.About) || len(p.Experience) == 0
}

// MergeEngine resolves profiles against the local directory and keeps both
// stores converging.
type MergeEngine struct {
	remote   RemoteService
	cols     *store.Collections
	queue    *WriteBackQueue
	defaults ProfileDefaults
	metrics  *Metrics
	dirLock  *sync.Mutex
}

func NewMergeEngine(remote RemoteService, cols *store.Collections, queue *WriteBackQueue, defaults ProfileDefaults, metrics *Metrics, dirLock *sync.Mutex) *MergeEngine {
	return &MergeEngine{
		remote:   remote,
		cols:     cols,
		queue:    queue,
		defaults: defaults,
		metrics:  metrics,
		dirLock:  dirLock,
	}
}

// ResolveProfile produces the profile for hint from the remote row and the
// cached directory entry, and queues the experience write-back if one is
// needed. When remoteRow is nil a default row is synthesised and, if
// possible, created remotely. It never fails.
func (me *MergeEngine) ResolveProfile(ctx context.Context, remoteRow *types.RemoteProfile, hint types.Identity) *Resolution {
	res := me.resolveRemote(ctx, remoteRow, hint)
	me.ScheduleWriteBack(ctx, res)
	return res
}

// resolveRemote is ResolveProfile without queueing the write-back, for
// callers that first have to check the result is still wanted.
func (me *MergeEngine) resolveRemote(ctx context.Context, remoteRow *types.RemoteProfile, hint types.Identity) *Resolution {
	log := zerolog.Ctx(ctx)
	created := false
	if remoteRow == nil {
		log.Info().Str("profile_id", hint.ID).Msg("Remote profile missing, creating default profile")
		remoteRow = me.defaultRow(hint)
		if me.remote != nil {
			if err := me.remote.CreateProfile(ctx, remoteRow); err != nil {
				log.Warn().Err(err).Str("profile_id", hint.ID).Msg("Failed to create remote profile, continuing with local copy")
			} else {
				created = true
			}
		}
	}
	res := me.resolve(ctx, remoteRow, hint)
	res.RemoteCreated = created
	if created {
		me.metrics.resolution("created")
	} else {
		me.metrics.resolution("remote")
	}
	return res
}

// ResolveCacheOnly is used when the remote row could not be fetched. The
// cached entry and defaults are all there is, and nothing is pushed back.
func (me *MergeEngine) ResolveCacheOnly(ctx context.Context, hint types.Identity) *Resolution {
	res := me.resolve(ctx, nil, hint)
	me.metrics.resolution("cache_only")
	return res
}

func (me *MergeEngine) resolve(ctx context.Context, remoteRow *types.RemoteProfile, hint types.Identity) *Resolution {
	log := zerolog.Ctx(ctx)
	me.dirLock.Lock()
	defer me.dirLock.Unlock()

	dir := me.cols.LoadDirectory(ctx)
	lookupID := hint.ID
	if lookupID == "" && remoteRow != nil {
		lookupID = remoteRow.ID
	}
	local, match := lookupLocal(dir, lookupID, hint.Email)

	res := ResolveFields(remoteRow, local, hint, me.defaults)
	res.Match = match

	dir.Put(res.Profile)
	if err := me.cols.SaveDirectory(ctx, dir); err != nil {
		log.Warn().Err(err).Str("profile_id", res.Profile.ID).Msg("Failed to save resolved profile to cache")
	}
	return res
}

// ScheduleWriteBack queues the experience sync planned by res, if any.
func (me *MergeEngine) ScheduleWriteBack(ctx context.Context, res *Resolution) {
	if res == nil || res.ExperienceWriteBack == nil {
		return
	}
	zerolog.Ctx(ctx).Debug().
		Str("profile_id", res.Profile.ID).
		Int("entries", len(res.ExperienceWriteBack)).
		Msg("Remote experience empty, scheduling sync from cache")
	me.queue.Enqueue(Task{
		Kind:       TaskExperienceSync,
		ProfileID:  res.Profile.ID,
		Experience: types.CloneExperience(res.ExperienceWriteBack),
	})
}

func lookupLocal(dir *store.Directory, id, email string) (*types.Profile, LocalMatch) {
	if id != "" {
		if p, ok := dir.Get(id); ok {
			return p, MatchID
		}
	}
	if p, ok := dir.FindByEmail(email); ok {
		return p, MatchEmail
	}
	return nil, MatchNone
}

func (me *MergeEngine) defaultRow(hint types.Identity) *types.RemoteProfile {
	name := strings.TrimSpace(hint.MetadataString("name"))
	if name == "" {
		name = methods.EmailLocalPart(hint.Email)
	}
	if name == "" {
		name = me.defaults.Name
	}
	return RemoteRowFromProfile(&types.Profile{
		ID:         hint.ID,
		Email:      hint.Email,
		Name:       name,
		AvatarURL:  hint.MetadataString("avatar_url"),
		Experience: []types.Experience{},
	})
}
