package connector

import (
	"sync"

	"github.com/semilink/semilink/pkg/semilinkgo/types"
	"github.com/semilink/semilink/pkg/store"
)

type AuthState int

const (
	StateAnonymous AuthState = iota
	StateResolving
	StateAuthenticated
)

func (as AuthState) String() string {
	switch as {
	case StateAnonymous:
		return "ANONYMOUS"
	case StateResolving:
		return "RESOLVING"
	case StateAuthenticated:
		return "AUTHENTICATED"
	default:
		return "UNKNOWN"
	}
}

type View string

const (
	ViewHome          View = "home"
	ViewProfile       View = "profile"
	ViewJobs          View = "jobs"
	ViewNetwork       View = "network"
	ViewMessaging     View = "messaging"
	ViewNotifications View = "notifications"
)

// State is the application state shared by the session controller and the
// mutation pipeline. Every field is guarded by lock.
type State struct {
	lock sync.Mutex

	auth AuthState
	// epoch changes whenever a resolution starts or the session ends, so a
	// resolution can tell whether it is still the current one.
	epoch uint64
	// remoteBacked is set when the active user came from the remote service
	// and profile changes should be forwarded there.
	remoteBacked bool

	currentUser       *types.Profile
	shouldEditProfile bool
	currentView       View

	posts         []types.Post
	conversations []types.Conversation
	notifications []types.Notification
	invitations   []types.Invitation
	connected     *store.IDSet
	savedJobs     *store.IDSet
	appliedJobs   *store.IDSet
}

func NewState(anonymous *types.Profile) *State {
	return &State{
		auth:        StateAnonymous,
		currentUser: anonymous.Clone(),
		currentView: ViewHome,
		connected:   store.NewIDSet(),
		savedJobs:   store.NewIDSet(),
		appliedJobs: store.NewIDSet(),
	}
}

// Snapshot is a copy of the state safe to read without holding any lock.
type Snapshot struct {
	Auth              AuthState
	RemoteBacked      bool
	CurrentUser       *types.Profile
	ShouldEditProfile bool
	CurrentView       View
	Posts             []types.Post
	Conversations     []types.Conversation
	Notifications     []types.Notification
	Invitations       []types.Invitation
	Connected         []string
	SavedJobs         []string
	AppliedJobs       []string
}

func (s *State) Snapshot() Snapshot {
	s.lock.Lock()
	defer s.lock.Unlock()
	snap := Snapshot{
		Auth:              s.auth,
		RemoteBacked:      s.remoteBacked,
		CurrentUser:       s.currentUser.Clone(),
		ShouldEditProfile: s.shouldEditProfile,
		CurrentView:       s.currentView,
		Posts:             clonePosts(s.posts),
		Conversations:     cloneConversations(s.conversations),
		Notifications:     append([]types.Notification(nil), s.notifications...),
		Invitations:       append([]types.Invitation(nil), s.invitations...),
		Connected:         s.connected.Slice(),
		SavedJobs:         s.savedJobs.Slice(),
		AppliedJobs:       s.appliedJobs.Slice(),
	}
	return snap
}

func (s *State) CurrentUser() *types.Profile {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.currentUser.Clone()
}

func (s *State) AuthState() AuthState {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.auth
}

func (s *State) Navigate(view View) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.currentView = view
	if view != ViewProfile {
		s.shouldEditProfile = false
	}
}

// beginResolving moves to RESOLVING and returns the epoch the resolution
// must still match when it completes.
func (s *State) beginResolving() uint64 {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.epoch++
	s.auth = StateResolving
	return s.epoch
}

// completeResolution installs the resolved user if epoch is still current.
func (s *State) completeResolution(epoch uint64, user *types.Profile, incomplete, remoteBacked bool) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.epoch != epoch {
		return false
	}
	s.auth = StateAuthenticated
	s.remoteBacked = remoteBacked
	s.currentUser = user.Clone()
	s.shouldEditProfile = incomplete
	if incomplete {
		s.currentView = ViewProfile
	}
	return true
}

// installLocalUser makes user active without a remote session, as the
// offline login flows do.
func (s *State) installLocalUser(user *types.Profile, editMode bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.epoch++
	s.auth = StateAuthenticated
	s.remoteBacked = false
	s.currentUser = user.Clone()
	s.shouldEditProfile = editMode
	if editMode {
		s.currentView = ViewProfile
	} else {
		s.currentView = ViewHome
	}
}

func (s *State) reset(anonymous *types.Profile) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.epoch++
	s.auth = StateAnonymous
	s.remoteBacked = false
	s.currentUser = anonymous.Clone()
	s.shouldEditProfile = false
	s.currentView = ViewHome
}

func clonePosts(posts []types.Post) []types.Post {
	if posts == nil {
		return nil
	}
	out := make([]types.Post, len(posts))
	for i, post := range posts {
		out[i] = post
		out[i].Tags = append([]string(nil), post.Tags...)
	}
	return out
}

func cloneConversations(convs []types.Conversation) []types.Conversation {
	if convs == nil {
		return nil
	}
	out := make([]types.Conversation, len(convs))
	for i, conv := range convs {
		out[i] = conv
		out[i].Messages = append([]types.Message(nil), conv.Messages...)
	}
	return out
}
