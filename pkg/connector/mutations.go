package connector

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"go.mau.fi/util/jsontime"

	"github.com/semilink/semilink/pkg/semilinkgo/methods"
	"github.com/semilink/semilink/pkg/semilinkgo/routing/payload"
	"github.com/semilink/semilink/pkg/semilinkgo/types"
	"github.com/semilink/semilink/pkg/store"
)

// Pipeline applies user actions: it updates the in-memory state, writes
// the whole affected collection back to the cache and, for profile changes
// of a remote user, queues the remote update. Operations hold the state
// lock for their full read-modify-write, so writes to a collection happen
// in call order.
type Pipeline struct {
	state   *State
	cols    *store.Collections
	queue   *WriteBackQueue
	clock   *idClock
	dirLock *sync.Mutex
}

func NewPipeline(state *State, cols *store.Collections, queue *WriteBackQueue, clock *idClock, dirLock *sync.Mutex) *Pipeline {
	return &Pipeline{
		state:   state,
		cols:    cols,
		queue:   queue,
		clock:   clock,
		dirLock: dirLock,
	}
}

// UpdateProfile replaces the active user. It is a no-op returning false
// when updated is not the active user or fails validation.
func (pl *Pipeline) UpdateProfile(ctx context.Context, updated *types.Profile) bool {
	log := zerolog.Ctx(ctx)
	if updated == nil {
		return false
	}
	if err := profileValidate.Struct(updated); err != nil {
		log.Debug().Err(err).Str("profile_id", updated.ID).Msg("Rejected invalid profile update")
		return false
	}
	pl.state.lock.Lock()
	defer pl.state.lock.Unlock()
	if updated.ID != pl.state.currentUser.ID {
		log.Warn().
			Str("profile_id", updated.ID).
			Str("current_id", pl.state.currentUser.ID).
			Msg("Ignoring update for a profile that is not the active user")
		return false
	}
	pl.updateProfileLocked(ctx, updated)
	return true
}

// updateProfileLocked must be called with the state lock held.
func (pl *Pipeline) updateProfileLocked(ctx context.Context, updated *types.Profile) {
	user := updated.Clone()
	if user.Experience == nil {
		user.Experience = []types.Experience{}
	}
	user.MutualConnections = 0
	pl.state.currentUser = user
	pl.state.shouldEditProfile = false

	pl.dirLock.Lock()
	dir := pl.cols.LoadDirectory(ctx)
	dir.Put(user)
	err := pl.cols.SaveDirectory(ctx, dir)
	pl.dirLock.Unlock()
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("profile_id", user.ID).Msg("Failed to save profile to cache")
	}

	if pl.state.remoteBacked {
		pl.queue.Enqueue(Task{
			Kind:      TaskProfileUpdate,
			ProfileID: user.ID,
			Profile:   user.Clone(),
		})
	}
}

// AddExperience prepends entry to the active user's work history. Entries
// without a title or company are ignored.
func (pl *Pipeline) AddExperience(ctx context.Context, entry types.Experience) bool {
	if err := profileValidate.Struct(entry); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("Rejected experience entry")
		return false
	}
	pl.state.lock.Lock()
	defer pl.state.lock.Unlock()
	entry.ID = methods.TimeID("", pl.clock.next())
	user := pl.state.currentUser.Clone()
	user.Experience = append([]types.Experience{entry}, user.Experience...)
	pl.updateProfileLocked(ctx, user)
	return true
}

// ToggleLike flips the viewer's like on a post and moves the counter by
// one in the same direction.
func (pl *Pipeline) ToggleLike(ctx context.Context, postID string) bool {
	pl.state.lock.Lock()
	defer pl.state.lock.Unlock()
	posts := clonePosts(pl.state.posts)
	idx := -1
	for i := range posts {
		if posts[i].ID == postID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	post := &posts[idx]
	post.Liked = !post.Liked
	if post.Liked {
		post.Likes++
	} else {
		post.Likes--
	}
	pl.state.posts = posts
	pl.persist(ctx, store.KeyPosts, pl.cols.SavePosts(ctx, posts))
	return true
}

// Connect records a connection request to userID. It reports whether the
// id was new.
func (pl *Pipeline) Connect(ctx context.Context, userID string) bool {
	if methods.IsBlank(userID) {
		return false
	}
	pl.state.lock.Lock()
	defer pl.state.lock.Unlock()
	if !pl.state.connected.Add(userID) {
		return false
	}
	pl.persist(ctx, store.KeyConnections, pl.cols.SaveIDSet(ctx, store.KeyConnections, pl.state.connected))
	return true
}

// AcceptInvitation removes the invitation from userID, connects to them and
// bumps the active user's connection count.
func (pl *Pipeline) AcceptInvitation(ctx context.Context, userID string) bool {
	pl.state.lock.Lock()
	defer pl.state.lock.Unlock()
	idx := -1
	for i, inv := range pl.state.invitations {
		if inv.UserID == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	invitations := make([]types.Invitation, 0, len(pl.state.invitations)-1)
	invitations = append(invitations, pl.state.invitations[:idx]...)
	invitations = append(invitations, pl.state.invitations[idx+1:]...)
	pl.state.invitations = invitations
	pl.persist(ctx, store.KeyInvitations, pl.cols.SaveInvitations(ctx, invitations))

	if pl.state.connected.Add(userID) {
		pl.persist(ctx, store.KeyConnections, pl.cols.SaveIDSet(ctx, store.KeyConnections, pl.state.connected))
	}

	user := pl.state.currentUser.Clone()
	user.Connections++
	pl.updateProfileLocked(ctx, user)
	return true
}

// ToggleSavedJob returns whether the job is saved after the call.
func (pl *Pipeline) ToggleSavedJob(ctx context.Context, jobID string) bool {
	pl.state.lock.Lock()
	defer pl.state.lock.Unlock()
	saved := pl.state.savedJobs.Toggle(jobID)
	pl.persist(ctx, store.KeySavedJobs, pl.cols.SaveIDSet(ctx, store.KeySavedJobs, pl.state.savedJobs))
	return saved
}

// ApplyToJob reports whether this was the first application to jobID.
func (pl *Pipeline) ApplyToJob(ctx context.Context, jobID string) bool {
	if methods.IsBlank(jobID) {
		return false
	}
	pl.state.lock.Lock()
	defer pl.state.lock.Unlock()
	if !pl.state.appliedJobs.Add(jobID) {
		return false
	}
	pl.persist(ctx, store.KeyAppliedJobs, pl.cols.SaveIDSet(ctx, store.KeyAppliedJobs, pl.state.appliedJobs))
	return true
}

// SendMessage appends text to the conversation. It returns nil when the
// conversation is unknown or the text is blank.
func (pl *Pipeline) SendMessage(ctx context.Context, conversationID, text string) *types.Message {
	if methods.IsBlank(text) {
		return nil
	}
	pl.state.lock.Lock()
	defer pl.state.lock.Unlock()
	convs := cloneConversations(pl.state.conversations)
	idx := -1
	for i := range convs {
		if convs[i].ID == conversationID {
			idx = i
			break
		}
	}
	if idx < 0 {
		zerolog.Ctx(ctx).Debug().Str("conversation_id", conversationID).Msg("Message to unknown conversation dropped")
		return nil
	}
	sentAt := jsontime.UM(pl.clock.next())
	msg := types.Message{
		ID:        methods.RandomID("msg_", 9),
		SenderID:  types.SenderSelf,
		Content:   text,
		Timestamp: sentAt,
		IsRead:    true,
	}
	convs[idx].Messages = append(convs[idx].Messages, msg)
	convs[idx].LastMessageTimestamp = sentAt
	pl.state.conversations = convs
	pl.persist(ctx, store.KeyConversations, pl.cols.SaveConversations(ctx, convs))
	return &msg
}

// CreatePost puts a new post by the active user at the top of the feed and
// queues it for the remote posts table when signed in remotely.
func (pl *Pipeline) CreatePost(ctx context.Context, content, imageURL string, tags []string) *types.Post {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	pl.state.lock.Lock()
	defer pl.state.lock.Unlock()
	author := pl.state.currentUser.Clone()
	post := types.Post{
		ID:        methods.TimeID("", pl.clock.next()),
		Author:    *author,
		Content:   content,
		ImageURL:  imageURL,
		Timestamp: "Just now",
		Tags:      append([]string{}, tags...),
	}
	posts := append([]types.Post{post}, clonePosts(pl.state.posts)...)
	pl.state.posts = posts
	pl.persist(ctx, store.KeyPosts, pl.cols.SavePosts(ctx, posts))

	if pl.state.remoteBacked {
		pl.queue.Enqueue(Task{
			Kind:      TaskPostInsert,
			ProfileID: author.ID,
			Post: &payload.PostInsert{
				AuthorID: author.ID,
				Content:  content,
				ImageURL: imageURL,
				Tags:     append([]string{}, tags...),
			},
		})
	}
	return &post
}

// MarkNotificationsRead marks every notification read and returns how
// many were unread.
func (pl *Pipeline) MarkNotificationsRead(ctx context.Context) int {
	pl.state.lock.Lock()
	defer pl.state.lock.Unlock()
	notifs := append([]types.Notification(nil), pl.state.notifications...)
	changed := 0
	for i := range notifs {
		if !notifs[i].IsRead {
			notifs[i].IsRead = true
			changed++
		}
	}
	if changed == 0 {
		return 0
	}
	pl.state.notifications = notifs
	pl.persist(ctx, store.KeyNotifications, pl.cols.SaveNotifications(ctx, notifs))
	return changed
}

func (pl *Pipeline) persist(ctx context.Context, key store.Key, err error) {
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", string(key)).Msg("Failed to save collection to cache")
	}
}
