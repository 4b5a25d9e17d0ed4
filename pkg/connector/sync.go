package connector

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/semilink/semilink/pkg/semilinkgo/types"
	"github.com/semilink/semilink/pkg/store"
)

// syncCollections loads the auxiliary collections into the state. A
// collection that has never been written is seeded with the demo content
// and saved, so later runs read it back from the cache.
func (sc *SemiLinkConnector) syncCollections(ctx context.Context) {
	log := zerolog.Ctx(ctx)
	cols := sc.Collections

	posts, ok := cols.LoadPosts(ctx)
	if !ok {
		posts = seedPosts()
		sc.seed(ctx, store.KeyPosts, cols.SavePosts(ctx, posts))
	}
	convs, ok := cols.LoadConversations(ctx)
	if !ok {
		convs = seedConversations()
		sc.seed(ctx, store.KeyConversations, cols.SaveConversations(ctx, convs))
	}
	notifs, ok := cols.LoadNotifications(ctx)
	if !ok {
		notifs = seedNotifications()
		sc.seed(ctx, store.KeyNotifications, cols.SaveNotifications(ctx, notifs))
	}
	invs, ok := cols.LoadInvitations(ctx)
	if !ok {
		invs = seedInvitations()
		sc.seed(ctx, store.KeyInvitations, cols.SaveInvitations(ctx, invs))
	}
	connected := cols.LoadIDSet(ctx, store.KeyConnections)
	saved := cols.LoadIDSet(ctx, store.KeySavedJobs)
	applied := cols.LoadIDSet(ctx, store.KeyAppliedJobs)

	st := sc.State
	st.lock.Lock()
	st.posts = nonNilPosts(posts)
	st.conversations = convs
	st.notifications = notifs
	st.invitations = invs
	st.connected = connected
	st.savedJobs = saved
	st.appliedJobs = applied
	st.lock.Unlock()

	log.Debug().
		Int("posts", len(posts)).
		Int("conversations", len(convs)).
		Int("notifications", len(notifs)).
		Int("invitations", len(invs)).
		Msg("Loaded cached collections")
}

func (sc *SemiLinkConnector) seed(ctx context.Context, key store.Key, err error) {
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", string(key)).Msg("Failed to save seeded collection")
	}
}

func nonNilPosts(posts []types.Post) []types.Post {
	if posts == nil {
		return []types.Post{}
	}
	return posts
}
