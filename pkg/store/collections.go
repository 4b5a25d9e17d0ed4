package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"

	"github.com/semilink/semilink/pkg/semilinkgo/types"
)

// Collections reads and writes whole named collections. Loads never fail:
// a missing key or a value that does not parse yields the empty value and
// ok=false.
type Collections struct {
	store Store
	log   zerolog.Logger
}

func NewCollections(s Store, log zerolog.Logger) *Collections {
	return &Collections{
		store: s,
		log:   log.With().Str("component", "collections").Logger(),
	}
}

func (c *Collections) Store() Store {
	return c.store
}

func load[T any](ctx context.Context, c *Collections, key Key, into *T) bool {
	raw, err := c.store.Get(ctx, string(key))
	if errors.Is(err, ErrNotFound) {
		return false
	} else if err != nil {
		c.log.Warn().Err(err).Str("key", string(key)).Msg("Failed to read collection, treating as empty")
		return false
	}
	if err = json.Unmarshal([]byte(raw), into); err != nil {
		c.log.Warn().Err(err).Str("key", string(key)).Msg("Corrupt collection in cache, treating as empty")
		var zero T
		*into = zero
		return false
	}
	return true
}

func save(ctx context.Context, c *Collections, key Key, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, string(key), string(data))
}

func (c *Collections) LoadDirectory(ctx context.Context) *Directory {
	dir := NewDirectory()
	if !load(ctx, c, KeyDirectory, dir) || dir.entries == nil {
		return NewDirectory()
	}
	return dir
}

func (c *Collections) SaveDirectory(ctx context.Context, dir *Directory) error {
	return save(ctx, c, KeyDirectory, dir)
}

func (c *Collections) LoadPosts(ctx context.Context) ([]types.Post, bool) {
	var posts []types.Post
	ok := load(ctx, c, KeyPosts, &posts)
	return posts, ok
}

func (c *Collections) SavePosts(ctx context.Context, posts []types.Post) error {
	return save(ctx, c, KeyPosts, posts)
}

func (c *Collections) LoadConversations(ctx context.Context) ([]types.Conversation, bool) {
	var convs []types.Conversation
	ok := load(ctx, c, KeyConversations, &convs)
	return convs, ok
}

func (c *Collections) SaveConversations(ctx context.Context, convs []types.Conversation) error {
	return save(ctx, c, KeyConversations, convs)
}

func (c *Collections) LoadNotifications(ctx context.Context) ([]types.Notification, bool) {
	var notifs []types.Notification
	ok := load(ctx, c, KeyNotifications, &notifs)
	return notifs, ok
}

func (c *Collections) SaveNotifications(ctx context.Context, notifs []types.Notification) error {
	return save(ctx, c, KeyNotifications, notifs)
}

func (c *Collections) LoadInvitations(ctx context.Context) ([]types.Invitation, bool) {
	var invs []types.Invitation
	ok := load(ctx, c, KeyInvitations, &invs)
	return invs, ok
}

func (c *Collections) SaveInvitations(ctx context.Context, invs []types.Invitation) error {
	return save(ctx, c, KeyInvitations, invs)
}

func (c *Collections) LoadIDSet(ctx context.Context, key Key) *IDSet {
	set := NewIDSet()
	if !load(ctx, c, key, set) {
		return NewIDSet()
	}
	return set
}

func (c *Collections) SaveIDSet(ctx context.Context, key Key, set *IDSet) error {
	return save(ctx, c, key, set)
}

func (c *Collections) LoadSession(ctx context.Context) string {
	raw, err := c.store.Get(ctx, string(KeySession))
	if err != nil {
		return ""
	}
	return raw
}

func (c *Collections) SaveSession(ctx context.Context, data string) error {
	if data == "" {
		return c.store.Delete(ctx, string(KeySession))
	}
	return c.store.Set(ctx, string(KeySession), data)
}
