// Package store is the local cache: a durable string-keyed store plus typed
// accessors for the collections the app keeps offline.
package store

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("key not found")

type Store interface {
	// Get returns ErrNotFound when the key has never been written.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

type Key string

const (
	KeyDirectory     Key = "semilink_users"
	KeyPosts         Key = "semilink_posts"
	KeyConversations Key = "semilink_conversations"
	KeyNotifications Key = "semilink_notifications"
	KeyInvitations   Key = "semilink_invitations"
	KeyConnections   Key = "semilink_connections"
	KeySavedJobs     Key = "semilink_saved_jobs"
	KeyAppliedJobs   Key = "semilink_applied_jobs"
	KeySession       Key = "semilink_session"
)
