package types

import (
	"go.mau.fi/util/jsontime"
)

type Post struct {
	ID        string   `json:"id"`
	Author    Profile  `json:"author"`
	Content   string   `json:"content"`
	ImageURL  string   `json:"imageUrl,omitempty"`
	Likes     int      `json:"likes"`
	Liked     bool     `json:"liked"`
	Comments  int      `json:"comments"`
	Timestamp string   `json:"timestamp"`
	Tags      []string `json:"tags"`
}

type Message struct {
	ID        string             `json:"id"`
	SenderID  string             `json:"senderId"`
	Content   string             `json:"content"`
	Timestamp jsontime.UnixMilli `json:"timestamp"`
	IsRead    bool               `json:"isRead"`
}

// SenderSelf marks messages sent by the active user.
const SenderSelf = "me"

type Conversation struct {
	ID                   string             `json:"id"`
	Contact              Profile            `json:"contact"`
	Messages             []Message          `json:"messages"`
	LastMessageTimestamp jsontime.UnixMilli `json:"lastMessageTimestamp"`
	UnreadCount          int                `json:"unreadCount"`
	IsOnline             bool               `json:"isOnline,omitempty"`
}

type NotificationType string

const (
	NotificationLike       NotificationType = "like"
	NotificationComment    NotificationType = "comment"
	NotificationConnection NotificationType = "connection"
	NotificationJob        NotificationType = "job"
	NotificationView       NotificationType = "view"
	NotificationMention    NotificationType = "mention"
)

type NotificationActor struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
	Type      string `json:"type"`
}

type Notification struct {
	ID            string            `json:"id"`
	Type          NotificationType  `json:"type"`
	Actor         NotificationActor `json:"actor"`
	Content       string            `json:"content"`
	TargetContext string            `json:"targetContext,omitempty"`
	Timestamp     string            `json:"timestamp"`
	IsRead        bool              `json:"isRead"`
}

// Invitation is a pending connection request from another user.
type Invitation struct {
	UserID string  `json:"userId"`
	From   Profile `json:"from"`
	Note   string  `json:"note,omitempty"`
}
