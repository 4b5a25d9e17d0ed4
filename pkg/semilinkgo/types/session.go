package types

import "time"

type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Identity     Identity  `json:"-"`
}

func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt.IsZero() || !now.Before(s.ExpiresAt)
}

type SessionEndedReason string

const (
	SessionEndedSignOut SessionEndedReason = "sign_out"
	SessionEndedExpired SessionEndedReason = "expired"
	SessionEndedRevoked SessionEndedReason = "revoked"
)
