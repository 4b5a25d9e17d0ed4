package session

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/semilink/semilink/pkg/semilinkgo/types"
)

// Jar holds the tokens of the current auth session. It is safe for
// concurrent use.
type Jar struct {
	Store stored
	lock  sync.RWMutex
}

type stored struct {
	AccessToken  string         `json:"access_token,omitempty"`
	RefreshToken string         `json:"refresh_token,omitempty"`
	ExpiresAt    int64          `json:"expires_at,omitempty"`
	UserID       string         `json:"user_id,omitempty"`
	Email        string         `json:"email,omitempty"`
	Metadata     map[string]any `json:"user_metadata,omitempty"`
}

func NewJar() *Jar {
	return &Jar{}
}

// NewJarFromString restores a jar serialised with String. Anything that
// does not parse yields an empty jar.
func NewJarFromString(data string) *Jar {
	j := NewJar()
	if data == "" {
		return j
	}
	_ = json.Unmarshal([]byte(data), &j.Store)
	return j
}

func (j *Jar) String() string {
	j.lock.RLock()
	defer j.lock.RUnlock()
	if j.Store.AccessToken == "" && j.Store.RefreshToken == "" {
		return ""
	}
	data, err := json.Marshal(j.Store)
	if err != nil {
		return ""
	}
	return string(data)
}

func (j *Jar) IsEmpty() bool {
	j.lock.RLock()
	defer j.lock.RUnlock()
	return j.Store.AccessToken == ""
}

func (j *Jar) RefreshToken() string {
	j.lock.RLock()
	defer j.lock.RUnlock()
	return j.Store.RefreshToken
}

// Session returns the stored session, or nil if the jar is empty.
func (j *Jar) Session() *types.Session {
	j.lock.RLock()
	defer j.lock.RUnlock()
	if j.Store.AccessToken == "" {
		return nil
	}
	sess := &types.Session{
		AccessToken:  j.Store.AccessToken,
		RefreshToken: j.Store.RefreshToken,
		Identity: types.Identity{
			ID:       j.Store.UserID,
			Email:    j.Store.Email,
			Metadata: j.Store.Metadata,
		},
	}
	if j.Store.ExpiresAt > 0 {
		sess.ExpiresAt = time.Unix(j.Store.ExpiresAt, 0)
	}
	return sess
}

func (j *Jar) Update(sess types.Session) {
	j.lock.Lock()
	defer j.lock.Unlock()
	j.Store = stored{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		UserID:       sess.Identity.ID,
		Email:        sess.Identity.Email,
		Metadata:     sess.Identity.Metadata,
	}
	if !sess.ExpiresAt.IsZero() {
		j.Store.ExpiresAt = sess.ExpiresAt.Unix()
	}
}

func (j *Jar) Clear() {
	j.lock.Lock()
	defer j.lock.Unlock()
	j.Store = stored{}
}
