package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semilink/semilink/pkg/semilinkgo/types"
)

func TestJarRoundTrip(t *testing.T) {
	jar := NewJar()
	assert.True(t, jar.IsEmpty())
	assert.Equal(t, "", jar.String())
	assert.Nil(t, jar.Session())

	expires := time.Unix(1700000000, 0)
	jar.Update(types.Session{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    expires,
		Identity:     types.Identity{ID: "u9", Email: "sam@x.com", Metadata: map[string]any{"name": "Sam"}},
	})

	restored := NewJarFromString(jar.String())
	sess := restored.Session()
	require.NotNil(t, sess)
	assert.Equal(t, "access", sess.AccessToken)
	assert.Equal(t, "refresh", restored.RefreshToken())
	assert.Equal(t, "u9", sess.Identity.ID)
	assert.Equal(t, "sam@x.com", sess.Identity.Email)
	assert.Equal(t, "Sam", sess.Identity.MetadataString("name"))
	assert.True(t, sess.ExpiresAt.Equal(expires))
}

func TestJarFromGarbage(t *testing.T) {
	jar := NewJarFromString("{not json")
	assert.True(t, jar.IsEmpty())
}

func TestJarClear(t *testing.T) {
	jar := NewJar()
	jar.Update(types.Session{AccessToken: "a"})
	jar.Clear()
	assert.True(t, jar.IsEmpty())
	assert.Equal(t, "", jar.String())
}
