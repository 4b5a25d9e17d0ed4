package methods

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeID(t *testing.T) {
	now := time.UnixMilli(1718000000123)
	assert.Equal(t, "new_user_1718000000123", TimeID("new_user_", now))
	assert.Equal(t, "1718000000123", TimeID("", now))
}

func TestRandomID(t *testing.T) {
	id := RandomID("m_", 10)
	assert.True(t, strings.HasPrefix(id, "m_"))
	assert.Len(t, id, 12)
	assert.NotEqual(t, id, RandomID("m_", 10))
}

func TestAvatarURL(t *testing.T) {
	assert.Equal(t, "https://ui-avatars.com/api/?name=Jordan%20Lee", AvatarURL("Jordan Lee", nil))
	assert.Equal(t,
		"https://ui-avatars.com/api/?name=Jordan&background=0ea5e9&color=fff",
		AvatarURL("Jordan", url.Values{"background": {"0ea5e9"}, "color": {"fff"}}),
	)
	assert.Equal(t, "https://ui-avatars.com/api/?name=R%26D", AvatarURL("R&D", nil))
}

func TestEmailLocalPart(t *testing.T) {
	assert.Equal(t, "sam", EmailLocalPart("sam@x.com"))
	assert.Equal(t, "no-at-sign", EmailLocalPart("no-at-sign"))
	assert.Equal(t, "a", EmailLocalPart("a@b@c"))
	assert.Equal(t, "", EmailLocalPart(""))
}

func TestIsBlank(t *testing.T) {
	assert.True(t, IsBlank(""))
	assert.True(t, IsBlank("  \t"))
	assert.False(t, IsBlank(" x "))
}
