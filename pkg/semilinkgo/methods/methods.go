package methods

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.mau.fi/util/random"
)

// TimeID returns prefix followed by the unix millisecond timestamp of now.
func TimeID(prefix string, now time.Time) string {
	return prefix + strconv.FormatInt(now.UnixMilli(), 10)
}

// RandomID returns prefix followed by n random alphanumeric characters.
func RandomID(prefix string, n int) string {
	return prefix + random.String(n)
}

// EncodeURIComponent escapes s the way browsers escape a URI component,
// so spaces become %20 rather than +.
func EncodeURIComponent(s string) string {
	escaped := url.QueryEscape(s)
	return strings.ReplaceAll(escaped, "+", "%20")
}

func AvatarURL(name string, extra url.Values) string {
	out := fmt.Sprintf("https://ui-avatars.com/api/?name=%s", EncodeURIComponent(name))
	if len(extra) > 0 {
		out += "&" + extra.Encode()
	}
	return out
}

// EmailLocalPart returns the part of an address before the first @. An
// address without one is returned whole.
func EmailLocalPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
