package event

import (
	"github.com/semilink/semilink/pkg/semilinkgo/types"
)

// SessionStarted is emitted when a session appears, either restored on
// launch or produced by a completed login.
type SessionStarted struct {
	Session types.Session
}

// SessionRefreshed carries rotated tokens for the same identity.
type SessionRefreshed struct {
	Session types.Session
}

type SessionEnded struct {
	Reason types.SessionEndedReason
}

type WatcherReady struct{}

type WatcherClosed struct {
	Err error
}
