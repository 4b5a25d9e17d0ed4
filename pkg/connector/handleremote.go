package connector

import (
	"github.com/rs/zerolog"

	"github.com/semilink/semilink/pkg/semilinkgo/event"
)

// HandleRemoteEvent is registered as the remote client's event handler.
// It runs on whichever goroutine emitted the event.
func (sc *SessionController) HandleRemoteEvent(rawEvt any) {
	ctx := sc.ctx
	log := zerolog.Ctx(ctx)
	switch evtData := rawEvt.(type) {
	case event.SessionStarted:
		sc.HandleSessionStarted(ctx, evtData.Session)
	case event.SessionRefreshed:
		log.Debug().Time("expires_at", evtData.Session.ExpiresAt).Msg("Session refreshed")
		sc.persistRemoteSession(ctx)
	case event.SessionEnded:
		sc.HandleSessionEnded(ctx, evtData.Reason)
	case event.WatcherReady:
		log.Debug().Msg("Session watcher started")
	case event.WatcherClosed:
		if evtData.Err != nil {
			log.Warn().Err(evtData.Err).Msg("Session watcher stopped")
		} else {
			log.Debug().Msg("Session watcher stopped")
		}
	default:
		log.Warn().Type("event_type", evtData).Msg("Unhandled remote event")
	}
}
