package semilinkgo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/semilink/semilink/pkg/semilinkgo/event"
	"github.com/semilink/semilink/pkg/semilinkgo/types"
)

const (
	refreshMargin          = 60 * time.Second
	maxRefreshTries        = 3
	// used when the backend did not say when the token expires
	defaultRefreshInterval = 50 * time.Minute
)

// SessionWatcher refreshes the access token shortly before it expires and
// reports the session as ended once it can no longer be refreshed.
type SessionWatcher struct {
	client          *Client
	lock            sync.Mutex
	cancelFunc      context.CancelFunc
	done            chan struct{}
	watchID         string
	// overridable in tests
	backoff         func(attempt int) time.Duration
	refreshInterval time.Duration
}

func (c *Client) newSessionWatcher() *SessionWatcher {
	return &SessionWatcher{
		client:          c,
		watchID:         uuid.NewString(),
		backoff:         func(attempt int) time.Duration {
			return time.Duration(1<<attempt) * time.Second
		},
		refreshInterval: defaultRefreshInterval,
	}
}

func (sw *SessionWatcher) Connect() error {
	sw.lock.Lock()
	defer sw.lock.Unlock()
	if sw.cancelFunc != nil {
		return fmt.Errorf("session watcher is already running")
	}
	if sw.client.session.IsEmpty() {
		return ErrNoSession
	}

	ctx, cancel := context.WithCancel(context.Background())
	sw.cancelFunc = cancel
	sw.done = make(chan struct{})
	go sw.run(ctx, sw.done, sw.watchID)

	sw.client.emit(event.WatcherReady{})
	return nil
}

func (sw *SessionWatcher) Disconnect() error {
	sw.lock.Lock()
	cancel, done := sw.cancelFunc, sw.done
	sw.cancelFunc = nil
	sw.done = nil
	sw.watchID = uuid.NewString()
	sw.lock.Unlock()

	if cancel == nil {
		return fmt.Errorf("session watcher is not running")
	}
	cancel()
	<-done
	return nil
}

func (sw *SessionWatcher) run(ctx context.Context, done chan struct{}, watchID string) {
	defer close(done)
	log := sw.client.Logger.With().Str("watch_id", watchID).Logger()
	attempt := 0
	for {
		sess := sw.client.session.Session()
		if sess == nil {
			log.Debug().Msg("Session disappeared, stopping watcher")
			return
		}

		var wait time.Duration
		switch {
		case attempt > 0:
			wait = sw.backoff(attempt)
		case sess.ExpiresAt.IsZero():
			wait = sw.refreshInterval
		default:
			wait = time.Until(sess.ExpiresAt) - refreshMargin
		}
		timer := time.NewTimer(max(wait, 0))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		_, err := sw.client.Refresh(ctx)
		if err == nil {
			attempt = 0
			continue
		} else if ctx.Err() != nil {
			return
		}
		attempt++
		log.Warn().Err(err).Int("attempt", attempt).Msg("Failed to refresh session")
		if attempt >= maxRefreshTries {
			sw.client.clearSession()
			sw.client.emit(event.SessionEnded{Reason: types.SessionEndedExpired})
			sw.client.emit(event.WatcherClosed{Err: err})
			sw.lock.Lock()
			if sw.done == done {
				sw.cancelFunc()
				sw.cancelFunc = nil
				sw.done = nil
			}
			sw.lock.Unlock()
			return
		}
	}
}
