// semilink - A profile sync engine for a semiconductor professional network.
// Copyright (C) 2024 Tulir Asokan
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package connector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/semilink/semilink/pkg/semilinkgo"
	"github.com/semilink/semilink/pkg/semilinkgo/session"
	"github.com/semilink/semilink/pkg/store"
	"github.com/semilink/semilink/pkg/textgen"
)

// SemiLinkConnector owns the state container and every component that
// works on it.
type SemiLinkConnector struct {
	Config      *Config
	Log         zerolog.Logger
	Store       store.Store
	Collections *store.Collections
	State       *State
	Remote      RemoteService
	Queue       *WriteBackQueue
	Engine      *MergeEngine
	Sessions    *SessionController
	Mutations   *Pipeline
	Metrics     *Metrics
	TextGen     *textgen.Generator

	dirLock sync.Mutex
}

type Params struct {
	Config *Config
	Store  store.Store
	// Remote may be nil, in which case only the offline login flows work.
	Remote     RemoteService
	Registerer prometheus.Registerer
	Logger     zerolog.Logger
	// Now overrides the clock used for generated ids.
	Now func() time.Time
}

// NewConnector wires the components around an already opened store.
func NewConnector(ctx context.Context, p Params) *SemiLinkConnector {
	cfg := p.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	sc := &SemiLinkConnector{
		Config:      cfg,
		Log:         p.Logger,
		Store:       p.Store,
		Collections: store.NewCollections(p.Store, p.Logger),
		State:       NewState(AnonymousUser()),
		Remote:      p.Remote,
		Metrics:     NewMetrics(p.Registerer),
	}
	ctx = sc.Log.WithContext(ctx)
	defaults := DefaultsFromConfig(&cfg.Profile)
	clock := newIDClock(p.Now)

	sc.Queue = NewWriteBackQueue(p.Remote, cfg.WriteBack, sc.Metrics, sc.Log)
	sc.Engine = NewMergeEngine(p.Remote, sc.Collections, sc.Queue, defaults, sc.Metrics, &sc.dirLock)
	sc.Sessions = NewSessionController(ctx, sc.State, p.Remote, sc.Engine, sc.Collections, defaults, clock, &sc.dirLock)
	sc.Mutations = NewPipeline(sc.State, sc.Collections, sc.Queue, clock, &sc.dirLock)
	sc.TextGen = textgen.NewGenerator(textgen.Opts{
		APIKey:  cfg.TextGen.APIKey,
		BaseURL: cfg.TextGen.BaseURL,
		Model:   cfg.TextGen.Model,
	}, sc.Log)
	if cfg.TextGen.Proxy != "" {
		if err := sc.TextGen.SetProxy(cfg.TextGen.Proxy); err != nil {
			sc.Log.Warn().Err(err).Msg("Invalid text generation proxy, connecting directly")
		}
	}
	if p.Remote != nil {
		p.Remote.SetEventHandler(sc.Sessions.HandleRemoteEvent)
	}
	return sc
}

// Open opens the configured cache and, if a remote project is configured,
// a remote client carrying the session stored by the previous run.
func Open(ctx context.Context, cfg *Config, ephemeral bool, reg prometheus.Registerer, log zerolog.Logger) (*SemiLinkConnector, error) {
	ctx = log.WithContext(ctx)
	var st store.Store
	if ephemeral || cfg.Cache.Path == "" {
		st = store.NewMemoryStore()
	} else {
		sqlStore, err := store.OpenSQLite(ctx, cfg.Cache.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open cache: %w", err)
		}
		st = sqlStore
		if cfg.Cache.MemoryTTL > 0 {
			st = store.NewCached(sqlStore, cfg.Cache.MemoryTTL)
		}
	}

	params := Params{Config: cfg, Store: st, Registerer: reg, Logger: log}
	if cfg.Remote.Enabled() {
		meta := loadLoginMetadata(ctx, store.NewCollections(st, log))
		client, err := semilinkgo.NewClient(&semilinkgo.ClientOpts{
			URL:           cfg.Remote.URL,
			AnonKey:       cfg.Remote.AnonKey,
			OAuthRedirect: cfg.Remote.OAuthRedirect,
			Timeout:       cfg.Remote.Timeout,
			Session:       session.NewJarFromString(meta.Session),
			Breaker:       cfg.Breaker.ClientOpts(),
		}, log.With().Str("component", "remote").Logger())
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		if cfg.Remote.Proxy != "" {
			if err = client.SetProxy(cfg.Remote.Proxy); err != nil {
				_ = st.Close()
				return nil, fmt.Errorf("invalid remote proxy: %w", err)
			}
		}
		params.Remote = client
	}
	return NewConnector(ctx, params), nil
}

// Start loads the cached collections and restores the previous login.
func (sc *SemiLinkConnector) Start(ctx context.Context) error {
	ctx = sc.Log.WithContext(ctx)
	sc.syncCollections(ctx)
	sc.Sessions.Restore(ctx)
	return nil
}

// Run keeps the write-back queue draining and, for a remote login, the
// session fresh, until ctx is cancelled.
func (sc *SemiLinkConnector) Run(ctx context.Context) error {
	ctx = sc.Log.WithContext(ctx)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return sc.Queue.Run(egCtx)
	})
	if sc.Remote != nil && sc.State.Snapshot().RemoteBacked {
		if err := sc.Remote.Connect(); err != nil {
			sc.Log.Warn().Err(err).Msg("Failed to start session watcher")
		} else {
			eg.Go(func() error {
				<-egCtx.Done()
				if err := sc.Remote.Disconnect(); err != nil {
					zerolog.Ctx(egCtx).Debug().Err(err).Msg("Session watcher already stopped")
				}
				return nil
			})
		}
	}
	return eg.Wait()
}

// Stop sends whatever is still queued and closes the cache.
func (sc *SemiLinkConnector) Stop(ctx context.Context) error {
	ctx = sc.Log.WithContext(ctx)
	if err := sc.Queue.Flush(ctx); err != nil {
		sc.Log.Warn().Err(err).Int("pending", sc.Queue.Pending()).Msg("Write-back queue not fully flushed")
	}
	return sc.Store.Close()
}
