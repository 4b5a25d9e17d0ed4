package semilinkgo

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"github.com/supabase-community/supabase-go"
	"golang.org/x/net/proxy"

	"github.com/semilink/semilink/pkg/semilinkgo/routing"
	queryData "github.com/semilink/semilink/pkg/semilinkgo/routing/query"
	"github.com/semilink/semilink/pkg/semilinkgo/routing/response"
	"github.com/semilink/semilink/pkg/semilinkgo/session"
)

var (
	ErrNoSession           = errors.New("no active session")
	ErrConfirmationPending = errors.New("sign-up requires email confirmation")
)

type EventHandler func(evt any)

type BreakerOpts struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
	MinRequests  uint32
}

type ClientOpts struct {
	URL           string
	AnonKey       string
	OAuthRedirect string
	Session       *session.Jar
	Breaker       *BreakerOpts
	// Timeout caps a whole request. Zero means one minute.
	Timeout       time.Duration
	EventHandler  EventHandler
}

type Client struct {
	Logger        zerolog.Logger
	session       *session.Jar
	sb            *supabase.Client
	baseURL       string
	anonKey       string
	oauthRedirect string
	breaker       *gobreaker.CircuitBreaker
	watcher       *SessionWatcher
	http          *http.Client
	httpProxy     func(*http.Request) (*url.URL, error)
	socksProxy    proxy.Dialer
	eventHandler  EventHandler
	now           func() time.Time
}

func NewClient(opts *ClientOpts, logger zerolog.Logger) (*Client, error) {
	sb, err := supabase.NewClient(opts.URL, opts.AnonKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	cli := Client{
		http: &http.Client{
			Transport: &http.Transport{
				DialContext:           (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 40 * time.Second,
				ForceAttemptHTTP2:     true,
			},
			Timeout: timeout,
		},
		Logger:        logger,
		sb:            sb,
		baseURL:       opts.URL,
		anonKey:       opts.AnonKey,
		oauthRedirect: opts.OAuthRedirect,
		now:           time.Now,
	}
	cli.sb.Auth = cli.sb.Auth.WithClient(*cli.http)

	if opts.EventHandler != nil {
		cli.SetEventHandler(opts.EventHandler)
	}

	if opts.Session != nil {
		cli.session = opts.Session
	} else {
		cli.session = session.NewJar()
	}
	if sess := cli.session.Session(); sess != nil {
		cli.sb.UpdateAuthSession(toGoTrueSession(*sess))
	}

	breakerOpts := opts.Breaker
	if breakerOpts == nil {
		breakerOpts = &BreakerOpts{MaxRequests: 1, Interval: time.Minute, Timeout: 30 * time.Second, FailureRatio: 0.6, MinRequests: 3}
	}
	cli.breaker = newBreaker(breakerOpts, &cli.Logger)
	cli.watcher = cli.newSessionWatcher()

	return &cli, nil
}

func newBreaker(opts *BreakerOpts, log *zerolog.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "semilink-remote",
		MaxRequests: opts.MaxRequests,
		Interval:    opts.Interval,
		Timeout:     opts.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < opts.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= opts.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Remote circuit breaker changed state")
		},
		// a missing row is an answer, not an outage
		IsSuccessful: func(err error) bool {
			return err == nil || response.IsNoRows(err)
		},
	})
}

// do runs fn behind the circuit breaker. Errors are returned unwrapped so
// callers can classify them.
func (c *Client) do(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}

// Connect starts the session watcher, which keeps the access token fresh.
func (c *Client) Connect() error {
	return c.watcher.Connect()
}

func (c *Client) Disconnect() error {
	return c.watcher.Disconnect()
}

func (c *Client) GetSessionString() string {
	return c.session.String()
}

func (c *Client) AuthorizeURL(provider queryData.OAuthProvider) (string, error) {
	query := queryData.AuthorizeQuery{
		Provider:   provider,
		RedirectTo: c.oauthRedirect,
	}
	encodedQuery, err := query.Encode()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%s?%s", c.baseURL, routing.AuthorizePath, string(encodedQuery)), nil
}

// SetProxy routes auth traffic through an http(s) or socks5 proxy.
func (c *Client) SetProxy(proxyAddr string) error {
	proxyParsed, err := url.Parse(proxyAddr)
	if err != nil {
		return err
	}

	if proxyParsed.Scheme == "http" || proxyParsed.Scheme == "https" {
		c.httpProxy = http.ProxyURL(proxyParsed)
		c.http.Transport.(*http.Transport).Proxy = c.httpProxy
	} else if proxyParsed.Scheme == "socks5" {
		c.socksProxy, err = proxy.FromURL(proxyParsed, &net.Dialer{Timeout: 20 * time.Second})
		if err != nil {
			return err
		}
		c.http.Transport.(*http.Transport).DialContext = func(ctx context.Context, network string, addr string) (net.Conn, error) {
			return c.socksProxy.Dial(network, addr)
		}
		contextDialer, ok := c.socksProxy.(proxy.ContextDialer)
		if ok {
			c.http.Transport.(*http.Transport).DialContext = contextDialer.DialContext
		}
	} else {
		return fmt.Errorf("unsupported proxy scheme %q", proxyParsed.Scheme)
	}
	c.sb.Auth = c.sb.Auth.WithClient(*c.http)

	c.Logger.Debug().
		Str("scheme", proxyParsed.Scheme).
		Str("host", proxyParsed.Host).
		Msg("Using proxy")
	return nil
}

func (c *Client) SetEventHandler(handler EventHandler) {
	c.eventHandler = handler
}

func (c *Client) emit(evt any) {
	if c.eventHandler != nil {
		c.eventHandler(evt)
	}
}
