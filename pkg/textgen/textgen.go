// Package textgen writes and polishes feed posts with a chat completion
// model. Every failure turns into a fixed fallback instead of an error.
package textgen

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/net/proxy"
)

const (
	DefaultModel = "gpt-4o-mini"

	FallbackNoAPIKey    = "API Key not configured. Please set a valid API_KEY in your environment."
	FallbackUnavailable = "Failed to contact the AI service. Please try again later."
	FallbackEmpty       = "Could not generate insight."
)

const insightPrompt = `Write a professional, engaging social media post (max 280 chars) for a LinkedIn-like platform specifically for the Semiconductor industry.
The topic is: "%s".
Use industry jargon correctly (e.g., specific nm nodes, yield, packaging, EDA, RTL, etc.).
Make it sound like an expert opinion or an exciting update. Include 2-3 relevant hashtags.`

const polishPrompt = `Rewrite the following text to be more professional and suitable for a senior semiconductor engineer's social media update. Keep it under 300 characters. Text: "%s"`

type Opts struct {
	APIKey  string
	BaseURL string
	Model   string
}

type Generator struct {
	log    zerolog.Logger
	client *openai.Client
	http   *http.Client
	model  string
}

// NewGenerator returns a generator. Without an API key it still works but
// only ever returns the fallbacks.
func NewGenerator(opts Opts, log zerolog.Logger) *Generator {
	gen := &Generator{
		log:   log.With().Str("component", "textgen").Logger(),
		model: opts.Model,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
				ForceAttemptHTTP2:   true,
			},
			Timeout: 60 * time.Second,
		},
	}
	if gen.model == "" {
		gen.model = DefaultModel
	}
	if opts.APIKey != "" {
		cfg := openai.DefaultConfig(opts.APIKey)
		if opts.BaseURL != "" {
			cfg.BaseURL = opts.BaseURL
		}
		cfg.HTTPClient = gen.http
		gen.client = openai.NewClientWithConfig(cfg)
	}
	return gen
}

func (g *Generator) Configured() bool {
	return g.client != nil
}

// SetProxy routes requests through an http(s) or socks5 proxy.
func (g *Generator) SetProxy(proxyAddr string) error {
	proxyParsed, err := url.Parse(proxyAddr)
	if err != nil {
		return err
	}
	transport := g.http.Transport.(*http.Transport)
	switch proxyParsed.Scheme {
	case "http", "https":
		transport.Proxy = http.ProxyURL(proxyParsed)
	case "socks5":
		dialer, err := proxy.FromURL(proxyParsed, &net.Dialer{Timeout: 20 * time.Second})
		if err != nil {
			return err
		}
		if contextDialer, ok := dialer.(proxy.ContextDialer); ok {
			transport.DialContext = contextDialer.DialContext
		} else {
			transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}
	default:
		return fmt.Errorf("unsupported proxy scheme %q", proxyParsed.Scheme)
	}
	g.log.Debug().Str("scheme", proxyParsed.Scheme).Str("host", proxyParsed.Host).Msg("Using proxy")
	return nil
}

func (g *Generator) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// GenerateIndustryInsight drafts a short post about topic.
func (g *Generator) GenerateIndustryInsight(ctx context.Context, topic string) string {
	if g.client == nil {
		return FallbackNoAPIKey
	}
	text, err := g.complete(ctx, fmt.Sprintf(insightPrompt, topic))
	if err != nil {
		g.log.Err(err).Str("topic", topic).Msg("Failed to generate insight")
		return FallbackUnavailable
	} else if text == "" {
		return FallbackEmpty
	}
	return text
}

// PolishPostContent rewrites draft in a more professional tone, or
// returns it unchanged when that is not possible.
func (g *Generator) PolishPostContent(ctx context.Context, draft string) string {
	if g.client == nil {
		return draft
	}
	text, err := g.complete(ctx, fmt.Sprintf(polishPrompt, draft))
	if err != nil {
		g.log.Err(err).Msg("Failed to polish post")
		return draft
	} else if text == "" {
		return draft
	}
	return text
}
