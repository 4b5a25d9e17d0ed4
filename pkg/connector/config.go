package connector

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/rs/zerolog"
	up "go.mau.fi/util/configupgrade"
	"gopkg.in/yaml.v3"

	"github.com/semilink/semilink/pkg/semilinkgo"
	"github.com/semilink/semilink/pkg/semilinkgo/methods"
)

//go:embed example-config.yaml
var ExampleConfig string

type Config struct {
	Remote    RemoteConfig    `yaml:"remote"`
	Cache     CacheConfig     `yaml:"cache"`
	WriteBack WriteBackConfig `yaml:"writeback"`
	Breaker   BreakerConfig   `yaml:"breaker"`
	TextGen   TextGenConfig   `yaml:"textgen"`
	Profile   ProfileConfig   `yaml:"profile"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type RemoteConfig struct {
	URL           string        `yaml:"url"`
	AnonKey       string        `yaml:"anon_key"`
	OAuthRedirect string        `yaml:"oauth_redirect"`
	Timeout       time.Duration `yaml:"timeout"`
	Proxy         string        `yaml:"proxy"`
}

// Enabled reports whether a remote project is configured at all.
func (rc RemoteConfig) Enabled() bool {
	return rc.URL != "" && rc.AnonKey != ""
}

type CacheConfig struct {
	Path      string        `yaml:"path"`
	MemoryTTL time.Duration `yaml:"memory_ttl"`
}

type WriteBackConfig struct {
	MaxAttempts   int           `yaml:"max_attempts"`
	RetryDelay    time.Duration `yaml:"retry_delay"`
	RatePerSecond float64       `yaml:"rate_per_second"`
	Burst         int           `yaml:"burst"`
}

type BreakerConfig struct {
	MaxRequests  uint32        `yaml:"max_requests"`
	Interval     time.Duration `yaml:"interval"`
	Timeout      time.Duration `yaml:"timeout"`
	FailureRatio float64       `yaml:"failure_ratio"`
	MinRequests  uint32        `yaml:"min_requests"`
}

func (bc BreakerConfig) ClientOpts() *semilinkgo.BreakerOpts {
	return &semilinkgo.BreakerOpts{
		MaxRequests:  bc.MaxRequests,
		Interval:     bc.Interval,
		Timeout:      bc.Timeout,
		FailureRatio: bc.FailureRatio,
		MinRequests:  bc.MinRequests,
	}
}

type TextGenConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	Proxy   string `yaml:"proxy"`
}

type ProfileConfig struct {
	DefaultName     string             `yaml:"default_name"`
	DefaultHeadline string             `yaml:"default_headline"`
	AvatarTemplate  string             `yaml:"avatar_template"`
	avatarTemplate  *template.Template `yaml:"-"`
	BackgroundURL   string             `yaml:"background_url"`
}

type umProfileConfig ProfileConfig

func (pc *ProfileConfig) UnmarshalYAML(node *yaml.Node) error {
	err := node.Decode((*umProfileConfig)(pc))
	if err != nil {
		return err
	}
	return pc.parseTemplate()
}

func (pc *ProfileConfig) parseTemplate() (err error) {
	pc.avatarTemplate, err = template.New("avatar").
		Funcs(template.FuncMap{"uriComponent": methods.EncodeURIComponent}).
		Parse(pc.AvatarTemplate)
	return
}

type AvatarParams struct {
	Name string
}

func (pc *ProfileConfig) FormatAvatar(name string) string {
	if pc.avatarTemplate == nil {
		return methods.AvatarURL(name, nil)
	}
	var buf strings.Builder
	err := pc.avatarTemplate.Execute(&buf, &AvatarParams{Name: name})
	if err != nil {
		panic(err)
	}
	return buf.String()
}

type LoggingConfig struct {
	RawLevel string        `yaml:"level"`
	Level    zerolog.Level `yaml:"-"`
}

type umLoggingConfig LoggingConfig

func (lc *LoggingConfig) UnmarshalYAML(node *yaml.Node) error {
	err := node.Decode((*umLoggingConfig)(lc))
	if err != nil {
		return err
	}
	if lc.RawLevel == "" {
		lc.Level = zerolog.InfoLevel
		return nil
	}
	lc.Level, err = zerolog.ParseLevel(lc.RawLevel)
	return err
}

func upgradeConfig(helper up.Helper) {
	helper.Copy(up.Str, "remote", "url")
	helper.Copy(up.Str, "remote", "anon_key")
	helper.Copy(up.Str, "remote", "oauth_redirect")
	helper.Copy(up.Str, "remote", "timeout")
	helper.Copy(up.Str, "remote", "proxy")
	helper.Copy(up.Str, "cache", "path")
	helper.Copy(up.Str, "cache", "memory_ttl")
	helper.Copy(up.Int, "writeback", "max_attempts")
	helper.Copy(up.Str, "writeback", "retry_delay")
	helper.Copy(up.Int|up.Float, "writeback", "rate_per_second")
	helper.Copy(up.Int, "writeback", "burst")
	helper.Copy(up.Int, "breaker", "max_requests")
	helper.Copy(up.Str, "breaker", "interval")
	helper.Copy(up.Str, "breaker", "timeout")
	helper.Copy(up.Int|up.Float, "breaker", "failure_ratio")
	helper.Copy(up.Int, "breaker", "min_requests")
	helper.Copy(up.Str, "textgen", "api_key")
	helper.Copy(up.Str, "textgen", "base_url")
	helper.Copy(up.Str, "textgen", "model")
	helper.Copy(up.Str, "textgen", "proxy")
	helper.Copy(up.Str, "profile", "default_name")
	helper.Copy(up.Str, "profile", "default_headline")
	helper.Copy(up.Str, "profile", "avatar_template")
	helper.Copy(up.Str, "profile", "background_url")
	helper.Copy(up.Str, "logging", "level")
}

func Upgrader() up.BaseUpgrader {
	return &up.StructUpgrader{
		SimpleUpgrader: up.SimpleUpgrader(upgradeConfig),
		Base:           ExampleConfig,
	}
}

// DefaultConfig is the embedded example config with environment overrides
// applied.
func DefaultConfig() *Config {
	var cfg Config
	if err := yaml.Unmarshal([]byte(ExampleConfig), &cfg); err != nil {
		panic(fmt.Errorf("embedded example config is invalid: %w", err))
	}
	cfg.ApplyEnv()
	return &cfg
}

// LoadConfig reads the config at path, writing the example config there
// first if the file does not exist, and upgrades it in place so new keys
// appear with their defaults.
func LoadConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err = os.WriteFile(path, []byte(ExampleConfig), 0600); err != nil {
			return nil, fmt.Errorf("failed to write example config: %w", err)
		}
	}
	data, _, err := up.Do(path, true, Upgrader())
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade config: %w", err)
	}
	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.ApplyEnv()
	return &cfg, nil
}

func (c *Config) ApplyEnv() {
	if val := os.Getenv("SEMILINK_SUPABASE_URL"); val != "" {
		c.Remote.URL = val
	}
	if val := os.Getenv("SEMILINK_SUPABASE_ANON_KEY"); val != "" {
		c.Remote.AnonKey = val
	}
	if val := os.Getenv("SEMILINK_API_KEY"); val != "" {
		c.TextGen.APIKey = val
	}
}
