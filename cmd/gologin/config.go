package main

import (
	"strings"
	"time"

	goLogin "github.com/MrEthical07/goLogin"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Store backends accepted by --store.
const (
	storeMemory = "memory"
	storeSQLite = "sqlite"
	storeRedis  = "redis"
)

// cliConfig is the merged configuration: defaults, then the YAML file, then explicit flags.
type cliConfig struct {
	APIHost     string        `koanf:"api-host"`
	Target      string        `koanf:"target"`
	Platform    string        `koanf:"platform"`
	Debug       bool          `koanf:"debug"`
	Timeout     time.Duration `koanf:"timeout"`
	Retries     uint64        `koanf:"retries"`
	TokenSecret string        `koanf:"token-secret"`
	TokenIssuer string        `koanf:"token-issuer"`

	Store      string        `koanf:"store"`
	SQLitePath string        `koanf:"sqlite-path"`
	RedisAddr  string        `koanf:"redis-addr"`
	Slot       string        `koanf:"slot"`
	SessionTTL time.Duration `koanf:"session-ttl"`

	LogLevel  string `koanf:"log-level"`
	LogFormat string `koanf:"log-format"`
	Audit     bool   `koanf:"audit"`
	Metrics   bool   `koanf:"metrics"`

	Demo      bool     `koanf:"demo"`
	DemoUsers []string `koanf:"demo-users"`
}

func defaultCLIConfig() cliConfig {
	def := goLogin.DefaultConfig()
	return cliConfig{
		APIHost:     def.APIHost,
		Target:      "https://demo.example.com",
		Platform:    def.Platform,
		Timeout:     def.FlowTimeout,
		Retries:     def.Transport.Retries,
		TokenIssuer: "gologin-stub",
		Store:       storeSQLite,
		SQLitePath:  "gologin-session.db",
		Slot:        def.Session.Slot,
		LogLevel:    "warn",
		LogFormat:   "text",
	}
}

// registerFlags binds the configuration flags to fs, using defaults for their values.
func registerFlags(fs *pflag.FlagSet) {
	def := defaultCLIConfig()
	fs.String("api-host", def.APIHost, "auth backend base URL")
	fs.String("target", def.Target, "backend connection address; its first host label is the namespace")
	fs.String("platform", def.Platform, "platform reported to the auth backend")
	fs.Bool("debug", def.Debug, "ask the auth backend for debug output")
	fs.Duration("timeout", def.Timeout, "per-flow timeout (0 disables)")
	fs.Uint64("retries", def.Retries, "transport retries on network errors")
	fs.String("token-secret", def.TokenSecret, "HS256 secret used to verify session tokens")
	fs.String("token-issuer", def.TokenIssuer, "expected issuer of session tokens")
	fs.String("store", def.Store, "session store: memory, sqlite or redis")
	fs.String("sqlite-path", def.SQLitePath, "sqlite database file for the sqlite store")
	fs.String("redis-addr", def.RedisAddr, "redis address for the redis store")
	fs.String("slot", def.Slot, "session slot name")
	fs.Duration("session-ttl", def.SessionTTL, "redis session TTL (0 keeps sessions until logout)")
	fs.String("log-level", def.LogLevel, "log level: debug, info, warn or error")
	fs.String("log-format", def.LogFormat, "log format: text or json")
	fs.Bool("audit", def.Audit, "write audit events to stderr as JSON lines")
	fs.Bool("metrics", def.Metrics, "print engine metrics after the command")
	fs.Bool("demo", def.Demo, "run against an in-process stub backend")
	fs.StringSlice("demo-users", def.DemoUsers, "email:password accounts seeded into the demo backend")
}

// loadConfig merges the YAML file at path (when non-empty) and the changed flags of fs over
// the defaults. The result is not validated.
func loadConfig(path string, fs *pflag.FlagSet) (cliConfig, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return cliConfig{}, oops.Code("CLI_CONFIG_FILE").With("path", path).Wrap(err)
		}
	}
	if fs != nil {
		if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
			return cliConfig{}, oops.Code("CLI_CONFIG_FLAGS").Wrap(err)
		}
	}

	cfg := defaultCLIConfig()
	if err := k.Unmarshal("", &cfg); err != nil {
		return cliConfig{}, oops.Code("CLI_CONFIG_DECODE").Wrap(err)
	}
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	return cfg, nil
}

func (c cliConfig) validate() error {
	switch c.Store {
	case storeMemory:
	case storeSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return oops.Code("CLI_CONFIG_INVALID").Errorf("sqlite-path required for the sqlite store")
		}
	case storeRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			return oops.Code("CLI_CONFIG_INVALID").Errorf("redis-addr required for the redis store")
		}
	default:
		return oops.Code("CLI_CONFIG_INVALID").With("store", c.Store).Errorf("unknown store %q", c.Store)
	}
	if !c.Demo && c.TokenSecret == "" {
		return oops.Code("CLI_CONFIG_INVALID").Errorf("token-secret required unless --demo is set")
	}
	for _, u := range c.DemoUsers {
		if _, _, ok := strings.Cut(u, ":"); !ok {
			return oops.Code("CLI_CONFIG_INVALID").With("demo_user", u).Errorf("demo users must be email:password")
		}
	}
	return nil
}

// engineConfig maps c onto the engine configuration. apiHost overrides APIHost when non-empty.
func (c cliConfig) engineConfig(apiHost string) goLogin.Config {
	cfg := goLogin.DefaultConfig()
	cfg.APIHost = c.APIHost
	if apiHost != "" {
		cfg.APIHost = apiHost
	}
	cfg.Target = c.Target
	cfg.Platform = c.Platform
	cfg.Debug = c.Debug
	cfg.FlowTimeout = c.Timeout
	cfg.Transport.Retries = c.Retries
	cfg.Session.Slot = c.Slot
	cfg.Session.TTL = c.SessionTTL
	cfg.Metrics.Enabled = c.Metrics
	cfg.Metrics.EnableLatencyHistograms = c.Metrics
	return cfg
}
