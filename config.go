package goLogin

import (
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/goLogin/internal/flows"
	"github.com/samber/oops"
)

// DefaultAPIHost is the auth backend used when Config.APIHost is empty.
const DefaultAPIHost = "https://auth.firebase.com"

// Config holds the engine settings. It is copied by Build and immutable afterwards.
type Config struct {
	// APIHost is the base URL of the auth backend.
	APIHost string
	// Target is the backend connection address. Its first host label is the namespace.
	Target string
	// Platform is sent as the "mobile" query parameter.
	Platform string
	// Debug adds debug=1 to every request.
	Debug bool
	// FlowTimeout bounds each flow. Zero disables the bound.
	FlowTimeout time.Duration

	Transport TransportConfig
	Session   SessionConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
TRANSPORT CONFIG
====================================
*/

// TransportConfig configures the default HTTP transport.
type TransportConfig struct {
	Timeout    time.Duration
	Retries    uint64
	Backoff    time.Duration
	MaxBackoff time.Duration
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig configures the Redis session store created by [Builder.WithRedis].
type SessionConfig struct {
	KeyPrefix string
	Slot      string
	TTL       time.Duration
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process metrics.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		APIHost:     DefaultAPIHost,
		Platform:    "go",
		FlowTimeout: 30 * time.Second,
		Transport: TransportConfig{
			Timeout:    10 * time.Second,
			Retries:    2,
			Backoff:    100 * time.Millisecond,
			MaxBackoff: 2 * time.Second,
		},
		Session: SessionConfig{
			KeyPrefix: "gls",
			Slot:      "default",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

// DefaultConfig returns the defaults used by [New].
func DefaultConfig() Config {
	return defaultConfig()
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks cfg. The namespace derivation failure is the only error a well-typed
// caller normally hits.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIHost) == "" {
		return oops.Code("CONFIG_INVALID").Errorf("APIHost must be set")
	}
	u, err := url.Parse(c.APIHost)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return oops.Code("CONFIG_INVALID").With("api_host", c.APIHost).Errorf("APIHost must be an absolute URL")
	}
	if _, err := flows.NamespaceFromTarget(c.Target); err != nil {
		return err
	}
	if strings.TrimSpace(c.Platform) == "" {
		return oops.Code("CONFIG_INVALID").Errorf("Platform must be set")
	}
	if c.FlowTimeout < 0 {
		return oops.Code("CONFIG_INVALID").Errorf("FlowTimeout must be >= 0")
	}
	if c.Transport.Timeout < 0 || c.Transport.Backoff < 0 || c.Transport.MaxBackoff < 0 {
		return oops.Code("CONFIG_INVALID").Errorf("Transport durations must be >= 0")
	}
	if c.Transport.Retries > 10 {
		return oops.Code("CONFIG_INVALID").With("retries", c.Transport.Retries).Errorf("Transport Retries must be <= 10")
	}
	if c.Session.TTL < 0 {
		return oops.Code("CONFIG_INVALID").Errorf("Session TTL must be >= 0")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("Audit BufferSize must be > 0 when audit is enabled")
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return oops.Code("CONFIG_INVALID").Errorf("latency histograms require metrics to be enabled")
	}
	return nil
}
