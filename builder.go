package goLogin

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/MrEthical07/goLogin/connection"
	"github.com/MrEthical07/goLogin/internal/audit"
	"github.com/MrEthical07/goLogin/internal/flows"
	"github.com/MrEthical07/goLogin/session"
	"github.com/MrEthical07/goLogin/transport"
	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

// Builder assembles an [Engine].
//
// Builder instances are intended to be configured during initialization and then discarded
// after [Builder.Build].
type Builder struct {
	config Config

	conn       connection.Conn
	store      session.Store
	redis      redis.UniversalClient
	fetcher    transport.Fetcher
	httpClient *http.Client
	dispatcher Dispatcher
	logger     *slog.Logger
	auditSink  AuditSink

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithConnection sets the backend connection. It is required.
func (b *Builder) WithConnection(conn connection.Conn) *Builder {
	b.conn = conn
	return b
}

// WithStore sets the session store. Without a store (and without [Builder.WithRedis])
// sessions are not persisted and CheckAuthStatus always reports no session.
func (b *Builder) WithStore(store session.Store) *Builder {
	b.store = store
	return b
}

// WithRedis persists sessions in Redis using Config.Session. It is ignored when
// [Builder.WithStore] is also used.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithFetcher replaces the HTTP transport.
func (b *Builder) WithFetcher(f transport.Fetcher) *Builder {
	b.fetcher = f
	return b
}

// WithHTTPClient sets the http.Client used by the default transport.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithDispatcher sets where handlers run. Without one, the engine runs handlers serially on a
// goroutine it owns.
func (b *Builder) WithDispatcher(d Dispatcher) *Builder {
	b.dispatcher = d
	return b
}

// WithLogger sets the engine logger. The default discards.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink enables audit events and sends them to sink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the flow latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a running Engine. Configuration failures are
// reported synchronously as [KindConfigurationError].
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, newError(KindConfigurationError, err)
	}
	if b.conn == nil {
		return nil, newError(KindConfigurationError, oops.Code("CONFIG_INVALID").Errorf("connection required"))
	}
	namespace, err := flows.NamespaceFromTarget(cfg.Target)
	if err != nil {
		return nil, newError(KindConfigurationError, err)
	}
	b.built = true

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	fetcher := b.fetcher
	if fetcher == nil {
		fetcher = transport.NewHTTPClient(b.httpClient, transport.Config{
			Timeout:    cfg.Transport.Timeout,
			Retries:    cfg.Transport.Retries,
			Backoff:    cfg.Transport.Backoff,
			MaxBackoff: cfg.Transport.MaxBackoff,
		})
	}

	store := b.store
	if store == nil && b.redis != nil {
		store = session.NewRedisStore(b.redis, cfg.Session.KeyPrefix, cfg.Session.Slot, cfg.Session.TTL)
	}

	stop, stopFlow := context.WithCancel(context.Background())
	engine := &Engine{
		config: cfg,
		request: flows.RequestConfig{
			APIHost:   cfg.APIHost,
			Namespace: namespace,
			Platform:  cfg.Platform,
			Debug:     cfg.Debug,
		},
		fetcher:  fetcher,
		conn:     b.conn,
		metrics:  NewMetrics(cfg.Metrics),
		logger:   logger,
		stop:     stop,
		stopFlow: stopFlow,
	}
	engine.state = newSessionState(store, b.conn, engine.handleRevoked)
	engine.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
		Logger:     logger.With("component", "audit"),
	}, b.auditSink)

	if b.dispatcher != nil {
		engine.dispatcher = b.dispatcher
	} else {
		loop := NewLoopDispatcher()
		engine.dispatcher = loop
		engine.ownedLoop = loop
		engine.loopDone = make(chan struct{})
		go func() {
			defer close(engine.loopDone)
			_ = loop.Run(context.Background())
		}()
	}

	logger.Debug("login engine built", "namespace", namespace, "api_host", cfg.APIHost, "persistent", store != nil)
	return engine, nil
}
