package main

import (
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"strings"
	"time"

	goLogin "github.com/MrEthical07/goLogin"
	"github.com/MrEthical07/goLogin/connection"
	"github.com/MrEthical07/goLogin/internal/flows"
	"github.com/MrEthical07/goLogin/internal/logging"
	"github.com/MrEthical07/goLogin/internal/stubbackend"
	"github.com/MrEthical07/goLogin/jwt"
	"github.com/MrEthical07/goLogin/metrics/export/prometheus"
	"github.com/MrEthical07/goLogin/session"
	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// demoSecret signs demo tokens so sessions saved by one demo run restore in the next.
const demoSecret = "gologin-demo-secret-do-not-use-in-production"

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the gologin CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gologin",
		Short: "gologin - login and session client",
		Long: `gologin drives the login flows of an auth backend, persists the resulting
session, and restores it on the next run.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML)")
	registerFlags(cmd.PersistentFlags())

	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newCreateUserCmd())
	cmd.AddCommand(newRemoveUserCmd())
	cmd.AddCommand(newChangePasswordCmd())
	cmd.AddCommand(newResetPasswordCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newDemoCmd())

	return cmd
}

// app is the engine plus everything built for it, released by close.
type app struct {
	cfg     cliConfig
	engine  *goLogin.Engine
	stub    *stubbackend.Server
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// withApp loads the configuration, builds the engine, runs fn, flushes audit events and
// prints metrics when asked.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	cfg, err := loadConfig(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.validate(); err != nil {
		return err
	}
	a, err := newApp(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.close()

	if err := fn(cmd.Context(), a); err != nil {
		return err
	}
	if err := a.engine.FlushAudit(cmd.Context()); err != nil {
		return oops.Code("CLI_AUDIT_FLUSH").Wrap(err)
	}
	if cfg.Metrics {
		cmd.Print(prometheus.NewExporter(a.engine).Render())
	}
	return nil
}

func newApp(cfg cliConfig, stderr io.Writer) (*app, error) {
	a := &app{cfg: cfg}
	logger := logging.Setup("gologin", version, logging.Options{Format: cfg.LogFormat, Level: cfg.LogLevel}, stderr)

	secret, issuer := []byte(cfg.TokenSecret), cfg.TokenIssuer
	if cfg.Demo {
		secret, issuer = []byte(demoSecret), "gologin-stub"
	}
	tokens, err := jwt.NewManager(jwt.Config{
		TTL:           time.Hour,
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    secret,
		Issuer:        issuer,
	})
	if err != nil {
		return nil, oops.Code("CLI_TOKENS").Wrap(err)
	}

	var apiHost string
	if cfg.Demo {
		ns, err := flows.NamespaceFromTarget(cfg.Target)
		if err != nil {
			return nil, err
		}
		stub, err := stubbackend.New(stubbackend.Config{Namespace: ns, Tokens: tokens, Logger: logger})
		if err != nil {
			return nil, err
		}
		for _, u := range cfg.DemoUsers {
			email, pw, _ := strings.Cut(u, ":")
			if _, err := stub.AddAccount(email, pw); err != nil {
				return nil, oops.Code("CLI_DEMO_SEED").With("email", email).Wrap(err)
			}
		}
		server := httptest.NewServer(stub)
		a.closers = append(a.closers, server.Close)
		a.stub = stub
		apiHost = server.URL
	}

	b := goLogin.New().
		WithConfig(cfg.engineConfig(apiHost)).
		WithConnection(connection.NewLocal(tokens)).
		WithLogger(logger)
	if cfg.Audit {
		b = b.WithAuditSink(goLogin.NewJSONWriterSink(os.Stderr))
	}

	switch cfg.Store {
	case storeMemory:
		b = b.WithStore(session.NewMemoryStore())
	case storeSQLite:
		store, err := session.OpenSQLite(cfg.SQLitePath, cfg.Slot)
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = store.Close() })
		b = b.WithStore(store)
	case storeRedis:
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{cfg.RedisAddr}})
		a.closers = append(a.closers, func() { _ = client.Close() })
		b = b.WithRedis(client)
	}

	engine, err := b.Build()
	if err != nil {
		a.close()
		return nil, err
	}
	a.engine = engine
	a.closers = append(a.closers, engine.Close)
	return a, nil
}

func printIdentity(cmd *cobra.Command, id *goLogin.Identity) {
	if id == nil {
		cmd.Println("not logged in")
		return
	}
	cmd.Printf("uid:      %s\n", id.UID())
	cmd.Printf("user id:  %s\n", id.UserID())
	cmd.Printf("provider: %s\n", id.Provider())
	if email, ok := id.Email(); ok {
		cmd.Printf("email:    %s\n", email)
	}
	if exp, ok := id.ExpiresAt(); ok {
		cmd.Printf("expires:  %s\n", exp.UTC().Format(time.RFC3339))
	}
}

func flowError(flow string, err error) error {
	if kind, ok := goLogin.KindOf(err); ok {
		return fmt.Errorf("%s failed (%s): %w", flow, kind, err)
	}
	return fmt.Errorf("%s failed: %w", flow, err)
}
