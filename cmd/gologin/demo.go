package main

import (
	"context"

	goLogin "github.com/MrEthical07/goLogin"
	"github.com/MrEthical07/goLogin/metrics/export/prometheus"
	"github.com/spf13/cobra"
)

func newDemoCmd() *cobra.Command {
	var email, pw string
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Walk through every flow against an in-process stub backend",
		Long: `Run each login and account flow in turn against an in-process stub backend
with an in-memory session store, then print the engine metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			cfg.Demo = true
			cfg.Store = storeMemory
			cfg.Metrics = true
			if err := cfg.validate(); err != nil {
				return err
			}
			a, err := newApp(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			if err := runDemo(cmd.Context(), cmd, a.engine, email, pw); err != nil {
				return err
			}
			cmd.Print(prometheus.NewExporter(a.engine).Render())
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "demo@example.com", "email of the demo account")
	cmd.Flags().StringVar(&pw, "password", "demo-password", "password of the demo account")
	return cmd
}

type demoStep struct {
	name string
	run  func(ctx context.Context) (*goLogin.Identity, error)
}

func runDemo(ctx context.Context, cmd *cobra.Command, e *goLogin.Engine, email, pw string) error {
	const newPW = "demo-password-2"
	done := func(p *goLogin.Pending[bool]) (*goLogin.Identity, error) {
		_, err := p.Wait(ctx)
		return nil, err
	}
	steps := []demoStep{
		{"create user", func(ctx context.Context) (*goLogin.Identity, error) {
			return e.CreateUser(ctx, email, pw, nil).Wait(ctx)
		}},
		{"login with email", func(ctx context.Context) (*goLogin.Identity, error) {
			return e.LoginWithEmail(ctx, email, pw, nil).Wait(ctx)
		}},
		{"restore session", func(ctx context.Context) (*goLogin.Identity, error) {
			return e.CheckAuthStatus(ctx, nil).Wait(ctx)
		}},
		{"change password", func(ctx context.Context) (*goLogin.Identity, error) {
			return done(e.ChangePassword(ctx, email, pw, newPW, nil))
		}},
		{"login with new password", func(ctx context.Context) (*goLogin.Identity, error) {
			return e.LoginWithEmail(ctx, email, newPW, nil).Wait(ctx)
		}},
		{"send password reset", func(ctx context.Context) (*goLogin.Identity, error) {
			return done(e.SendPasswordResetEmail(ctx, email, nil))
		}},
		{"login anonymously", func(ctx context.Context) (*goLogin.Identity, error) {
			return e.LoginAnonymously(ctx, nil).Wait(ctx)
		}},
		{"login with google", func(ctx context.Context) (*goLogin.Identity, error) {
			return e.LoginWithGoogle(ctx, "demo-google-token", nil).Wait(ctx)
		}},
		{"logout", func(ctx context.Context) (*goLogin.Identity, error) {
			return nil, e.Logout(ctx)
		}},
		{"restore after logout", func(ctx context.Context) (*goLogin.Identity, error) {
			return e.CheckAuthStatus(ctx, nil).Wait(ctx)
		}},
		{"remove user", func(ctx context.Context) (*goLogin.Identity, error) {
			return done(e.RemoveUser(ctx, email, newPW, nil))
		}},
	}

	for _, step := range steps {
		id, err := step.run(ctx)
		if err != nil {
			return flowError(step.name, err)
		}
		if id != nil {
			cmd.Printf("%-24s %s\n", step.name, id)
		} else {
			cmd.Printf("%-24s ok\n", step.name)
		}
	}
	return nil
}
