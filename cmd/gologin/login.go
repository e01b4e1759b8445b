package main

import (
	"context"
	"strconv"

	goLogin "github.com/MrEthical07/goLogin"
	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and persist the session",
	}
	cmd.AddCommand(
		identityCmd("anonymous", "Log in anonymously", cobra.NoArgs,
			func(ctx context.Context, e *goLogin.Engine, _ []string) *goLogin.Pending[*goLogin.Identity] {
				return e.LoginAnonymously(ctx, nil)
			}),
		identityCmd("email <email> <password>", "Log in with email and password", cobra.ExactArgs(2),
			func(ctx context.Context, e *goLogin.Engine, args []string) *goLogin.Pending[*goLogin.Identity] {
				return e.LoginWithEmail(ctx, args[0], args[1], nil)
			}),
		identityCmd("facebook <app-id> <access-token>", "Log in with a Facebook access token", cobra.ExactArgs(2),
			func(ctx context.Context, e *goLogin.Engine, args []string) *goLogin.Pending[*goLogin.Identity] {
				return e.LoginWithFacebook(ctx, args[0], args[1], nil)
			}),
		identityCmd("google <access-token>", "Log in with a Google access token", cobra.ExactArgs(1),
			func(ctx context.Context, e *goLogin.Engine, args []string) *goLogin.Pending[*goLogin.Identity] {
				return e.LoginWithGoogle(ctx, args[0], nil)
			}),
		newTwitterLoginCmd(),
	)
	return cmd
}

func newTwitterLoginCmd() *cobra.Command {
	cmd := identityCmd("twitter <oauth-token> <oauth-token-secret> [user-id]", "Log in with Twitter OAuth credentials",
		cobra.RangeArgs(2, 3),
		func(ctx context.Context, e *goLogin.Engine, args []string) *goLogin.Pending[*goLogin.Identity] {
			var userID *int64
			if len(args) == 3 {
				if id, err := strconv.ParseInt(args[2], 10, 64); err == nil {
					userID = &id
				}
			}
			return e.LoginWithTwitter(ctx, args[0], args[1], userID, nil)
		})
	prev := cmd.Args
	cmd.Args = func(c *cobra.Command, args []string) error {
		if err := prev(c, args); err != nil {
			return err
		}
		if len(args) == 3 {
			if _, err := strconv.ParseInt(args[2], 10, 64); err != nil {
				return err
			}
		}
		return nil
	}
	return cmd
}

// identityCmd builds a command that runs one identity flow and prints the result.
func identityCmd(
	use, short string,
	args cobra.PositionalArgs,
	start func(ctx context.Context, e *goLogin.Engine, args []string) *goLogin.Pending[*goLogin.Identity],
) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				id, err := start(ctx, a.engine, args).Wait(ctx)
				if err != nil {
					return flowError(cmd.Name(), err)
				}
				printIdentity(cmd, id)
				return nil
			})
		},
	}
}
