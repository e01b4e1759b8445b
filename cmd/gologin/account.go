package main

import (
	"context"

	goLogin "github.com/MrEthical07/goLogin"
	"github.com/spf13/cobra"
)

func newCreateUserCmd() *cobra.Command {
	return identityCmd("create-user <email> <password>", "Create a password account", cobra.ExactArgs(2),
		func(ctx context.Context, e *goLogin.Engine, args []string) *goLogin.Pending[*goLogin.Identity] {
			return e.CreateUser(ctx, args[0], args[1], nil)
		})
}

func newRemoveUserCmd() *cobra.Command {
	return completionCmd("remove-user <email> <password>", "Remove a password account", cobra.ExactArgs(2),
		func(ctx context.Context, e *goLogin.Engine, args []string) *goLogin.Pending[bool] {
			return e.RemoveUser(ctx, args[0], args[1], nil)
		})
}

func newChangePasswordCmd() *cobra.Command {
	return completionCmd("change-password <email> <old-password> <new-password>", "Change an account password", cobra.ExactArgs(3),
		func(ctx context.Context, e *goLogin.Engine, args []string) *goLogin.Pending[bool] {
			return e.ChangePassword(ctx, args[0], args[1], args[2], nil)
		})
}

func newResetPasswordCmd() *cobra.Command {
	return completionCmd("reset-password <email>", "Send a password reset email", cobra.ExactArgs(1),
		func(ctx context.Context, e *goLogin.Engine, args []string) *goLogin.Pending[bool] {
			return e.SendPasswordResetEmail(ctx, args[0], nil)
		})
}

// completionCmd builds a command that runs one boolean flow.
func completionCmd(
	use, short string,
	args cobra.PositionalArgs,
	start func(ctx context.Context, e *goLogin.Engine, args []string) *goLogin.Pending[bool],
) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if _, err := start(ctx, a.engine, args).Wait(ctx); err != nil {
					return flowError(cmd.Name(), err)
				}
				cmd.Println("ok")
				return nil
			})
		},
	}
}
