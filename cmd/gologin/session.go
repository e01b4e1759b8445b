package main

import (
	"context"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Restore and show the persisted session",
		Long: `Restore the persisted session, re-authenticating the connection with its token.
An invalid or revoked session is cleared.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				id, err := a.engine.CheckAuthStatus(ctx, nil).Wait(ctx)
				if err != nil {
					return flowError("status", err)
				}
				printIdentity(cmd, id)
				return nil
			})
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the persisted session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.engine.Logout(ctx); err != nil {
					return flowError("logout", err)
				}
				cmd.Println("logged out")
				return nil
			})
		},
	}
}
