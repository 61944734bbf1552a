package main

import (
	"github.com/rpgo/lifedash/internal/identity"
	"github.com/spf13/cobra"
)

func newTokenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for --user, signed with the configured secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.user == "" {
				return errUserRequired
			}
			tokens, err := identity.NewTokenVerifier(a.cfg.Auth.JWTSecret, a.cfg.Auth.Issuer, a.cfg.Auth.TokenTTL)
			if err != nil {
				return err
			}
			token, err := tokens.Issue(a.user)
			if err != nil {
				return err
			}
			a.printf("%s\n", token)
			return nil
		},
	}
}
