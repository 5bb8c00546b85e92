// ABOUTME: confirm and token commands: issue confirmation tokens and service JWTs
// ABOUTME: Both use secrets from the loaded configuration

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/2389/toolgate/internal/auth"
	"github.com/2389/toolgate/internal/confirm"
	"github.com/2389/toolgate/internal/logging"
)

func newConfirmCmd() *cobra.Command {
	var p confirm.Payload

	cmd := &cobra.Command{
		Use:   "confirm",
		Short: "Issue a confirmation token for a wallet transfer",
		Long: `Issue a confirmation token approving exactly the given transfer. The token
is signed with confirmation.secret and expires after confirmation.ttl.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if p.AmountSol <= 0 {
				return errors.New("--amount must be positive")
			}

			token, err := confirm.NewVerifier(cfg.Confirmation, cfg.Mode, logging.NewNop()).Issue(p)
			if err != nil {
				return fmt.Errorf("issuing token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&p.FromWallet, "from", "", "source wallet")
	cmd.Flags().StringVar(&p.ToWallet, "to", "", "destination wallet")
	cmd.Flags().Float64Var(&p.AmountSol, "amount", 0, "amount in SOL")
	cmd.Flags().StringVar(&p.Memo, "memo", "", "optional memo")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a service JWT signed with auth.jwt_secret",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return errors.New("auth.jwt_secret is not configured")
			}

			verifier, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
			if err != nil {
				return err
			}
			token, err := verifier.Generate(subject, ttl)
			if err != nil {
				return fmt.Errorf("signing token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "calling service name (sub claim)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
