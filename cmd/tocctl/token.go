package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/commonprayer-backend/internal/auth"
	"github.com/heartmarshall/commonprayer-backend/pkg/ctxutil"
)

var (
	tokenSecret  string
	tokenIssuer  string
	tokenSubject string
	tokenRole    string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for the admin endpoints",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(tokenSecret) < 32 {
			return errors.New("--secret or AUTH_JWT_SECRET must be at least 32 characters")
		}
		mgr := auth.NewJWTManager(tokenSecret, tokenIssuer, tokenTTL)
		token, err := mgr.GenerateAccessToken(tokenSubject, tokenRole, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSecret, "secret", envOr("AUTH_JWT_SECRET", ""), "HS256 signing secret")
	tokenCmd.Flags().StringVar(&tokenIssuer, "issuer", envOr("AUTH_JWT_ISSUER", "commonprayer"), "token issuer")
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "token subject")
	tokenCmd.Flags().StringVar(&tokenRole, "role", ctxutil.RoleAdmin, "role claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("subject")
}
