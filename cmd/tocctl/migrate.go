package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/commonprayer-backend/internal/adapter/postgres"
	"github.com/heartmarshall/commonprayer-backend/migrations"
)

var dsn string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if dsn == "" {
			return errors.New("--dsn or DATABASE_DSN is required")
		}
		if err := postgres.Migrate(cmd.Context(), dsn, migrations.FS); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{migrateCmd, importCmd} {
		c.Flags().StringVar(&dsn, "dsn", envOr("DATABASE_DSN", ""), "PostgreSQL DSN")
	}
}
