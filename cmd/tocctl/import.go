package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/commonprayer-backend/internal/adapter/corpus"
	"github.com/heartmarshall/commonprayer-backend/internal/adapter/postgres"
	"github.com/heartmarshall/commonprayer-backend/internal/adapter/postgres/pagestore"
	"github.com/heartmarshall/commonprayer-backend/internal/config"
	"github.com/heartmarshall/commonprayer-backend/internal/toc"
	"github.com/heartmarshall/commonprayer-backend/migrations"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Replace the table of contents stored in PostgreSQL with the corpus",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if dsn == "" {
			return errors.New("--dsn or DATABASE_DSN is required")
		}
		ctx := cmd.Context()
		logger := newLogger()

		loader := corpus.NewLoader(logger, corpusDir)
		entries, labels, err := loader.Load(ctx)
		if err != nil {
			return err
		}
		// Validate exactly as the server would before touching the database.
		if _, err := toc.NewStore(logger, staticSource{entries, labels}).Reload(ctx); err != nil {
			return err
		}

		if err := postgres.Migrate(ctx, dsn, migrations.FS); err != nil {
			return err
		}

		pool, err := postgres.NewPool(ctx, config.DatabaseConfig{DSN: dsn, MaxConns: 4, MinConns: 1, ApplicationName: "tocctl"})
		if err != nil {
			return err
		}
		defer pool.Close()

		repo := pagestore.New(pool)
		txm := postgres.NewSerializableTxManager(pool)
		if err := txm.RunInTx(ctx, func(ctx context.Context) error {
			return repo.ReplaceAll(ctx, entries, labels)
		}); err != nil {
			return fmt.Errorf("import: %w", err)
		}

		counts, err := repo.CountByCategory(ctx)
		if err != nil {
			return err
		}
		for category, n := range counts {
			logger.Info("imported", slog.String("category", category), slog.Int("pages", n))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d pages in %d categories\n", len(entries), len(counts))
		return nil
	},
}

// staticSource serves already-loaded entries to a Store.
type staticSource struct {
	entries []toc.Entry
	labels  map[string]string
}

func (s staticSource) Load(context.Context) ([]toc.Entry, map[string]string, error) {
	return s.entries, s.labels, nil
}
