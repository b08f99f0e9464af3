package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/commonprayer-backend/internal/adapter/postgres"
	"github.com/heartmarshall/commonprayer-backend/internal/adapter/postgres/testhelper"
)

func categoryExists(t *testing.T, pool *pgxpool.Pool, category string) bool {
	t.Helper()
	var exists bool
	err := pool.QueryRow(
		context.Background(),
		`SELECT EXISTS(SELECT 1 FROM toc_categories WHERE category = $1)`,
		category,
	).Scan(&exists)
	if err != nil {
		t.Fatalf("categoryExists query: %v", err)
	}
	return exists
}

func insertCategory(ctx context.Context, pool *pgxpool.Pool, category string) error {
	q := postgres.QuerierFromCtx(ctx, pool)
	_, err := q.Exec(ctx, `INSERT INTO toc_categories (category, label) VALUES ($1, $1)`, category)
	return err
}

func TestRunInTx_Commit(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		return insertCategory(ctx, pool, "tx-commit")
	})
	if err != nil {
		t.Fatalf("RunInTx returned error: %v", err)
	}

	if !categoryExists(t, pool, "tx-commit") {
		t.Fatal("expected category to exist after committed transaction")
	}
}

func TestRunInTx_RollbackOnError(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewSerializableTxManager(pool)
	sentinel := errors.New("business logic error")

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		if err := insertCategory(ctx, pool, "tx-rollback"); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("RunInTx error = %v, want sentinel", err)
	}

	if categoryExists(t, pool, "tx-rollback") {
		t.Fatal("category must not exist after rollback")
	}
}

func TestRunInTx_RollbackOnPanic(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Fatal("expected panic to propagate")
			}
		}()
		_ = tm.RunInTx(context.Background(), func(ctx context.Context) error {
			if err := insertCategory(ctx, pool, "tx-panic"); err != nil {
				return err
			}
			panic("boom")
		})
	}()

	if categoryExists(t, pool, "tx-panic") {
		t.Fatal("category must not exist after panic")
	}
}

func serializationFailure() error {
	return &pgconn.PgError{Code: "40001", Message: "could not serialize access due to concurrent update"}
}

func TestRunInTx_SerializableRetriesSerializationFailure(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewSerializableTxManager(pool)

	attempts := 0
	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		attempts++
		if err := insertCategory(ctx, pool, "tx-retry"); err != nil {
			return err
		}
		if attempts == 1 {
			return serializationFailure()
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RunInTx returned error: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("attempts = %d, want 2", attempts)
	}
	if !categoryExists(t, pool, "tx-retry") {
		t.Fatal("expected category from the second attempt to be committed")
	}
}

func TestRunInTx_SerializableGivesUp(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewSerializableTxManager(pool)

	attempts := 0
	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		attempts++
		return serializationFailure()
	})

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "40001" {
		t.Fatalf("RunInTx error = %v, want wrapped 40001", err)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestRunInTx_ReadCommittedDoesNotRetry(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	attempts := 0
	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		attempts++
		return serializationFailure()
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
}
