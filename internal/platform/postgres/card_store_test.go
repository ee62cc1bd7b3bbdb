//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/phrazzld/yomu-api/internal/platform/postgres"
	"github.com/phrazzld/yomu-api/internal/store"
	"github.com/phrazzld/yomu-api/internal/store/storetest"
	"github.com/phrazzld/yomu-api/internal/testdb"
	"github.com/stretchr/testify/require"
)

func TestPostgresCardStore_Contract(t *testing.T) {
	db := testdb.Open(t)

	storetest.RunCardStoreContract(t, func(t *testing.T) store.CardStore {
		testdb.Reset(t, db)
		return postgres.NewPostgresCardStore(db, nil)
	})
}

func TestPostgresCardStore_WithTxRollback(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	testdb.Reset(t, db)

	s := postgres.NewPostgresCardStore(db, nil)
	card := storetest.NewCard(t, "雨", "あめ", time.Now())

	err := store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.WithTx(tx).Insert(ctx, card); err != nil {
			return err
		}
		return testdb.ErrRollback
	})
	require.ErrorIs(t, err, testdb.ErrRollback)

	_, err = s.GetByID(ctx, card.ID)
	require.ErrorIs(t, err, store.ErrCardNotFound)
}

func TestMigrate_Commands(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()

	require.NoError(t, postgres.Migrate(ctx, db, "version", nil))
	require.NoError(t, postgres.Migrate(ctx, db, "status", nil))
	require.Error(t, postgres.Migrate(ctx, db, "sideways", nil))
}

func TestPostgresCardStore_TxScopedInsert(t *testing.T) {
	db := testdb.Open(t)
	testdb.Reset(t, db)
	s := postgres.NewPostgresCardStore(db, nil)
	card := storetest.NewCard(t, "空", "そら", time.Now())

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		require.NoError(t, s.WithTx(tx).Insert(ctx, card))
		got, err := s.WithTx(tx).GetByID(ctx, card.ID)
		require.NoError(t, err)
		require.Equal(t, card.Word, got.Word)
	})

	_, err := s.GetByID(context.Background(), card.ID)
	require.ErrorIs(t, err, store.ErrCardNotFound)
}
