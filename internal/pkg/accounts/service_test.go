package accounts

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/openbankingng/monobridge/app/models"
	"github.com/openbankingng/monobridge/internal/pkg/database"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	path := filepath.Join(t.TempDir(), "accounts.db")
	db, err := gorm.Open(sqlite.Open("file:"+path+"?_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return NewServiceFromDB(db)
}

func TestConnectAndGet(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Connect(ctx, "acc_1", "cus_1"))

	account, err := svc.Get(ctx, "acc_1")
	require.NoError(t, err)
	assert.Equal(t, "cus_1", account.CustomerID)
	assert.Equal(t, models.AccountStatusConnected, account.Status)

	// Reconnect is an upsert, not a duplicate.
	require.NoError(t, svc.Connect(ctx, "acc_1", "cus_2"))
	accounts, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "cus_2", accounts[0].CustomerID)
}

func TestUpdateFromWebhook(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Connect(ctx, "acc_1", "cus_1"))
	require.NoError(t, svc.UpdateFromWebhook(ctx, "acc_1", "GTBank", "058", models.AccountStatusAvailable))

	account, err := svc.Get(ctx, "acc_1")
	require.NoError(t, err)
	assert.Equal(t, "GTBank", account.BankName)
	assert.Equal(t, "058", account.BankCode)
	assert.Equal(t, models.AccountStatusAvailable, account.Status)

	// Update for an unseen account creates the row.
	require.NoError(t, svc.UpdateFromWebhook(ctx, "acc_2", "UBA", "033", ""))
	_, err = svc.Get(ctx, "acc_2")
	require.NoError(t, err)
}

func TestUnlinkRemovesAccountAndTransactions(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Connect(ctx, "acc_1", "cus_1"))
	require.NoError(t, svc.CacheTransactions(ctx, "acc_1", []models.Transaction{
		{ID: "txn_1", Amount: 150000, Type: "debit", Date: "2025-06-01T10:00:00Z"},
		{ID: "txn_2", Amount: 95000, Type: "credit", Date: "2025-06-02T10:00:00Z"},
	}))

	require.NoError(t, svc.Unlink(ctx, "acc_1"))

	_, err := svc.Get(ctx, "acc_1")
	assert.ErrorIs(t, err, ErrAccountNotFound)

	txns, err := svc.RecentTransactions(ctx, "acc_1", 10)
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestCacheTransactionsIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	batch := []models.Transaction{
		{ID: "txn_1", Amount: 150000, Type: "debit", Date: "2025-06-01T10:00:00Z"},
		{ID: "txn_2", Amount: 95000, Type: "credit", Date: "2025-06-02T10:00:00Z"},
	}
	require.NoError(t, svc.CacheTransactions(ctx, "acc_1", batch))

	// Re-fetching the same page must not duplicate rows.
	batch[0].Amount = 160000
	require.NoError(t, svc.CacheTransactions(ctx, "acc_1", batch))

	txns, err := svc.RecentTransactions(ctx, "acc_1", 10)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, "txn_2", txns[0].ID, "newest first")
	assert.Equal(t, int64(160000), txns[1].Amount)
}
