package marketdata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/estatex/estatex/internal/storage"
	"github.com/estatex/estatex/pkg/errs"
)

func newTestService(t *testing.T) (*Service, *storage.Store) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	store, err := storage.OpenInMemory(logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	svc, err := NewService(logger, store)
	require.NoError(t, err)
	return svc, store
}

func recordTrade(t *testing.T, svc *Service, store *storage.Store, propertyID, price, volume uint64) {
	t.Helper()
	err := store.Update(func(tx *storage.Tx) error {
		return svc.RecordTradeTx(tx, propertyID, price, volume)
	})
	require.NoError(t, err)
}

func TestGetMarketDataBeforeAnyTrade(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetMarketData(context.Background(), 1)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestRecordTradeCreatesSnapshot(t *testing.T) {
	svc, store := newTestService(t)

	recordTrade(t, svc, store, 1, 12, 40)

	data, err := svc.GetMarketData(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), data.PropertyID)
	assert.Equal(t, uint64(12), data.CurrentPrice)
	assert.Equal(t, uint64(40), data.TradingVolume24h)
	assert.False(t, data.LastUpdated.IsZero())
}

func TestRecordTradeUpdatesPriceAndAccumulatesVolume(t *testing.T) {
	svc, store := newTestService(t)

	recordTrade(t, svc, store, 1, 12, 40)
	recordTrade(t, svc, store, 1, 9, 10)

	data, err := svc.GetMarketData(context.Background(), 1)
	require.NoError(t, err)
	// Latest trade sets the price; volume only grows.
	assert.Equal(t, uint64(9), data.CurrentPrice)
	assert.Equal(t, uint64(50), data.TradingVolume24h)
}

func TestSnapshotsAreIndependentPerProperty(t *testing.T) {
	svc, store := newTestService(t)

	recordTrade(t, svc, store, 1, 12, 40)
	recordTrade(t, svc, store, 2, 30, 5)

	data, err := svc.GetMarketData(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(40), data.TradingVolume24h)

	data, err = svc.GetMarketData(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(30), data.CurrentPrice)
}

func TestTotalVolume(t *testing.T) {
	svc, store := newTestService(t)

	recordTrade(t, svc, store, 1, 12, 40)
	recordTrade(t, svc, store, 2, 30, 5)
	recordTrade(t, svc, store, 1, 13, 15)

	err := store.View(func(tx *storage.Tx) error {
		total, err := svc.TotalVolumeTx(tx)
		require.NoError(t, err)
		assert.Equal(t, uint64(60), total)
		return nil
	})
	require.NoError(t, err)
}
