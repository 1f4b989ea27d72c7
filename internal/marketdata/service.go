package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/estatex/estatex/internal/storage"
	"github.com/estatex/estatex/pkg/errs"
	"github.com/estatex/estatex/pkg/models"
)

const marketPrefix = "market/"

func marketKey(propertyID uint64) string { return fmt.Sprintf("%s%020d", marketPrefix, propertyID) }

// Service tracks the per-property market snapshot. A snapshot is created at
// the first executed trade and overwritten thereafter. The volume accumulator
// only ever grows; price change and liquidity are pass-through fields not
// computed here.
type Service struct {
	logger *zap.Logger
	store  *storage.Store
	now    func() time.Time
}

// NewService creates a new market data service.
func NewService(logger *zap.Logger, store *storage.Store) (*Service, error) {
	return &Service{logger: logger, store: store, now: time.Now}, nil
}

// RecordTradeTx folds one executed trade into the property's snapshot inside
// the settlement transaction.
func (s *Service) RecordTradeTx(tx *storage.Tx, propertyID, price, volume uint64) error {
	var data models.MarketData
	found, err := tx.Get(marketKey(propertyID), &data)
	if err != nil {
		return err
	}
	if !found {
		data = models.MarketData{
			PropertyID:     propertyID,
			CurrentPrice:   price,
			PriceChange24h: decimal.Zero,
			LiquidityScore: decimal.Zero,
		}
	}

	data.CurrentPrice = price
	data.TradingVolume24h += volume
	data.LastUpdated = s.now()
	return tx.Put(marketKey(propertyID), &data)
}

// GetMarketData returns the property's snapshot, or NotFound when no trade
// has executed yet.
func (s *Service) GetMarketData(ctx context.Context, propertyID uint64) (*models.MarketData, error) {
	var data models.MarketData
	err := s.store.View(func(tx *storage.Tx) error {
		found, err := tx.Get(marketKey(propertyID), &data)
		if err != nil {
			return err
		}
		if !found {
			return errs.NotFound("market data")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &data, nil
}

// TotalVolumeTx sums the volume accumulators across all snapshots.
func (s *Service) TotalVolumeTx(tx *storage.Tx) (uint64, error) {
	var total uint64
	err := tx.Scan(marketPrefix, func(key string, val []byte) error {
		var data models.MarketData
		if err := storage.Decode(val, &data); err != nil {
			return err
		}
		total += data.TradingVolume24h
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}
