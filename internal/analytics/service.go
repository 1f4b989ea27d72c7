package analytics

import (
	"context"

	"go.uber.org/zap"

	"github.com/estatex/estatex/internal/identities"
	"github.com/estatex/estatex/internal/ledger"
	"github.com/estatex/estatex/internal/marketdata"
	"github.com/estatex/estatex/internal/marketplace"
	"github.com/estatex/estatex/internal/registry"
	"github.com/estatex/estatex/internal/storage"
	"github.com/estatex/estatex/pkg/models"
)

// Service aggregates platform-wide statistics on demand from the other
// services' stores.
type Service struct {
	logger      *zap.Logger
	store       *storage.Store
	identities  *identities.Service
	registry    *registry.Service
	ledger      *ledger.Service
	marketplace *marketplace.Service
	marketdata  *marketdata.Service
}

// NewService creates a new analytics service.
func NewService(
	logger *zap.Logger,
	store *storage.Store,
	identities *identities.Service,
	registry *registry.Service,
	ledger *ledger.Service,
	marketplace *marketplace.Service,
	marketdata *marketdata.Service,
) (*Service, error) {
	return &Service{
		logger:      logger,
		store:       store,
		identities:  identities,
		registry:    registry,
		ledger:      ledger,
		marketplace: marketplace,
		marketdata:  marketdata,
	}, nil
}

// PlatformStats computes the platform snapshot in one consistent read.
func (s *Service) PlatformStats(ctx context.Context) (*models.PlatformStats, error) {
	stats := &models.PlatformStats{}
	err := s.store.View(func(tx *storage.Tx) error {
		var err error
		if stats.TotalUsers, err = s.identities.CountUsersTx(tx); err != nil {
			return err
		}
		if stats.TotalInvestments, err = s.ledger.CountInvestmentsTx(tx); err != nil {
			return err
		}
		if stats.ActiveOrders, err = s.marketplace.CountActiveOrdersTx(tx); err != nil {
			return err
		}
		if stats.TotalTradingVolume, err = s.marketdata.TotalVolumeTx(tx); err != nil {
			return err
		}
		return s.registry.ScanPropertiesTx(tx, func(p *models.Property) {
			stats.TotalProperties++
			stats.TotalValueLocked += p.TotalValue
		})
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}
