package portfolio

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/estatex/estatex/internal/registry"
	"github.com/estatex/estatex/internal/storage"
	"github.com/estatex/estatex/pkg/models"
)

const portfolioPrefix = "portfolio/"

func portfolioKey(owner uuid.UUID) string { return portfolioPrefix + owner.String() }

// Service maintains the per-holder holdings projection. Portfolios are a
// derived cache: created lazily on first trade, updated incrementally after
// each settlement, and rebuildable in principle from the ledger.
type Service struct {
	logger   *zap.Logger
	store    *storage.Store
	registry *registry.Service
	now      func() time.Time
}

// NewService creates a new portfolio service.
func NewService(logger *zap.Logger, store *storage.Store, registry *registry.Service) (*Service, error) {
	return &Service{logger: logger, store: store, registry: registry, now: time.Now}, nil
}

// ApplyTradeTx applies one settled trade to both counterparties inside the
// settlement transaction. The outgoing side is decremented with saturation at
// zero; the acquiring side gets its holding created or incremented, with
// aggregate fields left for recomputation on read.
func (s *Service) ApplyTradeTx(tx *storage.Tx, from, to uuid.UUID, propertyID, tokenAmount uint64) error {
	var seller models.Portfolio
	found, err := tx.Get(portfolioKey(from), &seller)
	if err != nil {
		return err
	}
	if found {
		for i := range seller.Properties {
			if seller.Properties[i].PropertyID != propertyID {
				continue
			}
			if seller.Properties[i].TokenAmount < tokenAmount {
				seller.Properties[i].TokenAmount = 0
			} else {
				seller.Properties[i].TokenAmount -= tokenAmount
			}
			break
		}
		if err := tx.Put(portfolioKey(from), &seller); err != nil {
			return err
		}
	}

	var buyer models.Portfolio
	found, err = tx.Get(portfolioKey(to), &buyer)
	if err != nil {
		return err
	}
	if !found {
		buyer = models.Portfolio{Owner: to}
	}

	updated := false
	for i := range buyer.Properties {
		if buyer.Properties[i].PropertyID == propertyID {
			buyer.Properties[i].TokenAmount += tokenAmount
			updated = true
			break
		}
	}
	if !updated {
		buyer.Properties = append(buyer.Properties, models.PortfolioProperty{
			PropertyID:   propertyID,
			TokenAmount:  tokenAmount,
			PurchaseDate: s.now(),
		})
	}
	return tx.Put(portfolioKey(to), &buyer)
}

// Get returns the holder's current portfolio snapshot with aggregates and
// performance metrics recomputed against registry prices. Holders without a
// settled trade get an empty portfolio.
func (s *Service) Get(ctx context.Context, owner uuid.UUID) (*models.Portfolio, error) {
	p := &models.Portfolio{Owner: owner}
	err := s.store.View(func(tx *storage.Tx) error {
		found, err := tx.Get(portfolioKey(owner), p)
		if err != nil {
			return err
		}
		if !found {
			return nil
		}
		return s.recomputeTx(tx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// recomputeTx refreshes current values, totals and performance metrics from
// the registry's latest per-token prices.
func (s *Service) recomputeTx(tx *storage.Tx, p *models.Portfolio) error {
	p.TotalTokens = 0
	p.TotalValue = 0
	var totalInitial uint64

	for i := range p.Properties {
		holding := &p.Properties[i]
		property, err := s.registry.GetPropertyTx(tx, holding.PropertyID)
		if err != nil {
			return err
		}
		holding.CurrentValue = holding.TokenAmount * property.PricePerToken
		p.TotalTokens += holding.TokenAmount
		p.TotalValue += holding.CurrentValue
		totalInitial += holding.InitialInvestment
	}

	p.Metrics = computeMetrics(p, totalInitial)
	return nil
}

func computeMetrics(p *models.Portfolio, totalInitial uint64) models.PerformanceMetrics {
	m := models.PerformanceMetrics{
		TotalReturn:          decimal.Zero,
		AnnualYield:          decimal.Zero,
		ROIPercentage:        decimal.Zero,
		DiversificationScore: decimal.Zero,
	}

	current := decimal.NewFromUint64(p.TotalValue)
	dividends := decimal.NewFromUint64(p.TotalDividendsReceived)
	m.TotalReturn = current.Add(dividends).Sub(decimal.NewFromUint64(totalInitial))

	if totalInitial > 0 {
		m.ROIPercentage = m.TotalReturn.
			Div(decimal.NewFromUint64(totalInitial)).
			Mul(decimal.NewFromInt(100)).
			Round(4)
	}

	// One holding scores 0.1, ten or more score 1.0.
	n := decimal.NewFromInt(int64(len(p.Properties)))
	score := n.Div(decimal.NewFromInt(10))
	if score.GreaterThan(decimal.NewFromInt(1)) {
		score = decimal.NewFromInt(1)
	}
	m.DiversificationScore = score

	return m
}
