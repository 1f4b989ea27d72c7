package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/estatex/estatex/internal/identities"
	"github.com/estatex/estatex/internal/registry"
	"github.com/estatex/estatex/internal/storage"
	"github.com/estatex/estatex/pkg/errs"
	"github.com/estatex/estatex/pkg/metrics"
	"github.com/estatex/estatex/pkg/models"
)

const investmentPrefix = "investment/"

func investmentKey(id uint64) string { return fmt.Sprintf("%s%020d", investmentPrefix, id) }

// Service is the investment ledger. It exclusively owns investment record
// lifecycle; records are appended Confirmed and never merged or deleted.
// Balances are derived by scanning the ledger, never cached.
type Service struct {
	logger     *zap.Logger
	store      *storage.Store
	identities *identities.Service
	registry   *registry.Service
	now        func() time.Time
}

// NewService creates a new ledger service.
func NewService(logger *zap.Logger, store *storage.Store, identities *identities.Service, registry *registry.Service) (*Service, error) {
	return &Service{logger: logger, store: store, identities: identities, registry: registry, now: time.Now}, nil
}

// Invest purchases tokens directly from a property's available supply. The
// investment amount is tokens times the registry's price per token, the
// record is appended Confirmed, and the supply is decremented in the same
// transaction.
func (s *Service) Invest(ctx context.Context, caller uuid.UUID, propertyID, tokenAmount uint64) (*models.Investment, error) {
	if tokenAmount == 0 {
		return nil, fmt.Errorf("%w: token amount must be positive", errs.ErrInvalidArgument)
	}

	var investment models.Investment
	err := s.store.Update(func(tx *storage.Tx) error {
		if err := s.identities.RequireVerifiedTx(tx, caller); err != nil {
			return err
		}

		property, err := s.registry.GetPropertyTx(tx, propertyID)
		if err != nil {
			return err
		}
		if property.Status != models.PropertyStatusActive {
			return errs.InvalidState(models.PropertyStatusActive, property.Status)
		}
		if tokenAmount > property.AvailableTokens {
			return errs.ErrInsufficientBalance
		}

		investmentAmount, err := mulTokens(tokenAmount, property.PricePerToken)
		if err != nil {
			return err
		}

		id, err := tx.NextID()
		if err != nil {
			return err
		}
		investment = models.Investment{
			ID:               id,
			Investor:         caller,
			PropertyID:       propertyID,
			Kind:             models.InvestmentKindPurchase,
			TokenAmount:      tokenAmount,
			InvestmentAmount: investmentAmount,
			Timestamp:        s.now(),
			Status:           models.InvestmentStatusConfirmed,
		}
		if err := tx.Put(investmentKey(id), &investment); err != nil {
			return err
		}

		property.AvailableTokens -= tokenAmount
		return s.registry.SavePropertyTx(tx, property)
	})
	if err != nil {
		return nil, err
	}

	metrics.Investments.Inc()
	s.logger.Info("investment recorded",
		zap.Uint64("investment_id", investment.ID),
		zap.String("investor", caller.String()),
		zap.Uint64("property_id", propertyID),
		zap.Uint64("tokens", tokenAmount))
	return &investment, nil
}

// InvestmentsFor returns every ledger record where holder is the investor.
// Physical order is by record id; each record carries its own timestamp.
func (s *Service) InvestmentsFor(ctx context.Context, holder uuid.UUID) ([]*models.Investment, error) {
	var investments []*models.Investment
	err := s.store.View(func(tx *storage.Tx) error {
		return scanInvestments(tx, func(inv *models.Investment) {
			if inv.Investor == holder {
				investments = append(investments, inv)
			}
		})
	})
	if err != nil {
		return nil, err
	}
	return investments, nil
}

// BalanceOf derives the holder's current token balance for a property from
// the ledger at the instant of the call.
func (s *Service) BalanceOf(ctx context.Context, holder uuid.UUID, propertyID uint64) (uint64, error) {
	var balance uint64
	err := s.store.View(func(tx *storage.Tx) error {
		var err error
		balance, err = s.BalanceOfTx(tx, holder, propertyID)
		return err
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// BalanceOfTx sums confirmed ledger records for (holder, property) inside an
// ongoing transaction: purchases and transfers in count positively, transfers
// out negatively.
func (s *Service) BalanceOfTx(tx *storage.Tx, holder uuid.UUID, propertyID uint64) (uint64, error) {
	var credits, debits uint64
	err := scanInvestments(tx, func(inv *models.Investment) {
		if inv.Investor != holder || inv.PropertyID != propertyID || inv.Status != models.InvestmentStatusConfirmed {
			return
		}
		switch inv.Kind {
		case models.InvestmentKindTransferOut:
			debits += inv.TokenAmount
		default:
			credits += inv.TokenAmount
		}
	})
	if err != nil {
		return 0, err
	}
	if debits > credits {
		return 0, nil
	}
	return credits - debits, nil
}

// TransferTx settles a token transfer as an explicit debit+credit pair: a
// TransferOut against from and a TransferIn crediting to, both Confirmed and
// both carrying the trade's total price for audit. Callers must have checked
// from's balance beforehand.
func (s *Service) TransferTx(tx *storage.Tx, from, to uuid.UUID, propertyID, tokenAmount, totalPrice uint64) error {
	now := s.now()

	debitID, err := tx.NextID()
	if err != nil {
		return err
	}
	debit := models.Investment{
		ID:               debitID,
		Investor:         from,
		PropertyID:       propertyID,
		Kind:             models.InvestmentKindTransferOut,
		TokenAmount:      tokenAmount,
		InvestmentAmount: totalPrice,
		Timestamp:        now,
		Status:           models.InvestmentStatusConfirmed,
	}
	if err := tx.Put(investmentKey(debitID), &debit); err != nil {
		return err
	}

	creditID, err := tx.NextID()
	if err != nil {
		return err
	}
	credit := models.Investment{
		ID:               creditID,
		Investor:         to,
		PropertyID:       propertyID,
		Kind:             models.InvestmentKindTransferIn,
		TokenAmount:      tokenAmount,
		InvestmentAmount: totalPrice,
		Timestamp:        now,
		Status:           models.InvestmentStatusConfirmed,
	}
	return tx.Put(investmentKey(creditID), &credit)
}

// CountInvestmentsTx returns the number of ledger records.
func (s *Service) CountInvestmentsTx(tx *storage.Tx) (uint64, error) {
	return tx.Count(investmentPrefix)
}

func scanInvestments(tx *storage.Tx, fn func(inv *models.Investment)) error {
	return tx.Scan(investmentPrefix, func(key string, val []byte) error {
		var inv models.Investment
		if err := storage.Decode(val, &inv); err != nil {
			return err
		}
		fn(&inv)
		return nil
	})
}

// mulTokens multiplies a token amount by a unit price, guarding overflow.
func mulTokens(amount, price uint64) (uint64, error) {
	if amount == 0 || price == 0 {
		return 0, nil
	}
	total := amount * price
	if total/amount != price {
		return 0, errs.ErrArithmeticOverflow
	}
	return total, nil
}
