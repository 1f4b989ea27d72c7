package marketplace

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/estatex/estatex/internal/identities"
	"github.com/estatex/estatex/internal/ledger"
	"github.com/estatex/estatex/internal/marketdata"
	"github.com/estatex/estatex/internal/portfolio"
	"github.com/estatex/estatex/internal/registry"
	"github.com/estatex/estatex/internal/storage"
	"github.com/estatex/estatex/pkg/errs"
	"github.com/estatex/estatex/pkg/metrics"
	"github.com/estatex/estatex/pkg/models"
)

const orderPrefix = "order/"

func orderKey(id uint64) string { return fmt.Sprintf("%s%020d", orderPrefix, id) }

// CreateOrderPayload carries the fields needed to place an order.
type CreateOrderPayload struct {
	PropertyID     uint64 `json:"property_id" binding:"required"`
	TokenAmount    uint64 `json:"token_amount" binding:"required,gt=0"`
	PricePerToken  uint64 `json:"price_per_token" binding:"required,gt=0"`
	OrderType      string `json:"order_type" binding:"required,oneof=BUY SELL"`
	ExpiresInHours uint64 `json:"expires_in_hours" binding:"required,gt=0"`
}

// Service is the order book and trade execution engine. It owns order
// lifecycle: Active orders move to exactly one of Filled, Cancelled or
// Expired and never leave it. Settlement of an executed order runs as one
// store transaction covering the order close, the ledger debit+credit pair,
// the portfolio projection and the market snapshot.
type Service struct {
	logger     *zap.Logger
	store      *storage.Store
	identities *identities.Service
	registry   *registry.Service
	ledger     *ledger.Service
	portfolio  *portfolio.Service
	marketdata *marketdata.Service
	now        func() time.Time
}

// NewService creates a new marketplace service.
func NewService(
	logger *zap.Logger,
	store *storage.Store,
	identities *identities.Service,
	registry *registry.Service,
	ledger *ledger.Service,
	portfolio *portfolio.Service,
	marketdata *marketdata.Service,
) (*Service, error) {
	return &Service{
		logger:     logger,
		store:      store,
		identities: identities,
		registry:   registry,
		ledger:     ledger,
		portfolio:  portfolio,
		marketdata: marketdata,
		now:        time.Now,
	}, nil
}

// PlaceOrder validates and persists a new Active order. Sell orders require
// the caller to hold at least the offered amount.
func (s *Service) PlaceOrder(ctx context.Context, caller uuid.UUID, payload CreateOrderPayload) (*models.Order, error) {
	if payload.TokenAmount == 0 || payload.PricePerToken == 0 {
		return nil, fmt.Errorf("%w: token amount and price must be positive", errs.ErrInvalidArgument)
	}
	if payload.OrderType != models.OrderTypeBuy && payload.OrderType != models.OrderTypeSell {
		return nil, fmt.Errorf("%w: unknown order type %q", errs.ErrInvalidArgument, payload.OrderType)
	}

	totalPrice, err := totalPrice(payload.TokenAmount, payload.PricePerToken)
	if err != nil {
		return nil, err
	}

	var order models.Order
	err = s.store.Update(func(tx *storage.Tx) error {
		if err := s.identities.RequireVerifiedTx(tx, caller); err != nil {
			return err
		}
		if _, err := s.registry.GetPropertyTx(tx, payload.PropertyID); err != nil {
			return err
		}

		if payload.OrderType == models.OrderTypeSell {
			balance, err := s.ledger.BalanceOfTx(tx, caller, payload.PropertyID)
			if err != nil {
				return err
			}
			if balance < payload.TokenAmount {
				return errs.ErrInsufficientBalance
			}
		}

		id, err := tx.NextID()
		if err != nil {
			return err
		}
		now := s.now()
		order = models.Order{
			ID:            id,
			PropertyID:    payload.PropertyID,
			Seller:        caller,
			TokenAmount:   payload.TokenAmount,
			PricePerToken: payload.PricePerToken,
			TotalPrice:    totalPrice,
			OrderType:     payload.OrderType,
			Status:        models.OrderStatusActive,
			CreatedAt:     now,
			ExpiresAt:     now.Add(time.Duration(payload.ExpiresInHours) * time.Hour),
		}
		return tx.Put(orderKey(id), &order)
	})
	if err != nil {
		return nil, err
	}

	metrics.OrdersPlaced.WithLabelValues(order.OrderType).Inc()
	s.logger.Info("order placed",
		zap.Uint64("order_id", order.ID),
		zap.String("type", order.OrderType),
		zap.Uint64("property_id", order.PropertyID),
		zap.Uint64("tokens", order.TokenAmount),
		zap.Uint64("total_price", order.TotalPrice))
	return &order, nil
}

// ExecuteOrder fills an Active order against the caller as counterparty.
// Expiry is materialized lazily: an order past its deadline is moved to
// Expired here and the call fails with ErrExpired; the transition commits
// even though the call errors, so repeated calls observe the same terminal
// state without further mutation.
func (s *Service) ExecuteOrder(ctx context.Context, caller uuid.UUID, orderID uint64) (*models.Order, error) {
	started := s.now()

	var order models.Order
	var expired bool
	err := s.store.Update(func(tx *storage.Tx) error {
		if err := s.identities.RequireVerifiedTx(tx, caller); err != nil {
			return err
		}

		found, err := tx.Get(orderKey(orderID), &order)
		if err != nil {
			return err
		}
		if !found {
			return errs.NotFound("order")
		}
		if order.Status != models.OrderStatusActive {
			return errs.InvalidState(models.OrderStatusActive, order.Status)
		}
		if s.now().After(order.ExpiresAt) {
			order.Status = models.OrderStatusExpired
			expired = true
			return tx.Put(orderKey(orderID), &order)
		}

		// A buy order is filled by the caller supplying tokens; a sell
		// order by the caller acquiring them from the order's seller.
		var from, to uuid.UUID
		switch order.OrderType {
		case models.OrderTypeBuy:
			from, to = caller, order.Seller
		case models.OrderTypeSell:
			from, to = order.Seller, caller
		default:
			return fmt.Errorf("%w: unknown order type %q", errs.ErrInvalidArgument, order.OrderType)
		}

		balance, err := s.ledger.BalanceOfTx(tx, from, order.PropertyID)
		if err != nil {
			return err
		}
		if balance < order.TokenAmount {
			return errs.ErrInsufficientBalance
		}

		if err := s.ledger.TransferTx(tx, from, to, order.PropertyID, order.TokenAmount, order.TotalPrice); err != nil {
			return err
		}

		executor := caller
		order.Buyer = &executor
		order.Status = models.OrderStatusFilled
		if err := tx.Put(orderKey(orderID), &order); err != nil {
			return err
		}

		if err := s.portfolio.ApplyTradeTx(tx, from, to, order.PropertyID, order.TokenAmount); err != nil {
			return err
		}
		return s.marketdata.RecordTradeTx(tx, order.PropertyID, order.PricePerToken, order.TokenAmount)
	})
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, errs.ErrExpired
	}

	metrics.OrdersExecuted.Inc()
	metrics.TradeVolume.Add(float64(order.TokenAmount))
	metrics.SettlementLatency.Observe(s.now().Sub(started).Seconds())
	s.logger.Info("order executed",
		zap.Uint64("order_id", order.ID),
		zap.String("executed_by", caller.String()),
		zap.Uint64("property_id", order.PropertyID),
		zap.Uint64("tokens", order.TokenAmount))
	return &order, nil
}

// CancelOrder moves one of the caller's own Active orders to Cancelled.
func (s *Service) CancelOrder(ctx context.Context, caller uuid.UUID, orderID uint64) error {
	err := s.store.Update(func(tx *storage.Tx) error {
		var order models.Order
		found, err := tx.Get(orderKey(orderID), &order)
		if err != nil {
			return err
		}
		if !found {
			return errs.NotFound("order")
		}
		if order.Seller != caller {
			return fmt.Errorf("%w: only the order's seller may cancel it", errs.ErrForbidden)
		}
		if order.Status != models.OrderStatusActive {
			return errs.InvalidState(models.OrderStatusActive, order.Status)
		}
		order.Status = models.OrderStatusCancelled
		return tx.Put(orderKey(orderID), &order)
	})
	if err != nil {
		return err
	}
	s.logger.Info("order cancelled", zap.Uint64("order_id", orderID))
	return nil
}

// ActiveOrders lists the property's Active, unexpired orders. Orders past
// their deadline but not yet materialized as Expired are filtered out here
// rather than mutated.
func (s *Service) ActiveOrders(ctx context.Context, propertyID uint64) ([]*models.Order, error) {
	now := s.now()
	var orders []*models.Order
	err := s.store.View(func(tx *storage.Tx) error {
		return scanOrders(tx, func(o *models.Order) {
			if o.PropertyID == propertyID && o.Status == models.OrderStatusActive && o.ExpiresAt.After(now) {
				orders = append(orders, o)
			}
		})
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// OrdersFor lists orders where holder is seller or buyer.
func (s *Service) OrdersFor(ctx context.Context, holder uuid.UUID) ([]*models.Order, error) {
	var orders []*models.Order
	err := s.store.View(func(tx *storage.Tx) error {
		return scanOrders(tx, func(o *models.Order) {
			if o.Seller == holder || (o.Buyer != nil && *o.Buyer == holder) {
				orders = append(orders, o)
			}
		})
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// CountActiveOrdersTx counts Active, unexpired orders across all properties.
func (s *Service) CountActiveOrdersTx(tx *storage.Tx) (uint64, error) {
	now := s.now()
	var n uint64
	err := scanOrders(tx, func(o *models.Order) {
		if o.Status == models.OrderStatusActive && o.ExpiresAt.After(now) {
			n++
		}
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func scanOrders(tx *storage.Tx, fn func(o *models.Order)) error {
	return tx.Scan(orderPrefix, func(key string, val []byte) error {
		var o models.Order
		if err := storage.Decode(val, &o); err != nil {
			return err
		}
		fn(&o)
		return nil
	})
}

func totalPrice(amount, price uint64) (uint64, error) {
	total := amount * price
	if amount != 0 && total/amount != price {
		return 0, errs.ErrArithmeticOverflow
	}
	return total, nil
}
