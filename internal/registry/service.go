package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/estatex/estatex/internal/identities"
	"github.com/estatex/estatex/internal/storage"
	"github.com/estatex/estatex/pkg/errs"
	"github.com/estatex/estatex/pkg/models"
)

const propertyPrefix = "property/"

const nextDividendInterval = 90 * 24 * time.Hour

// PropertyKey formats the store key for a property id. Zero padding keeps
// scans ordered by id.
func PropertyKey(id uint64) string { return fmt.Sprintf("%s%020d", propertyPrefix, id) }

// CreatePropertyPayload carries the fields needed to register a property.
type CreatePropertyPayload struct {
	Title          string          `json:"title" binding:"required"`
	Description    string          `json:"description"`
	Location       string          `json:"location" binding:"required"`
	TotalValue     uint64          `json:"total_value" binding:"required,gt=0"`
	TotalTokens    uint64          `json:"total_tokens" binding:"required,gt=0"`
	PropertyType   string          `json:"property_type" binding:"required"`
	Images         []string        `json:"images"`
	Documents      []string        `json:"documents"`
	RentalYield    decimal.Decimal `json:"rental_yield"`
	Highlights     []string        `json:"property_highlights"`
	LegalStructure string          `json:"legal_structure"`
}

// Service is the property registry: it owns property records and their token
// supply accounting.
type Service struct {
	logger     *zap.Logger
	store      *storage.Store
	identities *identities.Service
	now        func() time.Time
}

// NewService creates a new registry service.
func NewService(logger *zap.Logger, store *storage.Store, identities *identities.Service) (*Service, error) {
	return &Service{logger: logger, store: store, identities: identities, now: time.Now}, nil
}

// CreateProperty registers a property with its full token supply available.
// The caller must be KYC-verified.
func (s *Service) CreateProperty(ctx context.Context, caller uuid.UUID, payload CreatePropertyPayload) (*models.Property, error) {
	if payload.TotalTokens == 0 || payload.TotalValue == 0 {
		return nil, fmt.Errorf("%w: total value and total tokens must be positive", errs.ErrInvalidArgument)
	}

	var property models.Property
	err := s.store.Update(func(tx *storage.Tx) error {
		if err := s.identities.RequireVerifiedTx(tx, caller); err != nil {
			return err
		}

		id, err := tx.NextID()
		if err != nil {
			return err
		}

		now := s.now()
		property = models.Property{
			ID:               id,
			Title:            payload.Title,
			Description:      payload.Description,
			Location:         payload.Location,
			TotalValue:       payload.TotalValue,
			TotalTokens:      payload.TotalTokens,
			AvailableTokens:  payload.TotalTokens,
			PricePerToken:    payload.TotalValue / payload.TotalTokens,
			Owner:            caller,
			CreatedAt:        now,
			UpdatedAt:        now,
			PropertyType:     payload.PropertyType,
			Status:           models.PropertyStatusActive,
			Images:           payload.Images,
			Documents:        payload.Documents,
			RentalYield:      payload.RentalYield,
			AppreciationRate: decimal.Zero,
			Highlights:       payload.Highlights,
			LegalStructure:   payload.LegalStructure,
			ValuationDate:    now,
			NextDividendDate: now.Add(nextDividendInterval),
		}
		return tx.Put(PropertyKey(id), &property)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("property created",
		zap.Uint64("property_id", property.ID),
		zap.Uint64("total_tokens", property.TotalTokens))
	return &property, nil
}

// GetProperty loads one property.
func (s *Service) GetProperty(ctx context.Context, id uint64) (*models.Property, error) {
	var property models.Property
	err := s.store.View(func(tx *storage.Tx) error {
		found, err := tx.Get(PropertyKey(id), &property)
		if err != nil {
			return err
		}
		if !found {
			return errs.NotFound("property")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &property, nil
}

// ListProperties returns all registered properties in id order.
func (s *Service) ListProperties(ctx context.Context) ([]*models.Property, error) {
	var properties []*models.Property
	err := s.store.View(func(tx *storage.Tx) error {
		return scanProperties(tx, func(p *models.Property) {
			properties = append(properties, p)
		})
	})
	if err != nil {
		return nil, err
	}
	return properties, nil
}

// GetPropertyTx loads a property inside an ongoing transaction.
func (s *Service) GetPropertyTx(tx *storage.Tx, id uint64) (*models.Property, error) {
	var property models.Property
	found, err := tx.Get(PropertyKey(id), &property)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errs.NotFound("property")
	}
	return &property, nil
}

// SavePropertyTx persists a property inside an ongoing transaction.
func (s *Service) SavePropertyTx(tx *storage.Tx, property *models.Property) error {
	property.UpdatedAt = s.now()
	return tx.Put(PropertyKey(property.ID), property)
}

// ScanPropertiesTx streams all properties inside an ongoing transaction.
func (s *Service) ScanPropertiesTx(tx *storage.Tx, fn func(p *models.Property)) error {
	return scanProperties(tx, fn)
}

func scanProperties(tx *storage.Tx, fn func(p *models.Property)) error {
	return tx.Scan(propertyPrefix, func(key string, val []byte) error {
		var p models.Property
		if err := storage.Decode(val, &p); err != nil {
			return err
		}
		fn(&p)
		return nil
	})
}
