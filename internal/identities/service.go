package identities

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/estatex/estatex/internal/storage"
	"github.com/estatex/estatex/pkg/errs"
	"github.com/estatex/estatex/pkg/models"
)

const (
	userPrefix   = "user/"
	apiKeyPrefix = "apikey/"

	defaultInvestmentLimit = 100_000
	kycValidity            = 365 * 24 * time.Hour
)

func userKey(id uuid.UUID) string { return userPrefix + id.String() }
func apiKeyKey(key string) string { return apiKeyPrefix + key }

// Service manages user profiles, API-key authentication and the KYC gate.
type Service struct {
	logger *zap.Logger
	store  *storage.Store
	now    func() time.Time
}

// NewService creates a new identities service.
func NewService(logger *zap.Logger, store *storage.Store) (*Service, error) {
	return &Service{logger: logger, store: store, now: time.Now}, nil
}

// CreateUser registers a profile and issues its API key. The key is returned
// once and only its lookup entry is persisted.
func (s *Service) CreateUser(ctx context.Context, name, email string) (*models.UserProfile, string, error) {
	if name == "" || email == "" {
		return nil, "", fmt.Errorf("%w: name and email are required", errs.ErrInvalidArgument)
	}

	apiKey, err := newAPIKey()
	if err != nil {
		return nil, "", err
	}

	user := &models.UserProfile{
		ID:              uuid.New(),
		Name:            name,
		Email:           email,
		KYCStatus:       models.KYCStatusPending,
		CreatedAt:       s.now(),
		InvestmentLimit: defaultInvestmentLimit,
		Jurisdiction:    "Unknown",
		RiskProfile:     models.RiskProfileConservative,
	}

	err = s.store.Update(func(tx *storage.Tx) error {
		if err := tx.Put(userKey(user.ID), user); err != nil {
			return err
		}
		return tx.Put(apiKeyKey(apiKey), user.ID)
	})
	if err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user created", zap.String("user_id", user.ID.String()))
	return user, apiKey, nil
}

// GetUser loads a profile by id.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*models.UserProfile, error) {
	var user models.UserProfile
	err := s.store.View(func(tx *storage.Tx) error {
		found, err := tx.Get(userKey(id), &user)
		if err != nil {
			return err
		}
		if !found {
			return errs.NotFound("user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Authenticate resolves an API key to its profile. An empty or unknown key
// fails with ErrAuthenticationRequired.
func (s *Service) Authenticate(ctx context.Context, apiKey string) (*models.UserProfile, error) {
	if apiKey == "" {
		return nil, errs.ErrAuthenticationRequired
	}
	var user models.UserProfile
	err := s.store.View(func(tx *storage.Tx) error {
		var userID uuid.UUID
		found, err := tx.Get(apiKeyKey(apiKey), &userID)
		if err != nil {
			return err
		}
		if !found {
			return errs.ErrAuthenticationRequired
		}
		found, err = tx.Get(userKey(userID), &user)
		if err != nil {
			return err
		}
		if !found {
			return errs.ErrAuthenticationRequired
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SubmitKYCDocuments files documents for review and moves the profile to
// Pending at the Basic verification level.
func (s *Service) SubmitKYCDocuments(ctx context.Context, userID uuid.UUID, documents []string) error {
	return s.store.Update(func(tx *storage.Tx) error {
		var user models.UserProfile
		found, err := tx.Get(userKey(userID), &user)
		if err != nil {
			return err
		}
		if !found {
			return errs.NotFound("user")
		}

		now := s.now()
		user.KYCVerification = &models.KYCVerification{
			Level:              models.KYCLevelBasic,
			DocumentsSubmitted: documents,
			VerificationDate:   now,
			ExpiryDate:         now.Add(kycValidity),
			VerifiedBy:         "System",
			ComplianceScore:    50,
		}
		user.KYCStatus = models.KYCStatusPending
		return tx.Put(userKey(userID), &user)
	})
}

// SetKYCStatus applies a review decision to a profile.
func (s *Service) SetKYCStatus(ctx context.Context, userID uuid.UUID, status string) error {
	switch status {
	case models.KYCStatusPending, models.KYCStatusVerified, models.KYCStatusRejected, models.KYCStatusExpired:
	default:
		return fmt.Errorf("%w: unknown kyc status %q", errs.ErrInvalidArgument, status)
	}
	return s.store.Update(func(tx *storage.Tx) error {
		var user models.UserProfile
		found, err := tx.Get(userKey(userID), &user)
		if err != nil {
			return err
		}
		if !found {
			return errs.NotFound("user")
		}
		user.KYCStatus = status
		return tx.Put(userKey(userID), &user)
	})
}

// RequireVerifiedTx is the compliance gate used by every ledger-mutating call.
// It fails closed: only a Verified profile passes.
func (s *Service) RequireVerifiedTx(tx *storage.Tx, userID uuid.UUID) error {
	var user models.UserProfile
	found, err := tx.Get(userKey(userID), &user)
	if err != nil {
		return err
	}
	if !found {
		return errs.NotFound("user")
	}
	switch user.KYCStatus {
	case models.KYCStatusVerified:
		return nil
	case models.KYCStatusPending:
		return errs.KYCNotVerified("verification pending")
	case models.KYCStatusRejected:
		return errs.KYCNotVerified("verification rejected")
	case models.KYCStatusExpired:
		return errs.KYCNotVerified("verification expired")
	default:
		return errs.KYCNotVerified("no verification on file")
	}
}

// CountUsersTx returns the number of registered profiles.
func (s *Service) CountUsersTx(tx *storage.Tx) (uint64, error) {
	return tx.Count(userPrefix)
}

func newAPIKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
