package governance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/estatex/estatex/internal/identities"
	"github.com/estatex/estatex/internal/ledger"
	"github.com/estatex/estatex/internal/registry"
	"github.com/estatex/estatex/internal/storage"
	"github.com/estatex/estatex/pkg/errs"
	"github.com/estatex/estatex/pkg/models"
)

const proposalPrefix = "proposal/"

// Majority of the total token supply required for a proposal to pass.
const passThresholdPercent = 51

func proposalKey(id uint64) string { return fmt.Sprintf("%s%020d", proposalPrefix, id) }

// CreateProposalPayload carries the fields needed to open a proposal.
type CreateProposalPayload struct {
	PropertyID          uint64 `json:"property_id" binding:"required"`
	Title               string `json:"title" binding:"required"`
	Description         string `json:"description"`
	ProposalType        string `json:"proposal_type" binding:"required"`
	VotingDurationHours uint64 `json:"voting_duration_hours" binding:"required,gt=0"`
}

// Service runs token-weighted governance per property. Voting power is the
// voter's ledger balance at the time of the vote.
type Service struct {
	logger     *zap.Logger
	store      *storage.Store
	identities *identities.Service
	registry   *registry.Service
	ledger     *ledger.Service
	now        func() time.Time
}

// NewService creates a new governance service.
func NewService(logger *zap.Logger, store *storage.Store, identities *identities.Service, registry *registry.Service, ledger *ledger.Service) (*Service, error) {
	return &Service{logger: logger, store: store, identities: identities, registry: registry, ledger: ledger, now: time.Now}, nil
}

// CreateProposal opens a proposal for one property. The proposer must hold
// tokens in it.
func (s *Service) CreateProposal(ctx context.Context, caller uuid.UUID, payload CreateProposalPayload) (*models.GovernanceProposal, error) {
	var proposal models.GovernanceProposal
	err := s.store.Update(func(tx *storage.Tx) error {
		if err := s.identities.RequireVerifiedTx(tx, caller); err != nil {
			return err
		}

		balance, err := s.ledger.BalanceOfTx(tx, caller, payload.PropertyID)
		if err != nil {
			return err
		}
		if balance == 0 {
			return fmt.Errorf("%w: must own tokens to create proposals", errs.ErrForbidden)
		}

		property, err := s.registry.GetPropertyTx(tx, payload.PropertyID)
		if err != nil {
			return err
		}

		id, err := tx.NextID()
		if err != nil {
			return err
		}
		now := s.now()
		proposal = models.GovernanceProposal{
			ID:                  id,
			PropertyID:          payload.PropertyID,
			Proposer:            caller,
			Title:               payload.Title,
			Description:         payload.Description,
			ProposalType:        payload.ProposalType,
			VotingPowerRequired: property.TotalTokens * passThresholdPercent / 100,
			Status:              models.ProposalStatusActive,
			CreatedAt:           now,
			VotingEndsAt:        now.Add(time.Duration(payload.VotingDurationHours) * time.Hour),
		}
		return tx.Put(proposalKey(id), &proposal)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("proposal created",
		zap.Uint64("proposal_id", proposal.ID),
		zap.Uint64("property_id", proposal.PropertyID))
	return &proposal, nil
}

// Vote adds the caller's balance-weighted vote. A proposal past its deadline
// is moved to Rejected here and the call fails with ErrExpired; the
// transition commits even though the call errors.
func (s *Service) Vote(ctx context.Context, caller uuid.UUID, proposalID uint64, voteFor bool) error {
	var deadlinePassed bool
	err := s.store.Update(func(tx *storage.Tx) error {
		if err := s.identities.RequireVerifiedTx(tx, caller); err != nil {
			return err
		}

		var proposal models.GovernanceProposal
		found, err := tx.Get(proposalKey(proposalID), &proposal)
		if err != nil {
			return err
		}
		if !found {
			return errs.NotFound("proposal")
		}
		if proposal.Status != models.ProposalStatusActive {
			return errs.InvalidState(models.ProposalStatusActive, proposal.Status)
		}
		if s.now().After(proposal.VotingEndsAt) {
			proposal.Status = models.ProposalStatusRejected
			deadlinePassed = true
			return tx.Put(proposalKey(proposalID), &proposal)
		}

		power, err := s.ledger.BalanceOfTx(tx, caller, proposal.PropertyID)
		if err != nil {
			return err
		}
		if power == 0 {
			return fmt.Errorf("%w: no voting power for this property", errs.ErrForbidden)
		}

		if voteFor {
			proposal.VotesFor += power
		} else {
			proposal.VotesAgainst += power
		}
		if proposal.VotesFor >= proposal.VotingPowerRequired {
			proposal.Status = models.ProposalStatusPassed
		}
		return tx.Put(proposalKey(proposalID), &proposal)
	})
	if err != nil {
		return err
	}
	if deadlinePassed {
		return errs.ErrExpired
	}
	return nil
}

// ProposalsFor lists all proposals for one property.
func (s *Service) ProposalsFor(ctx context.Context, propertyID uint64) ([]*models.GovernanceProposal, error) {
	var proposals []*models.GovernanceProposal
	err := s.store.View(func(tx *storage.Tx) error {
		return tx.Scan(proposalPrefix, func(key string, val []byte) error {
			var p models.GovernanceProposal
			if err := storage.Decode(val, &p); err != nil {
				return err
			}
			if p.PropertyID == propertyID {
				proposals = append(proposals, &p)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return proposals, nil
}
