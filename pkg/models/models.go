package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Constants for property, investment and order lifecycles.
const (
	// Property types
	PropertyTypeResidential = "RESIDENTIAL"
	PropertyTypeCommercial  = "COMMERCIAL"
	PropertyTypeIndustrial  = "INDUSTRIAL"
	PropertyTypeLand        = "LAND"
	PropertyTypeTrophy      = "TROPHY"

	// Property statuses
	PropertyStatusActive           = "ACTIVE"
	PropertyStatusSold             = "SOLD"
	PropertyStatusPending          = "PENDING"
	PropertyStatusInactive         = "INACTIVE"
	PropertyStatusUnderMaintenance = "UNDER_MAINTENANCE"

	// Investment record kinds. A trade settlement writes a TransferOut
	// against the selling party and a TransferIn crediting the acquirer,
	// so a holder's balance is always derivable from the ledger alone.
	InvestmentKindPurchase    = "PURCHASE"
	InvestmentKindTransferIn  = "TRANSFER_IN"
	InvestmentKindTransferOut = "TRANSFER_OUT"

	// Investment statuses
	InvestmentStatusPending   = "PENDING"
	InvestmentStatusConfirmed = "CONFIRMED"
	InvestmentStatusCancelled = "CANCELLED"

	// Order types
	OrderTypeBuy  = "BUY"
	OrderTypeSell = "SELL"

	// Order statuses. Filled, Cancelled and Expired are terminal.
	OrderStatusActive    = "ACTIVE"
	OrderStatusFilled    = "FILLED"
	OrderStatusCancelled = "CANCELLED"
	OrderStatusExpired   = "EXPIRED"

	// Proposal types
	ProposalTypeMaintenance          = "PROPERTY_MAINTENANCE"
	ProposalTypeSale                 = "PROPERTY_SALE"
	ProposalTypeManagementChange     = "MANAGEMENT_CHANGE"
	ProposalTypeDividendDistribution = "DIVIDEND_DISTRIBUTION"
	ProposalTypeOther                = "OTHER"

	// Proposal statuses
	ProposalStatusActive   = "ACTIVE"
	ProposalStatusPassed   = "PASSED"
	ProposalStatusRejected = "REJECTED"
	ProposalStatusExecuted = "EXECUTED"
)

// Property is a registered real-world property divided into a fixed token supply.
type Property struct {
	ID               uint64          `json:"id"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Location         string          `json:"location"`
	TotalValue       uint64          `json:"total_value"`
	TotalTokens      uint64          `json:"total_tokens"`
	AvailableTokens  uint64          `json:"available_tokens"`
	PricePerToken    uint64          `json:"price_per_token"`
	Owner            uuid.UUID       `json:"owner"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	PropertyType     string          `json:"property_type"`
	Status           string          `json:"status"`
	Images           []string        `json:"images,omitempty"`
	Documents        []string        `json:"documents,omitempty"`
	RentalYield      decimal.Decimal `json:"rental_yield"`
	AppreciationRate decimal.Decimal `json:"appreciation_rate"`
	Highlights       []string        `json:"property_highlights,omitempty"`
	LegalStructure   string          `json:"legal_structure"`
	ValuationDate    time.Time       `json:"valuation_date"`
	NextDividendDate time.Time       `json:"next_dividend_date"`
}

// Investment is one confirmed ownership grant. Records are append-only and
// immutable once confirmed; balances are computed by summing them.
type Investment struct {
	ID               uint64    `json:"id"`
	Investor         uuid.UUID `json:"investor"`
	PropertyID       uint64    `json:"property_id"`
	Kind             string    `json:"kind"`
	TokenAmount      uint64    `json:"token_amount"`
	InvestmentAmount uint64    `json:"investment_amount"`
	Timestamp        time.Time `json:"timestamp"`
	Status           string    `json:"status"`
}

// Order is a standing offer to buy or sell tokens of one property at a fixed
// unit price, with an expiry. Buyer records the counterparty that executed it.
type Order struct {
	ID            uint64     `json:"id"`
	PropertyID    uint64     `json:"property_id"`
	Seller        uuid.UUID  `json:"seller"`
	Buyer         *uuid.UUID `json:"buyer,omitempty"`
	TokenAmount   uint64     `json:"token_amount"`
	PricePerToken uint64     `json:"price_per_token"`
	TotalPrice    uint64     `json:"total_price"`
	OrderType     string     `json:"order_type"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	ExpiresAt     time.Time  `json:"expires_at"`
}

// Portfolio is a holder's derived view of their holdings across properties.
// It is rebuildable from the ledger and order history.
type Portfolio struct {
	Owner                  uuid.UUID           `json:"owner"`
	TotalValue             uint64              `json:"total_value"`
	TotalTokens            uint64              `json:"total_tokens"`
	Properties             []PortfolioProperty `json:"properties"`
	TotalDividendsReceived uint64              `json:"total_dividends_received"`
	Metrics                PerformanceMetrics  `json:"performance_metrics"`
}

// PortfolioProperty is one per-property holding entry, unique per
// (owner, property) and updated in place.
type PortfolioProperty struct {
	PropertyID        uint64    `json:"property_id"`
	TokenAmount       uint64    `json:"token_amount"`
	InitialInvestment uint64    `json:"initial_investment"`
	CurrentValue      uint64    `json:"current_value"`
	DividendsReceived uint64    `json:"dividends_received"`
	PurchaseDate      time.Time `json:"purchase_date"`
}

// PerformanceMetrics are recomputed from holdings whenever a portfolio is read.
type PerformanceMetrics struct {
	TotalReturn          decimal.Decimal `json:"total_return"`
	AnnualYield          decimal.Decimal `json:"annual_yield"`
	ROIPercentage        decimal.Decimal `json:"roi_percentage"`
	DiversificationScore decimal.Decimal `json:"diversification_score"`
}

// MarketData is a property's latest observed trade price and rolling volume,
// overwritten after every executed trade.
type MarketData struct {
	PropertyID       uint64          `json:"property_id"`
	CurrentPrice     uint64          `json:"current_price"`
	PriceChange24h   decimal.Decimal `json:"price_change_24h"`
	TradingVolume24h uint64          `json:"trading_volume_24h"`
	MarketCap        uint64          `json:"market_cap"`
	LiquidityScore   decimal.Decimal `json:"liquidity_score"`
	LastUpdated      time.Time       `json:"last_updated"`
}

// GovernanceProposal is a token-weighted proposal scoped to one property.
type GovernanceProposal struct {
	ID                  uint64    `json:"id"`
	PropertyID          uint64    `json:"property_id"`
	Proposer            uuid.UUID `json:"proposer"`
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	ProposalType        string    `json:"proposal_type"`
	VotingPowerRequired uint64    `json:"voting_power_required"`
	VotesFor            uint64    `json:"votes_for"`
	VotesAgainst        uint64    `json:"votes_against"`
	Status              string    `json:"status"`
	CreatedAt           time.Time `json:"created_at"`
	VotingEndsAt        time.Time `json:"voting_ends_at"`
}

// PlatformStats aggregates platform-wide counters for the analytics endpoint.
type PlatformStats struct {
	TotalProperties      uint64 `json:"total_properties"`
	TotalInvestments     uint64 `json:"total_investments"`
	TotalUsers           uint64 `json:"total_users"`
	TotalValueLocked     uint64 `json:"total_value_locked"`
	TotalTradingVolume   uint64 `json:"total_trading_volume"`
	ActiveOrders         uint64 `json:"active_orders"`
	TotalDividendsPaid   uint64 `json:"total_dividends_paid"`
	PlatformFeeCollected uint64 `json:"platform_fee_collected"`
}
