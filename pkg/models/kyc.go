package models

import (
	"time"

	"github.com/google/uuid"
)

// KYC statuses. Only Verified permits ledger-mutating calls.
const (
	KYCStatusPending  = "PENDING"
	KYCStatusVerified = "VERIFIED"
	KYCStatusRejected = "REJECTED"
	KYCStatusExpired  = "EXPIRED"

	// Verification levels
	KYCLevelBasic         = "BASIC"
	KYCLevelStandard      = "STANDARD"
	KYCLevelPremium       = "PREMIUM"
	KYCLevelInstitutional = "INSTITUTIONAL"

	// Risk profiles
	RiskProfileConservative = "CONSERVATIVE"
	RiskProfileModerate     = "MODERATE"
	RiskProfileAggressive   = "AGGRESSIVE"
)

// KYCVerification holds the outcome of a document submission.
type KYCVerification struct {
	Level              string    `json:"verification_level"`
	DocumentsSubmitted []string  `json:"documents_submitted"`
	VerificationDate   time.Time `json:"verification_date"`
	ExpiryDate         time.Time `json:"expiry_date"`
	VerifiedBy         string    `json:"verified_by"`
	ComplianceScore    uint32    `json:"compliance_score"`
}

// UserProfile is a platform identity with its compliance state.
type UserProfile struct {
	ID                 uuid.UUID        `json:"id"`
	Name               string           `json:"name"`
	Email              string           `json:"email"`
	KYCStatus          string           `json:"kyc_status"`
	KYCVerification    *KYCVerification `json:"kyc_verification,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	TotalInvestments   uint64           `json:"total_investments"`
	InvestmentLimit    uint64           `json:"investment_limit"`
	AccreditedInvestor bool             `json:"accredited_investor"`
	Jurisdiction       string           `json:"jurisdiction"`
	RiskProfile        string           `json:"risk_profile"`
}
