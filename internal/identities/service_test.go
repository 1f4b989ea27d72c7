package identities

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/estatex/estatex/internal/storage"
	"github.com/estatex/estatex/pkg/errs"
	"github.com/estatex/estatex/pkg/models"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	store, err := storage.OpenInMemory(zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	svc, err := NewService(zaptest.NewLogger(t), store)
	require.NoError(t, err)
	return svc
}

func TestCreateUser(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, apiKey, err := svc.CreateUser(ctx, "Ada", "ada@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, apiKey)
	assert.Equal(t, models.KYCStatusPending, user.KYCStatus)
	assert.Equal(t, uint64(defaultInvestmentLimit), user.InvestmentLimit)
	assert.Equal(t, models.RiskProfileConservative, user.RiskProfile)

	got, err := svc.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "Ada", got.Name)
}

func TestCreateUserValidation(t *testing.T) {
	svc := newTestService(t)

	_, _, err := svc.CreateUser(context.Background(), "", "ada@example.com")
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestAuthenticate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, apiKey, err := svc.CreateUser(ctx, "Ada", "ada@example.com")
	require.NoError(t, err)

	got, err := svc.Authenticate(ctx, apiKey)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, errs.ErrAuthenticationRequired)

	_, err = svc.Authenticate(ctx, "nope")
	assert.ErrorIs(t, err, errs.ErrAuthenticationRequired)
}

func TestSubmitKYCDocuments(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, _, err := svc.CreateUser(ctx, "Ada", "ada@example.com")
	require.NoError(t, err)

	err = svc.SubmitKYCDocuments(ctx, user.ID, []string{"passport.pdf"})
	require.NoError(t, err)

	got, err := svc.GetUser(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.KYCVerification)
	assert.Equal(t, models.KYCStatusPending, got.KYCStatus)
	assert.Equal(t, models.KYCLevelBasic, got.KYCVerification.Level)
	assert.Equal(t, []string{"passport.pdf"}, got.KYCVerification.DocumentsSubmitted)
	assert.Equal(t, uint32(50), got.KYCVerification.ComplianceScore)
	assert.True(t, got.KYCVerification.ExpiryDate.After(got.KYCVerification.VerificationDate))

	err = svc.SubmitKYCDocuments(ctx, uuid.New(), []string{"passport.pdf"})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestKYCGate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, _, err := svc.CreateUser(ctx, "Ada", "ada@example.com")
	require.NoError(t, err)

	requireVerified := func(id uuid.UUID) error {
		return svc.store.View(func(tx *storage.Tx) error {
			return svc.RequireVerifiedTx(tx, id)
		})
	}

	// Pending fails closed.
	err = requireVerified(user.ID)
	assert.ErrorIs(t, err, errs.ErrKYCNotVerified)

	require.NoError(t, svc.SetKYCStatus(ctx, user.ID, models.KYCStatusVerified))
	assert.NoError(t, requireVerified(user.ID))

	for _, status := range []string{models.KYCStatusRejected, models.KYCStatusExpired, models.KYCStatusPending} {
		require.NoError(t, svc.SetKYCStatus(ctx, user.ID, status))
		assert.ErrorIs(t, requireVerified(user.ID), errs.ErrKYCNotVerified, status)
	}

	// Unknown profile is not-found, not merely unverified.
	assert.ErrorIs(t, requireVerified(uuid.New()), errs.ErrNotFound)
}

func TestSetKYCStatusValidation(t *testing.T) {
	svc := newTestService(t)

	err := svc.SetKYCStatus(context.Background(), uuid.New(), "MAYBE")
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
}
