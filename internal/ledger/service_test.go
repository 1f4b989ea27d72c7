package ledger

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/estatex/estatex/internal/identities"
	"github.com/estatex/estatex/internal/registry"
	"github.com/estatex/estatex/internal/storage"
	"github.com/estatex/estatex/pkg/errs"
	"github.com/estatex/estatex/pkg/models"
)

type testEnv struct {
	store      *storage.Store
	identities *identities.Service
	registry   *registry.Service
	ledger     *Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zaptest.NewLogger(t)
	store, err := storage.OpenInMemory(logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	identitiesSvc, err := identities.NewService(logger, store)
	require.NoError(t, err)
	registrySvc, err := registry.NewService(logger, store, identitiesSvc)
	require.NoError(t, err)
	ledgerSvc, err := NewService(logger, store, identitiesSvc, registrySvc)
	require.NoError(t, err)

	return &testEnv{store: store, identities: identitiesSvc, registry: registrySvc, ledger: ledgerSvc}
}

func (e *testEnv) verifiedUser(t *testing.T, name string) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	user, _, err := e.identities.CreateUser(ctx, name, name+"@example.com")
	require.NoError(t, err)
	require.NoError(t, e.identities.SetKYCStatus(ctx, user.ID, models.KYCStatusVerified))
	return user.ID
}

func (e *testEnv) property(t *testing.T, owner uuid.UUID, totalValue, totalTokens uint64) *models.Property {
	t.Helper()
	property, err := e.registry.CreateProperty(context.Background(), owner, registry.CreatePropertyPayload{
		Title:        "Harbor View",
		Location:     "Lisbon",
		TotalValue:   totalValue,
		TotalTokens:  totalTokens,
		PropertyType: models.PropertyTypeResidential,
		RentalYield:  decimal.NewFromFloat(4.2),
	})
	require.NoError(t, err)
	return property
}

func TestInvest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	investor := env.verifiedUser(t, "ada")
	property := env.property(t, investor, 10_000, 1_000) // 10 per token

	investment, err := env.ledger.Invest(ctx, investor, property.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, models.InvestmentStatusConfirmed, investment.Status)
	assert.Equal(t, models.InvestmentKindPurchase, investment.Kind)
	assert.Equal(t, uint64(100), investment.TokenAmount)
	assert.Equal(t, uint64(1_000), investment.InvestmentAmount)

	balance, err := env.ledger.BalanceOf(ctx, investor, property.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), balance)

	// Supply is decremented in the same transaction.
	got, err := env.registry.GetProperty(ctx, property.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(900), got.AvailableTokens)
}

func TestInvestAccumulatesRecords(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	investor := env.verifiedUser(t, "ada")
	property := env.property(t, investor, 10_000, 1_000)

	for i := 0; i < 3; i++ {
		_, err := env.ledger.Invest(ctx, investor, property.ID, 10)
		require.NoError(t, err)
	}

	investments, err := env.ledger.InvestmentsFor(ctx, investor)
	require.NoError(t, err)
	assert.Len(t, investments, 3)

	balance, err := env.ledger.BalanceOf(ctx, investor, property.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(30), balance)
}

func TestInvestRequiresVerifiedKYC(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.verifiedUser(t, "owner")
	property := env.property(t, owner, 10_000, 1_000)

	pending, _, err := env.identities.CreateUser(ctx, "Pending", "pending@example.com")
	require.NoError(t, err)

	_, err = env.ledger.Invest(ctx, pending.ID, property.ID, 10)
	assert.ErrorIs(t, err, errs.ErrKYCNotVerified)
}

func TestInvestUnknownProperty(t *testing.T) {
	env := newTestEnv(t)
	investor := env.verifiedUser(t, "ada")

	_, err := env.ledger.Invest(context.Background(), investor, 4242, 10)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestInvestExceedingAvailableTokens(t *testing.T) {
	env := newTestEnv(t)
	investor := env.verifiedUser(t, "ada")
	property := env.property(t, investor, 1_000, 100)

	_, err := env.ledger.Invest(context.Background(), investor, property.ID, 101)
	assert.ErrorIs(t, err, errs.ErrInsufficientBalance)

	balance, err := env.ledger.BalanceOf(context.Background(), investor, property.ID)
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestInvestZeroAmount(t *testing.T) {
	env := newTestEnv(t)
	investor := env.verifiedUser(t, "ada")
	property := env.property(t, investor, 1_000, 100)

	_, err := env.ledger.Invest(context.Background(), investor, property.ID, 0)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestMulTokensOverflow(t *testing.T) {
	total, err := mulTokens(40, 12)
	require.NoError(t, err)
	assert.Equal(t, uint64(480), total)

	total, err = mulTokens(0, 12)
	require.NoError(t, err)
	assert.Zero(t, total)

	_, err = mulTokens(3, math.MaxUint64/2)
	assert.ErrorIs(t, err, errs.ErrArithmeticOverflow)
}

func TestTransferDebitsAndCredits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seller := env.verifiedUser(t, "seller")
	buyer := env.verifiedUser(t, "buyer")
	property := env.property(t, seller, 10_000, 1_000)

	_, err := env.ledger.Invest(ctx, seller, property.ID, 100)
	require.NoError(t, err)

	err = env.store.Update(func(tx *storage.Tx) error {
		return env.ledger.TransferTx(tx, seller, buyer, property.ID, 40, 480)
	})
	require.NoError(t, err)

	sellerBalance, err := env.ledger.BalanceOf(ctx, seller, property.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(60), sellerBalance)

	buyerBalance, err := env.ledger.BalanceOf(ctx, buyer, property.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(40), buyerBalance)

	// Both legs are confirmed records carrying the trade total.
	buyerRecords, err := env.ledger.InvestmentsFor(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, buyerRecords, 1)
	assert.Equal(t, models.InvestmentKindTransferIn, buyerRecords[0].Kind)
	assert.Equal(t, uint64(480), buyerRecords[0].InvestmentAmount)

	sellerRecords, err := env.ledger.InvestmentsFor(ctx, seller)
	require.NoError(t, err)
	require.Len(t, sellerRecords, 2)
}

func TestBalanceIgnoresOtherHoldersAndProperties(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.verifiedUser(t, "ada")
	ben := env.verifiedUser(t, "ben")
	p1 := env.property(t, ada, 10_000, 1_000)
	p2 := env.property(t, ada, 20_000, 2_000)

	_, err := env.ledger.Invest(ctx, ada, p1.ID, 50)
	require.NoError(t, err)
	_, err = env.ledger.Invest(ctx, ada, p2.ID, 70)
	require.NoError(t, err)
	_, err = env.ledger.Invest(ctx, ben, p1.ID, 30)
	require.NoError(t, err)

	balance, err := env.ledger.BalanceOf(ctx, ada, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), balance)

	balance, err = env.ledger.BalanceOf(ctx, ben, p2.ID)
	require.NoError(t, err)
	assert.Zero(t, balance)
}
