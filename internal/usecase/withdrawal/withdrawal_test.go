package withdrawal_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/cryptopay-backend/internal/domain/entity"
	"github.com/ignatzorin/cryptopay-backend/internal/domain/event"
	"github.com/ignatzorin/cryptopay-backend/internal/domain/repository"
	"github.com/ignatzorin/cryptopay-backend/internal/domain/valueobject"
	"github.com/ignatzorin/cryptopay-backend/internal/pkg/apperror"
	"github.com/ignatzorin/cryptopay-backend/internal/usecase/usecasetest"
	"github.com/ignatzorin/cryptopay-backend/internal/usecase/withdrawal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	store    *usecasetest.Store
	notifier *usecasetest.Notifier
	platform *entity.Platform
	owner    uuid.UUID
	admin    entity.Actor
	create   *withdrawal.CreateWithdrawalUseCase
	update   *withdrawal.UpdateWithdrawalStatusUseCase
	remove   *withdrawal.DeleteWithdrawalUseCase
	list     *withdrawal.ListWithdrawalsUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := usecasetest.NewStore()
	notifier := &usecasetest.Notifier{}

	p := entity.NewPlatform(valueobject.PlatformKindWithdrawal, "Tether", "USDT")
	minAmount, maxAmount := dec("10"), dec("5000")
	p.MinAmount, p.MaxAmount, p.Fee = &minAmount, &maxAmount, dec("1")
	require.NoError(t, usecasetest.PlatformRepo{Store: store}.Create(context.Background(), p))

	owner := uuid.New()
	store.SetBalance(owner, dec("1000"))

	withdrawals := usecasetest.WithdrawalRepo{Store: store}
	return &fixture{
		store:    store,
		notifier: notifier,
		platform: p,
		owner:    owner,
		admin:    entity.NewActor(uuid.New(), entity.RoleAdmin),
		create:   withdrawal.NewCreateWithdrawalUseCase(withdrawals, usecasetest.PlatformRepo{Store: store}, usecasetest.BalanceRepo{Store: store}),
		update:   withdrawal.NewUpdateWithdrawalStatusUseCase(withdrawals, notifier),
		remove:   withdrawal.NewDeleteWithdrawalUseCase(withdrawals),
		list:     withdrawal.NewListWithdrawalsUseCase(withdrawals),
	}
}

func (f *fixture) submit(t *testing.T, amount string) *entity.WithdrawalRequest {
	t.Helper()
	w, err := f.create.Execute(context.Background(), withdrawal.CreateWithdrawalInput{
		UserID:         f.owner,
		PlatformID:     f.platform.ID,
		Amount:         dec(amount),
		AccountDetails: "TQ9aWalletAddress",
	})
	require.NoError(t, err)
	return w
}

func TestCreateWithdrawal_SnapshotsFeeAndStaysPending(t *testing.T) {
	f := newFixture(t)
	w := f.submit(t, "100")

	assert.Equal(t, valueobject.RequestStatusPending, w.Status)
	assert.True(t, w.Fee.Equal(dec("1")))
	assert.True(t, f.store.Balance(f.owner).Equal(dec("1000")), "submission must not debit")
}

func TestCreateWithdrawal_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.create.Execute(ctx, withdrawal.CreateWithdrawalInput{
		UserID: f.owner, PlatformID: f.platform.ID, Amount: dec("9.99"), AccountDetails: "TQ9aWalletAddress",
	})
	assert.Contains(t, apperror.ValidationFields(err), "amount")

	_, err = f.create.Execute(ctx, withdrawal.CreateWithdrawalInput{
		UserID: f.owner, PlatformID: 404, Amount: dec("100"), AccountDetails: "TQ9aWalletAddress",
	})
	assert.Contains(t, apperror.ValidationFields(err), "platformId")

	_, err = f.create.Execute(ctx, withdrawal.CreateWithdrawalInput{
		UserID: f.owner, PlatformID: f.platform.ID, Amount: dec("100"), AccountDetails: "abc",
	})
	assert.Contains(t, apperror.ValidationFields(err), "accountDetails")
}

func TestCreateWithdrawal_BalanceMustCoverFee(t *testing.T) {
	f := newFixture(t)
	f.store.SetBalance(f.owner, dec("100"))

	_, err := f.create.Execute(context.Background(), withdrawal.CreateWithdrawalInput{
		UserID: f.owner, PlatformID: f.platform.ID, Amount: dec("100"), AccountDetails: "TQ9aWalletAddress",
	})
	assert.Contains(t, apperror.ValidationFields(err), "amount")
}

func TestApproveWithdrawal_DebitsAmountPlusFee(t *testing.T) {
	f := newFixture(t)
	w := f.submit(t, "100")

	approved, err := f.update.Execute(context.Background(), f.admin, w.ID, "approved")
	require.NoError(t, err)
	assert.Equal(t, valueobject.RequestStatusApproved, approved.Status)
	assert.Equal(t, f.admin.UserID, *approved.ProcessedBy)
	assert.True(t, f.store.Balance(f.owner).Equal(dec("899")))
	assert.Equal(t, []string{event.WithdrawalStatusChanged, event.BalanceChanged}, f.notifier.Names())
}

func TestApproveWithdrawal_IsFinal(t *testing.T) {
	f := newFixture(t)
	w := f.submit(t, "100")
	ctx := context.Background()

	_, err := f.update.Execute(ctx, f.admin, w.ID, "approved")
	require.NoError(t, err)

	for _, status := range []string{"pending", "rejected", "approved"} {
		_, err := f.update.Execute(ctx, f.admin, w.ID, status)
		assert.True(t, apperror.IsInvalidTransition(err), status)
	}
	assert.True(t, f.store.Balance(f.owner).Equal(dec("899")), "re-approval must not debit twice")
}

func TestApproveWithdrawal_InsufficientFundsAtApproval(t *testing.T) {
	f := newFixture(t)
	w := f.submit(t, "100")
	f.store.SetBalance(f.owner, dec("50"))

	_, err := f.update.Execute(context.Background(), f.admin, w.ID, "approved")
	assert.True(t, apperror.IsInvalidOperation(err))

	stored, err := usecasetest.WithdrawalRepo{Store: f.store}.FindByID(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.RequestStatusPending, stored.Status)
	assert.True(t, f.store.Balance(f.owner).Equal(dec("50")))
}

func TestRejectWithdrawal_KeepsBalance(t *testing.T) {
	f := newFixture(t)
	w := f.submit(t, "100")

	rejected, err := f.update.Execute(context.Background(), f.admin, w.ID, "rejected")
	require.NoError(t, err)
	assert.Equal(t, valueobject.RequestStatusRejected, rejected.Status)
	assert.True(t, f.store.Balance(f.owner).Equal(dec("1000")))
}

func TestUpdateWithdrawal_NonAdminForbidden(t *testing.T) {
	f := newFixture(t)
	w := f.submit(t, "100")

	_, err := f.update.Execute(context.Background(), entity.NewActor(f.owner, entity.RoleUser), w.ID, "approved")
	assert.True(t, apperror.IsForbidden(err))
}

func TestUpdateWithdrawal_UnknownStatus(t *testing.T) {
	f := newFixture(t)
	w := f.submit(t, "100")

	_, err := f.update.Execute(context.Background(), f.admin, w.ID, "paid")
	assert.True(t, apperror.IsValidation(err))
}

func TestDeleteWithdrawal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending := f.submit(t, "100")
	require.NoError(t, f.remove.Execute(ctx, f.admin, pending.ID))
	_, err := usecasetest.WithdrawalRepo{Store: f.store}.FindByID(ctx, pending.ID)
	assert.True(t, apperror.IsNotFound(err))

	approved := f.submit(t, "100")
	_, err = f.update.Execute(ctx, f.admin, approved.ID, "approved")
	require.NoError(t, err)
	assert.True(t, apperror.IsInvalidOperation(f.remove.Execute(ctx, f.admin, approved.ID)))
}

func TestDeleteWithdrawal_OwnerCancelsPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.submit(t, "100")

	stranger := entity.NewActor(uuid.New(), entity.RoleUser)
	assert.True(t, apperror.IsForbidden(f.remove.Execute(ctx, stranger, w.ID)))

	owner := entity.NewActor(f.owner, entity.RoleUser)
	require.NoError(t, f.remove.Execute(ctx, owner, w.ID))
	assert.True(t, f.store.Balance(f.owner).Equal(dec("1000")))
}

func TestListWithdrawals_ScopedToOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.submit(t, "100")
	f.submit(t, "200")

	other := uuid.New()
	f.store.SetBalance(other, dec("1000"))
	_, err := f.create.Execute(ctx, withdrawal.CreateWithdrawalInput{
		UserID: other, PlatformID: f.platform.ID, Amount: dec("50"), AccountDetails: "TQ9aWalletAddress",
	})
	require.NoError(t, err)

	mine, total, err := f.list.Execute(ctx, entity.NewActor(f.owner, entity.RoleUser), repository.RequestFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, mine, 2)

	all, total, err := f.list.Execute(ctx, f.admin, repository.RequestFilter{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, all, 1)

	_, _, err = f.list.Execute(ctx, f.admin, repository.RequestFilter{Status: "done"})
	assert.True(t, apperror.IsValidation(err))
}

// approveOnRead одобряет заявку сразу после того, как use case её прочитал.
type approveOnRead struct {
	usecasetest.WithdrawalRepo
	approve func(id int64)
}

func (r approveOnRead) FindByID(ctx context.Context, id int64) (*entity.WithdrawalRequest, error) {
	w, err := r.WithdrawalRepo.FindByID(ctx, id)
	if err == nil {
		r.approve(id)
	}
	return w, err
}

func TestDeleteWithdrawal_ApprovedConcurrently(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.submit(t, "100")

	repo := approveOnRead{
		WithdrawalRepo: usecasetest.WithdrawalRepo{Store: f.store},
		approve: func(id int64) {
			_, err := f.update.Execute(ctx, f.admin, id, "approved")
			require.NoError(t, err)
		},
	}

	err := withdrawal.NewDeleteWithdrawalUseCase(repo).Execute(ctx, f.admin, w.ID)
	assert.True(t, apperror.IsInvalidOperation(err))

	stored, err := usecasetest.WithdrawalRepo{Store: f.store}.FindByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.RequestStatusApproved, stored.Status)
	assert.True(t, f.store.Balance(f.owner).Equal(dec("899")))
}
