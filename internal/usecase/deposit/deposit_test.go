package deposit_test

import (
	"context"
	"errors"
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
	"github.com/ignatzorin/cryptopay-backend/internal/usecase/deposit"
	"github.com/ignatzorin/cryptopay-backend/internal/usecase/usecasetest"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

type fixture struct {
	store     *usecasetest.Store
	notifier  *usecasetest.Notifier
	platform  *entity.Platform
	owner     uuid.UUID
	admin     entity.Actor
	platforms usecasetest.PlatformRepo
	records   usecasetest.DepositRecordRepo
	txs       usecasetest.DepositTransactionRepo
	addresses usecasetest.DepositAddressRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := usecasetest.NewStore()

	network := "TRC20"
	p := entity.NewPlatform(valueobject.PlatformKindDeposit, "Tether", "USDT")
	p.Network = &network
	platforms := usecasetest.PlatformRepo{Store: store}
	require.NoError(t, platforms.Create(context.Background(), p))

	return &fixture{
		store:     store,
		notifier:  &usecasetest.Notifier{},
		platform:  p,
		owner:     uuid.New(),
		admin:     entity.NewActor(uuid.New(), entity.RoleAdmin),
		platforms: platforms,
		records:   usecasetest.DepositRecordRepo{Store: store},
		txs:       usecasetest.DepositTransactionRepo{Store: store},
		addresses: usecasetest.DepositAddressRepo{Store: store},
	}
}

// --- ручные пополнения ---

func (f *fixture) submitRecord(t *testing.T, amount string) *entity.DepositRecord {
	t.Helper()
	id := f.platform.ID
	r, err := deposit.NewCreateDepositRecordUseCase(f.records, f.platforms).Execute(context.Background(), deposit.CreateDepositRecordInput{
		UserID:          f.owner,
		PlatformID:      &id,
		PlatformAccount: "alipay:13800000000",
		Amount:          decPtr(amount),
		DepositTime:     "2026-10-01 12:30:00",
	})
	require.NoError(t, err)
	return r
}

func TestCreateDepositRecord(t *testing.T) {
	f := newFixture(t)
	r := f.submitRecord(t, "50")
	assert.Equal(t, valueobject.RequestStatusPending, r.Status)
	assert.Equal(t, 2026, r.DepositTime.Year())
	assert.True(t, f.store.Balance(f.owner).IsZero())
}

func TestCreateDepositRecord_PlatformMustAcceptDeposits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	w := entity.NewPlatform(valueobject.PlatformKindWithdrawal, "Tether", "USDT")
	require.NoError(t, f.platforms.Create(ctx, w))

	missing := int64(404)
	for _, id := range []int64{w.ID, missing} {
		id := id
		_, err := deposit.NewCreateDepositRecordUseCase(f.records, f.platforms).Execute(ctx, deposit.CreateDepositRecordInput{
			UserID:          f.owner,
			PlatformID:      &id,
			PlatformAccount: "alipay:13800000000",
			Amount:          decPtr("50"),
			DepositTime:     "2026-10-01",
		})
		assert.Contains(t, apperror.ValidationFields(err), "platformId")
	}
}

func TestApproveDepositRecord_CreditsAdjustedAmount(t *testing.T) {
	f := newFixture(t)
	r := f.submitRecord(t, "100")
	uc := deposit.NewUpdateDepositRecordStatusUseCase(f.records, f.notifier)

	notes := "банк удержал комиссию"
	approved, err := uc.Execute(context.Background(), f.admin, deposit.UpdateDepositRecordStatusInput{
		ID: r.ID, Status: "approved", CreditedAmount: decPtr("98.5"), AdminNotes: &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, valueobject.RequestStatusApproved, approved.Status)
	assert.True(t, f.store.Balance(f.owner).Equal(dec("98.5")))
	assert.Equal(t, []string{event.DepositRecordStatusChanged, event.BalanceChanged}, f.notifier.Names())

	_, err = uc.Execute(context.Background(), f.admin, deposit.UpdateDepositRecordStatusInput{ID: r.ID, Status: "approved"})
	assert.True(t, apperror.IsInvalidTransition(err))
	assert.True(t, f.store.Balance(f.owner).Equal(dec("98.5")))
}

func TestRejectDepositRecord_NoCredit(t *testing.T) {
	f := newFixture(t)
	r := f.submitRecord(t, "100")

	rejected, err := deposit.NewUpdateDepositRecordStatusUseCase(f.records, nil).Execute(context.Background(), f.admin,
		deposit.UpdateDepositRecordStatusInput{ID: r.ID, Status: "rejected"})
	require.NoError(t, err)
	assert.Equal(t, valueobject.RequestStatusRejected, rejected.Status)
	assert.True(t, f.store.Balance(f.owner).IsZero())
}

func TestDeleteDepositRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	remove := deposit.NewDeleteDepositRecordUseCase(f.records)

	pending := f.submitRecord(t, "100")
	require.NoError(t, remove.Execute(ctx, f.admin, pending.ID))

	approved := f.submitRecord(t, "100")
	_, err := deposit.NewUpdateDepositRecordStatusUseCase(f.records, nil).Execute(ctx, f.admin,
		deposit.UpdateDepositRecordStatusInput{ID: approved.ID, Status: "approved"})
	require.NoError(t, err)
	assert.True(t, apperror.IsInvalidOperation(remove.Execute(ctx, f.admin, approved.ID)))
}

func TestGetDepositRecord_HiddenFromStrangers(t *testing.T) {
	f := newFixture(t)
	r := f.submitRecord(t, "100")
	get := deposit.NewGetDepositRecordUseCase(f.records)
	ctx := context.Background()

	got, err := get.Execute(ctx, entity.NewActor(f.owner, entity.RoleUser), r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)

	_, err = get.Execute(ctx, f.admin, r.ID)
	assert.NoError(t, err)

	_, err = get.Execute(ctx, entity.NewActor(uuid.New(), entity.RoleUser), r.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestListDepositRecords_ScopedToOwner(t *testing.T) {
	f := newFixture(t)
	f.submitRecord(t, "10")
	f.submitRecord(t, "20")

	items, total, err := deposit.NewListDepositRecordsUseCase(f.records).Execute(context.Background(),
		entity.NewActor(uuid.New(), entity.RoleUser), repository.RequestFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)
}

// --- транзакции ---

func (f *fixture) detect(t *testing.T, policy deposit.ConfirmationPolicy, hash string, confirmations int) *entity.DepositTransaction {
	t.Helper()
	owner := f.owner
	tx, err := deposit.NewDetectDepositUseCase(f.txs, f.platforms, f.addresses, policy, f.notifier).Execute(context.Background(), f.admin, deposit.DetectDepositInput{
		UserID:          &owner,
		PlatformID:      f.platform.ID,
		TransactionHash: hash,
		Amount:          dec("100"),
		Confirmations:   confirmations,
	})
	require.NoError(t, err)
	return tx
}

func TestDetectDeposit_ResolvesRequiredConfirmations(t *testing.T) {
	f := newFixture(t)

	tx := f.detect(t, deposit.ConfirmationPolicy{Default: 3}, "0x01", 0)
	assert.Equal(t, 3, tx.RequiredConfirmations)
	assert.NotNil(t, tx.DetectedAt)
	assert.Equal(t, valueobject.TransactionStatusPending, tx.Status)

	tx = f.detect(t, deposit.ConfirmationPolicy{Default: 3, ByNetwork: map[string]int{"TRC20": 19}}, "0x02", 0)
	assert.Equal(t, 19, tx.RequiredConfirmations)
}

func TestDetectDeposit_DuplicateHash(t *testing.T) {
	f := newFixture(t)
	f.detect(t, deposit.ConfirmationPolicy{}, "0xdup", 0)

	owner := f.owner
	_, err := deposit.NewDetectDepositUseCase(f.txs, f.platforms, f.addresses, deposit.ConfirmationPolicy{}, nil).Execute(context.Background(), f.admin, deposit.DetectDepositInput{
		UserID: &owner, PlatformID: f.platform.ID, TransactionHash: "0xdup", Amount: dec("1"),
	})
	assert.True(t, apperror.IsDuplicate(err))
}

func TestDetectDeposit_ByAddressTouchesLastUsed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	address, _, err := deposit.NewGetOrCreateAddressUseCase(f.addresses, f.platforms, staticGenerator{}).Execute(ctx, f.owner, f.platform.ID)
	require.NoError(t, err)

	tx, err := deposit.NewDetectDepositUseCase(f.txs, f.platforms, f.addresses, deposit.ConfirmationPolicy{}, nil).Execute(ctx, f.admin, deposit.DetectDepositInput{
		AddressID: &address.ID, TransactionHash: "0xaddr", Amount: dec("5"),
	})
	require.NoError(t, err)
	assert.Equal(t, f.owner, tx.UserID)
	assert.Equal(t, address.ID, *tx.AddressID)

	stored, err := f.addresses.FindByID(ctx, address.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastUsedAt)
}

func TestDetectDeposit_RequiresUser(t *testing.T) {
	f := newFixture(t)
	_, err := deposit.NewDetectDepositUseCase(f.txs, f.platforms, f.addresses, deposit.ConfirmationPolicy{}, nil).Execute(context.Background(), f.admin, deposit.DetectDepositInput{
		PlatformID: f.platform.ID, TransactionHash: "0x1", Amount: dec("5"),
	})
	assert.Contains(t, apperror.ValidationFields(err), "userId")
}

func TestCompleteDeposit_GateAndCredit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tx := f.detect(t, deposit.ConfirmationPolicy{Default: 3}, "0xgate", 2)

	_, err := deposit.NewConfirmDepositUseCase(f.txs, f.notifier).Execute(ctx, f.admin, tx.ID)
	require.NoError(t, err)

	complete := deposit.NewCompleteDepositUseCase(f.txs, f.notifier)
	_, err = complete.Execute(ctx, f.admin, tx.ID)
	assert.True(t, apperror.IsInvalidOperation(err), "2/3 confirmations")

	_, err = deposit.NewUpdateConfirmationsUseCase(f.txs, deposit.ConfirmationPolicy{}, nil).Execute(ctx, f.admin, tx.ID, 3)
	require.NoError(t, err)

	_, err = deposit.NewSetCreditedAmountUseCase(f.txs).Execute(ctx, f.admin, tx.ID, dec("95.5"))
	require.NoError(t, err)

	done, err := complete.Execute(ctx, f.admin, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.TransactionStatusCompleted, done.Status)
	assert.Equal(t, f.admin.UserID, *done.ProcessedBy)
	assert.True(t, f.store.Balance(f.owner).Equal(dec("95.5")))

	_, err = complete.Execute(ctx, f.admin, tx.ID)
	assert.True(t, apperror.IsInvalidOperation(err))
	assert.True(t, f.store.Balance(f.owner).Equal(dec("95.5")), "balance credited exactly once")
}

// staleCompleteRepo имитирует параллельное завершение той же транзакции.
type staleCompleteRepo struct {
	usecasetest.DepositTransactionRepo
}

func (staleCompleteRepo) Complete(context.Context, *entity.DepositTransaction, decimal.Decimal, *decimal.Decimal) error {
	return repository.ErrStaleStatus
}

func TestCompleteDeposit_ConcurrentCompletionIsInvalidOperation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tx := f.detect(t, deposit.ConfirmationPolicy{}, "0xrace", 1)
	_, err := deposit.NewConfirmDepositUseCase(f.txs, nil).Execute(ctx, f.admin, tx.ID)
	require.NoError(t, err)

	_, err = deposit.NewCompleteDepositUseCase(staleCompleteRepo{f.txs}, nil).Execute(ctx, f.admin, tx.ID)
	assert.True(t, apperror.IsInvalidOperation(err))
	assert.True(t, f.store.Balance(f.owner).IsZero())
}

func TestUpdateConfirmations_AutoComplete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	policy := deposit.ConfirmationPolicy{Default: 2, AutoComplete: true}
	tx := f.detect(t, policy, "0xauto", 0)

	uc := deposit.NewUpdateConfirmationsUseCase(f.txs, policy, f.notifier)
	updated, err := uc.Execute(ctx, f.admin, tx.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, valueobject.TransactionStatusPending, updated.Status)

	updated, err = uc.Execute(ctx, f.admin, tx.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, valueobject.TransactionStatusCompleted, updated.Status)
	assert.Nil(t, updated.ProcessedBy)
	assert.True(t, f.store.Balance(f.owner).Equal(dec("100")))

	_, err = uc.Execute(ctx, f.admin, tx.ID, 5)
	assert.True(t, apperror.IsInvalidOperation(err))
}

func TestUpdateConfirmations_NeverDecrease(t *testing.T) {
	f := newFixture(t)
	tx := f.detect(t, deposit.ConfirmationPolicy{Default: 5}, "0xdec", 3)

	_, err := deposit.NewUpdateConfirmationsUseCase(f.txs, deposit.ConfirmationPolicy{}, nil).Execute(context.Background(), f.admin, tx.ID, 2)
	assert.True(t, apperror.IsValidation(err))
}

func TestCloseDeposit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	closer := deposit.NewCloseDepositUseCase(f.txs, f.notifier)

	failed := f.detect(t, deposit.ConfirmationPolicy{}, "0xfail", 0)
	got, err := closer.Execute(ctx, f.admin, failed.ID, valueobject.TransactionStatusFailed, "reorg")
	require.NoError(t, err)
	assert.Equal(t, valueobject.TransactionStatusFailed, got.Status)
	assert.Equal(t, "reorg", *got.Notes)

	_, err = closer.Execute(ctx, f.admin, failed.ID, valueobject.TransactionStatusCancelled, "")
	assert.True(t, apperror.IsInvalidTransition(err))

	_, err = closer.Execute(ctx, f.admin, failed.ID, valueobject.TransactionStatusCompleted, "")
	assert.True(t, apperror.IsInvalidTransition(err))

	_, err = closer.Execute(ctx, entity.NewActor(f.owner, entity.RoleUser), failed.ID, valueobject.TransactionStatusCancelled, "")
	assert.True(t, apperror.IsForbidden(err))
}

func TestGetDepositTransaction_HiddenFromStrangers(t *testing.T) {
	f := newFixture(t)
	tx := f.detect(t, deposit.ConfirmationPolicy{}, "0xown", 0)
	get := deposit.NewGetDepositTransactionUseCase(f.txs)

	_, err := get.Execute(context.Background(), entity.NewActor(f.owner, entity.RoleUser), tx.ID)
	assert.NoError(t, err)

	_, err = get.Execute(context.Background(), entity.NewActor(uuid.New(), entity.RoleUser), tx.ID)
	assert.True(t, apperror.IsNotFound(err))
}

// --- адреса ---

type staticGenerator struct{}

func (staticGenerator) Generate(_ context.Context, userID uuid.UUID, p *entity.Platform) (string, *string, error) {
	return p.Symbol + "-" + userID.String()[:8], nil, nil
}

type failingGenerator struct{}

func (failingGenerator) Generate(context.Context, uuid.UUID, *entity.Platform) (string, *string, error) {
	return "", nil, errors.New("wallet offline")
}

func TestGetOrCreateAddress_ReusesActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uc := deposit.NewGetOrCreateAddressUseCase(f.addresses, f.platforms, staticGenerator{})

	first, created, err := uc.Execute(ctx, f.owner, f.platform.ID)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := uc.Execute(ctx, f.owner, f.platform.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	list, err := deposit.NewListAddressesUseCase(f.addresses).Execute(ctx, f.owner)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestGetOrCreateAddress_GeneratorFailure(t *testing.T) {
	f := newFixture(t)
	_, _, err := deposit.NewGetOrCreateAddressUseCase(f.addresses, f.platforms, failingGenerator{}).Execute(context.Background(), f.owner, f.platform.ID)
	require.Error(t, err)
	assert.False(t, apperror.IsNotFound(err))
}

// tagSequence выдаёт общий адрес и теги по очереди.
type tagSequence struct {
	tags []string
	next int
}

func (g *tagSequence) Generate(context.Context, uuid.UUID, *entity.Platform) (string, *string, error) {
	tag := g.tags[g.next%len(g.tags)]
	g.next++
	return "rShared", &tag, nil
}

func TestGetOrCreateAddress_RetriesTakenTag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gen := &tagSequence{tags: []string{"7", "7", "8"}}
	uc := deposit.NewGetOrCreateAddressUseCase(f.addresses, f.platforms, gen)

	first, _, err := uc.Execute(ctx, f.owner, f.platform.ID)
	require.NoError(t, err)
	other, created, err := uc.Execute(ctx, uuid.New(), f.platform.ID)
	require.NoError(t, err)

	assert.True(t, created)
	assert.Equal(t, 3, gen.next)
	assert.Equal(t, first.Address, other.Address)
	assert.Equal(t, "7", *first.Tag)
	assert.Equal(t, "8", *other.Tag)
}

func TestGetOrCreateAddress_GivesUpAfterRepeatedCollisions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gen := &tagSequence{tags: []string{"7"}}
	uc := deposit.NewGetOrCreateAddressUseCase(f.addresses, f.platforms, gen)

	_, _, err := uc.Execute(ctx, f.owner, f.platform.ID)
	require.NoError(t, err)

	_, _, err = uc.Execute(ctx, uuid.New(), f.platform.ID)
	require.Error(t, err)
	assert.False(t, apperror.IsDuplicate(err))
	assert.Equal(t, 6, gen.next)
}

type disabledGenerator struct{}

func (disabledGenerator) Generate(context.Context, uuid.UUID, *entity.Platform) (string, *string, error) {
	return "", nil, apperror.ErrAddressIssuingDisabled
}

func TestGetOrCreateAddress_IssuingDisabled(t *testing.T) {
	f := newFixture(t)
	_, _, err := deposit.NewGetOrCreateAddressUseCase(f.addresses, f.platforms, disabledGenerator{}).Execute(context.Background(), f.owner, f.platform.ID)
	assert.ErrorIs(t, err, apperror.ErrAddressIssuingDisabled)
}

// adjustOnRead меняет сумму зачисления сразу после чтения транзакции.
type adjustOnRead struct {
	usecasetest.DepositTransactionRepo
	adjust func(id int64)
}

func (r adjustOnRead) FindByID(ctx context.Context, id int64) (*entity.DepositTransaction, error) {
	tx, err := r.DepositTransactionRepo.FindByID(ctx, id)
	if err == nil {
		r.adjust(id)
	}
	return tx, err
}

func TestCompleteDeposit_CreditedAmountChangedConcurrently(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tx := f.detect(t, deposit.ConfirmationPolicy{}, "0xadjust", 1)
	_, err := deposit.NewConfirmDepositUseCase(f.txs, nil).Execute(ctx, f.admin, tx.ID)
	require.NoError(t, err)

	repo := adjustOnRead{
		DepositTransactionRepo: f.txs,
		adjust: func(id int64) {
			_, err := deposit.NewSetCreditedAmountUseCase(f.txs).Execute(ctx, f.admin, id, dec("90"))
			require.NoError(t, err)
		},
	}

	_, err = deposit.NewCompleteDepositUseCase(repo, nil).Execute(ctx, f.admin, tx.ID)
	assert.True(t, apperror.IsInvalidOperation(err))
	assert.True(t, f.store.Balance(f.owner).IsZero())

	stored, err := f.txs.FindByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.TransactionStatusConfirmed, stored.Status)
	assert.True(t, dec("90").Equal(*stored.CreditedAmount))

	done, err := deposit.NewCompleteDepositUseCase(f.txs, nil).Execute(ctx, f.admin, tx.ID)
	require.NoError(t, err)
	assert.True(t, dec("90").Equal(*done.CreditedAmount))
	assert.True(t, f.store.Balance(f.owner).Equal(dec("90")))
}
