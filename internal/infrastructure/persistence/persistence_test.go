package persistence

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/cryptopay-backend/internal/domain/entity"
	"github.com/ignatzorin/cryptopay-backend/internal/domain/repository"
	"github.com/ignatzorin/cryptopay-backend/internal/domain/valueobject"
	"github.com/ignatzorin/cryptopay-backend/internal/pkg/apperror"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func approvedWithdrawal(userID uuid.UUID) *entity.WithdrawalRequest {
	p := entity.NewPlatform(valueobject.PlatformKindWithdrawal, "Tether", "USDT")
	p.ID = 1
	p.Fee = dec("1")
	w := entity.NewWithdrawalRequest(userID, p, dec("100"), "TQ9aWalletAddress", "")
	w.ID = 42
	admin := entity.NewActor(uuid.New(), entity.RoleAdmin)
	_ = w.Approve(admin)
	return w
}

func TestPlatformCreate_DuplicateSymbol(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPlatformRepositoryAdapter(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO platforms")).
		WillReturnError(&pq.Error{Code: pqUniqueViolation})

	err := repo.Create(context.Background(), entity.NewPlatform(valueobject.PlatformKindWithdrawal, "Tether", "USDT"))
	assert.True(t, apperror.IsDuplicate(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlatformCreate_ReturnsID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPlatformRepositoryAdapter(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO platforms")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	p := entity.NewPlatform(valueobject.PlatformKindWithdrawal, "Tether", "USDT")
	require.NoError(t, repo.Create(context.Background(), p))
	assert.Equal(t, int64(7), p.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlatformFindByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPlatformRepositoryAdapter(db)
	now := time.Now()

	columns := []string{"id", "kind", "name", "symbol", "network", "min_amount", "max_amount", "fee", "is_active",
		"icon_url", "icon_class", "required_confirmations", "created_at", "updated_at"}
	mock.ExpectQuery(regexp.QuoteMeta("FROM platforms WHERE id = $1")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(7, "withdrawal", "Tether", "USDT", nil, "10", "5000", "1", true, nil, nil, nil, now, now))

	p, err := repo.FindByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, valueobject.PlatformKindWithdrawal, p.Kind)
	assert.True(t, p.MinAmount.Equal(dec("10")))
	assert.True(t, p.MaxAmount.Equal(dec("5000")))
	assert.True(t, p.Fee.Equal(dec("1")))
	assert.Nil(t, p.Network)
	assert.Nil(t, p.RequiredConfirmations)

	mock.ExpectQuery(regexp.QuoteMeta("FROM platforms WHERE id = $1")).
		WithArgs(int64(8)).
		WillReturnError(sql.ErrNoRows)
	_, err = repo.FindByID(context.Background(), 8)
	assert.True(t, apperror.IsNotFound(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlatformDelete_InUse(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPlatformRepositoryAdapter(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM platforms WHERE id = $1")).
		WithArgs(int64(3)).
		WillReturnError(&pq.Error{Code: pqForeignKeyViolation})

	assert.True(t, apperror.IsInvalidOperation(repo.Delete(context.Background(), 3)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithdrawalUpdateStatus_ApproveDebitsInOneTransaction(t *testing.T) {
	db, mock := newMock(t)
	repo := NewWithdrawalRepositoryAdapter(db)
	userID := uuid.New()
	w := approvedWithdrawal(userID)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE withdrawal_requests")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT available FROM user_balances WHERE user_id = $1 FOR UPDATE")).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"available"}).AddRow("1000"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE user_balances SET available = available - $2")).
		WithArgs(userID, dec("101")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO balance_entries")).
		WithArgs(userID, dec("-101"), sourceWithdrawal, int64(42)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	debit := w.DebitTotal()
	require.NoError(t, repo.UpdateStatus(context.Background(), w, valueobject.RequestStatusPending, &debit))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithdrawalUpdateStatus_InsufficientFundsRollsBack(t *testing.T) {
	db, mock := newMock(t)
	repo := NewWithdrawalRepositoryAdapter(db)
	userID := uuid.New()
	w := approvedWithdrawal(userID)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE withdrawal_requests")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT available FROM user_balances")).
		WillReturnRows(sqlmock.NewRows([]string{"available"}).AddRow("50"))
	mock.ExpectRollback()

	debit := w.DebitTotal()
	err := repo.UpdateStatus(context.Background(), w, valueobject.RequestStatusPending, &debit)
	assert.True(t, errors.Is(err, repository.ErrInsufficientFunds))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithdrawalUpdateStatus_StaleStatus(t *testing.T) {
	db, mock := newMock(t)
	repo := NewWithdrawalRepositoryAdapter(db)
	w := approvedWithdrawal(uuid.New())

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE withdrawal_requests")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	debit := w.DebitTotal()
	err := repo.UpdateStatus(context.Background(), w, valueobject.RequestStatusPending, &debit)
	assert.True(t, errors.Is(err, repository.ErrStaleStatus))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithdrawalList_FilterAndPage(t *testing.T) {
	db, mock := newMock(t)
	repo := NewWithdrawalRepositoryAdapter(db)
	userID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM withdrawal_requests WHERE user_id = $1 AND status = $2")).
		WithArgs(userID, "pending").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND status = $2 ORDER BY created_at DESC, id DESC LIMIT $3 OFFSET $4")).
		WithArgs(userID, "pending", 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	items, total, err := repo.List(context.Background(), repository.RequestFilter{UserID: &userID, Status: "pending"})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDepositRecordApprove_Credits(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDepositRecordRepositoryAdapter(db)
	userID := uuid.New()

	rec := entity.NewDepositRecord(userID, 3, "alipay:1", dec("100"), time.Now())
	rec.ID = 9
	require.NoError(t, rec.Approve(entity.NewActor(uuid.New(), entity.RoleAdmin), nil, nil))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE deposit_records")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_balances (user_id, available)")).
		WithArgs(userID, dec("100")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO balance_entries")).
		WithArgs(userID, dec("100"), sourceDepositRecord, int64(9)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	credit := rec.CreditAmount()
	require.NoError(t, repo.UpdateStatus(context.Background(), rec, valueobject.RequestStatusPending, &credit))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDepositTransactionComplete_SecondCallIsStale(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDepositTransactionRepositoryAdapter(db)
	userID := uuid.New()

	p := entity.NewPlatform(valueobject.PlatformKindDeposit, "Tether", "USDT")
	p.ID = 2
	tx := entity.NewDepositTransaction(userID, p, dec("100"), 1)
	tx.ID = 5
	require.NoError(t, tx.UpdateConfirmations(1))
	require.NoError(t, tx.MarkAsConfirmed())
	require.NoError(t, tx.SetCreditedAmount(dec("95.5")))
	seen := *tx.CreditedAmount
	credit, err := tx.Complete(nil)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE deposit_transactions")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_balances")).
		WithArgs(userID, dec("95.5")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO balance_entries")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	require.NoError(t, repo.Complete(context.Background(), tx, credit, &seen))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE deposit_transactions")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()
	err = repo.Complete(context.Background(), tx, credit, &seen)
	assert.True(t, errors.Is(err, repository.ErrStaleStatus))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBalance_MissingRowIsZero(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBalanceRepositoryAdapter(db)
	userID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT available FROM user_balances WHERE user_id = $1")).
		WithArgs(userID).
		WillReturnError(sql.ErrNoRows)

	balance, err := repo.GetBalance(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDepositAddressCreate_DuplicateActive(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDepositAddressRepositoryAdapter(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO deposit_addresses")).
		WillReturnError(&pq.Error{Code: pqUniqueViolation})

	err := repo.Create(context.Background(), entity.NewDepositAddress(uuid.New(), 1, "TQ1", nil))
	assert.True(t, apperror.IsDuplicate(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDepositAddressCreate_AddressTaken(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDepositAddressRepositoryAdapter(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO deposit_addresses")).
		WillReturnError(&pq.Error{Code: pqUniqueViolation, Constraint: addressValueConstraint})

	tag := "417"
	err := repo.Create(context.Background(), entity.NewDepositAddress(uuid.New(), 1, "rShared", &tag))
	assert.True(t, errors.Is(err, repository.ErrAddressTaken))
	assert.False(t, apperror.IsDuplicate(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestDelete_GuardedByStatus(t *testing.T) {
	db, mock := newMock(t)
	withdrawals := NewWithdrawalRepositoryAdapter(db)
	records := NewDepositRecordRepositoryAdapter(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM withdrawal_requests WHERE id = $1 AND status = $2")).
		WithArgs(int64(42), "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, withdrawals.Delete(context.Background(), 42, valueobject.RequestStatusPending))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM withdrawal_requests WHERE id = $1 AND status = $2")).
		WithArgs(int64(43), "pending").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := withdrawals.Delete(context.Background(), 43, valueobject.RequestStatusPending)
	assert.True(t, errors.Is(err, repository.ErrStaleStatus))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM deposit_records WHERE id = $1 AND status = $2")).
		WithArgs(int64(9), "rejected").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err = records.Delete(context.Background(), 9, valueobject.RequestStatusRejected)
	assert.True(t, errors.Is(err, repository.ErrStaleStatus))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDepositTransactionComplete_GuardsCreditedAmount(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDepositTransactionRepositoryAdapter(db)

	p := entity.NewPlatform(valueobject.PlatformKindDeposit, "Tether", "USDT")
	p.ID = 2
	tx := entity.NewDepositTransaction(uuid.New(), p, dec("100"), 1)
	tx.ID = 6
	require.NoError(t, tx.UpdateConfirmations(1))
	require.NoError(t, tx.MarkAsConfirmed())
	credit, err := tx.Complete(nil)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND status = $7 AND credited_amount IS NOT DISTINCT FROM $8")).
		WithArgs(int64(6), "completed", dec("100"), sqlmock.AnyArg(), nil, sqlmock.AnyArg(), "confirmed", nil).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err = repo.Complete(context.Background(), tx, credit, nil)
	assert.True(t, errors.Is(err, repository.ErrStaleStatus))
	assert.NoError(t, mock.ExpectationsWereMet())
}
