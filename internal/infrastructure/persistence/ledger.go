package persistence

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/cryptopay-backend/internal/domain/repository"
)

// Источники движений баланса.
const (
	sourceWithdrawal         = "withdrawal_request"
	sourceDepositRecord      = "deposit_record"
	sourceDepositTransaction = "deposit_transaction"
)

// debitBalance списывает amount с баланса, блокируя строку до конца транзакции.
func debitBalance(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount decimal.Decimal, source string, sourceID int64) error {
	var available decimal.Decimal
	err := tx.GetContext(ctx, &available, `SELECT available FROM user_balances WHERE user_id = $1 FOR UPDATE`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrInsufficientFunds
		}
		return err
	}
	if available.LessThan(amount) {
		return repository.ErrInsufficientFunds
	}

	if _, err := tx.ExecContext(ctx, `UPDATE user_balances SET available = available - $2, updated_at = NOW() WHERE user_id = $1`, userID, amount); err != nil {
		return err
	}
	return addEntry(ctx, tx, userID, amount.Neg(), source, sourceID)
}

// creditBalance зачисляет amount, создавая баланс при первом пополнении.
func creditBalance(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount decimal.Decimal, source string, sourceID int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO user_balances (user_id, available)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET available = user_balances.available + $2, updated_at = NOW()
	`, userID, amount)
	if err != nil {
		return err
	}
	return addEntry(ctx, tx, userID, amount, source, sourceID)
}

func addEntry(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount decimal.Decimal, source string, sourceID int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO balance_entries (user_id, amount, source_type, source_id)
		VALUES ($1, $2, $3, $4)
	`, userID, amount, source, sourceID)
	return err
}

type BalanceRepositoryAdapter struct {
	db *sqlx.DB
}

func NewBalanceRepositoryAdapter(db *sqlx.DB) *BalanceRepositoryAdapter {
	return &BalanceRepositoryAdapter{db: db}
}

// GetBalance возвращает доступный баланс; пользователь без записей имеет нулевой баланс.
func (r *BalanceRepositoryAdapter) GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var available decimal.Decimal
	err := r.db.GetContext(ctx, &available, `SELECT available FROM user_balances WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, dbError(err, "не удалось получить баланс")
	}
	return available, nil
}
