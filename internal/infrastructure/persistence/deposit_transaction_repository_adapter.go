package persistence

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/cryptopay-backend/internal/domain/entity"
	"github.com/ignatzorin/cryptopay-backend/internal/domain/repository"
	"github.com/ignatzorin/cryptopay-backend/internal/domain/valueobject"
	"github.com/ignatzorin/cryptopay-backend/internal/pkg/apperror"
)

const depositTransactionColumns = `id, user_id, platform_id, address_id, amount, fee, credited_amount,
	transaction_hash, confirmations, required_confirmations, status, blockchain_data, notes,
	detected_at, confirmed_at, completed_at, processed_by, created_at, updated_at`

type DepositTransactionRepositoryAdapter struct {
	db *sqlx.DB
}

func NewDepositTransactionRepositoryAdapter(db *sqlx.DB) *DepositTransactionRepositoryAdapter {
	return &DepositTransactionRepositoryAdapter{db: db}
}

func (r *DepositTransactionRepositoryAdapter) Create(ctx context.Context, t *entity.DepositTransaction) error {
	query := `
		INSERT INTO deposit_transactions (user_id, platform_id, address_id, amount, fee, credited_amount,
		                                  transaction_hash, confirmations, required_confirmations, status,
		                                  blockchain_data, notes, detected_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`
	err := r.db.QueryRowxContext(ctx, query,
		t.UserID,
		t.PlatformID,
		t.AddressID,
		t.Amount,
		t.Fee,
		t.CreditedAmount,
		t.TransactionHash,
		t.Confirmations,
		t.RequiredConfirmations,
		string(t.Status),
		t.BlockchainData,
		t.Notes,
		t.DetectedAt,
		t.CreatedAt,
		t.UpdatedAt,
	).Scan(&t.ID)
	if err != nil {
		return dbError(err, "не удалось сохранить транзакцию пополнения")
	}
	return nil
}

func (r *DepositTransactionRepositoryAdapter) FindByID(ctx context.Context, id int64) (*entity.DepositTransaction, error) {
	var t entity.DepositTransaction
	err := r.db.GetContext(ctx, &t, `SELECT `+depositTransactionColumns+` FROM deposit_transactions WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err, apperror.ErrDepositTransactionNotFound, "не удалось получить транзакцию пополнения")
	}
	return &t, nil
}

func (r *DepositTransactionRepositoryAdapter) FindByHash(ctx context.Context, platformID int64, hash string) (*entity.DepositTransaction, error) {
	var t entity.DepositTransaction
	query := `SELECT ` + depositTransactionColumns + ` FROM deposit_transactions WHERE platform_id = $1 AND transaction_hash = $2`
	err := r.db.GetContext(ctx, &t, query, platformID, strings.TrimSpace(hash))
	if err != nil {
		return nil, notFound(err, apperror.ErrDepositTransactionNotFound, "не удалось получить транзакцию пополнения")
	}
	return &t, nil
}

func (r *DepositTransactionRepositoryAdapter) List(ctx context.Context, filter repository.RequestFilter) ([]*entity.DepositTransaction, int, error) {
	where, args := requestWhere(filter)

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM deposit_transactions`+where, args...); err != nil {
		return nil, 0, dbError(err, "не удалось посчитать транзакции пополнения")
	}

	page, args := pageClause(filter, args)
	items := []*entity.DepositTransaction{}
	query := `SELECT ` + depositTransactionColumns + ` FROM deposit_transactions` + where + ` ORDER BY created_at DESC, id DESC` + page
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, dbError(err, "не удалось получить транзакции пополнения")
	}
	return items, total, nil
}

// Update сохраняет изменяемые поля, если статус в базе всё ещё from.
func (r *DepositTransactionRepositoryAdapter) Update(ctx context.Context, t *entity.DepositTransaction, from valueobject.TransactionStatus) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE deposit_transactions
		SET status = $2, confirmations = $3, credited_amount = $4, notes = $5,
		    confirmed_at = $6, processed_by = $7, updated_at = $8
		WHERE id = $1 AND status = $9
	`, t.ID, string(t.Status), t.Confirmations, t.CreditedAmount, t.Notes, t.ConfirmedAt, t.ProcessedBy, t.UpdatedAt, string(from))
	if err != nil {
		return dbError(err, "не удалось обновить транзакцию пополнения")
	}
	return requireAffected(result, repository.ErrStaleStatus)
}

// Complete переводит confirmed -> completed и зачисляет credit одной транзакцией.
// Повторное завершение или изменённая сумма зачисления дают ErrStaleStatus.
func (r *DepositTransactionRepositoryAdapter) Complete(ctx context.Context, t *entity.DepositTransaction, credit decimal.Decimal, seen *decimal.Decimal) error {
	err := withTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE deposit_transactions
			SET status = $2, credited_amount = $3, completed_at = $4, processed_by = $5, updated_at = $6
			WHERE id = $1 AND status = $7 AND credited_amount IS NOT DISTINCT FROM $8
		`, t.ID, string(t.Status), credit, t.CompletedAt, t.ProcessedBy, t.UpdatedAt, string(valueobject.TransactionStatusConfirmed), seen)
		if err != nil {
			return err
		}
		if err := requireAffected(result, repository.ErrStaleStatus); err != nil {
			return err
		}
		return creditBalance(ctx, tx, t.UserID, credit, sourceDepositTransaction, t.ID)
	})
	return dbError(err, "не удалось завершить транзакцию пополнения")
}
