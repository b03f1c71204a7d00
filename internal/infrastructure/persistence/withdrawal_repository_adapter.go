package persistence

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/cryptopay-backend/internal/domain/entity"
	"github.com/ignatzorin/cryptopay-backend/internal/domain/repository"
	"github.com/ignatzorin/cryptopay-backend/internal/domain/valueobject"
	"github.com/ignatzorin/cryptopay-backend/internal/pkg/apperror"
)

const withdrawalColumns = `id, user_id, platform_id, amount, fee, account_details, message, status,
	processed_by, processed_at, created_at, updated_at`

type WithdrawalRepositoryAdapter struct {
	db *sqlx.DB
}

func NewWithdrawalRepositoryAdapter(db *sqlx.DB) *WithdrawalRepositoryAdapter {
	return &WithdrawalRepositoryAdapter{db: db}
}

func (r *WithdrawalRepositoryAdapter) Create(ctx context.Context, w *entity.WithdrawalRequest) error {
	query := `
		INSERT INTO withdrawal_requests (user_id, platform_id, amount, fee, account_details, message, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err := r.db.QueryRowxContext(ctx, query,
		w.UserID,
		w.PlatformID,
		w.Amount,
		w.Fee,
		w.AccountDetails,
		w.Message,
		string(w.Status),
		w.CreatedAt,
		w.UpdatedAt,
	).Scan(&w.ID)
	if err != nil {
		return dbError(err, "не удалось создать заявку на вывод")
	}
	return nil
}

func (r *WithdrawalRepositoryAdapter) FindByID(ctx context.Context, id int64) (*entity.WithdrawalRequest, error) {
	var w entity.WithdrawalRequest
	err := r.db.GetContext(ctx, &w, `SELECT `+withdrawalColumns+` FROM withdrawal_requests WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err, apperror.ErrWithdrawalNotFound, "не удалось получить заявку на вывод")
	}
	return &w, nil
}

func (r *WithdrawalRepositoryAdapter) List(ctx context.Context, filter repository.RequestFilter) ([]*entity.WithdrawalRequest, int, error) {
	where, args := requestWhere(filter)

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM withdrawal_requests`+where, args...); err != nil {
		return nil, 0, dbError(err, "не удалось посчитать заявки на вывод")
	}

	page, args := pageClause(filter, args)
	items := []*entity.WithdrawalRequest{}
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests` + where + ` ORDER BY created_at DESC, id DESC` + page
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, dbError(err, "не удалось получить заявки на вывод")
	}
	return items, total, nil
}

// UpdateStatus меняет статус только если в базе всё ещё from; списание идёт в той же транзакции.
func (r *WithdrawalRepositoryAdapter) UpdateStatus(ctx context.Context, w *entity.WithdrawalRequest, from valueobject.RequestStatus, debit *decimal.Decimal) error {
	err := withTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE withdrawal_requests
			SET status = $2, processed_by = $3, processed_at = $4, updated_at = $5
			WHERE id = $1 AND status = $6
		`, w.ID, string(w.Status), w.ProcessedBy, w.ProcessedAt, w.UpdatedAt, string(from))
		if err != nil {
			return err
		}
		if err := requireAffected(result, repository.ErrStaleStatus); err != nil {
			return err
		}

		if debit != nil {
			return debitBalance(ctx, tx, w.UserID, *debit, sourceWithdrawal, w.ID)
		}
		return nil
	})
	return dbError(err, "не удалось обновить заявку на вывод")
}

func (r *WithdrawalRepositoryAdapter) Delete(ctx context.Context, id int64, status valueobject.RequestStatus) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM withdrawal_requests WHERE id = $1 AND status = $2`, id, string(status))
	if err != nil {
		return dbError(err, "не удалось удалить заявку на вывод")
	}
	return requireAffected(result, repository.ErrStaleStatus)
}
