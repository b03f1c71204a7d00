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

const depositRecordColumns = `id, user_id, platform_id, platform_account, real_name, amount, deposit_time,
	screenshot_url, user_message, status, admin_notes, credited_amount, processed_by, processed_at,
	created_at, updated_at`

type DepositRecordRepositoryAdapter struct {
	db *sqlx.DB
}

func NewDepositRecordRepositoryAdapter(db *sqlx.DB) *DepositRecordRepositoryAdapter {
	return &DepositRecordRepositoryAdapter{db: db}
}

func (r *DepositRecordRepositoryAdapter) Create(ctx context.Context, rec *entity.DepositRecord) error {
	query := `
		INSERT INTO deposit_records (user_id, platform_id, platform_account, real_name, amount, deposit_time,
		                             screenshot_url, user_message, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	err := r.db.QueryRowxContext(ctx, query,
		rec.UserID,
		rec.PlatformID,
		rec.PlatformAccount,
		rec.RealName,
		rec.Amount,
		rec.DepositTime,
		rec.ScreenshotURL,
		rec.UserMessage,
		string(rec.Status),
		rec.CreatedAt,
		rec.UpdatedAt,
	).Scan(&rec.ID)
	if err != nil {
		return dbError(err, "не удалось создать заявку на пополнение")
	}
	return nil
}

func (r *DepositRecordRepositoryAdapter) FindByID(ctx context.Context, id int64) (*entity.DepositRecord, error) {
	var rec entity.DepositRecord
	err := r.db.GetContext(ctx, &rec, `SELECT `+depositRecordColumns+` FROM deposit_records WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err, apperror.ErrDepositRecordNotFound, "не удалось получить заявку на пополнение")
	}
	return &rec, nil
}

func (r *DepositRecordRepositoryAdapter) List(ctx context.Context, filter repository.RequestFilter) ([]*entity.DepositRecord, int, error) {
	where, args := requestWhere(filter)

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM deposit_records`+where, args...); err != nil {
		return nil, 0, dbError(err, "не удалось посчитать заявки на пополнение")
	}

	page, args := pageClause(filter, args)
	items := []*entity.DepositRecord{}
	query := `SELECT ` + depositRecordColumns + ` FROM deposit_records` + where + ` ORDER BY created_at DESC, id DESC` + page
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, dbError(err, "не удалось получить заявки на пополнение")
	}
	return items, total, nil
}

// UpdateStatus меняет статус только если в базе всё ещё from; зачисление идёт в той же транзакции.
func (r *DepositRecordRepositoryAdapter) UpdateStatus(ctx context.Context, rec *entity.DepositRecord, from valueobject.RequestStatus, credit *decimal.Decimal) error {
	err := withTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE deposit_records
			SET status = $2, admin_notes = $3, credited_amount = $4, processed_by = $5, processed_at = $6, updated_at = $7
			WHERE id = $1 AND status = $8
		`, rec.ID, string(rec.Status), rec.AdminNotes, rec.CreditedAmount, rec.ProcessedBy, rec.ProcessedAt, rec.UpdatedAt, string(from))
		if err != nil {
			return err
		}
		if err := requireAffected(result, repository.ErrStaleStatus); err != nil {
			return err
		}

		if credit != nil {
			return creditBalance(ctx, tx, rec.UserID, *credit, sourceDepositRecord, rec.ID)
		}
		return nil
	})
	return dbError(err, "не удалось обновить заявку на пополнение")
}

func (r *DepositRecordRepositoryAdapter) Delete(ctx context.Context, id int64, status valueobject.RequestStatus) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM deposit_records WHERE id = $1 AND status = $2`, id, string(status))
	if err != nil {
		return dbError(err, "не удалось удалить заявку на пополнение")
	}
	return requireAffected(result, repository.ErrStaleStatus)
}
