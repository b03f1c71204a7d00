package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/cryptopay-backend/internal/domain/entity"
	"github.com/ignatzorin/cryptopay-backend/internal/pkg/apperror"
)

const depositAddressColumns = `id, user_id, platform_id, address, tag, is_active, last_used_at, created_at`

type DepositAddressRepositoryAdapter struct {
	db *sqlx.DB
}

func NewDepositAddressRepositoryAdapter(db *sqlx.DB) *DepositAddressRepositoryAdapter {
	return &DepositAddressRepositoryAdapter{db: db}
}

func (r *DepositAddressRepositoryAdapter) Create(ctx context.Context, a *entity.DepositAddress) error {
	query := `
		INSERT INTO deposit_addresses (user_id, platform_id, address, tag, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.db.QueryRowxContext(ctx, query, a.UserID, a.PlatformID, a.Address, a.Tag, a.IsActive, a.CreatedAt).Scan(&a.ID)
	if err != nil {
		return dbError(err, "не удалось сохранить адрес пополнения")
	}
	return nil
}

func (r *DepositAddressRepositoryAdapter) FindActive(ctx context.Context, userID uuid.UUID, platformID int64) (*entity.DepositAddress, error) {
	var a entity.DepositAddress
	query := `SELECT ` + depositAddressColumns + ` FROM deposit_addresses WHERE user_id = $1 AND platform_id = $2 AND is_active`
	if err := r.db.GetContext(ctx, &a, query, userID, platformID); err != nil {
		return nil, notFound(err, apperror.ErrDepositAddressNotFound, "не удалось получить адрес пополнения")
	}
	return &a, nil
}

func (r *DepositAddressRepositoryAdapter) FindByID(ctx context.Context, id int64) (*entity.DepositAddress, error) {
	a, err := getByID[entity.DepositAddress](ctx, r.db, "deposit_addresses", id, apperror.ErrDepositAddressNotFound)
	if err != nil {
		return nil, dbError(err, "не удалось получить адрес пополнения")
	}
	return a, nil
}

func (r *DepositAddressRepositoryAdapter) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.DepositAddress, error) {
	items := []*entity.DepositAddress{}
	query := `SELECT ` + depositAddressColumns + ` FROM deposit_addresses WHERE user_id = $1 ORDER BY is_active DESC, created_at DESC`
	if err := r.db.SelectContext(ctx, &items, query, userID); err != nil {
		return nil, dbError(err, "не удалось получить адреса пополнения")
	}
	return items, nil
}

func (r *DepositAddressRepositoryAdapter) MarkUsed(ctx context.Context, a *entity.DepositAddress) error {
	result, err := r.db.ExecContext(ctx, `UPDATE deposit_addresses SET last_used_at = $2 WHERE id = $1`, a.ID, a.LastUsedAt)
	if err != nil {
		return dbError(err, "не удалось обновить адрес пополнения")
	}
	return requireAffected(result, apperror.ErrDepositAddressNotFound)
}
