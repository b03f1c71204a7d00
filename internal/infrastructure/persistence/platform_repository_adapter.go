package persistence

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/cryptopay-backend/internal/domain/entity"
	"github.com/ignatzorin/cryptopay-backend/internal/domain/repository"
	"github.com/ignatzorin/cryptopay-backend/internal/domain/valueobject"
	"github.com/ignatzorin/cryptopay-backend/internal/pkg/apperror"
)

const platformColumns = `id, kind, name, symbol, network, min_amount, max_amount, fee, is_active,
	icon_url, icon_class, required_confirmations, created_at, updated_at`

type PlatformRepositoryAdapter struct {
	db *sqlx.DB
}

func NewPlatformRepositoryAdapter(db *sqlx.DB) *PlatformRepositoryAdapter {
	return &PlatformRepositoryAdapter{db: db}
}

func (r *PlatformRepositoryAdapter) Create(ctx context.Context, p *entity.Platform) error {
	query := `
		INSERT INTO platforms (kind, name, symbol, network, min_amount, max_amount, fee, is_active,
		                       icon_url, icon_class, required_confirmations, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`
	err := r.db.QueryRowxContext(ctx, query,
		string(p.Kind),
		p.Name,
		p.Symbol,
		p.Network,
		p.MinAmount,
		p.MaxAmount,
		p.Fee,
		p.IsActive,
		p.IconURL,
		p.IconClass,
		p.RequiredConfirmations,
		p.CreatedAt,
		p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		return dbError(err, "не удалось создать платформу")
	}
	return nil
}

func (r *PlatformRepositoryAdapter) Update(ctx context.Context, p *entity.Platform) error {
	query := `
		UPDATE platforms
		SET name = $2, symbol = $3, network = $4, min_amount = $5, max_amount = $6, fee = $7,
		    is_active = $8, icon_url = $9, icon_class = $10, required_confirmations = $11, updated_at = $12
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.Name,
		p.Symbol,
		p.Network,
		p.MinAmount,
		p.MaxAmount,
		p.Fee,
		p.IsActive,
		p.IconURL,
		p.IconClass,
		p.RequiredConfirmations,
		p.UpdatedAt,
	)
	if err != nil {
		return dbError(err, "не удалось обновить платформу")
	}
	return requireAffected(result, apperror.ErrPlatformNotFound)
}

func (r *PlatformRepositoryAdapter) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM platforms WHERE id = $1`, id)
	if err != nil {
		return dbError(err, "не удалось удалить платформу")
	}
	return requireAffected(result, apperror.ErrPlatformNotFound)
}

func (r *PlatformRepositoryAdapter) FindByID(ctx context.Context, id int64) (*entity.Platform, error) {
	var p entity.Platform
	err := r.db.GetContext(ctx, &p, `SELECT `+platformColumns+` FROM platforms WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err, apperror.ErrPlatformNotFound, "не удалось получить платформу")
	}
	return &p, nil
}

func (r *PlatformRepositoryAdapter) FindBySymbol(ctx context.Context, kind valueobject.PlatformKind, symbol string) (*entity.Platform, error) {
	var p entity.Platform
	query := `SELECT ` + platformColumns + ` FROM platforms WHERE kind = $1 AND symbol = $2`
	err := r.db.GetContext(ctx, &p, query, string(kind), strings.ToUpper(strings.TrimSpace(symbol)))
	if err != nil {
		return nil, notFound(err, apperror.ErrPlatformNotFound, "не удалось получить платформу")
	}
	return &p, nil
}

func (r *PlatformRepositoryAdapter) List(ctx context.Context, filter repository.PlatformFilter) ([]*entity.Platform, error) {
	query := `SELECT ` + platformColumns + ` FROM platforms WHERE ($1 = '' OR kind = $1) AND (NOT $2 OR is_active) ORDER BY kind, name`

	platforms := []*entity.Platform{}
	if err := r.db.SelectContext(ctx, &platforms, query, string(filter.Kind), filter.ActiveOnly); err != nil {
		return nil, dbError(err, "не удалось получить список платформ")
	}
	return platforms, nil
}
