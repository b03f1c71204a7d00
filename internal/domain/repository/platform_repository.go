package repository

import (
	"context"

	"github.com/ignatzorin/cryptopay-backend/internal/domain/entity"
	"github.com/ignatzorin/cryptopay-backend/internal/domain/valueobject"
)

type PlatformRepository interface {
	Create(ctx context.Context, platform *entity.Platform) error
	Update(ctx context.Context, platform *entity.Platform) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*entity.Platform, error)
	FindBySymbol(ctx context.Context, kind valueobject.PlatformKind, symbol string) (*entity.Platform, error)
	List(ctx context.Context, filter PlatformFilter) ([]*entity.Platform, error)
}

type PlatformFilter struct {
	Kind       valueobject.PlatformKind
	ActiveOnly bool
}
