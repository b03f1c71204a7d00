package platform

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/cryptopay-backend/internal/domain/entity"
	"github.com/ignatzorin/cryptopay-backend/internal/domain/repository"
	"github.com/ignatzorin/cryptopay-backend/internal/domain/valueobject"
	"github.com/ignatzorin/cryptopay-backend/internal/logger"
	"github.com/ignatzorin/cryptopay-backend/internal/pkg/apperror"
	"github.com/ignatzorin/cryptopay-backend/internal/validation"
)

const cachePrefix = "platforms:"

// Cache — кэш списков активных платформ.
type Cache interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{}, ttl time.Duration)
	InvalidateByPrefix(prefix string)
}

func cacheKey(kind valueobject.PlatformKind) string {
	return cachePrefix + string(kind) + ":active"
}

type CreatePlatformInput struct {
	Kind                  string
	Name                  string
	Symbol                string
	Network               *string
	MinAmount             *decimal.Decimal
	MaxAmount             *decimal.Decimal
	Fee                   *decimal.Decimal
	IsActive              *bool
	IconURL               *string
	IconClass             *string
	RequiredConfirmations *int
}

type CreatePlatformUseCase struct {
	platformRepo repository.PlatformRepository
	cache        Cache
}

func NewCreatePlatformUseCase(platformRepo repository.PlatformRepository, cache Cache) *CreatePlatformUseCase {
	return &CreatePlatformUseCase{platformRepo: platformRepo, cache: cache}
}

func (uc *CreatePlatformUseCase) Execute(ctx context.Context, actor entity.Actor, input CreatePlatformInput) (*entity.Platform, error) {
	if !actor.IsAdmin() {
		return nil, apperror.ErrAdminRequired
	}

	kind, err := valueobject.NewPlatformKind(input.Kind)
	if err != nil {
		return nil, err
	}

	if err := validation.ValidatePlatform(validation.PlatformInput{
		Name:                  input.Name,
		Symbol:                input.Symbol,
		Network:               input.Network,
		MinAmount:             input.MinAmount,
		MaxAmount:             input.MaxAmount,
		Fee:                   input.Fee,
		IconURL:               input.IconURL,
		IconClass:             input.IconClass,
		RequiredConfirmations: input.RequiredConfirmations,
	}); err != nil {
		return nil, err
	}

	p := entity.NewPlatform(kind, input.Name, input.Symbol)
	if err := ensureUniqueSymbol(ctx, uc.platformRepo, p); err != nil {
		return nil, err
	}

	p.Network = input.Network
	p.MinAmount = input.MinAmount
	p.MaxAmount = input.MaxAmount
	if input.Fee != nil {
		p.Fee = *input.Fee
	}
	if input.IsActive != nil {
		p.IsActive = *input.IsActive
	}
	p.IconURL = input.IconURL
	p.IconClass = input.IconClass
	p.RequiredConfirmations = input.RequiredConfirmations

	if err := uc.platformRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	invalidate(uc.cache, kind)

	logger.WithFields(logrus.Fields{
		"platform_id": p.ID,
		"kind":        p.Kind,
		"symbol":      p.Symbol,
		"admin_id":    actor.UserID,
	}).Info("Platform created")

	return p, nil
}

// Необязательные поля платформы, которые можно сбросить через UpdatePlatformInput.Clear.
const (
	FieldNetwork               = "network"
	FieldMinAmount             = "minAmount"
	FieldMaxAmount             = "maxAmount"
	FieldIconURL               = "iconUrl"
	FieldIconClass             = "iconClass"
	FieldRequiredConfirmations = "requiredConfirmations"
)

// UpdatePlatformInput — частичное обновление: nil-поля не меняются,
// поля из Clear сбрасываются (maxAmount без значения означает отсутствие лимита).
type UpdatePlatformInput struct {
	ID                    int64
	Name                  *string
	Symbol                *string
	Network               *string
	MinAmount             *decimal.Decimal
	MaxAmount             *decimal.Decimal
	Fee                   *decimal.Decimal
	IsActive              *bool
	IconURL               *string
	IconClass             *string
	RequiredConfirmations *int
	Clear                 []string
}

type UpdatePlatformUseCase struct {
	platformRepo repository.PlatformRepository
	cache        Cache
}

func NewUpdatePlatformUseCase(platformRepo repository.PlatformRepository, cache Cache) *UpdatePlatformUseCase {
	return &UpdatePlatformUseCase{platformRepo: platformRepo, cache: cache}
}

func (uc *UpdatePlatformUseCase) Execute(ctx context.Context, actor entity.Actor, input UpdatePlatformInput) (*entity.Platform, error) {
	if !actor.IsAdmin() {
		return nil, apperror.ErrAdminRequired
	}

	p, err := uc.platformRepo.FindByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	merged := *p
	if input.Name != nil {
		merged.Name = *input.Name
	}
	if input.Symbol != nil {
		merged.Symbol = *input.Symbol
	}
	if input.Network != nil {
		merged.Network = input.Network
	}
	if input.MinAmount != nil {
		merged.MinAmount = input.MinAmount
	}
	if input.MaxAmount != nil {
		merged.MaxAmount = input.MaxAmount
	}
	if input.Fee != nil {
		merged.Fee = *input.Fee
	}
	if input.IsActive != nil {
		merged.IsActive = *input.IsActive
	}
	if input.IconURL != nil {
		merged.IconURL = input.IconURL
	}
	if input.IconClass != nil {
		merged.IconClass = input.IconClass
	}
	if input.RequiredConfirmations != nil {
		merged.RequiredConfirmations = input.RequiredConfirmations
	}
	if err := applyClear(&merged, input); err != nil {
		return nil, err
	}

	fee := merged.Fee
	if err := validation.ValidatePlatform(validation.PlatformInput{
		Name:                  merged.Name,
		Symbol:                merged.Symbol,
		Network:               merged.Network,
		MinAmount:             merged.MinAmount,
		MaxAmount:             merged.MaxAmount,
		Fee:                   &fee,
		IconURL:               merged.IconURL,
		IconClass:             merged.IconClass,
		RequiredConfirmations: merged.RequiredConfirmations,
	}); err != nil {
		return nil, err
	}

	normalized := entity.NewPlatform(merged.Kind, merged.Name, merged.Symbol)
	merged.Name = normalized.Name
	merged.Symbol = normalized.Symbol
	if err := ensureUniqueSymbol(ctx, uc.platformRepo, &merged); err != nil {
		return nil, err
	}

	merged.Touch()
	if err := uc.platformRepo.Update(ctx, &merged); err != nil {
		return nil, err
	}
	invalidate(uc.cache, merged.Kind)

	logger.WithFields(logrus.Fields{
		"platform_id": merged.ID,
		"is_active":   merged.IsActive,
		"admin_id":    actor.UserID,
	}).Info("Platform updated")

	return &merged, nil
}

func applyClear(p *entity.Platform, input UpdatePlatformInput) error {
	errs := validation.NewErrors()
	for _, field := range input.Clear {
		var set bool
		switch field {
		case FieldNetwork:
			set, p.Network = input.Network != nil, nil
		case FieldMinAmount:
			set, p.MinAmount = input.MinAmount != nil, nil
		case FieldMaxAmount:
			set, p.MaxAmount = input.MaxAmount != nil, nil
		case FieldIconURL:
			set, p.IconURL = input.IconURL != nil, nil
		case FieldIconClass:
			set, p.IconClass = input.IconClass != nil, nil
		case FieldRequiredConfirmations:
			set, p.RequiredConfirmations = input.RequiredConfirmations != nil, nil
		default:
			errs.Add("clear", "поле нельзя сбросить: "+field)
			continue
		}
		if set {
			errs.Add("clear", "поле одновременно задано и сброшено: "+field)
		}
	}
	return errs.Err()
}

type DeletePlatformUseCase struct {
	platformRepo repository.PlatformRepository
	cache        Cache
}

func NewDeletePlatformUseCase(platformRepo repository.PlatformRepository, cache Cache) *DeletePlatformUseCase {
	return &DeletePlatformUseCase{platformRepo: platformRepo, cache: cache}
}

func (uc *DeletePlatformUseCase) Execute(ctx context.Context, actor entity.Actor, id int64) error {
	if !actor.IsAdmin() {
		return apperror.ErrAdminRequired
	}

	p, err := uc.platformRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := uc.platformRepo.Delete(ctx, id); err != nil {
		return err
	}
	invalidate(uc.cache, p.Kind)

	logger.WithFields(logrus.Fields{"platform_id": id, "admin_id": actor.UserID}).Info("Platform deleted")
	return nil
}

type GetPlatformUseCase struct {
	platformRepo repository.PlatformRepository
}

func NewGetPlatformUseCase(platformRepo repository.PlatformRepository) *GetPlatformUseCase {
	return &GetPlatformUseCase{platformRepo: platformRepo}
}

func (uc *GetPlatformUseCase) Execute(ctx context.Context, id int64) (*entity.Platform, error) {
	return uc.platformRepo.FindByID(ctx, id)
}

// ListPlatformsUseCase отдаёт платформы; списки активных платформ кэшируются.
type ListPlatformsUseCase struct {
	platformRepo repository.PlatformRepository
	cache        Cache
	ttl          time.Duration
}

func NewListPlatformsUseCase(platformRepo repository.PlatformRepository, cache Cache, ttl time.Duration) *ListPlatformsUseCase {
	return &ListPlatformsUseCase{platformRepo: platformRepo, cache: cache, ttl: ttl}
}

func (uc *ListPlatformsUseCase) Execute(ctx context.Context, kind valueobject.PlatformKind, activeOnly bool) ([]*entity.Platform, error) {
	useCache := activeOnly && uc.cache != nil && uc.ttl > 0 && kind.IsValid()
	if useCache {
		if cached, ok := uc.cache.Get(cacheKey(kind)); ok {
			if platforms, ok := cached.([]*entity.Platform); ok {
				return platforms, nil
			}
		}
	}

	platforms, err := uc.platformRepo.List(ctx, repository.PlatformFilter{Kind: kind, ActiveOnly: activeOnly})
	if err != nil {
		return nil, err
	}

	if useCache {
		uc.cache.Set(cacheKey(kind), platforms, uc.ttl)
	}
	return platforms, nil
}

func ensureUniqueSymbol(ctx context.Context, repo repository.PlatformRepository, p *entity.Platform) error {
	existing, err := repo.FindBySymbol(ctx, p.Kind, p.Symbol)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing != nil && existing.ID != p.ID {
		return apperror.Duplicate("платформа с символом " + p.Symbol + " уже существует")
	}
	return nil
}

func invalidate(cache Cache, kind valueobject.PlatformKind) {
	if cache != nil {
		cache.InvalidateByPrefix(cacheKey(kind))
	}
}

// systemActorID — нулевой UUID, от имени которого выполняются служебные операции.
var systemActorID = uuid.Nil
