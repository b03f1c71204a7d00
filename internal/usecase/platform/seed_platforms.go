package platform

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/cryptopay-backend/internal/domain/entity"
	"github.com/ignatzorin/cryptopay-backend/internal/domain/repository"
	"github.com/ignatzorin/cryptopay-backend/internal/logger"
	"github.com/ignatzorin/cryptopay-backend/internal/pkg/apperror"
)

// SeedPlatformsUseCase создаёт платформы из файла начальной конфигурации.
// Уже существующие платформы (по виду и символу) не трогаются.
type SeedPlatformsUseCase struct {
	platformRepo repository.PlatformRepository
	create       *CreatePlatformUseCase
}

func NewSeedPlatformsUseCase(platformRepo repository.PlatformRepository, cache Cache) *SeedPlatformsUseCase {
	return &SeedPlatformsUseCase{
		platformRepo: platformRepo,
		create:       NewCreatePlatformUseCase(platformRepo, cache),
	}
}

func (uc *SeedPlatformsUseCase) Execute(ctx context.Context, seeds []CreatePlatformInput) (int, error) {
	system := entity.NewActor(systemActorID, entity.RoleAdmin)

	created := 0
	for _, seed := range seeds {
		_, err := uc.create.Execute(ctx, system, seed)
		switch {
		case err == nil:
			created++
		case apperror.IsDuplicate(err):
			continue
		default:
			logger.WithFields(logrus.Fields{
				"kind":   seed.Kind,
				"symbol": seed.Symbol,
				"error":  err,
			}).Error("Failed to seed platform")
			return created, err
		}
	}

	logger.WithFields(logrus.Fields{"created": created, "total": len(seeds)}).Info("Platforms seeded")
	return created, nil
}
