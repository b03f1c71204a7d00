package deposit

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/cryptopay-backend/internal/domain/entity"
	"github.com/ignatzorin/cryptopay-backend/internal/domain/repository"
	"github.com/ignatzorin/cryptopay-backend/internal/logger"
	"github.com/ignatzorin/cryptopay-backend/internal/pkg/apperror"
)

// maxAddressAttempts ограничивает перегенерацию при совпадении адреса и тега.
const maxAddressAttempts = 5

// AddressGenerator выдаёт новый адрес пополнения для пользователя на платформе.
type AddressGenerator interface {
	Generate(ctx context.Context, userID uuid.UUID, platform *entity.Platform) (address string, tag *string, err error)
}

// GetOrCreateAddressUseCase возвращает активный адрес или создаёт новый.
type GetOrCreateAddressUseCase struct {
	addressRepo  repository.DepositAddressRepository
	platformRepo repository.PlatformRepository
	generator    AddressGenerator
}

func NewGetOrCreateAddressUseCase(
	addressRepo repository.DepositAddressRepository,
	platformRepo repository.PlatformRepository,
	generator AddressGenerator,
) *GetOrCreateAddressUseCase {
	return &GetOrCreateAddressUseCase{
		addressRepo:  addressRepo,
		platformRepo: platformRepo,
		generator:    generator,
	}
}

func (uc *GetOrCreateAddressUseCase) Execute(ctx context.Context, userID uuid.UUID, platformID int64) (*entity.DepositAddress, bool, error) {
	if userID == uuid.Nil {
		return nil, false, apperror.ErrUnauthorized
	}

	platform, err := findDepositPlatform(ctx, uc.platformRepo, platformID)
	if err != nil {
		return nil, false, err
	}

	existing, err := uc.addressRepo.FindActive(ctx, userID, platform.ID)
	if err == nil {
		return existing, false, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, false, err
	}

	address, err := uc.issue(ctx, userID, platform)
	if err != nil {
		return nil, false, err
	}
	if address == nil {
		// Параллельный запрос успел создать адрес первым.
		existing, err := uc.addressRepo.FindActive(ctx, userID, platform.ID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	logger.WithFields(logrus.Fields{
		"address_id":  address.ID,
		"user_id":     userID,
		"platform_id": platform.ID,
	}).Info("Deposit address issued")

	return address, true, nil
}

// issue генерирует и сохраняет адрес. Возвращает nil без ошибки, если у
// пользователя уже появился активный адрес на платформе.
func (uc *GetOrCreateAddressUseCase) issue(ctx context.Context, userID uuid.UUID, platform *entity.Platform) (*entity.DepositAddress, error) {
	for attempt := 1; attempt <= maxAddressAttempts; attempt++ {
		value, tag, err := uc.generator.Generate(ctx, userID, platform)
		if err != nil {
			var appErr *apperror.AppError
			if errors.As(err, &appErr) {
				return nil, err
			}
			return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить адрес пополнения")
		}

		address := entity.NewDepositAddress(userID, platform.ID, value, tag)
		err = uc.addressRepo.Create(ctx, address)
		switch {
		case err == nil:
			return address, nil
		case errors.Is(err, repository.ErrAddressTaken):
			logger.WithFields(logrus.Fields{
				"platform_id": platform.ID,
				"attempt":     attempt,
			}).Warn("Generated deposit address already issued, retrying")
		case apperror.IsDuplicate(err):
			return nil, nil
		default:
			return nil, err
		}
	}
	return nil, apperror.New(apperror.ErrCodeInternal, "не удалось выдать уникальный адрес пополнения")
}

type ListAddressesUseCase struct {
	addressRepo repository.DepositAddressRepository
}

func NewListAddressesUseCase(addressRepo repository.DepositAddressRepository) *ListAddressesUseCase {
	return &ListAddressesUseCase{addressRepo: addressRepo}
}

func (uc *ListAddressesUseCase) Execute(ctx context.Context, userID uuid.UUID) ([]*entity.DepositAddress, error) {
	return uc.addressRepo.ListByUser(ctx, userID)
}
