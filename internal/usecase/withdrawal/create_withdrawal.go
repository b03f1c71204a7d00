package withdrawal

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/cryptopay-backend/internal/domain/entity"
	"github.com/ignatzorin/cryptopay-backend/internal/domain/repository"
	"github.com/ignatzorin/cryptopay-backend/internal/logger"
	"github.com/ignatzorin/cryptopay-backend/internal/pkg/apperror"
	"github.com/ignatzorin/cryptopay-backend/internal/validation"
)

type CreateWithdrawalInput struct {
	UserID         uuid.UUID
	PlatformID     int64
	Amount         decimal.Decimal
	AccountDetails string
	Message        string
}

type CreateWithdrawalUseCase struct {
	withdrawalRepo repository.WithdrawalRepository
	platformRepo   repository.PlatformRepository
	balanceRepo    repository.BalanceRepository
}

func NewCreateWithdrawalUseCase(
	withdrawalRepo repository.WithdrawalRepository,
	platformRepo repository.PlatformRepository,
	balanceRepo repository.BalanceRepository,
) *CreateWithdrawalUseCase {
	return &CreateWithdrawalUseCase{
		withdrawalRepo: withdrawalRepo,
		platformRepo:   platformRepo,
		balanceRepo:    balanceRepo,
	}
}

func (uc *CreateWithdrawalUseCase) Execute(ctx context.Context, input CreateWithdrawalInput) (*entity.WithdrawalRequest, error) {
	if input.UserID == uuid.Nil {
		return nil, apperror.ErrUnauthorized
	}

	var platform *entity.Platform
	if input.PlatformID > 0 {
		p, err := uc.platformRepo.FindByID(ctx, input.PlatformID)
		if err != nil && !apperror.IsNotFound(err) {
			return nil, err
		}
		platform = p
	}

	var balance *decimal.Decimal
	if uc.balanceRepo != nil {
		b, err := uc.balanceRepo.GetBalance(ctx, input.UserID)
		if err != nil {
			return nil, err
		}
		balance = &b
	}

	if err := validation.ValidateWithdrawalRequest(validation.WithdrawalInput{
		Platform:       platform,
		Amount:         input.Amount,
		AccountDetails: input.AccountDetails,
		Message:        input.Message,
		Balance:        balance,
	}); err != nil {
		return nil, err
	}

	request := entity.NewWithdrawalRequest(input.UserID, platform, input.Amount, input.AccountDetails, input.Message)
	if err := uc.withdrawalRepo.Create(ctx, request); err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"withdrawal_id": request.ID,
		"user_id":       request.UserID,
		"platform_id":   request.PlatformID,
		"amount":        request.Amount.String(),
		"fee":           request.Fee.String(),
	}).Info("Withdrawal request created")

	return request, nil
}
