package balance

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/cryptopay-backend/internal/domain/repository"
	"github.com/ignatzorin/cryptopay-backend/internal/pkg/apperror"
)

type GetBalanceUseCase struct {
	balanceRepo repository.BalanceRepository
}

func NewGetBalanceUseCase(balanceRepo repository.BalanceRepository) *GetBalanceUseCase {
	return &GetBalanceUseCase{balanceRepo: balanceRepo}
}

func (uc *GetBalanceUseCase) Execute(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	if userID == uuid.Nil {
		return decimal.Zero, apperror.ErrUnauthorized
	}
	return uc.balanceRepo.GetBalance(ctx, userID)
}
