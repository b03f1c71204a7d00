package withdrawal

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/cryptopay-backend/internal/domain/entity"
	"github.com/ignatzorin/cryptopay-backend/internal/domain/event"
	"github.com/ignatzorin/cryptopay-backend/internal/domain/repository"
	"github.com/ignatzorin/cryptopay-backend/internal/domain/valueobject"
	"github.com/ignatzorin/cryptopay-backend/internal/logger"
	"github.com/ignatzorin/cryptopay-backend/internal/pkg/apperror"
)

// UpdateWithdrawalStatusUseCase — решение администратора по заявке.
// При одобрении сумма с комиссией списывается в той же транзакции, что и смена статуса.
type UpdateWithdrawalStatusUseCase struct {
	withdrawalRepo repository.WithdrawalRepository
	notifier       event.Notifier
}

func NewUpdateWithdrawalStatusUseCase(withdrawalRepo repository.WithdrawalRepository, notifier event.Notifier) *UpdateWithdrawalStatusUseCase {
	if notifier == nil {
		notifier = event.Nop{}
	}
	return &UpdateWithdrawalStatusUseCase{withdrawalRepo: withdrawalRepo, notifier: notifier}
}

func (uc *UpdateWithdrawalStatusUseCase) Execute(ctx context.Context, actor entity.Actor, id int64, status string) (*entity.WithdrawalRequest, error) {
	if !actor.IsAdmin() {
		return nil, apperror.ErrAdminRequired
	}

	target, err := valueobject.NewRequestStatus(status)
	if err != nil {
		return nil, err
	}

	request, err := uc.withdrawalRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := request.Status
	if err := request.TransitionTo(actor, target); err != nil {
		return nil, err
	}

	var debit *decimal.Decimal
	if target == valueobject.RequestStatusApproved {
		total := request.DebitTotal()
		debit = &total
	}

	if err := uc.withdrawalRepo.UpdateStatus(ctx, request, from, debit); err != nil {
		switch {
		case errors.Is(err, repository.ErrStaleStatus):
			return nil, apperror.InvalidTransition(string(from), string(target))
		case errors.Is(err, repository.ErrInsufficientFunds):
			return nil, apperror.InvalidOperation("недостаточно средств на балансе пользователя для списания " + debit.String())
		}
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"withdrawal_id": request.ID,
		"user_id":       request.UserID,
		"from":          from,
		"to":            target,
		"admin_id":      actor.UserID,
	}).Info("Withdrawal status changed")

	uc.notifier.Notify(ctx, request.UserID, event.WithdrawalStatusChanged, map[string]any{
		"id":     request.ID,
		"status": request.Status,
	})
	if debit != nil {
		uc.notifier.Notify(ctx, request.UserID, event.BalanceChanged, map[string]any{
			"delta": debit.Neg().String(),
		})
	}

	return request, nil
}

// DeleteWithdrawalUseCase — удаление администратором или отмена владельцем.
// Баланс не меняется: до одобрения ничего не списывается.
type DeleteWithdrawalUseCase struct {
	withdrawalRepo repository.WithdrawalRepository
}

func NewDeleteWithdrawalUseCase(withdrawalRepo repository.WithdrawalRepository) *DeleteWithdrawalUseCase {
	return &DeleteWithdrawalUseCase{withdrawalRepo: withdrawalRepo}
}

func (uc *DeleteWithdrawalUseCase) Execute(ctx context.Context, actor entity.Actor, id int64) error {
	request, err := uc.withdrawalRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := request.CanBeDeletedBy(actor); err != nil {
		return err
	}

	if err := uc.withdrawalRepo.Delete(ctx, id, request.Status); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return apperror.InvalidOperation("статус заявки изменился, удаление невозможно")
		}
		return err
	}

	logger.WithFields(logrus.Fields{
		"withdrawal_id": id,
		"actor_id":      actor.UserID,
		"status":        request.Status,
	}).Info("Withdrawal request deleted")
	return nil
}

type GetWithdrawalUseCase struct {
	withdrawalRepo repository.WithdrawalRepository
}

func NewGetWithdrawalUseCase(withdrawalRepo repository.WithdrawalRepository) *GetWithdrawalUseCase {
	return &GetWithdrawalUseCase{withdrawalRepo: withdrawalRepo}
}

func (uc *GetWithdrawalUseCase) Execute(ctx context.Context, actor entity.Actor, id int64) (*entity.WithdrawalRequest, error) {
	request, err := uc.withdrawalRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !actor.Owns(request.UserID) {
		return nil, apperror.ErrWithdrawalNotFound
	}
	return request, nil
}

// ListWithdrawalsUseCase — пользователь видит только свои заявки, администратор все.
type ListWithdrawalsUseCase struct {
	withdrawalRepo repository.WithdrawalRepository
}

func NewListWithdrawalsUseCase(withdrawalRepo repository.WithdrawalRepository) *ListWithdrawalsUseCase {
	return &ListWithdrawalsUseCase{withdrawalRepo: withdrawalRepo}
}

func (uc *ListWithdrawalsUseCase) Execute(ctx context.Context, actor entity.Actor, filter repository.RequestFilter) ([]*entity.WithdrawalRequest, int, error) {
	if !actor.IsAdmin() {
		userID := actor.UserID
		filter.UserID = &userID
	}
	if filter.Status != "" {
		if _, err := valueobject.NewRequestStatus(filter.Status); err != nil {
			return nil, 0, err
		}
	}
	return uc.withdrawalRepo.List(ctx, filter)
}
