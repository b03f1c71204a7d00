package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/cryptopay-backend/internal/domain/valueobject"
)

// WithdrawalRequest — заявка пользователя на вывод средств.
type WithdrawalRequest struct {
	ID             int64                     `db:"id"`
	UserID         uuid.UUID                 `db:"user_id"`
	PlatformID     int64                     `db:"platform_id"`
	Amount         decimal.Decimal           `db:"amount"`
	Fee            decimal.Decimal           `db:"fee"`
	AccountDetails string                    `db:"account_details"`
	Message        string                    `db:"message"`
	Status         valueobject.RequestStatus `db:"status"`
	ProcessedBy    *uuid.UUID                `db:"processed_by"`
	ProcessedAt    *time.Time                `db:"processed_at"`
	CreatedAt      time.Time                 `db:"created_at"`
	UpdatedAt      time.Time                 `db:"updated_at"`
}

// NewWithdrawalRequest фиксирует комиссию платформы на момент подачи заявки.
func NewWithdrawalRequest(userID uuid.UUID, platform *Platform, amount decimal.Decimal, accountDetails, message string) *WithdrawalRequest {
	now := time.Now()
	return &WithdrawalRequest{
		UserID:         userID,
		PlatformID:     platform.ID,
		Amount:         amount,
		Fee:            platform.Fee,
		AccountDetails: strings.TrimSpace(accountDetails),
		Message:        strings.TrimSpace(message),
		Status:         valueobject.RequestStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// DebitTotal — сумма, которая будет списана с баланса.
func (w *WithdrawalRequest) DebitTotal() decimal.Decimal {
	return valueobject.WithdrawalDebit(w.Amount, w.Fee)
}

// TransitionTo переводит заявку в новый статус от имени администратора.
func (w *WithdrawalRequest) TransitionTo(actor Actor, status valueobject.RequestStatus) error {
	if err := checkRequestTransition(actor, w.Status, status); err != nil {
		return err
	}
	now := time.Now()
	adminID := actor.UserID
	w.Status = status
	w.ProcessedBy = &adminID
	w.ProcessedAt = &now
	w.UpdatedAt = now
	return nil
}

func (w *WithdrawalRequest) Approve(actor Actor) error {
	return w.TransitionTo(actor, valueobject.RequestStatusApproved)
}

func (w *WithdrawalRequest) Reject(actor Actor) error {
	return w.TransitionTo(actor, valueobject.RequestStatusRejected)
}

// CanBeDeletedBy проверяет право на удаление заявки.
func (w *WithdrawalRequest) CanBeDeletedBy(actor Actor) error {
	return checkRequestDeletion(actor, w.UserID, w.Status)
}

func (w *WithdrawalRequest) IsPending() bool {
	return w.Status == valueobject.RequestStatusPending
}
