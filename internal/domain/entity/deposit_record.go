package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/cryptopay-backend/internal/domain/valueobject"
	"github.com/ignatzorin/cryptopay-backend/internal/pkg/apperror"
)

// DepositRecord — ручная заявка на пополнение, подтверждаемая пользователем (скриншот, аккаунт).
type DepositRecord struct {
	ID              int64                     `db:"id"`
	UserID          uuid.UUID                 `db:"user_id"`
	PlatformID      int64                     `db:"platform_id"`
	PlatformAccount string                    `db:"platform_account"`
	RealName        *string                   `db:"real_name"`
	Amount          decimal.Decimal           `db:"amount"`
	DepositTime     time.Time                 `db:"deposit_time"`
	ScreenshotURL   *string                   `db:"screenshot_url"`
	UserMessage     *string                   `db:"user_message"`
	Status          valueobject.RequestStatus `db:"status"`
	AdminNotes      *string                   `db:"admin_notes"`
	CreditedAmount  *decimal.Decimal          `db:"credited_amount"`
	ProcessedBy     *uuid.UUID                `db:"processed_by"`
	ProcessedAt     *time.Time                `db:"processed_at"`
	CreatedAt       time.Time                 `db:"created_at"`
	UpdatedAt       time.Time                 `db:"updated_at"`
}

func NewDepositRecord(userID uuid.UUID, platformID int64, platformAccount string, amount decimal.Decimal, depositTime time.Time) *DepositRecord {
	now := time.Now()
	return &DepositRecord{
		UserID:          userID,
		PlatformID:      platformID,
		PlatformAccount: strings.TrimSpace(platformAccount),
		Amount:          amount,
		DepositTime:     depositTime,
		Status:          valueobject.RequestStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// CreditAmount — сумма, которая будет зачислена при одобрении.
func (r *DepositRecord) CreditAmount() decimal.Decimal {
	return valueobject.DepositCredit(r.Amount, r.CreditedAmount)
}

// Approve одобряет заявку; creditedAmount позволяет скорректировать заявленную сумму.
func (r *DepositRecord) Approve(actor Actor, creditedAmount *decimal.Decimal, notes *string) error {
	if err := checkRequestTransition(actor, r.Status, valueobject.RequestStatusApproved); err != nil {
		return err
	}
	if creditedAmount != nil {
		if !creditedAmount.IsPositive() {
			return apperror.FieldError("creditedAmount", "сумма зачисления должна быть больше нуля")
		}
		if !valueobject.FitsStorage(*creditedAmount) {
			return apperror.FieldError("creditedAmount", "некорректная сумма зачисления: не более 8 знаков после запятой и меньше 10^12")
		}
		credited := *creditedAmount
		r.CreditedAmount = &credited
	} else {
		amount := r.Amount
		r.CreditedAmount = &amount
	}
	r.markProcessed(actor, valueobject.RequestStatusApproved, notes)
	return nil
}

func (r *DepositRecord) Reject(actor Actor, notes *string) error {
	if err := checkRequestTransition(actor, r.Status, valueobject.RequestStatusRejected); err != nil {
		return err
	}
	r.markProcessed(actor, valueobject.RequestStatusRejected, notes)
	return nil
}

func (r *DepositRecord) markProcessed(actor Actor, status valueobject.RequestStatus, notes *string) {
	now := time.Now()
	adminID := actor.UserID
	r.Status = status
	r.ProcessedBy = &adminID
	r.ProcessedAt = &now
	r.UpdatedAt = now
	if notes != nil {
		trimmed := strings.TrimSpace(*notes)
		r.AdminNotes = &trimmed
	}
}

func (r *DepositRecord) CanBeDeletedBy(actor Actor) error {
	return checkRequestDeletion(actor, r.UserID, r.Status)
}

func (r *DepositRecord) IsPending() bool {
	return r.Status == valueobject.RequestStatusPending
}
