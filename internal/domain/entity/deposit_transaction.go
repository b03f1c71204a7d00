package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/cryptopay-backend/internal/domain/valueobject"
	"github.com/ignatzorin/cryptopay-backend/internal/pkg/apperror"
)

// DepositTransaction — пополнение, обнаруженное внешним сканером блокчейна.
// Количество подтверждений записывает сканер, здесь оно только сравнивается с порогом.
type DepositTransaction struct {
	ID                    int64                         `db:"id"`
	UserID                uuid.UUID                     `db:"user_id"`
	PlatformID            int64                         `db:"platform_id"`
	AddressID             *int64                        `db:"address_id"`
	Amount                decimal.Decimal               `db:"amount"`
	Fee                   decimal.Decimal               `db:"fee"`
	CreditedAmount        *decimal.Decimal              `db:"credited_amount"`
	TransactionHash       string                        `db:"transaction_hash"`
	Confirmations         int                           `db:"confirmations"`
	RequiredConfirmations int                           `db:"required_confirmations"`
	Status                valueobject.TransactionStatus `db:"status"`
	BlockchainData        types.JSONText                `db:"blockchain_data"`
	Notes                 *string                       `db:"notes"`
	DetectedAt            *time.Time                    `db:"detected_at"`
	ConfirmedAt           *time.Time                    `db:"confirmed_at"`
	CompletedAt           *time.Time                    `db:"completed_at"`
	ProcessedBy           *uuid.UUID                    `db:"processed_by"`
	CreatedAt             time.Time                     `db:"created_at"`
	UpdatedAt             time.Time                     `db:"updated_at"`
}

func NewDepositTransaction(userID uuid.UUID, platform *Platform, amount decimal.Decimal, required int) *DepositTransaction {
	now := time.Now()
	if required <= 0 {
		required = DefaultRequiredConfirmations
	}
	return &DepositTransaction{
		UserID:                userID,
		PlatformID:            platform.ID,
		Amount:                amount,
		Fee:                   decimal.Zero,
		RequiredConfirmations: required,
		Status:                valueobject.TransactionStatusPending,
		BlockchainData:        types.JSONText(`{}`),
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

// MarkAsDetected фиксирует хэш транзакции, увиденной сканером.
func (t *DepositTransaction) MarkAsDetected(hash string, data types.JSONText) error {
	if t.Status != valueobject.TransactionStatusPending {
		return apperror.InvalidOperation("обнаружение возможно только для ожидающей транзакции")
	}
	now := time.Now()
	t.TransactionHash = strings.TrimSpace(hash)
	if len(data) > 0 {
		t.BlockchainData = data
	}
	t.DetectedAt = &now
	t.UpdatedAt = now
	return nil
}

// UpdateConfirmations записывает счётчик подтверждений; уменьшать его нельзя.
func (t *DepositTransaction) UpdateConfirmations(confirmations int) error {
	if t.Status.IsTerminal() {
		return apperror.InvalidOperation("транзакция уже в финальном статусе")
	}
	if confirmations < 0 {
		return apperror.FieldError("confirmations", "количество подтверждений не может быть отрицательным")
	}
	if confirmations < t.Confirmations {
		return apperror.FieldError("confirmations", "количество подтверждений не может уменьшаться")
	}
	t.Confirmations = confirmations
	t.UpdatedAt = time.Now()
	return nil
}

// MarkAsConfirmed переводит pending -> confirmed без проверки счётчика.
func (t *DepositTransaction) MarkAsConfirmed() error {
	if err := t.transition(valueobject.TransactionStatusConfirmed); err != nil {
		return err
	}
	now := time.Now()
	t.ConfirmedAt = &now
	return nil
}

// HasEnoughConfirmations — порог подтверждений.
func (t *DepositTransaction) HasEnoughConfirmations() bool {
	return t.Confirmations >= t.RequiredConfirmations
}

// CreditAmount — сумма зачисления: выставленная вручную или исходная.
func (t *DepositTransaction) CreditAmount() decimal.Decimal {
	return valueobject.DepositCredit(t.Amount, t.CreditedAmount)
}

func (t *DepositTransaction) CanBeCompleted() bool {
	return t.Status == valueobject.TransactionStatusConfirmed &&
		t.HasEnoughConfirmations() &&
		t.CreditAmount().IsPositive()
}

// Complete завершает транзакцию и возвращает сумму, на которую нужно увеличить баланс.
// processedBy равен nil при автоматическом завершении.
func (t *DepositTransaction) Complete(processedBy *uuid.UUID) (decimal.Decimal, error) {
	if !t.CanBeCompleted() {
		return decimal.Zero, apperror.InvalidOperation("транзакция не может быть завершена")
	}
	credit := t.CreditAmount()
	now := time.Now()
	t.CreditedAmount = &credit
	t.Status = valueobject.TransactionStatusCompleted
	t.CompletedAt = &now
	t.ProcessedBy = processedBy
	t.UpdatedAt = now
	return credit, nil
}

func (t *DepositTransaction) Fail(reason string) error {
	return t.close(valueobject.TransactionStatusFailed, reason)
}

func (t *DepositTransaction) Cancel(reason string) error {
	return t.close(valueobject.TransactionStatusCancelled, reason)
}

// SetCreditedAmount корректирует сумму зачисления до завершения транзакции.
func (t *DepositTransaction) SetCreditedAmount(amount decimal.Decimal) error {
	if t.Status.IsTerminal() {
		return apperror.InvalidOperation("транзакция уже в финальном статусе")
	}
	if !amount.IsPositive() {
		return apperror.FieldError("creditedAmount", "сумма зачисления должна быть больше нуля")
	}
	if !valueobject.FitsStorage(amount) {
		return apperror.FieldError("creditedAmount", "некорректная сумма зачисления: не более 8 знаков после запятой и меньше 10^12")
	}
	t.CreditedAmount = &amount
	t.UpdatedAt = time.Now()
	return nil
}

func (t *DepositTransaction) close(status valueobject.TransactionStatus, reason string) error {
	if err := t.transition(status); err != nil {
		return err
	}
	if reason = strings.TrimSpace(reason); reason != "" {
		t.Notes = &reason
	}
	return nil
}

func (t *DepositTransaction) transition(status valueobject.TransactionStatus) error {
	if !t.Status.CanTransitionTo(status) {
		return apperror.InvalidTransition(string(t.Status), string(status))
	}
	t.Status = status
	t.UpdatedAt = time.Now()
	return nil
}
