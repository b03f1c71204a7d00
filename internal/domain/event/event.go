package event

import (
	"context"

	"github.com/google/uuid"
)

// Имена событий, отправляемых владельцу заявки.
const (
	WithdrawalStatusChanged         = "withdrawal.status_changed"
	DepositRecordStatusChanged      = "deposit_record.status_changed"
	DepositTransactionStatusChanged = "deposit_transaction.status_changed"
	BalanceChanged                  = "balance.changed"
)

// Notifier доставляет событие пользователю. Ошибка доставки не должна откатывать операцию.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, name string, data any)
}

// Nop ничего не отправляет.
type Nop struct{}

func (Nop) Notify(context.Context, uuid.UUID, string, any) {}
