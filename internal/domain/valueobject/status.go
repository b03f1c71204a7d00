package valueobject

import "github.com/ignatzorin/cryptopay-backend/internal/pkg/apperror"

// RequestStatus — статус заявки на вывод или ручного пополнения.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestStatusPending, RequestStatusApproved, RequestStatusRejected:
		return true
	}
	return false
}

func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusApproved || s == RequestStatusRejected
}

func (s RequestStatus) CanTransitionTo(newStatus RequestStatus) bool {
	return s == RequestStatusPending && newStatus.IsTerminal()
}

func NewRequestStatus(status string) (RequestStatus, error) {
	s := RequestStatus(status)
	if !s.IsValid() {
		return "", apperror.FieldError("status", "некорректный статус заявки")
	}
	return s, nil
}

// TransactionStatus — статус транзакции пополнения из блокчейна.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusConfirmed TransactionStatus = "confirmed"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusConfirmed, TransactionStatusCompleted,
		TransactionStatusFailed, TransactionStatusCancelled:
		return true
	}
	return false
}

func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusCancelled:
		return true
	}
	return false
}

func (s TransactionStatus) CanTransitionTo(newStatus TransactionStatus) bool {
	transitions := map[TransactionStatus][]TransactionStatus{
		TransactionStatusPending:   {TransactionStatusConfirmed, TransactionStatusFailed, TransactionStatusCancelled},
		TransactionStatusConfirmed: {TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusCancelled},
		TransactionStatusCompleted: {},
		TransactionStatusFailed:    {},
		TransactionStatusCancelled: {},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == newStatus {
			return true
		}
	}
	return false
}

func NewTransactionStatus(status string) (TransactionStatus, error) {
	s := TransactionStatus(status)
	if !s.IsValid() {
		return "", apperror.FieldError("status", "некорректный статус транзакции")
	}
	return s, nil
}

// PlatformKind различает платформы вывода и пополнения.
type PlatformKind string

const (
	PlatformKindWithdrawal PlatformKind = "withdrawal"
	PlatformKindDeposit    PlatformKind = "deposit"
)

func (k PlatformKind) IsValid() bool {
	return k == PlatformKindWithdrawal || k == PlatformKindDeposit
}

func NewPlatformKind(kind string) (PlatformKind, error) {
	k := PlatformKind(kind)
	if !k.IsValid() {
		return "", apperror.FieldError("kind", "тип платформы должен быть withdrawal или deposit")
	}
	return k, nil
}
