package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/cryptopay-backend/internal/domain/entity"
	"github.com/ignatzorin/cryptopay-backend/internal/domain/valueobject"
)

var (
	// ErrStaleStatus возвращается, если статус записи изменился между чтением и обновлением.
	ErrStaleStatus = errors.New("record status changed concurrently")
	// ErrInsufficientFunds возвращается при списании, которое не покрывает баланс.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrAddressTaken возвращается, если адрес с тем же тегом уже выдан на платформе.
	ErrAddressTaken = errors.New("deposit address already issued")
)

// RequestFilter — фильтр списков заявок и транзакций.
type RequestFilter struct {
	UserID     *uuid.UUID
	PlatformID *int64
	Status     string
	Limit      int
	Offset     int
}

type WithdrawalRepository interface {
	Create(ctx context.Context, request *entity.WithdrawalRequest) error
	FindByID(ctx context.Context, id int64) (*entity.WithdrawalRequest, error)
	List(ctx context.Context, filter RequestFilter) ([]*entity.WithdrawalRequest, int, error)
	// UpdateStatus сохраняет переход из статуса from. Если debit не nil,
	// сумма списывается с баланса владельца в той же транзакции.
	UpdateStatus(ctx context.Context, request *entity.WithdrawalRequest, from valueobject.RequestStatus, debit *decimal.Decimal) error
	// Delete удаляет заявку, только если её статус в базе всё ещё status.
	Delete(ctx context.Context, id int64, status valueobject.RequestStatus) error
}

type DepositRecordRepository interface {
	Create(ctx context.Context, record *entity.DepositRecord) error
	FindByID(ctx context.Context, id int64) (*entity.DepositRecord, error)
	List(ctx context.Context, filter RequestFilter) ([]*entity.DepositRecord, int, error)
	// UpdateStatus сохраняет переход из статуса from. Если credit не nil,
	// сумма зачисляется на баланс владельца в той же транзакции.
	UpdateStatus(ctx context.Context, record *entity.DepositRecord, from valueobject.RequestStatus, credit *decimal.Decimal) error
	Delete(ctx context.Context, id int64, status valueobject.RequestStatus) error
}

type DepositTransactionRepository interface {
	Create(ctx context.Context, tx *entity.DepositTransaction) error
	FindByID(ctx context.Context, id int64) (*entity.DepositTransaction, error)
	FindByHash(ctx context.Context, platformID int64, hash string) (*entity.DepositTransaction, error)
	List(ctx context.Context, filter RequestFilter) ([]*entity.DepositTransaction, int, error)
	// Update сохраняет транзакцию, если её статус в базе всё ещё равен from.
	Update(ctx context.Context, tx *entity.DepositTransaction, from valueobject.TransactionStatus) error
	// Complete атомарно переводит confirmed -> completed и зачисляет credit на баланс.
	// seen — сумма зачисления, прочитанная до завершения; если она изменилась, возвращается ErrStaleStatus.
	Complete(ctx context.Context, tx *entity.DepositTransaction, credit decimal.Decimal, seen *decimal.Decimal) error
}

type DepositAddressRepository interface {
	Create(ctx context.Context, address *entity.DepositAddress) error
	FindActive(ctx context.Context, userID uuid.UUID, platformID int64) (*entity.DepositAddress, error)
	FindByID(ctx context.Context, id int64) (*entity.DepositAddress, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.DepositAddress, error)
	MarkUsed(ctx context.Context, address *entity.DepositAddress) error
}

// BalanceRepository — учёт балансов пользователей.
type BalanceRepository interface {
	GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
}
