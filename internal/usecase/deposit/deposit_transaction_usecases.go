package deposit

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/cryptopay-backend/internal/domain/entity"
	"github.com/ignatzorin/cryptopay-backend/internal/domain/event"
	"github.com/ignatzorin/cryptopay-backend/internal/domain/repository"
	"github.com/ignatzorin/cryptopay-backend/internal/domain/valueobject"
	"github.com/ignatzorin/cryptopay-backend/internal/logger"
	"github.com/ignatzorin/cryptopay-backend/internal/pkg/apperror"
	"github.com/ignatzorin/cryptopay-backend/internal/validation"
)

// ConfirmationPolicy — порог подтверждений и режим автозавершения.
type ConfirmationPolicy struct {
	Default   int
	ByNetwork map[string]int
	// AutoComplete включает автоматическое подтверждение и завершение
	// транзакции, как только сканер сообщит достаточное число подтверждений.
	AutoComplete bool
}

type DetectDepositInput struct {
	UserID          *uuid.UUID
	AddressID       *int64
	PlatformID      int64
	TransactionHash string
	Amount          decimal.Decimal
	Fee             *decimal.Decimal
	Confirmations   int
	BlockchainData  types.JSONText
}

// DetectDepositUseCase регистрирует транзакцию, найденную сканером блокчейна.
type DetectDepositUseCase struct {
	txRepo       repository.DepositTransactionRepository
	platformRepo repository.PlatformRepository
	addressRepo  repository.DepositAddressRepository
	policy       ConfirmationPolicy
	notifier     event.Notifier
}

func NewDetectDepositUseCase(
	txRepo repository.DepositTransactionRepository,
	platformRepo repository.PlatformRepository,
	addressRepo repository.DepositAddressRepository,
	policy ConfirmationPolicy,
	notifier event.Notifier,
) *DetectDepositUseCase {
	if notifier == nil {
		notifier = event.Nop{}
	}
	return &DetectDepositUseCase{
		txRepo:       txRepo,
		platformRepo: platformRepo,
		addressRepo:  addressRepo,
		policy:       policy,
		notifier:     notifier,
	}
}

func (uc *DetectDepositUseCase) Execute(ctx context.Context, actor entity.Actor, input DetectDepositInput) (*entity.DepositTransaction, error) {
	if !actor.IsAdmin() {
		return nil, apperror.ErrAdminRequired
	}

	if err := validation.ValidateDepositTransaction(validation.DepositTransactionInput{
		TransactionHash: input.TransactionHash,
		Amount:          input.Amount,
		Confirmations:   input.Confirmations,
	}); err != nil {
		return nil, err
	}
	if input.Fee != nil && input.Fee.IsNegative() {
		return nil, apperror.FieldError("fee", "комиссия не может быть отрицательной")
	}

	var address *entity.DepositAddress
	userID := uuid.Nil
	platformID := input.PlatformID
	if input.AddressID != nil {
		a, err := uc.addressRepo.FindByID(ctx, *input.AddressID)
		if err != nil {
			return nil, err
		}
		address = a
		userID = a.UserID
		platformID = a.PlatformID
	} else if input.UserID != nil {
		userID = *input.UserID
	}
	if userID == uuid.Nil {
		return nil, apperror.FieldError("userId", "нужно указать пользователя или адрес пополнения")
	}

	platform, err := uc.platformRepo.FindByID(ctx, platformID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.FieldError("platformId", "платформа не найдена")
		}
		return nil, err
	}
	if platform.Kind != valueobject.PlatformKindDeposit {
		return nil, apperror.FieldError("platformId", "платформа не предназначена для пополнения")
	}

	existing, err := uc.txRepo.FindByHash(ctx, platform.ID, input.TransactionHash)
	if err != nil && !apperror.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.Duplicate("транзакция уже зарегистрирована")
	}

	required := platform.ConfirmationsRequired(uc.policy.ByNetwork, uc.policy.Default)
	tx := entity.NewDepositTransaction(userID, platform, input.Amount, required)
	if address != nil {
		tx.AddressID = &address.ID
	}
	if input.Fee != nil {
		tx.Fee = *input.Fee
	}
	if err := tx.MarkAsDetected(input.TransactionHash, input.BlockchainData); err != nil {
		return nil, err
	}
	if err := tx.UpdateConfirmations(input.Confirmations); err != nil {
		return nil, err
	}

	if err := uc.txRepo.Create(ctx, tx); err != nil {
		return nil, err
	}

	if address != nil {
		address.MarkUsed()
		if err := uc.addressRepo.MarkUsed(ctx, address); err != nil {
			logger.WithFields(logrus.Fields{"address_id": address.ID, "error": err}).Warn("Failed to touch deposit address")
		}
	}

	logger.WithFields(logrus.Fields{
		"deposit_tx_id":  tx.ID,
		"user_id":        tx.UserID,
		"platform_id":    tx.PlatformID,
		"hash":           tx.TransactionHash,
		"amount":         tx.Amount.String(),
		"confirmations":  tx.Confirmations,
		"required_confs": tx.RequiredConfirmations,
	}).Info("Deposit transaction detected")

	uc.notifier.Notify(ctx, tx.UserID, event.DepositTransactionStatusChanged, txPayload(tx))
	return tx, nil
}

// UpdateConfirmationsUseCase записывает новое число подтверждений от сканера.
type UpdateConfirmationsUseCase struct {
	txRepo    repository.DepositTransactionRepository
	completer *completer
	policy    ConfirmationPolicy
}

func NewUpdateConfirmationsUseCase(txRepo repository.DepositTransactionRepository, policy ConfirmationPolicy, notifier event.Notifier) *UpdateConfirmationsUseCase {
	return &UpdateConfirmationsUseCase{
		txRepo:    txRepo,
		completer: newCompleter(txRepo, notifier),
		policy:    policy,
	}
}

func (uc *UpdateConfirmationsUseCase) Execute(ctx context.Context, actor entity.Actor, id int64, confirmations int) (*entity.DepositTransaction, error) {
	if !actor.IsAdmin() {
		return nil, apperror.ErrAdminRequired
	}

	tx, err := uc.txRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := tx.Status
	if err := tx.UpdateConfirmations(confirmations); err != nil {
		return nil, err
	}
	if uc.policy.AutoComplete && tx.Status == valueobject.TransactionStatusPending && tx.HasEnoughConfirmations() {
		if err := tx.MarkAsConfirmed(); err != nil {
			return nil, err
		}
	}
	if err := saveTransaction(ctx, uc.txRepo, tx, from); err != nil {
		return nil, err
	}
	if tx.Status != from {
		uc.completer.notify(ctx, tx)
	}

	if uc.policy.AutoComplete && tx.CanBeCompleted() {
		return uc.completer.complete(ctx, tx, nil)
	}
	return tx, nil
}

type ConfirmDepositUseCase struct {
	txRepo   repository.DepositTransactionRepository
	notifier event.Notifier
}

func NewConfirmDepositUseCase(txRepo repository.DepositTransactionRepository, notifier event.Notifier) *ConfirmDepositUseCase {
	if notifier == nil {
		notifier = event.Nop{}
	}
	return &ConfirmDepositUseCase{txRepo: txRepo, notifier: notifier}
}

func (uc *ConfirmDepositUseCase) Execute(ctx context.Context, actor entity.Actor, id int64) (*entity.DepositTransaction, error) {
	if !actor.IsAdmin() {
		return nil, apperror.ErrAdminRequired
	}

	tx, err := uc.txRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	from := tx.Status
	if err := tx.MarkAsConfirmed(); err != nil {
		return nil, err
	}
	if err := saveTransaction(ctx, uc.txRepo, tx, from); err != nil {
		return nil, err
	}

	logTransition(tx, from, actor.UserID)
	uc.notifier.Notify(ctx, tx.UserID, event.DepositTransactionStatusChanged, txPayload(tx))
	return tx, nil
}

// CompleteDepositUseCase — ручное завершение транзакции администратором.
type CompleteDepositUseCase struct {
	txRepo    repository.DepositTransactionRepository
	completer *completer
}

func NewCompleteDepositUseCase(txRepo repository.DepositTransactionRepository, notifier event.Notifier) *CompleteDepositUseCase {
	return &CompleteDepositUseCase{txRepo: txRepo, completer: newCompleter(txRepo, notifier)}
}

func (uc *CompleteDepositUseCase) Execute(ctx context.Context, actor entity.Actor, id int64) (*entity.DepositTransaction, error) {
	if !actor.IsAdmin() {
		return nil, apperror.ErrAdminRequired
	}

	tx, err := uc.txRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	adminID := actor.UserID
	return uc.completer.complete(ctx, tx, &adminID)
}

// CloseDepositUseCase переводит транзакцию в failed или cancelled.
type CloseDepositUseCase struct {
	txRepo   repository.DepositTransactionRepository
	notifier event.Notifier
}

func NewCloseDepositUseCase(txRepo repository.DepositTransactionRepository, notifier event.Notifier) *CloseDepositUseCase {
	if notifier == nil {
		notifier = event.Nop{}
	}
	return &CloseDepositUseCase{txRepo: txRepo, notifier: notifier}
}

func (uc *CloseDepositUseCase) Execute(ctx context.Context, actor entity.Actor, id int64, status valueobject.TransactionStatus, reason string) (*entity.DepositTransaction, error) {
	if !actor.IsAdmin() {
		return nil, apperror.ErrAdminRequired
	}
	if err := validation.ValidateLength("причина", reason, 0, validation.MaxAdminNotesLength); err != nil {
		return nil, apperror.FieldError("reason", err.Error())
	}

	tx, err := uc.txRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	from := tx.Status

	switch status {
	case valueobject.TransactionStatusFailed:
		err = tx.Fail(reason)
	case valueobject.TransactionStatusCancelled:
		err = tx.Cancel(reason)
	default:
		err = apperror.InvalidTransition(string(from), string(status))
	}
	if err != nil {
		return nil, err
	}

	adminID := actor.UserID
	tx.ProcessedBy = &adminID
	if err := saveTransaction(ctx, uc.txRepo, tx, from); err != nil {
		return nil, err
	}

	logTransition(tx, from, actor.UserID)
	uc.notifier.Notify(ctx, tx.UserID, event.DepositTransactionStatusChanged, txPayload(tx))
	return tx, nil
}

// SetCreditedAmountUseCase корректирует сумму зачисления до завершения.
type SetCreditedAmountUseCase struct {
	txRepo repository.DepositTransactionRepository
}

func NewSetCreditedAmountUseCase(txRepo repository.DepositTransactionRepository) *SetCreditedAmountUseCase {
	return &SetCreditedAmountUseCase{txRepo: txRepo}
}

func (uc *SetCreditedAmountUseCase) Execute(ctx context.Context, actor entity.Actor, id int64, amount decimal.Decimal) (*entity.DepositTransaction, error) {
	if !actor.IsAdmin() {
		return nil, apperror.ErrAdminRequired
	}

	tx, err := uc.txRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	from := tx.Status
	if err := tx.SetCreditedAmount(amount); err != nil {
		return nil, err
	}
	if err := saveTransaction(ctx, uc.txRepo, tx, from); err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"deposit_tx_id": tx.ID,
		"credited":      amount.String(),
		"admin_id":      actor.UserID,
	}).Info("Deposit credited amount adjusted")
	return tx, nil
}

type GetDepositTransactionUseCase struct {
	txRepo repository.DepositTransactionRepository
}

func NewGetDepositTransactionUseCase(txRepo repository.DepositTransactionRepository) *GetDepositTransactionUseCase {
	return &GetDepositTransactionUseCase{txRepo: txRepo}
}

func (uc *GetDepositTransactionUseCase) Execute(ctx context.Context, actor entity.Actor, id int64) (*entity.DepositTransaction, error) {
	tx, err := uc.txRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !actor.Owns(tx.UserID) {
		return nil, apperror.ErrDepositTransactionNotFound
	}
	return tx, nil
}

type ListDepositTransactionsUseCase struct {
	txRepo repository.DepositTransactionRepository
}

func NewListDepositTransactionsUseCase(txRepo repository.DepositTransactionRepository) *ListDepositTransactionsUseCase {
	return &ListDepositTransactionsUseCase{txRepo: txRepo}
}

func (uc *ListDepositTransactionsUseCase) Execute(ctx context.Context, actor entity.Actor, filter repository.RequestFilter) ([]*entity.DepositTransaction, int, error) {
	if !actor.IsAdmin() {
		userID := actor.UserID
		filter.UserID = &userID
	}
	if filter.Status != "" {
		if _, err := valueobject.NewTransactionStatus(filter.Status); err != nil {
			return nil, 0, err
		}
	}
	return uc.txRepo.List(ctx, filter)
}

// completer — общий путь завершения для администратора и автоматики.
type completer struct {
	txRepo   repository.DepositTransactionRepository
	notifier event.Notifier
}

func newCompleter(txRepo repository.DepositTransactionRepository, notifier event.Notifier) *completer {
	if notifier == nil {
		notifier = event.Nop{}
	}
	return &completer{txRepo: txRepo, notifier: notifier}
}

func (c *completer) complete(ctx context.Context, tx *entity.DepositTransaction, processedBy *uuid.UUID) (*entity.DepositTransaction, error) {
	from, seen := tx.Status, tx.CreditedAmount
	credit, err := tx.Complete(processedBy)
	if err != nil {
		return nil, err
	}

	if err := c.txRepo.Complete(ctx, tx, credit, seen); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, apperror.InvalidOperation("транзакция уже завершена, закрыта или изменена")
		}
		return nil, err
	}

	automated := processedBy == nil
	fields := logrus.Fields{
		"deposit_tx_id": tx.ID,
		"user_id":       tx.UserID,
		"credit":        credit.String(),
		"automated":     automated,
	}
	if !automated {
		fields["admin_id"] = *processedBy
	}
	logger.WithFields(fields).Infof("Deposit transaction %s -> %s", from, tx.Status)

	c.notify(ctx, tx)
	c.notifier.Notify(ctx, tx.UserID, event.BalanceChanged, map[string]any{"delta": credit.String()})
	return tx, nil
}

func (c *completer) notify(ctx context.Context, tx *entity.DepositTransaction) {
	c.notifier.Notify(ctx, tx.UserID, event.DepositTransactionStatusChanged, txPayload(tx))
}

func saveTransaction(ctx context.Context, repo repository.DepositTransactionRepository, tx *entity.DepositTransaction, from valueobject.TransactionStatus) error {
	if err := repo.Update(ctx, tx, from); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return apperror.InvalidOperation("статус транзакции изменился, повторите запрос")
		}
		return err
	}
	return nil
}

func logTransition(tx *entity.DepositTransaction, from valueobject.TransactionStatus, adminID uuid.UUID) {
	logger.WithFields(logrus.Fields{
		"deposit_tx_id": tx.ID,
		"user_id":       tx.UserID,
		"from":          from,
		"to":            tx.Status,
		"admin_id":      adminID,
	}).Info("Deposit transaction status changed")
}

func txPayload(tx *entity.DepositTransaction) map[string]any {
	return map[string]any{
		"id":                    tx.ID,
		"status":                tx.Status,
		"confirmations":         tx.Confirmations,
		"requiredConfirmations": tx.RequiredConfirmations,
	}
}
