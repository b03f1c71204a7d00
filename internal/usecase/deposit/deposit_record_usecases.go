package deposit

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
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

type CreateDepositRecordInput struct {
	UserID          uuid.UUID
	PlatformID      *int64
	PlatformAccount string
	RealName        *string
	Amount          *decimal.Decimal
	DepositTime     string
	ScreenshotURL   *string
	UserMessage     *string
}

type CreateDepositRecordUseCase struct {
	recordRepo   repository.DepositRecordRepository
	platformRepo repository.PlatformRepository
}

func NewCreateDepositRecordUseCase(recordRepo repository.DepositRecordRepository, platformRepo repository.PlatformRepository) *CreateDepositRecordUseCase {
	return &CreateDepositRecordUseCase{recordRepo: recordRepo, platformRepo: platformRepo}
}

func (uc *CreateDepositRecordUseCase) Execute(ctx context.Context, input CreateDepositRecordInput) (*entity.DepositRecord, error) {
	if input.UserID == uuid.Nil {
		return nil, apperror.ErrUnauthorized
	}

	if err := validation.ValidateDepositRecord(validation.DepositRecordInput{
		PlatformID:      input.PlatformID,
		PlatformAccount: input.PlatformAccount,
		RealName:        input.RealName,
		Amount:          input.Amount,
		DepositTime:     input.DepositTime,
		ScreenshotURL:   input.ScreenshotURL,
		UserMessage:     input.UserMessage,
	}); err != nil {
		return nil, err
	}

	platform, err := findDepositPlatform(ctx, uc.platformRepo, *input.PlatformID)
	if err != nil {
		return nil, err
	}
	if !platform.AcceptsAmount(*input.Amount) {
		return nil, apperror.FieldError("amount", "сумма вне допустимых лимитов платформы")
	}

	depositTime, _ := validation.ParseDepositTime(input.DepositTime)
	record := entity.NewDepositRecord(input.UserID, platform.ID, input.PlatformAccount, *input.Amount, depositTime)
	record.RealName = trimmed(input.RealName)
	record.ScreenshotURL = trimmed(input.ScreenshotURL)
	record.UserMessage = trimmed(input.UserMessage)

	if err := uc.recordRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"deposit_record_id": record.ID,
		"user_id":           record.UserID,
		"platform_id":       record.PlatformID,
		"amount":            record.Amount.String(),
	}).Info("Deposit record created")

	return record, nil
}

type UpdateDepositRecordStatusInput struct {
	ID             int64
	Status         string
	CreditedAmount *decimal.Decimal
	AdminNotes     *string
}

// UpdateDepositRecordStatusUseCase — решение администратора по ручному пополнению.
// При одобрении сумма зачисления попадает на баланс в той же транзакции.
type UpdateDepositRecordStatusUseCase struct {
	recordRepo repository.DepositRecordRepository
	notifier   event.Notifier
}

func NewUpdateDepositRecordStatusUseCase(recordRepo repository.DepositRecordRepository, notifier event.Notifier) *UpdateDepositRecordStatusUseCase {
	if notifier == nil {
		notifier = event.Nop{}
	}
	return &UpdateDepositRecordStatusUseCase{recordRepo: recordRepo, notifier: notifier}
}

func (uc *UpdateDepositRecordStatusUseCase) Execute(ctx context.Context, actor entity.Actor, input UpdateDepositRecordStatusInput) (*entity.DepositRecord, error) {
	if !actor.IsAdmin() {
		return nil, apperror.ErrAdminRequired
	}

	target, err := valueobject.NewRequestStatus(input.Status)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateOptionalString("заметки", input.AdminNotes, validation.MaxAdminNotesLength); err != nil {
		return nil, apperror.FieldError("adminNotes", err.Error())
	}

	record, err := uc.recordRepo.FindByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	from := record.Status
	var credit *decimal.Decimal
	switch target {
	case valueobject.RequestStatusApproved:
		if err := record.Approve(actor, input.CreditedAmount, input.AdminNotes); err != nil {
			return nil, err
		}
		amount := record.CreditAmount()
		credit = &amount
	case valueobject.RequestStatusRejected:
		if err := record.Reject(actor, input.AdminNotes); err != nil {
			return nil, err
		}
	default:
		return nil, apperror.InvalidTransition(string(from), string(target))
	}

	if err := uc.recordRepo.UpdateStatus(ctx, record, from, credit); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, apperror.InvalidTransition(string(from), string(target))
		}
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"deposit_record_id": record.ID,
		"user_id":           record.UserID,
		"from":              from,
		"to":                target,
		"admin_id":          actor.UserID,
	}).Info("Deposit record status changed")

	uc.notifier.Notify(ctx, record.UserID, event.DepositRecordStatusChanged, map[string]any{
		"id":     record.ID,
		"status": record.Status,
	})
	if credit != nil {
		uc.notifier.Notify(ctx, record.UserID, event.BalanceChanged, map[string]any{"delta": credit.String()})
	}

	return record, nil
}

type DeleteDepositRecordUseCase struct {
	recordRepo repository.DepositRecordRepository
}

func NewDeleteDepositRecordUseCase(recordRepo repository.DepositRecordRepository) *DeleteDepositRecordUseCase {
	return &DeleteDepositRecordUseCase{recordRepo: recordRepo}
}

func (uc *DeleteDepositRecordUseCase) Execute(ctx context.Context, actor entity.Actor, id int64) error {
	record, err := uc.recordRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := record.CanBeDeletedBy(actor); err != nil {
		return err
	}
	if err := uc.recordRepo.Delete(ctx, id, record.Status); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return apperror.InvalidOperation("статус заявки изменился, удаление невозможно")
		}
		return err
	}

	logger.WithFields(logrus.Fields{
		"deposit_record_id": id,
		"actor_id":          actor.UserID,
	}).Info("Deposit record deleted")
	return nil
}

type GetDepositRecordUseCase struct {
	recordRepo repository.DepositRecordRepository
}

func NewGetDepositRecordUseCase(recordRepo repository.DepositRecordRepository) *GetDepositRecordUseCase {
	return &GetDepositRecordUseCase{recordRepo: recordRepo}
}

// Execute скрывает чужие заявки от обычного пользователя как несуществующие.
func (uc *GetDepositRecordUseCase) Execute(ctx context.Context, actor entity.Actor, id int64) (*entity.DepositRecord, error) {
	record, err := uc.recordRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !actor.Owns(record.UserID) {
		return nil, apperror.ErrDepositRecordNotFound
	}
	return record, nil
}

type ListDepositRecordsUseCase struct {
	recordRepo repository.DepositRecordRepository
}

func NewListDepositRecordsUseCase(recordRepo repository.DepositRecordRepository) *ListDepositRecordsUseCase {
	return &ListDepositRecordsUseCase{recordRepo: recordRepo}
}

func (uc *ListDepositRecordsUseCase) Execute(ctx context.Context, actor entity.Actor, filter repository.RequestFilter) ([]*entity.DepositRecord, int, error) {
	if !actor.IsAdmin() {
		userID := actor.UserID
		filter.UserID = &userID
	}
	if filter.Status != "" {
		if _, err := valueobject.NewRequestStatus(filter.Status); err != nil {
			return nil, 0, err
		}
	}
	return uc.recordRepo.List(ctx, filter)
}

func findDepositPlatform(ctx context.Context, repo repository.PlatformRepository, id int64) (*entity.Platform, error) {
	platform, err := repo.FindByID(ctx, id)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.FieldError("platformId", "платформа не найдена")
		}
		return nil, err
	}
	if platform.Kind != valueobject.PlatformKindDeposit {
		return nil, apperror.FieldError("platformId", "платформа не предназначена для пополнения")
	}
	if !platform.IsActive {
		return nil, apperror.FieldError("platformId", "платформа отключена")
	}
	return platform, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
