package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ignatzorin/cryptopay-backend/internal/domain/entity"
	"github.com/ignatzorin/cryptopay-backend/internal/domain/valueobject"
)

// depositTimeLayouts — допустимые форматы времени пополнения.
var depositTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// WithdrawalInput — заявка на вывод вместе с контекстом проверки.
type WithdrawalInput struct {
	Platform       *entity.Platform
	Amount         decimal.Decimal
	AccountDetails string
	Message        string
	// Balance равен nil, если проверка баланса не нужна.
	Balance *decimal.Decimal
}

// ValidateWithdrawalRequest проверяет заявку на вывод до сохранения.
func ValidateWithdrawalRequest(in WithdrawalInput) error {
	errs := NewErrors()

	switch {
	case in.Platform == nil:
		errs.Add("platformId", "платформа не найдена")
	case in.Platform.Kind != valueobject.PlatformKindWithdrawal:
		errs.Add("platformId", "платформа не предназначена для вывода")
	case !in.Platform.IsActive:
		errs.Add("platformId", "платформа отключена")
	}

	if !in.Amount.IsPositive() {
		errs.Add("amount", "сумма должна быть больше нуля")
	} else {
		checkStoredAmount(errs, "amount", in.Amount)
	}
	if in.Amount.IsPositive() && in.Platform != nil {
		if in.Platform.MinAmount != nil && in.Amount.LessThan(*in.Platform.MinAmount) {
			errs.Add("amount", "сумма меньше минимальной: "+in.Platform.MinAmount.String())
		}
		if in.Platform.MaxAmount != nil && in.Amount.GreaterThan(*in.Platform.MaxAmount) {
			errs.Add("amount", "сумма больше максимальной: "+in.Platform.MaxAmount.String())
		}
	}

	details := strings.TrimSpace(in.AccountDetails)
	if details == "" {
		errs.Add("accountDetails", "реквизиты обязательны")
	} else {
		errs.AddErr("accountDetails", ValidateLength("реквизиты", details, MinAccountDetailsLength, MaxAccountDetailsLength))
	}

	errs.AddErr("message", ValidateLength("сообщение", strings.TrimSpace(in.Message), 0, MaxWithdrawalMessageLength))

	if in.Balance != nil && in.Platform != nil && in.Amount.IsPositive() {
		debit := valueobject.WithdrawalDebit(in.Amount, in.Platform.Fee)
		if !valueobject.CanAfford(*in.Balance, debit) {
			errs.Add("amount", fmt.Sprintf("недостаточно средств: требуется %s с учётом комиссии", debit.String()))
		}
	}

	return errs.Err()
}

// DepositRecordInput — ручная заявка на пополнение.
type DepositRecordInput struct {
	PlatformID      *int64
	PlatformAccount string
	RealName        *string
	Amount          *decimal.Decimal
	DepositTime     string
	ScreenshotURL   *string
	UserMessage     *string
}

// ValidateDepositRecord проверяет ручную заявку на пополнение.
func ValidateDepositRecord(in DepositRecordInput) error {
	errs := NewErrors()

	if in.PlatformID == nil {
		errs.Add("platformId", "платформа обязательна")
	} else if *in.PlatformID <= 0 {
		errs.Add("platformId", "идентификатор платформы должен быть положительным числом")
	}

	errs.AddErr("platformAccount", ValidateRequiredString("аккаунт платформы", in.PlatformAccount, MaxPlatformAccountLength))
	errs.AddErr("realName", ValidateOptionalString("имя", in.RealName, MaxRealNameLength))

	switch {
	case in.Amount == nil:
		errs.Add("amount", "сумма обязательна")
	case !in.Amount.IsPositive():
		errs.Add("amount", "сумма должна быть больше нуля")
	case in.Amount.LessThan(valueobject.MinDepositAmount):
		errs.Add("amount", "минимальная сумма пополнения "+valueobject.MinDepositAmount.String())
	default:
		checkStoredAmount(errs, "amount", *in.Amount)
	}

	if _, err := ParseDepositTime(in.DepositTime); err != nil {
		errs.Add("depositTime", err.Error())
	}

	errs.AddErr("screenshotUrl", ValidateURL("ссылка на скриншот", in.ScreenshotURL, MaxScreenshotURLLength))
	errs.AddErr("userMessage", ValidateOptionalString("сообщение", in.UserMessage, MaxUserMessageLength))

	return errs.Err()
}

// ParseDepositTime разбирает время пополнения в одном из допустимых форматов.
func ParseDepositTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("время пополнения обязательно")
	}
	for _, layout := range depositTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("некорректная дата пополнения")
}

// DepositTransactionInput — данные от сканера блокчейна.
type DepositTransactionInput struct {
	TransactionHash string
	Amount          decimal.Decimal
	Confirmations   int
}

// ValidateDepositTransaction проверяет обнаруженную транзакцию.
func ValidateDepositTransaction(in DepositTransactionInput) error {
	errs := NewErrors()

	errs.AddErr("transactionHash", ValidateRequiredString("хэш транзакции", in.TransactionHash, MaxTransactionHashLength))
	if !in.Amount.IsPositive() {
		errs.Add("amount", "сумма должна быть больше нуля")
	} else {
		checkStoredAmount(errs, "amount", in.Amount)
	}
	if in.Confirmations < 0 {
		errs.Add("confirmations", "количество подтверждений не может быть отрицательным")
	}

	return errs.Err()
}
