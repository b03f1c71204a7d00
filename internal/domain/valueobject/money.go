package valueobject

import (
	"github.com/shopspring/decimal"
)

// AmountScale — число знаков после запятой в колонках NUMERIC(20, 8).
const AmountScale = 8

var (
	// MinDepositAmount — минимальная сумма ручного пополнения.
	MinDepositAmount = decimal.RequireFromString("0.01")
	// MaxStoredAmount — граница, которую сумма не достигает в NUMERIC(20, 8).
	MaxStoredAmount = decimal.New(1, 12)
)

// HasValidScale сообщает, что у суммы не больше AmountScale значащих знаков после запятой.
func HasValidScale(amount decimal.Decimal) bool {
	return amount.Equal(amount.Truncate(AmountScale))
}

// FitsStorage сообщает, сохранится ли сумма без округления и переполнения.
func FitsStorage(amount decimal.Decimal) bool {
	return HasValidScale(amount) && amount.Abs().LessThan(MaxStoredAmount)
}

// WithdrawalDebit возвращает сумму списания: комиссия начисляется сверху запрошенной суммы.
func WithdrawalDebit(amount, fee decimal.Decimal) decimal.Decimal {
	return amount.Add(fee)
}

// DepositCredit возвращает сумму зачисления: явно выставленная сумма имеет приоритет над исходной.
func DepositCredit(amount decimal.Decimal, credited *decimal.Decimal) decimal.Decimal {
	if credited != nil && credited.IsPositive() {
		return *credited
	}
	return amount
}

// CanAfford проверяет, покрывает ли баланс списание.
func CanAfford(balance, debit decimal.Decimal) bool {
	return balance.GreaterThanOrEqual(debit)
}

// InRange проверяет границы платформы; nil означает отсутствие ограничения.
func InRange(amount decimal.Decimal, min, max *decimal.Decimal) bool {
	if min != nil && amount.LessThan(*min) {
		return false
	}
	if max != nil && amount.GreaterThan(*max) {
		return false
	}
	return true
}
