package validation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ignatzorin/cryptopay-backend/internal/domain/valueobject"
)

var (
	MaxPlatformAmount = decimal.NewFromInt(1_000_000)
	MaxPlatformFee    = decimal.NewFromInt(10_000)
)

// PlatformInput — данные платформы, приходящие от администратора.
type PlatformInput struct {
	Name                  string
	Symbol                string
	Network               *string
	MinAmount             *decimal.Decimal
	MaxAmount             *decimal.Decimal
	Fee                   *decimal.Decimal
	IconURL               *string
	IconClass             *string
	RequiredConfirmations *int
}

// ValidatePlatform проверяет настройки платформы и возвращает все нарушения сразу.
func ValidatePlatform(in PlatformInput) error {
	errs := NewErrors()

	errs.AddErr("name", ValidateRequiredString("название", in.Name, MaxPlatformNameLength))
	errs.AddErr("symbol", ValidateRequiredString("символ валюты", in.Symbol, MaxPlatformSymbolLength))
	if in.Symbol != strings.ToUpper(in.Symbol) {
		errs.Add("symbol", "символ валюты указывается заглавными буквами, например USDT")
	}
	errs.AddErr("network", ValidateOptionalString("сеть", in.Network, MaxNetworkLength))

	validateLimit(errs, "minAmount", "минимальная сумма", in.MinAmount)
	validateLimit(errs, "maxAmount", "максимальная сумма", in.MaxAmount)
	if in.MinAmount != nil && in.MaxAmount != nil && in.MaxAmount.LessThan(*in.MinAmount) {
		errs.Add("maxAmount", "максимальная сумма не может быть меньше минимальной")
	}

	if in.Fee != nil {
		if in.Fee.IsNegative() {
			errs.Add("fee", "комиссия не может быть отрицательной")
		} else if in.Fee.GreaterThan(MaxPlatformFee) {
			errs.Add("fee", "комиссия не может превышать "+MaxPlatformFee.String())
		}
		checkScale(errs, "fee", *in.Fee)
	}

	errs.AddErr("iconUrl", ValidateURL("ссылка на иконку", in.IconURL, MaxIconURLLength))
	errs.AddErr("iconClass", ValidateIconClass(in.IconClass))

	if in.RequiredConfirmations != nil {
		if n := *in.RequiredConfirmations; n < 1 || n > MaxRequiredConfirmations {
			errs.Add("requiredConfirmations", "количество подтверждений должно быть от 1 до 1000")
		}
	}

	return errs.Err()
}

func validateLimit(errs *Errors, field, label string, value *decimal.Decimal) {
	if value == nil {
		return
	}
	if !value.IsPositive() {
		errs.Add(field, label+" должна быть больше нуля")
		return
	}
	if value.GreaterThan(MaxPlatformAmount) {
		errs.Add(field, label+" не может превышать "+MaxPlatformAmount.String())
	}
	checkScale(errs, field, *value)
}

func checkScale(errs *Errors, field string, value decimal.Decimal) {
	if !valueobject.HasValidScale(value) {
		errs.Add(field, fmt.Sprintf("допускается не более %d знаков после запятой", valueobject.AmountScale))
	}
}

// checkStoredAmount проверяет, что сумма сохранится в базе без округления.
func checkStoredAmount(errs *Errors, field string, value decimal.Decimal) {
	checkScale(errs, field, value)
	if !value.Abs().LessThan(valueobject.MaxStoredAmount) {
		errs.Add(field, "сумма должна быть меньше "+valueobject.MaxStoredAmount.String())
	}
}
