package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ignatzorin/cryptopay-backend/internal/pkg/apperror"
)

// Константы валидации
const (
	MaxPlatformNameLength      = 100
	MaxPlatformSymbolLength    = 10
	MaxNetworkLength           = 50
	MaxIconURLLength           = 500
	MaxIconClassLength         = 100
	MinAccountDetailsLength    = 5
	MaxAccountDetailsLength    = 500
	MaxWithdrawalMessageLength = 1000
	MaxPlatformAccountLength   = 255
	MaxRealNameLength          = 100
	MaxScreenshotURLLength     = 500
	MaxUserMessageLength       = 1000
	MaxAdminNotesLength        = 1000
	MaxTransactionHashLength   = 255
	MaxRequiredConfirmations   = 1000
)

var iconClassRegex = regexp.MustCompile(`^[A-Za-z0-9\s\-_]+$`)

// Errors накапливает нарушения по полям, чтобы вернуть их одной ошибкой.
type Errors struct {
	fields map[string][]string
}

func NewErrors() *Errors {
	return &Errors{fields: make(map[string][]string)}
}

// Add добавляет нарушение для поля.
func (e *Errors) Add(field, message string) {
	e.fields[field] = append(e.fields[field], message)
}

// AddErr добавляет err как нарушение поля, если err не nil.
func (e *Errors) AddErr(field string, err error) {
	if err != nil {
		e.Add(field, err.Error())
	}
}

func (e *Errors) Empty() bool {
	return len(e.fields) == 0
}

// Err возвращает ошибку валидации или nil, если нарушений нет.
func (e *Errors) Err() error {
	if e.Empty() {
		return nil
	}
	return apperror.NewValidation(e.fields)
}

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateRequiredString проверяет обязательную строку и её максимальную длину.
func ValidateRequiredString(fieldName, value string, max int) error {
	if err := ValidateNonEmpty(fieldName, value); err != nil {
		return err
	}
	return ValidateLength(fieldName, strings.TrimSpace(value), 0, max)
}

// ValidateOptionalString проверяет длину необязательной строки.
func ValidateOptionalString(fieldName string, value *string, max int) error {
	if value == nil || *value == "" {
		return nil
	}
	return ValidateLength(fieldName, strings.TrimSpace(*value), 0, max)
}

// ValidateURL проверяет необязательную ссылку.
func ValidateURL(fieldName string, link *string, max int) error {
	if link == nil || *link == "" {
		return nil
	}
	linkStr := strings.TrimSpace(*link)

	if err := ValidateLength(fieldName, linkStr, 0, max); err != nil {
		return err
	}

	// Проверка формата URL
	parsedURL, err := url.Parse(linkStr)
	if err != nil {
		return fmt.Errorf("%s: некорректный формат URL", fieldName)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s: ссылка должна начинаться с http:// или https://", fieldName)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("%s: ссылка должна содержать доменное имя", fieldName)
	}
	return nil
}

// ValidateIconClass проверяет CSS-класс иконки.
func ValidateIconClass(value *string) error {
	if value == nil || *value == "" {
		return nil
	}
	if err := ValidateLength("класс иконки", *value, 0, MaxIconClassLength); err != nil {
		return err
	}
	if !iconClassRegex.MatchString(*value) {
		return fmt.Errorf("класс иконки может содержать только буквы, цифры, пробелы, дефис и подчеркивание")
	}
	return nil
}
