package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

type ErrorCode string

const (
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden         ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest        ErrorCode = "BAD_REQUEST"
	ErrCodeConflict          ErrorCode = "CONFLICT"
	ErrCodeDuplicate         ErrorCode = "DUPLICATE"
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	ErrCodeInvalidOperation  ErrorCode = "INVALID_OPERATION"
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation        ErrorCode = "VALIDATION_ERROR"
	ErrCodeDatabaseError     ErrorCode = "DATABASE_ERROR"
	ErrCodeUnavailable       ErrorCode = "SERVICE_UNAVAILABLE"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
	// Fields заполняется только для ошибок валидации: поле -> список причин.
	Fields map[string][]string
}

func (e *AppError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.fieldsString())
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) fieldsString() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], "; "))
	}
	return strings.Join(parts, ", ")
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// NewValidation создаёт ошибку валидации с набором нарушений по полям.
func NewValidation(fields map[string][]string) *AppError {
	return &AppError{
		Code:       ErrCodeValidation,
		Message:    "данные не прошли проверку",
		HTTPStatus: codeToHTTPStatus(ErrCodeValidation),
		Fields:     fields,
	}
}

// FieldError — ошибка валидации одного поля.
func FieldError(field, message string) *AppError {
	return NewValidation(map[string][]string{field: {message}})
}

func Forbidden(message string) *AppError {
	return New(ErrCodeForbidden, message)
}

func NotFound(message string) *AppError {
	return New(ErrCodeNotFound, message)
}

func Duplicate(message string) *AppError {
	return New(ErrCodeDuplicate, message)
}

func InvalidTransition(from, to string) *AppError {
	return New(ErrCodeInvalidTransition, fmt.Sprintf("переход статуса %s -> %s запрещён", from, to))
}

func InvalidOperation(message string) *AppError {
	return New(ErrCodeInvalidOperation, message)
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeConflict, ErrCodeDuplicate, ErrCodeInvalidTransition, ErrCodeInvalidOperation:
		return http.StatusConflict
	case ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func hasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

func IsForbidden(err error) bool {
	return hasCode(err, ErrCodeForbidden)
}

func IsValidation(err error) bool {
	return hasCode(err, ErrCodeValidation)
}

func IsDuplicate(err error) bool {
	return hasCode(err, ErrCodeDuplicate)
}

func IsInvalidTransition(err error) bool {
	return hasCode(err, ErrCodeInvalidTransition)
}

func IsInvalidOperation(err error) bool {
	return hasCode(err, ErrCodeInvalidOperation)
}

// ValidationFields возвращает нарушения по полям, если err — ошибка валидации.
func ValidationFields(err error) map[string][]string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code == ErrCodeValidation {
		return appErr.Fields
	}
	return nil
}

var (
	ErrPlatformNotFound           = New(ErrCodeNotFound, "платформа не найдена")
	ErrWithdrawalNotFound         = New(ErrCodeNotFound, "заявка на вывод не найдена")
	ErrDepositRecordNotFound      = New(ErrCodeNotFound, "заявка на пополнение не найдена")
	ErrDepositTransactionNotFound = New(ErrCodeNotFound, "транзакция пополнения не найдена")
	ErrDepositAddressNotFound     = New(ErrCodeNotFound, "адрес для пополнения не найден")
	ErrUnauthorized               = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden                  = New(ErrCodeForbidden, "недостаточно прав")
	ErrAdminRequired              = New(ErrCodeForbidden, "действие доступно только администратору")
	ErrAddressIssuingDisabled     = New(ErrCodeUnavailable, "выдача адресов пополнения не настроена")
)
