package persistence

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/ignatzorin/cryptopay-backend/internal/domain/repository"
	"github.com/ignatzorin/cryptopay-backend/internal/pkg/apperror"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"

	addressValueConstraint = "deposit_addresses_value_uniq"
)

// dbError переводит ошибку драйвера в ошибку приложения.
func dbError(err error, message string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrStaleStatus) || errors.Is(err, repository.ErrInsufficientFunds) ||
		errors.Is(err, repository.ErrAddressTaken) {
		return err
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			if pqErr.Constraint == addressValueConstraint {
				return repository.ErrAddressTaken
			}
			return apperror.Duplicate("запись уже существует")
		case pqForeignKeyViolation:
			return apperror.InvalidOperation("запись используется другими данными")
		}
	}
	return apperror.Wrap(err, apperror.ErrCodeDatabaseError, message)
}

// notFound возвращает notFoundErr для sql.ErrNoRows, иначе переводит ошибку через dbError.
func notFound(err error, notFoundErr error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFoundErr
	}
	return dbError(err, message)
}
