package persistence

import (
	"database/sql"

	"github.com/ignatzorin/cryptopay-backend/internal/pkg/apperror"
)

// requireAffected возвращает notFoundErr, если запрос не затронул ни одной строки.
func requireAffected(result sql.Result, notFoundErr error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось проверить результат запроса")
	}
	if rows == 0 {
		return notFoundErr
	}
	return nil
}
