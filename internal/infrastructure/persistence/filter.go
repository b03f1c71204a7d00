package persistence

import (
	"fmt"
	"strings"

	"github.com/ignatzorin/cryptopay-backend/internal/domain/repository"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// requestWhere собирает условие WHERE и аргументы для фильтра списков.
func requestWhere(filter repository.RequestFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.PlatformID != nil {
		args = append(args, *filter.PlatformID)
		conds = append(conds, fmt.Sprintf("platform_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// pageClause добавляет LIMIT/OFFSET к аргументам.
func pageClause(filter repository.RequestFilter, args []interface{}) (string, []interface{}) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args
}
