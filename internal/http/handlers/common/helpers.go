package common

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/cryptopay-backend/internal/domain/entity"
	"github.com/ignatzorin/cryptopay-backend/internal/domain/repository"
	"github.com/ignatzorin/cryptopay-backend/internal/http/middleware"
)

var (
	// ErrUserNotFound возвращается, если пользователь не найден в контексте.
	ErrUserNotFound = errors.New("пользователь не найден в контексте")

	// ErrInvalidID возвращается при некорректном идентификаторе.
	ErrInvalidID = errors.New("неверный формат идентификатора")
)

// CurrentUserID извлекает ID пользователя из gin контекста.
func CurrentUserID(c *gin.Context) (uuid.UUID, error) {
	raw, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return uuid.Nil, ErrUserNotFound
	}

	userID, ok := raw.(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, ErrUserNotFound
	}

	return userID, nil
}

// CurrentActor собирает entity.Actor из ID и роли в контексте.
func CurrentActor(c *gin.Context) (entity.Actor, error) {
	userID, err := CurrentUserID(c)
	if err != nil {
		return entity.Actor{}, err
	}

	role, _ := c.Get(middleware.ContextRoleKey)
	roleStr, _ := role.(string)
	if roleStr == "" {
		roleStr = entity.RoleUser
	}
	return entity.NewActor(userID, roleStr), nil
}

// ParseIDParam разбирает положительный int64 из параметра пути.
func ParseIDParam(c *gin.Context, paramName string) (int64, error) {
	param := c.Param(paramName)
	if param == "" {
		return 0, fmt.Errorf("параметр %s отсутствует", paramName)
	}

	id, err := strconv.ParseInt(param, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}

	return id, nil
}

// ParseIntQuery читает целочисленный query параметр со значением по умолчанию.
func ParseIntQuery(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

// GetPagination извлекает limit и offset с ограничениями.
func GetPagination(c *gin.Context) (limit, offset int) {
	limit = ParseIntQuery(c, "limit", 20)
	offset = ParseIntQuery(c, "offset", 0)
	if limit > 100 {
		limit = 100
	}
	if limit < 1 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return
}

// RequestFilter собирает фильтр списка из query: status, platformId, userId, limit, offset.
// Некорректные platformId и userId возвращают ошибку.
func RequestFilter(c *gin.Context) (repository.RequestFilter, error) {
	limit, offset := GetPagination(c)
	filter := repository.RequestFilter{
		Status: c.Query("status"),
		Limit:  limit,
		Offset: offset,
	}

	if raw := c.Query("platformId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return filter, fmt.Errorf("platformId: %w", ErrInvalidID)
		}
		filter.PlatformID = &id
	}

	if raw := c.Query("userId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, fmt.Errorf("userId: %w", ErrInvalidID)
		}
		filter.UserID = &id
	}

	return filter, nil
}
