package entity

import (
	"time"

	"github.com/google/uuid"
)

// DepositAddress — адрес пополнения пользователя на платформе.
// Активный адрес для пары (пользователь, платформа) может быть только один.
type DepositAddress struct {
	ID         int64      `db:"id"`
	UserID     uuid.UUID  `db:"user_id"`
	PlatformID int64      `db:"platform_id"`
	Address    string     `db:"address"`
	Tag        *string    `db:"tag"`
	IsActive   bool       `db:"is_active"`
	LastUsedAt *time.Time `db:"last_used_at"`
	CreatedAt  time.Time  `db:"created_at"`
}

func NewDepositAddress(userID uuid.UUID, platformID int64, address string, tag *string) *DepositAddress {
	return &DepositAddress{
		UserID:     userID,
		PlatformID: platformID,
		Address:    address,
		Tag:        tag,
		IsActive:   true,
		CreatedAt:  time.Now(),
	}
}

func (a *DepositAddress) MarkUsed() {
	now := time.Now()
	a.LastUsedAt = &now
}

func (a *DepositAddress) Deactivate() {
	a.IsActive = false
}
