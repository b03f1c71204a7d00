package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ignatzorin/cryptopay-backend/internal/domain/valueobject"
)

// DefaultRequiredConfirmations используется, если ни платформа, ни сеть не задают порог.
const DefaultRequiredConfirmations = 1

// Platform — настроенный администратором канал вывода или пополнения для пары валюта/сеть.
type Platform struct {
	ID                    int64                    `db:"id"`
	Kind                  valueobject.PlatformKind `db:"kind"`
	Name                  string                   `db:"name"`
	Symbol                string                   `db:"symbol"`
	Network               *string                  `db:"network"`
	MinAmount             *decimal.Decimal         `db:"min_amount"`
	MaxAmount             *decimal.Decimal         `db:"max_amount"`
	Fee                   decimal.Decimal          `db:"fee"`
	IsActive              bool                     `db:"is_active"`
	IconURL               *string                  `db:"icon_url"`
	IconClass             *string                  `db:"icon_class"`
	RequiredConfirmations *int                     `db:"required_confirmations"`
	CreatedAt             time.Time                `db:"created_at"`
	UpdatedAt             time.Time                `db:"updated_at"`
}

func NewPlatform(kind valueobject.PlatformKind, name, symbol string) *Platform {
	now := time.Now()
	return &Platform{
		Kind:      kind,
		Name:      strings.TrimSpace(name),
		Symbol:    strings.TrimSpace(symbol),
		Fee:       decimal.Zero,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AcceptsAmount проверяет сумму на соответствие лимитам платформы.
func (p *Platform) AcceptsAmount(amount decimal.Decimal) bool {
	return valueobject.InRange(amount, p.MinAmount, p.MaxAmount)
}

// NetworkName возвращает сеть или пустую строку.
func (p *Platform) NetworkName() string {
	if p.Network == nil {
		return ""
	}
	return *p.Network
}

// ConfirmationsRequired определяет порог подтверждений: платформа, затем сеть, затем значение по умолчанию.
func (p *Platform) ConfirmationsRequired(byNetwork map[string]int, fallback int) int {
	if p.RequiredConfirmations != nil && *p.RequiredConfirmations > 0 {
		return *p.RequiredConfirmations
	}
	if n, ok := byNetwork[strings.ToUpper(p.NetworkName())]; ok && n > 0 {
		return n
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultRequiredConfirmations
}

func (p *Platform) Touch() {
	p.UpdatedAt = time.Now()
}
