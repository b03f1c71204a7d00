package dto

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ignatzorin/cryptopay-backend/internal/domain/entity"
	"github.com/ignatzorin/cryptopay-backend/internal/domain/valueobject"
	"github.com/ignatzorin/cryptopay-backend/internal/interface/http/response"
	"github.com/ignatzorin/cryptopay-backend/internal/usecase/platform"
)

const (
	TypeWithdrawalPlatform = "withdrawal-platforms"
	TypeDepositPlatform    = "deposit-platforms"
)

type CreatePlatformRequest struct {
	Kind                  string           `json:"kind" binding:"required"`
	Name                  string           `json:"name"`
	Symbol                string           `json:"symbol"`
	Network               *string          `json:"network"`
	MinAmount             *decimal.Decimal `json:"minAmount"`
	MaxAmount             *decimal.Decimal `json:"maxAmount"`
	Fee                   *decimal.Decimal `json:"fee"`
	IsActive              *bool            `json:"isActive"`
	IconURL               *string          `json:"iconUrl"`
	IconClass             *string          `json:"iconClass"`
	RequiredConfirmations *int             `json:"requiredConfirmations"`
}

func (r CreatePlatformRequest) ToInput() platform.CreatePlatformInput {
	return platform.CreatePlatformInput{
		Kind:                  r.Kind,
		Name:                  r.Name,
		Symbol:                r.Symbol,
		Network:               r.Network,
		MinAmount:             r.MinAmount,
		MaxAmount:             r.MaxAmount,
		Fee:                   r.Fee,
		IsActive:              r.IsActive,
		IconURL:               r.IconURL,
		IconClass:             r.IconClass,
		RequiredConfirmations: r.RequiredConfirmations,
	}
}

// UpdatePlatformRequest — частичное обновление, отсутствующие поля не меняются.
// Clear перечисляет необязательные поля, которые нужно сбросить, например ["maxAmount"].
type UpdatePlatformRequest struct {
	Name                  *string          `json:"name"`
	Symbol                *string          `json:"symbol"`
	Network               *string          `json:"network"`
	MinAmount             *decimal.Decimal `json:"minAmount"`
	MaxAmount             *decimal.Decimal `json:"maxAmount"`
	Fee                   *decimal.Decimal `json:"fee"`
	IsActive              *bool            `json:"isActive"`
	IconURL               *string          `json:"iconUrl"`
	IconClass             *string          `json:"iconClass"`
	RequiredConfirmations *int             `json:"requiredConfirmations"`
	Clear                 []string         `json:"clear"`
}

func (r UpdatePlatformRequest) ToInput(id int64) platform.UpdatePlatformInput {
	return platform.UpdatePlatformInput{
		ID:                    id,
		Name:                  r.Name,
		Symbol:                r.Symbol,
		Network:               r.Network,
		MinAmount:             r.MinAmount,
		MaxAmount:             r.MaxAmount,
		Fee:                   r.Fee,
		IsActive:              r.IsActive,
		IconURL:               r.IconURL,
		IconClass:             r.IconClass,
		RequiredConfirmations: r.RequiredConfirmations,
		Clear:                 r.Clear,
	}
}

type PlatformAttributes struct {
	Kind                  string           `json:"kind"`
	Name                  string           `json:"name"`
	Symbol                string           `json:"symbol"`
	Network               *string          `json:"network"`
	MinAmount             *decimal.Decimal `json:"minAmount"`
	MaxAmount             *decimal.Decimal `json:"maxAmount"`
	Fee                   decimal.Decimal  `json:"fee"`
	IsActive              bool             `json:"isActive"`
	IconURL               *string          `json:"iconUrl"`
	IconClass             *string          `json:"iconClass"`
	RequiredConfirmations *int             `json:"requiredConfirmations,omitempty"`
	CreatedAt             time.Time        `json:"createdAt"`
	UpdatedAt             time.Time        `json:"updatedAt"`
}

func platformType(p *entity.Platform) string {
	if p.Kind == valueobject.PlatformKindDeposit {
		return TypeDepositPlatform
	}
	return TypeWithdrawalPlatform
}

func ToPlatformResource(p *entity.Platform) response.Resource {
	return response.Resource{
		Type: platformType(p),
		ID:   strconv.FormatInt(p.ID, 10),
		Attributes: PlatformAttributes{
			Kind:                  string(p.Kind),
			Name:                  p.Name,
			Symbol:                p.Symbol,
			Network:               p.Network,
			MinAmount:             p.MinAmount,
			MaxAmount:             p.MaxAmount,
			Fee:                   p.Fee,
			IsActive:              p.IsActive,
			IconURL:               p.IconURL,
			IconClass:             p.IconClass,
			RequiredConfirmations: p.RequiredConfirmations,
			CreatedAt:             p.CreatedAt,
			UpdatedAt:             p.UpdatedAt,
		},
	}
}

func ToPlatformResources(platforms []*entity.Platform) []response.Resource {
	resources := make([]response.Resource, 0, len(platforms))
	for _, p := range platforms {
		resources = append(resources, ToPlatformResource(p))
	}
	return resources
}
