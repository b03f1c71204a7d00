package dto

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/cryptopay-backend/internal/domain/entity"
	"github.com/ignatzorin/cryptopay-backend/internal/interface/http/response"
)

const TypeWithdrawalRequest = "withdrawal-requests"

type CreateWithdrawalRequest struct {
	PlatformID     int64           `json:"platformId" binding:"required"`
	Amount         decimal.Decimal `json:"amount"`
	AccountDetails string          `json:"accountDetails"`
	Message        string          `json:"message"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type WithdrawalAttributes struct {
	UserID         uuid.UUID       `json:"userId"`
	PlatformID     int64           `json:"platformId"`
	Amount         decimal.Decimal `json:"amount"`
	Fee            decimal.Decimal `json:"fee"`
	Total          decimal.Decimal `json:"total"`
	AccountDetails string          `json:"accountDetails"`
	Message        string          `json:"message"`
	Status         string          `json:"status"`
	ProcessedBy    *uuid.UUID      `json:"processedBy"`
	ProcessedAt    *time.Time      `json:"processedAt"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func ToWithdrawalResource(w *entity.WithdrawalRequest) response.Resource {
	return response.Resource{
		Type: TypeWithdrawalRequest,
		ID:   strconv.FormatInt(w.ID, 10),
		Attributes: WithdrawalAttributes{
			UserID:         w.UserID,
			PlatformID:     w.PlatformID,
			Amount:         w.Amount,
			Fee:            w.Fee,
			Total:          w.DebitTotal(),
			AccountDetails: w.AccountDetails,
			Message:        w.Message,
			Status:         string(w.Status),
			ProcessedBy:    w.ProcessedBy,
			ProcessedAt:    w.ProcessedAt,
			CreatedAt:      w.CreatedAt,
			UpdatedAt:      w.UpdatedAt,
		},
	}
}

func ToWithdrawalResources(requests []*entity.WithdrawalRequest) []response.Resource {
	resources := make([]response.Resource, 0, len(requests))
	for _, w := range requests {
		resources = append(resources, ToWithdrawalResource(w))
	}
	return resources
}
