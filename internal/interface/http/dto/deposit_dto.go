package dto

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/cryptopay-backend/internal/domain/entity"
	"github.com/ignatzorin/cryptopay-backend/internal/interface/http/response"
	"github.com/ignatzorin/cryptopay-backend/internal/usecase/deposit"
)

const (
	TypeDepositRecord      = "deposit-records"
	TypeDepositTransaction = "deposit-transactions"
	TypeDepositAddress     = "deposit-addresses"
)

type CreateDepositRecordRequest struct {
	PlatformID      *int64           `json:"platformId"`
	PlatformAccount string           `json:"platformAccount"`
	RealName        *string          `json:"realName"`
	Amount          *decimal.Decimal `json:"amount"`
	DepositTime     string           `json:"depositTime"`
	ScreenshotURL   *string          `json:"screenshotUrl"`
	UserMessage     *string          `json:"userMessage"`
}

func (r CreateDepositRecordRequest) ToInput(userID uuid.UUID) deposit.CreateDepositRecordInput {
	return deposit.CreateDepositRecordInput{
		UserID:          userID,
		PlatformID:      r.PlatformID,
		PlatformAccount: r.PlatformAccount,
		RealName:        r.RealName,
		Amount:          r.Amount,
		DepositTime:     r.DepositTime,
		ScreenshotURL:   r.ScreenshotURL,
		UserMessage:     r.UserMessage,
	}
}

type UpdateDepositRecordRequest struct {
	Status         string           `json:"status" binding:"required"`
	CreditedAmount *decimal.Decimal `json:"creditedAmount"`
	AdminNotes     *string          `json:"adminNotes"`
}

type DepositRecordAttributes struct {
	UserID          uuid.UUID        `json:"userId"`
	PlatformID      int64            `json:"platformId"`
	PlatformAccount string           `json:"platformAccount"`
	RealName        *string          `json:"realName"`
	Amount          decimal.Decimal  `json:"amount"`
	DepositTime     time.Time        `json:"depositTime"`
	ScreenshotURL   *string          `json:"screenshotUrl"`
	UserMessage     *string          `json:"userMessage"`
	Status          string           `json:"status"`
	AdminNotes      *string          `json:"adminNotes"`
	CreditedAmount  *decimal.Decimal `json:"creditedAmount"`
	ProcessedBy     *uuid.UUID       `json:"processedBy"`
	ProcessedAt     *time.Time       `json:"processedAt"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

func ToDepositRecordResource(r *entity.DepositRecord) response.Resource {
	return response.Resource{
		Type: TypeDepositRecord,
		ID:   strconv.FormatInt(r.ID, 10),
		Attributes: DepositRecordAttributes{
			UserID:          r.UserID,
			PlatformID:      r.PlatformID,
			PlatformAccount: r.PlatformAccount,
			RealName:        r.RealName,
			Amount:          r.Amount,
			DepositTime:     r.DepositTime,
			ScreenshotURL:   r.ScreenshotURL,
			UserMessage:     r.UserMessage,
			Status:          string(r.Status),
			AdminNotes:      r.AdminNotes,
			CreditedAmount:  r.CreditedAmount,
			ProcessedBy:     r.ProcessedBy,
			ProcessedAt:     r.ProcessedAt,
			CreatedAt:       r.CreatedAt,
			UpdatedAt:       r.UpdatedAt,
		},
	}
}

func ToDepositRecordResources(records []*entity.DepositRecord) []response.Resource {
	resources := make([]response.Resource, 0, len(records))
	for _, r := range records {
		resources = append(resources, ToDepositRecordResource(r))
	}
	return resources
}

// DetectDepositRequest — данные сканера блокчейна.
type DetectDepositRequest struct {
	UserID          *uuid.UUID       `json:"userId"`
	AddressID       *int64           `json:"addressId"`
	PlatformID      int64            `json:"platformId"`
	TransactionHash string           `json:"transactionHash"`
	Amount          decimal.Decimal  `json:"amount"`
	Fee             *decimal.Decimal `json:"fee"`
	Confirmations   int              `json:"confirmations"`
	BlockchainData  types.JSONText   `json:"blockchainData"`
}

func (r DetectDepositRequest) ToInput() deposit.DetectDepositInput {
	return deposit.DetectDepositInput{
		UserID:          r.UserID,
		AddressID:       r.AddressID,
		PlatformID:      r.PlatformID,
		TransactionHash: r.TransactionHash,
		Amount:          r.Amount,
		Fee:             r.Fee,
		Confirmations:   r.Confirmations,
		BlockchainData:  r.BlockchainData,
	}
}

type ConfirmationsRequest struct {
	Confirmations *int `json:"confirmations" binding:"required"`
}

type CloseDepositRequest struct {
	Reason string `json:"reason"`
}

type CreditedAmountRequest struct {
	CreditedAmount decimal.Decimal `json:"creditedAmount"`
}

type DepositTransactionAttributes struct {
	UserID                uuid.UUID        `json:"userId"`
	PlatformID            int64            `json:"platformId"`
	AddressID             *int64           `json:"addressId"`
	Amount                decimal.Decimal  `json:"amount"`
	Fee                   decimal.Decimal  `json:"fee"`
	CreditedAmount        *decimal.Decimal `json:"creditedAmount"`
	TransactionHash       string           `json:"transactionHash"`
	Confirmations         int              `json:"confirmations"`
	RequiredConfirmations int              `json:"requiredConfirmations"`
	Status                string           `json:"status"`
	BlockchainData        types.JSONText   `json:"blockchainData"`
	Notes                 *string          `json:"notes"`
	DetectedAt            *time.Time       `json:"detectedAt"`
	ConfirmedAt           *time.Time       `json:"confirmedAt"`
	CompletedAt           *time.Time       `json:"completedAt"`
	ProcessedBy           *uuid.UUID       `json:"processedBy"`
	CreatedAt             time.Time        `json:"createdAt"`
	UpdatedAt             time.Time        `json:"updatedAt"`
}

func ToDepositTransactionResource(tx *entity.DepositTransaction) response.Resource {
	data := tx.BlockchainData
	if len(data) == 0 {
		data = types.JSONText(`{}`)
	}
	return response.Resource{
		Type: TypeDepositTransaction,
		ID:   strconv.FormatInt(tx.ID, 10),
		Attributes: DepositTransactionAttributes{
			UserID:                tx.UserID,
			PlatformID:            tx.PlatformID,
			AddressID:             tx.AddressID,
			Amount:                tx.Amount,
			Fee:                   tx.Fee,
			CreditedAmount:        tx.CreditedAmount,
			TransactionHash:       tx.TransactionHash,
			Confirmations:         tx.Confirmations,
			RequiredConfirmations: tx.RequiredConfirmations,
			Status:                string(tx.Status),
			BlockchainData:        data,
			Notes:                 tx.Notes,
			DetectedAt:            tx.DetectedAt,
			ConfirmedAt:           tx.ConfirmedAt,
			CompletedAt:           tx.CompletedAt,
			ProcessedBy:           tx.ProcessedBy,
			CreatedAt:             tx.CreatedAt,
			UpdatedAt:             tx.UpdatedAt,
		},
	}
}

func ToDepositTransactionResources(txs []*entity.DepositTransaction) []response.Resource {
	resources := make([]response.Resource, 0, len(txs))
	for _, tx := range txs {
		resources = append(resources, ToDepositTransactionResource(tx))
	}
	return resources
}

type DepositAddressRequest struct {
	PlatformID int64 `json:"platformId" binding:"required"`
}

type DepositAddressAttributes struct {
	UserID     uuid.UUID  `json:"userId"`
	PlatformID int64      `json:"platformId"`
	Address    string     `json:"address"`
	Tag        *string    `json:"tag"`
	IsActive   bool       `json:"isActive"`
	LastUsedAt *time.Time `json:"lastUsedAt"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func ToDepositAddressResource(a *entity.DepositAddress) response.Resource {
	return response.Resource{
		Type: TypeDepositAddress,
		ID:   strconv.FormatInt(a.ID, 10),
		Attributes: DepositAddressAttributes{
			UserID:     a.UserID,
			PlatformID: a.PlatformID,
			Address:    a.Address,
			Tag:        a.Tag,
			IsActive:   a.IsActive,
			LastUsedAt: a.LastUsedAt,
			CreatedAt:  a.CreatedAt,
		},
	}
}

func ToDepositAddressResources(addresses []*entity.DepositAddress) []response.Resource {
	resources := make([]response.Resource, 0, len(addresses))
	for _, a := range addresses {
		resources = append(resources, ToDepositAddressResource(a))
	}
	return resources
}

// ScreenshotAttributes — результат загрузки скриншота.
type ScreenshotAttributes struct {
	URL  string `json:"url"`
	Size int64  `json:"size"`
	Mime string `json:"mime"`
}

type BalanceAttributes struct {
	Balance decimal.Decimal `json:"balance"`
}

func ToBalanceResource(userID uuid.UUID, balance decimal.Decimal) response.Resource {
	return response.Resource{
		Type:       "balances",
		ID:         userID.String(),
		Attributes: BalanceAttributes{Balance: balance},
	}
}
