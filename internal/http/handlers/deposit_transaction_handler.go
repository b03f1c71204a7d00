package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/cryptopay-backend/internal/domain/valueobject"
	"github.com/ignatzorin/cryptopay-backend/internal/interface/http/dto"
	"github.com/ignatzorin/cryptopay-backend/internal/interface/http/response"
	"github.com/ignatzorin/cryptopay-backend/internal/usecase/deposit"
)

// DepositTransactionHandler обслуживает пополнения из блокчейна:
// просмотр для пользователей и поток событий сканера для администратора.
type DepositTransactionHandler struct {
	detectUC        *deposit.DetectDepositUseCase
	confirmationsUC *deposit.UpdateConfirmationsUseCase
	confirmUC       *deposit.ConfirmDepositUseCase
	completeUC      *deposit.CompleteDepositUseCase
	closeUC         *deposit.CloseDepositUseCase
	creditedUC      *deposit.SetCreditedAmountUseCase
	getUC           *deposit.GetDepositTransactionUseCase
	listUC          *deposit.ListDepositTransactionsUseCase
}

func NewDepositTransactionHandler(
	detectUC *deposit.DetectDepositUseCase,
	confirmationsUC *deposit.UpdateConfirmationsUseCase,
	confirmUC *deposit.ConfirmDepositUseCase,
	completeUC *deposit.CompleteDepositUseCase,
	closeUC *deposit.CloseDepositUseCase,
	creditedUC *deposit.SetCreditedAmountUseCase,
	getUC *deposit.GetDepositTransactionUseCase,
	listUC *deposit.ListDepositTransactionsUseCase,
) *DepositTransactionHandler {
	return &DepositTransactionHandler{
		detectUC:        detectUC,
		confirmationsUC: confirmationsUC,
		confirmUC:       confirmUC,
		completeUC:      completeUC,
		closeUC:         closeUC,
		creditedUC:      creditedUC,
		getUC:           getUC,
		listUC:          listUC,
	}
}

// ListDepositTransactions GET /api/deposit-transactions и GET /api/admin/deposit-transactions.
func (h *DepositTransactionHandler) ListDepositTransactions(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	filter, ok := listFilter(c)
	if !ok {
		return
	}

	items, total, err := h.listUC.Execute(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, dto.ToDepositTransactionResources(items), total, filter.Limit, filter.Offset)
}

// GetDepositTransaction GET /api/deposit-transactions/:id
func (h *DepositTransactionHandler) GetDepositTransaction(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	tx, err := h.getUC.Execute(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToDepositTransactionResource(tx))
}

// DetectDeposit POST /api/admin/deposit-transactions
func (h *DepositTransactionHandler) DetectDeposit(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.DetectDepositRequest
	if !bindJSON(c, &req) {
		return
	}

	tx, err := h.detectUC.Execute(c.Request.Context(), actor, req.ToInput())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToDepositTransactionResource(tx))
}

// UpdateConfirmations PUT /api/admin/deposit-transactions/:id/confirmations
func (h *DepositTransactionHandler) UpdateConfirmations(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req dto.ConfirmationsRequest
	if !bindJSON(c, &req) {
		return
	}

	tx, err := h.confirmationsUC.Execute(c.Request.Context(), actor, id, *req.Confirmations)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToDepositTransactionResource(tx))
}

// ConfirmDeposit POST /api/admin/deposit-transactions/:id/confirm
func (h *DepositTransactionHandler) ConfirmDeposit(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	tx, err := h.confirmUC.Execute(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToDepositTransactionResource(tx))
}

// CompleteDeposit POST /api/admin/deposit-transactions/:id/complete
func (h *DepositTransactionHandler) CompleteDeposit(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	tx, err := h.completeUC.Execute(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToDepositTransactionResource(tx))
}

// FailDeposit POST /api/admin/deposit-transactions/:id/fail
func (h *DepositTransactionHandler) FailDeposit(c *gin.Context) {
	h.close(c, valueobject.TransactionStatusFailed)
}

// CancelDeposit POST /api/admin/deposit-transactions/:id/cancel
func (h *DepositTransactionHandler) CancelDeposit(c *gin.Context) {
	h.close(c, valueobject.TransactionStatusCancelled)
}

func (h *DepositTransactionHandler) close(c *gin.Context, status valueobject.TransactionStatus) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req dto.CloseDepositRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	tx, err := h.closeUC.Execute(c.Request.Context(), actor, id, status, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToDepositTransactionResource(tx))
}

// SetCreditedAmount PUT /api/admin/deposit-transactions/:id/credited-amount
func (h *DepositTransactionHandler) SetCreditedAmount(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req dto.CreditedAmountRequest
	if !bindJSON(c, &req) {
		return
	}

	tx, err := h.creditedUC.Execute(c.Request.Context(), actor, id, req.CreditedAmount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToDepositTransactionResource(tx))
}
