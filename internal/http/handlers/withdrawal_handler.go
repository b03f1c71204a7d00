package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/cryptopay-backend/internal/interface/http/dto"
	"github.com/ignatzorin/cryptopay-backend/internal/interface/http/response"
	"github.com/ignatzorin/cryptopay-backend/internal/usecase/withdrawal"
)

type WithdrawalHandler struct {
	createUC       *withdrawal.CreateWithdrawalUseCase
	updateStatusUC *withdrawal.UpdateWithdrawalStatusUseCase
	deleteUC       *withdrawal.DeleteWithdrawalUseCase
	getUC          *withdrawal.GetWithdrawalUseCase
	listUC         *withdrawal.ListWithdrawalsUseCase
}

func NewWithdrawalHandler(
	createUC *withdrawal.CreateWithdrawalUseCase,
	updateStatusUC *withdrawal.UpdateWithdrawalStatusUseCase,
	deleteUC *withdrawal.DeleteWithdrawalUseCase,
	getUC *withdrawal.GetWithdrawalUseCase,
	listUC *withdrawal.ListWithdrawalsUseCase,
) *WithdrawalHandler {
	return &WithdrawalHandler{
		createUC:       createUC,
		updateStatusUC: updateStatusUC,
		deleteUC:       deleteUC,
		getUC:          getUC,
		listUC:         listUC,
	}
}

// CreateWithdrawal POST /api/withdrawal-requests
func (h *WithdrawalHandler) CreateWithdrawal(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.CreateWithdrawalRequest
	if !bindJSON(c, &req) {
		return
	}

	created, err := h.createUC.Execute(c.Request.Context(), withdrawal.CreateWithdrawalInput{
		UserID:         actor.UserID,
		PlatformID:     req.PlatformID,
		Amount:         req.Amount,
		AccountDetails: req.AccountDetails,
		Message:        req.Message,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToWithdrawalResource(created))
}

// ListWithdrawals GET /api/withdrawal-requests и GET /api/admin/withdrawal-requests.
// Для обычного пользователя список всегда ограничен его заявками.
func (h *WithdrawalHandler) ListWithdrawals(c *gin.Context) {
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
	response.Paginated(c, dto.ToWithdrawalResources(items), total, filter.Limit, filter.Offset)
}

// GetWithdrawal GET /api/withdrawal-requests/:id
func (h *WithdrawalHandler) GetWithdrawal(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	w, err := h.getUC.Execute(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToWithdrawalResource(w))
}

// UpdateWithdrawalStatus PUT /api/admin/withdrawal-requests/:id
func (h *WithdrawalHandler) UpdateWithdrawalStatus(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req dto.UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := h.updateStatusUC.Execute(c.Request.Context(), actor, id, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToWithdrawalResource(updated))
}

// DeleteWithdrawal DELETE /api/withdrawal-requests/:id и /api/admin/withdrawal-requests/:id
func (h *WithdrawalHandler) DeleteWithdrawal(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.deleteUC.Execute(c.Request.Context(), actor, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
