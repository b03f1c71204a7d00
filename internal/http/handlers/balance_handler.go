package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/cryptopay-backend/internal/interface/http/dto"
	"github.com/ignatzorin/cryptopay-backend/internal/interface/http/response"
	"github.com/ignatzorin/cryptopay-backend/internal/usecase/balance"
)

type BalanceHandler struct {
	getBalanceUC *balance.GetBalanceUseCase
}

func NewBalanceHandler(getBalanceUC *balance.GetBalanceUseCase) *BalanceHandler {
	return &BalanceHandler{getBalanceUC: getBalanceUC}
}

// GetBalance GET /api/balance
func (h *BalanceHandler) GetBalance(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	amount, err := h.getBalanceUC.Execute(c.Request.Context(), actor.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToBalanceResource(actor.UserID, amount))
}
