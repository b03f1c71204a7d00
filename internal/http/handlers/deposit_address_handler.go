package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/cryptopay-backend/internal/interface/http/dto"
	"github.com/ignatzorin/cryptopay-backend/internal/interface/http/response"
	"github.com/ignatzorin/cryptopay-backend/internal/usecase/deposit"
)

type DepositAddressHandler struct {
	getOrCreateUC *deposit.GetOrCreateAddressUseCase
	listUC        *deposit.ListAddressesUseCase
}

func NewDepositAddressHandler(getOrCreateUC *deposit.GetOrCreateAddressUseCase, listUC *deposit.ListAddressesUseCase) *DepositAddressHandler {
	return &DepositAddressHandler{getOrCreateUC: getOrCreateUC, listUC: listUC}
}

// GetOrCreateAddress POST /api/deposit-addresses
// 201 — адрес выдан впервые, 200 — возвращён существующий активный.
func (h *DepositAddressHandler) GetOrCreateAddress(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.DepositAddressRequest
	if !bindJSON(c, &req) {
		return
	}

	address, created, err := h.getOrCreateUC.Execute(c.Request.Context(), actor.UserID, req.PlatformID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if created {
		response.Created(c, dto.ToDepositAddressResource(address))
		return
	}
	c.JSON(http.StatusOK, response.Document{Data: dto.ToDepositAddressResource(address)})
}

// ListAddresses GET /api/deposit-addresses
func (h *DepositAddressHandler) ListAddresses(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	addresses, err := h.listUC.Execute(c.Request.Context(), actor.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToDepositAddressResources(addresses))
}
