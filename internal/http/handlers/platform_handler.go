package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/cryptopay-backend/internal/domain/valueobject"
	"github.com/ignatzorin/cryptopay-backend/internal/interface/http/dto"
	"github.com/ignatzorin/cryptopay-backend/internal/interface/http/response"
	"github.com/ignatzorin/cryptopay-backend/internal/usecase/platform"
)

type PlatformHandler struct {
	createUC *platform.CreatePlatformUseCase
	updateUC *platform.UpdatePlatformUseCase
	deleteUC *platform.DeletePlatformUseCase
	getUC    *platform.GetPlatformUseCase
	listUC   *platform.ListPlatformsUseCase
}

func NewPlatformHandler(
	createUC *platform.CreatePlatformUseCase,
	updateUC *platform.UpdatePlatformUseCase,
	deleteUC *platform.DeletePlatformUseCase,
	getUC *platform.GetPlatformUseCase,
	listUC *platform.ListPlatformsUseCase,
) *PlatformHandler {
	return &PlatformHandler{
		createUC: createUC,
		updateUC: updateUC,
		deleteUC: deleteUC,
		getUC:    getUC,
		listUC:   listUC,
	}
}

// ListWithdrawalPlatforms GET /api/withdrawal-platforms
func (h *PlatformHandler) ListWithdrawalPlatforms(c *gin.Context) {
	h.listActive(c, valueobject.PlatformKindWithdrawal)
}

// ListDepositPlatforms GET /api/deposit-platforms
func (h *PlatformHandler) ListDepositPlatforms(c *gin.Context) {
	h.listActive(c, valueobject.PlatformKindDeposit)
}

func (h *PlatformHandler) listActive(c *gin.Context, kind valueobject.PlatformKind) {
	platforms, err := h.listUC.Execute(c.Request.Context(), kind, true)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToPlatformResources(platforms))
}

// AdminListPlatforms GET /api/admin/platforms?kind=
func (h *PlatformHandler) AdminListPlatforms(c *gin.Context) {
	var kind valueobject.PlatformKind
	if raw := c.Query("kind"); raw != "" {
		k, err := valueobject.NewPlatformKind(raw)
		if err != nil {
			response.Error(c, err)
			return
		}
		kind = k
	}

	platforms, err := h.listUC.Execute(c.Request.Context(), kind, false)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToPlatformResources(platforms))
}

// GetPlatform GET /api/admin/platforms/:id
func (h *PlatformHandler) GetPlatform(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	p, err := h.getUC.Execute(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToPlatformResource(p))
}

// CreatePlatform POST /api/admin/platforms
func (h *PlatformHandler) CreatePlatform(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.CreatePlatformRequest
	if !bindJSON(c, &req) {
		return
	}

	created, err := h.createUC.Execute(c.Request.Context(), actor, req.ToInput())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToPlatformResource(created))
}

// UpdatePlatform PUT /api/admin/platforms/:id
func (h *PlatformHandler) UpdatePlatform(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req dto.UpdatePlatformRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := h.updateUC.Execute(c.Request.Context(), actor, req.ToInput(id))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToPlatformResource(updated))
}

// DeletePlatform DELETE /api/admin/platforms/:id
func (h *PlatformHandler) DeletePlatform(c *gin.Context) {
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
