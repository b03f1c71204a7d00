package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/cryptopay-backend/internal/interface/http/dto"
	"github.com/ignatzorin/cryptopay-backend/internal/interface/http/response"
	"github.com/ignatzorin/cryptopay-backend/internal/storage"
	"github.com/ignatzorin/cryptopay-backend/internal/usecase/deposit"
)

type DepositRecordHandler struct {
	createUC       *deposit.CreateDepositRecordUseCase
	updateStatusUC *deposit.UpdateDepositRecordStatusUseCase
	deleteUC       *deposit.DeleteDepositRecordUseCase
	getUC          *deposit.GetDepositRecordUseCase
	listUC         *deposit.ListDepositRecordsUseCase
	screenshots    *storage.ScreenshotStorage
}

func NewDepositRecordHandler(
	createUC *deposit.CreateDepositRecordUseCase,
	updateStatusUC *deposit.UpdateDepositRecordStatusUseCase,
	deleteUC *deposit.DeleteDepositRecordUseCase,
	getUC *deposit.GetDepositRecordUseCase,
	listUC *deposit.ListDepositRecordsUseCase,
	screenshots *storage.ScreenshotStorage,
) *DepositRecordHandler {
	return &DepositRecordHandler{
		createUC:       createUC,
		updateStatusUC: updateStatusUC,
		deleteUC:       deleteUC,
		getUC:          getUC,
		listUC:         listUC,
		screenshots:    screenshots,
	}
}

// CreateDepositRecord POST /api/deposit-records
func (h *DepositRecordHandler) CreateDepositRecord(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.CreateDepositRecordRequest
	if !bindJSON(c, &req) {
		return
	}

	created, err := h.createUC.Execute(c.Request.Context(), req.ToInput(actor.UserID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToDepositRecordResource(created))
}

// UploadScreenshot POST /api/deposit-records/screenshot (multipart, поле file).
// Возвращает ссылку, которую клиент передаёт в screenshotUrl.
func (h *DepositRecordHandler) UploadScreenshot(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "поле file обязательно")
		return
	}
	if file.Size == 0 {
		response.BadRequest(c, "файл не может быть пустым")
		return
	}
	if file.Size > h.screenshots.MaxUploadBytes() {
		response.BadRequest(c, "размер файла превышает лимит")
		return
	}

	src, err := file.Open()
	if err != nil {
		response.Error(c, err)
		return
	}
	defer src.Close()

	shot, err := h.screenshots.Save(c.Request.Context(), actor.UserID, src)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, response.Resource{
		Type: "screenshots",
		ID:   shot.Path,
		Attributes: dto.ScreenshotAttributes{
			URL:  shot.URL,
			Size: shot.Size,
			Mime: shot.Mime,
		},
	})
}

// ListDepositRecords GET /api/deposit-records и GET /api/admin/deposit-records.
func (h *DepositRecordHandler) ListDepositRecords(c *gin.Context) {
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
	response.Paginated(c, dto.ToDepositRecordResources(items), total, filter.Limit, filter.Offset)
}

// GetDepositRecord GET /api/deposit-records/:id
func (h *DepositRecordHandler) GetDepositRecord(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	record, err := h.getUC.Execute(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToDepositRecordResource(record))
}

// UpdateDepositRecordStatus PUT /api/admin/deposit-records/:id
func (h *DepositRecordHandler) UpdateDepositRecordStatus(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req dto.UpdateDepositRecordRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := h.updateStatusUC.Execute(c.Request.Context(), actor, deposit.UpdateDepositRecordStatusInput{
		ID:             id,
		Status:         req.Status,
		CreditedAmount: req.CreditedAmount,
		AdminNotes:     req.AdminNotes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToDepositRecordResource(updated))
}

// DeleteDepositRecord DELETE /api/deposit-records/:id и /api/admin/deposit-records/:id
func (h *DepositRecordHandler) DeleteDepositRecord(c *gin.Context) {
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
