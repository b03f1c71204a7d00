package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/cryptopay-backend/internal/domain/entity"
	"github.com/ignatzorin/cryptopay-backend/internal/domain/repository"
	"github.com/ignatzorin/cryptopay-backend/internal/http/handlers/common"
	"github.com/ignatzorin/cryptopay-backend/internal/interface/http/response"
)

// currentActor возвращает текущего пользователя или отвечает 401.
func currentActor(c *gin.Context) (entity.Actor, bool) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Unauthorized(c, "требуется авторизация")
		return entity.Actor{}, false
	}
	return actor, true
}

// pathID разбирает :id или отвечает 400.
func pathID(c *gin.Context) (int64, bool) {
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		response.BadRequest(c, "некорректный идентификатор")
		return 0, false
	}
	return id, true
}

// bindJSON разбирает тело запроса или отвечает 400.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return false
	}
	return true
}

func listFilter(c *gin.Context) (repository.RequestFilter, bool) {
	filter, err := common.RequestFilter(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return filter, false
	}
	return filter, true
}
