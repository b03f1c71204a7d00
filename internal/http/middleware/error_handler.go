package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/cryptopay-backend/internal/interface/http/response"
)

// ErrorHandler отдаёт последнюю ошибку из c.Errors, если хэндлер сам не ответил.
// Ошибки приложения рендерятся по своему коду, остальные маскируются.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		response.Error(c, c.Errors.Last().Err)
	}
}
