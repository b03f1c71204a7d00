package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/cryptopay-backend/internal/config"
	"github.com/ignatzorin/cryptopay-backend/internal/http/handlers"
	"github.com/ignatzorin/cryptopay-backend/internal/http/middleware"
)

// Handlers — все HTTP-обработчики приложения.
type Handlers struct {
	Health             *handlers.HealthHandler
	WS                 *handlers.WSHandler
	Platform           *handlers.PlatformHandler
	Withdrawal         *handlers.WithdrawalHandler
	DepositRecord      *handlers.DepositRecordHandler
	DepositTransaction *handlers.DepositTransactionHandler
	DepositAddress     *handlers.DepositAddressHandler
	Balance            *handlers.BalanceHandler
}

func SetupRouter(cfg *config.Config, h Handlers, tokens middleware.TokenParser) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", h.Health.Health)
	r.StaticFS(cfg.UploadPublicURL, http.Dir(cfg.UploadDir))

	api := r.Group("/api")

	// Токен передаётся в query, авторизация внутри обработчика.
	api.GET("/ws", h.WS.Handle)

	// Заявки создаются с ограничением частоты.
	submit := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)
	id := middleware.IDValidator("id")

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokens))
	{
		protected.GET("/withdrawal-platforms", h.Platform.ListWithdrawalPlatforms)
		protected.GET("/deposit-platforms", h.Platform.ListDepositPlatforms)

		protected.POST("/withdrawal-requests", submit, h.Withdrawal.CreateWithdrawal)
		protected.GET("/withdrawal-requests", h.Withdrawal.ListWithdrawals)
		protected.GET("/withdrawal-requests/:id", id, h.Withdrawal.GetWithdrawal)
		protected.DELETE("/withdrawal-requests/:id", id, h.Withdrawal.DeleteWithdrawal)

		protected.POST("/deposit-records", submit, h.DepositRecord.CreateDepositRecord)
		protected.POST("/deposit-records/screenshot", submit, h.DepositRecord.UploadScreenshot)
		protected.GET("/deposit-records", h.DepositRecord.ListDepositRecords)
		protected.GET("/deposit-records/:id", id, h.DepositRecord.GetDepositRecord)
		protected.DELETE("/deposit-records/:id", id, h.DepositRecord.DeleteDepositRecord)

		protected.GET("/deposit-transactions", h.DepositTransaction.ListDepositTransactions)
		protected.GET("/deposit-transactions/:id", id, h.DepositTransaction.GetDepositTransaction)

		protected.POST("/deposit-addresses", submit, h.DepositAddress.GetOrCreateAddress)
		protected.GET("/deposit-addresses", h.DepositAddress.ListAddresses)

		protected.GET("/balance", h.Balance.GetBalance)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(tokens), middleware.RequireAdmin())
	{
		admin.GET("/platforms", h.Platform.AdminListPlatforms)
		admin.POST("/platforms", h.Platform.CreatePlatform)
		admin.GET("/platforms/:id", id, h.Platform.GetPlatform)
		admin.PUT("/platforms/:id", id, h.Platform.UpdatePlatform)
		admin.DELETE("/platforms/:id", id, h.Platform.DeletePlatform)

		admin.GET("/withdrawal-requests", h.Withdrawal.ListWithdrawals)
		admin.GET("/withdrawal-requests/:id", id, h.Withdrawal.GetWithdrawal)
		admin.PUT("/withdrawal-requests/:id", id, h.Withdrawal.UpdateWithdrawalStatus)
		admin.DELETE("/withdrawal-requests/:id", id, h.Withdrawal.DeleteWithdrawal)

		admin.GET("/deposit-records", h.DepositRecord.ListDepositRecords)
		admin.GET("/deposit-records/:id", id, h.DepositRecord.GetDepositRecord)
		admin.PUT("/deposit-records/:id", id, h.DepositRecord.UpdateDepositRecordStatus)
		admin.DELETE("/deposit-records/:id", id, h.DepositRecord.DeleteDepositRecord)

		admin.GET("/deposit-transactions", h.DepositTransaction.ListDepositTransactions)
		admin.POST("/deposit-transactions", h.DepositTransaction.DetectDeposit)
		admin.GET("/deposit-transactions/:id", id, h.DepositTransaction.GetDepositTransaction)
		admin.PUT("/deposit-transactions/:id/confirmations", id, h.DepositTransaction.UpdateConfirmations)
		admin.PUT("/deposit-transactions/:id/credited-amount", id, h.DepositTransaction.SetCreditedAmount)
		admin.POST("/deposit-transactions/:id/confirm", id, h.DepositTransaction.ConfirmDeposit)
		admin.POST("/deposit-transactions/:id/complete", id, h.DepositTransaction.CompleteDeposit)
		admin.POST("/deposit-transactions/:id/fail", id, h.DepositTransaction.FailDeposit)
		admin.POST("/deposit-transactions/:id/cancel", id, h.DepositTransaction.CancelDeposit)
	}

	return r
}
