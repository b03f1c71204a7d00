package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/cryptopay-backend/internal/config"
	"github.com/ignatzorin/cryptopay-backend/internal/db"
	"github.com/ignatzorin/cryptopay-backend/internal/goroutine"
	httpHandlers "github.com/ignatzorin/cryptopay-backend/internal/http/handlers"
	httpRouter "github.com/ignatzorin/cryptopay-backend/internal/http/router"
	"github.com/ignatzorin/cryptopay-backend/internal/infrastructure/address"
	"github.com/ignatzorin/cryptopay-backend/internal/infrastructure/persistence"
	"github.com/ignatzorin/cryptopay-backend/internal/logger"
	"github.com/ignatzorin/cryptopay-backend/internal/service"
	"github.com/ignatzorin/cryptopay-backend/internal/storage"
	"github.com/ignatzorin/cryptopay-backend/internal/usecase/balance"
	"github.com/ignatzorin/cryptopay-backend/internal/usecase/deposit"
	"github.com/ignatzorin/cryptopay-backend/internal/usecase/platform"
	"github.com/ignatzorin/cryptopay-backend/internal/usecase/withdrawal"
	"github.com/ignatzorin/cryptopay-backend/internal/ws"
	"github.com/ignatzorin/cryptopay-backend/migrations"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	logger.Init(cfg.LogLevel)
	if !cfg.IsProduction() {
		logger.SetTextFormatter()
	}
	goroutine.SetLogger(logger.Errorf{})

	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, migrationsFS(cfg.MigrationsPath)); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	cache := service.NewCacheService()
	defer cache.Close()

	screenshots, err := storage.NewScreenshotStorage(cfg.UploadDir, cfg.UploadPublicURL, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: не удалось подготовить хранилище скриншотов: %v", err)
	}
	generator, err := addressGenerator(cfg)
	if err != nil {
		log.Fatalf("main: генератор адресов: %v", err)
	}

	// Репозитории.
	platformRepo := persistence.NewPlatformRepositoryAdapter(dbConn)
	withdrawalRepo := persistence.NewWithdrawalRepositoryAdapter(dbConn)
	recordRepo := persistence.NewDepositRecordRepositoryAdapter(dbConn)
	txRepo := persistence.NewDepositTransactionRepositoryAdapter(dbConn)
	addressRepo := persistence.NewDepositAddressRepositoryAdapter(dbConn)
	balanceRepo := persistence.NewBalanceRepositoryAdapter(dbConn)

	if cfg.PlatformsFile != "" {
		seedPlatforms(ctx, cfg.PlatformsFile, platform.NewSeedPlatformsUseCase(platformRepo, cache))
	}

	hub := ws.NewHub(ctx)
	go hub.Run()
	notifier := ws.NewNotifier(hub)

	policy := deposit.ConfirmationPolicy{
		Default:      cfg.DefaultConfirmations,
		ByNetwork:    cfg.NetworkConfirmations,
		AutoComplete: cfg.DepositAutoComplete,
	}

	handlers := httpRouter.Handlers{
		Health: httpHandlers.NewHealthHandler(dbConn),
		WS:     httpHandlers.NewWSHandler(hub, tokenManager, cfg.AllowedOrigins),
		Platform: httpHandlers.NewPlatformHandler(
			platform.NewCreatePlatformUseCase(platformRepo, cache),
			platform.NewUpdatePlatformUseCase(platformRepo, cache),
			platform.NewDeletePlatformUseCase(platformRepo, cache),
			platform.NewGetPlatformUseCase(platformRepo),
			platform.NewListPlatformsUseCase(platformRepo, cache, cfg.PlatformCacheTTL),
		),
		Withdrawal: httpHandlers.NewWithdrawalHandler(
			withdrawal.NewCreateWithdrawalUseCase(withdrawalRepo, platformRepo, balanceRepo),
			withdrawal.NewUpdateWithdrawalStatusUseCase(withdrawalRepo, notifier),
			withdrawal.NewDeleteWithdrawalUseCase(withdrawalRepo),
			withdrawal.NewGetWithdrawalUseCase(withdrawalRepo),
			withdrawal.NewListWithdrawalsUseCase(withdrawalRepo),
		),
		DepositRecord: httpHandlers.NewDepositRecordHandler(
			deposit.NewCreateDepositRecordUseCase(recordRepo, platformRepo),
			deposit.NewUpdateDepositRecordStatusUseCase(recordRepo, notifier),
			deposit.NewDeleteDepositRecordUseCase(recordRepo),
			deposit.NewGetDepositRecordUseCase(recordRepo),
			deposit.NewListDepositRecordsUseCase(recordRepo),
			screenshots,
		),
		DepositTransaction: httpHandlers.NewDepositTransactionHandler(
			deposit.NewDetectDepositUseCase(txRepo, platformRepo, addressRepo, policy, notifier),
			deposit.NewUpdateConfirmationsUseCase(txRepo, policy, notifier),
			deposit.NewConfirmDepositUseCase(txRepo, notifier),
			deposit.NewCompleteDepositUseCase(txRepo, notifier),
			deposit.NewCloseDepositUseCase(txRepo, notifier),
			deposit.NewSetCreditedAmountUseCase(txRepo),
			deposit.NewGetDepositTransactionUseCase(txRepo),
			deposit.NewListDepositTransactionsUseCase(txRepo),
		),
		DepositAddress: httpHandlers.NewDepositAddressHandler(
			deposit.NewGetOrCreateAddressUseCase(addressRepo, platformRepo, generator),
			deposit.NewListAddressesUseCase(addressRepo),
		),
		Balance: httpHandlers.NewBalanceHandler(balance.NewGetBalanceUseCase(balanceRepo)),
	}

	engine := httpRouter.SetupRouter(cfg, handlers, tokenManager)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WithFields(logrus.Fields{"error": err}).Error("HTTP server shutdown failed")
		}
	}()

	logger.WithFields(logrus.Fields{"port": cfg.HTTPPort, "env": cfg.Env}).Info("HTTP server started")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
	logger.WithFields(logrus.Fields{}).Info("HTTP server stopped")
}

// addressGenerator выбирает источник адресов пополнения. Без кастодиального
// сервиса в production выдача адресов отключена.
func addressGenerator(cfg *config.Config) (deposit.AddressGenerator, error) {
	if !cfg.DevAddresses {
		logger.WithFields(logrus.Fields{}).Warn("Deposit address issuing disabled: no custody service configured")
		return address.Disabled{}, nil
	}
	logger.WithFields(logrus.Fields{}).Warn("Using development deposit address generator, addresses have no keys")
	return address.NewHMACGenerator(cfg.AddressSecret)
}

// migrationsFS возвращает каталог миграций из MIGRATIONS_PATH или встроенные.
func migrationsFS(path string) fs.FS {
	if path != "" {
		return os.DirFS(path)
	}
	return migrations.FS
}

func seedPlatforms(ctx context.Context, path string, uc *platform.SeedPlatformsUseCase) {
	seeds, err := config.LoadPlatformSeeds(path)
	if err != nil {
		log.Fatalf("main: файл платформ: %v", err)
	}

	inputs := make([]platform.CreatePlatformInput, 0, len(seeds))
	for _, s := range seeds {
		inputs = append(inputs, platform.CreatePlatformInput{
			Kind:                  s.Kind,
			Name:                  s.Name,
			Symbol:                s.Symbol,
			Network:               s.Network,
			MinAmount:             s.MinAmount,
			MaxAmount:             s.MaxAmount,
			Fee:                   s.Fee,
			IsActive:              s.IsActive,
			IconURL:               s.IconURL,
			IconClass:             s.IconClass,
			RequiredConfirmations: s.RequiredConfirmations,
		})
	}

	if _, err := uc.Execute(ctx, inputs); err != nil {
		log.Fatalf("main: не удалось загрузить платформы: %v", err)
	}
}

func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
