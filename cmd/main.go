package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Divoolej/prtrade/conf"
	"github.com/Divoolej/prtrade/internal/gateway"
	"github.com/Divoolej/prtrade/internal/models"
	"github.com/Divoolej/prtrade/internal/repository"
	"github.com/Divoolej/prtrade/internal/service"
	"github.com/Divoolej/prtrade/internal/web"
)

// main конфигурирует сервис, поднимает кеш, шлюз GitHub, сервисы и
// HTTP-сервер, а затем управляет их жизненным циклом.
func main() {
	// Берём путь до конфигурации из окружения либо используем значение по умолчанию.
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "./conf/config.json"
	}

	// Загружаем конфигурацию.
	config := conf.MustLoad(cfgPath)
	slog.Info("Configuration loaded successfully", "config_path", cfgPath)
	slog.Info("Trade configuration", "review_label", config.TradeConf.ReviewLabel, "default_owner", config.TradeConf.DefaultOwner, "max_suggestions", config.TradeConf.MaxSuggestions)

	ctx := context.Background()
	reviewLabel := models.NewLabel(config.TradeConf.ReviewLabel)

	// Выбираем бэкенд кеша.
	var cache repository.SnapshotCache
	switch config.CacheConf.Backend {
	case "postgres":
		storage, err := repository.NewStorage(ctx, &config.CacheConf.Postgres)
		if err != nil {
			slog.Error("Cache storage initialization failed", "error", err)
			os.Exit(1)
		}
		defer storage.Close()
		cache = storage
		slog.Info("Postgres cache backend initialized successfully")
	default:
		cache = repository.NewMemoryCache()
		slog.Info("In-memory cache backend initialized")
	}

	// Создаём шлюз к GitHub API.
	githubGateway, err := gateway.NewGitHubGateway(config.GitHubConf.Token, reviewLabel)
	if err != nil {
		slog.Error("GitHub gateway initialization failed", "error", err)
		os.Exit(1)
	}
	slog.Info("GitHub gateway created successfully")

	// Репозиторий Pull Request поверх кеша и шлюза.
	prRepository := repository.NewPullRequestRepository(cache, githubGateway, config.TradeConf.DefaultOwner)

	// Сервис синхронизации кеша по вебхукам.
	syncService := service.NewCacheSyncService(prRepository, githubGateway, reviewLabel)
	slog.Info("Cache sync service created successfully")

	// Сервис trade-команд.
	tradeService := service.NewTradeService(prRepository, config.TradeConf.DefaultOwner, config.TradeConf.MaxSuggestions)
	slog.Info("Trade service created successfully")

	// Поднимаем HTTP-сервер.
	server := web.New(config, syncService, tradeService)
	slog.Info("HTTP server created successfully", "address", server.Address)

	// Запускаем сервер в отдельной горутине.
	go func() {
		if err := server.Start(); err != nil && err.Error() != "http: Server closed" {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("PR Trade service started successfully", "address", server.Address)

	// Ожидаем сигнал остановки для плавного завершения работы.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	// Выполняем корректное завершение сервера с тайм-аутом.
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited properly")
}
