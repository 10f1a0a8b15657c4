package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Divoolej/prtrade/conf"
	"github.com/Divoolej/prtrade/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	Address string
	server  *http.Server

	router       *chi.Mux
	syncService  CacheSyncService
	tradeService TradeService

	githubConf conf.GitHubConf
	slackConf  conf.SlackConf
}

// New конструирует HTTP-сервер на базе chi и регистрирует все маршруты.
func New(cfg *conf.Config, sync CacheSyncService, trade TradeService) *Server {
	servAdres := cfg.HTTPServConf.GetAddress()
	mux := chi.NewMux()
	srv := &Server{
		Address:      servAdres,
		router:       mux,
		syncService:  sync,
		tradeService: trade,
		githubConf:   cfg.GitHubConf,
		slackConf:    cfg.SlackConf,
	}
	srv.server = &http.Server{
		Addr:    servAdres,
		Handler: mux,
	}

	srv.setupRoutes()

	return srv
}

// Start запускает HTTP-сервер и блокирует поток до остановки.
func (s *Server) Start() error {
	slog.Info("server starting", "address", s.server.Addr)
	return s.server.ListenAndServe()
}

// setupRoutes настраивает middleware и HTTP-маршруты.
func (s *Server) setupRoutes() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	// Простейший health-check.
	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Вебхук GitHub: события жизненного цикла Pull Request.
	s.router.Post("/api/v1/pull-requests/cache", s.handleCacheUpdate)

	// Slash-команда Slack: список PR проекта либо предложения обмена.
	s.router.Post("/api/v1/pull-requests/status", s.handleStatus)
}

// Shutdown останавливает HTTP-сервер с таймаутом на корректное завершение.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// ---------- утилитарные функции ----------

// writeJSON сериализует структуру в JSON-ответ с нужным статусом.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// mapDomainError переводит доменные ошибки в HTTP-статусы и коды ответа.
func mapDomainError(err error) (status int, code ErrorResponseErrorCode, msg string) {
	if err == nil {
		return http.StatusOK, "", ""
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, NOTFOUND, err.Error()
	case errors.Is(err, domain.ErrNoPullRequests):
		return http.StatusNotFound, NOPULLREQUESTS, err.Error()
	case errors.Is(err, domain.ErrUnsupportedAction):
		return http.StatusUnprocessableEntity, UNSUPPORTEDACTION, err.Error()
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest, INVALIDREQUEST, err.Error()
	case errors.Is(err, domain.ErrInvalidPRURL):
		return http.StatusBadRequest, INVALIDPRURL, err.Error()
	case errors.Is(err, domain.ErrTransport):
		return http.StatusBadGateway, TRANSPORTERROR, err.Error()
	case errors.Is(err, domain.ErrMissingConfig):
		return http.StatusInternalServerError, MISSINGCONFIG, err.Error()
	default:
		slog.Warn("unmapped domain error", "err", err.Error())
		return http.StatusInternalServerError, INTERNALERROR, err.Error()
	}
}
