// @title Graylog Relay API
// @version 1.0
// @description Receives Graylog webhook alerts, runs AI investigations with Graylog log search and forwards the result to Microsoft Teams.
// @BasePath /
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kube-rca/graylog-relay/internal/client"
	"github.com/kube-rca/graylog-relay/internal/config"
	"github.com/kube-rca/graylog-relay/internal/db"
	"github.com/kube-rca/graylog-relay/internal/handler"
	"github.com/kube-rca/graylog-relay/internal/metrics"
	"github.com/kube-rca/graylog-relay/internal/service"
	"github.com/kube-rca/graylog-relay/internal/tracing"
)

const (
	serviceName    = "graylog-relay"
	serviceVersion = "1.0.0"
)

func main() {
	// .env 파일이 없어도 환경변수만으로 동작
	_ = godotenv.Load()

	cfg := config.Load()

	logger, err := newLogger(cfg.Telemetry.Environment)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	shutdownTracing, err := tracing.Init(tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
		Environment:    cfg.Telemetry.Environment,
		Enabled:        cfg.Telemetry.TracingEnabled,
	})
	if err != nil {
		logger.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	ctx := context.Background()

	// 선택 의존성: 설정이 없으면 해당 기능만 비활성화
	var searcher service.LogSearcher
	if cfg.Graylog.IsConfigured() {
		graylogClient, err := client.NewGraylogClient(cfg.Graylog, logger, m)
		if err != nil {
			logger.Fatal("Failed to create Graylog client", zap.Error(err))
		}
		searcher = graylogClient
		logger.Info("Graylog search enabled", zap.String("url", cfg.Graylog.URL))
	} else {
		logger.Warn("Graylog search disabled: GRAYLOG_URL / GRAYLOG_USERNAME not set")
	}

	var notifier service.Notifier
	if cfg.Teams.IsConfigured() {
		teamsClient, err := client.NewTeamsClient(cfg.Teams, logger, m)
		if err != nil {
			logger.Fatal("Failed to create Teams client", zap.Error(err))
		}
		notifier = teamsClient
		logger.Info("Teams notification enabled")
	} else {
		logger.Warn("Teams notification disabled: TEAMS_WEBHOOK_URL not set")
	}

	var investigator service.Investigator
	if cfg.Chat.IsConfigured() {
		chatClient, err := client.NewChatClient(ctx, cfg.Chat, logger, m)
		if err != nil {
			logger.Fatal("Failed to create chat client", zap.Error(err))
		}
		investigationService, err := service.NewInvestigationService(chatClient, searcher, logger, m)
		if err != nil {
			logger.Fatal("Failed to create investigation service", zap.Error(err))
		}
		investigator = investigationService
		logger.Info("AI investigation enabled", zap.String("model", cfg.Chat.Model))
	} else {
		logger.Warn("AI investigation disabled: AI_API_KEY not set")
	}

	store := db.NewAlertStore(logger, m)
	alertService, err := service.NewAlertService(store, investigator, notifier, logger, m)
	if err != nil {
		logger.Fatal("Failed to create alert service", zap.Error(err))
	}

	graylogHandler := handler.NewGraylogHandler(alertService, investigator, logger)

	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()
	router.Use(handler.Recovery(logger), handler.RequestLogger(logger))

	// 건강 체크 및 문서
	router.GET("/ping", handler.Ping)
	router.GET("/", handler.Root)
	router.GET("/openapi.json", handler.OpenAPIDoc)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Graylog 웹훅
	api := router.Group("/api/graylog")
	api.POST("/webhook", graylogHandler.ReceiveWebhook)
	api.GET("/webhook/info", graylogHandler.WebhookInfo)
	api.POST("/webhook/analyze", graylogHandler.AnalyzeWebhook)
	api.GET("/alerts", graylogHandler.ListAlerts)
	api.GET("/alerts/:id", graylogHandler.GetAlert)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown tracing", zap.Error(err))
	}
}

func newLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
