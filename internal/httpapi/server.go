package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MarkoPoloResearchLab/bookledger/pkg/book"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Run serves the book API until ctx is cancelled.
func Run(ctx context.Context, cfg Config, service *book.Service, logger *zap.Logger) error {
	if service == nil {
		return fmt.Errorf("book service is required")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	handler := &httpHandler{
		logger:  logger,
		service: service,
		cfg:     cfg,
		metrics: newMetrics(),
	}
	router := setupRouter(cfg, handler)

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("bookd listening", zap.String("addr", cfg.ListenAddr), zap.Bool("auth", cfg.AuthEnabled()))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("server shutdown error", zap.Error(shutdownErr))
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func setupRouter(cfg Config, handler *httpHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(handler.metrics.middleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Origin", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(handler.metrics.handler()))

	api := router.Group("/api")
	if cfg.AuthEnabled() {
		api.Use(newTokenValidator(cfg).ginMiddleware())
	}

	api.GET("/matches", handler.handleListMatches)
	api.POST("/matches", handler.handleCreateMatch)
	api.GET("/matches/:id", handler.handleGetMatch)
	api.PATCH("/matches/:id", handler.handleUpdateMatch)
	api.DELETE("/matches/:id", handler.handleDeleteMatch)
	api.GET("/matches/:id/entries", handler.handleListMatchEntries)
	api.POST("/matches/:id/entries", handler.handleAddEntry)
	api.GET("/matches/:id/summary", handler.handleSummary)
	api.POST("/matches/:id/settle", handler.handleSettle)
	api.POST("/matches/:id/convert", handler.handleConvert)
	api.POST("/matches/:id/import", handler.handleImport)
	api.GET("/matches/:id/export", handler.handleExport)
	api.GET("/matches/:id/statement.pdf", handler.handleStatement)

	api.PATCH("/entries/:id", handler.handleUpdateEntry)
	api.DELETE("/entries/:id", handler.handleDeleteEntry)

	api.GET("/customers", handler.handleListCustomers)
	api.POST("/customers", handler.handleCreateCustomer)
	api.GET("/customers/stats", handler.handleCustomerStats)
	api.GET("/customers/:id", handler.handleGetCustomer)
	api.PATCH("/customers/:id", handler.handleUpdateCustomer)
	api.DELETE("/customers/:id", handler.handleDeleteCustomer)
	api.GET("/customers/:id/entries", handler.handleListCustomerEntries)

	api.GET("/settlements", handler.handleListSettlements)
	api.GET("/dashboard", handler.handleDashboard)
	api.POST("/tools/convert", handler.handlePreviewConversion)

	return router
}

type httpHandler struct {
	logger  *zap.Logger
	service *book.Service
	cfg     Config
	metrics *metrics
}
